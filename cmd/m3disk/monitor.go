// Copyright 2025 Open3FS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/open3fs/m3disk/pkg/device"
	"github.com/open3fs/m3disk/pkg/errors"
	"github.com/open3fs/m3disk/pkg/log"
	"github.com/open3fs/m3disk/pkg/udev"
)

var monitorCmd = &cli.Command{
	Name:   "monitor",
	Usage:  "Stream block device events until interrupted",
	Action: monitorDevices,
}

func monitorDevices(ctx *cli.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := loadEnv(sigCtx)
	if err != nil {
		return errors.Trace(err)
	}
	e.registry.Subscribe("printer", notificationPrinter(os.Stdout))
	src := udev.NewNetlinkMonitor(log.Logger, e.cfg.Udev.EventBufferSize)
	if err = e.registry.Run(sigCtx, src); err != nil {
		return errors.Annotate(err, "monitor devices")
	}
	return nil
}

func notificationPrinter(w io.Writer) device.Handler {
	return func(n device.Notification) error {
		action := string(n.Action)
		switch n.Action {
		case udev.ActionAdd:
			action = color.GreenString("%-6s", action)
		case udev.ActionRemove:
			action = color.RedString("%-6s", action)
		default:
			action = color.YellowString("%-6s", action)
		}
		_, err := fmt.Fprintf(w, "%s %s %s ready=%t\n", action, n.Device.Kind(), n.Device.Name(), n.Device.IsReady())
		return err
	}
}
