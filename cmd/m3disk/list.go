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
	"strings"
	"text/tabwriter"

	"github.com/bitly/go-simplejson"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/open3fs/m3disk/pkg/common"
	"github.com/open3fs/m3disk/pkg/device"
	"github.com/open3fs/m3disk/pkg/errors"
)

var listJSON bool

var listCmd = &cli.Command{
	Name:    "list",
	Aliases: []string{"ls"},
	Usage:   "List registered block devices",
	Action:  listDevices,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print devices as JSON",
			Destination: &listJSON,
		},
	},
}

func listDevices(ctx *cli.Context) error {
	e, err := loadEnv(ctx.Context)
	if err != nil {
		return errors.Trace(err)
	}
	devs := e.registry.Devices()
	if listJSON {
		data, err := devicesJSON(devs).EncodePretty()
		if err != nil {
			return errors.Annotate(err, "encode devices")
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}
	return errors.Trace(printDevices(os.Stdout, devs))
}

func deviceJSON(dev *device.Device) *simplejson.Json {
	js := simplejson.New()
	major, minor := dev.MajorMinor()
	js.Set("name", dev.Name())
	js.Set("syspath", dev.Syspath())
	js.Set("devnode", dev.Devnode())
	js.Set("kind", dev.Kind().String())
	js.Set("majMin", fmt.Sprintf("%d:%d", major, minor))
	js.Set("model", dev.Model())
	js.Set("bus", dev.Bus())
	js.Set("size", dev.Size())
	js.Set("priority", dev.Priority().String())
	js.Set("readOnly", dev.ReadOnly())
	js.Set("rotational", dev.Rotational())
	js.Set("ready", dev.IsReady())
	if fsType := dev.FSType(); fsType != "" {
		js.SetPath([]string{"fs", "type"}, fsType)
		js.SetPath([]string{"fs", "uuid"}, dev.FSUUID())
		js.SetPath([]string{"fs", "label"}, dev.FSLabel())
	}
	if pt := dev.PartTableType(); pt != "" {
		js.Set("partTable", pt)
	}
	if dev.Kind() == device.KindMetadisk {
		js.SetPath([]string{"raid", "level"}, dev.RaidLevel())
		js.SetPath([]string{"raid", "metadata"}, dev.RaidMetadata())
		js.SetPath([]string{"raid", "members"}, dev.RaidMembers())
	}
	if parents, err := dev.Parents(); err == nil {
		names := make([]string, 0, len(parents))
		for _, parent := range parents {
			names = append(names, parent.Name())
		}
		js.Set("parents", names)
	} else {
		js.Set("error", err.Error())
	}
	if mps, err := dev.Mountpoints(); err == nil && len(mps) > 0 {
		js.Set("mountpoints", mps)
	}
	return js
}

func devicesJSON(devs []*device.Device) *simplejson.Json {
	items := make([]any, 0, len(devs))
	for _, dev := range devs {
		items = append(items, deviceJSON(dev).Interface())
	}
	js := simplejson.New()
	js.Set("devices", items)
	return js
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printDevices(w io.Writer, devs []*device.Device) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tBUS\tSIZE\tPRIORITY\tRO\tROT\tREADY\tFSTYPE\tMOUNTPOINTS")
	for _, dev := range devs {
		ready := color.GreenString("yes")
		if !dev.IsReady() {
			ready = color.YellowString("no")
		}
		mps, err := dev.Mountpoints()
		if err != nil {
			return errors.Trace(err)
		}
		bus := dev.Bus()
		if bus == "" {
			bus = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			dev.Name(), dev.Kind(), bus, common.HumanSize(dev.Size()), dev.Priority(),
			yesNo(dev.ReadOnly()), yesNo(dev.Rotational()), ready, dev.FSType(),
			strings.Join(mps, ","))
	}
	return errors.Trace(tw.Flush())
}
