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

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/open3fs/m3disk/pkg/candidate"
	"github.com/open3fs/m3disk/pkg/common"
	"github.com/open3fs/m3disk/pkg/device"
	"github.com/open3fs/m3disk/pkg/errors"
)

var (
	anchorDevice string
	checkRaid    bool
)

var candidatesCmd = &cli.Command{
	Name:   "candidates",
	Usage:  "Print installation candidate groups",
	Action: listCandidates,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        "device",
			Aliases:     []string{"d"},
			Usage:       "Only resolve the candidates behind this device",
			Destination: &anchorDevice,
		},
	},
}

var checkCmd = &cli.Command{
	Name:      "check",
	Usage:     "Check whether devices can host an installation",
	ArgsUsage: "DEVICE...",
	Action:    checkDevices,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:        "raid",
			Usage:       "Also check that the devices can form one array",
			Destination: &checkRaid,
		},
	},
}

var selectCmd = &cli.Command{
	Name:   "select",
	Usage:  "Print the automatic installation target choice",
	Action: selectDevices,
}

func listCandidates(ctx *cli.Context) error {
	e, err := loadEnv(ctx.Context)
	if err != nil {
		return errors.Trace(err)
	}
	if anchorDevice != "" {
		anchor, err := e.lookup(anchorDevice)
		if err != nil {
			return errors.Trace(err)
		}
		devs, err := e.engine.CandidatesFor(anchor)
		if err != nil {
			return errors.Trace(err)
		}
		printDeviceLine(os.Stdout, devs)
		return nil
	}
	groups, err := e.engine.Candidates()
	if err != nil {
		return errors.Trace(err)
	}
	printGroups(os.Stdout, groups)
	return nil
}

func printGroups(w io.Writer, groups []candidate.Group) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "no candidates")
		return
	}
	for _, g := range groups {
		fmt.Fprintf(w, "%s %s: ", color.CyanString("%-8s", g.Bus), g.Priority)
		printDeviceLine(w, g.Devices)
	}
}

func printDeviceLine(w io.Writer, devs []*device.Device) {
	items := make([]string, 0, len(devs))
	for _, dev := range devs {
		items = append(items, fmt.Sprintf("%s(%s)", dev.Name(), common.HumanSize(dev.Size())))
	}
	fmt.Fprintln(w, strings.Join(items, " "))
}

func checkDevices(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return errors.New("no device given")
	}
	e, err := loadEnv(ctx.Context)
	if err != nil {
		return errors.Trace(err)
	}
	devs, err := e.lookupAll(ctx.Args().Slice())
	if err != nil {
		return errors.Trace(err)
	}
	err = e.engine.CheckCandidates(devs, checkRaid)
	reportCheck(os.Stdout, devs, err)
	return errors.Trace(err)
}

func reportCheck(w io.Writer, devs []*device.Device, err error) {
	var ee *candidate.EligibilityError
	var re *candidate.RaidIncompatibleError
	switch {
	case err == nil:
		fmt.Fprintf(w, "%s ", color.GreenString("OK"))
		printDeviceLine(w, devs)
	case errors.As(err, &ee):
		fmt.Fprintf(w, "%s %s: %s\n", color.RedString(ee.Kind.String()), ee.Device.Name(), ee.Reason)
	case errors.As(err, &re):
		fmt.Fprintf(w, "%s %s\n", color.RedString("RaidIncompatible"), re.Reason)
	default:
		fmt.Fprintf(w, "%s %v\n", color.RedString("Error"), err)
	}
}

func selectDevices(ctx *cli.Context) error {
	e, err := loadEnv(ctx.Context)
	if err != nil {
		return errors.Trace(err)
	}
	groups, err := e.engine.Candidates()
	if err != nil {
		return errors.Trace(err)
	}
	var devs []*device.Device
	for _, g := range groups {
		devs = append(devs, g.Devices...)
	}
	selected := e.engine.SelectCandidates(devs)
	if len(selected) == 0 {
		fmt.Fprintln(os.Stdout, color.YellowString("no automatic choice, select devices manually"))
		return nil
	}
	printDeviceLine(os.Stdout, selected)
	return nil
}
