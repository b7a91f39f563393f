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

package udev

import (
	"maps"
	"path/filepath"
	"strconv"
	"strings"
)

// SysfsBase is the prefix every syspath is reported under.
const SysfsBase = "/sys"

// udev property keys used across the module.
const (
	PropSubsystem = "SUBSYSTEM"
	PropDevtype   = "DEVTYPE"
	PropDevname   = "DEVNAME"
	PropDevpath   = "DEVPATH"
	PropMajor     = "MAJOR"
	PropMinor     = "MINOR"
	PropDevlinks  = "DEVLINKS"
)

// defines device types
const (
	DevtypeDisk      = "disk"
	DevtypePartition = "partition"
)

// SubsystemBlock is the only subsystem the registry tracks.
const SubsystemBlock = "block"

// Descriptor is a point-in-time view of a kernel device as udev reports it.
type Descriptor struct {
	Syspath    string
	Subsystem  string
	Devtype    string
	Devnode    string
	Major      int
	Minor      int
	Properties map[string]string
}

// NewDescriptor builds a descriptor from a udev environment. kobj is either
// a DEVPATH relative to sysfs or an absolute path under /sys.
func NewDescriptor(kobj string, env map[string]string) *Descriptor {
	if kobj == "" {
		kobj = env[PropDevpath]
	}
	syspath := filepath.Clean(kobj)
	if syspath != SysfsBase && !strings.HasPrefix(syspath, SysfsBase+"/") {
		syspath = filepath.Join(SysfsBase, syspath)
	}

	props := make(map[string]string, len(env))
	maps.Copy(props, env)
	d := &Descriptor{
		Syspath:    syspath,
		Properties: props,
	}
	d.refresh()
	return d
}

// refresh rebuilds the typed fields from Properties.
func (d *Descriptor) refresh() {
	d.Subsystem = d.Properties[PropSubsystem]
	d.Devtype = d.Properties[PropDevtype]
	d.Devnode = ""
	if name := d.Properties[PropDevname]; name != "" {
		if filepath.IsAbs(name) {
			d.Devnode = name
		} else {
			d.Devnode = filepath.Join("/dev", name)
		}
	}
	d.Major, _ = strconv.Atoi(d.Properties[PropMajor])
	d.Minor, _ = strconv.Atoi(d.Properties[PropMinor])
}

// Property returns the value of key, or an empty string.
func (d *Descriptor) Property(key string) string {
	return d.Properties[key]
}

// Sysname returns the kernel name of the device, e.g. sda1.
func (d *Descriptor) Sysname() string {
	return filepath.Base(d.Syspath)
}

// Devlinks returns the symlinks udev created for the device.
func (d *Descriptor) Devlinks() []string {
	return strings.Fields(d.Properties[PropDevlinks])
}

// Merge overlays udev database content onto the descriptor.
func (d *Descriptor) Merge(props map[string]string, links []string) {
	maps.Copy(d.Properties, props)
	if len(links) > 0 && d.Properties[PropDevlinks] == "" {
		full := make([]string, 0, len(links))
		for _, link := range links {
			if !filepath.IsAbs(link) {
				link = filepath.Join("/dev", link)
			}
			full = append(full, link)
		}
		d.Properties[PropDevlinks] = strings.Join(full, " ")
	}
	d.refresh()
}

// Clone returns a deep copy of the descriptor.
func (d *Descriptor) Clone() *Descriptor {
	c := *d
	c.Properties = maps.Clone(d.Properties)
	if c.Properties == nil {
		c.Properties = map[string]string{}
	}
	return &c
}

// Action is the kind of a device event.
type Action string

// defines actions
const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
	ActionChange Action = "change"
)

// Event is a device event delivered by a Source.
type Event struct {
	Action Action
	Device *Descriptor
}
