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

// Package device builds udev descriptors and their sysfs attributes for tests.
package device

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"

	"github.com/open3fs/m3disk/pkg/common"
	"github.com/open3fs/m3disk/pkg/udev"
)

// DefaultSize is the size of fixture disks unless set otherwise.
const DefaultSize = 16 * common.GiB

// Fixture creates descriptors backed by sysfs files written to Fs.
type Fixture struct {
	Fs afero.Fs

	minors map[int]int
}

// NewFixture creates a fixture over fs.
func NewFixture(fs afero.Fs) *Fixture {
	return &Fixture{
		Fs:     fs,
		minors: make(map[int]int),
	}
}

// Builder builds one descriptor.
type Builder struct {
	f     *Fixture
	desc  *udev.Descriptor
	attrs map[string]string
}

func (f *Fixture) newBuilder(syspath, devtype string, major int) *Builder {
	minor := f.minors[major]
	f.minors[major]++
	name := filepath.Base(syspath)
	b := &Builder{
		f: f,
		desc: udev.NewDescriptor(syspath, map[string]string{
			udev.PropSubsystem: udev.SubsystemBlock,
			udev.PropDevtype:   devtype,
			udev.PropDevname:   "/dev/" + name,
			udev.PropMajor:     strconv.Itoa(major),
			udev.PropMinor:     strconv.Itoa(minor),
		}),
		attrs: map[string]string{
			"ro":               "0",
			"queue/rotational": "0",
		},
	}
	return b.Size(DefaultSize)
}

// Disk starts a whole disk on bus, an empty bus leaves ID_BUS unset.
func (f *Fixture) Disk(name, bus string) *Builder {
	b := f.newBuilder("/sys/devices/pci0000:00/block/"+name, udev.DevtypeDisk, 8)
	if bus != "" {
		b.Prop("ID_BUS", bus)
	}
	return b
}

// Partition starts partition number n of parent.
func (f *Fixture) Partition(parent *udev.Descriptor, n int) *Builder {
	name := parent.Sysname() + strconv.Itoa(n)
	b := f.newBuilder(filepath.Join(parent.Syspath, name), udev.DevtypePartition, parent.Major)
	delete(b.attrs, "queue/rotational")
	return b.Prop("PARTN", strconv.Itoa(n))
}

// Loop starts a loop device without backing file.
func (f *Fixture) Loop(name string) *Builder {
	return f.newBuilder("/sys/devices/virtual/block/"+name, udev.DevtypeDisk, 7)
}

// Ram starts a RAM disk.
func (f *Fixture) Ram(name string) *Builder {
	return f.newBuilder("/sys/devices/virtual/block/"+name, udev.DevtypeDisk, 1)
}

// Floppy starts a floppy drive.
func (f *Fixture) Floppy(name string) *Builder {
	return f.newBuilder("/sys/devices/platform/floppy.0/block/"+name, udev.DevtypeDisk, 2)
}

// Cdrom starts an optical drive.
func (f *Fixture) Cdrom(name string) *Builder {
	return f.newBuilder("/sys/devices/pci0000:00/block/"+name, udev.DevtypeDisk, 11).
		Prop("ID_CDROM", "1").
		Prop("ID_BUS", "ata")
}

// Virtio starts a virtio disk, name should start with vd.
func (f *Fixture) Virtio(name string) *Builder {
	return f.newBuilder("/sys/devices/pci0000:00/virtio0/block/"+name, udev.DevtypeDisk, 252)
}

// Xen starts a xen virtual disk.
func (f *Fixture) Xen(name string) *Builder {
	return f.newBuilder("/sys/devices/vbd-51712/block/"+name, udev.DevtypeDisk, 202)
}

// Metadisk starts a raid1 array over members.
func (f *Fixture) Metadisk(name string, members ...*udev.Descriptor) *Builder {
	b := f.newBuilder("/sys/devices/virtual/block/"+name, udev.DevtypeDisk, 9).
		Prop("MD_LEVEL", "raid1").
		Prop("MD_METADATA", "1.2")
	return b.Members(members...)
}

// Members sets the array members and MD_DEVICES.
func (b *Builder) Members(members ...*udev.Descriptor) *Builder {
	b.Prop("MD_DEVICES", strconv.Itoa(len(members)))
	for _, m := range members {
		b.Prop(fmt.Sprintf("MD_DEVICE_%s_DEV", m.Sysname()), m.Devnode)
	}
	return b
}

// Prop sets a udev property.
func (b *Builder) Prop(key, val string) *Builder {
	b.desc.Properties[key] = val
	return b
}

// Attr sets a sysfs attribute.
func (b *Builder) Attr(name, val string) *Builder {
	b.attrs[name] = val
	return b
}

// Size sets the capacity in bytes.
func (b *Builder) Size(bytes uint64) *Builder {
	return b.Attr("size", strconv.FormatUint(bytes/common.SectorSize, 10))
}

// ReadOnly marks the device read only.
func (b *Builder) ReadOnly() *Builder {
	return b.Attr("ro", "1")
}

// Rotational marks the device as spinning media.
func (b *Builder) Rotational() *Builder {
	return b.Attr("queue/rotational", "1")
}

// Backing attaches a backing file to a loop device.
func (b *Builder) Backing(path string) *Builder {
	return b.Attr("loop/backing_file", path)
}

// Build writes the sysfs attributes and returns the descriptor.
func (b *Builder) Build() *udev.Descriptor {
	desc := b.desc.Clone()
	// pick up edited MAJOR, MINOR and DEVTYPE properties
	desc.Merge(nil, nil)
	for name, val := range b.attrs {
		path := filepath.Join(desc.Syspath, name)
		if err := afero.WriteFile(b.f.Fs, path, []byte(val+"\n"), 0644); err != nil {
			panic(err)
		}
	}
	return desc
}

// Detach removes the backing file of a loop device.
func (f *Fixture) Detach(desc *udev.Descriptor) {
	_ = f.Fs.Remove(filepath.Join(desc.Syspath, "loop/backing_file"))
}

// SetAttr writes a sysfs attribute of an existing descriptor.
func (f *Fixture) SetAttr(desc *udev.Descriptor, name, val string) {
	if err := afero.WriteFile(f.Fs, filepath.Join(desc.Syspath, name), []byte(val+"\n"), 0644); err != nil {
		panic(err)
	}
}
