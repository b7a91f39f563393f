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

package device

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/open3fs/m3disk/pkg/common"
	"github.com/open3fs/m3disk/pkg/errors"
	"github.com/open3fs/m3disk/pkg/log"
	"github.com/open3fs/m3disk/pkg/syncutil"
	"github.com/open3fs/m3disk/pkg/udev"
)

// sysfs attributes read by devices
const (
	attrSize        = "size"
	attrReadOnly    = "ro"
	attrRotational  = "queue/rotational"
	attrModel       = "device/model"
	attrBackingFile = "loop/backing_file"
	attrPartition   = "partition"
)

// RaidLevelContainer is the MD_LEVEL of an IMSM/DDF container.
const RaidLevelContainer = "container"

// Device is a registered block device. Its identity is the syspath, the
// descriptor behind it is swapped on change events.
type Device struct {
	syspath  string
	kind     Kind
	registry *Registry

	// mu guards desc and mountpoint
	mu         syncutil.RWMutex
	desc       *udev.Descriptor
	mountpoint string

	// opMu serializes mount operations of this device
	opMu syncutil.Mutex
}

func newDevice(r *Registry, kind Kind, desc *udev.Descriptor) *Device {
	return &Device{
		syspath:  desc.Syspath,
		kind:     kind,
		registry: r,
		desc:     desc,
	}
}

func (d *Device) descriptor() *udev.Descriptor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.desc
}

func (d *Device) setDescriptor(desc *udev.Descriptor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.desc = desc
}

func (d *Device) String() string {
	return fmt.Sprintf("%s(%s)", d.kind, d.Name())
}

// Equal reports whether d and o are the same device.
func (d *Device) Equal(o *Device) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.syspath == o.syspath
}

// Syspath returns the device identity.
func (d *Device) Syspath() string {
	return d.syspath
}

// Kind returns the device variant.
func (d *Device) Kind() Kind {
	return d.kind
}

// Name returns the kernel name, e.g. sda1.
func (d *Device) Name() string {
	return d.descriptor().Sysname()
}

// Devnode returns the device node path, it may be empty.
func (d *Device) Devnode() string {
	return d.descriptor().Devnode
}

// Devtype returns the udev device type.
func (d *Device) Devtype() string {
	return d.descriptor().Devtype
}

// Devlinks returns the udev symlinks of the device.
func (d *Device) Devlinks() []string {
	return d.descriptor().Devlinks()
}

// MajorMinor returns the device numbers.
func (d *Device) MajorMinor() (int, int) {
	desc := d.descriptor()
	return desc.Major, desc.Minor
}

// Property returns a udev property of the device.
func (d *Device) Property(key string) string {
	return d.descriptor().Property(key)
}

func (d *Device) attr(name string) string {
	val, err := d.registry.em.Sysfs.ReadAttr(d.syspath, name)
	if err != nil {
		d.registry.logger.Subscribe(log.FieldKeyDevice, d.syspath).Debugf("Failed to read %s: %v", name, err)
		return ""
	}
	return val
}

// Size returns the capacity in bytes.
func (d *Device) Size() uint64 {
	sectors, err := strconv.ParseUint(d.attr(attrSize), 10, 64)
	if err != nil {
		return 0
	}
	return sectors * common.SectorSize
}

// ReadOnly reports whether the kernel marks the device read only.
func (d *Device) ReadOnly() bool {
	return d.attr(attrReadOnly) == "1"
}

// Rotational reports whether the device is rotational media. A partition
// reports its disk's value.
func (d *Device) Rotational() bool {
	if d.kind == KindPartition {
		parents, err := d.Parents()
		if err != nil || len(parents) == 0 {
			return false
		}
		return parents[0].Rotational()
	}
	return d.attr(attrRotational) == "1"
}

// Model returns a human readable model name.
func (d *Device) Model() string {
	switch d.kind {
	case KindRam:
		return "RAM disk"
	case KindLoop:
		return "Loopback device"
	case KindFloppy:
		return "Floppy disk"
	case KindVirtio:
		return "VirtIO block device"
	case KindXen:
		return "Xen virtual block device"
	case KindMetadisk:
		if level := d.RaidLevel(); level != "" {
			return "Software RAID (" + level + ")"
		}
		return "Software RAID"
	case KindPartition:
		return "Partition"
	}
	if model := d.Property("ID_MODEL"); model != "" {
		return strings.ReplaceAll(model, "_", " ")
	}
	if model := d.attr(attrModel); model != "" {
		return model
	}
	if d.kind == KindCdrom {
		return "CD/DVD drive"
	}
	return "Unknown"
}

// Bus returns the bus name, an empty string when unknown.
func (d *Device) Bus() string {
	switch d.kind {
	case KindDisk:
		if bus := d.Property("ID_BUS"); bus != "" {
			return bus
		}
		name := d.Name()
		switch {
		case strings.HasPrefix(name, "nvme"):
			return "nvme"
		case strings.HasPrefix(name, "mmcblk"):
			return "mmc"
		}
		return ""
	case KindRam:
		return "ram"
	case KindLoop:
		return "loop"
	case KindFloppy:
		return "floppy"
	case KindCdrom:
		return d.Property("ID_BUS")
	case KindVirtio:
		return "virtio"
	case KindXen:
		return "xen"
	case KindMetadisk:
		return "raid"
	case KindPartition:
		parents, err := d.Parents()
		if err != nil || len(parents) == 0 {
			return ""
		}
		return parents[0].Bus()
	}
	return ""
}

// Priority returns the selection priority of the device.
func (d *Device) Priority() Priority {
	switch d.kind {
	case KindFloppy, KindCdrom:
		return PriorityDisable
	case KindRam:
		return PriorityLow
	case KindLoop:
		return PriorityLoop
	case KindDisk:
		if d.Bus() == "" {
			return PriorityLow
		}
		return PriorityDefault
	case KindVirtio, KindXen:
		return PriorityHigh
	case KindMetadisk:
		return PriorityDefault
	case KindPartition:
		parents, err := d.Parents()
		if err != nil || len(parents) == 0 {
			return PriorityDisable
		}
		return parents[0].Priority()
	}
	return PriorityDisable
}

// IsReady reports whether the device can be operated on: a loop device
// needs a backing file and an array needs an attached member.
func (d *Device) IsReady() bool {
	switch d.kind {
	case KindLoop:
		return d.BackingFile() != ""
	case KindMetadisk:
		return d.RaidDevices() > 0
	}
	return true
}

// BackingFile returns the file attached to a loop device.
func (d *Device) BackingFile() string {
	if d.kind != KindLoop {
		return ""
	}
	return d.attr(attrBackingFile)
}

// FSType returns the filesystem type found on the device.
func (d *Device) FSType() string {
	return d.Property("ID_FS_TYPE")
}

// FSUUID returns the filesystem UUID.
func (d *Device) FSUUID() string {
	return d.Property("ID_FS_UUID")
}

// FSLabel returns the filesystem label.
func (d *Device) FSLabel() string {
	return d.Property("ID_FS_LABEL")
}

// PartTableType returns the partition table scheme of a disk, e.g. gpt.
func (d *Device) PartTableType() string {
	return d.Property("ID_PART_TABLE_TYPE")
}

// PartitionNumber returns the partition index, 0 for non partitions.
func (d *Device) PartitionNumber() int {
	if d.kind != KindPartition {
		return 0
	}
	num := d.Property("PARTN")
	if num == "" {
		num = d.attr(attrPartition)
	}
	n, _ := strconv.Atoi(num)
	return n
}

// RaidLevel returns the md level, e.g. raid1 or container.
func (d *Device) RaidLevel() string {
	return d.Property("MD_LEVEL")
}

// RaidMetadata returns the md metadata version.
func (d *Device) RaidMetadata() string {
	return d.Property("MD_METADATA")
}

// RaidContainer returns the devnode of the container an array lives in.
func (d *Device) RaidContainer() string {
	return d.Property("MD_CONTAINER")
}

// IsRaidContainer reports whether d is a container rather than a usable array.
func (d *Device) IsRaidContainer() bool {
	return d.kind == KindMetadisk && d.RaidLevel() == RaidLevelContainer
}

// RaidDevices returns the number of attached array members.
func (d *Device) RaidDevices() int {
	n, _ := strconv.Atoi(d.Property("MD_DEVICES"))
	return n
}

// RaidMembers returns the member device nodes in name order.
func (d *Device) RaidMembers() []string {
	if d.kind != KindMetadisk {
		return nil
	}
	desc := d.descriptor()
	var keys []string
	for key := range desc.Properties {
		if strings.HasPrefix(key, "MD_DEVICE_") && strings.HasSuffix(key, "_DEV") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	members := make([]string, 0, len(keys))
	for _, key := range keys {
		members = append(members, desc.Properties[key])
	}
	return members
}

// CheckSignature fails if a disk reports a partition table and a
// filesystem at the same time.
func (d *Device) CheckSignature() error {
	if !d.kind.IsDisk() {
		return nil
	}
	if pt, fs := d.PartTableType(), d.FSType(); pt != "" && fs != "" {
		return newStructuralError(d.syspath,
			fmt.Sprintf("ambiguous signature: partition table %s and filesystem %s", pt, fs))
	}
	return nil
}

// Parents returns the devices d is built on.
func (d *Device) Parents() ([]*Device, error) {
	return d.registry.parentsOf(d, true)
}

// Children returns the registered devices built on d.
func (d *Device) Children() []*Device {
	return d.registry.Children(d)
}

// RootParents returns the parentless ancestors of d, d itself if it has no
// parents.
func (d *Device) RootParents() ([]*Device, error) {
	return d.registry.RootParents(d)
}

// IsCompound reports whether d is built from more than one device, directly
// or through a compound parent.
func (d *Device) IsCompound() (bool, error) {
	return d.registry.IsCompound(d)
}

// Mountpoint returns where the device was mounted by Mount.
func (d *Device) Mountpoint() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.mountpoint
}

// Mountpoints returns every active mountpoint of the device.
func (d *Device) Mountpoints() ([]string, error) {
	major, minor := d.MajorMinor()
	mps, err := d.registry.em.MountTable.Mountpoints(major, minor)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return mps, nil
}

// IsMounted reports whether the device has an active mountpoint.
func (d *Device) IsMounted() (bool, error) {
	mps, err := d.Mountpoints()
	if err != nil {
		return false, errors.Trace(err)
	}
	return len(mps) > 0, nil
}

// Mount mounts the device on target.
func (d *Device) Mount(ctx context.Context, target string, opts ...string) error {
	d.opMu.Lock()
	defer d.opMu.Unlock()

	if mp := d.Mountpoint(); mp != "" {
		return errors.Errorf("%s is already mounted on %s", d.Name(), mp)
	}
	devnode := d.Devnode()
	if devnode == "" {
		return errors.Errorf("%s has no device node", d.Name())
	}
	if err := d.registry.em.Mount.Mount(ctx, devnode, target, opts...); err != nil {
		return errors.Annotatef(err, "mount %s", d.Name())
	}
	d.mu.Lock()
	d.mountpoint = target
	d.mu.Unlock()
	return nil
}

// Umount unmounts the device from the mountpoint set by Mount.
func (d *Device) Umount(ctx context.Context) error {
	d.opMu.Lock()
	defer d.opMu.Unlock()

	mp := d.Mountpoint()
	if mp == "" {
		return errors.Errorf("%s is not mounted", d.Name())
	}
	if err := d.registry.em.Mount.Umount(ctx, mp); err != nil {
		return errors.Annotatef(err, "umount %s", d.Name())
	}
	d.mu.Lock()
	d.mountpoint = ""
	d.mu.Unlock()
	return nil
}
