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
	"path/filepath"

	"github.com/open3fs/m3disk/pkg/common"
	"github.com/open3fs/m3disk/pkg/errors"
	"github.com/open3fs/m3disk/pkg/event"
	"github.com/open3fs/m3disk/pkg/external"
	"github.com/open3fs/m3disk/pkg/log"
	"github.com/open3fs/m3disk/pkg/syncutil"
	"github.com/open3fs/m3disk/pkg/udev"
	"github.com/open3fs/m3disk/pkg/utils"
)

// Notification is published for every registry mutation.
type Notification struct {
	Action udev.Action
	Device *Device
}

// Handler handles registry notifications.
type Handler = event.Handler[Notification]

// Registry tracks the block devices of the host.
type Registry struct {
	// mu guards devices and index, it is never held while notifying
	mu      syncutil.Mutex
	devices []*Device
	index   map[string]*Device

	bus        *event.Bus[Notification]
	em         *external.Manager
	logger     log.Interface
	bufferSize int
}

// RegistryCfg defines configurations of a registry.
type RegistryCfg struct {
	Logger  log.Interface
	Manager *external.Manager
	// EventBufferSize is the capacity of the channel between a source and Run.
	EventBufferSize int
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg *RegistryCfg) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Logger
	}
	bufferSize := cfg.EventBufferSize
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Registry{
		index:      make(map[string]*Device),
		bus:        event.NewBus[Notification](logger),
		em:         cfg.Manager,
		logger:     logger.Subscribe(log.FieldKeyComponent, "registry"),
		bufferSize: bufferSize,
	}
}

// Subscribe registers handler for every add, change and remove.
func (r *Registry) Subscribe(name string, handler Handler) event.SubscriberID {
	return r.bus.Subscribe(name, handler)
}

// Unsubscribe removes a subscription.
func (r *Registry) Unsubscribe(id event.SubscriberID) bool {
	return r.bus.Unsubscribe(id)
}

func (r *Registry) publish(action udev.Action, dev *Device) []event.Fault {
	faults := r.bus.Publish(Notification{Action: action, Device: dev})
	if len(faults) > 0 {
		r.logger.Subscribe(log.FieldKeyEvent, string(action)).
			Warnf("%d subscribers failed on %s", len(faults), dev.Syspath())
	}
	return faults
}

// Add registers the device described by desc. An unclassified descriptor is
// dropped and yields a nil device, a known syspath is handled as a change.
func (r *Registry) Add(desc *udev.Descriptor) (*Device, []event.Fault) {
	return r.add(desc, true)
}

func (r *Registry) add(desc *udev.Descriptor, fallback bool) (*Device, []event.Fault) {
	kind := Classify(desc)
	if kind == KindUnknown {
		r.logger.Debugf("Ignore unclassified device %s: %s", desc.Syspath, common.PrettySdump(desc.Properties))
		return nil, nil
	}

	r.mu.Lock()
	if existing, ok := r.index[desc.Syspath]; ok {
		r.mu.Unlock()
		if !fallback {
			return existing, nil
		}
		r.logger.Warnf("Device %s is already registered, handle add as change", desc.Syspath)
		return existing, r.change(desc, false)
	}
	dev := newDevice(r, kind, desc.Clone())
	r.devices = append(r.devices, dev)
	r.index[dev.syspath] = dev
	r.mu.Unlock()

	r.logger.Subscribe(log.FieldKeyDevice, dev.syspath).Debugf("Added %s", dev.kind)
	return dev, r.publish(udev.ActionAdd, dev)
}

// Remove unregisters every device matching the syspath of desc.
func (r *Registry) Remove(desc *udev.Descriptor) []event.Fault {
	var faults []event.Fault
	for {
		r.mu.Lock()
		dev := r.removeLocked(desc.Syspath)
		r.mu.Unlock()
		if dev == nil {
			break
		}
		r.logger.Subscribe(log.FieldKeyDevice, dev.syspath).Debugf("Removed %s", dev.kind)
		faults = append(faults, r.publish(udev.ActionRemove, dev)...)
	}
	return faults
}

func (r *Registry) removeLocked(syspath string) *Device {
	for i, dev := range r.devices {
		if dev.syspath != syspath {
			continue
		}
		r.devices = append(r.devices[:i:i], r.devices[i+1:]...)
		if r.index[syspath] == dev {
			delete(r.index, syspath)
		}
		return dev
	}
	return nil
}

// Change swaps the descriptor of every device matching the syspath of desc,
// keeping its identity and mountpoint. An unknown syspath is handled as an add.
func (r *Registry) Change(desc *udev.Descriptor) []event.Fault {
	return r.change(desc, true)
}

func (r *Registry) change(desc *udev.Descriptor, fallback bool) []event.Fault {
	var faults []event.Fault
	changed := utils.NewSet[*Device]()
	for {
		var dev *Device
		r.mu.Lock()
		for _, d := range r.devices {
			if d.syspath == desc.Syspath && !changed.Contains(d) {
				dev = d
				break
			}
		}
		if dev != nil {
			dev.setDescriptor(desc.Clone())
			changed.Add(dev)
		}
		r.mu.Unlock()
		if dev == nil {
			break
		}
		r.logger.Subscribe(log.FieldKeyDevice, dev.syspath).Debugf("Changed %s", dev.kind)
		faults = append(faults, r.publish(udev.ActionChange, dev)...)
	}
	if changed.Len() == 0 && fallback {
		r.logger.Debugf("Change of unregistered device %s, handle as add", desc.Syspath)
		_, faults = r.add(desc, false)
	}
	return faults
}

// Handle applies a device event.
func (r *Registry) Handle(ev udev.Event) []event.Fault {
	if ev.Device == nil {
		return nil
	}
	switch ev.Action {
	case udev.ActionAdd:
		_, faults := r.Add(ev.Device)
		return faults
	case udev.ActionRemove:
		return r.Remove(ev.Device)
	case udev.ActionChange:
		return r.Change(ev.Device)
	}
	r.logger.Debugf("Ignore %s event of %s", ev.Action, ev.Device.Syspath)
	return nil
}

// Load adds every device the enumerator finds.
func (r *Registry) Load(ctx context.Context, enum udev.Enumerator) error {
	descs, err := enum.Enumerate(ctx)
	if err != nil {
		return errors.Annotate(err, "enumerate devices")
	}
	for _, desc := range descs {
		r.Add(desc)
	}
	r.logger.Infof("Loaded %d block devices", r.Len())
	return nil
}

// Run applies the events of src serially until ctx is done or src stops,
// and returns the error of src.
func (r *Registry) Run(ctx context.Context, src udev.Source) error {
	events := make(chan udev.Event, r.bufferSize)
	errCh := make(chan error, 1)
	go func() {
		errCh <- src.Run(ctx, events)
	}()

	for {
		select {
		case ev := <-events:
			r.Handle(ev)
		case err := <-errCh:
			// apply what the source queued before it stopped
			for {
				select {
				case ev := <-events:
					r.Handle(ev)
				default:
					return errors.Trace(err)
				}
			}
		case <-ctx.Done():
			return errors.Trace(<-errCh)
		}
	}
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.devices)
}

// Devices returns a snapshot of every registered device in add order.
func (r *Registry) Devices() []*Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	devices := make([]*Device, len(r.devices))
	copy(devices, r.devices)
	return devices
}

// ListReady returns the devices that can be operated on.
func (r *Registry) ListReady() []*Device {
	var ready []*Device
	for _, dev := range r.Devices() {
		if dev.IsReady() {
			ready = append(ready, dev)
		}
	}
	return ready
}

// FindBySyspath returns the device registered under syspath.
func (r *Registry) FindBySyspath(syspath string) *Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index[filepath.Clean(syspath)]
}

// FindByMajorMinor returns the device with the given numbers.
func (r *Registry) FindByMajorMinor(major, minor int) *Device {
	for _, dev := range r.Devices() {
		if maj, min := dev.MajorMinor(); maj == major && min == minor {
			return dev
		}
	}
	return nil
}

// FindByDevnode returns the device whose node or one of whose symlinks is
// devnode.
func (r *Registry) FindByDevnode(devnode string) *Device {
	if devnode == "" {
		return nil
	}
	devnode = filepath.Clean(devnode)
	devices := r.Devices()
	for _, dev := range devices {
		if dev.Devnode() == devnode {
			return dev
		}
	}
	for _, dev := range devices {
		for _, link := range dev.Devlinks() {
			if link == devnode {
				return dev
			}
		}
	}
	return nil
}

// parentsOf resolves the parents of d. In strict mode a partition without a
// registered disk is a StructuralError, otherwise it has no parents.
func (r *Registry) parentsOf(d *Device, strict bool) ([]*Device, error) {
	switch d.kind {
	case KindPartition:
		parentPath := filepath.Dir(d.syspath)
		parent := r.FindBySyspath(parentPath)
		if parent == nil {
			if !strict {
				return nil, nil
			}
			return nil, newStructuralError(d.syspath, "no registered parent device "+parentPath)
		}
		return []*Device{parent}, nil
	case KindMetadisk:
		var parents []*Device
		seen := utils.NewSet[string]()
		for _, member := range d.RaidMembers() {
			parent := r.FindByDevnode(member)
			if parent == nil || parent.Equal(d) || seen.Contains(parent.syspath) {
				continue
			}
			seen.Add(parent.syspath)
			parents = append(parents, parent)
		}
		return parents, nil
	}
	return nil, nil
}

// LeafDevices returns the ready devices no registered device is built on.
func (r *Registry) LeafDevices() []*Device {
	named := utils.NewSet[string]()
	for _, dev := range r.Devices() {
		parents, _ := r.parentsOf(dev, false)
		for _, parent := range parents {
			named.Add(parent.syspath)
		}
	}
	var leaves []*Device
	for _, dev := range r.ListReady() {
		if !named.Contains(dev.syspath) {
			leaves = append(leaves, dev)
		}
	}
	return leaves
}

// RootDevices returns the ready devices without parents.
func (r *Registry) RootDevices() []*Device {
	var roots []*Device
	for _, dev := range r.ListReady() {
		parents, err := r.parentsOf(dev, true)
		if err == nil && len(parents) == 0 {
			roots = append(roots, dev)
		}
	}
	return roots
}

// Children returns the registered devices naming d as a parent.
func (r *Registry) Children(d *Device) []*Device {
	var children []*Device
	for _, dev := range r.Devices() {
		parents, _ := r.parentsOf(dev, false)
		for _, parent := range parents {
			if parent.Equal(d) {
				children = append(children, dev)
				break
			}
		}
	}
	return children
}

// Partitions returns the partitions of disk d.
func (r *Registry) Partitions(d *Device) []*Device {
	var partitions []*Device
	for _, child := range r.Children(d) {
		if child.kind == KindPartition {
			partitions = append(partitions, child)
		}
	}
	return partitions
}

// RootParents returns the parentless ancestors of d, or d itself when it has
// no parents.
func (r *Registry) RootParents(d *Device) ([]*Device, error) {
	var roots []*Device
	visited := utils.NewSet[string]()
	var walk func(dev *Device) error
	walk = func(dev *Device) error {
		if visited.Contains(dev.syspath) {
			return nil
		}
		visited.Add(dev.syspath)
		parents, err := r.parentsOf(dev, true)
		if err != nil {
			return errors.Trace(err)
		}
		if len(parents) == 0 {
			roots = append(roots, dev)
			return nil
		}
		for _, parent := range parents {
			if err = walk(parent); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(d); err != nil {
		return nil, err
	}
	return roots, nil
}

// IsCompound reports whether d has more than one parent or a compound parent.
func (r *Registry) IsCompound(d *Device) (bool, error) {
	visited := utils.NewSet[string]()
	var compound func(dev *Device) (bool, error)
	compound = func(dev *Device) (bool, error) {
		if visited.Contains(dev.syspath) {
			return false, nil
		}
		visited.Add(dev.syspath)
		parents, err := r.parentsOf(dev, true)
		if err != nil {
			return false, errors.Trace(err)
		}
		if len(parents) > 1 {
			return true, nil
		}
		for _, parent := range parents {
			ok, err := compound(parent)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}
	return compound(d)
}
