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

package candidate

import (
	"fmt"
	"sort"

	"github.com/open3fs/m3disk/pkg/common"
	"github.com/open3fs/m3disk/pkg/device"
	"github.com/open3fs/m3disk/pkg/errors"
	"github.com/open3fs/m3disk/pkg/log"
	"github.com/open3fs/m3disk/pkg/utils"
)

// defaults of the engine
const (
	DefaultMinInstallSize      = common.MiB
	DefaultRaidSizeSkewPercent = 1
)

// Group is a set of devices that may form one array.
type Group struct {
	Bus      string
	Priority device.Priority
	Devices  []*device.Device
}

// Engine picks and validates installation target disks from a registry.
type Engine struct {
	registry       *device.Registry
	logger         log.Interface
	minInstallSize uint64
	skewPercent    uint64
}

// EngineCfg defines configurations of an engine.
type EngineCfg struct {
	Registry *device.Registry
	Logger   log.Interface
	// MinInstallSize is the smallest accepted device in bytes.
	MinInstallSize uint64
	// RaidSizeSkewPercent bounds (max-min)/max of array members.
	RaidSizeSkewPercent uint64
}

// NewEngine creates an engine.
func NewEngine(cfg *EngineCfg) *Engine {
	e := &Engine{
		registry:       cfg.Registry,
		logger:         cfg.Logger,
		minInstallSize: cfg.MinInstallSize,
		skewPercent:    cfg.RaidSizeSkewPercent,
	}
	if e.logger == nil {
		e.logger = log.Logger
	}
	e.logger = e.logger.Subscribe(log.FieldKeyComponent, "candidate")
	if e.minInstallSize == 0 {
		e.minInstallSize = DefaultMinInstallSize
	}
	if e.skewPercent == 0 {
		e.skewPercent = DefaultRaidSizeSkewPercent
	}
	return e
}

// resolve maps a device to the disks an installation would partition.
func (e *Engine) resolve(dev *device.Device, visited utils.Set[string]) ([]*device.Device, error) {
	if !visited.AddIfNotExists(dev.Syspath()) {
		return nil, nil
	}
	if dev.Kind() == device.KindPartition {
		return e.resolveParents(dev, visited)
	}
	if dev.IsRaidContainer() {
		return nil, nil
	}
	if dev.Priority() == device.PriorityDisable {
		return nil, nil
	}
	parents, err := dev.Parents()
	if err != nil {
		return nil, errors.Trace(err)
	}
	for _, parent := range parents {
		if parent.Kind() == device.KindPartition {
			// an array on partitions is installed against its disks
			return e.resolveParents(dev, visited)
		}
	}
	return []*device.Device{dev}, nil
}

func (e *Engine) resolveParents(dev *device.Device, visited utils.Set[string]) ([]*device.Device, error) {
	parents, err := dev.Parents()
	if err != nil {
		return nil, errors.Trace(err)
	}
	var out []*device.Device
	for _, parent := range parents {
		devs, err := e.resolve(parent, visited)
		if err != nil {
			return nil, err
		}
		out = append(out, devs...)
	}
	return out, nil
}

func (e *Engine) candidateDevices(devs []*device.Device) ([]*device.Device, error) {
	var out []*device.Device
	seen := utils.NewSet[string]()
	for _, dev := range devs {
		resolved, err := e.resolve(dev, utils.NewSet[string]())
		if err != nil {
			return nil, err
		}
		for _, r := range resolved {
			if seen.AddIfNotExists(r.Syspath()) {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

type groupKey struct {
	bus      string
	priority device.Priority
}

func groupDevices(devs []*device.Device) []Group {
	index := make(map[groupKey]int)
	var groups []Group
	for _, dev := range devs {
		key := groupKey{bus: dev.Bus(), priority: dev.Priority()}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Bus: key.bus, Priority: key.priority})
		}
		groups[i].Devices = append(groups[i].Devices, dev)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Priority != groups[j].Priority {
			return groups[i].Priority > groups[j].Priority
		}
		return groups[i].Bus < groups[j].Bus
	})
	for _, g := range groups {
		sort.SliceStable(g.Devices, func(i, j int) bool {
			return g.Devices[i].Name() < g.Devices[j].Name()
		})
	}
	return groups
}

// Candidates returns the candidate groups of the whole system, highest
// priority first.
func (e *Engine) Candidates() ([]Group, error) {
	devs, err := e.candidateDevices(e.registry.LeafDevices())
	if err != nil {
		return nil, errors.Annotate(err, "resolve candidates")
	}
	return groupDevices(devs), nil
}

// CandidatesFor returns the candidate disks behind anchor. They always
// form at most one group.
func (e *Engine) CandidatesFor(anchor *device.Device) ([]*device.Device, error) {
	devs, err := e.candidateDevices([]*device.Device{anchor})
	if err != nil {
		return nil, errors.Annotatef(err, "resolve candidates of %s", anchor.Name())
	}
	groups := groupDevices(devs)
	switch len(groups) {
	case 0:
		return nil, nil
	case 1:
		return groups[0].Devices, nil
	}
	return nil, errors.Errorf("%s resolves to %d candidate groups", anchor.Name(), len(groups))
}

// CheckCandidate validates dev for standalone use.
func (e *Engine) CheckCandidate(dev *device.Device) error {
	if dev.ReadOnly() {
		return newEligibilityError(ReadOnly, dev, "device is read-only")
	}
	if size := dev.Size(); size < e.minInstallSize {
		return newEligibilityError(TooSmall, dev, fmt.Sprintf("size %s is below %s",
			common.HumanSize(size), common.HumanSize(e.minInstallSize)))
	}

	mounted, err := dev.IsMounted()
	if err != nil {
		return errors.Annotatef(err, "check mounts of %s", dev.Name())
	}
	if mounted {
		return newEligibilityError(Busy, dev, "mounted")
	}
	for _, part := range e.registry.Partitions(dev) {
		if mounted, err = part.IsMounted(); err != nil {
			return errors.Annotatef(err, "check mounts of %s", part.Name())
		}
		if mounted {
			return newEligibilityError(Busy, dev, "partition mounted")
		}
	}

	running, err := e.inRunningArray(dev)
	if err != nil {
		return errors.Trace(err)
	}
	if running {
		return newEligibilityError(Busy, dev, "raid array running")
	}

	return errors.Trace(dev.CheckSignature())
}

// inRunningArray reports whether dev shares a root disk with an assembled
// array other than itself.
func (e *Engine) inRunningArray(dev *device.Device) (bool, error) {
	roots, err := dev.RootParents()
	if err != nil {
		return false, errors.Trace(err)
	}
	devRoots := utils.NewSet[string]()
	for _, root := range roots {
		devRoots.Add(root.Syspath())
	}
	for _, leaf := range e.registry.LeafDevices() {
		if leaf.Kind() != device.KindMetadisk || leaf.Equal(dev) {
			continue
		}
		leafRoots, err := leaf.RootParents()
		if err != nil {
			return false, errors.Trace(err)
		}
		for _, root := range leafRoots {
			if devRoots.Contains(root.Syspath()) {
				e.logger.Debugf("%s backs running array %s", dev.Name(), leaf.Name())
				return true, nil
			}
		}
	}
	return false, nil
}

// CheckCandidates validates every device, and with raid set also the set as
// one array.
func (e *Engine) CheckCandidates(devs []*device.Device, raid bool) error {
	for _, dev := range devs {
		if err := e.CheckCandidate(dev); err != nil {
			return err
		}
	}
	if !raid || len(devs) < 2 {
		return nil
	}
	return e.checkRaid(devs)
}

func (e *Engine) checkRaid(devs []*device.Device) error {
	bus := devs[0].Bus()
	rotational := devs[0].Rotational()
	minSize, maxSize := devs[0].Size(), devs[0].Size()
	for _, dev := range devs[1:] {
		if dev.Bus() != bus {
			return newRaidIncompatibleError(devs, "devices are on different buses")
		}
		if dev.Rotational() != rotational {
			return newRaidIncompatibleError(devs, "rotational and non-rotational devices are mixed")
		}
		size := dev.Size()
		minSize = min(minSize, size)
		maxSize = max(maxSize, size)
	}
	if (maxSize-minSize)*100 > maxSize*e.skewPercent {
		return newRaidIncompatibleError(devs, fmt.Sprintf(
			"size difference %s exceeds %d%% of the largest device %s",
			common.HumanSize(maxSize-minSize), e.skewPercent, common.HumanSize(maxSize)))
	}
	return nil
}

// SelectCandidates picks the best installation target set from devs. It
// returns nil when no device fits or when several valid devices of the top
// priority cannot form one array. Devices are grouped by priority alone, so
// valid devices on different buses go through the raid check together.
func (e *Engine) SelectCandidates(devs []*device.Device) []*device.Device {
	byPriority := make(map[device.Priority][]*device.Device)
	var priorities []device.Priority
	for _, dev := range devs {
		if dev.Bus() == "" {
			e.logger.Debugf("Skip %s with unknown bus", dev.Name())
			continue
		}
		p := dev.Priority()
		if p == device.PriorityDisable {
			e.logger.Debugf("Skip disabled device %s", dev.Name())
			continue
		}
		if _, ok := byPriority[p]; !ok {
			priorities = append(priorities, p)
		}
		byPriority[p] = append(byPriority[p], dev)
	}
	sort.Slice(priorities, func(i, j int) bool {
		return priorities[i] > priorities[j]
	})

	for _, p := range priorities {
		var valid []*device.Device
		for _, dev := range byPriority[p] {
			if err := e.CheckCandidate(dev); err != nil {
				e.logger.Infof("Filter out %s: %v", dev.Name(), err)
				continue
			}
			valid = append(valid, dev)
		}
		switch len(valid) {
		case 0:
			continue
		case 1:
			return valid
		}
		if err := e.CheckCandidates(valid, true); err != nil {
			e.logger.Warnf("No automatic choice among %d devices: %v", len(valid), err)
			return nil
		}
		return valid
	}
	return nil
}
