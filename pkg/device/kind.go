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
	"strings"

	"github.com/open3fs/m3disk/pkg/udev"
)

// Kind is the closed set of block device variants.
type Kind int

// defines device kinds
const (
	KindUnknown Kind = iota
	KindDisk
	KindRam
	KindLoop
	KindFloppy
	KindCdrom
	KindVirtio
	KindXen
	KindMetadisk
	KindPartition
)

var kindNames = map[Kind]string{
	KindUnknown:   "unknown",
	KindDisk:      "disk",
	KindRam:       "ram",
	KindLoop:      "loop",
	KindFloppy:    "floppy",
	KindCdrom:     "cdrom",
	KindVirtio:    "virtio",
	KindXen:       "xen",
	KindMetadisk:  "metadisk",
	KindPartition: "partition",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsDisk reports whether k is a whole disk variant.
func (k Kind) IsDisk() bool {
	return k != KindUnknown && k != KindPartition
}

// Priority orders devices for automatic selection, higher wins.
type Priority int

// defines priorities
const (
	PriorityDisable Priority = 0
	PriorityLow     Priority = 10
	PriorityLoop    Priority = PriorityLow + 1
	PriorityDefault Priority = 50
	PriorityHigh    Priority = 100
)

func (p Priority) String() string {
	switch p {
	case PriorityDisable:
		return "disable"
	case PriorityLow:
		return "low"
	case PriorityLoop:
		return "loop"
	case PriorityDefault:
		return "default"
	case PriorityHigh:
		return "high"
	}
	return "unknown"
}

// block device major numbers
const (
	majorRam      = 1
	majorFloppy   = 2
	majorLoop     = 7
	majorMetadisk = 9
	majorCdrom    = 11
	majorXen      = 202
)

type classifyRule struct {
	kind  Kind
	match func(desc *udev.Descriptor) bool
}

func majorIs(major int) func(*udev.Descriptor) bool {
	return func(desc *udev.Descriptor) bool {
		return desc.Major == major
	}
}

// classifyRules is evaluated in order, the first match wins.
var classifyRules = []classifyRule{
	{KindPartition, func(desc *udev.Descriptor) bool {
		return desc.Devtype == udev.DevtypePartition
	}},
	{KindRam, majorIs(majorRam)},
	{KindFloppy, majorIs(majorFloppy)},
	{KindLoop, majorIs(majorLoop)},
	{KindMetadisk, majorIs(majorMetadisk)},
	{KindCdrom, majorIs(majorCdrom)},
	{KindXen, majorIs(majorXen)},
	{KindVirtio, func(desc *udev.Descriptor) bool {
		return strings.HasPrefix(desc.Sysname(), "vd")
	}},
	{KindCdrom, func(desc *udev.Descriptor) bool {
		return desc.Property("ID_CDROM") == "1" || desc.Property("ID_TYPE") == "cd"
	}},
	{KindDisk, func(desc *udev.Descriptor) bool {
		return desc.Devtype == udev.DevtypeDisk
	}},
}

// Classify maps a descriptor to its device kind. Descriptors outside the
// block subsystem and unmatched ones yield KindUnknown.
func Classify(desc *udev.Descriptor) Kind {
	if desc == nil {
		return KindUnknown
	}
	if desc.Subsystem != "" && desc.Subsystem != udev.SubsystemBlock {
		return KindUnknown
	}
	for _, rule := range classifyRules {
		if rule.match(desc) {
			return rule.kind
		}
	}
	return KindUnknown
}
