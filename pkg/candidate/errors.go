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
	"strings"

	"github.com/open3fs/m3disk/pkg/device"
	"github.com/open3fs/m3disk/pkg/errors"
)

// EligibilityKind is why a device cannot host an installation.
type EligibilityKind int

// defines eligibility kinds
const (
	ReadOnly EligibilityKind = iota + 1
	TooSmall
	Busy
)

func (k EligibilityKind) String() string {
	switch k {
	case ReadOnly:
		return "ReadOnly"
	case TooSmall:
		return "TooSmall"
	case Busy:
		return "Busy"
	}
	return "Unknown"
}

// EligibilityError rejects a single device.
type EligibilityError struct {
	*errors.Err

	Kind   EligibilityKind
	Device *device.Device
	Reason string
}

func newEligibilityError(kind EligibilityKind, dev *device.Device, reason string) *EligibilityError {
	return &EligibilityError{
		Err:    errors.NewErr(1, "%s %s: %s", dev.Name(), kind, reason),
		Kind:   kind,
		Device: dev,
		Reason: reason,
	}
}

// IsEligibilityError reports whether err carries an EligibilityError of one
// of kinds, any kind when none is given.
func IsEligibilityError(err error, kinds ...EligibilityKind) bool {
	var ee *EligibilityError
	if !errors.As(err, &ee) {
		return false
	}
	if len(kinds) == 0 {
		return true
	}
	for _, kind := range kinds {
		if ee.Kind == kind {
			return true
		}
	}
	return false
}

// RaidIncompatibleError rejects a device set as one array.
type RaidIncompatibleError struct {
	*errors.Err

	Devices []*device.Device
	Reason  string
}

func newRaidIncompatibleError(devs []*device.Device, reason string) *RaidIncompatibleError {
	names := make([]string, 0, len(devs))
	for _, dev := range devs {
		names = append(names, dev.Name())
	}
	return &RaidIncompatibleError{
		Err:     errors.NewErr(1, "%s cannot form an array: %s", strings.Join(names, ","), reason),
		Devices: devs,
		Reason:  reason,
	}
}

// IsRaidIncompatible reports whether err carries a RaidIncompatibleError.
func IsRaidIncompatible(err error) bool {
	var re *RaidIncompatibleError
	return errors.As(err, &re)
}
