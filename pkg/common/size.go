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

package common

import (
	"github.com/dustin/go-humanize"

	"github.com/open3fs/m3disk/pkg/errors"
)

// defines byte size units.
const (
	KiB uint64 = 1 << (10 * (iota + 1))
	MiB
	GiB
	TiB
)

// defines decimal byte size units, used by disk vendors.
const (
	KB uint64 = 1000
	MB        = 1000 * KB
	GB        = 1000 * MB
	TB        = 1000 * GB
)

// SectorSize is the unit of sysfs "size" attributes.
const SectorSize uint64 = 512

// HumanSize formats a byte count with IEC units, e.g. "1.0 MiB".
func HumanSize(bytes uint64) string {
	return humanize.IBytes(bytes)
}

// ParseSize parses a human readable size such as "1MiB" or "500 GB".
func ParseSize(s string) (uint64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, errors.Annotatef(err, "parse size %q", s)
	}
	return n, nil
}
