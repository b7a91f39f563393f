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

package external

import (
	"fmt"

	"github.com/open3fs/m3disk/pkg/external"
	"github.com/open3fs/m3disk/pkg/syncutil"
)

// FakeMountTable is an in memory MountTableInterface.
type FakeMountTable struct {
	mu     syncutil.Mutex
	mounts map[string][]string
	Err    error
}

var _ external.MountTableInterface = new(FakeMountTable)

// NewFakeMountTable creates an empty mount table.
func NewFakeMountTable() *FakeMountTable {
	return &FakeMountTable{
		mounts: make(map[string][]string),
	}
}

func key(major, minor int) string {
	return fmt.Sprintf("%d:%d", major, minor)
}

// SetMounted records mountpoint as active for major:minor.
func (t *FakeMountTable) SetMounted(major, minor int, mountpoint string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mounts[key(major, minor)] = append(t.mounts[key(major, minor)], mountpoint)
}

// Reset drops every mount.
func (t *FakeMountTable) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mounts = make(map[string][]string)
	t.Err = nil
}

// Mountpoints implements MountTableInterface.
func (t *FakeMountTable) Mountpoints(major, minor int) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return nil, t.Err
	}
	mps := t.mounts[key(major, minor)]
	return append([]string(nil), mps...), nil
}
