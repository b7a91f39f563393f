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
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/open3fs/m3disk/pkg/external"
)

// MockRunner is an mock type for the RunnerInterface
type MockRunner struct {
	mock.Mock
}

// Exec mock.
func (m *MockRunner) Exec(ctx context.Context, command string, args ...string) (string, error) {
	arg := m.Called(command, args)
	return arg.String(0), arg.Error(1)
}

var _ external.RunnerInterface = new(MockRunner)

// MockMount is an mock type for the MountInterface
type MockMount struct {
	mock.Mock
	external.MountInterface
}

// Mount mock.
func (m *MockMount) Mount(ctx context.Context, source, target string, opts ...string) error {
	return m.Called(source, target, opts).Error(0)
}

// Umount mock.
func (m *MockMount) Umount(ctx context.Context, target string) error {
	return m.Called(target).Error(0)
}
