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
	"github.com/open3fs/m3disk/pkg/errors"
)

// StructuralError reports an inconsistent device graph, such as a partition
// without a registered disk or a disk with contradictory signatures.
type StructuralError struct {
	*errors.Err

	Device string
	Reason string
}

func newStructuralError(device, reason string) *StructuralError {
	return &StructuralError{
		Err:    errors.NewErr(1, "%s: %s", device, reason),
		Device: device,
		Reason: reason,
	}
}

// IsStructuralError reports whether err carries a StructuralError.
func IsStructuralError(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
