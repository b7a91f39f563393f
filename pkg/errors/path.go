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

package errors

import (
	"runtime"
	"strings"
)

// sourceRoot is the module directory, trimmed from recorded file names.
var sourceRoot string

func init() {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return
	}
	sourceRoot = strings.TrimSuffix(file, "pkg/errors/path.go")
}

func trimGOPATH(path string) string {
	if sourceRoot == "" {
		return path
	}
	if rel, ok := strings.CutPrefix(path, sourceRoot); ok {
		return rel
	}
	return path
}
