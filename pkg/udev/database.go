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

package udev

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/open3fs/m3disk/pkg/errors"
)

// DefaultDataDir is where udev keeps its device database.
const DefaultDataDir = "/run/udev/data"

// Database is the udev database record of one block device.
type Database struct {
	Properties map[string]string
	Links      []string
}

// ReadDatabase reads the record of block device major:minor from dir.
// A missing record yields nil and no error.
func ReadDatabase(fs afero.Fs, dir string, major, minor int) (*Database, error) {
	path := filepath.Join(dir, fmt.Sprintf("b%d:%d", major, minor))
	file, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Annotatef(err, "open udev database %s", path)
	}
	defer file.Close()

	db := &Database{
		Properties: make(map[string]string),
	}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "E:"):
			key, value, ok := strings.Cut(strings.TrimPrefix(line, "E:"), "=")
			if !ok {
				continue
			}
			db.Properties[key] = value
		case strings.HasPrefix(line, "S:"):
			db.Links = append(db.Links, strings.TrimPrefix(line, "S:"))
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Annotatef(err, "read udev database %s", path)
	}
	return db, nil
}
