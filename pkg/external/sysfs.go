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
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/open3fs/m3disk/pkg/config"
	"github.com/open3fs/m3disk/pkg/errors"
)

// DefaultSysfsRoot is where the kernel exposes sysfs.
const DefaultSysfsRoot = "/sys"

// SysfsInterface provides interface about sysfs attribute reads.
type SysfsInterface interface {
	// ReadAttr returns the trimmed content of attribute name of the device
	// at syspath, a missing attribute yields an empty string and no error.
	ReadAttr(syspath, name string) (string, error)
}

type sysfs struct {
	fs   afero.Fs
	root string
}

// NewSysfs creates a sysfs reader over fs. Syspaths are always reported
// under /sys, root remaps them when sysfs is mounted elsewhere.
func NewSysfs(fs afero.Fs, root string) SysfsInterface {
	if root == "" {
		root = DefaultSysfsRoot
	}
	return &sysfs{
		fs:   fs,
		root: filepath.Clean(root),
	}
}

func (s *sysfs) path(syspath, name string) string {
	p := filepath.Join(syspath, name)
	if s.root != DefaultSysfsRoot {
		if rel, ok := strings.CutPrefix(p, DefaultSysfsRoot+"/"); ok {
			p = filepath.Join(s.root, rel)
		}
	}
	return p
}

func (s *sysfs) ReadAttr(syspath, name string) (string, error) {
	data, err := afero.ReadFile(s.fs, s.path(syspath, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Annotatef(err, "read %s of %s", name, syspath)
	}
	return strings.TrimSpace(string(data)), nil
}

type sysfsExternal struct {
	externalBase
}

func (se *sysfsExternal) init(em *Manager, cfg *config.Config) {
	se.externalBase.init(em, "sysfs")
	if em.Sysfs == nil {
		em.Sysfs = NewSysfs(afero.NewOsFs(), cfg.Udev.SysfsRoot)
	}
}

func init() {
	registerNewExternalFunc(func() externalInterface {
		return new(sysfsExternal)
	})
}
