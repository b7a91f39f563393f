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
	"github.com/moby/sys/mountinfo"

	"github.com/open3fs/m3disk/pkg/config"
	"github.com/open3fs/m3disk/pkg/errors"
)

// MountTableInterface provides interface about active mounts.
type MountTableInterface interface {
	// Mountpoints returns every active mountpoint of the device major:minor.
	Mountpoints(major, minor int) ([]string, error)
}

type mountTableExternal struct {
	externalBase

	getMounts func(mountinfo.FilterFunc) ([]*mountinfo.Info, error)
}

func (mte *mountTableExternal) init(em *Manager, cfg *config.Config) {
	mte.externalBase.init(em, "mounttable")
	mte.getMounts = mountinfo.GetMounts
	em.MountTable = mte
}

func (mte *mountTableExternal) Mountpoints(major, minor int) ([]string, error) {
	infos, err := mte.getMounts(func(info *mountinfo.Info) (skip, stop bool) {
		return info.Major != major || info.Minor != minor, false
	})
	if err != nil {
		return nil, errors.Annotatef(err, "read mounts of %d:%d", major, minor)
	}
	mountpoints := make([]string, 0, len(infos))
	for _, info := range infos {
		mountpoints = append(mountpoints, info.Mountpoint)
	}
	return mountpoints, nil
}

func init() {
	registerNewExternalFunc(func() externalInterface {
		return new(mountTableExternal)
	})
}
