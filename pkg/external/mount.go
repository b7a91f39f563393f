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
	"strings"

	"github.com/open3fs/m3disk/pkg/config"
	"github.com/open3fs/m3disk/pkg/errors"
)

// MountInterface provides interface about mount and umount.
type MountInterface interface {
	Mount(ctx context.Context, source, target string, opts ...string) error
	Umount(ctx context.Context, target string) error
}

type mountExternal struct {
	externalBase

	mountCmd  string
	umountCmd string
}

func (me *mountExternal) init(em *Manager, cfg *config.Config) {
	me.externalBase.init(em, "mount")
	me.mountCmd = cfg.Commands.Mount
	me.umountCmd = cfg.Commands.Umount
	em.Mount = me
}

func (me *mountExternal) Mount(ctx context.Context, source, target string, opts ...string) error {
	cmd := NewCommand(me.em.Runner, me.mountCmd)
	if len(opts) > 0 {
		cmd.AppendArgs("-o")
		cmd.AppendArgs(strings.Join(opts, ","))
	}
	cmd.AppendArgs(source, target)
	me.logger.Debugf("Mount %s on %s", source, target)
	if _, err := cmd.Exec(ctx); err != nil {
		return errors.Annotatef(err, "run %s", cmd)
	}
	return nil
}

func (me *mountExternal) Umount(ctx context.Context, target string) error {
	cmd := NewCommand(me.em.Runner, me.umountCmd, target)
	me.logger.Debugf("Umount %s", target)
	if _, err := cmd.Exec(ctx); err != nil {
		return errors.Annotatef(err, "run %s", cmd)
	}
	return nil
}

func init() {
	registerNewExternalFunc(func() externalInterface {
		return new(mountExternal)
	})
}
