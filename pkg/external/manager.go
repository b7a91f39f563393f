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
	"sync"

	"github.com/spf13/afero"

	"github.com/open3fs/m3disk/pkg/config"
	"github.com/open3fs/m3disk/pkg/log"
)

type externalInterface interface {
	init(em *Manager, cfg *config.Config)
}

type externalBase struct {
	em     *Manager
	logger log.Interface
}

func (eb *externalBase) init(em *Manager, name string) {
	eb.em = em
	eb.logger = log.Logger.Subscribe(log.FieldKeyComponent, name)
}

// create a new external
type newExternalFunc func() externalInterface

var (
	newExternals []newExternalFunc
	lock         sync.Mutex
)

func registerNewExternalFunc(f newExternalFunc) {
	lock.Lock()
	defer lock.Unlock()
	newExternals = append(newExternals, f)
}

// Manager provides a way to use all external interfaces
type Manager struct {
	Runner RunnerInterface

	Mount      MountInterface
	MountTable MountTableInterface
	Sysfs      SysfsInterface
}

// ManagerOpts holds the optional collaborators of a manager.
type ManagerOpts struct {
	// Fs backs sysfs attribute reads, defaults to the host filesystem.
	Fs afero.Fs
}

// NewManager create a new external manager
func NewManager(runner RunnerInterface, cfg *config.Config, opts *ManagerOpts) (em *Manager) {
	em = &Manager{
		Runner: runner,
	}
	if opts != nil && opts.Fs != nil {
		em.Sysfs = NewSysfs(opts.Fs, cfg.Udev.SysfsRoot)
	}
	lock.Lock()
	defer lock.Unlock()
	for _, newExternal := range newExternals {
		newExternal().init(em, cfg)
	}
	return em
}

// NewLocalManager creates a manager running commands on the local host.
func NewLocalManager(cfg *config.Config) *Manager {
	runner := NewLocalRunner(&LocalRunnerCfg{
		Logger:         log.Logger.Subscribe(log.FieldKeyComponent, "runner"),
		MaxExitTimeout: cfg.Commands.MaxExitTimeout,
	})
	return NewManager(runner, cfg, nil)
}
