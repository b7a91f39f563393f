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

package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/open3fs/m3disk/pkg/candidate"
	"github.com/open3fs/m3disk/pkg/config"
	"github.com/open3fs/m3disk/pkg/device"
	"github.com/open3fs/m3disk/pkg/errors"
	"github.com/open3fs/m3disk/pkg/external"
	"github.com/open3fs/m3disk/pkg/log"
	"github.com/open3fs/m3disk/pkg/udev"
)

var (
	configFilePath string
	logLevel       string
	noColor        bool
)

// env holds the services every command works on.
type env struct {
	cfg      *config.Config
	registry *device.Registry
	engine   *candidate.Engine
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(configFilePath)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
		if err = cfg.SetValidate(); err != nil {
			return nil, errors.Annotate(err, "validate log level")
		}
	}
	log.InitLogger(cfg.Level())
	log.Logger.Debugf("Config: %+v", cfg)
	return cfg, nil
}

func newEnv(cfg *config.Config, em *external.Manager) *env {
	registry := device.NewRegistry(&device.RegistryCfg{
		Logger:          log.Logger,
		Manager:         em,
		EventBufferSize: cfg.Udev.EventBufferSize,
	})
	return &env{
		cfg:      cfg,
		registry: registry,
		engine: candidate.NewEngine(&candidate.EngineCfg{
			Registry:            registry,
			Logger:              log.Logger,
			MinInstallSize:      cfg.Candidate.MinInstallSize,
			RaidSizeSkewPercent: cfg.Candidate.RaidSizeSkewPercent,
		}),
	}
}

// loadEnv reads the config and registers every present block device.
func loadEnv(ctx context.Context) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, errors.Trace(err)
	}
	e := newEnv(cfg, external.NewLocalManager(cfg))
	crawler := udev.NewCrawler(&udev.CrawlerCfg{
		Logger:  log.Logger,
		DataDir: cfg.Udev.DataDir,
	})
	if err = e.registry.Load(ctx, crawler); err != nil {
		return nil, errors.Trace(err)
	}
	return e, nil
}

// lookup finds a device by node, symlink, kernel name or syspath.
func (e *env) lookup(arg string) (*device.Device, error) {
	var dev *device.Device
	switch {
	case strings.HasPrefix(arg, udev.SysfsBase+"/"):
		dev = e.registry.FindBySyspath(arg)
	case filepath.IsAbs(arg):
		dev = e.registry.FindByDevnode(arg)
	default:
		dev = e.registry.FindByDevnode(filepath.Join("/dev", arg))
	}
	if dev == nil {
		return nil, errors.Errorf("device %s not found", arg)
	}
	return dev, nil
}

func (e *env) lookupAll(args []string) ([]*device.Device, error) {
	devs := make([]*device.Device, 0, len(args))
	for _, arg := range args {
		dev, err := e.lookup(arg)
		if err != nil {
			return nil, errors.Trace(err)
		}
		devs = append(devs, dev)
	}
	return devs, nil
}
