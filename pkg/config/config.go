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

package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/open3fs/m3disk/pkg/common"
	"github.com/open3fs/m3disk/pkg/errors"
)

// Candidate is the disk candidate engine config definition
type Candidate struct {
	// MinInstallSize is the smallest device accepted, in bytes.
	MinInstallSize uint64 `yaml:"minInstallSize"`
	// RaidSizeSkewPercent is the largest size difference allowed between
	// RAID members, relative to the largest member.
	RaidSizeSkewPercent uint64 `yaml:"raidSizeSkewPercent"`
}

// Udev is the device event source config definition
type Udev struct {
	// SysfsRoot remaps sysfs attribute reads only, the startup scan always
	// walks /sys/devices.
	SysfsRoot       string `yaml:"sysfsRoot"`
	DataDir         string `yaml:"dataDir"`
	EventBufferSize int    `yaml:"eventBufferSize"`
}

// Commands is the external commands config definition
type Commands struct {
	Mount          string         `yaml:"mount"`
	Umount         string         `yaml:"umount"`
	MaxExitTimeout *time.Duration `yaml:"maxExitTimeout,omitempty"`
}

// Config is the m3disk config definition
type Config struct {
	LogLevel  string    `yaml:"logLevel"`
	Udev      Udev      `yaml:"udev"`
	Candidate Candidate `yaml:"candidate"`
	Commands  Commands  `yaml:"commands"`
}

// SetValidate validates the config and set default values if some fields are missing
func (c *Config) SetValidate() error {
	if c.LogLevel == "" {
		c.LogLevel = logrus.InfoLevel.String()
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Errorf("invalid log level: %s", c.LogLevel)
	}

	if c.Udev.SysfsRoot == "" {
		c.Udev.SysfsRoot = "/sys"
	}
	if !filepath.IsAbs(c.Udev.SysfsRoot) {
		return errors.Errorf("udev.sysfsRoot must be an absolute path: %s", c.Udev.SysfsRoot)
	}
	c.Udev.SysfsRoot = filepath.Clean(c.Udev.SysfsRoot)
	if c.Udev.DataDir == "" {
		c.Udev.DataDir = "/run/udev/data"
	}
	if c.Udev.EventBufferSize == 0 {
		c.Udev.EventBufferSize = 64
	}
	if c.Udev.EventBufferSize < 0 {
		return errors.Errorf("invalid udev.eventBufferSize: %d", c.Udev.EventBufferSize)
	}

	if c.Candidate.MinInstallSize == 0 {
		c.Candidate.MinInstallSize = common.MiB
	}
	if c.Candidate.RaidSizeSkewPercent == 0 {
		c.Candidate.RaidSizeSkewPercent = 1
	}
	if c.Candidate.RaidSizeSkewPercent > 100 {
		return errors.Errorf("invalid candidate.raidSizeSkewPercent: %d",
			c.Candidate.RaidSizeSkewPercent)
	}

	if c.Commands.Mount == "" {
		c.Commands.Mount = "mount"
	}
	if c.Commands.Umount == "" {
		c.Commands.Umount = "umount"
	}

	return nil
}

// Level returns the parsed log level, SetValidate must be called first.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// NewConfigWithDefaults creates a new config with default values
func NewConfigWithDefaults() *Config {
	maxExitTimeout := 10 * time.Minute
	return &Config{
		LogLevel: logrus.InfoLevel.String(),
		Udev: Udev{
			SysfsRoot:       "/sys",
			DataDir:         "/run/udev/data",
			EventBufferSize: 64,
		},
		Candidate: Candidate{
			MinInstallSize:      common.MiB,
			RaidSizeSkewPercent: 1,
		},
		Commands: Commands{
			Mount:          "mount",
			Umount:         "umount",
			MaxExitTimeout: &maxExitTimeout,
		},
	}
}

// Load decodes a yaml document over the defaults and validates the result.
func Load(r io.Reader) (*Config, error) {
	cfg := NewConfigWithDefaults()
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.Annotate(err, "decode config")
	}
	if err := cfg.SetValidate(); err != nil {
		return nil, errors.Annotate(err, "validate config")
	}
	return cfg, nil
}

// LoadFile loads config from path, an empty path yields the defaults.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		cfg := NewConfigWithDefaults()
		return cfg, errors.Trace(cfg.SetValidate())
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotate(err, "open config file")
	}
	defer file.Close()
	cfg, err := Load(file)
	if err != nil {
		return nil, errors.Annotatef(err, "load %s", path)
	}
	return cfg, nil
}
