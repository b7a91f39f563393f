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
	"context"

	"github.com/pilebones/go-udev/crawler"
	"github.com/pilebones/go-udev/netlink"
	"github.com/spf13/afero"

	"github.com/open3fs/m3disk/pkg/errors"
	"github.com/open3fs/m3disk/pkg/log"
)

// Enumerator lists the devices present right now.
type Enumerator interface {
	Enumerate(ctx context.Context) ([]*Descriptor, error)
}

type crawlFunc func(queue chan crawler.Device, errs chan error, matcher netlink.Matcher) chan struct{}

// Crawler is an Enumerator walking sysfs and enriching every block device
// with its udev database record.
type Crawler struct {
	logger  log.Interface
	fs      afero.Fs
	dataDir string
	crawl   crawlFunc
}

// CrawlerCfg defines configurations of a crawler.
type CrawlerCfg struct {
	Logger log.Interface
	// Fs is used to read the udev database, defaults to the host filesystem.
	Fs      afero.Fs
	DataDir string
}

// NewCrawler creates a crawler.
func NewCrawler(cfg *CrawlerCfg) *Crawler {
	c := &Crawler{
		logger:  cfg.Logger,
		fs:      cfg.Fs,
		dataDir: cfg.DataDir,
		crawl:   crawler.ExistingDevices,
	}
	if c.logger == nil {
		c.logger = log.Logger
	}
	c.logger = c.logger.Subscribe(log.FieldKeyComponent, "udev-crawler")
	if c.fs == nil {
		c.fs = afero.NewOsFs()
	}
	if c.dataDir == "" {
		c.dataDir = DefaultDataDir
	}
	return c
}

// Enumerate returns every block device found in sysfs, in walk order.
func (c *Crawler) Enumerate(ctx context.Context) ([]*Descriptor, error) {
	queue := make(chan crawler.Device, 64)
	errs := make(chan error, 1)
	quit := c.crawl(queue, errs, blockMatcher())
	stop := func() {
		select {
		case quit <- struct{}{}:
		default:
		}
		// unblock the walker until it closes the queue
		go func() {
			for range queue {
			}
		}()
	}

	var descs []*Descriptor
	for {
		select {
		case <-ctx.Done():
			stop()
			return nil, errors.Trace(ctx.Err())
		case err := <-errs:
			stop()
			return nil, errors.Annotate(err, "crawl sysfs")
		case dev, ok := <-queue:
			if !ok {
				// the walker may report an error right before closing the queue
				select {
				case err := <-errs:
					return nil, errors.Annotate(err, "crawl sysfs")
				default:
				}
				c.logger.Debugf("Found %d block devices", len(descs))
				return descs, nil
			}
			desc := NewDescriptor(dev.KObj, dev.Env)
			if desc.Subsystem != SubsystemBlock {
				continue
			}
			if err := c.enrich(desc); err != nil {
				c.logger.Warnf("Failed to enrich %s: %v", desc.Syspath, err)
			}
			descs = append(descs, desc)
		}
	}
}

func (c *Crawler) enrich(desc *Descriptor) error {
	if desc.Major == 0 && desc.Minor == 0 {
		return nil
	}
	db, err := ReadDatabase(c.fs, c.dataDir, desc.Major, desc.Minor)
	if err != nil {
		return errors.Trace(err)
	}
	if db != nil {
		desc.Merge(db.Properties, db.Links)
	}
	return nil
}
