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

	"github.com/pilebones/go-udev/netlink"

	"github.com/open3fs/m3disk/pkg/errors"
	"github.com/open3fs/m3disk/pkg/log"
)

// Source delivers device events serially until ctx is done.
type Source interface {
	Run(ctx context.Context, events chan<- Event) error
}

func blockMatcher() *netlink.RuleDefinitions {
	return &netlink.RuleDefinitions{
		Rules: []netlink.RuleDefinition{
			{Env: map[string]string{PropSubsystem: SubsystemBlock}},
		},
	}
}

// NetlinkMonitor is a Source listening to udev on a netlink socket.
type NetlinkMonitor struct {
	logger     log.Interface
	bufferSize int
}

// NewNetlinkMonitor creates a netlink monitor.
func NewNetlinkMonitor(logger log.Interface, bufferSize int) *NetlinkMonitor {
	if logger == nil {
		logger = log.Logger
	}
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &NetlinkMonitor{
		logger:     logger.Subscribe(log.FieldKeyComponent, "udev-monitor"),
		bufferSize: bufferSize,
	}
}

// Run connects to the udev netlink socket and forwards block events. It
// returns nil once ctx is done.
func (m *NetlinkMonitor) Run(ctx context.Context, events chan<- Event) error {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return errors.Annotate(err, "connect to udev netlink")
	}

	rawCh := make(chan netlink.UEvent, m.bufferSize)
	errCh := make(chan error, 1)
	quit := conn.Monitor(rawCh, errCh, blockMatcher())
	defer func() {
		select {
		case quit <- struct{}{}:
		default:
		}
		conn.Close()
	}()
	m.logger.Debugf("Listening for udev block events")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-rawCh:
			event, ok := toEvent(ev)
			if !ok {
				m.logger.Debugf("Skip %s event of %s", ev.Action, ev.KObj)
				continue
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return nil
			}
		case err := <-errCh:
			if ctx.Err() != nil {
				return nil
			}
			return errors.Annotate(err, "udev monitor")
		}
	}
}

func toEvent(ev netlink.UEvent) (Event, bool) {
	action := Action(ev.Action)
	switch action {
	case ActionAdd, ActionRemove, ActionChange:
	default:
		return Event{}, false
	}
	desc := NewDescriptor(ev.KObj, ev.Env)
	if desc.Subsystem != SubsystemBlock {
		return Event{}, false
	}
	return Event{Action: action, Device: desc}, true
}
