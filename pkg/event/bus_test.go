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

package event_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/open3fs/m3disk/pkg/event"
	"github.com/open3fs/m3disk/tests/base"
)

func TestBusSuite(t *testing.T) {
	suite.Run(t, &busSuite{})
}

type busSuite struct {
	base.Suite

	bus *event.Bus[string]
}

func (s *busSuite) SetupTest() {
	s.bus = event.NewBus[string](s.Logger)
}

func (s *busSuite) TestDeliveryOrder() {
	var got []string
	s.bus.Subscribe("first", func(v string) error {
		got = append(got, "first:"+v)
		return nil
	})
	s.bus.Subscribe("second", func(v string) error {
		got = append(got, "second:"+v)
		return nil
	})

	s.Empty(s.bus.Publish("a"))
	s.Empty(s.bus.Publish("b"))
	s.Equal([]string{"first:a", "second:a", "first:b", "second:b"}, got)
}

func (s *busSuite) TestFaultIsolation() {
	var delivered []string
	s.bus.Subscribe("failing", func(v string) error {
		return errors.New("boom")
	})
	s.bus.Subscribe("panicking", func(v string) error {
		panic("bad handler")
	})
	s.bus.Subscribe("healthy", func(v string) error {
		delivered = append(delivered, v)
		return nil
	})

	faults := s.bus.Publish("sda")
	s.Len(faults, 2)
	s.Equal("failing", faults[0].Subscriber)
	s.Equal("boom", faults[0].Err.Error())
	s.Equal("panicking", faults[1].Subscriber)
	s.Contains(faults[1].Error(), "bad handler")
	s.Equal([]string{"sda"}, delivered)

	// later publishes still reach every subscriber
	s.Len(s.bus.Publish("sdb"), 2)
	s.Equal([]string{"sda", "sdb"}, delivered)
}

func (s *busSuite) TestUnsubscribe() {
	var count int
	id := s.bus.Subscribe("counter", func(string) error {
		count++
		return nil
	})
	s.Equal(1, s.bus.Len())
	s.bus.Publish("a")

	s.True(s.bus.Unsubscribe(id))
	s.False(s.bus.Unsubscribe(id))
	s.bus.Publish("b")
	s.Equal(1, count)
	s.Equal(0, s.bus.Len())
}

func (s *busSuite) TestReentrantHandler() {
	var got []string
	s.bus.Subscribe("reentrant", func(v string) error {
		got = append(got, v)
		if v == "outer" {
			s.bus.Publish("inner")
		}
		return nil
	})

	s.Empty(s.bus.Publish("outer"))
	s.Equal([]string{"outer", "inner"}, got)
}

func (s *busSuite) TestFaultUnwrap() {
	sentinel := errors.New("sentinel")
	s.bus.Subscribe("wrapped", func(string) error {
		return sentinel
	})

	faults := s.bus.Publish("x")
	s.Len(faults, 1)
	s.True(errors.Is(faults[0], sentinel))
}
