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
	"errors"
	"testing"

	"github.com/moby/sys/mountinfo"
	"github.com/stretchr/testify/suite"

	"github.com/open3fs/m3disk/pkg/log"
)

func TestMountTableSuite(t *testing.T) {
	suite.Run(t, &mountTableSuite{})
}

type mountTableSuite struct {
	suite.Suite

	mte   *mountTableExternal
	infos []*mountinfo.Info
	err   error
}

func (s *mountTableSuite) SetupTest() {
	s.infos = []*mountinfo.Info{
		{Major: 8, Minor: 1, Mountpoint: "/boot"},
		{Major: 8, Minor: 2, Mountpoint: "/"},
		{Major: 8, Minor: 1, Mountpoint: "/var/boot"},
	}
	s.err = nil
	s.mte = &mountTableExternal{
		externalBase: externalBase{logger: log.Discard()},
		getMounts: func(filter mountinfo.FilterFunc) ([]*mountinfo.Info, error) {
			if s.err != nil {
				return nil, s.err
			}
			var out []*mountinfo.Info
			for _, info := range s.infos {
				if skip, _ := filter(info); !skip {
					out = append(out, info)
				}
			}
			return out, nil
		},
	}
}

func (s *mountTableSuite) TestFilterByMajorMinor() {
	mps, err := s.mte.Mountpoints(8, 1)
	s.Require().NoError(err)
	s.Require().Equal([]string{"/boot", "/var/boot"}, mps)
}

func (s *mountTableSuite) TestNotMounted() {
	mps, err := s.mte.Mountpoints(8, 3)
	s.Require().NoError(err)
	s.Require().Empty(mps)
}

func (s *mountTableSuite) TestReadFailed() {
	s.err = errors.New("no mountinfo")
	_, err := s.mte.Mountpoints(8, 1)
	s.Require().Error(err)
}
