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

package external_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/open3fs/m3disk/pkg/config"
	"github.com/open3fs/m3disk/pkg/external"
)

func TestMountSuite(t *testing.T) {
	suite.Run(t, &mountSuite{})
}

type mountSuite struct {
	Suite
}

func (s *mountSuite) TestMount() {
	s.mr.MockExecOnce("mount /dev/sda1 /mnt", "", nil)

	s.R().NoError(s.em.Mount.Mount(s.Ctx(), "/dev/sda1", "/mnt"))
	s.R().Equal(1, s.mr.CalledExecCount("mount /dev/sda1 /mnt"))
}

func (s *mountSuite) TestMountWithOptions() {
	s.mr.MockExecOnce("mount -o ro,noatime", "", nil)

	s.R().NoError(s.em.Mount.Mount(s.Ctx(), "/dev/sda1", "/mnt", "ro", "noatime"))
	s.R().Equal("mount -o ro,noatime /dev/sda1 /mnt", s.mr.LastCmdLine())
}

func (s *mountSuite) TestMountFailed() {
	s.mr.MockExecOnce("mount", "", errors.New("busy"))

	err := s.em.Mount.Mount(s.Ctx(), "/dev/sda1", "/mnt")
	s.R().Error(err)
	s.R().Contains(err.Error(), "busy")
}

func (s *mountSuite) TestUmount() {
	s.mr.MockExecOnce("umount /mnt", "", nil)

	s.R().NoError(s.em.Mount.Umount(s.Ctx(), "/mnt"))
	s.R().Equal(1, s.mr.CalledExecCount("umount /mnt"))
}

func (s *mountSuite) TestConfiguredCommand() {
	cfg := config.NewConfigWithDefaults()
	cfg.Commands.Umount = "/usr/bin/umount"
	em := external.NewManager(s.mr, cfg, nil)
	s.mr.MockExecOnce("/usr/bin/umount /mnt", "", nil)

	s.R().NoError(em.Mount.Umount(s.Ctx(), "/mnt"))
	s.R().Equal(1, s.mr.CalledExecCount("/usr/bin/umount /mnt"))
}
