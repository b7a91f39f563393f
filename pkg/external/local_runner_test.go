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
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/open3fs/m3disk/pkg/external"
	"github.com/open3fs/m3disk/pkg/log"
)

func TestLocalRunnerSuite(t *testing.T) {
	suite.Run(t, &localRunnerSuite{})
}

type localRunnerSuite struct {
	suite.Suite

	runner *external.LocalRunner
}

func (s *localRunnerSuite) SetupTest() {
	timeout := time.Second
	s.runner = external.NewLocalRunner(&external.LocalRunnerCfg{
		Logger:         log.Discard(),
		MaxExitTimeout: &timeout,
	})
}

func (s *localRunnerSuite) TestExec() {
	out, err := s.runner.Exec(context.TODO(), "echo", "hello")
	s.Require().NoError(err)
	s.Require().Equal("hello\n", out)
}

func (s *localRunnerSuite) TestExitCode() {
	_, err := s.runner.Exec(context.TODO(), "sh", "-c", "exit 3")
	s.Require().Error(err)
	runErr, ok := err.(external.RunError)
	s.Require().True(ok)
	s.Require().Equal(3, runErr.ExitCode())
}

func (s *localRunnerSuite) TestCanceled() {
	ctx, cancel := context.WithTimeout(context.TODO(), 50*time.Millisecond)
	defer cancel()

	_, err := s.runner.Exec(ctx, "sleep", "5")
	s.Require().Error(err)
	runErr, ok := err.(external.RunError)
	s.Require().True(ok)
	s.Require().True(runErr.ExitCodeEquals(syscall.ETIMEDOUT))
}
