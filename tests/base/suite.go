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

package base

import (
	"context"
	"fmt"

	guuid "github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/open3fs/m3disk/pkg/common"
	"github.com/open3fs/m3disk/pkg/errors"
	"github.com/open3fs/m3disk/pkg/log"
)

// Suite is the base Suite for all test suites.
type Suite struct {
	suite.Suite

	Logger log.Interface
}

// SetupSuite runs before all tests in the suite.
func (s *Suite) SetupSuite() {
	s.Logger = log.Discard()
}

// TearDownSuite runs after all tests in the suite.
func (s *Suite) TearDownSuite() {
}

// SetupTest runs before each test in the suite.
func (s *Suite) SetupTest() {
}

// TearDownTest runs after each test in the suite.
func (s *Suite) TearDownTest() {
}

// Logf output to error log.
func (s *Suite) Logf(format string, a ...any) {
	s.T().Logf(format, a...)
}

// PrettyDump prints Golang objects in a beautiful way.
func (s *Suite) PrettyDump(a ...any) {
	common.PrettyDump(a...)
}

// R returns a require context.
func (s *Suite) R() *require.Assertions {
	return s.Require()
}

// NoError require no error
func (s *Suite) NoError(err error, args ...any) {
	if err != nil {
		err = fmt.Errorf("%s", errors.StackTrace(err))
	}
	s.R().NoError(err, args...)
}

// Error require error
func (s *Suite) Error(err error, args ...any) {
	s.R().Error(err, args...)
}

// ErrorAs require an error in err's stack matching target.
func (s *Suite) ErrorAs(err error, target any, args ...any) {
	s.R().ErrorAs(err, target, args...)
}

// Equal require equal
func (s *Suite) Equal(e, a any, msg ...any) {
	s.R().Equal(e, a, msg...)
}

// ElementsMatch require the same elements ignoring order
func (s *Suite) ElementsMatch(e, a any, msg ...any) {
	s.R().ElementsMatch(e, a, msg...)
}

// Empty require empty
func (s *Suite) Empty(object any, msg ...any) {
	s.R().Empty(object, msg...)
}

// Len require len
func (s *Suite) Len(object any, l int, args ...any) {
	s.R().Len(object, l, args...)
}

// Nil require nil
func (s *Suite) Nil(object any, args ...any) {
	s.R().Nil(object, args...)
}

// NotNil require not nil
func (s *Suite) NotNil(object any, args ...any) {
	s.R().NotNil(object, args...)
}

// True require true
func (s *Suite) True(value bool, args ...any) {
	s.R().True(value, args...)
}

// False require false
func (s *Suite) False(value bool, args ...any) {
	s.R().False(value, args...)
}

// Contains require that the specified string, list(array, slice...) or map contains the specified
// substring or element.
func (s *Suite) Contains(object, contains any, args ...any) {
	s.R().Contains(object, contains, args...)
}

// Ctx returns a context used in test.
func (s *Suite) Ctx() context.Context {
	return context.TODO()
}

// NewUUID creates a new UUID.
func (s *Suite) NewUUID() string {
	uuid, _ := guuid.NewRandom()
	return uuid.String()
}
