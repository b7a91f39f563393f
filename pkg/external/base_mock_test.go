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
	"fmt"
	"strings"
	"testing"
)

// MockedExecResult mocks result of the Exec func
type MockedExecResult struct {
	value  string
	err    error
	Called bool
	Count  int
	times  int
}

// MockedRunner mocks RunnerInterface
type MockedRunner struct {
	t           *testing.T
	execResults map[string][]*MockedExecResult
	lastCmdLine string
}

// MockExec mocks command for times
func (mr *MockedRunner) MockExec(cmdPrefix string, returnValue string, returnError error, times ...int) {
	mockedTimes := -1 // forever
	if len(times) > 0 {
		mockedTimes = times[0]
	}
	mr.execResults[cmdPrefix] = append(mr.execResults[cmdPrefix], &MockedExecResult{
		value: returnValue,
		err:   returnError,
		times: mockedTimes,
	})
}

// MockExecOnce mocks command once
func (mr *MockedRunner) MockExecOnce(cmdPrefix string, returnValue string, returnError error) {
	mr.MockExec(cmdPrefix, returnValue, returnError, 1)
}

// CalledExecCount returns called Exec count for specific cmd prefix
func (mr *MockedRunner) CalledExecCount(cmdPrefix string) int {
	var count int
	for _, r := range mr.execResults[cmdPrefix] {
		count += r.Count
	}
	return count
}

// LastCmdLine returns the last executed command line.
func (mr *MockedRunner) LastCmdLine() string {
	return mr.lastCmdLine
}

func (mr *MockedRunner) Exec(ctx context.Context, command string, args ...string) (string, error) {
	cmdLine := strings.Join(append([]string{command}, args...), " ")
	mr.lastCmdLine = cmdLine
	mr.t.Logf("Processing: %s", cmdLine)
	for cmdPrefix, results := range mr.execResults {
		if !strings.HasPrefix(cmdLine, cmdPrefix) {
			continue
		}
		for _, result := range results {
			if result.times == 0 {
				continue
			}
			result.Called = true
			result.Count++
			if result.times > 0 {
				result.times--
			}
			return result.value, result.err
		}
	}

	return "", fmt.Errorf("Unknown cmd: %s", cmdLine)
}

// NewMockedRunner creates new mocked runner.
func NewMockedRunner(t *testing.T) *MockedRunner {
	return &MockedRunner{
		t:           t,
		execResults: make(map[string][]*MockedExecResult),
	}
}
