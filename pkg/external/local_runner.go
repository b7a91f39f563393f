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
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/open3fs/m3disk/pkg/errors"
	"github.com/open3fs/m3disk/pkg/log"
)

// RunnerInterface runs a command and returns its stdout, a nonzero exit
// status is reported as RunError.
type RunnerInterface interface {
	Exec(ctx context.Context, command string, args ...string) (string, error)
}

// LocalRunner implements RunnerInterface by running command on local host.
type LocalRunner struct {
	logger         log.Interface
	maxExitTimeout time.Duration
}

// Exec executes a command.
func (r *LocalRunner) Exec(ctx context.Context, command string, args ...string) (string, error) {
	checkErr := func(err error, errOut string) RunError {
		switch err {
		case context.Canceled:
			return NewRunError(int(syscall.ECANCELED), "process canceled")
		case context.DeadlineExceeded:
			return NewRunError(int(syscall.ETIMEDOUT), "process timeout")
		default:
			if err == nil {
				return nil
			}

			if msg, ok := err.(*exec.ExitError); ok {
				return &runErrorImpl{
					code: msg.Sys().(syscall.WaitStatus).ExitStatus(),
					msg:  fmt.Sprintf("%s\n%s", err, errOut),
				}
			}
			return &runErrorImpl{
				code: -1,
				msg:  fmt.Sprintf("%s\n%s", err, errOut),
			}
		}
	}

	r.logger.Debugf("Run command: %s %s", command, strings.Join(args, " "))
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	cmd := exec.Command(command, args...)
	cmd.Stdout = out
	cmd.Stderr = errOut
	err := r.runCtx(ctx, cmd)
	if err != nil {
		return out.String(), checkErr(err, errOut.String())
	}

	return out.String(), nil
}

// runCtx waits for cmd, killing it when ctx is done.
//
// Wait is an essential part of exec.Cmd which must have been started by Start,
// even though cmd is killed. Kill only causes the process to exit immediately,
// it does not wait until the process has actually exited.
//
// Note: if sub process is in state D (waiting for IO), the goroutine will leak.
func (r *LocalRunner) runCtx(ctx context.Context, cmd *exec.Cmd) (err error) {
	startTime := time.Now()

	if err = cmd.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		d := time.Since(startTime)
		if err = cmd.Process.Kill(); err != nil {
			return err
		}
		select {
		case <-done:
		case <-time.After(r.maxExitTimeout):
			r.logger.Warnf("Wait for command to exit timeout: %s", r.maxExitTimeout)
			return errors.Errorf("wait process to exit timeout after %s", r.maxExitTimeout)
		}
		r.logger.Warnf("Process was killed after %v: %s %s\nstderr: %v",
			d.Round(100*time.Millisecond), cmd.Path, cmd.Args, cmd.Stderr)
		return ctx.Err()
	case err = <-done:
		return err
	}
}

// RunError is the wrapper of os.exec error, it export error code
type RunError interface {
	ExitCode() int
	Error() string
	ExitCodeEquals(syscall.Errno) bool
	ExitCodeIn(...syscall.Errno) bool
}

// NewRunError is used to get the RunError
func NewRunError(code int, msg string) (err RunError) {
	return &runErrorImpl{
		code: code,
		msg:  msg,
	}
}

type runErrorImpl struct {
	code int
	msg  string
}

func (e runErrorImpl) Error() string {
	return e.msg
}

func (e runErrorImpl) ExitCode() int {
	return e.code
}

func (e runErrorImpl) ExitCodeEquals(errno syscall.Errno) bool {
	return e.code == int(errno)
}

func (e runErrorImpl) ExitCodeIn(errnos ...syscall.Errno) bool {
	for _, errno := range errnos {
		if e.code == int(errno) {
			return true
		}
	}
	return false
}

// LocalRunnerCfg defines configurations of a local runner.
type LocalRunnerCfg struct {
	Logger         log.Interface
	MaxExitTimeout *time.Duration
}

// NewLocalRunner creates a local runner.
func NewLocalRunner(cfg *LocalRunnerCfg) *LocalRunner {
	maxExitTimeout := time.Minute * 10
	if cfg.MaxExitTimeout != nil {
		maxExitTimeout = *cfg.MaxExitTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Logger
	}

	return &LocalRunner{
		logger:         logger,
		maxExitTimeout: maxExitTimeout,
	}
}
