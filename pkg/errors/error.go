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

package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
)

// Stacker represents an error who implements Stack method
type Stacker interface {
	error
	Stack() string
}

// Underlying represents an error who implements Underlie method
type Underlying interface {
	error
	Underlie() error
}

// frame is a stack frame corresponding to the function who return an error
type frame struct {
	pc       uintptr
	file     string
	line     int
	funcname string
}

func (f *frame) valid() bool {
	return f.pc != 0
}

func (f *frame) cleanFuncName(callName string) string {
	// strip the import path, keep package-relative name
	if i := strings.LastIndexByte(callName, '/'); i != -1 {
		callName = callName[i+1:]
	}
	if i := strings.IndexByte(callName, '.'); i != -1 {
		callName = callName[i+1:]
	}
	return callName
}

func (f *frame) caller(callDepth int) {
	var ok bool
	f.pc, f.file, f.line, ok = runtime.Caller(callDepth + 1)
	if ok {
		f.file = trimGOPATH(f.file)
		f.funcname = f.cleanFuncName(runtime.FuncForPC(f.pc).Name())
	}
}

// Err is an error that has a message, a stack
type Err struct {
	// underlying is the error under current error in error stack
	underlying error

	// msg is the message contained in this error
	msg string

	// frame records caller's location
	frame frame
}

// Caller records caller's stack frame with specified stack frames above.
func (err *Err) Caller(callDepth int) {
	err.frame.caller(callDepth + 1)
}

// Error join all errors' nonempty Error() output in error stack
func (err *Err) Error() string {
	if err.underlying == nil {
		// this error is the innermost error
		return err.msg
	} else if err.msg == "" {
		// this error is only a trace
		return err.underlying.Error()
	}
	return fmt.Sprintf("%s: %s", err.msg, err.underlying.Error())
}

// Format adds custom format verb
func (err *Err) Format(f fmt.State, verb rune) {
	switch verb {
	case 'v':
		if f.Flag('+') {
			fmt.Fprint(f, err.Stack())
			return
		}
		fallthrough
	default:
		fmt.Fprint(f, err.Error())
	}
}

// Underlie returns the error under current error in the stack.
func (err *Err) Underlie() error {
	return err.underlying
}

// Unwrap lets the standard library walk the error stack.
func (err *Err) Unwrap() error {
	return err.underlying
}

// Stack returns error message with stack frame information.
func (err *Err) Stack() string {
	if err.frame.valid() {
		return fmt.Sprintf("%s:%d:%s: %s", err.frame.file, err.frame.line, err.frame.funcname, err.msg)
	}
	return fmt.Sprintf("UnknownStack: %s", err.msg)
}

// Message returns code message of error
func (err *Err) Message() string {
	return err.msg
}

// rawNew creates an error with given message.
func rawNew(message string) *Err {
	err := &Err{
		msg: message,
	}
	return err
}

// NewErr creates a base error for typed errors defined in other packages.
// The caller's location callDepth frames above NewErr is recorded.
func NewErr(callDepth int, format string, a ...any) *Err {
	err := rawNew(fmt.Sprintf(format, a...))
	err.Caller(callDepth + 1)
	return err
}

// New creates an error with given message and records caller's location.
// It is a drop in replacement for standard library function errors.New.
func New(message string) error {
	err := rawNew(message)
	err.Caller(1)
	return err
}

// Errorf creates an error with given format specifier, and records caller's location.
// It is a drop replacement for standard library function fmt.Errorf.
func Errorf(format string, a ...any) error {
	err := rawNew(fmt.Sprintf(format, a...))
	err.Caller(1)
	return err
}

// Annotate add an extra context, and records caller's location.
func Annotate(err error, ctx string) error {
	if err == nil {
		return nil
	}
	newErr := rawNew(ctx)
	newErr.underlying = err
	newErr.Caller(1)
	return newErr
}

// Annotatef add an extra context with given format specifier, and records caller's location.
func Annotatef(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	newErr := rawNew(fmt.Sprintf(format, a...))
	newErr.underlying = err
	newErr.Caller(1)
	return newErr
}

// Trace add an extra stack frame information to an error.
func Trace(err error) error {
	if err == nil {
		return nil
	}
	newErr := rawNew("")
	newErr.underlying = err
	newErr.Caller(1)
	return newErr
}

// Cause returns the innermost error in error stack.
func Cause(err error) error {
	for {
		this := err
		if e, ok := err.(Underlying); ok {
			if err = e.Underlie(); err == nil {
				return this
			}
		} else {
			return this
		}
	}
}

// Is reports whether any error in err's stack matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's stack that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// StackTrace formats stack trace information in error stack, innermost first.
// Output example:
//
//	errors/error_test.go:90:(*baseErrorSuite).TestStackTrace: err1
//	errors/error_test.go:91:(*baseErrorSuite).TestStackTrace:
//	errors/error_test.go:92:(*baseErrorSuite).TestStackTrace: err3
//	errors/error_test.go:93:(*baseErrorSuite).TestStackTrace: err4
func StackTrace(err error) string {
	var lines []string
	for {
		if e, ok := err.(Stacker); ok {
			lines = append(lines, e.Stack())
		} else {
			lines = append(lines, err.Error())
		}

		if e, ok := err.(Underlying); ok {
			if err = e.Underlie(); err == nil {
				break
			}
		} else {
			break
		}
	}
	result := make([]string, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		result = append(result, lines[i])
	}
	return strings.Join(result, "\n")
}
