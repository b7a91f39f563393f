package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

const (
	thisFile = "pkg/errors/error_test.go"
)

func TestBaseErrorSuite(t *testing.T) {
	suite.Run(t, new(baseErrorSuite))
}

type baseErrorSuite struct {
	Suite
}

func (s *baseErrorSuite) TestBasicError() {
	r := s.R()

	err := New("basic")
	r.Equal("basic", err.Error())
	r.Nil(err.(Underlying).Underlie())
	r.Nil(err.(Underlying).Underlie())
	r.Equal(fmt.Sprintf("%s:%d:(*baseErrorSuite).TestBasicError: basic", thisFile, err.(*Err).frame.line),
		fmt.Sprintf("%+v", err))

	err = Errorf("basic %d", 10)
	r.Equal("basic 10", err.Error())
	r.Nil(err.(Underlying).Underlie())
	r.Equal(fmt.Sprintf("%s:%d:(*baseErrorSuite).TestBasicError: basic 10", thisFile, err.(*Err).frame.line),
		fmt.Sprintf("%+v", err))
}

func (s *baseErrorSuite) TestAnnotateNormalError() {
	r := s.R()

	err1 := fmt.Errorf("err1")
	err2 := Trace(err1)
	err3 := Annotate(err2, "err3")

	// Cause
	r.Equal(err1, Cause(err1))
	r.Equal(err1, Cause(err2))
	r.Equal(err1, Cause(err3))
}

func (s *baseErrorSuite) TestStackTrace() {
	r := s.R()

	err1 := New("err1")
	err2 := Trace(err1)
	err3 := Annotate(err2, "err3")
	err4 := Annotatef(err3, "err%d", 4)

	// Cause
	r.Equal(err1, Cause(err1))
	r.Equal(err1, Cause(err2))
	r.Equal(err1, Cause(err3))
	r.Equal(err1, Cause(err4))

	// StackTrace
	err1Line := err1.(*Err).frame.line
	r.NotEmpty(err1Line)
	err2Line := err1Line + 1
	err3Line := err1Line + 2
	err4Line := err1Line + 3
	result := StackTrace(err4)
	lines := strings.Split(result, "\n")
	r.Len(lines, 4)
	r.Equal(fmt.Sprintf("%s:%d:(*baseErrorSuite).TestStackTrace: err1", thisFile, err1Line), lines[0])
	r.Equal(fmt.Sprintf("%s:%d:(*baseErrorSuite).TestStackTrace: ", thisFile, err2Line), lines[1])
	r.Equal(fmt.Sprintf("%s:%d:(*baseErrorSuite).TestStackTrace: err3", thisFile, err3Line), lines[2])
	r.Equal(fmt.Sprintf("%s:%d:(*baseErrorSuite).TestStackTrace: err4", thisFile, err4Line), lines[3])
}

func (s *baseErrorSuite) TestStackTraceWithNormalError() {
	r := s.R()

	err1 := fmt.Errorf("err1")
	err2 := Trace(err1)
	err3 := Annotate(err2, "err3")
	err4 := Annotatef(err3, "err%d", 4)

	// Cause
	r.Equal(err1, Cause(err1))
	r.Equal(err1, Cause(err2))
	r.Equal(err1, Cause(err3))
	r.Equal(err1, Cause(err4))

	// StackTrace
	err2Line := err2.(*Err).frame.line
	r.NotEmpty(err2Line)
	err3Line := err2Line + 1
	err4Line := err2Line + 2
	result := StackTrace(err4)
	lines := strings.Split(result, "\n")
	r.Len(lines, 4)
	r.Equal("err1", lines[0])
	r.Equal(fmt.Sprintf("%s:%d:(*baseErrorSuite).TestStackTraceWithNormalError: ", thisFile, err2Line), lines[1])
	r.Equal(fmt.Sprintf("%s:%d:(*baseErrorSuite).TestStackTraceWithNormalError: err3", thisFile, err3Line), lines[2])
	r.Equal(
		fmt.Sprintf("%s:%d:(*baseErrorSuite).TestStackTraceWithNormalError: err4", thisFile, err4Line),
		lines[3])
}

type busyError struct {
	*Err
	Device string
}

func newBusyError(device string) error {
	return &busyError{
		Err:    NewErr(1, "%s is busy", device),
		Device: device,
	}
}

func TestTypedErrorSuite(t *testing.T) {
	suite.Run(t, new(typedErrorSuite))
}

type typedErrorSuite struct {
	Suite
}

func (s *typedErrorSuite) TestMessage() {
	r := s.R()

	err := newBusyError("/dev/sda")
	r.Equal("/dev/sda is busy", err.Error())
	r.Nil(err.(Underlying).Underlie())
}

func (s *typedErrorSuite) TestAsThroughAnnotations() {
	r := s.R()

	err1 := newBusyError("/dev/sdb")
	err2 := Trace(err1)
	err3 := Annotatef(err2, "check %s", "sdb")

	var busy *busyError
	r.True(As(err3, &busy))
	r.Equal("/dev/sdb", busy.Device)
	r.Equal(err1, Cause(err3))
	r.Equal("check sdb: /dev/sdb is busy", err3.Error())
}

func (s *typedErrorSuite) TestIsSentinel() {
	r := s.R()

	sentinel := fmt.Errorf("sentinel")
	err := Annotate(Trace(sentinel), "outer")
	r.True(Is(err, sentinel))
	r.False(Is(err, fmt.Errorf("sentinel")))
}

func (s *typedErrorSuite) TestStackTrace() {
	r := s.R()

	err1 := newBusyError("/dev/sdc")
	err2 := Trace(err1)
	err3 := Annotate(err2, "err3")

	err1Line := err1.(*busyError).frame.line
	r.NotEmpty(err1Line)
	lines := strings.Split(StackTrace(err3), "\n")
	r.Len(lines, 3)
	r.Equal(fmt.Sprintf("%s:%d:(*typedErrorSuite).TestStackTrace: /dev/sdc is busy", thisFile, err1Line), lines[0])
	r.Equal(fmt.Sprintf("%s:%d:(*typedErrorSuite).TestStackTrace: ", thisFile, err1Line+1), lines[1])
	r.Equal(fmt.Sprintf("%s:%d:(*typedErrorSuite).TestStackTrace: err3", thisFile, err1Line+2), lines[2])
}
