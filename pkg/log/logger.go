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

package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// defines logger field keys.
const (
	FieldKeyComponent = "COMPONENT"
	FieldKeyDevice    = "DEVICE"
	FieldKeyEvent     = "EVENT"
)

// Interface is the interface of logger.
type Interface interface {
	Subscribe(key, val string) Interface

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
}

var _ Interface = new(logger)

// Logger is the global logger.
var Logger Interface = New(logrus.StandardLogger())

// logger is the management unit of logging functions.
type logger struct {
	*logrus.Logger
	fields logrus.Fields
}

// Debugf logs a message at level Debug.
func (l *logger) Debugf(format string, args ...any) {
	l.WithFields(l.fields).Debugf(format, args...)
}

// Infof logs a message at level Info.
func (l *logger) Infof(format string, args ...any) {
	l.WithFields(l.fields).Infof(format, args...)
}

// Warnf logs a message at level Warn.
func (l *logger) Warnf(format string, args ...any) {
	l.WithFields(l.fields).Warnf(format, args...)
}

// Errorf logs a message at level Error.
func (l *logger) Errorf(format string, args ...any) {
	l.WithFields(l.fields).Errorf(format, args...)
}

// Debug logs a message at level Debug.
func (l *logger) Debug(args ...any) {
	l.WithFields(l.fields).Debug(args...)
}

// Info logs a message at level Info.
func (l *logger) Info(args ...any) {
	l.WithFields(l.fields).Info(args...)
}

// Warn logs a message at level Warn.
func (l *logger) Warn(args ...any) {
	l.WithFields(l.fields).Warn(args...)
}

// Error logs a message at level Error.
func (l *logger) Error(args ...any) {
	l.WithFields(l.fields).Error(args...)
}

// Subscribe adds a field base on current logger and returns a new logger.
func (l *logger) Subscribe(key, val string) Interface {
	fields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = val
	return &logger{
		Logger: l.Logger,
		fields: fields,
	}
}

// New wraps a logrus logger.
func New(l *logrus.Logger) Interface {
	return &logger{
		Logger: l,
		fields: logrus.Fields{},
	}
}

// Discard returns a logger which drops everything, used by tests.
func Discard() Interface {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return New(l)
}

// InitLogger initializes the global logger.
func InitLogger(level logrus.Level) {
	l := &logrus.Logger{
		Out: os.Stderr,
		Formatter: &logrus.TextFormatter{
			FullTimestamp: true,
		},
		Hooks:        make(logrus.LevelHooks),
		Level:        logrus.InfoLevel,
		ExitFunc:     os.Exit,
		ReportCaller: false,
	}
	l.SetLevel(level)
	Logger = New(l)
}
