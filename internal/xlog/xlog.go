// Copyright 2015 Google Inc. All Rights Reserved.
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

// Package xlog is the structured logging entry point of this module; the
// root package's Engine is its only user. Verbosity is gated by a bool flag, lazily
// initialized behind a sync.Once, and rendered through logrus with
// structured fields instead of a bare *log.Logger, so a handle, selector
// or thread id attaches to the record rather than being interpolated into
// a format string.
package xlog

import (
	"flag"
	"io"
	"io/ioutil"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var fEnableDebug = flag.Bool(
	"hostbridge.debug",
	false,
	"Write hostbridge debug-level log records to stderr.")

var (
	gLogger     *logrus.Logger
	gLoggerOnce sync.Once
)

func initLogger() {
	var writer io.Writer = ioutil.Discard
	level := logrus.InfoLevel
	if flag.Parsed() && *fEnableDebug {
		writer = os.Stderr
		level = logrus.DebugLevel
	}

	gLogger = logrus.New()
	gLogger.SetOutput(writer)
	gLogger.SetLevel(level)
	gLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Logger returns the process-wide logger, lazily initialized against the
// current state of the -hostbridge.debug flag the first time it is
// called. Callers must ensure flags have been parsed before the first
// call if they want the flag respected.
func Logger() *logrus.Logger {
	gLoggerOnce.Do(initLogger)
	return gLogger
}

// For is a convenience constructor returning an entry pre-tagged with a
// component field, e.g. xlog.For("wasi") or xlog.For("task").
func For(component string) *logrus.Entry {
	return Logger().WithField("component", component)
}
