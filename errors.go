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

package hostbridge

import (
	"fmt"

	"github.com/pkg/errors"
)

// Result is the internal error taxonomy every VFS-F and TSE call returns.
// The WASI bridge maps each member to a WASI errno; see wasi.ToErrno.
type Result int

const (
	Success Result = iota
	FailedToInitializeFileSystem
	PermissionDenied
	NotFound
	AlreadyExists
	DirectoryAlreadyExists
	FileSystemFull
	FileSystemError
	InvalidPath
	InvalidFile
	InvalidDirectory
	InvalidSymbolicLink
	Unknown
	InvalidIdentifier
	FailedToGetTaskInformation
	TooManyMountedFileSystems
	PoisonedLock
	TooManyOpenFiles
	InternalError
	InvalidMode
	UnsupportedOperation
	ResourceBusy
	AlreadyInitialized
	NotInitialized
	InvalidInput
	Other
)

var resultNames = map[Result]string{
	Success:                      "Success",
	FailedToInitializeFileSystem: "FailedToInitializeFileSystem",
	PermissionDenied:             "PermissionDenied",
	NotFound:                     "NotFound",
	AlreadyExists:                "AlreadyExists",
	DirectoryAlreadyExists:       "DirectoryAlreadyExists",
	FileSystemFull:               "FileSystemFull",
	FileSystemError:              "FileSystemError",
	InvalidPath:                  "InvalidPath",
	InvalidFile:                  "InvalidFile",
	InvalidDirectory:             "InvalidDirectory",
	InvalidSymbolicLink:          "InvalidSymbolicLink",
	Unknown:                      "Unknown",
	InvalidIdentifier:            "InvalidIdentifier",
	FailedToGetTaskInformation:   "FailedToGetTaskInformation",
	TooManyMountedFileSystems:    "TooManyMountedFileSystems",
	PoisonedLock:                 "PoisonedLock",
	TooManyOpenFiles:             "TooManyOpenFiles",
	InternalError:                "InternalError",
	InvalidMode:                  "InvalidMode",
	UnsupportedOperation:         "UnsupportedOperation",
	ResourceBusy:                 "ResourceBusy",
	AlreadyInitialized:           "AlreadyInitialized",
	NotInitialized:               "NotInitialized",
	InvalidInput:                 "InvalidInput",
	Other:                        "Other",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// resultError adapts a Result to the error interface so it can travel
// through normal Go error-handling paths and errors.Wrap chains.
type resultError struct {
	result Result
}

func (e *resultError) Error() string { return e.result.String() }

// AsError converts a Result to an error, or nil for Success.
func (r Result) AsError() error {
	if r == Success {
		return nil
	}
	return &resultError{result: r}
}

// ResultOf recovers the Result a wrapped error chain carries, or Other if
// none of the errors in the chain originated as a Result.
func ResultOf(err error) Result {
	if err == nil {
		return Success
	}
	for err != nil {
		if re, ok := err.(*resultError); ok {
			return re.result
		}
		err = errors.Unwrap(err)
	}
	return Other
}

// Wrap annotates err with a message while preserving the Result it carries
// for ResultOf, via a library that keeps the chain intact for
// errors.Is/errors.Cause rather than a bare fmt.Errorf("op: %v", err).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, message)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}
