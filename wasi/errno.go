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

// Package wasi implements the WASI Bridge: the guest-visible ABI surface
// translating WASI snapshot-preview1 conventions (errno, open/status
// flags, whence, file-kind, iovec, filestat) to and from the internal
// hostbridge representation, and the graphics RPC entry point.
//
// The bridge owns no resources of its own. It forwards every call to
// vfs.Facade or task.Engine and translates the result, the same relation
// fuseops/common_op.go's per-op dispatch has to the underlying FileSystem
// implementation in the teacher.
package wasi

import "github.com/kestrel-embedded/hostbridge"

// Errno is a WASI snapshot-preview1 error code.
type Errno uint16

const (
	ESUCCESS Errno = 0
	E2BIG    Errno = 1
	EACCES   Errno = 2
	EADDRINUSE Errno = 3
	EBADF    Errno = 8
	EBUSY    Errno = 10
	ECANCELED Errno = 11
	EEXIST   Errno = 20
	EFBIG    Errno = 22
	EINVAL   Errno = 28
	EIO      Errno = 29
	EISDIR   Errno = 31
	EMFILE   Errno = 33
	ENOENT   Errno = 44
	ENOSPC   Errno = 51
	ENOSYS   Errno = 52
	ENOTDIR  Errno = 54
	ENOTEMPTY Errno = 55
	ENOTSUP  Errno = 58
	EPERM    Errno = 63
	ETIMEDOUT Errno = 73
)

// resultToErrno is the table-driven mapping from the internal Result
// taxonomy to WASI errno, per the mapping in the error-handling design:
// success maps to ESUCCESS, named codes map to their WASI counterpart, and
// anything not individually listed maps to ECANCELED.
var resultToErrno = map[hostbridge.Result]Errno{
	hostbridge.Success:                      ESUCCESS,
	hostbridge.NotFound:                     ENOENT,
	hostbridge.PermissionDenied:             EACCES,
	hostbridge.AlreadyExists:                EEXIST,
	hostbridge.DirectoryAlreadyExists:       EEXIST,
	hostbridge.InvalidPath:                  EINVAL,
	hostbridge.InvalidInput:                 EINVAL,
	hostbridge.UnsupportedOperation:         ENOTSUP,
	hostbridge.ResourceBusy:                 EBUSY,
	hostbridge.TooManyOpenFiles:             EMFILE,
	hostbridge.FileSystemFull:               ENOSPC,
	hostbridge.InvalidIdentifier:            EBADF,
	hostbridge.InvalidFile:                  EBADF,
	hostbridge.InvalidDirectory:             ENOTDIR,
	hostbridge.FileSystemError:              EIO,
}

// errnoToResult is errno's inverse for the subset of errnos that round-trip
// to a specific Result; anything else maps to hostbridge.Other.
var errnoToResult = map[Errno]hostbridge.Result{
	ESUCCESS: hostbridge.Success,
	ENOENT:   hostbridge.NotFound,
	EACCES:   hostbridge.PermissionDenied,
	EEXIST:   hostbridge.AlreadyExists,
	EINVAL:   hostbridge.InvalidPath,
	ENOTSUP:  hostbridge.UnsupportedOperation,
	EBUSY:    hostbridge.ResourceBusy,
	EMFILE:   hostbridge.TooManyOpenFiles,
	ENOSPC:   hostbridge.FileSystemFull,
	EBADF:    hostbridge.InvalidIdentifier,
	ENOTDIR:  hostbridge.InvalidDirectory,
	EIO:      hostbridge.FileSystemError,
}

// ToErrno maps a Result to its WASI errno. Unknown codes map to ECANCELED,
// never to ESUCCESS, so a caller can never mistake an unmapped failure for
// success.
func ToErrno(r hostbridge.Result) Errno {
	if e, ok := resultToErrno[r]; ok {
		return e
	}
	return ECANCELED
}

// FromErrno recovers a representative Result for errno. Used only by round
// trip tests; the ABI direction that
// matters in production is always ToErrno, since the guest never hands the
// host an errno to interpret as a Result.
func FromErrno(e Errno) hostbridge.Result {
	if r, ok := errnoToResult[e]; ok {
		return r
	}
	return hostbridge.Other
}

// ErrnoOf maps err (as returned by vfs/task calls) directly to its WASI
// errno, saving callers the ResultOf(err) + ToErrno(result) two-step.
func ErrnoOf(err error) Errno {
	return ToErrno(hostbridge.ResultOf(err))
}
