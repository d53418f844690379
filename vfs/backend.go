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

// Package vfs implements the Virtual File System Facade (VFS-F): a thin
// ownership layer above an external VFS backend. Backend and File are that
// backend's contract — the concrete implementation (LittleFS and a mount
// table, in the target system) is out of scope for this module, exactly as
// jacobsa-fuse's FileSystem interface is the contract a sample file system
// (memfs, roloopbackfs, ...) implements while fuse.Connection only ever
// talks to the interface.
package vfs

import "github.com/kestrel-embedded/hostbridge"

// Backend is the host-facing OS-personality contract VFS-F consumes. A
// concrete VFS (out of scope for this module) implements it; this package
// ships internal/localvfs as a reference implementation used only by this
// repository's own tests.
type Backend interface {
	// Open resolves an absolute path to a File, honoring open/status
	// flags. Errors are members of hostbridge.Result: NotFound,
	// AlreadyExists, PermissionDenied, InvalidPath, UnsupportedOperation.
	Open(path string, access hostbridge.AccessMode, open hostbridge.OpenFlags, status hostbridge.StatusFlags) (File, error)

	Rename(oldPath, newPath string) error
	Link(oldPath, newPath string) error
	Symlink(target, linkPath string) error
	CreateDirectory(path string) error
	Remove(path string) error

	StatPath(path string, follow bool) (hostbridge.FileStatistics, error)
	SetTimesPath(path string, atime, mtime hostbridge.TimeSpec, follow bool) error

	// Readlink returns the path target must resolve to. The module does
	// not resolve "." or ".." segments in the result (spec open question,
	// preserved verbatim); backends return whatever they recorded at
	// symlink creation time.
	Readlink(path string) (string, error)
}

// File is an open file or directory as VFS-F sees it. The position (for
// ReadVectored/WriteVectored/Seek) is backend state; VFS-F itself tracks
// only the access mode, open flags and status flags fixed at open time
// plus any mutable status flags.
type File interface {
	IsDir() bool

	ReadVectored(buffers [][]byte) (int, error)
	WriteVectored(buffers [][]byte) (int, error)
	PReadVectored(buffers [][]byte, offset int64) (int, error)
	PWriteVectored(buffers [][]byte, offset int64) (int, error)

	Seek(delta int64, whence hostbridge.Whence) (int64, error)
	Truncate(size int64) error
	Allocate(offset, length int64) error

	SetTimes(atime, mtime hostbridge.TimeSpec) error
	Stat() (hostbridge.FileStatistics, error)
	Sync(dataOnly bool) error
	IsTerminal() bool

	// OpenDir begins directory iteration over a File for which IsDir is
	// true. It fails with InvalidDirectory otherwise.
	OpenDir() (Directory, error)

	Close() error
}

// Directory iterates the entries of an open directory File. Cursor values
// ("cookies") are opaque to the facade and only meaningful to the Directory
// that issued them.
type Directory interface {
	// Read returns the entry at cookie and the cookie of the entry after
	// it. end is true when cookie was at or past the last entry.
	Read(cookie uint64) (entry hostbridge.DirEntry, next uint64, end bool, err error)
}
