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

package vfs

import (
	"path"
	"strings"

	"github.com/kestrel-embedded/hostbridge"
	"github.com/kestrel-embedded/hostbridge/registry"
)

// PathMax is the maximum canonical-path length, including terminator.
const PathMax = 256

// RootSeparator is the VFS root separator used to normalize relative
// paths in *at operations.
const RootSeparator = "/"

// Facade owns descriptors and directory streams over an external Backend,
// adding no policy of its own: every operation forwards to the backend and
// translates its result, matching jacobsa-fuse's separation between
// fuse.Connection (transport + bookkeeping) and a fuse.FileSystem
// implementation (policy).
type Facade struct {
	backend Backend
	table   *registry.Table
}

// New constructs a Facade over backend. The three stdio files, when
// non-nil, are minted immediately so their handles are stable and
// recognizable by identity for IsStdin/IsStdout/IsStderr, exactly as the
// spec requires stdio recognition to work.
func New(backend Backend, stdin, stdout, stderr File) (*Facade, hostbridge.Handle, hostbridge.Handle, hostbridge.Handle) {
	f := &Facade{
		backend: backend,
		table:   registry.New(0),
	}

	mint := func(file File, kind stdioKind, access hostbridge.AccessMode) hostbridge.Handle {
		if file == nil {
			return hostbridge.InvalidHandle
		}
		h, err := f.table.Mint(registry.KindFile, &descriptor{
			file:   file,
			access: access,
			stdio:  kind,
		})
		if err != nil {
			return hostbridge.InvalidHandle
		}
		return h
	}

	in := mint(stdin, stdioIn, hostbridge.Read)
	out := mint(stdout, stdioOut, hostbridge.Write)
	errH := mint(stderr, stdioErr, hostbridge.Write)

	return f, in, out, errH
}

func (f *Facade) descriptorAt(h hostbridge.Handle) (*descriptor, error) {
	payload, err := f.table.Lookup(h, registry.KindFile)
	if err != nil {
		return nil, err
	}
	return payload.(*descriptor), nil
}

func (f *Facade) streamAt(h hostbridge.Handle) (*dirStream, error) {
	payload, err := f.table.Lookup(h, registry.KindDir)
	if err != nil {
		return nil, err
	}
	return payload.(*dirStream), nil
}

// NormalizePath prefixes p with RootSeparator when it does not already
// begin with one. openat/*at dispatch must reproduce this exactly, since
// callers can observe whether a relative path got normalized.
func NormalizePath(p string) string {
	if !strings.HasPrefix(p, RootSeparator) {
		return RootSeparator + p
	}
	return p
}

// PreopenDirectory grants the guest a read-only handle to an absolute
// directory path. Errors: NotFound, InvalidPath, PermissionDenied.
func (f *Facade) PreopenDirectory(p string) (hostbridge.Handle, error) {
	if !path.IsAbs(p) {
		return hostbridge.InvalidHandle, hostbridge.InvalidPath.AsError()
	}

	file, err := f.backend.Open(p, hostbridge.Read, 0, 0)
	if err != nil {
		return hostbridge.InvalidHandle, err
	}
	if !file.IsDir() {
		file.Close()
		return hostbridge.InvalidHandle, hostbridge.InvalidDirectory.AsError()
	}

	h, err := f.table.Mint(registry.KindFile, &descriptor{
		file:        file,
		access:      hostbridge.Read,
		readOnly:    true,
		preopenPath: p,
	})
	if err != nil {
		file.Close()
		return hostbridge.InvalidHandle, err
	}
	return h, nil
}

// Open resolves an absolute path directly (no parent-directory handle).
func (f *Facade) Open(p string, access hostbridge.AccessMode, open hostbridge.OpenFlags, status hostbridge.StatusFlags) (hostbridge.Handle, error) {
	file, err := f.openBackend(p, access, open, status)
	if err != nil {
		return hostbridge.InvalidHandle, err
	}

	h, err := f.table.Mint(registry.KindFile, &descriptor{
		file:        file,
		access:      access,
		openFlags:   open,
		statusFlags: status,
	})
	if err != nil {
		file.Close()
		return hostbridge.InvalidHandle, err
	}
	return h, nil
}

func (f *Facade) openBackend(p string, access hostbridge.AccessMode, open hostbridge.OpenFlags, status hostbridge.StatusFlags) (File, error) {
	file, err := f.backend.Open(p, access, open, status)
	if err != nil {
		return nil, err
	}
	if open&hostbridge.Truncate != 0 && !file.IsDir() {
		if err := file.Truncate(0); err != nil {
			file.Close()
			return nil, err
		}
	}
	return file, nil
}

// OpenAt resolves path relative to the pre-open directory dirHandle. When
// path does not begin with RootSeparator, the facade prepends the root
// separator before dispatching to the backend — this normalization is
// observable and must be reproduced exactly.
func (f *Facade) OpenAt(dirHandle hostbridge.Handle, p string, open hostbridge.OpenFlags, status hostbridge.StatusFlags, access hostbridge.AccessMode, wantDirectory bool) (hostbridge.Handle, error) {
	dirDesc, err := f.descriptorAt(dirHandle)
	if err != nil {
		return hostbridge.InvalidHandle, err
	}
	if !dirDesc.file.IsDir() {
		return hostbridge.InvalidHandle, hostbridge.InvalidDirectory.AsError()
	}

	full := NormalizePath(path.Join(dirDesc.preopenPath, p))

	file, err := f.openBackend(full, access, open, status)
	if err != nil {
		return hostbridge.InvalidHandle, err
	}
	if wantDirectory && !file.IsDir() {
		file.Close()
		return hostbridge.InvalidHandle, hostbridge.InvalidDirectory.AsError()
	}

	h, err := f.table.Mint(registry.KindFile, &descriptor{
		file:        file,
		access:      access,
		openFlags:   open,
		statusFlags: status,
	})
	if err != nil {
		file.Close()
		return hostbridge.InvalidHandle, err
	}
	return h, nil
}

// Close releases a file descriptor. A stdio descriptor's underlying stream
// is not closed, so a guest closing fd 0/1/2 only drops its own handle.
func (f *Facade) Close(h hostbridge.Handle) error {
	d, err := f.descriptorAt(h)
	if err != nil {
		return err
	}
	if err := f.table.Release(h); err != nil {
		return err
	}
	if d.stdio != stdioNone {
		return nil
	}
	return d.file.Close()
}

// ReadVectored is atomic with respect to the descriptor's position. Short
// reads at EOF are not errors.
func (f *Facade) ReadVectored(h hostbridge.Handle, buffers [][]byte) (int, error) {
	d, err := f.descriptorAt(h)
	if err != nil {
		return 0, err
	}
	if err := d.checkReadable(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file.ReadVectored(buffers)
}

func (f *Facade) WriteVectored(h hostbridge.Handle, buffers [][]byte) (int, error) {
	d, err := f.descriptorAt(h)
	if err != nil {
		return 0, err
	}
	if err := d.checkWritable(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file.WriteVectored(buffers)
}

// PositionedReadVectored and PositionedWriteVectored do not advance the
// descriptor position.
func (f *Facade) PositionedReadVectored(h hostbridge.Handle, buffers [][]byte, offset int64) (int, error) {
	d, err := f.descriptorAt(h)
	if err != nil {
		return 0, err
	}
	if err := d.checkReadable(); err != nil {
		return 0, err
	}
	return d.file.PReadVectored(buffers, offset)
}

func (f *Facade) PositionedWriteVectored(h hostbridge.Handle, buffers [][]byte, offset int64) (int, error) {
	d, err := f.descriptorAt(h)
	if err != nil {
		return 0, err
	}
	if err := d.checkWritable(); err != nil {
		return 0, err
	}
	return d.file.PWriteVectored(buffers, offset)
}

// Seek fails with InvalidInput when the resulting position would be
// negative.
func (f *Facade) Seek(h hostbridge.Handle, delta int64, whence hostbridge.Whence) (int64, error) {
	d, err := f.descriptorAt(h)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file.Seek(delta, whence)
}

func (f *Facade) Truncate(h hostbridge.Handle, size int64) error {
	d, err := f.descriptorAt(h)
	if err != nil {
		return err
	}
	if err := d.checkWritable(); err != nil {
		return err
	}
	return d.file.Truncate(size)
}

// Allocate may be a no-op but must not shrink.
func (f *Facade) Allocate(h hostbridge.Handle, offset, length int64) error {
	d, err := f.descriptorAt(h)
	if err != nil {
		return err
	}
	if err := d.checkWritable(); err != nil {
		return err
	}
	return d.file.Allocate(offset, length)
}

func (f *Facade) SetTimes(h hostbridge.Handle, atime, mtime hostbridge.TimeSpec) error {
	d, err := f.descriptorAt(h)
	if err != nil {
		return err
	}
	return d.file.SetTimes(atime, mtime)
}

func (f *Facade) SetTimesFromPath(p string, atime, mtime hostbridge.TimeSpec, follow bool) error {
	return f.backend.SetTimesPath(p, atime, mtime, follow)
}

func (f *Facade) Rename(oldPath, newPath string) error { return f.backend.Rename(oldPath, newPath) }
func (f *Facade) Link(oldPath, newPath string) error    { return f.backend.Link(oldPath, newPath) }

func (f *Facade) SymlinkAt(dirHandle hostbridge.Handle, target, linkPath string) error {
	dirDesc, err := f.descriptorAt(dirHandle)
	if err != nil {
		return err
	}
	full := NormalizePath(path.Join(dirDesc.preopenPath, linkPath))
	return f.backend.Symlink(target, full)
}

func (f *Facade) CreateDirectory(p string) error { return f.backend.CreateDirectory(p) }
func (f *Facade) Remove(p string) error          { return f.backend.Remove(p) }

// OpenDirectory begins iteration over the directory referenced by
// dirHandle, returning a new stream handle aliased to it.
func (f *Facade) OpenDirectory(dirHandle hostbridge.Handle) (hostbridge.Handle, error) {
	d, err := f.descriptorAt(dirHandle)
	if err != nil {
		return hostbridge.InvalidHandle, err
	}
	if !d.file.IsDir() {
		return hostbridge.InvalidHandle, hostbridge.InvalidDirectory.AsError()
	}

	dir, err := d.file.OpenDir()
	if err != nil {
		return hostbridge.InvalidHandle, err
	}

	return f.table.Mint(registry.KindDir, &dirStream{parent: dirHandle, dir: dir})
}

// ReadDirectory advances the stream's cursor monotonically except under
// explicit rewind/seek.
func (f *Facade) ReadDirectory(streamHandle hostbridge.Handle) (hostbridge.DirEntry, bool, error) {
	s, err := f.streamAt(streamHandle)
	if err != nil {
		return hostbridge.DirEntry{}, false, err
	}
	entry, next, end, err := s.dir.Read(s.cursor)
	if err != nil {
		return hostbridge.DirEntry{}, false, err
	}
	if end {
		return hostbridge.DirEntry{}, true, nil
	}
	s.cursor = next
	return entry, false, nil
}

func (f *Facade) RewindDirectory(streamHandle hostbridge.Handle) error {
	s, err := f.streamAt(streamHandle)
	if err != nil {
		return err
	}
	s.cursor = 0
	return nil
}

func (f *Facade) SetDirectoryPosition(streamHandle hostbridge.Handle, cookie uint64) error {
	s, err := f.streamAt(streamHandle)
	if err != nil {
		return err
	}
	s.cursor = cookie
	return nil
}

// CloseDirectory releases only the stream slot; the parent descriptor's
// slot is untouched.
func (f *Facade) CloseDirectory(streamHandle hostbridge.Handle) error {
	if _, err := f.streamAt(streamHandle); err != nil {
		return err
	}
	return f.table.Release(streamHandle)
}

func (f *Facade) GetStatistics(h hostbridge.Handle) (hostbridge.FileStatistics, error) {
	d, err := f.descriptorAt(h)
	if err != nil {
		return hostbridge.FileStatistics{}, err
	}
	return d.file.Stat()
}

func (f *Facade) GetStatisticsFromPath(p string, follow bool) (hostbridge.FileStatistics, error) {
	return f.backend.StatPath(p, follow)
}

func (f *Facade) IsTerminal(h hostbridge.Handle) (bool, error) {
	d, err := f.descriptorAt(h)
	if err != nil {
		return false, err
	}
	return d.file.IsTerminal(), nil
}

func (f *Facade) IsStdin(h hostbridge.Handle) bool  { return f.stdioIs(h, stdioIn) }
func (f *Facade) IsStdout(h hostbridge.Handle) bool { return f.stdioIs(h, stdioOut) }
func (f *Facade) IsStderr(h hostbridge.Handle) bool { return f.stdioIs(h, stdioErr) }

func (f *Facade) stdioIs(h hostbridge.Handle, kind stdioKind) bool {
	d, err := f.descriptorAt(h)
	if err != nil {
		return false
	}
	return d.stdio == kind
}

func (f *Facade) GetFlags(h hostbridge.Handle) (hostbridge.StatusFlags, error) {
	d, err := f.descriptorAt(h)
	if err != nil {
		return 0, err
	}
	return d.statusFlags, nil
}

func (f *Facade) SetFlags(h hostbridge.Handle, status hostbridge.StatusFlags) error {
	d, err := f.descriptorAt(h)
	if err != nil {
		return err
	}
	d.statusFlags = status
	return nil
}

func (f *Facade) GetAccessMode(h hostbridge.Handle) (hostbridge.AccessMode, error) {
	d, err := f.descriptorAt(h)
	if err != nil {
		return 0, err
	}
	return d.access, nil
}

func (f *Facade) Flush(h hostbridge.Handle, includeMetadata bool) error {
	d, err := f.descriptorAt(h)
	if err != nil {
		return err
	}
	return d.file.Sync(!includeMetadata)
}

// CloseAll closes every descriptor and directory stream still open in the
// facade's table, aggregating errors rather than stopping at the first
// one encountered. Intended for engine-wide teardown; stdio descriptors
// are released but their underlying streams are left open, per Close's
// own contract.
func (f *Facade) CloseAll() []error {
	var errs []error
	for _, h := range f.table.InUseHandles(registry.KindDir) {
		if err := f.CloseDirectory(h); err != nil {
			errs = append(errs, err)
		}
	}
	for _, h := range f.table.InUseHandles(registry.KindFile) {
		if err := f.Close(h); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// ResolvePath is the realpath stub: it copies the input path verbatim up
// to PathMax bytes. It does not resolve "." or ".." segments; callers
// needing canonicalization must do it themselves against the backend.
func ResolvePath(p string) string {
	if len(p) > PathMax-1 {
		return p[:PathMax-1]
	}
	return p
}
