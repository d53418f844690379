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

// Package localvfs is a reference vfs.Backend implemented over real files
// on the host's local file system: a single root, path-keyed lookups, and
// fixed attribute translation, backed by os.File rather than an in-memory
// byte slice. It exists solely so this repository's own tests and
// examples have a concrete vfs.Backend to drive — a production backend
// (LittleFS, a mount table) is wired in by the embedding application.
package localvfs

import (
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	fallocate "github.com/detailyang/go-fallocate"
	"github.com/jacobsa/timeutil"
	"golang.org/x/sys/unix"

	"github.com/kestrel-embedded/hostbridge"
	"github.com/kestrel-embedded/hostbridge/vfs"
)

// Backend roots every path under a real directory on the host, the way a
// test harness for memfs roots a fuse mount under a temporary directory.
type Backend struct {
	root  string
	clock timeutil.Clock
}

var _ vfs.Backend = (*Backend)(nil)

// New creates a Backend rooted at root, which must already exist.
func New(root string) *Backend {
	return &Backend{root: root, clock: timeutil.RealClock()}
}

func (b *Backend) resolve(p string) string {
	return filepath.Join(b.root, filepath.FromSlash(p))
}

func osFlags(access hostbridge.AccessMode, open hostbridge.OpenFlags, status hostbridge.StatusFlags) int {
	var flags int
	switch {
	case access&hostbridge.Read != 0 && access&hostbridge.Write != 0:
		flags = os.O_RDWR
	case access&hostbridge.Write != 0:
		flags = os.O_WRONLY
	default:
		flags = os.O_RDONLY
	}
	if open&hostbridge.Create != 0 {
		flags |= os.O_CREATE
	}
	if open&hostbridge.CreateOnly != 0 {
		flags |= os.O_EXCL
	}
	if status&hostbridge.Append != 0 {
		flags |= os.O_APPEND
	}
	if status&hostbridge.Synchronous != 0 {
		flags |= os.O_SYNC
	}
	return flags
}

// Open implements vfs.Backend. Truncate is handled by the facade after
// open so that the rule "Truncate on a non-regular file is
// UnsupportedOperation" can be checked against the resolved file's kind.
func (b *Backend) Open(p string, access hostbridge.AccessMode, open hostbridge.OpenFlags, status hostbridge.StatusFlags) (vfs.File, error) {
	full := b.resolve(p)

	info, statErr := os.Lstat(full)
	if statErr != nil {
		if !os.IsNotExist(statErr) {
			return nil, hostbridge.FileSystemError.AsError()
		}
		if open&hostbridge.Create == 0 {
			return nil, hostbridge.NotFound.AsError()
		}
	} else if open&hostbridge.CreateOnly != 0 {
		return nil, hostbridge.AlreadyExists.AsError()
	} else if info.IsDir() {
		f, err := os.Open(full)
		if err != nil {
			return nil, hostbridge.PermissionDenied.AsError()
		}
		return &file{osFile: f, clock: b.clock, isDir: true}, nil
	}

	f, err := os.OpenFile(full, osFlags(access, open, status), 0644)
	if err != nil {
		if os.IsPermission(err) {
			return nil, hostbridge.PermissionDenied.AsError()
		}
		if os.IsExist(err) {
			return nil, hostbridge.AlreadyExists.AsError()
		}
		return nil, hostbridge.FileSystemError.AsError()
	}

	return &file{osFile: f, clock: b.clock}, nil
}

func (b *Backend) Rename(oldPath, newPath string) error {
	if err := os.Rename(b.resolve(oldPath), b.resolve(newPath)); err != nil {
		return hostbridge.FileSystemError.AsError()
	}
	return nil
}

func (b *Backend) Link(oldPath, newPath string) error {
	if err := os.Link(b.resolve(oldPath), b.resolve(newPath)); err != nil {
		return hostbridge.FileSystemError.AsError()
	}
	return nil
}

func (b *Backend) Symlink(target, linkPath string) error {
	if err := os.Symlink(target, b.resolve(linkPath)); err != nil {
		return hostbridge.FileSystemError.AsError()
	}
	return nil
}

func (b *Backend) CreateDirectory(p string) error {
	if err := os.Mkdir(b.resolve(p), 0755); err != nil {
		if os.IsExist(err) {
			return hostbridge.DirectoryAlreadyExists.AsError()
		}
		return hostbridge.FileSystemError.AsError()
	}
	return nil
}

func (b *Backend) Remove(p string) error {
	if err := os.Remove(b.resolve(p)); err != nil {
		if os.IsNotExist(err) {
			return hostbridge.NotFound.AsError()
		}
		return hostbridge.FileSystemError.AsError()
	}
	return nil
}

func (b *Backend) StatPath(p string, follow bool) (hostbridge.FileStatistics, error) {
	full := b.resolve(p)
	var info os.FileInfo
	var err error
	if follow {
		info, err = os.Stat(full)
	} else {
		info, err = os.Lstat(full)
	}
	if err != nil {
		return hostbridge.FileStatistics{}, hostbridge.NotFound.AsError()
	}
	return statFromInfo(info), nil
}

func (b *Backend) SetTimesPath(p string, atime, mtime hostbridge.TimeSpec, follow bool) error {
	full := b.resolve(p)
	at, mt, err := resolveTimes(full, atime, mtime, follow, b.clock)
	if err != nil {
		return err
	}
	if err := os.Chtimes(full, at, mt); err != nil {
		return hostbridge.FileSystemError.AsError()
	}
	return nil
}

func (b *Backend) Readlink(p string) (string, error) {
	target, err := os.Readlink(b.resolve(p))
	if err != nil {
		return "", hostbridge.NotFound.AsError()
	}
	return target, nil
}

func resolveTimes(full string, atime, mtime hostbridge.TimeSpec, follow bool, clock timeutil.Clock) (time.Time, time.Time, error) {
	var info os.FileInfo
	var err error
	if follow {
		info, err = os.Stat(full)
	} else {
		info, err = os.Lstat(full)
	}
	if err != nil {
		return time.Time{}, time.Time{}, hostbridge.NotFound.AsError()
	}

	resolve := func(spec hostbridge.TimeSpec, current time.Time) time.Time {
		switch {
		case spec.Omit:
			return current
		case spec.Now:
			return clock.Now()
		default:
			return time.Unix(0, spec.Nanoseconds)
		}
	}

	return resolve(atime, info.ModTime()), resolve(mtime, info.ModTime()), nil
}

func statFromInfo(info os.FileInfo) hostbridge.FileStatistics {
	kind := hostbridge.FileKindFile
	switch {
	case info.IsDir():
		kind = hostbridge.FileKindDirectory
	case info.Mode()&os.ModeSymlink != 0:
		kind = hostbridge.FileKindSymbolicLink
	case info.Mode()&os.ModeCharDevice != 0:
		kind = hostbridge.FileKindCharacterDevice
	case info.Mode()&os.ModeDevice != 0:
		kind = hostbridge.FileKindBlockDevice
	case info.Mode()&os.ModeNamedPipe != 0:
		kind = hostbridge.FileKindPipe
	case info.Mode()&os.ModeSocket != 0:
		kind = hostbridge.FileKindSocket
	}

	stats := hostbridge.FileStatistics{
		Size:         uint64(info.Size()),
		ModifiedTime: info.ModTime(),
		AccessTime:   info.ModTime(),
		StatusTime:   info.ModTime(),
		Kind:         kind,
		LinkCount:    1,
	}

	if sys, ok := info.Sys().(*syscall.Stat_t); ok {
		stats.FileSystemID = uint64(sys.Dev)
		stats.Inode = sys.Ino
		stats.LinkCount = uint64(sys.Nlink)
		stats.AccessTime = time.Unix(sys.Atim.Sec, sys.Atim.Nsec)
		stats.StatusTime = time.Unix(sys.Ctim.Sec, sys.Ctim.Nsec)
	}

	return stats
}

// file is the vfs.File implementation backing open descriptors.
type file struct {
	osFile *os.File
	clock  timeutil.Clock
	isDir  bool
}

var _ vfs.File = (*file)(nil)

func (f *file) IsDir() bool { return f.isDir }

func (f *file) ReadVectored(buffers [][]byte) (int, error) {
	total := 0
	for _, buf := range buffers {
		n, err := io.ReadFull(f.osFile, buf)
		total += n
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return total, nil
			}
			return total, hostbridge.FileSystemError.AsError()
		}
	}
	return total, nil
}

func (f *file) WriteVectored(buffers [][]byte) (int, error) {
	total := 0
	for _, buf := range buffers {
		n, err := f.osFile.Write(buf)
		total += n
		if err != nil {
			return total, hostbridge.FileSystemFull.AsError()
		}
	}
	return total, nil
}

func (f *file) PReadVectored(buffers [][]byte, offset int64) (int, error) {
	total := 0
	for _, buf := range buffers {
		n, err := f.osFile.ReadAt(buf, offset+int64(total))
		total += n
		if err != nil {
			if err == io.EOF {
				return total, nil
			}
			return total, hostbridge.FileSystemError.AsError()
		}
	}
	return total, nil
}

func (f *file) PWriteVectored(buffers [][]byte, offset int64) (int, error) {
	total := 0
	for _, buf := range buffers {
		n, err := f.osFile.WriteAt(buf, offset+int64(total))
		total += n
		if err != nil {
			return total, hostbridge.FileSystemFull.AsError()
		}
	}
	return total, nil
}

func (f *file) Seek(delta int64, whence hostbridge.Whence) (int64, error) {
	var w int
	switch whence {
	case hostbridge.Current:
		w = io.SeekCurrent
	case hostbridge.End:
		w = io.SeekEnd
	default:
		w = io.SeekStart
	}

	pos, err := f.osFile.Seek(delta, w)
	if err != nil {
		return 0, hostbridge.InvalidInput.AsError()
	}
	if pos < 0 {
		return 0, hostbridge.InvalidInput.AsError()
	}
	return pos, nil
}

func (f *file) Truncate(size int64) error {
	if f.isDir {
		return hostbridge.UnsupportedOperation.AsError()
	}
	if err := f.osFile.Truncate(size); err != nil {
		return hostbridge.FileSystemError.AsError()
	}
	return nil
}

// Allocate grows the backing storage via posix_fallocate semantics. It
// must not shrink — go-fallocate's Fallocate never truncates, matching
// that requirement for free.
func (f *file) Allocate(offset, length int64) error {
	if f.isDir {
		return nil
	}
	if err := fallocate.Fallocate(f.osFile, offset, length); err != nil {
		return hostbridge.UnsupportedOperation.AsError()
	}
	return nil
}

func (f *file) SetTimes(atime, mtime hostbridge.TimeSpec) error {
	at, mt, err := resolveTimes(f.osFile.Name(), atime, mtime, true, f.clock)
	if err != nil {
		return err
	}
	if err := os.Chtimes(f.osFile.Name(), at, mt); err != nil {
		return hostbridge.FileSystemError.AsError()
	}
	return nil
}

func (f *file) Stat() (hostbridge.FileStatistics, error) {
	info, err := f.osFile.Stat()
	if err != nil {
		return hostbridge.FileStatistics{}, hostbridge.FileSystemError.AsError()
	}
	return statFromInfo(info), nil
}

func (f *file) Sync(dataOnly bool) error {
	if err := f.osFile.Sync(); err != nil {
		return hostbridge.FileSystemError.AsError()
	}
	return nil
}

// IsTerminal reports whether the descriptor refers to a tty, using the
// same ioctl probe real libc isatty(3) implementations use.
func (f *file) IsTerminal() bool {
	_, err := unix.IoctlGetTermios(int(f.osFile.Fd()), termiosGetAttr)
	return err == nil
}

func (f *file) OpenDir() (vfs.Directory, error) {
	if !f.isDir {
		return nil, hostbridge.InvalidDirectory.AsError()
	}
	return &directory{osFile: f.osFile}, nil
}

func (f *file) Close() error {
	if err := f.osFile.Close(); err != nil {
		return hostbridge.FileSystemError.AsError()
	}
	return nil
}

// directory lists entries by re-reading the whole directory on each call
// and treating the cookie as a plain index, which is simple enough to be
// correct for a reference backend and keeps cursor semantics monotonic by
// construction.
type directory struct {
	osFile *os.File
}

func (d *directory) Read(cookie uint64) (hostbridge.DirEntry, uint64, bool, error) {
	if _, err := d.osFile.Seek(0, io.SeekStart); err != nil {
		return hostbridge.DirEntry{}, 0, false, hostbridge.FileSystemError.AsError()
	}
	names, err := d.osFile.Readdirnames(-1)
	if err != nil {
		return hostbridge.DirEntry{}, 0, false, hostbridge.FileSystemError.AsError()
	}

	if cookie >= uint64(len(names)) {
		return hostbridge.DirEntry{}, cookie, true, nil
	}

	name := names[cookie]
	info, err := os.Lstat(filepath.Join(d.osFile.Name(), name))
	if err != nil {
		return hostbridge.DirEntry{}, 0, false, hostbridge.FileSystemError.AsError()
	}

	stats := statFromInfo(info)
	return hostbridge.DirEntry{
		Name:  name,
		Kind:  stats.Kind,
		Size:  stats.Size,
		Inode: stats.Inode,
	}, cookie + 1, false, nil
}
