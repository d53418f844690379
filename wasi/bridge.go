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

package wasi

import (
	"context"

	"github.com/jacobsa/reqtrace"

	"github.com/kestrel-embedded/hostbridge"
	"github.com/kestrel-embedded/hostbridge/graphics"
	"github.com/kestrel-embedded/hostbridge/memory"
	"github.com/kestrel-embedded/hostbridge/task"
	"github.com/kestrel-embedded/hostbridge/vfs"
)

// Bridge is the top-level ABI surface a guest module calls into. It owns
// no resources itself; every method forwards to the Facade or Engine it
// wraps and translates the result to WASI conventions. The vectored I/O
// methods (FdRead, FdWrite, FdPread, FdPwrite) also wrap the call in a
// reqtrace span the way fuseops/common_op.go wraps each dispatched op,
// keyed here by function name instead of op type.
type Bridge struct {
	VFS        *vfs.Facade
	Tasks      *task.Engine
	Graphics   *graphics.Dispatcher
}

// NewBridge wires a Bridge over an already-constructed Facade, Engine and
// graphics Dispatcher. Construction of those pieces (and of the backend
// they drive) is the caller's responsibility — see the root engine.go for
// the production wiring.
func NewBridge(v *vfs.Facade, t *task.Engine, g *graphics.Dispatcher) *Bridge {
	return &Bridge{VFS: v, Tasks: t, Graphics: g}
}

func trace(ctx context.Context, name string) (context.Context, reqtrace.ReportFunc) {
	return reqtrace.Trace(ctx, name)
}

////////////////////////////////////////////////////////////////////////
// File descriptor operations
////////////////////////////////////////////////////////////////////////

// FdRead implements __wasi_fd_read: gather the guest's iovec array, read
// into each buffer in order, and write each buffer's content back into
// guest memory, returning the total bytes filled.
func (b *Bridge) FdRead(ctx context.Context, g memory.Guest, fd hostbridge.Handle, iovecArrayOffset, iovecCount uint32) (uint32, Errno) {
	ctx, report := trace(ctx, "wasi.FdRead")
	defer func() { report(nil) }()

	bufs, err := gatherIOVecs(g, iovecArrayOffset, iovecCount)
	if err != nil {
		return 0, ECANCELED
	}

	n, err := b.VFS.ReadVectored(fd, bufs)
	if err != nil {
		return 0, ErrnoOf(err)
	}

	filled := 0
	for i, buf := range bufs {
		end := filled + len(buf)
		if end > n {
			end = n
		}
		if end <= filled {
			break
		}
		if werr := scatterIOVecResult(g, iovecArrayOffset, uint32(i), buf[:end-filled]); werr != nil {
			return uint32(filled), ECANCELED
		}
		filled = end
	}

	_ = ctx
	return uint32(n), ESUCCESS
}

// FdWrite implements __wasi_fd_write.
func (b *Bridge) FdWrite(ctx context.Context, g memory.Guest, fd hostbridge.Handle, iovecArrayOffset, iovecCount uint32) (uint32, Errno) {
	_, report := trace(ctx, "wasi.FdWrite")
	defer func() { report(nil) }()

	bufs, err := gatherIOVecs(g, iovecArrayOffset, iovecCount)
	if err != nil {
		return 0, ECANCELED
	}
	n, err := b.VFS.WriteVectored(fd, bufs)
	if err != nil {
		return uint32(n), ErrnoOf(err)
	}
	return uint32(n), ESUCCESS
}

// FdPread implements __wasi_fd_pread: positioned read, does not advance fd.
func (b *Bridge) FdPread(ctx context.Context, g memory.Guest, fd hostbridge.Handle, iovecArrayOffset, iovecCount uint32, offset uint64) (uint32, Errno) {
	_, report := trace(ctx, "wasi.FdPread")
	defer func() { report(nil) }()

	bufs, err := gatherIOVecs(g, iovecArrayOffset, iovecCount)
	if err != nil {
		return 0, ECANCELED
	}
	n, err := b.VFS.PositionedReadVectored(fd, bufs, int64(offset))
	if err != nil {
		return 0, ErrnoOf(err)
	}

	filled := 0
	for i, buf := range bufs {
		end := filled + len(buf)
		if end > n {
			end = n
		}
		if end <= filled {
			break
		}
		if werr := scatterIOVecResult(g, iovecArrayOffset, uint32(i), buf[:end-filled]); werr != nil {
			return uint32(filled), ECANCELED
		}
		filled = end
	}
	return uint32(n), ESUCCESS
}

// FdPwrite implements __wasi_fd_pwrite.
func (b *Bridge) FdPwrite(ctx context.Context, g memory.Guest, fd hostbridge.Handle, iovecArrayOffset, iovecCount uint32, offset uint64) (uint32, Errno) {
	_, report := trace(ctx, "wasi.FdPwrite")
	defer func() { report(nil) }()

	bufs, err := gatherIOVecs(g, iovecArrayOffset, iovecCount)
	if err != nil {
		return 0, ECANCELED
	}
	n, err := b.VFS.PositionedWriteVectored(fd, bufs, int64(offset))
	if err != nil {
		return uint32(n), ErrnoOf(err)
	}
	return uint32(n), ESUCCESS
}

// FdSeek implements __wasi_fd_seek.
func (b *Bridge) FdSeek(fd hostbridge.Handle, delta int64, whence uint8) (uint64, Errno) {
	pos, err := b.VFS.Seek(fd, delta, WhenceFromWASI(whence))
	if err != nil {
		return 0, ErrnoOf(err)
	}
	return uint64(pos), ESUCCESS
}

// FdClose implements __wasi_fd_close. A stdio-marked handle's underlying
// stream is left open by the Facade; the bridge has nothing extra to do.
func (b *Bridge) FdClose(fd hostbridge.Handle) Errno {
	if err := b.VFS.Close(fd); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

// FdFilestatGet implements __wasi_fd_filestat_get.
func (b *Bridge) FdFilestatGet(fd hostbridge.Handle) (Filestat, Errno) {
	stats, err := b.VFS.GetStatistics(fd)
	if err != nil {
		return Filestat{}, ErrnoOf(err)
	}
	return FilestatFromStatistics(stats), ESUCCESS
}

// FdFilestatSetSize implements __wasi_fd_filestat_set_size.
func (b *Bridge) FdFilestatSetSize(fd hostbridge.Handle, size uint64) Errno {
	if err := b.VFS.Truncate(fd, int64(size)); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

// FdFilestatSetTimes implements __wasi_fd_filestat_set_times.
func (b *Bridge) FdFilestatSetTimes(fd hostbridge.Handle, atime, mtime hostbridge.TimeSpec) Errno {
	if err := b.VFS.SetTimes(fd, atime, mtime); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

// FdAllocate implements __wasi_fd_allocate.
func (b *Bridge) FdAllocate(fd hostbridge.Handle, offset, length int64) Errno {
	if err := b.VFS.Allocate(fd, offset, length); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

// FdFdstatGetFlags returns fd's status flags, packed as WASI fdflags.
func (b *Bridge) FdFdstatGetFlags(fd hostbridge.Handle) (uint16, Errno) {
	flags, err := b.VFS.GetFlags(fd)
	if err != nil {
		return 0, ErrnoOf(err)
	}
	return FDFlagsFromStatusFlags(flags), ESUCCESS
}

// FdFdstatSetFlags implements __wasi_fd_fdstat_set_flags.
func (b *Bridge) FdFdstatSetFlags(fd hostbridge.Handle, fdflags uint16) Errno {
	if err := b.VFS.SetFlags(fd, StatusFlagsFromFDFlags(fdflags)); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

// FdFdstatGetRights returns fd's access mode re-encoded as WASI rights.
func (b *Bridge) FdFdstatGetRights(fd hostbridge.Handle) (uint64, Errno) {
	mode, err := b.VFS.GetAccessMode(fd)
	if err != nil {
		return 0, ErrnoOf(err)
	}
	return RightsFromAccessMode(mode), ESUCCESS
}

// FdSync implements __wasi_fd_sync (metadata + data).
func (b *Bridge) FdSync(fd hostbridge.Handle) Errno {
	if err := b.VFS.Flush(fd, true); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

// FdDatasync implements __wasi_fd_datasync (data only).
func (b *Bridge) FdDatasync(fd hostbridge.Handle) Errno {
	if err := b.VFS.Flush(fd, false); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

// FdReaddirOne implements __wasi_fd_readdir: fd must already be an open
// directory stream handle (the guest calls PathOpen with OFlagDirectory,
// then the bridge's caller is expected to have turned that into a stream
// via FdOpendir below — WASI conflates the two, the internal VFS-F keeps
// them as separate handle kinds per the cyclic-reference design note).
func (b *Bridge) FdReaddirOne(stream hostbridge.Handle) (hostbridge.DirEntry, bool, Errno) {
	entry, end, err := b.VFS.ReadDirectory(stream)
	if err != nil {
		return hostbridge.DirEntry{}, false, ErrnoOf(err)
	}
	return entry, end, ESUCCESS
}

// FdOpendir opens a directory-stream handle over an already-open
// directory file descriptor, the internal counterpart of WASI treating
// directory iteration as just more fd_readdir calls on the same fd.
func (b *Bridge) FdOpendir(fd hostbridge.Handle) (hostbridge.Handle, Errno) {
	stream, err := b.VFS.OpenDirectory(fd)
	if err != nil {
		return hostbridge.InvalidHandle, ErrnoOf(err)
	}
	return stream, ESUCCESS
}

// FdRewinddir implements seeking a directory stream back to its first
// entry; idempotent (rewind(rewind(s)) leaves s at the first entry).
func (b *Bridge) FdRewinddir(stream hostbridge.Handle) Errno {
	if err := b.VFS.RewindDirectory(stream); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

// FdSeekdir sets a directory stream's cursor to an opaque cookie
// previously observed from FdReaddirOne.
func (b *Bridge) FdSeekdir(stream hostbridge.Handle, cookie uint64) Errno {
	if err := b.VFS.SetDirectoryPosition(stream, cookie); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

// FdClosedir releases only the stream handle; the underlying directory
// file descriptor remains open until FdClose'd separately.
func (b *Bridge) FdClosedir(stream hostbridge.Handle) Errno {
	if err := b.VFS.CloseDirectory(stream); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

// The bridge has no fd_prestat_dir_name call: a pre-open handle's path is
// kept in an unexported descriptor field and the Facade has no accessor
// for it.

////////////////////////////////////////////////////////////////////////
// Path operations
////////////////////////////////////////////////////////////////////////

// PathOpen implements __wasi_path_open.
func (b *Bridge) PathOpen(dirfd hostbridge.Handle, p string, oflags uint16, rights uint64, fdflags uint16) (hostbridge.Handle, Errno) {
	wantDir := oflags&OFlagDirectory != 0
	h, err := b.VFS.OpenAt(dirfd, p, OpenFlagsFromOFlags(oflags), StatusFlagsFromFDFlags(fdflags), AccessModeFromRights(rights), wantDir)
	if err != nil {
		return hostbridge.InvalidHandle, ErrnoOf(err)
	}
	return h, ESUCCESS
}

// PathFilestatGet implements __wasi_path_filestat_get.
func (b *Bridge) PathFilestatGet(p string, followSymlinks bool) (Filestat, Errno) {
	stats, err := b.VFS.GetStatisticsFromPath(p, followSymlinks)
	if err != nil {
		return Filestat{}, ErrnoOf(err)
	}
	return FilestatFromStatistics(stats), ESUCCESS
}

// PathFilestatSetTimes implements __wasi_path_filestat_set_times.
func (b *Bridge) PathFilestatSetTimes(p string, atime, mtime hostbridge.TimeSpec, followSymlinks bool) Errno {
	if err := b.VFS.SetTimesFromPath(p, atime, mtime, followSymlinks); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

// PathCreateDirectory implements __wasi_path_create_directory.
func (b *Bridge) PathCreateDirectory(p string) Errno {
	if err := b.VFS.CreateDirectory(p); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

// PathUnlinkFile / PathRemoveDirectory both implement VFS-F's remove;
// WASI distinguishes the two ABI entry points but the internal contract
// does not: both call the backend's single Remove, so whether a file or a
// directory may be removed through either entry point is up to the
// backend.
func (b *Bridge) PathUnlinkFile(p string) Errno { return b.pathRemove(p) }
func (b *Bridge) PathRemoveDirectory(p string) Errno { return b.pathRemove(p) }

func (b *Bridge) pathRemove(p string) Errno {
	if err := b.VFS.Remove(p); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

// PathRename implements __wasi_path_rename.
func (b *Bridge) PathRename(oldPath, newPath string) Errno {
	if err := b.VFS.Rename(oldPath, newPath); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

// PathLink implements __wasi_path_link.
func (b *Bridge) PathLink(oldPath, newPath string) Errno {
	if err := b.VFS.Link(oldPath, newPath); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

// PathSymlink implements __wasi_path_symlink.
func (b *Bridge) PathSymlink(dirfd hostbridge.Handle, target, linkPath string) Errno {
	if err := b.VFS.SymlinkAt(dirfd, target, linkPath); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

// PathReadlink returns the stub content: symbolic-link readlink content
// beyond the path itself is out of scope, per the non-goals; callers get
// ENOTSUP rather than a silently wrong buffer.
func (b *Bridge) PathReadlink(p string) (string, Errno) {
	return "", ENOTSUP
}

////////////////////////////////////////////////////////////////////////
// Realpath
////////////////////////////////////////////////////////////////////////

// PathRealpath copies p verbatim into a buffer of at most vfs.PathMax
// bytes, performing no "." / ".." resolution — see Realpath's doc.
func (b *Bridge) PathRealpath(p string) string {
	return Realpath(p)
}

////////////////////////////////////////////////////////////////////////
// Thread & sync primitives (TSE forwarding)
////////////////////////////////////////////////////////////////////////

func (b *Bridge) ThreadCreate(parent context.Context, entry task.Entry, arg interface{}, stackSize uint64) (hostbridge.Handle, Errno) {
	h, err := b.Tasks.ThreadCreate(parent, entry, arg, stackSize)
	if err != nil {
		return hostbridge.InvalidHandle, ErrnoOf(err)
	}
	return h, ESUCCESS
}

func (b *Bridge) ThreadJoin(ctx context.Context, h hostbridge.Handle) (interface{}, Errno) {
	value, err := b.Tasks.Join(ctx, h)
	if err != nil {
		return nil, ErrnoOf(err)
	}
	return value, ESUCCESS
}

func (b *Bridge) ThreadDetach(h hostbridge.Handle) Errno {
	if err := b.Tasks.Detach(h); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

func (b *Bridge) SleepMicroseconds(ctx context.Context, n uint64) {
	b.Tasks.SleepMicroseconds(ctx, n)
}

func (b *Bridge) CurrentThreadIdentifier(ctx context.Context) (uint64, bool) {
	return task.CurrentThreadIdentifier(ctx)
}

func (b *Bridge) ThreadStackBoundary(h hostbridge.Handle) (uint64, Errno) {
	addr, err := b.Tasks.ThreadStackBoundary(h)
	if err != nil {
		return 0, ErrnoOf(err)
	}
	return addr, ESUCCESS
}

func (b *Bridge) DumpsMemoryInfo(out []byte) int {
	return b.Tasks.DumpsMemoryInfo(out)
}

func (b *Bridge) BeginBlockingOp(ctx context.Context) (context.Context, Errno) {
	child, err := b.Tasks.BeginBlockingOp(ctx)
	if err != nil {
		return ctx, ErrnoOf(err)
	}
	return child, ESUCCESS
}

func (b *Bridge) EndBlockingOp(ctx context.Context) Errno {
	if err := b.Tasks.EndBlockingOp(ctx); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

func (b *Bridge) WakeupBlockingOp(targetThreadID uint64) {
	b.Tasks.WakeupBlockingOp(targetThreadID)
}

func (b *Bridge) MutexInit(recursive bool) (hostbridge.Handle, Errno) {
	h, err := b.Tasks.MutexInit(recursive)
	if err != nil {
		return hostbridge.InvalidHandle, ErrnoOf(err)
	}
	return h, ESUCCESS
}

func (b *Bridge) MutexDestroy(h hostbridge.Handle) Errno {
	if err := b.Tasks.MutexDestroy(h); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

func (b *Bridge) MutexLock(ctx context.Context, h hostbridge.Handle) Errno {
	if err := b.Tasks.MutexLock(ctx, h); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

func (b *Bridge) MutexUnlock(ctx context.Context, h hostbridge.Handle) Errno {
	if err := b.Tasks.MutexUnlock(ctx, h); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

func (b *Bridge) CondInit() (hostbridge.Handle, Errno) {
	h, err := b.Tasks.CondInit()
	if err != nil {
		return hostbridge.InvalidHandle, ErrnoOf(err)
	}
	return h, ESUCCESS
}

func (b *Bridge) CondDestroy(h hostbridge.Handle) Errno {
	if err := b.Tasks.CondDestroy(h); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

func (b *Bridge) CondWait(ctx context.Context, cond, mutex hostbridge.Handle) Errno {
	if err := b.Tasks.CondWait(ctx, cond, mutex); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

func (b *Bridge) CondSignal(h hostbridge.Handle) Errno {
	if err := b.Tasks.CondSignal(h); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

func (b *Bridge) CondBroadcast(h hostbridge.Handle) Errno {
	if err := b.Tasks.CondBroadcast(h); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

func (b *Bridge) RWLockInit() (hostbridge.Handle, Errno) {
	h, err := b.Tasks.RWLockInit()
	if err != nil {
		return hostbridge.InvalidHandle, ErrnoOf(err)
	}
	return h, ESUCCESS
}

func (b *Bridge) RWLockDestroy(h hostbridge.Handle) Errno {
	if err := b.Tasks.RWLockDestroy(h); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

func (b *Bridge) RWLockReadLock(ctx context.Context, h hostbridge.Handle) Errno {
	if err := b.Tasks.RWLockReadLock(ctx, h); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

func (b *Bridge) RWLockWriteLock(ctx context.Context, h hostbridge.Handle) Errno {
	if err := b.Tasks.RWLockWriteLock(ctx, h); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

func (b *Bridge) RWLockUnlock(h hostbridge.Handle) Errno {
	if err := b.Tasks.RWLockUnlock(h); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

func (b *Bridge) SemaphoreOpen(name string, initial int64) (hostbridge.Handle, Errno) {
	h, err := b.Tasks.SemaphoreOpen(name, initial)
	if err != nil {
		return hostbridge.InvalidHandle, ErrnoOf(err)
	}
	return h, ESUCCESS
}

func (b *Bridge) SemaphoreUnlink(name string) Errno {
	if err := b.Tasks.SemaphoreUnlink(name); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

func (b *Bridge) SemaphoreClose(h hostbridge.Handle) Errno {
	if err := b.Tasks.SemaphoreClose(h); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

func (b *Bridge) SemaphoreWait(ctx context.Context, h hostbridge.Handle) Errno {
	if err := b.Tasks.SemaphoreWait(ctx, h); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

func (b *Bridge) SemaphoreTryWait(h hostbridge.Handle) Errno {
	if err := b.Tasks.SemaphoreTryWait(h); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

func (b *Bridge) SemaphorePost(h hostbridge.Handle) Errno {
	if err := b.Tasks.SemaphorePost(h); err != nil {
		return ErrnoOf(err)
	}
	return ESUCCESS
}

////////////////////////////////////////////////////////////////////////
// Socket / poll stubs
////////////////////////////////////////////////////////////////////////

// SockRecv, SockSend and PollOneoff are present only as the stubbed
// variant: the authoritative behavior for this core is "stubbed", the
// real implementation lives in an out-of-scope native socket driver.
func (b *Bridge) SockRecv() Errno    { return ENOSYS }
func (b *Bridge) SockSend() Errno    { return ENOSYS }
func (b *Bridge) PollOneoff() Errno  { return ENOSYS }

////////////////////////////////////////////////////////////////////////
// Graphics RPC entry point
////////////////////////////////////////////////////////////////////////

// GraphicsCall is the single variadic host entry the guest imports: a
// selector, up to seven word arguments, the argument count, and an
// optional return-value pointer.
func (b *Bridge) GraphicsCall(selector uint16, args [graphics.MaxArgs]uint32, argc int, ret *uint32) error {
	return b.Graphics.Dispatch(selector, args, argc, ret)
}
