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

package vfs_test

import (
	"bytes"
	"testing"

	"github.com/kestrel-embedded/hostbridge"
	"github.com/kestrel-embedded/hostbridge/vfs"
)

// memBackend is a minimal in-memory vfs.Backend used only to exercise
// vfs.Facade's bookkeeping, independent of any real file system.
type memBackend struct {
	files map[string]*memFile
}

func newMemBackend() *memBackend { return &memBackend{files: map[string]*memFile{}} }

type memFile struct {
	name string
	data []byte
	pos  int64
	dir  bool
}

func (b *memBackend) Open(p string, access hostbridge.AccessMode, open hostbridge.OpenFlags, status hostbridge.StatusFlags) (vfs.File, error) {
	f, ok := b.files[p]
	if !ok {
		if open&hostbridge.Create == 0 {
			return nil, hostbridge.NotFound.AsError()
		}
		f = &memFile{name: p}
		b.files[p] = f
	} else if open&hostbridge.CreateOnly != 0 {
		return nil, hostbridge.AlreadyExists.AsError()
	}
	return &memHandle{backend: f, access: access}, nil
}

func (b *memBackend) Rename(oldPath, newPath string) error {
	f, ok := b.files[oldPath]
	if !ok {
		return hostbridge.NotFound.AsError()
	}
	delete(b.files, oldPath)
	b.files[newPath] = f
	return nil
}

func (b *memBackend) Link(oldPath, newPath string) error   { return hostbridge.UnsupportedOperation.AsError() }
func (b *memBackend) Symlink(target, linkPath string) error { return hostbridge.UnsupportedOperation.AsError() }

func (b *memBackend) CreateDirectory(p string) error {
	if _, ok := b.files[p]; ok {
		return hostbridge.DirectoryAlreadyExists.AsError()
	}
	b.files[p] = &memFile{name: p, dir: true}
	return nil
}

func (b *memBackend) Remove(p string) error {
	if _, ok := b.files[p]; !ok {
		return hostbridge.NotFound.AsError()
	}
	delete(b.files, p)
	return nil
}

func (b *memBackend) StatPath(p string, follow bool) (hostbridge.FileStatistics, error) {
	f, ok := b.files[p]
	if !ok {
		return hostbridge.FileStatistics{}, hostbridge.NotFound.AsError()
	}
	return hostbridge.FileStatistics{Size: uint64(len(f.data))}, nil
}

func (b *memBackend) SetTimesPath(p string, atime, mtime hostbridge.TimeSpec, follow bool) error {
	return nil
}

func (b *memBackend) Readlink(p string) (string, error) { return "", hostbridge.NotFound.AsError() }

// memHandle is the vfs.File for a memFile.
type memHandle struct {
	backend *memFile
	access  hostbridge.AccessMode
}

func (h *memHandle) IsDir() bool { return h.backend.dir }

func (h *memHandle) ReadVectored(buffers [][]byte) (int, error) {
	total := 0
	for _, buf := range buffers {
		n := copy(buf, h.backend.data[h.backend.pos:])
		h.backend.pos += int64(n)
		total += n
		if n < len(buf) {
			break
		}
	}
	return total, nil
}

func (h *memHandle) WriteVectored(buffers [][]byte) (int, error) {
	total := 0
	for _, buf := range buffers {
		end := h.backend.pos + int64(len(buf))
		if end > int64(len(h.backend.data)) {
			grown := make([]byte, end)
			copy(grown, h.backend.data)
			h.backend.data = grown
		}
		copy(h.backend.data[h.backend.pos:end], buf)
		h.backend.pos = end
		total += len(buf)
	}
	return total, nil
}

func (h *memHandle) PReadVectored(buffers [][]byte, offset int64) (int, error) {
	total := 0
	for _, buf := range buffers {
		n := copy(buf, h.backend.data[offset:])
		offset += int64(n)
		total += n
	}
	return total, nil
}

func (h *memHandle) PWriteVectored(buffers [][]byte, offset int64) (int, error) {
	total := 0
	for _, buf := range buffers {
		end := offset + int64(len(buf))
		if end > int64(len(h.backend.data)) {
			grown := make([]byte, end)
			copy(grown, h.backend.data)
			h.backend.data = grown
		}
		copy(h.backend.data[offset:end], buf)
		offset = end
		total += len(buf)
	}
	return total, nil
}

func (h *memHandle) Seek(delta int64, whence hostbridge.Whence) (int64, error) {
	var base int64
	switch whence {
	case hostbridge.Current:
		base = h.backend.pos
	case hostbridge.End:
		base = int64(len(h.backend.data))
	}
	pos := base + delta
	if pos < 0 {
		return 0, hostbridge.InvalidInput.AsError()
	}
	h.backend.pos = pos
	return pos, nil
}

func (h *memHandle) Truncate(size int64) error {
	if size < int64(len(h.backend.data)) {
		h.backend.data = h.backend.data[:size]
	}
	return nil
}

func (h *memHandle) Allocate(offset, length int64) error { return nil }
func (h *memHandle) SetTimes(atime, mtime hostbridge.TimeSpec) error { return nil }

func (h *memHandle) Stat() (hostbridge.FileStatistics, error) {
	return hostbridge.FileStatistics{Size: uint64(len(h.backend.data))}, nil
}

func (h *memHandle) Sync(dataOnly bool) error { return nil }
func (h *memHandle) IsTerminal() bool         { return false }

func (h *memHandle) OpenDir() (vfs.Directory, error) {
	if !h.backend.dir {
		return nil, hostbridge.InvalidDirectory.AsError()
	}
	return &memDir{}, nil
}

func (h *memHandle) Close() error { return nil }

type memDir struct{}

func (d *memDir) Read(cookie uint64) (hostbridge.DirEntry, uint64, bool, error) {
	return hostbridge.DirEntry{}, 0, true, nil
}

////////////////////////////////////////////////////////////////////////
// Tests
////////////////////////////////////////////////////////////////////////

func TestOpenWriteSeekReadRoundTrip(t *testing.T) {
	backend := newMemBackend()
	facade, _, _, _ := vfs.New(backend, nil, nil, nil)

	root, err := facade.PreopenDirectory("/")
	if err == nil {
		t.Fatalf("expected preopen of non-existent root to fail without a directory entry, got handle %v", root)
	}

	backend.files["/"] = &memFile{name: "/", dir: true}
	root, err = facade.PreopenDirectory("/")
	if err != nil {
		t.Fatalf("PreopenDirectory: %v", err)
	}

	h, err := facade.OpenAt(root, "a.txt", hostbridge.Create|hostbridge.Truncate, 0, hostbridge.Read|hostbridge.Write, false)
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}

	n, err := facade.WriteVectored(h, [][]byte{[]byte("hello"), []byte(" world")})
	if err != nil || n != 11 {
		t.Fatalf("WriteVectored: n=%d err=%v", n, err)
	}

	pos, err := facade.Seek(h, 0, hostbridge.Start)
	if err != nil || pos != 0 {
		t.Fatalf("Seek: pos=%d err=%v", pos, err)
	}

	buf := make([]byte, 11)
	n, err = facade.ReadVectored(h, [][]byte{buf})
	if err != nil || n != 11 {
		t.Fatalf("ReadVectored: n=%d err=%v", n, err)
	}
	if !bytes.Equal(buf, []byte("hello world")) {
		t.Fatalf("got %q, want %q", buf, "hello world")
	}
}

func TestCreateOnlyConflict(t *testing.T) {
	backend := newMemBackend()
	backend.files["/"] = &memFile{name: "/", dir: true}
	facade, _, _, _ := vfs.New(backend, nil, nil, nil)

	root, err := facade.PreopenDirectory("/")
	if err != nil {
		t.Fatalf("PreopenDirectory: %v", err)
	}

	_, err = facade.OpenAt(root, "a.txt", hostbridge.Create|hostbridge.CreateOnly, 0, hostbridge.Write, false)
	if err != nil {
		t.Fatalf("first OpenAt: %v", err)
	}

	_, err = facade.OpenAt(root, "a.txt", hostbridge.Create|hostbridge.CreateOnly, 0, hostbridge.Write, false)
	if got := hostbridge.ResultOf(err); got != hostbridge.AlreadyExists {
		t.Fatalf("got %v, want AlreadyExists", got)
	}
}

func TestCloseThenUseFails(t *testing.T) {
	backend := newMemBackend()
	backend.files["/"] = &memFile{name: "/", dir: true}
	facade, _, _, _ := vfs.New(backend, nil, nil, nil)

	root, err := facade.PreopenDirectory("/")
	if err != nil {
		t.Fatalf("PreopenDirectory: %v", err)
	}

	h, err := facade.OpenAt(root, "a.txt", hostbridge.Create, 0, hostbridge.Write, false)
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}

	if err := facade.Close(h); err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, err = facade.WriteVectored(h, [][]byte{[]byte("x")})
	if got := hostbridge.ResultOf(err); got != hostbridge.InvalidIdentifier {
		t.Fatalf("got %v, want InvalidIdentifier", got)
	}
}

func TestReadOnlyDescriptorRejectsWrite(t *testing.T) {
	backend := newMemBackend()
	backend.files["/"] = &memFile{name: "/", dir: true}
	facade, _, _, _ := vfs.New(backend, nil, nil, nil)

	root, err := facade.PreopenDirectory("/")
	if err != nil {
		t.Fatalf("PreopenDirectory: %v", err)
	}

	h, err := facade.OpenAt(root, "a.txt", hostbridge.Create, 0, hostbridge.Read, false)
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}

	_, err = facade.WriteVectored(h, [][]byte{[]byte("x")})
	if got := hostbridge.ResultOf(err); got != hostbridge.PermissionDenied {
		t.Fatalf("got %v, want PermissionDenied", got)
	}
}

func TestNormalizePathPrependsSeparator(t *testing.T) {
	if got := vfs.NormalizePath("a.txt"); got != "/a.txt" {
		t.Fatalf("got %q, want /a.txt", got)
	}
	if got := vfs.NormalizePath("/a.txt"); got != "/a.txt" {
		t.Fatalf("got %q, want /a.txt", got)
	}
}

func TestResolvePathTruncatesAtPathMax(t *testing.T) {
	long := make([]byte, vfs.PathMax+10)
	for i := range long {
		long[i] = 'a'
	}
	got := vfs.ResolvePath(string(long))
	if len(got) != vfs.PathMax-1 {
		t.Fatalf("got length %d, want %d", len(got), vfs.PathMax-1)
	}
}
