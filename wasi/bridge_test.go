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

package wasi_test

import (
	"context"
	"os"
	"testing"

	"github.com/jacobsa/timeutil"

	"github.com/kestrel-embedded/hostbridge"
	"github.com/kestrel-embedded/hostbridge/graphics"
	"github.com/kestrel-embedded/hostbridge/internal/localvfs"
	"github.com/kestrel-embedded/hostbridge/memory"
	"github.com/kestrel-embedded/hostbridge/registry"
	"github.com/kestrel-embedded/hostbridge/task"
	"github.com/kestrel-embedded/hostbridge/vfs"
	"github.com/kestrel-embedded/hostbridge/wasi"
)

// memGuest is a flat byte slice standing in for a guest WASM instance's
// linear memory, sized generously for these tests.
type memGuest struct {
	buf []byte
}

func newMemGuest() *memGuest { return &memGuest{buf: make([]byte, 1<<16)} }

func (g *memGuest) Read(offset, length uint32) ([]byte, error) {
	if uint64(offset)+uint64(length) > uint64(len(g.buf)) {
		return nil, memory.ErrOutOfBounds
	}
	out := make([]byte, length)
	copy(out, g.buf[offset:offset+length])
	return out, nil
}

func (g *memGuest) Write(offset uint32, data []byte) error {
	if uint64(offset)+uint64(len(data)) > uint64(len(g.buf)) {
		return memory.ErrOutOfBounds
	}
	copy(g.buf[offset:], data)
	return nil
}

func (g *memGuest) Size() uint32 { return uint32(len(g.buf)) }

func (g *memGuest) putIOVec(slot uint32, base, length uint32) {
	off := slot * 8
	g.buf[off+0] = byte(base)
	g.buf[off+1] = byte(base >> 8)
	g.buf[off+2] = byte(base >> 16)
	g.buf[off+3] = byte(base >> 24)
	g.buf[off+4] = byte(length)
	g.buf[off+5] = byte(length >> 8)
	g.buf[off+6] = byte(length >> 16)
	g.buf[off+7] = byte(length >> 24)
}

func newTestBridge(t *testing.T) (*wasi.Bridge, hostbridge.Handle) {
	t.Helper()
	dir, err := os.MkdirTemp("", "wasi_bridge_test")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	backend := localvfs.New(dir)
	facade, _, _, _ := vfs.New(backend, nil, nil, nil)
	root, err := facade.PreopenDirectory("/")
	if err != nil {
		t.Fatalf("PreopenDirectory: %v", err)
	}

	engine := task.New(registry.New(0), timeutil.RealClock())
	bridge := wasi.NewBridge(facade, engine, graphics.NewDispatcher())
	return bridge, root
}

func TestBridgeOpenWriteSeekReadRoundTrip(t *testing.T) {
	bridge, root := newTestBridge(t)
	g := newMemGuest()
	ctx := context.Background()

	fd, errno := bridge.PathOpen(root, "a.txt", wasi.OFlagCreat, wasi.RightsFromAccessMode(hostbridge.Read|hostbridge.Write), 0)
	if errno != wasi.ESUCCESS {
		t.Fatalf("PathOpen: %v", errno)
	}

	const helloOff, worldOff, iovecOff = 100, 200, 0
	copy(g.buf[helloOff:], []byte("hello"))
	copy(g.buf[worldOff:], []byte(" world"))
	g.putIOVec(0, helloOff, 5)
	g.putIOVec(1, worldOff, 6)

	n, errno := bridge.FdWrite(ctx, g, fd, iovecOff, 2)
	if errno != wasi.ESUCCESS || n != 11 {
		t.Fatalf("FdWrite: n=%d errno=%v", n, errno)
	}

	if _, errno := bridge.FdSeek(fd, 0, wasi.WhenceSet); errno != wasi.ESUCCESS {
		t.Fatalf("FdSeek: %v", errno)
	}

	const readBufOff = 300
	g.putIOVec(0, readBufOff, 11)
	n, errno = bridge.FdRead(ctx, g, fd, iovecOff, 1)
	if errno != wasi.ESUCCESS || n != 11 {
		t.Fatalf("FdRead: n=%d errno=%v", n, errno)
	}
	got, _ := g.Read(readBufOff, 11)
	if string(got) != "hello world" {
		t.Fatalf("got %q, want %q", got, "hello world")
	}
}

func TestBridgeOpenExclTwiceReturnsEEXIST(t *testing.T) {
	bridge, root := newTestBridge(t)

	_, errno := bridge.PathOpen(root, "b.txt", wasi.OFlagCreat|wasi.OFlagExcl, wasi.RightsFromAccessMode(hostbridge.Write), 0)
	if errno != wasi.ESUCCESS {
		t.Fatalf("first PathOpen: %v", errno)
	}

	_, errno = bridge.PathOpen(root, "b.txt", wasi.OFlagCreat|wasi.OFlagExcl, wasi.RightsFromAccessMode(hostbridge.Write), 0)
	if errno != wasi.EEXIST {
		t.Fatalf("got %v, want EEXIST", errno)
	}
}

func TestBridgeCloseThenReadReturnsEBADF(t *testing.T) {
	bridge, root := newTestBridge(t)
	g := newMemGuest()

	fd, errno := bridge.PathOpen(root, "c.txt", wasi.OFlagCreat, wasi.RightsFromAccessMode(hostbridge.Read|hostbridge.Write), 0)
	if errno != wasi.ESUCCESS {
		t.Fatalf("PathOpen: %v", errno)
	}
	if errno := bridge.FdClose(fd); errno != wasi.ESUCCESS {
		t.Fatalf("FdClose: %v", errno)
	}

	g.putIOVec(0, 0, 8)
	if _, errno := bridge.FdRead(context.Background(), g, fd, 0, 1); errno != wasi.EBADF {
		t.Fatalf("got %v, want EBADF", errno)
	}
}

func TestBridgeRealpathDoesNotResolveDotDot(t *testing.T) {
	if got := wasi.Realpath("/a/../b"); got != "/a/../b" {
		t.Fatalf("got %q, want unresolved verbatim copy", got)
	}
}
