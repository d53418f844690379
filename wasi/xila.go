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

	"github.com/kestrel-embedded/hostbridge"
	"github.com/kestrel-embedded/hostbridge/memory"
)

// Two spellings of the non-WASI ABI (xila_* and Xila_*) coexist during a
// transition window and both must route to the same backing
// implementation. Rather than duplicate logic, the xila_* methods below
// (unexported) forward straight through to the WASI-named methods that
// already carry the real behavior, and the exported Xila_* methods forward
// to the xila_* ones.

// XilaFileSystem is the lower-spelling (xila_*) method set.
type XilaFileSystem struct{ bridge *Bridge }

// XilaFileSystemUpper is the capitalized (Xila_*) method set covering the
// same calls as XilaFileSystem.
type XilaFileSystemUpper struct{ bridge *Bridge }

// Xila returns both spellings of the dual ABI over the same Bridge.
func (b *Bridge) Xila() (XilaFileSystem, XilaFileSystemUpper) {
	return XilaFileSystem{bridge: b}, XilaFileSystemUpper{bridge: b}
}

func (x XilaFileSystem) xila_open(dirfd hostbridge.Handle, path string, oflags uint16, rights uint64, fdflags uint16) (hostbridge.Handle, Errno) {
	return x.bridge.PathOpen(dirfd, path, oflags, rights, fdflags)
}

func (x XilaFileSystem) xila_close(fd hostbridge.Handle) Errno {
	return x.bridge.FdClose(fd)
}

func (x XilaFileSystem) xila_read(ctx context.Context, g memory.Guest, fd hostbridge.Handle, iovecArrayOffset, iovecCount uint32) (uint32, Errno) {
	return x.bridge.FdRead(ctx, g, fd, iovecArrayOffset, iovecCount)
}

func (x XilaFileSystem) xila_write(ctx context.Context, g memory.Guest, fd hostbridge.Handle, iovecArrayOffset, iovecCount uint32) (uint32, Errno) {
	return x.bridge.FdWrite(ctx, g, fd, iovecArrayOffset, iovecCount)
}

func (x XilaFileSystemUpper) Xila_open(dirfd hostbridge.Handle, path string, oflags uint16, rights uint64, fdflags uint16) (hostbridge.Handle, Errno) {
	return XilaFileSystem{bridge: x.bridge}.xila_open(dirfd, path, oflags, rights, fdflags)
}

func (x XilaFileSystemUpper) Xila_close(fd hostbridge.Handle) Errno {
	return XilaFileSystem{bridge: x.bridge}.xila_close(fd)
}

func (x XilaFileSystemUpper) Xila_read(ctx context.Context, g memory.Guest, fd hostbridge.Handle, iovecArrayOffset, iovecCount uint32) (uint32, Errno) {
	return XilaFileSystem{bridge: x.bridge}.xila_read(ctx, g, fd, iovecArrayOffset, iovecCount)
}

func (x XilaFileSystemUpper) Xila_write(ctx context.Context, g memory.Guest, fd hostbridge.Handle, iovecArrayOffset, iovecCount uint32) (uint32, Errno) {
	return XilaFileSystem{bridge: x.bridge}.xila_write(ctx, g, fd, iovecArrayOffset, iovecCount)
}
