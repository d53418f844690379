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

// Package task implements the Task & Sync Engine (TSE): host tasks
// representing guest threads, the mutex/condition-variable/rwlock/named
// semaphore primitives, and the blocking-operation cancellation protocol.
//
// Thread lifecycle tracking is modeled on MountedFileSystem.Join's
// joinStatusAvailable channel (mounted_file_system.go): a thread's exit is
// a close of a channel, so Join can either block on it or race it against
// ctx.Done(). A second Join (a bug in the guest, but one the host must not
// crash on) fails with ErrAlreadyJoinedOrDetached instead of waiting.
package task

import (
	"context"
	"sync"

	"github.com/kestrel-embedded/hostbridge"
)

// State is a Thread's lifecycle stage.
type State int

const (
	Running State = iota
	Exited
	Detached
)

// Entry is a thread's entry point. It receives a context carrying this
// thread's identity (see CurrentThreadIdentifier). WakeupBlockingOp does
// not cancel this context; it cancels only the context BeginBlockingOp
// derives for a blocking region.
type Entry func(ctx context.Context, arg interface{}) interface{}

// Thread is the payload registry.Table stores for registry.KindThread
// slots.
type Thread struct {
	id        uint64
	stackSize uint64

	mu        sync.Mutex
	state     State
	exitValue interface{}
	joined    bool
	detached  bool
	done      chan struct{}
}

type threadIDKey struct{}

// CurrentThreadIdentifier returns the stable id of the calling goroutine's
// thread, as recorded in ctx by ThreadCreate. Go has no notion of
// goroutine identity of its own; propagating it through context is the
// idiomatic substitute, and is consistent with every other TSE/WASI
// boundary call already carrying a context.Context.
func CurrentThreadIdentifier(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(threadIDKey{}).(uint64)
	return id, ok
}

// ThreadStackBoundary returns the stack-size hint the thread was created
// with. Go's goroutine stacks grow dynamically and are not pinned to a
// fixed base address the way a native OS thread's is, so there is no real
// "lowest valid address" to report; callers that need overflow protection
// get it from the Go runtime itself rather than from this value.
func (t *Thread) ThreadStackBoundary() uint64 {
	return t.stackSize
}

// State reports the thread's current lifecycle stage.
func (t *Thread) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Thread) finish(value interface{}) {
	t.mu.Lock()
	t.state = Exited
	t.exitValue = value
	t.mu.Unlock()
	close(t.done)
}

// ErrAlreadyJoinedOrDetached is returned by Join/Detach when the other of
// the pair has already claimed the thread — exactly one of join/detach may
// ever succeed for a given thread.
var ErrAlreadyJoinedOrDetached = hostbridge.InvalidMode.AsError()
