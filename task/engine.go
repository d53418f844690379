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

package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jacobsa/reqtrace"
	"github.com/jacobsa/timeutil"

	"github.com/kestrel-embedded/hostbridge"
	"github.com/kestrel-embedded/hostbridge/registry"
)

// Engine owns every task-engine resource: threads, mutexes, condition
// variables, rwlocks and named semaphores, all minted through a shared
// registry.Table exactly like the VFS facade's descriptors, plus the
// blocking-op cancellation state threads register while waiting.
type Engine struct {
	table *registry.Table
	clock timeutil.Clock

	nextThreadID uint64

	blockingMu sync.Mutex
	blocking   map[uint64]*blockingState

	semMu       sync.Mutex
	semaphores  map[string]*namedSemaphore
}

// blockingState tracks the single in-flight blocking region a thread may
// have open: a map from thread id to the cancel func of its current
// blocking call, latched when a wakeup arrives with no region open yet.
type blockingState struct {
	cancel  context.CancelFunc
	pending bool
}

// New creates an Engine. clock is stored on the Engine; SleepMicroseconds
// waits on a real time.Timer and does not consult it.
func New(table *registry.Table, clock timeutil.Clock) *Engine {
	return &Engine{
		table:      table,
		clock:      clock,
		blocking:   make(map[uint64]*blockingState),
		semaphores: make(map[string]*namedSemaphore),
	}
}

// ThreadCreate allocates a host task (a goroutine) running entry(ctx, arg)
// once, and returns its handle. The entry's context carries the new
// thread's identifier for CurrentThreadIdentifier.
func (e *Engine) ThreadCreate(parent context.Context, entry Entry, arg interface{}, stackSize uint64) (hostbridge.Handle, error) {
	id := atomic.AddUint64(&e.nextThreadID, 1)

	th := &Thread{
		id:        id,
		stackSize: stackSize,
		done:      make(chan struct{}),
	}

	h, err := e.table.Mint(registry.KindThread, th)
	if err != nil {
		return hostbridge.InvalidHandle, err
	}

	ctx := context.WithValue(parent, threadIDKey{}, id)
	ctx, report := reqtrace.Trace(ctx, fmt.Sprintf("thread %d", id))

	go func() {
		var value interface{}
		func() {
			defer func() {
				if r := recover(); r != nil {
					value = r
				}
			}()
			value = entry(ctx, arg)
		}()
		report(nil)
		th.finish(value)

		e.blockingMu.Lock()
		delete(e.blocking, id)
		e.blockingMu.Unlock()
	}()

	return h, nil
}

func (e *Engine) threadAt(h hostbridge.Handle) (*Thread, error) {
	payload, err := e.table.Lookup(h, registry.KindThread)
	if err != nil {
		return nil, err
	}
	return payload.(*Thread), nil
}

// Join blocks until the thread enters Exited and returns its value.
// Exactly one of Join/Detach succeeds per thread.
func (e *Engine) Join(ctx context.Context, h hostbridge.Handle) (interface{}, error) {
	th, err := e.threadAt(h)
	if err != nil {
		return nil, err
	}

	th.mu.Lock()
	if th.joined || th.detached {
		th.mu.Unlock()
		return nil, ErrAlreadyJoinedOrDetached
	}
	th.joined = true
	th.mu.Unlock()

	select {
	case <-th.done:
	case <-ctx.Done():
		return nil, hostbridge.InternalError.AsError()
	}

	th.mu.Lock()
	defer th.mu.Unlock()
	return th.exitValue, nil
}

// Detach marks a thread as never to be joined. Its handle slot is not
// released when it exits.
func (e *Engine) Detach(h hostbridge.Handle) error {
	th, err := e.threadAt(h)
	if err != nil {
		return err
	}

	th.mu.Lock()
	defer th.mu.Unlock()
	if th.joined || th.detached {
		return ErrAlreadyJoinedOrDetached
	}
	th.detached = true
	th.state = Detached
	return nil
}

// SleepMicroseconds returns no earlier than n microseconds after the call,
// unless the calling thread's blocking region is cancelled via
// WakeupBlockingOp, which shortens the wait and returns early without
// error.
func (e *Engine) SleepMicroseconds(ctx context.Context, n uint64) {
	d := time.Duration(n) * time.Microsecond
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// ThreadStackBoundary looks up h's configured stack-size hint (see
// Thread.ThreadStackBoundary's doc for why this is a hint, not a real
// address, under the Go runtime).
func (e *Engine) ThreadStackBoundary(h hostbridge.Handle) (uint64, error) {
	th, err := e.threadAt(h)
	if err != nil {
		return 0, err
	}
	return th.ThreadStackBoundary(), nil
}

// MemoryInfo is the structured snapshot dumps_memory_info renders to text.
type MemoryInfo struct {
	Threads    int
	Mutexes    int
	CondVars   int
	RWLocks    int
	Semaphores int
	Handles    registry.Stats
}

// DumpsMemoryInfo writes a human-readable snapshot of live handle-table
// and synchronization-primitive counts into out, truncating to fit.
func (e *Engine) DumpsMemoryInfo(out []byte) int {
	stats := e.table.Stats()
	e.semMu.Lock()
	semCount := len(e.semaphores)
	e.semMu.Unlock()

	text := fmt.Sprintf(
		"hostbridge: handles total=%d free=%d in_use=%d named_semaphores=%d\x00",
		stats.Total, stats.Free, stats.InUse, semCount)

	n := copy(out, text)
	if n < len(out) {
		out[n] = 0
	} else if n > 0 {
		out[n-1] = 0
	}
	return n
}
