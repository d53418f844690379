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
	"sync"

	"github.com/kestrel-embedded/hostbridge"
	"github.com/kestrel-embedded/hostbridge/registry"
)

// Mutex wraps sync.Mutex with bookkeeping the stdlib primitive alone
// doesn't expose: an owner thread id (for recursion and double-unlock
// detection) and a recursion count. Plain and recursive mutexes share
// this type; recursive just allows the owner to relock.
type Mutex struct {
	recursive bool

	mu      sync.Mutex
	sem     chan struct{} // 1-buffered; held <=> locked
	owner   uint64
	hasOwner bool
	depth   int
}

// MutexInit creates a new mutex handle. recursive selects recursive vs.
// plain semantics.
func (e *Engine) MutexInit(recursive bool) (hostbridge.Handle, error) {
	m := &Mutex{recursive: recursive, sem: make(chan struct{}, 1)}
	return e.table.Mint(registry.KindMutex, m)
}

func (e *Engine) mutexAt(h hostbridge.Handle) (*Mutex, error) {
	payload, err := e.table.Lookup(h, registry.KindMutex)
	if err != nil {
		return nil, err
	}
	return payload.(*Mutex), nil
}

// MutexDestroy releases the handle. Destroying a locked or contended mutex
// must not crash the host; it fails with ResourceBusy instead.
func (e *Engine) MutexDestroy(h hostbridge.Handle) error {
	m, err := e.mutexAt(h)
	if err != nil {
		return err
	}
	m.mu.Lock()
	busy := m.hasOwner
	m.mu.Unlock()
	if busy {
		return hostbridge.ResourceBusy.AsError()
	}
	return e.table.Release(h)
}

// MutexLock blocks until the calling thread (identified via ctx) acquires
// m. A recursive mutex already held by the caller just bumps the
// recursion depth; a plain mutex re-locked by its owner is a caller bug.
// Only double-unlock by a non-owner is required to surface as an error,
// so plain re-lock here blocks like a fresh acquire would from any other
// thread (matching sync.Mutex's own non-reentrant contract).
func (e *Engine) MutexLock(ctx context.Context, h hostbridge.Handle) error {
	m, err := e.mutexAt(h)
	if err != nil {
		return err
	}

	tid, _ := CurrentThreadIdentifier(ctx)

	m.mu.Lock()
	if m.recursive && m.hasOwner && m.owner == tid {
		m.depth++
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		return hostbridge.InternalError.AsError()
	}

	m.mu.Lock()
	m.hasOwner = true
	m.owner = tid
	m.depth = 1
	m.mu.Unlock()
	return nil
}

// MutexUnlock releases one level of lock. A recursive mutex locked N times
// by a thread must be unlocked N times before another thread may acquire
// it. Unlock by a thread that is not the owner is an error.
func (e *Engine) MutexUnlock(ctx context.Context, h hostbridge.Handle) error {
	m, err := e.mutexAt(h)
	if err != nil {
		return err
	}

	tid, _ := CurrentThreadIdentifier(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasOwner || m.owner != tid {
		return hostbridge.PoisonedLock.AsError()
	}

	m.depth--
	if m.depth > 0 {
		return nil
	}

	m.hasOwner = false
	m.depth = 0
	<-m.sem
	return nil
}
