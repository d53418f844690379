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

// RWLock is a reader/writer lock with no reader-to-writer upgrade path.
// Unlike sync.RWMutex it tracks a pending-writers count so that once a
// writer arrives, later readers queue behind it instead of being able to
// starve it indefinitely under a steady stream of readers.
type RWLock struct {
	mu              sync.Mutex
	readers         int
	writerActive    bool
	pendingWriters  int
	readerWaiters   []chan struct{}
	writerWaiters   []chan struct{}
}

// RWLockInit creates a new rwlock handle.
func (e *Engine) RWLockInit() (hostbridge.Handle, error) {
	return e.table.Mint(registry.KindRWLock, &RWLock{})
}

func (e *Engine) rwlockAt(h hostbridge.Handle) (*RWLock, error) {
	payload, err := e.table.Lookup(h, registry.KindRWLock)
	if err != nil {
		return nil, err
	}
	return payload.(*RWLock), nil
}

// RWLockDestroy releases the handle.
func (e *Engine) RWLockDestroy(h hostbridge.Handle) error {
	l, err := e.rwlockAt(h)
	if err != nil {
		return err
	}
	l.mu.Lock()
	busy := l.readers > 0 || l.writerActive
	l.mu.Unlock()
	if busy {
		return hostbridge.ResourceBusy.AsError()
	}
	return e.table.Release(h)
}

// RWLockReadLock blocks while a writer holds or is waiting for the lock,
// then registers the calling thread as a reader.
func (e *Engine) RWLockReadLock(ctx context.Context, h hostbridge.Handle) error {
	l, err := e.rwlockAt(h)
	if err != nil {
		return err
	}

	for {
		l.mu.Lock()
		if !l.writerActive && l.pendingWriters == 0 {
			l.readers++
			l.mu.Unlock()
			return nil
		}
		ch := make(chan struct{})
		l.readerWaiters = append(l.readerWaiters, ch)
		l.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return hostbridge.InternalError.AsError()
		}
	}
}

// RWLockWriteLock blocks until no readers or writer hold the lock, marking
// itself as a pending writer immediately so new readers queue behind it.
func (e *Engine) RWLockWriteLock(ctx context.Context, h hostbridge.Handle) error {
	l, err := e.rwlockAt(h)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.pendingWriters++
	l.mu.Unlock()

	for {
		l.mu.Lock()
		if l.readers == 0 && !l.writerActive {
			l.writerActive = true
			l.pendingWriters--
			l.mu.Unlock()
			return nil
		}
		ch := make(chan struct{})
		l.writerWaiters = append(l.writerWaiters, ch)
		l.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			l.mu.Lock()
			l.pendingWriters--
			l.mu.Unlock()
			return hostbridge.InternalError.AsError()
		}
	}
}

// RWLockUnlock releases either a reader or the writer hold, whichever the
// lock is currently in, and wakes the next eligible waiter(s): writers get
// priority over readers once one is pending.
func (e *Engine) RWLockUnlock(h hostbridge.Handle) error {
	l, err := e.rwlockAt(h)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writerActive {
		l.writerActive = false
	} else if l.readers > 0 {
		l.readers--
	} else {
		return hostbridge.PoisonedLock.AsError()
	}

	if l.readers == 0 && !l.writerActive {
		if len(l.writerWaiters) > 0 {
			ch := l.writerWaiters[0]
			l.writerWaiters = l.writerWaiters[1:]
			close(ch)
			return nil
		}
		for _, ch := range l.readerWaiters {
			close(ch)
		}
		l.readerWaiters = nil
	}
	return nil
}
