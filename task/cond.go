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

// Cond is a condition variable decoupled from any particular mutex, since a
// guest may wait on it while holding any of several mutex handles. Waiters
// queue on a private channel per wait call rather than sync.Cond, because
// sync.Cond offers no way to race a wait against ctx.Done().
type Cond struct {
	mu      sync.Mutex
	waiters []chan struct{}
}

// CondInit creates a new condition variable handle.
func (e *Engine) CondInit() (hostbridge.Handle, error) {
	return e.table.Mint(registry.KindCond, &Cond{})
}

func (e *Engine) condAt(h hostbridge.Handle) (*Cond, error) {
	payload, err := e.table.Lookup(h, registry.KindCond)
	if err != nil {
		return nil, err
	}
	return payload.(*Cond), nil
}

// CondDestroy releases the handle.
func (e *Engine) CondDestroy(h hostbridge.Handle) error {
	return e.table.Release(h)
}

// CondWait atomically unlocks mutex and blocks the calling thread until
// signaled, broadcast, or ctx is cancelled, then reacquires mutex before
// returning. Spurious wakeups are permitted, matching the pthread_cond_wait
// contract this mirrors; callers must re-check their predicate in a loop.
func (e *Engine) CondWait(ctx context.Context, condHandle, mutexHandle hostbridge.Handle) error {
	c, err := e.condAt(condHandle)
	if err != nil {
		return err
	}

	ch := make(chan struct{})
	c.mu.Lock()
	c.waiters = append(c.waiters, ch)
	c.mu.Unlock()

	if err := e.MutexUnlock(ctx, mutexHandle); err != nil {
		return err
	}

	select {
	case <-ch:
	case <-ctx.Done():
	}

	return e.MutexLock(context.WithoutCancel(ctx), mutexHandle)
}

// CondSignal wakes at most one waiter, if any are blocked.
func (e *Engine) CondSignal(h hostbridge.Handle) error {
	c, err := e.condAt(h)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.waiters) == 0 {
		return nil
	}
	ch := c.waiters[0]
	c.waiters = c.waiters[1:]
	close(ch)
	return nil
}

// CondBroadcast wakes every current waiter.
func (e *Engine) CondBroadcast(h hostbridge.Handle) error {
	c, err := e.condAt(h)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.waiters {
		close(ch)
	}
	c.waiters = nil
	return nil
}
