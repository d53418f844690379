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

	"golang.org/x/sync/semaphore"

	"github.com/kestrel-embedded/hostbridge"
	"github.com/kestrel-embedded/hostbridge/registry"
)

// namedSemaphore wraps a weighted semaphore capped at its initial value, so
// that wait/post behave like a POSIX counting semaphore: Acquire(ctx, 1)
// gives trywait/wait their context-cancellable blocking for free, something
// a hand-rolled channel semaphore would have to reimplement.
type namedSemaphore struct {
	sem      *semaphore.Weighted
	refCount int
}

// SemaphoreOpen opens (creating if needed) the named semaphore, returning
// its handle. A second open of the same name returns a handle to the same
// underlying semaphore and bumps its reference count. The name stays in
// the namespace until SemaphoreUnlink removes it.
func (e *Engine) SemaphoreOpen(name string, initial int64) (hostbridge.Handle, error) {
	e.semMu.Lock()
	ns, ok := e.semaphores[name]
	if !ok {
		ns = &namedSemaphore{sem: semaphore.NewWeighted(initial)}
		e.semaphores[name] = ns
	}
	ns.refCount++
	e.semMu.Unlock()

	return e.table.Mint(registry.KindSemaphore, ns)
}

// SemaphoreUnlink removes a named semaphore from the namespace so no future
// SemaphoreOpen observes it; existing handles remain valid until closed.
func (e *Engine) SemaphoreUnlink(name string) error {
	e.semMu.Lock()
	defer e.semMu.Unlock()
	if _, ok := e.semaphores[name]; !ok {
		return hostbridge.NotFound.AsError()
	}
	delete(e.semaphores, name)
	return nil
}

func (e *Engine) semaphoreAt(h hostbridge.Handle) (*namedSemaphore, error) {
	payload, err := e.table.Lookup(h, registry.KindSemaphore)
	if err != nil {
		return nil, err
	}
	return payload.(*namedSemaphore), nil
}

// SemaphoreClose releases h and decrements the semaphore's reference
// count. It never removes the name from the Engine's namespace map; only
// SemaphoreUnlink does.
func (e *Engine) SemaphoreClose(h hostbridge.Handle) error {
	ns, err := e.semaphoreAt(h)
	if err != nil {
		return err
	}
	if err := e.table.Release(h); err != nil {
		return err
	}

	e.semMu.Lock()
	ns.refCount--
	e.semMu.Unlock()
	return nil
}

// SemaphoreWait blocks until a unit is available or ctx is cancelled.
func (e *Engine) SemaphoreWait(ctx context.Context, h hostbridge.Handle) error {
	ns, err := e.semaphoreAt(h)
	if err != nil {
		return err
	}
	if err := ns.sem.Acquire(ctx, 1); err != nil {
		return hostbridge.InternalError.AsError()
	}
	return nil
}

// SemaphoreTryWait acquires a unit without blocking, returning ResourceBusy
// if none is immediately available.
func (e *Engine) SemaphoreTryWait(h hostbridge.Handle) error {
	ns, err := e.semaphoreAt(h)
	if err != nil {
		return err
	}
	if !ns.sem.TryAcquire(1) {
		return hostbridge.ResourceBusy.AsError()
	}
	return nil
}

// SemaphorePost releases one unit back to the semaphore.
func (e *Engine) SemaphorePost(h hostbridge.Handle) error {
	ns, err := e.semaphoreAt(h)
	if err != nil {
		return err
	}
	ns.sem.Release(1)
	return nil
}
