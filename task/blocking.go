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

	"github.com/kestrel-embedded/hostbridge"
)

// BeginBlockingOp opens a cancellable blocking region for the calling
// thread (identified via ctx) and returns a derived context that the
// caller should pass to whatever wait it is about to perform — CondWait,
// SemaphoreWait, Join, SleepMicroseconds, a VFS-F read on a pipe, and so
// on. It keeps a single map from caller identity to the cancel func of
// its current operation, so a wakeup arriving from another thread can
// reach in and cancel exactly that operation.
//
// If a wakeup for this thread already arrived before the region opened
// (the pending flag, set by WakeupBlockingOp when it finds no region),
// the returned context is already cancelled.
func (e *Engine) BeginBlockingOp(ctx context.Context) (context.Context, error) {
	tid, ok := CurrentThreadIdentifier(ctx)
	if !ok {
		return ctx, hostbridge.InvalidIdentifier.AsError()
	}

	child, cancel := context.WithCancel(ctx)

	e.blockingMu.Lock()
	bs, exists := e.blocking[tid]
	pending := exists && bs.pending
	e.blocking[tid] = &blockingState{cancel: cancel}
	e.blockingMu.Unlock()

	if pending {
		cancel()
	}

	return child, nil
}

// EndBlockingOp closes the calling thread's blocking region, releasing the
// cancel func BeginBlockingOp registered. Safe to call even if the region
// was already cancelled by a wakeup.
func (e *Engine) EndBlockingOp(ctx context.Context) error {
	tid, ok := CurrentThreadIdentifier(ctx)
	if !ok {
		return hostbridge.InvalidIdentifier.AsError()
	}

	e.blockingMu.Lock()
	defer e.blockingMu.Unlock()
	if bs, exists := e.blocking[tid]; exists {
		bs.cancel()
		delete(e.blocking, tid)
	}
	return nil
}

// WakeupBlockingOp cancels the target thread's current blocking region, if
// one is open, causing whatever wait it is in to return early. If no
// region is currently open — the wakeup raced ahead of BeginBlockingOp —
// it latches a pending flag so the next BeginBlockingOp for that thread is
// born already cancelled, matching the "wakeup before sleep" case a real
// interruptible syscall must also not lose.
func (e *Engine) WakeupBlockingOp(targetThreadID uint64) {
	e.blockingMu.Lock()
	defer e.blockingMu.Unlock()

	if bs, exists := e.blocking[targetThreadID]; exists {
		bs.cancel()
		return
	}
	e.blocking[targetThreadID] = &blockingState{cancel: func() {}, pending: true}
}
