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

package hostbridge

import (
	"github.com/hashicorp/go-multierror"
	"github.com/jacobsa/timeutil"

	"github.com/kestrel-embedded/hostbridge/graphics"
	"github.com/kestrel-embedded/hostbridge/internal/xlog"
	"github.com/kestrel-embedded/hostbridge/registry"
	"github.com/kestrel-embedded/hostbridge/task"
	"github.com/kestrel-embedded/hostbridge/vfs"
	"github.com/kestrel-embedded/hostbridge/wasi"
)

// Config holds everything Engine needs to wire the handle registry, VFS
// facade, task engine and WASI bridge together, passed explicitly by the
// caller rather than read from package globals, to keep construction
// testable.
type Config struct {
	// Backend is the external VFS personality (LittleFS, a mount table, or
	// internal/localvfs for tests/examples). Required.
	Backend vfs.Backend

	// Stdin, Stdout, Stderr are the raw stdio files minted as the three
	// reserved handles at boot. Any of them may be nil.
	Stdin, Stdout, Stderr vfs.File

	// MaxTaskHandles bounds the handle table's growth; zero means
	// unbounded.
	MaxTaskHandles int

	// Clock is handed to the task engine, which stores it;
	// sleep_microseconds waits on a real timer and does not consult it.
	// Defaults to a real clock.
	Clock timeutil.Clock
}

// Engine owns the full host-guest boundary: the handle registry (via the
// registry tables the VFS facade and task engine each mint into
// independently, since the handle registry, mount table, semaphore
// directory and thread table are each process-wide singletons in their
// own right), the VFS facade, the task engine, and the WASI bridge
// sitting on top of both plus the graphics RPC table.
type Engine struct {
	VFS      *vfs.Facade
	Tasks    *task.Engine
	Bridge   *wasi.Bridge
	Graphics *graphics.Dispatcher

	Stdin, Stdout, Stderr Handle
}

// New constructs an Engine from cfg. The three stdio handles, when the
// corresponding Config field is non-nil, are stable from this call onward
// and recognizable by identity via Bridge's stdio predicates.
func New(cfg Config) (*Engine, error) {
	if cfg.Backend == nil {
		return nil, Wrap(NotInitialized.AsError(), "engine: Config.Backend is required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock()
	}

	facade, stdin, stdout, stderr := vfs.New(cfg.Backend, cfg.Stdin, cfg.Stdout, cfg.Stderr)
	tasks := task.New(registry.New(cfg.MaxTaskHandles), clock)
	dispatcher := graphics.NewDispatcher()
	bridge := wasi.NewBridge(facade, tasks, dispatcher)

	xlog.For("engine").Debug("engine initialized")

	return &Engine{
		VFS:      facade,
		Tasks:    tasks,
		Bridge:   bridge,
		Graphics: dispatcher,
		Stdin:    stdin,
		Stdout:   stdout,
		Stderr:   stderr,
	}, nil
}

// Shutdown closes every handle still open in the handle table used by
// guests' file descriptors (the VFS-F table is private to the Facade, so
// Shutdown asks it to close what it can reach; stdio descriptors are
// skipped per the Facade's own close contract). Per-handle close errors
// are aggregated with go-multierror rather than discarding all but the
// first, since a caller tearing down a guest context wants to know about
// every resource that failed to release cleanly, not just the first one.
func (e *Engine) Shutdown() error {
	var result *multierror.Error
	for _, err := range e.VFS.CloseAll() {
		result = multierror.Append(result, err)
	}

	xlog.For("engine").Debug("engine shutdown complete")
	return result.ErrorOrNil()
}
