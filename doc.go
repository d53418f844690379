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

// Package hostbridge implements the host-guest boundary layer that binds a
// WASM execution engine to an OS personality: a handle registry, a virtual
// file system facade, a task and synchronization engine, and a WASI bridge.
//
// The primary elements of interest are:
//
//  *  The registry package, which mints and resolves the opaque handles
//     every other component hands to guest code.
//
//  *  The vfs package, a facade above an external VFS backend (the concrete
//     backend, e.g. LittleFS, is outside this module's scope).
//
//  *  The task package, which creates and joins host threads and owns the
//     mutex/condvar/rwlock/semaphore primitives and the blocking-operation
//     cancellation protocol.
//
//  *  The wasi package, the ABI surface consumed by guest WASM modules, and
//     the graphics package, the selector-dispatch RPC channel guest code
//     uses for drawing calls.
//
//  *  Engine, which wires the four components together and owns their
//     shared lifecycle.
package hostbridge
