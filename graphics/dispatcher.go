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

// Package graphics implements the single variadic graphics RPC entry
// point: a selector-keyed dispatch table, plus the coordinate and
// percentage bit-packing helpers the LVGL-facing guest code relies on.
// The widget library itself (LVGL) remains an external collaborator; only
// its call-marshalling contract is implemented here.
//
// Dispatch is modeled on fuseops.Convert's per-kind routing (one case per
// request type, converting into a typed call) but keyed by a 16-bit
// integer selector registered at startup instead of a Go type switch,
// since the RPC boundary has no static type information to switch on.
package graphics

import "fmt"

// MaxArgs is the number of word-sized arguments the RPC channel carries
// per call, in addition to the selector, argument count and optional
// return pointer.
const MaxArgs = 7

// Handler is a registered graphics call: its declared arity and return
// width are checked against every invocation before Func is called, so a
// mismatch is caught at the dispatch boundary rather than inside handler
// code operating on too few/many arguments.
type Handler struct {
	Name       string
	Arity      int
	ReturnWide bool // true if the call writes a word through the return pointer
	Func       func(args [MaxArgs]uint32, argc int, ret *uint32) error
}

// Dispatcher routes a 16-bit selector to its registered Handler. All
// handlers are registered at startup; unknown selectors return a distinct
// failure rather than silently no-op'ing.
type Dispatcher struct {
	handlers map[uint16]Handler
}

// NewDispatcher creates an empty dispatch table.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[uint16]Handler)}
}

// Register adds h under selector. Registering the same selector twice
// overwrites the previous handler, matching a late-binding startup
// registration sequence rather than panicking.
func (d *Dispatcher) Register(selector uint16, h Handler) {
	d.handlers[selector] = h
}

// ErrUnknownSelector is returned by Dispatch when no handler is registered
// for the given selector.
var ErrUnknownSelector = fmt.Errorf("graphics: unknown selector")

// ErrArityMismatch is returned when the caller's argument count does not
// match the registered handler's declared arity. Per the design, an arity
// mismatch on the graphics RPC is fatal to the guest context; this package
// only reports the mismatch, it does not itself decide how the caller
// aborts.
var ErrArityMismatch = fmt.Errorf("graphics: arity mismatch")

// Dispatch looks up selector and invokes its handler with the given
// arguments. argc must equal the handler's declared arity exactly.
func (d *Dispatcher) Dispatch(selector uint16, args [MaxArgs]uint32, argc int, ret *uint32) error {
	h, ok := d.handlers[selector]
	if !ok {
		return ErrUnknownSelector
	}
	if argc != h.Arity {
		return ErrArityMismatch
	}
	if h.ReturnWide && ret == nil {
		return ErrArityMismatch
	}
	return h.Func(args, argc, ret)
}
