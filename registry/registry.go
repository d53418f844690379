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

// Package registry implements the Handle Registry & Resource Tables (HRT):
// a single table mapping opaque Handles to heterogeneous, tagged host
// resources, with O(1) lookup and use-after-close detection.
//
// The slot/free-list/generation-counter shape is modeled directly on
// samples/memfs/fs.go's inode table (fs.inodes []*inode, fs.freeInodes
// []fuse.InodeID), generalized from "one kind of resource" (inodes) to a
// tagged union of kinds, and with a generation counter added so that a
// Handle surviving past its slot's release is detectable rather than
// silently aliasing whatever was minted into the reused slot.
package registry

import (
	"fmt"

	"github.com/jacobsa/syncutil"

	"github.com/kestrel-embedded/hostbridge"
)

// Kind tags the payload held in a slot.
type Kind int

const (
	KindFile Kind = iota
	KindDir
	KindThread
	KindMutex
	KindCond
	KindRWLock
	KindSemaphore
	KindSocket
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "File"
	case KindDir:
		return "Dir"
	case KindThread:
		return "Thread"
	case KindMutex:
		return "Mutex"
	case KindCond:
		return "Cond"
	case KindRWLock:
		return "RWLock"
	case KindSemaphore:
		return "Semaphore"
	case KindSocket:
		return "Socket"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

const (
	slotIndexBits = 32
	slotIndexMask = 1<<slotIndexBits - 1
)

type slot struct {
	kind       Kind
	generation uint32
	payload    interface{}
	used       bool
}

// Table is the process-wide resource table. The zero value is not usable;
// construct with New. A Table must be safe for concurrent use by many
// goroutines, mirroring the memfs inode table's INVARIANT-guarded mutex.
type Table struct {
	// INVARIANT: len(free) == number of slots with used == false.
	mu    syncutil.InvariantMutex
	slots []slot
	free  []uint32

	// maxSlots bounds how many slots the table may grow to before mint
	// fails with TooManyOpenFiles. Zero means unbounded.
	maxSlots int
}

// New creates an empty Table. maxSlots of zero means the table may grow
// without bound (besides available memory).
func New(maxSlots int) *Table {
	t := &Table{maxSlots: maxSlots}
	t.mu = syncutil.NewInvariantMutex(t.checkInvariants)
	return t
}

func (t *Table) checkInvariants() {
	if len(t.free) > len(t.slots) {
		panic("registry: more free slots than slots")
	}
	for _, idx := range t.free {
		if int(idx) >= len(t.slots) {
			panic("registry: free index out of range")
		}
		if t.slots[idx].used {
			panic("registry: free index marked used")
		}
	}
}

func pack(index int, generation uint32) hostbridge.Handle {
	return hostbridge.Handle(uint64(generation)<<slotIndexBits | uint64(uint32(index)&slotIndexMask))
}

func unpack(h hostbridge.Handle) (index int, generation uint32) {
	return int(uint64(h) & slotIndexMask), uint32(uint64(h) >> slotIndexBits)
}

// Mint allocates a free slot holding payload tagged with kind, returning a
// stable handle. It fails with TooManyOpenFiles when maxSlots is set and
// already reached, and no free slot exists.
func (t *Table) Mint(kind Kind, payload interface{}) (hostbridge.Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var index int
	if n := len(t.free); n > 0 {
		index = int(t.free[n-1])
		t.free = t.free[:n-1]
	} else {
		if t.maxSlots > 0 && len(t.slots) >= t.maxSlots {
			return hostbridge.InvalidHandle, hostbridge.TooManyOpenFiles.AsError()
		}
		index = len(t.slots)
		t.slots = append(t.slots, slot{})
	}

	s := &t.slots[index]
	s.kind = kind
	s.payload = payload
	s.used = true

	return pack(index, s.generation), nil
}

// Lookup resolves h, requiring its resource kind to equal expected. It
// fails with InvalidIdentifier when h is the sentinel, the slot is free,
// the generation is stale, or the kind mismatches, so every handle-bearing
// call gets a total validity check rather than trusting the caller.
func (t *Table) Lookup(h hostbridge.Handle, expected Kind) (interface{}, error) {
	if !h.Valid() {
		return nil, hostbridge.InvalidIdentifier.AsError()
	}

	index, generation := unpack(h)

	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= len(t.slots) {
		return nil, hostbridge.InvalidIdentifier.AsError()
	}

	s := &t.slots[index]
	if !s.used || s.generation != generation {
		return nil, hostbridge.InvalidIdentifier.AsError()
	}
	if s.kind != expected {
		return nil, hostbridge.InvalidIdentifier.AsError()
	}

	return s.payload, nil
}

// Replace swaps the payload stored under h without altering its kind,
// generation or handle value. Used by components that mutate resource
// state in place (e.g. VFS-F updating a descriptor's position).
func (t *Table) Replace(h hostbridge.Handle, payload interface{}) error {
	if !h.Valid() {
		return hostbridge.InvalidIdentifier.AsError()
	}
	index, generation := unpack(h)

	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= len(t.slots) {
		return hostbridge.InvalidIdentifier.AsError()
	}
	s := &t.slots[index]
	if !s.used || s.generation != generation {
		return hostbridge.InvalidIdentifier.AsError()
	}
	s.payload = payload
	return nil
}

// Release frees h's slot, bumping its generation so any retained copy of h
// is subsequently detected as stale. Idempotent releases (double-close)
// fail with InvalidIdentifier rather than silently succeeding.
func (t *Table) Release(h hostbridge.Handle) error {
	if !h.Valid() {
		return hostbridge.InvalidIdentifier.AsError()
	}
	index, generation := unpack(h)

	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= len(t.slots) {
		return hostbridge.InvalidIdentifier.AsError()
	}
	s := &t.slots[index]
	if !s.used || s.generation != generation {
		return hostbridge.InvalidIdentifier.AsError()
	}

	s.used = false
	s.payload = nil
	s.generation++
	t.free = append(t.free, uint32(index))

	return nil
}

// Stats reports slot utilization, used by dumps_memory_info.
type Stats struct {
	Total int
	Free  int
	InUse int
}

func (t *Table) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{
		Total: len(t.slots),
		Free:  len(t.free),
		InUse: len(t.slots) - len(t.free),
	}
}

// InUseHandles returns the handle of every currently-used slot of the
// given kind, snapshotted under the table lock. Used by shutdown paths
// that need to close every live resource of a kind without the table
// exposing its internal slot representation.
func (t *Table) InUseHandles(kind Kind) []hostbridge.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []hostbridge.Handle
	for i := range t.slots {
		s := &t.slots[i]
		if s.used && s.kind == kind {
			out = append(out, pack(i, s.generation))
		}
	}
	return out
}
