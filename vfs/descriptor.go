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

package vfs

import (
	"sync"

	"github.com/kestrel-embedded/hostbridge"
)

type stdioKind int

const (
	stdioNone stdioKind = iota
	stdioIn
	stdioOut
	stdioErr
)

// descriptor is the payload registry.Table stores for registry.KindFile
// slots. The access mode and open flags fixed at open time are the only
// immutable control state besides position; status flags may change via
// SetFlags. mu serializes the position-affecting operations on a single
// descriptor so reads/writes that advance position observe program order.
type descriptor struct {
	mu sync.Mutex

	file        File
	access      hostbridge.AccessMode
	openFlags   hostbridge.OpenFlags
	statusFlags hostbridge.StatusFlags
	stdio       stdioKind
	readOnly    bool // set for preopen handles
	preopenPath string
}

func (d *descriptor) checkReadable() error {
	if d.access&hostbridge.Read == 0 {
		return hostbridge.PermissionDenied.AsError()
	}
	return nil
}

func (d *descriptor) checkWritable() error {
	if d.readOnly {
		return hostbridge.PermissionDenied.AsError()
	}
	if d.access&hostbridge.Write == 0 {
		return hostbridge.PermissionDenied.AsError()
	}
	return nil
}
