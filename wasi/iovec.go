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

package wasi

import "github.com/kestrel-embedded/hostbridge/memory"

// gatherIOVecs reads count __wasi_iovec_t/__wasi_ciovec_t entries starting
// at iovecArrayOffset out of guest memory, building the transient buffer
// slices VFS-F's vectored calls consume. Never retained past the call.
func gatherIOVecs(g memory.Guest, iovecArrayOffset, count uint32) ([][]byte, error) {
	return memory.ReadIOVecs(g, iovecArrayOffset, count)
}

// scatterIOVecResult writes data back into the index'th buffer the guest
// supplied at iovecArrayOffset — used after a read fills host-owned
// scratch space that must be copied into the guest rather than aliasing it
// directly.
func scatterIOVecResult(g memory.Guest, iovecArrayOffset uint32, index uint32, data []byte) error {
	return memory.WriteBack(g, iovecArrayOffset, index, data)
}
