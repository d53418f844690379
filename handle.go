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

// Handle is the opaque 64-bit identifier every boundary call traffics in.
// It is minted by the resource that created it (registry.Table) and is
// stable until explicit close.
type Handle uint64

// InvalidHandle is the reserved sentinel value; no mint ever returns it.
const InvalidHandle Handle = 0xFFFF_FFFF_FFFF_FFFF

// Valid reports whether h is anything other than the invalid sentinel. It
// does not imply the handle is still live in any particular table — that
// is what registry.Table.Lookup is for.
func (h Handle) Valid() bool {
	return h != InvalidHandle
}
