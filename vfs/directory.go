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

import "github.com/kestrel-embedded/hostbridge"

// dirStream is the payload registry.Table stores for registry.KindDir
// slots. It aliases the file-descriptor handle it was opened from via
// parent rather than sharing ownership of the descriptor struct — closing
// the stream releases only the dirStream slot, modeling the cyclic
// descriptor/stream relationship as two disjoint table entries coupled by
// a parent pointer.
type dirStream struct {
	parent hostbridge.Handle
	dir    Directory
	cursor uint64
}
