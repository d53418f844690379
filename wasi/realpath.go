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

import "github.com/kestrel-embedded/hostbridge/vfs"

// Realpath copies p verbatim into a null-terminated buffer of at most
// vfs.PathMax bytes. Whether "." and ".." segments were meant to be
// resolved here is an open question left unresolved upstream; current
// behavior (no resolution) is preserved rather than guessed at.
func Realpath(p string) string {
	return vfs.ResolvePath(p)
}
