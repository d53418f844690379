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

import "github.com/kestrel-embedded/hostbridge"

// Filestat is the wire-shaped mirror of __wasi_filestat_t: plain fixed-width
// fields ready for little-endian marshalling into guest memory.
type Filestat struct {
	Dev      uint64
	Ino      uint64
	Filetype uint8
	Nlink    uint64
	Size     uint64
	Atim     uint64
	Mtim     uint64
	Ctim     uint64
}

// FilestatFromStatistics copies field-by-field from the internal snapshot
// and maps the kind, per the file-statistics marshalling rule.
func FilestatFromStatistics(s hostbridge.FileStatistics) Filestat {
	return Filestat{
		Dev:      s.FileSystemID,
		Ino:      s.Inode,
		Filetype: FiletypeFromKind(s.Kind),
		Nlink:    s.LinkCount,
		Size:     s.Size,
		Atim:     uint64(s.AccessTime.UnixNano()),
		Mtim:     uint64(s.ModifiedTime.UnixNano()),
		Ctim:     uint64(s.StatusTime.UnixNano()),
	}
}

// Bytes renders the filestat struct as its 64-byte little-endian wire
// encoding (__wasi_filestat_t's field layout), ready for Guest.Write.
func (fs Filestat) Bytes() []byte {
	out := make([]byte, 64)
	putU64(out[0:8], fs.Dev)
	putU64(out[8:16], fs.Ino)
	out[16] = fs.Filetype
	// bytes 17-23 are padding, matching the struct's natural alignment.
	putU64(out[24:32], fs.Nlink)
	putU64(out[32:40], fs.Size)
	putU64(out[40:48], fs.Atim)
	putU64(out[48:56], fs.Mtim)
	putU64(out[56:64], fs.Ctim)
	return out
}

func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}
