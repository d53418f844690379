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

// WASI oflags bits (__wasi_oflags_t).
const (
	OFlagCreat     uint16 = 1 << 0
	OFlagDirectory uint16 = 1 << 1
	OFlagExcl      uint16 = 1 << 2
	OFlagTrunc     uint16 = 1 << 3
)

// WASI fdflags bits (__wasi_fdflags_t).
const (
	FDFlagAppend    uint16 = 1 << 0
	FDFlagDSync     uint16 = 1 << 1
	FDFlagNonBlock  uint16 = 1 << 2
	FDFlagSync      uint16 = 1 << 4
)

// WASI whence values (__wasi_whence_t).
const (
	WhenceSet uint8 = 0
	WhenceCur uint8 = 1
	WhenceEnd uint8 = 2
)

// WASI filetype values (__wasi_filetype_t).
const (
	FiletypeUnknown         uint8 = 0
	FiletypeBlockDevice     uint8 = 1
	FiletypeCharacterDevice uint8 = 2
	FiletypeDirectory       uint8 = 3
	FiletypeRegularFile     uint8 = 4
	FiletypeSocketDgram     uint8 = 5
	FiletypeSocketStream    uint8 = 6
	FiletypeSymbolicLink    uint8 = 7
)

// WASI fd rights' two read/write-shaped bits we model access mode on
// (__wasi_rights_t is a 64-bit bitset in the real ABI; the core here only
// distinguishes readable/writable, per the access-mode mapping).
const (
	wasiRightFDRead  uint64 = 1 << 1
	wasiRightFDWrite uint64 = 1 << 6
)

// AccessModeFromRights maps the WASI fd rights' read/write bits to the
// internal two-bit AccessMode mask; ReadWrite sets both bits.
func AccessModeFromRights(rights uint64) hostbridge.AccessMode {
	var m hostbridge.AccessMode
	if rights&wasiRightFDRead != 0 {
		m |= hostbridge.Read
	}
	if rights&wasiRightFDWrite != 0 {
		m |= hostbridge.Write
	}
	return m
}

// RightsFromAccessMode is AccessModeFromRights's inverse.
func RightsFromAccessMode(m hostbridge.AccessMode) uint64 {
	var r uint64
	if m&hostbridge.Read != 0 {
		r |= wasiRightFDRead
	}
	if m&hostbridge.Write != 0 {
		r |= wasiRightFDWrite
	}
	return r
}

// OpenFlagsFromOFlags maps WASI oflags to the internal OpenFlags set:
// O_CREAT -> Create, O_EXCL -> CreateOnly, O_TRUNC -> Truncate.
// OFlagDirectory is consumed by the caller directly (it selects the
// wantDirectory argument to Facade.OpenAt) rather than folded in here.
func OpenFlagsFromOFlags(oflags uint16) hostbridge.OpenFlags {
	var f hostbridge.OpenFlags
	if oflags&OFlagCreat != 0 {
		f |= hostbridge.Create
	}
	if oflags&OFlagExcl != 0 {
		f |= hostbridge.CreateOnly
	}
	if oflags&OFlagTrunc != 0 {
		f |= hostbridge.Truncate
	}
	return f
}

// OFlagsFromOpenFlags is OpenFlagsFromOFlags's inverse.
func OFlagsFromOpenFlags(f hostbridge.OpenFlags) uint16 {
	var oflags uint16
	if f&hostbridge.Create != 0 {
		oflags |= OFlagCreat
	}
	if f&hostbridge.CreateOnly != 0 {
		oflags |= OFlagExcl
	}
	if f&hostbridge.Truncate != 0 {
		oflags |= OFlagTrunc
	}
	return oflags
}

// StatusFlagsFromFDFlags maps WASI fdflags to the internal StatusFlags
// set. The reverse mapping, FDFlagsFromStatusFlags, is symmetric.
func StatusFlagsFromFDFlags(fdflags uint16) hostbridge.StatusFlags {
	var f hostbridge.StatusFlags
	if fdflags&FDFlagAppend != 0 {
		f |= hostbridge.Append
	}
	if fdflags&FDFlagSync != 0 {
		f |= hostbridge.Synchronous
	}
	if fdflags&FDFlagDSync != 0 {
		f |= hostbridge.SynchronousDataOnly
	}
	if fdflags&FDFlagNonBlock != 0 {
		f |= hostbridge.NonBlocking
	}
	return f
}

// FDFlagsFromStatusFlags is StatusFlagsFromFDFlags's inverse.
func FDFlagsFromStatusFlags(f hostbridge.StatusFlags) uint16 {
	var fdflags uint16
	if f&hostbridge.Append != 0 {
		fdflags |= FDFlagAppend
	}
	if f&hostbridge.Synchronous != 0 {
		fdflags |= FDFlagSync
	}
	if f&hostbridge.SynchronousDataOnly != 0 {
		fdflags |= FDFlagDSync
	}
	if f&hostbridge.NonBlocking != 0 {
		fdflags |= FDFlagNonBlock
	}
	return fdflags
}

// WhenceFromWASI maps WASI whence to the internal Whence: WHENCE_CUR ->
// Current, WHENCE_END -> End, anything else -> Start.
func WhenceFromWASI(w uint8) hostbridge.Whence {
	switch w {
	case WhenceCur:
		return hostbridge.Current
	case WhenceEnd:
		return hostbridge.End
	default:
		return hostbridge.Start
	}
}

// WhenceToWASI is WhenceFromWASI's inverse for the three internal values.
func WhenceToWASI(w hostbridge.Whence) uint8 {
	switch w {
	case hostbridge.Current:
		return WhenceCur
	case hostbridge.End:
		return WhenceEnd
	default:
		return WhenceSet
	}
}

// FiletypeFromKind maps the closed FileKind set to its WASI filetype.
// Pipes map to the generic UNKNOWN type, not a dedicated WASI constant.
func FiletypeFromKind(k hostbridge.FileKind) uint8 {
	switch k {
	case hostbridge.FileKindFile:
		return FiletypeRegularFile
	case hostbridge.FileKindDirectory:
		return FiletypeDirectory
	case hostbridge.FileKindSymbolicLink:
		return FiletypeSymbolicLink
	case hostbridge.FileKindCharacterDevice:
		return FiletypeCharacterDevice
	case hostbridge.FileKindBlockDevice:
		return FiletypeBlockDevice
	case hostbridge.FileKindSocket:
		return FiletypeSocketStream
	default:
		return FiletypeUnknown
	}
}

// KindFromFiletype is FiletypeFromKind's inverse for the filetypes that map
// back to a member of the closed FileKind set.
func KindFromFiletype(t uint8) hostbridge.FileKind {
	switch t {
	case FiletypeRegularFile:
		return hostbridge.FileKindFile
	case FiletypeDirectory:
		return hostbridge.FileKindDirectory
	case FiletypeSymbolicLink:
		return hostbridge.FileKindSymbolicLink
	case FiletypeCharacterDevice:
		return hostbridge.FileKindCharacterDevice
	case FiletypeBlockDevice:
		return hostbridge.FileKindBlockDevice
	case FiletypeSocketStream, FiletypeSocketDgram:
		return hostbridge.FileKindSocket
	default:
		return hostbridge.FileKindFile
	}
}
