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

package wasi_test

import (
	"testing"

	"github.com/kestrel-embedded/hostbridge"
	"github.com/kestrel-embedded/hostbridge/wasi"
)

func TestOpenFlagsRoundTrip(t *testing.T) {
	cases := []uint16{0, wasi.OFlagCreat, wasi.OFlagExcl, wasi.OFlagTrunc, wasi.OFlagCreat | wasi.OFlagExcl | wasi.OFlagTrunc}
	for _, oflags := range cases {
		got := wasi.OFlagsFromOpenFlags(wasi.OpenFlagsFromOFlags(oflags))
		if got != oflags {
			t.Fatalf("round trip for oflags %x: got %x", oflags, got)
		}
	}
}

func TestStatusFlagsRoundTrip(t *testing.T) {
	cases := []uint16{0, wasi.FDFlagAppend, wasi.FDFlagSync, wasi.FDFlagDSync, wasi.FDFlagNonBlock,
		wasi.FDFlagAppend | wasi.FDFlagSync | wasi.FDFlagDSync | wasi.FDFlagNonBlock}
	for _, fdflags := range cases {
		got := wasi.FDFlagsFromStatusFlags(wasi.StatusFlagsFromFDFlags(fdflags))
		if got != fdflags {
			t.Fatalf("round trip for fdflags %x: got %x", fdflags, got)
		}
	}
}

func TestAccessModeRightsRoundTrip(t *testing.T) {
	cases := []hostbridge.AccessMode{hostbridge.Read, hostbridge.Write, hostbridge.Read | hostbridge.Write}
	for _, m := range cases {
		got := wasi.AccessModeFromRights(wasi.RightsFromAccessMode(m))
		if got != m {
			t.Fatalf("round trip for access mode %v: got %v", m, got)
		}
	}
}

func TestWhenceMapping(t *testing.T) {
	if wasi.WhenceFromWASI(wasi.WhenceCur) != hostbridge.Current {
		t.Fatal("WHENCE_CUR should map to Current")
	}
	if wasi.WhenceFromWASI(wasi.WhenceEnd) != hostbridge.End {
		t.Fatal("WHENCE_END should map to End")
	}
	if wasi.WhenceFromWASI(99) != hostbridge.Start {
		t.Fatal("unknown whence should map to Start")
	}
}

func TestFileKindRoundTrip(t *testing.T) {
	cases := []hostbridge.FileKind{
		hostbridge.FileKindFile,
		hostbridge.FileKindDirectory,
		hostbridge.FileKindSymbolicLink,
		hostbridge.FileKindCharacterDevice,
		hostbridge.FileKindBlockDevice,
		hostbridge.FileKindSocket,
	}
	for _, k := range cases {
		got := wasi.KindFromFiletype(wasi.FiletypeFromKind(k))
		if got != k {
			t.Fatalf("round trip for kind %v: got %v", k, got)
		}
	}
}

func TestPipeMapsToUnknownFiletype(t *testing.T) {
	if got := wasi.FiletypeFromKind(hostbridge.FileKindPipe); got != wasi.FiletypeUnknown {
		t.Fatalf("got %v, want FiletypeUnknown", got)
	}
}
