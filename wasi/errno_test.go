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

func TestResultErrnoRoundTrip(t *testing.T) {
	cases := []hostbridge.Result{
		hostbridge.Success,
		hostbridge.NotFound,
		hostbridge.PermissionDenied,
		hostbridge.AlreadyExists,
		hostbridge.InvalidPath,
		hostbridge.UnsupportedOperation,
		hostbridge.ResourceBusy,
		hostbridge.TooManyOpenFiles,
		hostbridge.FileSystemFull,
	}
	for _, r := range cases {
		e := wasi.ToErrno(r)
		got := wasi.FromErrno(e)
		if got != r {
			t.Fatalf("round trip for %v: got %v via errno %v", r, got, e)
		}
	}
}

func TestUnmappedResultBecomesECANCELED(t *testing.T) {
	if got := wasi.ToErrno(hostbridge.Other); got != wasi.ECANCELED {
		t.Fatalf("got %v, want ECANCELED", got)
	}
	if got := wasi.ToErrno(hostbridge.InvalidMode); got != wasi.ECANCELED {
		t.Fatalf("got %v, want ECANCELED", got)
	}
}

func TestSuccessNeverMapsAwayFromESUCCESS(t *testing.T) {
	if got := wasi.ToErrno(hostbridge.Success); got != wasi.ESUCCESS {
		t.Fatalf("got %v, want ESUCCESS", got)
	}
}
