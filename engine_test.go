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

package hostbridge_test

import (
	"os"
	"testing"

	"github.com/kestrel-embedded/hostbridge"
	"github.com/kestrel-embedded/hostbridge/internal/localvfs"
)

func TestNewRequiresBackend(t *testing.T) {
	if _, err := hostbridge.New(hostbridge.Config{}); err == nil {
		t.Fatal("expected error for missing Backend")
	}
}

func TestNewWiresVFSAndTasks(t *testing.T) {
	dir, err := os.MkdirTemp("", "engine_test")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(dir)

	e, err := hostbridge.New(hostbridge.Config{Backend: localvfs.New(dir)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if e.VFS == nil || e.Tasks == nil || e.Bridge == nil || e.Graphics == nil {
		t.Fatal("Engine has a nil component after New")
	}

	root, err := e.VFS.PreopenDirectory("/")
	if err != nil {
		t.Fatalf("PreopenDirectory: %v", err)
	}
	if _, err := e.VFS.OpenAt(root, "x.txt", hostbridge.Create, 0, hostbridge.Write, false); err != nil {
		t.Fatalf("OpenAt: %v", err)
	}

	if err := e.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
