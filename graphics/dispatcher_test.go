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

package graphics_test

import (
	"testing"

	"github.com/kestrel-embedded/hostbridge/graphics"
)

func TestDispatchRoutesToRegisteredHandler(t *testing.T) {
	d := graphics.NewDispatcher()
	called := false
	d.Register(1, graphics.Handler{
		Name:  "add",
		Arity: 2,
		Func: func(args [graphics.MaxArgs]uint32, argc int, ret *uint32) error {
			called = true
			*ret = args[0] + args[1]
			return nil
		},
		ReturnWide: true,
	})

	var ret uint32
	args := [graphics.MaxArgs]uint32{3, 4}
	if err := d.Dispatch(1, args, 2, &ret); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !called || ret != 7 {
		t.Fatalf("called=%v ret=%d, want true/7", called, ret)
	}
}

func TestDispatchUnknownSelector(t *testing.T) {
	d := graphics.NewDispatcher()
	var ret uint32
	if err := d.Dispatch(99, [graphics.MaxArgs]uint32{}, 0, &ret); err != graphics.ErrUnknownSelector {
		t.Fatalf("got %v, want ErrUnknownSelector", err)
	}
}

func TestDispatchArityMismatch(t *testing.T) {
	d := graphics.NewDispatcher()
	d.Register(1, graphics.Handler{Name: "f", Arity: 2, Func: func([graphics.MaxArgs]uint32, int, *uint32) error { return nil }})

	if err := d.Dispatch(1, [graphics.MaxArgs]uint32{}, 1, nil); err != graphics.ErrArityMismatch {
		t.Fatalf("got %v, want ErrArityMismatch", err)
	}
}
