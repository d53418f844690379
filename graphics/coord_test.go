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

func TestPercentRoundTrip(t *testing.T) {
	for _, pct := range []int32{0, 1, 50, 99, 100, -1, -50, -100} {
		c := graphics.Percent(pct)
		if !c.IsSpecial() {
			t.Fatalf("Percent(%d) not marked special", pct)
		}
		if got := graphics.PercentValue(c); got != pct {
			t.Fatalf("Percent(%d) round-tripped to %d", pct, got)
		}
	}
}

func TestSizeContentIsSpecialSentinel(t *testing.T) {
	c := graphics.Coord(graphics.SizeContent)
	if !c.IsSpecial() {
		t.Fatal("SizeContent not marked special")
	}
	if !graphics.IsSizeContent(c) {
		t.Fatal("IsSizeContent false for SizeContent")
	}
}

func TestSpanInclusive(t *testing.T) {
	if got := graphics.Span(10, 20); got != 11 {
		t.Fatalf("Span(10,20) = %d, want 11", got)
	}
	if got := graphics.Span(20, 10); got != 11 {
		t.Fatalf("Span(20,10) = %d, want 11", got)
	}
}

func TestMinMax(t *testing.T) {
	if graphics.Min(3, 7) != 3 || graphics.Max(3, 7) != 7 {
		t.Fatal("Min/Max disagree with plain comparison")
	}
}
