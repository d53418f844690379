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

package registry_test

import (
	"testing"

	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"

	"github.com/kestrel-embedded/hostbridge"
	"github.com/kestrel-embedded/hostbridge/registry"
)

func TestRegistry(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// RegistryTest
////////////////////////////////////////////////////////////////////////

type RegistryTest struct {
	table *registry.Table
}

func init() { RegisterTestSuite(&RegistryTest{}) }

func (t *RegistryTest) SetUp(ti *TestInfo) {
	t.table = registry.New(0)
}

func (t *RegistryTest) MintThenLookup() {
	h, err := t.table.Mint(registry.KindFile, "payload")
	AssertEq(nil, err)
	ExpectTrue(h.Valid())

	got, err := t.table.Lookup(h, registry.KindFile)
	AssertEq(nil, err)
	ExpectEq("payload", got)
}

func (t *RegistryTest) LookupWithWrongKindFails() {
	h, err := t.table.Mint(registry.KindFile, 1)
	AssertEq(nil, err)

	_, err = t.table.Lookup(h, registry.KindDir)
	ExpectEq(hostbridge.InvalidIdentifier, hostbridge.ResultOf(err))
}

func (t *RegistryTest) InvalidSentinelAlwaysFails() {
	_, err := t.table.Lookup(hostbridge.InvalidHandle, registry.KindFile)
	ExpectEq(hostbridge.InvalidIdentifier, hostbridge.ResultOf(err))
}

func (t *RegistryTest) UseAfterCloseFails() {
	h, err := t.table.Mint(registry.KindFile, 1)
	AssertEq(nil, err)

	AssertEq(nil, t.table.Release(h))

	_, err = t.table.Lookup(h, registry.KindFile)
	ExpectEq(hostbridge.InvalidIdentifier, hostbridge.ResultOf(err))
}

func (t *RegistryTest) DoubleReleaseFails() {
	h, err := t.table.Mint(registry.KindFile, 1)
	AssertEq(nil, err)
	AssertEq(nil, t.table.Release(h))

	err = t.table.Release(h)
	ExpectEq(hostbridge.InvalidIdentifier, hostbridge.ResultOf(err))
}

func (t *RegistryTest) ReusedSlotGetsFreshGeneration() {
	h1, err := t.table.Mint(registry.KindFile, 1)
	AssertEq(nil, err)
	AssertEq(nil, t.table.Release(h1))

	h2, err := t.table.Mint(registry.KindFile, 2)
	AssertEq(nil, err)

	ExpectThat(h1, Not(Equals(h2)))

	_, err = t.table.Lookup(h1, registry.KindFile)
	ExpectEq(hostbridge.InvalidIdentifier, hostbridge.ResultOf(err))

	got, err := t.table.Lookup(h2, registry.KindFile)
	AssertEq(nil, err)
	ExpectEq(2, got)
}

func (t *RegistryTest) BoundedTableReportsTooManyOpenFiles() {
	bounded := registry.New(1)
	_, err := bounded.Mint(registry.KindFile, 1)
	AssertEq(nil, err)

	_, err = bounded.Mint(registry.KindFile, 2)
	ExpectEq(hostbridge.TooManyOpenFiles, hostbridge.ResultOf(err))
}

func (t *RegistryTest) StatsReflectFreeAndInUse() {
	h1, _ := t.table.Mint(registry.KindFile, 1)
	_, _ = t.table.Mint(registry.KindFile, 2)
	t.table.Release(h1)

	stats := t.table.Stats()
	ExpectEq(2, stats.Total)
	ExpectEq(1, stats.Free)
	ExpectEq(1, stats.InUse)
}
