/*
 * Copyright 2025 The Compositron Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bittoy/compositron/types"
)

func TestInternConcreteTypeIsNotGeneric(t *testing.T) {
	r := New()
	vt := r.Intern("real")
	assert.False(t, vt.Generic)
	assert.Equal(t, "real", vt.Name)
}

func TestInternGenericTypeIsGeneric(t *testing.T) {
	r := New()
	vt := r.Intern("GenericType1")
	assert.True(t, vt.Generic)
}

func TestInternReturnsSameInstanceForSameName(t *testing.T) {
	r := New()
	a := r.Intern("real")
	b := r.Intern("real")
	assert.Same(t, a, b)
}

func TestInternValueTypePreservesIdentityAcrossReintern(t *testing.T) {
	r := New()
	vt := &types.ValueType{Name: "point2d"}
	got := r.InternValueType(vt)
	assert.Equal(t, vt.Name, got.Name)

	again := r.Intern("point2d")
	assert.Same(t, got, again, "re-interning by name must return the already-registered instance")
}

func TestLookupMissingReturnsFalse(t *testing.T) {
	r := New()
	_, ok := r.Lookup("nonexistent")
	assert.False(t, ok)
}

func TestAllSortedByName(t *testing.T) {
	r := New()
	r.Intern("zebra")
	r.Intern("alpha")
	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "zebra", all[1].Name)
}

func TestCompatibleSpecializationsReflectsRegisteredGeneric(t *testing.T) {
	r := New()
	vt := &types.ValueType{Name: "GenericType1", Generic: true, CompatibleSpecializations: []string{"real", "point2d"}}
	r.InternValueType(vt)

	got := r.CompatibleSpecializations("GenericType1")
	assert.Equal(t, []string{"real", "point2d"}, got)
}
