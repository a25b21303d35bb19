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

package specialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bittoy/compositron/catalog"
	"github.com/bittoy/compositron/composition"
	"github.com/bittoy/compositron/registry"
	"github.com/bittoy/compositron/types"
)

// setup builds a two-node composition: "get" is generic vuo.list.get with
// one generic port T (in+out), connected to "source", a concrete real
// output. It registers the generic class (compatible with "real" and
// "point2d") and only its "real" specialized class, matching scenario 3/4's
// fixture.
func setup(t *testing.T) (*composition.Composition, *catalog.Catalog, *registry.TypeRegistry, *Engine) {
	t.Helper()
	cat := catalog.New()
	reg := registry.New()

	generic := reg.Intern("GenericType1")
	reg.InternValueType(&types.ValueType{
		Name: "GenericType1", Generic: true,
		CompatibleSpecializations: []string{"real", "point2d"},
		DefaultSpecialization:     "real",
	})
	_ = generic
	realType := reg.Intern("real")

	genericClass := &types.NodeClass{
		Name:        "vuo.list.get",
		Substantial: true,
		Inputs: []*types.PortClass{
			{Name: types.RefreshPortName, Category: types.EventOnlyPort},
			{Name: "list", Category: types.DataAndEventPort, DataType: &types.ValueType{Name: "GenericType1", Generic: true}},
		},
		Outputs: []*types.PortClass{
			{Name: "item", Category: types.DataAndEventPort, DataType: &types.ValueType{Name: "GenericType1", Generic: true}},
		},
		GenericTypes: map[string]types.GenericTypeInfo{
			"GenericType1": {DefaultType: "real", CompatibleTypes: []string{"real", "point2d"}},
		},
	}
	cat.Add(genericClass)
	cat.Add(&types.NodeClass{
		Name:        "vuo.list.get.real",
		Substantial: true,
		Inputs: []*types.PortClass{
			{Name: types.RefreshPortName, Category: types.EventOnlyPort},
			{Name: "list", Category: types.DataAndEventPort, DataType: &types.ValueType{Name: "real"}},
		},
		Outputs: []*types.PortClass{
			{Name: "item", Category: types.DataAndEventPort, DataType: &types.ValueType{Name: "real"}},
		},
	})

	sourceClass := &types.NodeClass{
		Name:        "vuo.math.constant",
		Substantial: true,
		Inputs:      []*types.PortClass{{Name: types.RefreshPortName, Category: types.EventOnlyPort}},
		Outputs: []*types.PortClass{
			{Name: "value", Category: types.DataAndEventPort, DataType: realType},
		},
	}
	cat.Add(sourceClass)

	comp := composition.New("G", cat, reg)
	eng := New(cat, reg)
	comp.Specializer = eng

	getNode := comp.ImportNode("get", "vuo.list.get", "", "", "")
	srcNode := comp.ImportNode("source", "vuo.math.constant", "", "", "")
	_ = getNode
	_ = srcNode
	// alwaysEventOnly bypasses Connect's own auto-unify step (the
	// generic port here has two compatible specializations, so a data
	// connect would be rejected pending an explicit choice); the fixture
	// only needs a cable present to exercise the Specialization Engine's
	// external-cable-deletion rule directly.
	_, err := comp.Connect("source", "value", "get", "list", true)
	require.NoError(t, err)

	return comp, cat, reg, eng
}

// scenario 3: Generic specialization.
func TestSpecializeRewritesWholeNetwork(t *testing.T) {
	comp, _, _, eng := setup(t)

	err := eng.Specialize(comp, "get", "list", "real")
	require.NoError(t, err)

	n, _ := comp.Node("get")
	assert.Equal(t, "vuo.list.get.real", n.ClassName)
	assert.Equal(t, "real", n.Inputs["list"].Class.DataType.Name)
	assert.Equal(t, "real", n.Outputs["item"].Class.DataType.Name)

	require.Len(t, comp.Cables, 1)
}

// scenario 4: Specialization rollback.
func TestSpecializeRejectsIncompatibleType(t *testing.T) {
	comp, _, _, eng := setup(t)

	err := eng.Specialize(comp, "get", "list", "text")
	require.Error(t, err)
	issue, ok := err.(*types.Issue)
	require.True(t, ok)
	assert.Equal(t, types.TypeMismatch, issue.Kind)

	n, _ := comp.Node("get")
	assert.Equal(t, "vuo.list.get", n.ClassName, "class must be unchanged on rollback")
}

func TestUnspecializeRestoresGenericClassAndDeletesExternalCable(t *testing.T) {
	comp, _, _, eng := setup(t)
	require.NoError(t, eng.Specialize(comp, "get", "list", "real"))

	deleted, err := eng.Unspecialize(comp, "get", "list")
	require.NoError(t, err)

	n, _ := comp.Node("get")
	assert.Equal(t, "vuo.list.get", n.ClassName)
	assert.True(t, n.Inputs["list"].Class.DataType.Generic)

	// The cable from "source" (a concrete real output never part of the
	// network) must have been deleted: it can no longer type-check
	// against the now-generic "list" input.
	assert.Len(t, deleted, 1)
	assert.Len(t, comp.Cables, 0)
}

func TestRespecializeIsNoOpWhenAlreadyTargetType(t *testing.T) {
	comp, _, _, eng := setup(t)
	require.NoError(t, eng.Specialize(comp, "get", "list", "real"))

	deleted, err := eng.Respecialize(comp, "get", "list", "real")
	require.NoError(t, err)
	assert.Empty(t, deleted)

	n, _ := comp.Node("get")
	assert.Equal(t, "vuo.list.get.real", n.ClassName)
}
