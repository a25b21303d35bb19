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

package moduleparser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bittoy/compositron/registry"
	"github.com/bittoy/compositron/types"
)

func TestParseRejectsModuleWithNoEventEntry(t *testing.T) {
	reg := registry.New()
	_, _, err := Parse("vuo.noop", ModuleMetadata{ClassName: "vuo.noop"}, nil, reg)
	assert.True(t, errors.Is(err, ErrNotANodeClass))
}

func TestParseBuildsInputsAndOutputsFromNodeEvent(t *testing.T) {
	reg := registry.New()
	meta := ModuleMetadata{ClassName: "vuo.math.add", Title: "Add"}
	annotations := []Annotation{
		{Function: types.FuncNodeEvent, Index: 0, ParamName: "a", Role: RoleInputData, TypeName: "real"},
		{Function: types.FuncNodeEvent, Index: 1, ParamName: "b", Role: RoleInputData, TypeName: "real"},
		{Function: types.FuncNodeEvent, Index: 2, ParamName: "sum", Role: RoleOutputData, TypeName: "real", Pointer: true},
	}
	nc, issues, err := Parse("vuo.math.add", meta, annotations, reg)
	require.NoError(t, err)
	assert.True(t, issues.Empty())
	assert.True(t, nc.Substantial)
	assert.Equal(t, "Add", nc.DefaultTitle)

	// refresh is auto-inserted as Inputs[0].
	assert.Equal(t, types.RefreshPortName, nc.Inputs[0].Name)
	assert.Equal(t, "a", nc.Inputs[1].Name)
	assert.Equal(t, "b", nc.Inputs[2].Name)
	assert.Equal(t, "sum", nc.Outputs[0].Name)
	assert.Equal(t, []string{"real"}, nc.Dependencies)
}

func TestParseRejectsDisallowedRoleForFunction(t *testing.T) {
	reg := registry.New()
	meta := ModuleMetadata{ClassName: "vuo.bad"}
	annotations := []Annotation{
		{Function: types.FuncNodeEvent, Index: 0, ParamName: "x", Role: RoleInputData},
		{Function: types.FuncInit, Index: 0, ParamName: "y", Role: RoleOutputData, Pointer: true},
	}
	_, issues, err := Parse("vuo.bad", meta, annotations, reg)
	require.Error(t, err)
	assert.True(t, issues.HasFatal())
	var issue *types.Issue
	require.True(t, errors.As(err, &issue))
	assert.Equal(t, types.ModuleMalformed, issue.Kind)
}

func TestParseRejectsNonPointerOutputParameter(t *testing.T) {
	reg := registry.New()
	annotations := []Annotation{
		{Function: types.FuncNodeEvent, Index: 0, ParamName: "a", Role: RoleInputData, TypeName: "real"},
		{Function: types.FuncNodeEvent, Index: 1, ParamName: "out", Role: RoleOutputData, TypeName: "real", Pointer: false},
	}
	_, _, err := Parse("vuo.bad2", ModuleMetadata{ClassName: "vuo.bad2"}, annotations, reg)
	require.Error(t, err)
}

func TestParseRequiresInitAndFiniForStatefulClass(t *testing.T) {
	reg := registry.New()
	annotations := []Annotation{
		{Function: types.FuncNodeInstanceEvent, Index: 0, ParamName: "a", Role: RoleInputData, TypeName: "real"},
	}
	_, _, err := Parse("vuo.stateful", ModuleMetadata{ClassName: "vuo.stateful"}, annotations, reg)
	require.Error(t, err)
}

func TestParseAcceptsStatefulClassWithInitAndFini(t *testing.T) {
	reg := registry.New()
	annotations := []Annotation{
		{Function: types.FuncNodeInstanceEvent, Index: 0, ParamName: "a", Role: RoleInputData, TypeName: "real"},
		{Function: types.FuncInit, Index: 0, ParamName: "instance", Role: RoleInstanceData, Pointer: true},
		{Function: types.FuncFini, Index: 0, ParamName: "instance", Role: RoleInstanceData, Pointer: true},
	}
	nc, _, err := Parse("vuo.stateful.ok", ModuleMetadata{ClassName: "vuo.stateful.ok"}, annotations, reg)
	require.NoError(t, err)
	assert.True(t, nc.Stateful)
	require.NotNil(t, nc.InstanceData)
}

func TestParseRejectsTriggerStartWithoutTriggerStop(t *testing.T) {
	reg := registry.New()
	annotations := []Annotation{
		{Function: types.FuncNodeEvent, Index: 0, ParamName: "a", Role: RoleInputData, TypeName: "real"},
		{Function: types.FuncTriggerStart, Index: 0, ParamName: "fired", Role: RoleOutputTrigger, Pointer: true},
	}
	_, _, err := Parse("vuo.trigger.bad", ModuleMetadata{ClassName: "vuo.trigger.bad"}, annotations, reg)
	require.Error(t, err)
}

func TestParseMergesEventAndDataPortsPairedByDetailsData(t *testing.T) {
	reg := registry.New()
	annotations := []Annotation{
		{Function: types.FuncNodeEvent, Index: 0, ParamName: "started", Role: RoleOutputEvent, Pointer: true, Details: `{"data":"url"}`},
		{Function: types.FuncNodeEvent, Index: 1, ParamName: "url", Role: RoleOutputData, TypeName: "text", Pointer: true},
	}
	nc, _, err := Parse("vuo.pair", ModuleMetadata{ClassName: "vuo.pair"}, annotations, reg)
	require.NoError(t, err)
	require.Len(t, nc.Outputs, 1)
	assert.Equal(t, "url", nc.Outputs[0].Name)
	assert.Equal(t, types.DataAndEventPort, nc.Outputs[0].Category)
}

func TestParseDoesNotTrackGenericTypeAsDependency(t *testing.T) {
	reg := registry.New()
	reg.InternValueType(&types.ValueType{Name: "GenericType1", Generic: true, CompatibleSpecializations: []string{"real", "integer"}})
	annotations := []Annotation{
		{Function: types.FuncNodeEvent, Index: 0, ParamName: "in", Role: RoleInputData, TypeName: "GenericType1"},
		{Function: types.FuncNodeEvent, Index: 1, ParamName: "out", Role: RoleOutputData, TypeName: "GenericType1", Pointer: true},
	}
	nc, _, err := Parse("vuo.generic", ModuleMetadata{ClassName: "vuo.generic"}, annotations, reg)
	require.NoError(t, err)
	assert.Empty(t, nc.Dependencies)
}

func TestParseAppliesDetailsDefaultAndEventThrottling(t *testing.T) {
	reg := registry.New()
	annotations := []Annotation{
		{Function: types.FuncNodeEvent, Index: 0, ParamName: "value", Role: RoleInputData, TypeName: "real",
			Details: `{"default":"1.0","eventBlocking":"Wall"}`},
		{Function: types.FuncNodeEvent, Index: 1, ParamName: "fired", Role: RoleOutputTrigger, Pointer: true,
			Details: `{"eventThrottling":"Drop"}`},
	}
	nc, _, err := Parse("vuo.detailed", ModuleMetadata{ClassName: "vuo.detailed"}, annotations, reg)
	require.NoError(t, err)
	value, ok := nc.InputByName("value")
	require.True(t, ok)
	assert.Equal(t, "1.0", value.Detail.Default)
	assert.Equal(t, types.EventBlockingWall, value.EventBlocking)

	fired, ok := nc.OutputByName("fired")
	require.True(t, ok)
	assert.Equal(t, types.EventThrottlingDrop, fired.DefaultEventThrottling)
}

func TestParseDefaultsPortActionForEventOnlyInputRegardlessOfExplicitBlocking(t *testing.T) {
	reg := registry.New()
	annotations := []Annotation{
		{Function: types.FuncNodeEvent, Index: 0, ParamName: "go", Role: RoleInputEvent, Details: `{"eventBlocking":"Wall"}`},
	}
	nc, _, err := Parse("vuo.eventonly", ModuleMetadata{ClassName: "vuo.eventonly"}, annotations, reg)
	require.NoError(t, err)
	go_, ok := nc.InputByName("go")
	require.True(t, ok)
	assert.True(t, go_.HasPortAction)
}

func TestParseDefaultsPortActionForDataPortWithExplicitEventBlockingNone(t *testing.T) {
	reg := registry.New()
	annotations := []Annotation{
		{Function: types.FuncNodeEvent, Index: 0, ParamName: "value", Role: RoleInputData, TypeName: "real",
			Details: `{"eventBlocking":"None"}`},
	}
	nc, _, err := Parse("vuo.none", ModuleMetadata{ClassName: "vuo.none"}, annotations, reg)
	require.NoError(t, err)
	value, ok := nc.InputByName("value")
	require.True(t, ok)
	assert.True(t, value.HasPortAction)
}

func TestParseDoesNotDefaultPortActionForDataPortWithoutExplicitNone(t *testing.T) {
	reg := registry.New()
	annotations := []Annotation{
		{Function: types.FuncNodeEvent, Index: 0, ParamName: "value", Role: RoleInputData, TypeName: "real"},
	}
	nc, _, err := Parse("vuo.plain", ModuleMetadata{ClassName: "vuo.plain"}, annotations, reg)
	require.NoError(t, err)
	value, ok := nc.InputByName("value")
	require.True(t, ok)
	assert.False(t, value.HasPortAction)
}
