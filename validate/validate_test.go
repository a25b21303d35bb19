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

package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bittoy/compositron/catalog"
	"github.com/bittoy/compositron/composition"
	"github.com/bittoy/compositron/protocol"
	"github.com/bittoy/compositron/registry"
	"github.com/bittoy/compositron/types"
)

func dataClass(reg *registry.TypeRegistry, name, typeName string, trigger bool) *types.NodeClass {
	vt := reg.Intern(typeName)
	nc := &types.NodeClass{
		Name:        name,
		Substantial: true,
		Inputs: []*types.PortClass{
			{Name: types.RefreshPortName, Category: types.EventOnlyPort},
			{Name: "in", Category: types.DataAndEventPort, DataType: vt},
		},
		Outputs: []*types.PortClass{
			{Name: "out", Category: types.DataAndEventPort, DataType: vt},
		},
	}
	if trigger {
		nc.Outputs = append(nc.Outputs, &types.PortClass{
			Name: "fired", Category: types.TriggerPort, DefaultEventThrottling: types.EventThrottlingDrop,
		})
	}
	return nc
}

func newFixture(t *testing.T) (*composition.Composition, *catalog.Catalog, *registry.TypeRegistry) {
	t.Helper()
	cat := catalog.New()
	reg := registry.New()
	cat.Add(dataClass(reg, "loop.a", "real", false))
	cat.Add(dataClass(reg, "loop.b", "real", false))
	cat.Add(dataClass(reg, "loop.a.throttled", "real", true))
	cat.Add(dataClass(reg, "loop.b.throttled", "real", true))
	comp := composition.New("V", cat, reg)
	return comp, cat, reg
}

func TestFeedbackLoopReportsUnthrottledDataCycle(t *testing.T) {
	comp, _, _ := newFixture(t)
	comp.ImportNode("a", "loop.a", "", "", "")
	comp.ImportNode("b", "loop.b", "", "", "")
	_, err := comp.Connect("a", "out", "b", "in", false)
	require.NoError(t, err)
	_, err = comp.Connect("b", "out", "a", "in", false)
	require.NoError(t, err)

	issues := Validate(comp).Issues()
	var found bool
	for _, issue := range issues {
		if issue.Kind == types.InvariantViolation {
			found = true
		}
	}
	assert.True(t, found, "expected a feedback-loop issue")
}

func TestFeedbackLoopAllowsCycleWhenAllParticipantsDropThrottled(t *testing.T) {
	comp, _, _ := newFixture(t)
	comp.ImportNode("a", "loop.a.throttled", "", "", "")
	comp.ImportNode("b", "loop.b.throttled", "", "", "")
	_, err := comp.Connect("a", "out", "b", "in", false)
	require.NoError(t, err)
	_, err = comp.Connect("b", "out", "a", "in", false)
	require.NoError(t, err)

	issues := Validate(comp).Issues()
	for _, issue := range issues {
		assert.NotContains(t, issue.Message, "feedback loop")
	}
}

func TestFeedbackLoopAllowsEventOnlyCycle(t *testing.T) {
	comp, _, _ := newFixture(t)
	comp.ImportNode("a", "loop.a", "", "", "")
	comp.ImportNode("b", "loop.b", "", "", "")
	_, err := comp.Connect("a", "out", "b", "in", true)
	require.NoError(t, err)
	_, err = comp.Connect("b", "out", "a", "in", true)
	require.NoError(t, err)

	issues := Validate(comp).Issues()
	for _, issue := range issues {
		assert.NotContains(t, issue.Message, "feedback loop")
	}
}

func TestDanglingConnectionFlagsConcreteTypeMismatch(t *testing.T) {
	comp, cat, reg := newFixture(t)
	cat.Add(dataClass(reg, "loop.text", "text", false))
	comp.ImportNode("a", "loop.a", "", "", "")
	comp.ImportNode("b", "loop.text", "", "", "")
	// ImportCable bypasses Connect's own type check, simulating a mismatch
	// reaching Validation from a text-format import that skipped it.
	comp.ImportCable("a", "out", "b", "in", false, false, nil)

	issues := Validate(comp).Issues()
	var found bool
	for _, issue := range issues {
		if issue.Kind == types.TypeMismatch {
			found = true
		}
	}
	assert.True(t, found, "expected a dangling-connection type-mismatch issue")
}

func TestDanglingConnectionFlagsMissingEndpoint(t *testing.T) {
	comp, _, _ := newFixture(t)
	comp.ImportNode("a", "loop.a", "", "", "")
	comp.ImportCable("a", "out", "ghost", "in", true, false, nil)

	issues := Validate(comp).Issues()
	var found bool
	for _, issue := range issues {
		if issue.Kind == types.InvariantViolation {
			found = true
		}
	}
	assert.True(t, found, "expected an invariant-violation for the missing destination node")
}

func TestAttachmentFlagsMissingHost(t *testing.T) {
	comp, _, _ := newFixture(t)
	n := comp.ImportNode("attachee", "loop.a", "", "", "")
	n.Attachment = &composition.AttachmentInfo{HostNodeId: "ghost-host", HostPort: "in"}

	issues := Validate(comp).Issues()
	var found bool
	for _, issue := range issues {
		if issue.EntityId == "attachee" {
			found = true
		}
	}
	assert.True(t, found, "expected an attachment issue naming the orphaned node")
}

func TestProtocolComplianceFlagsMissingMandatedPort(t *testing.T) {
	comp, _, _ := newFixture(t)
	comp.ActiveProtocol = protocol.ImageFilter

	issues := Validate(comp).Issues()
	require.NotEmpty(t, issues)
	var names []string
	for _, issue := range issues {
		names = append(names, issue.EntityId)
	}
	assert.Contains(t, names, "time")
	assert.Contains(t, names, "image")
	assert.Contains(t, names, "outputImage")
}

func TestProtocolComplianceScriptEnforcesPredicate(t *testing.T) {
	comp, _, _ := newFixture(t)
	comp.ActiveProtocol = &types.Protocol{
		Name: "AtLeastOneInput",
		Compliance: &types.ComplianceScript{
			Source: `function compliant(inputs, outputs) { return inputs.length >= 1; }`,
		},
	}

	issues := Validate(comp).Issues()
	require.NotEmpty(t, issues)

	comp.ImportPublished(&composition.PublishedPort{Name: "whatever", Direction: "input"})
	issues = Validate(comp).Issues()
	assert.Empty(t, issues)
}
