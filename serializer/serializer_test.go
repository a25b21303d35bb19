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

package serializer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bittoy/compositron/catalog"
	"github.com/bittoy/compositron/composition"
	"github.com/bittoy/compositron/registry"
	"github.com/bittoy/compositron/types"
)

func addClass(cat *catalog.Catalog, name string, inputs, outputs []string) {
	nc := &types.NodeClass{Name: name, Substantial: true}
	nc.Inputs = append(nc.Inputs, &types.PortClass{Name: types.RefreshPortName, Category: types.EventOnlyPort})
	for _, n := range inputs {
		nc.Inputs = append(nc.Inputs, &types.PortClass{
			Name: n, Category: types.DataAndEventPort,
			DataType: &types.ValueType{Name: "real"},
		})
	}
	for _, n := range outputs {
		nc.Outputs = append(nc.Outputs, &types.PortClass{
			Name: n, Category: types.DataAndEventPort,
			DataType: &types.ValueType{Name: "real"},
		})
	}
	cat.Add(nc)
}

func newParser() (*Parser, *catalog.Catalog) {
	cat := catalog.New()
	reg := registry.New()
	// vuo.math.add here is a fixed two-input adder whose Port Class names
	// happen to carry an index suffix, matching the literal port name
	// "values[0]" used by the documented end-to-end example verbatim.
	addClass(cat, "vuo.math.add", []string{"values[0]", "values[1]"}, []string{"sum"})
	return New(cat, reg), cat
}

// scenario 1: Load-then-serialize.
func TestDecodeThenEncodeRoundTrips(t *testing.T) {
	p, _ := newParser()
	src := `digraph G { a [type="vuo.math.add", pos="0,0"]; b [type="vuo.math.add", pos="100,0"]; a:sum -> b:values[0]; }`

	doc, issues, err := p.Decode(src)
	require.NoError(t, err)
	require.True(t, issues.Empty())

	comp := doc.(*composition.Composition)
	require.Len(t, comp.Nodes, 2)
	require.Len(t, comp.Cables, 1)

	var cb *composition.Cable
	for _, c := range comp.Cables {
		cb = c
	}
	assert.Equal(t, "a", cb.FromNodeId)
	assert.Equal(t, "sum", cb.FromPort)
	assert.Equal(t, "b", cb.ToNodeId)
	assert.Equal(t, "values[0]", cb.ToPort)

	out, err := p.Encode(doc)
	require.NoError(t, err)

	doc2, issues2, err := p.Decode(out)
	require.NoError(t, err)
	require.True(t, issues2.Empty())
	comp2 := doc2.(*composition.Composition)
	require.Len(t, comp2.Nodes, 2)
	require.Len(t, comp2.Cables, 1)

	out2, err := p.Encode(doc2)
	require.NoError(t, err)
	assert.Equal(t, out, out2)
}

// scenario 2: Event-only promotion.
func TestEventOnlyPromotionClearsCarriesData(t *testing.T) {
	p, _ := newParser()
	src := `digraph G { a [type="vuo.math.add", pos="0,0"]; b [type="vuo.math.add", pos="100,0"]; a:sum -> b:values[0]; }`
	doc, _, err := p.Decode(src)
	require.NoError(t, err)
	comp := doc.(*composition.Composition)

	var cableId string
	for id := range comp.Cables {
		cableId = id
	}
	require.NoError(t, comp.Disconnect(cableId))
	_, err = comp.Connect("a", "sum", "b", "values[0]", true)
	require.NoError(t, err)

	var cb *composition.Cable
	for _, c := range comp.Cables {
		cb = c
	}
	require.NotNil(t, cb)
	assert.True(t, cb.AlwaysEventOnly)
	assert.False(t, cb.CarriesData(comp))
}

func TestDecodeUnknownClassYieldsPlaceholderAndWarning(t *testing.T) {
	p, _ := newParser()
	src := `digraph G { a [type="vuo.unknown.thing", pos="0,0"]; }`

	doc, issues, err := p.Decode(src)
	require.NoError(t, err)
	comp := doc.(*composition.Composition)

	n, ok := comp.Node("a")
	require.True(t, ok)
	assert.False(t, n.Class.Substantial)

	found := false
	for _, issue := range issues.Issues() {
		if issue.Kind == types.UnresolvedDependency {
			found = true
		}
	}
	assert.True(t, found, "expected an unresolved-dependency issue")
}

func TestDecodeOrphanCableCollectsIssueAndLoadsRest(t *testing.T) {
	p, _ := newParser()
	src := `digraph G {
		a [type="vuo.math.add", pos="0,0"];
		a:sum -> ghost:input;
	}`

	doc, issues, err := p.Decode(src)
	require.NoError(t, err)
	comp := doc.(*composition.Composition)

	assert.Len(t, comp.Nodes, 1)
	assert.Len(t, comp.Cables, 0)
	assert.False(t, issues.Empty())
	assert.False(t, issues.HasFatal(), "composition-parse-error is collected, not fatal")
}

func TestEncodePreservesUnknownNodeAttributesVerbatim(t *testing.T) {
	p, _ := newParser()
	src := `digraph G { a [type="vuo.math.add", pos="0,0", futureAttr="kept"]; }`
	doc, _, err := p.Decode(src)
	require.NoError(t, err)

	out, err := p.Encode(doc)
	require.NoError(t, err)
	assert.Contains(t, out, `futureAttr="kept"`)
}
