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

// Command example walks through the six end-to-end scenarios of the
// compiler front end, end to end and in order: load-then-serialize,
// event-only promotion, generic specialization, specialization rollback,
// unpublish-with-orphan-cleanup, and protocol activation. Each step is
// exercised against the real Type Registry, Node Class Catalog,
// Composition Model, Composition Parser/Serializer, Specialization Engine
// and Validation packages — nothing here is mocked.
package main

import (
	"fmt"
	"log"

	"github.com/bittoy/compositron/catalog"
	"github.com/bittoy/compositron/composition"
	"github.com/bittoy/compositron/protocol"
	"github.com/bittoy/compositron/registry"
	"github.com/bittoy/compositron/serializer"
	"github.com/bittoy/compositron/specialize"
	"github.com/bittoy/compositron/types"
	"github.com/bittoy/compositron/validate"
)

func mathAddClass() *types.NodeClass {
	real := &types.ValueType{Name: "real"}
	return &types.NodeClass{
		Name:        "vuo.math.add",
		Substantial: true,
		Inputs: []*types.PortClass{
			{Name: types.RefreshPortName, Category: types.EventOnlyPort},
			{Name: "values[0]", Category: types.DataAndEventPort, DataType: real},
			{Name: "values[1]", Category: types.DataAndEventPort, DataType: real},
		},
		Outputs: []*types.PortClass{
			{Name: "sum", Category: types.DataAndEventPort, DataType: real},
		},
	}
}

// scenario 1 and 2: load a two-node composition from text, round-trip it,
// then demote its one cable to event-only.
func loadThenSerializeAndPromote(cat *catalog.Catalog, reg *registry.TypeRegistry) *composition.Composition {
	p := serializer.New(cat, reg)
	src := `digraph G { a [type="vuo.math.add", pos="0,0"]; b [type="vuo.math.add", pos="100,0"]; a:sum -> b:values[0]; }`

	doc, issues, err := p.Decode(src)
	if err != nil {
		log.Fatalf("decode: %v", err)
	}
	if !issues.Empty() {
		log.Fatalf("unexpected issues loading a well-formed composition: %v", issues.Issues())
	}
	comp := doc.(*composition.Composition)
	fmt.Printf("scenario 1: loaded %d nodes, %d cable\n", len(comp.Nodes), len(comp.Cables))

	out, err := p.Encode(comp)
	if err != nil {
		log.Fatalf("encode: %v", err)
	}
	doc2, issues2, err := p.Decode(out)
	if err != nil || !issues2.Empty() {
		log.Fatalf("round-trip decode failed: %v / %v", err, issues2.Issues())
	}
	fmt.Printf("scenario 1: round-trip reproduced %d nodes, %d cable\n", len(doc2.(*composition.Composition).Nodes), len(doc2.(*composition.Composition).Cables))

	var cableId string
	for id := range comp.Cables {
		cableId = id
	}
	if err := comp.Disconnect(cableId); err != nil {
		log.Fatalf("disconnect: %v", err)
	}
	cb, err := comp.Connect("a", "sum", "b", "values[0]", true)
	if err != nil {
		log.Fatalf("connect always-event-only: %v", err)
	}
	fmt.Printf("scenario 2: cable alwaysEventOnly=%v carriesData=%v\n", cb.AlwaysEventOnly, cb.CarriesData(comp))
	return comp
}

// scenario 3 and 4: specialize a generic vuo.list.get network to "real",
// then show that specializing a fresh instance to an incompatible type
// rolls back cleanly.
func specializeAndRollback(reg *registry.TypeRegistry) {
	cat := catalog.New()
	reg.InternValueType(&types.ValueType{
		Name: "GenericType1", Generic: true,
		CompatibleSpecializations: []string{"real", "point2d"},
		DefaultSpecialization:     "real",
	})
	generic := &types.ValueType{Name: "GenericType1", Generic: true}

	genericClass := &types.NodeClass{
		Name:        "vuo.list.get",
		Substantial: true,
		Inputs: []*types.PortClass{
			{Name: types.RefreshPortName, Category: types.EventOnlyPort},
			{Name: "list", Category: types.DataAndEventPort, DataType: generic},
		},
		Outputs: []*types.PortClass{
			{Name: "item", Category: types.DataAndEventPort, DataType: generic},
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

	comp := composition.New("G2", cat, reg)
	eng := specialize.New(cat, reg)
	comp.Specializer = eng
	comp.ImportNode("get", "vuo.list.get", "", "", "")

	if err := eng.Specialize(comp, "get", "list", "real"); err != nil {
		log.Fatalf("specialize: %v", err)
	}
	n, _ := comp.Node("get")
	fmt.Printf("scenario 3: get's class is now %q\n", n.ClassName)

	comp.ImportNode("get2", "vuo.list.get", "", "", "")
	err := eng.Specialize(comp, "get2", "list", "text")
	fmt.Printf("scenario 4: specializing to an incompatible type failed as %v\n", err)
}

// scenario 5: publish an internal input port, then unpublish it and show
// its cable to the synthetic published-input node is gone.
func unpublishWithOrphanCleanup(cat *catalog.Catalog, reg *registry.TypeRegistry) {
	sink := &types.NodeClass{
		Name:        "vuo.sink",
		Substantial: true,
		Inputs: []*types.PortClass{
			{Name: types.RefreshPortName, Category: types.EventOnlyPort},
			{Name: "in", Category: types.DataAndEventPort, DataType: &types.ValueType{Name: "real"}},
		},
	}
	cat.Add(sink)
	comp := composition.New("G3", cat, reg)
	n, err := comp.AddNode("vuo.sink", "", "")
	if err != nil {
		log.Fatalf("addNode: %v", err)
	}

	if _, err := comp.PublishInternal(n.Id, "in", "X", false); err != nil {
		log.Fatalf("publishInternal: %v", err)
	}
	fmt.Printf("scenario 5: published input X wired, %d cable(s)\n", len(comp.Cables))

	if err := comp.Unpublish("input", "X"); err != nil {
		log.Fatalf("unpublish: %v", err)
	}
	fmt.Printf("scenario 5: after unpublish, %d published input(s), %d cable(s)\n", len(comp.PublishedInputs), len(comp.Cables))
}

// scenario 6: activate the ImageFilter protocol on an empty composition and
// show its three mandated published ports appear in the documented order.
func activateProtocol(cat *catalog.Catalog, reg *registry.TypeRegistry) {
	comp := composition.New("G4", cat, reg)
	if err := comp.SetActiveProtocol(protocol.ImageFilter); err != nil {
		log.Fatalf("setActiveProtocol: %v", err)
	}
	fmt.Print("scenario 6: published inputs in order:")
	for _, pp := range comp.PublishedInputs {
		fmt.Printf(" %s(%s)", pp.Name, pp.TypeName)
	}
	fmt.Println()
	fmt.Print("scenario 6: published outputs in order:")
	for _, pp := range comp.PublishedOutputs {
		fmt.Printf(" %s(%s)", pp.Name, pp.TypeName)
	}
	fmt.Println()

	issues := validate.Validate(comp)
	fmt.Printf("scenario 6: validation found %d issue(s) on an otherwise-empty but protocol-compliant composition\n", len(issues.Issues()))
}

func main() {
	cat := catalog.New()
	reg := registry.New()
	cat.Add(mathAddClass())

	loadThenSerializeAndPromote(cat, reg)
	specializeAndRollback(reg)
	unpublishWithOrphanCleanup(catalog.New(), reg)
	activateProtocol(catalog.New(), reg)
}
