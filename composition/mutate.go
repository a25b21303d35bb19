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

package composition

import (
	"fmt"

	"github.com/bittoy/compositron/metrics"
	"github.com/bittoy/compositron/types"
)

func track(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	metrics.CompositionMutationsTotal.WithLabelValues(operation, outcome).Inc()
}

// AddNode instantiates class (looked up in the catalog; a placeholder is
// acceptable) as a new Node, installing one Port per Port Class.
func (c *Composition) AddNode(className, title, position string) (node *Node, err error) {
	defer func() { track("addNode", err) }()
	class, ok := c.catalog.Get(className)
	if !ok {
		return nil, types.NewInvariantViolation(className, "node class not found in catalog")
	}
	if title == "" {
		title = class.DefaultTitle
	}
	n := &Node{
		Id:        newId(),
		ClassName: className,
		Class:     class,
		Title:     title,
		Position:  position,
		Inputs:    make(map[string]*Port),
		Outputs:   make(map[string]*Port),
	}
	for _, pc := range class.Inputs {
		n.Inputs[pc.Name] = &Port{Id: newId(), NodeId: n.Id, Class: pc, Throttling: pc.DefaultEventThrottling, Constant: initialConstant(pc, c.Properties)}
	}
	for _, pc := range class.Outputs {
		n.Outputs[pc.Name] = &Port{Id: newId(), NodeId: n.Id, Class: pc, Throttling: pc.DefaultEventThrottling}
	}
	c.Nodes[n.Id] = n
	return n, nil
}

// cablesTouching returns the ids of every Cable with nodeId as either
// endpoint.
func (c *Composition) cablesTouching(nodeId string) []string {
	var ids []string
	for id, cb := range c.Cables {
		if cb.FromNodeId == nodeId || cb.ToNodeId == nodeId {
			ids = append(ids, id)
		}
	}
	return ids
}

// RemoveNode removes a Node. If cascade is false, it fails when the Node
// is referenced by any Cable. If cascade is true, those Cables are removed
// first.
func (c *Composition) RemoveNode(nodeId string, cascade bool) (err error) {
	defer func() { track("removeNode", err) }()
	if _, ok := c.Nodes[nodeId]; !ok {
		return types.NewInvariantViolation(nodeId, "node does not exist")
	}
	touching := c.cablesTouching(nodeId)
	if len(touching) > 0 && !cascade {
		return types.NewInvariantViolation(nodeId, "node is referenced by a cable; pass cascade to remove it anyway")
	}
	for _, id := range touching {
		_ = c.Disconnect(id)
	}
	delete(c.Nodes, nodeId)
	return nil
}

func categoryCompatible(fromCat, toCat types.PortCategory) bool {
	if toCat == types.TriggerPort {
		return false
	}
	switch fromCat {
	case types.EventOnlyPort, types.DataAndEventPort, types.TriggerPort:
		return toCat == types.EventOnlyPort || toCat == types.DataAndEventPort
	default:
		return false
	}
}

// Connect creates a Cable from an output port to an input port. A request
// that duplicates an existing (fromPort, toPort) pair but with a different
// alwaysEventOnly value replaces the existing Cable.
func (c *Composition) Connect(fromNodeId, fromPort, toNodeId, toPort string, alwaysEventOnly bool) (cable *Cable, err error) {
	defer func() { track("connect", err) }()
	fromN, ok := c.Nodes[fromNodeId]
	if !ok {
		return nil, types.NewInvariantViolation(fromNodeId, "source node does not exist")
	}
	toN, ok := c.Nodes[toNodeId]
	if !ok {
		return nil, types.NewInvariantViolation(toNodeId, "destination node does not exist")
	}
	fromP, ok := fromN.Outputs[fromPort]
	if !ok {
		return nil, types.NewInvariantViolation(fromPort, "source port is not an output of its node")
	}
	toP, ok := toN.Inputs[toPort]
	if !ok {
		return nil, types.NewInvariantViolation(toPort, "destination port is not an input of its node")
	}
	if fromNodeId == toNodeId && fromPort == toPort {
		return nil, types.NewInvariantViolation(fromPort, "a cable cannot connect a port to itself")
	}
	if !categoryCompatible(fromP.Class.Category, toP.Class.Category) {
		return nil, types.NewTypeMismatch(toPort, "incompatible port categories for connection")
	}

	if !alwaysEventOnly && fromP.Class.DataType != nil && toP.Class.DataType != nil {
		if err := c.unifyTypes(fromN.Id, fromP, toN.Id, toP); err != nil {
			return nil, err
		}
	}

	// A duplicate connect request replaces the existing cable.
	for id, cb := range c.Cables {
		if cb.FromNodeId == fromNodeId && cb.FromPort == fromPort && cb.ToNodeId == toNodeId && cb.ToPort == toPort {
			cb.AlwaysEventOnly = alwaysEventOnly
			_ = id
			return cb, nil
		}
	}

	if toP.Class.Category == types.DataAndEventPort {
		for _, id := range toP.incoming {
			if cb, ok := c.Cables[id]; ok && cb.CarriesData(c) {
				return nil, types.NewInvariantViolation(toPort, "input port already has a connected data cable")
			}
		}
	}

	cb := &Cable{Id: newId(), FromNodeId: fromNodeId, FromPort: fromPort, ToNodeId: toNodeId, ToPort: toPort, AlwaysEventOnly: alwaysEventOnly}
	c.Cables[cb.Id] = cb
	fromP.outgoing = append(fromP.outgoing, cb.Id)
	toP.incoming = append(toP.incoming, cb.Id)
	if toP.Class.Category == types.DataAndEventPort && cb.CarriesData(c) {
		toP.Constant = ""
	}
	return cb, nil
}

// unifyTypes applies the Specialization Engine's single-compatible-type
// auto-unify rule when one endpoint is generic and the other concrete.
// Two concrete endpoints must already match by name. Two generic
// endpoints unify only if they are the same generic type variable.
func (c *Composition) unifyTypes(fromNodeId string, fromP *Port, toNodeId string, toP *Port) error {
	fromT, toT := fromP.Class.DataType, toP.Class.DataType
	switch {
	case !fromT.Generic && !toT.Generic:
		if fromT.Name != toT.Name {
			return types.NewTypeMismatch(toP.Class.Name, fmt.Sprintf("cannot connect %s to %s", fromT.Name, toT.Name))
		}
		return nil
	case fromT.Generic && toT.Generic:
		if fromT.Name != toT.Name {
			return types.NewTypeMismatch(toP.Class.Name, "distinct generic types do not unify without specialization")
		}
		return nil
	case fromT.Generic:
		return c.autoSpecialize(fromNodeId, fromP, toT.Name)
	default:
		return c.autoSpecialize(toNodeId, toP, fromT.Name)
	}
}

func (c *Composition) autoSpecialize(nodeId string, port *Port, concreteType string) error {
	compatible := c.registry.CompatibleSpecializations(port.Class.DataType.Name)
	if len(compatible) != 1 {
		return types.NewTypeMismatch(port.Class.Name, "generic type requires an explicit specialization choice")
	}
	if compatible[0] != concreteType {
		return types.NewTypeMismatch(port.Class.Name, fmt.Sprintf("%s is not a compatible specialization of %s", concreteType, port.Class.DataType.Name))
	}
	if c.Specializer == nil {
		return types.NewTypeMismatch(port.Class.Name, "generic network is unresolved: no specializer configured")
	}
	return c.Specializer.Specialize(c, nodeId, port.Class.Name, compatible[0])
}

// Disconnect removes a Cable.
func (c *Composition) Disconnect(cableId string) (err error) {
	defer func() { track("disconnect", err) }()
	cb, ok := c.Cables[cableId]
	if !ok {
		return types.NewInvariantViolation(cableId, "cable does not exist")
	}
	if fromP := c.port(cb.FromNodeId, cb.FromPort); fromP != nil {
		fromP.outgoing = removeString(fromP.outgoing, cableId)
	}
	if toP := c.port(cb.ToNodeId, cb.ToPort); toP != nil {
		toP.incoming = removeString(toP.incoming, cableId)
	}
	delete(c.Cables, cableId)
	return nil
}

func removeString(list []string, value string) []string {
	out := list[:0]
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}

// SetPortConstant sets an input data-and-event port's constant value. It
// fails if the port is not a data-and-event input, or has a connected data
// cable.
func (c *Composition) SetPortConstant(nodeId, portName, value string) (err error) {
	defer func() { track("setPortConstant", err) }()
	n, ok := c.Nodes[nodeId]
	if !ok {
		return types.NewInvariantViolation(nodeId, "node does not exist")
	}
	p, ok := n.Inputs[portName]
	if !ok || p.Class.Category != types.DataAndEventPort {
		return types.NewInvariantViolation(portName, "port is not an input data-and-event port")
	}
	for _, id := range p.incoming {
		if cb, ok := c.Cables[id]; ok && cb.CarriesData(c) {
			return types.NewInvariantViolation(portName, "port has a connected data cable")
		}
	}
	p.Constant = value
	return nil
}

// SetTriggerThrottling overrides a trigger port's event throttling policy.
func (c *Composition) SetTriggerThrottling(nodeId, portName string, throttle types.EventThrottling) (err error) {
	defer func() { track("setTriggerThrottling", err) }()
	n, ok := c.Nodes[nodeId]
	if !ok {
		return types.NewInvariantViolation(nodeId, "node does not exist")
	}
	p, ok := n.Outputs[portName]
	if !ok || p.Class.Category != types.TriggerPort {
		return types.NewInvariantViolation(portName, "port is not a trigger port")
	}
	p.Throttling = throttle
	return nil
}
