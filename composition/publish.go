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

func outcomeLabel(err error) string {
	if err != nil {
		return "rejected"
	}
	return "ok"
}

func (c *Composition) publishedList(direction string) []*PublishedPort {
	if direction == "input" {
		return c.PublishedInputs
	}
	return c.PublishedOutputs
}

func (c *Composition) setPublishedList(direction string, list []*PublishedPort) {
	if direction == "input" {
		c.PublishedInputs = list
	} else {
		c.PublishedOutputs = list
	}
}

func (c *Composition) findPublished(direction, name string) (*PublishedPort, int) {
	for i, pp := range c.publishedList(direction) {
		if pp.Name == name {
			return pp, i
		}
	}
	return nil, -1
}

// uniquePublishedName returns name if it is free in direction's list, or
// the first name+"_2", name+"_3", ... that is.
func (c *Composition) uniquePublishedName(direction, name string) string {
	if _, idx := c.findPublished(direction, name); idx < 0 {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d", name, n)
		if _, idx := c.findPublished(direction, candidate); idx < 0 {
			return candidate
		}
	}
}

// PublishInternal exposes an internal port at the composition boundary,
// creating or merging into a Published Port. An internal output port
// becomes a published output (a virtual sink reading its value); an
// internal input port becomes a published input (a virtual source feeding
// it). Merging requires type and event-only-flag compatibility; on
// mismatch the existing published port is renamed to a uniquely suffixed
// name and a new one is installed under the requested name.
func (c *Composition) PublishInternal(nodeId, portName, publishName string, forceEventOnly bool) (pp *PublishedPort, err error) {
	defer func() { metrics.CompositionMutationsTotal.WithLabelValues("publishInternal", outcomeLabel(err)).Inc() }()
	n, ok := c.Nodes[nodeId]
	if !ok {
		return nil, types.NewInvariantViolation(nodeId, "node does not exist")
	}

	var direction string
	var port *Port
	if p, ok := n.Outputs[portName]; ok {
		direction = "output"
		port = p
	} else if p, ok := n.Inputs[portName]; ok {
		direction = "input"
		port = p
	} else {
		return nil, types.NewInvariantViolation(portName, "port does not exist on node")
	}

	typeName := ""
	eventOnly := forceEventOnly || port.Class.DataType == nil
	if !eventOnly {
		typeName = port.Class.DataType.Name
	}

	if existing, idx := c.findPublished(direction, publishName); idx >= 0 {
		existingEventOnly := existing.TypeName == ""
		if existing.TypeName != typeName || existingEventOnly != eventOnly {
			renamed := c.uniquePublishedName(direction, publishName)
			existing.Name = renamed
			for _, cb := range c.Cables {
				if cb.FromNodeId == PublishedInputsNodeId && direction == "input" && cb.FromPort == publishName {
					cb.FromPort = renamed
				}
				if cb.ToNodeId == PublishedOutputsNodeId && direction == "output" && cb.ToPort == publishName {
					cb.ToPort = renamed
				}
			}
		} else {
			pp = existing
		}
	}

	if pp == nil {
		pp = &PublishedPort{Name: publishName, Direction: direction, TypeName: typeName}
		list := c.publishedList(direction)
		list = append(list, pp)
		c.setPublishedList(direction, list)
	}

	if direction == "output" {
		_, err = c.connectSynthetic(nodeId, portName, PublishedOutputsNodeId, publishName, false)
	} else {
		_, err = c.connectSynthetic(PublishedInputsNodeId, publishName, nodeId, portName, false)
	}
	if err != nil {
		return nil, err
	}
	return pp, nil
}

// connectSynthetic creates a Cable touching a published-port synthetic
// node id, bypassing the ordinary Node lookups Connect performs (synthetic
// nodes have no Node record).
func (c *Composition) connectSynthetic(fromNodeId, fromPort, toNodeId, toPort string, alwaysEventOnly bool) (*Cable, error) {
	cb := &Cable{Id: newId(), FromNodeId: fromNodeId, FromPort: fromPort, ToNodeId: toNodeId, ToPort: toPort, AlwaysEventOnly: alwaysEventOnly}
	c.Cables[cb.Id] = cb
	if p := c.port(fromNodeId, fromPort); p != nil {
		p.outgoing = append(p.outgoing, cb.Id)
	}
	if p := c.port(toNodeId, toPort); p != nil {
		p.incoming = append(p.incoming, cb.Id)
	}
	return cb, nil
}

// Unpublish removes a Published Port by direction and name, along with the
// cable connecting it to its internal port. The internal port's constant,
// if any, is left intact.
func (c *Composition) Unpublish(direction, name string) (err error) {
	defer func() { metrics.CompositionMutationsTotal.WithLabelValues("unpublish", outcomeLabel(err)).Inc() }()
	_, idx := c.findPublished(direction, name)
	if idx < 0 {
		return types.NewInvariantViolation(name, "published port does not exist")
	}
	syntheticNode := PublishedInputsNodeId
	if direction == "output" {
		syntheticNode = PublishedOutputsNodeId
	}
	for id, cb := range c.Cables {
		if (cb.FromNodeId == syntheticNode && cb.FromPort == name) || (cb.ToNodeId == syntheticNode && cb.ToPort == name) {
			delete(c.Cables, id)
		}
	}
	list := c.publishedList(direction)
	list = append(list[:idx], list[idx+1:]...)
	c.setPublishedList(direction, list)
	return nil
}

// SetActiveProtocol mutates the published-port lists to include protocol's
// mandated ports (creating missing ones; an existing port with a mandated
// name is adopted and its type reset to the mandated type, and no port is
// renamed), preserving non-protocol ports, and reordering so mandated ports
// come first in their direction. Passing nil clears the active protocol and un-marks every
// published port that had been flagged Mandated (it is not removed).
func (c *Composition) SetActiveProtocol(protocol *types.Protocol) error {
	defer metrics.CompositionMutationsTotal.WithLabelValues("setActiveProtocol", "ok").Inc()
	if protocol == nil {
		for _, pp := range c.PublishedInputs {
			pp.Mandated = false
		}
		for _, pp := range c.PublishedOutputs {
			pp.Mandated = false
		}
		c.ActiveProtocol = nil
		return nil
	}

	applyMandate := func(direction string, mandates []types.MandatedPort) {
		for _, m := range mandates {
			pp, idx := c.findPublished(direction, m.Name)
			if idx < 0 {
				pp = &PublishedPort{Name: m.Name, Direction: direction, TypeName: m.TypeName}
				list := c.publishedList(direction)
				list = append(list, pp)
				c.setPublishedList(direction, list)
			} else {
				pp.TypeName = m.TypeName
			}
			pp.Mandated = true
		}
		list := c.publishedList(direction)
		ordered := make([]*PublishedPort, 0, len(list))
		var rest []*PublishedPort
		mandateOrder := make(map[string]int, len(mandates))
		for i, m := range mandates {
			mandateOrder[m.Name] = i
		}
		byName := make(map[string]*PublishedPort, len(list))
		for _, pp := range list {
			byName[pp.Name] = pp
		}
		for _, m := range mandates {
			if pp, ok := byName[m.Name]; ok {
				ordered = append(ordered, pp)
			}
		}
		for _, pp := range list {
			if _, isMandate := mandateOrder[pp.Name]; !isMandate {
				rest = append(rest, pp)
			}
		}
		ordered = append(ordered, rest...)
		c.setPublishedList(direction, ordered)
	}

	applyMandate("input", protocol.MandatedInputs)
	applyMandate("output", protocol.MandatedOutputs)
	c.ActiveProtocol = protocol
	return nil
}
