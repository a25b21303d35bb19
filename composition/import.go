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
	"github.com/bittoy/compositron/registry"
	"github.com/bittoy/compositron/types"
)

// Catalog returns the Node Class Catalog backing this Composition, for
// collaborators (the Composition Parser/Serializer, Validation) that need
// direct access without the Composition Model interposing.
func (c *Composition) Catalog() types.NodeClassCatalog { return c.catalog }

// Registry returns the Type Registry backing this Composition.
func (c *Composition) Registry() *registry.TypeRegistry { return c.registry }

// ImportNode instantiates className as a Node using id verbatim rather
// than generating one, so the Composition Parser can preserve the text
// format's node identifiers across a parse/serialize round trip. An
// unresolved className installs a placeholder class into the catalog so
// the composition still loads (per the unresolved-dependency issue kind).
func (c *Composition) ImportNode(id, className, title, position, tint string) *Node {
	class, ok := c.catalog.Get(className)
	if !ok {
		class = c.catalog.AddPlaceholder(className)
	}
	n := &Node{
		Id:        id,
		ClassName: className,
		Class:     class,
		Title:     title,
		Position:  position,
		Tint:      tint,
		Inputs:    make(map[string]*Port),
		Outputs:   make(map[string]*Port),
	}
	for _, pc := range class.Inputs {
		n.Inputs[pc.Name] = &Port{Id: newId(), NodeId: id, Class: pc, Throttling: pc.DefaultEventThrottling, Constant: initialConstant(pc, c.Properties)}
	}
	for _, pc := range class.Outputs {
		n.Outputs[pc.Name] = &Port{Id: newId(), NodeId: id, Class: pc, Throttling: pc.DefaultEventThrottling}
	}
	c.Nodes[id] = n
	return n
}

// ImportAttachment records a parsed attachment relationship on an
// already-imported Node.
func (c *Composition) ImportAttachment(nodeId, hostNodeId, hostPort string) {
	if n, ok := c.Nodes[nodeId]; ok {
		n.Attachment = &AttachmentInfo{HostNodeId: hostNodeId, HostPort: hostPort}
	}
}

// ImportComment appends a parsed Comment verbatim.
func (c *Composition) ImportComment(text, position string) {
	c.Comments = append(c.Comments, Comment{Text: text, Position: position})
}

// ImportPublished appends a parsed Published Port directly, bypassing the
// name-collision-renaming behavior of PublishInternal: a text composition
// is assumed to already satisfy the published-name-uniqueness invariant
// (Validation will flag it otherwise).
func (c *Composition) ImportPublished(pp *PublishedPort) {
	if pp.Direction == "output" {
		c.PublishedOutputs = append(c.PublishedOutputs, pp)
	} else {
		c.PublishedInputs = append(c.PublishedInputs, pp)
	}
}

// ImportCable creates a Cable between two already-imported ports (ordinary
// or synthetic published-port node ids) without running Connect's
// category-compatibility and unification checks, which the Composition
// Parser instead reports as per-cable issues so the rest of the text still
// loads. extra preserves unrecognized bracket attributes.
func (c *Composition) ImportCable(fromNodeId, fromPort, toNodeId, toPort string, alwaysEventOnly, hidden bool, extra map[string]string) *Cable {
	cb := &Cable{
		Id:              newId(),
		FromNodeId:      fromNodeId,
		FromPort:        fromPort,
		ToNodeId:        toNodeId,
		ToPort:          toPort,
		AlwaysEventOnly: alwaysEventOnly,
		Hidden:          hidden,
		Extra:           extra,
	}
	c.Cables[cb.Id] = cb
	if p := c.port(fromNodeId, fromPort); p != nil {
		p.outgoing = append(p.outgoing, cb.Id)
	}
	if p := c.port(toNodeId, toPort); p != nil {
		p.incoming = append(p.incoming, cb.Id)
	}
	return cb
}
