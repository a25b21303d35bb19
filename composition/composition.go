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

// Package composition implements the Composition Model: the mutable graph
// of Nodes, Ports, Cables and Published Ports, and the mutation API that
// keeps it well-formed. Nodes and Ports are arena-allocated by stable,
// composition-scoped identifiers rather than linked by pointer, so the
// graph (which is naturally cyclic) carries no back-pointer cycles.
package composition

import (
	"github.com/gofrs/uuid/v5"

	"github.com/bittoy/compositron/registry"
	"github.com/bittoy/compositron/types"
)

// PublishedInputsNodeId and PublishedOutputsNodeId are the synthetic node
// identifiers cables to/from published ports reference, per the documented
// "published ports connect via cables just like ordinary ports" contract.
const (
	PublishedInputsNodeId  = "@PublishedInputs"
	PublishedOutputsNodeId = "@PublishedOutputs"
)

// Port is an instance of a Port Class on a Node.
type Port struct {
	Id       string
	NodeId   string
	Class    *types.PortClass
	Constant string
	// Throttling is the per-instance override of a trigger port's default
	// event throttling policy; meaningless for non-trigger ports.
	Throttling types.EventThrottling

	incoming []string // cable ids whose destination is this port
	outgoing []string // cable ids whose source is this port
}

// Node is an instance of a Node Class.
type Node struct {
	Id       string
	ClassName string
	Class    *types.NodeClass
	Title    string
	Position string
	Tint     string
	// Attachment is non-nil when this Node is visually collapsed onto a
	// host Node's input port.
	Attachment *AttachmentInfo

	Inputs  map[string]*Port
	Outputs map[string]*Port

	// Extra preserves node attributes the Composition Parser does not
	// interpret, so re-serialization reproduces them verbatim.
	Extra map[string]string
}

// AttachmentInfo records the host relationship for a collapsed Node.
type AttachmentInfo struct {
	HostNodeId string
	HostPort   string
}

// Cable is a directed connection between two ports.
type Cable struct {
	Id              string
	FromNodeId      string
	FromPort        string
	ToNodeId        string
	ToPort          string
	AlwaysEventOnly bool
	Hidden          bool

	// Extra preserves cable attributes the Composition Parser does not
	// interpret, so re-serialization reproduces them verbatim.
	Extra map[string]string
}

// CarriesData reports whether this cable transmits a value (as opposed to
// a pure event): both endpoints must be data ports and the cable must not
// be downgraded via AlwaysEventOnly.
func (c *Cable) CarriesData(comp *Composition) bool {
	if c.AlwaysEventOnly {
		return false
	}
	from := comp.port(c.FromNodeId, c.FromPort)
	to := comp.port(c.ToNodeId, c.ToPort)
	if from == nil || to == nil {
		return false
	}
	return from.Class.DataType != nil && to.Class.DataType != nil
}

// PublishedPort is a port exposed at the composition boundary.
type PublishedPort struct {
	Name      string
	Direction string // "input" or "output"
	TypeName  string // empty for event-only
	Detail    types.PortDetail
	// Mandated is true when this published port exists to satisfy the
	// active Protocol's requirements; mandated ports are kept first in
	// their direction's ordered list.
	Mandated bool
}

// Comment is a text annotation at an opaque position, carried through
// verbatim by the core.
type Comment struct {
	Text     string
	Position string
}

// Metadata is the composition-level descriptive record.
type Metadata struct {
	Name           string
	Author         string
	Copyright      string
	Description    string
	VersionHistory []string
	IconPath       string
	LastSavedVersion string
}

// Composition is the root of the mutable graph.
type Composition struct {
	Metadata Metadata

	Nodes   map[string]*Node
	Cables  map[string]*Cable
	PublishedInputs  []*PublishedPort
	PublishedOutputs []*PublishedPort
	Comments []Comment

	ActiveProtocol *types.Protocol

	// Properties is the global property set `defaultExpr` expressions on a
	// Port Class's Detail are evaluated against, lazily, the first time a
	// newly instantiated Port needs an initial constant (see defaultexpr.go).
	Properties types.Properties

	catalog  types.NodeClassCatalog
	registry *registry.TypeRegistry

	// Specializer, when set, lets Connect auto-specialize a generic
	// network when exactly one compatible concrete type resolves it (see
	// package specialize). Left nil, such connections are rejected with a
	// type-mismatch issue instead of silently staying generic.
	Specializer Specializer

	mutationDepth int
}

// Specializer is implemented by package specialize's Engine.
type Specializer interface {
	Specialize(comp *Composition, nodeId, portName, concreteType string) error
}

// IsCompositionDocument satisfies types.CompositionDocument.
func (c *Composition) IsCompositionDocument() {}

// New returns an empty Composition backed by catalog and reg.
func New(name string, catalog types.NodeClassCatalog, reg *registry.TypeRegistry) *Composition {
	return &Composition{
		Metadata: Metadata{Name: name},
		Nodes:    make(map[string]*Node),
		Cables:   make(map[string]*Cable),
		catalog:  catalog,
		registry: reg,
	}
}

// NewId returns a fresh composition-scoped identifier, for collaborators
// (the Specialization Engine, Validation) that must mint Port ids of their
// own when rewiring a Node onto a replacement Node Class.
func NewId() string { return newId() }

func newId() string {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil.String()
	}
	return id.String()
}

// BeginMutation and EndMutation bracket a batch of mutations. The core
// itself performs no intermediate validation during a mutation (Validation
// is always run explicitly by the caller), so these are bookkeeping
// bookends only: they let a caller coalesce its own change notifications.
func (c *Composition) BeginMutation() { c.mutationDepth++ }
func (c *Composition) EndMutation() {
	if c.mutationDepth > 0 {
		c.mutationDepth--
	}
}

// InMutation reports whether a BeginMutation/EndMutation batch is open.
func (c *Composition) InMutation() bool { return c.mutationDepth > 0 }

func (c *Composition) port(nodeId, portName string) *Port {
	n, ok := c.Nodes[nodeId]
	if !ok {
		return nil
	}
	if p, ok := n.Inputs[portName]; ok {
		return p
	}
	if p, ok := n.Outputs[portName]; ok {
		return p
	}
	return nil
}

// Port looks up a Port by owning node id and port class name, including
// ports on ordinary Nodes only (not published synthetic ports).
func (c *Composition) Port(nodeId, portName string) (*Port, bool) {
	p := c.port(nodeId, portName)
	return p, p != nil
}

// Node looks up a Node by id.
func (c *Composition) Node(id string) (*Node, bool) {
	n, ok := c.Nodes[id]
	return n, ok
}

// CableByID looks up a Cable by id.
func (c *Composition) CableByID(id string) (*Cable, bool) {
	cb, ok := c.Cables[id]
	return cb, ok
}
