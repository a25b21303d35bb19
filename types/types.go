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

// Package types defines the core data model and interfaces shared across the
// composition compiler front end: value types, port classes, node classes,
// protocols, configuration and issues. The mutable composition graph (nodes,
// ports, cables, published ports) is defined in package composition.
//
// The package intentionally carries no behavior beyond small invariant-free
// accessors; the Module Parser, Type Registry, Node Class Catalog,
// Composition Model, Composition Parser/Serializer, Specialization Engine
// and Validation components (each its own package) operate on these types.
package types

import "fmt"

// PortCategory is the declared kind of a Port Class.
type PortCategory int

const (
	// NotAPort marks a lifecycle parameter that is not a port declaration
	// (instance data, or any other non-port argument).
	NotAPort PortCategory = iota
	// EventOnlyPort carries no data, only an event.
	EventOnlyPort
	// DataAndEventPort carries both a value and its accompanying event.
	DataAndEventPort
	// TriggerPort is an output-only port that spontaneously fires events.
	TriggerPort
)

func (c PortCategory) String() string {
	switch c {
	case EventOnlyPort:
		return "event-only"
	case DataAndEventPort:
		return "data-and-event"
	case TriggerPort:
		return "trigger"
	default:
		return "not-a-port"
	}
}

// EventBlocking describes how an input port propagates a received event to
// its node's outputs. Only meaningful on input ports.
type EventBlocking int

const (
	EventBlockingNone EventBlocking = iota // transmitted to all outputs
	EventBlockingDoor                      // transmitted to some outputs
	EventBlockingWall                      // never transmitted
)

func (b EventBlocking) String() string {
	switch b {
	case EventBlockingDoor:
		return "Door"
	case EventBlockingWall:
		return "Wall"
	default:
		return "None"
	}
}

// EventThrottling describes how a trigger port behaves when its downstream
// nodes are still processing a previous event. Only meaningful on trigger
// ports (as a class default, and as a per-instance override).
type EventThrottling int

const (
	EventThrottlingEnqueue EventThrottling = iota
	EventThrottlingDrop
)

func (t EventThrottling) String() string {
	if t == EventThrottlingDrop {
		return "Drop"
	}
	return "Enqueue"
}

// ListTypePrefix is the name-prefix convention that marks a Value Type as
// "list of" the type named by the remainder of the name.
const ListTypePrefix = "VuoList_"

// GenericTypePrefix is the name-prefix convention that marks a Value Type
// name as a generic placeholder rather than a concrete type.
const GenericTypePrefix = "GenericType"

// IsGenericTypeName reports whether name matches the generic-name pattern
// (the innermost name, after stripping any list prefix, begins with
// GenericTypePrefix).
func IsGenericTypeName(name string) bool {
	inner := InnermostName(name)
	return len(inner) >= len(GenericTypePrefix) && inner[:len(GenericTypePrefix)] == GenericTypePrefix
}

// ValueType is the single authoritative record for a named value type,
// interned by the Type Registry. A ValueType is either concrete (it has a
// known underlying storage) or generic (a type variable with an associated
// set of compatible concrete specializations).
type ValueType struct {
	// Name is the unique, Registry-interned name of this type.
	Name string
	// Generic is true when Name is a type-variable placeholder rather than
	// a concrete type.
	Generic bool
	// DefaultSpecialization is the concrete type name chosen when a generic
	// type must be specialized without an explicit caller choice (may be
	// empty if the declaring node class specified none).
	DefaultSpecialization string
	// CompatibleSpecializations lists, in declaration order, the concrete
	// type names this generic type may be specialized to. Empty for
	// concrete types.
	CompatibleSpecializations []string
}

// IsListType reports whether name refers to a "list of" type per the
// name-prefix convention.
func IsListType(name string) bool {
	return len(name) > len(ListTypePrefix) && name[:len(ListTypePrefix)] == ListTypePrefix
}

// InnermostName strips the list-type prefix, returning the element type
// name. If name is not a list type, it is returned unchanged.
func InnermostName(name string) string {
	if IsListType(name) {
		return name[len(ListTypePrefix):]
	}
	return name
}

// PortDetail carries the optional key/value metadata attached to a Port
// Class via a module's `Details:` annotation tag, or to a Published Port
// directly. Unrecognized keys are preserved verbatim by whatever decoded
// the map this struct was built from (see moduleparser and serializer).
type PortDetail struct {
	// Name is the human-readable display name, distinct from the port's
	// identifier name.
	Name string `mapstructure:"name" structs:"name,omitempty"`
	// Default is the port's default value, serialized as an opaque string
	// the runtime collaborator is responsible for interpreting.
	Default string `mapstructure:"default" structs:"default,omitempty"`
	// DefaultExpr, when non-empty, is an expr-lang expression evaluated
	// against the owning Composition's Properties to compute a new Port's
	// initial constant instead of using the literal Default (see
	// SPEC_FULL.md domain stack: expr-lang).
	DefaultExpr     string `mapstructure:"defaultExpr" structs:"defaultExpr,omitempty"`
	SuggestedMin    string `mapstructure:"suggestedMin" structs:"suggestedMin,omitempty"`
	SuggestedMax    string `mapstructure:"suggestedMax" structs:"suggestedMax,omitempty"`
	SuggestedStep   string `mapstructure:"suggestedStep" structs:"suggestedStep,omitempty"`
	// EventBlocking mirrors the input port's blocking policy; present here
	// so Details round-trips it even for callers that only see PortDetail.
	EventBlocking string `mapstructure:"eventBlocking" structs:"eventBlocking,omitempty"`
	// EventThrottling mirrors a trigger port's default throttling policy.
	EventThrottling string `mapstructure:"eventThrottling" structs:"eventThrottling,omitempty"`
	HasPortAction   bool   `mapstructure:"hasPortAction" structs:"hasPortAction,omitempty"`
	// Data pairs an OutputEvent/InputEvent detail block with the data
	// parameter it should merge with to form one data-and-event port.
	Data string `mapstructure:"data" structs:"data,omitempty"`
	// Extra preserves any key this struct did not recognize, so a
	// Composition Parser can round-trip attributes it does not understand.
	Extra map[string]interface{} `mapstructure:"-" structs:"-"`
}

// PortClass is the declaration of a port on a Node Class.
type PortClass struct {
	// Name is the port's identifier, unique within its owning Node Class's
	// input or output list.
	Name string
	// DisplayName is the human-readable label; falls back to Name.
	DisplayName string
	Category    PortCategory
	// DataType is non-nil only for DataAndEventPort.
	DataType *ValueType
	// EventBlocking only applies to input ports.
	EventBlocking EventBlocking
	// DefaultEventThrottling only applies to trigger ports.
	DefaultEventThrottling EventThrottling
	// HasPortAction only applies to input ports.
	HasPortAction bool
	Detail        PortDetail
}

func (p *PortClass) String() string {
	return fmt.Sprintf("PortClass(%s, %s)", p.Name, p.Category)
}

// InstanceDataDescriptor marks a stateful Node Class's instance-data
// parameter (the pointer passed to every lifecycle entry as InstanceData).
type InstanceDataDescriptor struct {
	// TypeName is the Value Type name of the instance data, if declared via
	// a Type: tag; stateful classes are not required to type it.
	TypeName string
}

// TriggerDescriptor describes one internal trigger of a subcomposition Node
// Class, recovered from the module metadata's `triggers` array.
type TriggerDescriptor struct {
	Name              string
	DataType          string
	DefaultThrottling EventThrottling
}

// GenericTypeInfo is the declaring node class's metadata for one generic
// type variable: `genericTypes.<name>.compatibleTypes` and an optional
// `defaultType`.
type GenericTypeInfo struct {
	DefaultType     string
	CompatibleTypes []string
}

// LifecycleFunctionKind identifies which of a module's lifecycle entry
// points a FunctionDescriptor describes.
type LifecycleFunctionKind string

const (
	FuncNodeEvent         LifecycleFunctionKind = "nodeEvent"
	FuncNodeInstanceEvent LifecycleFunctionKind = "nodeInstanceEvent"
	FuncInit              LifecycleFunctionKind = "init"
	FuncFini              LifecycleFunctionKind = "fini"
	FuncTriggerStart      LifecycleFunctionKind = "triggerStart"
	FuncTriggerUpdate     LifecycleFunctionKind = "triggerUpdate"
	FuncTriggerStop       LifecycleFunctionKind = "triggerStop"
)

// NodeClass is a named, immutable template for Node instances, recovered by
// the Module Parser from one compiled implementation module.
type NodeClass struct {
	Name                string
	DefaultTitle        string
	Description         string
	Version             string
	Keywords            []string
	NodeSet             string
	Deprecated          bool
	ExampleCompositions []string

	// Inputs and Outputs are ordered; Port Class names are unique within
	// each list. Inputs[0] is always the refresh port.
	Inputs  []*PortClass
	Outputs []*PortClass

	// Stateful is true when the module exposed nodeInstanceEvent rather
	// than nodeEvent.
	Stateful     bool
	InstanceData *InstanceDataDescriptor

	// Triggers holds the internal trigger catalog for a subcomposition
	// Node Class; empty for ordinary classes.
	Triggers []TriggerDescriptor

	// GenericTypes maps a generic type-variable name declared by this
	// class to its compatible concrete specializations.
	GenericTypes map[string]GenericTypeInfo

	// Dependencies lists the non-generic port Value Type names this class
	// requires to be linked (recorded by the Module Parser, consumed by
	// whatever downstream linker the collaborator runs).
	Dependencies []string

	// Substantial is false for placeholder classes synthesized when a
	// referenced implementation module could not be found; such classes
	// carry only Name and whatever signature snapshot was available.
	Substantial bool

	// GenericBaseName is non-empty on a class that was produced by
	// specializing a generic class: it names the original generic class,
	// so the Specialization Engine's unspecialize can recover it.
	GenericBaseName string
}

// RefreshPortName is the reserved name of the synthesized or declared
// refresh input every Node Class carries as its first input.
const RefreshPortName = "refresh"

// InputByName returns the input Port Class with the given name, if any.
func (nc *NodeClass) InputByName(name string) (*PortClass, bool) {
	for _, p := range nc.Inputs {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// OutputByName returns the output Port Class with the given name, if any.
func (nc *NodeClass) OutputByName(name string) (*PortClass, bool) {
	for _, p := range nc.Outputs {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// RefreshPort returns the class's refresh input, which is always present
// and always first.
func (nc *NodeClass) RefreshPort() *PortClass {
	if len(nc.Inputs) == 0 {
		return nil
	}
	return nc.Inputs[0]
}
