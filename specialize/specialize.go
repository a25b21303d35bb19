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

// Package specialize implements the Specialization Engine: the three
// atomic transforms (specialize, unspecialize, respecialize) that move a
// generic network onto a concrete Node Class and back. It also implements
// composition.Specializer, so the Composition Model's Connect can invoke
// it directly when a single-compatible-type auto-unify applies.
package specialize

import (
	"fmt"
	"time"

	"github.com/bittoy/compositron/composition"
	"github.com/bittoy/compositron/metrics"
	"github.com/bittoy/compositron/registry"
	"github.com/bittoy/compositron/types"
)

// Engine is the default Specialization Engine, resolving replacement
// classes against catalog and compatible types against reg.
type Engine struct {
	Catalog  types.NodeClassCatalog
	Registry *registry.TypeRegistry
}

// New returns an Engine bound to catalog and reg.
func New(catalog types.NodeClassCatalog, reg *registry.TypeRegistry) *Engine {
	return &Engine{Catalog: catalog, Registry: reg}
}

func observe(operation string, start time.Time) {
	metrics.SpecializationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func portOn(n *composition.Node, name string) (*composition.Port, bool) {
	if p, ok := n.Inputs[name]; ok {
		return p, true
	}
	if p, ok := n.Outputs[name]; ok {
		return p, true
	}
	return nil, false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Specialize finds the generic network containing (nodeId, portName),
// validates concreteType against the Type Registry's compatible
// specializations for that port's generic type, and atomically replaces
// every member Node's class with its concrete-specialized counterpart,
// rewiring ports by name and preserving constants. If any member's
// replacement class is unavailable in the catalog, no Node is touched.
func (e *Engine) Specialize(comp *composition.Composition, nodeId, portName, concreteType string) error {
	start := time.Now()
	defer observe("specialize", start)

	n, ok := comp.Node(nodeId)
	if !ok {
		return types.NewInvariantViolation(nodeId, "node does not exist")
	}
	port, ok := portOn(n, portName)
	if !ok {
		return types.NewInvariantViolation(portName, "port does not exist on node")
	}
	if port.Class.DataType == nil || !port.Class.DataType.Generic {
		return types.NewTypeMismatch(portName, "port is not generic")
	}
	genericName := port.Class.DataType.Name

	compatible := e.Registry.CompatibleSpecializations(genericName)
	if !contains(compatible, concreteType) {
		return types.NewTypeMismatch(portName, fmt.Sprintf("%s is not a compatible specialization of %s", concreteType, genericName))
	}

	members := networkFor(comp, nodeId, genericName)

	replacements := make(map[string]*types.NodeClass, len(members))
	for _, id := range members {
		mn, _ := comp.Node(id)
		className := specializedClassName(mn.ClassName, concreteType)
		rc, ok := e.Catalog.Get(className)
		if !ok {
			return types.NewTypeMismatch(mn.ClassName, fmt.Sprintf("replacement class %q is not available", className))
		}
		replacements[id] = rc
	}

	for id, rc := range replacements {
		mn, _ := comp.Node(id)
		applyClass(mn, rc)
	}
	return nil
}

// Unspecialize restores the generic class of every Node in the network
// that was specialized to reach portName's current concrete type. Cables
// between a restored port and a port outside the network are deleted
// (their replaced-concrete type no longer exists to connect to); their
// ids are returned so the caller can act on the deletion.
func (e *Engine) Unspecialize(comp *composition.Composition, nodeId, portName string) (deleted []string, err error) {
	start := time.Now()
	defer func() { observe("unspecialize", start) }()

	n, ok := comp.Node(nodeId)
	if !ok {
		return nil, types.NewInvariantViolation(nodeId, "node does not exist")
	}
	port, ok := portOn(n, portName)
	if !ok {
		return nil, types.NewInvariantViolation(portName, "port does not exist on node")
	}
	if port.Class.DataType == nil || port.Class.DataType.Generic {
		return nil, types.NewTypeMismatch(portName, "port is not specialized")
	}
	concreteType := port.Class.DataType.Name

	if _, ok := portWasGeneric(e.Catalog, n.Class, portName, concreteType); !ok {
		return nil, types.NewTypeMismatch(n.ClassName, "class was not produced by specialization")
	}

	members := networkForUnspecialize(e.Catalog, comp, nodeId, concreteType)
	memberSet := toSet(members)

	baseClasses := make(map[string]*types.NodeClass, len(members))
	memberPortNames := make(map[string]map[string]bool, len(members))
	for _, id := range members {
		mn, _ := comp.Node(id)
		baseName, ok := genericBaseName(mn.Class, concreteType)
		if !ok {
			return nil, types.NewTypeMismatch(mn.ClassName, "class was not produced by specialization")
		}
		baseClass, ok := e.Catalog.Get(baseName)
		if !ok {
			return nil, types.NewUnresolvedDependency(baseName, "original generic class is no longer available")
		}
		baseClasses[id] = baseClass

		names := make(map[string]bool)
		for _, pc := range append(append([]*types.PortClass{}, mn.Class.Inputs...), mn.Class.Outputs...) {
			if _, ok := portWasGeneric(e.Catalog, mn.Class, pc.Name, concreteType); ok {
				names[pc.Name] = true
			}
		}
		memberPortNames[id] = names
	}

	for _, id := range members {
		deleted = append(deleted, externalCablesTouching(comp, id, memberPortNames[id], memberSet)...)
	}
	for _, cableId := range deleted {
		_ = comp.Disconnect(cableId)
	}
	for _, id := range members {
		mn, _ := comp.Node(id)
		applyClass(mn, baseClasses[id])
	}
	return deleted, nil
}

// Respecialize composes unspecialize and specialize, restoring the
// generic class and re-specializing to newConcrete. A no-op returning no
// deletions if portName is already specialized to newConcrete.
func (e *Engine) Respecialize(comp *composition.Composition, nodeId, portName, newConcrete string) (deleted []string, err error) {
	start := time.Now()
	defer func() { observe("respecialize", start) }()

	n, ok := comp.Node(nodeId)
	if !ok {
		return nil, types.NewInvariantViolation(nodeId, "node does not exist")
	}
	port, ok := portOn(n, portName)
	if !ok {
		return nil, types.NewInvariantViolation(portName, "port does not exist on node")
	}
	if port.Class.DataType != nil && !port.Class.DataType.Generic && port.Class.DataType.Name == newConcrete {
		return nil, nil
	}

	deleted, err = e.Unspecialize(comp, nodeId, portName)
	if err != nil {
		return nil, err
	}
	if err := e.Specialize(comp, nodeId, portName, newConcrete); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// applyClass swaps n onto rc, reusing each existing Port whose name still
// appears in rc (preserving its Constant and Throttling) and minting a
// fresh Port for any name rc adds that n did not already have.
func applyClass(n *composition.Node, rc *types.NodeClass) {
	n.Inputs = rewirePorts(n, n.Inputs, rc.Inputs)
	n.Outputs = rewirePorts(n, n.Outputs, rc.Outputs)
	n.Class = rc
	n.ClassName = rc.Name
}

func rewirePorts(n *composition.Node, existing map[string]*composition.Port, classes []*types.PortClass) map[string]*composition.Port {
	out := make(map[string]*composition.Port, len(classes))
	for _, pc := range classes {
		if old, ok := existing[pc.Name]; ok {
			old.Class = pc
			out[pc.Name] = old
			continue
		}
		out[pc.Name] = &composition.Port{
			Id:         composition.NewId(),
			NodeId:     n.Id,
			Class:      pc,
			Throttling: pc.DefaultEventThrottling,
		}
	}
	return out
}
