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

package specialize

import (
	"sort"
	"strings"

	"github.com/bittoy/compositron/composition"
	"github.com/bittoy/compositron/types"
)

// specializedClassName derives the concrete class name a generic class's
// network members are swapped onto, by the naming-convention pattern
// "<genericClassName>.<concreteType>".
func specializedClassName(genericClassName, concreteType string) string {
	return genericClassName + "." + concreteType
}

// genericBaseName recovers the generic class a specialized class was
// produced from: the declaring module's own record, if it supplied one, or
// the naming-convention suffix strip.
func genericBaseName(nc *types.NodeClass, concreteType string) (string, bool) {
	if nc.GenericBaseName != "" {
		return nc.GenericBaseName, true
	}
	suffix := "." + concreteType
	if len(nc.Name) > len(suffix) && strings.HasSuffix(nc.Name, suffix) {
		return nc.Name[:len(nc.Name)-len(suffix)], true
	}
	return "", false
}

func portClassOn(nc *types.NodeClass, name string) (*types.PortClass, bool) {
	if pc, ok := nc.InputByName(name); ok {
		return pc, true
	}
	if pc, ok := nc.OutputByName(name); ok {
		return pc, true
	}
	return nil, false
}

func genericPortNames(nc *types.NodeClass, genericName string) []string {
	var names []string
	add := func(pcs []*types.PortClass) {
		for _, pc := range pcs {
			if pc.DataType != nil && pc.DataType.Generic && pc.DataType.Name == genericName {
				names = append(names, pc.Name)
			}
		}
	}
	add(nc.Inputs)
	add(nc.Outputs)
	return names
}

func declaresGeneric(nc *types.NodeClass, genericName string) bool {
	_, ok := nc.GenericTypes[genericName]
	if ok {
		return true
	}
	return len(genericPortNames(nc, genericName)) > 0
}

func toSet(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

// networkFor discovers the network containing seedNodeId: every Node
// reachable from it by following cables whose endpoints both carry
// genericName, stopping at a neighbor whose class does not also declare
// genericName. Used before a specialize, while the network's classes are
// still generic.
func networkFor(comp *composition.Composition, seedNodeId, genericName string) []string {
	visited := map[string]bool{seedNodeId: true}
	queue := []string{seedNodeId}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n, ok := comp.Node(id)
		if !ok {
			continue
		}
		nameSet := toSet(genericPortNames(n.Class, genericName))
		for _, cb := range comp.Cables {
			var other, otherPort string
			switch {
			case cb.FromNodeId == id && nameSet[cb.FromPort]:
				other, otherPort = cb.ToNodeId, cb.ToPort
			case cb.ToNodeId == id && nameSet[cb.ToPort]:
				other, otherPort = cb.FromNodeId, cb.FromPort
			default:
				continue
			}
			_ = otherPort
			if visited[other] {
				continue
			}
			if on, ok := comp.Node(other); ok && declaresGeneric(on.Class, genericName) {
				visited[other] = true
				queue = append(queue, other)
			}
		}
	}
	return sortedKeys(visited)
}

// portWasGeneric reports whether portName on nc's generic origin class
// (recovered via genericBaseName) was declared generic under some type
// variable, returning that variable's name.
func portWasGeneric(catalog types.NodeClassCatalog, nc *types.NodeClass, portName, concreteType string) (string, bool) {
	baseName, ok := genericBaseName(nc, concreteType)
	if !ok {
		return "", false
	}
	baseClass, ok := catalog.Get(baseName)
	if !ok {
		return "", false
	}
	pc, ok := portClassOn(baseClass, portName)
	if !ok || pc.DataType == nil || !pc.DataType.Generic {
		return "", false
	}
	return pc.DataType.Name, true
}

// networkForUnspecialize discovers the network of already-specialized
// Nodes containing seedNodeId, for a port whose concrete type is
// concreteType: every Node reachable via cables at ports that were
// generic in their own (possibly distinct) origin class.
func networkForUnspecialize(catalog types.NodeClassCatalog, comp *composition.Composition, seedNodeId, concreteType string) []string {
	visited := map[string]bool{seedNodeId: true}
	queue := []string{seedNodeId}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n, ok := comp.Node(id)
		if !ok {
			continue
		}
		var names []string
		check := func(pcs []*types.PortClass) {
			for _, pc := range pcs {
				if _, ok := portWasGeneric(catalog, n.Class, pc.Name, concreteType); ok {
					names = append(names, pc.Name)
				}
			}
		}
		check(n.Class.Inputs)
		check(n.Class.Outputs)
		nameSet := toSet(names)

		for _, cb := range comp.Cables {
			var other, otherPort string
			switch {
			case cb.FromNodeId == id && nameSet[cb.FromPort]:
				other, otherPort = cb.ToNodeId, cb.ToPort
			case cb.ToNodeId == id && nameSet[cb.ToPort]:
				other, otherPort = cb.FromNodeId, cb.FromPort
			default:
				continue
			}
			if visited[other] {
				continue
			}
			if on, ok := comp.Node(other); ok {
				if _, ok2 := portWasGeneric(catalog, on.Class, otherPort, concreteType); ok2 {
					visited[other] = true
					queue = append(queue, other)
				}
			}
		}
	}
	return sortedKeys(visited)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// externalCablesTouching returns, among comp.Cables, the ids of cables
// that touch nodeId at a port named in portNames but whose other endpoint
// is not a member of the network (members records every node id the
// caller considers internal).
func externalCablesTouching(comp *composition.Composition, nodeId string, portNames map[string]bool, members map[string]bool) []string {
	var ids []string
	for id, cb := range comp.Cables {
		switch {
		case cb.FromNodeId == nodeId && portNames[cb.FromPort] && !members[cb.ToNodeId]:
			ids = append(ids, id)
		case cb.ToNodeId == nodeId && portNames[cb.ToPort] && !members[cb.FromNodeId]:
			ids = append(ids, id)
		}
	}
	return ids
}
