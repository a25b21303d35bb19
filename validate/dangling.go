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
	"fmt"

	"github.com/bittoy/compositron/composition"
	"github.com/bittoy/compositron/types"
)

func isSyntheticNode(id string) bool {
	return id == composition.PublishedInputsNodeId || id == composition.PublishedOutputsNodeId
}

// checkDanglingConnections reports cables whose endpoint node or port no
// longer exists, and data cables between two concrete, differently-named
// value types. A cable touching a still-generic port is left alone: it is
// pending specialization, not dangling.
func checkDanglingConnections(comp *composition.Composition) []*types.Issue {
	var issues []*types.Issue
	for id, cb := range comp.Cables {
		fromPort, fromOk := endpointPort(comp, cb.FromNodeId, cb.FromPort)
		toPort, toOk := endpointPort(comp, cb.ToNodeId, cb.ToPort)
		if !fromOk {
			issues = append(issues, types.NewInvariantViolation(id,
				fmt.Sprintf("cable references missing source %s:%s", cb.FromNodeId, cb.FromPort)))
			continue
		}
		if !toOk {
			issues = append(issues, types.NewInvariantViolation(id,
				fmt.Sprintf("cable references missing destination %s:%s", cb.ToNodeId, cb.ToPort)))
			continue
		}
		if cb.AlwaysEventOnly || fromPort == nil || toPort == nil {
			continue
		}
		fromType, toType := fromPort.Class.DataType, toPort.Class.DataType
		if fromType == nil || toType == nil {
			continue
		}
		if fromType.Generic || toType.Generic {
			continue
		}
		if fromType.Name != toType.Name {
			issues = append(issues, types.NewTypeMismatch(id,
				fmt.Sprintf("dangling connection: %s does not match %s", fromType.Name, toType.Name)))
		}
	}
	return issues
}

// endpointPort resolves a cable endpoint, tolerating the synthetic
// published-port node ids (which have no backing Port record of their own).
func endpointPort(comp *composition.Composition, nodeId, portName string) (*composition.Port, bool) {
	if isSyntheticNode(nodeId) {
		return nil, true
	}
	if _, ok := comp.Node(nodeId); !ok {
		return nil, false
	}
	p, ok := comp.Port(nodeId, portName)
	if !ok {
		return nil, false
	}
	return p, true
}
