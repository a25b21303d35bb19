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

// checkAttachments reports an attachment Node whose host Node is gone, or
// whose host no longer declares the attached-to input port.
func checkAttachments(comp *composition.Composition) []*types.Issue {
	var issues []*types.Issue
	for id, n := range comp.Nodes {
		if n.Attachment == nil {
			continue
		}
		host, ok := comp.Node(n.Attachment.HostNodeId)
		if !ok {
			issues = append(issues, types.NewInvariantViolation(id,
				fmt.Sprintf("attachment's host node %q no longer exists", n.Attachment.HostNodeId)))
			continue
		}
		if _, ok := host.Inputs[n.Attachment.HostPort]; !ok {
			issues = append(issues, types.NewInvariantViolation(id,
				fmt.Sprintf("attachment's host port %q no longer exists on %q", n.Attachment.HostPort, host.Id)))
		}
	}
	return issues
}
