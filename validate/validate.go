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

// Package validate implements Validation: a read-only pass over a
// Composition reporting structural, typing, feedback-loop and protocol
// issues as a types.IssueList rather than aborting. Grounded on the
// teacher's registry-of-rule-functions shape
// (builtin/aspect/chain_validator_aspect.go's chainRules), generalized from
// one fixed rule pair to four composition-shaped checks.
package validate

import (
	"github.com/bittoy/compositron/composition"
	"github.com/bittoy/compositron/metrics"
	"github.com/bittoy/compositron/types"
)

// checkFunc is one validation rule: given a Composition, return every Issue
// it finds (nil if none).
type checkFunc struct {
	name string
	run  func(*composition.Composition) []*types.Issue
}

// checks is the fixed, ordered rule set every Validate call runs. Declared
// as a package variable, mirroring the teacher's package-level rules
// registry, though this module has no externally-registerable rule API: the
// four checks are exhaustively named by the specification.
var checks = []checkFunc{
	{"feedback-loop", checkFeedbackLoops},
	{"dangling-connection", checkDanglingConnections},
	{"attachment", checkAttachments},
	{"protocol-compliance", checkProtocolCompliance},
}

// Validate runs every check against comp and returns the accumulated
// IssueList. None of comp's four checks mutate the Composition or abort
// early on another's findings; a caller with limited tolerance should
// inspect IssueList.HasFatal or filter by types.IssueKind itself.
func Validate(comp *composition.Composition) *types.IssueList {
	list := &types.IssueList{}
	for _, c := range checks {
		found := c.run(comp)
		for _, issue := range found {
			list.Add(issue)
			metrics.ValidationIssuesTotal.WithLabelValues(c.name, issue.Kind.String()).Inc()
		}
	}
	return list
}
