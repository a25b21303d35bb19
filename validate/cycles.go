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
	"sort"
	"strings"

	"github.com/bittoy/compositron/composition"
	"github.com/bittoy/compositron/types"
)

// checkFeedbackLoops finds directed cycles in the data-carrying cable graph
// (event-only cables never contribute an edge, so an event-only cycle is
// invisible to this check and therefore always allowed). A found cycle is
// only reported if some participant lacks a drop-throttled trigger output;
// a cycle every participant can drop events on is load-bearing feedback,
// not a bug.
func checkFeedbackLoops(comp *composition.Composition) []*types.Issue {
	graph := map[string][]string{}
	for _, cb := range comp.Cables {
		if !cb.CarriesData(comp) {
			continue
		}
		graph[cb.FromNodeId] = append(graph[cb.FromNodeId], cb.ToNodeId)
	}

	var issues []*types.Issue
	reported := map[string]bool{}

	visited := map[string]bool{}
	stack := map[string]bool{}
	var path []string

	var dfs func(node string)
	dfs = func(node string) {
		visited[node] = true
		stack[node] = true
		path = append(path, node)

		for _, next := range graph[node] {
			if stack[next] {
				cycle := cyclePath(path, next)
				key := strings.Join(sortedCopy(cycle), ",")
				if !reported[key] && !allThrottled(comp, cycle) {
					reported[key] = true
					issues = append(issues, types.NewInvariantViolation(node,
						"feedback loop in data cable graph: "+strings.Join(cycle, " -> ")))
				}
			} else if !visited[next] {
				dfs(next)
			}
		}

		stack[node] = false
		path = path[:len(path)-1]
	}

	var ids []string
	for id := range graph {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if !visited[id] {
			dfs(id)
		}
	}
	return issues
}

// cyclePath extracts the suffix of path starting at the first occurrence of
// repeatNode, closing the loop by appending repeatNode again.
func cyclePath(path []string, repeatNode string) []string {
	for i, n := range path {
		if n == repeatNode {
			cycle := append([]string{}, path[i:]...)
			return append(cycle, repeatNode)
		}
	}
	return path
}

func sortedCopy(s []string) []string {
	out := append([]string{}, s...)
	sort.Strings(out)
	return out
}

// allThrottled reports whether every node in cycle carries a trigger output
// whose throttling policy is Drop.
func allThrottled(comp *composition.Composition, cycle []string) bool {
	seen := map[string]bool{}
	for _, id := range cycle {
		if seen[id] {
			continue
		}
		seen[id] = true
		n, ok := comp.Node(id)
		if !ok {
			return false
		}
		if !nodeHasDropTrigger(n) {
			return false
		}
	}
	return true
}

func nodeHasDropTrigger(n *composition.Node) bool {
	for _, p := range n.Outputs {
		if p.Class.Category == types.TriggerPort && p.Throttling == types.EventThrottlingDrop {
			return true
		}
	}
	return false
}
