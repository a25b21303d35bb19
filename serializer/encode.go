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

package serializer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bittoy/compositron/composition"
	"github.com/bittoy/compositron/utils/maps"
)

type attrWriter struct {
	sb    *strings.Builder
	first bool
}

func newAttrWriter(sb *strings.Builder) *attrWriter {
	sb.WriteString(" [")
	return &attrWriter{sb: sb, first: true}
}

func (w *attrWriter) put(key, value string) {
	if value == "" {
		return
	}
	if !w.first {
		w.sb.WriteString(", ")
	}
	w.first = false
	fmt.Fprintf(w.sb, "%s=%s", key, quote(value))
}

func (w *attrWriter) close() {
	w.sb.WriteString("];\n")
}

func quote(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return `"` + s + `"`
}

func joinPairs(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+m[k])
	}
	return strings.Join(parts, "|")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// render serializes comp deterministically: metadata lines, then nodes
// sorted by id, then ordinary cables sorted by endpoints, then published
// cables, then comments. Re-rendering a just-parsed composition reproduces
// the source modulo attribute ordering and whitespace, satisfying the
// documented round-trip property.
func render(comp *composition.Composition) string {
	var sb strings.Builder
	name := comp.Metadata.Name
	if name == "" {
		name = "Composition"
	}
	fmt.Fprintf(&sb, "digraph %s {\n", name)

	writeMeta := func(key, value string) {
		if value != "" {
			fmt.Fprintf(&sb, "  %s=%s;\n", key, quote(value))
		}
	}
	writeMeta("author", comp.Metadata.Author)
	writeMeta("copyright", comp.Metadata.Copyright)
	writeMeta("description", comp.Metadata.Description)
	writeMeta("icon", comp.Metadata.IconPath)
	writeMeta("lastSavedVersion", comp.Metadata.LastSavedVersion)
	for _, v := range comp.Metadata.VersionHistory {
		fmt.Fprintf(&sb, "  versionHistory=%s;\n", quote(v))
	}

	nodeIds := make([]string, 0, len(comp.Nodes))
	for id := range comp.Nodes {
		nodeIds = append(nodeIds, id)
	}
	sort.Strings(nodeIds)
	for _, id := range nodeIds {
		n := comp.Nodes[id]
		sb.WriteString("  " + id)
		w := newAttrWriter(&sb)
		w.put("type", n.ClassName)
		w.put("pos", n.Position)
		w.put("title", n.Title)
		w.put("tint", n.Tint)

		constants := make(map[string]string)
		for portName, p := range n.Inputs {
			if p.Constant != "" {
				constants[portName] = p.Constant
			}
		}
		w.put("constants", joinPairs(constants))

		throttling := make(map[string]string)
		for portName, p := range n.Outputs {
			if p.Class.Category.String() == "trigger" && p.Throttling.String() == "Drop" {
				throttling[portName] = "drop"
			}
		}
		w.put("throttling", joinPairs(throttling))

		if n.Attachment != nil {
			w.put("attachmentHost", n.Attachment.HostNodeId)
			w.put("attachmentPort", n.Attachment.HostPort)
		}
		for _, k := range sortedKeys(n.Extra) {
			w.put(k, n.Extra[k])
		}
		w.close()
	}

	type cableRow struct {
		key string
		cb  *composition.Cable
	}
	var ordinary, published []cableRow
	for _, cb := range comp.Cables {
		row := cableRow{key: cb.FromNodeId + ":" + cb.FromPort + "->" + cb.ToNodeId + ":" + cb.ToPort, cb: cb}
		if cb.FromNodeId == composition.PublishedInputsNodeId || cb.ToNodeId == composition.PublishedOutputsNodeId {
			published = append(published, row)
		} else {
			ordinary = append(ordinary, row)
		}
	}
	sortRows := func(rows []cableRow) {
		sort.Slice(rows, func(i, j int) bool { return rows[i].key < rows[j].key })
	}
	sortRows(ordinary)
	sortRows(published)

	writeCable := func(row cableRow) {
		cb := row.cb
		fmt.Fprintf(&sb, "  %s:%s -> %s:%s", cb.FromNodeId, cb.FromPort, cb.ToNodeId, cb.ToPort)
		w := newAttrWriter(&sb)
		if cb.AlwaysEventOnly {
			w.put("eventOnly", "true")
		}
		if cb.Hidden {
			w.put("hidden", "true")
		}
		for _, k := range sortedKeys(cb.Extra) {
			w.put(k, cb.Extra[k])
		}
		w.close()
	}
	for _, row := range ordinary {
		writeCable(row)
	}

	publishedPortByName := func(direction, name string) *composition.PublishedPort {
		list := comp.PublishedInputs
		if direction == "output" {
			list = comp.PublishedOutputs
		}
		for _, pp := range list {
			if pp.Name == name {
				return pp
			}
		}
		return nil
	}
	for _, row := range published {
		cb := row.cb
		fmt.Fprintf(&sb, "  %s:%s -> %s:%s", cb.FromNodeId, cb.FromPort, cb.ToNodeId, cb.ToPort)
		w := newAttrWriter(&sb)
		var pp *composition.PublishedPort
		if cb.ToNodeId == composition.PublishedOutputsNodeId {
			pp = publishedPortByName("output", cb.ToPort)
		} else {
			pp = publishedPortByName("input", cb.FromPort)
		}
		if pp != nil {
			w.put("type", pp.TypeName)
			if pp.Mandated {
				w.put("mandated", "true")
			}
			detail := maps.EncodeDetail(pp.Detail)
			for _, k := range sortedKeys(detail) {
				if s, ok := detail[k].(string); ok {
					w.put(k, s)
				}
			}
		}
		if cb.AlwaysEventOnly {
			w.put("eventOnly", "true")
		}
		w.close()
	}

	for _, c := range comp.Comments {
		sb.WriteString("  comment")
		w := newAttrWriter(&sb)
		w.put("text", c.Text)
		w.put("pos", c.Position)
		w.close()
	}

	sb.WriteString("}\n")
	return sb.String()
}
