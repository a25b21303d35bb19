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
	"strings"

	"github.com/bittoy/compositron/composition"
	"github.com/bittoy/compositron/types"
	"github.com/bittoy/compositron/utils/maps"
)

// nodeStmt and cableStmt are the two passes' raw material: pass one
// materializes every node (so forward references in cables resolve),
// pass two wires cables and published ports.
type nodeStmt struct {
	id    string
	attrs map[string]string
	line  int
}

type cableStmt struct {
	fromNode, fromPort string
	toNode, toPort     string
	attrs              map[string]string
	line               int
}

type commentStmt struct {
	attrs map[string]string
}

type parseResult struct {
	name     string
	meta     map[string][]string
	nodes    []nodeStmt
	cables   []cableStmt
	comments []commentStmt
}

// parseTokens runs the single-pass tokenizer/reader over src, splitting
// statements into the categories load() resolves in two passes.
func parseTokens(src string) (*parseResult, error) {
	lx := newLexer(src)
	tok, err := lx.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokIdent || tok.text != "digraph" {
		return nil, fmt.Errorf("line %d: expected 'digraph'", tok.line)
	}
	tok, err = lx.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokIdent {
		return nil, fmt.Errorf("line %d: expected composition name", tok.line)
	}
	res := &parseResult{name: tok.text, meta: make(map[string][]string)}

	tok, err = lx.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokLBrace {
		return nil, fmt.Errorf("line %d: expected '{'", tok.line)
	}

	for {
		tok, err = lx.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokRBrace || tok.kind == tokEOF {
			return res, nil
		}
		if tok.kind != tokIdent {
			return nil, fmt.Errorf("line %d: expected identifier", tok.line)
		}
		head := tok
		peeked, err := lx.next()
		if err != nil {
			return nil, err
		}
		switch peeked.kind {
		case tokEquals:
			valueTok, err := lx.next()
			if err != nil {
				return nil, err
			}
			if valueTok.kind != tokString {
				return nil, fmt.Errorf("line %d: expected string value for %s", valueTok.line, head.text)
			}
			if err := expect(lx, tokSemicolon); err != nil {
				return nil, err
			}
			res.meta[head.text] = append(res.meta[head.text], valueTok.text)
		case tokColon:
			fromPortTok, err := lx.next()
			if err != nil {
				return nil, err
			}
			if err := expect(lx, tokArrow); err != nil {
				return nil, err
			}
			toNodeTok, err := lx.next()
			if err != nil {
				return nil, err
			}
			if err := expect(lx, tokColon); err != nil {
				return nil, err
			}
			toPortTok, err := lx.next()
			if err != nil {
				return nil, err
			}
			attrs, err := parseOptionalAttrs(lx)
			if err != nil {
				return nil, err
			}
			if err := expect(lx, tokSemicolon); err != nil {
				return nil, err
			}
			res.cables = append(res.cables, cableStmt{
				fromNode: head.text, fromPort: fromPortTok.text,
				toNode: toNodeTok.text, toPort: toPortTok.text,
				attrs: attrs, line: head.line,
			})
		case tokLBracket:
			attrs, err := parseAttrsBody(lx)
			if err != nil {
				return nil, err
			}
			if err := expect(lx, tokSemicolon); err != nil {
				return nil, err
			}
			if head.text == "comment" {
				res.comments = append(res.comments, commentStmt{attrs: attrs})
			} else {
				res.nodes = append(res.nodes, nodeStmt{id: head.text, attrs: attrs, line: head.line})
			}
		default:
			return nil, fmt.Errorf("line %d: unexpected token after %q", peeked.line, head.text)
		}
	}
}

func expect(lx *lexer, kind tokenKind) error {
	tok, err := lx.next()
	if err != nil {
		return err
	}
	if tok.kind != kind {
		return fmt.Errorf("line %d: unexpected token %q", tok.line, tok.text)
	}
	return nil
}

// parseOptionalAttrs parses a "[...]" block if present, or returns nil.
func parseOptionalAttrs(lx *lexer) (map[string]string, error) {
	save := *lx
	tok, err := lx.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokLBracket {
		*lx = save
		return nil, nil
	}
	return parseAttrsBody(lx)
}

// parseAttrsBody parses the inside of a "[...]" block, having already
// consumed the opening bracket.
func parseAttrsBody(lx *lexer) (map[string]string, error) {
	attrs := make(map[string]string)
	tok, err := lx.next()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokRBracket {
		return attrs, nil
	}
	for {
		if tok.kind != tokIdent {
			return nil, fmt.Errorf("line %d: expected attribute name", tok.line)
		}
		key := tok.text
		if err := expect(lx, tokEquals); err != nil {
			return nil, err
		}
		valTok, err := lx.next()
		if err != nil {
			return nil, err
		}
		if valTok.kind != tokString {
			return nil, fmt.Errorf("line %d: expected string value for attribute %s", valTok.line, key)
		}
		attrs[key] = valTok.text

		tok, err = lx.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokRBracket {
			return attrs, nil
		}
		if tok.kind != tokComma {
			return nil, fmt.Errorf("line %d: expected ',' or ']'", tok.line)
		}
		tok, err = lx.next()
		if err != nil {
			return nil, err
		}
	}
}

// nodeAttrKeys and cableAttrKeys name every attribute this parser
// interprets; everything else on a statement is preserved in Extra.
var nodeAttrKeys = map[string]bool{
	"type": true, "pos": true, "title": true, "tint": true,
	"constants": true, "throttling": true,
	"attachmentHost": true, "attachmentPort": true,
}

var cableAttrKeys = map[string]bool{
	"eventOnly": true, "hidden": true, "type": true, "mandated": true,
}

func splitPairs(s string) map[string]string {
	out := make(map[string]string)
	if s == "" {
		return out
	}
	for _, pair := range strings.Split(s, "|") {
		kv := strings.SplitN(pair, ":", 2)
		if len(kv) == 2 {
			out[kv[0]] = kv[1]
		}
	}
	return out
}

// load resolves a parseResult against a Composition in the two documented
// passes, returning per-cable orphan issues without aborting the load.
func load(res *parseResult, comp *composition.Composition) *types.IssueList {
	issues := &types.IssueList{}

	comp.Metadata.Name = res.name
	if v := first(res.meta, "author"); v != "" {
		comp.Metadata.Author = v
	}
	if v := first(res.meta, "copyright"); v != "" {
		comp.Metadata.Copyright = v
	}
	if v := first(res.meta, "description"); v != "" {
		comp.Metadata.Description = v
	}
	if v := first(res.meta, "icon"); v != "" {
		comp.Metadata.IconPath = v
	}
	if v := first(res.meta, "lastSavedVersion"); v != "" {
		comp.Metadata.LastSavedVersion = v
	}
	comp.Metadata.VersionHistory = append(comp.Metadata.VersionHistory, res.meta["versionHistory"]...)

	// Pass 1: materialize nodes (and their ports), tolerating unknown
	// classes via placeholders.
	for _, ns := range res.nodes {
		className := ns.attrs["type"]
		if className == "" {
			issues.Add(types.NewCompositionParseError(ns.id, "node statement is missing a type attribute", nil))
			continue
		}
		n := comp.ImportNode(ns.id, className, ns.attrs["title"], ns.attrs["pos"], ns.attrs["tint"])
		if !n.Class.Substantial {
			issues.Add(types.NewUnresolvedDependency(className, "node class not found in catalog; loaded as a placeholder"))
		}
		for port, val := range splitPairs(ns.attrs["constants"]) {
			if p, ok := n.Inputs[port]; ok {
				p.Constant = val
			}
		}
		for port, val := range splitPairs(ns.attrs["throttling"]) {
			if p, ok := n.Outputs[port]; ok {
				p.Throttling = throttlingFromString(val)
			}
		}
		if ns.attrs["attachmentHost"] != "" {
			comp.ImportAttachment(ns.id, ns.attrs["attachmentHost"], ns.attrs["attachmentPort"])
		}
		extra := extraAttrs(ns.attrs, nodeAttrKeys)
		if len(extra) > 0 {
			n.Extra = extra
		}
	}

	for _, cs := range res.comments {
		comp.ImportComment(cs.attrs["text"], cs.attrs["pos"])
	}

	// Pass 2: materialize cables and published ports.
	for _, cs := range res.cables {
		extra := extraAttrs(cs.attrs, cableAttrKeys)
		alwaysEventOnly := cs.attrs["eventOnly"] == "true"
		hidden := cs.attrs["hidden"] == "true"

		fromPublished := cs.fromNode == composition.PublishedInputsNodeId
		toPublished := cs.toNode == composition.PublishedOutputsNodeId
		if fromPublished || toPublished {
			direction := "input"
			name := cs.fromPort
			nodeId, portName := cs.toNode, cs.toPort
			if toPublished {
				direction = "output"
				name = cs.toPort
				nodeId, portName = cs.fromNode, cs.fromPort
			}
			if _, ok := comp.Node(nodeId); !ok {
				issues.Add(types.NewCompositionParseError(name, fmt.Sprintf("published port %q references node %q which does not exist", name, nodeId), nil))
				continue
			}
			detail, err := maps.DecodeDetail(toAnyMap(extraAttrs(cs.attrs, cableAttrKeys)))
			if err != nil {
				issues.Add(types.NewCompositionParseError(name, "malformed published port detail: "+err.Error(), nil))
				continue
			}
			pp := &composition.PublishedPort{
				Name: name, Direction: direction, TypeName: cs.attrs["type"],
				Detail: detail, Mandated: cs.attrs["mandated"] == "true",
			}
			comp.ImportPublished(pp)
			comp.ImportCable(cs.fromNode, cs.fromPort, cs.toNode, cs.toPort, alwaysEventOnly, hidden, extra)
			continue
		}

		fromN, fromOk := comp.Node(cs.fromNode)
		toN, toOk := comp.Node(cs.toNode)
		if !fromOk || !toOk {
			issues.Add(types.NewCompositionParseError(cs.fromNode+":"+cs.fromPort, "cable references a node that does not exist", nil))
			continue
		}
		if _, ok := fromN.Outputs[cs.fromPort]; !ok {
			issues.Add(types.NewCompositionParseError(cs.fromNode+":"+cs.fromPort, "cable source port does not exist on its node", nil))
			continue
		}
		if _, ok := toN.Inputs[cs.toPort]; !ok {
			issues.Add(types.NewCompositionParseError(cs.toNode+":"+cs.toPort, "cable destination port does not exist on its node", nil))
			continue
		}
		comp.ImportCable(cs.fromNode, cs.fromPort, cs.toNode, cs.toPort, alwaysEventOnly, hidden, extra)
	}

	return issues
}

func first(meta map[string][]string, key string) string {
	if vs := meta[key]; len(vs) > 0 {
		return vs[len(vs)-1]
	}
	return ""
}

func extraAttrs(attrs map[string]string, known map[string]bool) map[string]string {
	out := make(map[string]string)
	for k, v := range attrs {
		if !known[k] {
			out[k] = v
		}
	}
	return out
}

func toAnyMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func throttlingFromString(s string) types.EventThrottling {
	if s == "drop" {
		return types.EventThrottlingDrop
	}
	return types.EventThrottlingEnqueue
}
