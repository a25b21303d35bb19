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

// Package serializer implements the Composition Parser/Serializer: the
// textual digraph format described by the external-interfaces contract is
// parsed in two passes (nodes first, so cables and published ports can
// resolve forward references; unresolved node classes become placeholders)
// and re-emitted deterministically so that a parse immediately followed by
// a serialize reproduces the source modulo attribute order and whitespace.
package serializer

import (
	"github.com/bittoy/compositron/composition"
	"github.com/bittoy/compositron/registry"
	"github.com/bittoy/compositron/types"
)

// Parser is the default types.Parser implementation, backed by the
// hand-written digraph-text lexer/grammar in this package.
type Parser struct {
	Catalog  types.NodeClassCatalog
	Registry *registry.TypeRegistry
}

// New returns a Parser bound to catalog and reg, the collaborators new
// Compositions decoded from text will be wired to.
func New(catalog types.NodeClassCatalog, reg *registry.TypeRegistry) *Parser {
	return &Parser{Catalog: catalog, Registry: reg}
}

// Decode parses src into a new Composition, returning it alongside an
// IssueList of any per-element composition-parse-errors and
// unresolved-dependency warnings collected along the way. A syntax error
// in the document's structure itself (not an individual element) is
// returned as err and no Composition is produced.
func (p *Parser) Decode(text string) (types.CompositionDocument, *types.IssueList, error) {
	res, err := parseTokens(text)
	if err != nil {
		return nil, nil, err
	}
	comp := composition.New(res.name, p.Catalog, p.Registry)
	issues := load(res, comp)
	return comp, issues, nil
}

// Encode serializes doc back to the digraph text format.
func (p *Parser) Encode(doc types.CompositionDocument) (string, error) {
	comp, ok := doc.(*composition.Composition)
	if !ok {
		return "", types.NewCompositionParseError("", "Encode given a document not produced by this parser", nil)
	}
	return render(comp), nil
}
