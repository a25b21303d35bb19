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

package types

// CompositionDocument is implemented by package composition's Composition
// type. It is declared here, rather than Parser taking a concrete
// *composition.Composition, so that types does not import composition
// (which itself imports types for NodeClass/ValueType) while still letting
// Config carry a Parser.
type CompositionDocument interface {
	// IsCompositionDocument is a marker method with no behavioral
	// contract; it exists only to make implementing this interface an
	// explicit, visible choice on the implementing type.
	IsCompositionDocument()
}

// Parser converts between a composition's text representation and its
// in-memory CompositionDocument, mirroring a decode/encode pair. Parse
// errors are collected into the returned IssueList rather than aborting:
// a composition with one malformed cable still loads, with the cable
// either dropped or represented as a dangling reference (see the
// serializer package).
type Parser interface {
	Decode(text string) (CompositionDocument, *IssueList, error)
	Encode(doc CompositionDocument) (string, error)
}

// ComplianceScript is an optional JS predicate attached to a Protocol,
// evaluated by Validation against a composition's published-port list for
// checks beyond simple name/type matching. Absent for protocols whose
// compliance is fully expressed by MandatedInputs/MandatedOutputs.
type ComplianceScript struct {
	// Source is the JavaScript source. It must define a function
	// `compliant(publishedInputs, publishedOutputs)` returning a boolean.
	Source string
}

// MandatedPort is one published port a Protocol requires a compliant
// composition to expose, by name and Value Type name.
type MandatedPort struct {
	Name     string
	TypeName string
}

// Protocol is a built-in, named set of requirements a composition may be
// validated against (see package protocol for concrete instances such as
// ImageFilter). SetActiveProtocol places MandatedInputs/MandatedOutputs, in
// order, first among the published ports of their direction. Validation
// checks that each mandated port is published with its named type; it does
// not check their order, and it does not read Closed, which records whether
// published ports beyond the mandated ones are permitted.
type Protocol struct {
	Name            string
	MandatedInputs  []MandatedPort
	MandatedOutputs []MandatedPort
	Closed          bool
	Compliance      *ComplianceScript
}
