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

import "log"

// Logger is the diagnostic sink a Config carries. The Module Parser, the
// Node Class Catalog and the Composition Model take no Logger and write no
// log output; they report through returned issues. No third-party logging
// library appears in the stack this module draws its dependencies from, so
// this ambient concern stays on the standard library.
type Logger interface {
	Printf(format string, v ...any)
}

type stdLogger struct{}

func (stdLogger) Printf(format string, v ...any) {
	log.Printf(format, v...)
}

// DefaultLogger returns a Logger backed by the standard library's log
// package.
func DefaultLogger() Logger {
	return stdLogger{}
}

// TypeRegistry interns Value Types by name and reports their generic or
// concrete nature. Implemented by package registry; declared here, at the
// consuming side, so that registry can depend on types without types
// depending back on registry.
type TypeRegistry interface {
	Lookup(name string) (*ValueType, bool)
	Intern(name string) *ValueType
	All() []*ValueType
}

// NodeClassCatalog maps Node Class names to Node Classes, substantial or
// placeholder. Implemented by package catalog; declared here for the same
// reason as TypeRegistry.
type NodeClassCatalog interface {
	Get(name string) (*NodeClass, bool)
	Add(nc *NodeClass)
	Remove(name string)
	All() []*NodeClass
	// AddPlaceholder installs a minimal, non-substantial class for a name
	// the Composition Parser referenced but could not resolve, so the
	// composition still loads.
	AddPlaceholder(name string) *NodeClass
}

// ValueCoercer attempts to re-render a literal constant written for
// fromType as an equivalent literal for toType, reporting ok=false when no
// coercion is known. Config keeps a table of these, keyed by name. The
// Specialization Engine does not consult it: a specialize operation keeps
// each existing constant value unchanged.
type ValueCoercer func(value, fromType, toType string) (coerced string, ok bool)

// Config carries every collaborator a compiler front end operation needs:
// where to intern types, where to look up and install node classes, how to
// parse/serialize composition text, where to log, a global property set
// (of the same shape as Composition.Properties, which `defaultExpr`
// evaluation reads), and any registered ValueCoercers.
type Config struct {
	TypeRegistry     TypeRegistry
	NodeClassCatalog NodeClassCatalog
	Parser           Parser
	Logger           Logger
	Properties       Properties
	ValueCoercers    map[string]ValueCoercer
}

// RegisterValueCoercer registers a named ValueCoercer, creating the
// underlying map on first use.
func (c *Config) RegisterValueCoercer(name string, coercer ValueCoercer) {
	if c.ValueCoercers == nil {
		c.ValueCoercers = make(map[string]ValueCoercer)
	}
	c.ValueCoercers[name] = coercer
}

// NewConfig builds a Config with default Logger and Properties, applying
// opts in order.
func NewConfig(opts ...Option) Config {
	c := &Config{
		Logger:     DefaultLogger(),
		Properties: NewProperties(),
	}
	for _, opt := range opts {
		_ = opt(c)
	}
	return *c
}
