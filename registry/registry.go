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

// Package registry implements the Type Registry: the single authoritative
// record per Value Type name, shared by the Composition Model and the
// Specialization Engine.
package registry

import (
	"sort"
	"sync"

	"github.com/bittoy/compositron/types"
)

// TypeRegistry interns Value Types by name. Lookups may proceed
// concurrently; Intern and InternValueType are serialized
// against each other and against lookups via a read-write lock, mirroring
// the RWMutex-guarded component registry this package is grounded on.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]*types.ValueType
}

// New returns an empty TypeRegistry.
func New() *TypeRegistry {
	return &TypeRegistry{types: make(map[string]*types.ValueType)}
}

// Lookup returns the interned ValueType for name, if any.
func (r *TypeRegistry) Lookup(name string) (*types.ValueType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	vt, ok := r.types[name]
	return vt, ok
}

// Intern returns the single authoritative ValueType for name, creating one
// if this is the first time name has been seen. A freshly created entry is
// generic iff name matches the generic-name pattern; otherwise it is
// concrete. Interning is idempotent: a second call for the same name
// returns the same *ValueType as the first.
func (r *TypeRegistry) Intern(name string) *types.ValueType {
	r.mu.Lock()
	defer r.mu.Unlock()
	if vt, ok := r.types[name]; ok {
		return vt
	}
	vt := &types.ValueType{
		Name:    name,
		Generic: types.IsGenericTypeName(name),
	}
	r.types[name] = vt
	return vt
}

// InternValueType interns a fully-formed ValueType record (used by the
// Module Parser, which already knows a generic type's default and
// compatible specializations at parse time). If name was already interned,
// the existing record is updated in place and returned, preserving
// identity for anyone already holding a pointer to it.
func (r *TypeRegistry) InternValueType(vt *types.ValueType) *types.ValueType {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.types[vt.Name]
	if !ok {
		cp := *vt
		r.types[vt.Name] = &cp
		return &cp
	}
	existing.Generic = vt.Generic
	existing.DefaultSpecialization = vt.DefaultSpecialization
	existing.CompatibleSpecializations = vt.CompatibleSpecializations
	return existing
}

// CompatibleSpecializations returns the ordered set of concrete type names
// a generic type may be specialized to. Empty (not an error) if generic is
// unknown or concrete.
func (r *TypeRegistry) CompatibleSpecializations(generic string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	vt, ok := r.types[generic]
	if !ok || !vt.Generic {
		return nil
	}
	out := make([]string, len(vt.CompatibleSpecializations))
	copy(out, vt.CompatibleSpecializations)
	return out
}

// IsListType reports whether name refers to a "list of" type.
func IsListType(name string) bool { return types.IsListType(name) }

// InnermostName strips the list-type prefix from name.
func InnermostName(name string) string { return types.InnermostName(name) }

// All returns every interned ValueType, sorted by name for deterministic
// iteration (diagnostics, tests).
func (r *TypeRegistry) All() []*types.ValueType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*types.ValueType, 0, len(r.types))
	for _, vt := range r.types {
		out = append(out, vt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
