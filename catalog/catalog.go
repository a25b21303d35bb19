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

// Package catalog implements the Node Class Catalog: a name-to-NodeClass
// map that atomically adds and removes classes as modules are loaded and
// unloaded, tracking each class's dependency set and tolerating
// placeholder classes for node classes whose implementation module could
// not be found.
package catalog

import (
	"sort"
	"sync"

	"github.com/bittoy/compositron/metrics"
	"github.com/bittoy/compositron/types"
)

// Catalog is the default, RWMutex-guarded Node Class Catalog.
type Catalog struct {
	mu      sync.RWMutex
	classes map[string]*types.NodeClass
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{classes: make(map[string]*types.NodeClass)}
}

// Get returns the Node Class named name, substantial or placeholder.
func (c *Catalog) Get(name string) (*types.NodeClass, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	nc, ok := c.classes[name]
	return nc, ok
}

// Add installs or replaces a Node Class. Installing a substantial class
// over an existing placeholder of the same name is the normal path by
// which an unresolved dependency is later satisfied.
func (c *Catalog) Add(nc *types.NodeClass) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.classes[nc.Name] = nc
	metrics.CatalogClassesTotal.WithLabelValues(kindLabel(nc), "add").Inc()
}

func kindLabel(nc *types.NodeClass) string {
	if nc.Substantial {
		return "substantial"
	}
	return "placeholder"
}

// AddPlaceholder installs a minimal, non-substantial Node Class for a
// referenced-but-unavailable implementation module, so that compositions
// naming it remain loadable.
func (c *Catalog) AddPlaceholder(name string) *types.NodeClass {
	nc := &types.NodeClass{
		Name: name,
		Inputs: []*types.PortClass{{
			Name:     types.RefreshPortName,
			Category: types.EventOnlyPort,
		}},
		Substantial: false,
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.classes[name] = nc
	metrics.CatalogClassesTotal.WithLabelValues("placeholder", "add").Inc()
	return nc
}

// Remove uninstalls a Node Class by name. Removing an unknown name is a
// no-op.
func (c *Catalog) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	nc, ok := c.classes[name]
	if !ok {
		return
	}
	delete(c.classes, name)
	metrics.CatalogClassesTotal.WithLabelValues(kindLabel(nc), "remove").Inc()
}

// All returns every installed Node Class, sorted by name for deterministic
// iteration.
func (c *Catalog) All() []*types.NodeClass {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*types.NodeClass, 0, len(c.classes))
	for _, nc := range c.classes {
		out = append(out, nc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Dependencies returns the names this class's non-generic data ports
// require to be linked, i.e. types.NodeClass.Dependencies, or nil if name
// is not installed.
func (c *Catalog) Dependencies(name string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	nc, ok := c.classes[name]
	if !ok {
		return nil
	}
	return nc.Dependencies
}

// Unresolved returns the names of every placeholder (non-substantial)
// class currently installed, sorted, for Validation's unresolved-dependency
// reporting.
func (c *Catalog) Unresolved() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for name, nc := range c.classes {
		if !nc.Substantial {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
