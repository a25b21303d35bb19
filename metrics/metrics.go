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

// Package metrics exposes the Prometheus counters and histograms the rest
// of the module's packages increment: catalog loads, Module Parser
// malformed-module counts, and Composition Model mutation counts.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ModuleParseTotal counts Module Parser outcomes by result
	// ("substantial", "not-a-node-class", "malformed").
	ModuleParseTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compositron",
			Subsystem: "compiler",
			Name:      "module_parse_total",
			Help:      "Module Parser outcomes by result.",
		},
		[]string{"result"},
	)

	// CatalogClassesTotal counts Node Class Catalog add/remove operations
	// by kind ("substantial", "placeholder") and action ("add", "remove").
	CatalogClassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compositron",
			Subsystem: "compiler",
			Name:      "catalog_classes_total",
			Help:      "Node Class Catalog add/remove operations.",
		},
		[]string{"kind", "action"},
	)

	// CompositionMutationsTotal counts Composition Model mutations by
	// operation ("addNode", "removeNode", "connect", "disconnect",
	// "setPortConstant", "setTriggerThrottling", "publishInternal",
	// "unpublish", "setActiveProtocol") and outcome ("ok", "rejected").
	CompositionMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compositron",
			Subsystem: "compiler",
			Name:      "composition_mutations_total",
			Help:      "Composition Model mutations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	// SpecializationDuration observes how long Specialization Engine
	// operations take, by operation ("specialize", "unspecialize",
	// "respecialize").
	SpecializationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "compositron",
			Subsystem: "compiler",
			Name:      "specialization_duration_seconds",
			Help:      "Specialization Engine operation latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// ValidationIssuesTotal counts Validation findings by check ("feedback-loop",
	// "dangling-connection", "attachment", "protocol-compliance") and kind
	// (the types.IssueKind string form).
	ValidationIssuesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compositron",
			Subsystem: "compiler",
			Name:      "validation_issues_total",
			Help:      "Validation findings by check and issue kind.",
		},
		[]string{"check", "kind"},
	)
)

func init() {
	prometheus.MustRegister(ModuleParseTotal, CatalogClassesTotal, CompositionMutationsTotal, SpecializationDuration, ValidationIssuesTotal)
}
