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

// Package moduleparser implements the Module Parser: it recovers a Node
// Class from one compiled implementation module by walking a neutral
// stream of per-parameter annotations across that module's lifecycle
// entry functions. The stream format — (function kind, parameter index,
// parameter name, role tag, optional type payload, optional details
// payload, pointer-ness) — is the contract; whatever toolchain inspected
// the compiled module to produce it is out of scope here.
package moduleparser

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bittoy/compositron/metrics"
	"github.com/bittoy/compositron/registry"
	"github.com/bittoy/compositron/types"
	"github.com/bittoy/compositron/utils/maps"
)

// Role is the annotation tag naming a parameter's purpose.
type Role string

const (
	RoleInputData     Role = "InputData"
	RoleOutputData    Role = "OutputData"
	RoleInputEvent    Role = "InputEvent"
	RoleOutputEvent   Role = "OutputEvent"
	RoleOutputTrigger Role = "OutputTrigger"
	RoleInstanceData  Role = "InstanceData"
)

// Annotation is one parameter's recovered role, for one lifecycle entry
// function, in the neutral stream the Module Parser consumes.
type Annotation struct {
	Function  types.LifecycleFunctionKind
	Index     int
	ParamName string
	Role      Role
	// Pointer must be true for OutputData, OutputEvent, OutputTrigger and
	// InstanceData roles; a value (non-pointer) parameter in one of those
	// roles is a malformed module.
	Pointer bool
	// TypeName is the payload of a `Type:` tag on this parameter, if any.
	TypeName string
	// Details is the raw JSON object payload of a `Details:` tag on this
	// parameter, if any.
	Details string
}

// ModuleMetadata is the module-level JSON metadata object the collaborator
// hands the parser alongside the annotation stream.
type ModuleMetadata struct {
	ClassName           string
	Title               string
	Description         string
	Version             string
	Keywords            []string
	NodeSet             string
	IsDeprecated        bool
	ExampleCompositions []string
	GenericTypes        map[string]types.GenericTypeInfo
	Triggers            []TriggerSpec
}

// TriggerSpec is one entry of a subcomposition module's `triggers` array.
type TriggerSpec struct {
	Name              string
	DataType          string
	DefaultThrottling string // "Enqueue" or "Drop"; "" defaults to Enqueue
}

// ErrNotANodeClass is returned when the module exposes neither nodeEvent
// nor nodeInstanceEvent; the caller should discard the module silently,
// not treat it as an error.
var ErrNotANodeClass = errors.New("moduleparser: module is not a node class")

var allowedRoles = map[types.LifecycleFunctionKind]map[Role]bool{
	types.FuncNodeEvent: {
		RoleInputData: true, RoleOutputData: true, RoleInputEvent: true,
		RoleOutputEvent: true, RoleOutputTrigger: true,
	},
	types.FuncNodeInstanceEvent: {
		RoleInputData: true, RoleOutputData: true, RoleInputEvent: true,
		RoleOutputEvent: true, RoleOutputTrigger: true, RoleInstanceData: true,
	},
	types.FuncInit:          {RoleInputData: true, RoleInstanceData: true},
	types.FuncFini:          {RoleInstanceData: true},
	types.FuncTriggerStart:  {RoleInputData: true, RoleOutputTrigger: true, RoleInstanceData: true},
	types.FuncTriggerUpdate: {RoleInputData: true, RoleOutputTrigger: true, RoleInstanceData: true},
	types.FuncTriggerStop:   {RoleOutputTrigger: true, RoleInstanceData: true},
}

func mustBePointer(role Role) bool {
	switch role {
	case RoleOutputData, RoleOutputEvent, RoleOutputTrigger, RoleInstanceData:
		return true
	default:
		return false
	}
}

// Parse recovers a Node Class from moduleName's metadata and annotation
// stream, interning every Value Type it encounters in reg. Issues
// accumulated along the way (malformed tags, pointer violations) are both
// returned in the IssueList and, for the first fatal one, as the error.
func Parse(moduleName string, meta ModuleMetadata, annotations []Annotation, reg *registry.TypeRegistry) (*types.NodeClass, *types.IssueList, error) {
	nc, issues, err := parse(moduleName, meta, annotations, reg)
	switch {
	case errors.Is(err, ErrNotANodeClass):
		metrics.ModuleParseTotal.WithLabelValues("not-a-node-class").Inc()
	case err != nil:
		metrics.ModuleParseTotal.WithLabelValues("malformed").Inc()
	default:
		metrics.ModuleParseTotal.WithLabelValues("substantial").Inc()
	}
	return nc, issues, err
}

func parse(moduleName string, meta ModuleMetadata, annotations []Annotation, reg *registry.TypeRegistry) (*types.NodeClass, *types.IssueList, error) {
	issues := &types.IssueList{}

	byFunction := make(map[types.LifecycleFunctionKind][]Annotation)
	for _, a := range annotations {
		byFunction[a.Function] = append(byFunction[a.Function], a)
	}

	_, hasEvent := byFunction[types.FuncNodeEvent]
	_, hasInstanceEvent := byFunction[types.FuncNodeInstanceEvent]
	if !hasEvent && !hasInstanceEvent {
		return nil, nil, ErrNotANodeClass
	}
	stateful := hasInstanceEvent

	for _, a := range annotations {
		allowed := allowedRoles[a.Function]
		if !allowed[a.Role] {
			issue := types.NewModuleMalformed(moduleName,
				fmt.Sprintf("tag %q is not allowed in function %q", a.Role, a.Function), nil)
			issues.Add(issue)
			return nil, issues, issue
		}
		if mustBePointer(a.Role) && !a.Pointer {
			issue := types.NewModuleMalformed(moduleName,
				fmt.Sprintf("parameter %q (role %q) must be a pointer", a.ParamName, a.Role), nil)
			issues.Add(issue)
			return nil, issues, issue
		}
	}

	builder := newClassBuilder(moduleName, reg)

	primary := byFunction[types.FuncNodeEvent]
	if stateful {
		primary = byFunction[types.FuncNodeInstanceEvent]
	}
	sort.SliceStable(primary, func(i, j int) bool { return primary[i].Index < primary[j].Index })
	for _, a := range primary {
		if err := builder.observe(moduleName, a, issues); err != nil {
			return nil, issues, err
		}
	}

	for kind, group := range byFunction {
		if kind == types.FuncNodeEvent || kind == types.FuncNodeInstanceEvent {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool { return group[i].Index < group[j].Index })
		for _, a := range group {
			if err := builder.observe(moduleName, a, issues); err != nil {
				return nil, issues, err
			}
		}
	}

	if stateful {
		if _, ok := byFunction[types.FuncInit]; !ok {
			issue := types.NewModuleMalformed(moduleName, "stateful node class missing required init entry", nil)
			issues.Add(issue)
			return nil, issues, issue
		}
		if _, ok := byFunction[types.FuncFini]; !ok {
			issue := types.NewModuleMalformed(moduleName, "stateful node class missing required fini entry", nil)
			issues.Add(issue)
			return nil, issues, issue
		}
	}
	if _, ok := byFunction[types.FuncTriggerStart]; ok {
		if _, ok := byFunction[types.FuncTriggerStop]; !ok {
			issue := types.NewModuleMalformed(moduleName, "node class declares triggerStart without required triggerStop", nil)
			issues.Add(issue)
			return nil, issues, issue
		}
	}

	for name, info := range meta.GenericTypes {
		reg.InternValueType(&types.ValueType{
			Name:                      name,
			Generic:                   true,
			DefaultSpecialization:     info.DefaultType,
			CompatibleSpecializations: info.CompatibleTypes,
		})
	}

	nc := builder.build(meta, stateful)
	return nc, issues, nil
}

// classBuilder accumulates Port Classes across a module's lifecycle
// entries, keyed by parameter name so that a port seen again in a later
// entry reuses the same Port Class instead of creating a duplicate.
type classBuilder struct {
	reg          *registry.TypeRegistry
	order        []string
	ports        map[string]*types.PortClass
	isOutput     map[string]bool
	dataName     map[string]string // event param name -> paired data param name, from Details.data
	dependencies map[string]bool
}

func newClassBuilder(moduleName string, reg *registry.TypeRegistry) *classBuilder {
	return &classBuilder{
		reg:          reg,
		ports:        make(map[string]*types.PortClass),
		isOutput:     make(map[string]bool),
		dataName:     make(map[string]string),
		dependencies: make(map[string]bool),
	}
}

func (b *classBuilder) observe(moduleName string, a Annotation, issues *types.IssueList) error {
	switch a.Role {
	case RoleInstanceData:
		return nil
	case RoleOutputTrigger:
		return b.upsert(moduleName, a, types.TriggerPort, true, issues)
	case RoleInputData:
		return b.upsert(moduleName, a, types.DataAndEventPort, false, issues)
	case RoleOutputData:
		return b.upsert(moduleName, a, types.DataAndEventPort, true, issues)
	case RoleInputEvent:
		if err := b.upsert(moduleName, a, types.EventOnlyPort, false, issues); err != nil {
			return err
		}
		if dataName := detailsDataKey(a.Details); dataName != "" {
			b.dataName[a.ParamName] = dataName
		}
		return nil
	case RoleOutputEvent:
		if err := b.upsert(moduleName, a, types.EventOnlyPort, true, issues); err != nil {
			return err
		}
		if dataName := detailsDataKey(a.Details); dataName != "" {
			b.dataName[a.ParamName] = dataName
		}
		return nil
	default:
		issue := types.NewModuleMalformed(moduleName, fmt.Sprintf("unrecognized role %q", a.Role), nil)
		issues.Add(issue)
		return issue
	}
}

func detailsDataKey(detailsJSON string) string {
	if detailsJSON == "" {
		return ""
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(detailsJSON), &raw); err != nil {
		return ""
	}
	if v, ok := raw["data"].(string); ok {
		return v
	}
	return ""
}

func (b *classBuilder) upsert(moduleName string, a Annotation, category types.PortCategory, isOutput bool, issues *types.IssueList) error {
	existing, seen := b.ports[a.ParamName]
	if !seen {
		pc := &types.PortClass{Name: a.ParamName, DisplayName: a.ParamName, Category: category}
		if a.TypeName != "" {
			vt := b.reg.Intern(a.TypeName)
			pc.DataType = vt
			if !vt.Generic {
				b.dependencies[vt.Name] = true
			}
		}
		if a.Details != "" {
			applyDetails(pc, a.Details)
		}
		b.ports[a.ParamName] = pc
		b.isOutput[a.ParamName] = isOutput
		b.order = append(b.order, a.ParamName)
		return nil
	}

	if b.isOutput[a.ParamName] != isOutput {
		issue := types.NewModuleMalformed(moduleName,
			fmt.Sprintf("port %q is declared as both an input and an output across lifecycle entries", a.ParamName), nil)
		issues.Add(issue)
		return issue
	}
	if existing.Category == types.EventOnlyPort && category == types.DataAndEventPort {
		existing.Category = types.DataAndEventPort
	}
	if a.TypeName != "" && existing.DataType == nil {
		vt := b.reg.Intern(a.TypeName)
		existing.DataType = vt
		if !vt.Generic {
			b.dependencies[vt.Name] = true
		}
	}
	if a.Details != "" {
		applyDetails(existing, a.Details)
	}
	return nil
}

func applyDetails(pc *types.PortClass, detailsJSON string) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(detailsJSON), &raw); err != nil {
		return
	}
	detail, _ := maps.DecodeDetail(raw)
	pc.Detail = detail
	if detail.Name != "" {
		pc.DisplayName = detail.Name
	}
	switch detail.EventBlocking {
	case "Door":
		pc.EventBlocking = types.EventBlockingDoor
	case "Wall":
		pc.EventBlocking = types.EventBlockingWall
	default:
		pc.EventBlocking = types.EventBlockingNone
	}
	switch detail.EventThrottling {
	case "Drop":
		pc.DefaultEventThrottling = types.EventThrottlingDrop
	default:
		pc.DefaultEventThrottling = types.EventThrottlingEnqueue
	}
	pc.HasPortAction = detail.HasPortAction
}

func (b *classBuilder) build(meta ModuleMetadata, stateful bool) *types.NodeClass {
	// Merge data/event pairs: an event port whose Details.data pointed at a
	// data port's name folds into that data port and is dropped from the
	// port list in its own right.
	merged := make(map[string]bool)
	for eventName, dataName := range b.dataName {
		dataPort, ok := b.ports[dataName]
		if !ok {
			continue
		}
		dataPort.Category = types.DataAndEventPort
		merged[eventName] = true
	}

	var inputs, outputs []*types.PortClass
	for _, name := range b.order {
		if merged[name] {
			continue
		}
		pc := b.ports[name]
		if b.isOutput[name] {
			outputs = append(outputs, pc)
		} else {
			inputs = append(inputs, pc)
		}
	}

	hasRefresh := false
	for _, pc := range inputs {
		if pc.Name == types.RefreshPortName {
			hasRefresh = true
			break
		}
	}
	if !hasRefresh {
		refresh := &types.PortClass{Name: types.RefreshPortName, DisplayName: "Refresh", Category: types.EventOnlyPort}
		inputs = append([]*types.PortClass{refresh}, inputs...)
	} else {
		sort.SliceStable(inputs, func(i, j int) bool {
			return inputs[i].Name == types.RefreshPortName && inputs[j].Name != types.RefreshPortName
		})
	}

	for _, pc := range inputs {
		if pc.Name == types.RefreshPortName {
			continue
		}
		explicitNone := strings.EqualFold(pc.Detail.EventBlocking, "None")
		if !pc.HasPortAction && (explicitNone || pc.DataType == nil) {
			pc.HasPortAction = true
		}
	}

	deps := make([]string, 0, len(b.dependencies))
	for d := range b.dependencies {
		deps = append(deps, d)
	}
	sort.Strings(deps)

	var triggers []types.TriggerDescriptor
	for _, t := range meta.Triggers {
		throttle := types.EventThrottlingEnqueue
		if t.DefaultThrottling == "Drop" {
			throttle = types.EventThrottlingDrop
		}
		triggers = append(triggers, types.TriggerDescriptor{Name: t.Name, DataType: t.DataType, DefaultThrottling: throttle})
	}

	var instanceData *types.InstanceDataDescriptor
	if stateful {
		instanceData = &types.InstanceDataDescriptor{}
	}

	return &types.NodeClass{
		Name:                meta.ClassName,
		DefaultTitle:        meta.Title,
		Description:         meta.Description,
		Version:             meta.Version,
		Keywords:            meta.Keywords,
		NodeSet:             meta.NodeSet,
		Deprecated:          meta.IsDeprecated,
		ExampleCompositions: meta.ExampleCompositions,
		Inputs:              inputs,
		Outputs:             outputs,
		Stateful:            stateful,
		InstanceData:        instanceData,
		Triggers:            triggers,
		GenericTypes:        meta.GenericTypes,
		Dependencies:        deps,
		Substantial:         true,
	}
}
