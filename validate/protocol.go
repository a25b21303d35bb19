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
	"fmt"

	"github.com/dop251/goja"

	"github.com/bittoy/compositron/composition"
	"github.com/bittoy/compositron/types"
)

// checkProtocolCompliance reports a composition's deviation from its active
// Protocol, if any: missing or mistyped mandated published ports, and, if
// the protocol carries a ComplianceScript, that script's own verdict.
func checkProtocolCompliance(comp *composition.Composition) []*types.Issue {
	protocol := comp.ActiveProtocol
	if protocol == nil {
		return nil
	}
	var issues []*types.Issue
	issues = append(issues, checkMandated(protocol.Name, comp.PublishedInputs, protocol.MandatedInputs, "input")...)
	issues = append(issues, checkMandated(protocol.Name, comp.PublishedOutputs, protocol.MandatedOutputs, "output")...)

	if protocol.Compliance != nil {
		if issue := runComplianceScript(protocol.Compliance, comp.PublishedInputs, comp.PublishedOutputs); issue != nil {
			issues = append(issues, issue)
		}
	}
	return issues
}

func checkMandated(protocolName string, published []*composition.PublishedPort, mandates []types.MandatedPort, direction string) []*types.Issue {
	var issues []*types.Issue
	byName := make(map[string]*composition.PublishedPort, len(published))
	for _, pp := range published {
		byName[pp.Name] = pp
	}
	for _, m := range mandates {
		pp, ok := byName[m.Name]
		if !ok {
			issues = append(issues, types.NewInvariantViolation(m.Name,
				fmt.Sprintf("protocol %q requires a published %s port named %q", protocolName, direction, m.Name)))
			continue
		}
		if pp.TypeName != m.TypeName {
			issues = append(issues, types.NewTypeMismatch(m.Name,
				fmt.Sprintf("published %s port %q has type %q, protocol requires %q", direction, m.Name, pp.TypeName, m.TypeName)))
		}
	}
	return issues
}

func publishedToJS(list []*composition.PublishedPort) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, pp := range list {
		out = append(out, map[string]any{
			"name":     pp.Name,
			"typeName": pp.TypeName,
			"mandated": pp.Mandated,
		})
	}
	return out
}

// runComplianceScript evaluates script's `compliant(publishedInputs,
// publishedOutputs)` function, grounded on the module's goja usage for
// user-supplied predicates (compile, assert-function, call, export).
func runComplianceScript(script *types.ComplianceScript, inputs, outputs []*composition.PublishedPort) *types.Issue {
	vm := goja.New()
	if _, err := vm.RunString(script.Source); err != nil {
		return types.NewInvariantViolation("", "compliance script failed to compile: "+err.Error())
	}
	fn, ok := goja.AssertFunction(vm.Get("compliant"))
	if !ok {
		return types.NewInvariantViolation("", "compliance script does not define a compliant(...) function")
	}
	result, err := fn(goja.Undefined(), vm.ToValue(publishedToJS(inputs)), vm.ToValue(publishedToJS(outputs)))
	if err != nil {
		return types.NewInvariantViolation("", "compliance script error: "+err.Error())
	}
	compliant, ok := result.Export().(bool)
	if !ok {
		return types.NewInvariantViolation("", "compliance script must return a boolean")
	}
	if !compliant {
		return types.NewInvariantViolation("", "composition fails its protocol's compliance script")
	}
	return nil
}
