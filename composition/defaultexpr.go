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

package composition

import (
	"fmt"
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/bittoy/compositron/types"
)

// initialConstant resolves the initial Constant value for a freshly
// instantiated input Port: pc.Detail.DefaultExpr, if present, is compiled
// and run against props (falling back to the literal Default on any
// compile or run error, so a bad expression degrades gracefully rather than
// blocking node instantiation); otherwise the literal Default is used
// as-is.
func initialConstant(pc *types.PortClass, props types.Properties) string {
	if pc.Detail.DefaultExpr == "" {
		return pc.Detail.Default
	}
	program, err := expr.Compile(pc.Detail.DefaultExpr, expr.AllowUndefinedVariables())
	if err != nil {
		return pc.Detail.Default
	}
	env := map[string]any{}
	if props != nil {
		env["global"] = props.Values()
	}
	out, err := vm.Run(program, env)
	if err != nil {
		return pc.Detail.Default
	}
	if out == nil {
		return pc.Detail.Default
	}
	if reflect.TypeOf(out).Kind() == reflect.String {
		return out.(string)
	}
	return fmt.Sprint(out)
}
