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

// Package maps wraps mapstructure/structs conversions between a Port
// Class's dynamic `Details:` JSON map and its typed PortDetail, and back,
// so the Module Parser and the Composition Parser/Serializer share one
// decode/encode path instead of each rolling their own.
package maps

import (
	"github.com/fatih/structs"
	"github.com/mitchellh/mapstructure"

	"github.com/bittoy/compositron/types"
)

// DecodeDetail decodes a dynamic Details map into a types.PortDetail. Keys
// not recognized by PortDetail's mapstructure tags are preserved in
// Extra rather than dropped.
func DecodeDetail(raw map[string]any) (types.PortDetail, error) {
	var detail types.PortDetail
	if err := mapstructure.Decode(raw, &detail); err != nil {
		return detail, err
	}
	known := structs.Names(&types.PortDetail{})
	knownKeys := make(map[string]bool, len(known))
	for _, field := range structs.New(&detail).Fields() {
		tag := field.Tag("mapstructure")
		if tag != "" && tag != "-" {
			knownKeys[tag] = true
		}
	}
	extra := make(map[string]any)
	for k, v := range raw {
		if !knownKeys[k] {
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		detail.Extra = extra
	}
	return detail, nil
}

// EncodeDetail flattens a types.PortDetail back into a dynamic map for
// round-trip serialization, folding in any preserved Extra keys and
// dropping zero-value recognized fields (per the `omitempty` struct tags).
func EncodeDetail(detail types.PortDetail) map[string]any {
	out := structs.Map(&detail)
	delete(out, "Extra")
	for k, v := range detail.Extra {
		out[k] = v
	}
	return out
}
