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

// Package protocol holds the built-in Protocol definitions: named sets of
// published-port requirements a composition may be validated and
// activated against. Grounded on the small named-rule-set pattern
// builtin/aspect/chain_validator_aspect.go uses for chain-shape rules,
// generalized here to published-port shape rules.
package protocol

import "github.com/bittoy/compositron/types"

// ImageFilter mandates a time input, an image input, and an image output,
// in that order — the canonical example from the end-to-end scenarios.
var ImageFilter = &types.Protocol{
	Name: "ImageFilter",
	MandatedInputs: []types.MandatedPort{
		{Name: "time", TypeName: "real"},
		{Name: "image", TypeName: "image"},
	},
	MandatedOutputs: []types.MandatedPort{
		{Name: "outputImage", TypeName: "image"},
	},
}

// ImageGenerator mandates time, width and height inputs and an image
// output; it is a
// generator protocol with no input image, used by node classes that
// synthesize imagery rather than transform it.
var ImageGenerator = &types.Protocol{
	Name: "ImageGenerator",
	MandatedInputs: []types.MandatedPort{
		{Name: "time", TypeName: "real"},
		{Name: "width", TypeName: "integer"},
		{Name: "height", TypeName: "integer"},
	},
	MandatedOutputs: []types.MandatedPort{
		{Name: "generatedImage", TypeName: "image"},
	},
}

// ImageTransition mandates two input images and a progress input, in
// addition to the output image, for crossfade/transition node classes.
var ImageTransition = &types.Protocol{
	Name: "ImageTransition",
	MandatedInputs: []types.MandatedPort{
		{Name: "progress", TypeName: "real"},
		{Name: "startImage", TypeName: "image"},
		{Name: "endImage", TypeName: "image"},
	},
	MandatedOutputs: []types.MandatedPort{
		{Name: "transitionedImage", TypeName: "image"},
	},
}

// Builtins lists every protocol this package defines, keyed by name.
var Builtins = map[string]*types.Protocol{
	ImageFilter.Name:     ImageFilter,
	ImageGenerator.Name:  ImageGenerator,
	ImageTransition.Name: ImageTransition,
}

// Lookup returns the built-in protocol named name, if any.
func Lookup(name string) (*types.Protocol, bool) {
	p, ok := Builtins[name]
	return p, ok
}
