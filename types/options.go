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

// Option configures a Config. Apply via NewConfig(opts...).
type Option func(*Config) error

// WithTypeRegistry sets the Config's Type Registry.
func WithTypeRegistry(registry TypeRegistry) Option {
	return func(c *Config) error {
		c.TypeRegistry = registry
		return nil
	}
}

// WithNodeClassCatalog sets the Config's Node Class Catalog.
func WithNodeClassCatalog(catalog NodeClassCatalog) Option {
	return func(c *Config) error {
		c.NodeClassCatalog = catalog
		return nil
	}
}

// WithParser sets the Config's composition text Parser.
func WithParser(parser Parser) Option {
	return func(c *Config) error {
		c.Parser = parser
		return nil
	}
}

// WithLogger sets the Config's Logger.
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithProperties sets the Config's global Properties.
func WithProperties(properties Properties) Option {
	return func(c *Config) error {
		c.Properties = properties
		return nil
	}
}

// WithValueCoercer registers one named ValueCoercer on the Config.
func WithValueCoercer(name string, coercer ValueCoercer) Option {
	return func(c *Config) error {
		c.RegisterValueCoercer(name, coercer)
		return nil
	}
}
