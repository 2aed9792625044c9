// Copyright Cedar Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package schema compiles one or more JSON schema fragments into a single,
// fully-resolved ValidatedSchema.
//
// A schema fragment declares namespaces, entity types, common (named) type
// aliases, and actions. Compiling a set of fragments merges them into one
// coherent world: type references are resolved across namespaces and across
// fragments, the entity-type and action membership hierarchies are inverted
// and transitively closed, and every reference is checked against what was
// actually declared.
//
// The package does not parse policies, type-check them against a schema, or
// validate runtime entity instances; it produces the schema those downstream
// steps consume.
package schema
