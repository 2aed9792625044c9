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

package schema

// collectEntityRefs walks a resolved ValidatorType's attribute tree,
// recording every QualifiedName it finds inside an EntityType into refs.
// This is how the consistency checker (§4.5) discovers entity types
// referenced from attribute shapes, as opposed to referenced from memberOf
// (which is instead tracked via the residual entityChildren keys in
// schema.go).
func collectEntityRefs(t ValidatorType, refs nameSet) {
	switch v := t.(type) {
	case EntityType:
		for _, n := range v.LUB {
			refs.add(n)
		}
	case SetType:
		if v.Element != nil {
			collectEntityRefs(v.Element, refs)
		}
	case RecordType:
		for _, attr := range v.Attrs {
			collectEntityRefs(attr.Type, refs)
		}
	}
}

// collectApplySpecRefs records every Concrete entity type referenced by an
// ApplySpec's principal and resource lists. Unspecified entries are opaque
// and contribute nothing, per §9's design note.
func collectApplySpecRefs(spec ApplySpec, refs nameSet) {
	for _, r := range spec.Principals {
		if n, ok := r.Name(); ok {
			refs.add(n)
		}
	}
	for _, r := range spec.Resources {
		if n, ok := r.Name(); ok {
			refs.add(n)
		}
	}
}
