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

// closeTransitive computes the transitive closure of a children map in
// place, per §4.4. children maps a parent key to its direct children; the
// result maps every parent key of children to its full, transitively-closed
// descendant set. A key that appears only as a child gets no entry. A key is
// always excluded from its own descendant set, even when a cycle would
// otherwise put it there.
//
// The closer is deliberately untyped over anything but string keys — both
// entity-type names and action ids are reduced to their canonical string
// form before reaching this function, so one implementation serves both
// graphs, with checkCycles as the only behavioral knob between them
// (§9's node-abstraction design note).
//
// It operates only on keys present in the map: a child key that never
// appears as a parent stays in its parent's set but is not followed any
// further. Dangling parent references are
// exactly what the consistency checker (consistency.go) reports
// separately as undeclared references.
func closeTransitive(children map[string]map[string]bool, checkCycles bool) (descendants map[string]map[string]bool, cyclic []string) {
	descendants = make(map[string]map[string]bool, len(children))
	for parent, kids := range children {
		set := make(map[string]bool, len(kids))
		for k := range kids {
			set[k] = true
		}
		descendants[parent] = set
	}

	for changed := true; changed; {
		changed = false
		for _, desc := range descendants {
			for child := range desc {
				for grandchild := range descendants[child] {
					if !desc[grandchild] {
						desc[grandchild] = true
						changed = true
					}
				}
			}
		}
	}

	if checkCycles {
		for key, desc := range descendants {
			if desc[key] {
				cyclic = append(cyclic, key)
			}
		}
	}

	// A node is never its own descendant, even when a cycle makes the
	// fixed point above put it there (§3 invariant 2, §8 property 1). The
	// cycle check above runs first since it depends on exactly that
	// self-membership.
	for key, desc := range descendants {
		delete(desc, key)
	}

	return descendants, cyclic
}
