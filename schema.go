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

import (
	"encoding/json"

	"golang.org/x/exp/slices"
)

// ValidatedEntityType is one declared entity type after compilation: its
// fully qualified name, its transitively closed descendant set (excluding
// itself), and its resolved attribute shape.
type ValidatedEntityType struct {
	Name        QualifiedName
	Descendants []QualifiedName
	Attributes  AttributeMap
}

// ValidatedActionId is one declared action after compilation.
type ValidatedActionId struct {
	Name        ActionID
	AppliesTo   ApplySpec
	Descendants []ActionID
	Context     AttributeMap
	Attributes  AttributeMap
}

// ValidatedSchema is the immutable result of compiling one or more schema
// fragments. Once constructed it is never mutated; every query method below
// only reads, so a *ValidatedSchema may be shared across goroutines without
// synchronization (§5).
type ValidatedSchema struct {
	entityTypes map[string]*ValidatedEntityType
	actions     map[string]*ValidatedActionId
}

// FromFragmentsOption configures FromFragments. WithActionBehavior is
// currently the only option, mirroring the teacher's
// ValidatorOption/WithMaxAttributeLevel functional-options pattern.
type FromFragmentsOption func(*fromFragmentsConfig)

type fromFragmentsConfig struct {
	behavior ActionBehavior
}

// WithActionBehavior sets the policy governing whether action entities may
// carry attributes or participate in memberOf groups with attributes
// present. The default, when no option is supplied, is ProhibitAttributes.
func WithActionBehavior(behavior ActionBehavior) FromFragmentsOption {
	return func(c *fromFragmentsConfig) {
		c.behavior = behavior
	}
}

// FromFragments implements §4.6: it compiles every namespace of every
// fragment independently, merges the results, resolves every deferred type
// against the merged common-type table, closes both hierarchies, runs the
// consistency checker, and returns the immutable ValidatedSchema.
func FromFragments(fragments []SchemaFragment, opts ...FromFragmentsOption) (*ValidatedSchema, error) {
	cfg := fromFragmentsConfig{behavior: ProhibitAttributes}
	for _, opt := range opts {
		opt(&cfg)
	}

	merged := newMergedNamespace()
	for _, fragment := range fragments {
		for nsKey, def := range fragment {
			compiled, err := compileNamespace(nsKey, def, cfg.behavior)
			if err != nil {
				return nil, err
			}
			if err := mergeCompiledNamespace(merged, compiled); err != nil {
				return nil, err
			}
		}
	}

	// §4.6 step 5-6: resolve every deferred type and build the
	// ValidatedEntityType/ValidatedActionId records. The children maps are
	// left intact; parents that were never declared are found further down
	// by looking each children-map key up among the declarations.
	schema := &ValidatedSchema{
		entityTypes: make(map[string]*ValidatedEntityType, len(merged.entityAttrs)),
		actions:     make(map[string]*ValidatedActionId, len(merged.actionContextApplies)),
	}
	for key, entry := range merged.entityAttrs {
		rec, err := resolveRecord(entry.Shape, merged.typeDefs, "entity type "+entry.Name.String()+" shape")
		if err != nil {
			return nil, err
		}
		schema.entityTypes[key] = &ValidatedEntityType{Name: entry.Name, Attributes: rec.Attrs}
	}
	for key, entry := range merged.actionContextApplies {
		rec, err := resolveRecord(entry.Context, merged.typeDefs, "action "+entry.ID.String()+" context")
		if err != nil {
			return nil, err
		}
		schema.actions[key] = &ValidatedActionId{
			Name:       entry.ID,
			AppliesTo:  entry.Applies,
			Context:    rec.Attrs,
			Attributes: merged.actionAttrs[key],
		}
	}

	// §4.4: close both hierarchies. Only the action graph is cycle-checked.
	// The graph includes every parent key, declared or not — an undeclared
	// parent still gets a descendant set here and, separately, still gets
	// reported by the consistency check below.
	entityGraph := make(map[string]map[string]bool, len(merged.entityChildren))
	for key, entry := range merged.entityChildren {
		entityGraph[key] = boolSetFromNames(entry.Children)
	}
	actionGraph := make(map[string]map[string]bool, len(merged.actionChildren))
	for key, entry := range merged.actionChildren {
		actionGraph[key] = boolSetFromIDs(entry.Children)
	}
	entityDescendants, _ := closeTransitive(entityGraph, false)
	actionDescendants, cyclicActions := closeTransitive(actionGraph, true)
	if len(cyclicActions) > 0 {
		slices.Sort(cyclicActions)
		return nil, &CycleInActionHierarchyError{ID: cyclicActions[0]}
	}

	for key, et := range schema.entityTypes {
		desc := entityDescendants[key]
		names := make([]QualifiedName, 0, len(desc))
		for childKey := range desc {
			names = append(names, merged.entityAttrs[childKey].Name)
		}
		slices.SortFunc(names, func(a, b QualifiedName) bool { return a.String() < b.String() })
		et.Descendants = names
	}
	for key, a := range schema.actions {
		desc := actionDescendants[key]
		ids := make([]ActionID, 0, len(desc))
		for childKey := range desc {
			ids = append(ids, merged.actionContextApplies[childKey].ID)
		}
		slices.SortFunc(ids, func(a, b ActionID) bool { return a.String() < b.String() })
		a.Descendants = ids
	}

	// §4.5: walk every resolved attribute tree, every action context, and
	// every applies_to set, collecting every entity-type reference found;
	// then keep only the ones with no matching declaration. fold in every
	// entity-children parent key that was never itself declared (i.e. has
	// no entry in merged.entityAttrs) as an additional seed — that is a
	// parent referenced by memberOfTypes but never declared as an entity
	// type.
	referencedEntities := nameSet{}
	for _, et := range schema.entityTypes {
		collectEntityRefs(RecordType{Attrs: et.Attributes}, referencedEntities)
	}
	for _, a := range schema.actions {
		collectEntityRefs(RecordType{Attrs: a.Context}, referencedEntities)
		collectApplySpecRefs(a.AppliesTo, referencedEntities)
	}
	undeclaredEntities := nameSet{}
	for key, n := range referencedEntities {
		if _, declared := merged.entityAttrs[key]; !declared {
			undeclaredEntities.add(n)
		}
	}
	for key, entry := range merged.entityChildren {
		if _, declared := merged.entityAttrs[key]; !declared {
			undeclaredEntities.add(entry.Parent)
		}
	}

	undeclaredActions := idSet{}
	for key, entry := range merged.actionChildren {
		if _, declared := merged.actionContextApplies[key]; !declared {
			undeclaredActions.add(entry.Parent)
		}
	}

	if len(undeclaredEntities) > 0 {
		names := make([]QualifiedName, 0, len(undeclaredEntities))
		for _, n := range undeclaredEntities {
			names = append(names, n)
		}
		slices.SortFunc(names, func(a, b QualifiedName) bool { return a.String() < b.String() })
		return nil, &UndeclaredEntityTypesError{Names: names}
	}
	if len(undeclaredActions) > 0 {
		ids := make([]string, 0, len(undeclaredActions))
		for k := range undeclaredActions {
			ids = append(ids, k)
		}
		slices.Sort(ids)
		return nil, &UndeclaredActionsError{IDs: ids}
	}

	return schema, nil
}

func newMergedNamespace() *compiledNamespace {
	return &compiledNamespace{
		typeDefs:             map[string]ValidatorType{},
		typeDefNames:         map[string]QualifiedName{},
		entityAttrs:          map[string]entityAttrEntry{},
		entityChildren:       map[string]*entityChildrenEntry{},
		actionContextApplies: map[string]actionContextEntry{},
		actionChildren:       map[string]*actionChildrenEntry{},
		actionAttrs:          map[string]AttributeMap{},
	}
}

// mergeCompiledNamespace folds one namespace's compiled output into the
// running merge, applying the duplicate-detection and union rules of §4.6
// steps 2-4.
func mergeCompiledNamespace(merged, compiled *compiledNamespace) error {
	for key, val := range compiled.typeDefs {
		if _, exists := merged.typeDefs[key]; exists {
			return &DuplicateCommonTypeError{Name: compiled.typeDefNames[key]}
		}
		merged.typeDefs[key] = val
		merged.typeDefNames[key] = compiled.typeDefNames[key]
	}
	for key, entry := range compiled.entityAttrs {
		if _, exists := merged.entityAttrs[key]; exists {
			return &DuplicateEntityTypeError{Name: entry.Name}
		}
		merged.entityAttrs[key] = entry
	}
	for key, entry := range compiled.actionContextApplies {
		if _, exists := merged.actionContextApplies[key]; exists {
			return &DuplicateActionError{ID: entry.ID}
		}
		merged.actionContextApplies[key] = entry
		merged.actionAttrs[key] = compiled.actionAttrs[key]
	}
	for key, entry := range compiled.entityChildren {
		dst, ok := merged.entityChildren[key]
		if !ok {
			dst = &entityChildrenEntry{Parent: entry.Parent, Children: nameSet{}}
			merged.entityChildren[key] = dst
		}
		for k, v := range entry.Children {
			dst.Children[k] = v
		}
	}
	for key, entry := range compiled.actionChildren {
		dst, ok := merged.actionChildren[key]
		if !ok {
			dst = &actionChildrenEntry{Parent: entry.Parent, Children: idSet{}}
			merged.actionChildren[key] = dst
		}
		for k, v := range entry.Children {
			dst.Children[k] = v
		}
	}
	return nil
}

func boolSetFromNames(set nameSet) map[string]bool {
	out := make(map[string]bool, len(set))
	for k := range set {
		out[k] = true
	}
	return out
}

func boolSetFromIDs(set idSet) map[string]bool {
	out := make(map[string]bool, len(set))
	for k := range set {
		out[k] = true
	}
	return out
}

// GetEntityType returns the named entity type, or nil if it was not
// declared (§4.7).
func (s *ValidatedSchema) GetEntityType(name QualifiedName) *ValidatedEntityType {
	return s.entityTypes[name.String()]
}

// GetActionID returns the named action, or nil if it was not declared.
func (s *ValidatedSchema) GetActionID(id ActionID) *ValidatedActionId {
	return s.actions[id.String()]
}

// KnownEntityTypes returns every declared entity type's name, sorted for
// determinism.
func (s *ValidatedSchema) KnownEntityTypes() []QualifiedName {
	names := make([]QualifiedName, 0, len(s.entityTypes))
	for _, et := range s.entityTypes {
		names = append(names, et.Name)
	}
	slices.SortFunc(names, func(a, b QualifiedName) bool { return a.String() < b.String() })
	return names
}

// KnownActionIDs returns every declared action's id, sorted for
// determinism.
func (s *ValidatedSchema) KnownActionIDs() []ActionID {
	ids := make([]ActionID, 0, len(s.actions))
	for _, a := range s.actions {
		ids = append(ids, a.Name)
	}
	slices.SortFunc(ids, func(a, b ActionID) bool { return a.String() < b.String() })
	return ids
}

// AttrType returns the type of attr on entity. It returns nil when entity is
// the Unspecified sentinel or the attribute is absent.
func (s *ValidatedSchema) AttrType(entity EntityTypeRef, attr string) ValidatorType {
	name, ok := entity.Name()
	if !ok {
		return nil
	}
	et := s.entityTypes[name.String()]
	if et == nil {
		return nil
	}
	a, ok := et.Attributes[attr]
	if !ok {
		return nil
	}
	return a.Type
}

// RequiredAttrs returns, sorted, the names of entity's required attributes.
// It returns nil for the Unspecified sentinel or an undeclared entity type.
func (s *ValidatedSchema) RequiredAttrs(entity EntityTypeRef) []string {
	name, ok := entity.Name()
	if !ok {
		return nil
	}
	et := s.entityTypes[name.String()]
	if et == nil {
		return nil
	}
	return et.Attributes.RequiredNames()
}

// GetContextSchema returns the context record type for a known action, or
// nil if the action id is undeclared.
func (s *ValidatedSchema) GetContextSchema(id ActionID) *RecordType {
	a := s.actions[id.String()]
	if a == nil {
		return nil
	}
	return &RecordType{Attrs: a.Context}
}

// debugEntityType / debugActionID are the wire shapes used only by
// MarshalJSON below, kept separate from ValidatedEntityType/ValidatedActionId
// so the public structs stay free of json tags that have nothing to do with
// the query surface.
type debugEntityType struct {
	Name        string            `json:"name"`
	Descendants []string          `json:"descendants"`
	Attributes  map[string]string `json:"attributes"`
}

type debugActionID struct {
	Type        string            `json:"type"`
	ID          string            `json:"id"`
	Descendants []string          `json:"descendants"`
	Context     map[string]string `json:"context"`
	Attributes  map[string]string `json:"attributes"`
}

// MarshalJSON renders the schema for debugging/inspection only, per §6. Map
// iteration is sorted via golang.org/x/exp/slices.Sort before emission, so
// two compilations of the same fragment set produce byte-identical output.
func (s *ValidatedSchema) MarshalJSON() ([]byte, error) {
	entityNames := s.KnownEntityTypes()
	entityTypes := make([][2]any, 0, len(entityNames))
	for _, name := range entityNames {
		et := s.entityTypes[name.String()]
		desc := make([]string, 0, len(et.Descendants))
		for _, d := range et.Descendants {
			desc = append(desc, d.String())
		}
		entityTypes = append(entityTypes, [2]any{name.String(), debugEntityType{
			Name:        et.Name.String(),
			Descendants: desc,
			Attributes:  attrMapDebug(et.Attributes),
		}})
	}

	actionIDs := s.KnownActionIDs()
	actions := make([][2]any, 0, len(actionIDs))
	for _, id := range actionIDs {
		a := s.actions[id.String()]
		desc := make([]string, 0, len(a.Descendants))
		for _, d := range a.Descendants {
			desc = append(desc, d.String())
		}
		actions = append(actions, [2]any{id.String(), debugActionID{
			Type:        a.Name.Type.String(),
			ID:          a.Name.ID,
			Descendants: desc,
			Context:     attrMapDebug(a.Context),
			Attributes:  attrMapDebug(a.Attributes),
		}})
	}

	return json.Marshal(struct {
		EntityTypes [][2]any `json:"entityTypes"`
		ActionIDs   [][2]any `json:"actionIds"`
	}{EntityTypes: entityTypes, ActionIDs: actions})
}

func attrMapDebug(m AttributeMap) map[string]string {
	out := make(map[string]string, len(m))
	for _, name := range m.SortedNames() {
		out[name] = m[name].Type.String()
	}
	return out
}
