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
	"fmt"
	"math"
)

// entityAttrEntry pairs an entity type's fully-qualified name with its
// (still deferred) shape type.
type entityAttrEntry struct {
	Name  QualifiedName
	Shape deferredType
}

// actionContextEntry pairs an action id with its (still deferred) context type
// and its already-resolved ApplySpec.
type actionContextEntry struct {
	ID      ActionID
	Context deferredType
	Applies ApplySpec
}

// nameSet tracks a set of QualifiedName values, keyed by their canonical
// string form so it can live in a plain Go map despite QualifiedName not
// being comparable (it embeds a slice).
type nameSet map[string]QualifiedName

func (s nameSet) add(n QualifiedName) {
	s[n.String()] = n
}

// idSet is nameSet's analogue for ActionID.
type idSet map[string]ActionID

func (s idSet) add(k ActionID) {
	s[k.String()] = k
}

// entityChildrenEntry pairs a (possibly undeclared) parent entity type's own
// name with its direct children, so that if the parent is never declared
// the consistency checker can still report which QualifiedName was
// undeclared, not just its canonical key string.
type entityChildrenEntry struct {
	Parent   QualifiedName
	Children nameSet
}

// actionChildrenEntry is entityChildrenEntry's analogue for actions.
type actionChildrenEntry struct {
	Parent   ActionID
	Children idSet
}

// compiledNamespace is the output of compiling one namespace's
// NamespaceDefinition, per §4.2. Every map here is keyed by the fully
// qualified, canonical string form of its logical key (QualifiedName or
// ActionID), so that compiledNamespace values from different namespaces
// and different fragments can be merged directly by key in schema.go.
type compiledNamespace struct {
	typeDefs     map[string]ValidatorType
	typeDefNames map[string]QualifiedName

	entityAttrs    map[string]entityAttrEntry
	entityChildren map[string]*entityChildrenEntry // parent key -> entry

	actionContextApplies map[string]actionContextEntry
	actionChildren       map[string]*actionChildrenEntry // parent key -> entry
	actionAttrs          map[string]AttributeMap
}

// compileNamespace implements §4.2: validate one NamespaceDefinition,
// invert parent-child lists, lift attribute/context types to deferred
// thunks, and produce a CompiledNamespace.
func compileNamespace(namespaceKey string, def *NamespaceDefinition, behavior ActionBehavior) (*compiledNamespace, error) {
	nsPath, err := parseNamespacePath(namespaceKey)
	if err != nil {
		return nil, err
	}

	// Action-behavior check runs before any conversion (§4.2).
	if _, declaresAction := def.EntityTypes["Action"]; declaresAction {
		name := QualifiedName{Path: nsPath, Base: "Action"}
		return nil, &ActionEntityTypeDeclaredError{Name: name}
	}
	if behavior == ProhibitAttributes {
		var offending []string
		for id, a := range def.Actions {
			if len(a.Attributes) > 0 {
				offending = append(offending, id)
			}
		}
		if len(offending) > 0 {
			return nil, &ActionEntityAttributesError{IDs: offending}
		}
	}

	typeDefs, typeDefNames, err := resolveCommonTypesEager(def.CommonTypes, nsPath)
	if err != nil {
		return nil, err
	}

	out := &compiledNamespace{
		typeDefs:             typeDefs,
		typeDefNames:         typeDefNames,
		entityAttrs:          make(map[string]entityAttrEntry, len(def.EntityTypes)),
		entityChildren:       make(map[string]*entityChildrenEntry),
		actionContextApplies: make(map[string]actionContextEntry, len(def.Actions)),
		actionChildren:       make(map[string]*actionChildrenEntry),
		actionAttrs:          make(map[string]AttributeMap, len(def.Actions)),
	}

	if err := compileEntityTypes(def.EntityTypes, nsPath, out); err != nil {
		return nil, err
	}
	if err := compileActions(def.Actions, nsPath, out); err != nil {
		return nil, err
	}
	return out, nil
}

func compileEntityTypes(decls map[string]EntityTypeDecl, nsPath []Identifier, out *compiledNamespace) error {
	for rawName, decl := range decls {
		// Entity-type declaration names are always unqualified in the
		// source; they are qualified with the fragment's namespace.
		base, err := ParseIdentifier(rawName)
		if err != nil {
			return &EntityTypeParseError{Input: rawName}
		}
		name := QualifiedName{Path: nsPath, Base: base}

		var shape deferredType
		if decl.Shape != nil {
			shape, err = liftType(*decl.Shape, nsPath)
			if err != nil {
				return err
			}
		} else {
			shape = immediateType(RecordType{Attrs: AttributeMap{}})
		}
		out.entityAttrs[name.String()] = entityAttrEntry{Name: name, Shape: shape}

		for _, rawParent := range decl.MemberOfTypes {
			parent, err := ParseQualifiedName(rawParent)
			if err != nil {
				return err
			}
			parent = applyDefaultNamespace(parent, nsPath)
			entry, ok := out.entityChildren[parent.String()]
			if !ok {
				entry = &entityChildrenEntry{Parent: parent, Children: nameSet{}}
				out.entityChildren[parent.String()] = entry
			}
			entry.Children.add(name)
		}
	}
	return nil
}

func compileActions(decls map[string]ActionDecl, nsPath []Identifier, out *compiledNamespace) error {
	ownType := QualifiedName{Path: nsPath, Base: "Action"}
	for rawID, decl := range decls {
		key := ActionID{Type: ownType, ID: rawID}

		applies, err := resolveApplySpec(decl.AppliesTo, nsPath)
		if err != nil {
			return err
		}

		var context deferredType
		if decl.AppliesTo != nil && decl.AppliesTo.Context != nil {
			context, err = liftType(*decl.AppliesTo.Context, nsPath)
			if err != nil {
				return err
			}
		} else {
			context = immediateType(RecordType{Attrs: AttributeMap{}})
		}
		out.actionContextApplies[key.String()] = actionContextEntry{ID: key, Context: context, Applies: applies}

		attrs := AttributeMap{}
		for attrName, value := range decl.Attributes {
			vt, err := literalJSONToValidatorType(rawID, attrName, value)
			if err != nil {
				return err
			}
			attrs[attrName] = AttributeType{Type: vt, Required: true}
		}
		out.actionAttrs[key.String()] = attrs

		for _, m := range decl.MemberOf {
			parentType := ownType
			if m.Type != nil {
				// An explicit parent type is parsed as given, with no
				// default namespace applied (§4.2).
				parentType, err = ParseQualifiedName(*m.Type)
				if err != nil {
					return err
				}
			}
			parentKey := ActionID{Type: parentType, ID: m.ID}
			entry, ok := out.actionChildren[parentKey.String()]
			if !ok {
				entry = &actionChildrenEntry{Parent: parentKey, Children: idSet{}}
				out.actionChildren[parentKey.String()] = entry
			}
			entry.Children.add(key)
		}
	}
	return nil
}

func resolveApplySpec(appliesTo *AppliesToDecl, nsPath []Identifier) (ApplySpec, error) {
	var spec ApplySpec
	if appliesTo == nil || appliesTo.PrincipalTypes == nil {
		spec.Principals = []EntityTypeRef{UnspecifiedEntityType()}
	} else {
		for _, raw := range appliesTo.PrincipalTypes {
			name, err := ParseQualifiedName(raw)
			if err != nil {
				return ApplySpec{}, err
			}
			name = applyDefaultNamespace(name, nsPath)
			spec.Principals = append(spec.Principals, ConcreteEntityType(name))
		}
	}
	if appliesTo == nil || appliesTo.ResourceTypes == nil {
		spec.Resources = []EntityTypeRef{UnspecifiedEntityType()}
	} else {
		for _, raw := range appliesTo.ResourceTypes {
			name, err := ParseQualifiedName(raw)
			if err != nil {
				return ApplySpec{}, err
			}
			name = applyDefaultNamespace(name, nsPath)
			spec.Resources = append(spec.Resources, ConcreteEntityType(name))
		}
	}
	return spec, nil
}

// literalJSONToValidatorType infers a ValidatorType from a literal JSON
// value attached to an action's attributes map, per §4.2: booleans -> Bool,
// integral numbers -> Long, strings -> String, objects -> Record with all
// fields required, arrays -> Set with the element type inferred from
// element zero. Heterogeneous arrays are not cross-checked, matching the
// carried-forward limitation in §9. A non-integral number has no Cedar
// Long representation and is rejected.
func literalJSONToValidatorType(actionID, attrName string, v any) (ValidatorType, error) {
	switch val := v.(type) {
	case bool:
		return BoolType(), nil
	case float64:
		if val != math.Trunc(val) {
			return nil, &ActionEntityAttributeUnsupportedTypeError{ActionID: actionID, Attribute: attrName}
		}
		return LongType(), nil
	case string:
		return StringType(), nil
	case []any:
		if len(val) == 0 {
			return nil, &ActionEntityAttributeEmptySetError{ActionID: actionID, Attribute: attrName}
		}
		elem, err := literalJSONToValidatorType(actionID, attrName, val[0])
		if err != nil {
			return nil, err
		}
		return SetType{Element: elem}, nil
	case map[string]any:
		attrs := make(AttributeMap, len(val))
		for name, fieldVal := range val {
			ft, err := literalJSONToValidatorType(actionID, fmt.Sprintf("%s.%s", attrName, name), fieldVal)
			if err != nil {
				return nil, err
			}
			attrs[name] = AttributeType{Type: ft, Required: true}
		}
		return RecordType{Attrs: attrs}, nil
	default:
		return nil, &ActionEntityAttributeUnsupportedTypeError{ActionID: actionID, Attribute: attrName}
	}
}
