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

// deferredType is a thunk of signature (type_defs) -> (ValidatorType, error)
// per §4.3: lifting a schema type into Go defers binding of alias (TypeDef)
// references until the caller has a fully merged type_defs table in hand.
// typeDefs is keyed by QualifiedName.String().
type deferredType func(typeDefs map[string]ValidatorType) (ValidatorType, error)

// immediateType wraps an already-known ValidatorType in the deferredType
// shape, for the cases in §4.3's table that need no deferral at all
// (primitives, Entity, Extension) and for the empty default shape or
// context record. Set and Record are lifted into thunks that resolve their
// element and attribute types in turn.
func immediateType(t ValidatorType) deferredType {
	return func(map[string]ValidatorType) (ValidatorType, error) {
		return t, nil
	}
}

// liftType lifts one wire SchemaType into a deferredType, per the dispatch
// table in §4.3. defaultPath is the enclosing namespace, applied to any
// unqualified Entity or TypeDef name found inside t.
func liftType(t SchemaType, defaultPath []Identifier) (deferredType, error) {
	switch t.Kind {
	case schemaKindString:
		return immediateType(StringType()), nil
	case schemaKindLong:
		return immediateType(LongType()), nil
	case schemaKindBoolean:
		return immediateType(BoolType()), nil

	case schemaKindSet:
		elem, err := liftType(*t.Element, defaultPath)
		if err != nil {
			return nil, err
		}
		return func(typeDefs map[string]ValidatorType) (ValidatorType, error) {
			elemType, err := elem(typeDefs)
			if err != nil {
				return nil, err
			}
			return SetType{Element: elemType}, nil
		}, nil

	case schemaKindRecord:
		if t.AdditionalAttributes {
			return nil, &UnsupportedSchemaFeatureError{Tag: OpenRecordsAndEntities}
		}
		names := make([]string, 0, len(t.Attributes))
		for name := range t.Attributes {
			names = append(names, name)
		}
		deferredAttrs := make(map[string]deferredType, len(t.Attributes))
		required := make(map[string]bool, len(t.Attributes))
		for name, attr := range t.Attributes {
			d, err := liftType(attr.Type, defaultPath)
			if err != nil {
				return nil, err
			}
			deferredAttrs[name] = d
			required[name] = attr.Required
		}
		return func(typeDefs map[string]ValidatorType) (ValidatorType, error) {
			attrs := make(AttributeMap, len(deferredAttrs))
			for name, d := range deferredAttrs {
				resolved, err := d(typeDefs)
				if err != nil {
					return nil, err
				}
				attrs[name] = AttributeType{Type: resolved, Required: required[name]}
			}
			return RecordType{Attrs: attrs}, nil
		}, nil

	case schemaKindEntity:
		name, err := ParseQualifiedName(t.Name)
		if err != nil {
			return nil, err
		}
		name = applyDefaultNamespace(name, defaultPath)
		return immediateType(EntityType{LUB: []QualifiedName{name}}), nil

	case schemaKindExtension:
		name, err := ParseExtensionTypeName(t.Name)
		if err != nil {
			return nil, err
		}
		return immediateType(ExtensionType{Name: name.Base}), nil

	default: // bare {"type":"<alias>"} — a TypeDef reference
		name, err := ParseCommonTypeName(t.AliasName)
		if err != nil {
			return nil, err
		}
		name = applyDefaultNamespace(name, defaultPath)
		key := name.String()
		return func(typeDefs map[string]ValidatorType) (ValidatorType, error) {
			resolved, ok := typeDefs[key]
			if !ok {
				return nil, &UndeclaredCommonTypeError{Names: []QualifiedName{name}}
			}
			return resolved, nil
		}, nil
	}
}

// resolveCommonTypesEager compiles a fragment's commonTypes table into fully
// resolved ValidatorTypes. Per §4.3, this resolution happens eagerly against
// an initially empty type_defs table — an alias body may reference builtins
// and entity/extension types, but not another alias, even one defined
// earlier in the same fragment. This is the documented, carried-forward
// limitation from the source (see DESIGN.md, Open Question 1): we do not
// fix it by, say, topologically sorting aliases within a fragment.
func resolveCommonTypesEager(raw map[string]SchemaType, defaultPath []Identifier) (map[string]ValidatorType, map[string]QualifiedName, error) {
	resolved := make(map[string]ValidatorType, len(raw))
	names := make(map[string]QualifiedName, len(raw))
	empty := map[string]ValidatorType{}
	for rawName, body := range raw {
		// Common-type declaration names, like entity-type declaration
		// names, are always unqualified in the source.
		base, err := ParseIdentifier(rawName)
		if err != nil {
			return nil, nil, &CommonTypeParseError{Input: rawName}
		}
		name := applyDefaultNamespace(QualifiedName{Base: base}, defaultPath)
		if err := checkNotBuiltinTypeName(name); err != nil {
			return nil, nil, err
		}
		lifted, err := liftType(body, defaultPath)
		if err != nil {
			return nil, nil, err
		}
		val, err := lifted(empty)
		if err != nil {
			return nil, nil, err
		}
		key := name.String()
		resolved[key] = val
		names[key] = name
	}
	return resolved, names, nil
}

// builtinTypeNames holds every reserved primitive/constructor name a
// common-type alias may not reuse, per invariant 5.
var builtinTypeNames = map[string]bool{
	"String":    true,
	"Long":      true,
	"Boolean":   true,
	"Set":       true,
	"Record":    true,
	"Entity":    true,
	"Extension": true,
}

// checkNotBuiltinTypeName rejects a common-type alias whose own base name
// (as declared — common type names, like entity type names, are always
// unqualified in the source) collides with a reserved primitive or
// constructor name, regardless of which namespace it was qualified into
// afterward.
func checkNotBuiltinTypeName(name QualifiedName) error {
	if builtinTypeNames[string(name.Base)] {
		return &DuplicateCommonTypeError{Name: name}
	}
	return nil
}

// resolveRecord resolves a deferred type and checks that it reduced to a
// RecordType, per §4.2's shape/context handling: a non-record reduction is
// ContextOrShapeNotRecordError.
func resolveRecord(d deferredType, typeDefs map[string]ValidatorType, where string) (RecordType, error) {
	resolved, err := d(typeDefs)
	if err != nil {
		return RecordType{}, err
	}
	rec, ok := resolved.(RecordType)
	if !ok {
		return RecordType{}, &ContextOrShapeNotRecordError{Where: where}
	}
	return rec, nil
}
