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

import "fmt"

// This file carries the flat error taxonomy of §7: one exported Go type per
// taxonomy entry, each implementing error and carrying structured fields
// rather than only a formatted message, so a caller can range over, say,
// UndeclaredEntityTypesError.Names without parsing Error(). No error here is
// retried or recovered inside the package; the first fatal error in a phase
// short-circuits compilation, except where a section below says otherwise.

// ParseFileFormatError is surfaced from the JSON parser (wire.go) when raw
// bytes cannot be decoded into fragment structures at all.
type ParseFileFormatError struct {
	Detail string
}

func (e *ParseFileFormatError) Error() string {
	return fmt.Sprintf("schema: invalid file format: %s", e.Detail)
}

// EntityTypeParseError reports an ill-formed entity type name.
type EntityTypeParseError struct {
	Input string
}

func (e *EntityTypeParseError) Error() string {
	return fmt.Sprintf("schema: invalid entity type name %q", e.Input)
}

// CommonTypeParseError reports an ill-formed common-type alias name.
type CommonTypeParseError struct {
	Input string
}

func (e *CommonTypeParseError) Error() string {
	return fmt.Sprintf("schema: invalid common type name %q", e.Input)
}

// ExtensionTypeParseError reports an ill-formed extension type name.
type ExtensionTypeParseError struct {
	Input string
}

func (e *ExtensionTypeParseError) Error() string {
	return fmt.Sprintf("schema: invalid extension type name %q", e.Input)
}

// NamespaceParseError reports an ill-formed namespace prefix.
type NamespaceParseError struct {
	Input string
}

func (e *NamespaceParseError) Error() string {
	return fmt.Sprintf("schema: invalid namespace %q", e.Input)
}

// DuplicateEntityTypeError reports two entity-type declarations sharing a
// fully-qualified name.
type DuplicateEntityTypeError struct {
	Name QualifiedName
}

func (e *DuplicateEntityTypeError) Error() string {
	return fmt.Sprintf("schema: duplicate entity type %q", e.Name)
}

// DuplicateActionError reports two actions sharing a fully-qualified id.
type DuplicateActionError struct {
	ID ActionID
}

func (e *DuplicateActionError) Error() string {
	return fmt.Sprintf("schema: duplicate action %s", e.ID)
}

// DuplicateCommonTypeError reports two common-type aliases sharing a
// fully-qualified name, or an alias colliding with a builtin primitive or
// constructor name.
type DuplicateCommonTypeError struct {
	Name QualifiedName
}

func (e *DuplicateCommonTypeError) Error() string {
	return fmt.Sprintf("schema: duplicate common type %q", e.Name)
}

// UndeclaredEntityTypesError collects every QualifiedName referenced in an
// attribute type, applies_to set, or memberOf parent that was never declared
// as an entity type. Unlike most errors in this taxonomy, instances of this
// error accumulate across the entire schema before being reported, per §7,
// to maximize diagnostic value.
type UndeclaredEntityTypesError struct {
	Names []QualifiedName
}

func (e *UndeclaredEntityTypesError) Error() string {
	return fmt.Sprintf("schema: %d undeclared entity type(s): %s", len(e.Names), joinNames(e.Names))
}

// UndeclaredActionsError collects every ActionRef referenced in a memberOf
// list that was never declared as an action.
type UndeclaredActionsError struct {
	IDs []string
}

func (e *UndeclaredActionsError) Error() string {
	return fmt.Sprintf("schema: %d undeclared action(s): %v", len(e.IDs), e.IDs)
}

// UndeclaredCommonTypeError reports a TypeDef reference to a common-type
// alias that does not appear in the merged type_defs table.
type UndeclaredCommonTypeError struct {
	Names []QualifiedName
}

func (e *UndeclaredCommonTypeError) Error() string {
	return fmt.Sprintf("schema: %d undeclared common type(s): %s", len(e.Names), joinNames(e.Names))
}

// ActionEntityTypeDeclaredError reports an entity type literally named
// "Action", a reserved base name, regardless of namespace.
type ActionEntityTypeDeclaredError struct {
	Name QualifiedName
}

func (e *ActionEntityTypeDeclaredError) Error() string {
	return fmt.Sprintf("schema: %q is a reserved entity type name", e.Name)
}

// ActionEntityAttributesError reports the offending action ids when the
// configured ActionBehavior is ProhibitAttributes but one or more actions
// carry an attributes field.
type ActionEntityAttributesError struct {
	IDs []string
}

func (e *ActionEntityAttributesError) Error() string {
	return fmt.Sprintf("schema: action attributes prohibited, but present on: %v", e.IDs)
}

// ActionEntityAttributeEmptySetError reports an action attribute whose value
// is an empty JSON array, which has no element to infer a type from.
type ActionEntityAttributeEmptySetError struct {
	ActionID  string
	Attribute string
}

func (e *ActionEntityAttributeEmptySetError) Error() string {
	return fmt.Sprintf("schema: action %q attribute %q is an empty set with no inferable element type", e.ActionID, e.Attribute)
}

// ActionEntityAttributeUnsupportedTypeError reports an action attribute
// literal whose JSON shape is not one of bool/number/string/array/object,
// or a number with a fractional part.
type ActionEntityAttributeUnsupportedTypeError struct {
	ActionID  string
	Attribute string
}

func (e *ActionEntityAttributeUnsupportedTypeError) Error() string {
	return fmt.Sprintf("schema: action %q attribute %q has an unsupported literal type", e.ActionID, e.Attribute)
}

// ContextOrShapeNotRecordError reports a shape or context that resolved to a
// non-Record ValidatorType.
type ContextOrShapeNotRecordError struct {
	Where string
}

func (e *ContextOrShapeNotRecordError) Error() string {
	return fmt.Sprintf("schema: %s must resolve to a record type", e.Where)
}

// CycleInActionHierarchyError reports that the reflexive-transitive closure
// of some action's descendants contains itself.
type CycleInActionHierarchyError struct {
	ID string
}

func (e *CycleInActionHierarchyError) Error() string {
	return fmt.Sprintf("schema: cycle in action hierarchy at %q", e.ID)
}

// UnsupportedSchemaFeatureTag names a recognized-but-unimplemented schema
// feature.
type UnsupportedSchemaFeatureTag string

// OpenRecordsAndEntities is the sole currently recognized unsupported
// feature tag: a Record type with additionalAttributes set to true.
const OpenRecordsAndEntities UnsupportedSchemaFeatureTag = "OpenRecordsAndEntities"

// UnsupportedSchemaFeatureError reports a schema construct this core
// recognizes but deliberately does not implement.
type UnsupportedSchemaFeatureError struct {
	Tag UnsupportedSchemaFeatureTag
}

func (e *UnsupportedSchemaFeatureError) Error() string {
	return fmt.Sprintf("schema: unsupported schema feature: %s", e.Tag)
}

func joinNames(names []QualifiedName) string {
	if len(names) == 0 {
		return ""
	}
	s := names[0].String()
	for _, n := range names[1:] {
		s += ", " + n.String()
	}
	return s
}
