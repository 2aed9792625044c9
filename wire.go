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
	"fmt"

	"github.com/tidwall/jsonc"
)

// This file is the edge of the core: it turns raw JSON bytes into the
// already-parsed Go values (SchemaFragment, NamespaceDefinition, SchemaType,
// ...) that the compiler in fragment.go, resolve.go and schema.go actually
// operates on. §4.2 onward never touches json.RawMessage or []byte again.

// SchemaFragment is a mapping from namespace string (the empty string
// denotes the root namespace) to NamespaceDefinition. Several fragments
// compose into one schema via FromFragments.
type SchemaFragment map[string]*NamespaceDefinition

// NamespaceDefinition bundles the three declaration tables of one namespace.
// The action-behavior policy is not part of it; it is supplied to
// FromFragments through WithActionBehavior.
type NamespaceDefinition struct {
	CommonTypes map[string]SchemaType
	EntityTypes map[string]EntityTypeDecl
	Actions     map[string]ActionDecl
}

// EntityTypeDecl is the wire shape of one entityTypes entry.
type EntityTypeDecl struct {
	MemberOfTypes []string
	Shape         *SchemaType
}

// ActionDecl is the wire shape of one actions entry.
type ActionDecl struct {
	MemberOf   []ActionRefDecl
	AppliesTo  *AppliesToDecl
	Attributes map[string]any
}

// ActionRefDecl is one entry of an action's memberOf list.
type ActionRefDecl struct {
	ID   string
	Type *string
}

// AppliesToDecl is the wire shape of an action's appliesTo object.
type AppliesToDecl struct {
	PrincipalTypes []string
	ResourceTypes  []string
	Context        *SchemaType
}

// SchemaType is the tagged union described in §6: a primitive name, "Set"
// with an Element, "Record" with Attributes and AdditionalAttributes,
// "Entity" or "Extension" with a Name, or a bare {"type":"<alias>"}
// reference captured in AliasName.
type SchemaType struct {
	Kind                 string
	Element              *SchemaType
	Attributes           map[string]SchemaAttribute
	AdditionalAttributes bool
	Name                 string
	AliasName            string
}

// SchemaAttribute is one entry of a Record's "attributes" map: a type plus
// whether the attribute is required. Required defaults to true when absent,
// matching the wire format convention.
type SchemaAttribute struct {
	Type     SchemaType
	Required bool
}

const (
	schemaKindString    = "String"
	schemaKindLong      = "Long"
	schemaKindBoolean   = "Boolean"
	schemaKindSet       = "Set"
	schemaKindRecord    = "Record"
	schemaKindEntity    = "Entity"
	schemaKindExtension = "Extension"
)

type jsonSchemaType struct {
	Type                 string                    `json:"type"`
	Element              *jsonSchemaType           `json:"element,omitempty"`
	Attributes           map[string]jsonSchemaAttr `json:"attributes,omitempty"`
	AdditionalAttributes *bool                     `json:"additionalAttributes,omitempty"`
	Name                 string                    `json:"name,omitempty"`
}

type jsonSchemaAttr struct {
	jsonSchemaType
	Required *bool `json:"required,omitempty"`
}

// UnmarshalJSON decodes one SchemaType from its wire representation.
func (t *SchemaType) UnmarshalJSON(data []byte) error {
	var raw jsonSchemaType
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("schema: invalid type object: %w", err)
	}
	return t.fromJSON(raw)
}

func (t *SchemaType) fromJSON(raw jsonSchemaType) error {
	switch raw.Type {
	case schemaKindString, schemaKindLong, schemaKindBoolean:
		t.Kind = raw.Type
	case schemaKindSet:
		if raw.Element == nil {
			return fmt.Errorf("schema: Set type missing \"element\"")
		}
		var elem SchemaType
		if err := elem.fromJSON(*raw.Element); err != nil {
			return err
		}
		t.Kind = schemaKindSet
		t.Element = &elem
	case schemaKindRecord:
		t.Kind = schemaKindRecord
		t.Attributes = make(map[string]SchemaAttribute, len(raw.Attributes))
		for name, attr := range raw.Attributes {
			var elemType SchemaType
			if err := elemType.fromJSON(attr.jsonSchemaType); err != nil {
				return err
			}
			required := true
			if attr.Required != nil {
				required = *attr.Required
			}
			t.Attributes[name] = SchemaAttribute{Type: elemType, Required: required}
		}
		if raw.AdditionalAttributes != nil {
			t.AdditionalAttributes = *raw.AdditionalAttributes
		}
	case schemaKindEntity, schemaKindExtension:
		t.Kind = raw.Type
		t.Name = raw.Name
	case "":
		return fmt.Errorf("schema: type object missing \"type\"")
	default:
		t.Kind = ""
		t.AliasName = raw.Type
	}
	return nil
}

type jsonNamespaceDefinition struct {
	CommonTypes map[string]SchemaType        `json:"commonTypes,omitempty"`
	EntityTypes map[string]jsonEntityTypeDecl `json:"entityTypes,omitempty"`
	Actions     map[string]jsonActionDecl     `json:"actions,omitempty"`
}

type jsonEntityTypeDecl struct {
	MemberOfTypes []string    `json:"memberOfTypes,omitempty"`
	Shape         *SchemaType `json:"shape,omitempty"`
}

type jsonActionDecl struct {
	MemberOf   []jsonActionRefDecl `json:"memberOf,omitempty"`
	AppliesTo  *jsonAppliesToDecl  `json:"appliesTo,omitempty"`
	Attributes map[string]any      `json:"attributes,omitempty"`
}

type jsonActionRefDecl struct {
	ID   string  `json:"id"`
	Type *string `json:"type,omitempty"`
}

type jsonAppliesToDecl struct {
	PrincipalTypes []string    `json:"principalTypes,omitempty"`
	ResourceTypes  []string    `json:"resourceTypes,omitempty"`
	Context        *SchemaType `json:"context,omitempty"`
}

func namespaceDefinitionFromJSON(raw jsonNamespaceDefinition) *NamespaceDefinition {
	def := &NamespaceDefinition{
		CommonTypes: raw.CommonTypes,
		EntityTypes: make(map[string]EntityTypeDecl, len(raw.EntityTypes)),
		Actions:     make(map[string]ActionDecl, len(raw.Actions)),
	}
	for name, e := range raw.EntityTypes {
		def.EntityTypes[name] = EntityTypeDecl{
			MemberOfTypes: e.MemberOfTypes,
			Shape:         e.Shape,
		}
	}
	for id, a := range raw.Actions {
		decl := ActionDecl{Attributes: a.Attributes}
		for _, m := range a.MemberOf {
			decl.MemberOf = append(decl.MemberOf, ActionRefDecl{ID: m.ID, Type: m.Type})
		}
		if a.AppliesTo != nil {
			decl.AppliesTo = &AppliesToDecl{
				PrincipalTypes: a.AppliesTo.PrincipalTypes,
				ResourceTypes:  a.AppliesTo.ResourceTypes,
				Context:        a.AppliesTo.Context,
			}
		}
		def.Actions[id] = decl
	}
	return def
}

// ParseFragmentJSON decodes the wire format of §6 into a SchemaFragment.
// Both the namespaced shape ({"NS": {"entityTypes": ...}}) and the flat
// shape (a single NamespaceDefinition at the top level, equivalent to a
// fragment whose sole namespace is empty) are accepted; the flat shape is
// detected by the presence of "commonTypes", "entityTypes", or "actions" as
// top-level keys, mirroring the teacher's NewFromJSON auto-detection.
func ParseFragmentJSON(data []byte) (SchemaFragment, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &ParseFileFormatError{Detail: err.Error()}
	}
	_, hasEntityTypes := probe["entityTypes"]
	_, hasActions := probe["actions"]
	_, hasCommonTypes := probe["commonTypes"]

	if hasEntityTypes || hasActions || hasCommonTypes {
		var flat jsonNamespaceDefinition
		if err := json.Unmarshal(data, &flat); err != nil {
			return nil, &ParseFileFormatError{Detail: err.Error()}
		}
		return SchemaFragment{"": namespaceDefinitionFromJSON(flat)}, nil
	}

	var raw map[string]jsonNamespaceDefinition
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseFileFormatError{Detail: err.Error()}
	}
	fragment := make(SchemaFragment, len(raw))
	for ns, def := range raw {
		fragment[ns] = namespaceDefinitionFromJSON(def)
	}
	return fragment, nil
}

// ParseFragmentJSONC behaves like ParseFragmentJSON but first strips
// comments and trailing commas via jsonc, so schema authors may annotate
// their fragments. Strict callers that want byte-for-byte JSON should use
// ParseFragmentJSON instead.
func ParseFragmentJSONC(data []byte) (SchemaFragment, error) {
	return ParseFragmentJSON(jsonc.ToJSON(data))
}
