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

import "golang.org/x/exp/slices"

// ValidatorType is a tagged value drawn from a closed set: PrimitiveType,
// SetType, RecordType, EntityType, or ExtensionType. The interface's marker
// method is unexported so no type outside this package can implement it,
// mirroring the teacher's CedarType interface.
type ValidatorType interface {
	isValidatorType()
	String() string
}

// Primitive names the three scalar Cedar types.
type Primitive int

const (
	PrimitiveBool Primitive = iota
	PrimitiveLong
	PrimitiveString
)

func (p Primitive) String() string {
	switch p {
	case PrimitiveBool:
		return "Bool"
	case PrimitiveLong:
		return "Long"
	case PrimitiveString:
		return "String"
	default:
		return "Unknown"
	}
}

// PrimitiveType is one of Bool, Long, or String.
type PrimitiveType struct {
	Kind Primitive
}

func (PrimitiveType) isValidatorType() {}
func (t PrimitiveType) String() string { return t.Kind.String() }

// BoolType, LongType, StringType are convenience constructors for the three
// PrimitiveType values.
func BoolType() PrimitiveType   { return PrimitiveType{Kind: PrimitiveBool} }
func LongType() PrimitiveType   { return PrimitiveType{Kind: PrimitiveLong} }
func StringType() PrimitiveType { return PrimitiveType{Kind: PrimitiveString} }

// SetType is a homogeneous set. Element is nil for an empty-set literal
// whose element type could not be inferred; otherwise it is required.
type SetType struct {
	Element ValidatorType
}

func (SetType) isValidatorType() {}
func (t SetType) String() string {
	if t.Element == nil {
		return "Set<?>"
	}
	return "Set<" + t.Element.String() + ">"
}

// AttributeType pairs a ValidatorType with whether the attribute must be
// present.
type AttributeType struct {
	Type     ValidatorType
	Required bool
}

// AttributeMap is a mapping from attribute name to AttributeType.
// Keys are unique. Iteration order is not part of the external contract, but
// SortedNames below is used everywhere internal output must be deterministic
// (debug JSON, test fixtures), per §3.
type AttributeMap map[string]AttributeType

// SortedNames returns the attribute names in sorted order.
func (m AttributeMap) SortedNames() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// RequiredNames returns, in sorted order, the names of attributes whose
// Required flag is set.
func (m AttributeMap) RequiredNames() []string {
	names := make([]string, 0, len(m))
	for name, attr := range m {
		if attr.Required {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// RecordType is a record shape: an AttributeMap of named, possibly-optional
// fields. Open records (additionalAttributes: true) are rejected upstream in
// the resolver (§4.3) and never reach this type.
type RecordType struct {
	Attrs AttributeMap
}

func (RecordType) isValidatorType() {}
func (t RecordType) String() string { return "Record" }

// EntityType wraps a least-upper-bound set of entity type names. LUB is
// always non-empty and is never flattened to a single name, even when it
// contains exactly one element (§9's explicit design note) — a
// schema-level Entity{name} reference yields a singleton LUB, and the
// (out-of-scope) downstream type-checker is the only place multi-element
// LUBs are produced, but this core must not special-case the singleton
// shape away.
type EntityType struct {
	LUB []QualifiedName
}

func (EntityType) isValidatorType() {}
func (t EntityType) String() string {
	if len(t.LUB) == 1 {
		return t.LUB[0].String()
	}
	s := "LUB<"
	for i, n := range t.LUB {
		if i > 0 {
			s += ", "
		}
		s += n.String()
	}
	return s + ">"
}

// ExtensionType is an opaque, named extension type such as "ipaddr" or
// "decimal". This core does not interpret extension type bodies.
type ExtensionType struct {
	Name Identifier
}

func (ExtensionType) isValidatorType()  {}
func (t ExtensionType) String() string { return string(t.Name) }

// ActionBehavior configures whether action entities may carry attributes or
// participate in memberOf groups with attributes present. ProhibitAttributes
// is the default, matching §6.
type ActionBehavior int

const (
	// ProhibitAttributes rejects any action declaring a non-empty
	// attributes map with ActionEntityAttributesError.
	ProhibitAttributes ActionBehavior = iota
	// PermitAttributes admits and converts action attribute literals.
	PermitAttributes
)

func (b ActionBehavior) String() string {
	if b == PermitAttributes {
		return "PermitAttributes"
	}
	return "ProhibitAttributes"
}

// ApplySpec is the pair of principal and resource entity type sets an action
// accepts. If the source schema omitted principalTypes (or resourceTypes)
// for an action, the corresponding slice holds exactly one Unspecified
// entry; otherwise every entry is Concrete.
type ApplySpec struct {
	Principals []EntityTypeRef
	Resources  []EntityTypeRef
}
