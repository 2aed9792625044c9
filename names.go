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

import "strings"

// Identifier is a single, non-empty name segment: a letter or underscore
// followed by letters, digits, or underscores.
type Identifier string

// isValidIdentRune reports whether r is allowed at the given position of an
// identifier. first is true for the leading rune, which may not be a digit.
func isValidIdentRune(r rune, first bool) bool {
	isLetter := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
	isUnderscore := r == '_'
	if first {
		return isLetter || isUnderscore
	}
	isDigit := r >= '0' && r <= '9'
	return isLetter || isUnderscore || isDigit
}

// isValidIdentString reports whether s is a well-formed Identifier.
func isValidIdentString(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if !isValidIdentRune(r, i == 0) {
			return false
		}
	}
	return true
}

// ParseIdentifier validates a single name segment.
func ParseIdentifier(s string) (Identifier, error) {
	if !isValidIdentString(s) {
		return "", &NamespaceParseError{Input: s}
	}
	return Identifier(s), nil
}

// QualifiedName is an ordered path of namespace segments plus a base name,
// e.g. "A::B::C" parses to Path: [A, B], Base: C. An empty Path denotes the
// root namespace.
type QualifiedName struct {
	Path []Identifier
	Base Identifier
}

// String renders the name in "A::B::C" form.
func (q QualifiedName) String() string {
	if len(q.Path) == 0 {
		return string(q.Base)
	}
	parts := make([]string, 0, len(q.Path)+1)
	for _, p := range q.Path {
		parts = append(parts, string(p))
	}
	parts = append(parts, string(q.Base))
	return strings.Join(parts, "::")
}

// parseQualified is the shared grammar behind ParseQualifiedName and the
// call-site-specific wrappers below: it rejects empty segments, a leading
// "::", and a trailing "::", but does not itself decide which error type to
// report — that's left to the caller, since the same grammar backs entity
// type names, common type names, extension type names, and namespace names,
// each with its own failure kind per §4.1.
func parseQualified(s string) (QualifiedName, bool) {
	if s == "" {
		return QualifiedName{}, false
	}
	segments := strings.Split(s, "::")
	for _, seg := range segments {
		if !isValidIdentString(seg) {
			return QualifiedName{}, false
		}
	}
	base := Identifier(segments[len(segments)-1])
	path := make([]Identifier, 0, len(segments)-1)
	for _, seg := range segments[:len(segments)-1] {
		path = append(path, Identifier(seg))
	}
	return QualifiedName{Path: path, Base: base}, true
}

// ParseQualifiedName accepts "A::B::C" and rejects empty segments, a leading
// "::", or a trailing "::". On failure it reports EntityTypeParseError, the
// most common call site; callers needing a different failure kind (common
// type, extension type, namespace) should use the matching Parse* wrapper
// below instead.
func ParseQualifiedName(s string) (QualifiedName, error) {
	q, ok := parseQualified(s)
	if !ok {
		return QualifiedName{}, &EntityTypeParseError{Input: s}
	}
	return q, nil
}

// ParseCommonTypeName parses a common-type alias reference, reporting
// CommonTypeParseError on failure.
func ParseCommonTypeName(s string) (QualifiedName, error) {
	q, ok := parseQualified(s)
	if !ok {
		return QualifiedName{}, &CommonTypeParseError{Input: s}
	}
	return q, nil
}

// ParseExtensionTypeName parses an extension type name, reporting
// ExtensionTypeParseError on failure.
func ParseExtensionTypeName(s string) (QualifiedName, error) {
	q, ok := parseQualified(s)
	if !ok {
		return QualifiedName{}, &ExtensionTypeParseError{Input: s}
	}
	return q, nil
}

// ParseNamespaceName parses a namespace prefix, reporting NamespaceParseError
// on failure. The empty string denotes the root namespace and is valid.
func ParseNamespaceName(s string) (QualifiedName, error) {
	if s == "" {
		return QualifiedName{}, nil
	}
	q, ok := parseQualified(s)
	if !ok {
		return QualifiedName{}, &NamespaceParseError{Input: s}
	}
	return q, nil
}

// applyDefaultNamespace rewrites name's path to defaultPath when name has no
// path component of its own; otherwise name is returned unchanged. An
// already-qualified reference is never reinterpreted relative to a
// namespace — only bare base names inherit the enclosing namespace.
func applyDefaultNamespace(name QualifiedName, defaultPath []Identifier) QualifiedName {
	if len(name.Path) > 0 || len(defaultPath) == 0 {
		return name
	}
	path := make([]Identifier, len(defaultPath))
	copy(path, defaultPath)
	return QualifiedName{Path: path, Base: name.Base}
}

// parseNamespacePath parses a namespace key from the wire format (the
// fragment's top-level key, e.g. "A::B") into its path segments. Unlike
// ParseNamespaceName, the result has no separate base component: a
// namespace is nothing but a path prefix applied to everything declared
// underneath it.
func parseNamespacePath(s string) ([]Identifier, error) {
	if s == "" {
		return nil, nil
	}
	segments := strings.Split(s, "::")
	path := make([]Identifier, 0, len(segments))
	for _, seg := range segments {
		if !isValidIdentString(seg) {
			return nil, &NamespaceParseError{Input: s}
		}
		path = append(path, Identifier(seg))
	}
	return path, nil
}

// ActionRef identifies an action's parent type and id. When Type is nil the
// action's type defaults to the reserved name "Action" qualified by the
// enclosing namespace.
type ActionRef struct {
	Type *QualifiedName
	ID   string
}

// ActionID is the fully-qualified, comparable identity of an action:
// its parent entity type name plus its id string. It is the map key used
// throughout compilation and assembly wherever the spec says "ActionId".
type ActionID struct {
	Type QualifiedName
	ID   string
}

func (a ActionID) String() string {
	return a.Type.String() + "::\"" + a.ID + "\""
}

// entityTypeRefKind discriminates the two EntityTypeRef variants.
type entityTypeRefKind int

const (
	entityTypeRefConcrete entityTypeRefKind = iota
	entityTypeRefUnspecified
)

// EntityTypeRef is a closed two-variant sum: either a concrete, named entity
// type, or the Unspecified sentinel meaning "any principal/resource type".
// It is never represented as a nullable QualifiedName — the zero value is
// not a valid EntityTypeRef; always construct one via ConcreteEntityType or
// UnspecifiedEntityType.
type EntityTypeRef struct {
	kind entityTypeRefKind
	name QualifiedName
}

// ConcreteEntityType wraps a declared entity type name.
func ConcreteEntityType(name QualifiedName) EntityTypeRef {
	return EntityTypeRef{kind: entityTypeRefConcrete, name: name}
}

// UnspecifiedEntityType is the sentinel produced when an action omits its
// principal or resource type list. Equality and membership checks treat it
// as opaque: it is neither a subtype nor a supertype of any concrete type.
func UnspecifiedEntityType() EntityTypeRef {
	return EntityTypeRef{kind: entityTypeRefUnspecified}
}

// IsUnspecified reports whether r is the Unspecified sentinel.
func (r EntityTypeRef) IsUnspecified() bool {
	return r.kind == entityTypeRefUnspecified
}

// Name returns the wrapped QualifiedName and true for a Concrete ref, or the
// zero QualifiedName and false for Unspecified.
func (r EntityTypeRef) Name() (QualifiedName, bool) {
	if r.kind != entityTypeRefConcrete {
		return QualifiedName{}, false
	}
	return r.name, true
}

func (r EntityTypeRef) String() string {
	if r.IsUnspecified() {
		return "?Unspecified"
	}
	return r.name.String()
}
