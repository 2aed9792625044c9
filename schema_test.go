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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func mustFragment(t *testing.T, src string) SchemaFragment {
	t.Helper()
	f, err := ParseFragmentJSON([]byte(src))
	require.NoError(t, err)
	return f
}

func TestFromFragments_BasicSuccess(t *testing.T) {
	src := `{
		"": {
			"entityTypes": {
				"User": { "memberOfTypes": ["Group"] },
				"Group": {},
				"Photo": { "memberOfTypes": ["Album"] },
				"Album": {}
			},
			"actions": {
				"view_photo": {
					"appliesTo": {
						"principalTypes": ["User", "Group"],
						"resourceTypes": ["Photo"]
					}
				}
			}
		}
	}`
	s, err := FromFragments([]SchemaFragment{mustFragment(t, src)})
	require.NoError(t, err)

	group := s.GetEntityType(QualifiedName{Base: "Group"})
	require.NotNil(t, group)
	require.Len(t, group.Descendants, 1)
	require.Equal(t, "User", group.Descendants[0].String())

	album := s.GetEntityType(QualifiedName{Base: "Album"})
	require.NotNil(t, album)
	require.Len(t, album.Descendants, 1)
	require.Equal(t, "Photo", album.Descendants[0].String())
}

func TestFromFragments_UndeclaredEntityReferences(t *testing.T) {
	src := `{
		"": {
			"entityTypes": {
				"User": { "memberOfTypes": ["Grop"] }
			},
			"actions": {
				"view": {
					"appliesTo": {
						"principalTypes": ["Usr"],
						"resourceTypes": ["Phoot"]
					}
				}
			}
		}
	}`
	_, err := FromFragments([]SchemaFragment{mustFragment(t, src)})
	require.Error(t, err)
	undeclared, ok := err.(*UndeclaredEntityTypesError)
	require.True(t, ok, "want UndeclaredEntityTypesError, got %T: %v", err, err)
	require.Len(t, undeclared.Names, 3)
}

func TestFromFragments_ActionCycle(t *testing.T) {
	src := `{
		"": {
			"entityTypes": { "User": {}, "Photo": {} },
			"actions": {
				"view_photo": {
					"appliesTo": { "principalTypes": ["User"], "resourceTypes": ["Photo"] },
					"memberOf": [{"id": "delete_photo"}]
				},
				"edit_photo": {
					"appliesTo": { "principalTypes": ["User"], "resourceTypes": ["Photo"] },
					"memberOf": [{"id": "view_photo"}]
				},
				"delete_photo": {
					"appliesTo": { "principalTypes": ["User"], "resourceTypes": ["Photo"] },
					"memberOf": [{"id": "edit_photo"}]
				}
			}
		}
	}`
	_, err := FromFragments([]SchemaFragment{mustFragment(t, src)})
	require.Error(t, err)
	_, ok := err.(*CycleInActionHierarchyError)
	require.True(t, ok, "want CycleInActionHierarchyError, got %T: %v", err, err)
}

func TestFromFragments_CrossNamespaceMemberOf(t *testing.T) {
	src := `{
		"Bar": {
			"entityTypes": {
				"Baz": { "memberOfTypes": ["Foo::Buz"] }
			}
		},
		"Foo": {
			"entityTypes": { "Buz": {} }
		}
	}`
	s, err := FromFragments([]SchemaFragment{mustFragment(t, src)})
	require.NoError(t, err)

	buz := s.GetEntityType(QualifiedName{Path: []Identifier{"Foo"}, Base: "Buz"})
	require.NotNil(t, buz)
	require.Len(t, buz.Descendants, 1)
	require.Equal(t, "Bar::Baz", buz.Descendants[0].String())
}

func TestFromFragments_CrossFragmentCommonType(t *testing.T) {
	frag1 := mustFragment(t, `{
		"A": { "commonTypes": { "MyLong": {"type": "Long"} } }
	}`)
	frag2 := mustFragment(t, `{
		"A": {
			"entityTypes": {
				"User": { "shape": {"type": "Record", "attributes": {
					"a": {"type": "MyLong"}
				}} }
			}
		}
	}`)
	s, err := FromFragments([]SchemaFragment{frag1, frag2})
	require.NoError(t, err)

	user := s.GetEntityType(QualifiedName{Path: []Identifier{"A"}, Base: "User"})
	require.NotNil(t, user)
	attr, ok := user.Attributes["a"]
	require.True(t, ok)
	require.Equal(t, "Long", attr.Type.String())
}

func TestFromFragments_ShapeNotRecord(t *testing.T) {
	src := `{
		"": {
			"commonTypes": { "MyLong": {"type": "Long"} },
			"entityTypes": {
				"User": { "shape": {"type": "MyLong"} }
			}
		}
	}`
	_, err := FromFragments([]SchemaFragment{mustFragment(t, src)})
	require.Error(t, err)
	_, ok := err.(*ContextOrShapeNotRecordError)
	require.True(t, ok, "want ContextOrShapeNotRecordError, got %T: %v", err, err)
}

func TestFromFragments_ReservedActionName(t *testing.T) {
	src := `{
		"PhotoApp": {
			"entityTypes": { "Action": {} }
		}
	}`
	_, err := FromFragments([]SchemaFragment{mustFragment(t, src)})
	require.Error(t, err)
	_, ok := err.(*ActionEntityTypeDeclaredError)
	require.True(t, ok, "want ActionEntityTypeDeclaredError, got %T: %v", err, err)
}

// Supplemented scenarios drawn from the original Rust source, per
// SPEC_FULL.md §8.

func TestFromFragments_DuplicateCommonTypeVsBuiltin(t *testing.T) {
	src := `{
		"": { "commonTypes": { "String": {"type": "Long"} } }
	}`
	_, err := FromFragments([]SchemaFragment{mustFragment(t, src)})
	require.Error(t, err)
	_, ok := err.(*DuplicateCommonTypeError)
	require.True(t, ok, "want DuplicateCommonTypeError, got %T: %v", err, err)
}

func TestFromFragments_EntityCycleIsPermitted(t *testing.T) {
	src := `{
		"": {
			"entityTypes": {
				"A": { "memberOfTypes": ["B"] },
				"B": { "memberOfTypes": ["A"] }
			}
		}
	}`
	s, err := FromFragments([]SchemaFragment{mustFragment(t, src)})
	require.NoError(t, err)

	a := s.GetEntityType(QualifiedName{Base: "A"})
	b := s.GetEntityType(QualifiedName{Base: "B"})
	require.NotNil(t, a)
	require.NotNil(t, b)
	require.Len(t, a.Descendants, 1)
	require.Equal(t, "B", a.Descendants[0].String())
	require.Len(t, b.Descendants, 1)
	require.Equal(t, "A", b.Descendants[0].String())
}

func TestFromFragments_ProhibitAttributesAllowsMemberOfAlone(t *testing.T) {
	src := `{
		"": {
			"entityTypes": { "User": {}, "Photo": {} },
			"actions": {
				"view": { "appliesTo": {"principalTypes": ["User"], "resourceTypes": ["Photo"]} },
				"view_own": {
					"appliesTo": {"principalTypes": ["User"], "resourceTypes": ["Photo"]},
					"memberOf": [{"id": "view"}]
				}
			}
		}
	}`
	s, err := FromFragments([]SchemaFragment{mustFragment(t, src)}, WithActionBehavior(ProhibitAttributes))
	require.NoError(t, err)
	view := s.GetActionID(ActionID{Type: QualifiedName{Base: "Action"}, ID: "view"})
	require.NotNil(t, view)
	require.Len(t, view.Descendants, 1)
	require.Equal(t, "view_own", view.Descendants[0].ID)
}

func TestFromFragments_ProhibitAttributesRejectsAttributes(t *testing.T) {
	src := `{
		"": {
			"actions": {
				"view": { "attributes": {"risk": "high"} }
			}
		}
	}`
	_, err := FromFragments([]SchemaFragment{mustFragment(t, src)})
	require.Error(t, err)
	attrErr, ok := err.(*ActionEntityAttributesError)
	require.True(t, ok, "want ActionEntityAttributesError, got %T: %v", err, err)
	require.Equal(t, []string{"view"}, attrErr.IDs)
}

func TestFromFragments_PermitAttributes(t *testing.T) {
	src := `{
		"": {
			"actions": {
				"view": { "attributes": {"risk": "high", "count": 3, "enabled": true} }
			}
		}
	}`
	s, err := FromFragments([]SchemaFragment{mustFragment(t, src)}, WithActionBehavior(PermitAttributes))
	require.NoError(t, err)
	view := s.GetActionID(ActionID{Type: QualifiedName{Base: "Action"}, ID: "view"})
	require.NotNil(t, view)
	require.Equal(t, "String", view.Attributes["risk"].Type.String())
	require.Equal(t, "Long", view.Attributes["count"].Type.String())
	require.Equal(t, "Bool", view.Attributes["enabled"].Type.String())
}

func TestFromFragments_EntityCycleDescendantsStructuralEquality(t *testing.T) {
	src := `{
		"": {
			"entityTypes": {
				"A": { "memberOfTypes": ["B"] },
				"B": { "memberOfTypes": ["A"] }
			}
		}
	}`
	s, err := FromFragments([]SchemaFragment{mustFragment(t, src)})
	require.NoError(t, err)

	a := s.GetEntityType(QualifiedName{Base: "A"})
	want := []QualifiedName{{Base: "B"}}
	if diff := cmp.Diff(want, a.Descendants); diff != "" {
		t.Errorf("A's descendant set mismatch (-want +got):\n%s", diff)
	}
}

func TestFromFragments_CompilingTwiceYieldsEqualSchemas(t *testing.T) {
	src := `{
		"": {
			"entityTypes": { "User": {}, "Photo": { "memberOfTypes": ["User"] } },
			"actions": {
				"view": { "appliesTo": {"principalTypes": ["User"], "resourceTypes": ["Photo"]} }
			}
		}
	}`
	frag := mustFragment(t, src)
	s1, err := FromFragments([]SchemaFragment{frag})
	require.NoError(t, err)
	s2, err := FromFragments([]SchemaFragment{frag})
	require.NoError(t, err)

	b1, err := s1.MarshalJSON()
	require.NoError(t, err)
	b2, err := s2.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, string(b1), string(b2))
}

func TestFromFragments_DeclaredEntityAttributeReferenceIsNotUndeclared(t *testing.T) {
	src := `{
		"": {
			"entityTypes": {
				"User": { "shape": {"type": "Record", "attributes": {
					"manager": {"type": "Entity", "name": "User"}
				}} }
			}
		}
	}`
	s, err := FromFragments([]SchemaFragment{mustFragment(t, src)})
	require.NoError(t, err)
	user := s.GetEntityType(QualifiedName{Base: "User"})
	require.NotNil(t, user)
	require.Equal(t, "User", user.Attributes["manager"].Type.String())
}

func TestValidatedSchema_QuerySurface(t *testing.T) {
	src := `{
		"": {
			"entityTypes": {
				"User": { "shape": {"type": "Record", "attributes": {
					"name": {"type": "String"},
					"age": {"type": "Long", "required": false}
				}} }
			},
			"actions": {
				"view": {
					"appliesTo": {
						"resourceTypes": ["User"],
						"context": {"type": "Record", "attributes": {"ip": {"type": "String"}}}
					}
				}
			}
		}
	}`
	s, err := FromFragments([]SchemaFragment{mustFragment(t, src)})
	require.NoError(t, err)

	user := ConcreteEntityType(QualifiedName{Base: "User"})
	require.Equal(t, "String", s.AttrType(user, "name").String())
	require.Nil(t, s.AttrType(user, "missing"))
	require.Nil(t, s.AttrType(UnspecifiedEntityType(), "name"))
	require.Equal(t, []string{"name"}, s.RequiredAttrs(user))

	viewID := ActionID{Type: QualifiedName{Base: "Action"}, ID: "view"}
	ctx := s.GetContextSchema(viewID)
	require.NotNil(t, ctx)
	require.Contains(t, ctx.Attrs, "ip")

	applies := s.GetActionID(viewID).AppliesTo
	require.Len(t, applies.Principals, 1)
	require.True(t, applies.Principals[0].IsUnspecified())
}
