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

import "testing"

func TestParseFragmentJSON_FlatShape(t *testing.T) {
	src := `{
		"entityTypes": { "User": {} },
		"actions": { "view": {} }
	}`
	frag, err := ParseFragmentJSON([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def, ok := frag[""]
	if !ok {
		t.Fatalf("flat shape should land in the empty-string namespace, got keys %v", frag)
	}
	if _, ok := def.EntityTypes["User"]; !ok {
		t.Errorf("User entity type missing from flat-shape fragment")
	}
}

func TestParseFragmentJSON_NamespacedShape(t *testing.T) {
	src := `{
		"PhotoApp": {
			"entityTypes": { "User": {} }
		}
	}`
	frag, err := ParseFragmentJSON([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def, ok := frag["PhotoApp"]
	if !ok {
		t.Fatalf("namespaced shape missing PhotoApp, got keys %v", frag)
	}
	if _, ok := def.EntityTypes["User"]; !ok {
		t.Errorf("User entity type missing from namespaced fragment")
	}
}

func TestParseFragmentJSON_InvalidJSON(t *testing.T) {
	_, err := ParseFragmentJSON([]byte(`{not json`))
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if _, ok := err.(*ParseFileFormatError); !ok {
		t.Fatalf("want *ParseFileFormatError, got %T: %v", err, err)
	}
}

func TestParseFragmentJSONC_StripsComments(t *testing.T) {
	src := `{
		// a root namespace fragment
		"entityTypes": {
			"User": {}, // trailing comment
		}
	}`
	frag, err := ParseFragmentJSONC([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := frag[""].EntityTypes["User"]; !ok {
		t.Errorf("User entity type missing after jsonc preprocessing")
	}
}

func TestSchemaType_UnmarshalJSON_Dispatch(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"string primitive", `{"type": "String"}`, false},
		{"long primitive", `{"type": "Long"}`, false},
		{"boolean primitive", `{"type": "Boolean"}`, false},
		{"set", `{"type": "Set", "element": {"type": "String"}}`, false},
		{"set missing element", `{"type": "Set"}`, true},
		{"record", `{"type": "Record", "attributes": {"a": {"type": "Long"}}}`, false},
		{"entity", `{"type": "Entity", "name": "User"}`, false},
		{"extension", `{"type": "Extension", "name": "ipaddr"}`, false},
		{"alias reference", `{"type": "MyCommonType"}`, false},
		{"missing type key", `{}`, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var st SchemaType
			err := st.UnmarshalJSON([]byte(tc.input))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("UnmarshalJSON(%q) = nil, want error", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("UnmarshalJSON(%q) unexpected error: %v", tc.input, err)
			}
		})
	}
}

func TestSchemaType_UnmarshalJSON_AliasName(t *testing.T) {
	var st SchemaType
	if err := st.UnmarshalJSON([]byte(`{"type": "MyCommonType"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Kind != "" || st.AliasName != "MyCommonType" {
		t.Errorf("alias reference not captured: Kind=%q AliasName=%q", st.Kind, st.AliasName)
	}
}

func TestSchemaAttribute_RequiredDefaultsTrue(t *testing.T) {
	var st SchemaType
	if err := st.UnmarshalJSON([]byte(`{"type": "Record", "attributes": {"a": {"type": "Long"}}}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !st.Attributes["a"].Required {
		t.Error("attribute without an explicit \"required\" key should default to required")
	}
}

func TestParseFragmentJSON_AdditionalAttributesRejected(t *testing.T) {
	src := `{
		"entityTypes": {
			"User": {
				"shape": {
					"type": "Record",
					"attributes": {"a": {"type": "Long"}},
					"additionalAttributes": true
				}
			}
		}
	}`
	frag, err := ParseFragmentJSON([]byte(src))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	_, err = FromFragments([]SchemaFragment{frag})
	if err == nil {
		t.Fatal("expected an UnsupportedSchemaFeatureError")
	}
	if _, ok := err.(*UnsupportedSchemaFeatureError); !ok {
		t.Fatalf("want *UnsupportedSchemaFeatureError, got %T: %v", err, err)
	}
}
