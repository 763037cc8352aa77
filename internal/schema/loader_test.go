package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const introspectionFixture = `{
  "data": {
    "__schema": {
      "queryType": {"name": "QueryRoot"},
      "mutationType": {"name": "Mutation"},
      "types": [
        {
          "kind": "OBJECT",
          "name": "QueryRoot",
          "fields": [
            {
              "name": "product",
              "description": null,
              "args": [
                {"name": "id", "type": {"kind": "NON_NULL", "name": null, "ofType": {"kind": "SCALAR", "name": "ID", "ofType": null}}}
              ],
              "type": {"kind": "OBJECT", "name": "Product", "ofType": null}
            }
          ]
        },
        {
          "kind": "OBJECT",
          "name": "Mutation",
          "fields": [
            {
              "name": "productCreate",
              "args": [
                {"name": "input", "type": {"kind": "NON_NULL", "name": null, "ofType": {"kind": "INPUT_OBJECT", "name": "ProductInput", "ofType": null}}}
              ],
              "type": {"kind": "OBJECT", "name": "ProductCreatePayload", "ofType": null}
            }
          ]
        },
        {
          "kind": "INPUT_OBJECT",
          "name": "ProductInput",
          "description": "The input fields required to create or update a product.",
          "inputFields": [
            {"name": "title", "description": "Title", "type": {"kind": "SCALAR", "name": "String", "ofType": null}},
            {"name": "tags", "type": {"kind": "LIST", "name": null, "ofType": {"kind": "NON_NULL", "name": null, "ofType": {"kind": "SCALAR", "name": "String", "ofType": null}}}},
            {"name": "status", "type": {"kind": "ENUM", "name": "ProductStatus", "ofType": null}}
          ]
        },
        {
          "kind": "ENUM",
          "name": "ProductStatus",
          "enumValues": [
            {"name": "ACTIVE", "description": "Ready to sell", "isDeprecated": false},
            {"name": "LEGACY", "description": null, "isDeprecated": true}
          ]
        },
        {"kind": "OBJECT", "name": "Product", "fields": [{"name": "id", "args": [], "type": {"kind": "NON_NULL", "name": null, "ofType": {"kind": "SCALAR", "name": "ID", "ofType": null}}}]},
        {"kind": "SCALAR", "name": "DateTime"}
      ]
    }
  }
}`

func TestLoadIntrospection(t *testing.T) {
	m, err := LoadIntrospection([]byte(introspectionFixture))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("input fields", func(t *testing.T) {
		in, ok := m.InputType("ProductInput")
		if !ok {
			t.Fatal("expected ProductInput to exist")
		}
		if got := strings.Join(in.FieldNames(), ","); got != "title,tags,status" {
			t.Errorf("field order = %s", got)
		}
		tags, _ := in.Field("tags")
		if !tags.List || tags.Required || tags.Type != "String" {
			t.Errorf("unexpected tags field: %+v", tags)
		}
		if tags.TypeSignature() != "[String!]" {
			t.Errorf("tags signature = %s", tags.TypeSignature())
		}
	})

	t.Run("operations use declared root names", func(t *testing.T) {
		op, ok := m.Operation(RootQuery, "product")
		if !ok {
			t.Fatal("expected product query")
		}
		id, ok := op.Arg("id")
		if !ok || !id.Required || id.TypeSignature() != "ID!" {
			t.Errorf("unexpected id arg: %+v", id)
		}
		create, ok := m.Operation(RootMutation, "productCreate")
		if !ok {
			t.Fatal("expected productCreate mutation")
		}
		input, _ := create.Arg("input")
		if input.Type != "ProductInput" {
			t.Errorf("input arg type = %s", input.Type)
		}
		if _, ok := m.Object("QueryRoot"); ok {
			t.Error("root type should not be listed as an object")
		}
	})

	t.Run("enums keep deprecation", func(t *testing.T) {
		en, ok := m.Enum("ProductStatus")
		if !ok {
			t.Fatal("expected ProductStatus")
		}
		if len(en.Values) != 2 || !en.Values[1].Deprecated {
			t.Errorf("unexpected enum values: %+v", en.Values)
		}
	})

	t.Run("kinds", func(t *testing.T) {
		for name, want := range map[string]Kind{
			"ProductInput":  KindInput,
			"ProductStatus": KindEnum,
			"Product":       KindObject,
			"DateTime":      KindScalar,
			"String":        KindScalar,
		} {
			if got, ok := m.KindOf(name); !ok || got != want {
				t.Errorf("KindOf(%s) = %s, want %s", name, got, want)
			}
		}
	})
}

func TestLoadIntrospectionWithoutEnvelope(t *testing.T) {
	doc := `{"__schema": {"types": [{"kind": "INPUT_OBJECT", "name": "SEOInput", "inputFields": []}]}}`
	m, err := LoadIntrospection([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.InputType("SEOInput"); !ok {
		t.Error("expected SEOInput")
	}
}

func TestLoadIntrospectionErrors(t *testing.T) {
	if _, err := LoadIntrospection([]byte(`{"data": {}}`)); err == nil {
		t.Error("expected error for missing __schema")
	}
	if _, err := LoadIntrospection([]byte(`{not json`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestLoad(t *testing.T) {
	t.Run("json artifact", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "schema.json")
		if err := os.WriteFile(path, []byte(introspectionFixture), 0644); err != nil {
			t.Fatalf("failed to write schema: %v", err)
		}
		m, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := m.InputType("ProductInput"); !ok {
			t.Error("expected ProductInput")
		}
	})

	t.Run("yaml field table", func(t *testing.T) {
		content := `
inputs:
  - name: SEOInput
    fields:
      - {name: title, type: String}
operations:
  mutation:
    - name: seoSet
      args: [{name: input, type: SEOInput, required: true}]
`
		path := filepath.Join(t.TempDir(), "schema.yaml")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write schema: %v", err)
		}
		m, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		op, ok := m.Operation(RootMutation, "seoSet")
		if !ok {
			t.Fatal("expected seoSet mutation")
		}
		if arg, _ := op.Arg("input"); arg.TypeSignature() != "SEOInput!" {
			t.Errorf("signature = %s", arg.TypeSignature())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		if err == nil || !strings.Contains(err.Error(), "nope.json") {
			t.Errorf("expected error naming the path, got %v", err)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "schema.graphql")
		if err := os.WriteFile(path, []byte("type Query"), 0644); err != nil {
			t.Fatalf("failed to write schema: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Error("expected error for unsupported extension")
		}
	})
}

func TestLoadFieldTableRejectsDuplicates(t *testing.T) {
	content := `
inputs:
  - {name: Thing, fields: []}
enums:
  - {name: Thing, values: []}
`
	if _, err := LoadFieldTable([]byte(content)); err == nil {
		t.Error("expected duplicate type error")
	}
}

func TestDefault(t *testing.T) {
	m, err := Default()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in, ok := m.InputType("ProductInput")
	if !ok {
		t.Fatal("expected ProductInput in bundled schema")
	}
	seo, ok := in.Field("seo")
	if !ok || seo.Type != "SEOInput" {
		t.Errorf("unexpected seo field: %+v", seo)
	}
	if _, ok := m.Operation(RootMutation, "metafieldsSet"); !ok {
		t.Error("expected metafieldsSet mutation")
	}
	if len(m.OperationNames(RootQuery)) == 0 {
		t.Error("expected query operations")
	}
}
