package schema

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var introspectionJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// introspectionDocument accepts both a raw `{"__schema": ...}` payload and
// the full `{"data": {"__schema": ...}}` response envelope.
type introspectionDocument struct {
	Data *struct {
		Schema *introspectionSchema `json:"__schema"`
	} `json:"data"`
	Schema *introspectionSchema `json:"__schema"`
}

type introspectionSchema struct {
	QueryType    *typeRef   `json:"queryType"`
	MutationType *typeRef   `json:"mutationType"`
	Types        []fullType `json:"types"`
}

type fullType struct {
	Kind        string       `json:"kind"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Fields      []field      `json:"fields"`
	InputFields []inputValue `json:"inputFields"`
	EnumValues  []enumValue  `json:"enumValues"`
}

type field struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Args        []inputValue `json:"args"`
	Type        typeRef      `json:"type"`
}

type inputValue struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Type        typeRef `json:"type"`
}

type enumValue struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	IsDeprecated bool   `json:"isDeprecated"`
}

type typeRef struct {
	Kind   string   `json:"kind"`
	Name   string   `json:"name"`
	OfType *typeRef `json:"ofType"`
}

// LoadIntrospection builds a model from a GraphQL introspection result.
func LoadIntrospection(data []byte) (*Model, error) {
	var doc introspectionDocument
	if err := introspectionJSON.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	s := doc.Schema
	if s == nil && doc.Data != nil {
		s = doc.Data.Schema
	}
	if s == nil {
		return nil, fmt.Errorf("no __schema in introspection document")
	}

	def, err := s.definition()
	if err != nil {
		return nil, err
	}
	return New(def), nil
}

func (s *introspectionSchema) definition() (Definition, error) {
	def := Definition{Operations: make(map[Root][]FieldDef)}

	queryName, mutationName := "Query", "Mutation"
	if s.QueryType != nil && s.QueryType.Name != "" {
		queryName = s.QueryType.Name
	}
	if s.MutationType != nil && s.MutationType.Name != "" {
		mutationName = s.MutationType.Name
	}

	for _, t := range s.Types {
		if t.Name == "" {
			return Definition{}, fmt.Errorf("introspection type of kind %s has no name", t.Kind)
		}

		switch t.Kind {
		case "INPUT_OBJECT":
			in := InputType{Name: t.Name, Description: t.Description}
			for _, f := range t.InputFields {
				in.Fields = append(in.Fields, f.fieldDef())
			}
			def.Inputs = append(def.Inputs, in)

		case "ENUM":
			en := EnumType{Name: t.Name, Description: t.Description}
			for _, v := range t.EnumValues {
				en.Values = append(en.Values, EnumValue{
					Name:        v.Name,
					Description: v.Description,
					Deprecated:  v.IsDeprecated,
				})
			}
			def.Enums = append(def.Enums, en)

		case "OBJECT", "INTERFACE":
			fields := make([]FieldDef, 0, len(t.Fields))
			for _, f := range t.Fields {
				fields = append(fields, f.fieldDef())
			}
			switch t.Name {
			case queryName:
				def.Operations[RootQuery] = fields
			case mutationName:
				def.Operations[RootMutation] = fields
			default:
				def.Objects = append(def.Objects, ObjectType{
					Name:        t.Name,
					Description: t.Description,
					Fields:      fields,
				})
			}

		case "SCALAR":
			def.Scalars = append(def.Scalars, t.Name)
		}
	}
	return def, nil
}

func (f field) fieldDef() FieldDef {
	fd := f.Type.fieldDef(f.Name, f.Description)
	for _, a := range f.Args {
		fd.Args = append(fd.Args, a.fieldDef())
	}
	return fd
}

func (v inputValue) fieldDef() FieldDef {
	return v.Type.fieldDef(v.Name, v.Description)
}

func (t typeRef) fieldDef(name, description string) FieldDef {
	return FieldDef{
		Name:        name,
		Type:        t.namedType(),
		Required:    t.Kind == "NON_NULL",
		List:        t.isList(),
		Description: description,
		Signature:   t.signature(),
	}
}

func (t typeRef) namedType() string {
	for cur := &t; cur != nil; cur = cur.OfType {
		if cur.Name != "" {
			return cur.Name
		}
	}
	return ""
}

func (t typeRef) isList() bool {
	for cur := &t; cur != nil; cur = cur.OfType {
		if cur.Kind == "LIST" {
			return true
		}
	}
	return false
}

func (t typeRef) signature() string {
	switch t.Kind {
	case "NON_NULL":
		if t.OfType == nil {
			return t.Name + "!"
		}
		return t.OfType.signature() + "!"
	case "LIST":
		if t.OfType == nil {
			return "[]"
		}
		return "[" + t.OfType.signature() + "]"
	}
	return t.Name
}
