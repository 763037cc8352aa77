// Package schema holds the read-only model of the remote API's types: input
// objects, enums, output objects and the root operations with their
// arguments. A Model is built once per process and never mutated.
package schema

import "sort"

// Root identifies an operation root.
type Root string

const (
	RootQuery    Root = "query"
	RootMutation Root = "mutation"
)

// Kind is the kind of a named type.
type Kind string

const (
	KindInput  Kind = "input"
	KindEnum   Kind = "enum"
	KindObject Kind = "object"
	KindScalar Kind = "scalar"
)

// Definition is the serialized field table. It is what a YAML field table
// contains, and what an introspection document is converted into.
type Definition struct {
	Inputs     []InputType         `yaml:"inputs"`
	Enums      []EnumType          `yaml:"enums"`
	Objects    []ObjectType        `yaml:"objects"`
	Scalars    []string            `yaml:"scalars,omitempty"`
	Operations map[Root][]FieldDef `yaml:"operations"`
}

// FieldDef describes an input field, an output field, or an argument.
type FieldDef struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"` // innermost named type, e.g. "ProductInput"
	Required    bool   `yaml:"required,omitempty"`
	List        bool   `yaml:"list,omitempty"`
	Description string `yaml:"description,omitempty"`

	// Signature is the full type expression, e.g. "[MetafieldInput!]!".
	// Derived from Type/Required/List when empty; derived list items are
	// non-null.
	Signature string `yaml:"signature,omitempty"`

	// Args are only set for output fields and operations.
	Args []FieldDef `yaml:"args,omitempty"`
}

// TypeSignature returns the full type expression.
func (f FieldDef) TypeSignature() string {
	if f.Signature != "" {
		return f.Signature
	}
	sig := f.Type
	if f.List {
		sig = "[" + sig + "!]"
	}
	if f.Required {
		sig += "!"
	}
	return sig
}

// Arg returns the named argument.
func (f FieldDef) Arg(name string) (FieldDef, bool) {
	return findField(f.Args, name)
}

// ArgNames returns argument names in declaration order.
func (f FieldDef) ArgNames() []string {
	return fieldNames(f.Args)
}

// InputType is an input-object type.
type InputType struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Fields      []FieldDef `yaml:"fields"`
}

// Field returns the named field.
func (t *InputType) Field(name string) (FieldDef, bool) {
	return findField(t.Fields, name)
}

// FieldNames returns field names in declaration order.
func (t *InputType) FieldNames() []string {
	return fieldNames(t.Fields)
}

// EnumValue is one member of an enum.
type EnumValue struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Deprecated  bool   `yaml:"deprecated,omitempty"`
}

// EnumType is an enum type.
type EnumType struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Values      []EnumValue `yaml:"values"`
}

// ValueNames returns the enum's value names in declaration order.
func (t *EnumType) ValueNames() []string {
	names := make([]string, len(t.Values))
	for i, v := range t.Values {
		names[i] = v.Name
	}
	return names
}

// ObjectType is an output object (or interface) type.
type ObjectType struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Fields      []FieldDef `yaml:"fields"`
}

// Field returns the named field.
func (t *ObjectType) Field(name string) (FieldDef, bool) {
	return findField(t.Fields, name)
}

// FieldNames returns field names in declaration order.
func (t *ObjectType) FieldNames() []string {
	return fieldNames(t.Fields)
}

// Model is the read-only lookup built from a Definition.
type Model struct {
	inputs  map[string]*InputType
	enums   map[string]*EnumType
	objects map[string]*ObjectType
	scalars map[string]bool
	ops     map[Root]map[string]*FieldDef
}

// New builds a Model. The definition is copied; later changes to it do not
// affect the model.
func New(def Definition) *Model {
	m := &Model{
		inputs:  make(map[string]*InputType, len(def.Inputs)),
		enums:   make(map[string]*EnumType, len(def.Enums)),
		objects: make(map[string]*ObjectType, len(def.Objects)),
		scalars: make(map[string]bool, len(def.Scalars)),
		ops:     make(map[Root]map[string]*FieldDef),
	}
	for _, t := range def.Inputs {
		t := t
		t.Fields = append([]FieldDef(nil), t.Fields...)
		m.inputs[t.Name] = &t
	}
	for _, t := range def.Enums {
		t := t
		t.Values = append([]EnumValue(nil), t.Values...)
		m.enums[t.Name] = &t
	}
	for _, t := range def.Objects {
		t := t
		t.Fields = append([]FieldDef(nil), t.Fields...)
		m.objects[t.Name] = &t
	}
	for _, s := range def.Scalars {
		m.scalars[s] = true
	}
	for root, ops := range def.Operations {
		byName := make(map[string]*FieldDef, len(ops))
		for _, op := range ops {
			op := op
			op.Args = append([]FieldDef(nil), op.Args...)
			byName[op.Name] = &op
		}
		m.ops[root] = byName
	}
	return m
}

// InputType returns the named input-object type.
func (m *Model) InputType(name string) (*InputType, bool) {
	t, ok := m.inputs[name]
	return t, ok
}

// Enum returns the named enum type.
func (m *Model) Enum(name string) (*EnumType, bool) {
	t, ok := m.enums[name]
	return t, ok
}

// Object returns the named output object type.
func (m *Model) Object(name string) (*ObjectType, bool) {
	t, ok := m.objects[name]
	return t, ok
}

// Operation returns the named root field.
func (m *Model) Operation(root Root, name string) (*FieldDef, bool) {
	op, ok := m.ops[root][name]
	return op, ok
}

// OperationNames returns the sorted names of a root's operations.
func (m *Model) OperationNames(root Root) []string {
	names := make([]string, 0, len(m.ops[root]))
	for name := range m.ops[root] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KindOf reports the kind of a named type.
func (m *Model) KindOf(name string) (Kind, bool) {
	switch {
	case m.inputs[name] != nil:
		return KindInput, true
	case m.enums[name] != nil:
		return KindEnum, true
	case m.objects[name] != nil:
		return KindObject, true
	case m.scalars[name] || builtinScalars[name]:
		return KindScalar, true
	}
	return "", false
}

// TypeNames returns the sorted names of every type of the given kind. An
// empty kind lists all types.
func (m *Model) TypeNames(kind Kind) []string {
	var names []string
	if kind == "" || kind == KindInput {
		for name := range m.inputs {
			names = append(names, name)
		}
	}
	if kind == "" || kind == KindEnum {
		for name := range m.enums {
			names = append(names, name)
		}
	}
	if kind == "" || kind == KindObject {
		for name := range m.objects {
			names = append(names, name)
		}
	}
	if kind == "" || kind == KindScalar {
		for name := range m.scalars {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

var builtinScalars = map[string]bool{
	"String": true, "Int": true, "Float": true, "Boolean": true, "ID": true,
}

func findField(fields []FieldDef, name string) (FieldDef, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

func fieldNames(fields []FieldDef) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
