// Package gql assembles an operation and renders it as a GraphQL document
// plus variables.
package gql

import (
	"strings"

	"github.com/aidanlsb/shopctl/internal/schema"
	"github.com/aidanlsb/shopctl/internal/selection"
	"github.com/aidanlsb/shopctl/internal/value"
)

// UnknownType is the variable type used for arguments the schema model does
// not describe.
const UnknownType = "JSON"

// Operation is one root field call with its arguments and selection.
type Operation struct {
	Root      schema.Root
	Field     string
	Args      *value.Object
	Selection *selection.Set
}

// New returns an operation with no arguments.
func New(root schema.Root, field string, sel *selection.Set) *Operation {
	return &Operation{Root: root, Field: field, Args: value.NewObject(), Selection: sel}
}

// Name is the operation name, the field name in upper camel case.
func (op *Operation) Name() string {
	if op.Field == "" {
		return ""
	}
	return strings.ToUpper(op.Field[:1]) + op.Field[1:]
}

// Request is the JSON body of a GraphQL call.
type Request struct {
	Query         string      `json:"query"`
	OperationName string      `json:"operationName,omitempty"`
	Variables     value.Value `json:"variables"`
}

// Render produces the document and variables. Every argument is passed as a
// variable, typed from the model's argument signatures.
func Render(op *Operation, model *schema.Model) Request {
	var def *schema.FieldDef
	if model != nil {
		def, _ = model.Operation(op.Root, op.Field)
	}

	var decls, uses []string
	vars := value.NewObject()
	for _, name := range op.Args.Keys() {
		v, _ := op.Args.Get(name)
		typ := UnknownType
		if def != nil {
			if arg, ok := def.Arg(name); ok {
				typ = arg.TypeSignature()
			}
		}
		decls = append(decls, "$"+name+": "+typ)
		uses = append(uses, name+": $"+name)
		vars.Set(name, v)
	}

	var b strings.Builder
	b.WriteString(string(op.Root) + " " + op.Name())
	if len(decls) > 0 {
		b.WriteString("(" + strings.Join(decls, ", ") + ")")
	}
	b.WriteString(" ")

	root := &selection.Set{}
	root.Put(&selection.Field{
		Name:     op.Field,
		Args:     strings.Join(uses, ", "),
		Children: op.Selection,
	})
	root.Render(&b, 0)

	return Request{
		Query:         b.String(),
		OperationName: op.Name(),
		Variables:     value.FromObject(vars),
	}
}

// Raw wraps a hand-written document.
func Raw(query string, variables value.Value) Request {
	if variables.IsNull() {
		variables = value.FromObject(nil)
	}
	return Request{Query: query, Variables: variables}
}
