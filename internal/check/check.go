// Package check validates assembled operation arguments against the schema
// model before anything is sent. It reports every unknown key in one pass
// and never modifies the arguments.
package check

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aidanlsb/shopctl/internal/schema"
	"github.com/aidanlsb/shopctl/internal/suggest"
	"github.com/aidanlsb/shopctl/internal/value"
)

// Error codes.
const (
	CodeUnknownField    = "UNKNOWN_FIELD"
	CodeUnknownArgument = "UNKNOWN_ARGUMENT"
)

// MaxSuggestions bounds the alternatives offered per error.
const MaxSuggestions = 5

// ValidationError is one unknown key.
type ValidationError struct {
	code string

	// Path addresses the key from the validated value's root, e.g.
	// "input.seo.titel" or "metafields.0.nmespace".
	Path        string
	TypeName    string
	Key         string
	Suggestions []string

	// Explore is a command that lists the type's fields.
	Explore string
}

func (e *ValidationError) Error() string {
	what := "field"
	if e.code == CodeUnknownArgument {
		what = "argument"
	}
	msg := fmt.Sprintf("unknown %s %q on %s at %s", what, e.Key, e.TypeName, e.Path)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

// Code returns the stable error code.
func (e *ValidationError) Code() string { return e.code }

// Errors collects every validation error of one pass.
type Errors []*ValidationError

func (es Errors) Error() string {
	switch len(es) {
	case 0:
		return "no validation errors"
	case 1:
		return es[0].Error()
	}
	lines := make([]string, len(es))
	for i, e := range es {
		lines[i] = e.Error()
	}
	return fmt.Sprintf("%d validation errors:\n  %s", len(es), strings.Join(lines, "\n  "))
}

// Code returns the code of the first error.
func (es Errors) Code() string {
	if len(es) == 0 {
		return ""
	}
	return es[0].Code()
}

// Err returns es as an error, or nil when empty.
func (es Errors) Err() error {
	if len(es) == 0 {
		return nil
	}
	return es
}

// Validator checks values against a schema model.
type Validator struct {
	model *schema.Model

	// ExploreCommand formats the "explore this type" hint.
	ExploreCommand func(typeName string) string
}

// New returns a validator for model.
func New(model *schema.Model) *Validator {
	return &Validator{
		model: model,
		ExploreCommand: func(typeName string) string {
			return "shopctl types " + typeName
		},
	}
}

// Operation checks an operation's arguments. Unknown arguments are reported
// against the operation's argument list; arguments of an input-object type
// are checked recursively. Operations the model does not know are skipped.
func (v *Validator) Operation(root schema.Root, name string, args *value.Object) Errors {
	op, ok := v.model.Operation(root, name)
	if !ok {
		return nil
	}

	var errs Errors
	for _, key := range args.Keys() {
		arg, ok := op.Arg(key)
		if !ok {
			errs = append(errs, &ValidationError{
				code:        CodeUnknownArgument,
				Path:        key,
				TypeName:    name,
				Key:         key,
				Suggestions: suggestFields(key, op.ArgNames()),
			})
			continue
		}
		val, _ := args.Get(key)
		errs = append(errs, v.walk(arg.Type, val, key)...)
	}
	return errs
}

// Input checks a value against an input-object type. Paths are relative to
// the value.
func (v *Validator) Input(typeName string, val value.Value) Errors {
	return v.walk(typeName, val, "")
}

func (v *Validator) walk(typeName string, val value.Value, path string) Errors {
	t, ok := v.model.InputType(typeName)
	if !ok {
		return nil
	}

	var errs Errors
	switch val.Kind() {
	case value.KindList:
		items, _ := val.AsList()
		for i, item := range items {
			errs = append(errs, v.walk(typeName, item, join(path, strconv.Itoa(i)))...)
		}
	case value.KindObject:
		obj, _ := val.AsObject()
		for _, key := range obj.Keys() {
			field, ok := t.Field(key)
			if !ok {
				errs = append(errs, &ValidationError{
					code:        CodeUnknownField,
					Path:        join(path, key),
					TypeName:    typeName,
					Key:         key,
					Suggestions: suggestFields(key, t.FieldNames()),
					Explore:     v.ExploreCommand(typeName),
				})
				continue
			}
			child, _ := obj.Get(key)
			errs = append(errs, v.walk(field.Type, child, join(path, key))...)
		}
	}
	return errs
}

// suggestFields ranks candidates in field mode. When nothing is close, the
// first few fields in alphabetical order are offered instead.
func suggestFields(key string, candidates []string) []string {
	if s := suggest.Fields(key, candidates, MaxSuggestions); len(s) > 0 {
		return s
	}
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)
	if len(sorted) > MaxSuggestions {
		sorted = sorted[:MaxSuggestions]
	}
	return sorted
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
