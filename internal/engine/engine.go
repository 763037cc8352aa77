// Package engine turns a resource and its trailing command-line tokens into
// a ready-to-send GraphQL request. It owns no global state: an Engine holds
// the catalog and schema model, both read-only, and every call goes through
// it.
package engine

import (
	"os"
	"strings"

	"github.com/aidanlsb/shopctl/internal/check"
	"github.com/aidanlsb/shopctl/internal/commands"
	"github.com/aidanlsb/shopctl/internal/gql"
	"github.com/aidanlsb/shopctl/internal/input"
	"github.com/aidanlsb/shopctl/internal/schema"
	"github.com/aidanlsb/shopctl/internal/selection"
	"github.com/aidanlsb/shopctl/internal/suggest"
	"github.com/aidanlsb/shopctl/internal/value"
	"github.com/aidanlsb/shopctl/internal/verbs"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatTable = "table"
	FormatIDs   = "ids"
)

// DefaultPageSize is the page size of list verbs without --first.
const DefaultPageSize = 25

// Engine is the immutable context every step runs against.
type Engine struct {
	catalog   *commands.Catalog
	model     *schema.Model
	validator *check.Validator
	readFile  func(string) ([]byte, error)
}

// New builds an engine.
func New(catalog *commands.Catalog, model *schema.Model) *Engine {
	return &Engine{
		catalog:   catalog,
		model:     model,
		validator: check.New(model),
		readFile:  os.ReadFile,
	}
}

// WithReadFile returns a copy of e that resolves @file references with fn.
func (e *Engine) WithReadFile(fn func(string) ([]byte, error)) *Engine {
	c := *e
	c.readFile = fn
	return &c
}

// Catalog returns the resource/verb catalog.
func (e *Engine) Catalog() *commands.Catalog { return e.catalog }

// Model returns the schema model.
func (e *Engine) Model() *schema.Model { return e.model }

// Defaults are per-invocation fallbacks, usually from configuration.
type Defaults struct {
	View     selection.View
	Format   string
	PageSize int
}

// Plan is a prepared invocation.
type Plan struct {
	Resource *commands.Resource
	Verb     *commands.Verb
	Flags    *commands.Parsed

	// Help is set when -h/--help was given; nothing else is filled in.
	Help bool

	View      selection.View
	Format    string
	DryRun    bool
	Validated bool

	// InputSupplied reports whether --input/--set/--set-json were given.
	InputSupplied bool

	Operation *gql.Operation
	Request   gql.Request
	Warnings  []string

	// idPaths locate ids in a fixed selection; empty means the node's own id.
	idPaths []string
}

// Resource looks up a resource, suggesting close names when it is unknown.
func (e *Engine) Resource(name string) (*commands.Resource, error) {
	r, ok := e.catalog.Resource(name)
	if !ok {
		return nil, &UnknownResourceError{
			Name:        name,
			Suggestions: suggest.Suggest(name, e.catalog.ResourceNames(), suggest.DefaultLimit),
		}
	}
	return r, nil
}

// Prepare resolves the verb, parses its flags, synthesizes the input,
// resolves the selection and validates the assembled operation.
func (e *Engine) Prepare(resource string, tokens []string, d Defaults) (*Plan, error) {
	r, err := e.Resource(resource)
	if err != nil {
		return nil, err
	}

	res := verbs.Resolve(r, tokens)
	if !res.Resolved() {
		return nil, verbs.Unresolved(r, res)
	}
	v := res.Matched
	usage := commands.Usage(r, v)

	rest := verbs.NormalizePositional(v, res.Rest)
	flags, err := commands.ParseFlags(r, v, rest)
	if err != nil {
		return nil, usageErrorf(CodeInvalidInput, usage, "%s %s: %v", r.Name, v.Name, err)
	}

	plan := &Plan{Resource: r, Verb: v, Flags: flags}
	if flags.Help() {
		plan.Help = true
		return plan, nil
	}
	if len(flags.Args) > 0 {
		return nil, usageErrorf(CodeInvalidInput, usage, "unexpected argument %q", flags.Args[0])
	}
	if missing := flags.Missing(v); len(missing) > 0 {
		return nil, usageErrorf(CodeMissingArgument, usage, "missing required flag --%s", missing[0])
	}

	args, supplied, err := e.arguments(r, v, flags, d)
	if err != nil {
		return nil, err
	}
	plan.InputSupplied = supplied

	plan.Format = firstNonEmpty(flags.String(commands.FlagFormat), d.Format, FormatJSON)
	switch plan.Format {
	case FormatJSON, FormatTable, FormatIDs:
	default:
		return nil, usageErrorf(CodeInvalidInput, usage, "unknown format %q (json, table, ids)", plan.Format)
	}

	plan.View, err = selection.ParseView(firstNonEmpty(flags.String(commands.FlagView), string(d.View)))
	if err != nil {
		return nil, err
	}

	sel, warnings, err := e.selection(r, v, flags, plan.View, plan.Format == FormatIDs)
	if err != nil {
		return nil, err
	}
	plan.Warnings = warnings
	if len(v.Fixed) > 0 && flags.String(commands.FlagSelection) == "" {
		plan.idPaths = fixedIDPaths(v.Fixed)
		if plan.Format == FormatIDs && len(plan.idPaths) == 0 {
			plan.Warnings = append(plan.Warnings, v.Name+" returns no ids; --format ids prints nothing")
		}
	}

	plan.Operation = &gql.Operation{
		Root:      v.Root,
		Field:     v.Operation,
		Args:      args,
		Selection: wrap(v, sel),
	}

	if !flags.Bool(commands.FlagNoValidate) {
		if errs := e.validator.Operation(v.Root, v.Operation, args); len(errs) > 0 {
			return nil, errs
		}
		plan.Validated = true
	}

	plan.DryRun = flags.Bool(commands.FlagDryRun)
	plan.Request = gql.Render(plan.Operation, e.model)
	return plan, nil
}

// arguments assembles the operation arguments: the synthesized input under
// the verb's input argument, then every flag bound to an argument path.
func (e *Engine) arguments(r *commands.Resource, v *commands.Verb, flags *commands.Parsed, d Defaults) (*value.Object, bool, error) {
	root := value.FromObject(nil)
	supplied := false

	if v.InputArg != "" {
		sets, err := input.ParseAssignments(flags.Strings(commands.FlagSet), false)
		if err != nil {
			return nil, false, err
		}
		jsonSets, err := input.ParseAssignments(flags.Strings(commands.FlagSetJSON), true)
		if err != nil {
			return nil, false, err
		}

		synth := input.New(v.Aliases)
		synth.ReadFile = e.readFile
		in, ok, err := synth.Synthesize(input.Request{
			Raw:         flags.String(commands.FlagInput),
			Assignments: orderAssignments(flags, sets, jsonSets),
		})
		if err != nil {
			return nil, true, err
		}
		supplied = ok
		if ok {
			root, _ = input.Set(root, input.Path{{Key: v.InputArg}}, in)
		}
	}

	for _, f := range flags.ArgFlags() {
		path, err := input.ParsePath(f.Arg)
		if err != nil {
			return nil, supplied, err
		}
		val := flagValue(r, f, flags)
		if existing, ok := input.Lookup(root, path); ok && !existing.Equal(val) {
			return nil, supplied, &input.ConflictingAssignmentError{
				Path:   f.Arg,
				First:  "input " + f.Arg,
				Second: "--" + f.Name,
			}
		}
		if root, err = input.Set(root, path, val); err != nil {
			return nil, supplied, &input.InvalidAssignmentError{Arg: "--" + f.Name, Reason: err.Error()}
		}
	}

	if v.List && !flags.Changed(commands.FlagFirst) {
		size := d.PageSize
		if size <= 0 {
			size = DefaultPageSize
		}
		root, _ = input.Set(root, input.Path{{Key: "first"}}, value.Int(size))
	}

	obj, _ := root.AsObject()
	return obj, supplied, nil
}

func flagValue(r *commands.Resource, f commands.FlagMeta, flags *commands.Parsed) value.Value {
	switch f.Type {
	case commands.FlagTypeBool:
		return value.Bool(flags.Bool(f.Name))
	case commands.FlagTypeInt:
		return value.Int(flags.Int(f.Name))
	case commands.FlagTypeStringSlice, commands.FlagTypeKeyValue:
		items := flags.Strings(f.Name)
		out := make([]value.Value, len(items))
		for i, s := range items {
			out[i] = value.String(s)
		}
		return value.List(out...)
	}
	s := flags.String(f.Name)
	if f.Name == commands.FlagID {
		s = r.ExpandID(s)
	}
	return value.String(s)
}

// orderAssignments interleaves --set and --set-json in command-line order.
func orderAssignments(flags *commands.Parsed, sets, jsonSets []input.Assignment) []input.Assignment {
	order := flags.Order(commands.FlagSet, commands.FlagSetJSON)
	out := make([]input.Assignment, 0, len(sets)+len(jsonSets))
	var i, j int
	for _, name := range order {
		switch {
		case name == commands.FlagSet && i < len(sets):
			out = append(out, sets[i])
			i++
		case name == commands.FlagSetJSON && j < len(jsonSets):
			out = append(out, jsonSets[j])
			j++
		}
	}
	out = append(out, sets[i:]...)
	return append(out, jsonSets[j:]...)
}

// selection resolves the node selection of a verb.
func (e *Engine) selection(r *commands.Resource, v *commands.Verb, flags *commands.Parsed, view selection.View, forceID bool) (*selection.Set, []string, error) {
	var warnings []string
	includes := flags.Strings(commands.FlagInclude)
	if len(includes) > 0 && view != selection.ViewAll {
		warnings = append(warnings, "--include is ignored unless --view all")
	}

	override := flags.String(commands.FlagSelection)
	if len(v.Fixed) > 0 && override == "" {
		if flags.Changed(commands.FlagView) || len(flags.Strings(commands.FlagSelect)) > 0 {
			warnings = append(warnings, v.Name+" returns a fixed selection; --view and --select are ignored")
		}
		s := &selection.Set{}
		for _, p := range v.Fixed {
			if err := s.AddPath(p); err != nil {
				return nil, nil, err
			}
		}
		return s, warnings, nil
	}

	summary, _ := r.ViewPaths(v, string(selection.ViewSummary))
	full, _ := r.ViewPaths(v, string(selection.ViewFull))
	conns := make(map[string][]string, len(r.Connections))
	for _, c := range r.Connections {
		conns[c.Name] = c.Select
	}

	s, err := selection.Resolve(selection.Request{
		View:        view,
		Summary:     summary,
		Full:        full,
		Select:      flags.Strings(commands.FlagSelect),
		Include:     includes,
		Connections: conns,
		Override:    override,
		ForceID:     forceID,
		ReadFile:    e.readFile,
	})
	return s, warnings, err
}

// fixedIDPaths picks the paths of a fixed selection that hold ids: an id
// field or a deleted...Id field.
func fixedIDPaths(fixed []string) []string {
	var out []string
	for _, p := range fixed {
		last := p[strings.LastIndexByte(p, '.')+1:]
		if last == "id" || (strings.HasPrefix(last, "deleted") && strings.HasSuffix(last, "Id")) {
			out = append(out, p)
		}
	}
	return out
}

// wrap places the node selection where the operation returns it: under
// nodes for connections, under the payload field for mutations, followed by
// userErrors when the verb reports them.
func wrap(v *commands.Verb, nodes *selection.Set) *selection.Set {
	switch {
	case v.List:
		return selection.WrapConnection(nodes)
	case v.Payload != "":
		out := &selection.Set{}
		out.Put(&selection.Field{Name: v.Payload, Children: nodes})
		if v.UserErrors {
			out.Put(userErrorsField())
		}
		return out
	case v.UserErrors:
		out := nodes.Clone()
		out.Put(userErrorsField())
		return out
	}
	return nodes
}

func userErrorsField() *selection.Field {
	return &selection.Field{Name: "userErrors", Children: selection.NewSet("field", "message")}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
