package cli

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aidanlsb/shopctl/internal/schema"
	"github.com/aidanlsb/shopctl/internal/suggest"
	"github.com/aidanlsb/shopctl/internal/ui"
)

const typesUsage = `Explore the API's types

Usage:
  shopctl types <TypeName>
  shopctl types list [--filter GLOB] [--kind input|enum|object|scalar]

Examples:
  shopctl types ProductInput
  shopctl types list --filter 'Product*' --kind input
`

// typeField is one row of a type description.
type typeField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type typeInfo struct {
	Name        string      `json:"name"`
	Kind        schema.Kind `json:"kind"`
	Description string      `json:"description,omitempty"`
	Fields      []typeField `json:"fields,omitempty"`
	Values      []typeField `json:"values,omitempty"`
}

func runTypes(cmd *cobra.Command, args []string) error {
	tokens, err := extractGlobalFlags(args)
	if err != nil {
		return err
	}
	if err := setup(); err != nil {
		return err
	}
	e, err := getEngine()
	if err != nil {
		return err
	}

	fs := pflag.NewFlagSet("types", pflag.ContinueOnError)
	fs.SetOutput(&strings.Builder{})
	filter := fs.String("filter", "", "Glob over type names, e.g. 'Product*'")
	kind := fs.String("kind", "", "Only types of this kind: input, enum, object, scalar")
	help := fs.BoolP("help", "h", false, "Help for types")
	if err := fs.Parse(tokens); err != nil {
		return newCodedError(ErrInvalidInput, "%v", err)
	}
	rest := fs.Args()
	if *help || len(rest) == 0 {
		fmt.Fprint(stdout, typesUsage)
		return nil
	}

	if rest[0] == "list" {
		if len(rest) > 1 {
			return newCodedError(ErrInvalidInput, "unexpected argument %q", rest[1])
		}
		return listTypes(e.Model(), *filter, schema.Kind(strings.ToLower(*kind)))
	}
	if len(rest) > 1 {
		return newCodedError(ErrInvalidInput, "expected one type name, got %d", len(rest))
	}
	return describeType(e.Model(), rest[0])
}

func listTypes(model *schema.Model, filter string, kind schema.Kind) error {
	switch kind {
	case "", schema.KindInput, schema.KindEnum, schema.KindObject, schema.KindScalar:
	default:
		return newCodedError(ErrInvalidInput, "unknown kind %q (want input, enum, object or scalar)", kind)
	}

	var matcher glob.Glob
	if filter != "" {
		g, err := glob.Compile(filter)
		if err != nil {
			return newCodedError(ErrInvalidInput, "invalid filter %q: %v", filter, err)
		}
		matcher = g
	}

	var infos []typeInfo
	for _, name := range model.TypeNames(kind) {
		if matcher != nil && !matcher.Match(name) {
			continue
		}
		k, _ := model.KindOf(name)
		infos = append(infos, typeInfo{Name: name, Kind: k})
	}

	if jsonOutput {
		outputSuccess(infos, nil, &Meta{Count: len(infos)})
		return nil
	}
	if len(infos) == 0 {
		fmt.Fprintln(stderr, ui.Hint("No types match"))
		return nil
	}
	if !getDisplay().IsTTY {
		for _, info := range infos {
			fmt.Fprintf(stdout, "%s\t%s\n", info.Name, info.Kind)
		}
		return nil
	}
	t := ui.NewTable("TYPE", "KIND")
	for _, info := range infos {
		t.AddRow(info.Name, string(info.Kind))
	}
	fmt.Fprint(stdout, t.Render(getDisplay()))
	fmt.Fprintln(stderr, ui.Hint(ui.Count(len(infos), "type", "types")))
	return nil
}

func describeType(model *schema.Model, name string) error {
	info, err := lookupType(model, name)
	if err != nil {
		return err
	}

	if jsonOutput {
		outputSuccess(info, nil, nil)
		return nil
	}

	doc := typeMarkdown(info)
	if getDisplay().IsTTY {
		rendered, err := ui.RenderMarkdown(doc, getDisplay().TermWidth)
		if err == nil {
			fmt.Fprint(stdout, rendered)
			return nil
		}
		log.Debug().Err(err).Msg("markdown rendering failed")
	}
	fmt.Fprint(stdout, doc)
	return nil
}

// typeNotFoundError suggests close type names.
type typeNotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *typeNotFoundError) Error() string { return fmt.Sprintf("unknown type %q", e.Name) }
func (e *typeNotFoundError) Code() string  { return ErrTypeNotFound }

func lookupType(model *schema.Model, name string) (*typeInfo, error) {
	kind, ok := model.KindOf(name)
	if !ok {
		return nil, &typeNotFoundError{
			Name:        name,
			Suggestions: suggest.Suggest(name, model.TypeNames(""), suggest.DefaultLimit),
		}
	}

	info := &typeInfo{Name: name, Kind: kind}
	switch kind {
	case schema.KindInput:
		t, _ := model.InputType(name)
		info.Description = t.Description
		info.Fields = describeFields(t.Fields)
	case schema.KindObject:
		t, _ := model.Object(name)
		info.Description = t.Description
		info.Fields = describeFields(t.Fields)
	case schema.KindEnum:
		t, _ := model.Enum(name)
		info.Description = t.Description
		for _, v := range t.Values {
			desc := v.Description
			if v.Deprecated {
				desc = strings.TrimSpace("(deprecated) " + desc)
			}
			info.Values = append(info.Values, typeField{Name: v.Name, Description: desc})
		}
	}
	return info, nil
}

func describeFields(fields []schema.FieldDef) []typeField {
	out := make([]typeField, len(fields))
	for i, f := range fields {
		out[i] = typeField{Name: f.Name, Type: f.TypeSignature(), Description: f.Description}
	}
	return out
}

func typeMarkdown(info *typeInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n_%s_\n\n", info.Name, info.Kind)
	if info.Description != "" {
		b.WriteString(strings.TrimSpace(info.Description) + "\n\n")
	}
	if len(info.Fields) > 0 {
		b.WriteString("| Field | Type | Description |\n|---|---|---|\n")
		for _, f := range info.Fields {
			fmt.Fprintf(&b, "| %s | `%s` | %s |\n", f.Name, f.Type, tableCell(f.Description))
		}
	}
	if len(info.Values) > 0 {
		b.WriteString("| Value | Description |\n|---|---|\n")
		for _, v := range info.Values {
			fmt.Fprintf(&b, "| %s | %s |\n", v.Name, tableCell(v.Description))
		}
	}
	return b.String()
}

func tableCell(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
