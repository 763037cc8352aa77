package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flag names the engine itself understands.
const (
	FlagID         = "id"
	FlagInput      = "input"
	FlagSet        = "set"
	FlagSetJSON    = "set-json"
	FlagView       = "view"
	FlagSelect     = "select"
	FlagInclude    = "include"
	FlagSelection  = "selection"
	FlagFormat     = "format"
	FlagDryRun     = "dry-run"
	FlagNoValidate = "no-validate"
	FlagFirst      = "first"
	FlagAfter      = "after"
	FlagQuery      = "query"
	FlagSortKey    = "sort-key"
	FlagReverse    = "reverse"
	FlagHelp       = "help"
)

var inputFlags = []FlagMeta{
	{Name: FlagInput, Description: "Raw input document (JSON or @file)", Type: FlagTypeJSON},
	{Name: FlagSet, Description: "Set input field path=value (repeatable)", Type: FlagTypeKeyValue},
	{Name: FlagSetJSON, Description: "Set input field path=<json|@file> (repeatable)", Type: FlagTypeKeyValue},
}

var pagingFlags = []FlagMeta{
	{Name: FlagFirst, Description: "Page size", Type: FlagTypeInt, Arg: "first"},
	{Name: FlagAfter, Description: "Cursor to continue from", Type: FlagTypeString, Arg: "after"},
	{Name: FlagQuery, Description: "Search filter", Type: FlagTypeString, Arg: "query"},
	{Name: FlagSortKey, Description: "Sort key", Type: FlagTypeString, Arg: "sortKey"},
	{Name: FlagReverse, Description: "Reverse sort order", Type: FlagTypeBool, Arg: "reverse"},
}

var outputFlags = []FlagMeta{
	{Name: FlagView, Description: "Field view: ids, summary, full, all, raw, passthrough", Type: FlagTypeString},
	{Name: FlagSelect, Description: "Add a dotted field path to the selection (repeatable)", Type: FlagTypeStringSlice},
	{Name: FlagInclude, Description: "Attach a connection under --view all (repeatable)", Type: FlagTypeStringSlice},
	{Name: FlagSelection, Description: "Replace the selection (text or @file)", Type: FlagTypeString},
	{Name: FlagFormat, Description: "Output format: json, table, ids", Type: FlagTypeString},
	{Name: FlagDryRun, Description: "Print the request instead of sending it", Type: FlagTypeBool},
	{Name: FlagNoValidate, Description: "Skip schema validation", Type: FlagTypeBool},
}

// FlagsFor returns every flag a verb accepts: its own, then input flags for
// verbs taking an input argument, paging flags for list verbs, and the
// output flags shared by all verbs.
func FlagsFor(v *Verb) []FlagMeta {
	flags := append([]FlagMeta(nil), v.Flags...)
	if v.InputArg != "" {
		flags = append(flags, inputFlags...)
	}
	if v.List {
		flags = append(flags, pagingFlags...)
	}
	return append(flags, outputFlags...)
}

// NewFlagSet builds a pflag set from flag metadata. Parse errors are
// returned, never printed.
func NewFlagSet(name string, flags []FlagMeta) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	for _, flag := range flags {
		if fs.Lookup(flag.Name) != nil {
			continue
		}
		switch flag.Type {
		case FlagTypeBool:
			fs.Bool(flag.Name, flag.Default == "true", flag.Description)
		case FlagTypeInt:
			n, _ := strconv.Atoi(flag.Default)
			fs.Int(flag.Name, n, flag.Description)
		case FlagTypeKeyValue, FlagTypeStringSlice:
			// StringArray keeps commas inside values intact.
			fs.StringArray(flag.Name, nil, flag.Description)
		default:
			fs.String(flag.Name, flag.Default, flag.Description)
		}
		if flag.Short != "" {
			fs.Lookup(flag.Name).Shorthand = flag.Short
		}
	}
	fs.BoolP(FlagHelp, "h", false, "Show help")
	return fs
}

// Parsed holds the flag values of one verb invocation.
type Parsed struct {
	fs    *pflag.FlagSet
	flags []FlagMeta
	order []string

	// Args are the positional tokens left after flag parsing.
	Args []string
}

// ParseFlags parses residual tokens against a verb's flags.
func ParseFlags(r *Resource, v *Verb, tokens []string) (*Parsed, error) {
	flags := FlagsFor(v)
	fs := NewFlagSet(r.Name+" "+v.Name, flags)
	p := &Parsed{fs: fs, flags: flags}
	err := fs.ParseAll(tokens, func(f *pflag.Flag, val string) error {
		p.order = append(p.order, f.Name)
		return fs.Set(f.Name, val)
	})
	if err != nil {
		return nil, err
	}
	p.Args = fs.Args()
	return p, nil
}

// Order returns the occurrences of the named flags in command-line order,
// one entry per occurrence.
func (p *Parsed) Order(names ...string) []string {
	var out []string
	for _, name := range p.order {
		for _, n := range names {
			if name == n {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// Changed reports whether the flag was given explicitly.
func (p *Parsed) Changed(name string) bool {
	f := p.fs.Lookup(name)
	return f != nil && f.Changed
}

// String returns a string flag's value, or "" when the flag is unknown.
func (p *Parsed) String(name string) string {
	s, _ := p.fs.GetString(name)
	return s
}

// Strings returns a repeatable flag's values in command-line order.
func (p *Parsed) Strings(name string) []string {
	s, _ := p.fs.GetStringArray(name)
	return s
}

// Bool returns a bool flag's value.
func (p *Parsed) Bool(name string) bool {
	b, _ := p.fs.GetBool(name)
	return b
}

// Int returns an int flag's value.
func (p *Parsed) Int(name string) int {
	n, _ := p.fs.GetInt(name)
	return n
}

// Help reports whether -h/--help was given.
func (p *Parsed) Help() bool {
	return p.Bool(FlagHelp)
}

// ArgFlags returns the explicitly set flags that map onto operation
// arguments, in declaration order.
func (p *Parsed) ArgFlags() []FlagMeta {
	var out []FlagMeta
	for _, f := range p.flags {
		if f.Arg != "" && p.Changed(f.Name) {
			out = append(out, f)
		}
	}
	return out
}

// Missing returns the required flags that were not given.
func (p *Parsed) Missing(v *Verb) []string {
	var missing []string
	for _, name := range v.Required {
		if !p.Changed(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Usage renders the flag help for a verb.
func Usage(r *Resource, v *Verb) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nUsage:\n  shopctl %s %s", v.Description, r.Name, v.Name)
	if v.RequiresID() {
		b.WriteString(" <id>")
	}
	b.WriteString(" [flags]\n")
	if v.LongDesc != "" {
		b.WriteString("\n" + strings.TrimSpace(v.LongDesc) + "\n")
	}
	if len(v.Required) > 0 {
		fmt.Fprintf(&b, "\nRequired: --%s\n", strings.Join(v.Required, ", --"))
	}
	b.WriteString("\nFlags:\n")
	b.WriteString(NewFlagSet(v.Name, FlagsFor(v)).FlagUsages())
	if len(v.Examples) > 0 {
		b.WriteString("\nExamples:\n")
		for _, ex := range v.Examples {
			b.WriteString("  " + ex + "\n")
		}
	}
	return b.String()
}

// GenerateCobraCommand creates the Cobra command for a resource. Flag
// parsing is left to the handler because the verb, and so the flag set, is
// only known once the leading tokens are resolved.
func GenerateCobraCommand(r *Resource, run func(cmd *cobra.Command, args []string) error) *cobra.Command {
	longDesc := r.Description
	if len(r.Verbs) > 0 {
		longDesc += "\n\nVerbs:\n"
		for _, v := range r.Verbs {
			longDesc += fmt.Sprintf("  %-18s %s\n", v.Name, v.Description)
		}
		var examples []string
		for _, v := range r.Verbs {
			examples = append(examples, v.Examples...)
		}
		if len(examples) > 0 {
			longDesc += "\nExamples:\n"
			for _, ex := range examples {
				longDesc += "  " + ex + "\n"
			}
		}
	}

	use := r.Name + " <verb> [flags]"
	if r.Freeform {
		use = r.Name + " <text> [flags]"
	}

	return &cobra.Command{
		Use:                use,
		Short:              r.Description,
		Long:               longDesc,
		DisableFlagParsing: true,
		ValidArgsFunction:  verbCompletion(r),
		RunE:               run,
	}
}

// verbCompletion completes the next word of a (possibly multi-word) verb.
func verbCompletion(r *Resource) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, completedArgs []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var matches []string
		seen := make(map[string]bool)
		for _, v := range r.Verbs {
			words := v.Words()
			if len(words) <= len(completedArgs) {
				continue
			}
			if strings.Join(words[:len(completedArgs)], " ") != strings.Join(completedArgs, " ") {
				continue
			}
			next := words[len(completedArgs)]
			if strings.HasPrefix(next, toComplete) && !seen[next] {
				seen[next] = true
				matches = append(matches, next)
			}
		}
		return matches, cobra.ShellCompDirectiveNoFileComp
	}
}
