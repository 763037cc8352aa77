// Package commands provides the resource/verb catalog: the single source of
// truth for which verbs each resource has, the operation each verb calls and
// the flags it accepts. The catalog is data; the engine interprets it.
package commands

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/shopctl/internal/schema"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// FlagMeta defines a verb flag.
type FlagMeta struct {
	Name        string   `yaml:"name"`
	Short       string   `yaml:"short,omitempty"`
	Description string   `yaml:"description"`
	Type        FlagType `yaml:"type,omitempty"`
	Default     string   `yaml:"default,omitempty"`

	// Arg is the dotted argument path the flag's value is placed at,
	// e.g. "input.id". Empty for flags the engine consumes itself.
	Arg string `yaml:"arg,omitempty"`
}

// FlagType represents the type of a flag.
type FlagType string

const (
	FlagTypeString      FlagType = "string"
	FlagTypeBool        FlagType = "bool"
	FlagTypeInt         FlagType = "int"
	FlagTypeKeyValue    FlagType = "key=value"   // repeatable path=value assignments
	FlagTypeStringSlice FlagType = "stringSlice" // repeatable string flags
	FlagTypeJSON        FlagType = "json"        // JSON text or @file
)

// Connection is a paginated field that can be attached with --include.
type Connection struct {
	Name   string   `yaml:"name"`
	Select []string `yaml:"select,omitempty"`
}

// Verb is one action of a resource.
type Verb struct {
	Name        string              `yaml:"name"` // space-joined words, e.g. "add tags"
	Description string              `yaml:"description"`
	LongDesc    string              `yaml:"long,omitempty"`
	Root        schema.Root         `yaml:"root"`
	Operation   string              `yaml:"operation"`
	List        bool                `yaml:"list,omitempty"`
	InputArg    string              `yaml:"input_arg,omitempty"`
	Payload     string              `yaml:"payload,omitempty"`
	UserErrors  bool                `yaml:"user_errors,omitempty"`
	Required    []string            `yaml:"required,omitempty"`
	Fixed       []string            `yaml:"fixed,omitempty"`
	Views       map[string][]string `yaml:"views,omitempty"`
	Aliases     map[string]string   `yaml:"aliases,omitempty"`
	Flags       []FlagMeta          `yaml:"flags,omitempty"`
	Examples    []string            `yaml:"examples,omitempty"`
}

// Words returns the verb name split into its words.
func (v *Verb) Words() []string {
	return strings.Fields(v.Name)
}

// RequiresFlag reports whether name is in the verb's required-flag set.
func (v *Verb) RequiresFlag(name string) bool {
	for _, r := range v.Required {
		if r == name {
			return true
		}
	}
	return false
}

// RequiresID reports whether the verb requires the identifier flag.
func (v *Verb) RequiresID() bool {
	return v.RequiresFlag(FlagID)
}

// Mutating reports whether the verb writes remote state.
func (v *Verb) Mutating() bool {
	return v.Root == schema.RootMutation
}

// Flag returns the verb-specific flag with the given name.
func (v *Verb) Flag(name string) (FlagMeta, bool) {
	for _, f := range v.Flags {
		if f.Name == name {
			return f, true
		}
	}
	return FlagMeta{}, false
}

// Resource is a noun-like command group.
type Resource struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Views       map[string][]string `yaml:"views,omitempty"`
	Connections []Connection        `yaml:"connections,omitempty"`
	Verbs       []Verb              `yaml:"verbs,omitempty"`

	// GID is the global-ID type name numeric identifiers expand to.
	GID string `yaml:"gid,omitempty"`

	// Freeform resources bypass verb matching: every leading token is part
	// of the verb string.
	Freeform bool `yaml:"freeform,omitempty"`
}

// ExpandID turns a bare numeric identifier into the resource's global ID.
// Anything else is returned unchanged.
func (r *Resource) ExpandID(id string) string {
	if r.GID == "" || id == "" || strings.TrimLeft(id, "0123456789") != "" {
		return id
	}
	return "gid://shopify/" + r.GID + "/" + id
}

// Verb returns the verb with exactly the given (space-joined) name.
func (r *Resource) Verb(name string) (*Verb, bool) {
	for i := range r.Verbs {
		if r.Verbs[i].Name == name {
			return &r.Verbs[i], true
		}
	}
	return nil, false
}

// VerbNames returns verb names in catalog order.
func (r *Resource) VerbNames() []string {
	names := make([]string, len(r.Verbs))
	for i, v := range r.Verbs {
		names[i] = v.Name
	}
	return names
}

// ViewPaths returns the predeclared field paths for a view, preferring the
// verb's own declaration over the resource's.
func (r *Resource) ViewPaths(v *Verb, view string) ([]string, bool) {
	if v != nil {
		if paths, ok := v.Views[view]; ok {
			return paths, true
		}
	}
	paths, ok := r.Views[view]
	return paths, ok
}

// Connection returns the named includable connection.
func (r *Resource) Connection(name string) (Connection, bool) {
	for _, c := range r.Connections {
		if c.Name == name {
			return c, true
		}
	}
	return Connection{}, false
}

// ConnectionNames returns includable connection names in catalog order.
func (r *Resource) ConnectionNames() []string {
	names := make([]string, len(r.Connections))
	for i, c := range r.Connections {
		names[i] = c.Name
	}
	return names
}

// Catalog is the read-only resource/verb catalog.
type Catalog struct {
	resources []Resource
	byName    map[string]int
}

type catalogFile struct {
	Resources []Resource `yaml:"resources"`
}

// Load parses a catalog document.
func Load(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		resources: f.Resources,
		byName:    make(map[string]int, len(f.Resources)),
	}
	for i := range c.resources {
		r := &c.resources[i]
		if err := r.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byName[r.Name]; dup {
			return nil, fmt.Errorf("duplicate resource %q", r.Name)
		}
		c.byName[r.Name] = i
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Load(defaultCatalog)
}

func (r *Resource) validate() error {
	if r.Name == "" {
		return fmt.Errorf("resource with empty name")
	}
	seen := make(map[string]bool, len(r.Verbs))
	for i := range r.Verbs {
		v := &r.Verbs[i]
		// Normalise internal whitespace so "add  tags" and "add tags" agree.
		v.Name = strings.Join(v.Words(), " ")
		if v.Name == "" {
			return fmt.Errorf("resource %s: verb with empty name", r.Name)
		}
		if seen[v.Name] {
			return fmt.Errorf("resource %s: duplicate verb %q", r.Name, v.Name)
		}
		seen[v.Name] = true
		if v.Operation == "" {
			return fmt.Errorf("resource %s: verb %q has no operation", r.Name, v.Name)
		}
		switch v.Root {
		case schema.RootQuery, schema.RootMutation:
		default:
			return fmt.Errorf("resource %s: verb %q has unknown root %q", r.Name, v.Name, v.Root)
		}
		for j := range v.Flags {
			if v.Flags[j].Type == "" {
				v.Flags[j].Type = FlagTypeString
			}
		}
	}
	return nil
}

// Resource returns the named resource.
func (c *Catalog) Resource(name string) (*Resource, bool) {
	i, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return &c.resources[i], true
}

// ResourceNames returns resource names sorted alphabetically.
func (c *Catalog) ResourceNames() []string {
	names := make([]string, 0, len(c.resources))
	for _, r := range c.resources {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names
}

// Resources returns every resource in catalog order.
func (c *Catalog) Resources() []*Resource {
	out := make([]*Resource, len(c.resources))
	for i := range c.resources {
		out[i] = &c.resources[i]
	}
	return out
}
