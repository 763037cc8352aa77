// Package selection builds the field-selection tree of an operation.
package selection

import (
	"fmt"
	"strings"
)

// ConnectionArgs marks a field as a paginated connection.
type ConnectionArgs struct {
	First   int
	After   string
	Query   string
	SortKey string
	Reverse bool
}

func (c *ConnectionArgs) render() string {
	parts := []string{fmt.Sprintf("first: %d", c.First)}
	if c.After != "" {
		parts = append(parts, "after: "+quoteString(c.After))
	}
	if c.Query != "" {
		parts = append(parts, "query: "+quoteString(c.Query))
	}
	if c.SortKey != "" {
		parts = append(parts, "sortKey: "+c.SortKey)
	}
	if c.Reverse {
		parts = append(parts, "reverse: true")
	}
	return strings.Join(parts, ", ")
}

// quoteString renders s as a GraphQL string literal. Invalid UTF-8 becomes
// U+FFFD.
func quoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Field is one requested field.
type Field struct {
	Name  string
	Alias string

	// Args is raw argument text rendered inside parentheses.
	Args string

	// On is the type condition of an inline fragment; Name is empty then.
	On string

	Children   *Set
	Connection *ConnectionArgs
}

// Key is the field's response key.
func (f *Field) Key() string {
	switch {
	case f.On != "":
		return "... on " + f.On
	case f.Alias != "":
		return f.Alias
	}
	return f.Name
}

func (f *Field) clone() *Field {
	out := *f
	if f.Children != nil {
		out.Children = f.Children.Clone()
	}
	if f.Connection != nil {
		c := *f.Connection
		out.Connection = &c
	}
	return &out
}

// Set is an ordered set of fields keyed by response key.
type Set struct {
	fields []*Field
}

// NewSet returns a set holding the given leaf fields.
func NewSet(names ...string) *Set {
	s := &Set{}
	for _, name := range names {
		s.Add(name)
	}
	return s
}

// Len returns the number of fields.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Fields returns the fields in insertion order.
func (s *Set) Fields() []*Field {
	if s == nil {
		return nil
	}
	return append([]*Field(nil), s.fields...)
}

// Get returns the field with the given response key.
func (s *Set) Get(key string) (*Field, bool) {
	if s == nil {
		return nil, false
	}
	for _, f := range s.fields {
		if f.Key() == key {
			return f, true
		}
	}
	return nil, false
}

// Has reports whether key is selected.
func (s *Set) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Add returns the field named name, adding a leaf if absent.
func (s *Set) Add(name string) *Field {
	if f, ok := s.Get(name); ok {
		return f
	}
	f := &Field{Name: name}
	s.fields = append(s.fields, f)
	return f
}

// Put stores f, merging into an existing field with the same key.
func (s *Set) Put(f *Field) {
	existing, ok := s.Get(f.Key())
	if !ok {
		s.fields = append(s.fields, f)
		return
	}
	if f.Args != "" {
		existing.Args = f.Args
	}
	if f.Connection != nil {
		existing.Connection = f.Connection
	}
	if f.Children != nil {
		if existing.Children == nil {
			existing.Children = &Set{}
		}
		for _, child := range f.Children.fields {
			existing.Children.Put(child)
		}
	}
}

// Prepend inserts a leaf field at the front, unless already present.
func (s *Set) Prepend(name string) {
	if s.Has(name) {
		return
	}
	s.fields = append([]*Field{{Name: name}}, s.fields...)
}

// AddPath grafts a dotted path such as "seo.title", creating nested sets as
// needed. A leaf that gains children becomes an object field.
func (s *Set) AddPath(path string) error {
	parts := strings.Split(path, ".")
	for _, p := range parts {
		if !isName(p) {
			return &InvalidSelectionError{Text: path, Reason: fmt.Sprintf("bad field name %q", p)}
		}
	}
	cur := s
	for i, p := range parts {
		f := cur.Add(p)
		if i == len(parts)-1 {
			break
		}
		if f.Children == nil {
			f.Children = &Set{}
		}
		cur = f.Children
	}
	return nil
}

// Clone returns a deep copy.
func (s *Set) Clone() *Set {
	if s == nil {
		return nil
	}
	out := &Set{fields: make([]*Field, len(s.fields))}
	for i, f := range s.fields {
		out.fields[i] = f.clone()
	}
	return out
}

// Paths lists every leaf as a dotted path, in order. Connection fields list
// their node paths under the connection name.
func (s *Set) Paths() []string {
	var out []string
	s.walk("", func(p string) { out = append(out, p) })
	return out
}

func (s *Set) walk(prefix string, fn func(string)) {
	for _, f := range s.Fields() {
		p := f.Key()
		if prefix != "" {
			p = prefix + "." + p
		}
		if f.Children.Len() == 0 {
			fn(p)
			continue
		}
		f.Children.walk(p, fn)
	}
}

// PageInfo is the selection every connection carries.
func PageInfo() *Field {
	return &Field{Name: "pageInfo", Children: NewSet("hasNextPage", "endCursor")}
}

// WrapConnection turns a node selection into a connection selection.
func WrapConnection(nodes *Set) *Set {
	if nodes == nil {
		nodes = &Set{}
	}
	out := &Set{}
	out.Put(&Field{Name: "nodes", Children: nodes})
	out.Put(PageInfo())
	return out
}

// String renders the set as an indented GraphQL selection block.
func (s *Set) String() string {
	var b strings.Builder
	s.Render(&b, 0)
	return b.String()
}

// Render writes the set as a braced block at the given indent depth. An
// empty set renders as { __typename } so the document stays valid.
func (s *Set) Render(b *strings.Builder, depth int) {
	pad := strings.Repeat("  ", depth+1)
	b.WriteString("{\n")
	if s.Len() == 0 {
		b.WriteString(pad + "__typename\n")
	}
	for _, f := range s.Fields() {
		b.WriteString(pad)
		f.render(b, depth+1)
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("  ", depth) + "}")
}

func (f *Field) render(b *strings.Builder, depth int) {
	if f.On != "" {
		b.WriteString("... on " + f.On + " ")
		f.Children.Render(b, depth)
		return
	}
	if f.Alias != "" {
		b.WriteString(f.Alias + ": ")
	}
	b.WriteString(f.Name)

	switch {
	case f.Connection != nil:
		b.WriteString("(" + f.Connection.render() + ") ")
		nodes := f.Children
		if nodes.Len() == 0 {
			nodes = NewSet("id")
		}
		WrapConnection(nodes).Render(b, depth)
	case f.Args != "":
		b.WriteString("(" + f.Args + ")")
	}
	if f.Connection == nil && f.Children != nil {
		b.WriteString(" ")
		f.Children.Render(b, depth)
	}
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
