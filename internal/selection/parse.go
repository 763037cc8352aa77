package selection

import (
	"fmt"
	"strings"
)

// InvalidSelectionError reports selection text or a path that cannot be
// parsed.
type InvalidSelectionError struct {
	Text   string
	Reason string
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("invalid selection %q: %s", e.Text, e.Reason)
}

// Code returns the stable error code.
func (e *InvalidSelectionError) Code() string { return "INVALID_SELECTION" }

// Parse reads GraphQL selection text. The outer braces are optional:
// "id title seo { title }" and "{ id title seo { title } }" are the same.
// Aliases, raw arguments and inline fragments are kept verbatim.
func Parse(text string) (*Set, error) {
	p := &parser{src: text}
	p.skip()
	if p.pos >= len(p.src) {
		return nil, p.errorf("empty selection")
	}

	var s *Set
	var err error
	if p.peek() == '{' {
		s, err = p.block()
	} else {
		s, err = p.fields(false)
	}
	if err != nil {
		return nil, err
	}
	p.skip()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos])
	}
	return s, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return &InvalidSelectionError{Text: p.src, Reason: fmt.Sprintf(format, args...) + fmt.Sprintf(" at offset %d", p.pos)}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

// skip advances past whitespace, commas and # comments.
func (p *parser) skip() {
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',':
			p.pos++
		case c == '#':
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *parser) block() (*Set, error) {
	p.pos++ // '{'
	s, err := p.fields(true)
	if err != nil {
		return nil, err
	}
	if p.peek() != '}' {
		return nil, p.errorf("missing '}'")
	}
	p.pos++
	return s, nil
}

// fields parses fields until '}' (when nested) or end of input.
func (p *parser) fields(nested bool) (*Set, error) {
	s := &Set{}
	for {
		p.skip()
		switch c := p.peek(); {
		case c == 0:
			if nested {
				return nil, p.errorf("missing '}'")
			}
			return s, nil
		case c == '}':
			if !nested {
				return nil, p.errorf("unexpected '}'")
			}
			return s, nil
		}
		f, err := p.field()
		if err != nil {
			return nil, err
		}
		s.Put(f)
	}
}

func (p *parser) field() (*Field, error) {
	if strings.HasPrefix(p.src[p.pos:], "...") {
		p.pos += 3
		p.skip()
		if p.name() != "on" {
			return nil, p.errorf("expected 'on' after '...'")
		}
		p.skip()
		typ := p.name()
		if typ == "" {
			return nil, p.errorf("expected type name")
		}
		p.skip()
		if p.peek() != '{' {
			return nil, p.errorf("expected '{' after fragment type")
		}
		children, err := p.block()
		if err != nil {
			return nil, err
		}
		return &Field{On: typ, Children: children}, nil
	}

	name := p.name()
	if name == "" {
		return nil, p.errorf("unexpected %q", p.peek())
	}
	f := &Field{Name: name}

	p.skip()
	if p.peek() == ':' {
		p.pos++
		p.skip()
		f.Alias = name
		if f.Name = p.name(); f.Name == "" {
			return nil, p.errorf("expected field name after alias %q", name)
		}
		p.skip()
	}

	if p.peek() == '(' {
		args, err := p.args()
		if err != nil {
			return nil, err
		}
		f.Args = args
		p.skip()
	}

	if p.peek() == '{' {
		children, err := p.block()
		if err != nil {
			return nil, err
		}
		f.Children = children
	}
	return f, nil
}

func (p *parser) name() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || (p.pos > start && c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

// args returns the text between balanced parentheses, honouring quoted
// strings.
func (p *parser) args() (string, error) {
	start := p.pos + 1
	depth := 0
	inString := false
	for ; p.pos < len(p.src); p.pos++ {
		c := p.src[p.pos]
		if inString {
			switch c {
			case '\\':
				p.pos++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				text := strings.TrimSpace(p.src[start:p.pos])
				p.pos++
				return text, nil
			}
		}
	}
	return "", p.errorf("unbalanced '('")
}
