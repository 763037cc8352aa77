// Package input folds --input, --set and --set-json flags into one nested
// value tree.
package input

import (
	"os"
	"strings"

	"github.com/aidanlsb/shopctl/internal/value"
)

// Assignment is one path=value flag.
type Assignment struct {
	Path  string
	Value string
	JSON  bool // --set-json: the value is JSON text or @file
}

// Flag returns the flag name the assignment came from.
func (a Assignment) Flag() string {
	if a.JSON {
		return "--set-json"
	}
	return "--set"
}

// ParseAssignment splits "path=value" at the first '='.
func ParseAssignment(arg string, json bool) (Assignment, error) {
	i := strings.IndexByte(arg, '=')
	if i < 0 {
		return Assignment{}, &InvalidAssignmentError{Arg: arg, Reason: "expected path=value"}
	}
	if i == 0 {
		return Assignment{}, &InvalidAssignmentError{Arg: arg, Reason: "empty path"}
	}
	return Assignment{Path: arg[:i], Value: arg[i+1:], JSON: json}, nil
}

// ParseAssignments parses a list of path=value flags of one flavour.
func ParseAssignments(args []string, json bool) ([]Assignment, error) {
	out := make([]Assignment, 0, len(args))
	for _, arg := range args {
		a, err := ParseAssignment(arg, json)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Request is everything the synthesizer folds together.
type Request struct {
	Raw         string // --input text or @file; empty when absent
	Assignments []Assignment
}

// Supplied reports whether any input source was given.
func (r Request) Supplied() bool {
	return r.Raw != "" || len(r.Assignments) > 0
}

// Synthesizer builds input trees. Aliases map legacy field names to their
// current spelling and apply at every depth.
type Synthesizer struct {
	Aliases  map[string]string
	ReadFile func(name string) ([]byte, error)
}

// New returns a synthesizer that reads @file references from disk.
func New(aliases map[string]string) *Synthesizer {
	return &Synthesizer{Aliases: aliases, ReadFile: os.ReadFile}
}

// origin records where the value at a normalised path came from.
type origin struct {
	spelling string // the path as written, before alias normalisation
	source   string // e.g. "--set bodyHtml"
	value    value.Value
}

type builder struct {
	s       *Synthesizer
	root    value.Value
	origins map[string]origin

	// replaced holds the origins beneath a path the current write
	// replaces, so its own children can still be checked against them.
	replaced map[string]origin
}

// Synthesize seeds the tree from the raw document, if any, then applies the
// assignments in order. The boolean reports whether anything was supplied.
func (s *Synthesizer) Synthesize(req Request) (value.Value, bool, error) {
	if !req.Supplied() {
		return value.Null(), false, nil
	}

	b := &builder{s: s, origins: make(map[string]origin)}

	if req.Raw != "" {
		text, err := s.ReadText(req.Raw)
		if err != nil {
			return value.Value{}, true, err
		}
		root, err := value.Parse([]byte(text))
		if err != nil {
			return value.Value{}, true, &MalformedJSONError{Source: "--input", Err: err}
		}
		b.replaced = make(map[string]origin)
		if b.root, err = b.normalize(root, nil, nil, "--input"); err != nil {
			return value.Value{}, true, err
		}
	}

	for _, a := range req.Assignments {
		if err := b.apply(a); err != nil {
			return value.Value{}, true, err
		}
	}
	return b.root, true, nil
}

func (b *builder) apply(a Assignment) error {
	written, err := ParsePath(a.Path)
	if err != nil {
		return &InvalidAssignmentError{Arg: a.Path + "=" + a.Value, Reason: err.Error()}
	}
	source := a.Flag() + " " + a.Path

	var v value.Value
	if a.JSON {
		text, err := b.s.ReadText(a.Value)
		if err != nil {
			return err
		}
		if v, err = value.Parse([]byte(text)); err != nil {
			return &MalformedJSONError{Source: source, Err: err}
		}
	} else if scalar, ok := value.ParseScalar(a.Value); ok {
		v = scalar
	} else {
		v = value.String(a.Value)
	}

	path := b.canonical(written)
	b.replaced = make(map[string]origin)
	if err := b.record(path, written, source, v); err != nil {
		return err
	}
	if v, err = b.normalize(v, path, written, a.Flag()); err != nil {
		return err
	}

	root, err := Set(b.root, path, v)
	if err != nil {
		return &InvalidAssignmentError{Arg: a.Path + "=" + a.Value, Reason: err.Error()}
	}
	b.root = root
	return nil
}

// canonical applies aliases to every key segment.
func (b *builder) canonical(p Path) Path {
	out := make(Path, len(p))
	for i, seg := range p {
		if !seg.IsIndex {
			seg.Key = b.alias(seg.Key)
		}
		out[i] = seg
	}
	return out
}

func (b *builder) alias(key string) string {
	if to, ok := b.s.Aliases[key]; ok {
		return to
	}
	return key
}

// record notes the origin of a value about to be stored at path. Two
// different spellings of one normalised path must agree, including a leaf
// that an enclosing write is about to replace; the same spelling simply
// overwrites.
func (b *builder) record(path, written Path, source string, v value.Value) error {
	key := path.String()
	spelling := written.String()
	prev, ok := b.origins[key]
	if !ok {
		prev, ok = b.replaced[key]
	}
	if ok && prev.spelling != spelling && !prev.value.Equal(v) {
		return &ConflictingAssignmentError{Path: key, First: prev.source, Second: source}
	}

	// A write replaces everything beneath it.
	for k, o := range b.origins {
		if strings.HasPrefix(k, key+".") {
			b.replaced[k] = o
			delete(b.origins, k)
		}
	}
	b.origins[key] = origin{spelling: spelling, source: source, value: v}
	return nil
}

// normalize renames aliased keys inside v, recording the origin of every
// nested value. An object holding both a legacy and a current spelling with
// different values is a conflict.
func (b *builder) normalize(v value.Value, path, written Path, flag string) (value.Value, error) {
	switch v.Kind() {
	case value.KindObject:
		obj, _ := v.AsObject()
		for _, k := range obj.Keys() {
			canon := b.alias(k)
			child, _ := obj.Get(k)
			childPath := path.Child(Segment{Key: canon})
			childWritten := written.Child(Segment{Key: k})

			if err := b.record(childPath, childWritten, flag+" "+childWritten.String(), child); err != nil {
				return v, err
			}
			child, err := b.normalize(child, childPath, childWritten, flag)
			if err != nil {
				return v, err
			}

			if canon != k {
				if obj.Has(canon) {
					obj.Delete(k)
					continue
				}
				obj.Rename(k, canon)
			}
			obj.Set(canon, child)
		}
	case value.KindList:
		items, _ := v.AsList()
		out := make([]value.Value, len(items))
		for i, item := range items {
			seg := Segment{Index: i, IsIndex: true}
			n, err := b.normalize(item, path.Child(seg), written.Child(seg), flag)
			if err != nil {
				return v, err
			}
			out[i] = n
		}
		return value.List(out...), nil
	}
	return v, nil
}

// ReadText returns text, or the contents of the file it names when it starts
// with '@'.
func (s *Synthesizer) ReadText(text string) (string, error) {
	return ReadText(text, s.ReadFile)
}

// ReadText resolves an @file reference with readFile, or os.ReadFile when
// readFile is nil. Other text is returned unchanged.
func ReadText(text string, readFile func(string) ([]byte, error)) (string, error) {
	if !strings.HasPrefix(text, "@") {
		return text, nil
	}
	if readFile == nil {
		readFile = os.ReadFile
	}
	name := text[1:]
	data, err := readFile(name)
	if err != nil {
		return "", &MissingFileError{Path: name, Err: err}
	}
	return string(data), nil
}
