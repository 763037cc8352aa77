package input

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aidanlsb/shopctl/internal/value"
)

// Segment is one step of an assignment path: a mapping key or a sequence
// index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

func (s Segment) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Key
}

// Path is a parsed assignment path.
type Path []Segment

// String renders the path in dotted form, e.g. "metafields.0.value".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// Child returns a copy of p extended by one segment.
func (p Path) Child(s Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

// MaxIndex bounds sequence indexes so a typo cannot allocate a huge list.
const MaxIndex = 10000

// ParsePath parses a dotted path. Bracketed indexes are accepted too, so
// "variants[0].price" and "variants.0.price" are the same path. An all-digit
// segment is an index.
func ParsePath(text string) (Path, error) {
	if text == "" {
		return nil, fmt.Errorf("empty path")
	}

	var b strings.Builder
	for i := 0; i < len(text); i++ {
		switch c := text[i]; c {
		case '[':
			end := strings.IndexByte(text[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unclosed bracket in %q", text)
			}
			idx := text[i+1 : i+end]
			if idx == "" || strings.TrimLeft(idx, "0123456789") != "" {
				return nil, fmt.Errorf("bad index %q in %q", idx, text)
			}
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(idx)
			i += end
			if next := i + 1; next < len(text) && text[next] != '.' && text[next] != '[' {
				return nil, fmt.Errorf("unexpected %q after index in %q", text[next], text)
			}
		case ']':
			return nil, fmt.Errorf("unexpected ']' in %q", text)
		default:
			b.WriteByte(c)
		}
	}

	parts := strings.Split(b.String(), ".")
	path := make(Path, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("empty segment in %q", text)
		}
		seg := Segment{Key: part}
		if strings.TrimLeft(part, "0123456789") == "" {
			n, err := strconv.Atoi(part)
			if err != nil || n > MaxIndex {
				return nil, fmt.Errorf("index %s out of range in %q", part, text)
			}
			seg = Segment{Index: n, IsIndex: true}
		}
		path = append(path, seg)
	}
	return path, nil
}

// Set places v at path inside root and returns the new root. Missing
// intermediate nodes are created: a mapping for a key segment, a sequence
// for an index segment. Sequences grow with nulls to reach an index.
// Objects along the way are updated in place.
func Set(root value.Value, path Path, v value.Value) (value.Value, error) {
	if len(path) == 0 {
		return v, nil
	}
	seg, rest := path[0], path[1:]

	if seg.IsIndex {
		var items []value.Value
		switch root.Kind() {
		case value.KindNull:
		case value.KindList:
			list, _ := root.AsList()
			items = append(items, list...)
		default:
			return root, fmt.Errorf("cannot index %s with %d", root.Kind(), seg.Index)
		}
		for len(items) <= seg.Index {
			items = append(items, value.Null())
		}
		child, err := Set(items[seg.Index], rest, v)
		if err != nil {
			return root, err
		}
		items[seg.Index] = child
		return value.List(items...), nil
	}

	var obj *value.Object
	switch root.Kind() {
	case value.KindNull:
		obj = value.NewObject()
	case value.KindObject:
		obj, _ = root.AsObject()
	default:
		return root, fmt.Errorf("cannot set field %q on %s", seg.Key, root.Kind())
	}
	existing, _ := obj.Get(seg.Key)
	child, err := Set(existing, rest, v)
	if err != nil {
		return root, err
	}
	obj.Set(seg.Key, child)
	return value.FromObject(obj), nil
}

// Lookup returns the value at path, if every step exists.
func Lookup(root value.Value, path Path) (value.Value, bool) {
	cur := root
	for _, seg := range path {
		if seg.IsIndex {
			list, ok := cur.AsList()
			if !ok || seg.Index >= len(list) {
				return value.Value{}, false
			}
			cur = list[seg.Index]
			continue
		}
		obj, ok := cur.AsObject()
		if !ok {
			return value.Value{}, false
		}
		if cur, ok = obj.Get(seg.Key); !ok {
			return value.Value{}, false
		}
	}
	return cur, true
}
