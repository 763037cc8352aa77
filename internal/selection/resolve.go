package selection

import (
	"fmt"
	"strings"

	"github.com/aidanlsb/shopctl/internal/input"
	"github.com/aidanlsb/shopctl/internal/suggest"
)

// View is a named selection-breadth policy.
type View string

const (
	ViewIDs         View = "ids"
	ViewSummary     View = "summary"
	ViewFull        View = "full"
	ViewAll         View = "all"
	ViewRaw         View = "raw"
	ViewPassthrough View = "passthrough"
)

// Views lists every view in help order.
var Views = []View{ViewIDs, ViewSummary, ViewFull, ViewAll, ViewRaw, ViewPassthrough}

// DefaultView is used when no view is requested.
const DefaultView = ViewSummary

// DefaultPageSize is the page size of connections attached with --include.
const DefaultPageSize = 10

// UnknownViewError reports an unrecognised view name.
type UnknownViewError struct {
	View        string
	Suggestions []string
}

func (e *UnknownViewError) Error() string {
	return fmt.Sprintf("unknown view %q", e.View)
}

// Code returns the stable error code.
func (e *UnknownViewError) Code() string { return "UNKNOWN_VIEW" }

// ParseView validates a view name. The empty string is the default view.
func ParseView(s string) (View, error) {
	if s == "" {
		return DefaultView, nil
	}
	for _, v := range Views {
		if string(v) == s {
			return v, nil
		}
	}
	names := make([]string, len(Views))
	for i, v := range Views {
		names[i] = string(v)
	}
	return "", &UnknownViewError{View: s, Suggestions: suggest.Suggest(s, names, suggest.DefaultLimit)}
}

// Request is everything that shapes a selection.
type Request struct {
	View View

	// Summary and Full are the predeclared paths of the two breadth views.
	Summary []string
	Full    []string

	Select  []string
	Include []string

	// Connections maps includable connection names to their node paths.
	// Undeclared connections select only id.
	Connections map[string][]string

	// Override replaces everything else; inline text or @file.
	Override string

	// ForceID adds id to the final tree, for reduced output modes.
	ForceID bool

	ReadFile func(string) ([]byte, error)
}

// Resolve builds the selection for a request.
func Resolve(req Request) (*Set, error) {
	s, err := resolve(req)
	if err != nil {
		return nil, err
	}
	if req.ForceID {
		s.Prepend("id")
	}
	return s, nil
}

func resolve(req Request) (*Set, error) {
	if strings.TrimSpace(req.Override) != "" {
		text, err := input.ReadText(req.Override, req.ReadFile)
		if err != nil {
			return nil, err
		}
		return Parse(text)
	}

	view := req.View
	if view == "" {
		view = DefaultView
	}

	s := &Set{}
	switch view {
	case ViewIDs:
		return NewSet("id"), nil
	case ViewRaw:
	case ViewSummary:
		if err := addPaths(s, req.Summary); err != nil {
			return nil, err
		}
	case ViewFull, ViewAll, ViewPassthrough:
		if err := addPaths(s, req.Full); err != nil {
			return nil, err
		}
	default:
		_, err := ParseView(string(view))
		return nil, err
	}

	if err := addPaths(s, req.Select); err != nil {
		return nil, err
	}

	if view == ViewAll {
		for _, name := range req.Include {
			if !isName(name) {
				return nil, &InvalidSelectionError{Text: name, Reason: "bad connection name"}
			}
			nodes := NewSet("id")
			if paths, ok := req.Connections[name]; ok && len(paths) > 0 {
				nodes = &Set{}
				if err := addPaths(nodes, paths); err != nil {
					return nil, err
				}
			}
			s.Put(&Field{
				Name:       name,
				Children:   nodes,
				Connection: &ConnectionArgs{First: DefaultPageSize},
			})
		}
	}
	return s, nil
}

func addPaths(s *Set, paths []string) error {
	for _, p := range paths {
		if err := s.AddPath(p); err != nil {
			return err
		}
	}
	return nil
}
