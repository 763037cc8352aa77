package selection

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productViews = Request{
	Summary: []string{"id", "title", "status"},
	Full:    []string{"id", "title", "status", "seo.title", "seo.description"},
	Connections: map[string][]string{
		"variants": {"id", "sku"},
	},
}

func request(mod func(*Request)) Request {
	r := productViews
	mod(&r)
	return r
}

func TestResolveViews(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{"default is summary", productViews, []string{"id", "title", "status"}},
		{"summary with select", request(func(r *Request) {
			r.View = ViewSummary
			r.Select = []string{"seo.title", "vendor"}
		}), []string{"id", "title", "status", "seo.title", "vendor"}},
		{"full", request(func(r *Request) { r.View = ViewFull }),
			[]string{"id", "title", "status", "seo.title", "seo.description"}},
		{"ids ignores select and include", request(func(r *Request) {
			r.View = ViewIDs
			r.Select = []string{"title", "seo.title"}
			r.Include = []string{"variants"}
		}), []string{"id"}},
		{"raw is empty", request(func(r *Request) { r.View = ViewRaw }), nil},
		{"raw grafts select", request(func(r *Request) {
			r.View = ViewRaw
			r.Select = []string{"handle"}
		}), []string{"handle"}},
		{"include only under all", request(func(r *Request) {
			r.View = ViewFull
			r.Include = []string{"variants"}
		}), []string{"id", "title", "status", "seo.title", "seo.description"}},
		{"all attaches includes", request(func(r *Request) {
			r.View = ViewAll
			r.Include = []string{"variants", "metafields"}
		}), []string{"id", "title", "status", "seo.title", "seo.description", "variants.id", "variants.sku", "metafields.id"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Resolve(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Paths())
		})
	}
}

func TestIdsViewIsExactlyID(t *testing.T) {
	for _, force := range []bool{false, true} {
		s, err := Resolve(request(func(r *Request) {
			r.View = ViewIDs
			r.Select = []string{"title"}
			r.ForceID = force
		}))
		require.NoError(t, err)
		assert.Equal(t, []string{"id"}, s.Paths())
	}
}

func TestIncludedConnectionsCarryPageSize(t *testing.T) {
	s, err := Resolve(request(func(r *Request) {
		r.View = ViewAll
		r.Include = []string{"variants"}
	}))
	require.NoError(t, err)
	f, ok := s.Get("variants")
	require.True(t, ok)
	require.NotNil(t, f.Connection)
	assert.Equal(t, DefaultPageSize, f.Connection.First)
}

func TestOverrideWins(t *testing.T) {
	base := Request{Override: "id handle"}
	for _, view := range Views {
		req := base
		req.View = view
		req.Select = []string{"title"}
		req.Include = []string{"variants"}
		req.Summary = productViews.Summary
		req.Full = productViews.Full

		s, err := Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "handle"}, s.Paths(), "view %s", view)
	}
}

func TestOverrideFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sel.graphql")
	require.NoError(t, os.WriteFile(path, []byte("{ title seo { title } }"), 0644))

	s, err := Resolve(Request{Override: "@" + path})
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "seo.title"}, s.Paths())

	_, err = Resolve(Request{Override: "@" + filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
}

func TestForceID(t *testing.T) {
	s, err := Resolve(Request{View: ViewRaw, Select: []string{"title"}, ForceID: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title"}, s.Paths())

	s, err = Resolve(Request{Override: "handle", ForceID: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "handle"}, s.Paths())
}

func TestUnknownView(t *testing.T) {
	_, err := ParseView("sumary")
	var uv *UnknownViewError
	require.ErrorAs(t, err, &uv)
	assert.Equal(t, "summary", uv.Suggestions[0])
	assert.Equal(t, "UNKNOWN_VIEW", uv.Code())

	_, err = Resolve(Request{View: "everything"})
	require.ErrorAs(t, err, &uv)

	v, err := ParseView("")
	require.NoError(t, err)
	assert.Equal(t, DefaultView, v)
}

func TestBadPaths(t *testing.T) {
	for _, p := range []string{"seo..title", "", "9lives", "a-b"} {
		_, err := Resolve(Request{Select: []string{p}})
		var invalid *InvalidSelectionError
		assert.ErrorAs(t, err, &invalid, "path %q", p)
	}
}

func TestRender(t *testing.T) {
	s, err := Resolve(request(func(r *Request) {
		r.View = ViewAll
		r.Full = []string{"id", "seo.title"}
		r.Include = []string{"variants"}
	}))
	require.NoError(t, err)

	want := `{
  id
  seo {
    title
  }
  variants(first: 10) {
    nodes {
      id
      sku
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`
	assert.Equal(t, want, s.String())
	assert.Equal(t, "{\n  __typename\n}", (&Set{}).String())
}

func TestWrapConnection(t *testing.T) {
	s := WrapConnection(NewSet("id", "title"))
	assert.Equal(t, []string{"nodes.id", "nodes.title", "pageInfo.hasNextPage", "pageInfo.endCursor"}, s.Paths())
}

func TestConnectionArgsQuoting(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"plain", "status:active", `"status:active"`},
		{"quotes and backslash", `title:"a\b"`, `"title:\"a\\b\""`},
		{"control characters", "a\nb\tc\x01", `"a\nb\tc\u0001"`},
		{"non-ascii kept", "tag:café ☕", `"tag:café ☕"`},
		{"invalid utf-8", "a\xffb", "\"a�b\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := &ConnectionArgs{First: 5, After: "abc", Query: tt.query}
			assert.Equal(t, `first: 5, after: "abc", query: `+tt.want, args.render())
			assert.NotContains(t, args.render(), `\x`)
		})
	}
}
