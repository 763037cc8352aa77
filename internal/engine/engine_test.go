package engine

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/shopctl/internal/check"
	"github.com/aidanlsb/shopctl/internal/commands"
	"github.com/aidanlsb/shopctl/internal/input"
	"github.com/aidanlsb/shopctl/internal/schema"
	"github.com/aidanlsb/shopctl/internal/selection"
	"github.com/aidanlsb/shopctl/internal/value"
	"github.com/aidanlsb/shopctl/internal/verbs"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	catalog, err := commands.Default()
	require.NoError(t, err)
	model, err := schema.Default()
	require.NoError(t, err)
	return New(catalog, model)
}

func prepare(t *testing.T, e *Engine, resource string, tokens ...string) *Plan {
	t.Helper()
	plan, err := e.Prepare(resource, tokens, Defaults{})
	require.NoError(t, err)
	return plan
}

func TestPrepareUnknownResource(t *testing.T) {
	_, err := newEngine(t).Prepare("prodcts", []string{"list"}, Defaults{})

	var ure *UnknownResourceError
	require.ErrorAs(t, err, &ure)
	assert.Equal(t, CodeUnknownResource, ure.Code())
	assert.Contains(t, ure.Suggestions, "products")
}

func TestPrepareUnresolvedVerb(t *testing.T) {
	_, err := newEngine(t).Prepare("products", []string{"lst", "--first", "5"}, Defaults{})

	var uve *verbs.UnresolvedVerbError
	require.ErrorAs(t, err, &uve)
	assert.Equal(t, "lst", uve.Verb)
	assert.Contains(t, uve.Suggestions, "list")
}

func TestPrepareListDefaults(t *testing.T) {
	plan := prepare(t, newEngine(t), "products", "list")

	assert.Equal(t, selection.ViewSummary, plan.View)
	assert.Equal(t, FormatJSON, plan.Format)
	assert.True(t, plan.Validated)
	assert.Equal(t, `{"first":25}`, plan.Request.Variables.String())
	assert.Contains(t, plan.Request.Query, "query Products($first: Int) {")
	assert.Contains(t, plan.Request.Query, "products(first: $first) {")
	assert.Contains(t, plan.Request.Query, "nodes {")
	assert.Contains(t, plan.Request.Query, "endCursor")
}

func TestPrepareListPaging(t *testing.T) {
	e := newEngine(t)
	plan, err := e.Prepare("products", []string{"list", "--first", "5", "--after", "abc", "--query", "status:active"}, Defaults{PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, `{"first":5,"after":"abc","query":"status:active"}`, plan.Request.Variables.String())

	plan, err = e.Prepare("products", []string{"list"}, Defaults{PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, `{"first":50}`, plan.Request.Variables.String())
}

func TestPreparePositionalID(t *testing.T) {
	plan := prepare(t, newEngine(t), "products", "get", "8123")

	assert.Equal(t, `{"id":"gid://shopify/Product/8123"}`, plan.Request.Variables.String())
	assert.Contains(t, plan.Request.Query, "product(id: $id) {")
}

func TestPrepareUpdateSynthesizesInput(t *testing.T) {
	plan := prepare(t, newEngine(t), "products", "update", "1",
		"--set-json", `tags=["winter"]`,
		"--set", "title=Frost Mug",
		"--set", "bodyHtml=<p>hi</p>",
	)

	assert.True(t, plan.InputSupplied)
	assert.Equal(t,
		`{"input":{"tags":["winter"],"title":"Frost Mug","descriptionHtml":"<p>hi</p>","id":"gid://shopify/Product/1"}}`,
		plan.Request.Variables.String())
	assert.Contains(t, plan.Request.Query, "mutation ProductUpdate($input: ProductInput!) {")
	assert.Contains(t, plan.Request.Query, "product {")
	assert.Contains(t, plan.Request.Query, "userErrors {")
}

func TestPrepareInputFromFile(t *testing.T) {
	e := newEngine(t).WithReadFile(func(name string) ([]byte, error) {
		if name == "product.json" {
			return []byte(`{"title":"From file","seo":{"title":"S"}}`), nil
		}
		return nil, os.ErrNotExist
	})

	plan := prepare(t, e, "products", "create", "--input", "@product.json", "--set", "status=DRAFT")
	assert.Equal(t, `{"input":{"title":"From file","seo":{"title":"S"},"status":"DRAFT"}}`, plan.Request.Variables.String())

	_, err := e.Prepare("products", []string{"create", "--input", "@missing.json"}, Defaults{})
	var mfe *input.MissingFileError
	assert.ErrorAs(t, err, &mfe)
}

func TestPrepareIDConflict(t *testing.T) {
	_, err := newEngine(t).Prepare("products", []string{"update", "1", "--set", "id=gid://shopify/Product/2"}, Defaults{})

	var cae *input.ConflictingAssignmentError
	require.ErrorAs(t, err, &cae)
	assert.Equal(t, "input.id", cae.Path)
}

func TestPrepareIDAgreement(t *testing.T) {
	plan := prepare(t, newEngine(t), "products", "update", "1", "--set", "id=gid://shopify/Product/1")
	assert.Equal(t, `{"input":{"id":"gid://shopify/Product/1"}}`, plan.Request.Variables.String())
}

func TestPrepareValidation(t *testing.T) {
	e := newEngine(t)
	_, err := e.Prepare("products", []string{"update", "1", "--set", "titel=x"}, Defaults{})

	var errs check.Errors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 1)
	assert.Equal(t, check.CodeUnknownField, errs[0].Code())
	assert.Equal(t, "input.titel", errs[0].Path)
	assert.Contains(t, errs[0].Suggestions, "title")

	plan, err := e.Prepare("products", []string{"update", "1", "--set", "titel=x", "--no-validate"}, Defaults{})
	require.NoError(t, err)
	assert.False(t, plan.Validated)
}

func TestPrepareUsageErrors(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		name   string
		tokens []string
		code   string
	}{
		{"missing id", []string{"get"}, CodeMissingArgument},
		{"unknown flag", []string{"list", "--bogus"}, CodeInvalidInput},
		{"stray argument", []string{"list", "extra"}, CodeInvalidInput},
		{"bad format", []string{"list", "--format", "xml"}, CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Prepare("products", tt.tokens, Defaults{})
			var ue *UsageError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, tt.code, ue.Code())
			assert.Contains(t, ue.Usage, "Usage:")
		})
	}
}

func TestPrepareUnknownView(t *testing.T) {
	_, err := newEngine(t).Prepare("products", []string{"list", "--view", "ful"}, Defaults{})
	var uve *selection.UnknownViewError
	require.ErrorAs(t, err, &uve)
	assert.Contains(t, uve.Suggestions, "full")
}

func TestPrepareHelp(t *testing.T) {
	plan := prepare(t, newEngine(t), "products", "get", "--help")
	assert.True(t, plan.Help)
	assert.Nil(t, plan.Operation)
}

func TestPrepareMultiWordVerb(t *testing.T) {
	plan := prepare(t, newEngine(t), "products", "add", "tags", "1", "--tags", "a", "--tags", "b,c")

	assert.Equal(t, "add tags", plan.Verb.Name)
	assert.Equal(t, `{"id":"gid://shopify/Product/1","tags":["a","b,c"]}`, plan.Request.Variables.String())
	assert.Contains(t, plan.Request.Query, "tagsAdd(id: $id, tags: $tags) {")
	assert.Contains(t, plan.Request.Query, "node {\n      id\n    }")
}

func TestPrepareFixedSelectionWarns(t *testing.T) {
	plan := prepare(t, newEngine(t), "products", "delete", "1", "--view", "full")

	assert.Contains(t, plan.Request.Query, "deletedProductId")
	assert.NotContains(t, plan.Request.Query, "descriptionHtml")
	assert.Len(t, plan.Warnings, 1)
}

func TestPrepareIDsFormat(t *testing.T) {
	plan := prepare(t, newEngine(t), "products", "list", "--view", "raw", "--select", "title", "--format", "ids")

	assert.Equal(t, []string{"id", "title"}, selectionPaths(t, plan))
}

func TestPrepareIncludeOutsideAll(t *testing.T) {
	e := newEngine(t)

	plan := prepare(t, e, "products", "list", "--include", "variants")
	assert.NotEmpty(t, plan.Warnings)
	assert.NotContains(t, plan.Request.Query, "variants")

	plan = prepare(t, e, "products", "list", "--view", "all", "--include", "variants")
	assert.Empty(t, plan.Warnings)
	assert.Contains(t, plan.Request.Query, "variants(first: 10) {")
}

func TestPrepareSelectionOverride(t *testing.T) {
	plan := prepare(t, newEngine(t), "products", "get", "1", "--selection", "{ id title }")
	assert.Equal(t, []string{"id", "title"}, selectionPaths(t, plan))
}

func TestPrepareDryRun(t *testing.T) {
	plan := prepare(t, newEngine(t), "shop", "get", "--dry-run")
	assert.True(t, plan.DryRun)
}

func selectionPaths(t *testing.T, plan *Plan) []string {
	t.Helper()
	sel := plan.Operation.Selection
	if plan.Verb.List {
		nodes, ok := sel.Get("nodes")
		require.True(t, ok)
		sel = nodes.Children
	}
	return sel.Paths()
}

func TestUnwrapList(t *testing.T) {
	plan := prepare(t, newEngine(t), "products", "list")
	data, err := value.Parse([]byte(`{"products":{"nodes":[{"id":"a"},{"id":"b"}],"pageInfo":{"hasNextPage":true,"endCursor":"c"}}}`))
	require.NoError(t, err)

	res, err := plan.Unwrap(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, IDs(res.Data))
	require.NotNil(t, res.PageInfo)
	assert.Equal(t, "c", res.PageInfo.EndCursor)
}

func TestUnwrapUserErrors(t *testing.T) {
	plan := prepare(t, newEngine(t), "products", "update", "1", "--set", "title=x")
	data, err := value.Parse([]byte(`{"productUpdate":{"product":null,"userErrors":[{"field":["input","title"],"message":"is taken"}]}}`))
	require.NoError(t, err)

	res, err := plan.Unwrap(data)
	var uee *UserErrorsError
	require.True(t, errors.As(err, &uee))
	assert.Equal(t, CodeUserErrors, uee.Code())
	assert.Equal(t, "productUpdate failed: input.title: is taken", uee.Error())
	assert.True(t, res.Data.IsNull())
}

func TestUnwrapPayload(t *testing.T) {
	plan := prepare(t, newEngine(t), "products", "delete", "1")
	data, err := value.Parse([]byte(`{"productDelete":{"deletedProductId":"gid://shopify/Product/1","userErrors":[]}}`))
	require.NoError(t, err)

	res, err := plan.Unwrap(data)
	require.NoError(t, err)
	assert.Equal(t, `{"deletedProductId":"gid://shopify/Product/1"}`, res.Data.String())
}

func TestUnwrapMissingNode(t *testing.T) {
	plan := prepare(t, newEngine(t), "products", "get", "1")
	data, err := value.Parse([]byte(`{"product":null}`))
	require.NoError(t, err)

	res, err := plan.Unwrap(data)
	require.NoError(t, err)
	assert.True(t, res.Data.IsNull())
}

func TestPlanIDsFixedSelection(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		name   string
		tokens []string
		data   string
		want   []string
	}{
		{
			name:   "nested node",
			tokens: []string{"add", "tags", "1", "--tags", "a", "--format", "ids"},
			data:   `{"tagsAdd":{"node":{"id":"gid://shopify/Product/1"},"userErrors":[]}}`,
			want:   []string{"gid://shopify/Product/1"},
		},
		{
			name:   "deleted id",
			tokens: []string{"delete", "1", "--format", "ids"},
			data:   `{"productDelete":{"deletedProductId":"gid://shopify/Product/1","userErrors":[]}}`,
			want:   []string{"gid://shopify/Product/1"},
		},
		{
			name:   "null payload",
			tokens: []string{"delete", "1", "--format", "ids"},
			data:   `{"productDelete":{"deletedProductId":null,"userErrors":[]}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := prepare(t, e, "products", tt.tokens...)
			assert.Empty(t, plan.Warnings)

			data, err := value.Parse([]byte(tt.data))
			require.NoError(t, err)
			res, err := plan.Unwrap(data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan.IDs(res))
		})
	}
}

func TestPlanIDsWithoutIDPath(t *testing.T) {
	plan := prepare(t, newEngine(t), "metafields", "delete",
		"--set", "0.ownerId=gid://shopify/Product/1", "--set", "0.namespace=custom", "--set", "0.key=care",
		"--format", "ids", "--no-validate")
	require.Len(t, plan.Warnings, 1)
	assert.Contains(t, plan.Warnings[0], "--format ids prints nothing")

	data, err := value.Parse([]byte(`{"metafieldsDelete":{"deletedMetafields":[{"ownerId":"gid://shopify/Product/1","namespace":"custom","key":"care"}],"userErrors":[]}}`))
	require.NoError(t, err)
	res, err := plan.Unwrap(data)
	require.NoError(t, err)
	assert.Empty(t, plan.IDs(res))
}

func TestPlanIDsNodeSelection(t *testing.T) {
	plan := prepare(t, newEngine(t), "products", "get", "1", "--format", "ids")
	data, err := value.Parse([]byte(`{"product":{"id":"gid://shopify/Product/1"}}`))
	require.NoError(t, err)
	res, err := plan.Unwrap(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"gid://shopify/Product/1"}, plan.IDs(res))
}
