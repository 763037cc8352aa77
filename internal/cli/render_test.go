package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/shopctl/internal/value"
)

func TestFlattenNestedNode(t *testing.T) {
	v, err := value.Parse([]byte(`{"id":"1","seo":{"title":"S","description":null},"tags":["a","b"],"variants":[{"id":"v"}],"price":12.50,"active":true}`))
	require.NoError(t, err)

	var paths, cells []string
	flatten("", v, func(path, cell string) {
		paths = append(paths, path)
		cells = append(cells, cell)
	})
	assert.Equal(t, []string{"id", "seo.title", "seo.description", "tags", "variants", "price", "active"}, paths)
	assert.Equal(t, []string{"1", "S", "", "a, b", "(1 item)", "12.50", "true"}, cells)
}

func TestFlattenScalar(t *testing.T) {
	var got []string
	flatten("", value.String("gid://shopify/Product/1"), func(path, cell string) {
		got = append(got, path+"="+cell)
	})
	assert.Equal(t, []string{"value=gid://shopify/Product/1"}, got)
}

func TestPrettyJSON(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": [\n    1\n  ]\n}", prettyJSON([]byte(`{"a":[1]}`)))
	assert.Equal(t, "not json", prettyJSON([]byte("not json")))
}
