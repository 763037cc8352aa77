package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/shopctl/internal/audit"
	"github.com/aidanlsb/shopctl/internal/client"
	"github.com/aidanlsb/shopctl/internal/config"
	"github.com/aidanlsb/shopctl/internal/testutil"
)

var cliMu sync.Mutex

const testConfig = `default_store = "frost"

[stores.frost]
domain = "frost-mugs.myshopify.com"
token_env = "SHOPCTL_TEST_TOKEN"
`

func resetGlobals() {
	storeName, configPath, schemaPathFlag, logLevelFlag = "", "", "", ""
	debugLogging, jsonOutput = false, false
	resolvedConfigPath, cfg, eng, display = "", nil, nil, nil
	storeDomain, storeTokenEnv, storeAPIVersion, storeMakeDef = "", "", "", false
	auditSince, auditID = "", ""
	for _, fs := range []*pflag.FlagSet{rootCmd.PersistentFlags(), configSetStoreCmd.Flags(), auditCmd.Flags()} {
		fs.VisitAll(func(f *pflag.Flag) { f.Changed = false })
	}
}

// runCLI executes args with captured output streams.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cliMu.Lock()
	defer cliMu.Unlock()

	var out, errOut bytes.Buffer
	prevOut, prevErr := stdout, stderr
	stdout, stderr = &out, &errOut
	resetGlobals()
	defer func() {
		stdout, stderr = prevOut, prevErr
		resetGlobals()
	}()

	err := ExecuteArgs(args)
	return out.String(), errOut.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	return path
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *ErrorInfo      `json:"error"`
	Meta  *Meta           `json:"meta"`
}

func decodeEnvelope(t *testing.T, out string) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), "output: %s", out)
	return env
}

// fakeStore points the CLI's client at a local store answering with bodies.
func fakeStore(t *testing.T, bodies ...string) *testutil.Store {
	t.Helper()
	store := testutil.NewStore(t, bodies...)

	prev := newClient
	newClient = func(endpoint, token string) (*client.Client, error) {
		assert.Equal(t, "https://frost-mugs.myshopify.com/admin/api/2025-01/graphql.json", endpoint)
		return client.New(store.URL, "shpat_test")
	}
	t.Cleanup(func() { newClient = prev })
	return store
}

func TestDryRunPrintsRequest(t *testing.T) {
	out, _, err := runCLI(t, "--config", writeConfig(t), "products", "get", "8123", "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, out, "query Product($id: ID!) {")
	assert.Contains(t, out, `"id": "gid://shopify/Product/8123"`)
}

func TestDryRunJSONEnvelope(t *testing.T) {
	out, _, err := runCLI(t, "--config", writeConfig(t), "products", "list", "--json", "--dry-run")
	require.NoError(t, err)

	env := decodeEnvelope(t, out)
	require.True(t, env.OK)
	var data struct {
		Query     string         `json:"query"`
		Variables map[string]int `json:"variables"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Contains(t, data.Query, "products(first: $first)")
	assert.Equal(t, 25, data.Variables["first"])
}

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		code       string
		suggestion string
	}{
		{"unknown resource", []string{"prodcts", "list"}, "UNKNOWN_RESOURCE", "products"},
		{"unresolved verb", []string{"products", "lst"}, "UNRESOLVED_VERB", "list"},
		{"unknown field", []string{"products", "update", "1", "--set", "titel=x", "--dry-run"}, "UNKNOWN_FIELD", "shopctl types ProductInput"},
		{"missing id", []string{"products", "get", "--dry-run"}, "MISSING_ARGUMENT", ""},
		{"malformed json", []string{"products", "create", "--set-json", "seo={", "--dry-run"}, "MALFORMED_JSON", ""},
		{"unknown view", []string{"products", "list", "--view", "ful", "--dry-run"}, "UNKNOWN_VIEW", "full"},
		{"unknown type", []string{"types", "ProductInptu"}, ErrTypeNotFound, "ProductInput"},
		{"bad log level", []string{"products", "list", "--log-level", "loud"}, ErrInvalidInput, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--json", "--config", writeConfig(t)}, tt.args...)
			out, _, err := runCLI(t, args...)
			require.Error(t, err)

			env := decodeEnvelope(t, out)
			assert.False(t, env.OK)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			if tt.suggestion != "" {
				assert.Contains(t, env.Error.Suggestion, tt.suggestion)
			}
		})
	}
}

func TestErrorText(t *testing.T) {
	_, errOut, err := runCLI(t, "--config", writeConfig(t), "products", "get")
	require.Error(t, err)
	assert.Contains(t, errOut, "Usage:")
	assert.Contains(t, errOut, "shopctl products get <id>")
}

func TestListRemembersNextPage(t *testing.T) {
	cfgPath := writeConfig(t)
	store := fakeStore(t,
		`{"data":{"products":{"nodes":[{"id":"gid://shopify/Product/1","title":"Frost Mug"}],"pageInfo":{"hasNextPage":true,"endCursor":"c1"}}}}`,
		`{"data":{"products":{"nodes":[{"id":"gid://shopify/Product/2","title":"Snow Mug"}],"pageInfo":{"hasNextPage":false,"endCursor":"c2"}}}}`,
	)

	out, errOut, err := runCLI(t, "--config", cfgPath, "products", "list", "--first", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Frost Mug"`)
	assert.Contains(t, errOut, `Next page: shopctl products --config `+cfgPath+` list --first 1 --after "c1"`)

	statePath := filepath.Join(filepath.Dir(cfgPath), "state.toml")
	state, err := config.LoadState(statePath)
	require.NoError(t, err)
	assert.Contains(t, state.NextPage, `--after "c1"`)

	out, errOut, err = runCLI(t, "--config", cfgPath, "next")
	require.NoError(t, err)
	assert.Contains(t, out, "Snow Mug")
	assert.NotContains(t, errOut, "Next page:")

	calls := store.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "c1", calls[1].Variables["after"])
	assert.EqualValues(t, 1, calls[1].Variables["first"])

	state, err = config.LoadState(statePath)
	require.NoError(t, err)
	assert.Empty(t, state.NextPage)

	out, _, err = runCLI(t, "--json", "--config", cfgPath, "next")
	require.Error(t, err)
	assert.Equal(t, ErrNoNextPage, decodeEnvelope(t, out).Error.Code)
}

func TestListFormats(t *testing.T) {
	cfgPath := writeConfig(t)
	fakeStore(t, `{"data":{"products":{"nodes":[{"id":"gid://shopify/Product/1","title":"Frost Mug"},{"id":"gid://shopify/Product/2","title":"Snow Mug"}],"pageInfo":{"hasNextPage":false,"endCursor":null}}}}`)

	out, _, err := runCLI(t, "--config", cfgPath, "products", "list", "--format", "ids")
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Product/1\ngid://shopify/Product/2\n", out)

	out, _, err = runCLI(t, "--config", cfgPath, "products", "list", "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "title")
	assert.Contains(t, out, "Snow Mug")

	out, _, err = runCLI(t, "--config", cfgPath, "--json", "products", "list")
	require.NoError(t, err)
	env := decodeEnvelope(t, out)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 2, env.Meta.Count)
	assert.Empty(t, env.Meta.NextPage)
}

func TestUserErrorsFail(t *testing.T) {
	fakeStore(t, `{"data":{"productUpdate":{"product":null,"userErrors":[{"field":["input","title"],"message":"is taken"}]}}}`)

	out, _, err := runCLI(t, "--json", "--config", writeConfig(t), "products", "update", "1", "--set", "title=x")
	require.Error(t, err)

	env := decodeEnvelope(t, out)
	require.NotNil(t, env.Error)
	assert.Equal(t, "USER_ERRORS", env.Error.Code)
	assert.Contains(t, env.Error.Message, "input.title: is taken")
}

func TestPartialDataWarns(t *testing.T) {
	fakeStore(t, `{"data":{"shop":{"name":"Frost"}},"errors":[{"message":"field hidden"}]}`)

	out, errOut, err := runCLI(t, "--config", writeConfig(t), "shop", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "Frost")
	assert.Contains(t, errOut, "field hidden")
}

func TestThrottledRequestFails(t *testing.T) {
	store := fakeStore(t, `{"data":{"shop":{"name":"Frost"}}}`).FailFirst(http.StatusTooManyRequests)

	out, _, err := runCLI(t, "--json", "--config", writeConfig(t), "shop", "get")
	require.Error(t, err)
	env := decodeEnvelope(t, out)
	assert.Equal(t, "REQUEST_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Message, "throttled")
	assert.Len(t, store.Calls(), 1)
}

func TestPassthroughPrintsBody(t *testing.T) {
	body := `{"data":{"shop":{"name":"Frost"}},"extensions":{"cost":{"requestedQueryCost":1}}}`
	fakeStore(t, body)

	out, _, err := runCLI(t, "--config", writeConfig(t), "shop", "get", "--view", "passthrough")
	require.NoError(t, err)
	assert.Equal(t, body+"\n", out)
}

func TestMissingToken(t *testing.T) {
	t.Setenv("SHOPCTL_TEST_TOKEN", "")

	out, _, err := runCLI(t, "--json", "--config", writeConfig(t), "shop", "get")
	require.Error(t, err)
	env := decodeEnvelope(t, out)
	assert.Equal(t, "MISSING_TOKEN", env.Error.Code)
	assert.Contains(t, env.Error.Suggestion, "SHOPCTL_TEST_TOKEN")
}

func TestGraphQLDryRun(t *testing.T) {
	out, _, err := runCLI(t, "--config", writeConfig(t), "graphql", "{", "shop", "{", "name", "}", "}", "--variables", `{"a":1}`, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "{ shop { name } }")
	assert.Contains(t, out, `"a": 1`)
}

func TestGraphQLSends(t *testing.T) {
	store := fakeStore(t, `{"data":{"shop":{"name":"Frost"}}}`)

	out, _, err := runCLI(t, "--config", writeConfig(t), "graphql", "{ shop { name } }")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Frost"`)
	assert.Equal(t, "{ shop { name } }", store.LastCall().Query)
}

func TestMutationsAreAudited(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("audit_log = \"audit.log\"\n"+testConfig), 0o644))
	fakeStore(t,
		`{"data":{"productUpdate":{"product":{"id":"gid://shopify/Product/1","title":"x"},"userErrors":[]}}}`,
		`{"data":{"productUpdate":{"product":null,"userErrors":[{"field":["input","title"],"message":"is taken"}]}}}`,
		`{"data":{"shop":{"name":"Frost"}}}`,
	)

	_, _, err := runCLI(t, "--config", cfgPath, "products", "update", "1", "--set", "title=x")
	require.NoError(t, err)
	_, _, err = runCLI(t, "--config", cfgPath, "products", "update", "1", "--set", "title=y")
	require.Error(t, err)
	_, _, err = runCLI(t, "--config", cfgPath, "shop", "get")
	require.NoError(t, err)

	entries, err := audit.New(filepath.Join(dir, "audit.log")).Read()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "frost", entries[0].Store)
	assert.Equal(t, "productUpdate", entries[0].Operation)
	assert.Equal(t, []string{"gid://shopify/Product/1"}, entries[0].IDs)
	assert.True(t, entries[0].OK())
	assert.Equal(t, 1, entries[1].UserErrors)

	out, _, err := runCLI(t, "--config", cfgPath, "--json", "audit")
	require.NoError(t, err)
	env := decodeEnvelope(t, out)
	assert.Equal(t, 2, env.Meta.Count)

	out, _, err = runCLI(t, "--config", cfgPath, "--json", "audit", "--id", "gid://shopify/Product/1", "--since", "1h")
	require.NoError(t, err)
	env = decodeEnvelope(t, out)
	assert.Equal(t, 1, env.Meta.Count)
	assert.Contains(t, out, `"op": "productUpdate"`)

	out, _, err = runCLI(t, "--config", cfgPath, "--json", "audit", "--since", "2999-01-01")
	require.NoError(t, err)
	assert.Equal(t, 0, decodeEnvelope(t, out).Meta.Count)
}

func TestAuditRequiresLog(t *testing.T) {
	out, _, err := runCLI(t, "--config", writeConfig(t), "--json", "audit")
	require.Error(t, err)
	env := decodeEnvelope(t, out)
	assert.Equal(t, ErrConfigInvalid, env.Error.Code)
	assert.Contains(t, env.Error.Message, "audit_log")

	_, _, err = runCLI(t, "--config", writeConfig(t), "audit", "--since", "yesterday")
	require.Error(t, err)
}

func TestParseSince(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"24h", now.Add(-24 * time.Hour)},
		{"90m", now.Add(-90 * time.Minute)},
		{"7d", now.AddDate(0, 0, -7)},
		{"2026-03-01T00:00:00Z", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSince(tt.in, now)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := parseSince("soon", now)
	assert.Error(t, err)
	_, err = parseSince("-2h", now)
	assert.Error(t, err)
}

func TestExtractGlobalFlags(t *testing.T) {
	cliMu.Lock()
	defer cliMu.Unlock()
	resetGlobals()
	defer resetGlobals()

	rest, err := extractGlobalFlags([]string{"list", "-s", "frost", "--first", "5", "--json", "--", "--store", "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"list", "--first", "5", "--", "--store", "x"}, rest)
	assert.Equal(t, "frost", storeName)
	assert.True(t, jsonOutput)

	_, err = extractGlobalFlags([]string{"list", "--store"})
	assert.Error(t, err)
}
