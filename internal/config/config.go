// Package config handles global shopctl configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvConfig overrides the config file location.
const EnvConfig = "SHOPCTL_CONFIG"

// DefaultAPIVersion is used when a store does not pin one.
const DefaultAPIVersion = "2025-01"

// DefaultTokenEnv is the environment variable holding the access token of
// stores that do not name their own.
const DefaultTokenEnv = "SHOPIFY_ACCESS_TOKEN"

// Config represents the global shopctl configuration.
type Config struct {
	// DefaultStore is the name of the store used without --store.
	DefaultStore string `toml:"default_store" json:"default_store,omitempty"`

	// Stores maps store names to their connection settings.
	Stores map[string]Store `toml:"stores" json:"stores,omitempty"`

	// SchemaPath points to a field table (.yaml) or an introspection
	// result (.json) replacing the built-in schema model.
	SchemaPath string `toml:"schema_path" json:"schema_path,omitempty"`

	// StateFile overrides where paging state is kept.
	StateFile string `toml:"state_file" json:"state_file,omitempty"`

	// AuditLog, when set, is the file every sent mutation is appended to.
	// Relative paths are resolved against the config directory.
	AuditLog string `toml:"audit_log" json:"audit_log,omitempty"`

	Output OutputConfig `toml:"output" json:"output,omitempty"`
	UI     UIConfig     `toml:"ui" json:"ui,omitempty"`
}

// Store is one shop the CLI can talk to.
type Store struct {
	// Domain is the shop's myshopify domain, e.g. "frost-mugs.myshopify.com".
	Domain string `toml:"domain" json:"domain,omitempty"`

	// TokenEnv names the environment variable holding the access token.
	TokenEnv string `toml:"token_env" json:"token_env,omitempty"`

	APIVersion string `toml:"api_version" json:"api_version,omitempty"`
}

// OutputConfig holds per-invocation defaults.
type OutputConfig struct {
	// View is the default selection view (ids, summary, full, ...).
	View string `toml:"view" json:"view,omitempty"`

	// Format is the default output format. Empty picks table on a
	// terminal and JSON otherwise.
	Format string `toml:"format" json:"format,omitempty"`

	// PageSize is the default --first of list verbs.
	PageSize int `toml:"page_size" json:"page_size,omitempty"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown rendering.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent" json:"accent,omitempty"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered markdown code blocks.
	CodeTheme string `toml:"code_theme" json:"code_theme,omitempty"`
}

// ErrNoStore is returned when no store is named and no default is set.
var ErrNoStore = errors.New("no store configured")

// GetStore returns the named store, or the default store when name is
// empty. The returned store has its token variable and API version filled
// in.
func (c *Config) GetStore(name string) (string, Store, error) {
	if name == "" {
		name = c.DefaultStore
	}
	if name == "" && len(c.Stores) == 1 {
		for only := range c.Stores {
			name = only
		}
	}
	if name == "" {
		return "", Store{}, ErrNoStore
	}

	store, ok := c.Stores[name]
	if !ok {
		// A bare domain works without a config entry.
		if strings.Contains(name, ".") {
			return name, Store{Domain: name}.withDefaults(), nil
		}
		return "", Store{}, fmt.Errorf("store '%s' not found in config", name)
	}
	if store.Domain == "" {
		return "", Store{}, fmt.Errorf("store '%s' has no domain", name)
	}
	return name, store.withDefaults(), nil
}

func (s Store) withDefaults() Store {
	if s.TokenEnv == "" {
		s.TokenEnv = DefaultTokenEnv
	}
	if s.APIVersion == "" {
		s.APIVersion = DefaultAPIVersion
	}
	return s
}

// Token reads the store's access token from the environment.
func (s Store) Token() string {
	return strings.TrimSpace(os.Getenv(s.TokenEnv))
}

// Endpoint returns the Admin GraphQL URL of the store.
func (s Store) Endpoint() string {
	domain := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(s.Domain, "https://"), "http://"), "/")
	return "https://" + domain + "/admin/api/" + s.APIVersion + "/graphql.json"
}

// StoreNames returns the configured store names, sorted.
func (c *Config) StoreNames() []string {
	names := make([]string, 0, len(c.Stores))
	for name := range c.Stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	return LoadOptional(DefaultPath())
}

// LoadOptional loads path, returning a default config if it doesn't exist.
func LoadOptional(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}

// LoadDotEnv loads .env files into the environment. Variables that are
// already set win. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load %s: %w", strings.Join(existing, ", "), err)
	}
	return nil
}

// DefaultPath returns the default config file path.
// $SHOPCTL_CONFIG wins, then ~/.config/shopctl/config.toml (XDG style),
// then the OS-specific config directory.
func DefaultPath() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfig)); p != "" {
		return p
	}

	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "shopctl", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "shopctl", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

// ResolveConfigPath resolves the effective config path from an optional override.
func ResolveConfigPath(explicitConfigPath string) string {
	if strings.TrimSpace(explicitConfigPath) != "" {
		return explicitConfigPath
	}
	return DefaultPath()
}

const defaultConfig = `# shopctl configuration

# Store used when --store is not given
# default_store = "frost"

# [stores.frost]
# domain = "frost-mugs.myshopify.com"
# token_env = "FROST_ADMIN_TOKEN"   # defaults to SHOPIFY_ACCESS_TOKEN
# api_version = "2025-01"

# Field table (.yaml) or introspection result (.json) for a different API
# version than the built-in model.
# schema_path = "/path/to/schema.json"

# Append every mutation sent to a JSON lines file.
# audit_log = "audit.log"

# [output]
# view = "summary"      # ids, summary, full, all, raw, passthrough
# format = "table"      # json, table, ids; empty picks table on a terminal
# page_size = 25

# [ui]
# accent = "39"
# code_theme = "monokai"
`

// CreateDefault creates a commented default config file at path if it
// doesn't exist. It reports whether a file was written.
func CreateDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := writeAtomic(path, []byte(defaultConfig)); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}
