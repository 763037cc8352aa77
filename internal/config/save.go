package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/shopctl/internal/atomicfile"
)

type persistedConfig struct {
	DefaultStore *string                   `toml:"default_store,omitempty"`
	SchemaPath   *string                   `toml:"schema_path,omitempty"`
	StateFile    *string                   `toml:"state_file,omitempty"`
	AuditLog     *string                   `toml:"audit_log,omitempty"`
	Stores       map[string]persistedStore `toml:"stores,omitempty"`
	Output       *persistedOutput          `toml:"output,omitempty"`
	UI           *persistedUISettings      `toml:"ui,omitempty"`
}

type persistedStore struct {
	Domain     string  `toml:"domain"`
	TokenEnv   *string `toml:"token_env,omitempty"`
	APIVersion *string `toml:"api_version,omitempty"`
}

type persistedOutput struct {
	View     *string `toml:"view,omitempty"`
	Format   *string `toml:"format,omitempty"`
	PageSize *int    `toml:"page_size,omitempty"`
}

type persistedUISettings struct {
	Accent    *string `toml:"accent,omitempty"`
	CodeTheme *string `toml:"code_theme,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// SaveTo writes the config to path atomically. Empty settings are omitted.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	out := persistedConfig{
		DefaultStore: nonEmptyPtr(cfg.DefaultStore),
		SchemaPath:   nonEmptyPtr(cfg.SchemaPath),
		StateFile:    nonEmptyPtr(cfg.StateFile),
		AuditLog:     nonEmptyPtr(cfg.AuditLog),
	}
	if len(cfg.Stores) > 0 {
		out.Stores = make(map[string]persistedStore, len(cfg.Stores))
		for name, s := range cfg.Stores {
			out.Stores[name] = persistedStore{
				Domain:     s.Domain,
				TokenEnv:   nonEmptyPtr(s.TokenEnv),
				APIVersion: nonEmptyPtr(s.APIVersion),
			}
		}
	}

	view := nonEmptyPtr(cfg.Output.View)
	format := nonEmptyPtr(cfg.Output.Format)
	if view != nil || format != nil || cfg.Output.PageSize > 0 {
		out.Output = &persistedOutput{View: view, Format: format}
		if cfg.Output.PageSize > 0 {
			size := cfg.Output.PageSize
			out.Output.PageSize = &size
		}
	}

	accent := nonEmptyPtr(cfg.UI.Accent)
	codeTheme := nonEmptyPtr(cfg.UI.CodeTheme)
	if accent != nil || codeTheme != nil {
		out.UI = &persistedUISettings{
			Accent:    accent,
			CodeTheme: codeTheme,
		}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return atomicfile.WriteFile(path, data, 0o644)
}
