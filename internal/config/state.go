package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// StateVersion is the current state file schema version.
	StateVersion = 1
)

// State is machine-local runtime state kept next to the config file.
type State struct {
	Version int `toml:"version"`

	// NextPage is the command that fetches the page after the last one
	// printed, or empty when that listing was exhausted.
	NextPage string `toml:"next_page,omitempty"`
}

// ResolveStatePath resolves the state.toml path with precedence:
//  1. cfg.StateFile from config.toml (relative to config file dir when not absolute)
//  2. sibling state.toml next to config.toml
func ResolveStatePath(configPath string, cfg *Config) string {
	configDir := filepath.Dir(ResolveConfigPath(configPath))

	if cfg != nil {
		if fromConfig := strings.TrimSpace(cfg.StateFile); fromConfig != "" {
			if isAbsoluteStatePath(fromConfig) {
				return filepath.Clean(filepath.FromSlash(fromConfig))
			}
			return filepath.Join(configDir, filepath.FromSlash(fromConfig))
		}
	}

	return filepath.Join(configDir, "state.toml")
}

// ResolveAuditPath resolves cfg.AuditLog like state_file. It returns ""
// when no audit log is configured.
func ResolveAuditPath(configPath string, cfg *Config) string {
	if cfg == nil {
		return ""
	}
	p := strings.TrimSpace(cfg.AuditLog)
	if p == "" {
		return ""
	}
	if isAbsoluteStatePath(p) {
		return filepath.Clean(filepath.FromSlash(p))
	}
	return filepath.Join(filepath.Dir(ResolveConfigPath(configPath)), filepath.FromSlash(p))
}

func isAbsoluteStatePath(p string) bool {
	if filepath.IsAbs(p) {
		return true
	}
	// Treat slash-rooted config values as absolute on every OS.
	return strings.HasPrefix(filepath.ToSlash(strings.TrimSpace(p)), "/")
}

// LoadState loads state.toml from a specific path.
// Returns a default state when the file does not exist.
func LoadState(path string) (*State, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("state path is required")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &State{Version: StateVersion}, nil
	}

	var state State
	if _, err := toml.DecodeFile(path, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state %s: %w", path, err)
	}

	if state.Version == 0 {
		state.Version = StateVersion
	}
	state.NextPage = strings.TrimSpace(state.NextPage)

	return &state, nil
}

// SaveState writes state.toml atomically.
func SaveState(path string, state *State) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("state path is required")
	}
	if state == nil {
		state = &State{}
	}

	normalized := *state
	if normalized.Version == 0 {
		normalized.Version = StateVersion
	}
	normalized.NextPage = strings.TrimSpace(normalized.NextPage)

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(normalized); err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write state %s: %w", path, err)
	}

	return nil
}
