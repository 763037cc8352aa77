package config

import (
	"path/filepath"
	"testing"
)

func TestResolveStatePath(t *testing.T) {
	configPath := "/tmp/shopctl/config.toml"

	t.Run("config state_file absolute", func(t *testing.T) {
		got := ResolveStatePath(configPath, &Config{StateFile: "/var/tmp/shopctl-state.toml"})
		if got != "/var/tmp/shopctl-state.toml" {
			t.Fatalf("expected absolute state path, got %q", got)
		}
	})

	t.Run("config state_file relative to config dir", func(t *testing.T) {
		got := ResolveStatePath(configPath, &Config{StateFile: "runtime/state.toml"})
		want := "/tmp/shopctl/runtime/state.toml"
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	})

	t.Run("fallback sibling state.toml", func(t *testing.T) {
		got := ResolveStatePath(configPath, &Config{})
		want := "/tmp/shopctl/state.toml"
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	})
}

func TestResolveAuditPath(t *testing.T) {
	configPath := "/tmp/shopctl/config.toml"

	if got := ResolveAuditPath(configPath, &Config{}); got != "" {
		t.Fatalf("expected no audit path, got %q", got)
	}
	if got := ResolveAuditPath(configPath, nil); got != "" {
		t.Fatalf("expected no audit path for nil config, got %q", got)
	}
	if got, want := ResolveAuditPath(configPath, &Config{AuditLog: "audit.log"}), "/tmp/shopctl/audit.log"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got, want := ResolveAuditPath(configPath, &Config{AuditLog: "/var/log/shopctl.log"}), "/var/log/shopctl.log"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestLoadStateMissingReturnsDefault(t *testing.T) {
	state, err := LoadState(filepath.Join(t.TempDir(), "state.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Version != StateVersion || state.NextPage != "" {
		t.Errorf("got %+v", state)
	}
}

func TestSaveAndLoadState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "state.toml")

	next := `shopctl products list --first 50 --after "abc"`
	if err := SaveState(path, &State{NextPage: next + "\n"}); err != nil {
		t.Fatalf("SaveState returned error: %v", err)
	}

	state, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState returned error: %v", err)
	}
	if state.NextPage != next || state.Version != StateVersion {
		t.Errorf("got %+v", state)
	}
}
