package schema

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed admin.yaml
var defaultFieldTable []byte

// Default returns the model built from the field table bundled with the
// binary. It covers the types used by the built-in command catalog.
func Default() (*Model, error) {
	m, err := LoadFieldTable(defaultFieldTable)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bundled schema: %w", err)
	}
	return m, nil
}

// Load loads a schema artifact from disk. Files ending in .json are read as
// an introspection result; .yaml and .yml files as a field table.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	var m *Model
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		m, err = LoadIntrospection(data)
	case ".yaml", ".yml":
		m, err = LoadFieldTable(data)
	default:
		return nil, fmt.Errorf("unsupported schema file %s: expected .json or .yaml", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}
	return m, nil
}

// LoadFieldTable builds a model from a YAML field table.
func LoadFieldTable(data []byte) (*Model, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	if err := def.validate(); err != nil {
		return nil, err
	}
	return New(def), nil
}

func (d Definition) validate() error {
	seen := make(map[string]string)
	check := func(name, kind string) error {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%s type with empty name", kind)
		}
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("type '%s' declared as both %s and %s", name, prev, kind)
		}
		seen[name] = kind
		return nil
	}
	for _, t := range d.Inputs {
		if err := check(t.Name, "input"); err != nil {
			return err
		}
	}
	for _, t := range d.Enums {
		if err := check(t.Name, "enum"); err != nil {
			return err
		}
	}
	for _, t := range d.Objects {
		if err := check(t.Name, "object"); err != nil {
			return err
		}
	}
	for root := range d.Operations {
		if root != RootQuery && root != RootMutation {
			return fmt.Errorf("unknown operation root '%s'", root)
		}
	}
	return nil
}
