package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// yamlFile mirrors the schema file format: top-level `tables` and
// `models` lists.
type yamlFile struct {
	Tables []yamlTable `yaml:"tables"`
	Models []yamlModel `yaml:"models"`
}

type yamlTable struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"` // "csv" | "duckdb_variable"
	Path string `yaml:"path"`
}

type yamlModel struct {
	Name    string        `yaml:"name"`
	Table   string        `yaml:"table"`
	Columns []yamlColumns `yaml:"columns"`
}

type yamlColumns struct {
	Name    string `yaml:"name"`
	Field   string `yaml:"field"`
	Type    string `yaml:"type"`
	Primary bool   `yaml:"primary"`
}

// LoadFile reads a schema YAML file and builds a Registry from it.
// Tables are registered before models, matching AddModel's requirement
// that its backing table already exist.
func LoadFile(path string) (*Registry, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(buf)
}

// Load builds a Registry from the raw bytes of a schema YAML document.
func Load(buf []byte) (*Registry, error) {
	var doc yamlFile
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("parsing schema file: %w", err)
	}

	r := NewRegistry()
	for _, t := range doc.Tables {
		switch t.Type {
		case "csv":
			if err := r.AddTableFromCSV(t.Name, t.Path); err != nil {
				return nil, err
			}
		case "duckdb_variable":
			if err := r.AddTableFromVariable(t.Name); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("table %q: unknown type %q (want csv or duckdb_variable)", t.Name, t.Type)
		}
	}

	for _, m := range doc.Models {
		cols := make([]Column, 0, len(m.Columns))
		for _, c := range m.Columns {
			cols = append(cols, Column{Name: c.Name, Field: c.Field, Type: c.Type, Primary: c.Primary})
		}
		if err := r.AddModel(m.Name, m.Table, cols); err != nil {
			return nil, err
		}
	}

	return r, nil
}
