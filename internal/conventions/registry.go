// Package conventions holds the domain-specific SQL rules injected into
// text-to-SQL prompts: table aliases, join defaults, and the percentage
// query template. The rules live in an embedded YAML file so the prompt
// wording is reviewable without touching code.
package conventions

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed clinical.yaml
var conventionFiles embed.FS

// TableConvention maps a clinical table to its mandatory prompt alias.
type TableConvention struct {
	Name  string `yaml:"name"`
	Alias string `yaml:"alias"`
	Role  string `yaml:"role"`
}

type conventionFile struct {
	Tables []TableConvention `yaml:"tables"`
	Rules  []string          `yaml:"rules"`
}

// Registry exposes the loaded convention set.
type Registry struct {
	tables []TableConvention
	rules  []string
}

// NewRegistry loads the embedded convention file.
func NewRegistry() (*Registry, error) {
	data, err := conventionFiles.ReadFile("clinical.yaml")
	if err != nil {
		return nil, fmt.Errorf("read clinical.yaml: %w", err)
	}

	var f conventionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal clinical.yaml: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("clinical.yaml defines no querying rules")
	}

	return &Registry{tables: f.Tables, rules: f.Rules}, nil
}

// Tables returns the table conventions in file order.
func (r *Registry) Tables() []TableConvention {
	return r.tables
}

// Alias returns the mandatory alias for a table name, if one is defined.
func (r *Registry) Alias(table string) (string, bool) {
	for _, t := range r.tables {
		if strings.EqualFold(t.Name, table) {
			return t.Alias, true
		}
	}
	return "", false
}

// RulesBlock renders the querying rules as the prompt section consumed by
// the query synthesizer.
func (r *Registry) RulesBlock() string {
	var b strings.Builder
	b.WriteString("Important Querying Rules:\n")
	for _, rule := range r.rules {
		b.WriteString("- ")
		b.WriteString(rule)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
