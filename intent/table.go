// Package intent scores chat messages against the static category table and
// selects the downstream action category. Scoring is pure: the same message,
// grammar signal and session context always produce the same result.
package intent

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Lumora-Labs/lumora-go-router/models"
)

//go:embed categories.yaml
var categoriesYAML []byte

// Category is one scoring target from the table. Priority is the fixed
// tie-breaking weight; only per-message confidence varies at runtime.
type Category struct {
	Name             models.Category `yaml:"name"`
	Priority         int             `yaml:"priority"`
	RequiresContext  bool            `yaml:"requires_context"`
	Keywords         []string        `yaml:"keywords"`
	NegativePatterns []string        `yaml:"negative_patterns"`
}

// Table is the full category configuration, versioned constant data.
type Table struct {
	Version    int        `yaml:"version"`
	Categories []Category `yaml:"categories"`
}

// ParseTable decodes and validates a category table.
func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse category table: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Table) validate() error {
	if len(t.Categories) == 0 {
		return fmt.Errorf("category table: no categories")
	}
	seen := make(map[models.Category]bool, len(t.Categories))
	for _, c := range t.Categories {
		if c.Name == "" {
			return fmt.Errorf("category table: unnamed category")
		}
		if seen[c.Name] {
			return fmt.Errorf("category table: duplicate category %q", c.Name)
		}
		seen[c.Name] = true
		if c.Priority <= 0 {
			return fmt.Errorf("category %q: priority must be positive", c.Name)
		}
		if len(c.Keywords) == 0 {
			return fmt.Errorf("category %q: no keywords", c.Name)
		}
	}
	return nil
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// DefaultTable returns the embedded category table, parsed once.
func DefaultTable() *Table {
	defaultOnce.Do(func() {
		t, err := ParseTable(categoriesYAML)
		if err != nil {
			panic(fmt.Sprintf("intent: embedded categories.yaml is invalid: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}
