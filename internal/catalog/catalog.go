// Package catalog holds the curriculum metadata that lesson generation
// draws on: the title of each (level, day) slot and optional blueprints
// that pin down what a given lesson must cover.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/langlyai/langly/internal/content"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// TitleFinder resolves the curriculum title for a lesson slot.
type TitleFinder interface {
	FindTitle(level content.Level, day int) (string, bool)
}

// BlueprintFinder resolves the blueprint attached to a lesson title.
type BlueprintFinder interface {
	FindBlueprint(title string) (*Blueprint, bool)
}

// Entry is one curriculum slot.
type Entry struct {
	Level content.Level `yaml:"level"`
	Day   int           `yaml:"day"`
	Title string        `yaml:"title"`
}

// Blueprint is a set of extra generation rules for one lesson. The rules
// are added to the base prompt, never substituted for it.
type Blueprint struct {
	GrammarFocus []string `yaml:"grammarFocus" json:"grammarFocus"`
	VocabTheme   []string `yaml:"vocabTheme" json:"vocabTheme"`
	Constraints  []string `yaml:"constraints" json:"constraints"`
}

type catalogFile struct {
	Lessons    []Entry              `yaml:"lessons"`
	Blueprints map[string]Blueprint `yaml:"blueprints"`
}

type slot struct {
	level content.Level
	day   int
}

// Catalog is an immutable in-memory index over curriculum entries and
// blueprints. It satisfies both TitleFinder and BlueprintFinder.
type Catalog struct {
	entries    []Entry
	titles     map[slot]string
	blueprints map[string]Blueprint
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Parse(defaultCatalog)
	})
	return defaultCat, defaultErr
}

// LoadFile reads a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes and checks a catalog document. Every entry needs a known
// level, a positive day and a title, and no slot may appear twice.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	cat := &Catalog{
		titles:     make(map[slot]string, len(f.Lessons)),
		blueprints: make(map[string]Blueprint, len(f.Blueprints)),
	}

	var errs []error
	for i, e := range f.Lessons {
		level, err := content.ParseLevel(string(e.Level))
		if err != nil {
			errs = append(errs, fmt.Errorf("lessons[%d]: %w", i, err))
			continue
		}
		e.Level = level
		e.Title = strings.TrimSpace(e.Title)
		if e.Day <= 0 {
			errs = append(errs, fmt.Errorf("lessons[%d]: day must be positive, got %d", i, e.Day))
			continue
		}
		if e.Title == "" {
			errs = append(errs, fmt.Errorf("lessons[%d]: title is empty", i))
			continue
		}
		k := slot{e.Level, e.Day}
		if _, dup := cat.titles[k]; dup {
			errs = append(errs, fmt.Errorf("lessons[%d]: duplicate slot %s day %d", i, e.Level, e.Day))
			continue
		}
		cat.titles[k] = e.Title
		cat.entries = append(cat.entries, e)
	}
	for title, bp := range f.Blueprints {
		if strings.TrimSpace(title) == "" {
			errs = append(errs, errors.New("blueprint with empty title"))
			continue
		}
		cat.blueprints[title] = bp
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.Slice(cat.entries, func(i, j int) bool {
		if cat.entries[i].Level != cat.entries[j].Level {
			return cat.entries[i].Level < cat.entries[j].Level
		}
		return cat.entries[i].Day < cat.entries[j].Day
	})
	return cat, nil
}

// FindTitle returns the curriculum title for (level, day).
func (c *Catalog) FindTitle(level content.Level, day int) (string, bool) {
	t, ok := c.titles[slot{level, day}]
	return t, ok
}

// FindBlueprint returns the blueprint for an exact lesson title.
func (c *Catalog) FindBlueprint(title string) (*Blueprint, bool) {
	bp, ok := c.blueprints[title]
	if !ok {
		return nil, false
	}
	return &bp, true
}

// Entries returns all slots ordered by level then day. When level is
// non-empty only that level is returned.
func (c *Catalog) Entries(level content.Level) []Entry {
	var out []Entry
	for _, e := range c.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
