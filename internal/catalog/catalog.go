// Package catalog defines the static Next-Best-Step catalog: entries, their eligibility
// conditions, and the loader for the YAML catalog file.
package catalog

import (
	"github.com/jonathan/crna-guide/internal/types"
)

// ConditionSpec is one eligibility condition as written in the catalog file.
// Which parameters apply depends on the predicate.
type ConditionSpec struct {
	Predicate string   `yaml:"predicate" json:"predicate"`
	Name      string   `yaml:"name,omitempty" json:"name,omitempty"`
	Names     []string `yaml:"names,omitempty" json:"names,omitempty"`
	Value     float64  `yaml:"value,omitempty" json:"value,omitempty"`
	Stages    []string `yaml:"stages,omitempty" json:"stages,omitempty"`
}

// EntrySpec is one catalog entry as written in the catalog file.
type EntrySpec struct {
	ID          string          `yaml:"id" json:"id"`
	Title       string          `yaml:"title" json:"title"`
	Description string          `yaml:"description" json:"description"`
	Category    types.Category  `yaml:"category" json:"category"`
	Tier        types.Tier      `yaml:"tier" json:"tier"`
	Order       int             `yaml:"order" json:"order"`
	When        []ConditionSpec `yaml:"when" json:"when"`
}

// Entry is a validated catalog entry with its conditions compiled to predicates.
type Entry struct {
	EntrySpec
	predicates []Predicate
}

// Eligible reports whether every condition of the entry holds for the facts.
func (e Entry) Eligible(f Facts) bool {
	for _, p := range e.predicates {
		if !p(f) {
			return false
		}
	}
	return true
}

// Step converts the entry to its output shape with the given 1-based rank.
func (e Entry) Step(rank int) types.NextBestStep {
	return types.NextBestStep{
		ID:          e.ID,
		Rank:        rank,
		Title:       e.Title,
		Description: e.Description,
		Category:    e.Category,
		Tier:        e.Tier,
		Order:       e.Order,
	}
}

// Catalog is an immutable, validated set of entries. It is safe for concurrent use.
type Catalog struct {
	version string
	entries []Entry
	byID    map[string]int
}

// Version returns the catalog file's declared version.
func (c *Catalog) Version() string {
	return c.version
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the entries in file order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup returns the entry with the given id.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Specs returns the entries as written in the file, for listing and export.
func (c *Catalog) Specs() []EntrySpec {
	out := make([]EntrySpec, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.EntrySpec)
	}
	return out
}
