package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// LoadError represents an error that occurred while loading or validating a catalog file.
type LoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	prefix := "catalog"
	if e.Path != "" {
		prefix = fmt.Sprintf("catalog %s", e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

type file struct {
	Version string      `yaml:"version"`
	Steps   []EntrySpec `yaml:"steps"`
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the catalog bundled with the binary. It is parsed once.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Parse(defaultCatalog)
	})
	return defaultCat, defaultErr
}

// LoadFile reads and validates a catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to read file", Cause: err}
	}
	cat, err := Parse(data)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = path
		}
		return nil, err
	}
	return cat, nil
}

// Load returns the catalog at path, or the bundled default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// Parse decodes catalog YAML and validates every entry. Unknown fields, unknown
// predicates, tiers or categories and duplicate ids are all rejected here so that a
// loaded catalog can never fail during evaluation.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Message: "catalog is empty"}
		}
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}
	if len(f.Steps) == 0 {
		return nil, &LoadError{Message: "catalog has no steps"}
	}

	cat := &Catalog{
		version: f.Version,
		entries: make([]Entry, 0, len(f.Steps)),
		byID:    make(map[string]int, len(f.Steps)),
	}
	for i, spec := range f.Steps {
		entry, err := compileEntry(spec)
		if err != nil {
			return nil, &LoadError{Message: fmt.Sprintf("step %d (%q)", i, spec.ID), Cause: err}
		}
		if _, dup := cat.byID[entry.ID]; dup {
			return nil, &LoadError{Message: fmt.Sprintf("duplicate step id %q", entry.ID)}
		}
		cat.byID[entry.ID] = len(cat.entries)
		cat.entries = append(cat.entries, entry)
	}
	return cat, nil
}

func compileEntry(spec EntrySpec) (Entry, error) {
	spec.ID = strings.TrimSpace(spec.ID)
	spec.Title = strings.TrimSpace(spec.Title)
	spec.Description = strings.TrimSpace(spec.Description)

	if !idPattern.MatchString(spec.ID) {
		return Entry{}, fmt.Errorf("id must be lowercase letters, digits and hyphens")
	}
	if spec.Title == "" {
		return Entry{}, fmt.Errorf("title is required")
	}
	if !spec.Category.IsValid() {
		return Entry{}, fmt.Errorf("unknown category '%s'", spec.Category)
	}
	if !spec.Tier.IsValid() {
		return Entry{}, fmt.Errorf("unknown tier '%s'", spec.Tier)
	}
	if spec.Order < 0 {
		return Entry{}, fmt.Errorf("order must be non-negative")
	}
	if len(spec.When) == 0 {
		return Entry{}, fmt.Errorf("at least one condition is required (use 'always' for unconditional steps)")
	}

	predicates := make([]Predicate, 0, len(spec.When))
	for _, cond := range spec.When {
		p, err := compile(cond)
		if err != nil {
			return Entry{}, err
		}
		predicates = append(predicates, p)
	}
	return Entry{EntrySpec: spec, predicates: predicates}, nil
}
