package curriculum

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/lingua/internal/apperr"
	"github.com/abhisek/lingua/internal/placement"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the static fallback curriculum, keyed by language and level.
// It is immutable after loading; lookups return deep copies.
type Catalog struct {
	version string
	entries map[string]map[placement.Level][]Module
}

type catalogFile struct {
	Version   string                             `yaml:"version"`
	Languages map[string]map[string]planDocument `yaml:"languages"`
}

// DefaultCatalog loads the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog from path, or the embedded one when path is
// empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read catalog: %v", apperr.ErrConfiguration, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog. Every entry must pass
// the structural and ordering validators.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: parse catalog: %v", apperr.ErrConfiguration, err)
	}

	v := f.Version
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return nil, fmt.Errorf("%w: catalog version %q is not semver", apperr.ErrConfiguration, f.Version)
	}

	chain := []Validator{&StructuralValidator{MaxModules: 64}, &OrderingValidator{}}
	c := &Catalog{version: semver.Canonical(v), entries: make(map[string]map[placement.Level][]Module)}
	for lang, levels := range f.Languages {
		key := normalizeLanguage(lang)
		if key == "" {
			return nil, fmt.Errorf("%w: catalog has an empty language key", apperr.ErrConfiguration)
		}
		byLevel := make(map[placement.Level][]Module, len(levels))
		for name, doc := range levels {
			level, err := placement.ParseLevel(name)
			if err != nil {
				return nil, fmt.Errorf("%w: catalog %s: %v", apperr.ErrConfiguration, lang, err)
			}
			cand := &Candidate{doc: &doc}
			for _, val := range chain {
				if verr := val.Validate(cand); verr != nil {
					return nil, fmt.Errorf("%w: catalog %s/%s: %v", apperr.ErrConfiguration, lang, level, verr)
				}
			}
			byLevel[level] = doc.modules()
		}
		if len(byLevel) == 0 {
			return nil, fmt.Errorf("%w: catalog language %s has no levels", apperr.ErrConfiguration, lang)
		}
		c.entries[key] = byLevel
	}
	return c, nil
}

// Version is the catalog's canonical semver, e.g. "v1.2.0".
func (c *Catalog) Version() string { return c.version }

// Languages lists configured languages in sorted order.
func (c *Catalog) Languages() []string {
	out := make([]string, 0, len(c.entries))
	for lang := range c.entries {
		out = append(out, lang)
	}
	slices.Sort(out)
	return out
}

// Levels lists the levels configured for language, lowest first.
func (c *Catalog) Levels(language string) []placement.Level {
	byLevel := c.entries[normalizeLanguage(language)]
	var out []placement.Level
	for _, l := range placement.Levels {
		if _, ok := byLevel[l]; ok {
			out = append(out, l)
		}
	}
	return out
}

// Supports reports whether language has any catalog entry.
func (c *Catalog) Supports(language string) bool {
	return len(c.entries[normalizeLanguage(language)]) > 0
}

// Lookup returns the modules for (language, level). Without an exact entry
// it uses the nearest lower configured level, then the nearest higher one.
// The returned level is the one actually used.
func (c *Catalog) Lookup(language string, level placement.Level) ([]Module, placement.Level, error) {
	byLevel, ok := c.entries[normalizeLanguage(language)]
	if !ok || len(byLevel) == 0 {
		return nil, "", fmt.Errorf("%w: %q", ErrNoFallbackAvailable, language)
	}
	rank := level.Rank()
	if rank < 0 {
		return nil, "", fmt.Errorf("%w: %q", placement.ErrUnknownLevel, level)
	}
	for r := rank; r >= 0; r-- {
		if mods, ok := byLevel[placement.Levels[r]]; ok {
			return cloneModules(mods), placement.Levels[r], nil
		}
	}
	for r := rank + 1; r < len(placement.Levels); r++ {
		if mods, ok := byLevel[placement.Levels[r]]; ok {
			return cloneModules(mods), placement.Levels[r], nil
		}
	}
	return nil, "", fmt.Errorf("%w: %q", ErrNoFallbackAvailable, language)
}

func normalizeLanguage(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
