// Package lookup holds the immutable mapping tables used by the catalog
// transform: content rating → target age bucket, and country name →
// ISO code → continent.
package lookup

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/catalogdash/validation"
)

//go:embed tables.yaml
var defaultTables []byte

// ErrInvalidTables is wrapped by every parse or validation failure.
var ErrInvalidTables = errors.New("lookup: invalid tables")

// The four target age buckets, youngest first.
const (
	Kids      = "Kids"
	OlderKids = "Older Kids"
	Teens     = "Teens"
	Adults    = "Adults"
)

var buckets = []string{Kids, OlderKids, Teens, Adults}

// Country is one row of the country table.
type Country struct {
	Name      string   `yaml:"name" validate:"required"`
	Alpha2    string   `yaml:"alpha2" validate:"required,len=2,alpha,uppercase"`
	Alpha3    string   `yaml:"alpha3" validate:"required,len=3,alpha,uppercase"`
	Continent string   `yaml:"continent" validate:"required,len=2,alpha,uppercase"`
	Aliases   []string `yaml:"aliases,omitempty"`
}

type document struct {
	Ratings    map[string]string `yaml:"ratings" validate:"required"`
	Continents map[string]string `yaml:"continents" validate:"required"`
	Countries  []Country         `yaml:"countries" validate:"required,dive"`
}

// Tables is safe for concurrent use; nothing mutates it after Parse.
type Tables struct {
	ratings    map[string]string
	continents map[string]string
	countries  []Country

	byName  map[string]int // folded name or alias → countries index
	byCode  map[string]int // folded alpha-2 or alpha-3 → countries index
	byAlpha map[string]int // alpha-2 → countries index
}

var loadDefault = sync.OnceValues(func() (*Tables, error) {
	return Parse(defaultTables)
})

// Default returns the embedded tables.
func Default() (*Tables, error) {
	return loadDefault()
}

// Load reads tables from a YAML file.
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lookup: read %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a YAML tables document.
func Parse(data []byte) (*Tables, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTables, err)
	}
	if err := validation.New().Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTables, err)
	}

	t := &Tables{
		ratings:    make(map[string]string, len(doc.Ratings)),
		continents: make(map[string]string, len(doc.Continents)),
		countries:  doc.Countries,
		byName:     make(map[string]int, len(doc.Countries)*2),
		byCode:     make(map[string]int, len(doc.Countries)*2),
		byAlpha:    make(map[string]int, len(doc.Countries)),
	}

	for code, bucket := range doc.Ratings {
		if !isBucket(bucket) {
			return nil, fmt.Errorf("%w: rating %q maps to unknown bucket %q", ErrInvalidTables, code, bucket)
		}
		t.ratings[strings.TrimSpace(code)] = bucket
	}
	for code, name := range doc.Continents {
		t.continents[strings.ToUpper(strings.TrimSpace(code))] = name
	}

	for i, c := range doc.Countries {
		if _, ok := t.continents[c.Continent]; !ok {
			return nil, fmt.Errorf("%w: country %q has unknown continent %q", ErrInvalidTables, c.Name, c.Continent)
		}
		if _, dup := t.byAlpha[c.Alpha2]; dup {
			return nil, fmt.Errorf("%w: duplicate alpha-2 code %q", ErrInvalidTables, c.Alpha2)
		}
		t.byAlpha[c.Alpha2] = i
		t.byCode[Fold(c.Alpha2)] = i
		t.byCode[Fold(c.Alpha3)] = i

		for _, name := range append([]string{c.Name}, c.Aliases...) {
			key := Fold(name)
			if key == "" {
				return nil, fmt.Errorf("%w: country %q has an empty alias", ErrInvalidTables, c.Name)
			}
			if prev, dup := t.byName[key]; dup && prev != i {
				return nil, fmt.Errorf("%w: %q names both %q and %q",
					ErrInvalidTables, name, doc.Countries[prev].Name, c.Name)
			}
			t.byName[key] = i
		}
	}

	return t, nil
}

// Fold normalises s for lookups: trimmed, inner whitespace collapsed, NFC,
// Unicode case-folded.
func Fold(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return cases.Fold().String(norm.NFC.String(s))
}

func isBucket(s string) bool {
	for _, b := range buckets {
		if s == b {
			return true
		}
	}
	return false
}

// ============================================================================
// ACCESSORS
// ============================================================================

// AgeBucket maps a rating code to its target age bucket.
func (t *Tables) AgeBucket(rating string) (string, bool) {
	b, ok := t.ratings[strings.TrimSpace(rating)]
	return b, ok
}

// ValidCountry reports whether s names exactly one known country by name,
// alias, alpha-2 or alpha-3 code. Lists such as "France, Belgium" are not valid.
func (t *Tables) ValidCountry(s string) bool {
	key := Fold(s)
	if key == "" {
		return false
	}
	if _, ok := t.byName[key]; ok {
		return true
	}
	_, ok := t.byCode[key]
	return ok
}

// CountryCode resolves a country name or alias to its alpha-2 code.
func (t *Tables) CountryCode(name string) (string, bool) {
	i, ok := t.byName[Fold(name)]
	if !ok {
		return "", false
	}
	return t.countries[i].Alpha2, true
}

// ContinentCode maps an alpha-2 country code to its continent code.
func (t *Tables) ContinentCode(alpha2 string) (string, bool) {
	i, ok := t.byAlpha[strings.ToUpper(strings.TrimSpace(alpha2))]
	if !ok {
		return "", false
	}
	return t.countries[i].Continent, true
}

// ContinentName maps a continent code to its display name.
func (t *Tables) ContinentName(code string) (string, bool) {
	name, ok := t.continents[strings.ToUpper(strings.TrimSpace(code))]
	return name, ok
}

// Buckets returns the age buckets, youngest first.
func (t *Tables) Buckets() []string {
	return append([]string(nil), buckets...)
}

// Ratings returns a copy of the rating → bucket table.
func (t *Tables) Ratings() map[string]string {
	out := make(map[string]string, len(t.ratings))
	for k, v := range t.ratings {
		out[k] = v
	}
	return out
}

// Countries returns a copy of the country table in file order.
func (t *Tables) Countries() []Country {
	return append([]Country(nil), t.countries...)
}
