package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/catalogdash/helpers"
	"github.com/spektr-org/catalogdash/lookup"
)

// ErrBadDate is wrapped when a non-empty date_added cannot be parsed.
var ErrBadDate = errors.New("catalog: unparseable date_added")

// dateLayouts are tried in order. The first is the catalog's native format.
var dateLayouts = []string{
	"January 2, 2006",
	"2006-01-02",
	"Jan 2, 2006",
	"2 January 2006",
	"01/02/2006",
	time.RFC3339,
}

// Raw is one input row before transformation. Line is the 1-based line
// number in the source file, header included.
type Raw struct {
	Line        int
	Type        string
	Title       string
	Director    string
	Country     string
	Rating      string
	Duration    string
	ReleaseYear string
	DateAdded   string
	ListedIn    string
}

// Diagnostics counts what the transform absorbed instead of failing.
type Diagnostics struct {
	Rows                  int            `json:"rows"`
	Kept                  int            `json:"kept"`
	DroppedInvalidCountry int            `json:"droppedInvalidCountry"`
	DroppedUnresolved     int            `json:"droppedUnresolved"`
	MissingDateAdded      int            `json:"missingDateAdded"`
	MissingRating         int            `json:"missingRating"`
	UnmappedRatings       map[string]int `json:"unmappedRatings"`
}

// UnmappedRatingCodes returns the unmapped codes, sorted.
func (d Diagnostics) UnmappedRatingCodes() []string {
	codes := make([]string, 0, len(d.UnmappedRatings))
	for c := range d.UnmappedRatings {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

func (d Diagnostics) clone() Diagnostics {
	out := d
	out.UnmappedRatings = make(map[string]int, len(d.UnmappedRatings))
	for k, v := range d.UnmappedRatings {
		out.UnmappedRatings[k] = v
	}
	return out
}

// Transform applies the fixed derivation sequence to raw rows:
//
//  1. parse date_added and release_year (fatal on bad values)
//  2. month and year added
//  3. target age bucket from the rating code (unmapped codes pass through)
//  4. drop rows whose country is not valid, then resolve
//     country → alpha-2 → continent code → continent name, dropping rows
//     that fail any step
//
// The input is not modified.
func Transform(rows []Raw, tables *lookup.Tables) ([]Title, Diagnostics, error) {
	diag := Diagnostics{
		Rows:            len(rows),
		UnmappedRatings: make(map[string]int),
	}

	titles := make([]Title, 0, len(rows))
	for _, r := range rows {
		t, err := parseRow(r)
		if err != nil {
			return nil, Diagnostics{}, err
		}
		if !t.HasDateAdded() {
			diag.MissingDateAdded++
		}

		t.TargetAges = t.Rating
		if bucket, ok := tables.AgeBucket(t.Rating); ok {
			t.TargetAges = bucket
		} else if t.Rating == "" {
			diag.MissingRating++
		} else {
			diag.UnmappedRatings[t.Rating]++
		}

		titles = append(titles, t)
	}

	kept := titles[:0]
	for _, t := range titles {
		if !tables.ValidCountry(t.Country) {
			diag.DroppedInvalidCountry++
			continue
		}
		if !resolveContinent(&t, tables) {
			diag.DroppedUnresolved++
			continue
		}
		kept = append(kept, t)
	}
	diag.Kept = len(kept)

	return kept, diag, nil
}

func parseRow(r Raw) (Title, error) {
	t := Title{
		Type:     strings.TrimSpace(r.Type),
		Title:    strings.TrimSpace(r.Title),
		Director: strings.TrimSpace(r.Director),
		Rating:   strings.TrimSpace(r.Rating),
		Duration: strings.TrimSpace(r.Duration),
		Country:  strings.TrimSpace(r.Country),
		Genres:   r.ListedIn,
	}

	year, err := strconv.Atoi(strings.TrimSpace(r.ReleaseYear))
	if err != nil {
		return Title{}, fmt.Errorf("%w: line %d: release_year %q", helpers.ErrMalformed, r.Line, r.ReleaseYear)
	}
	t.ReleaseYear = year

	added, err := ParseDate(r.DateAdded)
	if err != nil {
		return Title{}, fmt.Errorf("line %d: %w", r.Line, err)
	}
	if !added.IsZero() {
		t.DateAdded = added
		t.MonthAdded = added.Month().String()
		t.YearAdded = added.Year()
	}

	return t, nil
}

// ParseDate parses a date_added value. Blank input is a missing date and
// returns the zero time without error.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
}

func resolveContinent(t *Title, tables *lookup.Tables) bool {
	code, ok := tables.CountryCode(t.Country)
	if !ok {
		return false
	}
	continent, ok := tables.ContinentCode(code)
	if !ok {
		return false
	}
	name, ok := tables.ContinentName(continent)
	if !ok {
		return false
	}
	t.CountryCode = code
	t.ContinentCode = continent
	t.ContinentName = name
	return true
}
