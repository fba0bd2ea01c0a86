// Package catalog loads the title catalog CSV and derives the columns the
// dashboard views aggregate over.
package catalog

import (
	"strconv"
	"strings"
	"time"
)

// Title is one catalog row after transformation.
type Title struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Director    string    `json:"director"`
	Rating      string    `json:"rating"`
	Duration    string    `json:"duration"`
	ReleaseYear int       `json:"release_year"`
	DateAdded   time.Time `json:"date_added"` // zero when missing
	Country     string    `json:"country"`
	Genres      string    `json:"genres"` // comma-separated, as listed

	// Derived at load time.
	MonthAdded    string `json:"month_added"`
	YearAdded     int    `json:"year_added"` // 0 when DateAdded is missing
	TargetAges    string `json:"target_ages"`
	CountryCode   string `json:"country_code"`
	ContinentCode string `json:"continent_code"`
	ContinentName string `json:"continent_name"`

	// Set on exploded rows only: a single trimmed genre.
	Genre string `json:"genre,omitempty"`
}

// HasDateAdded reports whether the row carried a date_added value.
func (t Title) HasDateAdded() bool { return !t.DateAdded.IsZero() }

func (t Title) dateAddedString() string {
	if !t.HasDateAdded() {
		return ""
	}
	return t.DateAdded.Format("2006-01-02")
}

func (t Title) yearAddedString() string {
	if t.YearAdded == 0 {
		return ""
	}
	return strconv.Itoa(t.YearAdded)
}

// GenreList splits Genres into trimmed, non-empty tokens in listed order.
func (t Title) GenreList() []string {
	parts := strings.Split(t.Genres, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ExplodeGenres returns one row per genre token of each title, in input
// order. A title with no genre tokens yields a single row with an empty Genre.
func ExplodeGenres(titles []Title) []Title {
	out := make([]Title, 0, len(titles)*2)
	for _, t := range titles {
		genres := t.GenreList()
		if len(genres) == 0 {
			t.Genre = ""
			out = append(out, t)
			continue
		}
		for _, g := range genres {
			row := t
			row.Genre = g
			out = append(out, row)
		}
	}
	return out
}

// JoinGenres re-joins exploded rows by title: genres in first-seen order,
// separated by ", ".
func JoinGenres(exploded []Title) map[string]string {
	lists := make(map[string][]string)
	for _, t := range exploded {
		if t.Genre == "" {
			if _, ok := lists[t.Title]; !ok {
				lists[t.Title] = nil
			}
			continue
		}
		lists[t.Title] = append(lists[t.Title], t.Genre)
	}

	out := make(map[string]string, len(lists))
	for title, genres := range lists {
		out[title] = strings.Join(genres, ", ")
	}
	return out
}
