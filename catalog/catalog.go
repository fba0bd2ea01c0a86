package catalog

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/rs/zerolog"

	"github.com/spektr-org/catalogdash/engine"
	"github.com/spektr-org/catalogdash/helpers"
	"github.com/spektr-org/catalogdash/lookup"
	"github.com/spektr-org/catalogdash/schema"
)

// Catalog is the transformed title list. It is immutable once built; every
// accessor returns a copy or a read-only view.
type Catalog struct {
	titles   []Title
	exploded []Title
	source   string
	loadedAt time.Time
	diag     Diagnostics
}

// New builds a Catalog from already-transformed titles.
func New(titles []Title, diag Diagnostics, source string) *Catalog {
	owned := append([]Title(nil), titles...)
	return &Catalog{
		titles:   owned,
		exploded: ExplodeGenres(owned),
		source:   source,
		loadedAt: time.Now(),
		diag:     diag.clone(),
	}
}

// Load reads the CSV at path and transforms it. A nil tables uses the
// embedded defaults.
func Load(path string, tables *lookup.Tables, logger zerolog.Logger) (*Catalog, error) {
	started := time.Now()

	if tables == nil {
		var err error
		if tables, err = lookup.Default(); err != nil {
			return nil, err
		}
	}

	df, err := helpers.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	if err := schema.Catalog().Validate(df.Names()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	titles, diag, err := Transform(rawRows(df), tables)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cat := New(titles, diag, path)
	logDiagnostics(logger, path, diag, time.Since(started))
	return cat, nil
}

func rawRows(df dataframe.DataFrame) []Raw {
	col := func(name string) []string { return helpers.Column(df, name) }
	types, titles, directors := col("type"), col("title"), col("director")
	countries, ratings, durations := col("country"), col("rating"), col("duration")
	years, dates, genres := col("release_year"), col("date_added"), col("listed_in")

	rows := make([]Raw, df.Nrow())
	for i := range rows {
		rows[i] = Raw{
			Line:        i + 2,
			Type:        types[i],
			Title:       titles[i],
			Director:    directors[i],
			Country:     countries[i],
			Rating:      ratings[i],
			Duration:    durations[i],
			ReleaseYear: years[i],
			DateAdded:   dates[i],
			ListedIn:    genres[i],
		}
	}
	return rows
}

func logDiagnostics(logger zerolog.Logger, path string, diag Diagnostics, took time.Duration) {
	logger.Info().
		Str("path", path).
		Int("rows", diag.Rows).
		Int("kept", diag.Kept).
		Dur("took", took).
		Msg("catalog loaded")

	if diag.DroppedInvalidCountry > 0 {
		logger.Warn().Int("rows", diag.DroppedInvalidCountry).Msg("dropped rows with an invalid country")
	}
	if diag.DroppedUnresolved > 0 {
		logger.Warn().Int("rows", diag.DroppedUnresolved).Msg("dropped rows whose country has no continent")
	}
	if diag.MissingDateAdded > 0 {
		logger.Warn().Int("rows", diag.MissingDateAdded).Msg("rows without date_added")
	}
	for _, code := range diag.UnmappedRatingCodes() {
		logger.Warn().
			Str("rating", code).
			Int("rows", diag.UnmappedRatings[code]).
			Msg("rating has no age bucket, passed through")
	}
}

// Len returns the number of titles.
func (c *Catalog) Len() int { return len(c.titles) }

// Titles returns a copy of the titles.
func (c *Catalog) Titles() []Title { return append([]Title(nil), c.titles...) }

// Exploded returns a copy of the genre-exploded rows.
func (c *Catalog) Exploded() []Title { return append([]Title(nil), c.exploded...) }

// Diagnostics returns a copy of the load diagnostics.
func (c *Catalog) Diagnostics() Diagnostics { return c.diag.clone() }

// Source returns the path the catalog was loaded from.
func (c *Catalog) Source() string { return c.source }

// LoadedAt returns when the catalog was built.
func (c *Catalog) LoadedAt() time.Time { return c.loadedAt }

// View returns a read-only RecordView over the titles.
func (c *Catalog) View() engine.RecordView { return titleFields.Bind(c.titles) }

// ExplodedView returns a read-only RecordView over the genre-exploded rows.
func (c *Catalog) ExplodedView() engine.RecordView { return titleFields.Bind(c.exploded) }

// ============================================================================
// DISPLAY TABLE
// ============================================================================

// Frame returns the titles as a DataFrame in display order, with the
// schema's renames applied to the column names.
func (c *Catalog) Frame() dataframe.DataFrame {
	sch := schema.Catalog()
	names := sch.DisplayColumns()
	columns := make(map[string][]string, len(names))
	for i, source := range sch.DisplayOrder {
		values := make([]string, len(c.titles))
		for j, t := range c.titles {
			values[j] = displayValue(t, source)
		}
		columns[names[i]] = values
	}
	return helpers.FromColumns(names, columns)
}

// Table returns the display frame as table data.
func (c *Catalog) Table() *engine.TableData {
	sch := schema.Catalog()
	records := c.Frame().Records()
	if len(records) <= 1 {
		return engine.NewTable("Netflix dataset", sch.DisplayColumns(), nil, sch.Label)
	}
	return engine.NewTable("Netflix dataset", records[0], records[1:], sch.Label)
}

func displayValue(t Title, column string) string {
	switch column {
	case "type":
		return t.Type
	case "title":
		return t.Title
	case "director":
		return t.Director
	case "rating":
		return t.Rating
	case "target_ages":
		return t.TargetAges
	case "duration":
		return t.Duration
	case "release_year":
		return strconv.Itoa(t.ReleaseYear)
	case "date_added":
		return t.dateAddedString()
	case "month_added":
		return t.MonthAdded
	case "year_added":
		return t.yearAddedString()
	case "country":
		return t.Country
	case "continent name":
		return t.ContinentName
	case "listed_in":
		return t.Genres
	}
	return ""
}

// ============================================================================
// RECORD VIEW FIELDS
// ============================================================================

var titleFields = engine.NewFields[Title]().
	Dimension("type", func(t Title) string { return t.Type }).
	Dimension("title", func(t Title) string { return t.Title }).
	Dimension("director", func(t Title) string { return t.Director }).
	Dimension("rating", func(t Title) string { return t.Rating }).
	Dimension("target_ages", func(t Title) string { return t.TargetAges }).
	Dimension("duration", func(t Title) string { return t.Duration }).
	Dimension("release_year", func(t Title) string { return strconv.Itoa(t.ReleaseYear) }).
	Dimension("date_added", Title.dateAddedString).
	Dimension("month_added", func(t Title) string { return t.MonthAdded }).
	Dimension("year_added", Title.yearAddedString).
	Dimension(schema.Catalog().DisplayName("country"), func(t Title) string { return t.Country }).
	Dimension("country_code", func(t Title) string { return t.CountryCode }).
	Dimension("continent_code", func(t Title) string { return t.ContinentCode }).
	Dimension("continent name", func(t Title) string { return t.ContinentName }).
	Dimension(schema.Catalog().DisplayName("listed_in"), func(t Title) string { return t.Genres }).
	Dimension("genre", func(t Title) string { return t.Genre }).
	Measure("record_count", func(Title) float64 { return 1 }).
	Measure("release_year", func(t Title) float64 { return float64(t.ReleaseYear) }).
	Measure("year_added", func(t Title) float64 { return float64(t.YearAdded) })
