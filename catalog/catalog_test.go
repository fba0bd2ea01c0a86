package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/catalogdash/catalog"
	"github.com/spektr-org/catalogdash/engine"
	"github.com/spektr-org/catalogdash/helpers"
	"github.com/spektr-org/catalogdash/lookup"
	"github.com/spektr-org/catalogdash/schema"
)

const header = "show_id,type,title,director,cast,country,date_added,release_year,rating,duration,listed_in,description\n"

const fixture = header +
	`s1,Movie,Alpha,Ann Lee,,United States,"May 1, 2020",2019,PG-13,90 min,"Comedy, Drama",x` + "\n" +
	`s2,TV Show,Beta,,,India,2019-01-15,2018,TV-MA,2 Seasons,Crime,y` + "\n" +
	`s3,Movie,Gamma,,,"United States, India","June 3, 2021",2021,R,100 min,Action,z` + "\n" +
	`s4,Movie,Delta,,,,"July 4, 2021",2020,PG,80 min,Drama,z` + "\n" +
	`s5,TV Show,Epsilon,,,Japan,,2017,74 min,1 Season," International TV Shows , Anime ",z` + "\n" +
	`s6,Movie,Zeta,,,USA," August 4, 2017",2016,,95 min,Documentaries,z` + "\n"

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netflix_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func load(t *testing.T, content string) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load(writeCSV(t, content), nil, zerolog.Nop())
	require.NoError(t, err)
	return cat
}

func TestLoad_Transform(t *testing.T) {
	cat := load(t, fixture)
	titles := cat.Titles()

	// Gamma (two countries) and Delta (no country) fail validation; Zeta's
	// "USA" validates as a code but does not resolve by name.
	require.Len(t, titles, 3)
	assert.Equal(t, []string{"Alpha", "Beta", "Epsilon"}, []string{titles[0].Title, titles[1].Title, titles[2].Title})

	alpha := titles[0]
	assert.Equal(t, "May", alpha.MonthAdded)
	assert.Equal(t, 2020, alpha.YearAdded)
	assert.Equal(t, "Teens", alpha.TargetAges)
	assert.Equal(t, "US", alpha.CountryCode)
	assert.Equal(t, "NA", alpha.ContinentCode)
	assert.Equal(t, "North America", alpha.ContinentName)

	beta := titles[1]
	assert.Equal(t, "Adults", beta.TargetAges)
	assert.Equal(t, "Asia", beta.ContinentName)
	assert.Equal(t, "January", beta.MonthAdded)

	epsilon := titles[2]
	assert.False(t, epsilon.HasDateAdded())
	assert.Equal(t, 0, epsilon.YearAdded)
	assert.Equal(t, "74 min", epsilon.TargetAges, "unmapped rating passes through")

	diag := cat.Diagnostics()
	assert.Equal(t, 6, diag.Rows)
	assert.Equal(t, 3, diag.Kept)
	assert.Equal(t, 2, diag.DroppedInvalidCountry)
	assert.Equal(t, 1, diag.DroppedUnresolved)
	assert.Equal(t, 1, diag.MissingDateAdded)
	assert.Equal(t, 1, diag.MissingRating)
	assert.Equal(t, map[string]int{"74 min": 1}, diag.UnmappedRatings)
}

func TestLoad_YearAddedMatchesDate(t *testing.T) {
	for _, title := range load(t, fixture).Titles() {
		if title.HasDateAdded() {
			assert.Equal(t, title.DateAdded.Year(), title.YearAdded, title.Title)
			assert.Equal(t, title.DateAdded.Month().String(), title.MonthAdded, title.Title)
		} else {
			assert.Zero(t, title.YearAdded, title.Title)
		}
	}
}

func TestTransform_RatingBuckets(t *testing.T) {
	tables, err := lookup.Default()
	require.NoError(t, err)

	var rows []catalog.Raw
	for code := range tables.Ratings() {
		rows = append(rows, catalog.Raw{Rating: code, Country: "France", ReleaseYear: "2020"})
	}
	rows = append(rows, catalog.Raw{Rating: "TV-NEW", Country: "France", ReleaseYear: "2020"})

	titles, diag, err := catalog.Transform(rows, tables)
	require.NoError(t, err)
	require.Len(t, titles, len(rows))

	for _, title := range titles {
		want, ok := tables.AgeBucket(title.Rating)
		if !ok {
			want = title.Rating
		}
		assert.Equal(t, want, title.TargetAges, title.Rating)
	}
	assert.Equal(t, map[string]int{"TV-NEW": 1}, diag.UnmappedRatings)
}

func TestTransform_DoesNotMutateInput(t *testing.T) {
	tables, err := lookup.Default()
	require.NoError(t, err)

	rows := []catalog.Raw{
		{Line: 2, Country: "Atlantis", ReleaseYear: "2020"},
		{Line: 3, Country: "France", ReleaseYear: "2020"},
	}
	before := append([]catalog.Raw(nil), rows...)

	_, _, err = catalog.Transform(rows, tables)
	require.NoError(t, err)
	assert.Equal(t, before, rows)
}

func TestLoad_FatalErrors(t *testing.T) {
	_, err := catalog.Load(filepath.Join(t.TempDir(), "missing.csv"), nil, zerolog.Nop())
	assert.ErrorIs(t, err, helpers.ErrNotFound)

	_, err = catalog.Load(writeCSV(t, header+`s1,Movie,A,,,India,someday,2020,R,90 min,Drama,x`+"\n"), nil, zerolog.Nop())
	assert.ErrorIs(t, err, catalog.ErrBadDate)
	assert.Contains(t, err.Error(), "line 2")

	_, err = catalog.Load(writeCSV(t, header+`s1,Movie,A,,,India,,twenty,R,90 min,Drama,x`+"\n"), nil, zerolog.Nop())
	assert.ErrorIs(t, err, helpers.ErrMalformed)

	_, err = catalog.Load(writeCSV(t, "type,title\nMovie,A\n"), nil, zerolog.Nop())
	assert.ErrorIs(t, err, schema.ErrMissingColumns)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"September 25, 2021", "2021-09-25"},
		{" August 4, 2017", "2017-08-04"},
		{"2019-01-15", "2019-01-15"},
		{"Jan 2, 2006", "2006-01-02"},
		{"2 January 2006", "2006-01-02"},
		{"12/31/2020", "2020-12-31"},
		{"2020-05-01T10:00:00Z", "2020-05-01"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := catalog.ParseDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}

	got, err := catalog.ParseDate("   ")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = catalog.ParseDate("31st of May")
	assert.ErrorIs(t, err, catalog.ErrBadDate)
}

func TestExplodeAndJoinGenres(t *testing.T) {
	titles := []catalog.Title{
		{Title: "Alpha", Genres: "Comedy, Drama"},
		{Title: "Beta", Genres: " International TV Shows ,Anime,  Crime "},
		{Title: "Gamma", Genres: "Crime"},
		{Title: "Delta", Genres: ""},
	}

	exploded := catalog.ExplodeGenres(titles)
	require.Len(t, exploded, 7)
	assert.Equal(t, "Comedy", exploded[0].Genre)
	assert.Equal(t, "Drama", exploded[1].Genre)
	assert.Equal(t, "International TV Shows", exploded[2].Genre)
	assert.Equal(t, "Alpha", exploded[1].Title, "other fields are kept")

	joined := catalog.JoinGenres(exploded)
	for _, title := range titles {
		want := strings.Join(title.GenreList(), ", ")
		assert.Equal(t, want, joined[title.Title], title.Title)
	}
	assert.Equal(t, "Comedy, Drama", joined["Alpha"])
	assert.Equal(t, "International TV Shows, Anime, Crime", joined["Beta"])
}

func TestCatalog_ViewAndFrame(t *testing.T) {
	cat := load(t, fixture)

	view := cat.View()
	require.Equal(t, 3, view.Len())
	assert.Equal(t, "United States", view.Dimension(0, "country name"))
	assert.Equal(t, "North America", view.Dimension(0, "continent name"))
	assert.Equal(t, "2020", view.Dimension(0, "year_added"))
	assert.Equal(t, "", view.Dimension(2, "year_added"))
	assert.Equal(t, 2019.0, view.Measure(0, "release_year"))
	assert.Equal(t, 1.0, view.Measure(1, "record_count"))

	groups, err := engine.GroupAndAggregate(cat.ExplodedView(), engine.QuerySpec{GroupBy: []string{"genre"}}, "record_count")
	require.NoError(t, err)
	assert.Len(t, groups, 5)

	frame := cat.Frame()
	assert.Equal(t, schema.Catalog().DisplayColumns(), frame.Names())
	assert.Contains(t, frame.Names(), "country name")
	assert.Contains(t, frame.Names(), "genres")
	assert.Equal(t, 3, frame.Nrow())

	table := cat.Table()
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{
		"Movie", "Alpha", "Ann Lee", "PG-13", "Teens", "90 min", "2019",
		"2020-05-01", "May", "2020", "United States", "North America", "Comedy, Drama",
	}, table.Rows[0])
	assert.Equal(t, "Country", table.Columns[10].Label)
	assert.Equal(t, "Genres", table.Columns[12].Label)
}

func TestCatalog_Immutable(t *testing.T) {
	cat := load(t, fixture)

	titles := cat.Titles()
	titles[0].Title = "changed"
	assert.Equal(t, "Alpha", cat.Titles()[0].Title)

	diag := cat.Diagnostics()
	diag.UnmappedRatings["X"] = 9
	assert.NotContains(t, cat.Diagnostics().UnmappedRatings, "X")
}

func TestSources(t *testing.T) {
	path := writeCSV(t, fixture)
	cat, err := catalog.Load(path, nil, zerolog.Nop())
	require.NoError(t, err)

	static := catalog.NewStatic(cat)
	got, err := static.Catalog(context.Background())
	require.NoError(t, err)
	assert.Same(t, cat, got)

	src := &catalog.FileSource{Path: path, Logger: zerolog.Nop()}
	first, err := src.Catalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, first.Len())

	require.NoError(t, os.WriteFile(path, []byte(header+`s1,Movie,Alpha,,,France,,2019,PG,90 min,Drama,x`+"\n"), 0o600))
	second, err := src.Catalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, second.Len())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Catalog(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
