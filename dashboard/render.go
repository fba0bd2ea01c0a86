package dashboard

import (
	"fmt"
	"strconv"

	"github.com/spektr-org/catalogdash/catalog"
	"github.com/spektr-org/catalogdash/engine"
	"github.com/spektr-org/catalogdash/schema"
)

// Thresholds applied by the views.
const (
	continentsSinceYear = 2015
	genresSinceYear     = 2018
	releasedSinceYear   = 2008
	topGenreCount       = 5
)

// Selection is the state of the view selector and its controls.
type Selection struct {
	View      ViewName `json:"view"`
	ShowData  bool     `json:"showData"`
	ShowType  string   `json:"showType,omitempty"` // Movies (default) or TV Shows
	AllGenres bool     `json:"allGenres,omitempty"`
	Genres    []string `json:"genres,omitempty"`
}

// Controls reports the options and resolved values of view-specific controls.
type Controls struct {
	ShowTypes      []string `json:"showTypes,omitempty"`
	ShowType       string   `json:"showType,omitempty"`
	GenreOptions   []string `json:"genreOptions,omitempty"`
	SelectedGenres []string `json:"selectedGenres,omitempty"`
	AllGenres      bool     `json:"allGenres,omitempty"`
}

// Result is everything the UI shell needs to draw one view.
type Result struct {
	View        ViewName            `json:"view"`
	Slug        string              `json:"slug"`
	Title       string              `json:"title"`
	Subheader   string              `json:"subheader,omitempty"`
	Chart       *engine.ChartConfig `json:"chart,omitempty"`
	Aggregate   *engine.TableData   `json:"aggregate,omitempty"`
	Caption     string              `json:"caption,omitempty"`
	Summary     string              `json:"summary,omitempty"`
	Data        *engine.TableData   `json:"data,omitempty"`
	Controls    Controls            `json:"controls"`
	Diagnostics catalog.Diagnostics `json:"diagnostics"`
}

// Render computes the selected view over cat. It reads cat only. opts are
// passed on to the engine.
func Render(cat *catalog.Catalog, sel Selection, opts ...engine.Option) (*Result, error) {
	if sel.View == "" {
		sel.View = ViewNone
	}
	info, ok := sel.View.Info()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, sel.View)
	}

	res := &Result{
		View:        info.Name,
		Slug:        info.Slug,
		Title:       PageTitle,
		Subheader:   info.Subheader,
		Diagnostics: cat.Diagnostics(),
	}
	if sel.ShowData {
		res.Data = cat.Table()
	}

	r := renderer{cat: cat, opts: opts}
	var err error
	switch info.Name {
	case ViewNone:
	case ViewTypes:
		err = r.types(res)
	case ViewRatings:
		err = r.ratings(res)
	case ViewContinents:
		err = r.continents(res)
	case ViewGenres:
		err = r.genres(sel, res)
	case ViewTimeline:
		err = r.timeline(sel, res)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

type renderer struct {
	cat  *catalog.Catalog
	opts []engine.Option
}

func (r renderer) execute(res *Result, spec engine.QuerySpec, view engine.RecordView) error {
	opts := append([]engine.Option{
		engine.WithDefaultMeasure(schema.Catalog().GetDefaultMeasure()),
		engine.WithPeriodDimension("release_year"),
		engine.WithLabels(schema.Catalog().Label),
	}, r.opts...)
	out, err := engine.Execute(spec, view, opts...)
	if err != nil {
		return err
	}
	res.Chart = out.ChartConfig
	res.Aggregate = out.TableData
	res.Summary = out.Reply
	return nil
}

// ============================================================================
// VIEWS
// ============================================================================

// types pairs every type label with its own count.
func (r renderer) types(res *Result) error {
	err := r.execute(res, engine.QuerySpec{
		GroupBy:     []string{"type"},
		DropMissing: true,
		Visualize:   "pie",
		Title:       titleTypes,
		Reply:       "{count} titles; {top_category} is the largest type with {top_amount}.",
	}, r.cat.View())
	if err != nil {
		return err
	}

	slices := 0
	if len(res.Chart.Series) > 0 {
		slices = len(res.Chart.Series[0].Data)
	}
	pull := make([]float64, slices)
	for i := 1; i < slices; i++ {
		pull[i] = 0.1
	}
	res.Chart.Style = &engine.ChartStyle{
		Pull:         pull,
		TextInfo:     "label+percent",
		TextFontSize: 15,
		LineColor:    "#000000",
		LineWidth:    2,
	}
	res.Caption = captionTypes
	return nil
}

func (r renderer) ratings(res *Result) error {
	err := r.execute(res, engine.QuerySpec{
		GroupBy:     []string{"rating", "target_ages"},
		DropMissing: true,
		SortKeys:    []string{"-value", "rating", "target_ages"},
		Visualize:   "bar",
		Title:       titleRatings,
		XAxis:       "rating",
		YAxis:       "count",
		Reply:       "{groups} rating groups; {top_category} is the most common with {top_amount} titles.",
	}, r.cat.View())
	if err != nil {
		return err
	}
	res.Caption = captionRatings
	return nil
}

func (r renderer) continents(res *Result) error {
	err := r.execute(res, engine.QuerySpec{
		GroupBy:     []string{"year_added", "continent name", "country name"},
		DropMissing: true,
		Filters: engine.Filters{
			MinMeasures: map[string]float64{"year_added": continentsSinceYear},
		},
		SortKeys:  []string{"-year_added", "-value"},
		Visualize: "scatter_geo",
		Title:     titleContinents,
		Reply:     "{count} titles added since " + strconv.Itoa(continentsSinceYear) + ".",
	}, r.cat.View())
	if err != nil {
		return err
	}
	res.Chart.Style = &engine.ChartStyle{
		SizeMax:      60,
		Opacity:      0.8,
		Projection:   "natural earth",
		LocationMode: "country names",
	}
	res.Caption = captionContinents
	return nil
}

func (r renderer) genres(sel Selection, res *Result) error {
	showType := sel.ShowType
	if showType == "" {
		showType = ShowMovies
	}

	var typeValue, title, caption string
	switch showType {
	case ShowMovies:
		typeValue, title, caption = "Movie", titleMovieGenres, captionMovies
	case ShowTVShows:
		typeValue, title, caption = "TV Show", titleShowGenres, captionShows
	default:
		return fmt.Errorf("%w: show type %q", ErrInvalidSelection, sel.ShowType)
	}

	top, err := TopGenres(r.cat, topGenreCount)
	if err != nil {
		return err
	}

	err = r.execute(res, engine.QuerySpec{
		GroupBy:     []string{"release_year", "genre"},
		DropMissing: true,
		Filters: engine.Filters{
			Dimensions: map[string][]string{
				"genre": top,
				"type":  {typeValue},
			},
			MinMeasures: map[string]float64{"release_year": genresSinceYear},
		},
		SortKeys:  []string{"-value"},
		Visualize: "sunburst",
		Title:     title,
		Reply:     "{count} titles released {period} across the top genres.",
	}, r.cat.ExplodedView())
	if err != nil {
		return err
	}

	res.Caption = caption
	res.Controls = Controls{
		ShowTypes: []string{ShowMovies, ShowTVShows},
		ShowType:  showType,
	}
	return nil
}

// timelineSeries are the four traces of the timeline view.
var timelineSeries = []struct {
	name      string
	typeValue string
	released  bool
	color     string
}{
	{"Movie: Year Added", "Movie", false, "darkblue"},
	{"TV Show: Year Added", "TV Show", false, "hotpink"},
	{"Movie: Released Year", "Movie", true, "royalblue"},
	{"TV Show: Released Year", "TV Show", true, "pink"},
}

func (r renderer) timeline(sel Selection, res *Result) error {
	options, err := GenreOptions(r.cat)
	if err != nil {
		return err
	}

	selected, err := selectGenres(options, sel)
	if err != nil {
		return err
	}

	view := r.cat.ExplodedView()
	chart := &engine.ChartConfig{
		ChartType:  "line",
		Title:      titleTimeline,
		XAxis:      "Year",
		YAxis:      "Amount of Shows",
		ShowLegend: true,
		ShowGrid:   true,
		Style:      &engine.ChartStyle{Mode: "lines+markers"},
	}
	var rows [][]string

	for _, ts := range timelineSeries {
		yearKey := "year_added"
		filters := engine.Filters{
			Dimensions: map[string][]string{"genre": selected, "type": {ts.typeValue}},
		}
		if ts.released {
			yearKey = "release_year"
			filters.MinMeasures = map[string]float64{"release_year": releasedSinceYear}
		}

		series := engine.ChartSeries{Name: ts.name, Color: ts.color, Data: []engine.ChartPoint{}}
		if len(selected) > 0 {
			groups, err := engine.GroupAndAggregate(engine.ApplyFilters(view, filters), engine.QuerySpec{
				GroupBy:     []string{yearKey},
				DropMissing: true,
				SortKeys:    []string{yearKey},
			}, "record_count")
			if err != nil {
				return err
			}
			for _, g := range groups {
				series.Data = append(series.Data, engine.ChartPoint{Label: g.Label, Value: g.Value})
				rows = append(rows, []string{ts.name, g.Label, engine.FormatNumber(g.Value)})
			}
		}

		chart.Series = append(chart.Series, series)
		chart.Colors = append(chart.Colors, ts.color)
	}

	res.Chart = chart
	res.Aggregate = engine.NewTable(titleTimeline, []string{"series", "year", "show_count"}, rows, schema.Catalog().Label)
	res.Caption = captionTimeline
	res.Summary = fmt.Sprintf("%d of %d genres selected.", len(selected), len(options))
	res.Controls = Controls{
		GenreOptions:   options,
		SelectedGenres: selected,
		AllGenres:      sel.AllGenres,
	}
	return nil
}

func selectGenres(options []string, sel Selection) ([]string, error) {
	if sel.AllGenres {
		return append([]string(nil), options...), nil
	}

	offered := make(map[string]bool, len(options))
	for _, o := range options {
		offered[o] = true
	}

	selected := make([]string, 0, len(sel.Genres))
	seen := make(map[string]bool, len(sel.Genres))
	for _, g := range sel.Genres {
		if !offered[g] {
			return nil, fmt.Errorf("%w: genre %q is not among the options", ErrInvalidSelection, g)
		}
		if !seen[g] {
			seen[g] = true
			selected = append(selected, g)
		}
	}
	return selected, nil
}

// ============================================================================
// GENRE AGGREGATES
// ============================================================================

// TopGenres returns the n genres with the most exploded rows, ties broken
// by first appearance.
func TopGenres(cat *catalog.Catalog, n int) ([]string, error) {
	groups, err := engine.GroupAndAggregate(cat.ExplodedView(), engine.QuerySpec{
		GroupBy:     []string{"genre"},
		DropMissing: true,
		SortKeys:    []string{"-value"},
		Limit:       n,
	}, "record_count")
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Label)
	}
	return out, nil
}

// GenreOptions returns the genres offered by the timeline view: the distinct
// genres of the top-genre aggregate (release year ≥ 2018, both types), in
// that aggregate's count order.
func GenreOptions(cat *catalog.Catalog) ([]string, error) {
	top, err := TopGenres(cat, topGenreCount)
	if err != nil {
		return nil, err
	}
	if len(top) == 0 {
		return []string{}, nil
	}

	view := engine.ApplyFilters(cat.ExplodedView(), engine.Filters{
		Dimensions:  map[string][]string{"genre": top},
		MinMeasures: map[string]float64{"release_year": genresSinceYear},
	})
	groups, err := engine.GroupAndAggregate(view, engine.QuerySpec{
		GroupBy:     []string{"release_year", "genre", "type"},
		DropMissing: true,
		SortKeys:    []string{"-value"},
	}, "record_count")
	if err != nil {
		return nil, err
	}

	options := make([]string, 0, len(top))
	seen := make(map[string]bool, len(top))
	for _, g := range groups {
		genre := g.Keys[1]
		if !seen[genre] {
			seen[genre] = true
			options = append(options, genre)
		}
	}
	return options, nil
}
