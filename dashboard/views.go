// Package dashboard turns a view selection into chart-ready output. Render
// is a pure function of the catalog and the selection.
package dashboard

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownView is returned for a view name or slug that does not exist.
	ErrUnknownView = errors.New("dashboard: unknown view")
	// ErrInvalidSelection is returned when view controls hold values the view does not offer.
	ErrInvalidSelection = errors.New("dashboard: invalid selection")
)

// ViewName is the display name of a view, as shown in the view selector.
type ViewName string

const (
	ViewNone       ViewName = "Select"
	ViewTypes      ViewName = "Type of Shows"
	ViewRatings    ViewName = "Ratings"
	ViewContinents ViewName = "Shows in Continents"
	ViewGenres     ViewName = "Genres"
	ViewTimeline   ViewName = "Shows over the years"
)

// Show type choices under the Genres view.
const (
	ShowMovies  = "Movies"
	ShowTVShows = "TV Shows"
)

// Page text.
const (
	PageTitle    = "Netflix Data Exploration"
	SidebarTitle = "What are you curious to know about Netflix?"
	SelectLabel  = "Select to get answers and insights"
	DatasetLabel = "Refer to the dataset:"
	DatasetTitle = "Netflix dataset"
)

// ViewInfo describes one entry of the view selector.
type ViewInfo struct {
	Name      ViewName `json:"name"`
	Slug      string   `json:"slug"`
	Subheader string   `json:"subheader,omitempty"`
}

var views = []ViewInfo{
	{Name: ViewNone, Slug: "none"},
	{Name: ViewTypes, Slug: "types", Subheader: "Is there more movies than series?"},
	{Name: ViewRatings, Slug: "ratings", Subheader: "How does the rating differ based on every age category?"},
	{Name: ViewContinents, Slug: "continents", Subheader: "Over the years, how many shows does every continent have?"},
	{Name: ViewGenres, Slug: "genres", Subheader: "What are the top genres released by year?"},
	{Name: ViewTimeline, Slug: "timeline", Subheader: "Based on the top genres, is Netlfix adding more shows to their platform than it is released every year?"},
}

// Views returns the selector entries in display order.
func Views() []ViewInfo {
	return append([]ViewInfo(nil), views...)
}

// ParseView resolves a display name or slug, case-insensitively. Blank
// input selects no view.
func ParseView(s string) (ViewName, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ViewNone, nil
	}
	for _, v := range views {
		if strings.EqualFold(s, string(v.Name)) || strings.EqualFold(s, v.Slug) {
			return v.Name, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// Info returns the selector entry for a view.
func (v ViewName) Info() (ViewInfo, bool) {
	for _, info := range views {
		if info.Name == v {
			return info, true
		}
	}
	return ViewInfo{}, false
}

// Slug returns the URL-friendly identifier of a view.
func (v ViewName) Slug() string {
	info, _ := v.Info()
	return info.Slug
}

// Chart titles.
const (
	titleTypes       = "Type of Shows"
	titleRatings     = "Rating Based on Target Ages"
	titleContinents  = "Amount of Shows Over the past 7 years in each Continent"
	titleMovieGenres = "Top Genres of Movies Released by Year"
	titleShowGenres  = "Top Genres of Series Released by Year"
	titleTimeline    = "Shows Added VS. Shows Released Every Year "
)

// Captions shown under each chart.
const (
	captionTypes      = "We can see that there is 69% movies, and 31% TV Shows. Hence, There are much more movies than series."
	captionRatings    = "Adults has the largest amount of movies/series to entertain themselves compared to teens and kids. Also, Adults can watch whatever they want without restriction to ratings. Although Netflix is an app used more by adults and teenagers, the company can add more shows to the kids' section."
	captionContinents = "By going through the years backwards, we can see that the number of shows added on netflix are slowly decreasing. Which means that the company is adding shows every year on the app. We can also notice the difference between 2015 and 2016 where netflix almost doubled its amount of shows on its platform."
	captionMovies     = "We can notice how from 2018 till 2021 the show genres is decreasing in amount from year to year. Shouldn't it be increasing? What's the problem? Maybe we should notify the directors, or do more research to find patterns about this problem."
	captionShows      = "Over the years, there only is International TV Shows, which is a problem because there isn't much diversity to the customers. The organization should increase and the amount of genres for TV Shows."
	captionTimeline   = "We can notice that at first Netflix didn't add much shows compared to how many shows were released every year, however after 2017 we can see that Netflix added much more shows than the number of shows that were released every year."
)

// Control labels.
const (
	ShowTypeLabel   = "Pick your Show Type"
	AllGenresLabel  = "Select all genres"
	GenreMultiLabel = "Select the genres of shows you want over the years"
	ShowDataLabel   = "Show data"
)
