// Package catalogdash is a dashboard over the Netflix title catalog.
//
// The catalog CSV is loaded once and transformed into an immutable
// catalog (rating age buckets, month and year added, continent per
// country, exploded genres). A view selection is then rendered into a
// chart config, an aggregate table and captions:
//
//	cat, err := catalog.Load("netflix_data.csv", nil, logger)
//	res, err := dashboard.Render(cat, dashboard.Selection{View: dashboard.ViewRatings})
//
// The engine package holds the domain-agnostic grouping and chart building;
// server and cmd/catalogdash are the HTTP and command-line shells.
package catalogdash
