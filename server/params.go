package server

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spektr-org/catalogdash/dashboard"
	"github.com/spektr-org/catalogdash/render"
)

var errBadParam = errors.New("bad query parameter")

// renderQuery is the query string of /api/v1/render and /api/v1/render.png.
type renderQuery struct {
	View      string   `query:"view" validate:"max=64"`
	ShowData  bool     `query:"show_data"`
	ShowType  string   `query:"show_type" validate:"omitempty,oneof=Movies 'TV Shows'"`
	AllGenres bool     `query:"all_genres"`
	Genres    []string `query:"genre" validate:"max=100,dive,required,max=128"`
	Width     int      `query:"width" validate:"omitempty,gte=200,lte=4000"`
	Height    int      `query:"height" validate:"omitempty,gte=200,lte=4000"`
}

// pageQuery is the query string of /api/v1/data.
type pageQuery struct {
	Offset int `query:"offset" validate:"gte=0"`
	Limit  int `query:"limit" validate:"gte=0,lte=1000"`
}

const defaultPageLimit = 100

func parseRenderQuery(q url.Values) (renderQuery, error) {
	var rq renderQuery
	var err error

	rq.View = strings.TrimSpace(q.Get("view"))
	rq.ShowType = strings.TrimSpace(q.Get("show_type"))
	rq.Genres = q["genre"]

	if rq.ShowData, err = queryBool(q, "show_data"); err != nil {
		return rq, err
	}
	if rq.AllGenres, err = queryBool(q, "all_genres"); err != nil {
		return rq, err
	}
	if rq.Width, err = queryInt(q, "width", 0); err != nil {
		return rq, err
	}
	if rq.Height, err = queryInt(q, "height", 0); err != nil {
		return rq, err
	}
	return rq, nil
}

// selection resolves the view name and builds the dashboard selection.
func (rq renderQuery) selection() (dashboard.Selection, error) {
	view, err := dashboard.ParseView(rq.View)
	if err != nil {
		return dashboard.Selection{}, err
	}
	return dashboard.Selection{
		View:      view,
		ShowData:  rq.ShowData,
		ShowType:  rq.ShowType,
		AllGenres: rq.AllGenres,
		Genres:    rq.Genres,
	}, nil
}

func (rq renderQuery) size() render.Size {
	return render.Size{Width: rq.Width, Height: rq.Height}
}

func parsePageQuery(q url.Values) (pageQuery, error) {
	var pq pageQuery
	var err error
	if pq.Offset, err = queryInt(q, "offset", 0); err != nil {
		return pq, err
	}
	if pq.Limit, err = queryInt(q, "limit", defaultPageLimit); err != nil {
		return pq, err
	}
	return pq, nil
}

// queryBool accepts the usual boolean spellings plus "on" from HTML
// checkboxes. A missing parameter is false.
func queryBool(q url.Values, key string) (bool, error) {
	v := strings.TrimSpace(q.Get(key))
	switch strings.ToLower(v) {
	case "":
		return false, nil
	case "on", "yes":
		return true, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q is not a boolean", errBadParam, key, v)
	}
	return b, nil
}

func queryInt(q url.Values, key string, fallback int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", errBadParam, key, v)
	}
	return n, nil
}
