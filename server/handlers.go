package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/spektr-org/catalogdash/catalog"
	"github.com/spektr-org/catalogdash/dashboard"
	"github.com/spektr-org/catalogdash/engine"
	"github.com/spektr-org/catalogdash/render"
)

// viewsResponse lists the selector entries and the control options.
type viewsResponse struct {
	Views        []dashboard.ViewInfo `json:"views"`
	ShowTypes    []string             `json:"showTypes"`
	GenreOptions []string             `json:"genreOptions"`
	Labels       map[string]string    `json:"labels"`
}

// diagnosticsResponse describes the loaded catalog.
type diagnosticsResponse struct {
	Source      string              `json:"source"`
	LoadedAt    time.Time           `json:"loadedAt"`
	Titles      int                 `json:"titles"`
	Diagnostics catalog.Diagnostics `json:"diagnostics"`
}

func (s *Server) catalog(w http.ResponseWriter, r *http.Request) (*catalog.Catalog, bool) {
	cat, err := s.source.Catalog(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load catalog")
		writeError(w, http.StatusInternalServerError, "catalog unavailable", nil, s.logger)
		return nil, false
	}
	return cat, true
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	cat, ok := s.catalog(w, r)
	if !ok {
		return
	}

	options, err := dashboard.GenreOptions(cat)
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}

	success(w, viewsResponse{
		Views:        dashboard.Views(),
		ShowTypes:    []string{dashboard.ShowMovies, dashboard.ShowTVShows},
		GenreOptions: options,
		Labels:       labels(),
	}, s.logger)
}

// renderRequest parses and validates the query, then renders the view.
func (s *Server) renderRequest(w http.ResponseWriter, r *http.Request) (*dashboard.Result, renderQuery, bool) {
	rq, err := parseRenderQuery(r.URL.Query())
	if err == nil {
		err = s.validate.Validate(rq)
	}
	if err != nil {
		handleError(w, r, err, s.logger)
		return nil, rq, false
	}

	sel, err := rq.selection()
	if err != nil {
		handleError(w, r, err, s.logger)
		return nil, rq, false
	}

	cat, ok := s.catalog(w, r)
	if !ok {
		return nil, rq, false
	}

	res, err := dashboard.Render(cat, sel, engine.WithLogger(s.logger))
	if err != nil {
		handleError(w, r, err, s.logger)
		return nil, rq, false
	}
	return res, rq, true
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.renderRequest(w, r)
	if !ok {
		return
	}
	success(w, res, s.logger)
}

func (s *Server) handleRenderPNG(w http.ResponseWriter, r *http.Request) {
	res, rq, ok := s.renderRequest(w, r)
	if !ok {
		return
	}

	if res.Chart == nil {
		writeError(w, http.StatusBadRequest, "view has no chart", nil, s.logger)
		return
	}
	if !render.Supported(res.Chart.ChartType) {
		writeError(w, http.StatusUnprocessableEntity,
			res.Chart.ChartType+" charts are drawn in the browser only", nil, s.logger)
		return
	}

	var buf bytes.Buffer
	if err := render.PNG(&buf, res.Chart, rq.size()); err != nil {
		if errors.Is(err, render.ErrEmpty) {
			writeError(w, http.StatusUnprocessableEntity, "chart has no data", nil, s.logger)
			return
		}
		handleError(w, r, err, s.logger)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write png")
	}
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	pq, err := parsePageQuery(r.URL.Query())
	if err == nil {
		err = s.validate.Validate(pq)
	}
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}

	cat, ok := s.catalog(w, r)
	if !ok {
		return
	}
	success(w, cat.Table().Page(pq.Offset, pq.Limit), s.logger)
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	cat, ok := s.catalog(w, r)
	if !ok {
		return
	}
	success(w, diagnosticsResponse{
		Source:      cat.Source(),
		LoadedAt:    cat.LoadedAt(),
		Titles:      cat.Len(),
		Diagnostics: cat.Diagnostics(),
	}, s.logger)
}

func labels() map[string]string {
	return map[string]string{
		"page":      dashboard.PageTitle,
		"sidebar":   dashboard.SidebarTitle,
		"select":    dashboard.SelectLabel,
		"dataset":   dashboard.DatasetLabel,
		"showData":  dashboard.ShowDataLabel,
		"showType":  dashboard.ShowTypeLabel,
		"allGenres": dashboard.AllGenresLabel,
		"genres":    dashboard.GenreMultiLabel,
	}
}
