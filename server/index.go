package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/spektr-org/catalogdash/dashboard"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type indexPage struct {
	Title        string
	Sidebar      string
	SelectLabel  string
	DatasetLabel string
	DatasetTitle string
	Views        []dashboard.ViewInfo
	Labels       map[string]string
	ShowTypes    []string
	Version      string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := indexPage{
		Title:        dashboard.PageTitle,
		Sidebar:      dashboard.SidebarTitle,
		SelectLabel:  dashboard.SelectLabel,
		DatasetLabel: dashboard.DatasetLabel,
		DatasetTitle: dashboard.DatasetTitle,
		Views:        dashboard.Views(),
		Labels:       labels(),
		ShowTypes:    []string{dashboard.ShowMovies, dashboard.ShowTVShows},
		Version:      s.opts.Version,
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, page); err != nil {
		handleError(w, r, err, s.logger)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write index page")
	}
}
