package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/catalogdash/catalog"
	"github.com/spektr-org/catalogdash/dashboard"
	"github.com/spektr-org/catalogdash/engine"
	"github.com/spektr-org/catalogdash/server"
)

const fixture = "show_id,type,title,director,cast,country,date_added,release_year,rating,duration,listed_in,description\n" +
	`s1,Movie,Alpha,,,United States,"May 1, 2020",2020,PG-13,90 min,"Comedy, Drama",x` + "\n" +
	`s2,TV Show,Beta,,,India,"January 15, 2019",2019,TV-MA,2 Seasons,Crime,y` + "\n"

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

func newServer(t *testing.T) *server.Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netflix_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	cat, err := catalog.Load(path, nil, zerolog.Nop())
	require.NoError(t, err)
	return server.New(catalog.NewStatic(cat), server.Options{
		AllowedOrigins: []string{"http://dash.test"},
		Version:        "test",
	}, zerolog.Nop())
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestHealth(t *testing.T) {
	rec := get(t, newServer(t), "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"status":"healthy","version":"test"}`, string(env.Data))
}

func TestIndex(t *testing.T) {
	rec := get(t, newServer(t), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	assert.Contains(t, body, dashboard.PageTitle)
	assert.Contains(t, body, dashboard.SidebarTitle)
	for _, v := range dashboard.Views() {
		assert.Contains(t, body, `value="`+v.Slug+`"`)
	}
}

func TestViews(t *testing.T) {
	rec := get(t, newServer(t), "/api/v1/views")
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Views        []dashboard.ViewInfo `json:"views"`
		ShowTypes    []string             `json:"showTypes"`
		GenreOptions []string             `json:"genreOptions"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Len(t, data.Views, 6)
	assert.Equal(t, []string{"Movies", "TV Shows"}, data.ShowTypes)
	assert.ElementsMatch(t, []string{"Comedy", "Drama", "Crime"}, data.GenreOptions)
}

func TestRender(t *testing.T) {
	h := newServer(t)

	rec := get(t, h, "/api/v1/render?view=types")
	require.Equal(t, http.StatusOK, rec.Code)

	var res dashboard.Result
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &res))
	assert.Equal(t, "types", res.Slug)
	require.NotNil(t, res.Chart)
	assert.Equal(t, []engine.ChartPoint{
		{Label: "Movie", Value: 1, Share: 50},
		{Label: "TV Show", Value: 1, Share: 50},
	}, res.Chart.Series[0].Data)
	assert.Nil(t, res.Data)

	rec = get(t, h, "/api/v1/render?view=Ratings&show_data=on")
	require.Equal(t, http.StatusOK, rec.Code)

	res = dashboard.Result{}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &res))
	assert.Equal(t, [][]string{{"PG-13", "Teens", "1"}, {"TV-MA", "Adults", "1"}}, res.Aggregate.Rows)
	require.NotNil(t, res.Data)
	assert.Len(t, res.Data.Rows, 2)

	rec = get(t, h, "/api/v1/render?view=timeline&genre=Crime")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRender_BadRequests(t *testing.T) {
	h := newServer(t)

	tests := []struct {
		name   string
		target string
		field  string
	}{
		{"unknown view", "/api/v1/render?view=heatmap", ""},
		{"unknown show type", "/api/v1/render?view=genres&show_type=Podcasts", "show_type"},
		{"genre not offered", "/api/v1/render?view=timeline&genre=Horror", ""},
		{"bad boolean", "/api/v1/render?view=types&show_data=maybe", ""},
		{"png too small", "/api/v1/render.png?view=types&width=10", "width"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			env := decode(t, rec)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
			if tt.field != "" {
				assert.Contains(t, env.Fields, tt.field)
			}
		})
	}
}

func TestRenderPNG(t *testing.T) {
	h := newServer(t)

	rec := get(t, h, "/api/v1/render.png?view=types&width=400&height=300")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rec.Body.String()[:4])

	rec = get(t, h, "/api/v1/render.png?view=genres")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = get(t, h, "/api/v1/render.png?view=timeline")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "no genres selected")

	rec = get(t, h, "/api/v1/render.png")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRenderPNG_RateLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netflix_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))
	cat, err := catalog.Load(path, nil, zerolog.Nop())
	require.NoError(t, err)

	h := server.New(catalog.NewStatic(cat), server.Options{PNGRate: 0.001, PNGBurst: 1}, zerolog.Nop())

	rec := get(t, h, "/api/v1/render.png?view=types")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, h, "/api/v1/render.png?view=types")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "too many requests", decode(t, rec).Error)

	// Other clients and other routes have their own budget.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/render.png?view=types", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, h, "/api/v1/render?view=types")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestData(t *testing.T) {
	h := newServer(t)

	rec := get(t, h, "/api/v1/data?limit=1&offset=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var table engine.TableData
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &table))
	assert.Equal(t, 2, table.Total)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Beta", table.Rows[0][1])

	rec = get(t, h, "/api/v1/data?limit=5000")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, h, "/api/v1/data?offset=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiagnostics(t *testing.T) {
	rec := get(t, newServer(t), "/api/v1/diagnostics")
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Titles      int                 `json:"titles"`
		Diagnostics catalog.Diagnostics `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Equal(t, 2, data.Titles)
	assert.Equal(t, 2, data.Diagnostics.Rows)
	assert.Equal(t, 2, data.Diagnostics.Kept)
}

func TestCatalogFailure(t *testing.T) {
	src := &catalog.FileSource{Path: filepath.Join(t.TempDir(), "missing.csv"), Logger: zerolog.Nop()}
	h := server.New(src, server.Options{}, zerolog.Nop())

	rec := get(t, h, "/api/v1/render?view=types")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "catalog unavailable", decode(t, rec).Error)

	rec = get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	h := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/views", nil)
	req.Header.Set("Origin", "http://dash.test")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://dash.test", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/views", nil)
	req.Header.Set("Origin", "http://other.test")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
