package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/catalogdash/catalog"
	"github.com/spektr-org/catalogdash/config"
	"github.com/spektr-org/catalogdash/dashboard"
	"github.com/spektr-org/catalogdash/helpers"
)

const fixture = "show_id,type,title,director,cast,country,date_added,release_year,rating,duration,listed_in,description\n" +
	`s1,Movie,Alpha,,,United States,"May 1, 2020",2020,PG-13,90 min,"Comedy, Drama",x` + "\n" +
	`s2,TV Show,Beta,,,India,"January 15, 2019",2019,TV-MA,2 Seasons,Crime,y` + "\n"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	data := filepath.Join(dir, "netflix_data.csv")
	require.NoError(t, os.WriteFile(data, []byte(fixture), 0o600))

	var out, errOut bytes.Buffer
	cmd := newRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{
		"--env-file", filepath.Join(dir, "missing.env"),
		"--data", data,
		"--log-level", "error",
	}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestViewCmd_JSON(t *testing.T) {
	out, err := run(t, "view", "types")
	require.NoError(t, err)

	var res dashboard.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, dashboard.ViewTypes, res.View)
	require.NotNil(t, res.Chart)
	assert.Equal(t, 50.0, res.Chart.Series[0].Data[0].Share)
}

func TestViewCmd_CSV(t *testing.T) {
	out, err := run(t, "view", "Ratings", "--format", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Series,rating,count", lines[0])
	assert.Equal(t, "Teens,PG-13,1", lines[1])
	assert.Equal(t, "Adults,TV-MA,1", lines[2])
}

func TestViewCmd_OutFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.json")
	out, err := run(t, "view", "timeline", "--all-genres", "--out", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	var res dashboard.Result
	require.NoError(t, json.Unmarshal(content, &res))
	assert.Len(t, res.Chart.Series, 4)
	assert.True(t, res.Controls.AllGenres)
}

func TestViewCmd_Errors(t *testing.T) {
	_, err := run(t, "view", "heatmap")
	assert.ErrorIs(t, err, dashboard.ErrUnknownView)

	_, err = run(t, "view", "genres", "--show-type", "Podcasts")
	assert.ErrorIs(t, err, dashboard.ErrInvalidSelection)

	_, err = run(t, "view", "none", "--format", "csv")
	assert.Error(t, err)

	_, err = run(t, "view", "types", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	out := filepath.Join(t.TempDir(), "types.xml")
	_, err = run(t, "--data", filepath.Join(t.TempDir(), "missing.csv"), "view", "types", "--format", "xml", "--out", out)
	assert.ErrorContains(t, err, "unknown format", "format is checked before the catalog loads")
	assert.NoFileExists(t, out)

	_, err = run(t, "--data", filepath.Join(t.TempDir(), "missing.csv"), "view", "types")
	assert.ErrorIs(t, err, helpers.ErrNotFound)

	_, err = run(t, "--log-format", "xml", "views")
	assert.ErrorContains(t, err, "log_format")
}

func TestTableCmd(t *testing.T) {
	out, err := run(t, "table", "--limit", "1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Type,Title,"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Movie,Alpha,"), lines[1])
}

func TestViewsAndVersion(t *testing.T) {
	out, err := run(t, "views")
	require.NoError(t, err)
	for _, v := range dashboard.Views() {
		assert.Contains(t, out, v.Slug)
	}

	out, err = run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "catalogdash test\n", out)
}

func TestServeSource(t *testing.T) {
	data := filepath.Join(t.TempDir(), "netflix_data.csv")
	require.NoError(t, os.WriteFile(data, []byte(fixture), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   any
	}{
		{"static", func(*config.Config) {}, &catalog.Static{}},
		{"reload", func(c *config.Config) { c.Reload = true }, &catalog.FileSource{}},
		{"watch", func(c *config.Config) { c.Watch = true }, &catalog.WatchSource{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.DataPath = data
			tt.mutate(cfg)

			a := &app{cfg: cfg, logger: zerolog.Nop()}
			src, err := a.source(ctx)
			require.NoError(t, err)
			assert.IsType(t, tt.want, src)

			cat, err := src.Catalog(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, cat.Len())
		})
	}
}
