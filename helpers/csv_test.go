package helpers_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/catalogdash/engine"
	"github.com/spektr-org/catalogdash/helpers"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeFile(t, "Type,Release Year,country\nMovie,2020,NA\nTV Show,2019,\"India, Nepal\"\n")

	df, err := helpers.ReadCSV(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"type", "release_year", "country"}, df.Names())
	assert.Equal(t, 2, df.Nrow())
	assert.Equal(t, []string{"2020", "2019"}, helpers.Column(df, "release_year"))
	assert.Equal(t, []string{"NA", "India, Nepal"}, helpers.Column(df, "country"))
	assert.Nil(t, helpers.Column(df, "missing"))
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	df, err := helpers.ReadCSV(writeFile(t, "Type, Release Year,country\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"type", "release_year", "country"}, df.Names())
	assert.Equal(t, 0, df.Nrow())
	assert.Empty(t, helpers.Column(df, "type"))
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := helpers.ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, helpers.ErrNotFound)
	assert.ErrorIs(t, err, os.ErrNotExist)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"ragged row", "a,b\n1,2,3\n", "wrong number of fields"},
		{"duplicate after normalising", "Type,type\nMovie,Movie\n", `duplicate column "type"`},
		{"blank header", "type,,rating\nMovie,x,PG\n", "empty column name at position 2"},
		{"blank header only", "type, \n", "empty column name at position 2"},
		{"empty file", "", "no header row"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := helpers.ReadCSV(writeFile(t, tt.content))
			require.ErrorIs(t, err, helpers.ErrMalformed)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWriteChartCSV(t *testing.T) {
	tests := []struct {
		name  string
		chart *engine.ChartConfig
		want  string
	}{
		{
			name: "single series",
			chart: &engine.ChartConfig{
				ChartType: "pie", XAxis: "Type", YAxis: "Count",
				Series: []engine.ChartSeries{{Name: "Share", Data: []engine.ChartPoint{
					{Label: "Movie", Value: 2}, {Label: "TV Show", Value: 1.5},
				}}},
			},
			want: "Type,Count\nMovie,2\nTV Show,1.50\n",
		},
		{
			name: "multi series",
			chart: &engine.ChartConfig{
				ChartType: "bar", XAxis: "Rating", YAxis: "Count",
				Series: []engine.ChartSeries{
					{Name: "Teens", Data: []engine.ChartPoint{{Label: "PG-13", Value: 1}}},
					{Name: "Adults", Data: []engine.ChartPoint{{Label: "TV-MA", Value: 3}}},
				},
			},
			want: "Series,Rating,Count\nTeens,PG-13,1\nAdults,TV-MA,3\n",
		},
		{
			name: "sunburst",
			chart: &engine.ChartConfig{
				ChartType: "sunburst",
				Series: []engine.ChartSeries{{Data: []engine.ChartPoint{
					{ID: "2019", Label: "2019", Value: 3},
					{ID: "2019/Drama", Label: "Drama", Parent: "2019", Value: 3},
				}}},
			},
			want: "ID,Label,Parent,Value\n2019,2019,,3\n2019/Drama,Drama,2019,3\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, helpers.WriteChartCSV(&buf, tt.chart))
			assert.Equal(t, tt.want, buf.String())
		})
	}

	assert.Error(t, helpers.WriteChartCSV(&bytes.Buffer{}, nil))
}

func TestWriteTableCSV(t *testing.T) {
	table := engine.NewTable("raw", []string{"rating", "target_ages"}, [][]string{
		{"PG-13", "Teens"},
		{"TV-MA", "Adults"},
	}, nil)

	var buf bytes.Buffer
	require.NoError(t, helpers.WriteTableCSV(&buf, table))
	assert.Equal(t, "Rating,Target Ages\nPG-13,Teens\nTV-MA,Adults\n", buf.String())

	assert.Error(t, helpers.WriteTableCSV(&bytes.Buffer{}, &engine.TableData{}))
}
