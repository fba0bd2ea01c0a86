// Package render draws chart configs as PNG images on the server.
//
// Only flat chart types are drawn here: pie, bar and line. Geographic and
// hierarchical charts are left to the browser.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/spektr-org/catalogdash/engine"
)

var (
	// ErrUnsupported is returned for chart types without a PNG renderer.
	ErrUnsupported = errors.New("render: chart type not supported as png")
	// ErrEmpty is returned when the chart has no points to draw.
	ErrEmpty = errors.New("render: chart has no data")
)

// Size is the output image size in pixels.
type Size struct {
	Width  int
	Height int
}

// DefaultSize is used when a dimension is zero.
var DefaultSize = Size{Width: 1024, Height: 640}

func (s Size) orDefault() Size {
	if s.Width <= 0 {
		s.Width = DefaultSize.Width
	}
	if s.Height <= 0 {
		s.Height = DefaultSize.Height
	}
	return s
}

// Supported reports whether PNG can draw the chart type.
func Supported(chartType string) bool {
	switch chartType {
	case "pie", "bar", "line":
		return true
	}
	return false
}

// PNG writes cfg to w as a PNG image.
func PNG(w io.Writer, cfg *engine.ChartConfig, size Size) error {
	if cfg == nil {
		return ErrEmpty
	}
	size = size.orDefault()

	var r interface {
		Render(rp chart.RendererProvider, w io.Writer) error
	}
	var err error
	switch cfg.ChartType {
	case "pie":
		r, err = pieChart(cfg, size)
	case "bar":
		r, err = barChart(cfg, size)
	case "line":
		r, err = lineChart(cfg, size)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupported, cfg.ChartType)
	}
	if err != nil {
		return err
	}

	if err := r.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %s chart: %w", cfg.ChartType, err)
	}
	return nil
}

// ============================================================================
// CHARTS
// ============================================================================

func pieChart(cfg *engine.ChartConfig, size Size) (*chart.PieChart, error) {
	var values []chart.Value
	for _, s := range cfg.Series {
		for i, p := range s.Data {
			label := p.Label
			if p.Share > 0 {
				label = fmt.Sprintf("%s %s%%", p.Label, strconv.FormatFloat(p.Share, 'f', -1, 64))
			}
			values = append(values, chart.Value{
				Label: label,
				Value: p.Value,
				Style: chart.Style{
					FillColor:   colorAt(cfg.Colors, i),
					StrokeColor: drawing.ColorBlack,
					StrokeWidth: 2,
				},
			})
		}
	}
	if len(values) == 0 {
		return nil, ErrEmpty
	}

	return &chart.PieChart{
		Title:  cfg.Title,
		Width:  size.Width,
		Height: size.Height,
		Values: values,
	}, nil
}

// barChart draws one bar per point. With several series, bars are coloured
// by series and labelled "x (series)".
func barChart(cfg *engine.ChartConfig, size Size) (*chart.BarChart, error) {
	multi := len(cfg.Series) > 1

	var bars []chart.Value
	var top float64
	for i, s := range cfg.Series {
		color := parseColor(s.Color)
		if s.Color == "" {
			color = colorAt(cfg.Colors, i)
		}
		for _, p := range s.Data {
			label := p.Label
			if multi {
				label = fmt.Sprintf("%s (%s)", p.Label, s.Name)
			}
			bars = append(bars, chart.Value{
				Label: label,
				Value: p.Value,
				Style: chart.Style{FillColor: color, StrokeColor: color},
			})
			top = math.Max(top, p.Value)
		}
	}
	if len(bars) == 0 {
		return nil, ErrEmpty
	}

	barWidth := (size.Width - 120) / (len(bars) * 2)
	if barWidth < 8 {
		barWidth = 8
	}

	return &chart.BarChart{
		Title:    cfg.Title,
		Width:    size.Width,
		Height:   size.Height,
		BarWidth: barWidth,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.Style{TextRotationDegrees: 45},
		YAxis: chart.YAxis{
			Name:  cfg.YAxis,
			Range: &chart.ContinuousRange{Min: 0, Max: niceMax(top)},
		},
		Bars: bars,
	}, nil
}

// lineChart draws one continuous series per chart series. Labels are read
// as numbers (years); a non-numeric label falls back to its index.
func lineChart(cfg *engine.ChartConfig, size Size) (*chart.Chart, error) {
	var series []chart.Series
	var top float64
	for i, s := range cfg.Series {
		if len(s.Data) == 0 {
			continue
		}
		xs := make([]float64, 0, len(s.Data))
		ys := make([]float64, 0, len(s.Data))
		for j, p := range s.Data {
			x, err := strconv.ParseFloat(p.Label, 64)
			if err != nil {
				x = float64(j)
			}
			xs = append(xs, x)
			ys = append(ys, p.Value)
			top = math.Max(top, p.Value)
		}
		// Pad to at least two X values for go-chart
		if len(xs) == 1 {
			xs = append(xs, xs[0]+1)
			ys = append(ys, ys[0])
		}

		color := parseColor(s.Color)
		if s.Color == "" {
			color = colorAt(cfg.Colors, i)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		})
	}
	if len(series) == 0 {
		return nil, ErrEmpty
	}

	ch := &chart.Chart{
		Title:  cfg.Title,
		Width:  size.Width,
		Height: size.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 28},
		},
		XAxis: chart.XAxis{
			Name:           cfg.XAxis,
			ValueFormatter: wholeNumber,
		},
		YAxis: chart.YAxis{
			Name:  cfg.YAxis,
			Range: &chart.ContinuousRange{Min: 0, Max: niceMax(top)},
		},
		Series: series,
	}
	if cfg.ShowLegend {
		ch.Elements = []chart.Renderable{chart.Legend(ch)}
	}
	return ch, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func wholeNumber(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(math.Round(f), 'f', 0, 64)
	}
	return ""
}

// niceMax rounds v up to 1, 2 or 5 times a power of ten.
func niceMax(v float64) float64 {
	if v <= 0 {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(v)))
	for _, step := range []float64{1, 2, 5, 10} {
		if v <= step*mag {
			return step * mag
		}
	}
	return 10 * mag
}

var namedColors = map[string]string{
	"darkblue":  "00008b",
	"hotpink":   "ff69b4",
	"royalblue": "4169e1",
	"pink":      "ffc0cb",
	"black":     "000000",
	"white":     "ffffff",
}

func parseColor(c string) drawing.Color {
	c = strings.ToLower(strings.TrimSpace(c))
	if hex, ok := namedColors[c]; ok {
		return drawing.ColorFromHex(hex)
	}
	c = strings.TrimPrefix(c, "#")
	if len(c) == 6 || len(c) == 3 {
		return drawing.ColorFromHex(c)
	}
	return chart.ColorBlue
}

func colorAt(colors []string, i int) drawing.Color {
	if len(colors) == 0 {
		return chart.GetDefaultColor(i)
	}
	return parseColor(colors[i%len(colors)])
}
