package engine

import "github.com/rs/zerolog"

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	DefaultMeasure  string // measure key if QuerySpec.Measure is empty
	PeriodDimension string // year-like dimension used for {period}
	Labels          Labeler
	Logger          zerolog.Logger
}

// Labeler returns the display label of a dimension or measure key, and
// whether it knows the key.
type Labeler func(key string) (string, bool)

// Label resolves key through l, falling back to LabelForDimension. A nil
// Labeler always falls back.
func (l Labeler) Label(key string) string {
	if l != nil {
		if label, ok := l(key); ok {
			return label
		}
	}
	return LabelForDimension(key)
}

// WithDefaultMeasure sets the measure to aggregate when QuerySpec.Measure is empty.
func WithDefaultMeasure(measure string) Option {
	return func(c *config) {
		c.DefaultMeasure = measure
	}
}

// WithPeriodDimension names the dimension used to derive the {period} placeholder.
func WithPeriodDimension(dimension string) Option {
	return func(c *config) {
		c.PeriodDimension = dimension
	}
}

// WithLabels sets the display labels used for axis titles and table columns.
func WithLabels(labels Labeler) Option {
	return func(c *config) {
		c.Labels = labels
	}
}

// WithLogger routes engine debug logging to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.Logger = logger
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		DefaultMeasure: "record_count",
		Logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
