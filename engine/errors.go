package engine

import "errors"

var (
	// ErrUnknownAggregation is returned for an aggregation the engine does not implement.
	ErrUnknownAggregation = errors.New("engine: unknown aggregation")
	// ErrUnknownChart is returned for a Visualize value with no chart builder.
	ErrUnknownChart = errors.New("engine: unknown chart type")
	// ErrNoGroupBy is returned for a chart query without any groupBy dimension.
	ErrNoGroupBy = errors.New("engine: chart requires a groupBy dimension")
	// ErrGroupDepth is returned when a chart needs more groupBy dimensions than given.
	ErrGroupDepth = errors.New("engine: not enough groupBy dimensions for chart")
)
