package engine

import (
	"fmt"
	"slices"
)

// ============================================================================
// RECORD VIEW — read-only row access
// ============================================================================
// The engine never owns the catalog. Every stage reads rows through
// RecordView by position:
//
//   Records        loose []Record rows (fixtures, ad-hoc tables)
//   Fields[T]      typed rows read through registered accessors
//   subset         row positions into a parent view
// ============================================================================

// RecordView is a positional, read-only table. An out-of-range index or an
// unknown key reads as "" or 0.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) float64
	DimensionKeys() []string
	MeasureKeys() []string
}

// ============================================================================
// RECORDS
// ============================================================================

// Records is a RecordView over loose rows. Keys are the sorted union of the
// keys present on any row.
type Records []Record

func (rs Records) Len() int { return len(rs) }

func (rs Records) Dimension(i int, key string) string {
	if i < 0 || i >= len(rs) {
		return ""
	}
	return rs[i].Dimensions[key]
}

func (rs Records) Measure(i int, key string) float64 {
	if i < 0 || i >= len(rs) {
		return 0
	}
	return rs[i].Measures[key]
}

func (rs Records) DimensionKeys() []string {
	return unionKeys(rs, func(r Record) []string { return mapKeys(r.Dimensions) })
}

func (rs Records) MeasureKeys() []string {
	return unionKeys(rs, func(r Record) []string { return mapKeys(r.Measures) })
}

func unionKeys(rs Records, keysOf func(Record) []string) []string {
	var keys []string
	for _, r := range rs {
		for _, k := range keysOf(r) {
			if !slices.Contains(keys, k) {
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys)
	return keys
}

func mapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// ============================================================================
// SUBSET
// ============================================================================

// subset exposes selected rows of a parent view without copying them.
type subset struct {
	parent RecordView
	rows   []int
}

// selectRows narrows parent to rows. Subsets of subsets collapse onto the
// root view so that grouping a filtered view costs one indirection.
func selectRows(parent RecordView, rows []int) RecordView {
	if s, ok := parent.(subset); ok {
		mapped := make([]int, len(rows))
		for i, r := range rows {
			mapped[i] = s.rows[r]
		}
		return subset{parent: s.parent, rows: mapped}
	}
	return subset{parent: parent, rows: rows}
}

func (s subset) Len() int { return len(s.rows) }

func (s subset) Dimension(i int, key string) string {
	if i < 0 || i >= len(s.rows) {
		return ""
	}
	return s.parent.Dimension(s.rows[i], key)
}

func (s subset) Measure(i int, key string) float64 {
	if i < 0 || i >= len(s.rows) {
		return 0
	}
	return s.parent.Measure(s.rows[i], key)
}

func (s subset) DimensionKeys() []string { return s.parent.DimensionKeys() }
func (s subset) MeasureKeys() []string   { return s.parent.MeasureKeys() }

// ============================================================================
// TYPED FIELDS
// ============================================================================
//
//	fields := engine.NewFields[catalog.Title]().
//	    Dimension("rating", func(t catalog.Title) string { return t.Rating }).
//	    Measure("release_year", func(t catalog.Title) float64 { return float64(t.ReleaseYear) })
//
//	view := fields.Bind(titles)
//
// ============================================================================

// Fields maps column keys to accessors on T. Register every key before the
// first Bind; bound views share the registrations.
type Fields[T any] struct {
	dimKeys []string
	mesKeys []string
	dims    map[string]func(T) string
	meas    map[string]func(T) float64
}

// NewFields returns an empty accessor set for T.
func NewFields[T any]() *Fields[T] {
	return &Fields[T]{
		dims: make(map[string]func(T) string),
		meas: make(map[string]func(T) float64),
	}
}

// Dimension registers a string column. Registering a key twice panics.
func (f *Fields[T]) Dimension(key string, fn func(T) string) *Fields[T] {
	if _, dup := f.dims[key]; dup {
		panic(fmt.Sprintf("engine: dimension %q registered twice", key))
	}
	f.dims[key] = fn
	f.dimKeys = append(f.dimKeys, key)
	return f
}

// Measure registers a numeric column. Registering a key twice panics.
func (f *Fields[T]) Measure(key string, fn func(T) float64) *Fields[T] {
	if _, dup := f.meas[key]; dup {
		panic(fmt.Sprintf("engine: measure %q registered twice", key))
	}
	f.meas[key] = fn
	f.mesKeys = append(f.mesKeys, key)
	return f
}

// Bind returns a view over rows. The slice is referenced, not copied.
func (f *Fields[T]) Bind(rows []T) RecordView {
	return typedView[T]{rows: rows, fields: f}
}

type typedView[T any] struct {
	rows   []T
	fields *Fields[T]
}

func (v typedView[T]) Len() int { return len(v.rows) }

func (v typedView[T]) Dimension(i int, key string) string {
	fn, ok := v.fields.dims[key]
	if !ok || i < 0 || i >= len(v.rows) {
		return ""
	}
	return fn(v.rows[i])
}

func (v typedView[T]) Measure(i int, key string) float64 {
	fn, ok := v.fields.meas[key]
	if !ok || i < 0 || i >= len(v.rows) {
		return 0
	}
	return fn(v.rows[i])
}

func (v typedView[T]) DimensionKeys() []string { return slices.Clone(v.fields.dimKeys) }
func (v typedView[T]) MeasureKeys() []string   { return slices.Clone(v.fields.mesKeys) }
