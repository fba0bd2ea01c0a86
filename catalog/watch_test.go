package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/catalogdash/catalog"
)

func TestWatchSource_Reloads(t *testing.T) {
	path := writeCSV(t, fixture)
	src, err := catalog.NewWatchSource(path, nil, 20*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx) }()

	cat, err := src.Catalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, cat.Len())

	extra := `s7,Movie,Eta,,,France,"March 2, 2021",2021,PG,99 min,Drama,z` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(fixture+extra), 0o600))

	require.Eventually(t, func() bool {
		cat, err := src.Catalog(ctx)
		return err == nil && cat.Len() == 4
	}, 5*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	reloads := src.Reloads()
	assert.GreaterOrEqual(t, reloads, int64(1))

	// A broken file keeps the last good catalog.
	require.NoError(t, os.WriteFile(path, []byte("title\nOnly\n"), 0o600))
	time.Sleep(200 * time.Millisecond)
	cat, err = src.Catalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, cat.Len())
	assert.Equal(t, reloads, src.Reloads())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	_, err = src.Catalog(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatchSource_LoadErrors(t *testing.T) {
	_, err := catalog.NewWatchSource(filepath.Join(t.TempDir(), "missing.csv"), nil, time.Second, zerolog.Nop())
	assert.Error(t, err)
}
