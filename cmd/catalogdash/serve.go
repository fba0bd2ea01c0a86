package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spektr-org/catalogdash/catalog"
	"github.com/spektr-org/catalogdash/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	var reload, watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Addr = addr
			}
			if cmd.Flags().Changed("reload") {
				a.cfg.Reload = reload
			}
			if cmd.Flags().Changed("watch") {
				a.cfg.Watch = watch
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8501", "listen address")
	cmd.Flags().BoolVar(&reload, "reload", false, "re-read the CSV on every request")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the CSV when it changes on disk")
	return cmd
}

// source loads the catalog up front, so a bad file fails at startup in
// every mode. A watch source starts its event loop on ctx.
func (a *app) source(ctx context.Context) (catalog.Source, error) {
	tables, err := a.lookupTables()
	if err != nil {
		return nil, err
	}
	if a.cfg.Watch {
		ws, err := catalog.NewWatchSource(a.cfg.DataPath, tables, a.cfg.WatchDelay, a.logger)
		if err != nil {
			return nil, err
		}
		go func() {
			if err := ws.Run(ctx); err != nil {
				a.logger.Error().Err(err).Msg("catalog watcher stopped")
			}
		}()
		return ws, nil
	}

	cat, err := catalog.Load(a.cfg.DataPath, tables, a.logger)
	if err != nil {
		return nil, err
	}
	if a.cfg.Reload {
		return &catalog.FileSource{Path: a.cfg.DataPath, Tables: tables, Logger: a.logger}, nil
	}
	return catalog.NewStatic(cat), nil
}

func (a *app) serve(ctx context.Context) error {
	src, err := a.source(ctx)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: a.cfg.Addr,
		Handler: server.New(src, server.Options{
			AllowedOrigins: a.cfg.AllowedOrigins,
			Version:        version,
			PNGRate:        a.cfg.PNGRate,
			PNGBurst:       a.cfg.PNGBurst,
		}, a.logger),
		ReadTimeout:       a.cfg.ReadTimeout,
		ReadHeaderTimeout: a.cfg.ReadTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().
			Str("addr", a.cfg.Addr).
			Bool("reload", a.cfg.Reload).
			Bool("watch", a.cfg.Watch).
			Str("data", a.cfg.DataPath).
			Msg("dashboard listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
