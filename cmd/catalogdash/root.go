package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/spektr-org/catalogdash/catalog"
	"github.com/spektr-org/catalogdash/config"
	"github.com/spektr-org/catalogdash/logging"
	"github.com/spektr-org/catalogdash/lookup"
)

// app carries the resolved settings into subcommands.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	envFile   string
	data      string
	tables    string
	logLevel  string
	logFormat string
}

func newRootCmd(ver string) *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "catalogdash",
		Short:        "Netflix catalog dashboard",
		Long:         "catalogdash loads the Netflix catalog CSV, derives rating buckets, continents and genres, and serves the dashboard views.",
		Version:      ver,
		Example:      rootCmdExample,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file to read before the environment")
	flags.StringVar(&a.data, "data", "", "path to the catalog CSV (default netflix_data.csv)")
	flags.StringVar(&a.tables, "tables", "", "path to a lookup tables YAML (default embedded)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: console or json")

	cmd.AddCommand(
		newServeCmd(a),
		newViewCmd(a),
		newViewsCmd(),
		newTableCmd(a),
		newVersionCmd(ver),
	)
	return cmd
}

const rootCmdExample = `  # Serve the dashboard on :8501
  catalogdash serve --data netflix_data.csv

  # Pick up edits to the CSV without restarting
  catalogdash serve --watch

  # Render one view as JSON
  catalogdash view ratings --format pretty

  # Export the timeline for two genres as CSV
  catalogdash view timeline --genre Dramas --genre Comedies --format csv --out timeline.csv

  # Print the first 20 transformed rows
  catalogdash table --limit 20`

// setup resolves configuration (flags > env > .env > defaults) and builds
// the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}

	changed := cmd.Flags().Changed
	if changed("data") {
		cfg.DataPath = a.data
	}
	if changed("tables") {
		cfg.TablesPath = a.tables
	}
	if changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = a.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.New(logging.Config{
		Writer: cmd.ErrOrStderr(),
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	return nil
}

func (a *app) lookupTables() (*lookup.Tables, error) {
	if a.cfg.TablesPath == "" {
		return lookup.Default()
	}
	tables, err := lookup.Load(a.cfg.TablesPath)
	if err != nil {
		return nil, fmt.Errorf("load lookup tables: %w", err)
	}
	return tables, nil
}

func (a *app) loadCatalog() (*catalog.Catalog, error) {
	tables, err := a.lookupTables()
	if err != nil {
		return nil, err
	}
	return catalog.Load(a.cfg.DataPath, tables, a.logger)
}

func newVersionCmd(ver string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "catalogdash %s\n", ver)
			return err
		},
	}
}
