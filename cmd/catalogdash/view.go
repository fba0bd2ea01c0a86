package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spektr-org/catalogdash/dashboard"
	"github.com/spektr-org/catalogdash/engine"
	"github.com/spektr-org/catalogdash/helpers"
)

func newViewCmd(a *app) *cobra.Command {
	var sel dashboard.Selection
	var format, outFile string

	cmd := &cobra.Command{
		Use:   "view <slug|name>",
		Short: "Render one dashboard view",
		Long:  "Render one dashboard view and write the chart, aggregate and captions as JSON, or the chart data as CSV.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := dashboard.ParseView(args[0])
			if err != nil {
				return err
			}
			sel.View = view
			if err := checkFormat(format); err != nil {
				return err
			}

			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}
			res, err := dashboard.Render(cat, sel, engine.WithLogger(a.logger))
			if err != nil {
				return err
			}

			return withOutput(cmd, outFile, func(w io.Writer) error {
				return writeResult(w, res, format)
			})
		},
	}

	cmd.Flags().StringVar(&sel.ShowType, "show-type", "", "Genres view: Movies or TV Shows")
	cmd.Flags().StringArrayVar(&sel.Genres, "genre", nil, "timeline view: genre to include (repeatable)")
	cmd.Flags().BoolVar(&sel.AllGenres, "all-genres", false, "timeline view: include every offered genre")
	cmd.Flags().BoolVar(&sel.ShowData, "show-data", false, "include the transformed dataset")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json, pretty, csv")
	cmd.Flags().StringVar(&outFile, "out", "", "write output to file instead of stdout")
	return cmd
}

func newViewsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List the dashboard views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tNAME\tQUESTION")
			for _, v := range dashboard.Views() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Slug, v.Name, v.Subheader)
			}
			return tw.Flush()
		},
	}
}

func newTableCmd(a *app) *cobra.Command {
	var limit, offset int
	var outFile string

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print the transformed dataset as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 || offset < 0 {
				return errors.New("--limit and --offset must be >= 0")
			}
			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}
			return withOutput(cmd, outFile, func(w io.Writer) error {
				return helpers.WriteTableCSV(w, cat.Table().Page(offset, limit))
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows (0 = all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	cmd.Flags().StringVar(&outFile, "out", "", "write output to file instead of stdout")
	return cmd
}

// ============================================================================
// OUTPUT
// ============================================================================

func withOutput(cmd *cobra.Command, outFile string, write func(io.Writer) error) error {
	if outFile == "" {
		return write(cmd.OutOrStdout())
	}

	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var outputFormats = []string{"json", "pretty", "csv"}

func checkFormat(format string) error {
	if !slices.Contains(outputFormats, format) {
		return fmt.Errorf("unknown format %q (want json, pretty or csv)", format)
	}
	return nil
}

func writeResult(w io.Writer, res *dashboard.Result, format string) error {
	switch format {
	case "csv":
		if res.Chart != nil {
			return helpers.WriteChartCSV(w, res.Chart)
		}
		if res.Data != nil {
			return helpers.WriteTableCSV(w, res.Data)
		}
		return fmt.Errorf("view %q has no chart; add --show-data to export the dataset", res.View)
	case "json", "pretty":
		enc := json.NewEncoder(w)
		if format == "pretty" {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(res)
	default:
		return checkFormat(format)
	}
}
