package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gotercih/adapters/excel"
	"gotercih/app"
	"gotercih/domain/school"
	"gotercih/internal/config"
	"gotercih/internal/container"
	"gotercih/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags override the environment configuration for one invocation
type globalFlags struct {
	dataFile  string
	encoding  string
	delimiter string
	sheet     string
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:           "tercih",
		Short:         "LGS school percentile estimates and range queries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.dataFile, "data", "", "Data file (CSV or XLSX); overrides DATA_FILE")
	rootCmd.PersistentFlags().StringVar(&g.encoding, "encoding", "", "Encoding of a CSV file: utf-8|iso-8859-9|windows-1254")
	rootCmd.PersistentFlags().StringVar(&g.delimiter, "delimiter", "", "CSV delimiter, or auto")
	rootCmd.PersistentFlags().StringVar(&g.sheet, "sheet", "", "XLSX sheet name")

	rootCmd.AddCommand(
		newMatchCmd(&g),
		newEstimateCmd(&g),
		newOptionsCmd(&g),
		newSummaryCmd(&g),
	)
	return rootCmd
}

// loadCatalog builds the container and performs the first load
func loadCatalog(ctx context.Context, g *globalFlags) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if g.dataFile != "" {
		cfg.Source.DataFile = g.dataFile
	}
	if g.encoding != "" {
		cfg.Source.Encoding = g.encoding
	}
	if g.delimiter != "" {
		cfg.Source.Delimiter = g.delimiter
	}
	if g.sheet != "" {
		cfg.Source.Sheet = g.sheet
	}

	c, err := container.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		_ = c.Shutdown(ctx)
		return nil, err
	}
	return c, nil
}

func newMatchCmd(g *globalFlags) *cobra.Command {
	var (
		center    float64
		tolerance float64
		restrict  []string
		format    string
		out       string
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "List schools whose estimate falls within center ± tolerance",
		Long: `List schools whose next-year estimate falls within [center-tolerance, center+tolerance],
clamped to [0, 100] and sorted by estimate.

Restrictions are given per category field. Repeat --restrict to allow several
values; "FIELD=" with no value selects nothing and the result is empty.

Example: tercih match --data okullar.csv --center 5 --tolerance 1 --restrict "İLÇE=Kadıköy" --format csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, out); err != nil {
				return err
			}
			restrictions, err := parseRestrictions(restrict)
			if err != nil {
				return err
			}
			c, err := loadCatalog(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			req := app.QueryRequest{Center: center, Tolerance: tolerance, Restrictions: restrictions}
			rs, err := c.Catalog.Match(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeResults(cmd.OutOrStdout(), rs, format, out)
		},
	}

	defaults := app.DefaultQueryDefaults()
	cmd.Flags().Float64Var(&center, "center", defaults.Center, "Target percentile")
	cmd.Flags().Float64Var(&tolerance, "tolerance", defaults.Tolerance, "Allowed distance from the center")
	cmd.Flags().StringArrayVar(&restrict, "restrict", nil, "Category restriction FIELD=VALUE (repeatable)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|csv|xlsx|json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to file instead of stdout (required for xlsx)")
	return cmd
}

// parseRestrictions turns FIELD=VALUE pairs into a restriction map. A field
// given only as "FIELD=" gets an empty, non-nil selection.
func parseRestrictions(pairs []string) (map[string][]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	restrictions := make(map[string][]string)
	for _, pair := range pairs {
		field, value, ok := strings.Cut(pair, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid restriction %q, expected FIELD=VALUE", pair)
		}
		if _, seen := restrictions[field]; !seen {
			restrictions[field] = []string{}
		}
		if value = strings.TrimSpace(value); value != "" {
			restrictions[field] = append(restrictions[field], value)
		}
	}
	return restrictions, nil
}

func checkFormat(format, out string) error {
	switch format {
	case "table", "json", "csv":
		return nil
	case "xlsx":
		if out == "" {
			return fmt.Errorf("--out is required for xlsx output")
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeResults(stdout io.Writer, rs *school.ResultSet, format, out string) error {
	var writer ports.ResultWriter
	switch format {
	case "table":
		return withOutput(stdout, out, rs.Len(), func(w io.Writer) error { return writeTable(w, rs) })
	case "json":
		return withOutput(stdout, out, rs.Len(), func(w io.Writer) error { return writeJSON(w, rs) })
	case "csv":
		writer = excel.NewCSVWriter()
	case "xlsx":
		writer = excel.NewXLSXWriter()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return withOutput(stdout, out, rs.Len(), func(w io.Writer) error { return writer.Write(w, rs.Schema, rs) })
}

// withOutput runs fn against stdout, or a created file when path is set
func withOutput(stdout io.Writer, path string, count int, fn func(io.Writer) error) error {
	if path == "" {
		return fn(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "%d schools written to %s\n", count, path)
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, rs *school.ResultSet) error {
	fmt.Fprintln(w, app.BoundsCaption(rs.Bounds))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(rs.Schema.OutputColumns(), "\t"))
	for _, m := range rs.Matches {
		fmt.Fprintln(tw, strings.Join(excel.Record(rs.Schema, m.School), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d / %d okul\n", rs.Len(), rs.Total)
	return nil
}
