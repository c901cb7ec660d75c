package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"gotercih/adapters/excel"
	"gotercih/app"
	"gotercih/domain/school"
	"gotercih/internal/analysis/trend"

	"github.com/spf13/cobra"
)

func newEstimateCmd(g *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "estimate P1 P2 P3",
		Short: "Extrapolate three yearly percentiles to the next year",
		Long: `Fit a least-squares line through three yearly percentiles and extrapolate it
one year ahead. Cells use the same rules as a loaded file: comma decimals are
accepted, and "-", empty or non-positive cells are treated as missing.

Example: tercih estimate 3,1 3,3 3,5`,
		Args: cobra.ExactArgs(school.PeriodCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cells [school.PeriodCount]string
			copy(cells[:], args)

			res := standaloneCatalog().EstimateReadings(cells)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return writeEstimate(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

// standaloneCatalog can estimate ad-hoc readings without loading any data
func standaloneCatalog() *app.CatalogService {
	config := excel.DefaultExcelConfig()
	deps := app.CatalogDeps{
		Coercer:   excel.NewTableNormalizer(config.CoercionConfig),
		Estimator: trend.NewLinearEstimator(),
	}
	return app.NewCatalogService(deps, school.DefaultSchema(), app.DefaultQueryDefaults())
}

func writeEstimate(w io.Writer, res app.EstimateResult) error {
	readings := make([]string, len(res.Readings))
	for i, r := range res.Readings {
		readings[i] = excel.FormatReading(r)
		if readings[i] == "" {
			readings[i] = "-"
		}
	}
	fmt.Fprintf(w, "Yüzdelikler: %s\n", strings.Join(readings, " "))
	if !res.Estimate.Defined {
		_, err := fmt.Fprintln(w, "Tahmin: tanımsız")
		return err
	}
	_, err := fmt.Fprintf(w, "Tahmin: %s\n", excel.FormatEstimate(res.Estimate))
	return err
}

func newOptionsCmd(g *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "options [field]",
		Short: "List the distinct values of the category fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			var options map[string][]string
			if len(args) == 1 {
				values, err := c.Catalog.Options(args[0])
				if err != nil {
					return err
				}
				options = map[string][]string{args[0]: values}
			} else if options, err = c.Catalog.AllOptions(); err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), options)
			}
			return writeOptions(cmd.OutOrStdout(), options)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func writeOptions(w io.Writer, options map[string][]string) error {
	fields := make([]string, 0, len(options))
	for f := range options {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, f := range fields {
		fmt.Fprintf(w, "%s (%d)\n", f, len(options[f]))
		for _, v := range options[f] {
			fmt.Fprintf(w, "  %s\n", v)
		}
	}
	return nil
}

func newSummaryCmd(g *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show counts, estimate statistics and load problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			sum, err := c.Catalog.Summary()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), sum)
			}
			return writeSummary(cmd.OutOrStdout(), sum)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func writeSummary(w io.Writer, sum *app.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Source:\t%s\n", sum.Source)
	fmt.Fprintf(tw, "Revision:\t%s\n", sum.Revision)
	fmt.Fprintf(tw, "Schools:\t%d\n", sum.Total)
	fmt.Fprintf(tw, "Estimated:\t%d\n", sum.Estimated)
	fmt.Fprintf(tw, "Undefined:\t%d\n", sum.Undefined)
	if e := sum.Estimates; e != nil {
		fmt.Fprintf(tw, "Estimates:\tmean %.2f, median %.2f, range %.2f-%.2f\n", e.Mean, e.Median, e.Min, e.Max)
	}
	fmt.Fprintf(tw, "Problem cells:\t%d\n", len(sum.Report.Errors))
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(sum.Groups) > 0 {
		groups := make([]string, 0, len(sum.Groups))
		for g := range sum.Groups {
			groups = append(groups, g)
		}
		sort.Strings(groups)
		fmt.Fprintf(w, "\nBy %s:\n", sum.GroupField)
		for _, g := range groups {
			fmt.Fprintf(w, "  %s\t%d\n", g, sum.Groups[g])
		}
	}
	return nil
}
