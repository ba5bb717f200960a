package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"scoregaps/adapters/excel"
	"scoregaps/adapters/postgres"
	"scoregaps/app"
	"scoregaps/domain/comparison"
	"scoregaps/domain/effectsize"
	"scoregaps/domain/facts"
	"scoregaps/internal"
	"scoregaps/internal/config"
	"scoregaps/internal/container"
	"scoregaps/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// selectionFlags are shared by every command that builds a view
type selectionFlags struct {
	variables   []string
	assessments []string
	prefixes    []string
	all         bool
	defaults    bool
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.variables, "variable", nil, "Variable to include (repeatable)")
	cmd.Flags().StringSliceVar(&f.assessments, "assessment", nil, `Assessment to include, e.g. "LSAT - US - 2023" (repeatable)`)
	cmd.Flags().StringSliceVar(&f.prefixes, "prefix", nil, "Assessment family to include, e.g. NAEP (repeatable)")
	cmd.Flags().BoolVar(&f.all, "all", false, "Include every assessment")
	cmd.Flags().BoolVar(&f.defaults, "defaults", false, "Use the default selection")
}

func (f *selectionFlags) selection(svc *app.DashboardService) facts.Selection {
	if f.defaults || (len(f.variables) == 0 && len(f.assessments) == 0 && len(f.prefixes) == 0 && !f.all) {
		return svc.DefaultSelection()
	}
	return facts.Selection{
		Variables:      f.variables,
		Assessments:    f.assessments,
		Prefixes:       f.prefixes,
		AllAssessments: f.all,
	}
}

var (
	sourceFlag string
	fileFlag   string
	urlFlag    string
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "scoregaps",
		Short:        "Score gaps across assessments: Cohen's d grids in the terminal",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&sourceFlag, "source", "", "Fact source: file, http or postgres (overrides DATA_SOURCE)")
	rootCmd.PersistentFlags().StringVar(&fileFlag, "file", "", "Fact file (overrides DATA_FILE)")
	rootCmd.PersistentFlags().StringVar(&urlFlag, "url", "", "Fact CSV URL (overrides DATA_URL)")

	rootCmd.AddCommand(
		newGridCmd(),
		newTableCmd(),
		newOptionsCmd(),
		newExportCmd(),
		newETLCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if sourceFlag != "" {
		os.Setenv("DATA_SOURCE", sourceFlag)
	}
	if fileFlag != "" {
		os.Setenv("DATA_FILE", fileFlag)
	}
	if urlFlag != "" {
		os.Setenv("DATA_URL", urlFlag)
	}
	if os.Getenv("LOG_LEVEL") == "" {
		os.Setenv("LOG_LEVEL", "WARN")
	}
	return config.Load()
}

// loadService builds the container and loads the fact table
func loadService(ctx context.Context) (*container.Container, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	c, err := container.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Service.Load(ctx); err != nil {
		c.Shutdown(ctx)
		return nil, err
	}
	return c, nil
}

func newGridCmd() *cobra.Command {
	var sel selectionFlags
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Show the colour-coded Cohen's d grid for each selected variable",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadService(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			view, err := c.Service.Build(sel.selection(c.Service))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if view.Empty() {
				fmt.Fprintln(out, "No data matches the selection.")
				return nil
			}
			for _, g := range view.Grids {
				fmt.Fprintln(out, renderGrid(g))
			}
			fmt.Fprintln(out, renderLegend(app.Legend()))
			fmt.Fprintln(out, renderFootnotes(view.Footnotes))
			return nil
		},
	}
	sel.register(cmd)
	return cmd
}

func newTableCmd() *cobra.Command {
	var sel selectionFlags
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Show the full, non-pivoted table for the selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadService(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			view, err := c.Service.Build(sel.selection(c.Service))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(view.Table))
			return nil
		},
	}
	sel.register(cmd)
	return cmd
}

func newOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List the variables and assessment families in the data",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadService(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			opts, err := c.Service.Options()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderOptions(opts, c.Service.Resolver()))
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var sel selectionFlags
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the selection to a CSV or Excel file",
		Example: `  scoregaps export --variable Gender --prefix SAT --format xlsx --out gaps.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadService(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			if out == "" {
				out = "score_gaps." + format
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := c.Service.Export(f, sel.selection(c.Service), format); err != nil {
				f.Close()
				os.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}
	sel.register(cmd)
	cmd.Flags().StringVar(&format, "format", app.FormatCSV, "Export format: csv or xlsx")
	cmd.Flags().StringVar(&out, "out", "", "Output path (default score_gaps.<format>)")
	return cmd
}

func newETLCmd() *cobra.Command {
	var in, out, databaseURL, registryFile string
	cmd := &cobra.Command{
		Use:   "etl",
		Short: "Fill in missing Cohen's d values and publish the fact table",
		Long: `Reads a fact file, computes Cohen's d against each variable's comparison
group wherever it is missing, then writes the result to a CSV file and,
with --database-url, replaces the fact_rows table in Postgres.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := cliLogger()
			table, err := excel.NewFileSource(in).WithLogger(logger).Fetch(ctx)
			if err != nil {
				return err
			}
			reg, err := container.LoadRegistry(registryFile)
			if err != nil {
				return err
			}

			var writer ports.FactWriter
			if databaseURL != "" {
				db, err := container.OpenDatabase(ctx, databaseURL)
				if err != nil {
					return err
				}
				defer db.Close()
				writer = postgres.NewFactRepository(db).WithLogger(logger)
			}
			return runETL(ctx, cmd.OutOrStdout(), table, comparison.NewResolver(reg.Comparison), out, writer)
		},
	}
	cmd.Flags().StringVar(&in, "in", "merged_data.csv", "Input fact file (.csv or .xlsx)")
	cmd.Flags().StringVar(&out, "out", "", "Output CSV path")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres URL to import into")
	cmd.Flags().StringVar(&registryFile, "registry", os.Getenv("REGISTRY_FILE"), "Ordering registry YAML (default embedded)")
	return cmd
}

// runETL backfills Cohen's d, then writes the table to out and imports it
// through writer. Empty out or nil writer skips that step.
func runETL(ctx context.Context, w io.Writer, table *facts.Table, refs effectsize.ReferenceLookup, out string, writer ports.FactWriter) error {
	filled, n := effectsize.Backfill(table, refs)
	fmt.Fprintf(w, "Computed Cohen's d for %d of %d rows\n", n, filled.Len())

	if out != "" {
		if err := writeFactsFile(out, filled); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %s\n", out)
	}
	if writer != nil {
		rows, err := writer.ReplaceAll(ctx, filled)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Imported %d rows into fact_rows\n", rows)
	}
	return nil
}

// cliLogger honours LOG_LEVEL and stays quiet (WARN) when it is unset
func cliLogger() *internal.Logger {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "WARN"
	}
	return internal.NewLogger(internal.ParseLogLevel(level))
}

func writeFactsFile(path string, table *facts.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := excel.WriteFacts(f, table); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
