package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/retailtools/retail-etl/internal/db"
	"github.com/retailtools/retail-etl/internal/export"
	"github.com/retailtools/retail-etl/internal/report"
)

var (
	reportOutputDir string
	reportFormat    string
	reportTopN      int
	reportCountry   string
	reportCustomer  int
	reportOnly      string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run the analytical report sequence",
	Long: `Run the fixed sequence of analytical reports against the derived
relations and export each result set. With --output-dir the results are
written as one CSV file per report; otherwise they are printed to stdout
in the configured format.

Example:
  retail-etl report --output-dir results/ --top-n 20
  retail-etl report --only revenue_by_country --format table`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportOutputDir, "output-dir", "",
		"directory for exported CSV files (empty: print to stdout)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "",
		"stdout format: csv or table")
	reportCmd.Flags().IntVar(&reportTopN, "top-n", 0,
		"row limit for top-N style reports")
	reportCmd.Flags().StringVar(&reportCountry, "country", "",
		"country for the single-country report")
	reportCmd.Flags().IntVar(&reportCustomer, "customer", 0,
		"customer id for the single-customer report")
	reportCmd.Flags().StringVar(&reportOnly, "only", "",
		"run a single report by name")
}

func runReport(cmd *cobra.Command, args []string) error {
	applyReportFlags()

	if err := cfg.ValidateReport(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	return runReports(ctx, pool)
}

func applyReportFlags() {
	if reportOutputDir != "" {
		cfg.Report.OutputDir = reportOutputDir
	}
	if reportFormat != "" {
		cfg.Report.Format = reportFormat
	}
	if reportTopN > 0 {
		cfg.Report.TopN = reportTopN
	}
	if reportCountry != "" {
		cfg.Report.Country = reportCountry
	}
	if reportCustomer > 0 {
		cfg.Report.CustomerID = reportCustomer
	}
}

// runReports executes the report sequence against an open pool and
// writes the results per the report configuration.
func runReports(ctx context.Context, pool *pgxpool.Pool) error {
	runner := report.NewRunner(pool, report.Options{
		TopN:       cfg.Report.TopN,
		Country:    cfg.Report.Country,
		CustomerID: cfg.Report.CustomerID,
	})

	var results []report.Result
	if reportOnly != "" {
		res, err := runner.Run(ctx, reportOnly)
		if err != nil {
			return err
		}
		results = []report.Result{res}
	} else {
		var err error
		results, err = runner.RunAll(ctx)
		if err != nil {
			return err
		}
	}

	if cfg.Report.OutputDir != "" {
		return export.WriteCSVFiles(cfg.Report.OutputDir, results)
	}

	for _, res := range results {
		if cfg.Report.Format == "table" {
			if err := export.WriteTable(os.Stdout, res); err != nil {
				return err
			}
			continue
		}
		if err := export.WriteCSV(os.Stdout, res); err != nil {
			return err
		}
		fmt.Println()
	}

	return nil
}
