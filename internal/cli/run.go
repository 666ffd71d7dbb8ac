package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retailtools/retail-etl/internal/db"
	"github.com/retailtools/retail-etl/internal/schema"
)

var runSkipLoad bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: load, derive, report",
	Long: `Run the whole batch pipeline in dependency order: load the raw store
from the input file, recreate the derived relations, views and indexes,
then execute and export the report sequence.

With --skip-load the existing raw store is reused, so only the
derivation and reporting stages run.

Example:
  retail-etl run --input data/orders.csv --output-dir results/`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&loadInput, "input", "",
		"path of the delimited order-line file")
	runCmd.Flags().StringVar(&loadDelimiter, "delimiter", "",
		"field delimiter (default: comma)")
	runCmd.Flags().BoolVar(&loadDropExisting, "drop-existing", false,
		"drop all derived objects and metadata before loading")
	runCmd.Flags().BoolVar(&runSkipLoad, "skip-load", false,
		"reuse the existing raw store instead of loading")
	runCmd.Flags().StringVar(&reportOutputDir, "output-dir", "",
		"directory for exported CSV files (empty: print to stdout)")
	runCmd.Flags().StringVar(&reportFormat, "format", "",
		"stdout format: csv or table")
	runCmd.Flags().IntVar(&reportTopN, "top-n", 0,
		"row limit for top-N style reports")
	runCmd.Flags().StringVar(&reportCountry, "country", "",
		"country for the single-country report")
	runCmd.Flags().IntVar(&reportCustomer, "customer", 0,
		"customer id for the single-customer report")
}

func runRun(cmd *cobra.Command, args []string) error {
	if loadInput != "" {
		cfg.Load.Input = loadInput
	}
	if loadDelimiter != "" {
		cfg.Load.Delimiter = loadDelimiter
	}
	if loadDropExisting {
		cfg.Load.DropExisting = true
	}
	applyReportFlags()

	if !runSkipLoad {
		if err := cfg.ValidateLoad(); err != nil {
			return err
		}
	}
	if err := cfg.ValidateReport(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if runSkipLoad {
		exists, err := schema.RawTableExists(ctx, pool)
		if err != nil {
			return fmt.Errorf("failed to check raw store: %w", err)
		}
		if !exists {
			return fmt.Errorf("raw store not found; rerun without --skip-load")
		}
	} else {
		if err := loadDataset(ctx, pool); err != nil {
			return err
		}
	}

	if err := deriveSchema(ctx, pool); err != nil {
		return err
	}

	return runReports(ctx, pool)
}
