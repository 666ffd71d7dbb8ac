package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/retailtools/retail-etl/internal/db"
	"github.com/retailtools/retail-etl/internal/ingest"
	"github.com/retailtools/retail-etl/internal/logging"
	"github.com/retailtools/retail-etl/internal/schema"
)

var (
	loadInput        string
	loadDelimiter    string
	loadDropExisting bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a delimited order-line file into the raw store",
	Long: `Load the input dataset into the raw_invoice table. The raw table is
recreated before loading, so re-running load replaces the snapshot.

Coercion failures follow a tolerant-ETL stance: a non-numeric customer
identifier nulls the customer reference, and rows with an unparseable
quantity, price, or date are dropped and counted rather than aborting.

Example:
  retail-etl load --input data/orders.csv --connection "postgres://..."`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadInput, "input", "",
		"path of the delimited order-line file")
	loadCmd.Flags().StringVar(&loadDelimiter, "delimiter", "",
		"field delimiter (default: comma)")
	loadCmd.Flags().BoolVar(&loadDropExisting, "drop-existing", false,
		"drop all derived objects and metadata before loading")
}

func runLoad(cmd *cobra.Command, args []string) error {
	if loadInput != "" {
		cfg.Load.Input = loadInput
	}
	if loadDelimiter != "" {
		cfg.Load.Delimiter = loadDelimiter
	}
	if loadDropExisting {
		cfg.Load.DropExisting = true
	}

	if err := cfg.ValidateLoad(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	return loadDataset(ctx, pool)
}

// loadDataset performs the load step against an open pool.
func loadDataset(ctx context.Context, pool *pgxpool.Pool) error {
	if cfg.Load.DropExisting {
		logging.Info().Msg("Dropping existing schema")
		if err := schema.DropAll(ctx, pool); err != nil {
			return err
		}
		if err := db.DropMetadata(ctx, pool); err != nil {
			logging.Debug().Err(err).Msg("No metadata table to drop")
		}
	}

	delimiter := []rune(cfg.Load.Delimiter)[0]
	loader := ingest.NewLoader(pool, delimiter)

	stats, err := loader.Load(ctx, cfg.Load.Input)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	if err := db.SaveLoadMetadata(ctx, pool, cfg.Load.Input, stats.Loaded); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logging.Info().
		Int64("loaded", stats.Loaded).
		Int64("skipped", stats.Skipped).
		Msg("Load complete")

	return nil
}
