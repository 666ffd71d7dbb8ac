//-------------------------------------------------------------------------
//
// retail-etl
//
// Copyright (c) 2025 - 2026, Retail Tools
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retailtools/retail-etl/internal/logging"
	"github.com/retailtools/retail-etl/internal/schema"
)

// copyBatchSize is the number of rows sent per COPY round trip.
const copyBatchSize = 5000

// Stats summarizes one load run.
type Stats struct {
	// Loaded is the number of rows written to the raw store.
	Loaded int64

	// Skipped is the number of rows dropped by coercion failures.
	Skipped int64
}

// Loader reads a delimited order-line file into the raw store.
type Loader struct {
	pool      *pgxpool.Pool
	delimiter rune
}

// NewLoader creates a loader for the given pool and field delimiter.
func NewLoader(pool *pgxpool.Pool, delimiter rune) *Loader {
	return &Loader{pool: pool, delimiter: delimiter}
}

// Load recreates the raw store and bulk loads the file into it.
// Coercion failures drop the affected row and continue; only storage
// errors abort the run.
func (l *Loader) Load(ctx context.Context, path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	if err := schema.CreateRawTable(ctx, l.pool); err != nil {
		return Stats{}, err
	}

	stats, err := l.loadFrom(ctx, f)
	if err != nil {
		return stats, err
	}

	logging.Info().
		Str("source", path).
		Int64("loaded", stats.Loaded).
		Int64("skipped", stats.Skipped).
		Msg("Raw store loaded")

	return stats, nil
}

func (l *Loader) loadFrom(ctx context.Context, r io.Reader) (Stats, error) {
	reader := csv.NewReader(r)
	reader.Comma = l.delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read header: %w", err)
	}
	if err := ValidateHeader(header); err != nil {
		return Stats{}, err
	}

	var stats Stats
	batch := make([][]any, 0, copyBatchSize)
	line := 1

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			// Structurally broken line: tolerant-ETL drop.
			stats.Skipped++
			logging.Debug().Int("line", line).Err(err).Msg("Skipping unreadable row")
			continue
		}

		rec, err := ParseRecord(fields)
		if err != nil {
			stats.Skipped++
			logging.Debug().Int("line", line).Err(err).Msg("Skipping row")
			continue
		}

		batch = append(batch, rec.copyRow())
		if len(batch) >= copyBatchSize {
			if err := l.copyBatch(ctx, batch); err != nil {
				return stats, err
			}
			stats.Loaded += int64(len(batch))
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := l.copyBatch(ctx, batch); err != nil {
			return stats, err
		}
		stats.Loaded += int64(len(batch))
	}

	if stats.Skipped > 0 {
		logging.Warn().
			Int64("skipped", stats.Skipped).
			Msg("Some rows were dropped during coercion")
	}

	return stats, nil
}

func (l *Loader) copyBatch(ctx context.Context, batch [][]any) error {
	_, err := l.pool.CopyFrom(ctx,
		pgx.Identifier{"raw_invoice"},
		RawColumns,
		pgx.CopyFromRows(batch),
	)
	if err != nil {
		return fmt.Errorf("failed to copy rows into raw store: %w", err)
	}
	return nil
}
