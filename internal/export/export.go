//-------------------------------------------------------------------------
//
// retail-etl
//
// Copyright (c) 2025 - 2026, Retail Tools
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package export renders report results as delimited text.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/retailtools/retail-etl/internal/logging"
	"github.com/retailtools/retail-etl/internal/report"
)

// flushEvery bounds the csv writer's internal buffering on large results.
const flushEvery = 1000

// RenderCSV renders one result as RFC-4180 CSV, header row first.
func RenderCSV(res report.Result) ([]byte, error) {
	buffer := bytes.NewBuffer(make([]byte, 0, 64*1024))
	writer := csv.NewWriter(buffer)

	if err := writer.Write(res.Columns); err != nil {
		return nil, err
	}
	for i, row := range res.Rows {
		if err := writer.Write(row); err != nil {
			return nil, err
		}
		if (i+1)%flushEvery == 0 {
			writer.Flush()
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// WriteCSVFiles exports each result to <dir>/<name>.csv.
func WriteCSVFiles(dir string, results []report.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, res := range results {
		data, err := RenderCSV(res)
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", res.Name, err)
		}
		path := filepath.Join(dir, res.Name+".csv")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		logging.Info().
			Str("report", res.Name).
			Str("path", path).
			Int("rows", len(res.Rows)).
			Msg("Exported report")
	}

	return nil
}

// WriteCSV streams one result as CSV to w.
func WriteCSV(w io.Writer, res report.Result) error {
	data, err := RenderCSV(res)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteTable prints one result as an aligned text table.
func WriteTable(w io.Writer, res report.Result) error {
	fmt.Fprintf(w, "== %s (%d rows)\n", res.Name, len(res.Rows))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	writeTabRow(tw, res.Columns)
	for _, row := range res.Rows {
		writeTabRow(tw, row)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func writeTabRow(w io.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, f)
	}
	fmt.Fprintln(w)
}
