//-------------------------------------------------------------------------
//
// retail-etl
//
// Copyright (c) 2025 - 2026, Retail Tools
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package report runs the fixed sequence of analytical queries over the
// raw store and the derived relations.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retailtools/retail-etl/internal/logging"
)

// Result holds one report's tabular output. Rows are pre-formatted
// strings so every output format renders them the same way.
type Result struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Definition describes one report in the fixed sequence.
type Definition struct {
	// Name is the report identifier, also the export file stem.
	Name string

	// Description describes what the report computes.
	Description string

	// Kind is the report category (exploration, aggregate, view, filter).
	Kind string
}

// Definitions returns the report sequence in execution order. The order
// only matters for readability; every report is an independent read.
func Definitions() []Definition {
	return []Definition{
		{
			Name:        "dataset_profile",
			Description: "Row counts, distinct dimensions and date range of the raw store",
			Kind:        "exploration",
		},
		{
			Name:        "revenue_by_country",
			Description: "Revenue and units per country via the country_revenue view",
			Kind:        "view",
		},
		{
			Name:        "top_products_by_quantity",
			Description: "Best-selling stock codes by total quantity",
			Kind:        "aggregate",
		},
		{
			Name:        "top_customers_by_revenue",
			Description: "Highest-revenue customers, guests excluded",
			Kind:        "aggregate",
		},
		{
			Name:        "revenue_per_invoice",
			Description: "Largest invoices by total line revenue",
			Kind:        "aggregate",
		},
		{
			Name:        "average_invoice_revenue",
			Description: "Average of per-invoice revenue (nested aggregation)",
			Kind:        "aggregate",
		},
		{
			Name:        "customers_above_average",
			Description: "Customers whose revenue exceeds the average customer revenue",
			Kind:        "aggregate",
		},
		{
			Name:        "country_detail",
			Description: "Aggregated activity for a single country",
			Kind:        "filter",
		},
		{
			Name:        "customer_invoices",
			Description: "Invoice listing for a single customer",
			Kind:        "filter",
		},
		{
			Name:        "invoice_line_detail",
			Description: "Denormalized line sample via the invoice_lines view",
			Kind:        "view",
		},
		{
			Name:        "grand_total_revenue",
			Description: "Total revenue over the raw store",
			Kind:        "aggregate",
		},
	}
}

// Options holds the report parameters.
type Options struct {
	// TopN limits top-N style reports.
	TopN int

	// Country selects the dimension value for country_detail.
	Country string

	// CustomerID selects the dimension value for customer_invoices.
	// An absent ID yields zero rows, not an error.
	CustomerID int
}

// Runner executes reports against the pipeline's relations.
type Runner struct {
	pool *pgxpool.Pool
	opts Options
}

// NewRunner creates a report runner.
func NewRunner(pool *pgxpool.Pool, opts Options) *Runner {
	if opts.TopN < 1 {
		opts.TopN = 10
	}
	return &Runner{pool: pool, opts: opts}
}

// Run executes a single report by name.
func (r *Runner) Run(ctx context.Context, name string) (Result, error) {
	switch name {
	case "dataset_profile":
		return r.datasetProfile(ctx)
	case "revenue_by_country":
		return r.revenueByCountry(ctx)
	case "top_products_by_quantity":
		return r.topProductsByQuantity(ctx)
	case "top_customers_by_revenue":
		return r.topCustomersByRevenue(ctx)
	case "revenue_per_invoice":
		return r.revenuePerInvoice(ctx)
	case "average_invoice_revenue":
		return r.averageInvoiceRevenue(ctx)
	case "customers_above_average":
		return r.customersAboveAverage(ctx)
	case "country_detail":
		return r.countryDetail(ctx)
	case "customer_invoices":
		return r.customerInvoices(ctx)
	case "invoice_line_detail":
		return r.invoiceLineDetail(ctx)
	case "grand_total_revenue":
		return r.grandTotalRevenue(ctx)
	}
	return Result{}, fmt.Errorf("unknown report: %s", name)
}

// RunAll executes the full report sequence in order. The first failure
// aborts the run; every report is a pure read, so re-running is safe.
func (r *Runner) RunAll(ctx context.Context) ([]Result, error) {
	defs := Definitions()
	results := make([]Result, 0, len(defs))

	for _, def := range defs {
		start := time.Now()
		res, err := r.Run(ctx, def.Name)
		if err != nil {
			return nil, fmt.Errorf("report %s failed: %w", def.Name, err)
		}
		logging.Info().
			Str("report", def.Name).
			Int("rows", len(res.Rows)).
			Dur("elapsed", time.Since(start)).
			Msg("Report complete")
		results = append(results, res)
	}

	return results, nil
}
