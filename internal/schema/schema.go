//-------------------------------------------------------------------------
//
// retail-etl
//
// Copyright (c) 2025 - 2026, Retail Tools
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package schema owns all relations of the pipeline: the raw order-line
// table, the four derived relations, the reporting views, and the
// secondary indexes. Every object is recreated idempotently with
// drop-if-exists semantics; nothing is migrated between runs.
package schema

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retailtools/retail-etl/internal/logging"
)

// createRawTableSQL recreates the raw store. The raw table is a static
// snapshot of the ingested dataset; customer_id is nullable because the
// source contains guest orders.
const createRawTableSQL = `
DROP TABLE IF EXISTS raw_invoice CASCADE;

CREATE TABLE raw_invoice (
    invoice_no   TEXT NOT NULL,
    stock_code   TEXT NOT NULL,
    description  TEXT,
    quantity     INTEGER NOT NULL,
    invoice_date TIMESTAMP NOT NULL,
    unit_price   NUMERIC(10,2) NOT NULL,
    customer_id  INTEGER,
    country      TEXT NOT NULL
);
`

// Derivation statements. Each one is a single atomic drop-and-recreate
// projection over raw_invoice, so re-running yields identical content
// for unchanged input. Rows with a null identifying key are excluded
// from the corresponding relation only: null customer_id rows stay in
// invoice with a null customer reference.
const (
	deriveCustomerSQL = `
DROP TABLE IF EXISTS customer CASCADE;

CREATE TABLE customer AS
SELECT DISTINCT customer_id, country
FROM raw_invoice
WHERE customer_id IS NOT NULL;
`

	// A stock_code may legitimately carry more than one distinct
	// (description, unit_price) combination across the dataset; all
	// combinations are kept, so uniqueness is on the full tuple.
	deriveProductSQL = `
DROP TABLE IF EXISTS product CASCADE;

CREATE TABLE product AS
SELECT DISTINCT stock_code, description, unit_price
FROM raw_invoice
WHERE stock_code <> '';
`

	deriveInvoiceSQL = `
DROP TABLE IF EXISTS invoice CASCADE;

CREATE TABLE invoice AS
SELECT DISTINCT invoice_no, invoice_date, customer_id
FROM raw_invoice
WHERE invoice_no <> '';
`

	deriveInvoiceItemSQL = `
DROP TABLE IF EXISTS invoice_item CASCADE;

CREATE TABLE invoice_item AS
SELECT invoice_no, stock_code, quantity, unit_price
FROM raw_invoice;
`
)

// View definitions. Views are parameterless query expressions over the
// current relations; every read reflects the latest state, nothing is
// materialized.
const createViewsSQL = `
CREATE OR REPLACE VIEW country_revenue AS
SELECT country,
       SUM(quantity)              AS units,
       SUM(quantity * unit_price) AS revenue
FROM raw_invoice
GROUP BY country;

CREATE OR REPLACE VIEW invoice_lines AS
SELECT i.invoice_no,
       i.invoice_date,
       i.customer_id,
       c.country,
       ii.stock_code,
       p.description,
       ii.quantity,
       ii.unit_price,
       ii.quantity * ii.unit_price AS line_revenue
FROM invoice i
JOIN invoice_item ii ON ii.invoice_no = i.invoice_no
JOIN product p
    ON p.stock_code = ii.stock_code
   AND p.unit_price = ii.unit_price
LEFT JOIN customer c ON c.customer_id = i.customer_id;
`

// Index definitions. Creating or omitting these never changes query
// results, only lookup speed; IF NOT EXISTS makes creation a safe no-op.
const createIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_invoice_customer ON invoice (customer_id);
CREATE INDEX IF NOT EXISTS idx_invoice_item_invoice ON invoice_item (invoice_no);
CREATE INDEX IF NOT EXISTS idx_invoice_item_stock ON invoice_item (stock_code);
CREATE INDEX IF NOT EXISTS idx_customer_country ON customer (country);
`

const dropDerivedSQL = `
DROP VIEW IF EXISTS invoice_lines;
DROP VIEW IF EXISTS country_revenue;
DROP TABLE IF EXISTS invoice_item CASCADE;
DROP TABLE IF EXISTS invoice CASCADE;
DROP TABLE IF EXISTS product CASCADE;
DROP TABLE IF EXISTS customer CASCADE;
`

const dropRawSQL = `
DROP VIEW IF EXISTS invoice_lines;
DROP VIEW IF EXISTS country_revenue;
DROP TABLE IF EXISTS raw_invoice CASCADE;
`

// DerivedTables lists the derived relations in creation order.
var DerivedTables = []string{"customer", "product", "invoice", "invoice_item"}

// deriveStatements maps each derived relation to its recreation statement,
// ordered so dependents never precede their sources.
var deriveStatements = []struct {
	table string
	sql   string
}{
	{"customer", deriveCustomerSQL},
	{"product", deriveProductSQL},
	{"invoice", deriveInvoiceSQL},
	{"invoice_item", deriveInvoiceItemSQL},
}

// CreateRawTable recreates the empty raw store.
func CreateRawTable(ctx context.Context, pool *pgxpool.Pool) error {
	logging.Info().Msg("Creating raw store")
	if _, err := pool.Exec(ctx, createRawTableSQL); err != nil {
		return fmt.Errorf("failed to create raw table: %w", err)
	}
	return nil
}

// DeriveAll recreates the four derived relations from the raw store.
// The cascading drops take dependent views with them, so CreateViews
// must follow. Errors are fatal and propagate immediately; there is no
// partial-state recovery because re-running the derivation is the
// recovery strategy.
func DeriveAll(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range deriveStatements {
		logging.Info().Str("table", stmt.table).Msg("Deriving relation")
		if _, err := pool.Exec(ctx, stmt.sql); err != nil {
			return fmt.Errorf("failed to derive %s: %w", stmt.table, err)
		}
	}
	return nil
}

// CreateViews creates or replaces the reporting views.
func CreateViews(ctx context.Context, pool *pgxpool.Pool) error {
	logging.Info().Msg("Creating views")
	if _, err := pool.Exec(ctx, createViewsSQL); err != nil {
		return fmt.Errorf("failed to create views: %w", err)
	}
	return nil
}

// CreateIndexes creates the secondary lookup indexes on the derived
// relations. Must run after DeriveAll.
func CreateIndexes(ctx context.Context, pool *pgxpool.Pool) error {
	logging.Info().Msg("Creating indexes")
	if _, err := pool.Exec(ctx, createIndexesSQL); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// RawRowCount returns the number of rows in the raw store.
func RawRowCount(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	var count int64
	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM raw_invoice`).Scan(&count)
	return count, err
}

// RawTableExists reports whether the raw store has been created.
func RawTableExists(ctx context.Context, pool *pgxpool.Pool) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT FROM information_schema.tables
            WHERE table_name = 'raw_invoice'
        )
    `).Scan(&exists)
	return exists, err
}

// DropDerived drops the views and derived relations, leaving the raw
// store in place.
func DropDerived(ctx context.Context, pool *pgxpool.Pool) error {
	logging.Info().Msg("Dropping derived relations")
	if _, err := pool.Exec(ctx, dropDerivedSQL); err != nil {
		return fmt.Errorf("failed to drop derived relations: %w", err)
	}
	return nil
}

// DropAll drops everything including the raw store.
func DropAll(ctx context.Context, pool *pgxpool.Pool) error {
	if err := DropDerived(ctx, pool); err != nil {
		return err
	}
	logging.Info().Msg("Dropping raw store")
	if _, err := pool.Exec(ctx, dropRawSQL); err != nil {
		return fmt.Errorf("failed to drop raw store: %w", err)
	}
	return nil
}
