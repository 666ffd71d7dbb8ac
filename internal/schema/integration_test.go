//-------------------------------------------------------------------------
//
// retail-etl
//
// Copyright (c) 2025 - 2026, Retail Tools
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

//go:build integration
// +build integration

// Integration tests for the schema derivation.
// Run with: go test -tags=integration ./internal/schema/...
// Requires PostgreSQL to be available.
// Set RETAIL_ETL_TEST_CONN environment variable to override connection string.

package schema_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retailtools/retail-etl/internal/schema"
	"github.com/retailtools/retail-etl/internal/testutil"
)

type rawRow struct {
	invoiceNo   string
	stockCode   string
	description string
	quantity    int
	invoiceDate time.Time
	unitPrice   float64
	customerID  *int
	country     string
}

func intPtr(v int) *int { return &v }

func fixtureRows() []rawRow {
	day1 := time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC)
	day2 := time.Date(2010, 12, 2, 9, 0, 0, 0, time.UTC)
	return []rawRow{
		{"INV1", "A", "WHITE HANGING HEART", 2, day1, 5.00, intPtr(1), "United Kingdom"},
		{"INV1", "B", "WHITE METAL LANTERN", 1, day1, 10.00, intPtr(1), "United Kingdom"},
		{"INV2", "C", "CREAM CUPID HANGER", 8, day2, 10.00, intPtr(1), "United Kingdom"},
		{"INV3", "D", "GLASS STAR FROSTED", 30, day2, 10.00, intPtr(2), "France"},
		// Guest order: no customer reference, still a valid invoice.
		{"INV4", "E", "RED WOOLLY HOTTIE", 1, day2, 7.50, nil, "Germany"},
		// Same stock code, different description and price.
		{"INV4", "A", "WHITE HEART HOLDER", 3, day2, 5.25, nil, "Germany"},
	}
}

func seedRaw(t *testing.T, ctx context.Context, pool *pgxpool.Pool, rows []rawRow) {
	t.Helper()
	if err := schema.CreateRawTable(ctx, pool); err != nil {
		t.Fatalf("CreateRawTable failed: %v", err)
	}
	for _, r := range rows {
		var customer any
		if r.customerID != nil {
			customer = *r.customerID
		}
		_, err := pool.Exec(ctx, `
            INSERT INTO raw_invoice
                (invoice_no, stock_code, description, quantity,
                 invoice_date, unit_price, customer_id, country)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        `, r.invoiceNo, r.stockCode, r.description, r.quantity,
			r.invoiceDate, r.unitPrice, customer, r.country)
		if err != nil {
			t.Fatalf("Failed to seed raw row: %v", err)
		}
	}
}

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	baseConnStr := testutil.SkipIfNoPostgres(t)
	testConnStr := testutil.CreateTestDB(t, baseConnStr, "schema")
	dbName := testutil.GetDBNameFromConnStr(testConnStr)

	cleanup := testutil.NewTestCleanup(t, baseConnStr, dbName)
	t.Cleanup(cleanup.Cleanup)

	pool := testutil.ConnectTestDB(t, testConnStr)
	cleanup.SetPool(pool)
	return pool
}

// tableFingerprint returns an order-independent digest of a relation's
// contents, used to compare derivation runs.
func tableFingerprint(t *testing.T, ctx context.Context, pool *pgxpool.Pool, table string) string {
	t.Helper()
	var fp *string
	err := pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT string_agg(row_text, E'\n' ORDER BY row_text)
        FROM (SELECT t::text AS row_text FROM %s t) rows
    `, table)).Scan(&fp)
	if err != nil {
		t.Fatalf("Failed to fingerprint %s: %v", table, err)
	}
	if fp == nil {
		return ""
	}
	return *fp
}

func TestSchemaDerivation(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	seedRaw(t, ctx, pool, fixtureRows())

	if err := schema.DeriveAll(ctx, pool); err != nil {
		t.Fatalf("DeriveAll failed: %v", err)
	}
	if err := schema.CreateViews(ctx, pool); err != nil {
		t.Fatalf("CreateViews failed: %v", err)
	}
	if err := schema.CreateIndexes(ctx, pool); err != nil {
		t.Fatalf("CreateIndexes failed: %v", err)
	}

	t.Run("NullCustomerExcludedFromCustomer", func(t *testing.T) {
		var nulls int64
		err := pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM customer WHERE customer_id IS NULL`).Scan(&nulls)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if nulls != 0 {
			t.Errorf("customer contains %d null rows", nulls)
		}

		var customers int64
		err = pool.QueryRow(ctx, `SELECT COUNT(*) FROM customer`).Scan(&customers)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if customers != 2 {
			t.Errorf("Expected 2 customers, got %d", customers)
		}
	})

	t.Run("NullCustomerRetainedInInvoice", func(t *testing.T) {
		var guests int64
		err := pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM invoice WHERE customer_id IS NULL`).Scan(&guests)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if guests != 1 {
			t.Errorf("Expected 1 guest invoice, got %d", guests)
		}
	})

	t.Run("ReferentialSubset", func(t *testing.T) {
		var orphans int64
		err := pool.QueryRow(ctx, `
            SELECT COUNT(*)
            FROM invoice i
            WHERE i.customer_id IS NOT NULL
              AND NOT EXISTS (
                  SELECT 1 FROM customer c WHERE c.customer_id = i.customer_id
              )
        `).Scan(&orphans)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if orphans != 0 {
			t.Errorf("Found %d invoices with unknown customers", orphans)
		}
	})

	t.Run("ProductKeepsAllDistinctCombinations", func(t *testing.T) {
		var variants int64
		err := pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM product WHERE stock_code = 'A'`).Scan(&variants)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if variants != 2 {
			t.Errorf("Expected 2 product variants for stock code A, got %d", variants)
		}
	})

	t.Run("InvoiceItemKeepsEveryLine", func(t *testing.T) {
		var lines int64
		err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoice_item`).Scan(&lines)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if lines != int64(len(fixtureRows())) {
			t.Errorf("Expected %d lines, got %d", len(fixtureRows()), lines)
		}
	})

	t.Run("DerivationIsIdempotent", func(t *testing.T) {
		before := make(map[string]string)
		for _, table := range schema.DerivedTables {
			before[table] = tableFingerprint(t, ctx, pool, table)
		}

		if err := schema.DeriveAll(ctx, pool); err != nil {
			t.Fatalf("Second DeriveAll failed: %v", err)
		}
		if err := schema.CreateViews(ctx, pool); err != nil {
			t.Fatalf("Second CreateViews failed: %v", err)
		}
		if err := schema.CreateIndexes(ctx, pool); err != nil {
			t.Fatalf("Second CreateIndexes failed: %v", err)
		}

		for _, table := range schema.DerivedTables {
			after := tableFingerprint(t, ctx, pool, table)
			if after != before[table] {
				t.Errorf("%s changed across identical derivation runs", table)
			}
		}
	})

	t.Run("IndexCreationIsIdempotent", func(t *testing.T) {
		if err := schema.CreateIndexes(ctx, pool); err != nil {
			t.Errorf("Repeated CreateIndexes failed: %v", err)
		}
	})

	t.Run("ViewReflectsCurrentRawStore", func(t *testing.T) {
		var before float64
		err := pool.QueryRow(ctx, `
            SELECT revenue FROM country_revenue WHERE country = 'Germany'
        `).Scan(&before)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}

		_, err = pool.Exec(ctx, `
            INSERT INTO raw_invoice
                (invoice_no, stock_code, description, quantity,
                 invoice_date, unit_price, customer_id, country)
            VALUES ('INV5', 'F', 'JUMBO BAG', 2, '2010-12-03 10:00:00', 1.25, NULL, 'Germany')
        `)
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}

		var after float64
		err = pool.QueryRow(ctx, `
            SELECT revenue FROM country_revenue WHERE country = 'Germany'
        `).Scan(&after)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if after != before+2.50 {
			t.Errorf("View is stale: before %.2f, after %.2f", before, after)
		}
	})
}

func TestDropDerivedLeavesRawStore(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	seedRaw(t, ctx, pool, fixtureRows())
	if err := schema.DeriveAll(ctx, pool); err != nil {
		t.Fatalf("DeriveAll failed: %v", err)
	}
	if err := schema.CreateViews(ctx, pool); err != nil {
		t.Fatalf("CreateViews failed: %v", err)
	}

	if err := schema.DropDerived(ctx, pool); err != nil {
		t.Fatalf("DropDerived failed: %v", err)
	}

	exists, err := schema.RawTableExists(ctx, pool)
	if err != nil {
		t.Fatalf("RawTableExists failed: %v", err)
	}
	if !exists {
		t.Error("Raw store must survive DropDerived")
	}

	var count int64
	err = pool.QueryRow(ctx, `
        SELECT COUNT(*) FROM information_schema.tables
        WHERE table_name = ANY($1)
    `, schema.DerivedTables).Scan(&count)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no derived tables after drop, found %d", count)
	}
}
