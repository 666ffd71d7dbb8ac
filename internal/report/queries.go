//-------------------------------------------------------------------------
//
// retail-etl
//
// Copyright (c) 2025 - 2026, Retail Tools
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package report

import (
	"context"
	"strconv"
	"time"
)

// Dataset profile - exploratory counts over the raw store.
func (r *Runner) datasetProfile(ctx context.Context) (Result, error) {
	var (
		rows, invoices, products, customers, countries int64
		first, last                                    *time.Time
	)
	err := r.pool.QueryRow(ctx, `
        SELECT COUNT(*),
               COUNT(DISTINCT invoice_no),
               COUNT(DISTINCT stock_code),
               COUNT(DISTINCT customer_id),
               COUNT(DISTINCT country),
               MIN(invoice_date),
               MAX(invoice_date)
        FROM raw_invoice
    `).Scan(&rows, &invoices, &products, &customers, &countries, &first, &last)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Name:    "dataset_profile",
		Columns: []string{"metric", "value"},
		Rows: [][]string{
			{"order_lines", formatInt(rows)},
			{"distinct_invoices", formatInt(invoices)},
			{"distinct_stock_codes", formatInt(products)},
			{"distinct_customers", formatInt(customers)},
			{"distinct_countries", formatInt(countries)},
			{"first_invoice", formatNullableTime(first)},
			{"last_invoice", formatNullableTime(last)},
		},
	}
	return res, nil
}

// Revenue by country - reads the country_revenue view so the report
// always reflects the current raw store.
func (r *Runner) revenueByCountry(ctx context.Context) (Result, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT country, units, revenue
        FROM country_revenue
        ORDER BY revenue DESC, country ASC
    `)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	res := Result{
		Name:    "revenue_by_country",
		Columns: []string{"country", "units", "revenue"},
	}
	for rows.Next() {
		var country string
		var units int64
		var revenue float64
		if err := rows.Scan(&country, &units, &revenue); err != nil {
			return Result{}, err
		}
		res.Rows = append(res.Rows, []string{country, formatInt(units), formatMoney(revenue)})
	}
	return res, rows.Err()
}

// Top products by quantity sold, ties broken on stock code for
// reproducible output.
func (r *Runner) topProductsByQuantity(ctx context.Context) (Result, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT stock_code,
               SUM(quantity)              AS total_qty,
               SUM(quantity * unit_price) AS revenue
        FROM invoice_item
        GROUP BY stock_code
        ORDER BY total_qty DESC, stock_code ASC
        LIMIT $1
    `, r.opts.TopN)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	res := Result{
		Name:    "top_products_by_quantity",
		Columns: []string{"stock_code", "total_qty", "revenue"},
	}
	for rows.Next() {
		var stockCode string
		var qty int64
		var revenue float64
		if err := rows.Scan(&stockCode, &qty, &revenue); err != nil {
			return Result{}, err
		}
		res.Rows = append(res.Rows, []string{stockCode, formatInt(qty), formatMoney(revenue)})
	}
	return res, rows.Err()
}

// Top customers by revenue. Null customer_id rows never form a customer
// group.
func (r *Runner) topCustomersByRevenue(ctx context.Context) (Result, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT i.customer_id,
               SUM(ii.quantity * ii.unit_price) AS revenue
        FROM invoice i
        JOIN invoice_item ii ON ii.invoice_no = i.invoice_no
        WHERE i.customer_id IS NOT NULL
        GROUP BY i.customer_id
        ORDER BY revenue DESC, i.customer_id ASC
        LIMIT $1
    `, r.opts.TopN)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	res := Result{
		Name:    "top_customers_by_revenue",
		Columns: []string{"customer_id", "revenue"},
	}
	for rows.Next() {
		var customerID int32
		var revenue float64
		if err := rows.Scan(&customerID, &revenue); err != nil {
			return Result{}, err
		}
		res.Rows = append(res.Rows, []string{
			strconv.FormatInt(int64(customerID), 10), formatMoney(revenue),
		})
	}
	return res, rows.Err()
}

// Revenue per invoice.
func (r *Runner) revenuePerInvoice(ctx context.Context) (Result, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT i.invoice_no,
               i.invoice_date,
               SUM(ii.quantity * ii.unit_price) AS revenue
        FROM invoice i
        JOIN invoice_item ii ON ii.invoice_no = i.invoice_no
        GROUP BY i.invoice_no, i.invoice_date
        ORDER BY revenue DESC, i.invoice_no ASC
        LIMIT $1
    `, r.opts.TopN)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	res := Result{
		Name:    "revenue_per_invoice",
		Columns: []string{"invoice_no", "invoice_date", "revenue"},
	}
	for rows.Next() {
		var invoiceNo string
		var invoiceDate time.Time
		var revenue float64
		if err := rows.Scan(&invoiceNo, &invoiceDate, &revenue); err != nil {
			return Result{}, err
		}
		res.Rows = append(res.Rows, []string{
			invoiceNo, formatTime(invoiceDate), formatMoney(revenue),
		})
	}
	return res, rows.Err()
}

// Average invoice revenue - an outer aggregate over a grouped subquery.
func (r *Runner) averageInvoiceRevenue(ctx context.Context) (Result, error) {
	var avg *float64
	err := r.pool.QueryRow(ctx, `
        SELECT AVG(invoice_revenue)
        FROM (
            SELECT SUM(quantity * unit_price) AS invoice_revenue
            FROM invoice_item
            GROUP BY invoice_no
        ) per_invoice
    `).Scan(&avg)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Name:    "average_invoice_revenue",
		Columns: []string{"average_invoice_revenue"},
	}
	if avg != nil {
		res.Rows = append(res.Rows, []string{formatMoney(*avg)})
	}
	return res, nil
}

// Customers above the average customer revenue: one grouped pass for the
// per-customer values, one for the global statistic, then the filter.
func (r *Runner) customersAboveAverage(ctx context.Context) (Result, error) {
	rows, err := r.pool.Query(ctx, `
        WITH customer_revenue AS (
            SELECT i.customer_id,
                   SUM(ii.quantity * ii.unit_price) AS revenue
            FROM invoice i
            JOIN invoice_item ii ON ii.invoice_no = i.invoice_no
            WHERE i.customer_id IS NOT NULL
            GROUP BY i.customer_id
        )
        SELECT customer_id, revenue
        FROM customer_revenue
        WHERE revenue > (SELECT AVG(revenue) FROM customer_revenue)
        ORDER BY revenue DESC, customer_id ASC
    `)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	res := Result{
		Name:    "customers_above_average",
		Columns: []string{"customer_id", "revenue"},
	}
	for rows.Next() {
		var customerID int32
		var revenue float64
		if err := rows.Scan(&customerID, &revenue); err != nil {
			return Result{}, err
		}
		res.Rows = append(res.Rows, []string{
			strconv.FormatInt(int64(customerID), 10), formatMoney(revenue),
		})
	}
	return res, rows.Err()
}

// Single-country aggregate; an unknown country yields zero rows.
func (r *Runner) countryDetail(ctx context.Context) (Result, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT country,
               COUNT(DISTINCT invoice_no)  AS invoices,
               SUM(quantity)               AS units,
               SUM(quantity * unit_price)  AS revenue
        FROM raw_invoice
        WHERE country = $1
        GROUP BY country
    `, r.opts.Country)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	res := Result{
		Name:    "country_detail",
		Columns: []string{"country", "invoices", "units", "revenue"},
	}
	for rows.Next() {
		var country string
		var invoices, units int64
		var revenue float64
		if err := rows.Scan(&country, &invoices, &units, &revenue); err != nil {
			return Result{}, err
		}
		res.Rows = append(res.Rows, []string{
			country, formatInt(invoices), formatInt(units), formatMoney(revenue),
		})
	}
	return res, rows.Err()
}

// Invoice listing for one customer; an absent ID yields zero rows.
func (r *Runner) customerInvoices(ctx context.Context) (Result, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT i.invoice_no,
               i.invoice_date,
               COUNT(*)                         AS lines,
               SUM(ii.quantity * ii.unit_price) AS revenue
        FROM invoice i
        JOIN invoice_item ii ON ii.invoice_no = i.invoice_no
        WHERE i.customer_id = $1
        GROUP BY i.invoice_no, i.invoice_date
        ORDER BY i.invoice_date ASC, i.invoice_no ASC
    `, r.opts.CustomerID)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	res := Result{
		Name:    "customer_invoices",
		Columns: []string{"invoice_no", "invoice_date", "lines", "revenue"},
	}
	for rows.Next() {
		var invoiceNo string
		var invoiceDate time.Time
		var lines int64
		var revenue float64
		if err := rows.Scan(&invoiceNo, &invoiceDate, &lines, &revenue); err != nil {
			return Result{}, err
		}
		res.Rows = append(res.Rows, []string{
			invoiceNo, formatTime(invoiceDate), formatInt(lines), formatMoney(revenue),
		})
	}
	return res, rows.Err()
}

// Denormalized line sample through the invoice_lines view. Guest
// invoices survive the left join with an empty country.
func (r *Runner) invoiceLineDetail(ctx context.Context) (Result, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT invoice_no, invoice_date, customer_id, country,
               stock_code, description, quantity, unit_price, line_revenue
        FROM invoice_lines
        ORDER BY invoice_date ASC, invoice_no ASC, stock_code ASC
        LIMIT $1
    `, r.opts.TopN)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	res := Result{
		Name: "invoice_line_detail",
		Columns: []string{
			"invoice_no", "invoice_date", "customer_id", "country",
			"stock_code", "description", "quantity", "unit_price", "line_revenue",
		},
	}
	for rows.Next() {
		var (
			invoiceNo, stockCode   string
			description, country   *string
			invoiceDate            time.Time
			customerID             *int32
			quantity               int64
			unitPrice, lineRevenue float64
		)
		err := rows.Scan(&invoiceNo, &invoiceDate, &customerID, &country,
			&stockCode, &description, &quantity, &unitPrice, &lineRevenue)
		if err != nil {
			return Result{}, err
		}
		res.Rows = append(res.Rows, []string{
			invoiceNo,
			formatTime(invoiceDate),
			formatNullableID(customerID),
			formatNullableString(country),
			stockCode,
			formatNullableString(description),
			formatInt(quantity),
			formatMoney(unitPrice),
			formatMoney(lineRevenue),
		})
	}
	return res, rows.Err()
}

// Grand total revenue over the raw store. Drives the additivity check
// against the per-country view.
func (r *Runner) grandTotalRevenue(ctx context.Context) (Result, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `
        SELECT COALESCE(SUM(quantity * unit_price), 0)
        FROM raw_invoice
    `).Scan(&total)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Name:    "grand_total_revenue",
		Columns: []string{"total_revenue"},
		Rows:    [][]string{{formatMoney(total)}},
	}, nil
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func formatNullableTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func formatNullableID(id *int32) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(int64(*id), 10)
}

func formatNullableString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
