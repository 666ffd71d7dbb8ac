//-------------------------------------------------------------------------
//
// retail-etl
//
// Copyright (c) 2025 - 2026, Retail Tools
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package ingest loads the delimited order-line dataset into the raw
// store and generates synthetic sample datasets.
package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Columns of the input file, in order. The header row must match
// case-insensitively.
var InputColumns = []string{
	"InvoiceNo", "StockCode", "Description", "Quantity",
	"InvoiceDate", "UnitPrice", "CustomerID", "Country",
}

// RawColumns are the raw_invoice column names, aligned with InputColumns.
var RawColumns = []string{
	"invoice_no", "stock_code", "description", "quantity",
	"invoice_date", "unit_price", "customer_id", "country",
}

// Timestamp layouts accepted in the InvoiceDate field. The first is the
// layout the sample generator writes; the others cover common retail
// dataset exports.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"1/2/2006 15:04",
	"1/2/06 15:04",
	"2006-01-02T15:04:05",
}

// Record is one parsed order line. CustomerID is nil for guest orders.
type Record struct {
	InvoiceNo   string
	StockCode   string
	Description string
	Quantity    int
	InvoiceDate time.Time
	UnitPrice   float64
	CustomerID  *int
	Country     string
}

// ParseRecord converts one data row into a Record. A malformed quantity,
// date, or price makes the whole row unusable and returns an error; a
// malformed customer identifier only nulls the customer reference, so
// the line still reaches the raw store as a guest order.
func ParseRecord(fields []string) (Record, error) {
	if len(fields) != len(InputColumns) {
		return Record{}, fmt.Errorf("expected %d fields, got %d", len(InputColumns), len(fields))
	}

	rec := Record{
		InvoiceNo:   strings.TrimSpace(fields[0]),
		StockCode:   strings.TrimSpace(fields[1]),
		Description: strings.TrimSpace(fields[2]),
		Country:     strings.TrimSpace(fields[7]),
	}

	if rec.InvoiceNo == "" {
		return Record{}, fmt.Errorf("empty invoice number")
	}
	if rec.StockCode == "" {
		return Record{}, fmt.Errorf("empty stock code")
	}

	qty, err := strconv.Atoi(strings.TrimSpace(fields[3]))
	if err != nil {
		return Record{}, fmt.Errorf("invalid quantity %q: %w", fields[3], err)
	}
	rec.Quantity = qty

	rec.InvoiceDate, err = parseTimestamp(strings.TrimSpace(fields[4]))
	if err != nil {
		return Record{}, err
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(fields[5]), 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid unit price %q: %w", fields[5], err)
	}
	rec.UnitPrice = price

	rec.CustomerID = parseCustomerID(fields[6])

	return rec, nil
}

// parseCustomerID coerces the customer identifier tolerantly. Empty or
// non-numeric values become nil rather than failing the row. Some
// exports serialize the identifier as a float ("17850.0"), which is
// accepted when the fraction is zero.
func parseCustomerID(field string) *int {
	s := strings.TrimSpace(field)
	if s == "" {
		return nil
	}
	if id, err := strconv.Atoi(s); err == nil {
		return &id
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		id := int(f)
		return &id
	}
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid invoice date %q", s)
}

// ValidateHeader checks that the header row matches InputColumns.
func ValidateHeader(header []string) error {
	if len(header) != len(InputColumns) {
		return fmt.Errorf("expected %d header fields, got %d", len(InputColumns), len(header))
	}
	for i, want := range InputColumns {
		got := strings.TrimSpace(header[i])
		if !strings.EqualFold(got, want) {
			return fmt.Errorf("header field %d is %q, expected %q", i, got, want)
		}
	}
	return nil
}

// copyRow converts a Record to the positional values used by COPY into
// raw_invoice.
func (r Record) copyRow() []any {
	var customer any
	if r.CustomerID != nil {
		customer = *r.CustomerID
	}
	return []any{
		r.InvoiceNo, r.StockCode, r.Description, r.Quantity,
		r.InvoiceDate, r.UnitPrice, customer, r.Country,
	}
}
