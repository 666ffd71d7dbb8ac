package ingest

import (
	"testing"
	"time"
)

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name      string
		fields    []string
		wantError bool
		check     func(t *testing.T, rec Record)
	}{
		{
			name: "valid row",
			fields: []string{
				"536365", "85123A", "WHITE HANGING HEART T-LIGHT HOLDER",
				"6", "2010-12-01 08:26:00", "2.55", "17850", "United Kingdom",
			},
			check: func(t *testing.T, rec Record) {
				if rec.InvoiceNo != "536365" {
					t.Errorf("Unexpected invoice no: %s", rec.InvoiceNo)
				}
				if rec.Quantity != 6 {
					t.Errorf("Unexpected quantity: %d", rec.Quantity)
				}
				if rec.UnitPrice != 2.55 {
					t.Errorf("Unexpected unit price: %f", rec.UnitPrice)
				}
				if rec.CustomerID == nil || *rec.CustomerID != 17850 {
					t.Errorf("Unexpected customer id: %v", rec.CustomerID)
				}
				want := time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC)
				if !rec.InvoiceDate.Equal(want) {
					t.Errorf("Unexpected invoice date: %v", rec.InvoiceDate)
				}
			},
		},
		{
			name: "guest order has nil customer",
			fields: []string{
				"536366", "71053", "WHITE METAL LANTERN",
				"1", "2010-12-01 08:28:00", "3.39", "", "France",
			},
			check: func(t *testing.T, rec Record) {
				if rec.CustomerID != nil {
					t.Errorf("Expected nil customer id, got %v", *rec.CustomerID)
				}
			},
		},
		{
			name: "non-numeric customer is nulled not fatal",
			fields: []string{
				"536367", "84406B", "CREAM CUPID HEARTS COAT HANGER",
				"8", "2010-12-01 08:34:00", "2.75", "n/a", "United Kingdom",
			},
			check: func(t *testing.T, rec Record) {
				if rec.CustomerID != nil {
					t.Errorf("Expected nil customer id, got %v", *rec.CustomerID)
				}
			},
		},
		{
			name: "float-serialized customer id",
			fields: []string{
				"536367", "84406B", "CREAM CUPID HEARTS COAT HANGER",
				"8", "2010-12-01 08:34:00", "2.75", "13047.0", "United Kingdom",
			},
			check: func(t *testing.T, rec Record) {
				if rec.CustomerID == nil || *rec.CustomerID != 13047 {
					t.Errorf("Unexpected customer id: %v", rec.CustomerID)
				}
			},
		},
		{
			name: "negative quantity return line",
			fields: []string{
				"C536379", "D", "Discount",
				"-1", "2010-12-01 09:41:00", "27.50", "14527", "United Kingdom",
			},
			check: func(t *testing.T, rec Record) {
				if rec.Quantity != -1 {
					t.Errorf("Unexpected quantity: %d", rec.Quantity)
				}
			},
		},
		{
			name: "slash date layout",
			fields: []string{
				"536365", "85123A", "WHITE HANGING HEART T-LIGHT HOLDER",
				"6", "12/1/2010 8:26", "2.55", "17850", "United Kingdom",
			},
			check: func(t *testing.T, rec Record) {
				want := time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC)
				if !rec.InvoiceDate.Equal(want) {
					t.Errorf("Unexpected invoice date: %v", rec.InvoiceDate)
				}
			},
		},
		{
			name: "bad quantity",
			fields: []string{
				"536365", "85123A", "X", "six",
				"2010-12-01 08:26:00", "2.55", "17850", "United Kingdom",
			},
			wantError: true,
		},
		{
			name: "bad price",
			fields: []string{
				"536365", "85123A", "X", "6",
				"2010-12-01 08:26:00", "free", "17850", "United Kingdom",
			},
			wantError: true,
		},
		{
			name: "bad date",
			fields: []string{
				"536365", "85123A", "X", "6",
				"yesterday", "2.55", "17850", "United Kingdom",
			},
			wantError: true,
		},
		{
			name: "empty invoice no",
			fields: []string{
				"", "85123A", "X", "6",
				"2010-12-01 08:26:00", "2.55", "17850", "United Kingdom",
			},
			wantError: true,
		},
		{
			name:      "wrong field count",
			fields:    []string{"536365", "85123A"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseRecord(tt.fields)
			if tt.wantError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRecord failed: %v", err)
			}
			if tt.check != nil {
				tt.check(t, rec)
			}
		})
	}
}

func TestValidateHeader(t *testing.T) {
	valid := []string{
		"InvoiceNo", "StockCode", "Description", "Quantity",
		"InvoiceDate", "UnitPrice", "CustomerID", "Country",
	}
	if err := ValidateHeader(valid); err != nil {
		t.Errorf("Expected valid header, got %v", err)
	}

	lower := []string{
		"invoiceno", "stockcode", "description", "quantity",
		"invoicedate", "unitprice", "customerid", "country",
	}
	if err := ValidateHeader(lower); err != nil {
		t.Errorf("Header match should be case-insensitive, got %v", err)
	}

	if err := ValidateHeader(valid[:5]); err == nil {
		t.Error("Expected error for truncated header")
	}

	swapped := append([]string{}, valid...)
	swapped[0], swapped[1] = swapped[1], swapped[0]
	if err := ValidateHeader(swapped); err == nil {
		t.Error("Expected error for reordered header")
	}
}

func TestCopyRowNullCustomer(t *testing.T) {
	rec := Record{
		InvoiceNo:   "536366",
		StockCode:   "71053",
		Quantity:    1,
		InvoiceDate: time.Date(2010, 12, 1, 8, 28, 0, 0, time.UTC),
		UnitPrice:   3.39,
		Country:     "France",
	}
	row := rec.copyRow()
	if len(row) != len(RawColumns) {
		t.Fatalf("Expected %d values, got %d", len(RawColumns), len(row))
	}
	if row[6] != nil {
		t.Errorf("Expected nil customer value, got %v", row[6])
	}
}
