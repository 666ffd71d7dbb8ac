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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/retailtools/retail-etl/internal/datagen"
	"github.com/retailtools/retail-etl/internal/logging"
)

// Countries for the synthetic dataset, weighted towards a UK-heavy
// distribution like the classic online-retail datasets.
var sampleCountries = []string{
	"United Kingdom", "Germany", "France", "Netherlands", "Ireland",
	"Spain", "Belgium", "Switzerland", "Portugal", "Australia",
}

var sampleCountryWeights = []int{60, 8, 8, 5, 4, 3, 3, 3, 3, 3}

// SampleOptions controls synthetic dataset generation.
type SampleOptions struct {
	// Rows is the number of order lines to generate.
	Rows int

	// Seed makes output reproducible when non-zero.
	Seed uint64
}

type sampleProduct struct {
	stockCode   string
	description string
	unitPrice   float64
}

type sampleCustomer struct {
	id      int
	country string
}

// WriteSample writes a synthetic order-line CSV to w, header included.
// The output exercises the quirks of real exports: guest orders with an
// empty CustomerID, negative quantities for returns, and the occasional
// stock code that reappears with a different description or price.
func WriteSample(w io.Writer, opts SampleOptions) error {
	if opts.Rows < 1 {
		return fmt.Errorf("rows must be at least 1")
	}

	var faker *datagen.Faker
	if opts.Seed != 0 {
		faker = datagen.NewFakerWithSeed(opts.Seed)
	} else {
		faker = datagen.NewFaker()
	}

	products := makeSampleProducts(faker, max(20, opts.Rows/25))
	customers := makeSampleCustomers(faker, max(10, opts.Rows/40))

	writer := csv.NewWriter(w)
	if err := writer.Write(InputColumns); err != nil {
		return err
	}

	start := time.Date(2010, 12, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2011, 12, 9, 18, 0, 0, 0, time.UTC)

	written := 0
	invoiceSeq := 536365
	for written < opts.Rows {
		invoiceNo := strconv.Itoa(invoiceSeq)
		invoiceSeq++
		invoiceDate := faker.DateRange(start, end).Truncate(time.Minute)

		// Guest orders carry only a country, no customer reference.
		var customerField, country string
		if faker.Int(1, 100) <= 15 {
			customerField = ""
			country = datagen.ChooseWeighted(faker, sampleCountries, sampleCountryWeights)
		} else {
			cust := datagen.Choose(faker, customers)
			customerField = strconv.Itoa(cust.id)
			country = cust.country
		}

		lines := min(faker.Int(1, 8), opts.Rows-written)
		for i := 0; i < lines; i++ {
			p := datagen.Choose(faker, products)
			qty := faker.Int(1, 24)
			if faker.Int(1, 100) <= 2 {
				// Occasional return line.
				qty = -faker.Int(1, 6)
			}

			row := []string{
				invoiceNo,
				p.stockCode,
				p.description,
				strconv.Itoa(qty),
				invoiceDate.Format("2006-01-02 15:04:05"),
				strconv.FormatFloat(p.unitPrice, 'f', 2, 64),
				customerField,
				country,
			}
			if err := writer.Write(row); err != nil {
				return err
			}
			written++
		}
	}

	writer.Flush()
	return writer.Error()
}

// GenerateSampleFile writes a synthetic dataset to path.
func GenerateSampleFile(path string, opts SampleOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create sample file: %w", err)
	}
	defer f.Close()

	if err := WriteSample(f, opts); err != nil {
		return err
	}

	logging.Info().
		Str("output", path).
		Int("rows", opts.Rows).
		Msg("Sample dataset generated")

	return nil
}

func makeSampleProducts(faker *datagen.Faker, count int) []sampleProduct {
	suffixes := []string{"", "A", "B", "C"}
	products := make([]sampleProduct, 0, count+count/10)
	for i := 0; i < count; i++ {
		p := sampleProduct{
			stockCode:   faker.Digits(5) + datagen.Choose(faker, suffixes),
			description: faker.ProductName(),
			unitPrice:   faker.Price(0.25, 40.0),
		}
		products = append(products, p)

		// A small share of stock codes also appears with a second
		// description/price combination, mirroring the data-quality
		// ambiguity of real exports.
		if faker.Int(1, 100) <= 10 {
			products = append(products, sampleProduct{
				stockCode:   p.stockCode,
				description: faker.ProductName(),
				unitPrice:   faker.Price(0.25, 40.0),
			})
		}
	}
	return products
}

func makeSampleCustomers(faker *datagen.Faker, count int) []sampleCustomer {
	customers := make([]sampleCustomer, count)
	for i := range customers {
		customers[i] = sampleCustomer{
			id:      12000 + i,
			country: datagen.ChooseWeighted(faker, sampleCountries, sampleCountryWeights),
		}
	}
	return customers
}
