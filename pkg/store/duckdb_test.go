package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/martflow/martflow/pkg/errors"
	"github.com/martflow/martflow/pkg/normalize"
	"github.com/martflow/martflow/pkg/observe"
)

func ptr[T any](v T) *T { return &v }

func sampleSchema() *normalize.StarSchema {
	return &normalize.StarSchema{
		Brands:     []normalize.Brand{{ID: 1, Name: "Acme"}},
		Categories: []normalize.Category{{ID: 1, Name: "running"}},
		Products: []normalize.Product{
			{
				ID: 1, Name: "Shoe A", BrandID: ptr(1), CategoryID: ptr(1),
				URL: ptr("https://shop.example/products/mens-running-shoe"),
				PriceMRP: ptr(100.0), PriceSale: 40, DiscountRate: 60, IsOnSale: true,
			},
			{
				// Null brand, no list price.
				ID: 2, Name: "Shoe B", CategoryID: ptr(1),
				PriceSale: 25, DiscountRate: 0, IsOnSale: false,
			},
		},
		Reviews: []normalize.Review{
			{ProductID: 1, Rating: ptr(4.5), ReviewCount: 10, PopularityScore: 10.79},
		},
		Attributes: []normalize.ProductAttribute{
			{ProductID: 1, Key: "Material", Value: ptr("Cotton")},
		},
	}
}

func TestPersistAndReadStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mart.db")

	w, err := NewWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Persist(context.Background(), sampleSchema(), observe.Nop{}); err != nil {
		w.Close()
		t.Fatal(err)
	}
	if err := w.Commit(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatal("committed store missing:", err)
	}
	if _, err := os.Stat(path + ".building"); !os.IsNotExist(err) {
		t.Error("side file left behind after commit")
	}

	stats, err := ReadStats(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}

	wantRows := map[string]int64{
		"brands":             1,
		"categories":         1,
		"products":           2,
		"reviews":            1,
		"product_attributes": 1,
	}
	got := make(map[string]int64)
	for _, tc := range stats.Tables {
		got[tc.Table] = tc.Rows
	}
	for table, rows := range wantRows {
		if got[table] != rows {
			t.Errorf("%s: %d rows, want %d", table, got[table], rows)
		}
	}
	if len(stats.Tables) != len(wantRows) {
		t.Errorf("got tables %v", got)
	}

	wantViews := []string{
		"view_brand_stats", "view_catalog", "view_category_stats",
		"view_promotions", "view_top_products",
	}
	if len(stats.Views) != len(wantViews) {
		t.Fatalf("views = %v, want %v", stats.Views, wantViews)
	}
	for i, v := range wantViews {
		if stats.Views[i] != v {
			t.Errorf("view %d = %q, want %q", i, stats.Views[i], v)
		}
	}
}

func TestNoAttributesNoTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mart.db")
	schema := sampleSchema()
	schema.Attributes = nil

	w, err := NewWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Persist(context.Background(), schema, observe.Nop{}); err != nil {
		w.Close()
		t.Fatal(err)
	}
	if err := w.Commit(); err != nil {
		t.Fatal(err)
	}

	stats, err := ReadStats(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range stats.Tables {
		if tc.Table == "product_attributes" {
			t.Error("attribute table created for a run with no attributes")
		}
	}
}

func TestAbortedRunLeavesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mart.db")

	w, err := NewWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Persist(context.Background(), sampleSchema(), observe.Nop{}); err != nil {
		w.Close()
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("aborted run produced a store at the target path")
	}
	if _, err := os.Stat(path + ".building"); !os.IsNotExist(err) {
		t.Error("aborted run left the side file behind")
	}
}

func TestCommitReplacesPreviousStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mart.db")

	for _, products := range []int{2, 1} {
		schema := sampleSchema()
		schema.Products = schema.Products[:products]
		if products == 1 {
			schema.Reviews = nil
			schema.Attributes = nil
		}

		w, err := NewWriter(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := w.Persist(context.Background(), schema, observe.Nop{}); err != nil {
			w.Close()
			t.Fatal(err)
		}
		if err := w.Commit(); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := ReadStats(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range stats.Tables {
		if tc.Table == "products" && tc.Rows != 1 {
			t.Errorf("products = %d rows, want 1 after full replacement", tc.Rows)
		}
	}
}

func TestReadStatsMissingStore(t *testing.T) {
	_, err := ReadStats(context.Background(), filepath.Join(t.TempDir(), "absent.db"))
	if !errors.IsCode(err, errors.CodeSourceNotFound) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.CodeSourceNotFound)
	}
}
