// Package store persists the normalized star schema into an embedded
// DuckDB database: tables, referential integrity, indexes, and the
// analytical views the query layer reads.
//
// Each run fully replaces the prior store. The new database is written
// to a side file and renamed over the target only after every table,
// index, and view has been created, so a failed run never leaves a
// half-written store at the target path.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/martflow/martflow/pkg/errors"
	"github.com/martflow/martflow/pkg/normalize"
	"github.com/martflow/martflow/pkg/observe"
)

// Writer persists one star schema build.
type Writer struct {
	path     string
	sidePath string
	db       *sql.DB
	closed   bool
}

// NewWriter opens a fresh side database next to the target path.
func NewWriter(path string) (*Writer, error) {
	sidePath := path + ".building"
	// A stale side file from a crashed run is garbage.
	if err := os.Remove(sidePath); err != nil && !os.IsNotExist(err) {
		return nil, errors.PersistFailure(err, "remove stale side file")
	}

	db, err := sql.Open("duckdb", sidePath)
	if err != nil {
		return nil, errors.PersistFailure(err, "open database")
	}

	return &Writer{path: path, sidePath: sidePath, db: db}, nil
}

// Persist writes all tables, indexes, and views. Any failure is fatal
// and surfaced with the step that failed; nothing is retried.
func (w *Writer) Persist(ctx context.Context, s *normalize.StarSchema, rep observe.Reporter) error {
	if err := w.createTables(ctx, len(s.Attributes) > 0); err != nil {
		return err
	}
	if err := w.insertAll(ctx, s); err != nil {
		return err
	}
	if err := w.createIndexes(ctx); err != nil {
		return err
	}
	if err := w.createViews(ctx); err != nil {
		return err
	}

	rep.Info("persisted %d products, %d brands, %d categories, %d reviews, %d attributes",
		len(s.Products), len(s.Brands), len(s.Categories), len(s.Reviews), len(s.Attributes))
	return nil
}

func (w *Writer) createTables(ctx context.Context, withAttributes bool) error {
	ddl := []string{
		`CREATE TABLE brands (
			brand_id INTEGER PRIMARY KEY,
			brand    VARCHAR NOT NULL UNIQUE
		)`,
		`CREATE TABLE categories (
			category_id INTEGER PRIMARY KEY,
			category    VARCHAR NOT NULL UNIQUE
		)`,
		`CREATE TABLE products (
			product_id    INTEGER PRIMARY KEY,
			name          VARCHAR NOT NULL,
			brand_id      INTEGER REFERENCES brands(brand_id),
			category_id   INTEGER REFERENCES categories(category_id),
			url           VARCHAR,
			colour        VARCHAR,
			price_mrp     DOUBLE,
			price_sale    DOUBLE NOT NULL,
			discount_rate DOUBLE NOT NULL,
			is_on_sale    BOOLEAN NOT NULL,
			information   VARCHAR,
			description   VARCHAR
		)`,
		`CREATE TABLE reviews (
			product_id       INTEGER NOT NULL REFERENCES products(product_id),
			rating           DOUBLE,
			review_count     INTEGER NOT NULL,
			popularity_score DOUBLE NOT NULL
		)`,
	}
	if withAttributes {
		ddl = append(ddl, `CREATE TABLE product_attributes (
			product_id      INTEGER NOT NULL REFERENCES products(product_id),
			attribute_key   VARCHAR NOT NULL,
			attribute_value VARCHAR
		)`)
	}

	for _, stmt := range ddl {
		if _, err := w.db.ExecContext(ctx, stmt); err != nil {
			return errors.PersistFailure(err, "create tables")
		}
	}
	return nil
}

// insertAll loads every table inside one transaction per table, parents
// before children so the declared foreign keys hold at insert time.
func (w *Writer) insertAll(ctx context.Context, s *normalize.StarSchema) error {
	if err := w.insertBatch(ctx, "brands",
		`INSERT INTO brands (brand_id, brand) VALUES (?, ?)`,
		len(s.Brands), func(i int) []interface{} {
			b := s.Brands[i]
			return []interface{}{b.ID, b.Name}
		}); err != nil {
		return err
	}

	if err := w.insertBatch(ctx, "categories",
		`INSERT INTO categories (category_id, category) VALUES (?, ?)`,
		len(s.Categories), func(i int) []interface{} {
			c := s.Categories[i]
			return []interface{}{c.ID, c.Name}
		}); err != nil {
		return err
	}

	if err := w.insertBatch(ctx, "products",
		`INSERT INTO products (product_id, name, brand_id, category_id, url, colour,
			price_mrp, price_sale, discount_rate, is_on_sale, information, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(s.Products), func(i int) []interface{} {
			p := s.Products[i]
			return []interface{}{
				p.ID, p.Name, optInt(p.BrandID), optInt(p.CategoryID),
				optStr(p.URL), optStr(p.Colour), optFloat(p.PriceMRP),
				p.PriceSale, p.DiscountRate, p.IsOnSale,
				optStr(p.Information), optStr(p.Description),
			}
		}); err != nil {
		return err
	}

	if err := w.insertBatch(ctx, "reviews",
		`INSERT INTO reviews (product_id, rating, review_count, popularity_score)
		 VALUES (?, ?, ?, ?)`,
		len(s.Reviews), func(i int) []interface{} {
			r := s.Reviews[i]
			return []interface{}{r.ProductID, optFloat(r.Rating), int(r.ReviewCount), r.PopularityScore}
		}); err != nil {
		return err
	}

	if len(s.Attributes) > 0 {
		if err := w.insertBatch(ctx, "product_attributes",
			`INSERT INTO product_attributes (product_id, attribute_key, attribute_value)
			 VALUES (?, ?, ?)`,
			len(s.Attributes), func(i int) []interface{} {
				a := s.Attributes[i]
				return []interface{}{a.ProductID, a.Key, optStr(a.Value)}
			}); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) insertBatch(ctx context.Context, table, query string, n int, args func(i int) []interface{}) error {
	if n == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.PersistFailure(err, "begin "+table)
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return errors.PersistFailure(err, "prepare "+table)
	}

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			stmt.Close()
			tx.Rollback()
			return errors.PersistFailure(err, "insert "+table).WithContext("row", i+1)
		}
	}
	stmt.Close()

	if err := tx.Commit(); err != nil {
		return errors.PersistFailure(err, "commit "+table)
	}
	return nil
}

func (w *Writer) createIndexes(ctx context.Context) error {
	indexes := []string{
		`CREATE INDEX idx_products_brand ON products(brand_id)`,
		`CREATE INDEX idx_products_category ON products(category_id)`,
		`CREATE INDEX idx_products_price_sale ON products(price_sale)`,
		`CREATE INDEX idx_products_discount ON products(discount_rate)`,
		`CREATE INDEX idx_reviews_rating ON reviews(rating)`,
		`CREATE INDEX idx_reviews_popularity ON reviews(popularity_score)`,
	}
	if w.tableExists(ctx, "product_attributes") {
		indexes = append(indexes, `CREATE INDEX idx_attributes_key ON product_attributes(attribute_key)`)
	}

	for _, stmt := range indexes {
		if _, err := w.db.ExecContext(ctx, stmt); err != nil {
			return errors.PersistFailure(err, "create indexes")
		}
	}
	return nil
}

func (w *Writer) tableExists(ctx context.Context, name string) bool {
	var n int
	err := w.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?`, name).Scan(&n)
	return err == nil && n > 0
}

func (w *Writer) createViews(ctx context.Context) error {
	for _, stmt := range viewDefinitions {
		if _, err := w.db.ExecContext(ctx, stmt); err != nil {
			return errors.PersistFailure(err, "create views")
		}
	}
	return nil
}

// Commit closes the side database and atomically renames it over the
// target. After Commit returns, the new store is the store.
func (w *Writer) Commit() error {
	if err := w.closeDB(); err != nil {
		return errors.PersistFailure(err, "close database")
	}
	if err := os.Rename(w.sidePath, w.path); err != nil {
		return errors.PersistFailure(err, "swap database into place")
	}
	return nil
}

// Close releases resources without committing. The side file is removed
// so an aborted run leaves nothing behind.
func (w *Writer) Close() error {
	err := w.closeDB()
	os.Remove(w.sidePath)
	return err
}

func (w *Writer) closeDB() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.db.Close()
}

func optInt(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func optStr(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func optFloat(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

// --- Post-write stats ---

// TableCount is one table's row count.
type TableCount struct {
	Table string
	Rows  int64
}

// Stats is the read-only post-write report.
type Stats struct {
	Path   string
	Tables []TableCount
	Views  []string
}

// ReadStats reports table row counts and view names for a persisted
// store. Purely observational; it opens the store read-only.
func ReadStats(ctx context.Context, path string) (*Stats, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.SourceNotFound(path)
	}

	db, err := sql.Open("duckdb", path+"?access_mode=read_only")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeReportFailure, "failed to open store")
	}
	defer db.Close()

	stats := &Stats{Path: path}

	rows, err := db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_type = 'BASE TABLE' ORDER BY table_name`)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeReportFailure, "failed to list tables")
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, errors.CodeReportFailure, "failed to scan table name")
		}
		tables = append(tables, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeReportFailure, "failed to list tables")
	}

	for _, name := range tables {
		var count int64
		q := fmt.Sprintf(`SELECT COUNT(*) FROM %q`, name)
		if err := db.QueryRowContext(ctx, q).Scan(&count); err != nil {
			return nil, errors.Wrap(err, errors.CodeReportFailure, "failed to count "+name)
		}
		stats.Tables = append(stats.Tables, TableCount{Table: name, Rows: count})
	}

	vrows, err := db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_type = 'VIEW' ORDER BY table_name`)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeReportFailure, "failed to list views")
	}
	defer vrows.Close()
	for vrows.Next() {
		var name string
		if err := vrows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, errors.CodeReportFailure, "failed to scan view name")
		}
		stats.Views = append(stats.Views, name)
	}
	return stats, vrows.Err()
}

