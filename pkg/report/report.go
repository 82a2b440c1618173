// Package report runs the standard business queries against the
// persisted views and renders them to the console and to a spreadsheet
// workbook. This layer is read-only: it consumes the schema the pipeline
// produces and never touches the pipeline itself.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/marcboeker/go-duckdb"
	"golang.org/x/sync/errgroup"

	"github.com/martflow/martflow/pkg/errors"
)

// ResultSet is one query's tabular output.
type ResultSet struct {
	Title   string
	Sheet   string
	Columns []string
	Rows    [][]string
}

type query struct {
	title string
	sheet string
	sql   string
}

// The standard business questions, each answered by one view query.
var queries = []query{
	{
		title: "Top products by popularity",
		sheet: "Top Products",
		sql: `SELECT name, brand, category, price_sale, rating, review_count, popularity_score
		      FROM view_top_products
		      ORDER BY popularity_score DESC, name
		      LIMIT 10`,
	},
	{
		title: "Best promotions by real discount",
		sheet: "Promotions",
		sql: `SELECT name, brand, category, price_mrp, price_sale, computed_discount_pct
		      FROM view_promotions
		      ORDER BY computed_discount_pct DESC, name
		      LIMIT 10`,
	},
	{
		title: "Category engagement",
		sheet: "Categories",
		sql: `SELECT category, product_count, avg_effective_price, avg_rating, total_reviews
		      FROM view_category_stats
		      ORDER BY total_reviews DESC, category`,
	},
	{
		title: "Brand satisfaction",
		sheet: "Brands",
		sql: `SELECT brand, product_count, avg_effective_price, avg_rating, total_reviews
		      FROM view_brand_stats
		      ORDER BY avg_rating DESC NULLS LAST, brand`,
	},
	{
		title: "Hidden gems (high rating, few reviews)",
		sheet: "Hidden Gems",
		sql: `SELECT name, brand, category, price_sale, rating, review_count
		      FROM view_top_products
		      WHERE rating >= 4.5 AND review_count BETWEEN 1 AND 20
		      ORDER BY rating DESC, review_count ASC, name`,
	},
}

// Run executes the business queries against the persisted store. The
// queries are independent reads over a finished store, so they fan out
// concurrently; the core pipeline stays single-threaded.
func Run(ctx context.Context, dbPath string) ([]ResultSet, error) {
	db, err := sql.Open("duckdb", dbPath+"?access_mode=read_only")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeReportFailure, "failed to open store").
			WithContext("path", dbPath)
	}
	defer db.Close()

	results := make([]ResultSet, len(queries))
	g, gctx := errgroup.WithContext(ctx)

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			rs, err := runQuery(gctx, db, q)
			if err != nil {
				return err
			}
			results[i] = *rs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runQuery(ctx context.Context, db *sql.DB, q query) (*ResultSet, error) {
	rows, err := db.QueryContext(ctx, q.sql)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeReportFailure, "query failed").
			WithContext("query", q.title)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeReportFailure, "failed to read columns").
			WithContext("query", q.title)
	}

	rs := &ResultSet{Title: q.title, Sheet: q.sheet, Columns: cols}
	cells := make([]interface{}, len(cols))
	for i := range cells {
		cells[i] = new(interface{})
	}

	for rows.Next() {
		if err := rows.Scan(cells...); err != nil {
			return nil, errors.Wrap(err, errors.CodeReportFailure, "failed to scan row").
				WithContext("query", q.title)
		}
		record := make([]string, len(cols))
		for i, c := range cells {
			record[i] = renderCell(*(c.(*interface{})))
		}
		rs.Rows = append(rs.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeReportFailure, "query iteration failed").
			WithContext("query", q.title)
	}
	return rs, nil
}

// renderCell formats a scanned value for display and export.
func renderCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
