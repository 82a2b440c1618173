// Package cleaner turns the raw table into a trustworthy one: exact
// duplicates removed, identity-missing rows dropped, columns renamed to
// canonical names, numeric fields coerced with an invalid-to-null policy.
package cleaner

import (
	"strconv"
	"strings"

	"github.com/martflow/martflow/internal/model"
	"github.com/martflow/martflow/pkg/observe"
)

// Identity columns checked before renaming. Rows missing either are
// dropped entirely; every surviving record has both.
const (
	colProductName = "product_name"
	colSalePrice   = "sale_price"
)

// columnMapping is the fixed source-name to canonical-name mapping.
// Unmapped columns pass through unchanged.
var columnMapping = map[string]string{
	"product_url":         "url",
	"product_name":        "name",
	"brand":               "brand",
	"star_rating":         "rating",
	"number_of_reviews":   "review_count",
	"MRP":                 "price_mrp",
	"sale_price":          "price_sale",
	"colour":              "colour",
	"product information": "information",
	"description":         "description",
}

// NumericColumns are coerced by ConvertDataTypes, in this order.
var NumericColumns = []string{"rating", "review_count", "price_mrp", "price_sale"}

// RemoveDuplicates drops exact-duplicate rows, keeping first occurrence.
func RemoveDuplicates(t *model.Table, rep observe.Reporter) *model.Table {
	out := model.NewTable(t.Columns)
	seen := make(map[[32]byte]struct{}, t.Len())

	for _, row := range t.Rows {
		key := model.RowKey(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Append(row)
	}

	removed := t.Len() - out.Len()
	if removed > 0 {
		rep.RowsRemoved(observe.StageDeduplicated, "exact duplicate", removed)
	}
	return out
}

// CleanMissingValues drops rows with a blank product_name or sale_price,
// then reports remaining null counts and percentages per column.
func CleanMissingValues(t *model.Table, rep observe.Reporter) *model.Table {
	nameIdx := t.Col(colProductName)
	priceIdx := t.Col(colSalePrice)

	out := model.NewTable(t.Columns)
	for _, row := range t.Rows {
		if nameIdx >= 0 && row[nameIdx].Blank() {
			continue
		}
		if priceIdx >= 0 && row[priceIdx].Blank() {
			continue
		}
		out.Append(row)
	}

	removed := t.Len() - out.Len()
	if removed > 0 {
		rep.RowsRemoved(observe.StageMissingHandled, "missing name or sale price", removed)
	}

	if out.Len() > 0 {
		for i, col := range out.Columns {
			nulls := 0
			for _, row := range out.Rows {
				if row[i].IsNull() {
					nulls++
				}
			}
			if nulls > 0 {
				pct := float64(nulls) / float64(out.Len()) * 100
				rep.ColumnNulls(col, nulls, pct)
			}
		}
	}
	return out
}

// RenameColumns applies the canonical column mapping. Rows are shared,
// only the header changes.
func RenameColumns(t *model.Table, rep observe.Reporter) *model.Table {
	cols := make([]string, len(t.Columns))
	renamed := 0
	for i, c := range t.Columns {
		if canonical, ok := columnMapping[c]; ok {
			cols[i] = canonical
			if canonical != c {
				renamed++
			}
		} else {
			cols[i] = c
		}
	}

	out := model.NewTable(cols)
	out.Rows = t.Rows
	rep.Info("renamed %d columns to canonical names", renamed)
	return out
}

// ConvertDataTypes coerces each numeric column to number-or-null. A value
// that cannot be parsed becomes null and is counted, never an error.
func ConvertDataTypes(t *model.Table, rep observe.Reporter) *model.Table {
	numeric := make(map[int]string)
	for _, name := range NumericColumns {
		if i := t.Col(name); i >= 0 {
			numeric[i] = name
		}
	}

	out := model.NewTable(t.Columns)
	invalid := make(map[string]int)

	for _, row := range t.Rows {
		next := make(model.Row, len(row))
		copy(next, row)
		for i, name := range numeric {
			v, bad := coerceNumeric(row[i])
			next[i] = v
			if bad {
				invalid[name]++
			}
		}
		out.Append(next)
	}

	for _, name := range NumericColumns {
		if n := invalid[name]; n > 0 {
			rep.CoercionFailures(name, n)
		}
	}
	return out
}

// coerceNumeric converts a cell to a number. The second return is true
// only when a non-blank value failed to parse.
func coerceNumeric(v model.Value) (model.Value, bool) {
	switch v.Kind() {
	case model.KindNumber:
		return v, false
	case model.KindNull:
		return v, false
	default:
		s := strings.TrimSpace(v.Str())
		if s == "" {
			return model.Null(), false
		}
		// Scraped prices often carry thousands separators.
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.Null(), true
		}
		return model.Number(f), false
	}
}
