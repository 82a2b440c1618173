// Package enrich computes the derived fields of the catalog: discount
// rate, on-sale flag, category from URL structure, popularity score.
package enrich

import (
	"math"
	"regexp"
	"strings"

	"github.com/martflow/martflow/internal/model"
	"github.com/martflow/martflow/pkg/observe"
)

var productSlugRe = regexp.MustCompile(`/products/([^/]+)`)

// Derived column names, appended in this order.
var DerivedColumns = []string{"discount_rate", "is_on_sale", "category", "popularity_score"}

// AddCalculatedFields appends the four derived columns to the table.
func AddCalculatedFields(t *model.Table, rep observe.Reporter) *model.Table {
	out := t.WithColumns(DerivedColumns...)

	mrpIdx := t.Col("price_mrp")
	saleIdx := t.Col("price_sale")
	urlIdx := t.Col("url")
	ratingIdx := t.Col("rating")
	reviewsIdx := t.Col("review_count")

	unknownCategories := 0
	for _, row := range t.Rows {
		discount := discountRate(cellAt(row, mrpIdx), cellAt(row, saleIdx))
		category := categoryOf(cellAt(row, urlIdx))
		if category == CategoryUnknown {
			unknownCategories++
		}
		popularity := popularityScore(cellAt(row, ratingIdx), cellAt(row, reviewsIdx))

		next := make(model.Row, 0, len(row)+len(DerivedColumns))
		next = append(next, row...)
		next = append(next,
			model.Number(discount),
			model.Bool(discount > 0),
			model.String(category),
			model.Number(popularity),
		)
		out.Append(next)
	}

	rep.Info("enriched %d rows (%d without a recognizable category)", out.Len(), unknownCategories)
	return out
}

func cellAt(row model.Row, idx int) model.Value {
	if idx < 0 {
		return model.Null()
	}
	return row[idx]
}

// discountRate returns the percentage discount, rounded to 2 decimals.
// A null or non-positive list price means no discount can be computed.
func discountRate(mrp, sale model.Value) float64 {
	m, mok := mrp.Float()
	s, sok := sale.Float()
	if !mok || !sok || m <= 0 {
		return 0.0
	}
	return Round2((m - s) / m * 100)
}

// popularityScore combines rating and review volume with logarithmic
// dampening: rating * ln(1 + review_count), rounded to 2 decimals.
// Either field missing yields 0.0.
func popularityScore(rating, reviews model.Value) float64 {
	r, rok := rating.Float()
	n, nok := reviews.Float()
	if !rok || !nok {
		return 0.0
	}
	return Round2(r * math.Log(1+n))
}

// CategoryUnknown is returned when no category can be derived.
const CategoryUnknown = "Unknown"

func categoryOf(url model.Value) string {
	if url.Kind() != model.KindString {
		return CategoryUnknown
	}
	return CategoryFromURL(url.Str())
}

// CategoryFromURL derives a category from a product URL. The slug after
// /products/ is split on hyphens; gendered slugs ("womens-dress-red")
// name the category in the second token, others in the first. Any shape
// the rule does not cover yields "Unknown".
func CategoryFromURL(url string) string {
	m := productSlugRe.FindStringSubmatch(url)
	if m == nil {
		return CategoryUnknown
	}

	tokens := strings.Split(m[1], "-")
	gendered := false
	for _, tok := range tokens {
		if tok == "womens" || tok == "mens" {
			gendered = true
			break
		}
	}

	if gendered {
		if len(tokens) < 2 || tokens[1] == "" {
			return CategoryUnknown
		}
		return tokens[1]
	}
	if len(tokens) == 0 || tokens[0] == "" {
		return CategoryUnknown
	}
	return tokens[0]
}

// Round2 rounds to two decimal places.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
