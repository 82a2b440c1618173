// Package normalize decomposes the enriched flat table into a star
// schema: brand and category dimensions, a products fact table with
// nullable foreign keys, a derived reviews table, and an entity-
// attribute-value table parsed from free-text product information.
package normalize

import (
	"github.com/martflow/martflow/internal/model"
	"github.com/martflow/martflow/pkg/observe"
)

// Brand is a dimension row.
type Brand struct {
	ID   int
	Name string
}

// Category is a dimension row.
type Category struct {
	ID   int
	Name string
}

// Product is a fact row. Pointer fields are nullable in the store.
type Product struct {
	ID           int
	Name         string
	BrandID      *int
	CategoryID   *int
	URL          *string
	Colour       *string
	PriceMRP     *float64
	PriceSale    float64
	DiscountRate float64
	IsOnSale     bool
	Information  *string
	Description  *string
}

// Review is derived per product, present only when review_count > 0.
type Review struct {
	ProductID       int
	Rating          *float64
	ReviewCount     float64
	PopularityScore float64
}

// ProductAttribute is one key/value pair parsed from an information field.
type ProductAttribute struct {
	ProductID int
	Key       string
	Value     *string
}

// StarSchema is the full normalized output of one run.
type StarSchema struct {
	Brands     []Brand
	Categories []Category
	Products   []Product
	Reviews    []Review
	Attributes []ProductAttribute
}

// Build normalizes the enriched table. Dimension identifiers are assigned
// 1..N in first-seen order; products keep a null foreign key when their
// brand or category has no dimension row (matching never drops rows).
func Build(t *model.Table, rep observe.Reporter) *StarSchema {
	s := &StarSchema{}

	brandIDs := buildDimension(t, "brand", func(id int, name string) {
		s.Brands = append(s.Brands, Brand{ID: id, Name: name})
	})
	categoryIDs := buildDimension(t, "category", func(id int, name string) {
		s.Categories = append(s.Categories, Category{ID: id, Name: name})
	})

	parseFailures := 0
	for _, row := range t.Rows {
		p := Product{
			ID:           len(s.Products) + 1,
			Name:         stringCell(t, row, "name"),
			URL:          optString(t, row, "url"),
			Colour:       optString(t, row, "colour"),
			PriceMRP:     optFloat(t, row, "price_mrp"),
			PriceSale:    floatCell(t, row, "price_sale"),
			DiscountRate: floatCell(t, row, "discount_rate"),
			IsOnSale:     floatCell(t, row, "is_on_sale") != 0,
			Information:  optString(t, row, "information"),
			Description:  optString(t, row, "description"),
		}
		if brand := optString(t, row, "brand"); brand != nil {
			if id, ok := brandIDs[*brand]; ok {
				p.BrandID = &id
			}
		}
		if idx := t.Col("category"); idx >= 0 && !row[idx].Blank() {
			name := stringCell(t, row, "category")
			if id, ok := categoryIDs[name]; ok {
				p.CategoryID = &id
			}
		}
		s.Products = append(s.Products, p)

		if reviews := optFloat(t, row, "review_count"); reviews != nil && *reviews > 0 {
			s.Reviews = append(s.Reviews, Review{
				ProductID:       p.ID,
				Rating:          optFloat(t, row, "rating"),
				ReviewCount:     *reviews,
				PopularityScore: floatCell(t, row, "popularity_score"),
			})
		}

		if p.Information != nil {
			attrs, ok := ParseProductInformation(*p.Information)
			if !ok {
				parseFailures++
			}
			for _, kv := range attrs {
				s.Attributes = append(s.Attributes, ProductAttribute{
					ProductID: p.ID,
					Key:       kv.Key,
					Value:     kv.Value,
				})
			}
		}
	}

	if parseFailures > 0 {
		rep.AttributeFailures(parseFailures)
	}
	rep.Info("normalized %d products, %d brands, %d categories, %d reviews, %d attributes",
		len(s.Products), len(s.Brands), len(s.Categories), len(s.Reviews), len(s.Attributes))
	return s
}

// buildDimension extracts distinct non-blank values of a column and
// assigns identifiers in first-seen order.
func buildDimension(t *model.Table, column string, emit func(id int, name string)) map[string]int {
	ids := make(map[string]int)
	idx := t.Col(column)
	if idx < 0 {
		return ids
	}

	for _, row := range t.Rows {
		v := row[idx]
		if v.Blank() {
			continue
		}
		name := v.Text()
		if _, seen := ids[name]; seen {
			continue
		}
		id := len(ids) + 1
		ids[name] = id
		emit(id, name)
	}
	return ids
}

func stringCell(t *model.Table, row model.Row, column string) string {
	idx := t.Col(column)
	if idx < 0 {
		return ""
	}
	return row[idx].Text()
}

func optString(t *model.Table, row model.Row, column string) *string {
	idx := t.Col(column)
	if idx < 0 || row[idx].Blank() {
		return nil
	}
	s := row[idx].Text()
	return &s
}

func floatCell(t *model.Table, row model.Row, column string) float64 {
	idx := t.Col(column)
	if idx < 0 {
		return 0
	}
	f, _ := row[idx].Float()
	return f
}

func optFloat(t *model.Table, row model.Row, column string) *float64 {
	idx := t.Col(column)
	if idx < 0 || row[idx].IsNull() {
		return nil
	}
	f, ok := row[idx].Float()
	if !ok {
		return nil
	}
	return &f
}
