// Package quality runs advisory sanity checks over the enriched table.
// Findings are reported, never fatal: a failed check does not stop the run.
package quality

import (
	"fmt"
	"strings"

	"github.com/martflow/martflow/internal/model"
	"github.com/martflow/martflow/pkg/observe"
)

// Issue is one failed check with the number of offending rows.
type Issue struct {
	Check string
	Rows  int
}

// Result holds the outcome of a validation pass.
type Result struct {
	RowsChecked int
	Issues      []Issue
}

// OK reports whether every check passed.
func (r *Result) OK() bool { return len(r.Issues) == 0 }

// ValidateData checks the enriched table non-destructively:
// negative sale prices, ratings outside [0,5], negative review counts,
// and sale prices above the list price. Each failed check is reported.
func ValidateData(t *model.Table, rep observe.Reporter) *Result {
	res := &Result{RowsChecked: t.Len()}

	checks := []struct {
		name string
		bad  func(row model.Row) bool
	}{
		{"negative sale price", predicate(t, "price_sale", func(v float64) bool { return v < 0 })},
		{"rating outside [0, 5]", predicate(t, "rating", func(v float64) bool { return v < 0 || v > 5 })},
		{"negative review count", predicate(t, "review_count", func(v float64) bool { return v < 0 })},
		{"sale price above list price", saleAboveMRP(t)},
	}

	for _, check := range checks {
		n := 0
		for _, row := range t.Rows {
			if check.bad(row) {
				n++
			}
		}
		if n > 0 {
			res.Issues = append(res.Issues, Issue{Check: check.name, Rows: n})
			rep.ValidationIssue(check.name, n)
		}
	}
	return res
}

// predicate builds a row check over one numeric column. Null cells pass.
func predicate(t *model.Table, column string, bad func(float64) bool) func(model.Row) bool {
	idx := t.Col(column)
	return func(row model.Row) bool {
		if idx < 0 || row[idx].IsNull() {
			return false
		}
		v, ok := row[idx].Float()
		return ok && bad(v)
	}
}

func saleAboveMRP(t *model.Table) func(model.Row) bool {
	saleIdx := t.Col("price_sale")
	mrpIdx := t.Col("price_mrp")
	return func(row model.Row) bool {
		if saleIdx < 0 || mrpIdx < 0 {
			return false
		}
		sale, sok := row[saleIdx].Float()
		mrp, mok := row[mrpIdx].Float()
		return sok && mok && sale > mrp
	}
}

// Report renders the result as a bordered text block.
func (r *Result) Report() string {
	var sb strings.Builder
	sb.WriteString("┌─────────────────────────────────────────────┐\n")
	sb.WriteString("│          DATA QUALITY REPORT                │\n")
	sb.WriteString("├─────────────────────────────────────────────┤\n")
	sb.WriteString(fmt.Sprintf("│ Rows checked: %-29d │\n", r.RowsChecked))
	if r.OK() {
		sb.WriteString("│ All checks passed                           │\n")
	} else {
		for _, issue := range r.Issues {
			line := fmt.Sprintf("%s: %d rows", issue.Check, issue.Rows)
			sb.WriteString(fmt.Sprintf("│ ✗ %-41s │\n", line))
		}
	}
	sb.WriteString("└─────────────────────────────────────────────┘")
	return sb.String()
}
