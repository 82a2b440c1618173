// Package writer persists the cleaned, enriched table as a delimited
// file. That file is the contract boundary between the clean stage and
// the split stage: the split stage accepts it as input without re-running
// any cleaning.
package writer

import (
	enccsv "encoding/csv"
	"os"

	"github.com/martflow/martflow/internal/model"
	"github.com/martflow/martflow/pkg/cleaner"
	"github.com/martflow/martflow/pkg/errors"
	"github.com/martflow/martflow/pkg/observe"
	"github.com/martflow/martflow/pkg/parser"
)

// Enriched numeric columns restored to numbers when the intermediate
// file is read back.
var enrichedNumericColumns = append(
	append([]string{}, cleaner.NumericColumns...),
	"discount_rate", "is_on_sale", "popularity_score",
)

// WriteClean writes the table as a comma-delimited file. Null cells
// become empty fields; numbers use their shortest exact decimal form so
// repeated runs produce byte-identical output.
func WriteClean(path string, t *model.Table, rep observe.Reporter) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.CodePersistFailure, "failed to create clean file").
			WithContext("path", path)
	}
	defer f.Close()

	w := enccsv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return errors.Wrap(err, errors.CodePersistFailure, "failed to write header")
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, cell := range row {
			record[i] = cell.Text()
		}
		if err := w.Write(record); err != nil {
			return errors.Wrap(err, errors.CodePersistFailure, "failed to write row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, errors.CodePersistFailure, "failed to flush clean file")
	}

	rep.Info("wrote %d clean rows to %s", t.Len(), path)
	return nil
}

// ReadClean loads a previously written clean file and restores the
// numeric columns, which the delimited form stores as text.
func ReadClean(path string, rep observe.Reporter) (*model.Table, error) {
	t, err := parser.LoadCSV(path, parser.DefaultOptions(), rep)
	if err != nil {
		return nil, err
	}

	numeric := make(map[int]struct{})
	for _, name := range enrichedNumericColumns {
		if i := t.Col(name); i >= 0 {
			numeric[i] = struct{}{}
		}
	}

	out := model.NewTable(t.Columns)
	for _, row := range t.Rows {
		next := make(model.Row, len(row))
		copy(next, row)
		for i := range numeric {
			if row[i].IsNull() {
				continue
			}
			if f, ok := row[i].Float(); ok {
				next[i] = model.Number(f)
			}
		}
		out.Append(next)
	}
	return out, nil
}
