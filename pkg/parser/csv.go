// Package parser reads the raw delimited source export into an in-memory
// table. Load-time failures surface as distinct error kinds and nothing
// downstream runs when loading fails.
package parser

import (
	enccsv "encoding/csv"
	"io"
	"os"

	"github.com/martflow/martflow/internal/model"
	"github.com/martflow/martflow/pkg/errors"
	"github.com/martflow/martflow/pkg/observe"
)

// Options controls source reading.
type Options struct {
	Delimiter rune
}

// DefaultOptions returns the standard comma-delimited configuration.
func DefaultOptions() Options {
	return Options{Delimiter: ','}
}

// LoadCSV reads a delimited file into a table of variant-typed cells.
// Every cell is loaded as a string; empty cells become null. The type
// policy is applied later by the cleaner, never here.
//
// Error kinds: SourceNotFound when the file is missing, SourceEmpty when
// it has a header but no records (or nothing at all), LoadFailure for
// any other read or structural problem.
func LoadCSV(path string, opts Options, rep observe.Reporter) (*model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.SourceNotFound(path)
		}
		return nil, errors.LoadFailure(err, path)
	}
	defer f.Close()

	r := enccsv.NewReader(f)
	r.Comma = opts.Delimiter
	// Scraped exports carry free text with embedded quotes.
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.SourceEmpty(path)
	}
	if err != nil {
		return nil, errors.LoadFailure(err, path)
	}

	table := model.NewTable(header)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.LoadFailure(err, path).
				WithContext("row", table.Len()+2)
		}

		row := make(model.Row, len(header))
		for i := range header {
			cell := ""
			if i < len(record) {
				cell = record[i]
			}
			if cell == "" {
				row[i] = model.Null()
			} else {
				row[i] = model.String(cell)
			}
		}
		table.Append(row)
	}

	if table.Len() == 0 {
		return nil, errors.SourceEmpty(path)
	}

	rep.Info("loaded %d rows, %d columns from %s", table.Len(), len(table.Columns), path)
	return table, nil
}
