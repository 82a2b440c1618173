package report

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestRenderCell(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, ""},
		{"string", "Acme", "Acme"},
		{"bytes", []byte("raw"), "raw"},
		{"float", 19.99, "19.99"},
		{"float without fraction", 60.0, "60"},
		{"int64", int64(42), "42"},
		{"int32", int32(7), "7"},
		{"bool", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderCell(tt.in); got != tt.want {
				t.Errorf("renderCell(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestQueriesCoverEverySheet(t *testing.T) {
	seen := make(map[string]bool)
	for _, q := range queries {
		if q.title == "" || q.sheet == "" || q.sql == "" {
			t.Errorf("incomplete query definition: %+v", q)
		}
		if seen[q.sheet] {
			t.Errorf("duplicate sheet name %q", q.sheet)
		}
		seen[q.sheet] = true
	}
	if len(queries) != 5 {
		t.Errorf("got %d queries, want 5", len(queries))
	}
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	results := []ResultSet{
		{
			Title:   "Top products by popularity",
			Sheet:   "Top Products",
			Columns: []string{"name", "brand", "popularity_score"},
			Rows: [][]string{
				{"Shoe A", "Acme", "10.79"},
				{"Shoe B", "Zeta", "4.2"},
			},
		},
		{
			Title:   "Brand satisfaction",
			Sheet:   "Brands",
			Columns: []string{"brand", "avg_rating"},
			Rows:    [][]string{{"Acme", "4.5"}},
		},
	}

	if err := ExportXLSX(results, path); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Top Products" || sheets[1] != "Brands" {
		t.Fatalf("sheets = %v", sheets)
	}

	rows, err := f.GetRows("Top Products")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header plus 2", len(rows))
	}
	if rows[0][0] != "name" || rows[0][2] != "popularity_score" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "Shoe A" || rows[2][1] != "Zeta" {
		t.Errorf("data rows = %v", rows[1:])
	}
}
