package writer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/martflow/martflow/internal/model"
	"github.com/martflow/martflow/pkg/observe"
)

func cleanTable() *model.Table {
	t := model.NewTable([]string{"name", "price_sale", "discount_rate", "description"})
	t.Append(model.Row{
		model.String("Shoe A"),
		model.Number(40),
		model.Number(60),
		model.String("soft, \"light\"\ntwo lines"),
	})
	t.Append(model.Row{
		model.String("Shoe B"),
		model.Number(19.99),
		model.Number(0),
		model.Null(),
	})
	return t
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.csv")
	in := cleanTable()

	if err := WriteClean(path, in, observe.Nop{}); err != nil {
		t.Fatal(err)
	}
	out, err := ReadClean(path, observe.Nop{})
	if err != nil {
		t.Fatal(err)
	}

	if out.Len() != in.Len() {
		t.Fatalf("got %d rows, want %d", out.Len(), in.Len())
	}
	// Numeric columns come back as numbers, not text.
	if got := out.Cell(1, "price_sale"); got.Kind() != model.KindNumber || got.Num() != 19.99 {
		t.Errorf("price_sale = %v, want number 19.99", got)
	}
	if got := out.Cell(0, "discount_rate"); got.Num() != 60 {
		t.Errorf("discount_rate = %v, want 60", got)
	}
	// Free text survives quoting, including embedded newlines.
	if got := out.Cell(0, "description").Str(); got != "soft, \"light\"\ntwo lines" {
		t.Errorf("description = %q", got)
	}
	// Nulls round-trip as nulls.
	if !out.Cell(1, "description").IsNull() {
		t.Error("null description came back non-null")
	}
}

func TestWriteCleanDeterministic(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.csv")
	second := filepath.Join(dir, "b.csv")
	in := cleanTable()

	if err := WriteClean(first, in, observe.Nop{}); err != nil {
		t.Fatal(err)
	}
	if err := WriteClean(second, in, observe.Nop{}); err != nil {
		t.Fatal(err)
	}

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("repeated writes of the same table differ")
	}
}

func TestWriteCleanBadPath(t *testing.T) {
	err := WriteClean(filepath.Join(t.TempDir(), "no-such-dir", "clean.csv"), cleanTable(), observe.Nop{})
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
}
