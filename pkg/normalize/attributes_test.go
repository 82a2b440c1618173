package normalize

import (
	"testing"
)

func attr(key, value string) Attribute {
	return Attribute{Key: key, Value: &value}
}

func nullAttr(key string) Attribute {
	return Attribute{Key: key}
}

func equalAttrs(a, b []Attribute) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key {
			return false
		}
		av, bv := a[i].Value, b[i].Value
		if (av == nil) != (bv == nil) {
			return false
		}
		if av != nil && *av != *bv {
			return false
		}
	}
	return true
}

func TestParseProductInformation(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   []Attribute
		wantOK bool
	}{
		{
			name:   "dict literal",
			input:  "{'Material': 'Cotton', 'Fit': 'Regular'}",
			want:   []Attribute{attr("Material", "Cotton"), attr("Fit", "Regular")},
			wantOK: true,
		},
		{
			name:   "json object",
			input:  `{"Material": "Cotton", "Fit": "Regular"}`,
			want:   []Attribute{attr("Material", "Cotton"), attr("Fit", "Regular")},
			wantOK: true,
		},
		{
			name:   "none becomes null",
			input:  "{'Material': 'Cotton', 'Lining': None}",
			want:   []Attribute{attr("Material", "Cotton"), nullAttr("Lining")},
			wantOK: true,
		},
		{
			name:   "values and keys are trimmed",
			input:  "{'  Material ': '  Cotton  '}",
			want:   []Attribute{attr("Material", "Cotton")},
			wantOK: true,
		},
		{
			name:   "empty value becomes null",
			input:  "{'Material': '   '}",
			want:   []Attribute{nullAttr("Material")},
			wantOK: true,
		},
		{
			name:   "numbers and booleans",
			input:  "{'Weight': 2.5, 'Washable': True}",
			want:   []Attribute{attr("Weight", "2.5"), attr("Washable", "True")},
			wantOK: true,
		},
		{
			name:   "double-quoted dict literal",
			input:  `{"Material": "Wool"}`,
			want:   []Attribute{attr("Material", "Wool")},
			wantOK: true,
		},
		{
			name:   "escaped quote inside value",
			input:  `{'Note': 'says \'dry clean\' only'}`,
			want:   []Attribute{attr("Note", "says 'dry clean' only")},
			wantOK: true,
		},
		{
			name:   "empty dict",
			input:  "{}",
			want:   nil,
			wantOK: true,
		},
		{
			name:   "blank input is empty not a failure",
			input:  "   ",
			want:   nil,
			wantOK: true,
		},
		{
			name:   "malformed input degrades to empty",
			input:  "not-a-dict###",
			want:   nil,
			wantOK: false,
		},
		{
			name:   "truncated dict degrades to empty",
			input:  "{'Material': 'Cot",
			want:   nil,
			wantOK: false,
		},
		{
			name:   "json with nested object is rejected",
			input:  `{"Material": {"inner": 1}}`,
			want:   nil,
			wantOK: false,
		},
		{
			name:   "trailing garbage after dict",
			input:  "{'Material': 'Cotton'} extra",
			want:   nil,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseProductInformation(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !equalAttrs(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

// The dict-literal strategy runs before JSON, so input valid under both
// readings takes the dict-literal meaning. A \u escape makes the order
// observable: the literal scanner keeps the letters, JSON decodes the
// code point.
func TestDictLiteralStrategyWins(t *testing.T) {
	got, ok := ParseProductInformation("{\"K\": \"\\u0041\"}")
	if !ok {
		t.Fatal("input valid under both strategies must parse")
	}
	if !equalAttrs(got, []Attribute{attr("K", "u0041")}) {
		t.Errorf("got %+v, want the dict-literal reading u0041, not the JSON reading A", got)
	}
}

// Both encodings of the same pairs produce identical attribute rows.
func TestStrategyEquivalence(t *testing.T) {
	dict, ok1 := ParseProductInformation("{'Material': 'Cotton', 'Fit': 'Regular'}")
	jsonAttrs, ok2 := ParseProductInformation(`{"Material": "Cotton", "Fit": "Regular"}`)

	if !ok1 || !ok2 {
		t.Fatal("both encodings must parse")
	}
	if !equalAttrs(dict, jsonAttrs) {
		t.Errorf("dict %+v and json %+v attribute rows differ", dict, jsonAttrs)
	}
}

func TestDictLiteralTrailingComma(t *testing.T) {
	got, ok := ParseProductInformation("{'Material': 'Cotton',}")
	if !ok {
		t.Fatal("trailing comma should be tolerated")
	}
	if !equalAttrs(got, []Attribute{attr("Material", "Cotton")}) {
		t.Errorf("got %+v", got)
	}
}
