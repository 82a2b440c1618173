// Package model defines the in-memory tabular representation shared by
// all pipeline stages. Cells are explicit variants (string, number, null)
// so coercion logic always has a precise source type to branch on.
package model

import (
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
)

// Value is a single table cell.
type Value struct {
	kind Kind
	str  string
	num  float64
}

// Null returns the null value.
func Null() Value {
	return Value{kind: KindNull}
}

// String returns a string-valued cell.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number returns a numeric cell.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Bool encodes a boolean as a number (1/0), matching how the
// persisted store represents flags.
func Bool(b bool) Value {
	if b {
		return Number(1)
	}
	return Number(0)
}

// Kind returns the variant kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the cell is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string content. Only meaningful for KindString.
func (v Value) Str() string { return v.str }

// Num returns the numeric content. Only meaningful for KindNumber.
func (v Value) Num() float64 { return v.num }

// Float converts the cell to a float64 if possible.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Text renders the cell for delimited output: null becomes the empty
// string, numbers use the shortest exact decimal form.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Equal compares two cells by kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	default:
		return true
	}
}

// Blank reports whether the cell is null or an all-whitespace string.
// Used by the missing-value policy, which treats both the same way.
func (v Value) Blank() bool {
	if v.kind == KindNull {
		return true
	}
	if v.kind == KindString {
		return strings.TrimSpace(v.str) == ""
	}
	return false
}
