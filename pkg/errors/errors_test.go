package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	err := New(CodeSourceNotFound, "source file not found").WithContext("path", "/tmp/x.csv")

	msg := err.Error()
	if !strings.Contains(msg, "[E101]") {
		t.Errorf("message missing code: %s", msg)
	}
	if !strings.Contains(msg, "path=/tmp/x.csv") {
		t.Errorf("message missing context: %s", msg)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(cause, CodePersistFailure, "failed to persist store")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("cause not rendered: %s", err.Error())
	}
	if Wrap(nil, CodePersistFailure, "x") != nil {
		t.Error("wrapping nil must return nil")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := SourceEmpty("/tmp/x.csv")

	if !stderrors.Is(err, New(CodeSourceEmpty, "")) {
		t.Error("errors with the same code must match")
	}
	if stderrors.Is(err, New(CodeSourceNotFound, "")) {
		t.Error("errors with different codes must not match")
	}
}

func TestCodeExtraction(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", LoadFailure(fmt.Errorf("bad row"), "x.csv"))

	if !IsCode(wrapped, CodeLoadFailure) {
		t.Error("IsCode must see through fmt wrapping")
	}
	if got := GetCode(wrapped); got != CodeLoadFailure {
		t.Errorf("GetCode = %v, want %v", got, CodeLoadFailure)
	}
	if got := GetCode(fmt.Errorf("plain")); got != CodeUnknown {
		t.Errorf("GetCode(plain) = %v, want %v", got, CodeUnknown)
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{CodeSourceNotFound, true},
		{CodeSourceEmpty, true},
		{CodeLoadFailure, true},
		{CodeCoercionWarning, false},
		{CodeValidationWarning, false},
		{CodeAttributeParse, false},
		{CodePersistFailure, true},
		{CodeReportFailure, true},
		{CodeContextCanceled, true},
		{CodeUnknown, true},
	}
	for _, tt := range tests {
		if got := IsFatal(New(tt.code, "x")); got != tt.want {
			t.Errorf("IsFatal(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestStackTrace(t *testing.T) {
	err := New(CodeUnknown, "boom")

	if len(err.StackTrace) == 0 {
		t.Fatal("no stack captured")
	}
	if !strings.Contains(err.FormatStack(), "errors_test") {
		t.Errorf("stack does not name the caller:\n%s", err.FormatStack())
	}
}
