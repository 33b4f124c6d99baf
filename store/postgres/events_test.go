package postgres

import "testing"

func TestNullIfEmpty(t *testing.T) {
	if nullIfEmpty("") != nil {
		t.Error("expected nil for an empty string")
	}
	if nullIfEmpty("x") != "x" {
		t.Error("expected the string to pass through unchanged")
	}
}
