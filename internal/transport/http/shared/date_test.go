package shared

import (
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	year, month, err := ParsePeriod("2024-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if year != 2024 || month != time.March {
		t.Fatalf("expected 2024-03, got %d-%d", year, month)
	}

	if _, _, err := ParsePeriod("2024-3"); err == nil {
		t.Fatal("expected error for non-padded month")
	}
	if _, _, err := ParsePeriod("03-2024"); err == nil {
		t.Fatal("expected error for reversed period")
	}
	if _, _, err := ParsePeriod(""); err == nil {
		t.Fatal("expected error for empty period")
	}
}

func TestParseDateFormats(t *testing.T) {
	plain, err := ParseDate("2024-03-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plain.Equal(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", plain)
	}

	if _, err := ParseDate("2024-03-15T10:00:00Z"); err != nil {
		t.Fatalf("RFC3339 should parse: %v", err)
	}

	zero, err := ParseDate("")
	if err != nil || !zero.IsZero() {
		t.Fatalf("empty input should give zero time, got %v, %v", zero, err)
	}
}
