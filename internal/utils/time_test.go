package utils

import (
	"testing"
	"time"
)

func TestAddDaysAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	// 2024-03-10 is the spring-forward day in New York
	start := time.Date(2024, 3, 11, 0, 30, 0, 0, loc)
	got := FormatDate(AddDays(start, -1))
	if got != "2024-03-10" {
		t.Errorf("AddDays(-1) = %s, want 2024-03-10", got)
	}
	got = FormatDate(AddDays(start, -2))
	if got != "2024-03-09" {
		t.Errorf("AddDays(-2) = %s, want 2024-03-09", got)
	}
}

func TestFormatDateKeepsLocalCalendar(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 2024-01-01 23:30 UTC is already 2024-01-02 locally
	ts := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC).In(loc)
	if got := FormatDate(ts); got != "2024-01-02" {
		t.Errorf("FormatDate = %s, want 2024-01-02", got)
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2024-01-01", "2024-01-02", 1},
		{"2024-02-28", "2024-03-01", 2},
		{"2024-01-05", "2024-01-01", -4},
		{"2023-12-31", "2024-01-01", 1},
	}
	for _, tt := range tests {
		got, err := DaysBetween(tt.a, tt.b)
		if err != nil {
			t.Fatalf("DaysBetween(%s, %s) error: %v", tt.a, tt.b, err)
		}
		if got != tt.want {
			t.Errorf("DaysBetween(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}

	if _, err := DaysBetween("2024-13-01", "2024-01-01"); err == nil {
		t.Error("expected error for invalid date")
	}
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	if err != nil || loc != time.Local {
		t.Errorf("empty timezone should map to time.Local, got %v, %v", loc, err)
	}
	if _, err := LoadLocation("Not/AZone"); err == nil {
		t.Error("expected error for invalid timezone")
	}
	if ValidateTimezone("Not/AZone") {
		t.Error("ValidateTimezone accepted an invalid zone")
	}
}

func TestParseWeekdays(t *testing.T) {
	got, err := ParseWeekdays("Mon, wednesday,5")
	if err != nil {
		t.Fatalf("ParseWeekdays error: %v", err)
	}
	want := []string{"mon", "wed", "fri"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if _, err := ParseWeekdays("funday"); err == nil {
		t.Error("expected error for invalid weekday")
	}
	if got, _ := ParseWeekdays(""); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}

func TestStartOfDayKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	in := time.Date(2024, 1, 5, 23, 59, 10, 0, loc)

	got := StartOfDay(in)
	want := time.Date(2024, 1, 5, 0, 0, 0, 0, loc)
	if !got.Equal(want) || got.Location() != loc {
		t.Errorf("StartOfDay(%v) = %v, want %v", in, got, want)
	}
}
