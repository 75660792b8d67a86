package utils

import (
	"testing"
	"time"
)

func TestFormatArabicDate(t *testing.T) {
	d := time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)
	if got := FormatArabicDate(d); got != "2 يناير 2025" {
		t.Errorf("unexpected format: %q", got)
	}
	if got := FormatArabicDate(time.Time{}); got != "" {
		t.Errorf("zero time should format empty, got %q", got)
	}
	if got := FormatArabicDateLong(d); got != "الخميس، 2 يناير 2025" {
		t.Errorf("unexpected long format: %q", got)
	}
}

func TestParseFormDate(t *testing.T) {
	if got := ParseFormDate("2025-03-15"); got.Year() != 2025 || got.Month() != time.March || got.Day() != 15 {
		t.Errorf("ISO date not parsed: %v", got)
	}
	if got := ParseFormDate("15/03/2025"); got.Day() != 15 || got.Month() != time.March {
		t.Errorf("slash date not parsed: %v", got)
	}
	// Blank falls back to today.
	if got := ParseFormDate(""); time.Since(got) > 25*time.Hour {
		t.Errorf("blank date should default to today, got %v", got)
	}
}

func TestParseFormTime(t *testing.T) {
	if got := ParseFormTime("14:30"); got == nil || got.Hour() != 14 || got.Minute() != 30 {
		t.Errorf("HH:MM not parsed: %v", got)
	}
	if got := ParseFormTime("garbage"); got != nil {
		t.Errorf("malformed time should yield nil, got %v", got)
	}
	if got := ParseFormTime(""); got != nil {
		t.Errorf("blank time should yield nil, got %v", got)
	}
}
