package utils

import (
	"fmt"
	"time"
)

var arabicMonths = [...]string{
	"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
	"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

var arabicWeekdays = [...]string{
	"الأحد", "الاثنين", "الثلاثاء", "الأربعاء", "الخميس", "الجمعة", "السبت",
}

// FormatArabicDate renders a date as "2 يناير 2025".
func FormatArabicDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d %s %d", t.Day(), arabicMonths[t.Month()-1], t.Year())
}

// FormatArabicDateLong includes the weekday: "الخميس، 2 يناير 2025".
func FormatArabicDateLong(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s، %s", arabicWeekdays[t.Weekday()], FormatArabicDate(t))
}

// Today is the midnight-truncated current date used by expiry comparisons.
func Today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// ParseFormDate parses a submitted date, defaulting to today when blank.
func ParseFormDate(raw string) time.Time {
	if raw == "" {
		return time.Now().Truncate(24 * time.Hour)
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Now().Truncate(24 * time.Hour)
}

// ParseFormTime parses an "HH:MM" field; malformed input yields nil.
func ParseFormTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
