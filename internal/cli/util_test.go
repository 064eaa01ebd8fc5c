package cli

import (
	"errors"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/odysseus0/rssant/internal/api"
	"github.com/odysseus0/rssant/internal/model"
)

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	if err != nil {
		t.Fatalf("parseID: %v", err)
	}
	if id != 42 {
		t.Fatalf("unexpected id: %d", id)
	}
	for _, raw := range []string{"0", "-3", "abc", ""} {
		_, err := parseID(raw)
		if !errors.Is(err, api.ErrValidation) {
			t.Fatalf("parseID(%q) error = %v, want validation error", raw, err)
		}
	}
}

func TestFallback(t *testing.T) {
	if got := fallback("value", "x"); got != "value" {
		t.Fatalf("fallback non-empty: %q", got)
	}
	if got := fallback("   ", "x"); got != "x" {
		t.Fatalf("fallback empty: %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	at := func(t time.Time) model.Timestamp { return model.Timestamp{Time: t} }

	tests := []struct {
		name string
		ts   model.Timestamp
		want string
	}{
		{name: "zero", ts: model.Timestamp{}, want: "-"},
		{name: "today", ts: at(time.Date(2024, 3, 15, 9, 5, 0, 0, time.UTC)), want: "09:05"},
		{name: "yesterday", ts: at(time.Date(2024, 3, 14, 23, 0, 0, 0, time.UTC)), want: "yesterday"},
		{name: "two days", ts: at(time.Date(2024, 3, 13, 1, 0, 0, 0, time.UTC)), want: "2 days ago"},
		{name: "same year", ts: at(time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC)), want: "01-02"},
		{name: "older", ts: at(time.Date(2022, 11, 20, 1, 0, 0, 0, time.UTC)), want: "2022-11"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatDate(tt.ts, now); got != tt.want {
				t.Fatalf("formatDate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatFullDate(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	at := func(t time.Time) model.Timestamp { return model.Timestamp{Time: t} }

	if got := formatFullDate(at(time.Date(2024, 3, 15, 9, 5, 7, 0, time.UTC)), now); got != "2024-03-15 09:05:07 today" {
		t.Fatalf("today: %q", got)
	}
	if got := formatFullDate(at(time.Date(2024, 3, 14, 9, 5, 7, 0, time.UTC)), now); got != "2024-03-14 09:05:07 yesterday" {
		t.Fatalf("yesterday: %q", got)
	}
	if got := formatFullDate(at(time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC)), now); got != "2024-03-05 18:00:00 about 10 days ago" {
		t.Fatalf("older: %q", got)
	}
	if got := formatFullDate(model.Timestamp{}, now); got != "-" {
		t.Fatalf("zero: %q", got)
	}
}

func TestCompactText(t *testing.T) {
	if got := compactText("  a \n\t b  ", 0); got != "a b" {
		t.Fatalf("whitespace: %q", got)
	}
	if got := compactText("abcdefghij", 5); got != "abcd..." {
		t.Fatalf("truncate: %q", got)
	}
	got := compactText("订阅源无法访问请稍后再试", 5)
	if got != "订阅源无..." || !utf8.ValidString(got) {
		t.Fatalf("multi-byte truncate: %q", got)
	}
}
