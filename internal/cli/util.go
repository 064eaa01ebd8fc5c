package cli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/odysseus0/rssant/internal/api"
	"github.com/odysseus0/rssant/internal/model"
)

var wsRegexp = regexp.MustCompile(`\s+`)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", api.ErrValidation, s)
	}
	return id, nil
}

// formatDate renders ts relative to now: a clock time today, "yesterday",
// "2 days ago", a month-day within the year, otherwise year-month.
func formatDate(ts model.Timestamp, now time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	t := ts.In(now.Location())
	switch {
	case sameDay(t, now):
		return t.Format("15:04")
	case sameDay(t.AddDate(0, 0, 1), now):
		return "yesterday"
	case sameDay(t.AddDate(0, 0, 2), now):
		return "2 days ago"
	case t.Year() == now.Year():
		return t.Format("01-02")
	default:
		return t.Format("2006-01")
	}
}

// formatFullDate renders the absolute time followed by how long ago it was.
func formatFullDate(ts model.Timestamp, now time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	t := ts.In(now.Location())
	stamp := t.Format("2006-01-02 15:04:05")
	switch {
	case sameDay(t, now):
		return stamp + " today"
	case sameDay(t.AddDate(0, 0, 1), now):
		return stamp + " yesterday"
	default:
		return fmt.Sprintf("%s about %d days ago", stamp, int(now.Sub(t).Hours()/24))
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func timestampOrZero(ts *model.Timestamp) model.Timestamp {
	if ts == nil {
		return model.Timestamp{}
	}
	return *ts
}

func compactText(v string, max int) string {
	v = strings.TrimSpace(wsRegexp.ReplaceAllString(v, " "))
	runes := []rune(v)
	if max <= 0 || len(runes) <= max {
		return v
	}
	return string(runes[:max-1]) + "..."
}

func fallback(v, fb string) string {
	if strings.TrimSpace(v) == "" {
		return fb
	}
	return v
}
