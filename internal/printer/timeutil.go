package printer

import (
	"fmt"
	"time"

	"github.com/slok/deployboard/internal/model"
)

const (
	// NoTime is printed when an event timestamp is missing.
	NoTime = "--:--:--"
	// NoDuration is printed when a stage has no duration.
	NoDuration = "—"
	// InProgress is printed for the duration of a running stage.
	InProgress = "in progress…"
)

// TimeAgo returns a human-readable relative time string in UTC.
// Examples: "5 seconds ago (UTC)", "2 minutes ago (UTC)", "3 hours ago (UTC)".
func TimeAgo(t time.Time) string {
	now := time.Now().UTC()
	t = t.UTC()

	diff := now.Sub(t)

	// Handle future times
	if diff < 0 {
		return "in the future (UTC)"
	}

	if diff < time.Minute {
		return plural(int(diff.Seconds()), "second")
	}

	if diff < time.Hour {
		return plural(int(diff.Minutes()), "minute")
	}

	if diff < 24*time.Hour {
		return plural(int(diff.Hours()), "hour")
	}

	return plural(int(diff.Hours()/24), "day")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago (UTC)", unit)
	}
	return fmt.Sprintf("%d %ss ago (UTC)", n, unit)
}

// TimeAgoRaw is like TimeAgo for backend timestamps, unparseable values are
// printed as "-".
func TimeAgoRaw(raw string) string {
	t, ok := model.ParseTime(raw)
	if !ok {
		return "-"
	}
	return TimeAgo(t)
}

// FormatTimestamp returns a formatted timestamp string in UTC.
// Format: "2006-01-02 15:04:05 UTC".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

// FormatClock returns the UTC wall clock of a backend timestamp as HH:MM:SS.
func FormatClock(raw string) string {
	t, ok := model.ParseTime(raw)
	if !ok {
		return NoTime
	}
	return t.UTC().Format("15:04:05")
}

// FormatDuration formats a stage duration as HH:MM:SS. Stages without a
// duration are printed as in progress when running.
func FormatDuration(d *time.Duration, running bool) string {
	if d == nil {
		if running {
			return InProgress
		}
		return NoDuration
	}

	secs := int64(*d / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
