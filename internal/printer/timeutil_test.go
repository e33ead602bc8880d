package printer_test

import (
	"testing"
	"time"

	"github.com/slok/deployboard/internal/printer"
	"github.com/stretchr/testify/assert"
)

func TestTimeAgo(t *testing.T) {
	now := time.Now().UTC()

	tests := map[string]struct {
		time     time.Time
		expected string
	}{
		"1 second ago": {
			time:     now.Add(-1 * time.Second),
			expected: "1 second ago (UTC)",
		},
		"30 seconds ago": {
			time:     now.Add(-30 * time.Second),
			expected: "30 seconds ago (UTC)",
		},
		"1 minute ago": {
			time:     now.Add(-1 * time.Minute),
			expected: "1 minute ago (UTC)",
		},
		"45 minutes ago": {
			time:     now.Add(-45 * time.Minute),
			expected: "45 minutes ago (UTC)",
		},
		"1 hour ago": {
			time:     now.Add(-1 * time.Hour),
			expected: "1 hour ago (UTC)",
		},
		"5 hours ago": {
			time:     now.Add(-5 * time.Hour),
			expected: "5 hours ago (UTC)",
		},
		"1 day ago": {
			time:     now.Add(-24 * time.Hour),
			expected: "1 day ago (UTC)",
		},
		"7 days ago": {
			time:     now.Add(-7 * 24 * time.Hour),
			expected: "7 days ago (UTC)",
		},
		"future time": {
			time:     now.Add(5 * time.Minute),
			expected: "in the future (UTC)",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			result := printer.TimeAgo(test.time)
			assert.Equal(test.expected, result)
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := map[string]struct {
		time     time.Time
		expected string
	}{
		"standard timestamp": {
			time:     time.Date(2026, 1, 30, 10, 15, 30, 0, time.UTC),
			expected: "2026-01-30 10:15:30 UTC",
		},
		"timestamp with different timezone gets converted to UTC": {
			time:     time.Date(2026, 1, 30, 10, 15, 30, 0, time.FixedZone("EST", -5*3600)),
			expected: "2026-01-30 15:15:30 UTC",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			result := printer.FormatTimestamp(test.time)
			assert.Equal(test.expected, result)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	dur := func(d time.Duration) *time.Duration { return &d }

	tests := map[string]struct {
		duration *time.Duration
		running  bool
		expected string
	}{
		"A missing duration on a running stage should be in progress.": {
			running:  true,
			expected: "in progress…",
		},
		"A missing duration on a stopped stage should be a placeholder.": {
			expected: "—",
		},
		"A zero duration should be formatted.": {
			duration: dur(0),
			expected: "00:00:00",
		},
		"Sub second parts should be truncated.": {
			duration: dur(65*time.Second + 999*time.Millisecond),
			expected: "00:01:05",
		},
		"Hours should be formatted.": {
			duration: dur(26*time.Hour + 3*time.Minute + 4*time.Second),
			running:  true,
			expected: "26:03:04",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			assert.Equal(test.expected, printer.FormatDuration(test.duration, test.running))
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := map[string]struct {
		raw      string
		expected string
	}{
		"An empty timestamp should be a placeholder.": {
			raw:      "",
			expected: "--:--:--",
		},
		"An invalid timestamp should be a placeholder.": {
			raw:      "yesterday",
			expected: "--:--:--",
		},
		"A zoned timestamp should be printed in UTC.": {
			raw:      "2026-01-30T10:15:30+02:00",
			expected: "08:15:30",
		},
		"A timestamp without zone should be read as UTC.": {
			raw:      "2026-01-30T10:15:30.123456",
			expected: "10:15:30",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			assert.Equal(test.expected, printer.FormatClock(test.raw))
		})
	}
}
