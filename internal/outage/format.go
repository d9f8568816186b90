package outage

import (
	"fmt"
	"strings"
	"time"
)

const (
	secondsPerDay = 24 * 60 * 60
	nanosPerSec   = int64(time.Second)
)

// FormatTimestamp renders t in UTC as "2006-01-02 15:04:05[.frac] UTC".
// The fraction is omitted when zero and otherwise uses the shortest exact
// width among 3, 6 and 9 digits.
func FormatTimestamp(t time.Time) string {
	t = t.UTC()
	var b strings.Builder
	b.WriteString(t.Format("2006-01-02 15:04:05"))
	b.WriteString(fraction(int64(t.Nanosecond())))
	b.WriteString(" UTC")
	return b.String()
}

// FormatDuration renders d as an ISO-8601 duration, e.g. PT12S, PT0.250S,
// P1DT5S or P1D.
func FormatDuration(d time.Duration) string {
	var b strings.Builder
	abs := uint64(d)
	if d < 0 {
		b.WriteByte('-')
		abs = uint64(-(d + 1)) + 1
	}

	secs := abs / uint64(nanosPerSec)
	nanos := int64(abs % uint64(nanosPerSec))
	days := secs / secondsPerDay
	secs -= days * secondsPerDay

	b.WriteByte('P')
	if days != 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	if secs != 0 || nanos != 0 || days == 0 {
		fmt.Fprintf(&b, "T%d%sS", secs, fraction(nanos))
	}
	return b.String()
}

func fraction(nanos int64) string {
	switch {
	case nanos == 0:
		return ""
	case nanos%1_000_000 == 0:
		return fmt.Sprintf(".%03d", nanos/1_000_000)
	case nanos%1_000 == 0:
		return fmt.Sprintf(".%06d", nanos/1_000)
	default:
		return fmt.Sprintf(".%09d", nanos)
	}
}
