package booking

import (
	"fmt"
	"regexp"
	"time"
)

const dateLayout = "2006-01-02"

var (
	clockPattern = regexp.MustCompile(`^([0-1]\d|2[0-3]):[0-5]\d$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Interval is a half-open range [Start, End) of minutes since midnight.
type Interval struct {
	Start int
	End   int
}

func (iv Interval) Minutes() int { return iv.End - iv.Start }

func (iv Interval) String() string {
	return FormatClock(iv.Start) + "-" + FormatClock(iv.End)
}

// ParseDate accepts YYYY-MM-DD strings that name a real calendar day.
func ParseDate(s string) (time.Time, error) {
	if !datePattern.MatchString(s) {
		return time.Time{}, reject(InvalidDate)
	}
	d, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, rejectErr(InvalidDate, err)
	}
	return d, nil
}

// ParseClock converts a 24h HH:MM wall-clock string into minutes since midnight.
func ParseClock(s string) (int, error) {
	if !clockPattern.MatchString(s) {
		return 0, rejectf(InvalidTime, "invalid time %q, expected HH:MM", s)
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	return h*60 + m, nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseInterval parses a start/end pair. The end must come after the start on
// the same day.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	if e <= s {
		return Interval{}, rejectf(InvalidTime, "end %s must be after start %s", end, start)
	}
	return Interval{Start: s, End: e}, nil
}

// CheckRange requires the client-proposed range to span exactly the
// server-computed duration. The end time is never recomputed server side.
func CheckRange(iv Interval, expectedMinutes int) error {
	if got := iv.Minutes(); got != expectedMinutes {
		return rejectf(DurationMismatch, "requested range is %d minutes, services require %d", got, expectedMinutes)
	}
	return nil
}
