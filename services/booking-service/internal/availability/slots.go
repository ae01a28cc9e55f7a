package availability

import "github.com/md-rashed-zaman/sharebook/services/booking-service/internal/booking"

// AvailableStarts returns the start minutes within window where a booking of
// duration minutes fits without overlapping any busy interval. Candidates are
// taken every step minutes from window.Start; if notBefore is non-negative,
// starts earlier than it are skipped (used for "today").
func AvailableStarts(window booking.Interval, duration, step int, busy []booking.Interval, notBefore int) []int {
	if duration <= 0 || step <= 0 {
		return nil
	}
	if window.End <= window.Start || window.Start+duration > window.End {
		return nil
	}

	var starts []int
	for s := window.Start; s+duration <= window.End; s += step {
		if notBefore >= 0 && s < notBefore {
			continue
		}
		candidate := booking.Interval{Start: s, End: s + duration}
		if booking.CheckOverlap(candidate, busy) == nil {
			starts = append(starts, s)
		}
	}
	return starts
}
