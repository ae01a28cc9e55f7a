package booking

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints (one ends at 10:00, the other starts at 10:00) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && a.End > b.Start
}

// CheckOverlap rejects the request if it intersects any existing booking.
// existing must already be narrowed to the same employee and date with
// archived bookings excluded.
func CheckOverlap(req Interval, existing []Interval) error {
	for _, b := range existing {
		if Overlaps(req, b) {
			return rejectf(SlotUnavailable, "requested %s overlaps an existing booking at %s", req, b)
		}
	}
	return nil
}
