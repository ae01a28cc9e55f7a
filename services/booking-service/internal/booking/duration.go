package booking

// ServiceSpec is the subset of a service record the validator needs, plus the
// name and price captured as a snapshot on the booking.
type ServiceSpec struct {
	ID              string
	BusinessID      string
	Name            string
	Price           string
	DurationMinutes int
	BufferMinutes   int
}

// ResolveServices maps the requested ids, in order and with duplicates kept, to
// the records loaded from storage. Every record must belong to businessID.
func ResolveServices(ids []string, found []ServiceSpec, businessID string) ([]ServiceSpec, error) {
	byID := make(map[string]ServiceSpec, len(found))
	for _, s := range found {
		byID[s.ID] = s
	}

	out := make([]ServiceSpec, 0, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			return nil, rejectf(ServiceNotFound, "service %q not found", id)
		}
		if s.BusinessID != businessID {
			return nil, rejectf(ServiceMismatch, "service %q does not belong to this business", id)
		}
		out = append(out, s)
	}
	return out, nil
}

// TotalMinutes sums duration plus buffer over services. Callers reject empty
// service lists before getting here.
func TotalMinutes(services []ServiceSpec) int {
	total := 0
	for _, s := range services {
		total += s.DurationMinutes + s.BufferMinutes
	}
	return total
}
