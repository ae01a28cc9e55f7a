package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/booking"
)

// StatusFor maps a rejection reason to its HTTP status.
func StatusFor(reason booking.Reason) int {
	switch reason {
	case booking.InvalidToken:
		return http.StatusNotFound
	case booking.BookingDisabled, booking.TokenExpired:
		return http.StatusForbidden
	case booking.SlotUnavailable:
		return http.StatusConflict
	case booking.CredentialLookupFailed, booking.ServiceLookupFailed, booking.EmployeeLookupFailed,
		booking.BookingLookupFailed, booking.InsertFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
