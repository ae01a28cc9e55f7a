package booking

import (
	"errors"
	"fmt"
)

// Reason is the machine-readable code attached to a rejected booking request.
type Reason string

const (
	MissingToken      Reason = "missing_token"
	MissingServices   Reason = "missing_services"
	InvalidDate       Reason = "invalid_date"
	InvalidTime       Reason = "invalid_time"
	MissingClientInfo Reason = "missing_client_info"
	MissingEmployee   Reason = "missing_employee"

	InvalidToken           Reason = "invalid_token"
	BookingDisabled        Reason = "booking_disabled"
	TokenExpired           Reason = "token_expired"
	CredentialLookupFailed Reason = "credential_lookup_failed"

	ServiceLookupFailed Reason = "service_lookup_failed"
	ServiceNotFound     Reason = "service_not_found"
	ServiceMismatch     Reason = "service_mismatch"

	EmployeeLookupFailed Reason = "employee_lookup_failed"
	EmployeeNotFound     Reason = "employee_not_found"

	BookingLookupFailed Reason = "booking_lookup_failed"
	DurationMismatch    Reason = "duration_mismatch"
	SlotUnavailable     Reason = "slot_unavailable"
	InsertFailed        Reason = "insert_failed"
)

var defaultMessages = map[Reason]string{
	MissingToken:           "token is required",
	MissingServices:        "at least one service is required",
	InvalidDate:            "date must be a valid YYYY-MM-DD calendar date",
	InvalidTime:            "start and end must be HH:MM (24h) with end after start",
	MissingClientInfo:      "client name and phone are required",
	MissingEmployee:        "employeeId is required",
	InvalidToken:           "invalid booking link",
	BookingDisabled:        "online booking is disabled for this link",
	TokenExpired:           "booking link has expired",
	CredentialLookupFailed: "failed to verify booking link",
	ServiceLookupFailed:    "failed to load services",
	ServiceNotFound:        "one or more services were not found",
	ServiceMismatch:        "one or more services do not belong to this business",
	EmployeeLookupFailed:   "failed to load employee",
	EmployeeNotFound:       "employee not found for this business",
	BookingLookupFailed:    "failed to load existing bookings",
	DurationMismatch:       "requested time range does not match the total service duration",
	SlotUnavailable:        "requested time slot is not available",
	InsertFailed:           "failed to create booking",
}

// Internal reports whether the reason stems from a storage failure rather than
// from the request itself.
func (r Reason) Internal() bool {
	switch r {
	case CredentialLookupFailed, ServiceLookupFailed, EmployeeLookupFailed, BookingLookupFailed, InsertFailed:
		return true
	default:
		return false
	}
}

// Rejection is the error returned for every request the validator refuses.
type Rejection struct {
	Reason  Reason
	Message string
	Err     error
}

func (e *Rejection) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func (e *Rejection) Unwrap() error { return e.Err }

func reject(reason Reason) *Rejection {
	return &Rejection{Reason: reason, Message: defaultMessages[reason]}
}

func rejectf(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func rejectErr(reason Reason, err error) *Rejection {
	return &Rejection{Reason: reason, Message: defaultMessages[reason], Err: err}
}

// ReasonOf extracts the rejection reason from err, if any.
func ReasonOf(err error) (Reason, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Reason, true
	}
	return "", false
}
