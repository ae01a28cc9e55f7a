package outbox

import (
	"encoding/json"
	"fmt"
)

const (
	AggregateBooking = "booking"

	EventBookingCreated  = "booking.created.v1"
	EventBookingArchived = "booking.archived.v1"
)

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type BookingService struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Price           string `json:"price"`
	DurationMinutes int    `json:"duration_minutes"`
	BufferMinutes   int    `json:"buffer_minutes"`
}

type BookingCreated struct {
	BookingID   string           `json:"booking_id"`
	BusinessID  string           `json:"business_id"`
	EmployeeID  string           `json:"employee_id"`
	Date        string           `json:"date"`
	Start       string           `json:"start"`
	End         string           `json:"end"`
	ClientName  string           `json:"client_name"`
	ClientPhone string           `json:"client_phone"`
	ClientEmail string           `json:"client_email,omitempty"`
	Services    []BookingService `json:"services"`
}

type BookingArchived struct {
	BookingID  string `json:"booking_id"`
	BusinessID string `json:"business_id"`
}

// NewBookingEvent marshals payload into an event for the booking aggregate.
func NewBookingEvent(bookingID, eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		AggregateType: AggregateBooking,
		AggregateID:   bookingID,
		EventType:     eventType,
		Payload:       raw,
	}, nil
}
