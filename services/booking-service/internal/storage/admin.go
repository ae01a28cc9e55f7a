package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/sharebook/libs/db"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/sharetoken"
)

type BookingRecord struct {
	ID          string
	BusinessID  string
	EmployeeID  string
	Date        time.Time
	Interval    booking.Interval
	ClientID    string
	ClientName  string
	ClientPhone string
	ClientEmail string
	Notes       string
	Archived    bool
	CreatedAt   time.Time
	Services    []booking.ServiceSpec
}

// ListBookings returns the business's bookings for one day, optionally
// narrowed to one employee, archived ones included.
func (s *Store) ListBookings(ctx context.Context, businessID, employeeID string, date time.Time) ([]BookingRecord, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id::text, business_id, employee_id, booking_date, start_minute, end_minute,
			COALESCE(client_id, ''), client_name, client_phone, COALESCE(client_email, ''),
			COALESCE(notes, ''), archived, created_at
		FROM bookings
		WHERE business_id = $1 AND booking_date = $2 AND ($3 = '' OR employee_id = $3)
		ORDER BY employee_id, start_minute
	`, businessID, date, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []BookingRecord
	index := map[string]int{}
	for rows.Next() {
		var b BookingRecord
		if err := rows.Scan(&b.ID, &b.BusinessID, &b.EmployeeID, &b.Date, &b.Interval.Start, &b.Interval.End,
			&b.ClientID, &b.ClientName, &b.ClientPhone, &b.ClientEmail, &b.Notes, &b.Archived, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		index[b.ID] = len(out)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(out))
	for _, b := range out {
		ids = append(ids, b.ID)
	}
	svcRows, err := s.conn.Query(ctx, `
		SELECT booking_id::text, service_id, name, price::text, duration_minutes, buffer_minutes
		FROM booking_services
		WHERE booking_id::text = ANY($1)
		ORDER BY booking_id, position
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("list booking services: %w", err)
	}
	defer svcRows.Close()

	for svcRows.Next() {
		var bookingID string
		var svc booking.ServiceSpec
		if err := svcRows.Scan(&bookingID, &svc.ID, &svc.Name, &svc.Price, &svc.DurationMinutes, &svc.BufferMinutes); err != nil {
			return nil, fmt.Errorf("scan booking service: %w", err)
		}
		if i, ok := index[bookingID]; ok {
			svc.BusinessID = out[i].BusinessID
			out[i].Services = append(out[i].Services, svc)
		}
	}
	return out, svcRows.Err()
}

// ArchiveBooking frees the booking's slot and records booking.archived.
// Archiving an unknown or already archived booking returns ErrNotFound.
func (s *Store) ArchiveBooking(ctx context.Context, businessID, bookingID string) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE bookings
		SET archived = TRUE, archived_at = now()
		WHERE id::text = $1 AND business_id = $2 AND NOT archived
	`, bookingID, businessID)
	if err != nil {
		return fmt.Errorf("archive booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	evt, err := outbox.NewBookingEvent(bookingID, outbox.EventBookingArchived, outbox.BookingArchived{
		BookingID:  bookingID,
		BusinessID: businessID,
	})
	if err != nil {
		return err
	}
	if err := s.outbox.Insert(ctx, tx, evt); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return tx.Commit(ctx)
}

// IssueShareToken mints a token for the business and stores only its digest.
// The raw token is returned once and cannot be recovered later.
func (s *Store) IssueShareToken(ctx context.Context, businessID string, expiresAt *time.Time) (string, error) {
	token, err := sharetoken.New()
	if err != nil {
		return "", err
	}
	_, err = s.conn.Exec(ctx, `
		INSERT INTO share_tokens (business_id, token_digest, status, expires_at)
		VALUES ($1, $2, 'active', $3)
	`, businessID, sharetoken.Digest(token), expiresAt)
	if err != nil {
		if db.HasCode(err, db.CodeForeignKeyViolation) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("insert share token: %w", err)
	}
	return token, nil
}

func (s *Store) RevokeShareToken(ctx context.Context, businessID, token string) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE share_tokens
		SET status = 'revoked', revoked_at = now()
		WHERE token_digest = $1 AND business_id = $2 AND status = 'active'
	`, sharetoken.Digest(token), businessID)
	if err != nil {
		return fmt.Errorf("revoke share token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
