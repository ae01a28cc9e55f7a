package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/sharebook/libs/db"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/sharetoken"
)

var ErrNotFound = errors.New("storage: not found")

// Store is the Postgres implementation of booking.Store plus the admin
// queries. Every call hits the database; nothing is cached.
type Store struct {
	conn   db.Conn
	outbox *outbox.Repository
}

var _ booking.Store = (*Store)(nil)

func NewStore(conn db.Conn, outboxRepo *outbox.Repository) *Store {
	if outboxRepo == nil {
		outboxRepo = outbox.NewRepository()
	}
	return &Store{conn: conn, outbox: outboxRepo}
}

func (s *Store) CredentialByToken(ctx context.Context, token string) (*booking.ShareCredential, error) {
	var cred booking.ShareCredential
	var status string
	err := s.conn.QueryRow(ctx, `
		SELECT st.business_id, st.status, st.expires_at
		FROM share_tokens st
		JOIN businesses b ON b.id = st.business_id
		WHERE st.token_digest = $1 AND b.is_active
	`, sharetoken.Digest(token)).Scan(&cred.BusinessID, &status, &cred.ExpiresAt)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup share token: %w", err)
	}
	cred.Status = booking.CredentialStatus(status)
	return &cred, nil
}

func (s *Store) ServicesByID(ctx context.Context, ids []string) ([]booking.ServiceSpec, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, business_id, name, price::text, duration_minutes, buffer_minutes
		FROM services
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup services: %w", err)
	}
	defer rows.Close()

	var out []booking.ServiceSpec
	for rows.Next() {
		var svc booking.ServiceSpec
		if err := rows.Scan(&svc.ID, &svc.BusinessID, &svc.Name, &svc.Price, &svc.DurationMinutes, &svc.BufferMinutes); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

func (s *Store) EmployeeInBusiness(ctx context.Context, businessID, employeeID string) (bool, error) {
	var ok bool
	err := s.conn.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1 AND business_id = $2)
	`, employeeID, businessID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("lookup employee: %w", err)
	}
	return ok, nil
}

func (s *Store) BookedIntervals(ctx context.Context, businessID, employeeID string, date time.Time) ([]booking.Interval, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT start_minute, end_minute
		FROM bookings
		WHERE business_id = $1 AND employee_id = $2 AND booking_date = $3 AND NOT archived
		ORDER BY start_minute
	`, businessID, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("lookup bookings: %w", err)
	}
	defer rows.Close()

	var out []booking.Interval
	for rows.Next() {
		var iv booking.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

// CommitBooking writes the booking, one service snapshot per requested
// service and the booking.created event in a single transaction. The
// bookings_no_overlap constraint surfaces as booking.ErrSlotTaken.
func (s *Store) CommitBooking(ctx context.Context, nb booking.NewBooking) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings
			(id, business_id, employee_id, booking_date, start_minute, end_minute,
			 client_id, client_name, client_phone, client_email, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, nb.ID, nb.BusinessID, nb.EmployeeID, nb.Date, nb.Interval.Start, nb.Interval.End,
		nullIfEmpty(nb.Client.ID), nb.Client.Name, nb.Client.Phone, nullIfEmpty(nb.Client.Email), nullIfEmpty(nb.Notes))
	if err != nil {
		if db.HasCode(err, db.CodeExclusionViolation) {
			return fmt.Errorf("%w: %w", booking.ErrSlotTaken, err)
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	snapshot := make([]outbox.BookingService, 0, len(nb.Services))
	for i, svc := range nb.Services {
		_, err = tx.Exec(ctx, `
			INSERT INTO booking_services
				(booking_id, position, service_id, name, price, duration_minutes, buffer_minutes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, nb.ID, i, svc.ID, svc.Name, svc.Price, svc.DurationMinutes, svc.BufferMinutes)
		if err != nil {
			return fmt.Errorf("insert booking service %d: %w", i, err)
		}
		snapshot = append(snapshot, outbox.BookingService{
			ID:              svc.ID,
			Name:            svc.Name,
			Price:           svc.Price,
			DurationMinutes: svc.DurationMinutes,
			BufferMinutes:   svc.BufferMinutes,
		})
	}

	evt, err := outbox.NewBookingEvent(nb.ID, outbox.EventBookingCreated, outbox.BookingCreated{
		BookingID:   nb.ID,
		BusinessID:  nb.BusinessID,
		EmployeeID:  nb.EmployeeID,
		Date:        nb.Date.Format(time.DateOnly),
		Start:       booking.FormatClock(nb.Interval.Start),
		End:         booking.FormatClock(nb.Interval.End),
		ClientName:  nb.Client.Name,
		ClientPhone: nb.Client.Phone,
		ClientEmail: nb.Client.Email,
		Services:    snapshot,
	})
	if err != nil {
		return err
	}
	if err := s.outbox.Insert(ctx, tx, evt); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if db.HasCode(err, db.CodeExclusionViolation) {
			return fmt.Errorf("%w: %w", booking.ErrSlotTaken, err)
		}
		return fmt.Errorf("commit booking: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
