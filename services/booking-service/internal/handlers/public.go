package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/sharebook/libs/httpx"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/metrics"
)

type Submitter interface {
	Submit(ctx context.Context, req booking.Request) (booking.Receipt, error)
}

// SlotStore is the read side of booking.Store used to list free slots.
type SlotStore interface {
	CredentialByToken(ctx context.Context, token string) (*booking.ShareCredential, error)
	ServicesByID(ctx context.Context, ids []string) ([]booking.ServiceSpec, error)
	EmployeeInBusiness(ctx context.Context, businessID, employeeID string) (bool, error)
	BookedIntervals(ctx context.Context, businessID, employeeID string, date time.Time) ([]booking.Interval, error)
}

// CodeInvalidBody is the error code for a request body that is not valid JSON.
const CodeInvalidBody = "invalid_body"

type PublicConfig struct {
	Workday     booking.Interval
	StepMinutes int
}

type PublicHandler struct {
	bookings Submitter
	store    SlotStore
	metrics  *metrics.BookingMetrics
	logger   *slog.Logger
	cfg      PublicConfig
	now      func() time.Time
}

func NewPublicHandler(bookings Submitter, store SlotStore, m *metrics.BookingMetrics, logger *slog.Logger, cfg PublicConfig) *PublicHandler {
	if cfg.StepMinutes <= 0 {
		cfg.StepMinutes = 15
	}
	if cfg.Workday.End <= cfg.Workday.Start {
		cfg.Workday = booking.Interval{Start: 9 * 60, End: 17 * 60}
	}
	return &PublicHandler{
		bookings: bookings,
		store:    store,
		metrics:  m,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

type createBookingRequest struct {
	Token      string              `json:"token"`
	Services   []serviceRef        `json:"services"`
	Date       string              `json:"date"`
	Start      string              `json:"start"`
	End        string              `json:"end"`
	EmployeeID string              `json:"employeeId"`
	Client     createBookingClient `json:"client"`
	Notes      string              `json:"notes"`
}

type serviceRef struct {
	ID string `json:"id"`
}

type createBookingClient struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type createBookingResponse struct {
	ID string `json:"id"`
}

// Create handles POST /api/v1/public/bookings.
func (h *PublicHandler) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteCodedError(w, http.StatusBadRequest, CodeInvalidBody, "invalid json body")
		h.metrics.ObserveDecision(CodeInvalidBody, time.Since(start))
		return
	}

	ids := make([]string, 0, len(req.Services))
	for _, s := range req.Services {
		ids = append(ids, s.ID)
	}

	receipt, err := h.bookings.Submit(r.Context(), booking.Request{
		Token:      req.Token,
		ServiceIDs: ids,
		Date:       req.Date,
		Start:      req.Start,
		End:        req.End,
		EmployeeID: req.EmployeeID,
		Client: booking.Client{
			ID:    req.Client.ID,
			Name:  req.Client.Name,
			Phone: req.Client.Phone,
			Email: req.Client.Email,
		},
		Notes: req.Notes,
	})
	if err != nil {
		reason := h.writeRejection(w, r, err)
		h.metrics.ObserveDecision(string(reason), time.Since(start))
		return
	}

	h.metrics.ObserveDecision("", time.Since(start))
	h.logger.Info("booking created",
		"request_id", httpx.RequestIDFromContext(r.Context()),
		"booking_id", receipt.BookingID,
		"business_id", receipt.BusinessID,
		"employee_id", receipt.EmployeeID,
		"slot", receipt.Interval.String(),
	)
	httpx.WriteJSON(w, http.StatusCreated, httpx.DataBody{Data: createBookingResponse{ID: receipt.BookingID}})
}

type slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type slotsResponse struct {
	Date            string `json:"date"`
	EmployeeID      string `json:"employeeId"`
	DurationMinutes int    `json:"durationMinutes"`
	Slots           []slot `json:"slots"`
}

// Slots handles GET /api/v1/public/slots. It applies the same token, service
// and employee checks as Create and lists the free starts in the working day.
func (h *PublicHandler) Slots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := strings.TrimSpace(q.Get("token"))
	employeeID := strings.TrimSpace(q.Get("employee_id"))
	var ids []string
	blankID := false
	for _, id := range q["service_id"] {
		id = strings.TrimSpace(id)
		if id == "" {
			blankID = true
		}
		ids = append(ids, id)
	}

	if token == "" {
		h.writeReason(w, booking.MissingToken, "token is required")
		return
	}
	ctx := r.Context()
	cred, err := h.store.CredentialByToken(ctx, token)
	if err != nil {
		h.writeInternal(w, r, booking.CredentialLookupFailed, "failed to verify booking link", err)
		return
	}
	now := h.now().UTC()
	if err := booking.CheckCredential(cred, now); err != nil {
		h.writeRejection(w, r, err)
		return
	}

	switch {
	case len(ids) == 0 || blankID:
		h.writeReason(w, booking.MissingServices, "at least one service_id is required")
		return
	case employeeID == "":
		h.writeReason(w, booking.MissingEmployee, "employee_id is required")
		return
	}
	date, err := booking.ParseDate(q.Get("date"))
	if err != nil {
		h.writeRejection(w, r, err)
		return
	}

	found, err := h.store.ServicesByID(ctx, ids)
	if err != nil {
		h.writeInternal(w, r, booking.ServiceLookupFailed, "failed to load services", err)
		return
	}
	services, err := booking.ResolveServices(ids, found, cred.BusinessID)
	if err != nil {
		h.writeRejection(w, r, err)
		return
	}
	duration := booking.TotalMinutes(services)

	ok, err := h.store.EmployeeInBusiness(ctx, cred.BusinessID, employeeID)
	if err != nil {
		h.writeInternal(w, r, booking.EmployeeLookupFailed, "failed to load employee", err)
		return
	}
	if !ok {
		h.writeReason(w, booking.EmployeeNotFound, "employee not found for this business")
		return
	}

	resp := slotsResponse{
		Date:            date.Format(time.DateOnly),
		EmployeeID:      employeeID,
		DurationMinutes: duration,
		Slots:           []slot{},
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		httpx.WriteJSON(w, http.StatusOK, httpx.DataBody{Data: resp})
		return
	}
	notBefore := -1
	if date.Equal(today) {
		notBefore = now.Hour()*60 + now.Minute()
	}

	busy, err := h.store.BookedIntervals(ctx, cred.BusinessID, employeeID, date)
	if err != nil {
		h.writeInternal(w, r, booking.BookingLookupFailed, "failed to load existing bookings", err)
		return
	}
	for _, s := range availability.AvailableStarts(h.cfg.Workday, duration, h.cfg.StepMinutes, busy, notBefore) {
		resp.Slots = append(resp.Slots, slot{Start: booking.FormatClock(s), End: booking.FormatClock(s + duration)})
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.DataBody{Data: resp})
}

// writeRejection writes err as {error, code} and returns the reason it used.
func (h *PublicHandler) writeRejection(w http.ResponseWriter, r *http.Request, err error) booking.Reason {
	var rej *booking.Rejection
	if !errors.As(err, &rej) {
		h.writeInternal(w, r, booking.InsertFailed, "failed to create booking", err)
		return booking.InsertFailed
	}
	if rej.Reason.Internal() {
		h.writeInternal(w, r, rej.Reason, rej.Message, rej.Err)
		return rej.Reason
	}
	h.logger.Info("booking rejected",
		"request_id", httpx.RequestIDFromContext(r.Context()),
		"reason", string(rej.Reason),
	)
	h.writeReason(w, rej.Reason, rej.Message)
	return rej.Reason
}

func (h *PublicHandler) writeInternal(w http.ResponseWriter, r *http.Request, reason booking.Reason, msg string, err error) {
	h.logger.Error("booking request failed",
		"request_id", httpx.RequestIDFromContext(r.Context()),
		"reason", string(reason),
		"err", err,
	)
	h.writeReason(w, reason, msg)
}

func (h *PublicHandler) writeReason(w http.ResponseWriter, reason booking.Reason, msg string) {
	httpx.WriteCodedError(w, StatusFor(reason), string(reason), msg)
}
