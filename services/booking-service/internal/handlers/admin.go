package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/sharebook/libs/auth"
	"github.com/md-rashed-zaman/sharebook/libs/httpx"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/storage"
)

type AdminStore interface {
	ListBookings(ctx context.Context, businessID, employeeID string, date time.Time) ([]storage.BookingRecord, error)
	ArchiveBooking(ctx context.Context, businessID, bookingID string) error
	IssueShareToken(ctx context.Context, businessID string, expiresAt *time.Time) (string, error)
	RevokeShareToken(ctx context.Context, businessID, token string) error
}

// AdminHandler serves the staff routes. Every route runs behind
// auth.RequireAuth and acts on the business named in the token.
type AdminHandler struct {
	store  AdminStore
	logger *slog.Logger
	now    func() time.Time
}

func NewAdminHandler(store AdminStore, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{store: store, logger: logger, now: time.Now}
}

type bookingService struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Price           string `json:"price"`
	DurationMinutes int    `json:"durationMinutes"`
	BufferMinutes   int    `json:"bufferMinutes"`
}

type bookingItem struct {
	ID         string           `json:"id"`
	EmployeeID string           `json:"employeeId"`
	Date       string           `json:"date"`
	Start      string           `json:"start"`
	End        string           `json:"end"`
	Client     bookingClient    `json:"client"`
	Notes      string           `json:"notes,omitempty"`
	Archived   bool             `json:"archived"`
	CreatedAt  string           `json:"createdAt"`
	Services   []bookingService `json:"services"`
}

type bookingClient struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// List handles GET /api/v1/bookings?date=YYYY-MM-DD[&employee_id=].
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	date, err := booking.ParseDate(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		httpx.WriteCodedError(w, http.StatusBadRequest, string(booking.InvalidDate), "date must be YYYY-MM-DD")
		return
	}
	employeeID := strings.TrimSpace(r.URL.Query().Get("employee_id"))

	records, err := h.store.ListBookings(r.Context(), claims.BusinessID, employeeID, date)
	if err != nil {
		h.logger.Error("list bookings failed", "business_id", claims.BusinessID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}

	items := make([]bookingItem, 0, len(records))
	for _, rec := range records {
		item := bookingItem{
			ID:         rec.ID,
			EmployeeID: rec.EmployeeID,
			Date:       rec.Date.Format(time.DateOnly),
			Start:      booking.FormatClock(rec.Interval.Start),
			End:        booking.FormatClock(rec.Interval.End),
			Client: bookingClient{
				ID:    rec.ClientID,
				Name:  rec.ClientName,
				Phone: rec.ClientPhone,
				Email: rec.ClientEmail,
			},
			Notes:     rec.Notes,
			Archived:  rec.Archived,
			CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
			Services:  make([]bookingService, 0, len(rec.Services)),
		}
		for _, svc := range rec.Services {
			item.Services = append(item.Services, bookingService{
				ID:              svc.ID,
				Name:            svc.Name,
				Price:           svc.Price,
				DurationMinutes: svc.DurationMinutes,
				BufferMinutes:   svc.BufferMinutes,
			})
		}
		items = append(items, item)
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.DataBody{Data: items})
}

type archiveRequest struct {
	ID string `json:"id"`
}

// Archive handles POST /api/v1/bookings/archive. An archived booking no
// longer blocks its slot.
func (h *AdminHandler) Archive(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	var req archiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.store.ArchiveBooking(r.Context(), claims.BusinessID, req.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "booking not found")
			return
		}
		h.logger.Error("archive booking failed", "business_id", claims.BusinessID, "booking_id", req.ID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to archive booking")
		return
	}
	h.logger.Info("booking archived", "business_id", claims.BusinessID, "booking_id", req.ID, "by", claims.Sub)
	httpx.WriteJSON(w, http.StatusOK, httpx.DataBody{Data: map[string]any{"id": req.ID, "archived": true}})
}

type issueTokenRequest struct {
	TTLHours int `json:"ttlHours"`
}

type issueTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// IssueToken handles POST /api/v1/share-tokens. A zero ttlHours issues a
// token that never expires.
func (h *AdminHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	var req issueTokenRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
			return
		}
	}
	if req.TTLHours < 0 {
		httpx.WriteError(w, http.StatusBadRequest, "ttlHours must not be negative")
		return
	}

	var expiresAt *time.Time
	if req.TTLHours > 0 {
		t := h.now().UTC().Add(time.Duration(req.TTLHours) * time.Hour).Truncate(time.Second)
		expiresAt = &t
	}

	token, err := h.store.IssueShareToken(r.Context(), claims.BusinessID, expiresAt)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "business not found")
			return
		}
		h.logger.Error("issue share token failed", "business_id", claims.BusinessID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to issue share token")
		return
	}

	resp := issueTokenResponse{Token: token}
	if expiresAt != nil {
		resp.ExpiresAt = expiresAt.Format(time.RFC3339)
	}
	h.logger.Info("share token issued", "business_id", claims.BusinessID, "by", claims.Sub)
	httpx.WriteJSON(w, http.StatusCreated, httpx.DataBody{Data: resp})
}

type revokeTokenRequest struct {
	Token string `json:"token"`
}

// RevokeToken handles POST /api/v1/share-tokens/revoke.
func (h *AdminHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	var req revokeTokenRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "token is required")
		return
	}

	if err := h.store.RevokeShareToken(r.Context(), claims.BusinessID, req.Token); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "share token not found")
			return
		}
		h.logger.Error("revoke share token failed", "business_id", claims.BusinessID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to revoke share token")
		return
	}
	h.logger.Info("share token revoked", "business_id", claims.BusinessID, "by", claims.Sub)
	w.WriteHeader(http.StatusNoContent)
}
