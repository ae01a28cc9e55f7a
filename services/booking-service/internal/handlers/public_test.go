package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/sharebook/libs/httpx"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory booking.Store shared by the handler tests.
type memStore struct {
	creds     map[string]*booking.ShareCredential
	services  map[string]booking.ServiceSpec
	employees map[string]string
	booked    map[string][]booking.Interval
	credErr   error
	commits   []booking.NewBooking
}

func newMemStore() *memStore {
	return &memStore{
		creds: map[string]*booking.ShareCredential{
			"tok-active":  {BusinessID: "biz-1", Status: booking.StatusActive},
			"tok-revoked": {BusinessID: "biz-1", Status: booking.StatusRevoked},
		},
		services: map[string]booking.ServiceSpec{
			"svc-cut":   {ID: "svc-cut", BusinessID: "biz-1", Name: "Cut", Price: "25.00", DurationMinutes: 30, BufferMinutes: 10},
			"svc-other": {ID: "svc-other", BusinessID: "biz-2", Name: "Other", Price: "5.00", DurationMinutes: 15},
		},
		employees: map[string]string{"emp-1": "biz-1", "emp-other": "biz-2"},
		booked:    map[string][]booking.Interval{},
	}
}

func (m *memStore) CredentialByToken(_ context.Context, token string) (*booking.ShareCredential, error) {
	if m.credErr != nil {
		return nil, m.credErr
	}
	return m.creds[token], nil
}

func (m *memStore) ServicesByID(_ context.Context, ids []string) ([]booking.ServiceSpec, error) {
	var out []booking.ServiceSpec
	for _, id := range ids {
		if s, ok := m.services[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) EmployeeInBusiness(_ context.Context, businessID, employeeID string) (bool, error) {
	return m.employees[employeeID] == businessID, nil
}

func (m *memStore) BookedIntervals(_ context.Context, _, employeeID string, date time.Time) ([]booking.Interval, error) {
	return m.booked[employeeID+"|"+date.Format(time.DateOnly)], nil
}

func (m *memStore) CommitBooking(_ context.Context, nb booking.NewBooking) error {
	key := nb.EmployeeID + "|" + nb.Date.Format(time.DateOnly)
	if booking.CheckOverlap(nb.Interval, m.booked[key]) != nil {
		return booking.ErrSlotTaken
	}
	m.booked[key] = append(m.booked[key], nb.Interval)
	m.commits = append(m.commits, nb)
	return nil
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestPublicHandler(store *memStore, reg prometheus.Registerer) *PublicHandler {
	svc := booking.NewService(store,
		booking.WithClock(func() time.Time { return fixedNow }),
		booking.WithIDGenerator(func() string { return "b-fixed" }),
	)
	h := NewPublicHandler(svc, store, metrics.NewBookingMetrics(reg), discardLogger(), PublicConfig{
		Workday:     booking.Interval{Start: 9 * 60, End: 12 * 60},
		StepMinutes: 20,
	})
	h.now = func() time.Time { return fixedNow }
	return h
}

const validBody = `{
	"token": "tok-active",
	"services": [{"id": "svc-cut"}],
	"date": "2026-03-02",
	"start": "09:00",
	"end": "09:40",
	"employeeId": "emp-1",
	"client": {"name": "Ann", "phone": "555-0100"}
}`

func postBooking(h *PublicHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/bookings", strings.NewReader(body))
	rw := httptest.NewRecorder()
	h.Create(rw, req)
	return rw
}

func decodeError(t *testing.T, rw *httptest.ResponseRecorder) httpx.ErrorBody {
	t.Helper()
	var body httpx.ErrorBody
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rw.Body.String())
	}
	return body
}

func TestCreateAccepted(t *testing.T) {
	store := newMemStore()
	h := newTestPublicHandler(store, prometheus.NewRegistry())

	rw := postBooking(h, validBody)
	if rw.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rw.Code, rw.Body.String())
	}
	var body struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.ID != "b-fixed" {
		t.Fatalf("unexpected id %q", body.Data.ID)
	}
	if len(store.commits) != 1 || len(store.commits[0].Services) != 1 {
		t.Fatalf("expected one commit with one service, got %+v", store.commits)
	}
}

func TestCreateResubmitIsRejected(t *testing.T) {
	store := newMemStore()
	h := newTestPublicHandler(store, prometheus.NewRegistry())

	if rw := postBooking(h, validBody); rw.Code != http.StatusCreated {
		t.Fatalf("first submit: expected 201, got %d", rw.Code)
	}
	rw := postBooking(h, validBody)
	if rw.Code != http.StatusConflict {
		t.Fatalf("second submit: expected 409, got %d", rw.Code)
	}
	if body := decodeError(t, rw); body.Code != string(booking.SlotUnavailable) {
		t.Fatalf("unexpected code %q", body.Code)
	}
	if len(store.commits) != 1 {
		t.Fatalf("expected exactly one commit, got %d", len(store.commits))
	}
}

func TestCreateRejections(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
		code   booking.Reason
	}{
		{"missing token", strings.Replace(validBody, `"tok-active"`, `""`, 1), http.StatusBadRequest, booking.MissingToken},
		{"unknown token", strings.Replace(validBody, `"tok-active"`, `"tok-nope"`, 1), http.StatusNotFound, booking.InvalidToken},
		{"revoked token", strings.Replace(validBody, `"tok-active"`, `"tok-revoked"`, 1), http.StatusForbidden, booking.BookingDisabled},
		{"duration mismatch", strings.Replace(validBody, `"09:40"`, `"09:30"`, 1), http.StatusBadRequest, booking.DurationMismatch},
		{"foreign service", strings.Replace(validBody, `"svc-cut"`, `"svc-other"`, 1), http.StatusBadRequest, booking.ServiceMismatch},
		{"unknown service", strings.Replace(validBody, `"svc-cut"`, `"svc-x"`, 1), http.StatusBadRequest, booking.ServiceNotFound},
		{"bad date", strings.Replace(validBody, `"2026-03-02"`, `"2026-02-30"`, 1), http.StatusBadRequest, booking.InvalidDate},
		{"missing phone", strings.Replace(validBody, `"555-0100"`, `""`, 1), http.StatusBadRequest, booking.MissingClientInfo},
		{"padded start", strings.Replace(validBody, `"09:00"`, `" 09:00"`, 1), http.StatusBadRequest, booking.InvalidTime},
		{"padded date", strings.Replace(validBody, `"2026-03-02"`, `"2026-03-02 "`, 1), http.StatusBadRequest, booking.InvalidDate},
		{"foreign employee", strings.Replace(validBody, `"emp-1"`, `"emp-other"`, 1), http.StatusBadRequest, booking.EmployeeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestPublicHandler(newMemStore(), prometheus.NewRegistry())
			rw := postBooking(h, tc.body)
			if rw.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rw.Code, rw.Body.String())
			}
			if body := decodeError(t, rw); body.Code != string(tc.code) {
				t.Fatalf("expected code %q, got %q", tc.code, body.Code)
			}
		})
	}
}

func TestCreateStorageFailureIs500(t *testing.T) {
	store := newMemStore()
	store.credErr = errors.New("connection refused")
	h := newTestPublicHandler(store, prometheus.NewRegistry())

	rw := postBooking(h, validBody)
	if rw.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rw.Code)
	}
	body := decodeError(t, rw)
	if body.Code != string(booking.CredentialLookupFailed) || strings.Contains(body.Error, "refused") {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestCreateInvalidJSON(t *testing.T) {
	h := newTestPublicHandler(newMemStore(), prometheus.NewRegistry())
	rw := postBooking(h, `{"token":`)
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rw.Code)
	}
	if body := decodeError(t, rw); body.Code != CodeInvalidBody {
		t.Fatalf("expected code %s, got %+v", CodeInvalidBody, body)
	}
}

func getSlots(h *PublicHandler, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?"+query, nil)
	rw := httptest.NewRecorder()
	h.Slots(rw, req)
	return rw
}

func decodeSlots(t *testing.T, rw *httptest.ResponseRecorder) slotsResponse {
	t.Helper()
	var body struct {
		Data slotsResponse `json:"data"`
	}
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body.Data
}

func TestSlots(t *testing.T) {
	store := newMemStore()
	store.booked["emp-1|2026-03-02"] = []booking.Interval{{Start: 600, End: 640}}
	h := newTestPublicHandler(store, prometheus.NewRegistry())

	rw := getSlots(h, "token=tok-active&date=2026-03-02&employee_id=emp-1&service_id=svc-cut")
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}
	got := decodeSlots(t, rw)
	if got.DurationMinutes != 40 {
		t.Fatalf("expected 40 minute duration, got %d", got.DurationMinutes)
	}
	// Window 09:00-12:00 every 20 minutes, 10:00-10:40 is taken.
	want := []string{"09:00", "09:20", "10:40", "11:00", "11:20"}
	if len(got.Slots) != len(want) {
		t.Fatalf("expected %v, got %+v", want, got.Slots)
	}
	for i, s := range got.Slots {
		if s.Start != want[i] {
			t.Fatalf("slot %d: expected %s, got %s", i, want[i], s.Start)
		}
	}
}

func TestSlotsTodaySkipsPastStarts(t *testing.T) {
	h := newTestPublicHandler(newMemStore(), prometheus.NewRegistry())
	h.now = func() time.Time { return time.Date(2026, 3, 2, 10, 5, 0, 0, time.UTC) }

	got := decodeSlots(t, getSlots(h, "token=tok-active&date=2026-03-02&employee_id=emp-1&service_id=svc-cut"))
	if len(got.Slots) == 0 || got.Slots[0].Start != "10:20" {
		t.Fatalf("expected first slot 10:20, got %+v", got.Slots)
	}
}

func TestSlotsPastDateIsEmpty(t *testing.T) {
	h := newTestPublicHandler(newMemStore(), prometheus.NewRegistry())
	rw := getSlots(h, "token=tok-active&date=2026-02-01&employee_id=emp-1&service_id=svc-cut")
	if rw.Code != http.StatusOK || len(decodeSlots(t, rw).Slots) != 0 {
		t.Fatalf("expected empty slots, got %d %s", rw.Code, rw.Body.String())
	}
}

func TestSlotsRejections(t *testing.T) {
	h := newTestPublicHandler(newMemStore(), prometheus.NewRegistry())
	cases := []struct {
		query  string
		status int
		code   booking.Reason
	}{
		{"date=2026-03-02&employee_id=emp-1&service_id=svc-cut", http.StatusBadRequest, booking.MissingToken},
		{"token=tok-active&date=2026-03-02&employee_id=emp-1", http.StatusBadRequest, booking.MissingServices},
		{"token=tok-active&date=2026-03-02&employee_id=emp-1&service_id=", http.StatusBadRequest, booking.MissingServices},
		{"token=tok-active&date=2026-03-02&employee_id=emp-1&service_id=svc-cut&service_id=%20", http.StatusBadRequest, booking.MissingServices},
		{"token=tok-active&date=03/02/2026&employee_id=emp-1&service_id=svc-cut", http.StatusBadRequest, booking.InvalidDate},
		{"token=tok-active&date=2026-03-02%20&employee_id=emp-1&service_id=svc-cut", http.StatusBadRequest, booking.InvalidDate},
		{"token=tok-nope&date=2026-03-02&employee_id=emp-1&service_id=svc-cut", http.StatusNotFound, booking.InvalidToken},
		{"token=tok-revoked&date=2026-03-02&employee_id=emp-1&service_id=svc-cut", http.StatusForbidden, booking.BookingDisabled},
		{"token=tok-revoked&date=bogus", http.StatusForbidden, booking.BookingDisabled},
		{"token=tok-active&date=2026-03-02&employee_id=emp-1&service_id=svc-other", http.StatusBadRequest, booking.ServiceMismatch},
		{"token=tok-active&date=2026-03-02&employee_id=emp-other&service_id=svc-cut", http.StatusBadRequest, booking.EmployeeNotFound},
		{"token=tok-active&date=2026-03-02&employee_id=emp-nope&service_id=svc-cut", http.StatusBadRequest, booking.EmployeeNotFound},
	}
	for _, tc := range cases {
		rw := getSlots(h, tc.query)
		if rw.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.query, tc.status, rw.Code)
		}
		if body := decodeError(t, rw); body.Code != string(tc.code) {
			t.Fatalf("%s: expected code %s, got %+v", tc.query, tc.code, body)
		}
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[booking.Reason]int{
		booking.MissingToken:           http.StatusBadRequest,
		booking.DurationMismatch:       http.StatusBadRequest,
		booking.InvalidToken:           http.StatusNotFound,
		booking.TokenExpired:           http.StatusForbidden,
		booking.SlotUnavailable:        http.StatusConflict,
		booking.InsertFailed:           http.StatusInternalServerError,
		booking.CredentialLookupFailed: http.StatusInternalServerError,
	}
	for reason, want := range cases {
		if got := StatusFor(reason); got != want {
			t.Fatalf("%s: expected %d, got %d", reason, want, got)
		}
	}
}
