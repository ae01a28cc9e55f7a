package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrSlotTaken is returned by Store.CommitBooking when the storage layer's
// exclusion guarantee refuses the insert because a concurrent booking won.
var ErrSlotTaken = errors.New("booking: slot already taken")

// Store is the storage collaborator. Every call reads fresh data; nothing is
// cached between requests.
type Store interface {
	// CredentialByToken returns nil, nil when no share token matches an active business.
	CredentialByToken(ctx context.Context, token string) (*ShareCredential, error)
	// ServicesByID returns the records found for ids; missing ids are simply absent.
	ServicesByID(ctx context.Context, ids []string) ([]ServiceSpec, error)
	// EmployeeInBusiness reports whether employeeID is on businessID's staff.
	EmployeeInBusiness(ctx context.Context, businessID, employeeID string) (bool, error)
	// BookedIntervals returns non-archived bookings of one employee of
	// businessID on one date.
	BookedIntervals(ctx context.Context, businessID, employeeID string, date time.Time) ([]Interval, error)
	// CommitBooking atomically inserts the booking and its service snapshots.
	CommitBooking(ctx context.Context, b NewBooking) error
}

type Client struct {
	ID    string
	Name  string
	Phone string
	Email string
}

type Request struct {
	Token      string
	ServiceIDs []string
	Date       string
	Start      string
	End        string
	EmployeeID string
	Client     Client
	Notes      string
}

// NewBooking is everything CommitBooking persists in one transaction.
type NewBooking struct {
	ID         string
	BusinessID string
	EmployeeID string
	Date       time.Time
	Interval   Interval
	Client     Client
	Notes      string
	Services   []ServiceSpec
}

type Receipt struct {
	BookingID    string
	BusinessID   string
	EmployeeID   string
	Date         time.Time
	Interval     Interval
	TotalMinutes int
}

type Service struct {
	store Store
	now   func() time.Time
	newID func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type parsedRequest struct {
	serviceIDs []string
	date       time.Time
	interval   Interval
	employeeID string
	client     Client
	notes      string
}

// Submit validates req and, if every check passes, commits exactly one
// booking. Any failure is returned as a *Rejection and nothing is written.
func (s *Service) Submit(ctx context.Context, req Request) (Receipt, error) {
	ctx, span := otel.Tracer("booking").Start(ctx, "booking.submit")
	defer span.End()

	receipt, err := s.submit(ctx, req)
	if err != nil {
		if reason, ok := ReasonOf(err); ok {
			span.SetAttributes(attribute.String("booking.reason", string(reason)))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "booking rejected")
		return Receipt{}, err
	}
	span.SetAttributes(attribute.String("booking.id", receipt.BookingID))
	return receipt, nil
}

func (s *Service) submit(ctx context.Context, req Request) (Receipt, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return Receipt{}, reject(MissingToken)
	}
	cred, err := s.store.CredentialByToken(ctx, token)
	if err != nil {
		return Receipt{}, rejectErr(CredentialLookupFailed, err)
	}
	if err := CheckCredential(cred, s.now()); err != nil {
		return Receipt{}, err
	}

	p, err := parseRequest(req)
	if err != nil {
		return Receipt{}, err
	}

	found, err := s.store.ServicesByID(ctx, uniqueStrings(p.serviceIDs))
	if err != nil {
		return Receipt{}, rejectErr(ServiceLookupFailed, err)
	}
	services, err := ResolveServices(p.serviceIDs, found, cred.BusinessID)
	if err != nil {
		return Receipt{}, err
	}

	total := TotalMinutes(services)
	if err := CheckRange(p.interval, total); err != nil {
		return Receipt{}, err
	}

	ok, err := s.store.EmployeeInBusiness(ctx, cred.BusinessID, p.employeeID)
	if err != nil {
		return Receipt{}, rejectErr(EmployeeLookupFailed, err)
	}
	if !ok {
		return Receipt{}, rejectf(EmployeeNotFound, "employee %q not found for this business", p.employeeID)
	}

	booked, err := s.store.BookedIntervals(ctx, cred.BusinessID, p.employeeID, p.date)
	if err != nil {
		return Receipt{}, rejectErr(BookingLookupFailed, err)
	}
	if err := CheckOverlap(p.interval, booked); err != nil {
		return Receipt{}, err
	}

	nb := NewBooking{
		ID:         s.newID(),
		BusinessID: cred.BusinessID,
		EmployeeID: p.employeeID,
		Date:       p.date,
		Interval:   p.interval,
		Client:     p.client,
		Notes:      p.notes,
		Services:   services,
	}
	if err := s.store.CommitBooking(ctx, nb); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return Receipt{}, rejectErr(SlotUnavailable, err)
		}
		return Receipt{}, rejectErr(InsertFailed, err)
	}

	return Receipt{
		BookingID:    nb.ID,
		BusinessID:   nb.BusinessID,
		EmployeeID:   nb.EmployeeID,
		Date:         nb.Date,
		Interval:     nb.Interval,
		TotalMinutes: total,
	}, nil
}

// parseRequest runs the shape checks on everything but the token, which the
// gate has already handled. Ids and client fields are trimmed; date and clock
// strings must match their patterns exactly.
func parseRequest(req Request) (parsedRequest, error) {
	p := parsedRequest{
		employeeID: strings.TrimSpace(req.EmployeeID),
		notes:      strings.TrimSpace(req.Notes),
		client: Client{
			ID:    strings.TrimSpace(req.Client.ID),
			Name:  strings.TrimSpace(req.Client.Name),
			Phone: strings.TrimSpace(req.Client.Phone),
			Email: strings.TrimSpace(req.Client.Email),
		},
	}
	for _, id := range req.ServiceIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return p, reject(MissingServices)
		}
		p.serviceIDs = append(p.serviceIDs, id)
	}
	if len(p.serviceIDs) == 0 {
		return p, reject(MissingServices)
	}

	date, err := ParseDate(req.Date)
	if err != nil {
		return p, err
	}
	p.date = date

	iv, err := ParseInterval(req.Start, req.End)
	if err != nil {
		return p, err
	}
	p.interval = iv

	if p.client.Name == "" || p.client.Phone == "" {
		return p, reject(MissingClientInfo)
	}
	if p.employeeID == "" {
		return p, reject(MissingEmployee)
	}
	return p, nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
