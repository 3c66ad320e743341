package app

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JayMiller08/sci-sa-gala/internal/domain"
)

// txLock serialises fake transactions the way the per-ticket lock does.
type txLock struct {
	mu sync.Mutex
}

type fakeSaleRepo struct {
	txLock
	sales    []domain.Sale
	requests map[string]domain.DuplicateRequest

	createSaleErr error
	locked        []string
}

func newFakeSaleRepo(sales ...domain.Sale) *fakeSaleRepo {
	return &fakeSaleRepo{
		sales:    append([]domain.Sale{}, sales...),
		requests: make(map[string]domain.DuplicateRequest),
	}
}

func (f *fakeSaleRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	sales := append([]domain.Sale{}, f.sales...)
	requests := make(map[string]domain.DuplicateRequest, len(f.requests))
	for k, v := range f.requests {
		requests[k] = v
	}
	if err := fn(ctx); err != nil {
		f.sales = sales
		f.requests = requests
		return err
	}
	return nil
}

func (f *fakeSaleRepo) LockTicket(_ context.Context, ticketNumber string) error {
	f.locked = append(f.locked, ticketNumber)
	return nil
}

func (f *fakeSaleRepo) ListSalesByTicket(_ context.Context, ticketNumber string) ([]domain.Sale, error) {
	var out []domain.Sale
	for _, s := range f.sales {
		if s.TicketNumber == ticketNumber {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSaleRepo) CreateSale(_ context.Context, sale domain.Sale) error {
	if f.createSaleErr != nil {
		return f.createSaleErr
	}
	for _, s := range f.sales {
		if s.TicketNumber == sale.TicketNumber && s.Active() {
			return domain.ErrTicketAlreadySold
		}
	}
	f.sales = append(f.sales, sale)
	return nil
}

func (f *fakeSaleRepo) SupersedeActiveSale(_ context.Context, ticketNumber, supersededBy string, at time.Time) error {
	for i := range f.sales {
		if f.sales[i].TicketNumber == ticketNumber && f.sales[i].Active() {
			f.sales[i].SupersededBy = supersededBy
			f.sales[i].SupersededAt = &at
		}
	}
	return nil
}

func (f *fakeSaleRepo) CreateDuplicateRequest(_ context.Context, req domain.DuplicateRequest) error {
	for _, r := range f.requests {
		if r.TicketNumber == req.TicketNumber && !r.Resolved() {
			return domain.ErrDuplicateRequestOpen
		}
	}
	f.requests[req.Token] = req
	return nil
}

func (f *fakeSaleRepo) DiscardOpenDuplicateRequests(_ context.Context, ticketNumber string, at time.Time) error {
	for k, r := range f.requests {
		if r.TicketNumber == ticketNumber && !r.Resolved() {
			r.ResolvedAt = &at
			r.Outcome = domain.OutcomeSuperseded
			f.requests[k] = r
		}
	}
	return nil
}

func (f *fakeSaleRepo) FindDuplicateRequest(_ context.Context, token string) (domain.DuplicateRequest, error) {
	r, ok := f.requests[token]
	if !ok {
		return domain.DuplicateRequest{}, domain.ErrResolutionNotFound
	}
	return r, nil
}

func (f *fakeSaleRepo) GetDuplicateRequestForUpdate(ctx context.Context, token string) (domain.DuplicateRequest, error) {
	return f.FindDuplicateRequest(ctx, token)
}

func (f *fakeSaleRepo) MarkDuplicateResolved(_ context.Context, token string, outcome domain.ResolutionOutcome, at time.Time) (bool, error) {
	r, ok := f.requests[token]
	if !ok || r.Resolved() {
		return false, nil
	}
	r.ResolvedAt = &at
	r.Outcome = outcome
	f.requests[token] = r
	return true, nil
}

func (f *fakeSaleRepo) ListSalesByExecutive(_ context.Context, executiveID string) ([]domain.Sale, error) {
	var out []domain.Sale
	for _, s := range f.sales {
		if s.ExecutiveID == executiveID {
			out = append(out, s)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (f *fakeSaleRepo) ListAllSales(_ context.Context) ([]domain.Sale, error) {
	out := append([]domain.Sale{}, f.sales...)
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(sales []domain.Sale) {
	sort.SliceStable(sales, func(i, j int) bool { return sales[i].SoldAt.After(sales[j].SoldAt) })
}

type fakeEventRepo struct {
	txLock
	stateMu sync.Mutex
	state   domain.EventState
	grants  []domain.AccessGrant
	sales   []domain.Sale

	stateErr      error
	markErr       error
	markCalls     int
	grantCheckOff bool
}

func (f *fakeEventRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	grants := append([]domain.AccessGrant{}, f.grants...)
	if err := fn(ctx); err != nil {
		f.grants = grants
		return err
	}
	return nil
}

func (f *fakeEventRepo) LockTicket(context.Context, string) error { return nil }

func (f *fakeEventRepo) GetEventState(context.Context) (domain.EventState, error) {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	if f.stateErr != nil {
		return domain.EventState{}, f.stateErr
	}
	return f.state, nil
}

func (f *fakeEventRepo) SetEnabled(_ context.Context, enabled bool, at time.Time) error {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	f.state.Enabled = enabled
	f.state.UpdatedAt = at
	return nil
}

func (f *fakeEventRepo) SetSchedule(_ context.Context, scheduledAt time.Time, at time.Time) error {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	f.state.ScheduledAt = scheduledAt
	f.state.UpdatedAt = at
	return nil
}

func (f *fakeEventRepo) SeedSchedule(_ context.Context, scheduledAt time.Time, at time.Time) (bool, error) {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	if !f.state.ScheduledAt.IsZero() {
		return false, nil
	}
	f.state.ScheduledAt = scheduledAt
	f.state.UpdatedAt = at
	return true, nil
}

func (f *fakeEventRepo) MarkActivated(_ context.Context, at time.Time) (bool, error) {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	f.markCalls++
	if f.markErr != nil {
		return false, f.markErr
	}
	if f.state.ActivatedAt != nil {
		return false, nil
	}
	f.state.ActivatedAt = &at
	return true, nil
}

func (f *fakeEventRepo) GetAccessGrant(_ context.Context, ticketNumber string) (*domain.AccessGrant, error) {
	if f.grantCheckOff {
		return nil, nil
	}
	for i := range f.grants {
		if f.grants[i].TicketNumber == ticketNumber {
			g := f.grants[i]
			return &g, nil
		}
	}
	return nil, nil
}

func (f *fakeEventRepo) CreateAccessGrant(_ context.Context, grant domain.AccessGrant) error {
	for _, g := range f.grants {
		if g.TicketNumber == grant.TicketNumber {
			return domain.ErrAlreadyRedeemed
		}
	}
	f.grants = append(f.grants, grant)
	return nil
}

func (f *fakeEventRepo) ListAccessGrants(context.Context) ([]domain.AccessGrant, error) {
	out := append([]domain.AccessGrant{}, f.grants...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].GrantedAt.After(out[j].GrantedAt) })
	return out, nil
}

func (f *fakeEventRepo) FindActiveSale(_ context.Context, ticketNumber string) (*domain.Sale, error) {
	for i := range f.sales {
		if f.sales[i].TicketNumber == ticketNumber && f.sales[i].Active() {
			s := f.sales[i]
			return &s, nil
		}
	}
	return nil, nil
}

type fakeFaultRepo struct {
	reports []domain.FaultReport
	err     error
}

func (f *fakeFaultRepo) CreateFaultReport(_ context.Context, report domain.FaultReport) error {
	if f.err != nil {
		return f.err
	}
	f.reports = append(f.reports, report)
	return nil
}

func (f *fakeFaultRepo) ListFaultReports(_ context.Context, ticketNumber string) ([]domain.FaultReport, error) {
	var out []domain.FaultReport
	for i := len(f.reports) - 1; i >= 0; i-- {
		if ticketNumber == "" || f.reports[i].TicketNumber == ticketNumber {
			out = append(out, f.reports[i])
		}
	}
	return out, nil
}

type fakeStaffRepo struct {
	txLock
	staff    map[string]domain.Staff
	sessions map[string]domain.StoredSession
}

func newFakeStaffRepo(members ...domain.Staff) *fakeStaffRepo {
	f := &fakeStaffRepo{
		staff:    make(map[string]domain.Staff),
		sessions: make(map[string]domain.StoredSession),
	}
	for _, m := range members {
		f.staff[strings.ToLower(m.Username)] = m
	}
	return f
}

func (f *fakeStaffRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	staff := make(map[string]domain.Staff, len(f.staff))
	for k, v := range f.staff {
		staff[k] = v
	}
	if err := fn(ctx); err != nil {
		f.staff = staff
		return err
	}
	return nil
}

func (f *fakeStaffRepo) UpsertStaff(_ context.Context, s domain.Staff) (domain.Staff, error) {
	key := strings.ToLower(s.Username)
	if existing, ok := f.staff[key]; ok {
		s.ID = existing.ID
		s.CreatedAt = existing.CreatedAt
	}
	f.staff[key] = s
	return s, nil
}

func (f *fakeStaffRepo) GetStaffByUsername(_ context.Context, username string) (domain.Staff, error) {
	s, ok := f.staff[strings.ToLower(username)]
	if !ok {
		return domain.Staff{}, domain.ErrStaffNotFound
	}
	return s, nil
}

func (f *fakeStaffRepo) GetStaffByID(_ context.Context, id string) (domain.Staff, error) {
	for _, s := range f.staff {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Staff{}, domain.ErrStaffNotFound
}

func (f *fakeStaffRepo) ListStaff(context.Context) ([]domain.Staff, error) {
	out := make([]domain.Staff, 0, len(f.staff))
	for _, s := range f.staff {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (f *fakeStaffRepo) CreateSession(_ context.Context, sess domain.StoredSession) error {
	f.sessions[sess.ID] = sess
	return nil
}

func (f *fakeStaffRepo) GetSession(_ context.Context, id string) (domain.StoredSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return domain.StoredSession{}, domain.ErrUnauthorized
	}
	return s, nil
}

func (f *fakeStaffRepo) DeleteSession(_ context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeStaffRepo) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, s := range f.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}
