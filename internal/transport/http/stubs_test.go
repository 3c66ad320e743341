package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JayMiller08/sci-sa-gala/internal/app"
	"github.com/JayMiller08/sci-sa-gala/internal/domain"
)

var (
	testNow     = time.Date(2026, 11, 14, 17, 0, 0, 0, time.UTC)
	execSession = domain.Session{ID: "s-exec", Role: domain.RoleExec, DisplayName: "Thabo", UserID: "u-exec", ExpiresAt: testNow.Add(time.Hour)}
	adminSess   = domain.Session{ID: "s-admin", Role: domain.RoleAdmin, DisplayName: "Naledi", UserID: "u-admin", ExpiresAt: testNow.Add(time.Hour)}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubAuth knows two tokens: "exec" and "admin".
type stubAuth struct {
	loginResult app.LoginResult
	loginErr    error
	authErr     error
	loggedOut   []string
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (domain.Session, error) {
	if s.authErr != nil {
		return domain.Session{}, s.authErr
	}
	switch token {
	case "exec":
		return execSession, nil
	case "admin":
		return adminSess, nil
	default:
		return domain.Session{}, domain.ErrUnauthorized
	}
}

func (s *stubAuth) Login(context.Context, string, string) (app.LoginResult, error) {
	return s.loginResult, s.loginErr
}

func (s *stubAuth) Logout(_ context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	return nil
}

type stubSales struct {
	outcome  app.SaleOutcome
	resolved app.ResolveDuplicateResult
	sales    []domain.Sale
	err      error

	gotAttempt app.AttemptSaleInput
	gotResolve app.ResolveDuplicateInput
	gotMine    string
}

func (s *stubSales) AttemptSale(_ context.Context, in app.AttemptSaleInput) (app.SaleOutcome, error) {
	s.gotAttempt = in
	return s.outcome, s.err
}

func (s *stubSales) ResolveDuplicate(_ context.Context, in app.ResolveDuplicateInput) (app.ResolveDuplicateResult, error) {
	s.gotResolve = in
	return s.resolved, s.err
}

func (s *stubSales) ListMySales(_ context.Context, executiveID string) ([]domain.Sale, error) {
	s.gotMine = executiveID
	return s.sales, s.err
}

func (s *stubSales) ListAllSales(context.Context) ([]domain.Sale, error) {
	return s.sales, s.err
}

type stubEventDay struct {
	status   app.EventStatus
	grant    domain.AccessGrant
	grants   []domain.AccessGrant
	err      error
	gotGrant app.GrantAccessInput
}

func (s *stubEventDay) Status(context.Context) (app.EventStatus, error) {
	return s.status, s.err
}

func (s *stubEventDay) GrantAccess(_ context.Context, in app.GrantAccessInput) (domain.AccessGrant, error) {
	s.gotGrant = in
	return s.grant, s.err
}

func (s *stubEventDay) ListGrants(context.Context) ([]domain.AccessGrant, error) {
	return s.grants, s.err
}

type stubAdmin struct {
	state       domain.EventState
	report      domain.FaultReport
	reports     []domain.FaultReport
	err         error
	gotEnabled  *bool
	gotSchedule time.Time
	gotFault    app.ResolveFaultInput
	gotFilter   string
}

func (s *stubAdmin) SetEventPhase(_ context.Context, enabled bool) (domain.EventState, error) {
	s.gotEnabled = &enabled
	return s.state, s.err
}

func (s *stubAdmin) SetSchedule(_ context.Context, at time.Time) (domain.EventState, error) {
	s.gotSchedule = at
	return s.state, s.err
}

func (s *stubAdmin) ResolveFault(_ context.Context, in app.ResolveFaultInput) (domain.FaultReport, error) {
	s.gotFault = in
	return s.report, s.err
}

func (s *stubAdmin) ListFaults(_ context.Context, ticketNumber string) ([]domain.FaultReport, error) {
	s.gotFilter = ticketNumber
	return s.reports, s.err
}

type stubs struct {
	auth     *stubAuth
	sales    *stubSales
	eventDay *stubEventDay
	admin    *stubAdmin
}

func newTestRouter(t *testing.T) (http.Handler, *stubs) {
	t.Helper()
	st := &stubs{
		auth:     &stubAuth{},
		sales:    &stubSales{},
		eventDay: &stubEventDay{},
		admin:    &stubAdmin{},
	}
	router := NewRouter(Services{
		Auth:     st.auth,
		Sales:    st.sales,
		EventDay: st.eventDay,
		Admin:    st.admin,
	}, RouterConfig{Logger: discardLogger()})
	return router, st
}

// do sends a request as the holder of token ("" for anonymous).
func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}
