package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/JayMiller08/sci-sa-gala/internal/app"
	"github.com/JayMiller08/sci-sa-gala/internal/domain"
)

type sessionWire struct {
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"token,omitempty"`
}

func (w sessionWire) session() domain.Session {
	return domain.Session{
		Role:        domain.Role(w.Role),
		DisplayName: w.Name,
		UserID:      w.UserID,
		ExpiresAt:   w.ExpiresAt,
	}
}

type saleWire struct {
	ID                 string    `json:"id"`
	TicketNumber       string    `json:"ticket_number"`
	BuyerStudentNumber string    `json:"buyer_student_number"`
	Date               string    `json:"date"`
	SoldAt             time.Time `json:"sold_at"`
	ExecutiveName      string    `json:"executive_name"`
	SupersededBy       string    `json:"superseded_by,omitempty"`
}

func (w saleWire) sale() domain.Sale {
	return domain.Sale{
		ID:                 w.ID,
		TicketNumber:       w.TicketNumber,
		BuyerStudentNumber: w.BuyerStudentNumber,
		ExecutiveName:      w.ExecutiveName,
		SoldAt:             w.SoldAt,
		SupersededBy:       w.SupersededBy,
	}
}

func sales(in []saleWire) []domain.Sale {
	out := make([]domain.Sale, 0, len(in))
	for _, w := range in {
		out = append(out, w.sale())
	}
	return out
}

type grantWire struct {
	TicketNumber  string    `json:"ticket_number"`
	StudentNumber string    `json:"student_number"`
	ExecutiveName string    `json:"executive_name"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	GrantedAt     time.Time `json:"granted_at"`
}

func (w grantWire) grant() domain.AccessGrant {
	return domain.AccessGrant{
		TicketNumber:  w.TicketNumber,
		StudentNumber: w.StudentNumber,
		StaffName:     w.ExecutiveName,
		GrantedAt:     w.GrantedAt,
	}
}

// Login signs in and keeps the returned session for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (domain.Session, error) {
	var out sessionWire
	err := c.do(ctx, http.MethodPost, "/api/login", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		return domain.Session{}, err
	}
	c.setToken(out.Token)
	return out.session(), nil
}

// Logout ends the session. Calling it while signed out is not an error.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/logout", nil, nil); err != nil {
		return err
	}
	c.setToken("")
	return nil
}

// FetchSession returns the server's view of the current session, or
// domain.ErrUnauthorized when there is none.
func (c *Client) FetchSession(ctx context.Context) (domain.Session, error) {
	var out sessionWire
	if err := c.do(ctx, http.MethodGet, "/api/session-info", nil, &out); err != nil {
		return domain.Session{}, err
	}
	return out.session(), nil
}

// SellResult is a SOLD or DUPLICATE outcome. Rejected forms come back as a
// validation error carrying field messages.
type SellResult struct {
	Status          app.SaleStatus
	Record          domain.Sale
	Conflicts       []domain.Sale
	ResolutionToken string
}

func (c *Client) SellTicket(ctx context.Context, ticketNumber, studentNumber string) (SellResult, error) {
	var out struct {
		Success            bool       `json:"success"`
		Record             *saleWire  `json:"record"`
		Duplicate          bool       `json:"duplicate"`
		ConflictingRecords []saleWire `json:"conflicting_records"`
		ResolutionToken    string     `json:"resolution_token"`
	}
	err := c.do(ctx, http.MethodPost, "/sell-ticket", map[string]string{
		"ticket_number":  ticketNumber,
		"student_number": studentNumber,
	}, &out)
	if err != nil {
		return SellResult{}, err
	}
	if out.Duplicate {
		return SellResult{
			Status:          app.SaleDuplicate,
			Conflicts:       sales(out.ConflictingRecords),
			ResolutionToken: out.ResolutionToken,
		}, nil
	}
	res := SellResult{Status: app.SaleSold}
	if out.Record != nil {
		res.Record = out.Record.sale()
	}
	return res, nil
}

func (c *Client) ResolveDuplicate(ctx context.Context, token string, confirm bool) (app.ResolveDuplicateResult, error) {
	var out struct {
		Status  string    `json:"status"`
		Record  *saleWire `json:"record"`
		Outcome string    `json:"outcome"`
	}
	in := struct {
		ResolutionToken string `json:"resolution_token"`
		Confirm         bool   `json:"confirm"`
	}{token, confirm}
	if err := c.do(ctx, http.MethodPost, "/sell-ticket/resolve", in, &out); err != nil {
		return app.ResolveDuplicateResult{}, err
	}
	res := app.ResolveDuplicateResult{
		Status:  app.ResolutionStatus(out.Status),
		Outcome: domain.ResolutionOutcome(out.Outcome),
	}
	if out.Record != nil {
		res.Record = out.Record.sale()
	}
	return res, nil
}

func (c *Client) MySales(ctx context.Context) ([]domain.Sale, error) {
	var out []saleWire
	if err := c.do(ctx, http.MethodGet, "/my-sales", nil, &out); err != nil {
		return nil, err
	}
	return sales(out), nil
}

func (c *Client) AllSales(ctx context.Context) ([]domain.Sale, error) {
	var out []saleWire
	if err := c.do(ctx, http.MethodGet, "/admin/all-sales", nil, &out); err != nil {
		return nil, err
	}
	return sales(out), nil
}

func (c *Client) EventDayStatus(ctx context.Context) (app.EventStatus, error) {
	var out struct {
		Phase         string           `json:"phase"`
		Enabled       bool             `json:"enabled"`
		EventDate     *time.Time       `json:"event_date"`
		ActivatedAt   *time.Time       `json:"activated_at"`
		TimeRemaining domain.Countdown `json:"time_remaining"`
		ServerTime    time.Time        `json:"server_time"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/eventday-status", nil, &out); err != nil {
		return app.EventStatus{}, err
	}
	st := app.EventStatus{
		Phase:         domain.Phase(out.Phase),
		Enabled:       out.Enabled,
		ActivatedAt:   out.ActivatedAt,
		TimeRemaining: out.TimeRemaining,
		Now:           out.ServerTime,
	}
	if out.EventDate != nil {
		st.EventDate = *out.EventDate
	}
	return st, nil
}

func (c *Client) SetEventEnabled(ctx context.Context, enabled bool) error {
	return c.do(ctx, http.MethodPost, "/admin/eventday-enable", map[string]bool{"enabled": enabled}, nil)
}

// SetEventDate schedules the event. A zero time clears the schedule.
func (c *Client) SetEventDate(ctx context.Context, at time.Time) error {
	var raw string
	if !at.IsZero() {
		raw = at.UTC().Format(time.RFC3339)
	}
	return c.do(ctx, http.MethodPost, "/admin/eventday-schedule", map[string]string{"event_date": raw}, nil)
}

func (c *Client) GrantAccess(ctx context.Context, ticketNumber, studentNumber string) (domain.AccessGrant, error) {
	var out grantWire
	err := c.do(ctx, http.MethodPost, "/eventday/grant-access", map[string]string{
		"ticket_number":  ticketNumber,
		"student_number": studentNumber,
	}, &out)
	if err != nil {
		return domain.AccessGrant{}, err
	}
	return out.grant(), nil
}

func (c *Client) UsedTickets(ctx context.Context) ([]domain.AccessGrant, error) {
	var out []grantWire
	if err := c.do(ctx, http.MethodGet, "/admin/eventday-used", nil, &out); err != nil {
		return nil, err
	}
	grants := make([]domain.AccessGrant, 0, len(out))
	for _, w := range out {
		grants = append(grants, w.grant())
	}
	return grants, nil
}

type FaultInput struct {
	TicketNumber string `json:"ticket_number"`
	Buyer        string `json:"buyer"`
	IssueType    string `json:"issue_type"`
	Reporter     string `json:"reporter"`
	Notes        string `json:"notes"`
}

type faultWire struct {
	ID                 string    `json:"id"`
	TicketNumber       string    `json:"ticket_number"`
	BuyerStudentNumber string    `json:"buyer_student_number"`
	IssueType          string    `json:"issue_type"`
	Reporter           string    `json:"reporter"`
	Notes              string    `json:"notes"`
	CreatedAt          time.Time `json:"created_at"`
}

func (w faultWire) report() domain.FaultReport {
	return domain.FaultReport{
		ID:                 w.ID,
		TicketNumber:       w.TicketNumber,
		BuyerStudentNumber: w.BuyerStudentNumber,
		IssueType:          domain.IssueType(w.IssueType),
		ReporterName:       w.Reporter,
		Notes:              w.Notes,
		CreatedAt:          w.CreatedAt,
	}
}

func (c *Client) LogFault(ctx context.Context, in FaultInput) (domain.FaultReport, error) {
	var out faultWire
	if err := c.do(ctx, http.MethodPost, "/admin/log-fault", in, &out); err != nil {
		return domain.FaultReport{}, err
	}
	return out.report(), nil
}

// Faults lists fault reports; an empty ticket number lists all of them.
func (c *Client) Faults(ctx context.Context, ticketNumber string) ([]domain.FaultReport, error) {
	path := "/admin/faults"
	if ticketNumber != "" {
		path += "?ticket_number=" + url.QueryEscape(ticketNumber)
	}
	var out []faultWire
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	reports := make([]domain.FaultReport, 0, len(out))
	for _, w := range out {
		reports = append(reports, w.report())
	}
	return reports, nil
}
