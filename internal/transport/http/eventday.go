package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JayMiller08/sci-sa-gala/internal/app"
	"github.com/JayMiller08/sci-sa-gala/internal/domain"
)

// EventDayService is the event phase controller as seen by the handlers.
type EventDayService interface {
	Status(ctx context.Context) (app.EventStatus, error)
	GrantAccess(ctx context.Context, in app.GrantAccessInput) (domain.AccessGrant, error)
	ListGrants(ctx context.Context) ([]domain.AccessGrant, error)
}

// EventAdmin changes the stored event state.
type EventAdmin interface {
	SetEventPhase(ctx context.Context, enabled bool) (domain.EventState, error)
	SetSchedule(ctx context.Context, at time.Time) (domain.EventState, error)
}

type eventStatusResponse struct {
	Phase         string           `json:"phase"`
	Enabled       bool             `json:"enabled"`
	EventDate     *time.Time       `json:"event_date"`
	ActivatedAt   *time.Time       `json:"activated_at"`
	TimeRemaining domain.Countdown `json:"time_remaining"`
	ServerTime    time.Time        `json:"server_time"`
}

type eventStateResponse struct {
	Enabled     bool       `json:"enabled"`
	EventDate   *time.Time `json:"event_date"`
	ActivatedAt *time.Time `json:"activated_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func toEventStateResponse(st domain.EventState) eventStateResponse {
	return eventStateResponse{
		Enabled:     st.Enabled,
		EventDate:   optionalTime(st.ScheduledAt),
		ActivatedAt: st.ActivatedAt,
		UpdatedAt:   st.UpdatedAt,
	}
}

// HandleEventDayStatus reports the derived phase and countdown.
func HandleEventDayStatus(svc EventDayService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Status(r.Context())
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, eventStatusResponse{
			Phase:         string(st.Phase),
			Enabled:       st.Enabled,
			EventDate:     optionalTime(st.EventDate),
			ActivatedAt:   st.ActivatedAt,
			TimeRemaining: st.TimeRemaining,
			ServerTime:    st.Now,
		})
	}
}

type enableRequest struct {
	Enabled *bool `json:"enabled"`
}

// HandleEventDayEnable sets the explicit activation flag.
func HandleEventDayEnable(svc EventAdmin, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req enableRequest
		if !decodeJSON(w, r, &req) || req.Enabled == nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "enabled is required")
			return
		}
		st, err := svc.SetEventPhase(r.Context(), *req.Enabled)
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventStateResponse(st))
	}
}

type scheduleRequest struct {
	EventDate string `json:"event_date"`
}

// HandleEventDaySchedule sets the scheduled event time. An empty
// event_date clears it.
func HandleEventDaySchedule(svc EventAdmin, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scheduleRequest
		if !decodeJSON(w, r, &req) {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		var at time.Time
		if raw := strings.TrimSpace(req.EventDate); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidEventDate, "invalid event_date format")
				return
			}
			at = parsed
		}

		st, err := svc.SetSchedule(r.Context(), at)
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventStateResponse(st))
	}
}

type grantRequest struct {
	TicketNumber  string `json:"ticket_number"`
	StudentNumber string `json:"student_number"`
}

type grantResponse struct {
	TicketNumber  string    `json:"ticket_number"`
	StudentNumber string    `json:"student_number"`
	ExecutiveName string    `json:"executive_name"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	GrantedAt     time.Time `json:"granted_at"`
}

func toGrantResponse(g domain.AccessGrant) grantResponse {
	return grantResponse{
		TicketNumber:  g.TicketNumber,
		StudentNumber: g.StudentNumber,
		ExecutiveName: g.StaffName,
		Date:          g.GrantDate(),
		Time:          g.GrantTime(),
		GrantedAt:     g.GrantedAt,
	}
}

// HandleGrantAccess redeems a ticket at the door.
func HandleGrantAccess(svc EventDayService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		if sess == nil {
			writeDomainError(w, r, logger, domain.ErrUnauthorized)
			return
		}

		var req grantRequest
		if !decodeJSON(w, r, &req) {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		grant, err := svc.GrantAccess(r.Context(), app.GrantAccessInput{
			TicketNumber:  req.TicketNumber,
			StudentNumber: req.StudentNumber,
			StaffID:       sess.UserID,
			StaffName:     sess.DisplayName,
		})
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, toGrantResponse(grant))
	}
}

// HandleEventDayUsed lists redeemed tickets, newest first.
func HandleEventDayUsed(svc EventDayService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		grants, err := svc.ListGrants(r.Context())
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		out := make([]grantResponse, 0, len(grants))
		for _, g := range grants {
			out = append(out, toGrantResponse(g))
		}
		writeJSON(w, http.StatusOK, out)
	}
}
