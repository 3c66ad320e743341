package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/JayMiller08/sci-sa-gala/internal/app"
	"github.com/JayMiller08/sci-sa-gala/internal/domain"
)

// FaultService records and lists fault adjudications.
type FaultService interface {
	ResolveFault(ctx context.Context, in app.ResolveFaultInput) (domain.FaultReport, error)
	ListFaults(ctx context.Context, ticketNumber string) ([]domain.FaultReport, error)
}

type logFaultRequest struct {
	TicketNumber string `json:"ticket_number"`
	Buyer        string `json:"buyer"`
	IssueType    string `json:"issue_type"`
	Reporter     string `json:"reporter"`
	Notes        string `json:"notes"`
}

type faultResponse struct {
	ID                 string    `json:"id"`
	TicketNumber       string    `json:"ticket_number"`
	BuyerStudentNumber string    `json:"buyer_student_number"`
	IssueType          string    `json:"issue_type"`
	Reporter           string    `json:"reporter"`
	Notes              string    `json:"notes"`
	CreatedAt          time.Time `json:"created_at"`
}

func toFaultResponse(f domain.FaultReport) faultResponse {
	return faultResponse{
		ID:                 f.ID,
		TicketNumber:       f.TicketNumber,
		BuyerStudentNumber: f.BuyerStudentNumber,
		IssueType:          string(f.IssueType),
		Reporter:           f.ReporterName,
		Notes:              f.Notes,
		CreatedAt:          f.CreatedAt,
	}
}

// HandleLogFault records a fault adjudication against a ticket.
func HandleLogFault(svc FaultService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req logFaultRequest
		if !decodeJSON(w, r, &req) {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		var reportedBy string
		if sess := SessionFromContext(r.Context()); sess != nil {
			reportedBy = sess.UserID
		}

		report, err := svc.ResolveFault(r.Context(), app.ResolveFaultInput{
			TicketNumber:       req.TicketNumber,
			BuyerStudentNumber: req.Buyer,
			IssueType:          req.IssueType,
			ReporterName:       req.Reporter,
			Notes:              req.Notes,
			ReportedBy:         reportedBy,
		})
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, toFaultResponse(report))
	}
}

// HandleListFaults lists fault reports, optionally for one ticket.
func HandleListFaults(svc FaultService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := svc.ListFaults(r.Context(), r.URL.Query().Get("ticket_number"))
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		out := make([]faultResponse, 0, len(reports))
		for _, f := range reports {
			out = append(out, toFaultResponse(f))
		}
		writeJSON(w, http.StatusOK, out)
	}
}
