package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/JayMiller08/sci-sa-gala/internal/app"
	"github.com/JayMiller08/sci-sa-gala/internal/domain"
)

// SaleService is the sale engine as seen by the handlers.
type SaleService interface {
	AttemptSale(ctx context.Context, in app.AttemptSaleInput) (app.SaleOutcome, error)
	ResolveDuplicate(ctx context.Context, in app.ResolveDuplicateInput) (app.ResolveDuplicateResult, error)
	ListMySales(ctx context.Context, executiveID string) ([]domain.Sale, error)
	ListAllSales(ctx context.Context) ([]domain.Sale, error)
}

type saleResponse struct {
	ID                 string    `json:"id"`
	TicketNumber       string    `json:"ticket_number"`
	BuyerStudentNumber string    `json:"buyer_student_number"`
	Date               string    `json:"date"`
	SoldAt             time.Time `json:"sold_at"`
	ExecutiveName      string    `json:"executive_name"`
	SupersededBy       string    `json:"superseded_by,omitempty"`
}

func toSaleResponse(s domain.Sale) saleResponse {
	return saleResponse{
		ID:                 s.ID,
		TicketNumber:       s.TicketNumber,
		BuyerStudentNumber: s.BuyerStudentNumber,
		Date:               s.SaleDate(),
		SoldAt:             s.SoldAt,
		ExecutiveName:      s.ExecutiveName,
		SupersededBy:       s.SupersededBy,
	}
}

func toSaleResponses(sales []domain.Sale) []saleResponse {
	out := make([]saleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, toSaleResponse(s))
	}
	return out
}

type sellTicketRequest struct {
	TicketNumber  string `json:"ticket_number"`
	StudentNumber string `json:"student_number"`
}

type sellTicketResponse struct {
	Success            bool           `json:"success"`
	Record             *saleResponse  `json:"record,omitempty"`
	Duplicate          bool           `json:"duplicate,omitempty"`
	ConflictingRecords []saleResponse `json:"conflicting_records,omitempty"`
	ResolutionToken    string         `json:"resolution_token,omitempty"`
}

// HandleSellTicket records a sale for the signed-in executive.
func HandleSellTicket(svc SaleService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		if sess == nil {
			writeDomainError(w, r, logger, domain.ErrUnauthorized)
			return
		}

		var req sellTicketRequest
		if !decodeJSON(w, r, &req) {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		out, err := svc.AttemptSale(r.Context(), app.AttemptSaleInput{
			TicketNumber:  req.TicketNumber,
			StudentNumber: req.StudentNumber,
			ExecutiveID:   sess.UserID,
			ExecutiveName: sess.DisplayName,
		})
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}

		switch out.Status {
		case app.SaleSold:
			record := toSaleResponse(out.Record)
			writeJSON(w, http.StatusCreated, sellTicketResponse{Success: true, Record: &record})
		case app.SaleDuplicate:
			writeJSON(w, http.StatusOK, sellTicketResponse{
				Duplicate:          true,
				ConflictingRecords: toSaleResponses(out.Conflicts),
				ResolutionToken:    out.ResolutionToken,
			})
		default:
			writeDomainError(w, r, logger, domain.ValidationError(out.FieldErrors))
		}
	}
}

type resolveDuplicateRequest struct {
	ResolutionToken string `json:"resolution_token"`
	Confirm         *bool  `json:"confirm"`
}

type resolveDuplicateResponse struct {
	Status  string        `json:"status"`
	Record  *saleResponse `json:"record,omitempty"`
	Outcome string        `json:"outcome,omitempty"`
}

// HandleResolveDuplicate applies the executive's confirm/cancel decision.
func HandleResolveDuplicate(svc SaleService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		if sess == nil {
			writeDomainError(w, r, logger, domain.ErrUnauthorized)
			return
		}

		var req resolveDuplicateRequest
		if !decodeJSON(w, r, &req) || req.ResolutionToken == "" || req.Confirm == nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "resolution_token and confirm are required")
			return
		}

		res, err := svc.ResolveDuplicate(r.Context(), app.ResolveDuplicateInput{
			Token:       req.ResolutionToken,
			Confirm:     *req.Confirm,
			ExecutiveID: sess.UserID,
		})
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}

		resp := resolveDuplicateResponse{Status: string(res.Status), Outcome: string(res.Outcome)}
		status := http.StatusOK
		if res.Status == app.ResolutionConfirmed {
			record := toSaleResponse(res.Record)
			resp.Record = &record
			status = http.StatusCreated
		}
		writeJSON(w, status, resp)
	}
}

// HandleMySales lists the caller's own sales, newest first.
func HandleMySales(svc SaleService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		if sess == nil {
			writeDomainError(w, r, logger, domain.ErrUnauthorized)
			return
		}
		sales, err := svc.ListMySales(r.Context(), sess.UserID)
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toSaleResponses(sales))
	}
}

// HandleAllSales lists every sale record.
func HandleAllSales(svc SaleService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sales, err := svc.ListAllSales(r.Context())
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toSaleResponses(sales))
	}
}
