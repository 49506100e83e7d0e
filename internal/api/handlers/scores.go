package handlers

import (
	"net/http"

	"github.com/dvloznov/statement-scoring/internal/api/middleware"
	"github.com/rs/zerolog"
)

// ScoresHandler serves decisions and the aggregates behind them.
type ScoresHandler struct {
	svc ScoringService
	log zerolog.Logger
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(svc ScoringService, log zerolog.Logger) *ScoresHandler {
	return &ScoresHandler{svc: svc, log: log}
}

// MonthlyRow is the wire shape of one monthly summary.
type MonthlyRow struct {
	Month       string  `json:"month"`
	In          float64 `json:"in"`
	Out         float64 `json:"out"`
	Fees        float64 `json:"fees"`
	TransferIn  float64 `json:"t_in"`
	TransferOut float64 `json:"t_out"`
}

// RecurringRow is the wire shape of one recurring bill.
type RecurringRow struct {
	Category string  `json:"category"`
	Avg      float64 `json:"avg"`
	Months   int     `json:"months"`
}

// LoansResponse is the wire shape of a statement's loan totals.
type LoansResponse struct {
	Payments float64 `json:"payments"`
	Count    int     `json:"count"`
}

// Score handles GET /api/score/{id}. Scoring failures come back as 200
// with status "error"; only unknown statements are 404.
func (h *ScoresHandler) Score(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Score(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to score statement")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, rec)
}

// Monthly handles GET /api/monthly/{id}
func (h *ScoresHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Monthly(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load monthly summary")
		return
	}
	out := make([]MonthlyRow, 0, len(rows))
	for _, m := range rows {
		out = append(out, MonthlyRow{
			Month:       m.YearMonth,
			In:          m.Deposits,
			Out:         m.Withdrawals,
			Fees:        m.FeesTotal,
			TransferIn:  m.TransferIn,
			TransferOut: m.TransferOut,
		})
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

// Recurring handles GET /api/recurring/{id}
func (h *ScoresHandler) Recurring(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Recurring(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load recurring bills")
		return
	}
	out := make([]RecurringRow, 0, len(rows))
	for _, b := range rows {
		out = append(out, RecurringRow{Category: string(b.Category), Avg: b.AvgAmount, Months: b.CountMonths})
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

// Loans handles GET /api/loans/{id}
func (h *ScoresHandler) Loans(w http.ResponseWriter, r *http.Request) {
	loan, err := h.svc.Loans(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load loans")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, LoansResponse{Payments: loan.TotalLoanPayments, Count: loan.LoanTxCount})
}
