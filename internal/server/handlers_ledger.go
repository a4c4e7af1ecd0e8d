package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/huddleup/huddle/internal/models"
)

// Amounts are always integers in minor currency units on the wire; the UI
// converts to major units for display.
type recordExpenseRequest struct {
	PayerID          string   `json:"payer"`
	Description      string   `json:"description,omitempty"`
	AmountMinorUnits int64    `json:"amountMinorUnits"`
	Participants     []string `json:"participants"`
	Shares           []int64  `json:"shares,omitempty"`
}

type expenseResponse struct {
	ID               string   `json:"id"`
	PayerID          string   `json:"payer"`
	Description      string   `json:"description,omitempty"`
	AmountMinorUnits int64    `json:"amountMinorUnits"`
	Participants     []string `json:"participants"`
	Shares           []int64  `json:"shares"`
	Settled          bool     `json:"settled"`
	Void             bool     `json:"void"`
	CreatedAt        int64    `json:"createdAt"`
}

func toExpenseResponse(e *models.ExpenseEntry) expenseResponse {
	return expenseResponse{
		ID:               e.ID,
		PayerID:          e.PayerID,
		Description:      e.Description,
		AmountMinorUnits: e.Amount,
		Participants:     e.Participants,
		Shares:           e.Shares,
		Settled:          e.Settled,
		Void:             e.Void,
		CreatedAt:        e.CreatedAt,
	}
}

func (s *Server) handleRecordExpense(w http.ResponseWriter, r *http.Request) {
	var req recordExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := s.engine.RecordExpense(r.Context(), mux.Vars(r)["id"],
		req.PayerID, req.Description, req.AmountMinorUnits, req.Participants, req.Shares)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseResponse(entry))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	entries, err := s.engine.ListExpenses(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]expenseResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toExpenseResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoidExpense(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.engine.VoidExpense(r.Context(), vars["id"], vars["entryId"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "voided"})
}

type markSettledRequest struct {
	Settled bool `json:"settled"`
}

func (s *Server) handleMarkSettled(w http.ResponseWriter, r *http.Request) {
	req := markSettledRequest{Settled: true}
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}

	vars := mux.Vars(r)
	if err := s.engine.MarkSettled(r.Context(), vars["id"], vars["entryId"], req.Settled); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.engine.Balances(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

type transferResponse struct {
	From             string `json:"from"`
	To               string `json:"to"`
	AmountMinorUnits int64  `json:"amountMinorUnits"`
}

func (s *Server) handleSuggestSettlements(w http.ResponseWriter, r *http.Request) {
	transfers, err := s.engine.SuggestSettlements(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]transferResponse, 0, len(transfers))
	for _, t := range transfers {
		resp = append(resp, transferResponse{From: t.From, To: t.To, AmountMinorUnits: t.Amount})
	}
	writeJSON(w, http.StatusOK, resp)
}

type applySettlementRequest struct {
	From             string `json:"from"`
	To               string `json:"to"`
	AmountMinorUnits int64  `json:"amountMinorUnits"`
}

func (s *Server) handleApplySettlement(w http.ResponseWriter, r *http.Request) {
	var req applySettlementRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := s.engine.ApplySettlement(r.Context(), mux.Vars(r)["id"], req.From, req.To, req.AmountMinorUnits)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseResponse(entry))
}
