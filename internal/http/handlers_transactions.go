package http

import (
	"net/http"

	"fintrack/internal/core"
)

type transactionPage struct {
	Items []core.TransactionWithCategory `json:"items"`
	Total int                            `json:"total"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	claims := claimsFrom(r.Context())
	items, total, err := s.transactionService.List(r.Context(), claims.UserID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionPage{Items: items, Total: total})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	tx, err := payload.toTransaction()
	if err != nil {
		writeError(w, err)
		return
	}

	claims := claimsFrom(r.Context())
	created, err := s.transactionService.Create(r.Context(), claims.UserID, tx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	tx, err := s.transactionService.Get(r.Context(), claims.UserID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	patch, err := payload.toPatch()
	if err != nil {
		writeError(w, err)
		return
	}

	claims := claimsFrom(r.Context())
	updated, err := s.transactionService.Update(r.Context(), claims.UserID, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if err := s.transactionService.Delete(r.Context(), claims.UserID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
