package http

import (
	"errors"
	"log/slog"
	"net/http"

	"tally/internal/core"
	"tally/internal/services"
)

func (s *Server) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var in services.SaleInput
	if err := decodeBody(r, &in); err != nil {
		slog.ErrorContext(r.Context(), "Bad sale payload", "error", err)
		respondError(w, http.StatusBadRequest, "bad-request", "malformed JSON body")
		return
	}

	in.ItemName = sanitizeInput(in.ItemName)
	in.Date = sanitizeInput(in.Date)
	in.Category = sanitizeInput(in.Category)

	tx, err := s.sales.CreateSale(r.Context(), in)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusUnprocessableEntity, "validation", verr.Reason)
			return
		}
		slog.ErrorContext(r.Context(), "Create sale failed", "error", err, "item_name", in.ItemName)
		respondError(w, http.StatusInternalServerError, "internal", "could not record sale")
		return
	}

	respondJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleListSales(w http.ResponseWriter, r *http.Request) {
	list := s.sales.ListSales()
	if list == nil {
		list = []core.Transaction{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleDeleteSale(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "bad-request", "missing sale id")
		return
	}

	removed := s.sales.DeleteSale(r.Context(), id)

	// Deleting an unknown id is not an error, the record is gone either way.
	respondJSON(w, http.StatusOK, map[string]any{"removed": removed})
}
