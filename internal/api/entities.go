package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/crm"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/source"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/table"
)

// EntityListResponse lists the entity schemas.
type EntityListResponse struct {
	Count   int          `json:"count"`
	Results []crm.Entity `json:"results"`
}

// RowListResponse lists raw entity rows.
type RowListResponse struct {
	Count   int         `json:"count"`
	Results []table.Row `json:"results"`
}

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	entities := crm.All()
	respondJSON(w, http.StatusOK, EntityListResponse{Count: len(entities), Results: entities})
}

func (s *Server) handleListRows(w http.ResponseWriter, r *http.Request) {
	entity, err := crm.Lookup(mux.Vars(r)["entity"])
	if err != nil {
		respondErr(w, err)
		return
	}

	c := s.authenticate(r)
	rows, err := s.store.List(source.WithUser(r.Context(), c.UserID), entity)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, RowListResponse{Count: len(rows), Results: rows})
}

func (s *Server) handleCreateRow(w http.ResponseWriter, r *http.Request) {
	entity, err := crm.Lookup(mux.Vars(r)["entity"])
	if err != nil {
		respondErr(w, err)
		return
	}

	var payload map[string]any
	if err := decodeBody(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := validatePayload(entity, payload, false); err != nil {
		respondErr(w, err)
		return
	}

	c := s.authenticate(r)
	row, err := s.store.Create(source.WithUser(r.Context(), c.UserID), entity, payload)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, row)
}

func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entity, err := crm.Lookup(vars["entity"])
	if err != nil {
		respondErr(w, err)
		return
	}

	var payload map[string]any
	if err := decodeBody(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := validatePayload(entity, payload, true); err != nil {
		respondErr(w, err)
		return
	}

	c := s.authenticate(r)
	row, err := s.store.Update(source.WithUser(r.Context(), c.UserID), entity, vars["id"], payload)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, row)
}

// validatePayload checks account payloads. partial accepts a payload that
// leaves the account name out.
func validatePayload(entity crm.Entity, payload map[string]any, partial bool) error {
	if entity.Type != crm.EntityAccount {
		return nil
	}
	return crm.ValidateAccount(payload, partial)
}
