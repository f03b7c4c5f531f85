package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/views"
)

// readableView loads a saved view the caller may see.
func (s *Server) readableView(ctx context.Context, id int, c caller) (*views.View, error) {
	v, err := s.views.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.VisibleTo(c.UserID) {
		return nil, views.ErrPermissionDenied
	}
	return v, nil
}

func pathID(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["id"])
}

func (s *Server) handleListViews(w http.ResponseWriter, r *http.Request) {
	c := s.authenticate(r)
	q := r.URL.Query()

	list, err := s.views.List(r.Context(), views.ListOptions{
		UserID:        c.UserID,
		EntityType:    q.Get("entity_type"),
		IncludeGlobal: q.Get("include_global") != "false",
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, views.ListResponse{Count: len(list), Results: list})
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid view ID")
		return
	}

	v, err := s.readableView(r.Context(), id, s.authenticate(r))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

func (s *Server) handleCreateView(w http.ResponseWriter, r *http.Request) {
	var v views.View
	if err := decodeBody(r, &v); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	c := s.authenticate(r)
	created, err := s.views.Create(r.Context(), v, c.UserID, c.Username)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateView(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid view ID")
		return
	}

	var updates views.View
	if err := decodeBody(r, &updates); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	updated, err := s.views.Update(r.Context(), id, updates, s.authenticate(r).UserID)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteView(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid view ID")
		return
	}

	if err := s.views.Delete(r.Context(), id, s.authenticate(r).UserID); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
