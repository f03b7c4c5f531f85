// Package api serves the CRM entity tables over HTTP: the raw entity rows,
// stateful page sessions over them, saved views and roles.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/database"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/roles"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/source"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/views"
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	db       *database.DB
	store    source.Store
	views    *views.Store
	roles    *roles.Store
	sessions *SessionStore
}

// NewServer wires the handlers to a row store and the service database that
// keeps saved views and roles.
func NewServer(store source.Store, db *database.DB, sessionTTL time.Duration) *Server {
	return &Server{
		db:       db,
		store:    store,
		views:    views.NewStore(db),
		roles:    roles.NewStore(db),
		sessions: NewSessionStore(sessionTTL),
	}
}

// SweepSessions expires idle page sessions until ctx is done.
func (s *Server) SweepSessions(ctx context.Context, interval time.Duration) {
	s.sessions.Run(ctx, interval)
}

// Router returns the routes of the service.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/entities", s.handleListEntities).Methods("GET")
	api.HandleFunc("/entities/{entity}/rows", s.handleListRows).Methods("GET")
	api.HandleFunc("/entities/{entity}/rows", s.handleCreateRow).Methods("POST")
	api.HandleFunc("/entities/{entity}/rows/{id}", s.handleUpdateRow).Methods("PUT")

	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	sessions := api.PathPrefix("/sessions/{sid}").Subrouter()
	sessions.HandleFunc("", s.handleGetSession).Methods("GET")
	sessions.HandleFunc("", s.handleDeleteSession).Methods("DELETE")
	sessions.HandleFunc("/refresh", s.handleRefresh).Methods("POST")
	sessions.HandleFunc("/search", s.handleSetSearch).Methods("PUT")
	sessions.HandleFunc("/sort", s.handleSetSort).Methods("PUT")
	sessions.HandleFunc("/filters", s.handleClearFilters).Methods("DELETE")
	sessions.HandleFunc("/filters/{field}", s.handleSetFilter).Methods("PUT")
	sessions.HandleFunc("/filters/{field}", s.handleClearFilter).Methods("DELETE")
	sessions.HandleFunc("/selection/all", s.handleSelectAll).Methods("POST")
	sessions.HandleFunc("/selection/toggle/{rowId}", s.handleToggleRow).Methods("POST")
	sessions.HandleFunc("/columns/draft", s.handleOpenDraft).Methods("POST")
	sessions.HandleFunc("/columns/draft", s.handleEditDraft).Methods("PATCH")
	sessions.HandleFunc("/columns/draft", s.handleCancelDraft).Methods("DELETE")
	sessions.HandleFunc("/columns/draft/save", s.handleSaveDraft).Methods("POST")
	sessions.HandleFunc("/columns/{field}/values", s.handleValueOptions).Methods("GET")
	sessions.HandleFunc("/rows/{rowId}/actions", s.handleListActions).Methods("GET")
	sessions.HandleFunc("/rows/{rowId}/actions/{action}", s.handleDispatch).Methods("POST")
	sessions.HandleFunc("/export", s.handleExport).Methods("GET")
	sessions.HandleFunc("/views", s.handleSaveSessionView).Methods("POST")
	sessions.HandleFunc("/views/{id:[0-9]+}/apply", s.handleApplyView).Methods("POST")

	api.HandleFunc("/views", s.handleListViews).Methods("GET")
	api.HandleFunc("/views", s.handleCreateView).Methods("POST")
	api.HandleFunc("/views/{id:[0-9]+}", s.handleGetView).Methods("GET")
	api.HandleFunc("/views/{id:[0-9]+}", s.handleUpdateView).Methods("PUT")
	api.HandleFunc("/views/{id:[0-9]+}", s.handleDeleteView).Methods("DELETE")

	api.HandleFunc("/roles", s.handleListRoles).Methods("GET")
	api.HandleFunc("/roles", s.handleCreateRole).Methods("POST")
	api.HandleFunc("/roles/{id:[0-9]+}", s.handleGetRole).Methods("GET")
	api.HandleFunc("/roles/{id:[0-9]+}", s.handleUpdateRole).Methods("PUT")
	api.HandleFunc("/roles/{id:[0-9]+}", s.handleDeleteRole).Methods("DELETE")

	return router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
