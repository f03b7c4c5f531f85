package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/crm"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/export"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/logger"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/source"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/table"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/views"
)

// SessionResponse is the answer of every session call that changes the page.
type SessionResponse struct {
	SessionID string     `json:"session_id"`
	Page      table.Page `json:"page"`
}

// CreateSessionRequest opens a session on an entity, optionally applying a
// saved view.
type CreateSessionRequest struct {
	Entity string `json:"entity"`
	ViewID *int   `json:"view_id,omitempty"`
}

// DraftResponse carries a columns draft.
type DraftResponse struct {
	Draft table.Visibility `json:"draft"`
}

// ValueOptionsResponse lists the distinct values of a column.
type ValueOptionsResponse struct {
	Field  string              `json:"field"`
	Values []table.ValueOption `json:"values"`
}

// ActionsResponse is the action menu of a row.
type ActionsResponse struct {
	RowID   string         `json:"row_id"`
	Actions []table.Action `json:"actions"`
}

// RowResponse carries one row, answered by the view action.
type RowResponse struct {
	Row table.Row `json:"row"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	entity, err := crm.Lookup(req.Entity)
	if err != nil {
		respondErr(w, err)
		return
	}

	c := s.authenticate(r)
	auth := &sessionAuth{}
	auth.set(c.StaticAuth)

	view, err := table.New(entity.TableConfig(s.callbacks(entity, auth), auth))
	if err != nil {
		respondErr(w, err)
		return
	}
	sess := &Session{OwnerID: c.UserID, Entity: entity, view: view, auth: auth}

	if err := s.load(r.Context(), sess, c); err != nil {
		respondErr(w, err)
		return
	}
	if req.ViewID != nil {
		saved, err := s.readableView(r.Context(), *req.ViewID, c)
		if err != nil {
			respondErr(w, err)
			return
		}
		if err := applySaved(*saved, sess); err != nil {
			respondErr(w, err)
			return
		}
	}

	s.sessions.Add(sess)
	logger.Log.Infof("[Sessions] Opened session %s - Entity: %s, User: %s", sess.ID, entity.Type, c.UserID)
	respondJSON(w, http.StatusCreated, SessionResponse{SessionID: sess.ID, Page: sess.view.Render(sess.page)})
}

// withSession runs fn with the session named in the path, locked for the
// duration of the call.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(sess *Session, c caller)) {
	c := s.authenticate(r)
	sess, err := s.sessions.Acquire(mux.Vars(r)["sid"], c.UserID)
	if err != nil {
		respondErr(w, err)
		return
	}
	defer sess.release()

	sess.auth.set(c.StaticAuth)
	fn(sess, c)
}

// respondPage renders the session with its current page window.
func respondPage(w http.ResponseWriter, sess *Session) {
	respondJSON(w, http.StatusOK, SessionResponse{SessionID: sess.ID, Page: sess.view.Render(sess.page)})
}

func (s *Server) load(ctx context.Context, sess *Session, c caller) error {
	rows, err := s.store.List(source.WithUser(ctx, c.UserID), sess.Entity)
	if err != nil {
		return fmt.Errorf("loading %s rows: %w", sess.Entity.Type, err)
	}
	sess.view.SetRows(rows)
	return nil
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session, _ caller) {
		page, err := parsePageRequest(r, sess.page)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		sess.page = page
		respondPage(w, sess)
	})
}

func parsePageRequest(r *http.Request, current table.PageRequest) (table.PageRequest, error) {
	q := r.URL.Query()
	page := current
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, fmt.Errorf("Invalid limit: %s", v)
		}
		page.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return page, fmt.Errorf("Invalid offset: %s", v)
		}
		page.Offset = n
	}
	return page, nil
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	c := s.authenticate(r)
	if err := s.sessions.Remove(mux.Vars(r)["sid"], c.UserID); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session, c caller) {
		if err := s.load(r.Context(), sess, c); err != nil {
			respondErr(w, err)
			return
		}
		respondPage(w, sess)
	})
}

func (s *Server) handleSetSearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Search string `json:"search"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	s.withSession(w, r, func(sess *Session, _ caller) {
		sess.view.SetSearch(body.Search)
		sess.page.Offset = 0
		respondPage(w, sess)
	})
}

func (s *Server) handleSetSort(w http.ResponseWriter, r *http.Request) {
	var spec table.SortSpec
	if err := decodeBody(r, &spec); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	s.withSession(w, r, func(sess *Session, _ caller) {
		if err := sess.view.SetSort(spec); err != nil {
			respondErr(w, err)
			return
		}
		respondPage(w, sess)
	})
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var constraint table.Constraint
	if err := decodeBody(r, &constraint); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid filter: %v", err))
		return
	}
	s.withSession(w, r, func(sess *Session, _ caller) {
		if err := sess.view.SetFilter(mux.Vars(r)["field"], constraint); err != nil {
			respondErr(w, err)
			return
		}
		sess.page.Offset = 0
		respondPage(w, sess)
	})
}

func (s *Server) handleClearFilter(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session, _ caller) {
		sess.view.ClearFilter(mux.Vars(r)["field"])
		sess.page.Offset = 0
		respondPage(w, sess)
	})
}

func (s *Server) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session, _ caller) {
		sess.view.ClearFilters()
		sess.page.Offset = 0
		respondPage(w, sess)
	})
}

func (s *Server) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Checked bool `json:"checked"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	s.withSession(w, r, func(sess *Session, _ caller) {
		sess.view.SelectAll(body.Checked)
		respondPage(w, sess)
	})
}

func (s *Server) handleToggleRow(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session, _ caller) {
		if err := sess.view.ToggleRow(mux.Vars(r)["rowId"]); err != nil {
			respondErr(w, err)
			return
		}
		respondPage(w, sess)
	})
}

func (s *Server) handleOpenDraft(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session, _ caller) {
		draft := sess.view.OpenColumnsDraft()
		respondJSON(w, http.StatusOK, DraftResponse{Draft: draft.Draft()})
	})
}

func (s *Server) handleEditDraft(w http.ResponseWriter, r *http.Request) {
	var changes map[string]bool
	if err := decodeBody(r, &changes); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	s.withSession(w, r, func(sess *Session, _ caller) {
		draft, err := sess.view.ColumnsDraft()
		if err != nil {
			respondErr(w, err)
			return
		}
		fields := make([]string, 0, len(changes))
		for field := range changes {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			if err := draft.Set(field, changes[field]); err != nil {
				respondErr(w, fmt.Errorf("%w: %s", err, field))
				return
			}
		}
		respondJSON(w, http.StatusOK, DraftResponse{Draft: draft.Draft()})
	})
}

func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session, _ caller) {
		draft, err := sess.view.ColumnsDraft()
		if err != nil {
			respondErr(w, err)
			return
		}
		if err := draft.Save(); err != nil {
			respondErr(w, err)
			return
		}
		respondPage(w, sess)
	})
}

func (s *Server) handleCancelDraft(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session, _ caller) {
		draft, err := sess.view.ColumnsDraft()
		if err != nil {
			respondErr(w, err)
			return
		}
		draft.Cancel()
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) handleValueOptions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ignoreCase := q.Get("ignore_case")
	vs := table.ValueSort{
		By:         q.Get("sort_by"),
		Order:      q.Get("sort_order"),
		IgnoreCase: ignoreCase == "true" || ignoreCase == "1",
	}
	field := mux.Vars(r)["field"]

	s.withSession(w, r, func(sess *Session, _ caller) {
		values, err := sess.view.ValueOptions(field, q.Get("q"), vs)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, ValueOptionsResponse{Field: field, Values: values})
	})
}

func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	rowID := mux.Vars(r)["rowId"]
	s.withSession(w, r, func(sess *Session, _ caller) {
		actions, err := sess.view.Actions(rowID)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, ActionsResponse{RowID: rowID, Actions: actions})
	})
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Input map[string]any `json:"input"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	vars := mux.Vars(r)
	rowID, key := vars["rowId"], table.ActionKey(vars["action"])

	s.withSession(w, r, func(sess *Session, c caller) {
		ctx := source.WithUser(r.Context(), c.UserID)
		if err := sess.view.Dispatch(ctx, rowID, key, body.Input); err != nil {
			logger.Log.Warnf("[Sessions] Action %s on %s %s failed: %v", key, sess.Entity.Type, rowID, err)
			respondErr(w, err)
			return
		}
		logger.Log.Infof("[Sessions] Action %s on %s %s - User: %s", key, sess.Entity.Type, rowID, c.UserID)

		if key == table.ActionView {
			respondJSON(w, http.StatusOK, RowResponse{Row: findRow(sess, rowID)})
			return
		}
		if err := s.load(r.Context(), sess, c); err != nil {
			respondErr(w, err)
			return
		}
		respondPage(w, sess)
	})
}

func findRow(sess *Session, id string) table.Row {
	for _, row := range sess.view.Rows() {
		if row.ID(sess.Entity.IDField) == id {
			return row
		}
	}
	return nil
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session, _ caller) {
		headers, rows := sess.view.ExportTable()

		var buf bytes.Buffer
		if err := export.WriteXLSX(&buf, sess.Entity.Table, headers, rows); err != nil {
			respondErr(w, err)
			return
		}

		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, export.FileName(sess.Entity.Table, time.Now())))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			logger.Log.Warnf("[Sessions] Failed to send export of session %s: %v", sess.ID, err)
		}
	})
}

func (s *Server) handleSaveSessionView(w http.ResponseWriter, r *http.Request) {
	var body views.View
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	s.withSession(w, r, func(sess *Session, c caller) {
		v := views.Capture(sess.view, body.Name)
		v.Description = body.Description
		v.IsGlobal = body.IsGlobal

		created, err := s.views.Create(r.Context(), v, c.UserID, c.Username)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, created)
	})
}

func (s *Server) handleApplyView(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid view ID")
		return
	}
	s.withSession(w, r, func(sess *Session, c caller) {
		saved, err := s.readableView(r.Context(), id, c)
		if err != nil {
			respondErr(w, err)
			return
		}
		if err := applySaved(*saved, sess); err != nil {
			respondErr(w, err)
			return
		}
		sess.page.Offset = 0
		respondPage(w, sess)
	})
}

func applySaved(saved views.View, sess *Session) error {
	if saved.EntityType != sess.Entity.Type {
		return fmt.Errorf("%w: view %q is for %s, not %s", views.ErrInvalid, saved.Name, saved.EntityType, sess.Entity.Type)
	}
	return views.Apply(saved, sess.view)
}

// callbacks binds the row actions of a session to the row store. The claim
// action always claims for the session's current user.
func (s *Server) callbacks(entity crm.Entity, auth *sessionAuth) table.Callbacks {
	perform := func(key table.ActionKey) table.ActionFunc {
		return func(ctx context.Context, target table.Target) error {
			return s.store.Perform(ctx, entity, source.Operation{Action: key, ID: target.ID, Input: target.Input})
		}
	}

	return table.Callbacks{
		OnView: func(context.Context, table.Target) error { return nil },
		OnEdit: func(ctx context.Context, target table.Target) error {
			if err := validatePayload(entity, target.Input, true); err != nil {
				return err
			}
			return perform(table.ActionEdit)(ctx, target)
		},
		OnAddNote: perform(table.ActionAddNote),
		OnClaimAccount: func(ctx context.Context, target table.Target) error {
			target.Input = map[string]any{source.InputUserID: auth.CurrentUserID()}
			return perform(table.ActionClaimAccount)(ctx, target)
		},
		OnUnclaimAccount:    perform(table.ActionUnclaimAccount),
		OnAssignUser:        perform(table.ActionAssignUser),
		OnUnassignUser:      perform(table.ActionUnassignUser),
		OnReactivate:        perform(table.ActionReactivate),
		OnDeactivate:        perform(table.ActionDeactivate),
		OnDelete:            perform(table.ActionDelete),
		OnDeletePermanently: perform(table.ActionDeletePermanently),
	}
}
