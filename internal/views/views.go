// Package views persists named table configurations (visible columns,
// filters, search and sort) that users save and re-apply to an entity list.
package views

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/database"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/logger"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/table"
)

var (
	ErrNotFound         = errors.New("saved view not found")
	ErrPermissionDenied = errors.New("permission denied: view belongs to another user")
	ErrInvalid          = errors.New("invalid view")
)

// View is a saved table configuration for one entity type.
type View struct {
	ID               *int                        `json:"id,omitempty"`
	Name             string                      `json:"name"`
	Description      *string                     `json:"description,omitempty"`
	EntityType       string                      `json:"entity_type"`
	ColumnVisibility table.Visibility            `json:"column_visibility"`
	Filters          map[string]table.Constraint `json:"filters"`
	Search           *string                     `json:"search,omitempty"`
	SortField        *string                     `json:"sort_field,omitempty"`
	SortReverse      *bool                       `json:"sort_reverse,omitempty"`
	IsGlobal         *bool                       `json:"is_global,omitempty"`
	Created          *string                     `json:"created,omitempty"`
	Modified         *string                     `json:"modified,omitempty"`
	Username         *string                     `json:"username,omitempty"`
	OwnerID          *string                     `json:"owner_id,omitempty"`
}

// ListResponse wraps a list of views.
type ListResponse struct {
	Count   int    `json:"count"`
	Results []View `json:"results"`
}

// ListOptions narrows List.
type ListOptions struct {
	UserID        string
	EntityType    string
	IncludeGlobal bool
}

// Store reads and writes saved views.
type Store struct {
	db *database.DB
}

func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

const selectColumns = `SELECT id, name, description, entity_type, column_visibility, filters, search,
	sort_field, sort_reverse, is_global, owner_id, username, created, modified
	FROM saved_views`

func (s *Store) ph(n int) string { return s.db.Dialect.Placeholder(n) }

// jsonPh is a placeholder for a JSON document column.
func (s *Store) jsonPh(n int) string {
	if s.db.Dialect == database.Postgres {
		return s.ph(n) + "::jsonb"
	}
	return s.ph(n)
}

// List returns the views a user may see, newest first. Without a user id only
// global views are returned.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]View, error) {
	where := []string{"deleted_at IS NULL"}
	var args []any

	switch {
	case opts.UserID != "" && opts.IncludeGlobal:
		args = append(args, opts.UserID)
		where = append(where, fmt.Sprintf("(owner_id = %s OR is_global = %s)", s.ph(len(args)), s.db.Dialect.Bool(true)))
	case opts.UserID != "":
		args = append(args, opts.UserID)
		where = append(where, fmt.Sprintf("owner_id = %s", s.ph(len(args))))
	default:
		where = append(where, fmt.Sprintf("is_global = %s", s.db.Dialect.Bool(true)))
	}
	if opts.EntityType != "" {
		args = append(args, opts.EntityType)
		where = append(where, fmt.Sprintf("entity_type = %s", s.ph(len(args))))
	}

	query := selectColumns + " WHERE " + strings.Join(where, " AND ") + " ORDER BY created DESC, id DESC"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved views: %w", err)
	}
	defer rows.Close()

	views := []View{}
	for rows.Next() {
		view, err := scanView(rows)
		if err != nil {
			logger.Log.Warnf("[Views] Skipping unreadable saved view: %v", err)
			continue
		}
		views = append(views, view)
	}
	return views, rows.Err()
}

// Get returns one live view.
func (s *Store) Get(ctx context.Context, id int) (*View, error) {
	query := selectColumns + fmt.Sprintf(" WHERE id = %s AND deleted_at IS NULL", s.ph(1))
	view, err := scanView(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &view, nil
}

// Create stores a new view owned by userID.
func (s *Store) Create(ctx context.Context, view View, userID, username string) (*View, error) {
	if strings.TrimSpace(view.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if view.EntityType == "" {
		return nil, fmt.Errorf("%w: entity_type is required", ErrInvalid)
	}

	visibilityJSON, err := marshalJSON(view.ColumnVisibility)
	if err != nil {
		return nil, err
	}
	filtersJSON, err := marshalJSON(view.Filters)
	if err != nil {
		return nil, err
	}

	isGlobal := view.IsGlobal != nil && *view.IsGlobal
	sortReverse := view.SortReverse != nil && *view.SortReverse
	args := []any{
		view.Name, view.Description, view.EntityType, visibilityJSON, filtersJSON,
		view.Search, view.SortField, sortReverse, isGlobal, nullable(userID), nullable(username),
	}
	insert := fmt.Sprintf(`INSERT INTO saved_views (name, description, entity_type, column_visibility, filters,
		search, sort_field, sort_reverse, is_global, owner_id, username)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)`,
		s.ph(1), s.ph(2), s.ph(3), s.jsonPh(4), s.jsonPh(5),
		s.ph(6), s.ph(7), s.ph(8), s.ph(9), s.ph(10), s.ph(11))

	var newID int
	if s.db.Dialect == database.Postgres {
		if err := s.db.QueryRowContext(ctx, insert+" RETURNING id", args...).Scan(&newID); err != nil {
			return nil, fmt.Errorf("failed to create saved view: %w", err)
		}
	} else {
		result, err := s.db.ExecContext(ctx, insert, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to create saved view: %w", err)
		}
		lastID, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get last insert ID: %w", err)
		}
		newID = int(lastID)
	}

	logger.Log.Infof("[Views] Created view %d (%s) for %s", newID, view.Name, view.EntityType)
	return s.Get(ctx, newID)
}

// Update applies the fields set in updates. Only the owner may change a
// view; views without an owner are shared.
func (s *Store) Update(ctx context.Context, id int, updates View, userID string) (*View, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !mayModify(existing, userID) {
		return nil, ErrPermissionDenied
	}

	var setParts []string
	var args []any
	set := func(column string, value any, jsonDoc bool) {
		args = append(args, value)
		ph := s.ph(len(args))
		if jsonDoc {
			ph = s.jsonPh(len(args))
		}
		setParts = append(setParts, fmt.Sprintf("%s = %s", column, ph))
	}

	if strings.TrimSpace(updates.Name) != "" {
		set("name", updates.Name, false)
	}
	if updates.Description != nil {
		set("description", *updates.Description, false)
	}
	if updates.ColumnVisibility != nil {
		doc, err := marshalJSON(updates.ColumnVisibility)
		if err != nil {
			return nil, err
		}
		set("column_visibility", doc, true)
	}
	if updates.Filters != nil {
		doc, err := marshalJSON(updates.Filters)
		if err != nil {
			return nil, err
		}
		set("filters", doc, true)
	}
	if updates.Search != nil {
		set("search", *updates.Search, false)
	}
	if updates.SortField != nil {
		set("sort_field", *updates.SortField, false)
	}
	if updates.SortReverse != nil {
		set("sort_reverse", *updates.SortReverse, false)
	}
	if updates.IsGlobal != nil {
		set("is_global", *updates.IsGlobal, false)
	}

	if len(setParts) == 0 {
		return existing, nil
	}
	setParts = append(setParts, "modified = CURRENT_TIMESTAMP")
	args = append(args, id)
	query := fmt.Sprintf("UPDATE saved_views SET %s WHERE id = %s", strings.Join(setParts, ", "), s.ph(len(args)))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update saved view: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes a view.
func (s *Store) Delete(ctx context.Context, id int, userID string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !mayModify(existing, userID) {
		return ErrPermissionDenied
	}

	query := fmt.Sprintf("UPDATE saved_views SET deleted_at = CURRENT_TIMESTAMP WHERE id = %s", s.ph(1))
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete saved view: %w", err)
	}
	logger.Log.Infof("[Views] Deleted view %d", id)
	return nil
}

func mayModify(v *View, userID string) bool {
	return v.OwnerID == nil || *v.OwnerID == userID
}

// VisibleTo reports whether userID may read and apply the view.
func (v *View) VisibleTo(userID string) bool {
	return (v.IsGlobal != nil && *v.IsGlobal) || mayModify(v, userID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanView(sc scanner) (View, error) {
	var view View
	var id sql.NullInt64
	var description, search, sortField, ownerID, username, created, modified sql.NullString
	var visibilityJSON, filtersJSON sql.NullString
	var isGlobal, sortReverse sql.NullBool

	err := sc.Scan(
		&id, &view.Name, &description, &view.EntityType, &visibilityJSON, &filtersJSON, &search,
		&sortField, &sortReverse, &isGlobal, &ownerID, &username, &created, &modified,
	)
	if err != nil {
		return view, err
	}

	if id.Valid {
		idInt := int(id.Int64)
		view.ID = &idInt
	}
	view.Description = optional(description)
	view.Search = optional(search)
	view.SortField = optional(sortField)
	view.OwnerID = optional(ownerID)
	view.Username = optional(username)
	view.Created = optional(created)
	view.Modified = optional(modified)
	if isGlobal.Valid {
		view.IsGlobal = &isGlobal.Bool
	}
	if sortReverse.Valid {
		view.SortReverse = &sortReverse.Bool
	}

	view.ColumnVisibility = table.Visibility{}
	if visibilityJSON.Valid && visibilityJSON.String != "" {
		if err := json.Unmarshal([]byte(visibilityJSON.String), &view.ColumnVisibility); err != nil {
			return view, fmt.Errorf("decoding column_visibility: %w", err)
		}
	}
	view.Filters = map[string]table.Constraint{}
	if filtersJSON.Valid && filtersJSON.String != "" {
		if err := json.Unmarshal([]byte(filtersJSON.String), &view.Filters); err != nil {
			return view, fmt.Errorf("decoding filters: %w", err)
		}
	}
	return view, nil
}

func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding view: %w", err)
	}
	if string(data) == "null" {
		return "{}", nil
	}
	return string(data), nil
}

func optional(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
