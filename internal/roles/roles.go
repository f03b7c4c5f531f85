// Package roles stores named roles and the users holding them. A user's role
// set gates the row actions of the entity tables.
package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/database"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/logger"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/table"
)

var (
	ErrNotFound      = errors.New("role not found")
	ErrDuplicateName = errors.New("role name already exists")
	ErrInvalid       = errors.New("invalid role")
)

// Role is a named role with its members.
type Role struct {
	ID          *int     `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	UserIDs     []string `json:"user_ids"`
	Created     *string  `json:"created,omitempty"`
	Modified    *string  `json:"modified,omitempty"`
}

// ListResponse wraps a list of roles.
type ListResponse struct {
	Count   int    `json:"count"`
	Results []Role `json:"results"`
}

// Store reads and writes roles.
type Store struct {
	db *database.DB
}

func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ph(n int) string { return s.db.Dialect.Placeholder(n) }

// List returns every role ordered by name.
func (s *Store) List(ctx context.Context) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, created, modified FROM roles ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}

	roles := []Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			logger.Log.Warnf("[Roles] Skipping unreadable role: %v", err)
			continue
		}
		roles = append(roles, role)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range roles {
		members, err := s.members(ctx, *roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].UserIDs = members
	}
	return roles, nil
}

// Get returns one role with its members.
func (s *Store) Get(ctx context.Context, id int) (*Role, error) {
	query := fmt.Sprintf(`SELECT id, name, description, created, modified FROM roles WHERE id = %s`, s.ph(1))
	role, err := scanRole(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, err
	}
	if role.UserIDs, err = s.members(ctx, id); err != nil {
		return nil, err
	}
	return &role, nil
}

// Create stores a new role and its members.
func (s *Store) Create(ctx context.Context, role Role) (*Role, error) {
	name := strings.TrimSpace(role.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	logger.Log.Infof("[Roles] CreateRole - Name: %s", name)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	insert := fmt.Sprintf(`INSERT INTO roles (name, description) VALUES (%s, %s)`, s.ph(1), s.ph(2))
	var id int
	if s.db.Dialect == database.Postgres {
		err = tx.QueryRowContext(ctx, insert+" RETURNING id", name, role.Description).Scan(&id)
	} else {
		var result sql.Result
		result, err = tx.ExecContext(ctx, insert, name, role.Description)
		if err == nil {
			var lastID int64
			lastID, err = result.LastInsertId()
			id = int(lastID)
		}
	}
	if err != nil {
		return nil, wrapWriteError(err, name, "create")
	}

	if err := s.replaceMembers(ctx, tx, id, role.UserIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit role: %w", err)
	}
	return s.Get(ctx, id)
}

// Update changes name and description when set, and replaces the members
// when UserIDs is not nil.
func (s *Store) Update(ctx context.Context, id int, updates Role) (*Role, error) {
	logger.Log.Infof("[Roles] UpdateRole - ID: %d", id)

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(updates.Name); name != "" {
		existing.Name = name
	}
	if updates.Description != nil {
		existing.Description = updates.Description
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`UPDATE roles SET name = %s, description = %s, modified = CURRENT_TIMESTAMP WHERE id = %s`,
		s.ph(1), s.ph(2), s.ph(3))
	if _, err := tx.ExecContext(ctx, query, existing.Name, existing.Description, id); err != nil {
		return nil, wrapWriteError(err, existing.Name, "update")
	}
	if updates.UserIDs != nil {
		if err := s.replaceMembers(ctx, tx, id, updates.UserIDs); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit role: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a role and its memberships.
func (s *Store) Delete(ctx context.Context, id int) error {
	logger.Log.Infof("[Roles] DeleteRole - ID: %d", id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// sqlite does not enforce the cascade without foreign_keys=on
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM role_memberships WHERE role_id = %s`, s.ph(1)), id); err != nil {
		return fmt.Errorf("failed to delete role memberships: %w", err)
	}
	result, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM roles WHERE id = %s`, s.ph(1)), id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return tx.Commit()
}

// RolesForUser resolves the role set held by a user.
func (s *Store) RolesForUser(ctx context.Context, userID string) (table.RoleSet, error) {
	query := fmt.Sprintf(`SELECT r.name FROM roles r
		JOIN role_memberships m ON m.role_id = r.id
		WHERE m.user_id = %s`, s.ph(1))
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user roles: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return table.NewRoleSet(names...), nil
}

func (s *Store) members(ctx context.Context, roleID int) ([]string, error) {
	query := fmt.Sprintf(`SELECT user_id FROM role_memberships WHERE role_id = %s ORDER BY user_id ASC`, s.ph(1))
	rows, err := s.db.QueryContext(ctx, query, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query role members: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) replaceMembers(ctx context.Context, tx *sql.Tx, roleID int, userIDs []string) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM role_memberships WHERE role_id = %s`, s.ph(1)), roleID); err != nil {
		return fmt.Errorf("failed to delete existing memberships: %w", err)
	}

	insert := fmt.Sprintf(`INSERT INTO role_memberships (role_id, user_id) VALUES (%s, %s)`, s.ph(1), s.ph(2))
	seen := make(map[string]bool, len(userIDs))
	for _, userID := range userIDs {
		userID = strings.TrimSpace(userID)
		if userID == "" || seen[userID] {
			continue
		}
		seen[userID] = true
		if _, err := tx.ExecContext(ctx, insert, roleID, userID); err != nil {
			return fmt.Errorf("failed to add membership for user %s: %w", userID, err)
		}
	}
	return nil
}

func wrapWriteError(err error, name, op string) error {
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "duplicate key") || strings.Contains(msg, "Duplicate entry") {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	return fmt.Errorf("failed to %s role: %w", op, err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRole(sc scanner) (Role, error) {
	var role Role
	var id sql.NullInt64
	var description, created, modified sql.NullString

	if err := sc.Scan(&id, &role.Name, &description, &created, &modified); err != nil {
		return role, err
	}
	if id.Valid {
		idInt := int(id.Int64)
		role.ID = &idInt
	}
	if description.Valid {
		role.Description = &description.String
	}
	if created.Valid {
		role.Created = &created.String
	}
	if modified.Valid {
		role.Modified = &modified.String
	}
	return role, nil
}
