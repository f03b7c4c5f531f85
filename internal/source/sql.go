package source

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/crm"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/database"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/logger"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/table"
)

// NotesTable receives notes added through the add_note action.
const NotesTable = "Notes"

// SQLStore reads and writes entity tables of the CRM database directly.
type SQLStore struct {
	db *database.DB
}

func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) q(ident string) string { return s.db.Dialect.Quote(ident) }

func (s *SQLStore) ph(n int) string { return s.db.Dialect.Placeholder(n) }

// List reads the whole entity table.
func (s *SQLStore) List(ctx context.Context, entity crm.Entity) ([]table.Row, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s", s.q(entity.Table), s.q(entity.IDField))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", entity.Table, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", entity.Table, err)
	}
	logger.Log.Debugf("[Source] Loaded %d rows from %s", len(out), entity.Table)
	return out, nil
}

func (s *SQLStore) get(ctx context.Context, entity crm.Entity, id string) (table.Row, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = %s", s.q(entity.Table), s.q(entity.IDField), s.ph(1))
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", entity.Table, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, entity.Type, id)
	}
	return out[0], nil
}

// scanRows turns a result set of unknown shape into rows. Boolean columns
// are normalized to bool so boolean filters match regardless of engine.
func scanRows(rows *sql.Rows) ([]table.Row, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	out := []table.Row{}
	for rows.Next() {
		values := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(table.Row, len(types))
		for i, ct := range types {
			row[ct.Name()] = normalize(ct, values[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func normalize(ct *sql.ColumnType, v any) any {
	if v == nil {
		return nil
	}
	dbType := strings.ToUpper(ct.DatabaseTypeName())
	if b, ok := v.([]byte); ok && dbType == "BIT" {
		return bitSet(b)
	}
	if dbType == "BOOL" || dbType == "BOOLEAN" || dbType == "BIT" || ct.Name() == table.FieldActive {
		return table.Truthy(v)
	}
	switch t := v.(type) {
	case []byte:
		return string(t)
	case int64:
		return float64(t)
	case int32:
		return float64(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	}
	return v
}

// bitSet decodes a BIT column delivered as raw bytes, as MySQL does.
func bitSet(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return true
		}
	}
	return false
}

// Create inserts the writable fields of payload and returns the stored row.
func (s *SQLStore) Create(ctx context.Context, entity crm.Entity, payload map[string]any) (table.Row, error) {
	fields := sortedKeys(editable(entity, payload))
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no writable fields", ErrInvalidInput)
	}

	cols := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		cols[i] = s.q(f)
		args[i] = payload[f]
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.q(entity.Table), strings.Join(cols, ", "), s.db.Dialect.Placeholders(1, len(fields)))

	var id string
	if s.db.Dialect == database.Postgres {
		var newID any
		err := s.db.QueryRowContext(ctx, insert+" RETURNING "+s.q(entity.IDField), args...).Scan(&newID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert into %s: %w", entity.Table, err)
		}
		id = table.Stringify(newID)
	} else {
		result, err := s.db.ExecContext(ctx, insert, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to insert into %s: %w", entity.Table, err)
		}
		newID, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get new id: %w", err)
		}
		id = table.Stringify(newID)
	}

	logger.Log.Infof("[Source] Created %s %s", entity.Type, id)
	return s.get(ctx, entity, id)
}

// Update writes the writable fields of payload and returns the stored row.
func (s *SQLStore) Update(ctx context.Context, entity crm.Entity, id string, payload map[string]any) (table.Row, error) {
	fields := sortedKeys(editable(entity, payload))
	if len(fields) == 0 {
		return s.get(ctx, entity, id)
	}

	sets := make([]string, len(fields))
	args := make([]any, 0, len(fields)+1)
	for i, f := range fields {
		sets[i] = fmt.Sprintf("%s = %s", s.q(f), s.ph(i+1))
		args = append(args, payload[f])
	}
	args = append(args, id)

	if err := s.exec(ctx, entity, id, strings.Join(sets, ", "), args...); err != nil {
		return nil, err
	}
	return s.get(ctx, entity, id)
}

// exec runs an UPDATE of one row. A row that does not exist is ErrNotFound.
func (s *SQLStore) exec(ctx context.Context, entity crm.Entity, id, set string, args ...any) error {
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		s.q(entity.Table), set, s.q(entity.IDField), s.ph(len(args)))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", entity.Table, err)
	}
	return s.checkAffected(ctx, entity, id, result)
}

func (s *SQLStore) checkAffected(ctx context.Context, entity crm.Entity, id string, result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}
	// mysql reports 0 for rows that matched but did not change
	_, err = s.get(ctx, entity, id)
	return err
}

// Perform maps a row action onto UPDATE, DELETE or a notes INSERT.
func (s *SQLStore) Perform(ctx context.Context, entity crm.Entity, op Operation) error {
	var err error
	switch op.Action {
	case table.ActionEdit:
		_, err = s.Update(ctx, entity, op.ID, op.Input)
	case table.ActionDeactivate, table.ActionReactivate:
		active := op.Action == table.ActionReactivate
		err = s.exec(ctx, entity, op.ID, fmt.Sprintf("%s = %s", s.q(table.FieldActive), s.ph(1)), active, op.ID)
	case table.ActionClaimAccount, table.ActionAssignUser:
		userID, uerr := userIDInput(op)
		if uerr != nil {
			return uerr
		}
		err = s.exec(ctx, entity, op.ID, fmt.Sprintf("%s = %s", s.q(table.FieldAssignedUserID), s.ph(1)), userID, op.ID)
	case table.ActionUnclaimAccount, table.ActionUnassignUser:
		err = s.exec(ctx, entity, op.ID, fmt.Sprintf("%s = NULL", s.q(table.FieldAssignedUserID)), op.ID)
	case table.ActionDelete, table.ActionDeletePermanently:
		err = s.delete(ctx, entity, op.ID)
	case table.ActionAddNote:
		err = s.addNote(ctx, entity, op)
	default:
		return fmt.Errorf("%w: %s on %s", ErrUnsupported, op.Action, entity.Type)
	}
	if err != nil {
		return err
	}
	logger.Log.Infof("[Source] %s %s %s", op.Action, entity.Type, op.ID)
	return nil
}

func (s *SQLStore) delete(ctx context.Context, entity crm.Entity, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", s.q(entity.Table), s.q(entity.IDField), s.ph(1))
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", entity.Table, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, entity.Type, id)
	}
	return nil
}

func (s *SQLStore) addNote(ctx context.Context, entity crm.Entity, op Operation) error {
	content, err := noteContent(op)
	if err != nil {
		return err
	}
	if _, err := s.get(ctx, entity, op.ID); err != nil {
		return err
	}
	query := fmt.Sprintf("INSERT INTO %s (%s, %s, %s, %s) VALUES (%s)",
		s.q(NotesTable), s.q("EntityType"), s.q("EntityID"), s.q("Content"), s.q("CreatedBy"),
		s.db.Dialect.Placeholders(1, 4))
	createdBy := userFrom(ctx)
	var by any
	if createdBy != "" {
		by = createdBy
	}
	if _, err := s.db.ExecContext(ctx, query, entity.Type, op.ID, content, by); err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
