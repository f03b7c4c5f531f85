package table

import (
	"context"
	"fmt"
)

// Config wires a View to one entity.
type Config struct {
	EntityType string
	IDField    string
	Columns    []ColumnSpec
	Formatters map[string]Formatter
	Callbacks  Callbacks
	Auth       AuthContext
}

// View is the composition root of an entity list. It owns the filter state,
// sort, column visibility and selection, and derives everything else from the
// full row set on demand.
type View struct {
	cfg        Config
	rows       []Row
	state      FilterState
	sort       SortSpec
	visibility *VisibilityStore
	draft      *ColumnsDraft
	selection  Selection
	router     *Router
}

// New validates the configuration and returns an empty view.
func New(cfg Config) (*View, error) {
	if cfg.IDField == "" {
		return nil, fmt.Errorf("id field is required")
	}
	if len(cfg.Columns) == 0 {
		return nil, fmt.Errorf("at least one column is required")
	}
	seen := make(map[string]bool, len(cfg.Columns))
	for _, c := range cfg.Columns {
		if c.Field == "" {
			return nil, fmt.Errorf("column without field")
		}
		if seen[c.Field] {
			return nil, fmt.Errorf("duplicate column %q", c.Field)
		}
		seen[c.Field] = true
	}

	return &View{
		cfg:        cfg,
		state:      FilterState{Filters: map[string]Constraint{}},
		visibility: NewVisibilityStore(cfg.Columns),
		router:     NewRouter(cfg.EntityType, cfg.IDField, cfg.Callbacks, cfg.Auth),
	}, nil
}

// EntityType returns the entity tag the view was built for.
func (v *View) EntityType() string { return v.cfg.EntityType }

// Columns returns every configured column, shown or not.
func (v *View) Columns() []ColumnSpec { return v.cfg.Columns }

// SetRows replaces the full row set. The selection is kept.
func (v *View) SetRows(rows []Row) { v.rows = rows }

// Rows returns the full row set.
func (v *View) Rows() []Row { return v.rows }

func (v *View) column(field string) (ColumnSpec, bool) {
	for _, c := range v.cfg.Columns {
		if c.Field == field {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// Search returns the current search term.
func (v *View) Search() string { return v.state.Search }

// SetSearch replaces the search term.
func (v *View) SetSearch(term string) { v.state.Search = term }

// Filters returns a copy of the active constraints.
func (v *View) Filters() map[string]Constraint {
	out := make(map[string]Constraint, len(v.state.Filters))
	for k, c := range v.state.Filters {
		out[k] = c
	}
	return out
}

// SetFilter installs a constraint on a column. An unset constraint removes
// the column's filter.
func (v *View) SetFilter(field string, c Constraint) error {
	if _, ok := v.column(field); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, field)
	}
	if !c.IsSet() {
		delete(v.state.Filters, field)
		return nil
	}
	if err := c.Validate(field); err != nil {
		return err
	}
	v.state.Filters[field] = c
	return nil
}

// SetFilters replaces all constraints at once. Nothing changes unless every
// constraint is valid.
func (v *View) SetFilters(filters map[string]Constraint) error {
	next := make(map[string]Constraint, len(filters))
	for field, c := range filters {
		if _, ok := v.column(field); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, field)
		}
		if !c.IsSet() {
			continue
		}
		if err := c.Validate(field); err != nil {
			return err
		}
		next[field] = c
	}
	v.state.Filters = next
	return nil
}

// ClearFilter removes one column's constraint.
func (v *View) ClearFilter(field string) { delete(v.state.Filters, field) }

// ClearFilters removes every constraint.
func (v *View) ClearFilters() { v.state.Filters = map[string]Constraint{} }

// Sort returns the active sort.
func (v *View) Sort() SortSpec { return v.sort }

// SetSort changes the sort. An empty field restores source order.
func (v *View) SetSort(spec SortSpec) error {
	if spec.Field != "" {
		if _, ok := v.column(spec.Field); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, spec.Field)
		}
	}
	v.sort = spec
	return nil
}

// VisibleRows applies search, filters and sort to the full row set.
func (v *View) VisibleRows() []Row {
	return Sort(Filter(v.rows, v.cfg.Columns, v.state), v.sort)
}

// VisibleColumns returns the shown columns in configured order.
func (v *View) VisibleColumns() []ColumnSpec {
	var out []ColumnSpec
	for _, c := range v.cfg.Columns {
		if v.visibility.Shown(c.Field) {
			out = append(out, c)
		}
	}
	return out
}

// Visibility returns a copy of the live visibility map.
func (v *View) Visibility() Visibility { return v.visibility.Snapshot() }

// OpenColumnsDraft starts a columns edit session, discarding any open one.
func (v *View) OpenColumnsDraft() *ColumnsDraft {
	if v.draft != nil {
		v.draft.Cancel()
	}
	v.draft = v.visibility.OpenDraft()
	return v.draft
}

// ColumnsDraft returns the open draft.
func (v *View) ColumnsDraft() (*ColumnsDraft, error) {
	if v.draft == nil || v.draft.Closed() {
		return nil, ErrNoDraft
	}
	return v.draft, nil
}

// ReplaceVisibility commits a whole visibility map through a draft. Unknown
// fields are ignored; columns missing from vis keep their current state.
func (v *View) ReplaceVisibility(vis Visibility) error {
	d := v.OpenColumnsDraft()
	for field, shown := range vis {
		if _, ok := v.column(field); !ok {
			continue
		}
		if err := d.Set(field, shown); err != nil {
			d.Cancel()
			return err
		}
	}
	return d.Save()
}

func (v *View) visibleIDs(rows []Row) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID(v.cfg.IDField)
	}
	return ids
}

// SelectAll selects every visible row, or clears the selection.
func (v *View) SelectAll(checked bool) {
	v.selection.SelectAll(checked, v.visibleIDs(v.VisibleRows()))
}

// ToggleRow flips the selection of a visible row.
func (v *View) ToggleRow(id string) error {
	if _, ok := v.findVisible(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRow, id)
	}
	v.selection.Toggle(id)
	return nil
}

// IsSelected reports whether a row id is selected.
func (v *View) IsSelected(id string) bool { return v.selection.IsSelected(id) }

// SelectedIDs returns the selected row ids.
func (v *View) SelectedIDs() []string { return v.selection.IDs() }

// ClearSelection empties the selection.
func (v *View) ClearSelection() { v.selection.Clear() }

// HeaderState is the select-all checkbox state.
func (v *View) HeaderState() HeaderState {
	return v.selection.Header(v.visibleIDs(v.VisibleRows()))
}

func (v *View) findVisible(id string) (Row, bool) {
	for _, r := range v.VisibleRows() {
		if r.ID(v.cfg.IDField) == id {
			return r, true
		}
	}
	return nil, false
}

// Actions returns the action menu of a visible row.
func (v *View) Actions(id string) ([]Action, error) {
	row, ok := v.findVisible(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRow, id)
	}
	return v.router.Actions(row), nil
}

// Dispatch runs an action on a visible row.
func (v *View) Dispatch(ctx context.Context, id string, key ActionKey, input map[string]any) error {
	row, ok := v.findVisible(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRow, id)
	}
	return v.router.Dispatch(ctx, row, key, input)
}
