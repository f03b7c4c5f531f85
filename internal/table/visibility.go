package table

// Visibility maps column field to whether the column is shown.
type Visibility map[string]bool

// AllVisible returns a map with every column shown.
func AllVisible(columns []ColumnSpec) Visibility {
	v := make(Visibility, len(columns))
	for _, c := range columns {
		v[c.Field] = true
	}
	return v
}

// Clone returns an independent copy.
func (v Visibility) Clone() Visibility {
	out := make(Visibility, len(v))
	for k, b := range v {
		out[k] = b
	}
	return out
}

// Shown reports whether field is visible. Fields missing from the map are shown.
func (v Visibility) Shown(field string) bool {
	b, ok := v[field]
	return !ok || b
}

// VisibilityStore holds the live visibility map. It only changes through a
// saved ColumnsDraft, which swaps the whole map at once.
type VisibilityStore struct {
	columns []ColumnSpec
	live    Visibility
}

// NewVisibilityStore starts with every column visible.
func NewVisibilityStore(columns []ColumnSpec) *VisibilityStore {
	return &VisibilityStore{columns: columns, live: AllVisible(columns)}
}

// Snapshot returns a copy of the live map.
func (s *VisibilityStore) Snapshot() Visibility {
	return s.live.Clone()
}

// Shown reports whether field is currently visible.
func (s *VisibilityStore) Shown(field string) bool {
	return s.live.Shown(field)
}

// OpenDraft copies the live map into a draft.
func (s *VisibilityStore) OpenDraft() *ColumnsDraft {
	return &ColumnsDraft{store: s, draft: s.live.Clone()}
}

// ColumnsDraft is an edit session over a copy of the visibility map. Edits
// never reach the live map until Save.
type ColumnsDraft struct {
	store  *VisibilityStore
	draft  Visibility
	closed bool
}

// Draft returns a copy of the draft map.
func (d *ColumnsDraft) Draft() Visibility {
	return d.draft.Clone()
}

// Toggle flips a column in the draft.
func (d *ColumnsDraft) Toggle(field string) error {
	return d.Set(field, !d.draft.Shown(field))
}

// Set shows or hides a column in the draft.
func (d *ColumnsDraft) Set(field string, shown bool) error {
	if d.closed {
		return ErrDraftClosed
	}
	if !d.store.known(field) {
		return ErrUnknownColumn
	}
	d.draft[field] = shown
	return nil
}

// Save replaces the live map with the draft and closes the draft.
func (d *ColumnsDraft) Save() error {
	if d.closed {
		return ErrDraftClosed
	}
	d.store.live = d.draft.Clone()
	d.closed = true
	return nil
}

// Cancel discards the draft.
func (d *ColumnsDraft) Cancel() {
	d.closed = true
}

// Closed reports whether Save or Cancel was called.
func (d *ColumnsDraft) Closed() bool { return d.closed }

func (s *VisibilityStore) known(field string) bool {
	for _, c := range s.columns {
		if c.Field == field {
			return true
		}
	}
	return false
}
