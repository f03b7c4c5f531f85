package table

// PageRequest selects a window of the visible rows. Limit <= 0 means all.
type PageRequest struct {
	Limit  int
	Offset int
}

// RenderedRow is one row of a Page. Cells line up with Page.Columns.
type RenderedRow struct {
	ID       string   `json:"id"`
	Selected bool     `json:"selected"`
	Cells    []Cell   `json:"cells"`
	Actions  []Action `json:"actions"`
}

// Page is the fully derived table state handed to the client.
type Page struct {
	EntityType string                `json:"entityType"`
	IDField    string                `json:"idField"`
	Columns    []ColumnSpec          `json:"columns"`
	AllColumns []ColumnSpec          `json:"allColumns"`
	Visibility Visibility            `json:"visibility"`
	Rows       []RenderedRow         `json:"rows"`
	Total      int                   `json:"total"`
	Visible    int                   `json:"visible"`
	Offset     int                   `json:"offset"`
	Limit      int                   `json:"limit"`
	Search     string                `json:"search"`
	Filters    map[string]Constraint `json:"filters"`
	Sort       SortSpec              `json:"sort"`
	Selected   []string              `json:"selected"`
	Header     HeaderState           `json:"header"`
}

// Render derives a page. Header state and counts always cover the whole
// visible set, not just the window.
func (v *View) Render(req PageRequest) Page {
	visible := v.VisibleRows()
	columns := v.VisibleColumns()

	start, end := window(len(visible), req)
	rendered := make([]RenderedRow, 0, end-start)
	for _, row := range visible[start:end] {
		id := row.ID(v.cfg.IDField)
		cells := make([]Cell, len(columns))
		for i, col := range columns {
			cells[i] = RenderCell(col, row, v.cfg.Formatters)
		}
		rendered = append(rendered, RenderedRow{
			ID:       id,
			Selected: v.selection.IsSelected(id),
			Cells:    cells,
			Actions:  v.router.Actions(row),
		})
	}

	return Page{
		EntityType: v.cfg.EntityType,
		IDField:    v.cfg.IDField,
		Columns:    columns,
		AllColumns: v.cfg.Columns,
		Visibility: v.visibility.Snapshot(),
		Rows:       rendered,
		Total:      len(v.rows),
		Visible:    len(visible),
		Offset:     start,
		Limit:      req.Limit,
		Search:     v.state.Search,
		Filters:    v.Filters(),
		Sort:       v.sort,
		Selected:   v.selection.IDs(),
		Header:     v.selection.Header(v.visibleIDs(visible)),
	}
}

func window(n int, req PageRequest) (int, int) {
	start := req.Offset
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end := n
	if req.Limit > 0 && start+req.Limit < n {
		end = start + req.Limit
	}
	return start, end
}

// ExportTable returns the header names of the visible columns and the
// rendered texts of the visible rows, restricted to selected rows when the
// selection is not empty.
func (v *View) ExportTable() ([]string, [][]string) {
	columns := v.VisibleColumns()
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.Header()
	}

	onlySelected := v.selection.Len() > 0
	var rows [][]string
	for _, row := range v.VisibleRows() {
		if onlySelected && !v.selection.IsSelected(row.ID(v.cfg.IDField)) {
			continue
		}
		texts := make([]string, len(columns))
		for i, col := range columns {
			texts[i] = RenderCell(col, row, v.cfg.Formatters).Text
		}
		rows = append(rows, texts)
	}
	return headers, rows
}
