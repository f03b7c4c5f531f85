package views

import (
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/table"
)

// Capture snapshots the configuration of a table view into a saved view.
func Capture(tv *table.View, name string) View {
	search := tv.Search()
	sort := tv.Sort()
	return View{
		Name:             name,
		EntityType:       tv.EntityType(),
		ColumnVisibility: tv.Visibility(),
		Filters:          tv.Filters(),
		Search:           &search,
		SortField:        &sort.Field,
		SortReverse:      &sort.Reverse,
	}
}

// Apply installs a saved view on a table view. Columns the entity no longer
// has are skipped. The table view is left untouched when a filter is invalid.
func Apply(v View, tv *table.View) error {
	known := make(map[string]bool)
	for _, c := range tv.Columns() {
		known[c.Field] = true
	}

	filters := make(map[string]table.Constraint, len(v.Filters))
	for field, c := range v.Filters {
		if known[field] {
			filters[field] = c
		}
	}
	if err := tv.SetFilters(filters); err != nil {
		return err
	}

	search := ""
	if v.Search != nil {
		search = *v.Search
	}
	tv.SetSearch(search)

	spec := table.SortSpec{}
	if v.SortField != nil && known[*v.SortField] {
		spec.Field = *v.SortField
		spec.Reverse = v.SortReverse != nil && *v.SortReverse
	}
	if err := tv.SetSort(spec); err != nil {
		return err
	}

	return tv.ReplaceVisibility(v.ColumnVisibility)
}
