package table

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// ValueOption is one distinct value of a column with the number of rows
// carrying it.
type ValueOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ValueSort orders value options.
// By: "count" or "label" (default: "count")
// Order: "asc" or "desc" (default: "desc" for count, "asc" for label)
// IgnoreCase: case-insensitive comparison for label sorting
type ValueSort struct {
	By         string
	Order      string
	IgnoreCase bool
}

// ValueOptions lists the distinct values of a column over the rows that pass
// the search and every filter except the column's own, so a filter dropdown
// keeps offering its alternatives. query narrows options by label.
func (v *View) ValueOptions(field, query string, vs ValueSort) ([]ValueOption, error) {
	col, ok := v.column(field)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, field)
	}

	m := newMatcher()
	counts := make(map[string]*ValueOption)
	for _, row := range v.rows {
		if !m.matchesSearch(row, v.cfg.Columns, v.state.Search) || !m.matchesFilters(row, v.state.Filters, field) {
			continue
		}
		value := row.Value(field)
		if IsEmpty(value) {
			continue
		}
		key := Stringify(value)
		if opt, ok := counts[key]; ok {
			opt.Count++
			continue
		}
		counts[key] = &ValueOption{Value: key, Label: RenderCell(col, row, v.cfg.Formatters).Text, Count: 1}
	}

	needle := m.fold.String(strings.TrimSpace(query))
	values := make([]ValueOption, 0, len(counts))
	for _, opt := range counts {
		if needle != "" && !strings.Contains(m.fold.String(opt.Label), needle) {
			continue
		}
		values = append(values, *opt)
	}
	return sortValues(values, vs), nil
}

func compareLabels(a, b string, fold *cases.Caser) int {
	if fold != nil {
		a = fold.String(a)
		b = fold.String(b)
	}
	return strings.Compare(a, b)
}

// sortValues sorts the values by count or label; ties fall back to the other key.
func sortValues(values []ValueOption, vs ValueSort) []ValueOption {
	sortBy := strings.ToLower(vs.By)
	if sortBy != "label" {
		sortBy = "count"
	}
	sortOrder := strings.ToLower(vs.Order)
	if sortOrder != "asc" && sortOrder != "desc" {
		if sortBy == "count" {
			sortOrder = "desc"
		} else {
			sortOrder = "asc"
		}
	}

	var fold *cases.Caser
	if vs.IgnoreCase {
		f := cases.Fold()
		fold = &f
	}

	sort.SliceStable(values, func(i, j int) bool {
		a, b := values[i], values[j]
		if sortBy == "count" {
			if a.Count != b.Count {
				if sortOrder == "asc" {
					return a.Count < b.Count
				}
				return a.Count > b.Count
			}
			if c := compareLabels(a.Label, b.Label, fold); c != 0 {
				return c < 0
			}
			return a.Value < b.Value
		}

		c := compareLabels(a.Label, b.Label, fold)
		if c == 0 {
			if a.Count != b.Count {
				return a.Count > b.Count
			}
			return a.Value < b.Value
		}
		if sortOrder == "asc" {
			return c < 0
		}
		return c > 0
	})
	return values
}
