package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// Op is a filter operator.
type Op string

const (
	OpContains Op = "contains"
	OpEquals   Op = "equals"
	OpMin      Op = "min"
	OpMax      Op = "max"
	OpRange    Op = "range"
)

// Constraint is the active filter rule of one column. On the wire it is either
// a bare string (contains), a bare boolean (strict equality) or an object
// {"type": op, "value": v, "min": a, "max": b}.
type Constraint struct {
	Op    Op  `json:"type"`
	Value any `json:"value,omitempty"`
	Min   any `json:"min,omitempty"`
	Max   any `json:"max,omitempty"`
}

func Contains(s string) Constraint    { return Constraint{Op: OpContains, Value: s} }
func Equals(v any) Constraint         { return Constraint{Op: OpEquals, Value: v} }
func AtLeast(v any) Constraint        { return Constraint{Op: OpMin, Value: v} }
func AtMost(v any) Constraint         { return Constraint{Op: OpMax, Value: v} }
func Between(min, max any) Constraint { return Constraint{Op: OpRange, Min: min, Max: max} }

// UnmarshalJSON accepts the bare and structured forms.
func (c *Constraint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Constraint{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Contains(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*c = Equals(b)
		return nil
	case '{':
		type plain Constraint
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		if p.Op == "" {
			p.Op = OpContains
		}
		*c = Constraint(p)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: unsupported constraint %s", ErrInvalidFilter, data)
		}
		*c = Equals(n.String())
		return nil
	}
}

func unset(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// IsSet reports whether the constraint carries a usable value. Unset
// constraints are skipped by Filter.
func (c Constraint) IsSet() bool {
	if c.Op == OpRange {
		return !unset(c.Min) || !unset(c.Max)
	}
	return !unset(c.Value)
}

var rangeVocabulary = regexp.MustCompile(`(?i)(amount|value|price|revenue|total|cost|budget|salary|percent|percentage|probability|discount|rate)`)

// IsRangeField reports whether a field holds amounts or percentages and so
// accepts min/max/range constraints.
func IsRangeField(field string) bool {
	return rangeVocabulary.MatchString(field)
}

// Validate checks a constraint before it is installed on field.
func (c Constraint) Validate(field string) error {
	switch c.Op {
	case OpContains, OpEquals:
		return nil
	case OpMin, OpMax, OpRange:
	default:
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, c.Op)
	}
	if !IsRangeField(field) {
		return fmt.Errorf("%w: %s does not accept %s", ErrInvalidFilter, field, c.Op)
	}
	bounds := []any{c.Value}
	if c.Op == OpRange {
		bounds = []any{c.Min, c.Max}
	}
	for _, b := range bounds {
		if unset(b) {
			continue
		}
		if _, ok := bound(b); !ok {
			return fmt.Errorf("%w: %v is not a number", ErrInvalidFilter, b)
		}
	}
	return nil
}

func bound(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		return parseNumber(s)
	}
	return ExtractNumber(v)
}

// FilterState is the search term plus the per-column constraints.
type FilterState struct {
	Search  string                `json:"search"`
	Filters map[string]Constraint `json:"filters"`
}

// Filter returns the rows that match the search term across columns and every
// set constraint. Input order is preserved; rows is not modified.
func Filter(rows []Row, columns []ColumnSpec, state FilterState) []Row {
	m := newMatcher()
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if m.matchesSearch(row, columns, state.Search) && m.matchesFilters(row, state.Filters, "") {
			out = append(out, row)
		}
	}
	return out
}

type matcher struct {
	fold cases.Caser
}

// cases.Caser is stateful, so every Filter pass gets its own.
func newMatcher() *matcher {
	return &matcher{fold: cases.Fold()}
}

func (m *matcher) folded(v any) string {
	return m.fold.String(Stringify(v))
}

func (m *matcher) matchesSearch(row Row, columns []ColumnSpec, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	needle := m.fold.String(term)
	for _, col := range columns {
		if strings.Contains(m.folded(row.Value(col.Field)), needle) {
			return true
		}
	}
	return false
}

// matchesFilters ANDs every set constraint, skipping the one on except.
func (m *matcher) matchesFilters(row Row, filters map[string]Constraint, except string) bool {
	for field, c := range filters {
		if field == except || !c.IsSet() {
			continue
		}
		if !m.matches(row.Value(field), c) {
			return false
		}
	}
	return true
}

func (m *matcher) matches(value any, c Constraint) bool {
	if want, ok := c.Value.(bool); ok && (c.Op == OpEquals || c.Op == OpContains) {
		got, isBool := value.(bool)
		return isBool && got == want
	}

	switch c.Op {
	case OpContains:
		return strings.Contains(m.folded(value), m.folded(c.Value))
	case OpEquals:
		return m.folded(value) == m.folded(c.Value)
	case OpMin, OpMax, OpRange:
		return matchesRange(value, c)
	default:
		return false
	}
}

// matchesRange compares numerically. An unparseable bound or field value
// never matches.
func matchesRange(value any, c Constraint) bool {
	n, ok := ExtractNumber(value)
	if !ok {
		return false
	}
	switch c.Op {
	case OpMin:
		b, ok := bound(c.Value)
		return ok && n >= b
	case OpMax:
		b, ok := bound(c.Value)
		return ok && n <= b
	}
	if !unset(c.Min) {
		b, ok := bound(c.Min)
		if !ok || n < b {
			return false
		}
	}
	if !unset(c.Max) {
		b, ok := bound(c.Max)
		if !ok || n > b {
			return false
		}
	}
	return true
}
