// Package table implements a generic entity list: free-text search, column
// filters, sorting, column visibility with draft editing, row selection,
// role-gated row actions and per-column cell rendering.
//
// Nothing in this package performs I/O. A View is plain in-memory state and is
// not safe for concurrent use; callers serialize access to it.
package table

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Row is one entity record keyed by field name. Its shape is given by the
// ColumnSpecs it is displayed with.
type Row map[string]any

// Value returns the raw value stored under field, or nil.
func (r Row) Value(field string) any {
	if r == nil {
		return nil
	}
	return r[field]
}

// Has reports whether the row carries field at all, even with a nil value.
func (r Row) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// ID returns the row identifier stored under idField as a string.
func (r Row) ID(idField string) string {
	return Stringify(r.Value(idField))
}

// Stringify renders a field value the way it is searched and compared.
// nil becomes the empty string.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case json.Number:
		return t.String()
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// IsEmpty reports whether a value counts as "not there" for rendering and
// filtering: nil or a blank string.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []byte:
		return len(t) == 0
	}
	return false
}

// Truthy interprets a field value as a boolean flag.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
		return strings.TrimSpace(t) != ""
	case []byte:
		// a single raw bit, as MySQL returns BIT(1)
		if len(t) == 1 && t[0] <= 1 {
			return t[0] == 1
		}
		return Truthy(string(t))
	}
	if n, ok := toFloat(v); ok {
		return n != 0
	}
	return true
}

var nonNumeric = regexp.MustCompile(`[^0-9.\-]+`)

// ExtractNumber pulls a number out of a field value, stripping currency
// symbols, thousands separators and percent signs ("$1,234.56" -> 1234.56).
func ExtractNumber(v any) (float64, bool) {
	if n, ok := toFloat(v); ok {
		return n, true
	}
	s, ok := v.(string)
	if !ok {
		if b, isBytes := v.([]byte); isBytes {
			s = string(b)
		} else {
			return 0, false
		}
	}
	return parseNumber(s)
}

func parseNumber(s string) (float64, bool) {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t)
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		n, err := t.Float64()
		return n, err == nil
	}
	return 0, false
}
