package table

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// SortSpec orders the visible rows by one column. A zero SortSpec keeps the
// source order.
type SortSpec struct {
	Field   string `json:"field"`
	Reverse bool   `json:"reverse"`
}

// Sort returns a sorted copy of rows. Range fields compare numerically when
// both values parse, and values that do parse come before those that don't.
// Everything else compares case-folded text. Empty values always sort last.
func Sort(rows []Row, spec SortSpec) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	if spec.Field == "" {
		return out
	}

	fold := cases.Fold()
	numeric := IsRangeField(spec.Field)
	keys := make([]sortKey, len(out))
	for i, row := range out {
		v := row.Value(spec.Field)
		k := sortKey{empty: IsEmpty(v), text: fold.String(Stringify(v))}
		if numeric {
			k.num, k.isNum = ExtractNumber(v)
		}
		keys[i] = k
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka.empty != kb.empty {
			return kb.empty
		}
		if numeric && ka.isNum != kb.isNum {
			return ka.isNum
		}
		c := compareKeys(ka, kb)
		if spec.Reverse {
			return c > 0
		}
		return c < 0
	})

	sorted := make([]Row, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

type sortKey struct {
	empty bool
	isNum bool
	num   float64
	text  string
}

func compareKeys(a, b sortKey) int {
	if a.isNum && b.isNum {
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	}
	return strings.Compare(a.text, b.text)
}
