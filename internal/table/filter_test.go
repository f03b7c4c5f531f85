package table

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountColumns = []ColumnSpec{
	{Field: "AccountID", HeaderName: "ID"},
	{Field: "AccountName", HeaderName: "Name"},
	{Field: "Industry", Kind: Chip{}},
	{Field: "AnnualRevenue", HeaderName: "Revenue"},
	{Field: "Active", Kind: Boolean{}},
}

func accountRows() []Row {
	return []Row{
		{"AccountID": 1.0, "AccountName": "Acme Corp", "Industry": "Manufacturing", "AnnualRevenue": "$1,234.56", "Active": true},
		{"AccountID": 2.0, "AccountName": "Globex", "Industry": "Energy", "AnnualRevenue": "R 250,000", "Active": false},
		{"AccountID": 3.0, "AccountName": "Initech", "Industry": "Software", "AnnualRevenue": 900.0, "Active": true},
		{"AccountID": 4.0, "AccountName": "Umbrella", "Industry": nil, "AnnualRevenue": "n/a", "Active": true},
	}
}

func ids(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID("AccountID")
	}
	return out
}

func TestFilterSearchAcrossColumns(t *testing.T) {
	t.Parallel()

	got := Filter(accountRows(), accountColumns, FilterState{Search: "ENERGY"})
	assert.Equal(t, []string{"2"}, ids(got))

	got = Filter(accountRows(), accountColumns, FilterState{Search: "  "})
	assert.Len(t, got, 4)
}

func TestFilterIsIdempotent(t *testing.T) {
	t.Parallel()

	state := FilterState{Search: "o", Filters: map[string]Constraint{"Active": Equals(true)}}
	once := Filter(accountRows(), accountColumns, state)
	twice := Filter(once, accountColumns, state)
	assert.Equal(t, ids(once), ids(twice))
}

func TestFilterCombinesWithAnd(t *testing.T) {
	t.Parallel()

	rows := accountRows()
	state := FilterState{
		Search: "c",
		Filters: map[string]Constraint{
			"Active":        Equals(true),
			"AnnualRevenue": AtLeast("1000"),
		},
	}
	got := Filter(rows, accountColumns, state)

	m := newMatcher()
	for _, row := range rows {
		want := m.matchesSearch(row, accountColumns, state.Search) && m.matchesFilters(row, state.Filters, "")
		assert.Equal(t, want, containsID(got, row.ID("AccountID")), row.ID("AccountID"))
	}
	assert.Equal(t, []string{"1"}, ids(got))
}

func containsID(rows []Row, id string) bool {
	for _, r := range rows {
		if r.ID("AccountID") == id {
			return true
		}
	}
	return false
}

func TestRangeExtraction(t *testing.T) {
	t.Parallel()

	rows := []Row{{"AccountID": 1.0, "AnnualRevenue": "$1,234.56"}}

	got := Filter(rows, accountColumns, FilterState{Filters: map[string]Constraint{"AnnualRevenue": AtLeast("1000")}})
	assert.Len(t, got, 1)

	got = Filter(rows, accountColumns, FilterState{Filters: map[string]Constraint{"AnnualRevenue": AtMost("1000")}})
	assert.Empty(t, got)
}

func TestRangeBounds(t *testing.T) {
	t.Parallel()

	between := func(min, max any) []string {
		return ids(Filter(accountRows(), accountColumns, FilterState{
			Filters: map[string]Constraint{"AnnualRevenue": Between(min, max)},
		}))
	}

	assert.Equal(t, []string{"1", "3"}, between("900", "1234.56"))
	assert.Equal(t, []string{"2"}, between("100000", nil))
	assert.Equal(t, []string{"1", "3"}, between("", 5000.0))
	// non-numeric bounds match nothing
	assert.Empty(t, between("abc", nil))
}

func TestConstraintMatching(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		filter Constraint
		want   []string
	}{
		{"contains folds case", Contains("CORP"), []string{"1"}},
		{"equals is exact", Equals("globex"), []string{"2"}},
		{"equals does not match substrings", Equals("glob"), nil},
		{"empty value is skipped", Contains(""), []string{"1", "2", "3", "4"}},
		{"nil value is skipped", Equals(nil), []string{"1", "2", "3", "4"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(accountRows(), accountColumns, FilterState{
				Filters: map[string]Constraint{"AccountName": tc.filter},
			})
			if tc.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestBooleanFilterIsStrict(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{"AccountID": 1.0, "Active": true},
		{"AccountID": 2.0, "Active": "true"},
		{"AccountID": 3.0, "Active": false},
	}
	got := Filter(rows, accountColumns, FilterState{Filters: map[string]Constraint{"Active": Equals(true)}})
	assert.Equal(t, []string{"1"}, ids(got))

	got = Filter(rows, accountColumns, FilterState{Filters: map[string]Constraint{"Active": Equals(false)}})
	assert.Equal(t, []string{"3"}, ids(got))
}

func TestTruthyRawBit(t *testing.T) {
	t.Parallel()

	assert.False(t, Truthy([]byte{0x00}))
	assert.True(t, Truthy([]byte{0x01}))
	assert.False(t, Truthy([]byte("0")))
	assert.True(t, Truthy([]byte("1")))
	assert.True(t, Truthy([]byte("true")))
}

func TestConstraintJSON(t *testing.T) {
	t.Parallel()

	var filters map[string]Constraint
	err := json.Unmarshal([]byte(`{
		"AccountName": "acme",
		"Active": false,
		"AnnualRevenue": {"type": "range", "min": "100", "max": 2000},
		"Industry": {"value": "soft"}
	}`), &filters)
	require.NoError(t, err)

	assert.Equal(t, Contains("acme"), filters["AccountName"])
	assert.Equal(t, Equals(false), filters["Active"])
	assert.Equal(t, Between("100", 2000.0), filters["AnnualRevenue"])
	assert.Equal(t, Constraint{Op: OpContains, Value: "soft"}, filters["Industry"])
}

func TestConstraintValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, AtLeast("1000").Validate("AnnualRevenue"))
	require.NoError(t, Between("$10", "").Validate("Probability"))
	require.NoError(t, Contains("x").Validate("AccountName"))

	require.ErrorIs(t, AtLeast("lots").Validate("AnnualRevenue"), ErrInvalidFilter)
	require.ErrorIs(t, AtLeast("5").Validate("AccountName"), ErrInvalidFilter)
	require.ErrorIs(t, Constraint{Op: "like", Value: "x"}.Validate("AccountName"), ErrInvalidFilter)
}

func TestIsRangeField(t *testing.T) {
	t.Parallel()

	for _, f := range []string{"AnnualRevenue", "Value", "Probability", "DiscountPercentage", "TotalAmount"} {
		assert.True(t, IsRangeField(f), f)
	}
	for _, f := range []string{"AccountName", "Email", "CloseDate"} {
		assert.False(t, IsRangeField(f), f)
	}
}
