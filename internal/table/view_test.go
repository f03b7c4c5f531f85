package table

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountView(t *testing.T, cb Callbacks) *View {
	t.Helper()
	v, err := New(Config{
		EntityType: "account",
		IDField:    "AccountID",
		Columns:    accountColumns,
		Callbacks:  cb,
		Auth:       StaticAuth{Roles: NewRoleSet(RoleSalesRep)},
	})
	require.NoError(t, err)
	v.SetRows(accountRows())
	return v
}

func TestNewRejectsBadConfig(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Columns: accountColumns})
	require.Error(t, err)
	_, err = New(Config{IDField: "ID"})
	require.Error(t, err)
	_, err = New(Config{IDField: "ID", Columns: []ColumnSpec{{Field: "A"}, {Field: "A"}}})
	require.Error(t, err)
}

func TestViewRender(t *testing.T) {
	t.Parallel()

	v := newAccountView(t, Callbacks{})
	require.NoError(t, v.ReplaceVisibility(Visibility{"AccountID": false}))
	require.NoError(t, v.SetSort(SortSpec{Field: "AnnualRevenue", Reverse: true}))

	page := v.Render(PageRequest{Limit: 2})

	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 4, page.Visible)
	assert.Len(t, page.Columns, len(accountColumns)-1)
	assert.Len(t, page.AllColumns, len(accountColumns))
	require.Len(t, page.Rows, 2)
	// Globex 250000, Acme 1234.56, Initech 900, then Umbrella with no number
	assert.Equal(t, "2", page.Rows[0].ID)
	assert.Equal(t, "1", page.Rows[1].ID)
	assert.Equal(t, "Globex", page.Rows[0].Cells[0].Text)
	assert.Equal(t, HeaderUnchecked, page.Header)

	next := v.Render(PageRequest{Limit: 2, Offset: 2})
	require.Len(t, next.Rows, 2)
	assert.Equal(t, "3", next.Rows[0].ID)
	assert.Equal(t, "4", next.Rows[1].ID)

	v.SetSearch("globex")
	assert.Equal(t, 1, v.Render(PageRequest{}).Visible)

	assert.Empty(t, v.Render(PageRequest{Offset: 10}).Rows)
}

func TestViewSetFilterValidation(t *testing.T) {
	t.Parallel()

	v := newAccountView(t, Callbacks{})
	require.ErrorIs(t, v.SetFilter("Nope", Contains("x")), ErrUnknownColumn)
	require.ErrorIs(t, v.SetFilter("AnnualRevenue", AtLeast("abc")), ErrInvalidFilter)
	require.NoError(t, v.SetFilter("AnnualRevenue", AtLeast("1000")))
	assert.Equal(t, []string{"1", "2"}, ids(v.VisibleRows()))

	// an unset constraint clears the column
	require.NoError(t, v.SetFilter("AnnualRevenue", Contains("")))
	assert.Empty(t, v.Filters())

	err := v.SetFilters(map[string]Constraint{"AccountName": Contains("a"), "AnnualRevenue": AtMost("oops")})
	require.ErrorIs(t, err, ErrInvalidFilter)
	assert.Empty(t, v.Filters())
	require.ErrorIs(t, v.SetSort(SortSpec{Field: "Nope"}), ErrUnknownColumn)
}

func TestSortTextAndStable(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{"AccountID": 1.0, "AccountName": "beta"},
		{"AccountID": 2.0, "AccountName": ""},
		{"AccountID": 3.0, "AccountName": "Alpha"},
		{"AccountID": 4.0, "AccountName": "beta"},
	}
	assert.Equal(t, []string{"3", "1", "4", "2"}, ids(Sort(rows, SortSpec{Field: "AccountName"})))
	assert.Equal(t, []string{"1", "4", "3", "2"}, ids(Sort(rows, SortSpec{Field: "AccountName", Reverse: true})))
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(Sort(rows, SortSpec{})))
}

func TestValueOptions(t *testing.T) {
	t.Parallel()

	v := newAccountView(t, Callbacks{})
	v.SetRows(append(accountRows(), Row{"AccountID": 5.0, "AccountName": "Hooli", "Industry": "Software", "Active": true}))
	require.NoError(t, v.SetFilter("Industry", Equals("Software")))
	require.NoError(t, v.SetFilter("Active", Equals(true)))

	opts, err := v.ValueOptions("Industry", "", ValueSort{})
	require.NoError(t, err)
	// the Industry filter itself is ignored, Active still applies
	assert.Equal(t, []ValueOption{
		{Value: "Software", Label: "Software", Count: 2},
		{Value: "Manufacturing", Label: "Manufacturing", Count: 1},
	}, opts)

	opts, err = v.ValueOptions("Industry", "MANU", ValueSort{})
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, "Manufacturing", opts[0].Value)

	opts, err = v.ValueOptions("Industry", "", ValueSort{By: "label"})
	require.NoError(t, err)
	assert.Equal(t, "Manufacturing", opts[0].Value)

	_, err = v.ValueOptions("Nope", "", ValueSort{})
	require.ErrorIs(t, err, ErrUnknownColumn)
}

func TestViewDispatchAndExport(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	v := newAccountView(t, rec.callbacks())

	actions, err := v.Actions("2")
	require.NoError(t, err)
	assert.Contains(t, keys(actions), ActionReactivate)

	require.NoError(t, v.Dispatch(context.Background(), "2", ActionReactivate, nil))
	assert.Equal(t, "2", rec.last.ID)

	_, err = v.Actions("99")
	require.ErrorIs(t, err, ErrUnknownRow)

	headers, rows := v.ExportTable()
	assert.Equal(t, []string{"ID", "Name", "Industry", "Revenue", "Active"}, headers)
	assert.Len(t, rows, 4)
	assert.Equal(t, []string{"4", "Umbrella", "-", "n/a", "Yes"}, rows[3])

	require.NoError(t, v.ToggleRow("3"))
	_, rows = v.ExportTable()
	assert.Equal(t, [][]string{{"3", "Initech", "Software", "900", "Yes"}}, rows)
}
