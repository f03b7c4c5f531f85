package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionToggle(t *testing.T) {
	t.Parallel()

	var s Selection
	for _, id := range []string{"a", "b", "c", "d"} {
		s.Toggle(id)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, s.IDs())

	// head, middle and tail removal
	s.Toggle("a")
	s.Toggle("c")
	s.Toggle("d")
	assert.Equal(t, []string{"b"}, s.IDs())
	assert.True(t, s.IsSelected("b"))
	assert.False(t, s.IsSelected("c"))

	s.Toggle("c")
	assert.Equal(t, []string{"b", "c"}, s.IDs())
	assert.True(t, s.IsSelected("c"))
}

func TestSelectionHeaderState(t *testing.T) {
	t.Parallel()

	visible := []string{"1", "2", "3"}
	var s Selection
	assert.Equal(t, HeaderUnchecked, s.Header(visible))

	s.Toggle("1")
	assert.Equal(t, HeaderIndeterminate, s.Header(visible))

	s.SelectAll(true, []string{"1", "2", "3"})
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, HeaderChecked, s.Header(visible))

	s.SelectAll(false, []string{"1", "2", "3"})
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, HeaderUnchecked, s.Header(visible))
}

func TestSelectAllFollowsVisibleRows(t *testing.T) {
	t.Parallel()

	v, err := New(Config{EntityType: "account", IDField: "AccountID", Columns: accountColumns})
	require.NoError(t, err)
	v.SetRows(accountRows())
	require.NoError(t, v.SetFilter("Active", Equals(true)))

	v.SelectAll(true)
	assert.Len(t, v.SelectedIDs(), len(v.VisibleRows()))
	assert.Equal(t, []string{"1", "3", "4"}, v.SelectedIDs())
	assert.Equal(t, HeaderChecked, v.HeaderState())

	require.NoError(t, v.ToggleRow("3"))
	assert.Equal(t, HeaderIndeterminate, v.HeaderState())

	v.SelectAll(false)
	assert.Empty(t, v.SelectedIDs())
	assert.Equal(t, HeaderUnchecked, v.HeaderState())

	// filtered-out rows cannot be toggled
	require.ErrorIs(t, v.ToggleRow("2"), ErrUnknownRow)
}

func TestHeaderIgnoresHiddenSelection(t *testing.T) {
	t.Parallel()

	v, err := New(Config{EntityType: "account", IDField: "AccountID", Columns: accountColumns})
	require.NoError(t, err)
	v.SetRows(accountRows())

	require.NoError(t, v.ToggleRow("1"))
	require.NoError(t, v.ToggleRow("2"))
	v.SetSearch("initech")
	assert.Equal(t, HeaderUnchecked, v.HeaderState())
	page := v.Render(PageRequest{})
	assert.Equal(t, HeaderUnchecked, page.Header)
	assert.False(t, page.Rows[0].Selected)
	assert.Equal(t, []string{"1", "2"}, page.Selected)

	v.SetSearch("")
	v.SelectAll(true)
	require.Len(t, v.SelectedIDs(), 4)
	v.SetSearch("acme")
	assert.Equal(t, HeaderChecked, v.HeaderState())

	v.SetSearch("")
	require.NoError(t, v.SetFilter("Active", Equals(true)))
	assert.Equal(t, HeaderChecked, v.Render(PageRequest{}).Header)
	require.NoError(t, v.ToggleRow("3"))
	assert.Equal(t, HeaderIndeterminate, v.HeaderState())
}
