package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/crm"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/database"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/export"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/source"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/table"
)

// memoryStore is an in-memory source.Store applying the few operations the
// handlers exercise.
type memoryStore struct {
	mu   sync.Mutex
	rows map[string][]table.Row
	ops  []source.Operation
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: map[string][]table.Row{
		crm.EntityAccount: {
			{"AccountID": 1.0, "AccountName": "Acme", "Industry": "Manufacturing", "AnnualRevenue": 1234.5, "Active": true},
			{"AccountID": 2.0, "AccountName": "Globex", "Industry": "Energy", "AnnualRevenue": 250000.0, "Active": false, "assignedUserId": "7"},
			{"AccountID": 3.0, "AccountName": "Initech", "Industry": "Software", "AnnualRevenue": 900.0, "Active": true},
		},
	}}
}

func (m *memoryStore) List(_ context.Context, entity crm.Entity) ([]table.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]table.Row, len(m.rows[entity.Type]))
	for i, r := range m.rows[entity.Type] {
		cp := table.Row{}
		for k, v := range r {
			cp[k] = v
		}
		out[i] = cp
	}
	return out, nil
}

func (m *memoryStore) Create(_ context.Context, entity crm.Entity, payload map[string]any) (table.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row := table.Row{entity.IDField: float64(len(m.rows[entity.Type]) + 1)}
	for k, v := range payload {
		row[k] = v
	}
	m.rows[entity.Type] = append(m.rows[entity.Type], row)
	return row, nil
}

func (m *memoryStore) find(entity crm.Entity, id string) table.Row {
	for _, r := range m.rows[entity.Type] {
		if r.ID(entity.IDField) == id {
			return r
		}
	}
	return nil
}

func (m *memoryStore) Update(_ context.Context, entity crm.Entity, id string, payload map[string]any) (table.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row := m.find(entity, id)
	if row == nil {
		return nil, source.ErrNotFound
	}
	for k, v := range payload {
		row[k] = v
	}
	return row, nil
}

func (m *memoryStore) Perform(_ context.Context, entity crm.Entity, op source.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ops = append(m.ops, op)
	row := m.find(entity, op.ID)
	if row == nil {
		return source.ErrNotFound
	}
	switch op.Action {
	case table.ActionClaimAccount, table.ActionAssignUser:
		row[table.FieldAssignedUserID] = op.Input[source.InputUserID]
	case table.ActionDeactivate:
		row[table.FieldActive] = false
	case table.ActionAddNote:
		return source.ErrUnsupported
	}
	return nil
}

func (m *memoryStore) operations() []source.Operation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]source.Operation(nil), m.ops...)
}

func newTestServer(t *testing.T) (*Server, *memoryStore, http.Handler) {
	t.Helper()
	db, err := database.OpenDSN(database.SQLite, filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema())

	store := newMemoryStore()
	srv := NewServer(store, db, time.Hour)
	return srv, store, srv.Router()
}

const salesRep = `{"UserID": 5, "roles": ["Sales Representative"]}`

func do(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func asUser(raw string) map[string]string { return map[string]string{HeaderUser: raw} }

type pageBody struct {
	SessionID string `json:"session_id"`
	Page      struct {
		Rows []struct {
			ID       string         `json:"id"`
			Selected bool           `json:"selected"`
			Actions  []table.Action `json:"actions"`
		} `json:"rows"`
		Total      int             `json:"total"`
		Visible    int             `json:"visible"`
		Offset     int             `json:"offset"`
		Visibility map[string]bool `json:"visibility"`
		Search     string          `json:"search"`
		Selected   []string        `json:"selected"`
		Header     string          `json:"header"`
	} `json:"page"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func rowIDs(p pageBody) []string {
	ids := make([]string, len(p.Page.Rows))
	for i, r := range p.Page.Rows {
		ids[i] = r.ID
	}
	return ids
}

func actionKeys(actions []table.Action) []table.ActionKey {
	keys := make([]table.ActionKey, len(actions))
	for i, a := range actions {
		keys[i] = a.Key
	}
	return keys
}

func openSession(t *testing.T, h http.Handler, user string) pageBody {
	t.Helper()
	rec := do(t, h, "POST", "/api/sessions", CreateSessionRequest{Entity: crm.EntityAccount}, asUser(user))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[pageBody](t, rec)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	_, _, h := newTestServer(t)
	rec := do(t, h, "GET", "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestEntityRows(t *testing.T) {
	t.Parallel()

	_, store, h := newTestServer(t)

	rec := do(t, h, "GET", "/api/entities", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), decode[map[string]any](t, rec)["count"])

	rec = do(t, h, "GET", "/api/entities/account/rows", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[RowListResponse](t, rec).Count)

	rec = do(t, h, "GET", "/api/entities/invoice/rows", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, "POST", "/api/entities/account/rows", map[string]any{"AccountName": "Hooli", "Email": "nope"}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Contains(t, body.Fields, "Email")

	rec = do(t, h, "POST", "/api/entities/account/rows", map[string]any{"AccountName": "Hooli", "Email": "hi@hooli.test"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, "PUT", "/api/entities/account/rows/4", map[string]any{"City": "Cape Town"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Cape Town", decode[map[string]any](t, rec)["City"])

	rec = do(t, h, "PUT", "/api/entities/account/rows/99", map[string]any{"City": "Durban"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rows, _ := store.List(context.Background(), mustEntity(t, crm.EntityAccount))
	assert.Len(t, rows, 4)
}

func mustEntity(t *testing.T, entityType string) crm.Entity {
	t.Helper()
	e, err := crm.Lookup(entityType)
	require.NoError(t, err)
	return e
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	_, _, h := newTestServer(t)
	opened := openSession(t, h, salesRep)
	sid := opened.SessionID
	require.NotEmpty(t, sid)
	assert.Equal(t, 3, opened.Page.Visible)
	base := "/api/sessions/" + sid

	rec := do(t, h, "PUT", base+"/search", map[string]string{"search": "glob"}, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"2"}, rowIDs(decode[pageBody](t, rec)))

	rec = do(t, h, "PUT", base+"/search", map[string]string{"search": ""}, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, "PUT", base+"/sort", table.SortSpec{Field: "AnnualRevenue", Reverse: true}, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"2", "1", "3"}, rowIDs(decode[pageBody](t, rec)))

	rec = do(t, h, "PUT", base+"/sort", table.SortSpec{Field: "Nope"}, asUser(salesRep))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, "PUT", base+"/filters/AnnualRevenue", map[string]any{"type": "min", "value": "1000"}, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"2", "1"}, rowIDs(decode[pageBody](t, rec)))

	rec = do(t, h, "PUT", base+"/filters/AnnualRevenue", map[string]any{"type": "min", "value": "lots"}, asUser(salesRep))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, "PUT", base+"/filters/Active", true, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"1"}, rowIDs(decode[pageBody](t, rec)))

	rec = do(t, h, "DELETE", base+"/filters/AnnualRevenue", nil, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"1", "3"}, rowIDs(decode[pageBody](t, rec)))

	rec = do(t, h, "DELETE", base+"/filters", nil, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[pageBody](t, rec).Page.Visible)

	rec = do(t, h, "GET", base+"?limit=1&offset=1", nil, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"1"}, rowIDs(decode[pageBody](t, rec)))

	rec = do(t, h, "GET", base+"?limit=x", nil, asUser(salesRep))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, "GET", base, nil, asUser(`{"UserID": 6}`))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, "DELETE", base, nil, asUser(salesRep))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, "GET", base, nil, asUser(salesRep))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearingFiltersResetsOffset(t *testing.T) {
	t.Parallel()

	_, _, h := newTestServer(t)
	base := "/api/sessions/" + openSession(t, h, salesRep).SessionID

	rec := do(t, h, "PUT", base+"/filters/AccountName", "e", asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, "GET", base+"?limit=1&offset=2", nil, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[pageBody](t, rec).Page.Offset)

	rec = do(t, h, "DELETE", base+"/filters/AccountName", nil, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[pageBody](t, rec)
	assert.Equal(t, 0, page.Page.Offset)
	assert.Equal(t, []string{"1"}, rowIDs(page))

	rec = do(t, h, "GET", base+"?offset=2", nil, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[pageBody](t, rec).Page.Offset)

	rec = do(t, h, "DELETE", base+"/filters", nil, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[pageBody](t, rec)
	assert.Equal(t, 0, page.Page.Offset)
	assert.Equal(t, []string{"1"}, rowIDs(page))
}

func TestSelection(t *testing.T) {
	t.Parallel()

	_, _, h := newTestServer(t)
	base := "/api/sessions/" + openSession(t, h, salesRep).SessionID

	rec := do(t, h, "POST", base+"/selection/toggle/3", nil, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[pageBody](t, rec)
	assert.Equal(t, []string{"3"}, page.Page.Selected)
	assert.Equal(t, string(table.HeaderIndeterminate), page.Page.Header)

	rec = do(t, h, "POST", base+"/selection/all", map[string]bool{"checked": true}, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[pageBody](t, rec).Page.Selected, 3)

	rec = do(t, h, "POST", base+"/selection/toggle/42", nil, asUser(salesRep))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDispatchClaimRefetchesRows(t *testing.T) {
	t.Parallel()

	_, store, h := newTestServer(t)
	base := "/api/sessions/" + openSession(t, h, salesRep).SessionID

	rec := do(t, h, "GET", base+"/rows/1/actions", nil, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	keys := actionKeys(decode[ActionsResponse](t, rec).Actions)
	assert.Equal(t, []table.ActionKey{
		table.ActionView, table.ActionEdit, table.ActionAddNote, table.ActionClaimAccount, table.ActionDeactivate,
	}, keys)

	rec = do(t, h, "POST", base+"/rows/1/actions/claim_account",
		map[string]any{"input": map[string]any{"userId": "99"}}, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ops := store.operations()
	require.Len(t, ops, 1)
	assert.Equal(t, table.ActionClaimAccount, ops[0].Action)
	assert.Equal(t, "1", ops[0].ID)
	assert.Equal(t, "5", ops[0].Input[source.InputUserID])

	page := decode[pageBody](t, rec)
	require.Equal(t, "1", page.Page.Rows[0].ID)
	assert.Contains(t, actionKeys(page.Page.Rows[0].Actions), table.ActionUnclaimAccount)

	rec = do(t, h, "POST", base+"/rows/2/actions/delete_permanently", nil, asUser(salesRep))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, "POST", base+"/rows/2/actions/edit", nil, asUser(salesRep))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, "POST", base+"/rows/3/actions/add_note",
		map[string]any{"input": map[string]any{"content": "hi"}}, asUser(salesRep))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = do(t, h, "POST", base+"/rows/3/actions/view", nil, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Initech", decode[RowResponse](t, rec).Row["AccountName"])
}

func TestEditActionValidatesAccountInput(t *testing.T) {
	t.Parallel()

	_, store, h := newTestServer(t)
	base := "/api/sessions/" + openSession(t, h, salesRep).SessionID

	rec := do(t, h, "POST", base+"/rows/1/actions/edit",
		map[string]any{"input": map[string]any{"Email": "not-an-email"}}, asUser(salesRep))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "Email")
	assert.Empty(t, store.operations())

	rec = do(t, h, "POST", base+"/rows/1/actions/edit",
		map[string]any{"input": map[string]any{"Email": "sales@acme.test"}}, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, store.operations(), 1)
}

func TestColumnsDraft(t *testing.T) {
	t.Parallel()

	_, _, h := newTestServer(t)
	base := "/api/sessions/" + openSession(t, h, salesRep).SessionID

	rec := do(t, h, "PATCH", base+"/columns/draft", map[string]bool{"Notes": false}, asUser(salesRep))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, "POST", base+"/columns/draft", nil, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[DraftResponse](t, rec).Draft["Notes"])

	rec = do(t, h, "PATCH", base+"/columns/draft", map[string]bool{"Notes": false, "Email": false}, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[DraftResponse](t, rec).Draft["Email"])

	rec = do(t, h, "PATCH", base+"/columns/draft", map[string]bool{"Bogus": false}, asUser(salesRep))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, "GET", base, nil, asUser(salesRep))
	assert.True(t, decode[pageBody](t, rec).Page.Visibility["Notes"])

	rec = do(t, h, "POST", base+"/columns/draft/save", nil, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	vis := decode[pageBody](t, rec).Page.Visibility
	assert.False(t, vis["Notes"])
	assert.False(t, vis["Email"])

	rec = do(t, h, "DELETE", base+"/columns/draft", nil, asUser(salesRep))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestValueOptions(t *testing.T) {
	t.Parallel()

	_, _, h := newTestServer(t)
	base := "/api/sessions/" + openSession(t, h, salesRep).SessionID

	rec := do(t, h, "GET", base+"/columns/Industry/values?sort_by=label", nil, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	values := decode[ValueOptionsResponse](t, rec).Values
	require.Len(t, values, 3)
	assert.Equal(t, "Energy", values[0].Label)

	rec = do(t, h, "GET", base+"/columns/Industry/values?q=soft", nil, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[ValueOptionsResponse](t, rec).Values, 1)

	rec = do(t, h, "GET", base+"/columns/Nope/values", nil, asUser(salesRep))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExport(t *testing.T) {
	t.Parallel()

	_, _, h := newTestServer(t)
	base := "/api/sessions/" + openSession(t, h, salesRep).SessionID

	rec := do(t, h, "POST", base+"/selection/toggle/3", nil, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, "GET", base+"/export", nil, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "accounts-")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Accounts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, []string{"3", "Initech"}, rows[1][:2])
}

func TestSaveAndApplyView(t *testing.T) {
	t.Parallel()

	_, _, h := newTestServer(t)
	base := "/api/sessions/" + openSession(t, h, salesRep).SessionID

	rec := do(t, h, "PUT", base+"/filters/Industry", "soft", asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, "POST", base+"/views", map[string]any{"name": "Software"}, asUser(salesRep))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decode[map[string]any](t, rec)
	viewID := int(saved["id"].(float64))
	assert.Equal(t, "5", saved["owner_id"])

	rec = do(t, h, "POST", "/api/sessions", CreateSessionRequest{Entity: crm.EntityAccount, ViewID: &viewID}, asUser(salesRep))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	fresh := decode[pageBody](t, rec)
	assert.Equal(t, []string{"3"}, rowIDs(fresh))

	other := `{"UserID": 6}`
	rec = do(t, h, "POST", "/api/sessions", CreateSessionRequest{Entity: crm.EntityAccount, ViewID: &viewID}, asUser(other))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, "POST", "/api/sessions", CreateSessionRequest{Entity: crm.EntityDeal, ViewID: &viewID}, asUser(salesRep))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, "DELETE", base+"/filters", nil, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, "POST", base+"/views/"+strconv.Itoa(viewID)+"/apply", nil, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"3"}, rowIDs(decode[pageBody](t, rec)))

	rec = do(t, h, "GET", "/api/views?entity_type=account", nil, asUser(salesRep))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, rec)["count"])

	rec = do(t, h, "DELETE", "/api/views/"+strconv.Itoa(viewID), nil, asUser(other))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = do(t, h, "DELETE", "/api/views/"+strconv.Itoa(viewID), nil, asUser(salesRep))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, "GET", "/api/views/"+strconv.Itoa(viewID), nil, asUser(salesRep))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRolesResolveUserIDHeader(t *testing.T) {
	t.Parallel()

	_, _, h := newTestServer(t)
	byID := func(id string) map[string]string { return map[string]string{HeaderUserID: id} }

	rec := do(t, h, "POST", "/api/roles", map[string]any{"name": table.RoleCLevel, "user_ids": []string{"9"}}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, "POST", "/api/roles", map[string]any{"name": table.RoleSalesRep}, byID("5"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, "POST", "/api/roles", map[string]any{"name": table.RoleSalesRep, "user_ids": []string{"5"}}, byID("9"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, "POST", "/api/roles", map[string]any{"name": table.RoleSalesRep}, byID("9"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, "GET", "/api/roles", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decode[map[string]any](t, rec)["count"])

	rec = do(t, h, "POST", "/api/sessions", CreateSessionRequest{Entity: crm.EntityAccount}, byID("9"))
	require.Equal(t, http.StatusCreated, rec.Code)
	sid := decode[pageBody](t, rec).SessionID

	rec = do(t, h, "GET", "/api/sessions/"+sid+"/rows/3/actions", nil, byID("9"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, actionKeys(decode[ActionsResponse](t, rec).Actions), table.ActionAssignUser)

	rec = do(t, h, "GET", "/api/sessions/"+sid+"/rows/3/actions", nil, byID("5"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRoleManagementIgnoresClientSuppliedRoles(t *testing.T) {
	t.Parallel()

	_, _, h := newTestServer(t)
	rec := do(t, h, "POST", "/api/roles", map[string]any{"name": table.RoleCLevel, "user_ids": []string{"9"}}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	forged := asUser(`{"UserID": 5, "roles": ["C-level"]}`)
	rec = do(t, h, "POST", "/api/roles", map[string]any{"name": table.RoleSalesRep}, forged)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, "DELETE", "/api/roles/1", nil, asUser(`{"roles": ["C-level"]}`))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, "POST", "/api/roles", map[string]any{"name": table.RoleSalesRep}, asUser(`{"UserID": 9, "roles": []}`))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestSessionStoreExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	store := NewSessionStore(time.Minute)
	store.now = func() time.Time { return now }

	idle := &Session{OwnerID: "5"}
	busy := &Session{OwnerID: "5"}
	store.Add(idle)
	store.Add(busy)
	require.NotEqual(t, idle.ID, busy.ID)

	now = now.Add(45 * time.Second)
	sess, err := store.Acquire(busy.ID, "5")
	require.NoError(t, err)
	sess.release()

	_, err = store.Acquire(busy.ID, "6")
	require.ErrorIs(t, err, ErrSessionForbidden)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())

	_, err = store.Acquire(idle.ID, "5")
	require.ErrorIs(t, err, ErrSessionNotFound)

	now = now.Add(2 * time.Minute)
	_, err = store.Acquire(busy.ID, "5")
	require.ErrorIs(t, err, ErrSessionNotFound)
	assert.Zero(t, store.Len())
}
