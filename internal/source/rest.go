package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/crm"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/logger"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/table"
)

// maxErrorBody caps how much of an upstream error body is kept.
const maxErrorBody = 2048

// HTTPDoer is satisfied by *http.Client and *LoggingClient.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type userKey struct{}

// WithUser attaches the acting user id to ctx. The REST store forwards it
// upstream as X-User-ID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

func userFrom(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

// RESTStore talks to the upstream CRM API.
type RESTStore struct {
	baseURL string
	client  HTTPDoer
}

// NewRESTStore returns a store rooted at baseURL.
func NewRESTStore(baseURL string, client HTTPDoer) *RESTStore {
	return &RESTStore{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// actionPaths maps row actions onto PATCH sub-resources.
var actionPaths = map[table.ActionKey]string{
	table.ActionDeactivate:     "deactivate",
	table.ActionReactivate:     "reactivate",
	table.ActionClaimAccount:   "claim",
	table.ActionUnclaimAccount: "unclaim",
	table.ActionAssignUser:     "assign",
	table.ActionUnassignUser:   "unassign",
}

func (s *RESTStore) path(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return s.baseURL + "/" + strings.Join(escaped, "/")
}

// List fetches every row of an entity. The upstream may answer with a bare
// array or with {"data": [...]}.
func (s *RESTStore) List(ctx context.Context, entity crm.Entity) ([]table.Row, error) {
	body, err := s.do(ctx, http.MethodGet, s.path(entity.Resource), nil)
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows(body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", entity.Resource, err)
	}
	logger.Log.Debugf("[Source] Fetched %d %s", len(rows), entity.Resource)
	return rows, nil
}

func decodeRows(body []byte) ([]table.Row, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []table.Row{}, nil
	}
	if trimmed[0] == '[' {
		var rows []table.Row
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, err
		}
		return rows, nil
	}
	var wrapped struct {
		Data []table.Row `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Data == nil {
		return []table.Row{}, nil
	}
	return wrapped.Data, nil
}

func decodeRow(body []byte) (table.Row, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return table.Row{}, nil
	}
	var row table.Row
	if err := json.Unmarshal(trimmed, &row); err != nil {
		return nil, err
	}
	if inner, ok := row["data"].(map[string]any); ok && len(row) == 1 {
		return table.Row(inner), nil
	}
	return row, nil
}

// Create posts a new row.
func (s *RESTStore) Create(ctx context.Context, entity crm.Entity, payload map[string]any) (table.Row, error) {
	body, err := s.do(ctx, http.MethodPost, s.path(entity.Resource), editable(entity, payload))
	if err != nil {
		return nil, err
	}
	return decodeRow(body)
}

// Update replaces the writable fields of a row.
func (s *RESTStore) Update(ctx context.Context, entity crm.Entity, id string, payload map[string]any) (table.Row, error) {
	body, err := s.do(ctx, http.MethodPut, s.path(entity.Resource, id), editable(entity, payload))
	if err != nil {
		return nil, err
	}
	return decodeRow(body)
}

// Perform carries out a row action upstream.
func (s *RESTStore) Perform(ctx context.Context, entity crm.Entity, op Operation) error {
	if sub, ok := actionPaths[op.Action]; ok {
		var payload any
		if op.Action == table.ActionClaimAccount || op.Action == table.ActionAssignUser {
			userID, err := userIDInput(op)
			if err != nil {
				return err
			}
			payload = map[string]any{InputUserID: userID}
		}
		_, err := s.do(ctx, http.MethodPatch, s.path(entity.Resource, op.ID, sub), payload)
		return err
	}

	switch op.Action {
	case table.ActionEdit:
		_, err := s.Update(ctx, entity, op.ID, op.Input)
		return err
	case table.ActionDelete:
		_, err := s.do(ctx, http.MethodDelete, s.path(entity.Resource, op.ID), nil)
		return err
	case table.ActionDeletePermanently:
		_, err := s.do(ctx, http.MethodDelete, s.path(entity.Resource, op.ID, "permanent"), nil)
		return err
	case table.ActionAddNote:
		content, err := noteContent(op)
		if err != nil {
			return err
		}
		note := map[string]any{
			"EntityType": entity.Type,
			"EntityID":   op.ID,
			"Content":    content,
		}
		_, err = s.do(ctx, http.MethodPost, s.path("notes"), note)
		return err
	default:
		return fmt.Errorf("%w: %s on %s", ErrUnsupported, op.Action, entity.Type)
	}
}

func (s *RESTStore) do(ctx context.Context, method, target string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user := userFrom(ctx); user != "" {
		req.Header.Set("X-User-ID", user)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
