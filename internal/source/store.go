// Package source loads and mutates CRM entity rows, either through the
// upstream CRM REST API or directly against its SQL tables.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/crm"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/table"
)

var (
	ErrUnsupported  = errors.New("operation not supported")
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// UpstreamError is a non-2xx answer of the upstream CRM API.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Body)
}

// Operation is a row action to carry out against the backing store.
type Operation struct {
	Action table.ActionKey
	ID     string
	Input  map[string]any
}

// Store is the backing collection of every entity.
type Store interface {
	List(ctx context.Context, entity crm.Entity) ([]table.Row, error)
	Create(ctx context.Context, entity crm.Entity, payload map[string]any) (table.Row, error)
	Update(ctx context.Context, entity crm.Entity, id string, payload map[string]any) (table.Row, error)
	Perform(ctx context.Context, entity crm.Entity, op Operation) error
}

// Input keys understood by Perform.
const (
	InputUserID  = "userId"
	InputContent = "content"
)

// editable keeps only the entity's writable fields of payload.
func editable(entity crm.Entity, payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if entity.CanEdit(k) {
			out[k] = v
		}
	}
	return out
}

func userIDInput(op Operation) (string, error) {
	id := table.Stringify(op.Input[InputUserID])
	if id == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidInput, InputUserID)
	}
	return id, nil
}

func noteContent(op Operation) (string, error) {
	content := table.Stringify(op.Input[InputContent])
	if table.IsEmpty(content) {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidInput, InputContent)
	}
	return content, nil
}
