package table

import (
	"encoding/json"
	"fmt"
)

// Kind names, as exposed to clients in the "type" attribute of a column.
const (
	KindText      = "text"
	KindChip      = "chip"
	KindBoolean   = "boolean"
	KindLink      = "link"
	KindTruncated = "truncated"
	KindTooltip   = "tooltip"

	// KindFormatted marks a cell produced by a caller-supplied formatter.
	KindFormatted = "formatted"
)

// DefaultTruncateWidth is used by Truncated columns that do not set MaxWidth.
const DefaultTruncateWidth = 200

// CellKind is the closed set of column render variants. New kinds are added
// by adding a variant with its own render method.
type CellKind interface {
	Name() string
	render(value any) Cell
}

// Text renders the raw value.
type Text struct{}

// Chip renders a labelled, coloured chip. Labels and Colors are keyed by the
// stringified value.
type Chip struct {
	Labels map[string]string
	Colors map[string]string
}

// Boolean renders a fixed Yes/No chip.
type Boolean struct{}

// Link renders a hyperlink.
type Link struct{}

// Truncated renders single-line text cut at MaxWidth pixels, with the full
// value as tooltip.
type Truncated struct {
	MaxWidth int
}

// Tooltip renders plain text with the same text as tooltip.
type Tooltip struct{}

func (Text) Name() string      { return KindText }
func (Chip) Name() string      { return KindChip }
func (Boolean) Name() string   { return KindBoolean }
func (Link) Name() string      { return KindLink }
func (Truncated) Name() string { return KindTruncated }
func (Tooltip) Name() string   { return KindTooltip }

// ColumnSpec describes one displayed and filterable attribute.
type ColumnSpec struct {
	Field      string
	HeaderName string
	Kind       CellKind
}

// Header is the display label, falling back to the field name.
func (c ColumnSpec) Header() string {
	if c.HeaderName != "" {
		return c.HeaderName
	}
	return c.Field
}

func (c ColumnSpec) kind() CellKind {
	if c.Kind == nil {
		return Text{}
	}
	return c.Kind
}

type columnJSON struct {
	Field      string            `json:"field"`
	HeaderName string            `json:"headerName"`
	Type       string            `json:"type"`
	ChipLabels map[string]string `json:"chipLabels,omitempty"`
	ChipColors map[string]string `json:"chipColors,omitempty"`
	MaxWidth   int               `json:"maxWidth,omitempty"`
	Numeric    bool              `json:"numeric,omitempty"`
}

// MarshalJSON flattens the kind into the "type" tag plus its parameters.
func (c ColumnSpec) MarshalJSON() ([]byte, error) {
	out := columnJSON{
		Field:      c.Field,
		HeaderName: c.Header(),
		Type:       c.kind().Name(),
		Numeric:    IsRangeField(c.Field),
	}
	switch k := c.kind().(type) {
	case Chip:
		out.ChipLabels = k.Labels
		out.ChipColors = k.Colors
	case Truncated:
		out.MaxWidth = k.MaxWidth
		if out.MaxWidth <= 0 {
			out.MaxWidth = DefaultTruncateWidth
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the flattened form produced by MarshalJSON.
func (c *ColumnSpec) UnmarshalJSON(data []byte) error {
	var in columnJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	kind, err := kindFromTag(in)
	if err != nil {
		return err
	}
	*c = ColumnSpec{Field: in.Field, HeaderName: in.HeaderName, Kind: kind}
	return nil
}

func kindFromTag(in columnJSON) (CellKind, error) {
	switch in.Type {
	case "", KindText:
		return Text{}, nil
	case KindChip:
		return Chip{Labels: in.ChipLabels, Colors: in.ChipColors}, nil
	case KindBoolean:
		return Boolean{}, nil
	case KindLink:
		return Link{}, nil
	case KindTruncated:
		return Truncated{MaxWidth: in.MaxWidth}, nil
	case KindTooltip:
		return Tooltip{}, nil
	default:
		return nil, fmt.Errorf("unknown column type %q", in.Type)
	}
}
