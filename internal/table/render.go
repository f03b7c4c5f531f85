package table

import (
	"regexp"
	"strings"
)

// Placeholder is shown for empty values.
const Placeholder = "-"

// Chip colours.
const (
	DefaultChipColor = "default"
	ColorSuccess     = "success"
	ColorError       = "error"
)

// Cell is the render descriptor for one (row, column) pair. The client maps
// Kind onto its widget; every other field is already resolved.
type Cell struct {
	Kind     string `json:"kind"`
	Text     string `json:"text"`
	Color    string `json:"color,omitempty"`
	Href     string `json:"href,omitempty"`
	Tooltip  string `json:"tooltip,omitempty"`
	MaxWidth int    `json:"maxWidth,omitempty"`
	// StopPropagation tells the client that clicking the cell must not toggle
	// the row selection.
	StopPropagation bool `json:"stopPropagation,omitempty"`
}

// Formatter renders a value into display text. A formatter registered for a
// column wins over the column's kind.
type Formatter func(value any, row Row) string

// RenderCell renders one cell. formatters may be nil.
func RenderCell(col ColumnSpec, row Row, formatters map[string]Formatter) Cell {
	value := row.Value(col.Field)
	if f, ok := formatters[col.Field]; ok && f != nil {
		return Cell{Kind: KindFormatted, Text: f(value, row)}
	}
	return col.kind().render(value)
}

func textOrPlaceholder(v any) string {
	if IsEmpty(v) {
		return Placeholder
	}
	return Stringify(v)
}

func (Text) render(v any) Cell {
	return Cell{Kind: KindText, Text: textOrPlaceholder(v)}
}

func (k Chip) render(v any) Cell {
	if IsEmpty(v) {
		return Cell{Kind: KindChip, Text: Placeholder, Color: DefaultChipColor}
	}
	key := Stringify(v)
	label, ok := k.Labels[key]
	if !ok {
		label = key
	}
	color, ok := k.Colors[key]
	if !ok {
		color = DefaultChipColor
	}
	return Cell{Kind: KindChip, Text: label, Color: color}
}

func (Boolean) render(v any) Cell {
	if Truthy(v) {
		return Cell{Kind: KindBoolean, Text: "Yes", Color: ColorSuccess}
	}
	return Cell{Kind: KindBoolean, Text: "No", Color: ColorError}
}

var hasScheme = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)

// LinkHref prefixes https:// to values without a scheme.
func LinkHref(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || hasScheme.MatchString(value) {
		return value
	}
	return "https://" + value
}

func (Link) render(v any) Cell {
	if IsEmpty(v) {
		return Cell{Kind: KindLink, Text: Placeholder}
	}
	text := Stringify(v)
	return Cell{Kind: KindLink, Text: text, Href: LinkHref(text), StopPropagation: true}
}

func (k Truncated) render(v any) Cell {
	width := k.MaxWidth
	if width <= 0 {
		width = DefaultTruncateWidth
	}
	if IsEmpty(v) {
		return Cell{Kind: KindTruncated, Text: Placeholder, MaxWidth: width}
	}
	text := Stringify(v)
	return Cell{Kind: KindTruncated, Text: text, Tooltip: text, MaxWidth: width}
}

func (Tooltip) render(v any) Cell {
	if IsEmpty(v) {
		return Cell{Kind: KindTooltip, Text: Placeholder}
	}
	text := Stringify(v)
	return Cell{Kind: KindTooltip, Text: text, Tooltip: text}
}
