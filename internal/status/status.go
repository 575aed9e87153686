// Package status implements the per-monitor state machine: the colour
// lattice, the terminal/pending status shapes, and the event-driven finish
// semantics that turn worker events into the durable status a reader sees.
package status

import (
	"fmt"

	"github.com/dmagro/probewall/internal/ordermap"
)

// Color is one of the six status colours. blank is the only non-terminal
// value; it marks "not yet run" or "group child never mentioned".
type Color string

const (
	Blank  Color = "blank"
	Green  Color = "green"
	Yellow Color = "yellow"
	Red    Color = "red"
	Orange Color = "orange"
	Blue   Color = "blue"
)

// ParseColor validates a user-supplied colour name (from the modify-path DSL
// or a config palette key).
func ParseColor(s string) (Color, error) {
	switch Color(s) {
	case Blank, Green, Yellow, Red, Orange, Blue:
		return Color(s), nil
	default:
		return "", fmt.Errorf("unknown status colour %q", s)
	}
}

// Palette maps each colour to the CSS custom properties it contributes,
// sourced from the global CSS config (SPEC_FULL §2.2).
type Palette map[Color]map[string]string

// PendingStatus is the staging area a worker fills in via Meta events;
// Finish consumes it into the terminal Status.
type PendingStatus struct {
	Status      *Color
	Description *string
	Metadata    *ordermap.Map[string]
}

func newPendingStatus() *PendingStatus {
	return &PendingStatus{}
}

func (p *PendingStatus) metadataMap() *ordermap.Map[string] {
	if p.Metadata == nil {
		p.Metadata = ordermap.New[string]()
	}
	return p.Metadata
}

// Status is the terminal, externally visible status of a monitor or a group
// child: colour, exit code, human description, derived CSS variables, a
// bounded log tail, and any not-yet-applied pending edits.
type Status struct {
	Status      *Color                `json:"status"`
	Code        int64                 `json:"code"`
	Description string                `json:"description"`
	Metadata    *ordermap.Map[string] `json:"metadata"`
	CSS         CSSMetadata           `json:"css"`
	Log         *LogBuffer            `json:"log"`
	Pending     *PendingStatus        `json:"-"`
}

// CSSMetadata is the colour-derived set of CSS custom properties currently
// attached to a status; it mirrors the chosen palette entry.
type CSSMetadata struct {
	Metadata *ordermap.Map[string] `json:"metadata"`
}

// New creates a Status initialised to blank, per §4.5 Initialisation.
func New(palette Palette, logCap int) *Status {
	s := &Status{
		Metadata: ordermap.New[string](),
		Log:      NewLogBuffer(logCap),
	}
	s.initialize(palette)
	return s
}

func (s *Status) initialize(palette Palette) {
	blank := Blank
	s.Status = &blank
	s.Code = 0
	s.Description = "Unknown (initializing)"
	s.CSS = CSSMetadata{Metadata: paletteEntry(palette, Blank)}
}

func paletteEntry(palette Palette, c Color) *ordermap.Map[string] {
	m := ordermap.New[string]()
	if entry, ok := palette[c]; ok {
		for k, v := range entry {
			m.Set(k, v)
		}
	}
	return m
}

// ChildStatus is one group monitor child: its axis values plus its own
// Status.
type ChildStatus struct {
	Axes   *ordermap.Map[AxisValue] `json:"axes"`
	Status *Status                  `json:"status"`
}

// AxisValue is a group axis value: either an integer or a string, mirroring
// the monitor config's axis value union.
type AxisValue struct {
	IsString bool
	Number   int64
	Str      string
}

func IntAxis(n int64) AxisValue  { return AxisValue{Number: n} }
func StrAxis(s string) AxisValue { return AxisValue{IsString: true, Str: s} }

func (a AxisValue) MarshalJSON() ([]byte, error) {
	if a.IsString {
		return quoteJSON(a.Str), nil
	}
	return []byte(fmt.Sprintf("%d", a.Number)), nil
}

// String renders the axis value the way a child-id template expects to see
// it: the raw string, or the integer's decimal form.
func (a AxisValue) String() string {
	if a.IsString {
		return a.Str
	}
	return fmt.Sprintf("%d", a.Number)
}

func quoteJSON(s string) []byte {
	b := make([]byte, 0, len(s)+2)
	b = append(b, '"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			b = append(b, '\\', byte(r))
		case '\n':
			b = append(b, '\\', 'n')
		default:
			b = append(b, string(r)...)
		}
	}
	b = append(b, '"')
	return b
}

// NewChildStatus derives a fresh child, parsing a numeric "index" axis out
// of a "<stem>-<n>" id suffix when present, matching the auto-create rule
// in the modify-path DSL (§4.6).
func NewChildStatus(id string, palette Palette, logCap int) *ChildStatus {
	c := &ChildStatus{
		Axes:   ordermap.New[AxisValue](),
		Status: New(palette, logCap),
	}
	if n, ok := trailingIndex(id); ok {
		c.Axes.Set("index", IntAxis(n))
	}
	return c
}
