package status

import "github.com/dmagro/probewall/internal/ordermap"

// MonitorState is the full externally-visible record for one configured
// monitor: its stable id, its config (opaque here — internal/config owns
// the shape, this package only needs to round-trip it through JSON), its
// current Status, and its group children keyed by rendered child id.
//
// The memoised CSS stylesheet fragment named in the data model lives in
// internal/cssgen's cache, keyed by monitor id, not on this struct: nothing
// in this package needs to read it, and keeping the cache external avoids a
// dependency from status on cssgen.
type MonitorState struct {
	ID       string                      `json:"id"`
	Config   any                         `json:"config"`
	Status   *Status                     `json:"status"`
	Children *ordermap.Map[*ChildStatus] `json:"children"`
}

// NewMonitorState creates a MonitorState with status initialised to blank
// per §4.5, with no children yet materialised.
func NewMonitorState(id string, config any, palette Palette, logCap int) *MonitorState {
	return &MonitorState{
		ID:       id,
		Config:   config,
		Status:   New(palette, logCap),
		Children: ordermap.New[*ChildStatus](),
	}
}

// EnsureChild returns the child with the given id, creating it (with an
// "index" axis parsed from a "<stem>-<n>" suffix) if it does not yet exist.
func (m *MonitorState) EnsureChild(id string, palette Palette, logCap int) *ChildStatus {
	return m.Children.GetOrInsert(id, func() *ChildStatus {
		return NewChildStatus(id, palette, logCap)
	})
}
