package status

import (
	"fmt"
	"strings"

	"github.com/dmagro/probewall/internal/ordermap"
)

// Starting applies the Starting event: pending is dropped and the log is
// cleared for the new run.
func (s *Status) Starting() {
	s.Pending = nil
	s.Log.Clear()
}

// LogLine appends a formatted log-tail entry for one stdout/stderr line.
func (s *Status) LogLine(stream, text string) {
	s.Log.Push(fmt.Sprintf("[%s] %s", stream, strings.TrimRight(text, "\r\n")))
}

// LogMetaApplied records a successfully-applied Meta directive.
func (s *Status) LogMetaApplied(directive string) {
	s.Log.Push(fmt.Sprintf("[meta  ] %s", directive))
}

// LogMetaError records a Meta directive that failed to parse or apply; state
// is otherwise left unchanged, per the directive-failure error policy.
func (s *Status) LogMetaError(directive string, err error) {
	s.Log.Push(fmt.Sprintf("[error] %s", directive))
	s.Log.Push(fmt.Sprintf("[error] %s", err))
}

// EnsurePending returns s.Pending, creating it if absent. Used by callers
// (the interpolate package's modify-path DSL) that stage edits ahead of
// Finish.
func (s *Status) EnsurePending() *PendingStatus {
	if s.Pending == nil {
		s.Pending = newPendingStatus()
	}
	return s.Pending
}

// SetStatus stages a terminal colour override.
func (p *PendingStatus) SetStatus(c Color) { p.Status = &c }

// SetDescription stages a terminal description override.
func (p *PendingStatus) SetDescription(d string) { p.Description = &d }

// SetMetadata stages one metadata key/value override.
func (p *PendingStatus) SetMetadata(key, value string) {
	p.metadataMap().Set(key, value)
}

// tuple is the (colour, code, description) triple a terminal event or a
// parent's finish produces for itself and hands down to its children.
type tuple struct {
	colour Color
	code   int64
	desc   string
}

// AbnormalTerminationTuple builds the terminal tuple for an
// AbnormalTermination(reason) event.
func AbnormalTerminationTuple(reason string) (Color, int64, string) {
	return Yellow, -1, reason
}

// TerminatedTuple builds the terminal tuple for a Terminated(code) event.
func TerminatedTuple(code int64) (Color, int64, string) {
	if code == 0 {
		return Green, 0, "Success"
	}
	return Red, code, "Failed"
}

// Finish applies the terminal tuple to parent and its children per the
// finish semantics of §4.5: children finish first (with the parent's tuple
// if they have their own pending edits or the parent did not succeed,
// otherwise blanked out), then the parent finishes and, only on a green
// result, its own pending overrides are layered on top.
//
// Finish does not touch any memoised CSS stylesheet fragment cache; callers
// own that cache and must invalidate it on every call to Finish.
func Finish(parent *Status, children *ordermap.Map[*ChildStatus], palette Palette, colour Color, code int64, desc string) {
	terminal := tuple{colour: colour, code: code, desc: desc}
	children.Range(func(id string, child *ChildStatus) bool {
		if child.Status.Pending != nil || colour != Green {
			finishOne(child.Status, palette, terminal)
		} else {
			finishOne(child.Status, palette, tuple{colour: Blank})
		}
		return true
	})
	finishOne(parent, palette, terminal)
}

func finishOne(s *Status, palette Palette, t tuple) {
	colour, code, desc := t.colour, t.code, t.desc

	s.Metadata.Clear()
	if colour == Green && s.Pending != nil {
		if s.Pending.Metadata != nil {
			s.Pending.Metadata.Range(func(k, v string) bool {
				s.Metadata.Set(k, v)
				return true
			})
		}
		if s.Pending.Status != nil {
			colour = *s.Pending.Status
		}
		if s.Pending.Description != nil {
			desc = *s.Pending.Description
		}
	}

	c := colour
	s.Status = &c
	s.Code = code
	s.Description = desc
	s.CSS.Metadata = paletteEntry(palette, colour)
	s.Pending = nil
}
