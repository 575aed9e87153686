// Package worker runs one configured probe's entire process lifecycle:
// spawn, timed pipe reads, termination escalation, and structured event
// emission. It knows nothing about colours or status; it only produces the
// event stream that internal/status consumes (§4.3).
package worker

import "errors"

// Stream identifies which pipe a log line came from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// ErrShuttingDown is the sentinel an EventSink returns to signal that the
// supervisor has begun shutdown; the worker loop must exit silently on
// seeing it, never logging it as a failure (§4.3, §5).
var ErrShuttingDown = errors.New("worker: shutting down")

// metaPrefix marks a line as an out-of-band directive instead of a log
// line (§4.3 "the meta protocol").
const metaPrefix = "@@STYLUS@@"

// EventSink receives every event a single probe run produces, in order.
// A non-nil return of ErrShuttingDown from any method aborts the run
// in progress; any other error is treated as a delivery failure and also
// aborts the run (the original's "sender failed" path).
type EventSink interface {
	Starting() error
	LogLine(stream Stream, line string) error
	Meta(directive string) error
	Terminated(code int64) error
	AbnormalTermination(reason string) error
}
