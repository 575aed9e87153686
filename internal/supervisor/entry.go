package supervisor

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dmagro/probewall/internal/config"
	"github.com/dmagro/probewall/internal/cssgen"
	"github.com/dmagro/probewall/internal/interpolate"
	"github.com/dmagro/probewall/internal/monitors/ping"
	"github.com/dmagro/probewall/internal/monitors/snmp"
	"github.com/dmagro/probewall/internal/status"
	"github.com/dmagro/probewall/internal/worker"
)

// entry pairs one configured monitor's worker with its live state and the
// drop-detect observer that tells the worker's sink when to stop. mu guards
// State against concurrent reads from the HTTP handlers while the worker
// goroutine mutates it.
type entry struct {
	worker  *worker.Worker
	State   *status.MonitorState
	drop    dropDetect
	palette status.Palette
	logCap  int
	css     *cssgen.Cache

	mu sync.Mutex
}

// sink adapts worker.EventSink onto one entry's status.MonitorState,
// applying every event under the entry's mutex (§4.5, §4.6).
type sink struct{ e *entry }

func (s sink) Starting() error {
	if s.e.drop.soleOwner() {
		return worker.ErrShuttingDown
	}
	s.e.mu.Lock()
	s.e.State.Status.Starting()
	s.e.mu.Unlock()
	return nil
}

func (s sink) LogLine(stream worker.Stream, line string) error {
	s.e.mu.Lock()
	s.e.State.Status.LogLine(stream.String(), line)
	s.e.mu.Unlock()
	return nil
}

func (s sink) Meta(directive string) error {
	s.e.mu.Lock()
	defer s.e.mu.Unlock()
	if err := interpolate.ApplyModify(s.e.State, directive, s.e.palette, s.e.logCap); err != nil {
		s.e.State.Status.LogMetaError(directive, err)
		return nil
	}
	s.e.State.Status.LogMetaApplied(directive)
	return nil
}

func (s sink) Terminated(code int64) error {
	colour, exitCode, desc := status.TerminatedTuple(code)
	s.e.finish(colour, exitCode, desc)
	return nil
}

func (s sink) AbnormalTermination(reason string) error {
	colour, exitCode, desc := status.AbnormalTerminationTuple(reason)
	s.e.finish(colour, exitCode, desc)
	return nil
}

func (e *entry) finish(colour status.Color, code int64, desc string) {
	e.mu.Lock()
	status.Finish(e.State.Status, e.State.Children, e.palette, colour, code, desc)
	e.mu.Unlock()
	if e.css != nil {
		e.css.Invalidate(e.State.ID)
	}
}

// run starts the worker loop. It returns once the worker observes shutdown
// via the drop-detect sentinel.
func (e *entry) run() {
	log.Debug().Str("monitor", e.State.ID).Msg("starting monitor worker")
	e.worker.Run(sink{e: e})
	log.Debug().Str("monitor", e.State.ID).Msg("monitor worker stopped")
}

// snapshot returns the entry's MonitorState under lock, safe to hand to an
// HTTP handler for JSON encoding.
func (e *entry) snapshot() *status.MonitorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.State
}

// newEntry builds the worker+state pair for one parsed monitor directory
// config. Group monitors pre-materialise their children so they show up in
// /status.json even before their first run. It returns the entry and the
// owner half of its drop-detect pair; the caller keeps the owner handle and
// releases it on shutdown.
func newEntry(m *config.MonitorDirConfig, palette status.Palette, logCap int, css *cssgen.Cache) (*entry, dropDetect) {
	var test config.TestConfig
	var cfgForState any
	switch m.Kind {
	case "test":
		test = *m.Test
		cfgForState = m.Test
	case "group":
		test = m.Group.Test
		cfgForState = m.Group
	case "snmp":
		test = m.SNMP.Test()
		if argv, err := config.ResolveCommand(m.BasePath, test.Command, test.Args); err == nil {
			test.Argv = argv
		} else {
			log.Warn().Str("monitor", m.ID).Err(err).Msg("failed to resolve snmp command")
		}
		cfgForState = m.SNMP
	}

	state := status.NewMonitorState(m.ID, cfgForState, palette, logCap)
	if m.Kind == "group" {
		for _, point := range m.Group.Materialize() {
			childID, err := interpolate.ID(toStatusAxes(point), m.Group.ID)
			if err != nil {
				log.Warn().Str("monitor", m.ID).Err(err).Msg("failed to interpolate group child id")
				continue
			}
			child := state.EnsureChild(childID, palette, logCap)
			for name, v := range point.Values {
				child.Axes.Set(name, v.ToStatus())
			}
		}
	}

	var factory worker.Factory
	if test.Processor != nil && test.Processor.Ping != nil {
		factory = ping.New(test.Processor.Ping)
	}
	if m.Kind == "snmp" {
		factory = snmp.New(m.SNMP)
	}

	owner, observer := newDropDetect()
	w := &worker.Worker{
		ID:        m.ID,
		BasePath:  m.BasePath,
		Argv:      test.Argv,
		Interval:  test.Interval,
		Timeout:   test.Timeout,
		Processor: factory,
	}
	e := &entry{worker: w, State: state, drop: observer, palette: palette, logCap: logCap, css: css}
	return e, owner
}

func toStatusAxes(p config.ChildPoint) map[string]status.AxisValue {
	out := make(map[string]status.AxisValue, len(p.Values))
	for k, v := range p.Values {
		out[k] = v.ToStatus()
	}
	return out
}
