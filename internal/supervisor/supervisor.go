// Package supervisor owns every configured monitor's worker goroutine and
// live status, bridging internal/worker's event stream onto internal/status
// state and serving snapshots to internal/httpapi (§4.3, §4.5, §4.8).
package supervisor

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dmagro/probewall/internal/config"
	"github.com/dmagro/probewall/internal/cssgen"
	"github.com/dmagro/probewall/internal/status"
)

// Supervisor owns the full set of running monitors for one daemon process.
type Supervisor struct {
	entries []*entry
	owners  []dropDetect
	wg      sync.WaitGroup

	cssCfg *config.CSSConfig
	css    *cssgen.Cache
}

// Load parses every monitor directory under cfg.Monitor.Dir and builds a
// Supervisor ready to Start, but does not start any workers yet.
func Load(cfg *config.Config, palette status.Palette, logCap int) (*Supervisor, error) {
	css := cssgen.New()
	loaded, err := loadMonitors(cfg, palette, logCap, css)
	if err != nil {
		return nil, err
	}
	s := &Supervisor{
		entries: make([]*entry, 0, len(loaded)),
		owners:  make([]dropDetect, 0, len(loaded)),
		cssCfg:  &cfg.CSS,
		css:     css,
	}
	for _, l := range loaded {
		s.entries = append(s.entries, l.entry)
		s.owners = append(s.owners, l.owner)
	}
	log.Info().Int("count", len(s.entries)).Msg("loaded monitors")
	return s, nil
}

// CSS renders the full stylesheet against the current status of every
// monitor, reusing any fragment whose monitor hasn't finished a run since
// the last render.
func (s *Supervisor) CSS() string {
	return s.css.Render(s.cssCfg, s.Status())
}

// Start spawns one goroutine per monitor and returns immediately.
func (s *Supervisor) Start() {
	for _, e := range s.entries {
		e := e
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			e.run()
		}()
	}
}

// Shutdown releases every monitor's owner drop-detect handle, which causes
// each worker's next Starting() call to observe ErrShuttingDown and return,
// then waits for all worker goroutines to exit or ctx to expire.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	for _, o := range s.owners {
		o.release()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a point-in-time snapshot of every monitor's state, in
// load order, for the /status.json handler.
func (s *Supervisor) Status() []*status.MonitorState {
	out := make([]*status.MonitorState, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.snapshot())
	}
	return out
}

// Find returns the state of the monitor with the given id, or nil. Used by the
// /log/{id} handler.
func (s *Supervisor) Find(id string) *status.MonitorState {
	for _, e := range s.entries {
		if e.State.ID == id {
			return e.snapshot()
		}
	}
	return nil
}

