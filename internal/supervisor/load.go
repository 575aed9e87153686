package supervisor

import (
	"golang.org/x/sync/errgroup"

	"github.com/rs/zerolog/log"

	"github.com/dmagro/probewall/internal/config"
	"github.com/dmagro/probewall/internal/cssgen"
	"github.com/dmagro/probewall/internal/status"
)

// loaded is one successfully-parsed monitor directory, paired with the
// owner half of its worker's drop-detect handle.
type loaded struct {
	entry *entry
	owner dropDetect
}

// loadMonitors walks cfg.Monitor.Dir, parsing every subdirectory's
// config.yaml concurrently (§4.8). A directory that fails to parse is
// logged and skipped; it never aborts monitors that parsed fine, a
// deliberate relaxation of the original's fail-on-first-error load.
func loadMonitors(cfg *config.Config, palette status.Palette, logCap int, css *cssgen.Cache) ([]*loaded, error) {
	dirs, err := config.ListMonitorDirs(cfg.Monitor.Dir)
	if err != nil {
		return nil, err
	}

	results := make([]*loaded, len(dirs))
	var g errgroup.Group
	for i, dir := range dirs {
		i, dir := i, dir
		g.Go(func() error {
			m, err := config.LoadMonitorDir(dir)
			if err != nil {
				log.Warn().Str("dir", dir).Err(err).Msg("skipping monitor with invalid config")
				return nil
			}
			e, owner := newEntry(m, palette, logCap, css)
			results[i] = &loaded{entry: e, owner: owner}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*loaded, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}
