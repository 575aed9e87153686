// Package cssgen renders the configured CSS rules against every monitor's
// (and group child's) current status, memoising each monitor's fragment
// until its status changes (§4.7).
package cssgen

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/dmagro/probewall/internal/config"
	"github.com/dmagro/probewall/internal/interpolate"
	"github.com/dmagro/probewall/internal/status"
)

// validMetadataKey matches the characters CSS custom-property names tolerate
// unescaped; metadata keys outside this shape are skipped in the synthetic
// block rather than risking an invalid declaration (§4.7).
var validMetadataKey = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// Cache memoises one CSS fragment per monitor id. Callers must call
// Invalidate(id) whenever that monitor's status.Finish runs, since this
// package has no way to observe status mutation itself.
type Cache struct {
	mu    sync.Mutex
	cache map[string]string
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{cache: map[string]string{}}
}

// Invalidate drops the memoised fragment for one monitor, forcing the next
// Render to regenerate it.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.cache, id)
	c.mu.Unlock()
}

// Render builds the full stylesheet: a header comment followed by every
// monitor's fragment, generating and caching any fragment not already held.
func (c *Cache) Render(cfg *config.CSSConfig, monitors []*status.MonitorState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "/* Generated at %s */\n", time.Now().Format(time.RFC3339))
	for _, m := range monitors {
		b.WriteString("\n")
		b.WriteString(c.fragment(cfg, m))
	}
	return b.String()
}

func (c *Cache) fragment(cfg *config.CSSConfig, m *status.MonitorState) string {
	c.mu.Lock()
	if frag, ok := c.cache[m.ID]; ok {
		c.mu.Unlock()
		return frag
	}
	c.mu.Unlock()

	frag := generateForMonitor(cfg, m)
	c.mu.Lock()
	c.cache[m.ID] = frag
	c.mu.Unlock()
	return frag
}

// generateForMonitor renders every rule against the monitor itself, then
// against each of its group children, in declaration order.
func generateForMonitor(cfg *config.CSSConfig, m *status.MonitorState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "/* %s */\n", m.ID)

	writeSyntheticBlock(&b, m.ID, m.Status)
	for _, rule := range cfg.Rules {
		writeRule(&b, m.ID, m.Config, m.Status, rule)
	}
	m.Children.Range(func(id string, child *status.ChildStatus) bool {
		writeSyntheticBlock(&b, id, child.Status)
		for _, rule := range cfg.Rules {
			writeRule(&b, id, m.Config, child.Status, rule)
		}
		return true
	})
	return b.String()
}

// writeSyntheticBlock emits the [data-monitor-id="<id>"] block exposing the
// current colour, code, description, and valid-keyed metadata as
// --monitor-* custom properties, ahead of any user-defined rule (§4.7).
func writeSyntheticBlock(b *strings.Builder, id string, st *status.Status) {
	colour := status.Blank
	if st.Status != nil {
		colour = *st.Status
	}

	fmt.Fprintf(b, "[data-monitor-id=%q] {\n", id)
	fmt.Fprintf(b, "  --monitor-color: %s;\n", colour)
	fmt.Fprintf(b, "  --monitor-code: %d;\n", st.Code)
	fmt.Fprintf(b, "  --monitor-description: %q;\n", st.Description)
	st.Metadata.Range(func(k, v string) bool {
		if validMetadataKey.MatchString(k) {
			fmt.Fprintf(b, "  --monitor-metadata-%s: %q;\n", k, v)
		}
		return true
	})
	b.WriteString("}\n\n")
}

func writeRule(b *strings.Builder, id string, cfg any, st *status.Status, rule config.CSSRule) {
	b.WriteString(interpolate.MonitorLenient(id, cfg, st, rule.Selectors))
	b.WriteString(" {\n")
	b.WriteString(interpolate.MonitorLenient(id, cfg, st, rule.Declarations))
	b.WriteString("\n}\n\n")
}

// BuildPalette converts the YAML palette config into the status package's
// runtime Palette lookup.
func BuildPalette(p config.PaletteConfig) status.Palette {
	return status.Palette{
		status.Blank:  p.Blank,
		status.Red:    p.Red,
		status.Yellow: p.Yellow,
		status.Green:  p.Green,
		status.Blue:   p.Blue,
		status.Orange: p.Orange,
	}
}
