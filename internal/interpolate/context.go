// Package interpolate renders the mustache-style monitor templates used by
// CSS rules and group child-id patterns, and applies the modify-path DSL
// that probe output uses to stage status edits.
package interpolate

import (
	"github.com/dmagro/probewall/internal/ordermap"
	"github.com/dmagro/probewall/internal/status"
)

// templateFielder is implemented by monitor config types (internal/config)
// that want their fields addressable from "monitor.config.*" templates.
type templateFielder interface {
	TemplateFields() map[string]any
}

// BuildMonitorContext assembles the template context exposing monitor.id,
// monitor.config.*, and monitor.status.* (including the nested css.metadata
// and metadata maps), per §4.6.
func BuildMonitorContext(id string, config any, st *status.Status) map[string]any {
	return map[string]any{
		"monitor": map[string]any{
			"id":     id,
			"config": configFields(config),
			"status": statusFields(st),
		},
	}
}

func configFields(config any) map[string]any {
	if tf, ok := config.(templateFielder); ok {
		return tf.TemplateFields()
	}
	return map[string]any{}
}

func statusFields(st *status.Status) map[string]any {
	colour := ""
	if st.Status != nil {
		colour = string(*st.Status)
	}
	return map[string]any{
		"status":      colour,
		"code":        st.Code,
		"description": st.Description,
		"metadata":    plainMap(st.Metadata),
		"css": map[string]any{
			"metadata": plainMap(st.CSS.Metadata),
		},
	}
}

func plainMap(m *ordermap.Map[string]) map[string]any {
	out := map[string]any{}
	if m == nil {
		return out
	}
	m.Range(func(k, v string) bool {
		out[k] = v
		return true
	})
	return out
}
