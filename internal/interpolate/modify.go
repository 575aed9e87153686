package interpolate

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/dmagro/probewall/internal/status"
)

// ApplyModify applies one modify-path DSL directive ("<path>=<json-value>")
// to a monitor's pending status, auto-creating the named group child if the
// path targets one (§4.6). Any failure leaves state unchanged; the caller
// is responsible for logging it via status.LogMetaError / LogMetaApplied.
func ApplyModify(m *status.MonitorState, directive string, palette status.Palette, logCap int) error {
	rawPath, rawValue, ok := strings.Cut(directive, "=")
	if !ok {
		return fmt.Errorf("invalid directive %q: missing '='", directive)
	}

	var value any
	if err := json.Unmarshal([]byte(rawValue), &value); err != nil {
		return fmt.Errorf("invalid JSON value in %q: %w", directive, err)
	}

	segments := strings.Split(rawPath, ".")

	target := func() *status.Status { return m.Status }
	rest := segments
	switch segments[0] {
	case "status":
		rest = segments[1:]
	case "group":
		if len(segments) < 3 || segments[2] != "status" {
			return fmt.Errorf("invalid path: %s", rawPath)
		}
		target = func() *status.Status { return m.EnsureChild(segments[1], palette, logCap).Status }
		rest = segments[3:]
	default:
		return fmt.Errorf("invalid path: %s", rawPath)
	}

	if len(rest) == 0 {
		return fmt.Errorf("invalid path: %s", rawPath)
	}

	switch rest[0] {
	case "status":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("status value must be a string, got %T", value)
		}
		c, err := status.ParseColor(s)
		if err != nil {
			return err
		}
		target().EnsurePending().SetStatus(c)
	case "description":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("description value must be a string, got %T", value)
		}
		target().EnsurePending().SetDescription(s)
	case "metadata":
		if len(rest) != 2 {
			return fmt.Errorf("invalid path: %s", rawPath)
		}
		target().EnsurePending().SetMetadata(rest[1], stringifyJSONValue(value))
	default:
		return fmt.Errorf("invalid path: %s", rawPath)
	}

	return nil
}

func stringifyJSONValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}
