package interpolate

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/dmagro/probewall/internal/status"
)

// fieldPathPattern matches a bare dotted-field action like
// "{{ monitor.status.css.metadata.some-key }}". Every directive this spec
// renders is a plain field reference, never a conditional or loop, so this
// is the only action shape the preprocessor needs to understand.
var fieldPathPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_][A-Za-z0-9_.-]*)\s*\}\}`)

// preprocess rewrites each bare dotted path into a call to the get helper,
// so that hyphenated metadata keys (which Go's template dot-chaining syntax
// cannot express) resolve the same way plain identifiers do.
func preprocess(source string) string {
	return fieldPathPattern.ReplaceAllStringFunc(source, func(m string) string {
		path := fieldPathPattern.FindStringSubmatch(m)[1]
		segments := strings.Split(path, ".")
		var b strings.Builder
		b.WriteString("{{ get . ")
		for _, s := range segments {
			fmt.Fprintf(&b, "%q ", s)
		}
		b.WriteString("}}")
		return b.String()
	})
}

func getField(ctx any, path ...string) (any, error) {
	cur := ctx
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cannot resolve %q: parent is not a mapping", p)
		}
		v, ok := m[p]
		if !ok {
			return nil, fmt.Errorf("undefined reference %q", p)
		}
		cur = v
	}
	return cur, nil
}

// Render compiles source against ctx and returns the trimmed result.
// Any undefined reference anywhere in the path fails the render; callers in
// strict contexts (group child ids) propagate the error, callers in lenient
// contexts (CSS rules) catch it and substitute a fallback.
func Render(ctx any, source string) (string, error) {
	tmpl, err := template.New("interpolate").Funcs(template.FuncMap{"get": getField}).Parse(preprocess(source))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// Monitor renders a template against the monitor context of id/config/st.
func Monitor(id string, config any, st *status.Status, source string) (string, error) {
	return Render(BuildMonitorContext(id, config, st), source)
}

// MonitorLenient renders a CSS rule's selector or declaration text, falling
// back to "/* failed */" on any render error so one bad rule never breaks
// the rest of the stylesheet (§7 Template failure).
func MonitorLenient(id string, config any, st *status.Status, source string) string {
	out, err := Monitor(id, config, st, source)
	if err != nil {
		return "/* failed */"
	}
	return out
}

// ID renders a group child-id template (strict: errors propagate).
func ID(values map[string]status.AxisValue, source string) (string, error) {
	ctx := make(map[string]any, len(values))
	for k, v := range values {
		ctx[k] = v
	}
	return Render(ctx, source)
}
