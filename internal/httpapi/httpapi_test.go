package httpapi

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/probewall/internal/config"
	"github.com/dmagro/probewall/internal/cssgen"
	"github.com/dmagro/probewall/internal/supervisor"
)

func writeMonitor(t *testing.T, root, id, yaml string) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
}

func testServer(t *testing.T) (http.Handler, *supervisor.Supervisor) {
	t.Helper()
	root := t.TempDir()
	writeMonitor(t, root, "ok", `
test:
  interval: 20ms
  timeout: 1s
  command: /bin/echo hello
`)

	cfg := &config.Config{
		Monitor: config.MonitorDirRef{Dir: root},
		CSS: config.CSSConfig{Rules: []config.CSSRule{
			{Selectors: "#{{ monitor.id }}", Declarations: "color: red;"},
		}},
	}
	palette := cssgen.BuildPalette(config.PaletteConfig{})
	sup, err := supervisor.Load(cfg, palette, 10)
	require.NoError(t, err)
	sup.Start()
	time.Sleep(150 * time.Millisecond)

	return NewRouter(cfg, sup, "test"), sup
}

func TestStatusJSON(t *testing.T) {
	router, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/status.json", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"ok"`)
	assert.Contains(t, rec.Body.String(), `"monitors"`)
}

func TestStyleCSS(t *testing.T) {
	router, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/style.css", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "#ok")
}

func TestLogFound(t *testing.T) {
	router, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/log/ok", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello")
}

func TestLogNotFound(t *testing.T) {
	router, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/log/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	router, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}
