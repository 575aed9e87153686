package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/probewall/internal/config"
	"github.com/dmagro/probewall/internal/status"
)

func writeMonitor(t *testing.T, root, id, yaml string) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
}

func testPalette() status.Palette {
	return status.Palette{
		status.Blank: {}, status.Green: {}, status.Red: {},
		status.Yellow: {}, status.Orange: {}, status.Blue: {},
	}
}

func TestLoadAndRunTestMonitor(t *testing.T) {
	root := t.TempDir()
	writeMonitor(t, root, "ok", `
test:
  interval: 20ms
  timeout: 1s
  command: /bin/echo hello
`)

	cfg := &config.Config{Monitor: config.MonitorDirRef{Dir: root}}
	sup, err := Load(cfg, testPalette(), 10)
	require.NoError(t, err)
	require.Len(t, sup.entries, 1)

	sup.Start()
	time.Sleep(150 * time.Millisecond)

	states := sup.Status()
	require.Len(t, states, 1)
	assert.Equal(t, "ok", states[0].ID)
	require.NotNil(t, states[0].Status.Status)
	assert.Equal(t, status.Green, *states[0].Status.Status)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sup.Shutdown(ctx))
}

func TestLoadSkipsInvalidMonitorDir(t *testing.T) {
	root := t.TempDir()
	writeMonitor(t, root, "bad", `
test:
  interval: 20ms
  timeout: 1s
`)
	writeMonitor(t, root, "good", `
test:
  interval: 20ms
  timeout: 1s
  command: /bin/echo hi
`)

	cfg := &config.Config{Monitor: config.MonitorDirRef{Dir: root}}
	sup, err := Load(cfg, testPalette(), 10)
	require.NoError(t, err)
	require.Len(t, sup.entries, 1)
	assert.Equal(t, "good", sup.entries[0].State.ID)
}

func TestGroupMonitorMaterialisesChildren(t *testing.T) {
	root := t.TempDir()
	writeMonitor(t, root, "ports", `
group:
  id: "port-{{ n }}"
  test:
    interval: 1s
    timeout: 1s
    command: /bin/echo ok
  axes:
    - name: n
      values: [1, 2]
`)

	cfg := &config.Config{Monitor: config.MonitorDirRef{Dir: root}}
	sup, err := Load(cfg, testPalette(), 10)
	require.NoError(t, err)
	require.Len(t, sup.entries, 1)

	state := sup.entries[0].State
	_, ok := state.Children.Get("port-1")
	assert.True(t, ok)
	_, ok = state.Children.Get("port-2")
	assert.True(t, ok)
}

func TestFindReturnsMonitorByID(t *testing.T) {
	root := t.TempDir()
	writeMonitor(t, root, "ok", `
test:
  interval: 1s
  timeout: 1s
  command: /bin/echo hi
`)
	cfg := &config.Config{Monitor: config.MonitorDirRef{Dir: root}}
	sup, err := Load(cfg, testPalette(), 10)
	require.NoError(t, err)

	require.NotNil(t, sup.Find("ok"))
	assert.Nil(t, sup.Find("missing"))
}
