package snmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/probewall/internal/config"
)

func TestParseLine(t *testing.T) {
	oid, idx, value, ok := ParseLine("IF-MIB::ifOperStatus.1 = 1")
	require.True(t, ok)
	assert.Equal(t, "IF-MIB::ifOperStatus", oid)
	assert.Equal(t, int64(1), idx)
	assert.Equal(t, "1", value)
}

func TestParseLineMissingEquals(t *testing.T) {
	_, _, _, ok := ParseLine("not a valid line")
	assert.False(t, ok)
}

func TestParseLineEmptyValue(t *testing.T) {
	_, _, value, ok := ParseLine("IF-MIB::ifDescr.1 =")
	require.True(t, ok)
	assert.Equal(t, "", value)
}

func newCfg(id string) *config.SNMPConfig {
	return &config.SNMPConfig{
		ID:      id,
		Include: "true",
		Exclude: "false",
		Red:     "false",
		Green:   "ifOperStatus == 'up' and ifAdminStatus == 'up'",
	}
}

func TestFinalizeEmitsMetadataAndGreen(t *testing.T) {
	cfg := newCfg("port-{{ index }}")
	factory := New(cfg)
	proc := factory()

	proc.ProcessMessage("IF-MIB::ifOperStatus.1 = 1")
	proc.ProcessMessage("IF-MIB::ifAdminStatus.1 = 1")
	proc.ProcessMessage("IF-MIB::ifDescr.1 = eth0")

	directives := proc.Finalize()
	assert.Contains(t, directives, `group.port-1.status.metadata.ifOperStatus="up"`)
	assert.Contains(t, directives, `group.port-1.status.metadata.ifAdminStatus="up"`)
	assert.Contains(t, directives, `group.port-1.status.status="green"`)
}

func TestFinalizeExcludeSkipsPort(t *testing.T) {
	cfg := newCfg("port-{{ index }}")
	cfg.Exclude = "startswith(ifDescr, 'lo')"
	factory := New(cfg)
	proc := factory()

	proc.ProcessMessage("IF-MIB::ifDescr.1 = lo")
	proc.ProcessMessage("IF-MIB::ifOperStatus.1 = 1")

	directives := proc.Finalize()
	assert.Empty(t, directives)
}

func TestFinalizeRedWhenDown(t *testing.T) {
	cfg := newCfg("port-{{ index }}")
	cfg.Red = "ifAdminStatus == 'up' and ifOperStatus == 'down'"
	factory := New(cfg)
	proc := factory()

	proc.ProcessMessage("IF-MIB::ifAdminStatus.1 = 1")
	proc.ProcessMessage("IF-MIB::ifOperStatus.1 = 2")

	directives := proc.Finalize()
	assert.Contains(t, directives, `group.port-1.status.status="red"`)
}
