package ping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/probewall/internal/config"
)

const linuxOutput = `
PING 8.8.8.8 (8.8.8.8) 56(84) bytes of data.
64 bytes from 8.8.8.8: icmp_seq=1 ttl=115 time=19.7 ms
64 bytes from 8.8.8.8: icmp_seq=2 ttl=115 time=19.7 ms
64 bytes from 8.8.8.8: icmp_seq=3 ttl=115 time=19.4 ms
^C
--- 8.8.8.8 ping statistics ---
3 packets transmitted, 3 received, 0% packet loss, time 2004ms
rtt min/avg/max/mdev = 19.392/19.611/19.746/0.156 ms
`

const macosOutput = `
PING 8.8.8.8 (8.8.8.8): 56 data bytes
64 bytes from 8.8.8.8: icmp_seq=0 ttl=115 time=24.027 ms
64 bytes from 8.8.8.8: icmp_seq=1 ttl=115 time=22.841 ms

--- 8.8.8.8 ping statistics ---
2 packets transmitted, 2 packets received, 0.0% packet loss
round-trip min/avg/max/stddev = 22.841/23.434/24.027/0.593 ms
`

const windowsOutput = `
Reply from 8.8.8.8: bytes=1500 time=30ms TTL=54
Reply from 8.8.8.8: bytes=1500 time=30ms TTL=54
Reply from 8.8.8.8: bytes=1500 time=29ms TTL=54
Reply from 8.8.8.8: bytes=1500 time=30ms TTL=54
Reply from 8.8.8.8: bytes=1500 time=31ms TTL=54
Ping statistics for 172.217.1.142:
    Packets: Sent = 5, Received = 5, Lost = 0 (0% loss),
Approximate round trip times in milli-seconds:
    Minimum = 29ms, Maximum = 31ms, Average = 30ms
`

const subMsOutput = `
64 bytes from 8.8.8.8: icmp_seq=0 ttl=115 time<1 ms
64 bytes from 8.8.8.8: icmp_seq=2 ttl=115 time<1ms
Reply from 8.8.8.8: bytes=1500 time=<1ms TTL=54
Reply from 8.8.8.8: bytes=1500 time=<1 ms TTL=54
`

const linuxOutputWithLoss = `
PING 8.8.8.1 (8.8.8.1) 56(84) bytes of data.

--- 8.8.8.1 ping statistics ---
2 packets transmitted, 0 received, 100% packet loss, time 1033ms
`

const macosOutputWithLoss = `
PING 8.8.8.1 (8.8.8.1): 56 data bytes
Request timeout for icmp_seq 0

--- 8.8.8.1 ping statistics ---
2 packets transmitted, 0 packets received, 100.0% packet loss
`

func expectPings(t *testing.T, s string, expectedMS []float64) {
	t.Helper()
	var gotMicros []int64
	for _, line := range splitLines(s) {
		if rtt, ok := ParseRTT(line); ok {
			gotMicros = append(gotMicros, rtt)
		}
	}
	require.Len(t, gotMicros, len(expectedMS))
	for i, ms := range expectedMS {
		assert.InDelta(t, ms*1000, float64(gotMicros[i]), 1)
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

func TestParsePingOutput(t *testing.T) {
	expectPings(t, linuxOutput, []float64{19.7, 19.7, 19.4})
	expectPings(t, macosOutput, []float64{24.027, 22.841})
	expectPings(t, windowsOutput, []float64{30.0, 30.0, 29.0, 30.0, 31.0})
	expectPings(t, subMsOutput, []float64{1.0, 1.0, 1.0, 1.0})
}

func TestParsePingOutputWithLoss(t *testing.T) {
	expectPings(t, linuxOutputWithLoss, nil)
	expectPings(t, macosOutputWithLoss, nil)
}

func newCfg() *config.PingProcessorConfig {
	return &config.PingProcessorConfig{
		Host:           "8.8.8.8",
		WarningTimeout: time.Second,
		Count:          3,
		Red:            "lost == count",
		Green:          "lost == 0",
		Blue:           "false",
		Orange:         "lost > 0 or (lost == 0 and rtt_max > warning_timeout)",
		Yellow:         "false",
	}
}

func TestFinalizeAllSuccessIsGreen(t *testing.T) {
	factory := New(newCfg())
	proc := factory()
	for _, line := range splitLines(linuxOutput) {
		proc.ProcessMessage(line)
	}
	directives := proc.Finalize()
	assert.Contains(t, directives, `status.status="green"`)
	assert.Contains(t, directives, `status.metadata.lost="0"`)
}

func TestFinalizeTotalLossIsRed(t *testing.T) {
	cfg := newCfg()
	cfg.Count = 2
	factory := New(cfg)
	proc := factory()
	for _, line := range splitLines(linuxOutputWithLoss) {
		proc.ProcessMessage(line)
	}
	directives := proc.Finalize()
	assert.Contains(t, directives, `status.status="red"`)
	assert.Contains(t, directives, `status.metadata.lost="2"`)
}

func TestFinalizeNoRuleMatchIsBlank(t *testing.T) {
	cfg := newCfg()
	cfg.Red = "false"
	cfg.Orange = "false"
	cfg.Yellow = "false"
	cfg.Blue = "false"
	cfg.Green = "false"
	factory := New(cfg)
	proc := factory()
	for _, line := range splitLines(linuxOutput) {
		proc.ProcessMessage(line)
	}
	directives := proc.Finalize()
	assert.Contains(t, directives, `status.status="blank"`)
}

func TestFinalizeNoLossWithSlowPingIsOrange(t *testing.T) {
	cfg := newCfg()
	cfg.Count = 3
	cfg.WarningTimeout = time.Millisecond
	factory := New(cfg)
	proc := factory()
	for _, line := range splitLines(linuxOutput) {
		proc.ProcessMessage(line)
	}
	directives := proc.Finalize()
	assert.Contains(t, directives, `status.status="orange"`)
}
