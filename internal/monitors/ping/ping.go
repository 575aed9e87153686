// Package ping implements the ping message processor (§4.4): it watches a
// probe's "ping -c N host" output for round-trip times and, on finalize,
// turns the observed/lost counts into metadata and a colour decision.
package ping

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmagro/probewall/internal/config"
	"github.com/dmagro/probewall/internal/expr"
	"github.com/dmagro/probewall/internal/worker"
	"github.com/rs/zerolog/log"
)

// timeoutPlaceholderMicros is the RTT substituted when every ping was lost, so
// rtt_avg/min/max still carry a sentinel large enough to trip a red/orange
// rule rather than reading as a suspiciously fast zero.
const timeoutPlaceholderMicros = int64(60 * time.Second / time.Microsecond)

var timeFieldTail = regexp.MustCompile(`^[0-9.]*`)

// ParseRTT extracts a round-trip time in microseconds from one line of ping
// output, or reports false if the line carries none. "time<1ms",
// "time<1 ms", "time=<1ms", and "time=<1 ms" all count as 1000
// microseconds (§4.4).
func ParseRTT(line string) (int64, bool) {
	if strings.Contains(line, "time<1ms") || strings.Contains(line, "time<1 ms") ||
		strings.Contains(line, "time=<1ms") || strings.Contains(line, "time=<1 ms") {
		return 1000, true
	}
	idx := strings.Index(line, "time=")
	if idx < 0 {
		return 0, false
	}
	tail := line[idx+len("time="):]
	numeric := timeFieldTail.FindString(tail)
	if numeric == "" {
		return 0, false
	}
	ms, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, false
	}
	return int64(ms * 1000), true
}

// processor is one probe run's ping accumulator, created fresh per run by
// New (§4.4 "stateless per run but accumulates across one run").
type processor struct {
	cfg  *config.PingProcessorConfig
	mu   sync.Mutex
	rtts []int64
}

// New builds a worker.Factory bound to cfg; each call it returns starts a
// fresh, empty accumulator.
func New(cfg *config.PingProcessorConfig) worker.Factory {
	return func() worker.Processor {
		return &processor{cfg: cfg}
	}
}

func (p *processor) ProcessMessage(line string) []string {
	if rtt, ok := ParseRTT(line); ok {
		p.mu.Lock()
		p.rtts = append(p.rtts, rtt)
		p.mu.Unlock()
	}
	return nil
}

func (p *processor) Finalize() []string {
	p.mu.Lock()
	rtts := p.rtts
	p.mu.Unlock()

	count := int64(p.cfg.Count)
	lost := count - int64(len(rtts))
	if lost < 0 {
		lost = 0
	}

	var avg, min, max int64
	if len(rtts) == 0 {
		avg, min, max = timeoutPlaceholderMicros, timeoutPlaceholderMicros, timeoutPlaceholderMicros
	} else {
		min, max = rtts[0], rtts[0]
		var sum int64
		for _, r := range rtts {
			sum += r
			if r < min {
				min = r
			}
			if r > max {
				max = r
			}
		}
		avg = sum / int64(len(rtts))
	}

	warningTimeout := int64(p.cfg.WarningTimeout / time.Microsecond)

	ctx := expr.Context{
		"count":           expr.Int(count),
		"lost":            expr.Int(lost),
		"rtt_avg":         expr.Int(avg),
		"rtt_min":         expr.Int(min),
		"rtt_max":         expr.Int(max),
		"warning_timeout": expr.Int(warningTimeout),
	}

	result := []string{
		directive("count", count),
		directive("lost", lost),
		directive("rtt_avg", avg),
		directive("rtt_min", min),
		directive("rtt_max", max),
		directive("warning_timeout", warningTimeout),
	}

	// Priority order: red > orange > yellow > blue > green (§4.4).
	switch {
	case evalBool(p.cfg.Red, ctx):
		result = append(result, `status.status="red"`)
	case evalBool(p.cfg.Orange, ctx):
		result = append(result, `status.status="orange"`)
	case evalBool(p.cfg.Yellow, ctx):
		result = append(result, `status.status="yellow"`)
	case evalBool(p.cfg.Blue, ctx):
		result = append(result, `status.status="blue"`)
	case evalBool(p.cfg.Green, ctx):
		result = append(result, `status.status="green"`)
	default:
		result = append(result, `status.status="blank"`)
	}

	return result
}

func directive(key string, value int64) string {
	return fmt.Sprintf("status.metadata.%s=%q", key, strconv.FormatInt(value, 10))
}

func evalBool(expression string, ctx expr.Context) bool {
	return expr.EvalBool(expression, ctx, func(err error) {
		log.Warn().Str("expression", expression).Err(err).Msg("ping rule evaluation failed")
	})
}
