// Package snmp implements the SNMP message processor (§4.4): it parses
// snmpwalk/snmpbulkwalk ifTable output into per-port metadata and decides
// each port's colour, emitting directives against the configured group's
// auto-created children.
package snmp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dmagro/probewall/internal/config"
	"github.com/dmagro/probewall/internal/expr"
	"github.com/dmagro/probewall/internal/interpolate"
	"github.com/dmagro/probewall/internal/status"
	"github.com/dmagro/probewall/internal/worker"
)

// ifTableColumns maps the standard IF-MIB ifTable column OIDs, in the
// numeric form snmpwalk -OsQfne prints and in symbolic IF-MIB:: form, to a
// short column name, so a port's metadata reads "ifOperStatus" rather than
// the dotted MIB path. Unlisted OIDs pass through verbatim (§4.4 richer
// design, supersedes the original's raw OID passthrough — see DESIGN.md).
var ifTableColumns = map[string]string{
	".1.3.6.1.2.1.2.2.1.1": "ifIndex",
	".1.3.6.1.2.1.2.2.1.2": "ifDescr",
	".1.3.6.1.2.1.2.2.1.3": "ifType",
	".1.3.6.1.2.1.2.2.1.4": "ifMtu",
	".1.3.6.1.2.1.2.2.1.5": "ifSpeed",
	".1.3.6.1.2.1.2.2.1.6": "ifPhysAddress",
	".1.3.6.1.2.1.2.2.1.7": "ifAdminStatus",
	".1.3.6.1.2.1.2.2.1.8": "ifOperStatus",

	"IF-MIB::ifIndex":       "ifIndex",
	"IF-MIB::ifDescr":       "ifDescr",
	"IF-MIB::ifType":        "ifType",
	"IF-MIB::ifMtu":         "ifMtu",
	"IF-MIB::ifSpeed":       "ifSpeed",
	"IF-MIB::ifPhysAddress": "ifPhysAddress",
	"IF-MIB::ifAdminStatus": "ifAdminStatus",
	"IF-MIB::ifOperStatus":  "ifOperStatus",
}

// enumTables translates a column's raw numeric value into the symbolic
// name the ifTable MIB defines for it.
var enumTables = map[string]map[string]string{
	"ifAdminStatus": {"1": "up", "2": "down", "3": "testing"},
	"ifOperStatus": {
		"1": "up", "2": "down", "3": "testing", "4": "unknown",
		"5": "dormant", "6": "notPresent", "7": "lowerLayerDown",
	},
}

func translate(column, value string) string {
	if table, ok := enumTables[column]; ok {
		if name, ok := table[value]; ok {
			return name
		}
	}
	return value
}

func columnName(oid string) string {
	if name, ok := ifTableColumns[oid]; ok {
		return name
	}
	return oid
}

type processor struct {
	cfg *config.SNMPConfig

	mu    sync.Mutex
	ports map[int64]map[string]string
}

// New builds a worker.Factory bound to cfg; each call starts a fresh,
// empty per-port accumulator.
func New(cfg *config.SNMPConfig) worker.Factory {
	return func() worker.Processor {
		return &processor{cfg: cfg, ports: map[int64]map[string]string{}}
	}
}

// ParseLine splits one snmpwalk/snmpbulkwalk output line on the last '='
// then the left side's last '.', extracting the OID tail and the numeric
// ifTable index (§4.4). It reports false for any line that doesn't fit
// that shape.
func ParseLine(line string) (oid string, index int64, value string, ok bool) {
	eq := strings.LastIndex(line, "=")
	if eq < 0 {
		return "", 0, "", false
	}
	left := strings.TrimSpace(line[:eq])
	value = strings.TrimSpace(line[eq+1:])

	dot := strings.LastIndex(left, ".")
	if dot < 0 {
		return "", 0, "", false
	}
	oid = strings.TrimSpace(left[:dot])
	idx, err := strconv.ParseInt(strings.TrimSpace(left[dot+1:]), 10, 64)
	if err != nil {
		return "", 0, "", false
	}
	return oid, idx, value, true
}

func (p *processor) ProcessMessage(line string) []string {
	oid, index, value, ok := ParseLine(line)
	if !ok {
		log.Warn().Str("line", line).Msg("unexpected snmpwalk/snmpbulkwalk output")
		return nil
	}
	column := columnName(oid)
	value = translate(column, value)

	p.mu.Lock()
	port, ok := p.ports[index]
	if !ok {
		port = map[string]string{}
		p.ports[index] = port
	}
	port[column] = value
	p.mu.Unlock()
	return nil
}

func (p *processor) Finalize() []string {
	p.mu.Lock()
	ports := p.ports
	p.ports = map[int64]map[string]string{}
	p.mu.Unlock()

	indices := make([]int64, 0, len(ports))
	for idx := range ports {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	var result []string
	for _, index := range indices {
		metadata := ports[index]
		ctx := stringContext(metadata)

		if !evalBool(p.cfg.Include, ctx) {
			continue
		}
		if evalBool(p.cfg.Exclude, ctx) {
			continue
		}

		childID, err := interpolate.ID(map[string]status.AxisValue{"index": status.IntAxis(index)}, p.cfg.ID)
		if err != nil {
			log.Warn().Int64("index", index).Err(err).Msg("failed to interpolate snmp child id")
			continue
		}

		columns := make([]string, 0, len(metadata))
		for col := range metadata {
			columns = append(columns, col)
		}
		sort.Strings(columns)
		for _, col := range columns {
			result = append(result, fmt.Sprintf("group.%s.status.metadata.%s=%q", childID, col, metadata[col]))
		}

		switch {
		case evalBool(p.cfg.Red, ctx):
			result = append(result, fmt.Sprintf("group.%s.status.status=%q", childID, "red"))
		case evalBool(p.cfg.Green, ctx):
			result = append(result, fmt.Sprintf("group.%s.status.status=%q", childID, "green"))
		}
	}
	return result
}

// stringContext builds an expr.Context from port metadata, coercing any
// all-digit value to an int so numeric predicates like "ifMtu > 1500" work.
func stringContext(metadata map[string]string) expr.Context {
	ctx := make(expr.Context, len(metadata))
	for k, v := range metadata {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			ctx[k] = expr.Int(n)
		} else {
			ctx[k] = expr.Str(v)
		}
	}
	return ctx
}

func evalBool(expression string, ctx expr.Context) bool {
	return expr.EvalBool(expression, ctx, func(err error) {
		log.Warn().Str("expression", expression).Err(err).Msg("snmp rule evaluation failed")
	})
}
