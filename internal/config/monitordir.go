package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/dmagro/probewall/internal/status"
)

// MonitorDirConfig is the tagged union parsed from a monitor directory's
// own config.yaml: test | group | snmp (§6). Kind discriminates which of
// the three payloads was actually present; the other two remain nil.
type MonitorDirConfig struct {
	Kind  string
	Test  *TestConfig
	Group *GroupConfig
	SNMP  *SNMPConfig

	ID       string `yaml:"-"`
	BasePath string `yaml:"-"`
}

// rawMonitorDir mirrors the YAML document shape so yaml.v3 can unmarshal it
// before we dispatch on which section was present.
type rawMonitorDir struct {
	Test  *TestConfig  `yaml:"test"`
	Group *GroupConfig `yaml:"group"`
	SNMP  *SNMPConfig  `yaml:"snmp"`
}

// TestConfig is the leaf probe definition: how often to run, how long to
// wait, and what to run. Processor, when present, adds a message
// processor's own directives derived from the non-meta output lines, which
// are still logged; a ping processor also replaces Command/Args with a
// synthesized ping invocation (§4.4).
type TestConfig struct {
	Interval  time.Duration    `yaml:"interval"`
	Timeout   time.Duration    `yaml:"timeout"`
	Command   string           `yaml:"command"`
	Args      []string         `yaml:"args,omitempty"`
	Processor *ProcessorConfig `yaml:"processor,omitempty"`

	// Argv is the resolved argv determined by ResolveCommand; populated by
	// the directory loader, not by YAML.
	Argv []string `yaml:"-"`
}

// ProcessorConfig selects the one message processor a test invocation may
// carry. Only one of its fields is ever set.
type ProcessorConfig struct {
	Ping *PingProcessorConfig `yaml:"ping,omitempty"`
}

// PingProcessorConfig drives /usr/bin/ping and the RTT-to-colour rules
// (§4.4 ping processor); the config loader's resolveTestArgv synthesizes
// the actual test argv from it.
type PingProcessorConfig struct {
	Host           string        `yaml:"host"`
	WarningTimeout time.Duration `yaml:"warning_timeout"`
	Count          int           `yaml:"count"`
	Red            string        `yaml:"red"`
	Green          string        `yaml:"green"`
	Blue           string        `yaml:"blue"`
	Orange         string        `yaml:"orange"`
	Yellow         string        `yaml:"yellow"`
}

func (p *PingProcessorConfig) applyDefaults() {
	if p.WarningTimeout == 0 {
		p.WarningTimeout = time.Second
	}
	if p.Count == 0 {
		p.Count = 1
	}
	if p.Red == "" {
		p.Red = "lost == count"
	}
	if p.Green == "" {
		p.Green = "lost == 0"
	}
	if p.Blue == "" {
		p.Blue = "false"
	}
	if p.Orange == "" {
		p.Orange = "lost > 0 or (lost == 0 and rtt_max > warning_timeout)"
	}
	if p.Yellow == "" {
		p.Yellow = "false"
	}
}

// GroupConfig replicates a test across the Cartesian product of its axes;
// each product point becomes a child keyed by the rendered id template.
type GroupConfig struct {
	ID   string       `yaml:"id"`
	Test TestConfig   `yaml:"test"`
	Axes []AxisConfig `yaml:"axes"`
}

// AxisConfig is one named axis and its set of values.
type AxisConfig struct {
	Name   string      `yaml:"name"`
	Values []AxisValue `yaml:"values"`
}

// AxisValue is a YAML-decodable int-or-string axis value.
type AxisValue struct {
	IsString bool
	Number   int64
	Str      string
}

func (a *AxisValue) UnmarshalYAML(node *yaml.Node) error {
	var n int64
	if err := node.Decode(&n); err == nil {
		a.IsString = false
		a.Number = n
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("axis value must be an int or a string: %w", err)
	}
	a.IsString = true
	a.Str = s
	return nil
}

// ToStatus converts a config axis value into the status package's own
// AxisValue, used to seed ChildStatus.Axes and template contexts.
func (a AxisValue) ToStatus() status.AxisValue {
	if a.IsString {
		return status.StrAxis(a.Str)
	}
	return status.IntAxis(a.Number)
}

func (a AxisValue) String() string {
	if a.IsString {
		return a.Str
	}
	return fmt.Sprintf("%d", a.Number)
}

// ChildPoint is one Cartesian-product point: the axis values that produced
// it, keyed by axis name (the map carries no order).
type ChildPoint struct {
	Values map[string]AxisValue
}

// Materialize expands a group's axes into the ordered list of child points,
// walking axis values in declaration order so the result is deterministic.
func (g *GroupConfig) Materialize() []ChildPoint {
	if len(g.Axes) == 0 {
		return nil
	}
	points := []ChildPoint{{Values: map[string]AxisValue{}}}
	for _, axis := range g.Axes {
		var next []ChildPoint
		for _, p := range points {
			for _, v := range axis.Values {
				values := make(map[string]AxisValue, len(p.Values)+1)
				for k, existing := range p.Values {
					values[k] = existing
				}
				values[axis.Name] = v
				next = append(next, ChildPoint{Values: values})
			}
		}
		points = next
	}
	return points
}

// SNMPConfig describes an snmpwalk/snmpbulkwalk target plus the per-port
// predicates used to decide include/exclude/red/green (§4.4, §6).
type SNMPConfig struct {
	ID       string        `yaml:"id"`
	Target   SNMPTarget    `yaml:"target"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
	Include  string        `yaml:"include"`
	Exclude  string        `yaml:"exclude"`
	Red      string        `yaml:"red"`
	Green    string        `yaml:"green"`
}

// SNMPTarget is the agent to query and the credentials to query it with.
type SNMPTarget struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port,omitempty"`
	Version         int    `yaml:"version"`
	Community       string `yaml:"community,omitempty"`
	Username        string `yaml:"username,omitempty"`
	AuthProtocol    string `yaml:"auth_protocol,omitempty"`
	AuthPassword    string `yaml:"auth_password,omitempty"`
	PrivacyProtocol string `yaml:"privacy_protocol,omitempty"`
	PrivacyPassword string `yaml:"privacy_password,omitempty"`
	Bulk            bool   `yaml:"bulk,omitempty"`
}

func (s *SNMPConfig) applyDefaults() {
	if s.Target.Version == 0 {
		s.Target.Version = 2
	}
	if s.Target.Community == "" {
		s.Target.Community = "public"
	}
	if s.Include == "" {
		s.Include = "true"
	}
	if s.Exclude == "" {
		s.Exclude = "false"
	}
	if s.Red == "" {
		s.Red = "false"
	}
	if s.Green == "" {
		s.Green = "ifOperStatus == 'up' and ifAdminStatus == 'up'"
	}
}

// Argv builds the snmpwalk/snmpbulkwalk invocation in the deterministic
// order required by §6: "-OsQfne", "-t <timeout-s>", "-v {1|2c|3}", auth
// args, "<host>[:port]", "ifTable".
func (s *SNMPConfig) Argv() []string {
	binary := "snmpwalk"
	if s.Target.Bulk {
		binary = "snmpbulkwalk"
	}

	argv := []string{binary, "-OsQfne", "-t", fmt.Sprintf("%d", int(s.Timeout.Seconds())), "-v"}
	switch s.Target.Version {
	case 1:
		argv = append(argv, "1")
	case 3:
		argv = append(argv, "3")
	default:
		argv = append(argv, "2c")
	}

	switch s.Target.Version {
	case 1, 2:
		argv = append(argv, "-c", s.Target.Community)
	case 3:
		if s.Target.Username != "" {
			argv = append(argv, "-u", s.Target.Username)
		}
		hasAuth := s.Target.AuthProtocol != "" && s.Target.AuthPassword != ""
		hasPriv := s.Target.PrivacyProtocol != "" && s.Target.PrivacyPassword != ""
		level := "noAuthNoPriv"
		if hasPriv {
			level = "authPriv"
		} else if hasAuth {
			level = "authNoPriv"
		}
		argv = append(argv, "-l", level)
		if hasAuth {
			argv = append(argv, "-a", strings.ToUpper(s.Target.AuthProtocol), "-A", s.Target.AuthPassword)
		}
		if hasPriv {
			argv = append(argv, "-x", strings.ToUpper(s.Target.PrivacyProtocol), "-X", s.Target.PrivacyPassword)
		}
	}

	host := s.Target.Host
	if s.Target.Port != 0 {
		host = fmt.Sprintf("%s:%d", s.Target.Host, s.Target.Port)
	}
	argv = append(argv, host, "ifTable")
	return argv
}

// Test synthesizes the TestConfig an SNMP monitor runs under the hood: the
// snmpwalk/snmpbulkwalk invocation via /usr/bin/env.
func (s *SNMPConfig) Test() TestConfig {
	return TestConfig{
		Interval: s.Interval,
		Timeout:  s.Timeout,
		Command:  "/usr/bin/env",
		Args:     s.Argv(),
	}
}

// ListMonitorDirs returns the immediate subdirectories of dir that contain
// a config.yaml, sorted by name. The supervisor fans its errgroup out
// over this list.
func ListMonitorDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading monitor directory %s: %w", dir, err)
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(dir, e.Name())
		if _, err := os.Stat(filepath.Join(sub, "config.yaml")); err == nil {
			dirs = append(dirs, sub)
		}
	}
	return dirs, nil
}

// ResolveCommand decides how a test's configured command should actually be
// invoked (§6): an executable relative to the monitor's base path is run
// directly; otherwise, if the command string contains whitespace, it is
// re-invoked through a POSIX shell; any other shape fails config load.
func ResolveCommand(basePath, command string, args []string) ([]string, error) {
	candidate := command
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(basePath, command)
	}
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() && isExecutable(info.Mode()) {
		return append([]string{candidate}, args...), nil
	}
	if strings.ContainsAny(command, " \t") {
		return []string{"/bin/sh", "-c", command}, nil
	}
	return nil, fmt.Errorf("command %q is not an existing executable and contains no whitespace to shell-invoke", command)
}

func isExecutable(mode os.FileMode) bool {
	return mode&0o111 != 0
}

// LoadMonitorDir parses one monitor directory's config.yaml into the
// test/group/snmp tagged union, resolving the final argv for every leaf
// TestConfig it produces.
func LoadMonitorDir(dir string) (*MonitorDirConfig, error) {
	path := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	expanded := os.ExpandEnv(string(data))

	var raw rawMonitorDir
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	present := 0
	if raw.Test != nil {
		present++
	}
	if raw.Group != nil {
		present++
	}
	if raw.SNMP != nil {
		present++
	}
	if present != 1 {
		return nil, fmt.Errorf("%s: exactly one of test, group, snmp must be set, found %d", path, present)
	}

	mc := &MonitorDirConfig{BasePath: dir, ID: filepath.Base(dir)}
	switch {
	case raw.Test != nil:
		mc.Kind = "test"
		mc.Test = raw.Test
		if err := resolveTestArgv(dir, mc.Test); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	case raw.Group != nil:
		mc.Kind = "group"
		mc.Group = raw.Group
		if err := resolveTestArgv(dir, &mc.Group.Test); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	case raw.SNMP != nil:
		mc.Kind = "snmp"
		mc.SNMP = raw.SNMP
		mc.SNMP.applyDefaults()
		test := mc.SNMP.Test()
		if err := resolveTestArgv(dir, &test); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return mc, nil
}

func resolveTestArgv(basePath string, t *TestConfig) error {
	if t.Processor != nil && t.Processor.Ping != nil {
		t.Processor.Ping.applyDefaults()
		t.Command = "/usr/bin/env"
		t.Args = []string{"ping", "-c", fmt.Sprintf("%d", t.Processor.Ping.Count), t.Processor.Ping.Host}
	}
	argv, err := ResolveCommand(basePath, t.Command, t.Args)
	if err != nil {
		return err
	}
	t.Argv = argv
	return nil
}

// TemplateFields exposes a test monitor's scalar config to
// "monitor.config.*" templates.
func (t *TestConfig) TemplateFields() map[string]any {
	return map[string]any{
		"interval": t.Interval.String(),
		"timeout":  t.Timeout.String(),
		"command":  t.Command,
	}
}

// TemplateFields exposes a group monitor's id template; axis names are not
// included.
func (g *GroupConfig) TemplateFields() map[string]any {
	return map[string]any{
		"id": g.ID,
	}
}

// TemplateFields exposes an SNMP monitor's target host to templates.
func (s *SNMPConfig) TemplateFields() map[string]any {
	return map[string]any{
		"id":   s.ID,
		"host": s.Target.Host,
	}
}

// MarshalJSON lets AxisValue participate in JSON status output without
// quoting integers.
func (a AxisValue) MarshalJSON() ([]byte, error) {
	if a.IsString {
		b, err := json.Marshal(a.Str)
		return b, err
	}
	return []byte(fmt.Sprintf("%d", a.Number)), nil
}
