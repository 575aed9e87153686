// Package config loads the two YAML documents the daemon consumes: the
// global server/CSS/monitor-directory config, and the tagged-union
// per-monitor config.yaml found in each subdirectory of monitor.dir.
//
// Loading follows the teacher's own internal/config.Load shape (read file,
// expand ${VAR} references, unmarshal, fill defaults) generalized from a
// flat provider list to a directory tree of monitor definitions.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level document at <dir>/config.yaml.
type Config struct {
	Version  int            `yaml:"version"`
	Server   ServerConfig   `yaml:"server"`
	Monitor  MonitorDirRef  `yaml:"monitor"`
	CSS      CSSConfig      `yaml:"css"`
	UI       any            `yaml:"ui,omitempty" json:"ui,omitempty"`
	BasePath string         `yaml:"-"`
	ConfigD  map[string]any `yaml:"-" json:"config_d"`
}

// ServerConfig is the HTTP listener configuration.
type ServerConfig struct {
	Port       int    `yaml:"port"`
	ListenAddr string `yaml:"listen_addr"`
	Static     string `yaml:"static,omitempty"`
}

// MonitorDirRef names the directory holding one config.yaml per monitor.
type MonitorDirRef struct {
	Dir string `yaml:"dir"`
}

// CSSConfig is the global CSS generation config: the colour palette and any
// user-authored rules.
type CSSConfig struct {
	Metadata PaletteConfig `yaml:"metadata"`
	Rules    []CSSRule     `yaml:"rules"`
}

// PaletteConfig maps each status colour to the CSS custom properties it
// contributes.
type PaletteConfig struct {
	Blank  map[string]string `yaml:"blank,omitempty"`
	Red    map[string]string `yaml:"red,omitempty"`
	Yellow map[string]string `yaml:"yellow,omitempty"`
	Green  map[string]string `yaml:"green,omitempty"`
	Blue   map[string]string `yaml:"blue,omitempty"`
	Orange map[string]string `yaml:"orange,omitempty"`
}

// CSSRule is a user-authored stylesheet rule; selectors and declarations
// are rendered through the lenient monitor template context (§4.7).
type CSSRule struct {
	Selectors    string `yaml:"selectors"`
	Declarations string `yaml:"declarations"`
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{Port: 80, ListenAddr: "0.0.0.0", Static: "static"}
}

// Load reads, expands, and parses the global config at dir/config.yaml,
// then merges any dir/config.d/*.{yaml,json} overlays into ConfigD and
// rejects the deprecated "monitor.config.id" template reference.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Config{Server: defaultServerConfig(), Monitor: MonitorDirRef{Dir: "monitor.d"}}
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.BasePath = dir
	if cfg.Monitor.Dir == "" {
		cfg.Monitor.Dir = "monitor.d"
	}
	if !filepath.IsAbs(cfg.Monitor.Dir) {
		cfg.Monitor.Dir = filepath.Join(dir, cfg.Monitor.Dir)
	}
	if cfg.Server.Static != "" && !filepath.IsAbs(cfg.Server.Static) {
		cfg.Server.Static = filepath.Join(dir, cfg.Server.Static)
	}

	for _, rule := range cfg.CSS.Rules {
		if strings.Contains(rule.Selectors, "monitor.config.id") || strings.Contains(rule.Declarations, "monitor.config.id") {
			return nil, fmt.Errorf("deprecated reference 'monitor.config.id' found in a css rule; use 'monitor.id'")
		}
	}

	configD, err := loadConfigD(dir)
	if err != nil {
		return nil, err
	}
	cfg.ConfigD = configD

	return &cfg, nil
}

func loadConfigD(dir string) (map[string]any, error) {
	out := map[string]any{}
	configDDir := filepath.Join(dir, "config.d")
	entries, err := os.ReadDir(configDDir)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("reading config.d: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		data, err := os.ReadFile(filepath.Join(configDDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading config.d/%s: %w", entry.Name(), err)
		}
		var value any
		if err := yaml.Unmarshal(data, &value); err != nil {
			return nil, fmt.Errorf("parsing config.d/%s: %w", entry.Name(), err)
		}
		out[name] = value
	}
	return out, nil
}

// TemplateFields exposes the Config's scalar fields as a template map.
// Monitor template contexts never fall back to it; "monitor.config.*"
// comes from the monitor's own config only.
func (c *Config) TemplateFields() map[string]any {
	return map[string]any{
		"version": c.Version,
	}
}
