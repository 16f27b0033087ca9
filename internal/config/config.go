package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "smacview.yaml"

type Config struct {
	Log    Log    `yaml:"log"`
	Load   Load   `yaml:"load"`
	Report Report `yaml:"report"`
	Merge  Merge  `yaml:"merge"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Load struct {
	Parallel int `yaml:"parallel"`
}

type Report struct {
	Format string `yaml:"format"`
}

// Merge configures the external state-merge tool. The classpath is either
// listed explicitly or derived from a SMAC installation directory.
type Merge struct {
	Backend        string   `yaml:"backend"`
	Java           string   `yaml:"java"`
	SMACHome       string   `yaml:"smac_home"`
	Classpath      []string `yaml:"classpath"`
	Image          string   `yaml:"image"`
	TimeoutMinutes int      `yaml:"timeout_minutes"`
}

// Default is the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	if err := validate(cfg); err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return cfg
}

// Load reads the YAML config at path and fills in defaults for anything
// left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}
	if cfg.Load.Parallel < 0 {
		return fmt.Errorf("load.parallel must not be negative")
	}
	if cfg.Load.Parallel == 0 {
		cfg.Load.Parallel = 1
	}
	switch cfg.Report.Format {
	case "":
		cfg.Report.Format = "table"
	case "table", "markdown", "json":
	default:
		return fmt.Errorf("report.format must be table, markdown or json, got %q", cfg.Report.Format)
	}
	switch cfg.Merge.Backend {
	case "":
		cfg.Merge.Backend = "exec"
	case "exec", "docker":
	default:
		return fmt.Errorf("merge.backend must be exec or docker, got %q", cfg.Merge.Backend)
	}
	if cfg.Merge.Java == "" {
		cfg.Merge.Java = "java"
	}
	if cfg.Merge.Image == "" {
		cfg.Merge.Image = "eclipse-temurin:17-jre"
	}
	if cfg.Merge.TimeoutMinutes < 0 {
		return fmt.Errorf("merge.timeout_minutes must not be negative")
	}
	if cfg.Merge.TimeoutMinutes == 0 {
		cfg.Merge.TimeoutMinutes = 10
	}
	return nil
}
