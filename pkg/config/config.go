/*
Package config loads moorcore's YAML configuration file and layers cobra
flag overrides on top of it.
*/
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/moorcore/pkg/log"
)

// Config is moorcore's full runtime configuration.
type Config struct {
	DataDir   string          `yaml:"dataDir"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// LogConfig controls pkg/log.Init.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	ListenAddr string `yaml:"listenAddr"`
}

// SchedulerConfig controls pkg/scheduler.Config.
type SchedulerConfig struct {
	RetryLimit int `yaml:"retryLimit"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		DataDir: "./data",
		Log: LogConfig{
			Level: string(log.InfoLevel),
		},
		Metrics: MetricsConfig{
			ListenAddr: ":9090",
		},
		Scheduler: SchedulerConfig{
			RetryLimit: 3,
		},
	}
}

// Load reads and parses a YAML configuration file at path, starting from
// Default() so an absent field keeps its default rather than zeroing out.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
