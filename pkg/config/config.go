package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Backend struct {
		BaseURL        string        `yaml:"base_url"`
		SocketURL      string        `yaml:"socket_url"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		HealthInterval time.Duration `yaml:"health_interval"`
	} `yaml:"backend"`

	Session struct {
		Mode           string        `yaml:"mode"` // demo | job | live
		JobID          string        `yaml:"job_id"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		FPSInterval    time.Duration `yaml:"fps_interval"`
		CaptureRate    float64       `yaml:"capture_rate"` // outbound frames/sec on the socket
	} `yaml:"session"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled    bool    `yaml:"enabled"`
		JaegerURL  string  `yaml:"jaeger_url"`
		SampleRate float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url must not be empty")
	}
	if c.Backend.RequestTimeout <= 0 {
		return fmt.Errorf("backend.request_timeout must be > 0")
	}
	if c.Backend.HealthInterval <= 0 {
		return fmt.Errorf("backend.health_interval must be > 0")
	}

	switch c.Session.Mode {
	case "demo", "job", "live":
	default:
		return fmt.Errorf("session.mode must be one of demo, job, live")
	}
	if c.Session.Mode == "job" && c.Session.JobID == "" {
		return fmt.Errorf("session.job_id must be set when session.mode=job")
	}
	if c.Session.ReconnectDelay <= 0 {
		return fmt.Errorf("session.reconnect_delay must be > 0")
	}
	if c.Session.FPSInterval <= 0 {
		return fmt.Errorf("session.fps_interval must be > 0")
	}
	if c.Session.CaptureRate <= 0 {
		return fmt.Errorf("session.capture_rate must be > 0")
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort <= 0 {
		return fmt.Errorf("monitoring.prometheus_port must be > 0 when prometheus_enabled=true")
	}

	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate <= 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be in (0, 1]")
		}
	}

	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	return nil
}

// Load reads configuration from a YAML file, applies defaults and env
// overrides. A missing file falls back to defaults.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Backend.BaseURL = "http://localhost:8000/api"
	cfg.Backend.SocketURL = "ws://localhost:8000/ws/live"
	cfg.Backend.RequestTimeout = 10 * time.Second
	cfg.Backend.HealthInterval = 10 * time.Second

	cfg.Session.Mode = "demo"
	cfg.Session.ReconnectDelay = 3 * time.Second
	cfg.Session.FPSInterval = time.Second
	cfg.Session.CaptureRate = 5

	cfg.Monitoring.PrometheusEnabled = true
	cfg.Monitoring.PrometheusPort = 9091

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("HAZARDLENS_BACKEND_URL"); url != "" {
		c.Backend.BaseURL = url
	}
	if url := os.Getenv("HAZARDLENS_SOCKET_URL"); url != "" {
		c.Backend.SocketURL = url
	}
	if mode := os.Getenv("HAZARDLENS_MODE"); mode != "" {
		c.Session.Mode = mode
	}
	if jobID := os.Getenv("HAZARDLENS_JOB_ID"); jobID != "" {
		c.Session.JobID = jobID
	}
	if level := os.Getenv("HAZARDLENS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}
