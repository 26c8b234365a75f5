package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const eventDateFormat = "2006-01-02"

// Config holds the application configuration
type Config struct {
	DataPath string         `yaml:"data_path,omitempty"` // CSV read when no path argument is given
	Report   ReportConfig   `yaml:"report,omitempty"`
	Events   []EventConfig  `yaml:"events,omitempty"`
	MQTT     MQTTConfig     `yaml:"mqtt,omitempty"`
	Server   ServerConfig   `yaml:"server,omitempty"`
	Snapshot SnapshotConfig `yaml:"snapshot,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// ReportConfig controls the dashboard contents
type ReportConfig struct {
	Title       string   `yaml:"title,omitempty"`
	Headers     []string `yaml:"headers,omitempty"`
	OutputPath  string   `yaml:"output_path,omitempty"`
	Lags        int      `yaml:"lags,omitempty"`   // ACF/PACF lags (fallback: 30)
	Period      int      `yaml:"period,omitempty"` // seasonal period in days (fallback: 7)
	Alpha       float64  `yaml:"alpha,omitempty"`  // fallback: 0.05
	PreviewRows int      `yaml:"preview_rows,omitempty"`
	SummaryDays int      `yaml:"summary_days,omitempty"`
}

// EventConfig is a named inclusive date window, dates as YYYY-MM-DD
type EventConfig struct {
	Name  string `yaml:"name"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// MQTTConfig holds broker settings for publishing run summaries
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`                 // host:port
	ClientID    string `yaml:"client_id,omitempty"`    // fallback: taxistats
	TopicPrefix string `yaml:"topic_prefix,omitempty"` // fallback: taxistats
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	Retain      bool   `yaml:"retain,omitempty"`
}

// ServerConfig holds the dashboard server settings
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"` // fallback: :8501
}

// SnapshotConfig holds headless browser settings
type SnapshotConfig struct {
	OutputPath string        `yaml:"output_path,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // console or json
}

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Default returns a config with every fallback value spelled out
func Default() *Config {
	return &Config{
		DataPath: filepath.Join("data", "dataset.csv"),
		Report: ReportConfig{
			Title:       "NYC Taxi Rides Analysis",
			OutputPath:  "report.html",
			Lags:        30,
			Period:      7,
			Alpha:       0.05,
			PreviewRows: 5,
			SummaryDays: 7,
		},
		MQTT: MQTTConfig{
			Broker:      "localhost:1883",
			ClientID:    "taxistats",
			TopicPrefix: "taxistats",
		},
		Server:   ServerConfig{Addr: ":8501"},
		Snapshot: SnapshotConfig{OutputPath: "report.png", Timeout: time.Minute},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
	}
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// Validate checks the values that have no sensible fallback
func (c *Config) Validate() error {
	if c.Report.Alpha < 0 || c.Report.Alpha >= 1 {
		return fmt.Errorf("report.alpha must be between 0 and 1")
	}
	if c.Report.Period == 1 || c.Report.Period < 0 {
		return fmt.Errorf("report.period must be at least 2")
	}
	if c.Report.Lags < 0 {
		return fmt.Errorf("report.lags must not be negative")
	}

	for i, ev := range c.Events {
		if ev.Name == "" {
			return fmt.Errorf("events[%d].name is required", i)
		}
		start, end, err := ev.Window()
		if err != nil {
			return fmt.Errorf("events[%d] (%s): %w", i, ev.Name, err)
		}
		if end.Before(start) {
			return fmt.Errorf("events[%d] (%s): end is before start", i, ev.Name)
		}
	}

	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}

	switch c.GetLogLevel() {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	switch c.GetLogFormat() {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be one of: console, json")
	}

	return nil
}

// Window parses the event dates
func (e EventConfig) Window() (time.Time, time.Time, error) {
	start, err := time.Parse(eventDateFormat, e.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing start: %w", err)
	}
	end, err := time.Parse(eventDateFormat, e.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing end: %w", err)
	}
	return start, end, nil
}

// GetDataPath returns the CSV path with a default of data/dataset.csv
func (c *Config) GetDataPath() string {
	if c.DataPath == "" {
		return filepath.Join("data", "dataset.csv")
	}
	return c.DataPath
}

// GetReportPath returns where the HTML dashboard is written
func (c *Config) GetReportPath() string {
	if c.Report.OutputPath == "" {
		return "report.html"
	}
	return c.Report.OutputPath
}

// GetSnapshotPath returns where dashboard screenshots are written
func (c *Config) GetSnapshotPath() string {
	if c.Snapshot.OutputPath == "" {
		return "report.png"
	}
	return c.Snapshot.OutputPath
}

// GetSnapshotTimeout returns the browser timeout (default 1 minute)
func (c *Config) GetSnapshotTimeout() time.Duration {
	if c.Snapshot.Timeout <= 0 {
		return time.Minute
	}
	return c.Snapshot.Timeout
}

// GetServerAddr returns the listen address of the dashboard server
func (c *Config) GetServerAddr() string {
	if c.Server.Addr == "" {
		return ":8501"
	}
	return c.Server.Addr
}

// GetTopicPrefix returns the MQTT topic prefix
func (c *Config) GetTopicPrefix() string {
	if c.MQTT.TopicPrefix == "" {
		return "taxistats"
	}
	return c.MQTT.TopicPrefix
}

// GetLogLevel returns the log level, defaulting to info
func (c *Config) GetLogLevel() string {
	if c.Logging.Level == "" {
		return "info"
	}
	return c.Logging.Level
}

// GetLogFormat returns the log format, defaulting to console
func (c *Config) GetLogFormat() string {
	if c.Logging.Format == "" {
		return "console"
	}
	return c.Logging.Format
}
