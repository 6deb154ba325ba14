package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Gray Logic Autopilot service.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Autopilot AutopilotConfig `yaml:"autopilot"`
	Show      ShowConfig      `yaml:"show"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DatabaseConfig contains SQLite settings for the project store.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// CORSConfig lists the origins allowed to call the API. An empty list
// allows every origin.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains WebSocket hub settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// AutopilotConfig contains settings for the automation controller.
type AutopilotConfig struct {
	// LibraryFile is the YAML file describing which pattern parameters are automated.
	LibraryFile string `yaml:"library_file"`

	// Seed fixes the random source. Zero seeds from the clock.
	Seed uint64 `yaml:"seed"`

	// TickIntervalMS is how often the modulation engine advances.
	TickIntervalMS int `yaml:"tick_interval_ms"`

	// Autosave saves the project after every enable/disable/reset.
	Autosave bool `yaml:"autosave"`
}

// ShowConfig describes the show graph the host builds on startup.
type ShowConfig struct {
	Channels []ChannelConfig `yaml:"channels"`
}

// ChannelConfig describes one channel of the show graph.
type ChannelConfig struct {
	Label    string            `yaml:"label"`
	Blends   []string          `yaml:"blends"`
	Patterns []ComponentConfig `yaml:"patterns"`
	Effects  []ComponentConfig `yaml:"effects"`
}

// ComponentConfig describes a pattern or effect instance.
type ComponentConfig struct {
	Type       string            `yaml:"type"`
	Label      string            `yaml:"label"`
	Parameters []ParameterConfig `yaml:"parameters"`
}

// ParameterConfig describes a parameter exposed by a pattern or effect.
//
// Kind is one of "bounded" (default), "discrete" or "toggle".
type ParameterConfig struct {
	Path  string  `yaml:"path"`
	Label string  `yaml:"label"`
	Kind  string  `yaml:"kind"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	Value float64 `yaml:"value"`
}

// Load builds a Config in three layers: built-in defaults, then the YAML
// file at path, then GRAYLOGIC_* environment variables (see envOverrides).
// The result is validated before it is returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{ID: "site-001", Name: "Gray Logic"},
		Database: DatabaseConfig{
			Path:        "./data/autopilot.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker:    MQTTBrokerConfig{Host: "localhost", Port: 1883, ClientID: "graylogic-autopilot"},
			QoS:       1,
			Reconnect: MQTTReconnectConfig{InitialDelay: 1, MaxDelay: 60},
		},
		API: APIConfig{
			Host:     "0.0.0.0",
			Port:     8090,
			Timeouts: APITimeoutConfig{Read: 30, Write: 30, Idle: 60},
		},
		WebSocket: WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10},
		Logging:   LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		Autopilot: AutopilotConfig{
			LibraryFile:    "configs/library.yaml",
			TickIntervalMS: 40,
		},
	}
}

// envOverride binds one environment variable to a config field.
type envOverride struct {
	name string
	set  func(c *Config, v string) error
}

func setString(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func setBool(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

// envOverrides lists every supported GRAYLOGIC_* variable. Secrets belong here
// rather than in the YAML file.
var envOverrides = []envOverride{
	{"GRAYLOGIC_DATABASE_PATH", setString(func(c *Config) *string { return &c.Database.Path })},
	{"GRAYLOGIC_MQTT_ENABLED", setBool(func(c *Config) *bool { return &c.MQTT.Enabled })},
	{"GRAYLOGIC_MQTT_HOST", setString(func(c *Config) *string { return &c.MQTT.Broker.Host })},
	{"GRAYLOGIC_MQTT_USERNAME", setString(func(c *Config) *string { return &c.MQTT.Auth.Username })},
	{"GRAYLOGIC_MQTT_PASSWORD", setString(func(c *Config) *string { return &c.MQTT.Auth.Password })},
	{"GRAYLOGIC_API_HOST", setString(func(c *Config) *string { return &c.API.Host })},
	{"GRAYLOGIC_INFLUXDB_ENABLED", setBool(func(c *Config) *bool { return &c.InfluxDB.Enabled })},
	{"GRAYLOGIC_INFLUXDB_URL", setString(func(c *Config) *string { return &c.InfluxDB.URL })},
	{"GRAYLOGIC_INFLUXDB_TOKEN", setString(func(c *Config) *string { return &c.InfluxDB.Token })},
	{"GRAYLOGIC_AUTOPILOT_LIBRARY", setString(func(c *Config) *string { return &c.Autopilot.LibraryFile })},
	{"GRAYLOGIC_AUTOPILOT_SEED", func(c *Config, v string) error {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}
		c.Autopilot.Seed = seed
		return nil
	}},
	{"GRAYLOGIC_AUTOPILOT_AUTOSAVE", setBool(func(c *Config) *bool { return &c.Autopilot.Autosave })},
}

// applyEnv applies every envOverride whose variable is set and non-empty.
// A value that does not parse is an error rather than silently ignored.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	for _, o := range envOverrides {
		v, ok := lookup(o.name)
		if !ok || v == "" {
			continue
		}
		if err := o.set(c, v); err != nil {
			return fmt.Errorf("environment %s=%q: %w", o.name, v, err)
		}
	}
	return nil
}

// Validate reports every problem in one error.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	check(c.Site.ID != "", "site.id is required")
	check(c.Database.Path != "", "database.path is required")
	check(c.MQTT.QoS >= 0 && c.MQTT.QoS <= 2, "mqtt.qos must be 0, 1, or 2")
	check(!c.MQTT.Enabled || c.MQTT.Broker.Host != "", "mqtt.broker.host is required when mqtt is enabled")
	check(c.API.Port >= 1 && c.API.Port <= 65535, "api.port must be between 1 and 65535")
	check(!c.InfluxDB.Enabled || c.InfluxDB.URL != "", "influxdb.url is required when influxdb is enabled")
	check(c.Autopilot.TickIntervalMS > 0, "autopilot.tick_interval_ms must be positive")
	problems = append(problems, c.Show.validate()...)

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("configuration errors: %s", strings.Join(problems, "; "))
}

func (s ShowConfig) validate() []string {
	var problems []string
	for i, ch := range s.Channels {
		where := fmt.Sprintf("show.channels[%d]", i)
		if ch.Label == "" {
			problems = append(problems, where+".label is required")
		}
		for j, comp := range slices.Concat(ch.Patterns, ch.Effects) {
			if comp.Type == "" {
				problems = append(problems, fmt.Sprintf("%s component %d: type is required", where, j))
			}
			for _, p := range comp.Parameters {
				if p.Path == "" {
					problems = append(problems, fmt.Sprintf("%s component %q: parameter path is required", where, comp.Type))
				}
				switch p.Kind {
				case "", "bounded", "discrete", "toggle":
				default:
					problems = append(problems, fmt.Sprintf("%s parameter %q: unknown kind %q", where, p.Path, p.Kind))
				}
			}
		}
	}
	return problems
}

// ReadTimeout returns the HTTP read timeout.
func (t APITimeoutConfig) ReadTimeout() time.Duration { return time.Duration(t.Read) * time.Second }

// WriteTimeout returns the HTTP write timeout.
func (t APITimeoutConfig) WriteTimeout() time.Duration { return time.Duration(t.Write) * time.Second }

// IdleTimeout returns the HTTP keep-alive idle timeout.
func (t APITimeoutConfig) IdleTimeout() time.Duration { return time.Duration(t.Idle) * time.Second }

// GetTickInterval returns the modulation tick interval as a Duration.
func (c *Config) GetTickInterval() time.Duration {
	return time.Duration(c.Autopilot.TickIntervalMS) * time.Millisecond
}
