package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Poll      PollConfig      `yaml:"poll"`
	NATS      NATSConfig      `yaml:"nats"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type WebSocketConfig struct {
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	MaxMessageSize int64         `yaml:"max_message_size"`
	SendBuffer     int           `yaml:"send_buffer"`
}

type PollConfig struct {
	MaxDurationSec int           `yaml:"max_duration_sec"` // 0 means unbounded
	TickInterval   time.Duration `yaml:"tick_interval"`
	QueueSize      int           `yaml:"queue_size"`
}

// NATSConfig configures the event mirror. An empty URL disables it.
type NATSConfig struct {
	URL           string `yaml:"url"`
	Stream        string `yaml:"stream"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:           6000,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			IdleTimeout:    120 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		WebSocket: WebSocketConfig{
			WriteTimeout:   10 * time.Second,
			ReadTimeout:    60 * time.Second,
			PingInterval:   30 * time.Second,
			MaxMessageSize: 4096,
			SendBuffer:     256,
		},
		Poll: PollConfig{
			MaxDurationSec: 300,
			TickInterval:   time.Second,
			QueueSize:      1024,
		},
		NATS: NATSConfig{
			Stream:        "POLL_EVENTS",
			SubjectPrefix: "poll.events",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvAsInt("PORT", c.Server.Port)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Poll.MaxDurationSec < 0 {
		return fmt.Errorf("poll.max_duration_sec must not be negative")
	}
	if c.Poll.TickInterval <= 0 {
		return fmt.Errorf("poll.tick_interval must be positive")
	}
	if c.WebSocket.PingInterval <= 0 || c.WebSocket.ReadTimeout <= 0 {
		return fmt.Errorf("websocket.ping_interval and websocket.read_timeout must be positive")
	}
	if c.WebSocket.PingInterval >= c.WebSocket.ReadTimeout {
		return fmt.Errorf("websocket.ping_interval %s must be shorter than websocket.read_timeout %s",
			c.WebSocket.PingInterval, c.WebSocket.ReadTimeout)
	}
	if c.NATS.URL != "" && (c.NATS.Stream == "" || c.NATS.SubjectPrefix == "") {
		return fmt.Errorf("nats.stream and nats.subject_prefix are required when nats.url is set")
	}
	return nil
}

// MaxDuration is the longest poll the server accepts
func (p PollConfig) MaxDuration() time.Duration {
	return time.Duration(p.MaxDurationSec) * time.Second
}

// Addr is the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
