package config

import (
	"fmt"
	"time"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Collector  CollectorConfig  `mapstructure:"collector"`
	Pool       PoolConfig       `mapstructure:"pool"`
	Capacity   CapacityConfig   `mapstructure:"capacity"`
	Severity   SeverityConfig   `mapstructure:"severity"`
	Refresh    RefreshConfig    `mapstructure:"refresh"`
	API        APIConfig        `mapstructure:"api"`
	WebSocket  WebSocketConfig  `mapstructure:"websocket"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Events     EventsConfig     `mapstructure:"events"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Mode            string        `mapstructure:"mode"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Name             string        `mapstructure:"name"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	MaxConnections   int           `mapstructure:"max_connections"`
	SSLMode          string        `mapstructure:"ssl_mode"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime  time.Duration `mapstructure:"conn_max_idle_time"`
	PingTimeout      time.Duration `mapstructure:"ping_timeout"`
	ConnectAttempts  int           `mapstructure:"connect_attempts"`
	ConnectBackoff   time.Duration `mapstructure:"connect_backoff"`
	MigrationTimeout time.Duration `mapstructure:"migration_timeout"`
}

func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, sslMode,
	)
}

type CollectorConfig struct {
	Type           string               `mapstructure:"type"`
	Endpoint       string               `mapstructure:"endpoint"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	RetryAttempts  int                  `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration        `mapstructure:"retry_delay"`
	RateLimit      float64              `mapstructure:"rate_limit"`
	RateBurst      int                  `mapstructure:"rate_burst"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// PoolConfig describes the time domain: the week days the pool reports on, the
// canonical opening hours and optional shorter windows per day.
type PoolConfig struct {
	Days      []string                `mapstructure:"days"`
	OpenHour  int                     `mapstructure:"open_hour"`
	CloseHour int                     `mapstructure:"close_hour"`
	Windows   map[string]WindowConfig `mapstructure:"windows"`
}

type WindowConfig struct {
	Open  int `mapstructure:"open"`
	Close int `mapstructure:"close"`
}

type CapacityConfig struct {
	Source  string       `mapstructure:"source"`
	Default int          `mapstructure:"default"`
	Slots   []SlotConfig `mapstructure:"slots"`
}

type SlotConfig struct {
	Day      string `mapstructure:"day"`
	Hour     int    `mapstructure:"hour"`
	Capacity int    `mapstructure:"capacity"`
}

type SeverityConfig struct {
	VeryLow int `mapstructure:"very_low"`
	Low     int `mapstructure:"low"`
	Medium  int `mapstructure:"medium"`
	High    int `mapstructure:"high"`
}

type RefreshConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Weeks    []string      `mapstructure:"weeks"`
	Interval time.Duration `mapstructure:"interval"`
}

type APIConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	RateBurst    int           `mapstructure:"rate_burst"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	MaxReadings  int           `mapstructure:"max_readings"`
	CORS         CORSConfig    `mapstructure:"cors"`
}

type WebSocketConfig struct {
	MaxConnections  int           `mapstructure:"max_connections"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	ClientBuffer    int           `mapstructure:"client_buffer"`
}

type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}
