package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/poolstats")
	}

	// Environment variable settings
	v.SetEnvPrefix("POOLSTATS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "poolstats")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "poolstats")
	v.SetDefault("database.user", "admin")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.migration_timeout", "60s")
	v.SetDefault("database.connect_attempts", 5)
	v.SetDefault("database.connect_backoff", "1s")

	// Collector defaults
	v.SetDefault("collector.type", "http")
	v.SetDefault("collector.endpoint", "http://localhost:9000")
	v.SetDefault("collector.timeout", "10s")
	v.SetDefault("collector.retry_attempts", 3)
	v.SetDefault("collector.retry_delay", "1s")
	v.SetDefault("collector.rate_limit", 2.0)
	v.SetDefault("collector.rate_burst", 1)
	v.SetDefault("collector.circuit_breaker.max_failures", 5)
	v.SetDefault("collector.circuit_breaker.timeout", "30s")

	// Pool time domain defaults
	v.SetDefault("pool.days", []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"})
	v.SetDefault("pool.open_hour", 7)
	v.SetDefault("pool.close_hour", 20)
	v.SetDefault("pool.windows", map[string]interface{}{
		"saturday": map[string]interface{}{"open": 8, "close": 18},
		"sunday":   map[string]interface{}{"open": 8, "close": 18},
	})

	// Capacity defaults
	v.SetDefault("capacity.source", "config")
	v.SetDefault("capacity.default", 50)

	// Severity defaults
	v.SetDefault("severity.very_low", 25)
	v.SetDefault("severity.low", 33)
	v.SetDefault("severity.medium", 42)
	v.SetDefault("severity.high", 52)

	// Refresh defaults
	v.SetDefault("refresh.enabled", false)
	v.SetDefault("refresh.interval", "5m")

	// API defaults
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.idle_timeout", "60s")
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("api.rate_burst", 20)
	v.SetDefault("api.max_body_bytes", 4<<20)
	v.SetDefault("api.max_readings", 10000)

	// WebSocket defaults
	v.SetDefault("websocket.max_connections", 1000)
	v.SetDefault("websocket.ping_interval", "30s")

	// Prometheus defaults
	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.port", 9090)

	v.SetDefault("events.buffer_size", 100)
}
