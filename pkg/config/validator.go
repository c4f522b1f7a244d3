package config

import (
	"errors"
	"fmt"

	"github.com/OldStager01/pool-occupancy/pkg/validation"
)

func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, errors.New("database.port must be between 1 and 65535"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is required"))
	}
	if c.Database.MaxConnections <= 0 {
		errs = append(errs, errors.New("database.max_connections must be positive"))
	}

	// Collector validation
	validCollectors := map[string]bool{"http": true, "mock": true}
	if !validCollectors[c.Collector.Type] {
		errs = append(errs, errors.New("collector.type must be one of: http, mock"))
	}
	if c.Collector.Type == "http" && c.Collector.Endpoint == "" {
		errs = append(errs, errors.New("collector.endpoint is required for the http collector"))
	}
	if c.Collector.Timeout <= 0 {
		errs = append(errs, errors.New("collector.timeout must be positive"))
	}
	if c.Collector.RateLimit < 0 {
		errs = append(errs, errors.New("collector.rate_limit must not be negative"))
	}

	// Time domain, capacity and thresholds are validated by building them
	if _, err := c.Pool.Domain(); err != nil {
		errs = append(errs, fmt.Errorf("pool: %w", err))
	}
	validSources := map[string]bool{"config": true, "database": true}
	if !validSources[c.Capacity.Source] {
		errs = append(errs, errors.New("capacity.source must be one of: config, database"))
	}
	if _, err := c.Capacity.Table(); err != nil {
		errs = append(errs, fmt.Errorf("capacity: %w", err))
	}
	if err := c.Severity.Thresholds().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("severity: %w", err))
	}

	// Refresh validation
	if c.Refresh.Enabled {
		if c.Refresh.Interval <= 0 {
			errs = append(errs, errors.New("refresh.interval must be positive"))
		}
		if c.Collector.Timeout >= c.Refresh.Interval {
			errs = append(errs, errors.New("collector.timeout must be less than refresh.interval"))
		}
		for _, week := range c.Refresh.Weeks {
			if err := validation.ValidateWeekID(week); err != nil {
				errs = append(errs, fmt.Errorf("refresh.weeks: %w", err))
			}
		}
	}

	// API validation
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, errors.New("api.rate_limit must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
