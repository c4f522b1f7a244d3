package config

import (
	"github.com/OldStager01/pool-occupancy/pkg/database"
)

func (d DatabaseConfig) ToDBConfig() database.Config {
	return database.Config{
		DSN:             d.DSN(),
		MaxConnections:  d.MaxConnections,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
		PingTimeout:     d.PingTimeout,
		ConnectAttempts: d.ConnectAttempts,
		ConnectBackoff:  d.ConnectBackoff,
	}
}
