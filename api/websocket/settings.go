package websocket

import (
	"time"

	"github.com/OldStager01/pool-occupancy/pkg/config"
)

const (
	defaultWriteWait       = 10 * time.Second
	defaultPongWait        = 60 * time.Second
	defaultMaxMessageSize  = 512
	defaultBufferSize      = 1024
	defaultClientBuffer    = 64
	defaultBroadcastBuffer = 256
)

// Settings are the resolved connection parameters shared by every client of a hub.
type Settings struct {
	MaxConnections  int
	WriteWait       time.Duration
	PongWait        time.Duration
	PingPeriod      time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	ClientBuffer    int
}

func NewSettings(cfg *config.WebSocketConfig) Settings {
	s := Settings{
		WriteWait:       defaultWriteWait,
		PongWait:        defaultPongWait,
		MaxMessageSize:  defaultMaxMessageSize,
		ReadBufferSize:  defaultBufferSize,
		WriteBufferSize: defaultBufferSize,
		ClientBuffer:    defaultClientBuffer,
	}

	if cfg != nil {
		s.MaxConnections = cfg.MaxConnections
		if cfg.WriteTimeout > 0 {
			s.WriteWait = cfg.WriteTimeout
		}
		if cfg.PongTimeout > 0 {
			s.PongWait = cfg.PongTimeout
		}
		if cfg.PingInterval > 0 {
			s.PingPeriod = cfg.PingInterval
		}
		if cfg.MaxMessageSize > 0 {
			s.MaxMessageSize = cfg.MaxMessageSize
		}
		if cfg.ReadBufferSize > 0 {
			s.ReadBufferSize = cfg.ReadBufferSize
		}
		if cfg.WriteBufferSize > 0 {
			s.WriteBufferSize = cfg.WriteBufferSize
		}
		if cfg.ClientBuffer > 0 {
			s.ClientBuffer = cfg.ClientBuffer
		}
	}

	// Pings must go out before the peer's read deadline expires.
	if s.PingPeriod <= 0 || s.PingPeriod >= s.PongWait {
		s.PingPeriod = (s.PongWait * 9) / 10
	}

	return s
}
