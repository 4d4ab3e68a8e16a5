package config

import (
	"github.com/marmos91/dfsclient/pkg/metrics"
)

// InitializeMetrics initializes the global registry and returns the HTTP
// server exposing it, or nil when metrics are disabled. Call it before
// Connect so the stores and the facade pick up collectors.
func InitializeMetrics(cfg *Config) *metrics.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}

	metrics.InitRegistry()

	return metrics.NewServer(metrics.ServerConfig{
		Host: cfg.Metrics.Host,
		Port: cfg.Metrics.Port,
	})
}
