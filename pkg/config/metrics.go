package config

import (
	"github.com/marmos91/strata/pkg/metrics"
)

// InitializeMetrics initializes metrics collection based on
// configuration.
//
// If metrics are enabled:
//   - Initializes the global Prometheus registry
//   - Creates (but does not start) the metrics HTTP server
//
// If metrics are disabled, the returned server is nil and all metric
// sinks created afterwards are no-ops.
func InitializeMetrics(cfg *Config) *metrics.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}

	metrics.InitRegistry()

	return metrics.NewServer(metrics.ServerConfig{
		Port: cfg.Metrics.Port,
	})
}
