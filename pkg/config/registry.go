package config

import (
	"context"
	"fmt"

	"github.com/marmos91/strata/internal/logger"
	"github.com/marmos91/strata/pkg/dataset"
	"github.com/marmos91/strata/pkg/metrics"
	"github.com/marmos91/strata/pkg/registry"
)

// InitializeRegistry builds one handler per configured target and
// registers them under their target names.
//
// On any failure the already-built handlers are closed before the
// error is returned, so no backend resources leak.
func InitializeRegistry(ctx context.Context, cfg *Config) (*registry.Registry, error) {
	reg := registry.NewRegistry()

	for name, target := range cfg.Targets {
		backend, mode, err := CreateBackend(ctx, name, &target)
		if err != nil {
			_ = reg.CloseAll(ctx)
			return nil, err
		}

		handler := dataset.NewIOHandler(backend, mode,
			dataset.WithMetrics(metrics.NewHandlerMetrics(name)))

		if err := reg.Register(name, handler); err != nil {
			_ = handler.Close(ctx)
			_ = reg.CloseAll(ctx)
			return nil, fmt.Errorf("registering target %q: %w", name, err)
		}

		logger.Debug("target registered: name=%s backend=%s mode=%s", name, target.Backend, target.Mode)
	}

	return reg, nil
}
