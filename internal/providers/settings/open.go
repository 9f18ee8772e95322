package settings

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/qisqifen/trilium/internal/infrastructure/config"
	"github.com/qisqifen/trilium/internal/infrastructure/monitoring"
)

// Open builds the store selected by cfg.Backend.
func Open(cfg config.SettingsConfig, logger *zap.Logger, metrics *monitoring.Metrics) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Backend {
	case "sqlite":
		store, err = OpenSQLite(cfg.SQLitePath)
	case "remote":
		store = NewRemote(RemoteOptions{
			BaseURL:  cfg.RemoteURL,
			Token:    cfg.RemoteToken,
			Timeout:  cfg.Timeout(),
			RetryMax: 3,
			Logger:   logger,
		})
	case "memory":
		store = NewMemory()
	default:
		return nil, fmt.Errorf("unknown settings backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	return Instrument(store, cfg.Backend, metrics), nil
}
