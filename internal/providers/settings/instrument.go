package settings

import (
	"context"

	"github.com/qisqifen/trilium/internal/infrastructure/monitoring"
)

type instrumented struct {
	Store
	backend string
	metrics *monitoring.Metrics
}

// Instrument records call counts and latency for every Get and Put.
func Instrument(store Store, backend string, metrics *monitoring.Metrics) Store {
	if metrics == nil {
		return store
	}
	return &instrumented{Store: store, backend: backend, metrics: metrics}
}

func (i *instrumented) Get(ctx context.Context, key string) (string, error) {
	timer := monitoring.NewTimer(i.metrics, i.backend, "get")
	value, err := i.Store.Get(ctx, key)
	timer.Stop(err)
	return value, err
}

func (i *instrumented) Put(ctx context.Context, key, value string) error {
	timer := monitoring.NewTimer(i.metrics, i.backend, "put")
	err := i.Store.Put(ctx, key, value)
	timer.Stop(err)
	return err
}
