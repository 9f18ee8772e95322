package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qisqifen/trilium/internal/infrastructure/config"
	"github.com/qisqifen/trilium/internal/infrastructure/monitoring"
	"github.com/qisqifen/trilium/internal/infrastructure/resilience"
)

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "openTabs")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "openTabs", `[{"notePath":"root","active":true}]`))
	value, err := store.Get(ctx, "openTabs")
	require.NoError(t, err)
	assert.Equal(t, `[{"notePath":"root","active":true}]`, value)

	require.NoError(t, store.Put(ctx, "openTabs", `[]`))
	value, err = store.Get(ctx, "openTabs")
	require.NoError(t, err)
	assert.Equal(t, `[]`, value)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemory()
	exerciseStore(t, store)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "options.db")

	store, err := OpenSQLite(path)
	require.NoError(t, err)
	exerciseStore(t, store)

	modified, err := store.Modified(context.Background(), "openTabs")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), modified, time.Minute)

	_, err = store.Modified(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Get(context.Background(), "openTabs")
	require.NoError(t, err)
	assert.Equal(t, `[]`, value, "values survive reopening")
}

// optionsServer mimics a note server's options API.
type optionsServer struct {
	mu     sync.Mutex
	values map[string]string
	fail   atomic.Bool
	calls  atomic.Int32
}

func newOptionsServer(t *testing.T) (*optionsServer, *httptest.Server) {
	s := &optionsServer{values: make(map[string]string)}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /options/{name}", func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		if s.fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		s.mu.Lock()
		value, ok := s.values[r.PathValue("name")]
		s.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(optionResponse{Name: r.PathValue("name"), Value: value})
	})
	mux.HandleFunc("PUT /options", func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		if s.fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		for k, v := range body {
			s.values[k] = v
		}
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return s, srv
}

func TestRemoteStore(t *testing.T) {
	_, srv := newOptionsServer(t)

	store := NewRemote(RemoteOptions{BaseURL: srv.URL + "/", Timeout: time.Second})
	exerciseStore(t, store)
	assert.Equal(t, resilience.StateClosed, store.BreakerState())
	assert.NoError(t, store.Close())
}

func TestRemoteStoreBreakerOpens(t *testing.T) {
	server, srv := newOptionsServer(t)
	server.fail.Store(true)

	breaker := resilience.New("test", resilience.Settings{
		Timeout: time.Hour,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 2
		},
	})
	store := NewRemote(RemoteOptions{
		BaseURL:      srv.URL,
		Timeout:      time.Second,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: time.Millisecond,
		Breaker:      breaker,
	})
	ctx := context.Background()

	assert.Error(t, store.Put(ctx, "openTabs", "[]"))
	assert.Error(t, store.Put(ctx, "openTabs", "[]"))
	calls := server.calls.Load()

	err := store.Put(ctx, "openTabs", "[]")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, calls, server.calls.Load(), "open breaker does not reach the server")
}

func TestRemoteStoreNotFoundDoesNotTrip(t *testing.T) {
	_, srv := newOptionsServer(t)
	store := NewRemote(RemoteOptions{BaseURL: srv.URL, Timeout: time.Second})

	for i := 0; i < 10; i++ {
		_, err := store.Get(context.Background(), "missing")
		require.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, resilience.StateClosed, store.BreakerState())
}

func TestRemoteStoreRetries(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := NewRemote(RemoteOptions{
		BaseURL:      srv.URL,
		Timeout:      5 * time.Second,
		RetryMax:     3,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	})

	require.NoError(t, store.Put(context.Background(), "openTabs", "[]"))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestInstrument(t *testing.T) {
	metrics := monitoring.NewMetrics()
	store := Instrument(NewMemory(), "memory", metrics)

	_, _ = store.Get(context.Background(), "missing")
	require.NoError(t, store.Put(context.Background(), "k", "v"))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreCalls.WithLabelValues("memory", "get", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreCalls.WithLabelValues("memory", "put", "success")))

	plain := NewMemory()
	assert.Same(t, plain, Instrument(plain, "memory", nil))
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SettingsConfig
		wantErr bool
	}{
		{name: "memory", cfg: config.SettingsConfig{Backend: "memory"}},
		{name: "sqlite", cfg: config.SettingsConfig{Backend: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "o.db")}},
		{name: "remote", cfg: config.SettingsConfig{Backend: "remote", RemoteURL: "http://127.0.0.1:1", TimeoutMillis: 100}},
		{name: "unknown", cfg: config.SettingsConfig{Backend: "etcd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(tt.cfg, nil, monitoring.NewMetrics())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, store.Close())
		})
	}
}
