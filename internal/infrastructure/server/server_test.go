package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qisqifen/trilium/internal/domain/session"
	"github.com/qisqifen/trilium/internal/infrastructure/config"
	"github.com/qisqifen/trilium/internal/infrastructure/logging"
	"github.com/qisqifen/trilium/internal/providers/notetree"
	"github.com/qisqifen/trilium/internal/providers/settings"
	"github.com/qisqifen/trilium/internal/shared/types"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *settings.MemoryStore) {
	t.Helper()

	cfg := config.Default()
	cfg.Settings.Backend = "memory"
	cfg.Logging.Development = true
	if mutate != nil {
		mutate(cfg)
	}

	store := settings.NewMemory()
	tree := notetree.New(
		types.Note{NoteID: "journal", Title: "Journal", Type: "text"},
		types.Note{NoteID: "inbox", Title: "<b>Inbox</b>", Type: "text"},
	)

	srv, err := New(context.Background(), cfg, &logging.Logger{Logger: zap.NewNop()}, Overrides{Store: store, Tree: tree})
	require.NoError(t, err)
	return srv, store
}

func serve(srv *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRestoresFromInitialHash(t *testing.T) {
	srv, _ := newTestServer(t, func(cfg *config.Config) {
		cfg.Tabs.InitialHash = "#root/inbox-tab_x"
	})
	defer srv.Shutdown(context.Background())

	notePath, ok := srv.Manager().ActiveTabNotePath()
	require.True(t, ok)
	assert.Equal(t, "root/inbox", notePath)

	w := serve(srv, "GET", "/location")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Trilium Notes - Inbox")
}

func TestRoutesAndMiddleware(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	defer srv.Shutdown(context.Background())

	w := serve(srv, "GET", "/tabs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))

	w = serve(srv, "POST", "/tabs/next")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(srv, "GET", "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "tabs_http_requests_total")
	assert.Contains(t, body, "tabs_open")

	w = serve(srv, "GET", "/nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShutdownFlushesSession(t *testing.T) {
	srv, store := newTestServer(t, nil)

	_, err := srv.Manager().OpenTabWithNote(context.Background(), "root/journal", true, "j")
	require.NoError(t, err)
	require.NoError(t, srv.Shutdown(context.Background()))

	raw, err := store.Get(context.Background(), "openTabs")
	require.NoError(t, err)
	states, err := session.Decode(raw)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, types.TabState{NotePath: "root/journal", Active: true, TabID: "j"}, states[1])
}

func TestNewRejectsBadSeed(t *testing.T) {
	cfg := config.Default()
	cfg.Settings.Backend = "memory"
	cfg.NoteTree.SeedFile = "/nonexistent/tree.yaml"

	_, err := New(context.Background(), cfg, nil, Overrides{Store: settings.NewMemory()})
	assert.ErrorContains(t, err, "note tree seed")
}
