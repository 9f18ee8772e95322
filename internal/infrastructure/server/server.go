package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	apihttp "github.com/qisqifen/trilium/internal/api/http"
	"github.com/qisqifen/trilium/internal/api/middleware"
	"github.com/qisqifen/trilium/internal/api/ws"
	"github.com/qisqifen/trilium/internal/domain/address"
	"github.com/qisqifen/trilium/internal/domain/session"
	"github.com/qisqifen/trilium/internal/domain/tabs"
	"github.com/qisqifen/trilium/internal/infrastructure/config"
	"github.com/qisqifen/trilium/internal/infrastructure/events"
	"github.com/qisqifen/trilium/internal/infrastructure/logging"
	"github.com/qisqifen/trilium/internal/infrastructure/monitoring"
	"github.com/qisqifen/trilium/internal/infrastructure/tracing"
	"github.com/qisqifen/trilium/internal/providers/notetree"
	"github.com/qisqifen/trilium/internal/providers/settings"
)

const shutdownTimeout = 10 * time.Second

// Overrides replace collaborators that New would otherwise build from
// configuration.
type Overrides struct {
	Store settings.Store
	Tree  tabs.NoteTree
}

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg        *config.Config
	router     *gin.Engine
	httpServer *http.Server
	manager    *tabs.Manager
	history    *address.History
	store      settings.Store
	bus        *events.Bus[tabs.Notification]
	tracer     *tracing.Tracer
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// New builds the tab session and restores it. The URL target is taken from
// cfg.Tabs.InitialHash.
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger, overrides Overrides) (*Server, error) {
	if logger == nil {
		logger = logging.NewDefault()
	}
	metrics := monitoring.NewMetrics()

	store := overrides.Store
	if store == nil {
		var err error
		store, err = settings.Open(cfg.Settings, logger.Component("settings"), metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to open settings store: %w", err)
		}
	}

	tree := overrides.Tree
	if tree == nil {
		cache, err := notetree.LoadFile(cfg.NoteTree.SeedFile)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		logger.Info("Note tree loaded", zap.Int("notes", cache.Len()))
		tree = cache
	}

	bus := events.NewBus[tabs.Notification]()
	bus.OnDrop = func(tabs.Notification) { metrics.IncDropped() }

	sess := session.NewManager(store, session.Options{
		OpenTabsKey: cfg.Settings.OpenTabsKey,
		HoistedKey:  cfg.Settings.HoistedKey,
		Logger:      logger.Component("session"),
	})
	history := address.NewHistory(cfg.Tabs.InitialHash, cfg.Tabs.HistoryLimit)

	manager := tabs.NewManager(tabs.Deps{
		Tree:         tree,
		Session:      sess,
		Address:      address.NewSynchronizer(history, cfg.Tabs.BaseTitle, logger.Component("address")),
		Publisher:    bus,
		Mobile:       cfg.Tabs.Mobile,
		SaveInterval: cfg.Tabs.SaveInterval(),
		Logger:       logger.Component("tabs"),
		Metrics:      metrics,
	})

	urlTarget, _ := address.ParseFragment(cfg.Tabs.InitialHash)
	if err := manager.LoadTabs(ctx, urlTarget); err != nil {
		bus.Close()
		_ = store.Close()
		return nil, fmt.Errorf("failed to load tabs: %w", err)
	}

	tracer := tracing.New("tabs", logger.Component("tracing"))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	if cfg.Server.Gzip {
		router.Use(middleware.Gzip(gzip.DefaultCompression, "/stream", "/metrics"))
	}

	apihttp.NewHandlers(apihttp.Deps{
		Tabs:     manager,
		Session:  sess,
		Location: history,
		Metrics:  metrics,
		Logger:   logger.Component("http"),
	}).Register(router)

	router.GET("/stream", ws.NewHandler(ws.Deps{
		Tabs:    manager,
		Bus:     bus,
		Metrics: metrics,
		Tracer:  tracer,
		Logger:  logger.Component("ws"),
	}).HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	return &Server{
		cfg:    cfg,
		router: router,
		httpServer: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		manager: manager,
		history: history,
		store:   store,
		bus:     bus,
		tracer:  tracer,
		metrics: metrics,
		logger:  logger.Component("server"),
	}, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Manager returns the tab manager.
func (s *Server) Manager() *tabs.Manager {
	return s.manager
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves HTTP until Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("Starting tab session service", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops serving, flushes the session and releases resources.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := s.manager.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	s.bus.Close()
	s.tracer.Close()
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close settings store: %w", err))
	}

	err := errors.Join(errs...)
	if err != nil {
		s.logger.Error("Shutdown finished with errors", zap.Error(err))
	} else {
		s.logger.Info("Shutdown complete")
	}
	return err
}
