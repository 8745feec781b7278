package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/wyvern0us/proxy/internal/api/http"
	"github.com/wyvern0us/proxy/internal/api/middleware"
	"github.com/wyvern0us/proxy/internal/auth"
	"github.com/wyvern0us/proxy/internal/chat"
	"github.com/wyvern0us/proxy/internal/infrastructure/config"
	"github.com/wyvern0us/proxy/internal/infrastructure/logging"
	"github.com/wyvern0us/proxy/internal/infrastructure/monitoring"
	"github.com/wyvern0us/proxy/internal/relay"
	"github.com/wyvern0us/proxy/internal/ws"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	cfg     *config.Config
	router  *gin.Engine
	httpSrv *http.Server
	logger  *logging.Logger
	hub     *chat.Hub
	store   *auth.Store
	stopHub context.CancelFunc
	hubDone chan struct{}
}

// New assembles the full service from configuration.
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	metrics := monitoring.NewMetrics()

	// Outbound relay.
	rly := relay.New(relay.Config{
		Timeout:       cfg.Relay.Timeout,
		MaxBodyBytes:  cfg.Relay.MaxBodyBytes,
		EmbedOverride: cfg.Relay.EmbedOverride,
	}, logger).WithMetrics(metrics)

	// Broadcast hub, driven by its own loop until Close.
	hub := chat.NewHub(chat.Config{
		HistorySize:    cfg.Hub.HistorySize,
		SendBufferSize: cfg.Hub.SendBufferSize,
	}, logger).WithMetrics(metrics)

	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(hubCtx)
	}()

	// Credential store.
	store, err := auth.NewStore(cfg.Auth.DataDir, logger)
	if err != nil {
		stopHub()
		return nil, fmt.Errorf("failed to initialize auth store: %w", err)
	}
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTKey, cfg.Auth.TokenTTL)
	if cfg.Auth.JWTKey == "" {
		logger.Warn("Using ephemeral JWT signing key; tokens will not survive restarts",
			zap.String("key_fingerprint", tokens.KeyFingerprint()),
		)
	}

	// Router and middleware stack.
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(rly, hub, store, tokens, logger)
	wsHandler := ws.NewHandler(hub, logger).WithMetrics(metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Embedded browsing.
	router.GET("/proxy", handlers.Proxy)

	// Realtime chat.
	router.GET("/ws", wsHandler.HandleConnection)

	// Accounts.
	router.POST("/auth/register", handlers.Register)
	router.POST("/auth/login", handlers.Login)

	// Desktop frontend assets.
	if cfg.Server.StaticDir != "" {
		router.Static("/desktop", cfg.Server.StaticDir)
	}

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	return &Server{
		cfg:    cfg,
		router: router,
		httpSrv: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:  logger,
		hub:     hub,
		store:   store,
		stopHub: stopHub,
		hubDone: hubDone,
	}, nil
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	s.logger.Info("Starting desktop service",
		zap.String("addr", s.httpSrv.Addr),
		zap.Duration("relay_timeout", s.cfg.Relay.Timeout),
		zap.Int("history_size", s.cfg.Hub.HistorySize),
	)

	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close drains the HTTP server, stops the hub loop, and releases storage.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	s.stopHub()
	select {
	case <-s.hubDone:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("hub shutdown: %w", ctx.Err()))
	}

	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	s.logger.Info("Desktop service stopped")
	return errors.Join(errs...)
}
