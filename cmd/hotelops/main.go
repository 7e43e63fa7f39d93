package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"hotelops/internal/api"
	"hotelops/internal/board"
	"hotelops/internal/config"
	"hotelops/internal/extraction"
	"hotelops/internal/extractor"
	"hotelops/internal/logger"
	"hotelops/internal/monitoring"
	"hotelops/internal/notify"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	issueToken  = flag.String("issue-token", "", "Print a manager token for this subject and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort != 0 {
		cfg.Server.MetricsPort = *metricsPort
	}

	if *issueToken != "" {
		if cfg.Auth.JWTSecret == "" {
			log.Fatal("auth.jwt_secret is not configured")
		}
		token, err := api.IssueToken(cfg.Auth.JWTSecret, *issueToken, 12*time.Hour)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	zl, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		FilePath:   cfg.Log.File,
		Production: cfg.IsProduction(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server.exit", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	be, err := openBackend(cfg, zl)
	if err != nil {
		return err
	}
	defer be.close()

	ext, err := initializeExtractor(cfg, zl)
	if err != nil {
		return err
	}

	metrics := monitoring.NewMetricsCollector(nil)
	hub := notify.NewHub(zl)
	defer hub.Close()

	engine := board.NewEngine(be.tasks,
		board.WithRoster(be.tasks),
		board.WithMetrics(metrics),
		board.WithLogger(zl.Named("board")),
		board.WithCancelReason(cfg.Board.DefaultCancelReason),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := api.NewServer(api.Deps{
		Menu:      be.menu,
		Tasks:     be.tasks,
		Board:     board.NewBoard(be.tasks, engine, zl.Named("board")),
		Extractor: ext,
		Metrics:   metrics,
		Publisher: hub,
		Logger:    zl,
		Stream:    hub.Handler(),
		JWTSecret: cfg.Auth.JWTSecret,
		UploadLimits: extraction.UploadLimits{
			MaxBytes:  cfg.Extraction.MaxUploadBytes,
			AllowHEIC: cfg.Extraction.AllowHEIC,
		},
		LowConfidence: cfg.Extraction.LowConfidenceThreshold,
		SessionTTL:    cfg.Sessions.TTL,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router,
	}
	metricsServer := startMetricsServer(cfg.Server.MetricsPort, metrics, zl)

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server.start", zap.Int("port", cfg.Server.Port), zap.String("extractor", cfg.Extraction.Provider))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	zl.Info("server.shutdown")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			zl.Warn("metrics.shutdown_failed", zap.Error(err))
		}
	}
	return server.Shutdown(shutdownCtx)
}

func initializeExtractor(cfg *config.Config, zl *zap.Logger) (extraction.Extractor, error) {
	ec := cfg.Extraction
	switch ec.Provider {
	case "llm":
		model, err := extractor.NewOpenAIModel(extractor.LLMConfig{
			Model:     ec.LLM.Model,
			BaseURL:   ec.LLM.BaseURL,
			Token:     ec.LLM.Token,
			MaxTokens: ec.LLM.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
		}
		scraper := extractor.NewScraper(&http.Client{Timeout: ec.Timeout})
		return extractor.NewLLM(model, scraper, ec.LLM.MaxTokens, zl), nil
	default:
		return extractor.NewRemote(ec.RemoteURL, ec.Timeout, nil, zl), nil
	}
}

// startMetricsServer serves /metrics on its own port; port 0 disables it.
func startMetricsServer(port int, metrics *monitoring.MetricsCollector, zl *zap.Logger) *http.Server {
	if port == 0 {
		return nil
	}
	metricsRouter := gin.New()
	metricsRouter.Use(gin.Recovery())
	metricsRouter.GET("/metrics", gin.WrapH(metrics.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}
	go func() {
		zl.Info("metrics.start", zap.Int("port", port))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("metrics.server_error", zap.Error(err))
		}
	}()
	return metricsServer
}
