package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/loopfield/interview-engine/common/logger"
	otelx "github.com/loopfield/interview-engine/common/otelx"
	"github.com/loopfield/interview-engine/internal/config"
	"github.com/loopfield/interview-engine/internal/httpapi"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// OTel must init before logger (logger attaches OTel trace/span ids).
	telemetry, err := otelx.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.Info("otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.Info("otel disabled (no endpoint configured)")
	}

	slog.Info("interview-engine starting", "env", cfg.Env)

	svc, err := loadService(cfg)
	if err != nil {
		slog.Error("failed to load interview bundles", "error", err)
		os.Exit(1)
	}
	slog.Info("interview bundles loaded", "count", len(svc.Order), "dir", cfg.InterviewsDir)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, svc)
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		slog.Info("http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.Error("otel shutdown error", "error", err)
		}
	}

	slog.Info("shutdown complete")
}

// loadService builds the template engine, the YAML bundle loader (sharing
// one pooled *http.Client across every Hook step) and the resulting
// httpapi.Service.
func loadService(cfg config.Config) (*httpapi.Service, error) {
	engine := tmpl.NewEngine()
	loader := &config.YAMLLoader{
		Engine: engine,
		HookClient: &http.Client{
			Timeout: time.Duration(cfg.HookTimeoutSeconds) * time.Second,
			Jar:     nil,
		},
	}

	interviews, order, err := loader.LoadAll(os.DirFS("."), cfg.InterviewsDir)
	if err != nil {
		return nil, err
	}

	return httpapi.NewService(interviews, order, cfg.EncryptionKey, cfg.AdminAPIKey, cfg.UpdateURL), nil
}

func setupRouter(cfg config.Config, svc *httpapi.Service) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates the span, Recovery catches panics
	// within it, Logger logs with the resulting trace context attached.
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(httpapi.Recovery())
	router.Use(httpapi.RequestLogger())

	httpapi.SetupRoutes(router, svc)

	return router
}
