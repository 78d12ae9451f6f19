package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	rag_http "site-rag/internal/adapter/rag_http"
	"site-rag/internal/di"
	"site-rag/internal/infra/config"
	"site-rag/internal/infra/logger"
	"site-rag/internal/infra/otel"
)

func main() {
	// 1. Load Config (.env is optional)
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Tracing and Logger
	shutdownOTel, err := otel.InitProvider(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init otel: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewWithOTel(cfg.OTel.Enabled)
	slog.SetDefault(log)

	// 3. Wire Components
	components, err := di.NewApplicationComponents(ctx, cfg, log)
	if err != nil {
		log.Error("failed to wire components", "error", err)
		os.Exit(1)
	}
	defer components.Close()

	// 4. Start Cache Warmer
	components.Warmer.Start()
	defer components.Warmer.Stop()

	// 5. Initialize HTTP
	handler := rag_http.NewHandler(components.AnswerUsecase, components.Ready, cfg.RAG.DefaultTopK, log)
	e := rag_http.NewRouter(ctx, handler, rag_http.RouterConfig{
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	})

	var httpHandler http.Handler = e
	if cfg.Server.H2C {
		httpHandler = rag_http.WithH2C(e)
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. Start Server
	go func() {
		log.Info("Starting server", "addr", srv.Addr, "h2c", cfg.Server.H2C)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			stop()
		}
	}()

	// 7. Graceful Shutdown
	<-ctx.Done()
	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error("otel shutdown failed", "error", err)
	}
}
