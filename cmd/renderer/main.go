// renderer serves the landing pages and pitch documents deployed by the
// go_market MCP server and records their engagement.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/anatolykoptev/go_market/internal/renderer"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file", slog.Any("error", err))
	}

	port := env.Str("RENDERER_PORT", "8080")
	if env.Str("GIN_MODE", "") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, closeStore := openStore()
	defer closeStore()

	srv := renderer.NewServer(store, renderer.Config{
		BaseURL:          env.Str("RENDERER_PUBLIC_URL", "http://localhost:"+port),
		AllowedOrigins:   env.List("ALLOWED_ORIGINS", "*"),
		MaxDocumentBytes: env.Int("RENDERER_MAX_DOCUMENT_BYTES", 20<<20),
		Version:          version,
	})

	httpSrv := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("starting renderer", slog.String("port", port), slog.String("version", version))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", slog.Any("error", err))
	}
}

// openStore uses Redis when RENDERER_REDIS_URL is set and reachable, and the
// in-memory store otherwise.
func openStore() (renderer.Store, func()) {
	redisURL := env.Str("RENDERER_REDIS_URL", "")
	if redisURL == "" {
		slog.Info("renderer: in-memory store")
		return renderer.NewMemoryStore(), func() {}
	}
	ttl := env.Duration("RENDERER_SITE_TTL", 0)
	rs, err := renderer.NewRedisStore(context.Background(), redisURL, ttl)
	if err != nil {
		slog.Warn("renderer: redis unavailable, using in-memory store", slog.Any("error", err))
		return renderer.NewMemoryStore(), func() {}
	}
	slog.Info("renderer: redis store", slog.Duration("ttl", ttl))
	return rs, func() { _ = rs.Close() }
}
