// Command tracing-example runs a small instrumented server: two routes each
// under their own named context span, everything under a request-summary
// span. LOG_LEVEL=trace shows the full per-request event stream.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/upb/traceware/config"
	"github.com/upb/traceware/middleware"
	"github.com/upb/traceware/pipeline"
	"github.com/upb/traceware/telemetry"
	"github.com/upb/traceware/trace"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := telemetry.Init(telemetry.Options{
		Level:  cfg.Telemetry.Level,
		Format: cfg.Telemetry.Format,
	})
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	defer func() { _ = telemetry.Sync() }()

	hello := pipeline.HandlerFunc(func(ctx context.Context, _ *http.Request) (pipeline.Reply, error) {
		telemetry.WithContext(ctx).Info("saying hello...")
		return pipeline.Text(http.StatusOK, "Hello, World!"), nil
	})

	goodbye := pipeline.HandlerFunc(func(ctx context.Context, _ *http.Request) (pipeline.Reply, error) {
		telemetry.WithContext(ctx).Info("saying goodbye...")
		return pipeline.Text(http.StatusOK, "So long and thanks for all the fish!"), nil
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/hello", middleware.Serve(
		pipeline.Chain(hello, trace.Request(), trace.Context("hello"))))
	r.Get("/goodbye", middleware.Serve(
		pipeline.Chain(goodbye, trace.Request(), trace.Context("goodbye"))))

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("stopped")
}
