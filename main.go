package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/parisxmas/OxiDB/OxiForms/internal/auth"
	"github.com/parisxmas/OxiDB/OxiForms/internal/config"
	"github.com/parisxmas/OxiDB/OxiForms/internal/db"
	"github.com/parisxmas/OxiDB/OxiForms/internal/handler"
	"github.com/parisxmas/OxiDB/OxiForms/internal/logging"
	"github.com/parisxmas/OxiDB/OxiForms/internal/metrics"
	"github.com/parisxmas/OxiDB/OxiForms/internal/router"
	"github.com/parisxmas/OxiDB/OxiForms/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.GelfAddr)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := db.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("store", cfg.Store), zap.Error(err))
	}
	defer backend.Close()

	// Tables and unique indexes must exist before the first request.
	initCtx, cancel := context.WithTimeout(ctx, time.Minute)
	err = backend.Stores.EnsureIndexes(initCtx)
	cancel()
	if err != nil {
		logger.Fatal("failed to create indexes", zap.Error(err))
	}

	m := metrics.New()
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)

	// Services
	authSvc := service.NewAuthService(backend.Stores.Users, issuer, logger)
	formSvc := service.NewFormService(backend.Stores.Forms, backend.Stores.Responses, logger, m)
	respSvc := service.NewResponseService(backend.Stores.Responses, formSvc, logger, m)

	// Router
	r := router.New(issuer, logger, m, router.Handlers{
		Auth:      handler.NewAuthHandler(authSvc, logger),
		Forms:     handler.NewFormHandler(formSvc, logger, cfg.PublicURL),
		Responses: handler.NewResponseHandler(respSvc, logger),
		Share:     handler.NewShareHandler(formSvc, respSvc, logger, cfg.MaxUploadMiB),
		Dashboard: handler.NewDashboardHandler(respSvc, logger),
		Health:    handler.NewHealthHandler(backend.Ping, logger),
	})

	// Admin seeding does not gate startup.
	go func() {
		seedCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := authSvc.SeedAdmin(seedCtx, cfg.AdminEmail, cfg.AdminPass); err != nil {
			logger.Warn("failed to seed admin", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("OxiForms server starting", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
