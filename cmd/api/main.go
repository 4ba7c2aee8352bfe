package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/lores-mesh/site-admin/config"
	"github.com/lores-mesh/site-admin/internal/bootstrap"
	"github.com/lores-mesh/site-admin/internal/domain"
	"github.com/lores-mesh/site-admin/internal/events"
	"github.com/lores-mesh/site-admin/internal/gateway"
	"github.com/lores-mesh/site-admin/internal/logging"
	"github.com/lores-mesh/site-admin/internal/session"
)

const serviceName = "site-admin"

func main() {
	var (
		configFile string
		port       string
	)
	pflag.StringVar(&configFile, "config", "", "YAML config file overlaid on the environment")
	pflag.StringVar(&port, "port", "", "listen port (overrides PORT)")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if configFile != "" {
		if err := cfg.Overlay(configFile); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if port != "" {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logging.SetLevel(cfg.App.LogLevel)
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kind, err := domain.ParseScopeKind(cfg.NodeAPI.Scope)
	if err != nil {
		log.Fatalf("Invalid scope: %v", err)
	}

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Printf("Warning: redis unavailable, keeping onboarding events in memory: %v", err)
	}

	var store events.Store
	if rdb != nil {
		defer rdb.Close()
		store = events.NewRedisStore(rdb, cfg.Redis.EventTTL)
	} else {
		store = events.NewMemoryStore(events.DefaultLimit * 10)
	}

	client := gateway.NewClient(cfg.NodeAPI.URL,
		gateway.WithTimeout(cfg.NodeAPI.Timeout),
		gateway.WithRateLimit(rate.Limit(cfg.NodeAPI.Rate), cfg.NodeAPI.Burst),
	)

	sessions := bootstrap.NewSessionStore(client, kind, store)
	sweeper := session.NewSweeper(sessions, cfg.Session.IdleTimeout)
	if err := sweeper.Start(cfg.Session.SweepSpec); err != nil {
		log.Fatalf("Failed to start session sweeper: %v", err)
	}
	defer sweeper.Stop()

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:  serviceName,
		Version:      cfg.App.Version,
		BasePath:     cfg.Server.BasePath,
		CORSOrigins:  cfg.Server.CORSOrigins,
		SecureCookie: cfg.App.Environment == "production",
		Client:       client,
		Events:       store,
		Redis:        rdb,
		Sessions:     sessions,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("%s listening on :%s (node api %s, scope %s)", serviceName, cfg.Server.Port, cfg.NodeAPI.URL, kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
