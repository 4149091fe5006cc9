package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/ironpulse/internal/alarms"
	"github.com/claude/ironpulse/internal/auth"
	"github.com/claude/ironpulse/internal/config"
	"github.com/claude/ironpulse/internal/mcp"
	"github.com/claude/ironpulse/internal/plans"
	"github.com/claude/ironpulse/internal/server"
	"github.com/claude/ironpulse/internal/session"
	"github.com/claude/ironpulse/internal/storage"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (default config.yaml, optional)")
	migrateOnly := flag.Bool("migrate-only", false, "open the store, apply migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("IronPulse starting", "version", Version)

	// Load config
	path, allowMissing := *configPath, false
	if path == "" {
		path, allowMissing = "config.yaml", true
	}
	cfg, err := config.Load(path, allowMissing)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Open store (runs migrations for postgres)
	ctx := context.Background()
	store, err := storage.Open(ctx, storage.Options{
		Driver: cfg.Store.Driver,
		Path:   cfg.Store.Path,
		DSN:    cfg.Database.DSN(),
	})
	if err != nil {
		log.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("store opened", "driver", cfg.Store.Driver)

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Restore the device session and seed the sample plan on first run
	sessions := session.New(store, log)
	state, err := sessions.Restore(ctx)
	if err != nil {
		log.Error("failed to restore session", "error", err)
		os.Exit(1)
	}
	log.Info("session restored", "state", state.String())

	planRepo := plans.NewRepository(store, log)
	if _, err := planRepo.Seed(ctx); err != nil {
		log.Warn("seeding sample plan failed", "error", err)
	}
	alarmRepo := alarms.NewRepository(store, log)

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = rand.Text()
		log.Warn("auth.jwt_secret not set, using an ephemeral secret; tokens will not survive a restart")
	}

	// Create server
	srv := server.New(server.Deps{
		Sessions: sessions,
		OTP:      auth.NewOTPService(store, auth.LogSender{Log: log}, cfg.Auth.OTPTTL, log),
		Tokens:   auth.NewTokenIssuer(secret, cfg.Auth.TokenTTL),
		Plans:    planRepo,
		Alarms:   alarmRepo,
	}, log)

	mcpSrv := mcp.New(&mcp.Local{Plans: planRepo, Alarms: alarmRepo}, Version, log)
	srv.SetMCP(mcp.HTTPHandler(mcpSrv))

	if cfg.Server.StaticDir != "" {
		srv.SetFrontend(os.DirFS(cfg.Server.StaticDir))
		log.Info("serving frontend", "dir", cfg.Server.StaticDir)
	}

	// Start reminders
	var scheduler *alarms.Scheduler
	if cfg.Reminders.Enabled {
		scheduler = alarms.NewScheduler(alarmRepo, alarms.LogNotifier{Log: log}, cfg.Reminders.Interval, log)
		scheduler.Start(ctx)
	}

	// Start server — tsnet or plain HTTP
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	scheduler.Stop()
	log.Info("server stopped")
}
