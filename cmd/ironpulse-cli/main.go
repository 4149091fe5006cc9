// Command ironpulse-cli manages the IronPulse store from a terminal: sign in,
// edit workout plans and alarms, and serve MCP over stdio.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/ironpulse/internal/alarms"
	"github.com/claude/ironpulse/internal/auth"
	"github.com/claude/ironpulse/internal/config"
	"github.com/claude/ironpulse/internal/models"
	"github.com/claude/ironpulse/internal/plans"
	"github.com/claude/ironpulse/internal/session"
	"github.com/claude/ironpulse/internal/storage"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	// Global flags
	configPath string
	verbose    bool

	logger *slog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:           "ironpulse-cli",
	Short:         "Manage IronPulse workout plans and reminders",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	},
}

// app is the set of components a command works on, opened over the
// configured store.
type app struct {
	cfg      *config.Config
	store    storage.Store
	sessions *session.Manager
	plans    *plans.Repository
	alarms   *alarms.Repository
	otp      *auth.OTPService
	tokens   *auth.TokenIssuer // nil without auth.jwt_secret
}

// openApp loads config, opens the store and restores the session. A missing
// config file is allowed when --config was not given.
func openApp(ctx context.Context) (*app, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	path, allowMissing := configPath, false
	if path == "" {
		path, allowMissing = "config.yaml", true
	}
	cfg, err := config.Load(path, allowMissing)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, storage.Options{
		Driver: cfg.Store.Driver,
		Path:   cfg.Store.Path,
		DSN:    cfg.Database.DSN(),
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	sessions := session.New(store, logger)
	if _, err := sessions.Restore(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("restoring session: %w", err)
	}

	a := &app{
		cfg:      cfg,
		store:    store,
		sessions: sessions,
		plans:    plans.NewRepository(store, logger),
		alarms:   alarms.NewRepository(store, logger),
		otp:      auth.NewOTPService(store, auth.LogSender{Log: logger}, cfg.Auth.OTPTTL, logger),
	}
	if cfg.Auth.JWTSecret != "" {
		a.tokens = auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	}
	if _, err := a.plans.Seed(ctx); err != nil {
		logger.Warn("seeding sample plan failed", "error", err)
	}
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// requireUser returns the signed-in user or an error telling how to sign in.
func (a *app) requireUser() (models.User, error) {
	u, ok := a.sessions.Current()
	if !ok {
		return models.User{}, fmt.Errorf("not signed in; run 'ironpulse-cli login google --email ...' or 'login phone'")
	}
	return u, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default config.yaml, optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(plansCmd)
	rootCmd.AddCommand(alarmsCmd)
	rootCmd.AddCommand(mcpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
