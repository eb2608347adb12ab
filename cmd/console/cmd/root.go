package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/storefront-tools/admin-console/cookies/boltjar"
	"github.com/storefront-tools/admin-console/credentials/boltstore"
	"github.com/storefront-tools/admin-console/gateway"
	"github.com/storefront-tools/admin-console/internal/config"
	"github.com/storefront-tools/admin-console/session"
)

var (
	flagBaseURL string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "console",
	Short: "Shop admin console session tool",
	Long: `Manages the admin session against the shop backend: login, logout,
session status, and account recovery. Session cookies and the login-status
record persist in a local state database between invocations.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cfg := config.New()
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "api", cfg.GetBaseURL(), "base URL of the admin backend API")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// environment wires the local state database, the cookie jar, the gateway
// client, and the session manager for one CLI invocation.
type environment struct {
	log     zerolog.Logger
	store   *boltstore.Store
	client  *gateway.Client
	manager *session.Manager
}

func newEnvironment() (*environment, error) {
	cfg := config.New()
	log := newLogger()

	if err := os.MkdirAll(cfg.GetDataFolder(), 0o700); err != nil {
		return nil, err
	}
	store, err := boltstore.Open(cfg.GetStateFile(), boltstore.WithTTL(cfg.GetRecordTTL()))
	if err != nil {
		return nil, err
	}

	jar, err := boltjar.New(store.DB(), flagBaseURL)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	client, err := gateway.New(flagBaseURL, store,
		gateway.WithCookieJar(jar),
		gateway.WithCookieNames(cfg.GetAccessCookieName(), cfg.GetRefreshCookieName()),
		gateway.WithTimeouts(cfg.GetCheckTimeout(), cfg.GetRefreshTimeout(), cfg.GetRequestTimeout()),
		gateway.WithRecordTTL(cfg.GetRecordTTL()),
		gateway.WithLogger(log),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	manager, err := session.New(client, store,
		session.WithKeepaliveInterval(cfg.GetKeepaliveInterval()),
		session.WithLogger(log),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &environment{
		log:     log,
		store:   store,
		client:  client,
		manager: manager,
	}, nil
}

func (e *environment) close() {
	_ = e.store.Close()
}
