package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/storefront-tools/admin-console/credentials/boltstore"
	"github.com/storefront-tools/admin-console/devserver"
	"github.com/storefront-tools/admin-console/gate"
	"github.com/storefront-tools/admin-console/gateway"
	"github.com/storefront-tools/admin-console/internal/config"
	"github.com/storefront-tools/admin-console/session"
)

var (
	flagSeedEmail    string
	flagSeedPassword string
	flagSeedPhone    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the development auth backend",
	Long: `Runs a local implementation of the admin auth API (login, check,
refresh, logout, find-email, find-password) seeded with one admin account,
for developing the console without the production backend. An /admin page
is mounted behind the access gate; unauthenticated requests are redirected
to the login page.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.New()
		log := newLogger()

		if err := os.MkdirAll(cfg.GetDataFolder(), 0o700); err != nil {
			return err
		}
		store, err := boltstore.Open(filepath.Join(cfg.GetDataFolder(), "devserver-state.db"))
		if err != nil {
			return err
		}
		defer store.Close()

		client, err := gateway.New(cfg.GetBaseURL(), store,
			gateway.WithCookieNames(cfg.GetAccessCookieName(), cfg.GetRefreshCookieName()),
			gateway.WithTimeouts(cfg.GetCheckTimeout(), cfg.GetRefreshTimeout(), cfg.GetRequestTimeout()),
			gateway.WithLogger(log),
		)
		if err != nil {
			return err
		}
		manager, err := session.New(client, store, session.WithLogger(log))
		if err != nil {
			return err
		}
		admissions := gate.New(manager, cfg.GetLoginPath(), gate.WithLogger(log))

		passwordHash, err := devserver.HashPassword(flagSeedPassword)
		if err != nil {
			return errors.Wrap(err, "[serve] HashPassword")
		}
		backend := devserver.New(
			devserver.WithLogger(log),
			devserver.WithCookieNames(cfg.GetAccessCookieName(), cfg.GetRefreshCookieName()),
			devserver.WithAccount(devserver.Account{
				Email:        flagSeedEmail,
				PasswordHash: passwordHash,
				PhoneNumber:  flagSeedPhone,
				Admin:        true,
			}),
			devserver.WithProtectedAdmin(admissions.Middleware()),
		)

		displayAppname(cfg.GetAppName())
		server := &http.Server{Addr: cfg.GetPort(), Handler: backend}
		go func() {
			log.Info().Str("addr", server.Addr).Msg("dev auth backend listening")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Err(err).Msg("server.ListenAndServe")
			}
		}()

		waitForStopSignal()
		return shutdown(server)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the current session alive until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment()
		if err != nil {
			return err
		}
		defer env.close()

		if !env.manager.IsAuthenticated(cmd.Context()) {
			fmt.Println("Not logged in.")
			return nil
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		fmt.Println("Session keepalive running. Press Ctrl+C to stop.")
		env.manager.Run(ctx)
		return nil
	},
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

func init() {
	serveCmd.Flags().StringVar(&flagSeedEmail, "seed-email", "admin@example.com", "seeded admin account email")
	serveCmd.Flags().StringVar(&flagSeedPassword, "seed-password", "password123", "seeded admin account password")
	serveCmd.Flags().StringVar(&flagSeedPhone, "seed-phone", "010-0000-0000", "seeded admin account phone number")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}
