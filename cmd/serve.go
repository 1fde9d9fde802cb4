package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"shiftclock/session"
	"shiftclock/web"
)

var (
	servePort   int
	serveStrict bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local JSON API",
	Long: `Start a local HTTP server exposing the session controller and stored entries.

Writes made through this server are pushed to its session state as they
happen. Changes made by other processes (the CLI, another serve process) are
not pushed; the session re-reads the day when a command conflicts with them,
and again when the day changes.`,
	Example: `
  # Start on the configured port
  shiftclock serve

  # Start on a custom port with debug logging
  shiftclock serve --port 9090 --log-level debug
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var opts []session.Option
		if serveStrict {
			opts = append(opts, session.WithStrictTransitions())
		}
		controller, err := a.controller(ctx, opts...)
		if err != nil {
			return err
		}

		port := a.cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           web.NewServer(a.store, controller, a.profile, web.WithLogger(a.log), web.WithLocation(a.loc)),
			ReadHeaderTimeout: 10 * time.Second,
		}

		feedErr := make(chan error, 1)
		go func() {
			feedErr <- controller.Run(ctx, a.store)
		}()

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()

		a.log.Info().
			Int("port", port).
			Str("user", a.userID()).
			Str("region", a.profile.Region.String()).
			Msg("listening")

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case err := <-feedErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error().Err(err).Msg("session feed stopped")
			}
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		err = <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		a.log.Info().Msg("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP port (default: server.port from config)")
	serveCmd.Flags().BoolVar(&serveStrict, "strict", false, "Answer session commands that do not apply to the current state with 409 instead of a no-op")
}
