package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"mafiamadness/internal/app"

	"github.com/spf13/cobra"
)

func newServeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.NewApp(cmd.Context(), rt.cfg, rt.logWriter)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					slog.Error("error while closing resources", slog.String("error", err.Error()))
				}
			}()

			// Graceful shutdown handling
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			listenErr := make(chan error, 1)
			go func() {
				slog.Info("starting server", slog.String("addr", rt.cfg.AppPort), slog.String("store", rt.cfg.DBDriver))
				listenErr <- a.Fiber.Listen(rt.cfg.AppPort)
			}()

			select {
			case err := <-listenErr:
				return err
			case <-quit:
			}

			slog.Info("shutting down server")
			if err := a.Fiber.ShutdownWithContext(context.Background()); err != nil {
				slog.Error("error during fiber shutdown", slog.String("error", err.Error()))
			}
			slog.Info("server gracefully stopped")
			return nil
		},
	}
}
