package commands

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
	"go.uber.org/zap"

	_ "github.com/AlexZinkM/tkey-wallet/docs"
	"github.com/AlexZinkM/tkey-wallet/internal/app"
	"github.com/AlexZinkM/tkey-wallet/internal/config"
	"github.com/AlexZinkM/tkey-wallet/internal/logger"
	"github.com/AlexZinkM/tkey-wallet/internal/tkey"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var noDeviceStorage bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(); err != nil {
				return err
			}
			cfg := config.Get()

			log, err := logger.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			var password tkey.PasswordFunc
			if !noDeviceStorage {
				if err := config.PromptForPassword(); err != nil {
					return fmt.Errorf("failed to read device share passphrase: %w", err)
				}
				password = config.GetDeviceSharePasswordBytes
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, password, log)
			if err != nil {
				log.Error("failed to build app", zap.Error(err))
				return err
			}
			defer a.Close(context.Background())

			// the API stays up so /session reports the failure
			if err := a.Controller.Initialize(ctx); err != nil {
				log.Error("service provider initialization failed", zap.Error(err))
			}

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           a.Router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("server listening", zap.String("addr", srv.Addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noDeviceStorage, "no-device-storage", false, "do not prompt for a passphrase and disable the device share")
	return cmd
}
