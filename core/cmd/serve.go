package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/m3rciful/residentbot/core/bootstrap"
	"github.com/m3rciful/residentbot/core/logger"
	"github.com/m3rciful/residentbot/core/telegram"
	"github.com/m3rciful/residentbot/core/webhook"
)

const (
	webhookPath     = "/webhook"
	shutdownTimeout = 10 * time.Second
)

// ServeHTTP runs the local webhook server until ctx is done. When a public
// webhook URL is configured it is registered with Telegram first, together
// with the command menu.
func ServeHTTP(ctx context.Context, app *bootstrap.App) error {
	cfg := app.Config
	if bot, ok := app.Gateway.(*telegram.Bot); ok && cfg.Telegram.WebhookURL != "" {
		if err := bot.RegisterWebhook(ctx, cfg.Telegram.WebhookURL); err != nil {
			return err
		}
		_ = bot.SetMenu(ctx, app.Catalogue.BotCommands())
	}

	addr := net.JoinHostPort(cfg.Server.Listen, strconv.Itoa(cfg.Server.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           webhook.NewRouter(app.Handler, webhookPath),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	return serveUntilDone(ctx, srv)
}

func serveUntilDone(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Webhook.Info("listening",
			slog.String("event", "listen"),
			slog.String("mode", "server"),
			slog.String("listen", srv.Addr),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("cmd: server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("cmd: server shutdown: %w", err)
	}
	return nil
}
