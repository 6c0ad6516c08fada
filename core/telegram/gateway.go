package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/residentbot/core/config"
	"github.com/m3rciful/residentbot/core/logger"
	"github.com/m3rciful/residentbot/core/telegram/keyboard"
	"github.com/m3rciful/residentbot/core/telegram/netutil"
)

// ErrTransport wraps every failed Telegram API call.
var ErrTransport = errors.New("transport error")

// Document describes a local file to upload as an attachment.
type Document struct {
	Path     string
	FileName string
	Caption  string
}

// Gateway delivers outbound messages to a chat.
type Gateway interface {
	// SendText sends a legacy Markdown message.
	SendText(ctx context.Context, chatID int64, text string) error
	// SendContactRequest sends prompt with a one-time contact-share keyboard.
	SendContactRequest(ctx context.Context, chatID int64, prompt string) error
	// SendDocument uploads doc as a file attachment.
	SendDocument(ctx context.Context, chatID int64, doc Document) error
}

// API is the subset of *tele.Bot used by Bot.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	SetWebhook(w *tele.Webhook) error
	SetCommands(opts ...interface{}) error
}

// Bot is a Gateway backed by telebot.
type Bot struct {
	api API
}

var _ Gateway = (*Bot)(nil)

// NewBot builds a telebot client without polling. Offline mode skips the
// getMe round trip so cold starts do not touch the network.
func NewBot(cfg coreconfig.TelegramConfig) (*Bot, error) {
	start := time.Now()
	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		URL:     cfg.APIURL,
		Client:  BuildHTTPClient(),
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logger.TG.Info("bot ready",
		slog.String("event", "bot.init"),
		slog.String("mode", "webhook"),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return NewBotWithAPI(b), nil
}

// NewBotWithAPI wraps an existing API implementation.
func NewBotWithAPI(api API) *Bot {
	return &Bot{api: api}
}

// SendText sends text with Markdown parse mode.
func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	return b.send(ctx, "sendMessage", chatID, text, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
}

// SendContactRequest sends prompt with a contact-share reply keyboard.
func (b *Bot) SendContactRequest(ctx context.Context, chatID int64, prompt string) error {
	opts := &tele.SendOptions{ReplyMarkup: keyboard.ContactRequest(keyboard.DefaultContactButtonText)}
	return b.send(ctx, "sendMessage", chatID, prompt, opts)
}

// SendDocument uploads the file at doc.Path.
func (b *Bot) SendDocument(ctx context.Context, chatID int64, doc Document) error {
	if _, err := os.Stat(doc.Path); err != nil {
		return fmt.Errorf("telegram: document %s: %w", doc.Path, err)
	}
	file := &tele.Document{
		File:     tele.FromDisk(doc.Path),
		FileName: doc.FileName,
		Caption:  doc.Caption,
	}
	return b.send(ctx, "sendDocument", chatID, file, nil)
}

// RegisterWebhook points Telegram at publicURL.
func (b *Bot) RegisterWebhook(ctx context.Context, publicURL string) error {
	err := b.api.SetWebhook(&tele.Webhook{Endpoint: &tele.WebhookEndpoint{PublicURL: publicURL}})
	if err != nil {
		logger.Warn(ctx, "tg", "webhook.set.failed", slog.String("err", err.Error()))
		return fmt.Errorf("%w: setWebhook: %v", ErrTransport, err)
	}
	logger.Info(ctx, "tg", "webhook.set", slog.String("status", "ok"))
	return nil
}

// SetMenu publishes cmds as the Telegram command menu.
func (b *Bot) SetMenu(ctx context.Context, cmds []tele.Command) error {
	if err := b.api.SetCommands(cmds); err != nil {
		logger.Warn(ctx, "tg", "commands.set.failed", slog.String("err", err.Error()))
		return fmt.Errorf("%w: setMyCommands: %v", ErrTransport, err)
	}
	logger.Info(ctx, "tg", "commands.set", slog.Int("count", len(cmds)))
	return nil
}

func (b *Bot) send(ctx context.Context, method string, chatID int64, what interface{}, opts *tele.SendOptions) error {
	start := time.Now()
	var err error
	if opts != nil {
		_, err = b.api.Send(tele.ChatID(chatID), what, opts)
	} else {
		_, err = b.api.Send(tele.ChatID(chatID), what)
	}
	if err != nil {
		logger.Warn(ctx, "tg", "send.failed",
			slog.String("status", "fail"),
			slog.String("operation", method),
			slog.Int64("chat_id", chatID),
			slog.Bool("retryable", netutil.IsTransient(err)),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return fmt.Errorf("%w: %s: %v", ErrTransport, method, err)
	}
	kb := keyboard.HasKeyboard(markupOf(opts))
	logger.Debug(ctx, "tg", "send.ok",
		slog.String("status", "ok"),
		slog.String("operation", method),
		slog.Int64("chat_id", chatID),
		slog.Bool("kb", kb),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

func markupOf(opts *tele.SendOptions) *tele.ReplyMarkup {
	if opts == nil {
		return nil
	}
	return opts.ReplyMarkup
}
