// Package dispatch routes commands from verified chats.
package dispatch

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/m3rciful/residentbot/core/directory"
	"github.com/m3rciful/residentbot/core/logger"
	"github.com/m3rciful/residentbot/core/telegram"
	"github.com/m3rciful/residentbot/core/telegram/commands"
	"github.com/m3rciful/residentbot/core/telegram/format"
)

// Branch names the path Dispatch took.
type Branch string

// Dispatch branches, checked in this order.
const (
	BranchEmpty    Branch = "empty"
	BranchStart    Branch = "start"
	BranchCategory Branch = "category"
	BranchDocument Branch = "document"
	BranchHelp     Branch = "help"
	BranchFallback Branch = "fallback"
)

// Replies sent by the dispatcher.
const (
	MsgEmpty   = "Please send a text command. You can use `/help` to see the options."
	MsgWelcome = "✅ Welcome back! You are already verified. Use `/help` to see available commands."
)

// Result reports what Dispatch did. Err carries a failure that was already
// reported to the chat; it is informational only.
type Result struct {
	Branch  Branch
	Command string
	Err     error
}

// Directory supplies contacts by category.
type Directory interface {
	ContactsIn(category string) []directory.Contact
}

// Config wires a Dispatcher.
type Config struct {
	Catalogue   *commands.Catalogue
	Directory   Directory
	Store       directory.ObjectStore
	ScratchDir  string
	DocumentKey string
}

// Dispatcher turns a verified chat's text into exactly one reply path.
type Dispatcher struct {
	catalogue   *commands.Catalogue
	directory   Directory
	store       directory.ObjectStore
	scratchDir  string
	documentKey string
}

// New builds a Dispatcher. A nil catalogue selects commands.Default and an
// empty ScratchDir selects os.TempDir.
func New(cfg Config) *Dispatcher {
	cat := cfg.Catalogue
	if cat == nil {
		cat = commands.Default()
	}
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = os.TempDir()
	}
	return &Dispatcher{
		catalogue:   cat,
		directory:   cfg.Directory,
		store:       cfg.Store,
		scratchDir:  cfg.ScratchDir,
		documentKey: cfg.DocumentKey,
	}
}

// Dispatch handles text, which the caller has already trimmed and lowercased.
func (d *Dispatcher) Dispatch(ctx context.Context, gw telegram.Gateway, chatID int64, text string) Result {
	if text == "" {
		return d.reply(ctx, gw, chatID, Result{Branch: BranchEmpty}, MsgEmpty)
	}

	token := strings.TrimPrefix(text, "/")
	cmd, ok := d.catalogue.Lookup(token)
	if !ok || token != cmd.Name {
		return d.fallback(ctx, gw, chatID, text)
	}

	ctx = logger.WithHandler(ctx, cmd.Name)
	res := Result{Command: cmd.Name}
	switch cmd.Kind {
	case commands.KindStart:
		res.Branch = BranchStart
		return d.reply(ctx, gw, chatID, res, MsgWelcome)
	case commands.KindCategory:
		res.Branch = BranchCategory
		res.Err = d.lookupContacts(ctx, gw, chatID, cmd.Name)
	case commands.KindDocument:
		res.Branch = BranchDocument
		res.Err = d.deliverDocument(ctx, gw, chatID, d.documentKey, commands.DocumentCaption)
	case commands.KindHelp:
		res.Branch = BranchHelp
		return d.reply(ctx, gw, chatID, res, d.catalogue.HelpText())
	default:
		return d.fallback(ctx, gw, chatID, text)
	}
	return res
}

func (d *Dispatcher) fallback(ctx context.Context, gw telegram.Gateway, chatID int64, text string) Result {
	logger.Info(ctx, "dispatch", "command.unknown",
		slog.String("status", "skip"),
		slog.String("payload", logger.SanitizeLimit(text, 128)),
	)
	msg := "🤖 Unrecognized command: " + format.Code(text) + ". Please use `/help` to see the available options."
	return d.reply(ctx, gw, chatID, Result{Branch: BranchFallback}, msg)
}

func (d *Dispatcher) reply(ctx context.Context, gw telegram.Gateway, chatID int64, res Result, text string) Result {
	if err := gw.SendText(ctx, chatID, text); err != nil {
		res.Err = err
	}
	return res
}
