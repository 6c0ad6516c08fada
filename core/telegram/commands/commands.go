package commands

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/residentbot/core/logger"
)

// Kind tells the dispatcher which branch serves a command.
type Kind int

const (
	// KindStart acknowledges an already verified user.
	KindStart Kind = iota + 1
	// KindCategory looks up contacts of the same name.
	KindCategory
	// KindDocument delivers a stored document.
	KindDocument
	// KindHelp lists available commands.
	KindHelp
)

// String returns the branch label used in logs.
func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindCategory:
		return "category"
	case KindDocument:
		return "document"
	case KindHelp:
		return "help"
	}
	return "unknown"
}

// Command represents a bot command with its description and metadata.
type Command struct {
	Name        string
	Kind        Kind
	Description string
	// Hidden commands are accepted but left out of help and the command menu.
	Hidden bool
	// Note is appended to the help line.
	Note string
}

// Catalogue is the closed set of commands a verified user may send.
// It is built once and read-only afterwards.
type Catalogue struct {
	commands map[string]Command
	order    []string
}

// NewCatalogue creates an empty catalogue.
func NewCatalogue() *Catalogue {
	return &Catalogue{commands: make(map[string]Command)}
}

// Register adds cmd. Names are stored without the leading slash and lowercased.
func (c *Catalogue) Register(cmd Command) {
	name := normalize(cmd.Name)
	if name == "" || cmd.Kind == 0 {
		logger.Warn(context.Background(), "dispatch", "register.command.skip",
			slog.String("command", cmd.Name),
			slog.String("cause", "invalid"),
		)
		return
	}
	if _, exists := c.commands[name]; exists {
		logger.Warn(context.Background(), "dispatch", "register.command.duplicate",
			slog.String("command", name),
		)
		return
	}
	cmd.Name = name
	c.commands[name] = cmd
	c.order = append(c.order, name)
}

// Lookup resolves a token with or without the leading slash.
func (c *Catalogue) Lookup(token string) (Command, bool) {
	cmd, ok := c.commands[normalize(token)]
	return cmd, ok
}

// Categories returns the contact category names in registration order.
func (c *Catalogue) Categories() []string {
	var out []string
	for _, name := range c.order {
		if c.commands[name].Kind == KindCategory {
			out = append(out, name)
		}
	}
	return out
}

// Visible returns non-hidden commands of the given kinds in registration order.
func (c *Catalogue) Visible(kinds ...Kind) []Command {
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	var out []Command
	for _, name := range c.order {
		cmd := c.commands[name]
		if cmd.Hidden || (len(want) > 0 && !want[cmd.Kind]) {
			continue
		}
		out = append(out, cmd)
	}
	return out
}

// HelpText enumerates every category and document command.
func (c *Catalogue) HelpText() string {
	var b strings.Builder
	b.WriteString("📌 *Available Commands:*\n")
	for _, cmd := range c.Visible(KindCategory, KindDocument) {
		b.WriteString("- `/" + cmd.Name + "`")
		if cmd.Note != "" {
			b.WriteString(" " + cmd.Note)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nYou can type the command with or without the `/`.")
	return b.String()
}

// BotCommands returns the visible commands for the Telegram command menu, sorted by name.
func (c *Catalogue) BotCommands() []tele.Command {
	visible := c.Visible()
	list := make([]tele.Command, 0, len(visible))
	for _, cmd := range visible {
		list = append(list, tele.Command{Text: cmd.Name, Description: cmd.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimPrefix(name, "/")
}
