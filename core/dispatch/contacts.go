package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/residentbot/core/directory"
	"github.com/m3rciful/residentbot/core/logger"
	"github.com/m3rciful/residentbot/core/phone"
	"github.com/m3rciful/residentbot/core/telegram"
	"github.com/m3rciful/residentbot/core/telegram/format"
)

const missingField = "N/A"

// lookupContacts sends every contact in category as one message. Failures are
// reported to the chat and returned for logging only.
func (d *Dispatcher) lookupContacts(ctx context.Context, gw telegram.Gateway, chatID int64, category string) (err error) {
	title := format.Title(category)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("contact lookup panic: %v", r)
		}
		if err != nil {
			logger.Error(ctx, "dispatch", "contacts.failed",
				slog.String("category", category),
				slog.String("err", err.Error()),
			)
			_ = gw.SendText(ctx, chatID, "❌ An internal error occurred while fetching details for "+format.Code(title)+".")
		}
	}()

	if d.directory == nil {
		return fmt.Errorf("contact directory not loaded")
	}
	found := d.directory.ContactsIn(category)
	logger.Debug(ctx, "dispatch", "contacts.lookup",
		slog.String("category", category),
		slog.Int("count", len(found)),
	)
	if len(found) == 0 {
		msg := "🚫 No contacts found for " + format.Code(title) + ". Please check the command or spelling!"
		return gw.SendText(ctx, chatID, msg)
	}
	return gw.SendText(ctx, chatID, FormatContacts(title, found))
}

// FormatContacts renders contacts as a Markdown list under a category header.
// Numbers are normalized here, not at load time.
func FormatContacts(title string, contacts []directory.Contact) string {
	var b strings.Builder
	b.WriteString("📌 *" + format.Escape(title) + " Contacts:*\n\n")
	for _, c := range contacts {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			name = missingField
		}
		number := phone.Normalize(c.Number).String()
		if number == "" {
			number = missingField
		}
		b.WriteString("• " + format.Bold(name) + "\n  📞 " + format.Code(number) + "\n\n")
	}
	return strings.TrimSpace(b.String())
}
