package keyboard

import tele "gopkg.in/telebot.v4"

// DefaultContactButtonText labels the contact-share button.
const DefaultContactButtonText = "Share Contact"

// ContactRequest builds a one-time reply keyboard with a single button
// that shares the user's phone number when tapped.
func ContactRequest(label string) *tele.ReplyMarkup {
	if label == "" {
		label = DefaultContactButtonText
	}
	markup := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	markup.Reply(markup.Row(markup.Contact(label)))
	return markup
}

// HasKeyboard reports whether markup carries any reply or inline keyboard.
func HasKeyboard(markup *tele.ReplyMarkup) bool {
	if markup == nil {
		return false
	}
	return len(markup.ReplyKeyboard) > 0 || len(markup.InlineKeyboard) > 0
}
