package telegram

import "context"

// Counting wraps a Gateway and counts successful sends for one update.
// It is not safe for concurrent use; build one per update.
type Counting struct {
	next     Gateway
	messages int
	kb       bool
}

var _ Gateway = (*Counting)(nil)

// NewCounting wraps next.
func NewCounting(next Gateway) *Counting {
	return &Counting{next: next}
}

// SendText proxies Gateway.SendText while updating counters.
func (c *Counting) SendText(ctx context.Context, chatID int64, text string) error {
	err := c.next.SendText(ctx, chatID, text)
	if err == nil {
		c.inc(false)
	}
	return err
}

// SendContactRequest proxies Gateway.SendContactRequest while updating counters.
func (c *Counting) SendContactRequest(ctx context.Context, chatID int64, prompt string) error {
	err := c.next.SendContactRequest(ctx, chatID, prompt)
	if err == nil {
		c.inc(true)
	}
	return err
}

// SendDocument proxies Gateway.SendDocument while updating counters.
func (c *Counting) SendDocument(ctx context.Context, chatID int64, doc Document) error {
	err := c.next.SendDocument(ctx, chatID, doc)
	if err == nil {
		c.inc(false)
	}
	return err
}

func (c *Counting) inc(hasKB bool) {
	c.messages++
	if hasKB {
		c.kb = true
	}
}

// Counters returns the number of messages sent and whether any carried a keyboard.
func (c *Counting) Counters() (int, bool) {
	return c.messages, c.kb
}
