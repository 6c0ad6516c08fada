// Package telegramtest provides a Gateway double that records outbound messages.
package telegramtest

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/m3rciful/residentbot/core/telegram"
)

// Kind names the gateway method that produced a Sent entry.
type Kind string

// Recorded gateway methods.
const (
	KindText           Kind = "text"
	KindContactRequest Kind = "contact_request"
	KindDocument       Kind = "document"
)

// Sent is one recorded outbound call.
type Sent struct {
	Kind   Kind
	ChatID int64
	Text   string
	Doc    telegram.Document
	// Body is the document content read at send time.
	Body []byte
}

// Recorder implements telegram.Gateway in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent

	// Err, when set, is returned wrapped in telegram.ErrTransport by every call.
	Err error
	// DocErr, when set, fails only SendDocument.
	DocErr error
}

var _ telegram.Gateway = (*Recorder)(nil)

// SendText records a text message.
func (r *Recorder) SendText(_ context.Context, chatID int64, text string) error {
	return r.record(Sent{Kind: KindText, ChatID: chatID, Text: text}, nil)
}

// SendContactRequest records a contact-share prompt.
func (r *Recorder) SendContactRequest(_ context.Context, chatID int64, prompt string) error {
	return r.record(Sent{Kind: KindContactRequest, ChatID: chatID, Text: prompt}, nil)
}

// SendDocument records a document and snapshots its content.
func (r *Recorder) SendDocument(_ context.Context, chatID int64, doc telegram.Document) error {
	body, _ := os.ReadFile(doc.Path)
	return r.record(Sent{Kind: KindDocument, ChatID: chatID, Text: doc.Caption, Doc: doc, Body: body}, r.DocErr)
}

func (r *Recorder) record(s Sent, extra error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, err := range []error{r.Err, extra} {
		if err != nil {
			return wrapTransport(err)
		}
	}
	r.sent = append(r.sent, s)
	return nil
}

// Sent returns recorded calls in order.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// Last returns the most recent call, or false when nothing was sent.
func (r *Recorder) Last() (Sent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Sent{}, false
	}
	return r.sent[len(r.sent)-1], true
}

func wrapTransport(err error) error { return fmt.Errorf("%w: %w", telegram.ErrTransport, err) }
