package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/residentbot/core/directory"
	"github.com/m3rciful/residentbot/core/telegram"
	"github.com/m3rciful/residentbot/core/telegram/commands"
	"github.com/m3rciful/residentbot/core/telegram/telegramtest"
)

const chatID int64 = 500

type fakeStore struct {
	objects map[string][]byte
	err     error
	paths   []string
}

func (f *fakeStore) Download(_ context.Context, key, path string) error {
	f.paths = append(f.paths, path)
	if f.err != nil {
		return f.err
	}
	data, ok := f.objects[key]
	if !ok {
		return fmt.Errorf("download %s: %w", key, directory.ErrObjectNotFound)
	}
	return os.WriteFile(path, data, 0o600)
}

func testSnapshot() *directory.Snapshot {
	return directory.NewSnapshot(nil, []directory.Contact{
		{Category: "Plumber", Name: "Ravi_K", Number: "9876543210"},
		{Category: "Shops", Name: "Kirana", Number: "9123456789"},
		{Category: " plumber ", Name: "Anil", Number: "+91 91111-22222"},
	})
}

func newDispatcher(t *testing.T, store directory.ObjectStore) (*Dispatcher, string) {
	t.Helper()
	dir := t.TempDir()
	return New(Config{
		Directory:   testSnapshot(),
		Store:       store,
		ScratchDir:  dir,
		DocumentKey: "waste_management.pdf",
	}), dir
}

func assertScratchEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDispatchBranches(t *testing.T) {
	cases := []struct {
		text   string
		branch Branch
		reply  string
	}{
		{"", BranchEmpty, MsgEmpty},
		{"/start", BranchStart, MsgWelcome},
		{"start", BranchStart, MsgWelcome},
		{"/help", BranchHelp, commands.Default().HelpText()},
		{"help", BranchHelp, commands.Default().HelpText()},
		{"/weather", BranchFallback, "🤖 Unrecognized command: `/weather`. Please use `/help` to see the available options."},
		{"//help", BranchFallback, "🤖 Unrecognized command: `//help`. Please use `/help` to see the available options."},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			d, _ := newDispatcher(t, &fakeStore{})
			gw := &telegramtest.Recorder{}

			res := d.Dispatch(context.Background(), gw, chatID, tc.text)
			assert.Equal(t, tc.branch, res.Branch)
			assert.NoError(t, res.Err)

			sent := gw.Sent()
			require.Len(t, sent, 1)
			assert.Equal(t, chatID, sent[0].ChatID)
			assert.Equal(t, tc.reply, sent[0].Text)
		})
	}
}

func TestDispatchCategoryListsMatchingContacts(t *testing.T) {
	d, _ := newDispatcher(t, &fakeStore{})
	gw := &telegramtest.Recorder{}

	res := d.Dispatch(context.Background(), gw, chatID, "/plumber")
	assert.Equal(t, BranchCategory, res.Branch)
	assert.Equal(t, "plumber", res.Command)

	sent := gw.Sent()
	require.Len(t, sent, 1)
	want := "📌 *Plumber Contacts:*\n\n" +
		"• *Ravi\\_K*\n  📞 `+91 98765 43210`\n\n" +
		"• *Anil*\n  📞 `+91 91111 22222`"
	assert.Equal(t, want, sent[0].Text)
	assert.NotContains(t, sent[0].Text, "Kirana")
}

func TestDispatchCategoryWithoutContacts(t *testing.T) {
	d, _ := newDispatcher(t, &fakeStore{})
	gw := &telegramtest.Recorder{}

	res := d.Dispatch(context.Background(), gw, chatID, "milkman")
	assert.Equal(t, BranchCategory, res.Branch)
	last, _ := gw.Last()
	assert.Equal(t, "🚫 No contacts found for `Milkman`. Please check the command or spelling!", last.Text)
}

func TestContactLookupReportsSendFailure(t *testing.T) {
	d, _ := newDispatcher(t, &fakeStore{})
	gw := &telegramtest.Recorder{Err: errors.New("blocked")}

	res := d.Dispatch(context.Background(), gw, chatID, "shops")
	assert.Equal(t, BranchCategory, res.Branch)
	assert.ErrorIs(t, res.Err, telegram.ErrTransport)
}

func TestContactLookupWithoutDirectory(t *testing.T) {
	d := New(Config{})
	gw := &telegramtest.Recorder{}

	res := d.Dispatch(context.Background(), gw, chatID, "shops")
	require.Error(t, res.Err)
	last, _ := gw.Last()
	assert.Equal(t, "❌ An internal error occurred while fetching details for `Shops`.", last.Text)
}

func TestDocumentDelivered(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{"waste_management.pdf": []byte("%PDF-1.4")}}
	d, dir := newDispatcher(t, store)
	gw := &telegramtest.Recorder{}

	res := d.Dispatch(context.Background(), gw, chatID, "/wastemanagementpdf")
	assert.Equal(t, BranchDocument, res.Branch)
	require.NoError(t, res.Err)

	sent := gw.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, telegramtest.KindDocument, sent[0].Kind)
	assert.Equal(t, commands.DocumentCaption, sent[0].Doc.Caption)
	assert.Equal(t, "waste_management.pdf", sent[0].Doc.FileName)
	assert.Equal(t, "%PDF-1.4", string(sent[0].Body))
	require.Len(t, store.paths, 1)
	assert.NoFileExists(t, store.paths[0])
	assertScratchEmpty(t, dir)
}

func TestDocumentFailuresCleanUpAndReport(t *testing.T) {
	cases := []struct {
		name  string
		store *fakeStore
		gw    *telegramtest.Recorder
		reply string
	}{
		{
			name:  "object missing",
			store: &fakeStore{},
			gw:    &telegramtest.Recorder{},
			reply: "❌ Error: The requested document 'waste\\_management.pdf' was not found.",
		},
		{
			name:  "bucket missing",
			store: &fakeStore{err: fmt.Errorf("download: %w", directory.ErrBucketNotFound)},
			gw:    &telegramtest.Recorder{},
			reply: MsgBucketNotFound,
		},
		{
			name:  "storage unreachable",
			store: &fakeStore{err: fmt.Errorf("%w: dial tcp", directory.ErrStorage)},
			gw:    &telegramtest.Recorder{},
			reply: MsgDocumentFailed,
		},
		{
			name:  "transport failure",
			store: &fakeStore{objects: map[string][]byte{"waste_management.pdf": []byte("x")}},
			gw:    &telegramtest.Recorder{DocErr: errors.New("413 request entity too large")},
			reply: MsgSendFailed,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, dir := newDispatcher(t, tc.store)

			res := d.Dispatch(context.Background(), tc.gw, chatID, "wastemanagementpdf")
			assert.Equal(t, BranchDocument, res.Branch)
			assert.Error(t, res.Err)

			last, ok := tc.gw.Last()
			require.True(t, ok)
			assert.Equal(t, telegramtest.KindText, last.Kind)
			assert.Equal(t, tc.reply, last.Text)

			require.Len(t, tc.store.paths, 1)
			assert.NoFileExists(t, tc.store.paths[0])
			assertScratchEmpty(t, dir)
		})
	}
}

func TestFormatContactsFillsMissingFields(t *testing.T) {
	out := FormatContacts("Auto", []directory.Contact{{Category: "auto"}})
	assert.Equal(t, "📌 *Auto Contacts:*\n\n• *N/A*\n  📞 `N/A`", out)
}
