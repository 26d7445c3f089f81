package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"curator-bot/internal/dto"
	"curator-bot/internal/entity"
	"curator-bot/internal/pkg/logger"
	"curator-bot/internal/repository/memory"
	"curator-bot/internal/repository/testhelper"
	"curator-bot/internal/repository/unitofwork"
	"curator-bot/internal/service"
	"curator-bot/pkg/draft"
	"curator-bot/pkg/llm"
	"curator-bot/pkg/media"
	"curator-bot/pkg/reference"
	"curator-bot/pkg/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const operator int64 = 42

type sentMessage struct {
	ChatID  int64
	Ref     int
	Text    string
	Buttons [][]reference.Button
	Edited  bool
}

type fakeMessenger struct {
	mu       sync.Mutex
	nextRef  int
	messages []sentMessage
	answered []string
}

func (m *fakeMessenger) SendMessage(_ context.Context, chatID int64, text string, buttons [][]reference.Button) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRef++
	m.messages = append(m.messages, sentMessage{ChatID: chatID, Ref: m.nextRef, Text: text, Buttons: buttons})
	return m.nextRef, nil
}

func (m *fakeMessenger) EditMessage(_ context.Context, chatID int64, ref int, text string, buttons [][]reference.Button) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, sentMessage{ChatID: chatID, Ref: ref, Text: text, Buttons: buttons, Edited: true})
	return nil
}

func (m *fakeMessenger) AnswerCallback(_ context.Context, callbackID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, callbackID)
	return nil
}

func (m *fakeMessenger) last() sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return sentMessage{}
	}
	return m.messages[len(m.messages)-1]
}

func (m *fakeMessenger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// payload finds the button labelled text on the last message.
func (m *fakeMessenger) payload(t *testing.T, text string) string {
	t.Helper()
	for _, row := range m.last().Buttons {
		for _, b := range row {
			if b.Text == text {
				return b.Payload
			}
		}
	}
	t.Fatalf("no %q button on %q", text, m.last().Text)
	return ""
}

type scriptedProvider struct {
	answers []string
	err     error
	calls   int
}

func (p *scriptedProvider) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	if len(p.answers) == 0 {
		return "", errors.New("no scripted answer")
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	return []byte(ref), nil
}

type stubTranscriber struct {
	err error
}

func (s stubTranscriber) Transcribe(_ context.Context, audio []byte, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "spoken " + string(audio), nil
}

type harness struct {
	router    *Router
	messenger *fakeMessenger
	provider  *scriptedProvider
	sessions  *session.Manager
	lifecycle service.ILifecycleService
}

func newHarness(t *testing.T, transcriber media.Transcriber) *harness {
	t.Helper()
	log := logger.NewNopLogger()

	db := testhelper.NewSQLiteDB(t)
	lifecycle := service.NewLifecycleService(unitofwork.NewRepositoryFactory(db), nil, log)
	sessions := session.NewManager(memory.NewSessionRepository(time.Hour))
	provider := &scriptedProvider{}
	messenger := &fakeMessenger{}

	r := New(Dependencies{
		Sessions:   sessions,
		Collector:  media.NewCollector(sessions, stubFetcher{}, transcriber, log),
		Composer:   draft.NewComposer(provider, sessions, log),
		Lifecycle:  lifecycle,
		Codec:      reference.NewCodec(lifecycle, 8, log),
		Messenger:  messenger,
		IsOperator: func(chatID int64) bool { return chatID == operator },
		PageSize:   3,
		Logger:     log,
	})
	return &harness{router: r, messenger: messenger, provider: provider, sessions: sessions, lifecycle: lifecycle}
}

func (h *harness) handle(t *testing.T, ev Event) error {
	t.Helper()
	return h.router.Handle(context.Background(), ev)
}

func (h *harness) press(t *testing.T, payload string, messageRef int) error {
	t.Helper()
	return h.handle(t, ButtonEvent{ChatID: operator, Payload: payload, MessageRef: messageRef, CallbackID: "cb"})
}

func draftJSON(title string) string {
	return fmt.Sprintf(`{"title":%q,"short_summary":"short","full_summary":"full","tags":["sea"]}`, title)
}

func TestRouter_DropsUnauthorizedChats(t *testing.T) {
	h := newHarness(t, stubTranscriber{})

	require.NoError(t, h.handle(t, CommandEvent{ChatID: 7, Name: "start"}))
	assert.Zero(t, h.messenger.count())

	s, err := h.sessions.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestRouter_AuthorThenPublish(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, stubTranscriber{})
	h.provider.answers = []string{draftJSON("Harbour")}

	require.NoError(t, h.handle(t, CommandEvent{ChatID: operator, Name: "start"}))
	require.NoError(t, h.handle(t, TextEvent{ChatID: operator, Content: "boats at dusk"}))
	require.NoError(t, h.handle(t, TextEvent{ChatID: operator, Content: "calm water"}))
	for _, ref := range []string{"p0", "p1", "p2"} {
		require.NoError(t, h.handle(t, MediaEvent{ChatID: operator, Kind: MediaPhoto, Ref: ref}))
	}
	require.NoError(t, h.handle(t, CommandEvent{ChatID: operator, Name: "set-location", Args: []string{"Old", "port"}}))

	require.NoError(t, h.handle(t, CommandEvent{ChatID: operator, Name: "finish"}))
	preview := h.messenger.last()
	assert.Contains(t, preview.Text, "Harbour")
	assert.Contains(t, preview.Text, "Location: Old port")
	assert.Contains(t, preview.Text, "Media: 3 photos, 0 videos, 0 documents")

	require.NoError(t, h.press(t, h.messenger.payload(t, "Publish"), preview.Ref))
	assert.Contains(t, h.messenger.last().Text, "Published.")

	s, err := h.sessions.Get(ctx, operator)
	require.NoError(t, err)
	assert.Nil(t, s, "finalize ends the session")

	records, err := h.lifecycle.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, entity.RecordStatusPublished, records[0].Status)

	detail, err := h.lifecycle.Show(ctx, records[0].Id)
	require.NoError(t, err)
	assert.Len(t, detail.Images, 3)
	assert.Equal(t, "Old port", detail.Record.Metadata.Location)
	assert.Equal(t, []string{"cb"}, h.messenger.answered)
}

// flakyPublish fails Publish while err is set and delegates everything else.
type flakyPublish struct {
	service.ILifecycleService
	err error
}

func (f *flakyPublish) Publish(ctx context.Context, id uuid.UUID) (*entity.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ILifecycleService.Publish(ctx, id)
}

func TestRouter_PublishFailureKeepsSessionForRetry(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, stubTranscriber{})
	h.provider.answers = []string{draftJSON("Harbour")}
	flaky := &flakyPublish{
		ILifecycleService: h.lifecycle,
		err:               fmt.Errorf("%w: publish record: connection reset", entity.ErrTransactionFailed),
	}
	h.router.lifecycle = flaky

	require.NoError(t, h.handle(t, CommandEvent{ChatID: operator, Name: "start"}))
	require.NoError(t, h.handle(t, TextEvent{ChatID: operator, Content: "boats at dusk"}))
	require.NoError(t, h.handle(t, CommandEvent{ChatID: operator, Name: "finish"}))
	preview := h.messenger.last()
	publish := h.messenger.payload(t, "Publish")
	editTitle := h.messenger.payload(t, "Edit title")

	before := h.messenger.count()
	err := h.press(t, publish, preview.Ref)
	require.ErrorIs(t, err, entity.ErrTransactionFailed)

	require.Equal(t, before+1, h.messenger.count(), "one reply, no generic failure notice")
	reply := h.messenger.last()
	assert.Contains(t, reply.Text, "Saved as draft, but publishing failed.")
	assert.Contains(t, reply.Text, "Harbour [draft]")
	assert.NotContains(t, reply.Text, "Nothing was modified")
	assert.NotEmpty(t, h.messenger.payload(t, "Publish"))

	s, err := h.sessions.Get(ctx, operator)
	require.NoError(t, err)
	require.NotNil(t, s, "session survives a failed publish")
	assert.NotEmpty(t, s.RecordID)

	err = h.press(t, editTitle, preview.Ref)
	assert.ErrorIs(t, err, entity.ErrValidation)

	flaky.err = nil
	require.NoError(t, h.press(t, publish, preview.Ref))
	assert.Contains(t, h.messenger.last().Text, "Published.")

	records, err := h.lifecycle.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1, "retry reuses the saved record")
	assert.Equal(t, s.RecordID, records[0].Id.String())
	assert.Equal(t, entity.RecordStatusPublished, records[0].Status)

	s, err = h.sessions.Get(ctx, operator)
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Equal(t, 1, h.provider.calls)
}

func TestRouter_FinishTwiceSavesDraft(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, stubTranscriber{})
	h.provider.answers = []string{draftJSON("Quiet")}

	require.NoError(t, h.handle(t, CommandEvent{ChatID: operator, Name: "start"}))
	require.NoError(t, h.handle(t, TextEvent{ChatID: operator, Content: "notes"}))
	require.NoError(t, h.handle(t, CommandEvent{ChatID: operator, Name: "finish"}))
	require.NoError(t, h.press(t, h.messenger.payload(t, "Save as draft"), h.messenger.last().Ref))

	assert.Contains(t, h.messenger.last().Text, "Saved as draft.")
	records, err := h.lifecycle.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, entity.RecordStatusDraft, records[0].Status)
	assert.Equal(t, 1, h.provider.calls)
}

func TestRouter_RequiresSession(t *testing.T) {
	h := newHarness(t, stubTranscriber{})

	err := h.handle(t, MediaEvent{ChatID: operator, Kind: MediaPhoto, Ref: "p"})
	assert.ErrorIs(t, err, entity.ErrSessionMissing)
	assert.Equal(t, "No active session. Send /start to begin.", h.messenger.last().Text)

	err = h.handle(t, TextEvent{ChatID: operator, Content: "hello"})
	assert.ErrorIs(t, err, entity.ErrSessionMissing)
}

func TestRouter_EditFieldFlow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, stubTranscriber{})
	h.provider.answers = []string{draftJSON("Draft title")}

	require.NoError(t, h.handle(t, CommandEvent{ChatID: operator, Name: "start"}))
	require.NoError(t, h.handle(t, TextEvent{ChatID: operator, Content: "material"}))
	require.NoError(t, h.handle(t, CommandEvent{ChatID: operator, Name: "finish"}))

	require.NoError(t, h.press(t, h.messenger.payload(t, "Edit title"), 0))
	assert.Equal(t, "Send the new title.", h.messenger.last().Text)

	require.NoError(t, h.handle(t, TextEvent{ChatID: operator, Content: "Better title"}))
	assert.True(t, strings.HasPrefix(h.messenger.last().Text, "Updated title."))

	s, err := h.sessions.Get(ctx, operator)
	require.NoError(t, err)
	assert.Equal(t, "Better title", s.Draft.Title)
	assert.Empty(t, s.EditingField)
	assert.Equal(t, []string{"material"}, s.RawText, "edit values are not authoring text")
}

func TestRouter_GenerationFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, stubTranscriber{})
	h.provider.answers = []string{draftJSON("First"), "not json at all"}

	require.NoError(t, h.handle(t, CommandEvent{ChatID: operator, Name: "start"}))
	require.NoError(t, h.handle(t, TextEvent{ChatID: operator, Content: "material"}))
	require.NoError(t, h.handle(t, CommandEvent{ChatID: operator, Name: "finish"}))

	err := h.press(t, h.messenger.payload(t, "Regenerate"), 0)
	assert.ErrorIs(t, err, entity.ErrGenerationFailed)
	assert.Contains(t, h.messenger.last().Text, "Could not generate the draft")

	s, err := h.sessions.Get(ctx, operator)
	require.NoError(t, err)
	assert.Equal(t, "First", s.Draft.Title)
}

func TestRouter_VoiceNotes(t *testing.T) {
	ctx := context.Background()

	t.Run("transcribed", func(t *testing.T) {
		h := newHarness(t, stubTranscriber{})
		require.NoError(t, h.handle(t, CommandEvent{ChatID: operator, Name: "start"}))
		require.NoError(t, h.handle(t, MediaEvent{ChatID: operator, Kind: MediaVoice, Ref: "v1"}))

		assert.Equal(t, "Transcribed: spoken v1", h.messenger.last().Text)
		s, err := h.sessions.Get(ctx, operator)
		require.NoError(t, err)
		assert.Equal(t, []string{"spoken v1"}, s.VoiceTranscripts)
		assert.Empty(t, s.RawText)
	})

	t.Run("transcription failure is skipped", func(t *testing.T) {
		h := newHarness(t, stubTranscriber{err: errors.New("whisper down")})
		require.NoError(t, h.handle(t, CommandEvent{ChatID: operator, Name: "start"}))
		require.NoError(t, h.handle(t, MediaEvent{ChatID: operator, Kind: MediaVoice, Ref: "v1"}))

		assert.Equal(t, "Could not transcribe the voice note, it was skipped.", h.messenger.last().Text)
		s, err := h.sessions.Get(ctx, operator)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Empty(t, s.VoiceTranscripts)
	})
}

func TestRouter_CancelDiscardsSession(t *testing.T) {
	h := newHarness(t, stubTranscriber{})
	require.NoError(t, h.handle(t, CommandEvent{ChatID: operator, Name: "start"}))
	require.NoError(t, h.press(t, h.messenger.payload(t, "Cancel"), h.messenger.last().Ref))

	last := h.messenger.last()
	assert.True(t, last.Edited)
	assert.Equal(t, "Session cancelled.", last.Text)

	s, err := h.sessions.Get(context.Background(), operator)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func seedRecords(t *testing.T, h *harness, n int) []*entity.Record {
	t.Helper()
	var out []*entity.Record
	for i := 0; i < n; i++ {
		rec, err := h.lifecycle.Finalize(context.Background(), &dto.FinalizeRecordRequest{
			Draft: &entity.Draft{Title: fmt.Sprintf("Record %d", i), FullSummary: fmt.Sprintf("S%d", i)},
			Media: entity.MediaRefs{Photos: []string{fmt.Sprintf("r%d-p0", i)}},
		})
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func TestRouter_BrowseAndModerate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, stubTranscriber{})
	seedRecords(t, h, 4)

	require.NoError(t, h.handle(t, CommandEvent{ChatID: operator, Name: "list"}))
	list := h.messenger.last()
	assert.Equal(t, "Records (1/2)", list.Text)
	require.Len(t, list.Buttons, 4, "3 items and the nav row")

	require.NoError(t, h.press(t, h.messenger.payload(t, "Next »"), list.Ref))
	page2 := h.messenger.last()
	assert.True(t, page2.Edited)
	assert.Equal(t, list.Ref, page2.Ref)
	assert.Equal(t, "Records (2/2)", page2.Text)

	// re-rendering the same page is byte-identical
	require.NoError(t, h.press(t, h.messenger.payload(t, "2/2"), list.Ref))
	assert.Equal(t, page2.Text, h.messenger.last().Text)
	assert.Equal(t, page2.Buttons, h.messenger.last().Buttons)

	item := page2.Buttons[0][0]
	require.NoError(t, h.press(t, item.Payload, list.Ref))
	assert.Contains(t, h.messenger.last().Text, "[draft]")

	require.NoError(t, h.press(t, h.messenger.payload(t, "Publish"), list.Ref))
	assert.Contains(t, h.messenger.last().Text, "[published]")

	require.NoError(t, h.press(t, h.messenger.payload(t, "Unpublish"), list.Ref))
	assert.Contains(t, h.messenger.last().Text, "[draft]")

	require.NoError(t, h.press(t, h.messenger.payload(t, "Delete"), list.Ref))
	assert.Contains(t, h.messenger.last().Text, "cannot be undone")
	reject := h.messenger.payload(t, "Yes, delete")

	require.NoError(t, h.press(t, reject, list.Ref))
	assert.Contains(t, h.messenger.last().Text, "Deleted")

	records, err := h.lifecycle.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	// the old token no longer resolves
	err = h.press(t, item.Payload, list.Ref)
	assert.ErrorIs(t, err, entity.ErrRecordNotFound)
	assert.Equal(t, "Record not found.", h.messenger.last().Text)
}

func TestRouter_MergeCommand(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, stubTranscriber{})
	recs := seedRecords(t, h, 2)

	require.NoError(t, h.handle(t, CommandEvent{
		ChatID: operator,
		Name:   "merge",
		Args:   []string{recs[0].Id.String()[:8], recs[1].Id.String()},
	}))
	assert.Contains(t, h.messenger.last().Text, "Merged 2 records.")

	detail, err := h.lifecycle.Show(ctx, recs[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "S0\n\nS1", detail.Record.FullSummary)
	assert.Len(t, detail.Images, 2)

	err = h.handle(t, CommandEvent{ChatID: operator, Name: "merge", Args: []string{recs[0].Id.String()}})
	assert.ErrorIs(t, err, entity.ErrValidation)

	err = h.handle(t, CommandEvent{ChatID: operator, Name: "merge", Args: []string{recs[0].Id.String(), recs[0].Id.String()[:8]}})
	assert.ErrorIs(t, err, entity.ErrValidation)

	err = h.handle(t, CommandEvent{ChatID: operator, Name: "merge", Args: []string{recs[0].Id.String(), uuid.NewString()}})
	assert.ErrorIs(t, err, entity.ErrRecordNotFound)
}

func TestRouter_MergeCountsDistinctRecords(t *testing.T) {
	h := newHarness(t, stubTranscriber{})
	recs := seedRecords(t, h, 2)

	b := recs[1].Id.String()
	require.NoError(t, h.handle(t, CommandEvent{
		ChatID: operator,
		Name:   "merge",
		Args:   []string{recs[0].Id.String(), b, strings.ToUpper(b[:8])},
	}))
	assert.Contains(t, h.messenger.last().Text, "Merged 2 records.")
}

func TestRouter_StatsCommand(t *testing.T) {
	h := newHarness(t, stubTranscriber{})
	recs := seedRecords(t, h, 3)
	_, err := h.lifecycle.Publish(context.Background(), recs[1].Id)
	require.NoError(t, err)

	require.NoError(t, h.handle(t, CommandEvent{ChatID: operator, Name: "stats"}))
	assert.Equal(t, "Drafts: 2\nPublished: 1\nTotal: 3", h.messenger.last().Text)
}

func TestRouter_IgnoresUnreadablePayloads(t *testing.T) {
	h := newHarness(t, stubTranscriber{})
	assert.NoError(t, h.press(t, "bogus:123", 0))
	assert.Zero(t, h.messenger.count())
	assert.Equal(t, []string{"cb"}, h.messenger.answered)
}

func TestRouter_UnknownCommand(t *testing.T) {
	h := newHarness(t, stubTranscriber{})
	require.NoError(t, h.handle(t, CommandEvent{ChatID: operator, Name: "dance"}))
	assert.Contains(t, h.messenger.last().Text, "/help")

	require.NoError(t, h.handle(t, CommandEvent{ChatID: operator, Name: "help"}))
	assert.Equal(t, helpText, h.messenger.last().Text)
}
