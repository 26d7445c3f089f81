package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"curator-bot/internal/dto"
	"curator-bot/internal/entity"
	"curator-bot/internal/pkg/logger"
	"curator-bot/internal/service"
	"curator-bot/pkg/draft"
	"curator-bot/pkg/media"
	"curator-bot/pkg/reference"
	"curator-bot/pkg/session"
	"curator-bot/pkg/store"

	"github.com/google/uuid"
)

// Router classifies inbound events and drives the authoring and moderation
// flows. It is not safe for concurrent use on one chat; the Dispatcher
// serializes events per chat.
type Router struct {
	sessions   *session.Manager
	collector  *media.Collector
	composer   *draft.Composer
	lifecycle  service.ILifecycleService
	codec      *reference.Codec
	messenger  Messenger
	isOperator func(chatID int64) bool
	pageSize   int
	logger     logger.ILogger
}

var _ ActionVisitor = (*Router)(nil)

type Dependencies struct {
	Sessions   *session.Manager
	Collector  *media.Collector
	Composer   *draft.Composer
	Lifecycle  service.ILifecycleService
	Codec      *reference.Codec
	Messenger  Messenger
	IsOperator func(chatID int64) bool
	PageSize   int
	Logger     logger.ILogger
}

func New(deps Dependencies) *Router {
	pageSize := deps.PageSize
	if pageSize < 1 {
		pageSize = 5
	}
	return &Router{
		sessions:   deps.Sessions,
		collector:  deps.Collector,
		composer:   deps.Composer,
		lifecycle:  deps.Lifecycle,
		codec:      deps.Codec,
		messenger:  deps.Messenger,
		isOperator: deps.IsOperator,
		pageSize:   pageSize,
		logger:     deps.Logger,
	}
}

// Handle processes one event to completion. Failures are reported to the
// operator and returned for logging; none of them is fatal.
func (r *Router) Handle(ctx context.Context, ev Event) error {
	if r.isOperator != nil && !r.isOperator(ev.Chat()) {
		r.logger.Warn("Router", "Dropped event from unauthorized chat", map[string]interface{}{
			"chat_id": ev.Chat(),
		})
		return nil
	}

	var err error
	switch e := ev.(type) {
	case CommandEvent:
		err = r.handleCommand(ctx, e)
	case MediaEvent:
		err = r.handleMedia(ctx, e)
	case TextEvent:
		err = r.handleText(ctx, e)
	case ButtonEvent:
		err = r.handleButton(ctx, e)
	default:
		err = fmt.Errorf("unsupported event %T", ev)
	}

	var handled handledError
	if err != nil && !errors.As(err, &handled) {
		r.report(ctx, ev.Chat(), err)
	}
	return err
}

// handledError is a failure the operator has already been told about.
type handledError struct{ err error }

func (e handledError) Error() string { return e.err.Error() }
func (e handledError) Unwrap() error { return e.err }

func (r *Router) handleCommand(ctx context.Context, e CommandEvent) error {
	value := strings.TrimSpace(strings.Join(e.Args, " "))

	switch e.Name {
	case "start":
		return r.start(ctx, e.ChatID)
	case "finish":
		return r.finish(ctx, e.ChatID, 0)
	case "cancel":
		return r.cancel(ctx, e.ChatID, 0)
	case "list":
		return r.showList(ctx, e.ChatID, 0, 0)
	case "stats":
		st, err := r.lifecycle.Stats(ctx)
		if err != nil {
			return err
		}
		return r.send(ctx, e.ChatID, statsView(st))
	case "set-date":
		return r.setMetadata(ctx, e.ChatID, entity.DraftFieldDate, value)
	case "set-location":
		return r.setMetadata(ctx, e.ChatID, entity.DraftFieldLocation, value)
	case "merge":
		return r.merge(ctx, e.ChatID, e.Args)
	case "help":
		return r.send(ctx, e.ChatID, reference.View{Text: helpText})
	}
	return r.send(ctx, e.ChatID, reference.View{Text: "Unknown command. Send /help for the list."})
}

func (r *Router) handleMedia(ctx context.Context, e MediaEvent) error {
	var (
		ok  bool
		err error
	)
	switch e.Kind {
	case MediaPhoto:
		ok, err = r.collector.AddPhoto(ctx, e.ChatID, e.Ref)
	case MediaVideo:
		ok, err = r.collector.AddVideo(ctx, e.ChatID, e.Ref)
	case MediaDocument:
		ok, err = r.collector.AddDocument(ctx, e.ChatID, e.Ref)
	case MediaVoice:
		text, err := r.collector.AddVoice(ctx, e.ChatID, e.Ref)
		if err != nil {
			if errors.Is(err, entity.ErrGenerationFailed) {
				return r.send(ctx, e.ChatID, reference.View{Text: "Could not transcribe the voice note, it was skipped."})
			}
			return err
		}
		return r.send(ctx, e.ChatID, reference.View{Text: "Transcribed: " + text})
	default:
		return fmt.Errorf("unsupported media kind %q", e.Kind)
	}

	if err != nil {
		return err
	}
	if !ok {
		return entity.ErrSessionMissing
	}
	return nil
}

func (r *Router) handleText(ctx context.Context, e TextEvent) error {
	s, err := r.sessions.Get(ctx, e.ChatID)
	if err != nil {
		return err
	}
	if s == nil {
		return entity.ErrSessionMissing
	}

	if s.EditingField != "" {
		updated, err := r.composer.EditField(ctx, e.ChatID, s.EditingField, e.Content)
		if err != nil {
			return err
		}
		return r.showSession(ctx, updated, fmt.Sprintf("Updated %s.", fieldLabel(s.EditingField)))
	}

	_, err = r.sessions.AppendText(ctx, e.ChatID, e.Content)
	return err
}

func (r *Router) handleButton(ctx context.Context, e ButtonEvent) error {
	if e.CallbackID != "" {
		if err := r.messenger.AnswerCallback(ctx, e.CallbackID, ""); err != nil {
			r.logger.Warn("Router", "Failed to answer callback", map[string]interface{}{
				"chat_id": e.ChatID,
				"error":   err.Error(),
			})
		}
	}

	action, err := ParseAction(e.Payload)
	if err != nil {
		r.logger.Warn("Router", "Unreadable button payload", map[string]interface{}{
			"chat_id": e.ChatID,
			"payload": e.Payload,
			"error":   err.Error(),
		})
		return nil
	}
	return action.accept(ctx, r, e)
}

func (r *Router) start(ctx context.Context, chatID int64) error {
	if _, err := r.sessions.Start(ctx, chatID); err != nil {
		return err
	}
	return r.send(ctx, chatID, sessionStartedView())
}

func (r *Router) cancel(ctx context.Context, chatID int64, messageRef int) error {
	if err := r.sessions.End(ctx, chatID); err != nil {
		return err
	}
	return r.show(ctx, chatID, messageRef, reference.View{Text: "Session cancelled."})
}

// finish composes the first draft, or saves the existing one as a draft record.
func (r *Router) finish(ctx context.Context, chatID int64, messageRef int) error {
	s, err := r.requireSession(ctx, chatID)
	if err != nil {
		return err
	}
	if s.Draft == nil {
		return r.compose(ctx, s, false)
	}

	record, err := r.finalize(ctx, s)
	if err != nil {
		return err
	}
	r.endSession(ctx, chatID, record.Id)
	return r.showRecord(ctx, chatID, messageRef, record.Id, "Saved as draft.")
}

func (r *Router) compose(ctx context.Context, s *store.AuthoringSession, again bool) error {
	var (
		d   *entity.Draft
		err error
	)
	if again {
		d, err = r.composer.Regenerate(ctx, s)
	} else {
		d, err = r.composer.Compose(ctx, s)
	}
	if err != nil {
		return err
	}

	updated, err := r.sessions.MutateIfCurrent(ctx, s.ChatID, s.ID, func(cur *store.AuthoringSession) {
		cur.Draft = d
		cur.EditingField = ""
	})
	if err != nil {
		return err
	}
	return r.showSession(ctx, updated, "")
}

// finalize saves the session's draft as a record. The session is kept so a
// failed follow-up step can be repeated; a repeat reuses the saved record.
func (r *Router) finalize(ctx context.Context, s *store.AuthoringSession) (*entity.Record, error) {
	if s.RecordID != "" {
		if id, err := uuid.Parse(s.RecordID); err == nil {
			detail, err := r.lifecycle.Show(ctx, id)
			if err == nil {
				return detail.Record, nil
			}
			if !errors.Is(err, entity.ErrRecordNotFound) {
				return nil, err
			}
		}
	}

	record, err := r.lifecycle.Finalize(ctx, &dto.FinalizeRecordRequest{
		Draft:    s.Draft,
		Media:    s.Media(),
		Metadata: s.Metadata(),
	})
	if err != nil {
		return nil, err
	}
	if _, err := r.sessions.MutateIfCurrent(ctx, s.ChatID, s.ID, func(cur *store.AuthoringSession) {
		cur.RecordID = record.Id.String()
		cur.EditingField = ""
	}); err != nil {
		r.logger.Warn("Router", "Failed to remember saved record", map[string]interface{}{
			"chat_id":   s.ChatID,
			"record_id": record.Id.String(),
			"error":     err.Error(),
		})
	}
	return record, nil
}

func (r *Router) endSession(ctx context.Context, chatID int64, recordID uuid.UUID) {
	if err := r.sessions.End(ctx, chatID); err != nil {
		r.logger.Warn("Router", "Failed to end session after save", map[string]interface{}{
			"chat_id":   chatID,
			"record_id": recordID.String(),
			"error":     err.Error(),
		})
	}
}

func (r *Router) setMetadata(ctx context.Context, chatID int64, field entity.DraftField, value string) error {
	if _, err := r.requireEditable(ctx, chatID); err != nil {
		return err
	}
	if value == "" {
		return r.promptField(ctx, chatID, field)
	}
	s, err := r.composer.EditField(ctx, chatID, field, value)
	if err != nil {
		return err
	}
	return r.showSession(ctx, s, fmt.Sprintf("Updated %s.", fieldLabel(field)))
}

func (r *Router) promptField(ctx context.Context, chatID int64, field entity.DraftField) error {
	if _, err := r.sessions.SetEditingField(ctx, chatID, field); err != nil {
		return err
	}
	return r.send(ctx, chatID, reference.View{Text: fmt.Sprintf("Send the new %s.", fieldLabel(field))})
}

func (r *Router) merge(ctx context.Context, chatID int64, refs []string) error {
	if len(refs) < 2 {
		return fmt.Errorf("%w: usage: /merge <primary ref> <ref>...", entity.ErrValidation)
	}

	ids := make([]uuid.UUID, 0, len(refs))
	seen := make(map[uuid.UUID]bool, len(refs))
	for _, ref := range refs {
		id, err := r.codec.Decode(ctx, strings.ToLower(strings.TrimSpace(ref)))
		if err != nil {
			return err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) < 2 {
		return fmt.Errorf("%w: merge needs at least two different records", entity.ErrValidation)
	}

	detail, err := r.lifecycle.Merge(ctx, ids)
	if err != nil {
		return err
	}
	return r.showRecord(ctx, chatID, 0, detail.Record.Id, fmt.Sprintf("Merged %d records.", len(ids)))
}

// requireEditable refuses draft changes once the draft has been saved as a record.
func (r *Router) requireEditable(ctx context.Context, chatID int64) (*store.AuthoringSession, error) {
	s, err := r.requireSession(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if s.RecordID != "" {
		return nil, fmt.Errorf("%w: the draft is already saved, use the record's buttons", entity.ErrValidation)
	}
	return s, nil
}

func (r *Router) requireSession(ctx context.Context, chatID int64) (*store.AuthoringSession, error) {
	s, err := r.sessions.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, entity.ErrSessionMissing
	}
	return s, nil
}

// showSession sends the draft preview, or a short status while nothing is composed yet.
func (r *Router) showSession(ctx context.Context, s *store.AuthoringSession, notice string) error {
	if s.Draft == nil {
		if notice == "" {
			notice = "Saved."
		}
		return r.send(ctx, s.ChatID, reference.View{Text: notice})
	}
	view := draftView(s)
	if notice != "" {
		view.Text = notice + "\n\n" + view.Text
	}
	return r.send(ctx, s.ChatID, view)
}

func (r *Router) showList(ctx context.Context, chatID int64, messageRef int, pageIndex int) error {
	records, err := r.lifecycle.List(ctx)
	if err != nil {
		return err
	}

	items := make([]dto.RecordListItem, 0, len(records))
	ids := make([]uuid.UUID, 0, len(records))
	for _, rec := range records {
		items = append(items, dto.RecordListItem{Record: rec, Label: listLabel(rec)})
		ids = append(ids, rec.Id)
	}

	pages := reference.Paginate(items, r.pageSize)
	pageIndex = min(max(pageIndex, 0), len(pages)-1)
	page := pages[pageIndex]

	payloads, err := r.codec.EncodeListing(reference.ActionSelect, ids)
	if err != nil {
		return err
	}
	pageItems := make([]reference.PageItem, 0, len(page))
	for _, item := range page {
		pageItems = append(pageItems, reference.PageItem{Label: item.Label, Payload: payloads[item.Record.Id]})
	}

	view := reference.RenderPage(reference.PageInput{
		Title:      "Records",
		Items:      pageItems,
		PageIndex:  pageIndex,
		TotalPages: len(pages),
		Empty:      "No records yet.",
	})
	return r.show(ctx, chatID, messageRef, view)
}

func (r *Router) showRecord(ctx context.Context, chatID int64, messageRef int, id uuid.UUID, notice string) error {
	detail, payloads, err := r.loadRecord(ctx, id)
	if err != nil {
		return err
	}
	view := recordView(detail, payloads)
	if notice != "" {
		view.Text = notice + "\n\n" + view.Text
	}
	return r.show(ctx, chatID, messageRef, view)
}

func (r *Router) loadRecord(ctx context.Context, id uuid.UUID) (*entity.RecordDetail, recordPayloads, error) {
	detail, err := r.lifecycle.Show(ctx, id)
	if err != nil {
		return nil, recordPayloads{}, err
	}
	records, err := r.lifecycle.List(ctx)
	if err != nil {
		return nil, recordPayloads{}, err
	}
	listing := make([]uuid.UUID, 0, len(records))
	for _, rec := range records {
		listing = append(listing, rec.Id)
	}

	var p recordPayloads
	for _, slot := range []struct {
		action reference.Action
		dst    *string
	}{
		{reference.ActionPublishRecord, &p.Publish},
		{reference.ActionUnpublishRecord, &p.Unpublish},
		{reference.ActionDeleteRecord, &p.Delete},
		{reference.ActionRejectRecord, &p.Reject},
		{reference.ActionSelect, &p.Select},
	} {
		payload, err := r.codec.Encode(slot.action, id, listing)
		if err != nil {
			return nil, recordPayloads{}, err
		}
		*slot.dst = payload
	}
	return detail, p, nil
}

// show edits messageRef in place when set, otherwise sends a new message.
func (r *Router) show(ctx context.Context, chatID int64, messageRef int, view reference.View) error {
	if messageRef != 0 {
		return r.messenger.EditMessage(ctx, chatID, messageRef, view.Text, view.Buttons)
	}
	return r.send(ctx, chatID, view)
}

func (r *Router) send(ctx context.Context, chatID int64, view reference.View) error {
	_, err := r.messenger.SendMessage(ctx, chatID, view.Text, view.Buttons)
	return err
}

// report tells the operator what went wrong, tersely for the expected cases.
func (r *Router) report(ctx context.Context, chatID int64, err error) {
	var text string
	switch {
	case errors.Is(err, entity.ErrSessionMissing):
		text = "No active session. Send /start to begin."
	case errors.Is(err, entity.ErrRecordNotFound):
		text = "Record not found."
	case errors.Is(err, entity.ErrGenerationFailed):
		text = "Could not generate the draft. Your previous draft is unchanged, try again."
	case errors.Is(err, entity.ErrTransactionFailed):
		text = "Could not save the change. Nothing was modified, try again."
	case errors.Is(err, entity.ErrValidation):
		text = validationMessage(err)
	default:
		text = "Something went wrong."
	}

	fields := map[string]interface{}{"chat_id": chatID, "error": err}
	if errors.Is(err, entity.ErrSessionMissing) || errors.Is(err, entity.ErrRecordNotFound) || errors.Is(err, entity.ErrValidation) {
		r.logger.Info("Router", "Event rejected", fields)
	} else {
		r.logger.Error("Router", "Event failed", fields)
	}

	if _, sendErr := r.messenger.SendMessage(ctx, chatID, text, nil); sendErr != nil {
		r.logger.Error("Router", "Failed to notify operator", map[string]interface{}{
			"chat_id": chatID,
			"error":   sendErr,
		})
	}
}

func validationMessage(err error) string {
	msg := err.Error()
	if _, after, ok := strings.Cut(msg, entity.ErrValidation.Error()+": "); ok {
		msg = after
	}
	return "Cannot do that: " + msg
}

func fieldLabel(field entity.DraftField) string {
	switch field {
	case entity.DraftFieldTitle:
		return "title"
	case entity.DraftFieldShortSummary:
		return "short summary"
	case entity.DraftFieldFullSummary:
		return "full summary"
	}
	return string(field)
}
