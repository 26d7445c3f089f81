package telegram

import (
	"context"
	"fmt"
	"strings"

	"curator-bot/internal/pkg/logger"
	"curator-bot/internal/router"

	"github.com/mymmrac/telego"
)

// Source turns Bot API updates into router events, from long polling or
// from webhook deliveries.
type Source struct {
	bot    *telego.Bot
	events chan router.Event
	logger logger.ILogger
}

func NewSource(bot *telego.Bot, log logger.ILogger) *Source {
	return &Source{
		bot:    bot,
		events: make(chan router.Event, 256),
		logger: log,
	}
}

func (s *Source) Events() <-chan router.Event {
	return s.events
}

// Poll long-polls for updates until ctx is done.
func (s *Source) Poll(ctx context.Context) error {
	if err := s.bot.DeleteWebhook(ctx, &telego.DeleteWebhookParams{}); err != nil {
		return fmt.Errorf("telegram: delete webhook: %w", err)
	}

	updates, err := s.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        30,
		AllowedUpdates: []string{"message", "callback_query"},
	})
	if err != nil {
		return fmt.Errorf("telegram: start polling: %w", err)
	}
	s.logger.Info("TelegramSource", "Long polling started", nil)

	for update := range updates {
		if err := s.Push(ctx, update); err != nil {
			return nil
		}
	}
	return nil
}

// RegisterWebhook points the Bot API at url, guarded by secret.
func (s *Source) RegisterWebhook(ctx context.Context, url, secret string) error {
	err := s.bot.SetWebhook(ctx, &telego.SetWebhookParams{
		URL:            url,
		SecretToken:    secret,
		AllowedUpdates: []string{"message", "callback_query"},
	})
	if err != nil {
		return fmt.Errorf("telegram: set webhook: %w", err)
	}
	s.logger.Info("TelegramSource", "Webhook registered", map[string]interface{}{"url": url})
	return nil
}

// Push converts one update and queues its events; unsupported updates are skipped.
func (s *Source) Push(ctx context.Context, update telego.Update) error {
	evs := ToEvents(update)
	if len(evs) == 0 {
		s.logger.Debug("TelegramSource", "Skipped update", map[string]interface{}{"update_id": update.UpdateID})
		return nil
	}
	for _, ev := range evs {
		select {
		case s.events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// ToEvents returns the events carried by one update: media first, then its caption.
func ToEvents(update telego.Update) []router.Event {
	if q := update.CallbackQuery; q != nil {
		if q.Message == nil {
			return nil
		}
		return []router.Event{router.ButtonEvent{
			ChatID:     q.Message.GetChat().ID,
			Payload:    q.Data,
			MessageRef: q.Message.GetMessageID(),
			CallbackID: q.ID,
		}}
	}

	msg := update.Message
	if msg == nil {
		return nil
	}
	chatID := msg.Chat.ID

	var evs []router.Event
	switch {
	case len(msg.Photo) > 0:
		// sizes ascend; keep the largest
		evs = append(evs, router.MediaEvent{ChatID: chatID, Kind: router.MediaPhoto, Ref: msg.Photo[len(msg.Photo)-1].FileID})
	case msg.Video != nil:
		evs = append(evs, router.MediaEvent{ChatID: chatID, Kind: router.MediaVideo, Ref: msg.Video.FileID})
	case msg.Voice != nil:
		evs = append(evs, router.MediaEvent{ChatID: chatID, Kind: router.MediaVoice, Ref: msg.Voice.FileID})
	case msg.Audio != nil:
		evs = append(evs, router.MediaEvent{ChatID: chatID, Kind: router.MediaVoice, Ref: msg.Audio.FileID})
	case msg.Document != nil:
		evs = append(evs, router.MediaEvent{ChatID: chatID, Kind: router.MediaDocument, Ref: msg.Document.FileID})
	}
	if caption := strings.TrimSpace(msg.Caption); caption != "" {
		evs = append(evs, router.TextEvent{ChatID: chatID, Content: caption})
	}
	if len(evs) > 0 {
		return evs
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}
	if cmd, ok := parseCommand(chatID, text); ok {
		return []router.Event{cmd}
	}
	return []router.Event{router.TextEvent{ChatID: chatID, Content: text}}
}

// parseCommand reads "/set_date@bot 2024-05-01" as set-date with one argument.
func parseCommand(chatID int64, text string) (router.CommandEvent, bool) {
	if !strings.HasPrefix(text, "/") {
		return router.CommandEvent{}, false
	}
	fields := strings.Fields(text)
	name := strings.TrimPrefix(fields[0], "/")
	name, _, _ = strings.Cut(name, "@")
	if name == "" {
		return router.CommandEvent{}, false
	}
	name = strings.ReplaceAll(strings.ToLower(name), "_", "-")
	return router.CommandEvent{ChatID: chatID, Name: name, Args: fields[1:]}, true
}
