package telegram

import (
	"context"
	"strings"

	"curator-bot/pkg/reference"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const maxMessageRunes = 4096

// Messenger sends and edits chat messages through the Bot API.
type Messenger struct {
	bot *telego.Bot
}

func NewMessenger(bot *telego.Bot) *Messenger {
	return &Messenger{bot: bot}
}

func (m *Messenger) SendMessage(ctx context.Context, chatID int64, text string, buttons [][]reference.Button) (int, error) {
	params := tu.Message(tu.ID(chatID), truncate(text))
	if markup := keyboard(buttons); markup != nil {
		params = params.WithReplyMarkup(markup)
	}

	msg, err := m.bot.SendMessage(ctx, params)
	if err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// EditMessage replaces a message in place. Re-rendering an unchanged view is
// not an error.
func (m *Messenger) EditMessage(ctx context.Context, chatID int64, messageRef int, text string, buttons [][]reference.Button) error {
	_, err := m.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:      tu.ID(chatID),
		MessageID:   messageRef,
		Text:        truncate(text),
		ReplyMarkup: keyboard(buttons),
	})
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

func (m *Messenger) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return m.bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
}

// Announce posts a plain notice, used for published-record announcements.
func (m *Messenger) Announce(ctx context.Context, chatID int64, text string) error {
	_, err := m.SendMessage(ctx, chatID, text, nil)
	return err
}

func keyboard(buttons [][]reference.Button) *telego.InlineKeyboardMarkup {
	if len(buttons) == 0 {
		return nil
	}
	rows := make([][]telego.InlineKeyboardButton, 0, len(buttons))
	for _, row := range buttons {
		out := make([]telego.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			out = append(out, telego.InlineKeyboardButton{Text: b.Text, CallbackData: b.Payload})
		}
		rows = append(rows, out)
	}
	return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxMessageRunes {
		return text
	}
	return string(runes[:maxMessageRunes-1]) + "…"
}
