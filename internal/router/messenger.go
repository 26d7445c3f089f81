package router

import (
	"context"

	"curator-bot/pkg/reference"
)

// Messenger is the outbound side of the chat transport.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, buttons [][]reference.Button) (int, error)
	EditMessage(ctx context.Context, chatID int64, messageRef int, text string, buttons [][]reference.Button) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
