package telegram

import (
	"fmt"

	"curator-bot/internal/pkg/logger"

	"github.com/mymmrac/telego"
)

// NewBot creates the telego client with its logs routed through log.
func NewBot(token string, log logger.ILogger) (*telego.Bot, error) {
	bot, err := telego.NewBot(token, telego.WithLogger(botLogger{log: log}))
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	return bot, nil
}

type botLogger struct {
	log logger.ILogger
}

func (l botLogger) Debugf(format string, args ...any) {
	l.log.Debug("TelegramBot", fmt.Sprintf(format, args...), nil)
}

func (l botLogger) Errorf(format string, args ...any) {
	l.log.Error("TelegramBot", fmt.Sprintf(format, args...), nil)
}
