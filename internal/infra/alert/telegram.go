package alert

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier pushes operational alerts to a Telegram chat. A nil Notifier
// is valid and silently drops everything, so callers never need to guard
// the optional configuration.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	log    *slog.Logger
}

// New returns nil when no token is configured.
func New(token string, chatID int64, log *slog.Logger) (*Notifier, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return &Notifier{api: api, chatID: chatID, log: log}, nil
}

// Notify sends one message. Delivery failures are logged, never returned:
// an alert must not break the workflow that raised it.
func (n *Notifier) Notify(text string) {
	if n == nil {
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		n.log.Warn("alert delivery failed", "err", err)
	}
}
