package notifier

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Bot sends out-of-band Telegram alerts to the operators' chat when examples
// are flagged during validation.
type Bot struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// NewBot creates a new Telegram bot instance. Returns nil when notifications
// are disabled or no token is configured.
func NewBot(enabled bool, token string, chatID int64, logger *zap.Logger) (*Bot, error) {
	if !enabled || token == "" {
		logger.Info("Telegram notifications are disabled")
		return nil, nil
	}

	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram bot authorized", zap.String("username", botAPI.Self.UserName))
	return &Bot{api: botAPI, chatID: chatID, logger: logger}, nil
}

// NotifyFlaggedExample alerts operators that a validator flagged an example.
func (b *Bot) NotifyFlaggedExample(eid int64, uid int64) {
	if b == nil {
		return
	}
	text := fmt.Sprintf("Example %d was flagged by user %d and needs review.", eid, uid)
	if _, err := b.api.Send(tgbotapi.NewMessage(b.chatID, text)); err != nil {
		b.logger.Error("Failed to send flag notification",
			zap.Int64("eid", eid), zap.Error(err))
	}
}
