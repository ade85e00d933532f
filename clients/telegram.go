package clients

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramNotifier struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramNotifier(token string) (TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return TelegramNotifier{}, fmt.Errorf("creating telegram bot: %w", err)
	}

	return TelegramNotifier{
		bot: bot,
	}, nil
}

func (n TelegramNotifier) Notify(ctx context.Context, chatID int64, text string) error {
	if _, err := n.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}

	log.FromContext(ctx).WithField("chat_id", chatID).Debug("Telegram notification sent")
	return nil
}

// NoopNotifier stands in when no bot token is configured.
type NoopNotifier struct{}

func (NoopNotifier) Notify(ctx context.Context, chatID int64, text string) error {
	log.FromContext(ctx).WithField("chat_id", chatID).Debugf("Telegram disabled, dropping notification: %s", text)
	return nil
}
