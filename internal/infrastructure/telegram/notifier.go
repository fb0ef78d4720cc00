package telegram

import (
	"context"
	"time"

	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

// maxRetryAfter caps how long one alert waits on a 429.
const maxRetryAfter = 30 * time.Second

// Notifier posts alerts to one chat.
type Notifier struct {
	bot    *BotService
	chatID int64
	logger logger.Interface
}

func NewNotifier(bot *BotService, chatID int64, log logger.Interface) *Notifier {
	return &Notifier{bot: bot, chatID: chatID, logger: log.Named("telegram")}
}

// Notify sends text, split to the API limit. It reports false if any chunk
// could not be delivered.
func (n *Notifier) Notify(ctx context.Context, text string) bool {
	for i, chunk := range splitMessage(text, maxMessageLength) {
		if err := n.send(ctx, chunk); err != nil {
			n.logger.Errorw("failed to send telegram alert",
				"chat_id", n.chatID,
				"chunk", i,
				"bot_blocked", IsBotBlocked(err),
				"error", err,
			)
			return false
		}
	}
	return true
}

// send retries once when the API asks to back off.
func (n *Notifier) send(ctx context.Context, text string) error {
	err := n.bot.SendMessage(ctx, n.chatID, text)
	wait := time.Duration(GetRetryAfter(err)) * time.Second
	if wait <= 0 || wait > maxRetryAfter {
		return err
	}

	n.logger.Warnw("telegram rate limited, retrying", "retry_after", wait)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	return n.bot.SendMessage(ctx, n.chatID, text)
}
