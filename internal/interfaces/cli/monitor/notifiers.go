package monitor

import (
	"context"

	"github.com/plexpatrol/plexpatrol/internal/infrastructure/cache"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/config"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/email"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/notify"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/telegram"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

// buildNotifier assembles the enabled alert channels behind a cooldown.
// Redis backs the cooldown when enabled and reachable; otherwise it is kept
// in memory. The returned func releases the redis connection.
func buildNotifier(ctx context.Context, cfg *config.Config, log logger.Interface) (notify.Notifier, func()) {
	var channels []notify.Notifier

	if cfg.Telegram.Enabled {
		if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == 0 {
			log.Warnw("telegram enabled without bot_token or chat_id, channel skipped")
		} else {
			bot := telegram.NewBotService(cfg.Telegram)
			if name, err := bot.GetMe(ctx); err != nil {
				log.Warnw("telegram bot check failed, alerts may not be delivered", "error", err)
			} else {
				log.Infow("telegram alerts enabled", "bot", name)
			}
			channels = append(channels, telegram.NewNotifier(bot, cfg.Telegram.ChatID, log))
		}
	}

	if cfg.Email.Enabled {
		if len(cfg.Email.To) == 0 {
			log.Warnw("email enabled without recipients, channel skipped")
		} else {
			channels = append(channels, email.NewSMTPNotifier(cfg.Email, log.Named("email")))
			log.Infow("email alerts enabled", "recipients", len(cfg.Email.To))
		}
	}

	multi := notify.NewMulti(log.Named("notify"), channels...)

	var dedup notify.Deduplicator = cache.NewMemoryDeduplicator()
	release := func() {}
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warnw("redis unavailable, alert cooldown kept in memory", "error", err)
		} else {
			dedup = cache.NewAlertDeduplicator(client)
			release = func() { _ = client.Close() }
		}
	}

	return notify.NewCooldown(multi, dedup, cfg.Notify.Cooldown, log.Named("notify")), release
}
