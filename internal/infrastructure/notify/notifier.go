// Package notify fans alert text out to the configured channels.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

// Notifier delivers one alert. It reports whether delivery succeeded and
// never returns an error; failures are logged by the implementation.
type Notifier interface {
	Notify(ctx context.Context, text string) bool
}

// Deduplicator claims a key for a cooldown window.
type Deduplicator interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(ctx context.Context, text string) bool

func (f NotifierFunc) Notify(ctx context.Context, text string) bool { return f(ctx, text) }

// Multi sends to every channel and succeeds when at least one did.
type Multi struct {
	notifiers []Notifier
	logger    logger.Interface
}

func NewMulti(log logger.Interface, notifiers ...Notifier) *Multi {
	m := &Multi{logger: log}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// Len is the number of configured channels.
func (m *Multi) Len() int { return len(m.notifiers) }

func (m *Multi) Notify(ctx context.Context, text string) bool {
	if len(m.notifiers) == 0 {
		m.logger.Debugw("no notification channel configured, alert dropped")
		return false
	}
	delivered := 0
	for _, n := range m.notifiers {
		if n.Notify(ctx, text) {
			delivered++
		}
	}
	if delivered == 0 {
		m.logger.Warnw("alert was not delivered on any channel", "channels", len(m.notifiers))
	}
	return delivered > 0
}

// Cooldown suppresses an alert whose key was already sent within ttl.
// The key defaults to a name-based UUID of the text.
type Cooldown struct {
	next   Notifier
	dedup  Deduplicator
	ttl    time.Duration
	keyFn  func(text string) string
	logger logger.Interface
}

func NewCooldown(next Notifier, dedup Deduplicator, ttl time.Duration, log logger.Interface) *Cooldown {
	return &Cooldown{
		next:   next,
		dedup:  dedup,
		ttl:    ttl,
		keyFn:  TextKey,
		logger: log,
	}
}

// TextKey derives a stable key from the alert text.
func TextKey(text string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(text)).String()
}

func (c *Cooldown) Notify(ctx context.Context, text string) bool {
	if c.ttl <= 0 || c.dedup == nil {
		return c.next.Notify(ctx, text)
	}

	key := c.keyFn(text)
	acquired, err := c.dedup.TryAcquire(ctx, key, c.ttl)
	if err != nil {
		// Deliver rather than lose an alert when the cooldown store is down.
		c.logger.Warnw("alert cooldown check failed, sending anyway", "error", err)
		return c.next.Notify(ctx, text)
	}
	if !acquired {
		c.logger.Debugw("alert suppressed by cooldown", "key", key, "ttl", c.ttl)
		return false
	}
	return c.next.Notify(ctx, text)
}
