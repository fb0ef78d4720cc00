package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/plexpatrol/plexpatrol/internal/infrastructure/cache"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

type recorder struct {
	mu    sync.Mutex
	texts []string
	ok    bool
}

func (r *recorder) Notify(_ context.Context, text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return r.ok
}

type failingDedup struct{}

func (failingDedup) TryAcquire(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func TestMulti(t *testing.T) {
	ctx := context.Background()

	t.Run("no channels", func(t *testing.T) {
		assert.False(t, NewMulti(logger.Nop()).Notify(ctx, "x"))
	})

	t.Run("any success wins", func(t *testing.T) {
		bad := &recorder{ok: false}
		good := &recorder{ok: true}
		m := NewMulti(logger.Nop(), bad, nil, good)

		assert.Equal(t, 2, m.Len())
		assert.True(t, m.Notify(ctx, "alert"))
		assert.Equal(t, []string{"alert"}, bad.texts)
		assert.Equal(t, []string{"alert"}, good.texts)
	})

	t.Run("all fail", func(t *testing.T) {
		m := NewMulti(logger.Nop(), &recorder{}, NotifierFunc(func(context.Context, string) bool { return false }))
		assert.False(t, m.Notify(ctx, "alert"))
	})
}

func TestCooldown(t *testing.T) {
	ctx := context.Background()
	next := &recorder{ok: true}
	c := NewCooldown(next, cache.NewMemoryDeduplicator(), time.Hour, logger.Nop())

	assert.True(t, c.Notify(ctx, "user bob is disabled"))
	assert.False(t, c.Notify(ctx, "user bob is disabled"))
	assert.True(t, c.Notify(ctx, "user eve is disabled"))
	assert.Len(t, next.texts, 2)
}

func TestCooldown_FailsOpen(t *testing.T) {
	next := &recorder{ok: true}
	c := NewCooldown(next, failingDedup{}, time.Hour, logger.Nop())

	assert.True(t, c.Notify(context.Background(), "a"))
	assert.True(t, c.Notify(context.Background(), "a"))
	assert.Len(t, next.texts, 2)
}

func TestCooldown_ZeroTTLPassesThrough(t *testing.T) {
	next := &recorder{ok: true}
	c := NewCooldown(next, cache.NewMemoryDeduplicator(), 0, logger.Nop())

	assert.True(t, c.Notify(context.Background(), "a"))
	assert.True(t, c.Notify(context.Background(), "a"))
}

func TestTextKeyIsStable(t *testing.T) {
	assert.Equal(t, TextKey("x"), TextKey("x"))
	assert.NotEqual(t, TextKey("x"), TextKey("y"))
}
