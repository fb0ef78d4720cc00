package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plexpatrol/plexpatrol/internal/domain/shared/events"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

type pingEvent struct {
	events.BaseEvent
	Note string `json:"note"`
}

func TestEventHub_BroadcastHonorsFilters(t *testing.T) {
	h := NewEventHub(4, logger.Nop())
	all := h.RegisterConn("all", nil)
	logsOnly := h.RegisterConn("logs", []string{"monitor.log"})
	require.NotNil(t, all)
	require.NotNil(t, logsOnly)

	require.NoError(t, h.Handle(pingEvent{BaseEvent: events.NewBaseEvent("engine", "monitor.sessions_updated"), Note: "hi"}))

	select {
	case data := <-all.Send:
		assert.Contains(t, string(data), "event: monitor.sessions_updated\n")
		assert.Contains(t, string(data), `"note":"hi"`)
	default:
		t.Fatal("expected event on unfiltered connection")
	}
	assert.Empty(t, logsOnly.Send)
}

func TestEventHub_LimitAndShutdown(t *testing.T) {
	h := NewEventHub(1, logger.Nop())
	require.NotNil(t, h.RegisterConn("a", nil))
	assert.Nil(t, h.RegisterConn("b", nil))
	assert.Equal(t, 1, h.Count())

	h.UnregisterConn("a")
	assert.Zero(t, h.Count())

	c := h.RegisterConn("c", nil)
	require.NotNil(t, c)
	h.Shutdown()
	h.Shutdown()

	_, open := <-c.Send
	assert.False(t, open)
	assert.False(t, c.TrySend([]byte("x")))
	assert.Nil(t, h.RegisterConn("d", nil))
}
