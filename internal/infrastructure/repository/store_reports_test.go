package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedReports(t *testing.T) (*Store, *fakeClock) {
	store, _, clock := setupStore(t)
	ctx := context.Background()

	a := record("a1", "1", "x")
	require.NoError(t, store.RecordSession(ctx, a))

	b := record("b1", "1", "y")
	b.Platform = "iOS"
	b.IPAddress = "10.0.0.2"
	require.NoError(t, store.RecordSession(ctx, b))
	_, err := store.MarkTerminated(ctx, "b1")
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	c := record("c1", "2", "z")
	require.NoError(t, store.RecordSession(ctx, c))

	return store, clock
}

func TestStore_UserStats(t *testing.T) {
	store, _ := seedReports(t)

	stats, err := store.UserStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "1", stats[0].UserID)
	assert.Equal(t, int64(2), stats[0].TotalSessions)
	assert.Equal(t, int64(1), stats[0].TerminatedSessions)
	assert.Equal(t, int64(2), stats[0].DistinctDevices)
	assert.NotNil(t, stats[0].LastKill)
	assert.Equal(t, "2", stats[1].UserID)
}

func TestStore_PlatformStats(t *testing.T) {
	store, _ := seedReports(t)

	stats, err := store.PlatformStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "Roku", stats[0].Platform)
	assert.Equal(t, int64(2), stats[0].Sessions)
	assert.Zero(t, stats[0].Terminations)
	assert.Equal(t, "iOS", stats[1].Platform)
	assert.Equal(t, int64(1), stats[1].Terminations)
}

func TestStore_IPStats(t *testing.T) {
	store, _ := seedReports(t)

	stats, err := store.IPStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "10.0.0.1", stats[0].IPAddress)
	assert.Equal(t, int64(2), stats[0].Sessions)
	assert.Equal(t, int64(2), stats[0].Users)
	assert.Equal(t, "10.0.0.2", stats[1].IPAddress)
	assert.Equal(t, int64(1), stats[1].Terminations)
}

func TestStore_SessionCountsByBucket(t *testing.T) {
	store, clock := seedReports(t)
	ctx := context.Background()

	start := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	buckets, err := store.SessionCountsByBucket(ctx, start, clock.Now().Add(time.Hour), "hour")
	require.NoError(t, err)
	require.Len(t, buckets, 3)
	assert.Equal(t, int64(2), buckets[0].Sessions)
	assert.Equal(t, int64(1), buckets[0].Terminations)
	assert.Zero(t, buckets[1].Sessions)
	assert.Equal(t, int64(1), buckets[2].Sessions)

	days, err := store.SessionCountsByBucket(ctx, start, start.Add(48*time.Hour), "day")
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, int64(3), days[0].Sessions)
	assert.Zero(t, days[1].Sessions)

	_, err = store.SessionCountsByBucket(ctx, start, start, "hour")
	assert.Error(t, err)
	_, err = store.SessionCountsByBucket(ctx, start, start.Add(time.Hour), "week")
	assert.Error(t, err)
}
