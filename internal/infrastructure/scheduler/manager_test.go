package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

type countingJob struct {
	calls atomic.Int32
	err   error
}

func (j *countingJob) Execute(context.Context) (int, error) {
	j.calls.Add(1)
	return 3, j.err
}

func TestSchedulerManager_UserSyncRunsImmediately(t *testing.T) {
	m, err := NewSchedulerManager(logger.Nop())
	require.NoError(t, err)

	job := &countingJob{}
	require.NoError(t, m.RegisterUserSyncJob(job, time.Hour))
	require.Len(t, m.Jobs(), 1)
	assert.Equal(t, "user-sync", m.Jobs()[0].Name())

	m.Start()
	m.Start()
	assert.True(t, m.IsStarted())

	assert.Eventually(t, func() bool { return job.calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, m.Stop())
	assert.False(t, m.IsStarted())
	require.NoError(t, m.Stop())
}

func TestSchedulerManager_RejectsBadInterval(t *testing.T) {
	m, err := NewSchedulerManager(logger.Nop())
	require.NoError(t, err)
	assert.Error(t, m.RegisterUserSyncJob(&countingJob{}, 0))
}

func TestSchedulerManager_FailingJobIsLogged(t *testing.T) {
	m, err := NewSchedulerManager(logger.Nop())
	require.NoError(t, err)

	job := &countingJob{err: errors.New("boom")}
	assert.NotPanics(t, func() { m.runBatch(context.Background(), "test", job) })
	assert.Equal(t, int32(1), job.calls.Load())
}
