package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mansoorceksport/gymledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Run(ctx context.Context) (*domain.JobSummary, error) {
	j.runs.Add(1)
	return &domain.JobSummary{RunID: "run"}, j.err
}

func TestSchedulerDisabled(t *testing.T) {
	s := New(Config{Enabled: false, Schedule: "0 0 * * *"}, &countingJob{})
	require.NoError(t, s.Start(context.Background()))

	select {
	case <-s.Done():
	default:
		t.Fatal("disabled scheduler should report done")
	}
	assert.True(t, s.Next().IsZero())
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := New(Config{Enabled: true, Schedule: "whenever"}, &countingJob{})
	assert.Error(t, s.Start(context.Background()))
}

func TestSchedulerNextRunIsLocalMidnight(t *testing.T) {
	cordoba := time.FixedZone("ART", -3*60*60)
	s := New(Config{Enabled: true, Schedule: "0 0 * * *", Location: cordoba}, &countingJob{})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	next := s.Next().In(cordoba)
	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, 0, next.Minute())

	cancel()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after context cancel")
	}
}

func TestSchedulerRunOnce(t *testing.T) {
	job := &countingJob{}
	s := New(Config{Enabled: true, Schedule: "0 0 * * *", Timeout: time.Second}, job)

	summary, err := s.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, "run", summary.RunID)
	assert.Equal(t, int32(1), job.runs.Load())

	job.err = errors.New("boom")
	_, err = s.RunOnce()
	assert.Error(t, err)
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	s := New(Config{Enabled: true, Schedule: "* * * * *"}, &countingJob{})
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
	s.Stop()
	<-s.Done()
}
