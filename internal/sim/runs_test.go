package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestManagerRunsInBackground(t *testing.T) {
	m := NewManager(newTestHarness(t, Options{Workers: 2, Seed: 5}), zaptest.NewLogger(t))

	run, err := m.Submit(context.Background(), 10, []string{"Aggro", "Stall"})
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	snap, err := m.Wait(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, RunStateFinished, snap.State)
	assert.Empty(t, snap.Error)
	require.NotNil(t, snap.Result)
	assert.Equal(t, 10, snap.Result.Recorded())
	require.NotNil(t, snap.StartTime)
	require.NotNil(t, snap.EndTime)
	assert.False(t, snap.EndTime.Before(*snap.StartTime))
	assert.Zero(t, m.ActiveCount())
	assert.Len(t, m.List(), 1)

	m.Remove(run.ID)
	_, ok := m.Get(run.ID)
	assert.False(t, ok)
	_, err = m.Wait(ctx, run.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestManagerRejectsInvalidRuns(t *testing.T) {
	m := NewManager(newTestHarness(t, Options{}), nil)

	_, err := m.Submit(context.Background(), 10, nil)
	assert.ErrorIs(t, err, ErrNoArchetypes)
	_, err = m.Submit(context.Background(), -3, []string{"Aggro"})
	assert.ErrorIs(t, err, ErrInvalidMatchCount)
	assert.Empty(t, m.List())
}

func TestManagerMarksCancelledRunsFailed(t *testing.T) {
	m := NewManager(newTestHarness(t, Options{Seed: 2}), zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := m.Submit(ctx, 10, []string{"Aggro"})
	require.NoError(t, err)
	<-run.Done()

	snap := run.Snapshot()
	assert.Equal(t, RunStateFailed, snap.State)
	assert.Contains(t, snap.Error, "canceled")
	assert.Equal(t, "FAILED", snap.State.String())
}
