package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunState is the lifecycle state of a managed run.
type RunState int

const (
	RunStatePending RunState = iota
	RunStateRunning
	RunStateFinished
	RunStateFailed
)

func (s RunState) String() string {
	switch s {
	case RunStatePending:
		return "PENDING"
	case RunStateRunning:
		return "RUNNING"
	case RunStateFinished:
		return "FINISHED"
	case RunStateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Run is one batch submitted to a Manager.
type Run struct {
	ID         string
	Matches    int
	Archetypes []string
	State      RunState
	Result     *AggregateResult
	Err        error
	CreateTime time.Time
	StartTime  *time.Time
	EndTime    *time.Time

	done chan struct{}
	mu   sync.RWMutex
}

// RunSnapshot captures run data for external use.
type RunSnapshot struct {
	ID         string
	Matches    int
	Archetypes []string
	State      RunState
	Result     *AggregateResult
	Error      string
	CreateTime time.Time
	StartTime  *time.Time
	EndTime    *time.Time
}

// Snapshot returns a consistent copy of the run. Result is shared and must
// be treated as read-only; it is only set once the run is over.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := RunSnapshot{
		ID:         r.ID,
		Matches:    r.Matches,
		Archetypes: append([]string(nil), r.Archetypes...),
		State:      r.State,
		Result:     r.Result,
		CreateTime: r.CreateTime,
		StartTime:  cloneTime(r.StartTime),
		EndTime:    cloneTime(r.EndTime),
	}
	if r.Err != nil {
		snap.Error = r.Err.Error()
	}
	return snap
}

// Done is closed when the run has finished or failed.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

func (r *Run) setState(state RunState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.State = state
	switch state {
	case RunStateRunning:
		r.StartTime = &now
	case RunStateFinished, RunStateFailed:
		r.EndTime = &now
	}
}

func cloneTime(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	cp := *src
	return &cp
}

// Manager runs batches in the background and keeps them by ID.
type Manager struct {
	harness *Harness
	runs    map[string]*Run
	mu      sync.RWMutex
	logger  *zap.Logger
}

func NewManager(harness *Harness, logger *zap.Logger) *Manager {
	return &Manager{
		harness: harness,
		runs:    make(map[string]*Run),
		logger:  logger,
	}
}

// Submit validates and starts a run. The run continues after ctx's caller
// returns; cancel ctx to stop dispatching its remaining matches.
func (m *Manager) Submit(ctx context.Context, matches int, archetypes []string) (*Run, error) {
	if matches < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMatchCount, matches)
	}
	if len(archetypes) == 0 {
		return nil, ErrNoArchetypes
	}

	run := &Run{
		ID:         uuid.New().String(),
		Matches:    matches,
		Archetypes: append([]string(nil), archetypes...),
		State:      RunStatePending,
		CreateTime: time.Now(),
		done:       make(chan struct{}),
	}

	m.mu.Lock()
	m.runs[run.ID] = run
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("run submitted",
			zap.String("run_id", run.ID),
			zap.Int("matches", matches),
			zap.Strings("archetypes", archetypes),
		)
	}

	go m.execute(ctx, run)
	return run, nil
}

func (m *Manager) execute(ctx context.Context, run *Run) {
	defer close(run.done)
	run.setState(RunStateRunning)

	res, err := m.harness.Run(ctx, run.Matches, run.Archetypes)

	run.mu.Lock()
	run.Result = res
	run.Err = err
	run.mu.Unlock()

	if err != nil {
		run.setState(RunStateFailed)
		if m.logger != nil {
			m.logger.Warn("run failed", zap.String("run_id", run.ID), zap.Error(err))
		}
		return
	}
	run.setState(RunStateFinished)
	if m.logger != nil {
		m.logger.Info("run finished",
			zap.String("run_id", run.ID),
			zap.Int("draws", res.Draws),
			zap.Int("failures", len(res.Failures)),
		)
	}
}

// Get retrieves a run by ID.
func (m *Manager) Get(id string) (*Run, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	return run, ok
}

// Wait blocks until the run is over or ctx is done.
func (m *Manager) Wait(ctx context.Context, id string) (RunSnapshot, error) {
	run, ok := m.Get(id)
	if !ok {
		return RunSnapshot{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	select {
	case <-run.Done():
		return run.Snapshot(), nil
	case <-ctx.Done():
		return run.Snapshot(), ctx.Err()
	}
}

// Remove forgets a run. A running run keeps going.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.runs, id)

	if m.logger != nil {
		m.logger.Info("run removed", zap.String("run_id", id))
	}
}

// List returns snapshots of every run.
func (m *Manager) List() []RunSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]RunSnapshot, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, run.Snapshot())
	}
	return out
}

// ActiveCount returns how many runs have not finished.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, run := range m.runs {
		switch run.Snapshot().State {
		case RunStatePending, RunStateRunning:
			count++
		}
	}
	return count
}
