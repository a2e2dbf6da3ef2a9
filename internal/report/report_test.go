package report

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcgsim/battlesim/internal/sim"
)

func sampleResult() *sim.AggregateResult {
	res := sim.NewAggregateResult(1234567890123456789, 10)
	res.Wins["Aggro"] = 5
	res.Wins["Control"] = 3
	res.Draws = 1
	res.Failures = []sim.Failure{{Match: 4, Reason: "build Tempo deck: unknown archetype"}}
	res.Turns = 180
	res.Reasons["PRIZES_TAKEN"] = 7
	res.Reasons["TURN_LIMIT"] = 1
	res.Reasons["DECK_OUT"] = 1
	res.Appearances["Aggro"] = 7
	res.Appearances["Control"] = 6
	res.Appearances["Stall"] = 5
	res.Knockouts["Aggro"] = 15
	res.Knockouts["Control"] = 8
	res.Playstyles["Aggro"] = map[string]int{"AGGRESSIVE": 6, "BALANCED": 1}
	return res
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResult()))
	assert.Equal(t, "Archetype,Wins\nAggro,5\nControl,3\nStall,0\n", buf.String())
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archetype_performance.csv")
	require.NoError(t, WriteCSVFile(path, sampleResult()))
	assert.FileExists(t, path)
}

func TestSummaryRates(t *testing.T) {
	rows := Summary(sampleResult())
	require.Len(t, rows, 3)

	aggro := rows[0]
	assert.Equal(t, "Aggro", aggro.Archetype)
	assert.True(t, aggro.WinRate.Equal(decimal.RequireFromString("0.7143")), aggro.WinRate.String())
	assert.True(t, aggro.Share.Equal(decimal.RequireFromString("0.625")), aggro.Share.String())
	assert.Equal(t, 15, aggro.Knockouts)

	stall := rows[2]
	assert.True(t, stall.WinRate.IsZero())
	assert.Equal(t, "0.0000", stall.WinRate.StringFixed(RatePlaces))

	empty := Summary(sim.NewAggregateResult(0, 0))
	assert.Empty(t, empty)
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, sampleResult()))
	out := buf.String()
	assert.Contains(t, out, "ARCHETYPE")
	assert.Contains(t, out, "0.7143")
	assert.Contains(t, out, "matches=10 draws=1 failures=1 mean_turns=20.00")
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store, err := NewSQLiteStore("file::memory:")
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Migrate())
	require.NoError(t, store.Migrate(), "migrations are idempotent")

	ctx := context.Background()
	want := sampleResult()
	require.NoError(t, store.SaveRun(ctx, "run-1", want))
	assert.Error(t, store.SaveRun(ctx, "run-1", want), "run IDs are unique")

	got, err := store.LoadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, want.Seed, got.Result.Seed)
	assert.Equal(t, want.Matches, got.Result.Matches)
	assert.Equal(t, want.Wins, got.Result.Wins)
	assert.Equal(t, want.Draws, got.Result.Draws)
	assert.Equal(t, want.Turns, got.Result.Turns)
	assert.Equal(t, want.Failures, got.Result.Failures)
	assert.Equal(t, want.Reasons, got.Result.Reasons)
	assert.Equal(t, want.Appearances, got.Result.Appearances)
	assert.Equal(t, want.Playstyles, got.Result.Playstyles)
	assert.Equal(t, want.Recorded(), got.Result.Recorded())

	_, err = store.LoadRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
