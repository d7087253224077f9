package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/desim/sim/random"
	"github.com/inference-sim/desim/sim/trace"
)

// ticker schedules events separated by draws from gap and records each draw.
type ticker struct {
	*ModelElement
	gap   *RandomVariable
	draws *Response
	seen  []float64
	fail  error
}

func newTicker(t *testing.T, m *Model, gap RandomSource) *ticker {
	t.Helper()
	tk := &ticker{}
	e, err := NewModelElement(m.ModelElement, "Ticker", tk)
	require.NoError(t, err)
	tk.ModelElement = e
	tk.gap, err = NewRandomVariable(e, "Ticker:Gap", gap)
	require.NoError(t, err)
	tk.draws, err = NewResponse(e, "Ticker:Draws")
	require.NoError(t, err)
	return tk
}

func (tk *ticker) Initialize() error {
	_, err := tk.Schedule(EventActionFunc(tk.tick), tk.next())
	return err
}

func (tk *ticker) next() float64 {
	v := tk.gap.Value()
	tk.seen = append(tk.seen, v)
	tk.draws.Record(v, tk.Time())
	return v
}

func (tk *ticker) tick(*Event) error {
	if tk.fail != nil {
		return tk.fail
	}
	_, err := tk.Schedule(EventActionFunc(tk.tick), tk.next())
	return err
}

func experiment(reps int, length float64) Experiment {
	exp := NewExperiment("test")
	exp.NumReplications = reps
	exp.LengthOfReplication = length
	return exp
}

func TestSimulation_Replications_StartFromCleanState(t *testing.T) {
	// GIVEN a deterministic model traced over three replications
	m := NewModel("M", nil)
	newTicker(t, m, ConstantSource(2))
	s, err := NewSimulation(m, experiment(3, 10))
	require.NoError(t, err)
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelEvents})
	s.AttachTrace(st)

	// WHEN it runs
	report, err := s.Run(context.Background())
	require.NoError(t, err)

	// THEN every replication executes the same events at the same times with the same ids
	first := st.Replication(1)
	require.NotEmpty(t, first)
	for n := 2; n <= 3; n++ {
		assert.Equal(t, len(first), len(st.Replication(n)), "replication %d", n)
		for i, rec := range st.Replication(n) {
			assert.Equal(t, first[i].Time, rec.Time)
			assert.Equal(t, first[i].ID, rec.ID)
			assert.Equal(t, first[i].Name, rec.Name)
		}
	}
	require.Len(t, report.Replications, 3)
	for _, r := range report.Replications {
		assert.Equal(t, EndEventReached.String(), r.EndCondition)
		assert.Equal(t, 10.0, r.EndTime)
	}
	assert.NotEmpty(t, report.ID)
}

// drawsPerReplication runs a seeded exponential ticker and returns its draws per replication.
func drawsPerReplication(t *testing.T, exp Experiment) [][]float64 {
	t.Helper()
	m := NewModel("M", nil)
	v, err := random.Exponential(1, random.NewStreamProvider(7).Stream("gap"))
	require.NoError(t, err)
	tk := newTicker(t, m, v)
	s, err := NewSimulation(m, exp)
	require.NoError(t, err)
	var reps [][]float64
	s.OnReplicationStart(func(n int) {
		if n > 1 {
			reps = append(reps, tk.seen)
		}
		tk.seen = nil
	})
	_, err = s.Run(context.Background())
	require.NoError(t, err)
	return append(reps, tk.seen)
}

func TestSimulation_AdvanceNextSubstream_MatchesSkippedSubstream(t *testing.T) {
	// GIVEN a two-replication experiment advancing substreams between replications
	reps := drawsPerReplication(t, experiment(2, 5))

	// WHEN a one-replication experiment skips one substream up front
	skipped := experiment(1, 5)
	skipped.NumStreamAdvances = 1
	other := drawsPerReplication(t, skipped)

	// THEN replication 2 of the first matches replication 1 of the second, and differs from replication 1
	require.Len(t, reps, 2)
	assert.Equal(t, reps[1], other[0])
	assert.NotEqual(t, reps[0], reps[1])
	assert.Equal(t, reps[0], drawsPerReplication(t, experiment(1, 5))[0], "same seed reproduces replication 1")
}

func TestSimulation_NoAdvance_ContinuesStream(t *testing.T) {
	exp := experiment(2, 5)
	exp.AdvanceNextSubstream = false
	reps := drawsPerReplication(t, exp)

	exp.ResetStartStream = true
	again := drawsPerReplication(t, exp)

	require.Len(t, reps, 2)
	assert.NotEqual(t, reps[0], reps[1])
	assert.Equal(t, reps, again)
}

func TestSimulation_WarmUp_DiscardsEarlyObservations(t *testing.T) {
	// GIVEN a response that sees 1 before t=5 and 3 afterwards
	m := NewModel("M", nil)
	resp, err := NewResponse(m.ModelElement, "Level")
	require.NoError(t, err)
	obs := &hookElement{fn: func(e *ModelElement) {
		for _, at := range []float64{1, 2, 6, 7} {
			value := 1.0
			if at > 5 {
				value = 3
			}
			_, err := e.Schedule(EventActionFunc(func(ev *Event) error {
				resp.Record(value, ev.Time())
				return nil
			}), at)
			require.NoError(t, err)
		}
	}}
	obs.ModelElement, err = NewModelElement(m.ModelElement, "Observer", obs)
	require.NoError(t, err)
	exp := experiment(1, 10)
	exp.LengthOfWarmUp = 5

	// WHEN it runs
	s, err := NewSimulation(m, exp)
	require.NoError(t, err)
	report, err := s.Run(context.Background())
	require.NoError(t, err)

	// THEN only post-warm-up observations count
	sum, ok := report.Response("Level")
	require.True(t, ok)
	assert.Equal(t, 3.0, sum.Mean)
	assert.Equal(t, int64(2), resp.Tally().Count())
}

func TestSimulation_HandlerError_StopsExperiment(t *testing.T) {
	// GIVEN a model whose events fail from the start
	m := NewModel("M", nil)
	tk := newTicker(t, m, ConstantSource(1))
	boom := errors.New("boom")
	tk.fail = boom
	s, err := NewSimulation(m, experiment(3, 10))
	require.NoError(t, err)

	// WHEN it runs
	report, err := s.Run(context.Background())

	// THEN the error names the replication and the report marks it
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.FailedReplication)
	assert.Empty(t, report.Replications)
	assert.NotEmpty(t, report.Error)
	assert.False(t, m.Locked())
}

func TestSimulation_LaterReplicationFails_KeepsCompletedSummaries(t *testing.T) {
	// GIVEN a model whose events start failing in replication 2
	m := NewModel("M", nil)
	tk := newTicker(t, m, ConstantSource(1))
	boom := errors.New("boom")
	s, err := NewSimulation(m, experiment(3, 10))
	require.NoError(t, err)
	s.OnReplicationStart(func(n int) {
		if n == 2 {
			tk.fail = boom
		}
	})

	// WHEN it runs
	report, err := s.Run(context.Background())

	// THEN replication 1's statistics are still summarized
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.FailedReplication)
	require.Len(t, report.Replications, 1)
	draws, ok := report.Response("Ticker:Draws")
	require.True(t, ok)
	assert.Equal(t, 1, draws.Count)
	assert.Equal(t, 1.0, draws.Mean)
}

func TestSimulation_CanceledBetweenReplications_KeepsCompletedSummaries(t *testing.T) {
	// GIVEN a context canceled once replication 2 starts
	m := NewModel("M", nil)
	newTicker(t, m, ConstantSource(1))
	s, err := NewSimulation(m, experiment(3, 10))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.OnReplicationStart(func(n int) {
		if n == 2 {
			cancel()
		}
	})

	// WHEN it runs
	report, err := s.Run(ctx)

	// THEN the run stops and every completed replication is in the summaries
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	require.NotEmpty(t, report.Replications)
	draws, ok := report.Response("Ticker:Draws")
	require.True(t, ok)
	assert.Equal(t, len(report.Replications), draws.Count)
}

func TestSimulation_MaxExecutionTime_EndsReplication(t *testing.T) {
	m := NewModel("M", nil)
	newTicker(t, m, ConstantSource(1))
	now := time.Unix(0, 0)
	m.executive.wallClock = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	m.executive.SetTimeCheckInterval(1)
	exp := NewExperiment("budget")
	exp.MaxExecutionTime = 2 * time.Second
	s, err := NewSimulation(m, exp)
	require.NoError(t, err)

	report, err := s.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ExecutionTimeExceeded.String(), report.Replications[0].EndCondition)
}

func TestNewSimulation_InvalidExperiment(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *Experiment)
	}{
		{name: "zero replications", mutate: func(e *Experiment) { e.NumReplications = 0 }},
		{name: "zero length", mutate: func(e *Experiment) { e.LengthOfReplication = 0 }},
		{name: "warm-up beyond length", mutate: func(e *Experiment) { e.LengthOfReplication = 5; e.LengthOfWarmUp = 6 }},
		{name: "negative budget", mutate: func(e *Experiment) { e.MaxExecutionTime = -time.Second }},
		{name: "negative stream advances", mutate: func(e *Experiment) { e.NumStreamAdvances = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := NewExperiment("bad")
			tt.mutate(&exp)
			_, err := NewSimulation(NewModel("M", nil), exp)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}
