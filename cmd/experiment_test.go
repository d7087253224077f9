package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/desim/sim"
)

func parseBank(t *testing.T) *ExperimentFile {
	t.Helper()
	f, err := ParseExperimentFile([]byte(bankYAML), "bank")
	require.NoError(t, err)
	return f
}

func TestRunExperiment_DeterministicStation(t *testing.T) {
	// GIVEN the bank experiment with two replications
	f := parseBank(t)

	// WHEN it runs
	out, err := RunExperiment(context.Background(), f)
	require.NoError(t, err)

	// THEN both replications see system times 7, 9, 11 and the same end time
	require.Len(t, out.Report.Replications, 2)
	for _, rep := range out.Report.Replications {
		assert.Equal(t, 21.0, rep.EndTime)
		assert.Equal(t, "NoMoreEvents", rep.EndCondition)
	}
	sys, ok := out.Report.Response("Bank:SystemTime")
	require.True(t, ok)
	assert.Equal(t, 2, sys.Count)
	assert.InDelta(t, 9.0, sys.Mean, 1e-12)
	assert.InDelta(t, 0.0, sys.StdDev, 1e-12)
	assert.Nil(t, out.Trace, "tracing is off by default")
}

func TestRunExperiment_TraceSummary(t *testing.T) {
	// GIVEN event tracing
	f := parseBank(t)
	f.Trace.Level = "events"

	// WHEN it runs
	out, err := RunExperiment(context.Background(), f)
	require.NoError(t, err)

	// THEN each replication traced the same events
	require.NotNil(t, out.Trace)
	assert.Equal(t, 2, out.Trace.Replications)
	assert.Equal(t, out.Trace.EventsPerRep[1], out.Trace.EventsPerRep[2])
	assert.Equal(t, 21.0, out.Trace.LastTimePerRep[2])
	assert.Equal(t, int(out.Report.Replications[0].EventsExecuted), out.Trace.EventsPerRep[1])
}

func TestRunExperiment_BadDistribution(t *testing.T) {
	f := parseBank(t)
	f.Model.Service.Type = "cauchy"

	out, err := RunExperiment(context.Background(), f)

	require.Error(t, err)
	assert.True(t, errors.Is(err, sim.ErrConfiguration))
	assert.Nil(t, out)
}

func TestRunExperiment_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := RunExperiment(ctx, parseBank(t))

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, out)
	assert.NotEmpty(t, out.Report.Error)
}

func TestWriteOutcome(t *testing.T) {
	out, err := RunExperiment(context.Background(), parseBank(t))
	require.NoError(t, err)

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeOutcome(&buf, out, true))

		var decoded struct {
			Report struct {
				Experiment string `json:"experiment"`
				Responses  []struct {
					Name string  `json:"name"`
					Mean float64 `json:"mean"`
				} `json:"responses"`
			} `json:"report"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "bank", decoded.Report.Experiment)
		assert.NotEmpty(t, decoded.Report.Responses)
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeOutcome(&buf, out, false))
		assert.Contains(t, buf.String(), "Bank:SystemTime")
		assert.NotContains(t, buf.String(), "=== Trace ===")
	})
}

func TestApplyRunFlags_OnlyChangedFlagsOverride(t *testing.T) {
	// GIVEN --reps and --seed on the command line
	flags := runCmd.Flags()
	for name, value := range map[string]string{"reps": "4", "seed": "99"} {
		require.NoError(t, flags.Set(name, value))
	}
	t.Cleanup(func() {
		for _, name := range []string{"reps", "seed"} {
			fl := flags.Lookup(name)
			_ = fl.Value.Set(fl.DefValue)
			fl.Changed = false
		}
	})
	f := parseBank(t)

	// WHEN they are applied
	require.NoError(t, applyRunFlags(runCmd, f))

	// THEN those values win and the rest of the file is untouched
	assert.Equal(t, 4, f.Experiment.NumReplications)
	assert.Equal(t, int64(99), f.Seed)
	assert.Equal(t, 3, f.Model.MaxArrivals)
	assert.Equal(t, "", f.Trace.Level)
}
