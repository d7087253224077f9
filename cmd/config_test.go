package cmd

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/desim/sim"
	"github.com/inference-sim/desim/sim/trace"
)

// bankYAML describes arrivals at 0, 5, 10 to a server with constant service time 7.
const bankYAML = `
experiment:
  num_replications: 2
  max_execution_time: 5s
seed: 7
model:
  name: Bank
  arrivals: {type: constant, params: {value: 5}}
  first_arrival: {type: constant, params: {value: 0}}
  max_arrivals: 3
  service: {type: constant, params: {value: 7}}
`

func writeExperimentFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadExperimentFile_LayersOverDefaults(t *testing.T) {
	// GIVEN a file that sets only some experiment fields
	path := writeExperimentFile(t, "bank.yaml", bankYAML)

	// WHEN it is loaded
	f, err := LoadExperimentFile(path)
	require.NoError(t, err)

	// THEN the given fields are set and the rest keep their defaults
	assert.Equal(t, "bank", f.Experiment.Name, "name defaults to the file name")
	assert.Equal(t, 2, f.Experiment.NumReplications)
	assert.Equal(t, 5*time.Second, f.Experiment.MaxExecutionTime)
	assert.True(t, math.IsInf(f.Experiment.LengthOfReplication, 1))
	assert.True(t, f.Experiment.AdvanceNextSubstream)
	assert.Equal(t, int64(7), f.Seed)
	assert.Equal(t, "Bank", f.Model.Name)
	assert.Equal(t, 3, f.Model.MaxArrivals)
	assert.Equal(t, trace.TraceLevelNone, f.Trace.toTraceConfig().Level)
}

func TestParseExperimentFile_InfiniteLengthAndExplicitName(t *testing.T) {
	f, err := ParseExperimentFile([]byte(`
experiment:
  name: explicit
  length_of_replication: .inf
model:
  arrivals: {type: exponential, params: {mean: 1}}
  service: {type: exponential, params: {mean: 0.5}}
`), "ignored")
	require.NoError(t, err)
	assert.Equal(t, "explicit", f.Experiment.Name)
	assert.True(t, math.IsInf(f.Experiment.LengthOfReplication, 1))
	assert.Equal(t, defaultSeed, f.Seed)
}

func TestParseExperimentFile_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown top-level field", "experimnt: {}\n"},
		{"unknown nested field", "model:\n  servce: {type: constant, params: {value: 1}}\n"},
		{"zero replications", "experiment: {num_replications: 0}\n"},
		{"warm-up past the end", "experiment: {length_of_replication: 10, length_of_warmup: 10}\n"},
		{"unknown discipline", "model: {discipline: random}\n"},
		{"unknown trace level", "trace: {level: verbose}\n"},
		{"negative trace cap", "trace: {max_events: -1}\n"},
		{"integer duration", "experiment: {max_execution_time: 5}\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseExperimentFile([]byte(tc.yaml), "x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, sim.ErrConfiguration), "got %v", err)
		})
	}
}

func TestLoadExperimentFile_MissingFile(t *testing.T) {
	_, err := LoadExperimentFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
