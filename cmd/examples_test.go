package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExampleConfigs_LoadAndRun verifies that every file in examples/ passes strict
// parsing and runs all of its replications.
func TestExampleConfigs_LoadAndRun(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "examples", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no example configs found")

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			// GIVEN an example config
			f, err := LoadExperimentFile(path)
			require.NoError(t, err)

			// WHEN it runs
			out, err := RunExperiment(context.Background(), f)
			require.NoError(t, err)

			// THEN every replication completed and responses were summarized
			assert.Len(t, out.Report.Replications, f.Experiment.NumReplications)
			assert.NotEmpty(t, out.Report.Responses)
			for _, rep := range out.Report.Replications {
				assert.NotEqual(t, "ExecutionTimeExceeded", rep.EndCondition, "replication %d", rep.Number)
			}
		})
	}
}

// TestExampleConfigs_Bank verifies the worked example in bank.yaml.
func TestExampleConfigs_Bank(t *testing.T) {
	// GIVEN bank.yaml
	f, err := LoadExperimentFile(filepath.Join("..", "examples", "bank.yaml"))
	require.NoError(t, err)

	// WHEN it runs
	out, err := RunExperiment(context.Background(), f)
	require.NoError(t, err)

	// THEN the numbers in its header comment hold
	sys, ok := out.Report.Response("Bank:SystemTime")
	require.True(t, ok)
	assert.InDelta(t, 9.0, sys.Mean, 1e-12)
	assert.Equal(t, 21.0, out.Report.Replications[0].EndTime)
	require.NotNil(t, out.Trace)
	assert.Equal(t, 21.0, out.Trace.LastTimePerRep[1])
}
