package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/desim/sim"
)

func TestRunSweep_OutcomesInArgumentOrder(t *testing.T) {
	// GIVEN two experiments that differ only in service time
	fast := writeExperimentFile(t, "fast.yaml", bankYAML)
	slow := writeExperimentFile(t, "slow.yaml", strings.Replace(bankYAML, "value: 7", "value: 9", 1))

	// WHEN they are swept concurrently
	outcomes, err := runSweep(context.Background(), []string{fast, slow}, 0)
	require.NoError(t, err)

	// THEN outcomes line up with the arguments
	require.Len(t, outcomes, 2)
	assert.Equal(t, "fast", outcomes[0].Report.Experiment)
	assert.Equal(t, "slow", outcomes[1].Report.Experiment)
	fastSys, _ := outcomes[0].Report.Response("Bank:SystemTime")
	slowSys, _ := outcomes[1].Report.Response("Bank:SystemTime")
	assert.InDelta(t, 9.0, fastSys.Mean, 1e-12)
	// service 9 with arrivals every 5: waits 0, 4, 8
	assert.InDelta(t, 13.0, slowSys.Mean, 1e-12)
}

func TestRunSweep_SequentialMatchesParallel(t *testing.T) {
	path := writeExperimentFile(t, "rand.yaml", `
experiment: {num_replications: 3, length_of_replication: 500}
model:
  name: MM1
  arrivals: {type: exponential, params: {mean: 1}}
  service: {type: exponential, params: {mean: 0.8}}
`)
	seq, err := runSweep(context.Background(), []string{path, path}, 1)
	require.NoError(t, err)
	par, err := runSweep(context.Background(), []string{path, path}, 0)
	require.NoError(t, err)

	for i := range seq {
		a, _ := seq[i].Report.Response("MM1:SystemTime")
		b, _ := par[i].Report.Response("MM1:SystemTime")
		assert.Equal(t, a.Mean, b.Mean, "experiment %d", i)
	}
}

func TestRunSweep_InvalidFileRunsNothing(t *testing.T) {
	good := writeExperimentFile(t, "good.yaml", bankYAML)
	bad := writeExperimentFile(t, "bad.yaml", "experiment: {num_replications: -1}\n")

	outcomes, err := runSweep(context.Background(), []string{good, bad}, 0)

	require.Error(t, err)
	assert.True(t, errors.Is(err, sim.ErrConfiguration))
	assert.Nil(t, outcomes)
}
