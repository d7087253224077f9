package sim

import (
	"fmt"
	"math"
	"time"
)

// Experiment holds the run parameters shared by all replications.
type Experiment struct {
	Name            string `yaml:"name" json:"name"`
	NumReplications int    `yaml:"num_replications" json:"num_replications"`
	// LengthOfReplication is the simulated time at which each replication ends. +Inf (".inf" in
	// YAML) runs until no events remain, Stop is called, or the time budget is spent.
	LengthOfReplication float64 `yaml:"length_of_replication" json:"length_of_replication"`
	// LengthOfWarmUp is the time at which statistics collected so far are discarded. Zero disables it.
	LengthOfWarmUp float64 `yaml:"length_of_warmup" json:"length_of_warmup"`
	// MaxExecutionTime is the wall-clock budget per replication. Zero means unlimited.
	MaxExecutionTime time.Duration `yaml:"max_execution_time" json:"max_execution_time"`

	// ResetStartStream resets every random variable to its start stream before the experiment.
	ResetStartStream bool `yaml:"reset_start_stream" json:"reset_start_stream"`
	// AdvanceNextSubstream moves every random variable to its next substream after each replication.
	AdvanceNextSubstream bool `yaml:"advance_next_substream" json:"advance_next_substream"`
	// NumStreamAdvances skips that many substreams before the first replication.
	NumStreamAdvances int `yaml:"num_stream_advances" json:"num_stream_advances"`
}

// NewExperiment returns an experiment with one replication, no end time, no warm-up, and
// substream advancing between replications.
func NewExperiment(name string) Experiment {
	return Experiment{
		Name:                 name,
		NumReplications:      1,
		LengthOfReplication:  math.Inf(1),
		AdvanceNextSubstream: true,
	}
}

// Validate checks that the parameters describe a runnable experiment.
func (e *Experiment) Validate() error {
	if e.NumReplications < 1 {
		return fmt.Errorf("%w: num_replications must be >= 1, got %d", ErrConfiguration, e.NumReplications)
	}
	if math.IsNaN(e.LengthOfReplication) || e.LengthOfReplication <= 0 {
		return fmt.Errorf("%w: length_of_replication must be > 0, got %g", ErrConfiguration, e.LengthOfReplication)
	}
	if math.IsNaN(e.LengthOfWarmUp) || e.LengthOfWarmUp < 0 || math.IsInf(e.LengthOfWarmUp, 0) {
		return fmt.Errorf("%w: length_of_warmup must be finite and >= 0, got %g", ErrConfiguration, e.LengthOfWarmUp)
	}
	if e.LengthOfWarmUp >= e.LengthOfReplication {
		return fmt.Errorf("%w: length_of_warmup %g must be less than length_of_replication %g",
			ErrConfiguration, e.LengthOfWarmUp, e.LengthOfReplication)
	}
	if e.MaxExecutionTime < 0 {
		return fmt.Errorf("%w: max_execution_time must be >= 0, got %v", ErrConfiguration, e.MaxExecutionTime)
	}
	if e.NumStreamAdvances < 0 {
		return fmt.Errorf("%w: num_stream_advances must be >= 0, got %d", ErrConfiguration, e.NumStreamAdvances)
	}
	return nil
}

// HasWarmUp reports whether a warm-up event is scheduled.
func (e *Experiment) HasWarmUp() bool { return e.LengthOfWarmUp > 0 }
