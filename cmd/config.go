package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/desim/sim"
	"github.com/inference-sim/desim/sim/station"
	"github.com/inference-sim/desim/sim/trace"
)

// defaultSeed is used when neither the experiment file nor --seed names one.
const defaultSeed int64 = 42

// ExperimentFile is the layout of an experiment YAML file (and of the serve request body).
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type ExperimentFile struct {
	Experiment sim.Experiment `yaml:"experiment" json:"experiment"`
	Model      station.Config `yaml:"model" json:"model"`
	Seed       int64          `yaml:"seed" json:"seed"`
	Trace      TraceConfig    `yaml:"trace" json:"trace"`
}

// TraceConfig selects event tracing for a run.
type TraceConfig struct {
	Level     string `yaml:"level" json:"level"`           // "none" or "events"
	MaxEvents int    `yaml:"max_events" json:"max_events"` // 0 = unlimited
}

// newExperimentFile returns the defaults that decoded files are layered over.
func newExperimentFile(name string) ExperimentFile {
	return ExperimentFile{
		Experiment: sim.NewExperiment(name),
		Seed:       defaultSeed,
	}
}

// LoadExperimentFile reads and validates the experiment file at path. The experiment
// name defaults to the file name without its extension.
func LoadExperimentFile(path string) (*ExperimentFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading experiment file: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	f, err := ParseExperimentFile(data, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ParseExperimentFile decodes YAML data over the defaults with strict field checking
// (typos must cause errors) and validates the result.
func ParseExperimentFile(data []byte, name string) (*ExperimentFile, error) {
	f := newExperimentFile(name)
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: parsing experiment file: %v", sim.ErrConfiguration, err)
	}
	if f.Experiment.Name == "" {
		f.Experiment.Name = name
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks every section.
func (f *ExperimentFile) Validate() error {
	if err := f.Experiment.Validate(); err != nil {
		return fmt.Errorf("experiment: %w", err)
	}
	if err := f.Model.Validate(); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if !trace.IsValidTraceLevel(f.Trace.Level) {
		return fmt.Errorf("%w: trace: unknown level %q", sim.ErrConfiguration, f.Trace.Level)
	}
	if f.Trace.MaxEvents < 0 {
		return fmt.Errorf("%w: trace: max_events must be >= 0, got %d", sim.ErrConfiguration, f.Trace.MaxEvents)
	}
	return nil
}

func (t TraceConfig) toTraceConfig() trace.TraceConfig {
	level := trace.TraceLevel(t.Level)
	if level == "" {
		level = trace.TraceLevelNone
	}
	return trace.TraceConfig{Level: level, MaxEvents: t.MaxEvents}
}
