package sim

import "fmt"

// RandomVariable is a model element wrapping a RandomSource with two slots: the initial
// source, used for every replication, and the current source, which a model may override
// during a replication. The override never outlives the replication: AfterReplication and
// BeforeExperiment restore current to initial.
type RandomVariable struct {
	*ModelElement
	initial RandomSource
	current RandomSource

	resetStartStreamOption     bool
	advanceNextSubstreamOption bool
}

// NewRandomVariable creates a random variable element under parent.
func NewRandomVariable(parent *ModelElement, name string, source RandomSource) (*RandomVariable, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: random variable %q has no source", ErrConfiguration, name)
	}
	rv := &RandomVariable{initial: source, current: source}
	e, err := NewModelElement(parent, name, rv)
	if err != nil {
		return nil, err
	}
	rv.ModelElement = e
	return rv, nil
}

// Value draws from the current source.
func (rv *RandomVariable) Value() float64 {
	return rv.current.Value()
}

// Source returns the source in use for the current replication.
func (rv *RandomVariable) Source() RandomSource { return rv.current }

// InitialSource returns the source used at the start of every replication.
func (rv *RandomVariable) InitialSource() RandomSource { return rv.initial }

// SetSource overrides the source for the remainder of the current replication.
func (rv *RandomVariable) SetSource(s RandomSource) error {
	if s == nil {
		return fmt.Errorf("%w: nil source for %q", ErrConfiguration, rv.Name())
	}
	rv.current = s
	return nil
}

// SetInitialSource changes the source used by all subsequent replications.
// It may not be called while an experiment is running.
func (rv *RandomVariable) SetInitialSource(s RandomSource) error {
	if s == nil {
		return fmt.Errorf("%w: nil initial source for %q", ErrConfiguration, rv.Name())
	}
	if rv.Model().Locked() {
		return fmt.Errorf("%w: cannot change the initial source of %q during an experiment", ErrInvalidState, rv.Name())
	}
	rv.initial = s
	rv.current = s
	return nil
}

// SetResetStartStreamOption makes BeforeExperiment reset the initial source to its start stream.
// The experiment's own options apply to every random variable in addition to these.
func (rv *RandomVariable) SetResetStartStreamOption(on bool) { rv.resetStartStreamOption = on }

// SetAdvanceNextSubstreamOption controls the advance to the next substream after each replication.
func (rv *RandomVariable) SetAdvanceNextSubstreamOption(on bool) { rv.advanceNextSubstreamOption = on }

// ResetStartStream resets the initial source's stream, if it has one.
func (rv *RandomVariable) ResetStartStream() {
	if sc, ok := rv.initial.(StreamController); ok {
		sc.ResetStartStream()
	}
}

// ResetStartSubstream resets the initial source's stream to the start of its substream.
func (rv *RandomVariable) ResetStartSubstream() {
	if sc, ok := rv.initial.(StreamController); ok {
		sc.ResetStartSubstream()
	}
}

// AdvanceToNextSubstream moves the initial source's stream to its next substream.
func (rv *RandomVariable) AdvanceToNextSubstream() {
	if sc, ok := rv.initial.(StreamController); ok {
		sc.AdvanceToNextSubstream()
	}
}

// BeforeExperiment restores the initial source and optionally resets its stream.
func (rv *RandomVariable) BeforeExperiment() error {
	rv.current = rv.initial
	if rv.resetStartStreamOption {
		rv.ResetStartStream()
	}
	return nil
}

// AfterReplication discards any override and optionally advances the stream.
func (rv *RandomVariable) AfterReplication() {
	rv.current = rv.initial
	if rv.advanceNextSubstreamOption {
		rv.AdvanceToNextSubstream()
	}
}
