package sim

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (wrapped) by the engine. Callers test them with errors.Is.
var (
	// ErrCausality is returned when an event would be scheduled before the current time.
	ErrCausality = errors.New("causality violation")

	// ErrIllegalStateTransition is returned when a signal is not legal in the receiver's
	// current state. It indicates a modeling bug and halts the replication.
	ErrIllegalStateTransition = errors.New("illegal state transition")

	// ErrInvalidState is returned when an operation is attempted at the wrong point in the
	// simulation lifecycle, e.g. re-parenting a model element after the experiment started.
	ErrInvalidState = errors.New("invalid state")

	// ErrConfiguration is returned for inconsistent model configuration.
	ErrConfiguration = errors.New("configuration error")
)

// TransitionError describes a rejected state-machine signal.
type TransitionError struct {
	Machine string // e.g. "ResourceUnit Server" or "Request 12"
	Signal  string
	State   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s not allowed in state %s", e.Machine, e.Signal, e.State)
}

// Unwrap lets errors.Is match ErrIllegalStateTransition.
func (e *TransitionError) Unwrap() error {
	return ErrIllegalStateTransition
}

func illegalTransition(machine, signal, state string) error {
	return &TransitionError{Machine: machine, Signal: signal, State: state}
}
