package sim

import "fmt"

// ResourceState is the state of a ResourceUnit.
type ResourceState int

const (
	Idle ResourceState = iota
	Busy
	Failed
	Inactive
	numResourceStates
)

func (s ResourceState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Busy:
		return "Busy"
	case Failed:
		return "Failed"
	case Inactive:
		return "Inactive"
	}
	return fmt.Sprintf("ResourceState(%d)", int(s))
}

// stateAccumulator tracks time spent in one state.
type stateAccumulator struct {
	totalTime   float64
	timeEntered float64
	numEntered  int
	numExited   int
	inState     bool
}

func (a *stateAccumulator) enter(now float64) {
	a.timeEntered = now
	a.numEntered++
	a.inState = true
}

// exit closes the open interval and returns its length.
func (a *stateAccumulator) exit(now float64) float64 {
	if !a.inState {
		return 0
	}
	d := now - a.timeEntered
	a.totalTime += d
	a.numExited++
	a.inState = false
	return d
}

func (a *stateAccumulator) total(now float64) float64 {
	if a.inState {
		return a.totalTime + now - a.timeEntered
	}
	return a.totalTime
}

// stateHandlers holds a state's reaction to each signal. A nil entry makes the signal illegal
// in that state.
type stateHandlers struct {
	seize      func(u *ResourceUnit, r *Request) error
	release    func(u *ResourceUnit, r *Request) error
	complete   func(u *ResourceUnit, r *Request) error
	cancel     func(u *ResourceUnit, r *Request) error
	fail       func(u *ResourceUnit, n *FailureNotice) error
	endFailure func(u *ResourceUnit, n *FailureNotice) error
	inactivate func(u *ResourceUnit, n *InactivePeriodNotice) error
	activate   func(u *ResourceUnit, n *InactivePeriodNotice) error
}

var resourceStates [numResourceStates]stateHandlers

func init() {
	resourceStates[Idle] = stateHandlers{
		seize: func(u *ResourceUnit, r *Request) error {
			if err := u.enqueueRequest(r); err != nil {
				return err
			}
			return u.processNextRequest()
		},
		fail:       (*ResourceUnit).startFailure,
		inactivate: (*ResourceUnit).startInactivePeriod,
	}
	resourceStates[Busy] = stateHandlers{
		seize:      (*ResourceUnit).enqueueRequest,
		release:    (*ResourceUnit).releaseWhileBusy,
		complete:   (*ResourceUnit).completeRequest,
		cancel:     (*ResourceUnit).cancelWhileBusy,
		fail:       (*ResourceUnit).failWhileBusy,
		inactivate: (*ResourceUnit).inactivateWhileBusy,
	}
	resourceStates[Failed] = stateHandlers{
		seize:      (*ResourceUnit).enqueueRequest,
		cancel:     (*ResourceUnit).cancelWhileDown,
		fail:       (*ResourceUnit).enqueueFailure,
		endFailure: (*ResourceUnit).endFailureWhileFailed,
		inactivate: (*ResourceUnit).inactivateWhileFailed,
	}
	resourceStates[Inactive] = stateHandlers{
		seize:      (*ResourceUnit).enqueueRequest,
		cancel:     (*ResourceUnit).cancelWhileDown,
		fail:       (*ResourceUnit).failWhileInactive,
		inactivate: (*ResourceUnit).inactivateWhileInactive,
		activate:   (*ResourceUnit).activateWhileInactive,
	}
}
