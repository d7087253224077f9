// Defines Request, a demand for a ResourceUnit's time, and its lifecycle.

package sim

import (
	"fmt"
	"math"
	"strings"
)

// PreemptionRule says what happens to a request in service when its unit fails or becomes
// inactive.
type PreemptionRule int

const (
	// PreemptResume continues the request with its remaining time once the unit is back.
	PreemptResume PreemptionRule = iota
	// PreemptRestart starts the request over with its full duration.
	PreemptRestart
	// PreemptCancel ends the request.
	PreemptCancel
	// PreemptNone forbids preemption. Units whose failures cannot be delayed reject such requests.
	PreemptNone
)

func (r PreemptionRule) String() string {
	switch r {
	case PreemptResume:
		return "RESUME"
	case PreemptRestart:
		return "RESTART"
	case PreemptCancel:
		return "CANCEL"
	case PreemptNone:
		return "NONE"
	}
	return fmt.Sprintf("PreemptionRule(%d)", int(r))
}

// ParsePreemptionRule converts "resume", "restart", "cancel" or "none" to a rule.
// Empty string defaults to PreemptResume.
func ParsePreemptionRule(name string) (PreemptionRule, error) {
	switch strings.ToLower(name) {
	case "", "resume":
		return PreemptResume, nil
	case "restart":
		return PreemptRestart, nil
	case "cancel":
		return PreemptCancel, nil
	case "none":
		return PreemptNone, nil
	}
	return PreemptResume, fmt.Errorf("%w: unknown preemption rule %q", ErrConfiguration, name)
}

// RequestState is the lifecycle state of a Request.
type RequestState int

const (
	RequestCreated RequestState = iota
	RequestWaiting
	RequestAllocated
	RequestPreempted
	RequestCanceled
	RequestRejected
	RequestFinished
)

func (s RequestState) String() string {
	switch s {
	case RequestCreated:
		return "Created"
	case RequestWaiting:
		return "Waiting"
	case RequestAllocated:
		return "Allocated"
	case RequestPreempted:
		return "Preempted"
	case RequestCanceled:
		return "Canceled"
	case RequestRejected:
		return "Rejected"
	case RequestFinished:
		return "Finished"
	}
	return fmt.Sprintf("RequestState(%d)", int(s))
}

// IsTerminal reports whether the state absorbs all further signals.
func (s RequestState) IsTerminal() bool {
	return s == RequestCanceled || s == RequestRejected || s == RequestFinished
}

var requestTransitions = map[RequestState][]RequestState{
	RequestCreated:   {RequestWaiting, RequestRejected},
	RequestWaiting:   {RequestAllocated, RequestCanceled},
	RequestAllocated: {RequestFinished, RequestPreempted, RequestCanceled},
	RequestPreempted: {RequestAllocated, RequestCanceled},
}

// RequestReactor receives a request's lifecycle notifications. Nil fields are skipped.
type RequestReactor struct {
	Waiting   func(r *Request)
	Allocated func(r *Request)
	Preempted func(r *Request)
	Resumed   func(r *Request)
	Canceled  func(r *Request)
	Rejected  func(r *Request)
	Completed func(r *Request)
}

// RequestSpec describes a request to build with ResourceUnit.NewRequest.
type RequestSpec struct {
	Name string
	// Duration supplies the usage time, drawn when the request is seized. Nil means the
	// request holds the unit until it is released or canceled.
	Duration RandomSource
	Rule     PreemptionRule
	Priority int
	Entity   any
	Reactor  RequestReactor
}

// Request is a demand for a ResourceUnit's time.
type Request struct {
	QObject

	unit    *ResourceUnit
	source  RandomSource
	rule    PreemptionRule
	state   RequestState
	prev    RequestState
	entity  any
	reactor RequestReactor

	duration      float64
	timeRemaining float64
	timeReady     float64
	timeAllocated float64 // start of the current service interval
	timeEnded     float64

	numPreemptions      int
	timePreempted       float64
	totalPreemptionTime float64
}

// State returns the request's lifecycle state.
func (r *Request) State() RequestState { return r.state }

// PreviousState returns the state before the last transition.
func (r *Request) PreviousState() RequestState { return r.prev }

// Unit returns the unit that issued the request.
func (r *Request) Unit() *ResourceUnit { return r.unit }

// Rule returns the preemption rule.
func (r *Request) Rule() PreemptionRule { return r.rule }

// Entity returns the object the request acts for.
func (r *Request) Entity() any { return r.entity }

// Duration returns the drawn usage time, +Inf for an open-ended request, NaN before seizing.
func (r *Request) Duration() float64 { return r.duration }

// TimeRemaining returns the usage time still owed.
func (r *Request) TimeRemaining() float64 { return r.timeRemaining }

// TimeAllocated returns the start of the current (or last) service interval.
func (r *Request) TimeAllocated() float64 { return r.timeAllocated }

// NumPreemptions returns how often the request was preempted.
func (r *Request) NumPreemptions() int { return r.numPreemptions }

// TotalPreemptionTime returns the total time spent preempted.
func (r *Request) TotalPreemptionTime() float64 { return r.totalPreemptionTime }

// TimeUntilCompletion returns the time from seizing to finishing, or NaN if not finished.
func (r *Request) TimeUntilCompletion() float64 {
	if r.state != RequestFinished {
		return math.NaN()
	}
	return r.timeEnded - r.timeReady
}

func (r *Request) IsWaiting() bool   { return r.state == RequestWaiting }
func (r *Request) IsAllocated() bool { return r.state == RequestAllocated }
func (r *Request) IsPreempted() bool { return r.state == RequestPreempted }
func (r *Request) IsCanceled() bool  { return r.state == RequestCanceled }
func (r *Request) IsRejected() bool  { return r.state == RequestRejected }
func (r *Request) IsFinished() bool  { return r.state == RequestFinished }

// AllowsPreemption reports whether the rule permits preemption.
func (r *Request) AllowsPreemption() bool { return r.rule != PreemptNone }

// Release tells the unit the request is done before its duration elapsed.
func (r *Request) Release() error { return r.unit.Release(r) }

// Cancel withdraws the request from its unit.
func (r *Request) Cancel() error { return r.unit.Cancel(r) }

func (r *Request) transition(to RequestState) error {
	for _, s := range requestTransitions[r.state] {
		if s == to {
			r.prev = r.state
			r.state = to
			return nil
		}
	}
	return illegalTransition("Request "+r.name, "to "+to.String(), r.state.String())
}

// makeReady draws the usage time at the moment the request is seized.
func (r *Request) makeReady(now float64) {
	r.timeReady = now
	r.duration = math.Inf(1)
	if r.source != nil {
		r.duration = r.source.Value()
	}
	r.timeRemaining = r.duration
}

func (r *Request) enterWaiting() error {
	if err := r.transition(RequestWaiting); err != nil {
		return err
	}
	if r.reactor.Waiting != nil {
		r.reactor.Waiting(r)
	}
	return nil
}

func (r *Request) allocate(now float64) error {
	if err := r.transition(RequestAllocated); err != nil {
		return err
	}
	r.timeAllocated = now
	if r.reactor.Allocated != nil {
		r.reactor.Allocated(r)
	}
	return nil
}

func (r *Request) preempt(now float64) error {
	if r.rule == PreemptCancel {
		return r.cancel(now)
	}
	if err := r.transition(RequestPreempted); err != nil {
		return err
	}
	r.numPreemptions++
	r.timePreempted = now
	if r.rule == PreemptResume {
		r.timeRemaining -= now - r.timeAllocated
		if r.timeRemaining < 0 {
			r.timeRemaining = 0
		}
	} else {
		r.timeRemaining = r.duration
	}
	if r.reactor.Preempted != nil {
		r.reactor.Preempted(r)
	}
	return nil
}

func (r *Request) resume(now float64) error {
	if err := r.transition(RequestAllocated); err != nil {
		return err
	}
	r.totalPreemptionTime += now - r.timePreempted
	r.timeAllocated = now
	if r.reactor.Resumed != nil {
		r.reactor.Resumed(r)
	}
	return nil
}

func (r *Request) cancel(now float64) error {
	if r.state == RequestPreempted {
		r.totalPreemptionTime += now - r.timePreempted
	}
	if err := r.transition(RequestCanceled); err != nil {
		return err
	}
	r.timeEnded = now
	if r.reactor.Canceled != nil {
		r.reactor.Canceled(r)
	}
	return nil
}

func (r *Request) reject(now float64) error {
	if err := r.transition(RequestRejected); err != nil {
		return err
	}
	r.timeEnded = now
	if r.reactor.Rejected != nil {
		r.reactor.Rejected(r)
	}
	return nil
}

func (r *Request) finish(now float64) error {
	if err := r.transition(RequestFinished); err != nil {
		return err
	}
	r.timeRemaining = 0
	r.timeEnded = now
	if r.reactor.Completed != nil {
		r.reactor.Completed(r)
	}
	return nil
}

func (r *Request) String() string {
	return fmt.Sprintf("Request(%s, id=%d, state=%s, rule=%s)", r.name, r.id, r.state, r.rule)
}
