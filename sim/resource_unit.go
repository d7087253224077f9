// Implements ResourceUnit, a single unit of capacity that requests seize and release, and that
// failure processes and schedules take down for periods of time.

package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// ResourceUnitOptions configures a ResourceUnit. The zero value is a unit whose failures
// preempt, whose inactive periods preempt, with FIFO queues and no optional statistics.
type ResourceUnitOptions struct {
	// FailureDelay lets failures wait for a non-preemptable request to finish. Units without it
	// reject requests whose rule is PreemptNone.
	FailureDelay bool
	// InactivePeriodDelay lets scheduled inactive periods wait for the current request.
	InactivePeriodDelay bool
	// AutoStartFailures starts attached failure processes at every replication start.
	AutoStartFailures bool

	RequestQDiscipline Discipline
	FailureQDiscipline Discipline
	// RequestQCancelStats records the waiting time of requests canceled while queued.
	RequestQCancelStats bool

	// CollectRequestQStats adds waiting-time and queue-length responses for the request queue.
	CollectRequestQStats bool
	// CollectRequestStats adds completion, cancellation, rejection and preemption responses.
	CollectRequestStats bool
	// CollectStateStats adds idle, failed and inactive proportion responses.
	CollectStateStats bool
}

// ResourceUnit is a unit of capacity with states Idle, Busy, Failed and Inactive.
// At most one request is in service. Invariants: the current request is non-nil exactly when
// the unit is Busy, and a preempted request only exists while the unit is Failed or Inactive.
type ResourceUnit struct {
	*ModelElement
	opts ResourceUnitOptions

	state      ResourceState
	prev       ResourceState
	stateStats [numResourceStates]stateAccumulator
	startTime  float64

	requestQ *Queue[*Request]
	failureQ *Queue[*FailureNotice]

	current         *Request
	serviceEvent    *Event
	preempted       *Request
	currentFailure  *FailureNotice
	downEvent       *Event
	currentInactive *InactivePeriodNotice
	pendingInactive *InactivePeriodNotice
	inactiveEvent   *Event

	failureProcesses []FailureProcess
	schedule         *Schedule
	stateListeners   []func(u *ResourceUnit)

	nextRequestID  int64
	nextNoticeID   int64
	numSeizes      int
	numCompleted   int
	numCanceled    int
	numRejected    int
	numPreemptions int

	util             *Response
	idleProp         *Response
	failedProp       *Response
	inactiveProp     *Response
	timeToCompletion *Response
	completedCount   *Counter
	canceledCount    *Counter
	rejectedCount    *Counter
	preemptionCount  *Counter
	preemptTimeCount *Counter
	requestQWait     *Response
	requestQNumInQ   *TimeWeightedResponse
}

// NewResourceUnit creates an idle unit under parent.
func NewResourceUnit(parent *ModelElement, name string, opts ResourceUnitOptions) (*ResourceUnit, error) {
	u := &ResourceUnit{opts: opts}
	e, err := NewModelElement(parent, name, u)
	if err != nil {
		return nil, err
	}
	u.ModelElement = e
	name = e.Name()
	if u.requestQ, err = NewQueue[*Request](e, name+":RequestQ", opts.RequestQDiscipline); err != nil {
		return nil, err
	}
	if u.failureQ, err = NewQueue[*FailureNotice](e, name+":FailureQ", opts.FailureQDiscipline); err != nil {
		return nil, err
	}
	if u.util, err = NewResponse(e, name+":Util"); err != nil {
		return nil, err
	}
	if opts.CollectStateStats {
		if u.idleProp, err = NewResponse(e, name+":PropIdle"); err != nil {
			return nil, err
		}
		if u.failedProp, err = NewResponse(e, name+":PropFailed"); err != nil {
			return nil, err
		}
		if u.inactiveProp, err = NewResponse(e, name+":PropInactive"); err != nil {
			return nil, err
		}
	}
	if opts.CollectRequestStats {
		if err := u.addRequestStats(name); err != nil {
			return nil, err
		}
	}
	if opts.CollectRequestQStats {
		if u.requestQWait, err = NewResponse(e, name+":RequestQ:TimeInQ"); err != nil {
			return nil, err
		}
		if u.requestQNumInQ, err = NewTimeWeightedResponse(e, name+":RequestQ:NumInQ", 0); err != nil {
			return nil, err
		}
		u.requestQ.SetWaitTimeRecorder(u.requestQWait)
		u.requestQ.SetNumInQueueRecorder(u.requestQNumInQ)
	}
	return u, nil
}

func (u *ResourceUnit) addRequestStats(name string) error {
	var err error
	e := u.ModelElement
	if u.timeToCompletion, err = NewResponse(e, name+":TimeToCompletion"); err != nil {
		return err
	}
	if u.completedCount, err = NewCounter(e, name+":NumCompleted"); err != nil {
		return err
	}
	if u.canceledCount, err = NewCounter(e, name+":NumCanceled"); err != nil {
		return err
	}
	if u.rejectedCount, err = NewCounter(e, name+":NumRejected"); err != nil {
		return err
	}
	if u.preemptionCount, err = NewCounter(e, name+":NumPreemptions"); err != nil {
		return err
	}
	u.preemptTimeCount, err = NewCounter(e, name+":TotalPreemptionTime")
	return err
}

// Options returns the unit's configuration.
func (u *ResourceUnit) Options() ResourceUnitOptions { return u.opts }

// State returns the current state.
func (u *ResourceUnit) State() ResourceState { return u.state }

// PreviousState returns the state before the last change.
func (u *ResourceUnit) PreviousState() ResourceState { return u.prev }

func (u *ResourceUnit) IsIdle() bool     { return u.state == Idle }
func (u *ResourceUnit) IsBusy() bool     { return u.state == Busy }
func (u *ResourceUnit) IsFailed() bool   { return u.state == Failed }
func (u *ResourceUnit) IsInactive() bool { return u.state == Inactive }

// CurrentRequest returns the request in service, or nil.
func (u *ResourceUnit) CurrentRequest() *Request { return u.current }

// PreemptedRequest returns the request waiting to resume, or nil.
func (u *ResourceUnit) PreemptedRequest() *Request { return u.preempted }

// CurrentFailureNotice returns the notice keeping the unit Failed, or nil.
func (u *ResourceUnit) CurrentFailureNotice() *FailureNotice { return u.currentFailure }

// CurrentInactivePeriodNotice returns the notice keeping the unit Inactive, or nil.
func (u *ResourceUnit) CurrentInactivePeriodNotice() *InactivePeriodNotice {
	return u.currentInactive
}

// PendingInactivePeriodNotice returns the delayed inactive period, or nil.
func (u *ResourceUnit) PendingInactivePeriodNotice() *InactivePeriodNotice {
	return u.pendingInactive
}

// RequestQ returns the queue of waiting requests.
func (u *ResourceUnit) RequestQ() *Queue[*Request] { return u.requestQ }

// FailureQ returns the queue of delayed failure notices.
func (u *ResourceUnit) FailureQ() *Queue[*FailureNotice] { return u.failureQ }

// NumWaitingRequests returns the number of queued requests.
func (u *ResourceUnit) NumWaitingRequests() int { return u.requestQ.Size() }

// NumSeizes returns the number of accepted seizes this replication.
func (u *ResourceUnit) NumSeizes() int { return u.numSeizes }

// NumCompleted returns the number of finished requests since the last reset.
func (u *ResourceUnit) NumCompleted() int { return u.numCompleted }

// NumCanceled returns the number of canceled requests since the last reset.
func (u *ResourceUnit) NumCanceled() int { return u.numCanceled }

// NumRejected returns the number of rejected requests since the last reset.
func (u *ResourceUnit) NumRejected() int { return u.numRejected }

// NumPreemptions returns the preemptions of requests ended since the last reset.
func (u *ResourceUnit) NumPreemptions() int { return u.numPreemptions }

// TotalTimeIn returns the time spent in s since the replication start or warm-up.
func (u *ResourceUnit) TotalTimeIn(s ResourceState) float64 {
	return u.stateStats[s].total(u.Time())
}

// NumTimesEntered returns how often s was entered since the replication start or warm-up.
func (u *ResourceUnit) NumTimesEntered(s ResourceState) int { return u.stateStats[s].numEntered }

// Utilization returns the fraction of time Busy since the replication start or warm-up.
func (u *ResourceUnit) Utilization() float64 {
	t := u.Time() - u.startTime
	if t <= 0 {
		return 0
	}
	return u.TotalTimeIn(Busy) / t
}

// OnStateChange registers fn to run after every state change.
func (u *ResourceUnit) OnStateChange(fn func(u *ResourceUnit)) {
	u.stateListeners = append(u.stateListeners, fn)
}

// IsPreemptionRuleCompatible reports whether Seize would accept a request with rule.
func (u *ResourceUnit) IsPreemptionRuleCompatible(rule PreemptionRule) bool {
	return rule != PreemptNone || u.opts.FailureDelay
}

// AddFailureProcess attaches fp. Its delay option must match the unit's FailureDelay option.
func (u *ResourceUnit) AddFailureProcess(fp FailureProcess) error {
	if fp == nil {
		return fmt.Errorf("%w: nil failure process for %s", ErrConfiguration, u.Name())
	}
	if fp.DelayOption() != u.opts.FailureDelay {
		return fmt.Errorf("%w: failure process delay option %t is inconsistent with unit %s (%t)",
			ErrConfiguration, fp.DelayOption(), u.Name(), u.opts.FailureDelay)
	}
	for _, f := range u.failureProcesses {
		if f == fp {
			return fmt.Errorf("%w: failure process already attached to %s", ErrConfiguration, u.Name())
		}
	}
	u.failureProcesses = append(u.failureProcesses, fp)
	return nil
}

// FailureProcesses returns the attached failure processes.
func (u *ResourceUnit) FailureProcesses() []FailureProcess {
	return append([]FailureProcess(nil), u.failureProcesses...)
}

// UseSchedule makes the unit become inactive for every item of s. A unit follows at most one
// schedule.
func (u *ResourceUnit) UseSchedule(s *Schedule) error {
	if s == nil {
		return fmt.Errorf("%w: nil schedule for %s", ErrConfiguration, u.Name())
	}
	if u.schedule != nil {
		return fmt.Errorf("%w: %s already uses schedule %s", ErrConfiguration, u.Name(), u.schedule.Name())
	}
	u.schedule = s
	s.attach(u)
	return nil
}

// IsUsingSchedule reports whether the unit follows a schedule.
func (u *ResourceUnit) IsUsingSchedule() bool { return u.schedule != nil }

// NewRequest builds a request issued by this unit. It does not seize the unit.
func (u *ResourceUnit) NewRequest(spec RequestSpec) *Request {
	u.nextRequestID++
	name := spec.Name
	if name == "" {
		name = fmt.Sprintf("%s:Request_%d", u.Name(), u.nextRequestID)
	}
	r := &Request{
		QObject: NewQObject(u.nextRequestID, name, u.Time()),
		unit:    u,
		source:  spec.Duration,
		rule:    spec.Rule,
		entity:  spec.Entity,
		reactor: spec.Reactor,
	}
	r.priority = spec.Priority
	r.duration = math.NaN()
	r.timeRemaining = math.NaN()
	return r
}

// SeizeWith builds a request from spec and seizes the unit with it.
func (u *ResourceUnit) SeizeWith(spec RequestSpec) (*Request, error) {
	r := u.NewRequest(spec)
	return r, u.Seize(r)
}

// Seize asks for the unit. An idle unit starts serving the request at once; otherwise it waits.
// A PreemptNone request on a unit without FailureDelay is rejected: that is not an error, check
// the request's state.
func (u *ResourceUnit) Seize(r *Request) error {
	if err := u.checkIssuer(r); err != nil {
		return err
	}
	if r.state != RequestCreated {
		return illegalTransition("Request "+r.name, "seize", r.state.String())
	}
	now := u.Time()
	if !u.IsPreemptionRuleCompatible(r.rule) {
		if err := r.reject(now); err != nil {
			return err
		}
		u.collectFinal(r)
		logrus.Debugf("[t=%g] %s rejected %s: rule NONE needs delayable failures", now, u.Name(), r.name)
		return nil
	}
	r.makeReady(now)
	u.numSeizes++
	h := resourceStates[u.state].seize
	if h == nil {
		return u.illegal("seize")
	}
	return h(u, r)
}

// Release ends the service of r, which must be the request in service.
func (u *ResourceUnit) Release(r *Request) error {
	if err := u.checkIssuer(r); err != nil {
		return err
	}
	h := resourceStates[u.state].release
	if h == nil {
		return u.illegal("release")
	}
	return h(u, r)
}

// Cancel withdraws r, whether waiting, in service or preempted.
func (u *ResourceUnit) Cancel(r *Request) error {
	if err := u.checkIssuer(r); err != nil {
		return err
	}
	h := resourceStates[u.state].cancel
	if h == nil {
		return u.illegal("cancel")
	}
	return h(u, r)
}

// Fail sends the unit a failure notice of the given duration, delayable per the unit's
// FailureDelay option.
func (u *ResourceUnit) Fail(duration float64) (*FailureNotice, error) {
	n := u.newFailureNotice(duration, u.opts.FailureDelay, nil)
	return n, u.receiveFailure(n)
}

// Inactivate sends the unit an inactive-period notice of the given duration, delayable per
// the unit's InactivePeriodDelay option.
func (u *ResourceUnit) Inactivate(duration float64) (*InactivePeriodNotice, error) {
	n := u.newInactiveNotice(duration, u.opts.InactivePeriodDelay)
	return n, u.receiveInactivePeriod(n)
}

func (u *ResourceUnit) newFailureNotice(duration float64, delayable bool, onEnd func(n *FailureNotice)) *FailureNotice {
	u.nextNoticeID++
	n := &FailureNotice{notice{
		QObject:   NewQObject(u.nextNoticeID, fmt.Sprintf("%s:Failure_%d", u.Name(), u.nextNoticeID), u.Time()),
		kind:      "FailureNotice",
		duration:  duration,
		delayable: delayable,
	}}
	if onEnd != nil {
		n.onEnd = func() { onEnd(n) }
	}
	return n
}

func (u *ResourceUnit) newInactiveNotice(duration float64, delayable bool) *InactivePeriodNotice {
	u.nextNoticeID++
	return &InactivePeriodNotice{notice{
		QObject:   NewQObject(u.nextNoticeID, fmt.Sprintf("%s:Inactive_%d", u.Name(), u.nextNoticeID), u.Time()),
		kind:      "InactivePeriodNotice",
		duration:  duration,
		delayable: delayable,
	}}
}

func (u *ResourceUnit) receiveFailure(n *FailureNotice) error {
	h := resourceStates[u.state].fail
	if h == nil {
		return u.illegal("fail")
	}
	return h(u, n)
}

func (u *ResourceUnit) receiveInactivePeriod(n *InactivePeriodNotice) error {
	h := resourceStates[u.state].inactivate
	if h == nil {
		return u.illegal("inactivate")
	}
	return h(u, n)
}

func (u *ResourceUnit) checkIssuer(r *Request) error {
	if r == nil {
		return fmt.Errorf("%w: nil request for %s", ErrConfiguration, u.Name())
	}
	if r.unit != u {
		return fmt.Errorf("%w: request %s was not issued by %s", ErrConfiguration, r.name, u.Name())
	}
	return nil
}

func (u *ResourceUnit) illegal(signal string) error {
	return illegalTransition("ResourceUnit "+u.Name(), signal, u.state.String())
}

// Lifecycle

func (u *ResourceUnit) Initialize() error {
	u.startTime = u.Time()
	u.stateStats = [numResourceStates]stateAccumulator{}
	u.current, u.serviceEvent, u.preempted = nil, nil, nil
	u.currentFailure, u.downEvent = nil, nil
	u.currentInactive, u.pendingInactive, u.inactiveEvent = nil, nil, nil
	u.nextRequestID, u.nextNoticeID = 0, 0
	u.numSeizes, u.numCompleted, u.numCanceled, u.numRejected, u.numPreemptions = 0, 0, 0, 0, 0
	u.prev = Idle
	u.state = Idle
	u.stateStats[Idle].enter(u.startTime)
	u.notifyStateChange()
	return nil
}

// WarmUp discards the state totals collected so far. The unit keeps its state.
func (u *ResourceUnit) WarmUp() {
	now := u.Time()
	u.startTime = now
	u.stateStats = [numResourceStates]stateAccumulator{}
	u.stateStats[u.state].enter(now)
	u.numCompleted, u.numCanceled, u.numRejected, u.numPreemptions = 0, 0, 0, 0
}

func (u *ResourceUnit) ReplicationEnded() {
	now := u.Time()
	t := now - u.startTime
	if t <= 0 {
		return
	}
	u.util.Record(u.TotalTimeIn(Busy)/t, now)
	if u.opts.CollectStateStats {
		u.idleProp.Record(u.TotalTimeIn(Idle)/t, now)
		u.failedProp.Record(u.TotalTimeIn(Failed)/t, now)
		u.inactiveProp.Record(u.TotalTimeIn(Inactive)/t, now)
	}
}

// State changes

func (u *ResourceUnit) setState(s ResourceState) {
	now := u.Time()
	u.stateStats[u.state].exit(now)
	u.prev = u.state
	u.state = s
	u.stateStats[s].enter(now)
	logrus.Tracef("[t=%g] %s: %s -> %s", now, u.Name(), u.prev, u.state)
	u.notifyStateChange()
}

func (u *ResourceUnit) notifyStateChange() {
	for _, fn := range u.stateListeners {
		fn(u)
	}
}

// Event actions

func (u *ResourceUnit) endServiceAction(*Event) error {
	h := resourceStates[u.state].complete
	if h == nil {
		return u.illegal("complete")
	}
	return h(u, u.current)
}

func (u *ResourceUnit) endFailureAction(*Event) error {
	h := resourceStates[u.state].endFailure
	if h == nil {
		return u.illegal("endFailure")
	}
	return h(u, u.currentFailure)
}

func (u *ResourceUnit) endInactiveAction(*Event) error {
	h := resourceStates[u.state].activate
	if h == nil {
		return u.illegal("activate")
	}
	return h(u, u.currentInactive)
}

// Work selection

func (u *ResourceUnit) enqueueRequest(r *Request) error {
	if err := u.requestQ.Enqueue(r); err != nil {
		return err
	}
	return r.enterWaiting()
}

func (u *ResourceUnit) enqueueFailure(n *FailureNotice) error {
	if err := n.delay(u.Time()); err != nil {
		return err
	}
	return u.failureQ.Enqueue(n)
}

func (u *ResourceUnit) processNextRequest() error {
	r, ok := u.requestQ.RemoveNext()
	if !ok {
		return fmt.Errorf("%w: %s has no waiting request", ErrInvalidState, u.Name())
	}
	return u.startService(r)
}

func (u *ResourceUnit) processNextFailure() error {
	n, ok := u.failureQ.RemoveNext()
	if !ok {
		return fmt.Errorf("%w: %s has no waiting failure notice", ErrInvalidState, u.Name())
	}
	return u.startFailure(n)
}

func (u *ResourceUnit) processPendingInactive() error {
	n := u.pendingInactive
	u.pendingInactive = nil
	return u.startInactivePeriod(n)
}

func (u *ResourceUnit) processPreemption() error {
	r := u.preempted
	u.preempted = nil
	u.current = r
	u.setState(Busy)
	now := u.Time()
	if err := r.resume(now); err != nil {
		return err
	}
	return u.scheduleEndOfService(r)
}

func (u *ResourceUnit) startService(r *Request) error {
	u.current = r
	u.setState(Busy)
	if err := r.allocate(u.Time()); err != nil {
		return err
	}
	return u.scheduleEndOfService(r)
}

func (u *ResourceUnit) scheduleEndOfService(r *Request) error {
	ev, err := u.ScheduleWith(EventActionFunc(u.endServiceAction), r.timeRemaining, DefaultPriority, r, u.Name()+":EndService")
	if err != nil {
		return err
	}
	u.serviceEvent = ev
	return nil
}

func (u *ResourceUnit) startFailure(n *FailureNotice) error {
	u.currentFailure = n
	if err := n.activate(u.Time()); err != nil {
		return err
	}
	u.setState(Failed)
	ev, err := u.ScheduleWith(EventActionFunc(u.endFailureAction), n.duration, DefaultPriority, n, u.Name()+":EndFailure")
	if err != nil {
		return err
	}
	u.downEvent = ev
	return nil
}

func (u *ResourceUnit) startInactivePeriod(n *InactivePeriodNotice) error {
	u.currentInactive = n
	if err := n.activate(u.Time()); err != nil {
		return err
	}
	u.setState(Inactive)
	return u.scheduleEndOfInactive(n)
}

func (u *ResourceUnit) scheduleEndOfInactive(n *InactivePeriodNotice) error {
	ev, err := u.ScheduleWith(EventActionFunc(u.endInactiveAction), n.duration, DefaultPriority, n, u.Name()+":EndInactive")
	if err != nil {
		return err
	}
	u.inactiveEvent = ev
	return nil
}

// checkAfterRequestCompletion picks the next thing to do once the unit stops serving a request.
// A preempted request cannot exist here.
func (u *ResourceUnit) checkAfterRequestCompletion() error {
	failureWaiting := !u.failureQ.IsEmpty()
	if failureWaiting && u.pendingInactive != nil {
		next, _ := u.failureQ.PeekNext()
		if next.createTime <= u.pendingInactive.createTime {
			return u.processNextFailure()
		}
		return u.processPendingInactive()
	}
	if failureWaiting {
		return u.processNextFailure()
	}
	if u.pendingInactive != nil {
		return u.processPendingInactive()
	}
	if !u.requestQ.IsEmpty() {
		return u.processNextRequest()
	}
	u.setState(Idle)
	return nil
}

// checkAfterFailure gives failures precedence, then delayed inactivity, then the preempted
// request, then waiting requests.
func (u *ResourceUnit) checkAfterFailure() error {
	switch {
	case !u.failureQ.IsEmpty():
		return u.processNextFailure()
	case u.pendingInactive != nil:
		return u.processPendingInactive()
	case u.preempted != nil:
		return u.processPreemption()
	case !u.requestQ.IsEmpty():
		return u.processNextRequest()
	}
	u.setState(Idle)
	return nil
}

func (u *ResourceUnit) checkAfterInactive() error {
	switch {
	case !u.failureQ.IsEmpty():
		return u.processNextFailure()
	case u.preempted != nil:
		return u.processPreemption()
	case !u.requestQ.IsEmpty():
		return u.processNextRequest()
	}
	u.setState(Idle)
	return nil
}

// Busy

func (u *ResourceUnit) releaseWhileBusy(r *Request) error {
	if r != u.current {
		return fmt.Errorf("%w: %s is not in service at %s", ErrInvalidState, r.name, u.Name())
	}
	u.Executive().Cancel(u.serviceEvent)
	return u.completeRequest(r)
}

func (u *ResourceUnit) completeRequest(r *Request) error {
	u.current = nil
	u.serviceEvent = nil
	if err := u.checkAfterRequestCompletion(); err != nil {
		return err
	}
	if err := r.finish(u.Time()); err != nil {
		return err
	}
	u.collectFinal(r)
	return nil
}

func (u *ResourceUnit) cancelWhileBusy(r *Request) error {
	now := u.Time()
	if r != u.current {
		if u.requestQ.Contains(r) {
			u.requestQ.Remove(r, u.opts.RequestQCancelStats)
		}
		if err := r.cancel(now); err != nil {
			return err
		}
		u.collectFinal(r)
		return nil
	}
	u.Executive().Cancel(u.serviceEvent)
	u.serviceEvent = nil
	u.current = nil
	if err := u.checkAfterRequestCompletion(); err != nil {
		return err
	}
	if err := r.cancel(now); err != nil {
		return err
	}
	u.collectFinal(r)
	return nil
}

func (u *ResourceUnit) failWhileBusy(n *FailureNotice) error {
	if !u.current.AllowsPreemption() {
		if !n.delayable {
			return illegalTransition("ResourceUnit "+u.Name(),
				"fail with a non-delayable notice during non-preemptable "+u.current.name, u.state.String())
		}
		return u.enqueueFailure(n)
	}
	if err := u.preemptCurrent(); err != nil {
		return err
	}
	return u.startFailure(n)
}

func (u *ResourceUnit) inactivateWhileBusy(n *InactivePeriodNotice) error {
	if !u.current.AllowsPreemption() {
		if !n.delayable {
			return illegalTransition("ResourceUnit "+u.Name(),
				"inactivate with a non-delayable notice during non-preemptable "+u.current.name, u.state.String())
		}
		return u.replacePending(n)
	}
	if err := u.preemptCurrent(); err != nil {
		return err
	}
	return u.startInactivePeriod(n)
}

func (u *ResourceUnit) preemptCurrent() error {
	r := u.current
	u.Executive().Cancel(u.serviceEvent)
	u.serviceEvent = nil
	u.current = nil
	if err := r.preempt(u.Time()); err != nil {
		return err
	}
	logrus.Debugf("[t=%g] %s preempted %s (%s)", u.Time(), u.Name(), r.name, r.rule)
	if r.rule == PreemptCancel {
		u.collectFinal(r)
		return nil
	}
	u.preempted = r
	return nil
}

// replacePending makes n the delayed inactive period, canceling the one it replaces.
func (u *ResourceUnit) replacePending(n *InactivePeriodNotice) error {
	now := u.Time()
	if u.pendingInactive != nil {
		if err := u.pendingInactive.cancel(now); err != nil {
			return err
		}
	}
	u.pendingInactive = n
	return n.delay(now)
}

// Failed and Inactive

func (u *ResourceUnit) endFailureWhileFailed(n *FailureNotice) error {
	u.currentFailure = nil
	u.downEvent = nil
	if err := n.complete(u.Time()); err != nil {
		return err
	}
	return u.checkAfterFailure()
}

func (u *ResourceUnit) cancelWhileDown(r *Request) error {
	if r == u.preempted {
		u.preempted = nil
	} else if u.requestQ.Contains(r) {
		u.requestQ.Remove(r, u.opts.RequestQCancelStats)
	}
	if err := r.cancel(u.Time()); err != nil {
		return err
	}
	u.collectFinal(r)
	return nil
}

func (u *ResourceUnit) inactivateWhileFailed(n *InactivePeriodNotice) error {
	if n.delayable {
		return u.replacePending(n)
	}
	return n.cancel(u.Time())
}

func (u *ResourceUnit) failWhileInactive(n *FailureNotice) error {
	if n.delayable {
		return u.enqueueFailure(n)
	}
	return n.ignore(u.Time())
}

// inactivateWhileInactive cancels the current period and lets n run in full.
func (u *ResourceUnit) inactivateWhileInactive(n *InactivePeriodNotice) error {
	now := u.Time()
	if err := u.currentInactive.cancel(now); err != nil {
		return err
	}
	u.Executive().Cancel(u.inactiveEvent)
	u.currentInactive = n
	if err := n.activate(now); err != nil {
		return err
	}
	return u.scheduleEndOfInactive(n)
}

func (u *ResourceUnit) activateWhileInactive(n *InactivePeriodNotice) error {
	u.currentInactive = nil
	u.inactiveEvent = nil
	if err := n.complete(u.Time()); err != nil {
		return err
	}
	return u.checkAfterInactive()
}

// collectFinal counts a request that reached a terminal state.
func (u *ResourceUnit) collectFinal(r *Request) {
	now := u.Time()
	switch r.state {
	case RequestFinished:
		u.numCompleted++
	case RequestCanceled:
		u.numCanceled++
	case RequestRejected:
		u.numRejected++
	}
	u.numPreemptions += r.numPreemptions
	if !u.opts.CollectRequestStats {
		return
	}
	switch r.state {
	case RequestFinished:
		u.completedCount.Increment(1)
		u.timeToCompletion.Record(r.TimeUntilCompletion(), now)
	case RequestCanceled:
		u.canceledCount.Increment(1)
	case RequestRejected:
		u.rejectedCount.Increment(1)
	}
	if r.numPreemptions > 0 {
		u.preemptionCount.Increment(float64(r.numPreemptions))
		u.preemptTimeCount.Increment(r.totalPreemptionTime)
	}
}

func (u *ResourceUnit) String() string {
	return fmt.Sprintf("ResourceUnit(%s, state=%s, waiting=%d)", u.Name(), u.state, u.requestQ.Size())
}
