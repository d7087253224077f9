package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// ExecutiveState is the lifecycle state of an Executive.
type ExecutiveState int

const (
	ExecutiveCreated ExecutiveState = iota
	ExecutiveInitialized
	ExecutiveRunning
	ExecutiveStepCompleted
	ExecutiveEnded
)

var executiveStateNames = [...]string{"Created", "Initialized", "Running", "StepCompleted", "Ended"}

func (s ExecutiveState) String() string {
	if int(s) < len(executiveStateNames) {
		return executiveStateNames[s]
	}
	return fmt.Sprintf("ExecutiveState(%d)", int(s))
}

// EndCondition records why event execution stopped.
type EndCondition int

const (
	NotEnded EndCondition = iota
	NoMoreEvents
	StoppedByCall
	EndEventReached
	ExecutionTimeExceeded
	Aborted // a handler returned an error or the context was canceled
)

var endConditionNames = [...]string{"NotEnded", "NoMoreEvents", "StoppedByCall", "EndEventReached",
	"ExecutionTimeExceeded", "Aborted"}

func (c EndCondition) String() string {
	if int(c) < len(endConditionNames) {
		return endConditionNames[c]
	}
	return fmt.Sprintf("EndCondition(%d)", int(c))
}

// DefaultTimeCheckInterval is the number of executed events between wall-clock budget checks.
const DefaultTimeCheckInterval = 256

// Executive owns the simulation clock and executes calendar events in time order.
// It is single-threaded: handlers run to completion and events they schedule never run
// before the handler returns.
type Executive struct {
	calendar Calendar
	clock    float64
	state    ExecutiveState

	endCondition EndCondition
	stopFlag     bool
	stopMessage  string
	endEvent     *Event

	// Per-executive event counter for deterministic tie-breaking; reset by Initialize
	// so that replications produce identical id sequences.
	nextEventID  uint64
	numExecuted  int64
	numScheduled int64

	maxExecutionTime  time.Duration
	timeCheckInterval int
	wallClock         func() time.Time
	beginWall         time.Time
	endWall           time.Time

	listeners []func(ev *Event)
}

// NewExecutive creates an executive over cal. A nil calendar selects a HeapCalendar.
func NewExecutive(cal Calendar) *Executive {
	if cal == nil {
		cal = NewHeapCalendar()
	}
	return &Executive{
		calendar:          cal,
		state:             ExecutiveCreated,
		timeCheckInterval: DefaultTimeCheckInterval,
		wallClock:         time.Now,
	}
}

// Time returns the current simulation time.
func (ex *Executive) Time() float64 { return ex.clock }

// State returns the executive's lifecycle state.
func (ex *Executive) State() ExecutiveState { return ex.state }

// EndCondition returns why the last execution stopped.
func (ex *Executive) EndCondition() EndCondition { return ex.endCondition }

// StopMessage returns the message passed to Stop, if any.
func (ex *Executive) StopMessage() string { return ex.stopMessage }

// IsExecutionTimeExceeded reports whether the last run ended on its wall-clock budget.
func (ex *Executive) IsExecutionTimeExceeded() bool {
	return ex.endCondition == ExecutionTimeExceeded
}

// NumEventsExecuted returns the number of events executed since Initialize.
func (ex *Executive) NumEventsExecuted() int64 { return ex.numExecuted }

// NumEventsScheduled returns the number of events scheduled since Initialize.
func (ex *Executive) NumEventsScheduled() int64 { return ex.numScheduled }

// NumPendingEvents returns the calendar size, canceled events included.
func (ex *Executive) NumPendingEvents() int { return ex.calendar.Len() }

// ElapsedExecutionTime returns the wall-clock time spent in the last execution.
func (ex *Executive) ElapsedExecutionTime() time.Duration {
	if ex.beginWall.IsZero() {
		return 0
	}
	if ex.state == ExecutiveEnded {
		return ex.endWall.Sub(ex.beginWall)
	}
	return ex.wallClock().Sub(ex.beginWall)
}

// SetMaxExecutionTime sets the wall-clock budget per execution. Zero disables the budget.
func (ex *Executive) SetMaxExecutionTime(d time.Duration) {
	if d < 0 {
		d = 0
	}
	ex.maxExecutionTime = d
}

// MaxExecutionTime returns the wall-clock budget; zero means unlimited.
func (ex *Executive) MaxExecutionTime() time.Duration { return ex.maxExecutionTime }

// SetTimeCheckInterval sets how many events execute between budget and context checks.
func (ex *Executive) SetTimeCheckInterval(n int) {
	if n < 1 {
		n = 1
	}
	ex.timeCheckInterval = n
}

// AddEventListener registers fn to be called after every executed event.
func (ex *Executive) AddEventListener(fn func(ev *Event)) {
	if fn == nil {
		panic("AddEventListener: fn must not be nil")
	}
	ex.listeners = append(ex.listeners, fn)
}

// Initialize clears the calendar, resets the clock to zero and readies the executive
// for a new execution.
func (ex *Executive) Initialize() error {
	if ex.state == ExecutiveRunning {
		return fmt.Errorf("%w: cannot initialize a running executive", ErrInvalidState)
	}
	ex.calendar.Clear()
	ex.clock = 0
	ex.nextEventID = 0
	ex.numExecuted = 0
	ex.numScheduled = 0
	ex.endCondition = NotEnded
	ex.stopFlag = false
	ex.stopMessage = ""
	ex.endEvent = nil
	ex.beginWall = time.Time{}
	ex.endWall = time.Time{}
	ex.state = ExecutiveInitialized
	return nil
}

// Schedule schedules action after delay with the default priority.
// See ScheduleWith for the returned values.
func (ex *Executive) Schedule(action EventAction, delay float64) (*Event, error) {
	return ex.ScheduleWith(action, delay, DefaultPriority, nil, "")
}

// ScheduleWith schedules action to execute delay time units from now.
// An infinite delay returns (nil, nil): such an event would never execute, so it is not inserted.
// Negative or NaN delays fail with ErrCausality.
func (ex *Executive) ScheduleWith(action EventAction, delay float64, priority int, message any, name string) (*Event, error) {
	if action == nil {
		return nil, fmt.Errorf("%w: nil event action", ErrConfiguration)
	}
	if ex.state == ExecutiveCreated || ex.state == ExecutiveEnded {
		return nil, fmt.Errorf("%w: cannot schedule %q while executive is %s", ErrInvalidState, name, ex.state)
	}
	if math.IsNaN(delay) || delay < 0 {
		return nil, fmt.Errorf("%w: event %q scheduled with delay %g at time %g", ErrCausality, name, delay, ex.clock)
	}
	if math.IsInf(delay, 1) {
		return nil, nil
	}
	ex.nextEventID++
	ev := &Event{
		id:         ex.nextEventID,
		time:       ex.clock + delay,
		priority:   priority,
		createTime: ex.clock,
		name:       name,
		action:     action,
		message:    message,
		index:      -1,
	}
	if err := ex.calendar.Add(ev); err != nil {
		return nil, err
	}
	ex.numScheduled++
	return ev, nil
}

// Reschedule puts an already executed (or canceled) event back on the calendar, delay time
// units from now, keeping its action, priority, message and name. It returns ErrInvalidState
// if the event is still pending. Like ScheduleWith it never inserts an infinite delay: the
// event is left canceled and Reschedule returns false.
func (ex *Executive) Reschedule(ev *Event, delay float64) (bool, error) {
	if ev == nil {
		return false, fmt.Errorf("%w: nil event", ErrConfiguration)
	}
	if ev.scheduled && !ev.canceled {
		return false, fmt.Errorf("%w: event %q is still scheduled", ErrInvalidState, ev.name)
	}
	if math.IsNaN(delay) || delay < 0 {
		return false, fmt.Errorf("%w: event %q rescheduled with delay %g at time %g", ErrCausality, ev.name, delay, ex.clock)
	}
	if ev.scheduled {
		ex.calendar.Remove(ev)
	}
	if math.IsInf(delay, 1) {
		ev.canceled = true
		return false, nil
	}
	ex.nextEventID++
	ev.id = ex.nextEventID
	ev.time = ex.clock + delay
	ev.createTime = ex.clock
	ev.canceled = false
	if err := ex.calendar.Add(ev); err != nil {
		return false, err
	}
	ex.numScheduled++
	return true, nil
}

// Cancel prevents a pending event from executing. Canceled events stay on the calendar
// and are discarded when they reach the front. Canceling does not undo past state changes.
func (ex *Executive) Cancel(ev *Event) {
	if ev != nil {
		ev.canceled = true
	}
}

// ScheduleEnd schedules the end of the execution at absolute time t. Events at t with a
// priority lower than EndReplicationPriority still execute.
func (ex *Executive) ScheduleEnd(t float64) (*Event, error) {
	if ex.endEvent != nil && ex.endEvent.scheduled {
		ex.Cancel(ex.endEvent)
	}
	ev, err := ex.ScheduleWith(EventActionFunc(ex.endAction), t-ex.clock, EndReplicationPriority, nil, "EndReplication")
	if err != nil {
		return nil, err
	}
	ex.endEvent = ev
	return ev, nil
}

func (ex *Executive) endAction(ev *Event) error {
	ex.endCondition = EndEventReached
	ex.stopFlag = true
	logrus.Debugf("[t=%g] end event reached", ev.time)
	return nil
}

// Stop requests that execution end after the current event returns.
func (ex *Executive) Stop(msg string) {
	if ex.endCondition == NotEnded {
		ex.endCondition = StoppedByCall
	}
	ex.stopFlag = true
	ex.stopMessage = msg
}

// ExecuteAllEvents runs events until the calendar empties, Stop is called, the end event
// executes, the wall-clock budget is exceeded, or ctx is done. Handler errors are returned
// wrapped with the event's time and name, and leave the executive Ended with Aborted.
func (ex *Executive) ExecuteAllEvents(ctx context.Context) error {
	if err := ex.begin(); err != nil {
		return err
	}
	for {
		if ex.stopFlag {
			break
		}
		ev := ex.nextLiveEvent()
		if ev == nil {
			ex.endCondition = NoMoreEvents
			break
		}
		if err := ex.execute(ev); err != nil {
			ex.end(Aborted)
			return err
		}
		if ex.numExecuted%int64(ex.timeCheckInterval) == 0 {
			if err := ctx.Err(); err != nil {
				ex.end(Aborted)
				return err
			}
			if ex.budgetExceeded() {
				ex.endCondition = ExecutionTimeExceeded
				logrus.Warnf("[t=%g] execution time budget %v exceeded after %d events",
					ex.clock, ex.maxExecutionTime, ex.numExecuted)
				break
			}
		}
	}
	ex.end(ex.endCondition)
	return nil
}

// ExecuteNext executes a single event. It returns false once execution has ended.
func (ex *Executive) ExecuteNext() (bool, error) {
	if ex.state == ExecutiveInitialized {
		if err := ex.begin(); err != nil {
			return false, err
		}
	} else if ex.state == ExecutiveStepCompleted {
		ex.state = ExecutiveRunning
	} else {
		return false, fmt.Errorf("%w: cannot step executive in state %s", ErrInvalidState, ex.state)
	}
	if ex.stopFlag {
		ex.end(ex.endCondition)
		return false, nil
	}
	ev := ex.nextLiveEvent()
	if ev == nil {
		ex.end(NoMoreEvents)
		return false, nil
	}
	if err := ex.execute(ev); err != nil {
		ex.end(Aborted)
		return false, err
	}
	if ex.stopFlag {
		ex.end(ex.endCondition)
		return false, nil
	}
	ex.state = ExecutiveStepCompleted
	return true, nil
}

func (ex *Executive) begin() error {
	if ex.state != ExecutiveInitialized {
		return fmt.Errorf("%w: executive must be initialized before execution, state is %s", ErrInvalidState, ex.state)
	}
	ex.state = ExecutiveRunning
	ex.beginWall = ex.wallClock()
	return nil
}

func (ex *Executive) nextLiveEvent() *Event {
	for {
		ev := ex.calendar.RemoveNext()
		if ev == nil || !ev.canceled {
			return ev
		}
		logrus.Tracef("[t=%g] discarding canceled %s", ev.time, ev.name)
	}
}

func (ex *Executive) execute(ev *Event) error {
	if ev.time < ex.clock {
		// The calendar's causality check makes this unreachable.
		panic(fmt.Sprintf("Clock went backwards: %g < %g", ev.time, ex.clock))
	}
	ex.clock = ev.time
	logrus.Tracef("[t=%g] executing %s (id=%d, priority=%d)", ex.clock, ev.name, ev.id, ev.priority)
	if err := ev.action.Action(ev); err != nil {
		return fmt.Errorf("event %q at time %g: %w", ev.name, ev.time, err)
	}
	ex.numExecuted++
	for _, fn := range ex.listeners {
		fn(ev)
	}
	return nil
}

func (ex *Executive) budgetExceeded() bool {
	if ex.maxExecutionTime <= 0 {
		return false
	}
	return ex.wallClock().Sub(ex.beginWall) > ex.maxExecutionTime
}

func (ex *Executive) end(cond EndCondition) {
	ex.endCondition = cond
	ex.state = ExecutiveEnded
	ex.endWall = ex.wallClock()
	if n := ex.calendar.Len(); n > 0 {
		logrus.Debugf("[t=%g] clearing %d pending events", ex.clock, n)
	}
	ex.calendar.Clear()
	logrus.Debugf("[t=%g] execution ended: %s after %d events", ex.clock, cond, ex.numExecuted)
}
