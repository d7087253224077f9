package sim

import "fmt"

// Event priorities. Among events scheduled for the same time, lower values execute first.
const (
	DefaultPriority        = 10
	WarmUpPriority         = 9
	EndReplicationPriority = 10000
)

// EventAction is the handler invoked when an event executes.
// A non-nil error halts the replication and is returned by Executive.ExecuteAllEvents.
type EventAction interface {
	Action(ev *Event) error
}

// EventActionFunc adapts a plain function to EventAction.
type EventActionFunc func(ev *Event) error

// Action calls f(ev).
func (f EventActionFunc) Action(ev *Event) error {
	return f(ev)
}

// Event is a scheduled state change bound to a simulation time.
// Events are created by Executive.Schedule and owned by the calendar until they execute
// or are canceled.
type Event struct {
	id         uint64 // per-executive sequence number, breaks (time, priority) ties
	time       float64
	priority   int
	createTime float64
	name       string
	action     EventAction
	message    any

	canceled  bool
	scheduled bool // currently held by a calendar
	index     int  // heap position; maintained by HeapCalendar
}

// ID returns the event's sequence number.
func (e *Event) ID() uint64 { return e.id }

// Time returns the simulation time at which the event executes.
func (e *Event) Time() float64 { return e.time }

// Priority returns the tie-breaking priority.
func (e *Event) Priority() int { return e.priority }

// CreateTime returns the simulation time at which the event was scheduled.
func (e *Event) CreateTime() float64 { return e.createTime }

// Name returns the event's label, used in traces and error messages.
func (e *Event) Name() string { return e.name }

// Message returns the payload attached when the event was scheduled, if any.
func (e *Event) Message() any { return e.message }

// Canceled reports whether the event was canceled.
func (e *Event) Canceled() bool { return e.canceled }

// Scheduled reports whether the event is still pending in a calendar.
func (e *Event) Scheduled() bool { return e.scheduled }

// before reports whether e precedes o in calendar order: (time, priority, id).
func (e *Event) before(o *Event) bool {
	if e.time != o.time {
		return e.time < o.time
	}
	if e.priority != o.priority {
		return e.priority < o.priority
	}
	return e.id < o.id
}

func (e *Event) String() string {
	return fmt.Sprintf("Event(id=%d, name=%s, time=%g, priority=%d, canceled=%t)",
		e.id, e.name, e.time, e.priority, e.canceled)
}
