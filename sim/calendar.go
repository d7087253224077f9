package sim

import (
	"container/heap"
	"fmt"
	"math"
	"sort"
)

// Calendar holds pending events ordered by (time, priority, id).
// Implementations are not safe for concurrent use.
type Calendar interface {
	// Add inserts ev. It fails with ErrCausality when ev is earlier than the last removed event.
	Add(ev *Event) error
	// Peek returns the next event without removing it, or nil when empty.
	Peek() *Event
	// RemoveNext removes and returns the next event, or nil when empty.
	RemoveNext() *Event
	// Remove deletes ev if present and reports whether it was.
	Remove(ev *Event) bool
	// Clear drops all pending events.
	Clear()
	Len() int
}

// watermark tracks the time of the last removed event for causality checks.
type watermark float64

func (w watermark) check(ev *Event) error {
	if math.IsNaN(ev.time) || ev.time < float64(w) {
		return fmt.Errorf("%w: event %q at time %g is before calendar time %g",
			ErrCausality, ev.name, ev.time, float64(w))
	}
	return nil
}

// HeapCalendar is a binary-heap calendar with O(log n) insertion, removal and arbitrary deletion.
// Ordering: timestamp → priority → event ID.
type HeapCalendar struct {
	events []*Event
	last   watermark
}

// NewHeapCalendar creates an empty heap calendar.
func NewHeapCalendar() *HeapCalendar {
	h := &HeapCalendar{events: make([]*Event, 0)}
	heap.Init((*eventHeap)(h))
	return h
}

// eventHeap implements heap.Interface over the calendar's storage.
type eventHeap HeapCalendar

func (h *eventHeap) Len() int           { return len(h.events) }
func (h *eventHeap) Less(i, j int) bool { return h.events[i].before(h.events[j]) }
func (h *eventHeap) Swap(i, j int) {
	h.events[i], h.events[j] = h.events[j], h.events[i]
	h.events[i].index = i
	h.events[j].index = j
}

func (h *eventHeap) Push(x any) {
	ev := x.(*Event)
	ev.index = len(h.events)
	h.events = append(h.events, ev)
}

func (h *eventHeap) Pop() any {
	old := h.events
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	h.events = old[0 : n-1]
	ev.index = -1
	return ev
}

// Add implements Calendar.
func (h *HeapCalendar) Add(ev *Event) error {
	if err := h.last.check(ev); err != nil {
		return err
	}
	heap.Push((*eventHeap)(h), ev)
	ev.scheduled = true
	return nil
}

// Peek implements Calendar.
func (h *HeapCalendar) Peek() *Event {
	if len(h.events) == 0 {
		return nil
	}
	return h.events[0]
}

// RemoveNext implements Calendar.
func (h *HeapCalendar) RemoveNext() *Event {
	if len(h.events) == 0 {
		return nil
	}
	ev := heap.Pop((*eventHeap)(h)).(*Event)
	ev.scheduled = false
	h.last = watermark(ev.time)
	return ev
}

// Remove implements Calendar.
func (h *HeapCalendar) Remove(ev *Event) bool {
	if ev == nil || !ev.scheduled || ev.index < 0 || ev.index >= len(h.events) || h.events[ev.index] != ev {
		return false
	}
	heap.Remove((*eventHeap)(h), ev.index)
	ev.scheduled = false
	return true
}

// Clear implements Calendar.
func (h *HeapCalendar) Clear() {
	for _, ev := range h.events {
		ev.scheduled = false
		ev.index = -1
	}
	h.events = make([]*Event, 0)
	h.last = 0
}

// Len implements Calendar.
func (h *HeapCalendar) Len() int {
	return len(h.events)
}

// ListCalendar keeps events in a sorted slice. Insertion is O(n) but removal of the next
// event is O(1) amortized; it is mostly useful for small models and for cross-checking
// HeapCalendar ordering.
type ListCalendar struct {
	events []*Event
	last   watermark
}

// NewListCalendar creates an empty sorted-list calendar.
func NewListCalendar() *ListCalendar {
	return &ListCalendar{events: make([]*Event, 0)}
}

// Add implements Calendar.
func (l *ListCalendar) Add(ev *Event) error {
	if err := l.last.check(ev); err != nil {
		return err
	}
	i := sort.Search(len(l.events), func(i int) bool { return ev.before(l.events[i]) })
	l.events = append(l.events, nil)
	copy(l.events[i+1:], l.events[i:])
	l.events[i] = ev
	ev.scheduled = true
	return nil
}

// Peek implements Calendar.
func (l *ListCalendar) Peek() *Event {
	if len(l.events) == 0 {
		return nil
	}
	return l.events[0]
}

// RemoveNext implements Calendar.
func (l *ListCalendar) RemoveNext() *Event {
	if len(l.events) == 0 {
		return nil
	}
	ev := l.events[0]
	l.events[0] = nil
	l.events = l.events[1:]
	ev.scheduled = false
	l.last = watermark(ev.time)
	return ev
}

// Remove implements Calendar.
func (l *ListCalendar) Remove(ev *Event) bool {
	if ev == nil || !ev.scheduled {
		return false
	}
	for i, e := range l.events {
		if e == ev {
			l.events = append(l.events[:i], l.events[i+1:]...)
			ev.scheduled = false
			return true
		}
	}
	return false
}

// Clear implements Calendar.
func (l *ListCalendar) Clear() {
	for _, ev := range l.events {
		ev.scheduled = false
	}
	l.events = make([]*Event, 0)
	l.last = 0
}

// Len implements Calendar.
func (l *ListCalendar) Len() int {
	return len(l.events)
}
