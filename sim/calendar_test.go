package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calendars() map[string]func() Calendar {
	return map[string]func() Calendar{
		"heap": func() Calendar { return NewHeapCalendar() },
		"list": func() Calendar { return NewListCalendar() },
	}
}

func testEvent(id uint64, t float64, priority int) *Event {
	return &Event{id: id, time: t, priority: priority, name: "e", index: -1}
}

func TestCalendar_RemoveNext_OrdersByTimePriorityID(t *testing.T) {
	for name, newCal := range calendars() {
		t.Run(name, func(t *testing.T) {
			// GIVEN events added out of order, including ties on time and priority
			cal := newCal()
			events := []*Event{
				testEvent(1, 5, DefaultPriority),
				testEvent(2, 1, DefaultPriority),
				testEvent(3, 5, WarmUpPriority),
				testEvent(4, 5, DefaultPriority),
				testEvent(5, 0, EndReplicationPriority),
			}
			for _, ev := range events {
				require.NoError(t, cal.Add(ev))
			}

			// WHEN they are removed one by one
			var got []uint64
			for ev := cal.RemoveNext(); ev != nil; ev = cal.RemoveNext() {
				got = append(got, ev.id)
				assert.False(t, ev.Scheduled())
			}

			// THEN they come out by time, then priority, then id
			assert.Equal(t, []uint64{5, 2, 3, 1, 4}, got)
			assert.Equal(t, 0, cal.Len())
		})
	}
}

func TestCalendar_Add_BeforeLastRemoved_ReturnsErrCausality(t *testing.T) {
	for name, newCal := range calendars() {
		t.Run(name, func(t *testing.T) {
			// GIVEN a calendar whose last removed event was at t=5
			cal := newCal()
			require.NoError(t, cal.Add(testEvent(1, 5, DefaultPriority)))
			cal.RemoveNext()

			// WHEN an event at t=3 is added
			err := cal.Add(testEvent(2, 3, DefaultPriority))

			// THEN it is refused
			assert.ErrorIs(t, err, ErrCausality)
			assert.NoError(t, cal.Add(testEvent(3, 5, DefaultPriority)), "same time is allowed")
		})
	}
}

func TestCalendar_Remove_DeletesArbitraryEvent(t *testing.T) {
	for name, newCal := range calendars() {
		t.Run(name, func(t *testing.T) {
			cal := newCal()
			a, b, c := testEvent(1, 1, 0), testEvent(2, 2, 0), testEvent(3, 3, 0)
			for _, ev := range []*Event{a, b, c} {
				require.NoError(t, cal.Add(ev))
			}

			assert.True(t, cal.Remove(b))
			assert.False(t, cal.Remove(b), "second removal")
			assert.Equal(t, a, cal.Peek())
			assert.Equal(t, a, cal.RemoveNext())
			assert.Equal(t, c, cal.RemoveNext())
			assert.Nil(t, cal.RemoveNext())
		})
	}
}

func TestCalendar_Clear_ResetsCausalityWatermark(t *testing.T) {
	for name, newCal := range calendars() {
		t.Run(name, func(t *testing.T) {
			cal := newCal()
			ev := testEvent(1, 10, 0)
			require.NoError(t, cal.Add(ev))
			require.NoError(t, cal.Add(testEvent(2, 20, 0)))
			cal.RemoveNext()

			cal.Clear()

			assert.Equal(t, 0, cal.Len())
			assert.NoError(t, cal.Add(testEvent(3, 1, 0)))
		})
	}
}
