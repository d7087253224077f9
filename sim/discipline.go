package sim

import (
	"fmt"
	"sort"
)

// Discipline decides where an item is inserted into a queue and which item leaves next.
// The queue's physical order always matches its discipline, so every implementation selects
// from a position the insertion rule keeps meaningful.
type Discipline interface {
	Name() string
	// InsertionIndex returns the index at which item is inserted into list.
	InsertionIndex(list []*QObject, item *QObject) int
	// SelectionIndex returns the index of the next item to leave a non-empty list.
	SelectionIndex(list []*QObject) int
}

// FIFO serves items in arrival order.
type FIFO struct{}

func (FIFO) Name() string                                   { return "fifo" }
func (FIFO) InsertionIndex(list []*QObject, _ *QObject) int { return len(list) }
func (FIFO) SelectionIndex(_ []*QObject) int                { return 0 }

// LIFO serves the most recent arrival first.
type LIFO struct{}

func (LIFO) Name() string                                   { return "lifo" }
func (LIFO) InsertionIndex(list []*QObject, _ *QObject) int { return len(list) }
func (LIFO) SelectionIndex(list []*QObject) int             { return len(list) - 1 }

// Priority serves the lowest priority value first, FIFO among equal priorities.
// A queued item never displaces the item currently in service.
type Priority struct{}

func (Priority) Name() string { return "priority" }

func (Priority) InsertionIndex(list []*QObject, item *QObject) int {
	return sort.Search(len(list), func(i int) bool {
		return list[i].priority > item.priority
	})
}

func (Priority) SelectionIndex(_ []*QObject) int { return 0 }

// Ranked orders items with Compare (negative when a ranks ahead of b), FIFO among ties.
type Ranked struct {
	Label   string
	Compare func(a, b *QObject) int
}

// RankedByValue ranks items by ascending Value.
func RankedByValue() Ranked {
	return Ranked{
		Label: "ranked-value",
		Compare: func(a, b *QObject) int {
			switch {
			case a.value < b.value:
				return -1
			case a.value > b.value:
				return 1
			}
			return 0
		},
	}
}

func (r Ranked) Name() string {
	if r.Label != "" {
		return r.Label
	}
	return "ranked"
}

func (r Ranked) InsertionIndex(list []*QObject, item *QObject) int {
	return sort.Search(len(list), func(i int) bool {
		return r.Compare(list[i], item) > 0
	})
}

func (Ranked) SelectionIndex(_ []*QObject) int { return 0 }

// IsValidDiscipline reports whether name is accepted by NewDiscipline.
func IsValidDiscipline(name string) bool {
	switch name {
	case "", "fifo", "lifo", "priority", "ranked-value":
		return true
	}
	return false
}

// NewDiscipline creates a discipline by name.
// Valid names: "fifo" (default), "lifo", "priority", "ranked-value".
// Empty string defaults to FIFO. Panics on unrecognized names.
func NewDiscipline(name string) Discipline {
	if !IsValidDiscipline(name) {
		panic(fmt.Sprintf("unknown queue discipline %q", name))
	}
	switch name {
	case "", "fifo":
		return FIFO{}
	case "lifo":
		return LIFO{}
	case "priority":
		return Priority{}
	case "ranked-value":
		return RankedByValue()
	default:
		panic(fmt.Sprintf("unhandled queue discipline %q", name))
	}
}
