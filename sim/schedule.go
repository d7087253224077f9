package sim

import (
	"fmt"
	"math"
	"sort"
)

// SchedulePriority is the priority of schedule events, ahead of default-priority events at
// the same time.
const SchedulePriority = DefaultPriority - 1

// ScheduleItem is a period within a schedule cycle, starting Start after the cycle begins.
type ScheduleItem struct {
	Name     string
	Start    float64
	Duration float64
}

// Schedule is a cyclic list of periods. Each period start sends an inactive-period notice of
// the period's duration to every attached unit.
type Schedule struct {
	*ModelElement
	startTime float64
	length    float64
	items     []ScheduleItem
	units     []*ResourceUnit

	autoStart      bool
	numCycles      int
	itemListeners  []func(item ScheduleItem)
	cycleListeners []func(cycle int)
}

// NewSchedule creates a schedule whose first cycle begins startTime after the replication
// starts and whose cycles repeat every length. An infinite length runs a single cycle.
func NewSchedule(parent *ModelElement, name string, startTime, length float64) (*Schedule, error) {
	if math.IsNaN(startTime) || startTime < 0 || math.IsInf(startTime, 0) {
		return nil, fmt.Errorf("%w: schedule %q start time %g", ErrConfiguration, name, startTime)
	}
	if math.IsNaN(length) || length <= 0 {
		return nil, fmt.Errorf("%w: schedule %q length %g must be positive", ErrConfiguration, name, length)
	}
	s := &Schedule{startTime: startTime, length: length, autoStart: true}
	e, err := NewModelElement(parent, name, s)
	if err != nil {
		return nil, err
	}
	s.ModelElement = e
	return s, nil
}

// AddItem adds a period. It must start within the cycle.
func (s *Schedule) AddItem(name string, start, duration float64) error {
	if math.IsNaN(start) || start < 0 || start >= s.length {
		return fmt.Errorf("%w: item %q of schedule %s starts at %g, outside [0, %g)", ErrConfiguration, name, s.Name(), start, s.length)
	}
	if math.IsNaN(duration) || duration <= 0 {
		return fmt.Errorf("%w: item %q of schedule %s has duration %g", ErrConfiguration, name, s.Name(), duration)
	}
	if s.Model().Locked() {
		return fmt.Errorf("%w: cannot add items to %s during an experiment", ErrInvalidState, s.Name())
	}
	if name == "" {
		name = fmt.Sprintf("%s:Item_%d", s.Name(), len(s.items)+1)
	}
	s.items = append(s.items, ScheduleItem{Name: name, Start: start, Duration: duration})
	sort.SliceStable(s.items, func(i, j int) bool { return s.items[i].Start < s.items[j].Start })
	return nil
}

// Items returns the periods ordered by start.
func (s *Schedule) Items() []ScheduleItem { return append([]ScheduleItem(nil), s.items...) }

// Length returns the cycle length.
func (s *Schedule) Length() float64 { return s.length }

// NumCycles returns the number of cycles started this replication.
func (s *Schedule) NumCycles() int { return s.numCycles }

// SetAutoStart controls whether the schedule starts by itself at each replication.
func (s *Schedule) SetAutoStart(on bool) { s.autoStart = on }

// OnItemStart registers fn to run at every period start.
func (s *Schedule) OnItemStart(fn func(item ScheduleItem)) {
	s.itemListeners = append(s.itemListeners, fn)
}

// OnCycleStart registers fn to run at every cycle start.
func (s *Schedule) OnCycleStart(fn func(cycle int)) {
	s.cycleListeners = append(s.cycleListeners, fn)
}

func (s *Schedule) attach(u *ResourceUnit) { s.units = append(s.units, u) }

// Start schedules the first cycle startTime from now.
func (s *Schedule) Start() error {
	_, err := s.ScheduleWith(EventActionFunc(s.cycleAction), s.startTime, SchedulePriority, nil, s.Name()+":Cycle")
	return err
}

func (s *Schedule) Initialize() error {
	s.numCycles = 0
	if s.autoStart && len(s.items) > 0 {
		return s.Start()
	}
	return nil
}

func (s *Schedule) cycleAction(*Event) error {
	s.numCycles++
	for _, fn := range s.cycleListeners {
		fn(s.numCycles)
	}
	for _, item := range s.items {
		if _, err := s.ScheduleWith(EventActionFunc(s.itemAction), item.Start, SchedulePriority, item, item.Name); err != nil {
			return err
		}
	}
	if math.IsInf(s.length, 1) {
		return nil
	}
	_, err := s.ScheduleWith(EventActionFunc(s.cycleAction), s.length, SchedulePriority, nil, s.Name()+":Cycle")
	return err
}

func (s *Schedule) itemAction(ev *Event) error {
	item := ev.Message().(ScheduleItem)
	for _, fn := range s.itemListeners {
		fn(item)
	}
	for _, u := range s.units {
		n := u.newInactiveNotice(item.Duration, u.opts.InactivePeriodDelay)
		if err := u.receiveInactivePeriod(n); err != nil {
			return err
		}
	}
	return nil
}
