package station

import (
	"fmt"
	"math"

	"github.com/inference-sim/desim/sim"
)

// EventGenerator schedules a recurring action, typically customer arrivals.
type EventGenerator struct {
	*sim.ModelElement
	first     sim.RandomSource
	between   sim.RandomSource
	action    func(g *EventGenerator) error
	maxEvents int
	endTime   float64

	count int
	done  bool
}

// NewEventGenerator creates a generator under parent. The first event happens after a draw
// from first (between if nil), later ones after draws from between. maxEvents of 0 means
// no limit.
func NewEventGenerator(parent *sim.ModelElement, name string, first, between sim.RandomSource, maxEvents int, action func(g *EventGenerator) error) (*EventGenerator, error) {
	if between == nil || action == nil {
		return nil, fmt.Errorf("%w: generator %q needs a time between events and an action", sim.ErrConfiguration, name)
	}
	if maxEvents < 0 {
		return nil, fmt.Errorf("%w: generator %q max events %d", sim.ErrConfiguration, name, maxEvents)
	}
	if first == nil {
		first = between
	}
	g := &EventGenerator{first: first, between: between, action: action, maxEvents: maxEvents, endTime: math.Inf(1)}
	e, err := sim.NewModelElement(parent, name, g)
	if err != nil {
		return nil, err
	}
	g.ModelElement = e
	return g, nil
}

// SetEndTime stops generation at events later than t.
func (g *EventGenerator) SetEndTime(t float64) { g.endTime = t }

// Count returns the number of events generated this replication.
func (g *EventGenerator) Count() int { return g.count }

// Done reports whether generation has stopped for this replication.
func (g *EventGenerator) Done() bool { return g.done }

// TurnOff stops generation for the rest of the replication.
func (g *EventGenerator) TurnOff() { g.done = true }

func (g *EventGenerator) Initialize() error {
	g.count = 0
	g.done = false
	return g.scheduleNext(g.first.Value())
}

func (g *EventGenerator) scheduleNext(delay float64) error {
	if g.Time()+delay > g.endTime {
		g.done = true
		return nil
	}
	_, err := g.Schedule(sim.EventActionFunc(g.generate), delay)
	return err
}

func (g *EventGenerator) generate(*sim.Event) error {
	if g.done {
		return nil
	}
	g.count++
	if err := g.action(g); err != nil {
		return err
	}
	if g.done || (g.maxEvents > 0 && g.count >= g.maxEvents) {
		g.done = true
		return nil
	}
	return g.scheduleNext(g.between.Value())
}
