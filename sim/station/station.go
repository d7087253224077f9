package station

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/desim/sim"
)

// Customer is the entity flowing through a station. Its QObject creation time is the
// arrival time.
type Customer struct {
	sim.QObject
	ServiceStart float64
	Departure    float64
}

// NewCustomer creates customer id arriving at time now.
func NewCustomer(id int64, now float64) *Customer {
	return &Customer{QObject: sim.NewQObject(id, fmt.Sprintf("Customer_%d", id), now)}
}

// ArrivalTime returns the time the customer was created.
func (c *Customer) ArrivalTime() float64 { return c.CreateTime() }

// SystemTime returns the time from arrival to departure.
func (c *Customer) SystemTime() float64 { return c.Departure - c.ArrivalTime() }

// Station serves customers with a single ResourceUnit.
type Station struct {
	*sim.ModelElement
	unit    *sim.ResourceUnit
	service *sim.RandomVariable
	rule    sim.PreemptionRule

	systemTime  *sim.Response
	numInSystem *sim.TimeWeightedResponse
	numServed   *sim.Counter

	exitListeners []func(c *Customer)
}

// NewStation creates a station whose unit serves each customer for a draw from service.
// The unit collects request-queue statistics in addition to what opts asks for.
func NewStation(parent *sim.ModelElement, name string, service sim.RandomSource, rule sim.PreemptionRule, opts sim.ResourceUnitOptions) (*Station, error) {
	s := &Station{rule: rule}
	e, err := sim.NewModelElement(parent, name, s)
	if err != nil {
		return nil, err
	}
	s.ModelElement = e
	name = e.Name()
	if s.service, err = sim.NewRandomVariable(e, name+":ServiceTime", service); err != nil {
		return nil, err
	}
	opts.CollectRequestQStats = true
	if s.unit, err = sim.NewResourceUnit(e, name+":Server", opts); err != nil {
		return nil, err
	}
	if s.systemTime, err = sim.NewResponse(e, name+":SystemTime"); err != nil {
		return nil, err
	}
	if s.numInSystem, err = sim.NewTimeWeightedResponse(e, name+":NumInSystem", 0); err != nil {
		return nil, err
	}
	if s.numServed, err = sim.NewCounter(e, name+":NumServed"); err != nil {
		return nil, err
	}
	return s, nil
}

// Unit returns the station's server.
func (s *Station) Unit() *sim.ResourceUnit { return s.unit }

// ServiceTime returns the service-time random variable.
func (s *Station) ServiceTime() *sim.RandomVariable { return s.service }

// SystemTime returns the system-time response.
func (s *Station) SystemTime() *sim.Response { return s.systemTime }

// NumInSystem returns the number-in-system response.
func (s *Station) NumInSystem() *sim.TimeWeightedResponse { return s.numInSystem }

// NumServed returns the served-customers counter.
func (s *Station) NumServed() *sim.Counter { return s.numServed }

// OnExit registers fn to run for every customer leaving after service.
func (s *Station) OnExit(fn func(c *Customer)) { s.exitListeners = append(s.exitListeners, fn) }

// Receive lets c join the station.
func (s *Station) Receive(c *Customer) error {
	s.numInSystem.Increment(1)
	_, err := s.unit.SeizeWith(sim.RequestSpec{
		Duration: s.service,
		Rule:     s.rule,
		Entity:   c,
		Reactor: sim.RequestReactor{
			Allocated: s.allocated,
			Completed: s.completed,
			Canceled:  s.left,
			Rejected:  s.left,
		},
	})
	return err
}

func (s *Station) allocated(r *sim.Request) {
	r.Entity().(*Customer).ServiceStart = s.Time()
}

func (s *Station) completed(r *sim.Request) {
	now := s.Time()
	c := r.Entity().(*Customer)
	c.Departure = now
	s.systemTime.Record(c.SystemTime(), now)
	s.numServed.Increment(1)
	s.numInSystem.Increment(-1)
	logrus.Tracef("[t=%g] customer %d departs %s after %g", now, c.ID(), s.Name(), c.SystemTime())
	for _, fn := range s.exitListeners {
		fn(c)
	}
}

func (s *Station) left(r *sim.Request) {
	c := r.Entity().(*Customer)
	s.numInSystem.Increment(-1)
	logrus.Debugf("[t=%g] customer %d left %s: %s", s.Time(), c.ID(), s.Name(), r.State())
}
