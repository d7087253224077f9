package station

import (
	"fmt"
	"math"

	"github.com/inference-sim/desim/sim"
	"github.com/inference-sim/desim/sim/random"
)

// Config describes a single-queue station model.
type Config struct {
	Name string `yaml:"name" json:"name"`

	Arrivals     random.Spec  `yaml:"arrivals" json:"arrivals"`
	FirstArrival *random.Spec `yaml:"first_arrival,omitempty" json:"first_arrival,omitempty"`
	// MaxArrivals stops the arrival process after that many customers; 0 means no limit.
	MaxArrivals int         `yaml:"max_arrivals" json:"max_arrivals"`
	Service     random.Spec `yaml:"service" json:"service"`

	Discipline          string `yaml:"discipline" json:"discipline"`
	PreemptionRule      string `yaml:"preemption_rule" json:"preemption_rule"`
	FailureDelay        bool   `yaml:"failure_delay" json:"failure_delay"`
	InactivePeriodDelay bool   `yaml:"inactive_period_delay" json:"inactive_period_delay"`
	CollectStateStats   bool   `yaml:"collect_state_stats" json:"collect_state_stats"`
	CollectRequestStats bool   `yaml:"collect_request_stats" json:"collect_request_stats"`

	Failure  *FailureConfig  `yaml:"failure,omitempty" json:"failure,omitempty"`
	Schedule *ScheduleConfig `yaml:"schedule,omitempty" json:"schedule,omitempty"`
}

// FailureConfig attaches a time-based failure process to the server.
type FailureConfig struct {
	TimeToFailure      random.Spec `yaml:"time_to_failure" json:"time_to_failure"`
	RepairTime         random.Spec `yaml:"repair_time" json:"repair_time"`
	AccrueOnlyWhenBusy bool        `yaml:"accrue_only_when_busy" json:"accrue_only_when_busy"`
}

// ScheduleConfig makes the server follow a cyclic schedule of inactive periods.
type ScheduleConfig struct {
	StartTime float64      `yaml:"start_time" json:"start_time"`
	Length    float64      `yaml:"length" json:"length"`
	Items     []ItemConfig `yaml:"items" json:"items"`
}

// ItemConfig is one inactive period of a schedule cycle.
type ItemConfig struct {
	Name     string  `yaml:"name" json:"name"`
	Start    float64 `yaml:"start" json:"start"`
	Duration float64 `yaml:"duration" json:"duration"`
}

// Validate checks names and ranges that do not need a model to verify.
func (c *Config) Validate() error {
	if !sim.IsValidDiscipline(c.Discipline) {
		return fmt.Errorf("%w: unknown discipline %q", sim.ErrConfiguration, c.Discipline)
	}
	rule, err := sim.ParsePreemptionRule(c.PreemptionRule)
	if err != nil {
		return err
	}
	if rule == sim.PreemptNone && !c.FailureDelay && c.Failure != nil {
		return fmt.Errorf("%w: preemption rule none needs failure_delay when failures are configured", sim.ErrConfiguration)
	}
	if c.MaxArrivals < 0 {
		return fmt.Errorf("%w: max_arrivals must be >= 0, got %d", sim.ErrConfiguration, c.MaxArrivals)
	}
	if c.Schedule != nil {
		if c.Schedule.Length == 0 {
			c.Schedule.Length = math.Inf(1)
		}
		if len(c.Schedule.Items) == 0 {
			return fmt.Errorf("%w: schedule has no items", sim.ErrConfiguration)
		}
	}
	return nil
}

// Model is a station model assembled from a Config.
type Model struct {
	*sim.Model
	Station  *Station
	Arrivals *EventGenerator
	Failure  *sim.TimeBasedFailure
	Schedule *sim.Schedule
	Streams  *random.StreamProvider
}

// Build assembles a model from cfg, drawing random numbers from streams seeded with seed.
func Build(cfg Config, seed int64) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	name := cfg.Name
	if name == "" {
		name = "Station"
	}
	m := &Model{Model: sim.NewModel(name+"Model", nil), Streams: random.NewStreamProvider(seed)}
	service, err := m.Streams.New(cfg.Service, "service")
	if err != nil {
		return nil, fmt.Errorf("%w: service: %v", sim.ErrConfiguration, err)
	}
	rule, _ := sim.ParsePreemptionRule(cfg.PreemptionRule)
	opts := sim.ResourceUnitOptions{
		FailureDelay:        cfg.FailureDelay,
		InactivePeriodDelay: cfg.InactivePeriodDelay,
		AutoStartFailures:   true,
		RequestQDiscipline:  sim.NewDiscipline(cfg.Discipline),
		CollectStateStats:   cfg.CollectStateStats,
		CollectRequestStats: cfg.CollectRequestStats,
	}
	if m.Station, err = NewStation(m.ModelElement, name, service, rule, opts); err != nil {
		return nil, err
	}
	if err := m.addArrivals(cfg); err != nil {
		return nil, err
	}
	if cfg.Failure != nil {
		if err := m.addFailure(*cfg.Failure, cfg.FailureDelay); err != nil {
			return nil, err
		}
	}
	if cfg.Schedule != nil {
		if err := m.addSchedule(*cfg.Schedule); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Model) addArrivals(cfg Config) error {
	between, err := m.Streams.New(cfg.Arrivals, "arrivals")
	if err != nil {
		return fmt.Errorf("%w: arrivals: %v", sim.ErrConfiguration, err)
	}
	tba, err := sim.NewRandomVariable(m.ModelElement, m.Station.Name()+":TimeBetweenArrivals", between)
	if err != nil {
		return err
	}
	var first sim.RandomSource = tba
	if cfg.FirstArrival != nil {
		f, err := m.Streams.New(*cfg.FirstArrival, "first_arrival")
		if err != nil {
			return fmt.Errorf("%w: first_arrival: %v", sim.ErrConfiguration, err)
		}
		if first, err = sim.NewRandomVariable(m.ModelElement, m.Station.Name()+":FirstArrival", f); err != nil {
			return err
		}
	}
	m.Arrivals, err = NewEventGenerator(m.ModelElement, m.Station.Name()+":Arrivals", first, tba, cfg.MaxArrivals, m.arrive)
	return err
}

func (m *Model) arrive(g *EventGenerator) error {
	return m.Station.Receive(NewCustomer(int64(g.Count()), g.Time()))
}

func (m *Model) addFailure(fc FailureConfig, delay bool) error {
	ttf, err := m.Streams.New(fc.TimeToFailure, "time_to_failure")
	if err != nil {
		return fmt.Errorf("%w: time_to_failure: %v", sim.ErrConfiguration, err)
	}
	repair, err := m.Streams.New(fc.RepairTime, "repair_time")
	if err != nil {
		return fmt.Errorf("%w: repair_time: %v", sim.ErrConfiguration, err)
	}
	unit := m.Station.Unit()
	if m.Failure, err = sim.NewTimeBasedFailure(unit, unit.Name()+":Failures", ttf, repair, delay); err != nil {
		return err
	}
	m.Failure.SetAccrueOnlyWhenBusy(fc.AccrueOnlyWhenBusy)
	return nil
}

func (m *Model) addSchedule(sc ScheduleConfig) error {
	s, err := sim.NewSchedule(m.ModelElement, m.Station.Name()+":Schedule", sc.StartTime, sc.Length)
	if err != nil {
		return err
	}
	for _, it := range sc.Items {
		if err := s.AddItem(it.Name, it.Start, it.Duration); err != nil {
			return err
		}
	}
	m.Schedule = s
	return m.Station.Unit().UseSchedule(s)
}
