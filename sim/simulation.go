// Implements Simulation, which runs an Experiment's replications over a Model.

package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/desim/sim/trace"
)

// Simulation runs the replications of an experiment on a model.
// It is not safe for concurrent use; separate Simulations share nothing and may run in
// parallel.
type Simulation struct {
	id    string
	model *Model
	exp   Experiment

	current      int
	running      bool
	repListeners []func(n int)
}

// NewSimulation validates exp and binds it to m.
func NewSimulation(m *Model, exp Experiment) (*Simulation, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil model", ErrConfiguration)
	}
	if err := exp.Validate(); err != nil {
		return nil, err
	}
	if exp.Name == "" {
		exp.Name = m.Name()
	}
	return &Simulation{id: uuid.NewString(), model: m, exp: exp}, nil
}

// ID returns the run's unique id.
func (s *Simulation) ID() string { return s.id }

// Model returns the simulated model.
func (s *Simulation) Model() *Model { return s.model }

// Experiment returns the run parameters.
func (s *Simulation) Experiment() Experiment { return s.exp }

// CurrentReplication returns the number (from 1) of the replication in progress or last run.
func (s *Simulation) CurrentReplication() int { return s.current }

// OnReplicationStart registers fn to run before each replication's executive is initialized.
func (s *Simulation) OnReplicationStart(fn func(n int)) {
	s.repListeners = append(s.repListeners, fn)
}

// AttachTrace records every executed event of every replication into st.
// Disabled traces are ignored.
func (s *Simulation) AttachTrace(st *trace.SimulationTrace) {
	if !st.Enabled() {
		return
	}
	s.model.executive.AddEventListener(func(ev *Event) {
		st.RecordEvent(trace.EventRecord{
			Replication: s.current,
			Time:        ev.Time(),
			Priority:    ev.Priority(),
			ID:          ev.ID(),
			Name:        ev.Name(),
		})
	})
}

// Run executes every replication and returns the report. If a replication fails, the report
// covers the replications completed before it and the error names the failing one.
func (s *Simulation) Run(ctx context.Context) (*Report, error) {
	if s.running {
		return nil, fmt.Errorf("%w: simulation %s is already running", ErrInvalidState, s.id)
	}
	s.running = true
	defer func() { s.running = false }()

	m := s.model
	m.lock()
	defer m.unlock()

	report := newReport(s)
	if math.IsInf(s.exp.LengthOfReplication, 1) && s.exp.MaxExecutionTime == 0 {
		logrus.Warnf("experiment %s has no replication length and no execution time budget", s.exp.Name)
	}
	logrus.Infof("experiment %s (%s): %d replication(s) of model %s with %d elements",
		s.exp.Name, s.id, s.exp.NumReplications, m.Name(), m.NumElements())

	if err := m.beforeExperiment(); err != nil {
		return report.fail(0, err), fmt.Errorf("before experiment: %w", err)
	}
	s.applyStreamOptions()

	for n := 1; n <= s.exp.NumReplications; n++ {
		if err := ctx.Err(); err != nil {
			report.summarize(m)
			return report.fail(n, err), fmt.Errorf("replication %d: %w", n, err)
		}
		res, err := s.runReplication(ctx, n)
		if err != nil {
			report.summarize(m)
			return report.fail(n, err), fmt.Errorf("replication %d: %w", n, err)
		}
		report.Replications = append(report.Replications, res)
	}
	m.afterExperiment()
	report.summarize(m)
	logrus.Infof("experiment %s finished", s.exp.Name)
	return report, nil
}

func (s *Simulation) runReplication(ctx context.Context, n int) (ReplicationResult, error) {
	s.current = n
	for _, fn := range s.repListeners {
		fn(n)
	}
	m := s.model
	ex := m.executive
	if err := ex.Initialize(); err != nil {
		return ReplicationResult{}, err
	}
	ex.SetMaxExecutionTime(s.exp.MaxExecutionTime)
	if !math.IsInf(s.exp.LengthOfReplication, 1) {
		if _, err := ex.ScheduleEnd(s.exp.LengthOfReplication); err != nil {
			return ReplicationResult{}, err
		}
	}
	if s.exp.HasWarmUp() {
		warmUp := EventActionFunc(func(ev *Event) error {
			logrus.Debugf("[t=%g] warm-up", ev.Time())
			m.warmUpElements()
			return nil
		})
		if _, err := ex.ScheduleWith(warmUp, s.exp.LengthOfWarmUp, WarmUpPriority, nil, "WarmUp"); err != nil {
			return ReplicationResult{}, err
		}
	}
	if err := m.initializeElements(); err != nil {
		return ReplicationResult{}, fmt.Errorf("initialize: %w", err)
	}
	if err := ex.ExecuteAllEvents(ctx); err != nil {
		return ReplicationResult{}, err
	}
	m.replicationEnded()
	m.afterReplication()
	if s.exp.AdvanceNextSubstream {
		s.forEachRandomVariable((*RandomVariable).AdvanceToNextSubstream)
	}
	res := ReplicationResult{
		Number:         n,
		EndCondition:   ex.EndCondition().String(),
		StopMessage:    ex.StopMessage(),
		EventsExecuted: ex.NumEventsExecuted(),
		EndTime:        ex.Time(),
		WallTime:       ex.ElapsedExecutionTime(),
	}
	logrus.Infof("replication %d/%d ended at t=%g: %s after %d events (%v)",
		n, s.exp.NumReplications, res.EndTime, res.EndCondition, res.EventsExecuted, res.WallTime.Round(time.Microsecond))
	return res, nil
}

func (s *Simulation) applyStreamOptions() {
	if s.exp.ResetStartStream {
		s.forEachRandomVariable((*RandomVariable).ResetStartStream)
	}
	for i := 0; i < s.exp.NumStreamAdvances; i++ {
		s.forEachRandomVariable((*RandomVariable).AdvanceToNextSubstream)
	}
}

func (s *Simulation) forEachRandomVariable(fn func(rv *RandomVariable)) {
	for _, e := range s.model.order {
		if rv, ok := e.owner.(*RandomVariable); ok {
			fn(rv)
		}
	}
}
