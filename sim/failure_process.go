package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// FailureProcess generates failure notices for a ResourceUnit.
type FailureProcess interface {
	// DelayOption reports whether the notices it produces may wait.
	DelayOption() bool
}

// TimeBasedFailure fails its unit after a time-to-failure drawn from one source, for a
// repair time drawn from another. The next time-to-failure starts when the previous notice
// is consumed.
type TimeBasedFailure struct {
	*ModelElement
	unit          *ResourceUnit
	timeToFailure *RandomVariable
	repairTime    *RandomVariable
	delayOption   bool

	accrueOnlyWhenBusy bool

	started      bool
	failureEvent *Event
	remaining    float64 // paused time-to-failure, NaN when not paused
	numFailures  int
}

// NewTimeBasedFailure attaches a time-based failure process to unit. delayOption must equal
// the unit's FailureDelay option.
func NewTimeBasedFailure(unit *ResourceUnit, name string, timeToFailure, repairTime RandomSource, delayOption bool) (*TimeBasedFailure, error) {
	if unit == nil {
		return nil, fmt.Errorf("%w: failure process %q has no unit", ErrConfiguration, name)
	}
	f := &TimeBasedFailure{unit: unit, delayOption: delayOption, remaining: math.NaN()}
	if delayOption != unit.opts.FailureDelay {
		return nil, fmt.Errorf("%w: failure process delay option %t is inconsistent with unit %s (%t)",
			ErrConfiguration, delayOption, unit.Name(), unit.opts.FailureDelay)
	}
	e, err := NewModelElement(unit.ModelElement, name, f)
	if err != nil {
		return nil, err
	}
	f.ModelElement = e
	if f.timeToFailure, err = NewRandomVariable(e, e.Name()+":TimeToFailure", timeToFailure); err != nil {
		return nil, err
	}
	if f.repairTime, err = NewRandomVariable(e, e.Name()+":RepairTime", repairTime); err != nil {
		return nil, err
	}
	if err := unit.AddFailureProcess(f); err != nil {
		return nil, err
	}
	unit.OnStateChange(f.unitStateChanged)
	return f, nil
}

// DelayOption implements FailureProcess.
func (f *TimeBasedFailure) DelayOption() bool { return f.delayOption }

// Unit returns the unit the process fails.
func (f *TimeBasedFailure) Unit() *ResourceUnit { return f.unit }

// TimeToFailure returns the time-to-failure variable.
func (f *TimeBasedFailure) TimeToFailure() *RandomVariable { return f.timeToFailure }

// RepairTime returns the repair-time variable.
func (f *TimeBasedFailure) RepairTime() *RandomVariable { return f.repairTime }

// SetAccrueOnlyWhenBusy pauses the time-to-failure clock whenever the unit is not Busy.
func (f *TimeBasedFailure) SetAccrueOnlyWhenBusy(on bool) { f.accrueOnlyWhenBusy = on }

// IsStarted reports whether the process is generating failures.
func (f *TimeBasedFailure) IsStarted() bool { return f.started }

// NumFailures returns the number of notices sent this replication.
func (f *TimeBasedFailure) NumFailures() int { return f.numFailures }

// Start begins generating failures. Units with AutoStartFailures start their processes at
// every replication start.
func (f *TimeBasedFailure) Start() error {
	if f.started {
		return fmt.Errorf("%w: failure process %s already started", ErrInvalidState, f.Name())
	}
	f.started = true
	return f.scheduleFailure(f.timeToFailure.Value())
}

// Stop cancels the pending failure. Notices already sent are unaffected.
func (f *TimeBasedFailure) Stop() {
	f.started = false
	f.Executive().Cancel(f.failureEvent)
	f.failureEvent = nil
	f.remaining = math.NaN()
}

func (f *TimeBasedFailure) Initialize() error {
	f.started = false
	f.failureEvent = nil
	f.remaining = math.NaN()
	f.numFailures = 0
	if f.unit.opts.AutoStartFailures {
		return f.Start()
	}
	return nil
}

func (f *TimeBasedFailure) AfterReplication() {
	f.started = false
	f.failureEvent = nil
	f.remaining = math.NaN()
}

func (f *TimeBasedFailure) scheduleFailure(delay float64) error {
	if f.accrueOnlyWhenBusy && !f.unit.IsBusy() {
		f.remaining = delay
		return nil
	}
	ev, err := f.ScheduleWith(EventActionFunc(f.failureAction), delay, DefaultPriority, nil, f.Name()+":Failure")
	if err != nil {
		return err
	}
	f.failureEvent = ev
	return nil
}

func (f *TimeBasedFailure) failureAction(*Event) error {
	f.failureEvent = nil
	f.numFailures++
	n := f.unit.newFailureNotice(f.repairTime.Value(), f.delayOption, f.noticeEnded)
	logrus.Debugf("[t=%g] %s fails %s for %g", f.Time(), f.Name(), f.unit.Name(), n.duration)
	return f.unit.receiveFailure(n)
}

// noticeEnded starts the next time-to-failure once the unit has consumed a notice.
func (f *TimeBasedFailure) noticeEnded(*FailureNotice) {
	if !f.started {
		return
	}
	if err := f.scheduleFailure(f.timeToFailure.Value()); err != nil {
		logrus.Errorf("[t=%g] %s: cannot schedule next failure: %v", f.Time(), f.Name(), err)
	}
}

func (f *TimeBasedFailure) unitStateChanged(u *ResourceUnit) {
	if !f.started || !f.accrueOnlyWhenBusy {
		return
	}
	now := f.Time()
	if u.IsBusy() {
		if math.IsNaN(f.remaining) {
			return
		}
		d := f.remaining
		f.remaining = math.NaN()
		if err := f.scheduleFailure(d); err != nil {
			logrus.Errorf("[t=%g] %s: cannot resume failure clock: %v", now, f.Name(), err)
		}
		return
	}
	if f.failureEvent != nil {
		f.remaining = f.failureEvent.Time() - now
		f.Executive().Cancel(f.failureEvent)
		f.failureEvent = nil
	}
}
