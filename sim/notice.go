package sim

import "fmt"

// NoticeState is the lifecycle state of a failure or inactive-period notice.
type NoticeState int

const (
	NoticeCreated NoticeState = iota
	NoticeDelayed
	NoticeActive
	NoticeIgnored
	NoticeCanceled
	NoticeCompleted
)

func (s NoticeState) String() string {
	switch s {
	case NoticeCreated:
		return "Created"
	case NoticeDelayed:
		return "Delayed"
	case NoticeActive:
		return "Active"
	case NoticeIgnored:
		return "Ignored"
	case NoticeCanceled:
		return "Canceled"
	case NoticeCompleted:
		return "Completed"
	}
	return fmt.Sprintf("NoticeState(%d)", int(s))
}

// IsTerminal reports whether the notice has been consumed.
func (s NoticeState) IsTerminal() bool {
	return s == NoticeIgnored || s == NoticeCanceled || s == NoticeCompleted
}

var noticeTransitions = map[NoticeState][]NoticeState{
	NoticeCreated: {NoticeDelayed, NoticeActive, NoticeIgnored, NoticeCanceled},
	NoticeDelayed: {NoticeActive, NoticeCanceled},
	NoticeActive:  {NoticeCompleted, NoticeCanceled},
}

// notice is the state shared by failure and inactive-period notices. A notice is consumed
// exactly once: it ends Completed, Ignored or Canceled, and onEnd runs at that moment.
type notice struct {
	QObject
	kind      string
	duration  float64
	delayable bool
	state     NoticeState
	timeEnded float64
	onEnd     func()
}

// Duration returns the length of the down or inactive period.
func (n *notice) Duration() float64 { return n.duration }

// Delayable reports whether the notice may wait instead of preempting.
func (n *notice) Delayable() bool { return n.delayable }

// State returns the notice's lifecycle state.
func (n *notice) State() NoticeState { return n.state }

// TimeEnded returns when the notice was consumed.
func (n *notice) TimeEnded() float64 { return n.timeEnded }

func (n *notice) transition(to NoticeState, now float64) error {
	for _, s := range noticeTransitions[n.state] {
		if s == to {
			n.state = to
			if to.IsTerminal() {
				n.timeEnded = now
				if n.onEnd != nil {
					n.onEnd()
				}
			}
			return nil
		}
	}
	return illegalTransition(fmt.Sprintf("%s %d", n.kind, n.id), "to "+to.String(), n.state.String())
}

func (n *notice) delay(now float64) error    { return n.transition(NoticeDelayed, now) }
func (n *notice) activate(now float64) error { return n.transition(NoticeActive, now) }
func (n *notice) ignore(now float64) error   { return n.transition(NoticeIgnored, now) }
func (n *notice) cancel(now float64) error   { return n.transition(NoticeCanceled, now) }
func (n *notice) complete(now float64) error { return n.transition(NoticeCompleted, now) }

// FailureNotice tells a unit to go down for Duration.
type FailureNotice struct {
	notice
}

func (f *FailureNotice) String() string {
	return fmt.Sprintf("FailureNotice(id=%d, duration=%g, state=%s)", f.id, f.duration, f.state)
}

// InactivePeriodNotice tells a unit to stop accepting work for Duration.
type InactivePeriodNotice struct {
	notice
}

func (p *InactivePeriodNotice) String() string {
	return fmt.Sprintf("InactivePeriodNotice(id=%d, duration=%g, state=%s)", p.id, p.duration, p.state)
}
