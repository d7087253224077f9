// Defines QObject, the token that waits in queues. Requests and notices embed it so a single
// Queue implementation can hold any of them.

package sim

import (
	"fmt"
	"math"
)

// Queueable is implemented by anything that embeds a QObject.
type Queueable interface {
	qobject() *QObject
}

// QObject carries the bookkeeping a queue needs about a waiting item.
type QObject struct {
	id         int64
	name       string
	createTime float64
	priority   int
	value      float64

	queueName        string
	timeEnteredQueue float64
	timeExitedQueue  float64
	arrivalSeq       int64
}

// NewQObject stamps a token created at time now. Models embed the result in their entity
// types so the entities can wait in a Queue.
func NewQObject(id int64, name string, now float64) QObject {
	return QObject{
		id:               id,
		name:             name,
		createTime:       now,
		priority:         DefaultPriority,
		timeEnteredQueue: math.NaN(),
		timeExitedQueue:  math.NaN(),
	}
}

func (q *QObject) qobject() *QObject { return q }

// ID returns the token's id, unique within its kind for a replication.
func (q *QObject) ID() int64 { return q.id }

// Name returns the token's name.
func (q *QObject) Name() string { return q.name }

// CreateTime returns the simulation time the token was created.
func (q *QObject) CreateTime() float64 { return q.createTime }

// Priority returns the queueing priority. Lower values are served first.
func (q *QObject) Priority() int { return q.priority }

// Value returns a general-purpose attribute, used by ranked disciplines.
func (q *QObject) Value() float64 { return q.value }

// SetValue sets the general-purpose attribute. It must not be changed while the token is
// queued under a discipline that ranks on it.
func (q *QObject) SetValue(v float64) { q.value = v }

// IsQueued reports whether the token currently waits in a queue.
func (q *QObject) IsQueued() bool { return q.queueName != "" }

// QueueName returns the name of the queue holding the token, or "".
func (q *QObject) QueueName() string { return q.queueName }

// TimeEnteredQueue returns when the token last entered a queue, or NaN.
func (q *QObject) TimeEnteredQueue() float64 { return q.timeEnteredQueue }

// TimeExitedQueue returns when the token last left a queue, or NaN.
func (q *QObject) TimeExitedQueue() float64 { return q.timeExitedQueue }

// TimeInQueue returns the duration of the last completed wait, or NaN.
func (q *QObject) TimeInQueue() float64 {
	return q.timeExitedQueue - q.timeEnteredQueue
}

func (q *QObject) String() string {
	return fmt.Sprintf("%s(id=%d, priority=%d)", q.name, q.id, q.priority)
}

// SetPriority changes the priority of a token that is not queued. Use Queue.ChangePriority for
// a waiting token so the queue can restore its order.
func (q *QObject) SetPriority(p int) error {
	if q.IsQueued() {
		return fmt.Errorf("%w: %s is waiting in %s, change its priority through the queue", ErrInvalidState, q.name, q.queueName)
	}
	q.priority = p
	return nil
}
