// Implements Queue, the ordered waiting line shared by resource units and models.
// Items are kept in the physical order of the active discipline.

package sim

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// QueueChange identifies the kind of change reported to queue listeners.
type QueueChange int

const (
	Enqueued QueueChange = iota
	Removed
)

func (c QueueChange) String() string {
	if c == Enqueued {
		return "Enqueued"
	}
	return "Removed"
}

// Queue holds waiting items of type T. It is a model element: at each replication start it is
// emptied and its initial discipline restored.
type Queue[T Queueable] struct {
	*ModelElement

	items []T
	objs  []*QObject // objs[i] == items[i].qobject()

	initial Discipline
	current Discipline
	nextSeq int64

	waitTime   Recorder
	numInQueue Recorder
	listeners  []func(change QueueChange, item T)
}

// NewQueue creates a queue under parent. A nil discipline means FIFO.
func NewQueue[T Queueable](parent *ModelElement, name string, d Discipline) (*Queue[T], error) {
	if d == nil {
		d = FIFO{}
	}
	if err := checkDiscipline(d); err != nil {
		return nil, err
	}
	q := &Queue[T]{initial: d, current: d}
	e, err := NewModelElement(parent, name, q)
	if err != nil {
		return nil, err
	}
	q.ModelElement = e
	return q, nil
}

func checkDiscipline(d Discipline) error {
	if r, ok := d.(Ranked); ok && r.Compare == nil {
		return fmt.Errorf("%w: ranked discipline without a comparator", ErrConfiguration)
	}
	return nil
}

// SetWaitTimeRecorder sets the sink receiving waiting times of items leaving the queue.
func (q *Queue[T]) SetWaitTimeRecorder(r Recorder) { q.waitTime = r }

// SetNumInQueueRecorder sets the sink receiving the queue size after every change.
func (q *Queue[T]) SetNumInQueueRecorder(r Recorder) { q.numInQueue = r }

// OnChange registers a listener called synchronously after every enqueue and removal.
func (q *Queue[T]) OnChange(fn func(change QueueChange, item T)) {
	q.listeners = append(q.listeners, fn)
}

// Discipline returns the active discipline.
func (q *Queue[T]) Discipline() Discipline { return q.current }

// InitialDiscipline returns the discipline restored at each replication start.
func (q *Queue[T]) InitialDiscipline() Discipline { return q.initial }

// SetInitialDiscipline sets the discipline used from the next replication on. Outside a
// running experiment it also becomes the active discipline.
func (q *Queue[T]) SetInitialDiscipline(d Discipline) error {
	if d == nil {
		return fmt.Errorf("%w: nil discipline for %s", ErrConfiguration, q.Name())
	}
	if err := checkDiscipline(d); err != nil {
		return err
	}
	q.initial = d
	if !q.Model().Locked() {
		q.ChangeDiscipline(d)
	}
	return nil
}

// ChangeDiscipline switches the active discipline and reorders the current contents as if
// they had arrived, in their original order, under d.
func (q *Queue[T]) ChangeDiscipline(d Discipline) {
	if d == nil || checkDiscipline(d) != nil {
		panic(fmt.Sprintf("ChangeDiscipline: invalid discipline for queue %s", q.Name()))
	}
	q.current = d
	if len(q.items) < 2 {
		return
	}
	idx := make([]int, len(q.items))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return q.objs[idx[a]].arrivalSeq < q.objs[idx[b]].arrivalSeq
	})
	items, objs := q.items, q.objs
	q.items = make([]T, 0, len(items))
	q.objs = make([]*QObject, 0, len(objs))
	for _, i := range idx {
		q.insert(items[i], objs[i])
	}
}

// Enqueue adds item at the position chosen by the active discipline.
// An item can wait in at most one queue at a time.
func (q *Queue[T]) Enqueue(item T) error {
	qo := item.qobject()
	if qo.IsQueued() {
		return fmt.Errorf("%w: %s already waits in %s", ErrInvalidState, qo.name, qo.queueName)
	}
	now := q.Time()
	qo.queueName = q.Name()
	qo.timeEnteredQueue = now
	qo.timeExitedQueue = math.NaN()
	qo.arrivalSeq = q.nextSeq
	q.nextSeq++
	q.insert(item, qo)
	q.recordSize(now)
	q.notify(Enqueued, item)
	return nil
}

func (q *Queue[T]) insert(item T, qo *QObject) {
	i := q.current.InsertionIndex(q.objs, qo)
	var zero T
	q.items = append(q.items, zero)
	q.objs = append(q.objs, nil)
	copy(q.items[i+1:], q.items[i:])
	copy(q.objs[i+1:], q.objs[i:])
	q.items[i] = item
	q.objs[i] = qo
}

// PeekNext returns the item that RemoveNext would return, without removing it.
func (q *Queue[T]) PeekNext() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.items[q.current.SelectionIndex(q.objs)], true
}

// RemoveNext removes and returns the next item, recording its waiting time.
func (q *Queue[T]) RemoveNext() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.removeAt(q.current.SelectionIndex(q.objs), true), true
}

// Remove takes item out of the queue. collectStats controls whether its waiting time is
// recorded. It reports whether the item was present.
func (q *Queue[T]) Remove(item T, collectStats bool) bool {
	i := q.indexOf(item.qobject())
	if i < 0 {
		return false
	}
	q.removeAt(i, collectStats)
	return true
}

// RemoveAll empties the queue without recording waiting times.
func (q *Queue[T]) RemoveAll() {
	for len(q.items) > 0 {
		q.removeAt(len(q.items)-1, false)
	}
}

func (q *Queue[T]) removeAt(i int, collectStats bool) T {
	item, qo := q.items[i], q.objs[i]
	q.items = append(q.items[:i], q.items[i+1:]...)
	q.objs = append(q.objs[:i], q.objs[i+1:]...)
	now := q.Time()
	qo.queueName = ""
	qo.timeExitedQueue = now
	if collectStats && q.waitTime != nil {
		q.waitTime.Record(now-qo.timeEnteredQueue, now)
	}
	q.recordSize(now)
	q.notify(Removed, item)
	return item
}

// ChangePriority changes the priority of item and, if it waits here, moves it to the position
// the active discipline assigns. Its arrival order and entry time are unchanged.
// An item waiting in another queue is left untouched and ErrInvalidState is returned.
func (q *Queue[T]) ChangePriority(item T, p int) error {
	qo := item.qobject()
	i := q.indexOf(qo)
	if i < 0 {
		if qo.IsQueued() {
			return fmt.Errorf("%w: %s waits in %s, not %s", ErrInvalidState, qo.name, qo.queueName, q.Name())
		}
		qo.priority = p
		return nil
	}
	qo.priority = p
	q.items = append(q.items[:i], q.items[i+1:]...)
	q.objs = append(q.objs[:i], q.objs[i+1:]...)
	q.insert(item, qo)
	return nil
}

// Contains reports whether item waits in this queue.
func (q *Queue[T]) Contains(item T) bool { return q.indexOf(item.qobject()) >= 0 }

func (q *Queue[T]) indexOf(qo *QObject) int {
	if qo.queueName != q.Name() {
		return -1
	}
	for i, o := range q.objs {
		if o == qo {
			return i
		}
	}
	return -1
}

// Size returns the number of waiting items.
func (q *Queue[T]) Size() int { return len(q.items) }

// IsEmpty reports whether no item waits.
func (q *Queue[T]) IsEmpty() bool { return len(q.items) == 0 }

// Items returns a copy of the contents in physical order.
func (q *Queue[T]) Items() []T {
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}

// Initialize empties the queue and restores the initial discipline.
func (q *Queue[T]) Initialize() error {
	q.items = q.items[:0]
	for _, qo := range q.objs {
		qo.queueName = ""
	}
	q.objs = q.objs[:0]
	q.current = q.initial
	q.nextSeq = 0
	return nil
}

func (q *Queue[T]) recordSize(now float64) {
	if q.numInQueue != nil {
		q.numInQueue.Record(float64(len(q.items)), now)
	}
}

func (q *Queue[T]) notify(change QueueChange, item T) {
	for _, fn := range q.listeners {
		fn(change, item)
	}
}

func (q *Queue[T]) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, qo := range q.objs {
		sb.WriteString(qo.name)
		if i < len(q.objs)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
