package sim

import (
	"github.com/inference-sim/desim/sim/stats"
)

// ResponseReporter is implemented by elements that contribute a row to the experiment report.
type ResponseReporter interface {
	Name() string
	// ReplicationValues returns one value per completed replication of the current experiment.
	ReplicationValues() []float64
}

// Response collects observation-based statistics within a replication (e.g. system time) and
// keeps each replication's average for the report. It implements Recorder.
//
// Replication values are taken in AfterReplication, so owners may still record final
// observations from their ReplicationEnded hook.
type Response struct {
	*ModelElement
	within *stats.Tally
	across []float64
}

// NewResponse creates a response element under parent and registers it with the model.
func NewResponse(parent *ModelElement, name string) (*Response, error) {
	r := &Response{}
	e, err := NewModelElement(parent, name, r)
	if err != nil {
		return nil, err
	}
	r.ModelElement = e
	r.within = stats.NewTally(e.Name())
	e.model.registerResponse(r)
	return r, nil
}

// Record adds an observation.
func (r *Response) Record(value, time float64) { r.within.Record(value, time) }

// Tally exposes the within-replication statistics.
func (r *Response) Tally() *stats.Tally { return r.within }

// ReplicationValues implements ResponseReporter.
func (r *Response) ReplicationValues() []float64 { return append([]float64(nil), r.across...) }

func (r *Response) BeforeExperiment() error {
	r.across = nil
	return nil
}

func (r *Response) Initialize() error {
	r.within.Reset()
	return nil
}

func (r *Response) WarmUp() { r.within.Reset() }

func (r *Response) AfterReplication() { r.across = append(r.across, r.within.Mean()) }

// TimeWeightedResponse collects a time-persistent level (e.g. number busy) and keeps each
// replication's time average. It implements Recorder.
type TimeWeightedResponse struct {
	*ModelElement
	within *stats.TimeWeighted
	across []float64
}

// NewTimeWeightedResponse creates a level response starting at initial in every replication.
func NewTimeWeightedResponse(parent *ModelElement, name string, initial float64) (*TimeWeightedResponse, error) {
	r := &TimeWeightedResponse{}
	e, err := NewModelElement(parent, name, r)
	if err != nil {
		return nil, err
	}
	r.ModelElement = e
	r.within = stats.NewTimeWeighted(e.Name(), initial)
	e.model.registerResponse(r)
	return r, nil
}

// Record sets the level at the given time.
func (r *TimeWeightedResponse) Record(value, time float64) { r.within.Record(value, time) }

// Increment changes the level by delta at the current time.
func (r *TimeWeightedResponse) Increment(delta float64) {
	r.within.Record(r.within.Level()+delta, r.Time())
}

// Level returns the current level.
func (r *TimeWeightedResponse) Level() float64 { return r.within.Level() }

// Average returns the time average so far in the current replication.
func (r *TimeWeightedResponse) Average() float64 { return r.within.Average(r.Time()) }

// ReplicationValues implements ResponseReporter.
func (r *TimeWeightedResponse) ReplicationValues() []float64 {
	return append([]float64(nil), r.across...)
}

func (r *TimeWeightedResponse) BeforeExperiment() error {
	r.across = nil
	return nil
}

func (r *TimeWeightedResponse) Initialize() error {
	r.within.Initialize(r.Time())
	return nil
}

func (r *TimeWeightedResponse) WarmUp() { r.within.Reset(r.Time()) }

func (r *TimeWeightedResponse) AfterReplication() {
	r.across = append(r.across, r.within.Average(r.Time()))
}

// Counter counts occurrences within a replication (e.g. customers served).
type Counter struct {
	*ModelElement
	count  float64
	across []float64
}

// NewCounter creates a counter element under parent and registers it with the model.
func NewCounter(parent *ModelElement, name string) (*Counter, error) {
	c := &Counter{}
	e, err := NewModelElement(parent, name, c)
	if err != nil {
		return nil, err
	}
	c.ModelElement = e
	e.model.registerResponse(c)
	return c, nil
}

// Increment adds n to the count.
func (c *Counter) Increment(n float64) { c.count += n }

// Value returns the count so far in the current replication.
func (c *Counter) Value() float64 { return c.count }

// ReplicationValues implements ResponseReporter.
func (c *Counter) ReplicationValues() []float64 { return append([]float64(nil), c.across...) }

func (c *Counter) BeforeExperiment() error {
	c.across = nil
	return nil
}

func (c *Counter) Initialize() error {
	c.count = 0
	return nil
}

func (c *Counter) WarmUp() { c.count = 0 }

func (c *Counter) AfterReplication() { c.across = append(c.across, c.count) }
