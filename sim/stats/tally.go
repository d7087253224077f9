package stats

import (
	"fmt"
	"math"
)

// Tally accumulates observation-based statistics (e.g. waiting times).
// Mean and variance use Welford's online update.
type Tally struct {
	name  string
	count int64
	mean  float64
	m2    float64
	min   float64
	max   float64
	last  float64
	// lastTime is the simulation time of the most recent observation.
	lastTime float64
}

// NewTally creates an empty tally.
func NewTally(name string) *Tally {
	t := &Tally{name: name}
	t.Reset()
	return t
}

// Name returns the tally's label.
func (t *Tally) Name() string { return t.name }

// Record adds an observation made at simulation time at.
func (t *Tally) Record(value, at float64) {
	if math.IsNaN(value) {
		return
	}
	t.count++
	d := value - t.mean
	t.mean += d / float64(t.count)
	t.m2 += d * (value - t.mean)
	t.min = math.Min(t.min, value)
	t.max = math.Max(t.max, value)
	t.last = value
	t.lastTime = at
}

// Reset discards all observations.
func (t *Tally) Reset() {
	t.count = 0
	t.mean = 0
	t.m2 = 0
	t.min = math.Inf(1)
	t.max = math.Inf(-1)
	t.last = math.NaN()
	t.lastTime = math.NaN()
}

// Count returns the number of observations.
func (t *Tally) Count() int64 { return t.count }

// Mean returns the sample average, NaN when empty.
func (t *Tally) Mean() float64 {
	if t.count == 0 {
		return math.NaN()
	}
	return t.mean
}

// Variance returns the sample variance, NaN with fewer than two observations.
func (t *Tally) Variance() float64 {
	if t.count < 2 {
		return math.NaN()
	}
	return t.m2 / float64(t.count-1)
}

// StdDev returns the sample standard deviation.
func (t *Tally) StdDev() float64 { return math.Sqrt(t.Variance()) }

// Sum returns the sum of observations.
func (t *Tally) Sum() float64 { return t.mean * float64(t.count) }

// Min returns the smallest observation, +Inf when empty.
func (t *Tally) Min() float64 { return t.min }

// Max returns the largest observation, -Inf when empty.
func (t *Tally) Max() float64 { return t.max }

// Last returns the most recent observation, NaN when empty.
func (t *Tally) Last() float64 { return t.last }

func (t *Tally) String() string {
	return fmt.Sprintf("Tally(%s: n=%d, mean=%g, sd=%g, min=%g, max=%g)",
		t.name, t.count, t.Mean(), t.StdDev(), t.min, t.max)
}
