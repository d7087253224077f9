package stats

import "math"

// TimeWeighted accumulates a time-persistent level (e.g. number in queue).
// Record sets a new level at the given time; the previous level is weighted by how long it held.
type TimeWeighted struct {
	name      string
	initial   float64
	level     float64
	lastTime  float64
	startTime float64
	area      float64
	min       float64
	max       float64
}

// NewTimeWeighted creates a level collector starting at initial at time zero.
func NewTimeWeighted(name string, initial float64) *TimeWeighted {
	tw := &TimeWeighted{name: name, initial: initial}
	tw.Initialize(0)
	return tw
}

// Name returns the collector's label.
func (tw *TimeWeighted) Name() string { return tw.name }

// Record changes the level to value at time at. Times must not decrease.
func (tw *TimeWeighted) Record(value, at float64) {
	if at > tw.lastTime {
		tw.area += tw.level * (at - tw.lastTime)
		tw.lastTime = at
	}
	tw.level = value
	tw.min = math.Min(tw.min, value)
	tw.max = math.Max(tw.max, value)
}

// Initialize restores the initial level and clears the accumulated area, starting at time at.
func (tw *TimeWeighted) Initialize(at float64) {
	tw.level = tw.initial
	tw.lastTime = at
	tw.startTime = at
	tw.area = 0
	tw.min = tw.initial
	tw.max = tw.initial
}

// Reset clears the accumulated area but keeps the current level, starting at time at.
// This is the warm-up behavior.
func (tw *TimeWeighted) Reset(at float64) {
	tw.lastTime = at
	tw.startTime = at
	tw.area = 0
	tw.min = tw.level
	tw.max = tw.level
}

// Level returns the current level.
func (tw *TimeWeighted) Level() float64 { return tw.level }

// Average returns the time-weighted average level over [start, at].
func (tw *TimeWeighted) Average(at float64) float64 {
	span := at - tw.startTime
	if span <= 0 {
		return math.NaN()
	}
	area := tw.area
	if at > tw.lastTime {
		area += tw.level * (at - tw.lastTime)
	}
	return area / span
}

// Min returns the smallest level observed since the last reset.
func (tw *TimeWeighted) Min() float64 { return tw.min }

// Max returns the largest level observed since the last reset.
func (tw *TimeWeighted) Max() float64 { return tw.max }
