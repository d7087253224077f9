package sim

// RandomSource supplies non-negative reals, typically inter-event delays. The engine never
// interprets the distribution behind it.
type RandomSource interface {
	Value() float64
}

// StreamController is implemented by sources backed by a resettable random number stream.
type StreamController interface {
	ResetStartStream()
	ResetStartSubstream()
	AdvanceToNextSubstream()
}

// Recorder is a sink for observations. The engine passes elapsed durations (waiting times,
// time in state) or levels, stamped with the simulation time of the observation.
type Recorder interface {
	Record(value, time float64)
}

// ConstantSource is a RandomSource that always returns the same value.
type ConstantSource float64

// Value returns the constant.
func (c ConstantSource) Value() float64 { return float64(c) }
