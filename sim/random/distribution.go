package random

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Variate draws from a distribution by inverting its CDF at a stream uniform.
// It satisfies sim.RandomSource and, when backed by a stream, sim.StreamController.
type Variate struct {
	kind     string
	stream   *Stream
	quantile func(p float64) float64
	mean     float64
}

// Value returns the next draw.
func (v *Variate) Value() float64 {
	if v.stream == nil {
		return v.quantile(0.5)
	}
	return v.quantile(v.stream.RandU01())
}

// Kind returns the distribution name, e.g. "exponential".
func (v *Variate) Kind() string { return v.kind }

// Mean returns the distribution mean.
func (v *Variate) Mean() float64 { return v.mean }

// Stream returns the backing stream, nil for constants.
func (v *Variate) Stream() *Stream { return v.stream }

func (v *Variate) ResetStartStream() {
	if v.stream != nil {
		v.stream.ResetStartStream()
	}
}

func (v *Variate) ResetStartSubstream() {
	if v.stream != nil {
		v.stream.ResetStartSubstream()
	}
}

func (v *Variate) AdvanceToNextSubstream() {
	if v.stream != nil {
		v.stream.AdvanceToNextSubstream()
	}
}

func (v *Variate) String() string {
	return fmt.Sprintf("%s(mean=%g)", v.kind, v.mean)
}

// Constant always returns value and consumes no random numbers.
func Constant(value float64) *Variate {
	return &Variate{kind: "constant", quantile: func(float64) float64 { return value }, mean: value}
}

// Exponential draws with the given mean.
func Exponential(mean float64, s *Stream) (*Variate, error) {
	if !(mean > 0) || math.IsInf(mean, 0) {
		return nil, fmt.Errorf("exponential mean must be positive and finite, got %g", mean)
	}
	d := distuv.Exponential{Rate: 1 / mean}
	return &Variate{kind: "exponential", stream: s, quantile: d.Quantile, mean: mean}, nil
}

// Uniform draws from [min, max].
func Uniform(min, max float64, s *Stream) (*Variate, error) {
	if !(min < max) {
		return nil, fmt.Errorf("uniform requires min < max, got [%g, %g]", min, max)
	}
	d := distuv.Uniform{Min: min, Max: max}
	return &Variate{kind: "uniform", stream: s, quantile: d.Quantile, mean: (min + max) / 2}, nil
}

// Triangular draws from the triangle with the given min, mode and max.
func Triangular(min, mode, max float64, s *Stream) (*Variate, error) {
	if !(min < max) || mode < min || mode > max {
		return nil, fmt.Errorf("triangular requires min <= mode <= max and min < max, got (%g, %g, %g)", min, mode, max)
	}
	d := distuv.NewTriangle(min, max, mode, nil)
	return &Variate{kind: "triangular", stream: s, quantile: d.Quantile, mean: d.Mean()}, nil
}

// LogNormal draws from the lognormal distribution with the given mean and standard deviation
// (of the variable itself, not of its log).
func LogNormal(mean, stdDev float64, s *Stream) (*Variate, error) {
	if !(mean > 0) || !(stdDev > 0) {
		return nil, fmt.Errorf("lognormal requires positive mean and std_dev, got (%g, %g)", mean, stdDev)
	}
	sigma2 := math.Log(1 + (stdDev*stdDev)/(mean*mean))
	d := distuv.LogNormal{Mu: math.Log(mean) - sigma2/2, Sigma: math.Sqrt(sigma2)}
	return &Variate{kind: "lognormal", stream: s, quantile: d.Quantile, mean: mean}, nil
}

// Empirical draws values with the given probabilities by inverse CDF.
// Probabilities are normalized; non-positive ones drop their value.
func Empirical(values, probs []float64, s *Stream) (*Variate, error) {
	if len(values) == 0 || len(values) != len(probs) {
		return nil, fmt.Errorf("empirical needs matching, non-empty values and probabilities (%d, %d)", len(values), len(probs))
	}
	total := 0.0
	for _, p := range probs {
		if p > 0 {
			total += p
		}
	}
	if total <= 0 {
		return nil, fmt.Errorf("empirical probabilities sum to %g", total)
	}
	vals := make([]float64, 0, len(values))
	cdf := make([]float64, 0, len(values))
	cumulative, mean := 0.0, 0.0
	for i, v := range values {
		if probs[i] <= 0 {
			continue
		}
		cumulative += probs[i] / total
		mean += v * probs[i] / total
		vals = append(vals, v)
		cdf = append(cdf, cumulative)
	}
	// Ensure last CDF entry is exactly 1.0
	cdf[len(cdf)-1] = 1.0
	q := func(p float64) float64 {
		idx := sort.SearchFloat64s(cdf, p)
		if idx >= len(vals) {
			idx = len(vals) - 1
		}
		return vals[idx]
	}
	return &Variate{kind: "empirical", stream: s, quantile: q, mean: mean}, nil
}

// Spec describes a distribution in configuration files.
type Spec struct {
	Type   string             `yaml:"type" json:"type"`
	Params map[string]float64 `yaml:"params" json:"params"`
	// Values and Probs are used by the "empirical" type.
	Values []float64 `yaml:"values,omitempty" json:"values,omitempty"`
	Probs  []float64 `yaml:"probs,omitempty" json:"probs,omitempty"`
	// Stream names the random number stream; empty uses the caller's default.
	Stream     string `yaml:"stream,omitempty" json:"stream,omitempty"`
	Antithetic bool   `yaml:"antithetic,omitempty" json:"antithetic,omitempty"`
}

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("distribution requires parameter %q", k)
		}
	}
	return nil
}

// New creates a Variate from spec, drawing from the stream spec.Stream (or defaultStream).
func (p *StreamProvider) New(spec Spec, defaultStream string) (*Variate, error) {
	name := spec.Stream
	if name == "" {
		name = defaultStream
	}
	stream := func() *Stream {
		s := p.Stream(name)
		if spec.Antithetic {
			s.SetAntithetic(true)
		}
		return s
	}
	switch spec.Type {
	case "constant":
		if err := requireParam(spec.Params, "value"); err != nil {
			return nil, err
		}
		return Constant(spec.Params["value"]), nil
	case "exponential":
		if err := requireParam(spec.Params, "mean"); err != nil {
			return nil, err
		}
		return Exponential(spec.Params["mean"], stream())
	case "uniform":
		if err := requireParam(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		return Uniform(spec.Params["min"], spec.Params["max"], stream())
	case "triangular":
		if err := requireParam(spec.Params, "min", "mode", "max"); err != nil {
			return nil, err
		}
		return Triangular(spec.Params["min"], spec.Params["mode"], spec.Params["max"], stream())
	case "lognormal":
		if err := requireParam(spec.Params, "mean", "std_dev"); err != nil {
			return nil, err
		}
		return LogNormal(spec.Params["mean"], spec.Params["std_dev"], stream())
	case "empirical":
		return Empirical(spec.Values, spec.Probs, stream())
	default:
		return nil, fmt.Errorf("unknown distribution type %q", spec.Type)
	}
}
