package stats

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultConfidenceLevel is used for half-widths in reports.
const DefaultConfidenceLevel = 0.95

// Summary describes a set of across-replication observations.
type Summary struct {
	Name      string  `json:"name"`
	Count     int     `json:"count"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
	HalfWidth float64 `json:"half_width"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

// Summarize computes a Summary of values. NaN observations are dropped; statistics that
// need more observations than are available are NaN.
func Summarize(name string, values []float64, level float64) Summary {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	s := Summary{Name: name, Count: len(clean), Mean: math.NaN(), StdDev: math.NaN(),
		HalfWidth: math.NaN(), Min: math.NaN(), Max: math.NaN()}
	if len(clean) == 0 {
		return s
	}
	s.Min = floats.Min(clean)
	s.Max = floats.Max(clean)
	if len(clean) == 1 {
		s.Mean = clean[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(clean, nil)
	s.HalfWidth = HalfWidth(s.StdDev, len(clean), level)
	return s
}

// HalfWidth returns the Student-t confidence interval half-width for n observations.
func HalfWidth(stdDev float64, n int, level float64) float64 {
	if n < 2 || level <= 0 || level >= 1 {
		return math.NaN()
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	q := t.Quantile(1 - (1-level)/2)
	return q * stdDev / math.Sqrt(float64(n))
}

// MarshalJSON writes undefined statistics (NaN or infinite) as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name      string   `json:"name"`
		Count     int      `json:"count"`
		Mean      *float64 `json:"mean"`
		StdDev    *float64 `json:"std_dev"`
		HalfWidth *float64 `json:"half_width"`
		Min       *float64 `json:"min"`
		Max       *float64 `json:"max"`
	}{s.Name, s.Count, finite(s.Mean), finite(s.StdDev), finite(s.HalfWidth), finite(s.Min), finite(s.Max)})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
