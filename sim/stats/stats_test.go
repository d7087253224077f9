package stats

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTally_MeanVarianceMinMax(t *testing.T) {
	// GIVEN observations 2, 4, 4, 4, 5, 5, 7, 9 and one NaN
	tl := NewTally("x")
	for i, v := range []float64{2, 4, 4, 4, 5, math.NaN(), 5, 7, 9} {
		tl.Record(v, float64(i))
	}

	// THEN NaN is ignored and the sample statistics match
	assert.Equal(t, int64(8), tl.Count())
	assert.InDelta(t, 5.0, tl.Mean(), 1e-12)
	assert.InDelta(t, 32.0/7.0, tl.Variance(), 1e-12)
	assert.InDelta(t, 40.0, tl.Sum(), 1e-12)
	assert.Equal(t, 2.0, tl.Min())
	assert.Equal(t, 9.0, tl.Max())
	assert.Equal(t, 9.0, tl.Last())
}

func TestTally_EmptyAndSingle(t *testing.T) {
	tl := NewTally("x")
	assert.True(t, math.IsNaN(tl.Mean()))
	assert.True(t, math.IsInf(tl.Min(), 1))

	tl.Record(3, 0)
	assert.Equal(t, 3.0, tl.Mean())
	assert.True(t, math.IsNaN(tl.Variance()))

	tl.Reset()
	assert.Equal(t, int64(0), tl.Count())
}

func TestTimeWeighted_Average(t *testing.T) {
	// GIVEN a level of 0 on [0, 2), 3 on [2, 6), 1 from 6
	tw := NewTimeWeighted("q", 0)
	tw.Record(3, 2)
	tw.Record(1, 6)

	// THEN the average over [0, 10] weights each level by its duration
	assert.InDelta(t, (0*2+3*4+1*4)/10.0, tw.Average(10), 1e-12)
	assert.Equal(t, 3.0, tw.Max())
	assert.Equal(t, 1.0, tw.Level())
	assert.True(t, math.IsNaN(tw.Average(0)))
}

func TestTimeWeighted_ResetKeepsLevel(t *testing.T) {
	tw := NewTimeWeighted("q", 0)
	tw.Record(4, 1)

	tw.Reset(5)

	assert.Equal(t, 4.0, tw.Level())
	assert.InDelta(t, 4.0, tw.Average(10), 1e-12)

	tw.Initialize(10)
	assert.Equal(t, 0.0, tw.Level())
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		wantCount int
		wantMean  float64
		wantHW    float64
	}{
		{name: "empty", values: nil, wantCount: 0, wantMean: math.NaN(), wantHW: math.NaN()},
		{name: "single", values: []float64{4}, wantCount: 1, wantMean: 4, wantHW: math.NaN()},
		{name: "nan dropped", values: []float64{1, math.NaN(), 3}, wantCount: 2, wantMean: 2,
			wantHW: HalfWidth(math.Sqrt2, 2, DefaultConfidenceLevel)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize("r", tt.values, DefaultConfidenceLevel)
			assert.Equal(t, tt.wantCount, s.Count)
			assertFloat(t, tt.wantMean, s.Mean)
			assertFloat(t, tt.wantHW, s.HalfWidth)
		})
	}
}

func TestHalfWidth_StudentT(t *testing.T) {
	// t(0.975, 9) = 2.262157
	assert.InDelta(t, 2.262157/math.Sqrt(10), HalfWidth(1, 10, 0.95), 1e-5)
	assert.True(t, math.IsNaN(HalfWidth(1, 1, 0.95)))
	assert.True(t, math.IsNaN(HalfWidth(1, 10, 1)))
}

func TestSummary_MarshalJSON_UndefinedAsNull(t *testing.T) {
	b, err := json.Marshal(Summarize("r", []float64{5}, DefaultConfidenceLevel))
	assert.NoError(t, err)
	assert.JSONEq(t, `{"name":"r","count":1,"mean":5,"std_dev":null,"half_width":null,"min":5,"max":5}`, string(b))
}

func assertFloat(t *testing.T, want, got float64) {
	t.Helper()
	if math.IsNaN(want) {
		assert.True(t, math.IsNaN(got), "want NaN, got %g", got)
		return
	}
	assert.InDelta(t, want, got, 1e-12)
}
