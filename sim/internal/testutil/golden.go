// Package testutil provides shared test infrastructure for the simulation packages.
// It holds the golden dataset of analytic single-server queue results and the
// tolerance assertions used to compare long runs against them.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/inference-sim/desim/sim/random"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one single-server queue with known steady-state measures.
type GoldenTestCase struct {
	Name                string        `json:"name"`
	Arrivals            random.Spec   `json:"arrivals"`
	Service             random.Spec   `json:"service"`
	Seed                int64         `json:"seed"`
	NumReplications     int           `json:"num_replications"`
	LengthOfReplication float64       `json:"length_of_replication"`
	LengthOfWarmUp      float64       `json:"length_of_warmup"`
	RelTol              float64       `json:"rel_tol"`
	Metrics             GoldenMetrics `json:"metrics"`
}

// GoldenMetrics are the expected long-run averages of a test case.
type GoldenMetrics struct {
	SystemTime  float64 `json:"system_time"`   // W
	TimeInQueue float64 `json:"time_in_queue"` // Wq
	NumInSystem float64 `json:"num_in_system"` // L
	Utilization float64 `json:"utilization"`   // rho
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
