package analysis_test

import (
	"io/ioutil"
	"math"
	"os"
	"testing"

	"github.com/peterbourgon/diskv"

	"github.com/hscells/stride/analysis"
	"github.com/hscells/stride/stats"
)

// countingMeasurement records how many times it was actually computed.
type countingMeasurement struct {
	executions *int
}

func (c countingMeasurement) Name() string {
	return "Counting"
}

func (c countingMeasurement) Execute(column []float64, s stats.StatisticsSource) (float64, error) {
	*c.executions++
	return s.Mean(column)
}

func TestMeasurements(t *testing.T) {
	column := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	source := stats.NewSensorStatisticsSource()
	executor := analysis.NewMemoryMeasurementExecutor()

	values, err := executor.Execute(column, source, analysis.MeanValue, analysis.StandardDeviation, analysis.LowerDecile, analysis.UpperDecile)
	if err != nil {
		t.Fatal(err)
	}
	if values[0] != 5.5 {
		t.Errorf("mean %f, expected 5.5", values[0])
	}
	if math.Abs(values[1]-math.Sqrt(8.25)) > 1e-9 {
		t.Errorf("deviation %f, expected %f", values[1], math.Sqrt(8.25))
	}
	if values[2] != 1 {
		t.Errorf("lower decile %f, expected 1", values[2])
	}
	if values[3] != 9 {
		t.Errorf("upper decile %f, expected 9", values[3])
	}
}

func TestExecutorCachesByContent(t *testing.T) {
	executions := 0
	measurement := countingMeasurement{executions: &executions}
	executor := analysis.NewMemoryMeasurementExecutor()
	source := stats.NewSensorStatisticsSource()

	column := []float64{1, 2, 3}
	if _, err := executor.Execute(column, source, measurement); err != nil {
		t.Fatal(err)
	}
	if _, err := executor.Execute(column, source, measurement); err != nil {
		t.Fatal(err)
	}
	if executions != 1 {
		t.Errorf("expected 1 execution after a cache hit, got %d", executions)
	}

	// An identical copy shares the cache entry; different content does not.
	if _, err := executor.Execute([]float64{1, 2, 3}, source, measurement); err != nil {
		t.Fatal(err)
	}
	if executions != 1 {
		t.Errorf("expected content-addressed caching, got %d executions", executions)
	}
	if _, err := executor.Execute([]float64{3, 2, 1}, source, measurement); err != nil {
		t.Fatal(err)
	}
	if executions != 2 {
		t.Errorf("expected a different column to execute again, got %d executions", executions)
	}
}

func TestDiskExecutorPersists(t *testing.T) {
	dir, err := ioutil.TempDir("", "stride")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	newExecutor := func() analysis.MeasurementExecutor {
		return analysis.NewDiskMeasurementExecutor(diskv.New(diskv.Options{
			BasePath:  dir,
			Transform: analysis.BlockTransform(8),
		}))
	}

	executions := 0
	measurement := countingMeasurement{executions: &executions}
	source := stats.NewSensorStatisticsSource()
	column := []float64{4, 5, 6}

	if _, err := newExecutor().Execute(column, source, measurement); err != nil {
		t.Fatal(err)
	}
	// A fresh executor over the same directory reads the persisted value.
	values, err := newExecutor().Execute(column, source, measurement)
	if err != nil {
		t.Fatal(err)
	}
	if executions != 1 {
		t.Errorf("expected the disk cache to serve the second execution, got %d executions", executions)
	}
	if values[0] != 5 {
		t.Errorf("cached mean %f, expected 5", values[0])
	}
}

func TestBlockTransform(t *testing.T) {
	blocks := analysis.BlockTransform(4)("abcdefgh1")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0] != "abcd" || blocks[1] != "efgh" {
		t.Errorf("expected blocks [abcd efgh], got %v", blocks)
	}
}
