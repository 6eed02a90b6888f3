package analysis

import (
	"fmt"
	"hash/fnv"
	"math"
	"strconv"

	lru "github.com/hashicorp/golang-lru"
	"github.com/peterbourgon/diskv"
	"github.com/pkg/errors"

	"github.com/hscells/stride/stats"
)

// MeasurementExecutor executes measurements while caching the results of
// previous executions. Column measurements are content-addressed, so two
// identical columns share a cache entry.
type MeasurementExecutor struct {
	cache *lru.Cache
	disk  *diskv.Diskv
}

const memoryCacheSize = 4096

// NewMemoryMeasurementExecutor creates a measurement executor that caches measurements in memory.
func NewMemoryMeasurementExecutor() MeasurementExecutor {
	cache, _ := lru.New(memoryCacheSize)
	return MeasurementExecutor{cache: cache}
}

// NewDiskMeasurementExecutor creates a measurement executor that caches
// measurements to disk, with an in-memory cache in front of it.
func NewDiskMeasurementExecutor(d *diskv.Diskv) MeasurementExecutor {
	cache, _ := lru.New(memoryCacheSize)
	return MeasurementExecutor{cache: cache, disk: d}
}

// BlockTransform splits cache keys into directory blocks of the given size.
func BlockTransform(blockSize int) func(string) []string {
	return func(s string) []string {
		var (
			sliceSize = len(s) / blockSize
			pathSlice = make([]string, sliceSize)
		)
		for i := 0; i < sliceSize; i++ {
			from, to := i*blockSize, (i*blockSize)+blockSize
			pathSlice[i] = s[from:to]
		}
		return pathSlice
	}
}

func hashColumn(column []float64) string {
	h := fnv.New64a()
	buf := make([]byte, 8)
	for _, v := range column {
		bits := math.Float64bits(v)
		for k := 0; k < 8; k++ {
			buf[k] = byte(bits >> (8 * uint(k)))
		}
		_, _ = h.Write(buf)
	}
	return fmt.Sprintf("%x", h.Sum64())
}

func (m MeasurementExecutor) read(key string) (float64, bool) {
	if v, ok := m.cache.Get(key); ok {
		return v.(float64), true
	}
	if m.disk != nil && m.disk.Has(key) {
		b, err := m.disk.Read(key)
		if err != nil {
			return 0, false
		}
		v, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return 0, false
		}
		m.cache.Add(key, v)
		return v, true
	}
	return 0, false
}

func (m MeasurementExecutor) write(key string, v float64) error {
	m.cache.Add(key, v)
	if m.disk != nil {
		return m.disk.Write(key, []byte(strconv.FormatFloat(v, 'g', -1, 64)))
	}
	return nil
}

// Execute computes the specified measurements for a feature column, reading
// previously computed values from the cache where possible.
func (m MeasurementExecutor) Execute(column []float64, s stats.StatisticsSource, measurements ...Measurement) ([]float64, error) {
	results := make([]float64, len(measurements))
	columnHash := hashColumn(column)
	for i, measurement := range measurements {
		key := fmt.Sprintf("%s%s", columnHash, measurement.Name())
		if v, ok := m.read(key); ok {
			results[i] = v
			continue
		}
		v, err := measurement.Execute(column, s)
		if err != nil {
			return nil, errors.Wrapf(err, "could not measure %s", measurement.Name())
		}
		if err := m.write(key, v); err != nil {
			return nil, errors.Wrapf(err, "could not cache %s", measurement.Name())
		}
		results[i] = v
	}
	return results, nil
}
