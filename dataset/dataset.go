// Package dataset provides sources for loading sensor feature tables in different formats.
package dataset

import (
	"encoding/csv"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Source represents a source for sensor recordings and how to parse them.
type Source interface {
	// Load determines how a table of recordings is loaded and parsed into the in-memory representation.
	Load(path string) (*Table, error)
}

// Table is an in-memory table of sensor recordings. Each row is one recording,
// each column one numeric feature reading, plus one categorical activity label
// per row. Rows of X align 1:1 with Labels.
type Table struct {
	Names  []string
	X      *mat.Dense
	Labels []string
}

// Rows is the number of recordings in the table.
func (t *Table) Rows() int {
	r, _ := t.X.Dims()
	return r
}

// Features is the number of feature columns in the table.
func (t *Table) Features() int {
	_, c := t.X.Dims()
	return c
}

// Hash computes a content hash of the table, identifying the dataset across runs.
func (t *Table) Hash() string {
	h := fnv.New64a()
	for _, name := range t.Names {
		_, _ = h.Write([]byte(name))
	}
	r, c := t.X.Dims()
	buf := make([]byte, 8)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := math.Float64bits(t.X.At(i, j))
			for k := 0; k < 8; k++ {
				buf[k] = byte(v >> (8 * uint(k)))
			}
			_, _ = h.Write(buf)
		}
	}
	return fmt.Sprintf("%x", h.Sum64())
}

// CSVSource loads recordings from a delimited file with one header row,
// one categorical label column, and numeric readings in every other column.
type CSVSource struct {
	LabelColumn string
	Comma       rune
}

// NewCSVSource creates a source for comma-delimited files labelled by an Activity column.
func NewCSVSource() CSVSource {
	return CSVSource{LabelColumn: "Activity", Comma: ','}
}

// Load reads and parses a delimited file of sensor recordings.
func (s CSVSource) Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open dataset %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = s.Comma
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse dataset %s", path)
	}
	if len(records) < 2 {
		return nil, errors.Errorf("dataset %s contains no recordings", path)
	}

	header := records[0]
	labelIdx := -1
	for i, name := range header {
		if name == s.LabelColumn {
			labelIdx = i
			break
		}
	}
	if labelIdx < 0 {
		return nil, errors.Errorf("dataset %s has no %s column", path, s.LabelColumn)
	}

	names := make([]string, 0, len(header)-1)
	for i, name := range header {
		if i != labelIdx {
			names = append(names, name)
		}
	}

	rows := len(records) - 1
	cols := len(names)
	x := mat.NewDense(rows, cols, nil)
	labels := make([]string, rows)
	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, errors.Errorf("row %d of %s has %d values, expected %d", i+1, path, len(record), len(header))
		}
		j := 0
		for k, value := range record {
			if k == labelIdx {
				labels[i] = value
				continue
			}
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %s of %s is not numeric", i+1, header[k], path)
			}
			x.Set(i, j, v)
			j++
		}
	}

	return &Table{Names: names, X: x, Labels: labels}, nil
}
