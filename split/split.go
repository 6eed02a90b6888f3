// Package split partitions recordings into train, validation and test sets.
package split

import (
	"math/rand"
	"sort"

	"github.com/pkg/errors"
	"github.com/xtgo/set"
)

// Holdout splits row indices into a train and test partition, preserving the
// proportion of each class. The per-class test count is the class size times
// the test fraction, rounded to the nearest whole recording. A fraction that
// leaves either partition empty is an error.
func Holdout(labels []int, testFraction float64, rng *rand.Rand) (train, test []int, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, errors.Errorf("test fraction %f out of range", testFraction)
	}
	for _, indices := range shuffledClassIndices(labels, rng) {
		n := int(float64(len(indices))*testFraction + 0.5)
		test = append(test, indices[:n]...)
		train = append(train, indices[n:]...)
	}
	if len(train) == 0 || len(test) == 0 {
		return nil, nil, errors.Errorf("holding out %g of %d recordings leaves an empty partition", testFraction, len(labels))
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

// Stratified splits the given row indices into k folds, preserving the
// proportion of each class across folds. Every index appears in exactly one
// fold, and every fold must receive at least one recording.
func Stratified(labels []int, indices []int, k int, rng *rand.Rand) ([][]int, error) {
	if k < 2 {
		return nil, errors.Errorf("cannot split into %d folds", k)
	}
	if len(indices) < k {
		return nil, errors.Errorf("cannot split %d recordings into %d folds", len(indices), k)
	}
	subset := make([]int, len(labels))
	for i := range subset {
		subset[i] = -1
	}
	for _, i := range indices {
		subset[i] = labels[i]
	}
	folds := make([][]int, k)
	for _, classIndices := range shuffledClassIndices(subset, rng) {
		for i, idx := range classIndices {
			folds[i%k] = append(folds[i%k], idx)
		}
	}
	for i := range folds {
		if len(folds[i]) == 0 {
			return nil, errors.Errorf("fold %d is empty splitting %d recordings into %d folds", i+1, len(indices), k)
		}
		sort.Ints(folds[i])
	}
	return folds, nil
}

// shuffledClassIndices groups row indices by class and shuffles each group.
// Rows labelled -1 are excluded. Classes are visited in a stable order.
func shuffledClassIndices(labels []int, rng *rand.Rand) [][]int {
	byClass := make(map[int][]int)
	var classes []int
	for i, label := range labels {
		if label < 0 {
			continue
		}
		if _, ok := byClass[label]; !ok {
			classes = append(classes, label)
		}
		byClass[label] = append(byClass[label], i)
	}
	sort.Ints(classes)
	groups := make([][]int, len(classes))
	for i, class := range classes {
		indices := byClass[class]
		rng.Shuffle(len(indices), func(a, b int) {
			indices[a], indices[b] = indices[b], indices[a]
		})
		groups[i] = indices
	}
	return groups
}

// Disjoint reports whether two sorted index partitions share no rows.
func Disjoint(a, b []int) bool {
	data := make([]int, 0, len(a)+len(b))
	data = append(data, a...)
	data = append(data, b...)
	n := set.Inter(sort.IntSlice(data), len(a))
	return n == 0
}

// Exhaustive reports whether the sorted partitions cover every row index in [0, n).
func Exhaustive(n int, partitions ...[]int) bool {
	var data []int
	pivot := 0
	for _, p := range partitions {
		data = append(data, p...)
		size := set.Union(sort.IntSlice(data), pivot)
		data = data[:size]
		pivot = size
	}
	if len(data) != n {
		return false
	}
	for i, v := range data {
		if v != i {
			return false
		}
	}
	return true
}
