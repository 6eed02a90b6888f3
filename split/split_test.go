package split_test

import (
	"math/rand"
	"testing"

	"github.com/hscells/stride/split"
)

func labelled(perClass, classes int) []int {
	labels := make([]int, 0, perClass*classes)
	for c := 0; c < classes; c++ {
		for i := 0; i < perClass; i++ {
			labels = append(labels, c)
		}
	}
	return labels
}

func TestHoldoutPartition(t *testing.T) {
	labels := labelled(10, 3)
	train, test, err := split.Holdout(labels, 0.2, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatal(err)
	}
	if !split.Disjoint(train, test) {
		t.Error("expected train and test to be disjoint")
	}
	if !split.Exhaustive(len(labels), train, test) {
		t.Error("expected train and test to cover every row")
	}
	if len(test) != 6 {
		t.Errorf("expected 6 test rows, got %d", len(test))
	}
	// Stratification: two test rows per class.
	counts := make(map[int]int)
	for _, idx := range test {
		counts[labels[idx]]++
	}
	for c := 0; c < 3; c++ {
		if counts[c] != 2 {
			t.Errorf("expected 2 test rows of class %d, got %d", c, counts[c])
		}
	}
}

func TestHoldoutSmallClasses(t *testing.T) {
	// Two classes with three recordings each at a 20% test fraction.
	labels := labelled(3, 2)
	train, test, err := split.Holdout(labels, 0.2, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatal(err)
	}
	if len(test) != 2 {
		t.Errorf("expected 2 test rows (one per class), got %d", len(test))
	}
	if !split.Exhaustive(len(labels), train, test) {
		t.Error("expected an exhaustive partition")
	}
}

func TestHoldoutEmptyTestPartition(t *testing.T) {
	// Two recordings per class at a 20% fraction round down to zero test
	// rows per class; that must surface as an error, not an empty partition.
	if _, _, err := split.Holdout(labelled(2, 2), 0.2, rand.New(rand.NewSource(42))); err == nil {
		t.Fatal("expected an error when no recordings reach the test partition")
	}
}

func TestHoldoutEmptyTrainPartition(t *testing.T) {
	if _, _, err := split.Holdout(labelled(1, 2), 0.9, rand.New(rand.NewSource(42))); err == nil {
		t.Fatal("expected an error when every recording lands in the test partition")
	}
}

func TestHoldoutBadFraction(t *testing.T) {
	if _, _, err := split.Holdout(labelled(5, 2), 0, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected an error for a zero test fraction")
	}
	if _, _, err := split.Holdout(labelled(5, 2), 1, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected an error for a full test fraction")
	}
}

func TestStratifiedFolds(t *testing.T) {
	labels := labelled(8, 2)
	indices := make([]int, len(labels))
	for i := range indices {
		indices[i] = i
	}
	folds, err := split.Stratified(labels, indices, 2, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatal(err)
	}
	if len(folds) != 2 {
		t.Fatalf("expected 2 folds, got %d", len(folds))
	}
	if !split.Disjoint(folds[0], folds[1]) {
		t.Error("expected folds to be disjoint")
	}
	if !split.Exhaustive(len(labels), folds...) {
		t.Error("expected folds to cover every row")
	}
	for i, fold := range folds {
		counts := make(map[int]int)
		for _, idx := range fold {
			counts[labels[idx]]++
		}
		for c := 0; c < 2; c++ {
			if counts[c] != 4 {
				t.Errorf("fold %d has %d rows of class %d, expected 4", i, counts[c], c)
			}
		}
	}
}

func TestStratifiedSubset(t *testing.T) {
	labels := labelled(6, 2)
	// Only split the first four rows of each class.
	indices := []int{0, 1, 2, 3, 6, 7, 8, 9}
	folds, err := split.Stratified(labels, indices, 2, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}
	var total int
	for _, fold := range folds {
		total += len(fold)
		for _, idx := range fold {
			if idx == 4 || idx == 5 || idx == 10 || idx == 11 {
				t.Errorf("row %d was not in the split subset", idx)
			}
		}
	}
	if total != len(indices) {
		t.Errorf("expected %d rows across folds, got %d", len(indices), total)
	}
}

func TestStratifiedEmptyFold(t *testing.T) {
	// One recording per class: the per-class round-robin puts both in the
	// first fold, leaving the second empty.
	if _, err := split.Stratified([]int{0, 1}, []int{0, 1}, 2, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected an error when a fold receives no recordings")
	}
}

func TestStratifiedTooFewRows(t *testing.T) {
	if _, err := split.Stratified([]int{0}, []int{0}, 2, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected an error splitting one row into two folds")
	}
}
