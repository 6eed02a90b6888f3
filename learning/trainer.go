package learning

import (
	"log"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/hscells/stride/split"
)

// FoldOutcome records the outcome of training one cross-validation fold.
type FoldOutcome struct {
	Fold               int
	ValidationAccuracy float64
	TrainingTime       time.Duration
}

// CrossValidatedTrainer selects the best network over stratified folds of
// the training partition. Each fold trains a fresh network with no weight
// reuse, using the other rows of the partition as validation; the network
// with the strictly highest validation accuracy is retained.
type CrossValidatedTrainer struct {
	Folds  int
	Seed   int64
	Config TCNConfig
}

// NewCrossValidatedTrainer creates a trainer over two stratified folds.
func NewCrossValidatedTrainer(config TCNConfig) *CrossValidatedTrainer {
	return &CrossValidatedTrainer{Folds: 2, Seed: config.Seed, Config: config}
}

// Train runs every fold and returns the retained best network, its outcome,
// and the outcome of every fold. Any training failure is fatal; there is no
// retry and no fallback.
func (t *CrossValidatedTrainer) Train(x *mat.Dense, labels []int, train []int, classes int) (*TCN, FoldOutcome, []FoldOutcome, error) {
	rng := rand.New(rand.NewSource(t.Seed))
	folds, err := split.Stratified(labels, train, t.Folds, rng)
	if err != nil {
		return nil, FoldOutcome{}, nil, errors.Wrap(err, "could not split training partition")
	}

	_, cols := x.Dims()
	var (
		best        *TCN
		bestOutcome FoldOutcome
		outcomes    []FoldOutcome
	)
	for i, validation := range folds {
		var trainRows []int
		for j, fold := range folds {
			if j != i {
				trainRows = append(trainRows, fold...)
			}
		}

		log.Printf("training fold %d/%d on %d recordings...\n", i+1, len(folds), len(trainRows))
		config := t.Config
		config.Seed = t.Config.Seed + int64(i)
		model, err := NewTCN(cols, classes, config)
		if err != nil {
			return nil, FoldOutcome{}, nil, errors.Wrapf(err, "could not build network for fold %d", i+1)
		}

		start := time.Now()
		if err := model.Fit(subsetRows(x, trainRows), subsetInts(labels, trainRows)); err != nil {
			return nil, FoldOutcome{}, nil, errors.Wrapf(err, "could not train fold %d", i+1)
		}
		elapsed := time.Since(start)

		predicted, err := model.Predict(subsetRows(x, validation))
		if err != nil {
			return nil, FoldOutcome{}, nil, errors.Wrapf(err, "could not validate fold %d", i+1)
		}
		correct := 0
		for j, row := range validation {
			if predicted[j] == labels[row] {
				correct++
			}
		}
		accuracy := float64(correct) / float64(len(validation))
		outcome := FoldOutcome{Fold: i + 1, ValidationAccuracy: accuracy, TrainingTime: elapsed}
		outcomes = append(outcomes, outcome)
		log.Printf("fold %d validation accuracy %.4f (%.2fs)\n", i+1, accuracy, elapsed.Seconds())

		if best == nil || accuracy > bestOutcome.ValidationAccuracy {
			best = model
			bestOutcome = outcome
		}
	}
	return best, bestOutcome, outcomes, nil
}

func subsetInts(v []int, indices []int) []int {
	out := make([]int, len(indices))
	for i, idx := range indices {
		out[i] = v[idx]
	}
	return out
}
