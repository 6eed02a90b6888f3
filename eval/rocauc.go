package eval

import (
	"math"
	"sort"
)

type rocAUC struct{}

// ROCAUCEvaluator calculates multi-class ROC-AUC one-vs-rest against
// one-hot-encoded ground truth, averaged over classes. A class absent from
// the partition (or covering all of it) has no defined curve and returns NaN
// for the whole score, since a run that produces such a partition has no
// meaningful report.
var ROCAUCEvaluator = rocAUC{}

func (rocAUC) Name() string {
	return "ROC-AUC"
}

func (rocAUC) Score(p *Prediction) float64 {
	var sum float64
	for c := 0; c < p.Classes; c++ {
		auc := binaryAUC(p, c)
		if math.IsNaN(auc) {
			return math.NaN()
		}
		sum += auc
	}
	return sum / float64(p.Classes)
}

// binaryAUC computes the one-vs-rest AUC for one class from the predicted
// probability of that class, using the rank statistic with midranks for ties.
func binaryAUC(p *Prediction, class int) float64 {
	n := len(p.Actual)
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		scores[i] = p.Probabilities.At(i, class)
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] < scores[order[b]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && scores[order[j]] == scores[order[i]] {
			j++
		}
		// Midrank over the tied group.
		rank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = rank
		}
		i = j
	}

	var positives, rankSum float64
	for i := 0; i < n; i++ {
		if p.Actual[i] == class {
			positives++
			rankSum += ranks[i]
		}
	}
	negatives := float64(n) - positives
	if positives == 0 || negatives == 0 {
		return math.NaN()
	}
	return (rankSum - positives*(positives+1)/2) / (positives * negatives)
}
