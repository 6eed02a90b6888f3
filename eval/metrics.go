package eval

type accuracyEvaluator struct{}
type weightedPrecision struct{}
type weightedRecall struct{}
type specificityEvaluator struct{}
type weightedF1 struct{}

var (
	// AccuracyEvaluator calculates the fraction of correctly predicted recordings.
	AccuracyEvaluator = accuracyEvaluator{}
	// WeightedPrecision calculates precision averaged over classes, weighted by class support.
	WeightedPrecision = weightedPrecision{}
	// WeightedRecall calculates recall averaged over classes, weighted by class support.
	WeightedRecall = weightedRecall{}
	// SpecificityEvaluator calculates the mean of the confusion-matrix
	// diagonal divided by row sums. The formula is kept exactly as the
	// experiments reported it; it averages per-class recall rather than
	// per-class true-negative rate.
	SpecificityEvaluator = specificityEvaluator{}
	// WeightedF1 calculates F1 averaged over classes, weighted by class support.
	WeightedF1 = weightedF1{}
)

func (accuracyEvaluator) Name() string {
	return "Accuracy"
}

func (accuracyEvaluator) Score(p *Prediction) float64 {
	if len(p.Actual) == 0 {
		return 0
	}
	correct := 0
	for i := range p.Actual {
		if p.Predicted[i] == p.Actual[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(p.Actual))
}

// perClass computes per-class precision, recall, F1 and support.
func perClass(p *Prediction) (precision, recall, f1, support []float64) {
	m := ConfusionMatrix(p)
	precision = make([]float64, p.Classes)
	recall = make([]float64, p.Classes)
	f1 = make([]float64, p.Classes)
	support = make([]float64, p.Classes)
	for c := 0; c < p.Classes; c++ {
		var predicted, actual float64
		for k := 0; k < p.Classes; k++ {
			predicted += m[k][c]
			actual += m[c][k]
		}
		tp := m[c][c]
		support[c] = actual
		if predicted > 0 {
			precision[c] = tp / predicted
		}
		if actual > 0 {
			recall[c] = tp / actual
		}
		if precision[c]+recall[c] > 0 {
			f1[c] = 2 * precision[c] * recall[c] / (precision[c] + recall[c])
		}
	}
	return
}

func weightedAverage(values, support []float64) float64 {
	var sum, total float64
	for c := range values {
		sum += values[c] * support[c]
		total += support[c]
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

func (weightedPrecision) Name() string {
	return "Precision"
}

func (weightedPrecision) Score(p *Prediction) float64 {
	precision, _, _, support := perClass(p)
	return weightedAverage(precision, support)
}

func (weightedRecall) Name() string {
	return "Recall"
}

func (weightedRecall) Score(p *Prediction) float64 {
	_, recall, _, support := perClass(p)
	return weightedAverage(recall, support)
}

func (specificityEvaluator) Name() string {
	return "Specificity"
}

func (specificityEvaluator) Score(p *Prediction) float64 {
	m := ConfusionMatrix(p)
	var sum float64
	n := 0
	for c := 0; c < p.Classes; c++ {
		var row float64
		for k := 0; k < p.Classes; k++ {
			row += m[c][k]
		}
		if row > 0 {
			sum += m[c][c] / row
		}
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (weightedF1) Name() string {
	return "F1"
}

func (weightedF1) Score(p *Prediction) float64 {
	_, _, f1, support := perClass(p)
	return weightedAverage(f1, support)
}
