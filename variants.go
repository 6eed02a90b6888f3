package stride

import (
	"github.com/hscells/stride/dataset"
	"github.com/hscells/stride/eval"
	"github.com/hscells/stride/learning"
	"github.com/hscells/stride/output"
	"github.com/hscells/stride/preprocess"
	"github.com/hscells/stride/stats"
)

var defaultEvaluations = []eval.Evaluator{
	eval.AccuracyEvaluator,
	eval.WeightedPrecision,
	eval.WeightedRecall,
	eval.SpecificityEvaluator,
	eval.WeightedF1,
	eval.ROCAUCEvaluator,
}

func trainer(parameters Parameters, attention bool) *learning.CrossValidatedTrainer {
	t := learning.NewCrossValidatedTrainer(parameters.NetworkConfig(attention))
	t.Folds = parameters.Folds
	return t
}

func selector(parameters Parameters, policy learning.SelectionPolicy) *learning.FeatureSelector {
	s := learning.NewFeatureSelector(policy)
	s.Lasso.Seed = parameters.Seed
	return s
}

// AttentionVariant constructs the experiment that keeps the 150 most
// important features and gates network channels with attention.
func AttentionVariant(source dataset.Source, datasetPath string, parameters Parameters) Pipeline {
	executor := NewMeasurementExecutor()
	statistics := stats.NewSensorStatisticsSource()
	return NewPipeline(source, datasetPath,
		Experiment(parameters),
		Preprocess(preprocess.NewStandardScaler(executor, statistics)),
		Selection(selector(parameters, learning.TopK(parameters.TopK))),
		Training(trainer(parameters, true)),
		Evaluation(defaultEvaluations...),
		EvaluationOutput(output.TextEvaluationFormatter),
	)
}

// SparseVariant constructs the experiment that winsorises outliers, keeps
// every feature with a non-zero lasso coefficient, and renders a chart of
// their importances.
func SparseVariant(source dataset.Source, datasetPath string, parameters Parameters, chart string) Pipeline {
	executor := NewMeasurementExecutor()
	statistics := stats.NewSensorStatisticsSource()
	winsoriser := preprocess.NewWinsoriser(executor, statistics)
	winsoriser.Lower = parameters.WinsoriseLower
	winsoriser.Upper = parameters.WinsoriseUpper
	return NewPipeline(source, datasetPath,
		Experiment(parameters),
		Preprocess(winsoriser, preprocess.NewStandardScaler(executor, statistics)),
		Selection(selector(parameters, learning.NonZero)),
		Training(trainer(parameters, false)),
		Evaluation(defaultEvaluations...),
		EvaluationOutput(output.TextEvaluationFormatter),
		Chart(chart),
	)
}
