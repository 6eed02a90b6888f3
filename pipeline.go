// Package stride provides a framework for constructing reproducible
// sensor-activity recognition experiments.
package stride

import (
	"log"
	"math/rand"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/peterbourgon/diskv"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/hscells/stride/analysis"
	"github.com/hscells/stride/dataset"
	"github.com/hscells/stride/eval"
	"github.com/hscells/stride/learning"
	"github.com/hscells/stride/output"
	"github.com/hscells/stride/pipeline"
	"github.com/hscells/stride/preprocess"
	"github.com/hscells/stride/split"
)

// Pipeline contains all the information for executing an activity
// recognition experiment: every stage from loading the dataset through to
// formatting the evaluation report.
type Pipeline struct {
	DatasetPath          string
	Source               dataset.Source
	Preprocess           []preprocess.Transformer
	Selector             *learning.FeatureSelector
	Trainer              *learning.CrossValidatedTrainer
	Evaluations          []eval.Evaluator
	EvaluationFormatters []output.EvaluationFormatter
	ChartPath            string
	Parameters           Parameters
}

type chartPath string

// Preprocess adds feature transformers to the pipeline.
func Preprocess(transformers ...preprocess.Transformer) func() interface{} {
	return func() interface{} {
		return transformers
	}
}

// Selection sets the feature selector of the pipeline.
func Selection(selector *learning.FeatureSelector) func() interface{} {
	return func() interface{} {
		return selector
	}
}

// Training sets the cross-validated trainer of the pipeline.
func Training(trainer *learning.CrossValidatedTrainer) func() interface{} {
	return func() interface{} {
		return trainer
	}
}

// Evaluation adds evaluation measures to the pipeline.
func Evaluation(measures ...eval.Evaluator) func() interface{} {
	return func() interface{} {
		return measures
	}
}

// EvaluationOutput adds report formatters to the pipeline.
func EvaluationOutput(formatters ...output.EvaluationFormatter) func() interface{} {
	return func() interface{} {
		return formatters
	}
}

// Chart configures a feature-importance chart output.
func Chart(path string) func() interface{} {
	return func() interface{} {
		return chartPath(path)
	}
}

// Experiment sets the hyper-parameters of the pipeline.
func Experiment(parameters Parameters) func() interface{} {
	return func() interface{} {
		return parameters
	}
}

// NewPipeline creates a new stride pipeline. The dataset source and path are
// required. Additional components are provided via the optional functional
// arguments.
func NewPipeline(source dataset.Source, datasetPath string, components ...func() interface{}) Pipeline {
	p := Pipeline{
		Source:      source,
		DatasetPath: datasetPath,
		Parameters:  DefaultParameters(),
	}
	for _, component := range components {
		val := component()
		switch v := val.(type) {
		case []preprocess.Transformer:
			p.Preprocess = v
		case *learning.FeatureSelector:
			p.Selector = v
		case *learning.CrossValidatedTrainer:
			p.Trainer = v
		case []eval.Evaluator:
			p.Evaluations = v
		case []output.EvaluationFormatter:
			p.EvaluationFormatters = v
		case chartPath:
			p.ChartPath = string(v)
		case Parameters:
			p.Parameters = v
		}
	}
	return p
}

// NewMeasurementExecutor creates the executor pipelines cache column
// statistics with: a disk cache under the user cache directory fronted by
// memory, falling back to memory only when no cache directory is available.
func NewMeasurementExecutor() analysis.MeasurementExecutor {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return analysis.NewMemoryMeasurementExecutor()
	}
	return analysis.NewDiskMeasurementExecutor(diskv.New(diskv.Options{
		BasePath:     path.Join(cacheDir, "stride", "statistics_cache"),
		Transform:    analysis.BlockTransform(8),
		CacheSizeMax: 4096 * 1024,
	}))
}

// Execute runs a stride pipeline over the configured dataset. Data flows
// strictly forward through the stages; the first error of any stage
// terminates the run with no partial output.
func (p Pipeline) Execute(c chan pipeline.Result) {
	defer close(c)
	runID := uuid.New().String()
	log.Printf("starting stride pipeline %s...\n", runID)

	fail := func(err error) {
		c <- pipeline.Result{RunID: runID, Error: err, Type: pipeline.Error}
	}

	log.Println("loading dataset...")
	table, err := p.Source.Load(p.DatasetPath)
	if err != nil {
		fail(err)
		return
	}
	log.Printf("loaded dataset %s (%d recordings, %d features)\n", table.Hash(), table.Rows(), table.Features())

	log.Println("encoding labels...")
	encoder := dataset.NewLabelEncoder(table.Labels)
	labels, err := encoder.EncodeAll(table.Labels)
	if err != nil {
		fail(err)
		return
	}
	classes := len(encoder.Classes())
	if classes < 2 {
		fail(errors.Errorf("dataset has %d activity classes, need at least 2", classes))
		return
	}
	c <- pipeline.Result{
		RunID: runID,
		Measurements: map[string]float64{
			"Recordings": float64(table.Rows()),
			"Features":   float64(table.Features()),
			"Classes":    float64(classes),
		},
		Type: pipeline.Measurement,
	}

	// Transformers and the selector are fit over the full feature matrix
	// before the test partition is carved out, reproducing the statistics
	// of the original experiments.
	matrix := table.X
	if len(p.Preprocess) > 0 {
		log.Println("preprocessing features...")
		matrix, err = preprocess.Apply(matrix, p.Preprocess...)
		if err != nil {
			fail(err)
			return
		}
	}

	if p.Selector == nil {
		fail(errors.New("pipeline has no feature selector"))
		return
	}
	log.Println("selecting features...")
	indices, err := p.Selector.Select(matrix, labels)
	if err != nil {
		fail(err)
		return
	}
	names := make([]string, len(indices))
	for i, idx := range indices {
		names[i] = table.Names[idx]
	}
	importance := p.Selector.Importance()
	log.Printf("selected %d of %d features\n", len(indices), table.Features())
	c <- pipeline.Result{
		RunID: runID,
		Selection: pipeline.SelectionResult{
			Indices:    indices,
			Importance: importance,
			Names:      names,
		},
		Type: pipeline.Selection,
	}

	selected, err := p.Selector.Project(matrix)
	if err != nil {
		fail(err)
		return
	}

	log.Println("holding out test partition...")
	rng := rand.New(rand.NewSource(p.Parameters.Seed))
	train, test, err := split.Holdout(labels, p.Parameters.TestFraction, rng)
	if err != nil {
		fail(err)
		return
	}

	if p.Trainer == nil {
		fail(errors.New("pipeline has no trainer"))
		return
	}
	best, bestOutcome, outcomes, err := p.Trainer.Train(selected, labels, train, classes)
	if err != nil {
		fail(err)
		return
	}
	for _, outcome := range outcomes {
		c <- pipeline.Result{
			RunID: runID,
			Fold: pipeline.FoldResult{
				Fold:               outcome.Fold,
				ValidationAccuracy: outcome.ValidationAccuracy,
				TrainingTime:       outcome.TrainingTime,
			},
			Type: pipeline.Fold,
		}
	}

	log.Printf("evaluating best fold (%d) on %d held-out recordings...\n", bestOutcome.Fold, len(test))
	testMatrix := subsetRows(selected, test)
	start := time.Now()
	probabilities, err := best.PredictProba(testMatrix)
	if err != nil {
		fail(err)
		return
	}
	inference := time.Since(start)

	prediction := &eval.Prediction{
		Predicted:     argmaxRows(probabilities),
		Actual:        subsetInts(labels, test),
		Probabilities: probabilities,
		Classes:       classes,
	}
	scores := eval.Evaluate(p.Evaluations, prediction)
	c <- pipeline.Result{RunID: runID, Evaluation: scores, Type: pipeline.Evaluation}

	evaluation := output.Evaluation{
		RunID:         runID,
		Scores:        scores,
		TrainingTime:  bestOutcome.TrainingTime,
		InferenceTime: inference,
	}
	for _, formatter := range p.EvaluationFormatters {
		report, err := formatter(evaluation)
		if err != nil {
			fail(err)
			return
		}
		c <- pipeline.Result{RunID: runID, Report: report, Type: pipeline.Report}
	}

	if len(p.ChartPath) > 0 {
		log.Printf("rendering feature importance chart to %s...\n", p.ChartPath)
		if err := output.ImportanceChart(names, importance, p.ChartPath); err != nil {
			fail(err)
			return
		}
	}

	c <- pipeline.Result{RunID: runID, Type: pipeline.Done}
}

func subsetRows(x *mat.Dense, indices []int) *mat.Dense {
	_, cols := x.Dims()
	y := mat.NewDense(len(indices), cols, nil)
	for i, idx := range indices {
		y.SetRow(i, x.RawRowView(idx))
	}
	return y
}

func subsetInts(v []int, indices []int) []int {
	out := make([]int, len(indices))
	for i, idx := range indices {
		out[i] = v[idx]
	}
	return out
}

func argmaxRows(probabilities *mat.Dense) []int {
	n, classes := probabilities.Dims()
	predicted := make([]int, n)
	for i := 0; i < n; i++ {
		best := 0
		for c := 1; c < classes; c++ {
			if probabilities.At(i, c) > probabilities.At(i, best) {
				best = c
			}
		}
		predicted[i] = best
	}
	return predicted
}
