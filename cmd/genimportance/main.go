package main

import (
	"fmt"
	"log"

	"github.com/alexflint/go-arg"

	"github.com/hscells/stride"
	"github.com/hscells/stride/dataset"
	"github.com/hscells/stride/learning"
	"github.com/hscells/stride/output"
	"github.com/hscells/stride/preprocess"
	"github.com/hscells/stride/stats"
)

type args struct {
	Dataset   string `arg:"help:path to the sensor feature dataset,required"`
	Winsorise bool   `arg:"help:clamp outliers before ranking"`
	Chart     string `arg:"help:path to write a feature importance chart"`
}

func (args) Version() string {
	return "genimportance 4.Sep.2020"
}

func (args) Description() string {
	return `rank sensor features by cross-validated lasso importance`
}

func main() {
	var args args
	arg.MustParse(&args)

	table, err := dataset.NewCSVSource().Load(args.Dataset)
	if err != nil {
		log.Fatal(err)
	}
	encoder := dataset.NewLabelEncoder(table.Labels)
	labels, err := encoder.EncodeAll(table.Labels)
	if err != nil {
		log.Fatal(err)
	}

	executor := stride.NewMeasurementExecutor()
	statistics := stats.NewSensorStatisticsSource()
	transformers := []preprocess.Transformer{preprocess.NewStandardScaler(executor, statistics)}
	if args.Winsorise {
		transformers = append([]preprocess.Transformer{preprocess.NewWinsoriser(executor, statistics)}, transformers...)
	}
	matrix, err := preprocess.Apply(table.X, transformers...)
	if err != nil {
		log.Fatal(err)
	}

	selector := learning.NewFeatureSelector(learning.NonZero)
	indices, err := selector.Select(matrix, labels)
	if err != nil {
		log.Fatal(err)
	}
	importance := selector.Importance()
	names := make([]string, len(indices))
	for i, idx := range indices {
		names[i] = table.Names[idx]
		fmt.Printf("%s %f\n", table.Names[idx], importance[i])
	}

	if len(args.Chart) > 0 {
		if err := output.ImportanceChart(names, importance, args.Chart); err != nil {
			log.Fatal(err)
		}
	}
}
