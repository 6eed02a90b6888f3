package main

import (
	"fmt"
	"io/ioutil"
	"log"

	"github.com/alexflint/go-arg"

	"github.com/hscells/stride"
	"github.com/hscells/stride/dataset"
	"github.com/hscells/stride/pipeline"
)

type args struct {
	Dataset    string `arg:"help:path to the sensor feature dataset,required"`
	Variant    int    `arg:"help:experiment variant to run (1=attention; 2=sparse)"`
	Parameters string `arg:"help:properties file overriding experiment hyper-parameters"`
	Chart      string `arg:"help:path to write the feature importance chart (variant 2)"`
	Report     string `arg:"help:file to additionally write the report to"`
}

func (args) Version() string {
	return "stride 4.Sep.2020"
}

func (args) Description() string {
	return `train and evaluate a sensor-activity recognition classifier`
}

func main() {
	var args args
	args.Variant = 1
	args.Chart = "importance.png"
	arg.MustParse(&args)

	parameters := stride.DefaultParameters()
	if len(args.Parameters) > 0 {
		var err error
		parameters, err = stride.LoadParameters(args.Parameters)
		if err != nil {
			log.Fatal(err)
		}
	}

	source := dataset.NewCSVSource()
	var p stride.Pipeline
	switch args.Variant {
	case 1:
		p = stride.AttentionVariant(source, args.Dataset, parameters)
	case 2:
		p = stride.SparseVariant(source, args.Dataset, parameters, args.Chart)
	default:
		log.Fatalf("unknown variant %d", args.Variant)
	}

	c := make(chan pipeline.Result)
	go p.Execute(c)

	for result := range c {
		switch result.Type {
		case pipeline.Report:
			fmt.Print(result.Report)
			if len(args.Report) > 0 {
				if err := ioutil.WriteFile(args.Report, []byte(result.Report), 0644); err != nil {
					log.Fatal(err)
				}
			}
		case pipeline.Error:
			log.Fatal(result.Error)
		case pipeline.Done:
			return
		}
	}
}
