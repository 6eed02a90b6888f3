package stride

import (
	"github.com/magiconair/properties"
	"github.com/pkg/errors"

	"github.com/hscells/stride/learning"
)

// Parameters are the fixed hyper-parameters of an experiment run. The
// defaults reproduce the original experiments; a properties file can
// override them for further experimentation.
type Parameters struct {
	TestFraction   float64
	Folds          int
	Epochs         int
	BatchSize      int
	LearningRate   float64
	TopK           int
	WinsoriseLower float64
	WinsoriseUpper float64
	Seed           int64
}

// DefaultParameters returns the fixed experiment hyper-parameters.
func DefaultParameters() Parameters {
	return Parameters{
		TestFraction:   0.2,
		Folds:          2,
		Epochs:         20,
		BatchSize:      32,
		LearningRate:   0.001,
		TopK:           150,
		WinsoriseLower: 0.1,
		WinsoriseUpper: 0.9,
		Seed:           42,
	}
}

// LoadParameters reads parameter overrides from a properties file, keeping
// the default for any key the file does not set.
func LoadParameters(path string) (Parameters, error) {
	p := DefaultParameters()
	props, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return p, errors.Wrapf(err, "could not load parameters from %s", path)
	}
	p.TestFraction = props.GetFloat64("stride.test.fraction", p.TestFraction)
	p.Folds = props.GetInt("stride.folds", p.Folds)
	p.Epochs = props.GetInt("stride.epochs", p.Epochs)
	p.BatchSize = props.GetInt("stride.batch.size", p.BatchSize)
	p.LearningRate = props.GetFloat64("stride.learning.rate", p.LearningRate)
	p.TopK = props.GetInt("stride.selection.topk", p.TopK)
	p.WinsoriseLower = props.GetFloat64("stride.winsorise.lower", p.WinsoriseLower)
	p.WinsoriseUpper = props.GetFloat64("stride.winsorise.upper", p.WinsoriseUpper)
	p.Seed = props.GetInt64("stride.seed", p.Seed)
	return p, nil
}

// NetworkConfig builds the network configuration the parameters describe,
// enabling attention for the variant that uses it.
func (p Parameters) NetworkConfig(attention bool) learning.TCNConfig {
	config := learning.DefaultTCNConfig()
	config.Attention = attention
	config.LearningRate = p.LearningRate
	config.Epochs = p.Epochs
	config.BatchSize = p.BatchSize
	config.Seed = p.Seed
	return config
}
