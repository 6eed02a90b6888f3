package learning

import (
	"math"
	"math/rand"

	"github.com/cheggaaa/pb/v3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// TCNConfig fixes the hyper-parameters of a temporal convolutional network.
type TCNConfig struct {
	Filters            int
	Kernel             int
	Dilations          []int
	Dropout            float64
	Hidden             int
	Attention          bool
	AttentionReduction int
	LearningRate       float64
	Epochs             int
	BatchSize          int
	Seed               int64
	Progress           bool
}

// DefaultTCNConfig is the fixed experiment configuration: three residual
// blocks with dilations 1, 2 and 4, kernel width 3, 64 filters, dropout 0.3,
// a 128-unit head, and Adam at a learning rate of 0.001 for 20 epochs with
// batches of 32.
func DefaultTCNConfig() TCNConfig {
	return TCNConfig{
		Filters:            64,
		Kernel:             3,
		Dilations:          []int{1, 2, 4},
		Dropout:            0.3,
		Hidden:             128,
		Attention:          false,
		AttentionReduction: 4,
		LearningRate:       0.001,
		Epochs:             20,
		BatchSize:          32,
		Seed:               42,
		Progress:           true,
	}
}

// TCN is a temporal convolutional network classifier over a selected feature
// vector reshaped as a single-channel sequence. Residual blocks of causal
// dilated convolutions feed an optional squeeze-and-excitation attention
// gate and a dense softmax head.
type TCN struct {
	Config TCNConfig

	length  int
	classes int

	blocks    []*residualBlock
	attention *seGate
	dense1    *dense
	headRelu  []bool
	headDrop  *dropoutSeq
	dense2    *dense

	params []*parameter
	rng    *rand.Rand
}

// NewTCN builds a fresh, untrained network for sequences of the given length.
func NewTCN(length, classes int, config TCNConfig) (*TCN, error) {
	if length < 1 {
		return nil, errors.New("cannot build a network over zero features")
	}
	if classes < 2 {
		return nil, errors.Errorf("cannot classify %d classes", classes)
	}
	if len(config.Dilations) == 0 {
		return nil, errors.New("network needs at least one residual block")
	}
	t := &TCN{
		Config:  config,
		length:  length,
		classes: classes,
		rng:     rand.New(rand.NewSource(config.Seed)),
	}
	in := 1
	for _, dilation := range config.Dilations {
		block := newResidualBlock(in, config.Filters, config.Kernel, dilation, config.Dropout, t.rng)
		t.blocks = append(t.blocks, block)
		t.params = append(t.params, block.parameters()...)
		in = config.Filters
	}
	if config.Attention {
		t.attention = newSEGate(config.Filters, config.AttentionReduction, t.rng)
		t.params = append(t.params, t.attention.parameters()...)
	}
	t.dense1 = newDense(config.Filters*length, config.Hidden, t.rng)
	t.headDrop = newDropoutSeq(config.Dropout, t.rng)
	t.dense2 = newDense(config.Hidden, classes, t.rng)
	t.params = append(t.params, t.dense1.parameters()...)
	t.params = append(t.params, t.dense2.parameters()...)
	return t, nil
}

// Classes is the number of activity classes the network predicts.
func (t *TCN) Classes() int {
	return t.classes
}

func (t *TCN) toBatch(x *mat.Dense, rows []int) *seqBatch {
	b := newSeqBatch(len(rows), 1, t.length)
	for i, row := range rows {
		copy(b.data[i*t.length:(i+1)*t.length], x.RawRowView(row))
	}
	return b
}

// forward runs the network over a batch, returning class probabilities.
func (t *TCN) forward(b *seqBatch, training bool) []float64 {
	y := b
	for _, block := range t.blocks {
		y = block.forward(y, training)
	}
	if t.attention != nil {
		y = t.attention.forward(y, training)
	}
	flat := t.dense1.forward(y.data, y.n)
	t.headRelu = make([]bool, len(flat))
	for i, v := range flat {
		if v > 0 {
			t.headRelu[i] = true
		} else {
			flat[i] = 0
		}
	}
	dropped := t.headDrop.forward(&seqBatch{data: flat, n: y.n, c: 1, l: t.Config.Hidden}, training)
	logits := t.dense2.forward(dropped.data, y.n)
	return softmax(logits, y.n, t.classes)
}

// backward propagates the softmax cross-entropy gradient through the network.
func (t *TCN) backward(probabilities []float64, labels []int, n int) {
	grad := make([]float64, n*t.classes)
	for i := 0; i < n; i++ {
		for c := 0; c < t.classes; c++ {
			g := probabilities[i*t.classes+c]
			if c == labels[i] {
				g--
			}
			grad[i*t.classes+c] = g / float64(n)
		}
	}
	dHidden := t.dense2.backward(grad, n)
	dHidden = t.headDrop.backward(&seqBatch{data: dHidden, n: n, c: 1, l: t.Config.Hidden}).data
	for i := range dHidden {
		if !t.headRelu[i] {
			dHidden[i] = 0
		}
	}
	dFlat := t.dense1.backward(dHidden, n)
	dy := &seqBatch{data: dFlat, n: n, c: t.Config.Filters, l: t.length}
	if t.attention != nil {
		dy = t.attention.backward(dy)
	}
	for i := len(t.blocks) - 1; i >= 0; i-- {
		dy = t.blocks[i].backward(dy)
	}
}

func (t *TCN) zeroGrad() {
	for _, p := range t.params {
		p.zeroGrad()
	}
}

// Fit trains the network with Adam on sparse categorical cross-entropy.
// Any numerical failure during fitting is fatal to the run.
func (t *TCN) Fit(x *mat.Dense, y []int) error {
	n, cols := x.Dims()
	if cols != t.length {
		return errors.Errorf("network expects %d features, not %d", t.length, cols)
	}
	if n != len(y) {
		return errors.Errorf("cannot fit on %d rows with %d labels", n, len(y))
	}
	for _, label := range y {
		if label < 0 || label >= t.classes {
			return errors.Errorf("activity code %d out of range", label)
		}
	}

	opt := newAdam(t.Config.LearningRate, t.params)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	var bar *pb.ProgressBar
	if t.Config.Progress {
		bar = pb.StartNew(t.Config.Epochs)
	}
	for epoch := 0; epoch < t.Config.Epochs; epoch++ {
		t.rng.Shuffle(n, func(a, b int) {
			indices[a], indices[b] = indices[b], indices[a]
		})
		for start := 0; start < n; start += t.Config.BatchSize {
			end := start + t.Config.BatchSize
			if end > n {
				end = n
			}
			rows := indices[start:end]
			labels := make([]int, len(rows))
			for i, row := range rows {
				labels[i] = y[row]
			}
			t.zeroGrad()
			probabilities := t.forward(t.toBatch(x, rows), true)
			for _, p := range probabilities {
				if math.IsNaN(p) || math.IsInf(p, 0) {
					if bar != nil {
						bar.Finish()
					}
					return errors.New("training diverged")
				}
			}
			t.backward(probabilities, labels, len(rows))
			opt.step(t.params)
		}
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}
	return nil
}

// PredictProba computes class probabilities for every row in one batch call.
func (t *TCN) PredictProba(x *mat.Dense) (*mat.Dense, error) {
	n, cols := x.Dims()
	if cols != t.length {
		return nil, errors.Errorf("network expects %d features, not %d", t.length, cols)
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	probabilities := t.forward(t.toBatch(x, rows), false)
	return mat.NewDense(n, t.classes, probabilities), nil
}

// Predict computes the arg-max class for every row.
func (t *TCN) Predict(x *mat.Dense) ([]int, error) {
	probabilities, err := t.PredictProba(x)
	if err != nil {
		return nil, err
	}
	n, _ := probabilities.Dims()
	predicted := make([]int, n)
	for i := 0; i < n; i++ {
		best := 0
		for c := 1; c < t.classes; c++ {
			if probabilities.At(i, c) > probabilities.At(i, best) {
				best = c
			}
		}
		predicted[i] = best
	}
	return predicted, nil
}

// Loss computes the mean sparse categorical cross-entropy over the rows.
func (t *TCN) Loss(x *mat.Dense, y []int) (float64, error) {
	probabilities, err := t.PredictProba(x)
	if err != nil {
		return 0, err
	}
	var loss float64
	for i, label := range y {
		loss -= math.Log(probabilities.At(i, label) + 1e-12)
	}
	return loss / float64(len(y)), nil
}

func softmax(logits []float64, n, classes int) []float64 {
	out := make([]float64, len(logits))
	for i := 0; i < n; i++ {
		row := logits[i*classes : (i+1)*classes]
		max := row[0]
		for _, v := range row[1:] {
			if v > max {
				max = v
			}
		}
		var sum float64
		for c, v := range row {
			e := math.Exp(v - max)
			out[i*classes+c] = e
			sum += e
		}
		for c := range row {
			out[i*classes+c] /= sum
		}
	}
	return out
}
