package learning

import (
	"math"
	"math/rand"
	"testing"
)

func randomBatch(n, c, l int, rng *rand.Rand) *seqBatch {
	b := newSeqBatch(n, c, l)
	for i := range b.data {
		b.data[i] = rng.NormFloat64()
	}
	return b
}

func TestConv1dCausal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	conv := newConv1d(1, 2, 3, 2, rng)
	x := randomBatch(1, 1, 10, rng)
	y := conv.forward(x, false)

	// Perturbing position p must not change any output before p.
	p := 6
	perturbed := x.clone()
	perturbed.set(0, 0, p, perturbed.at(0, 0, p)+5)
	z := conv.forward(perturbed, false)
	for o := 0; o < 2; o++ {
		for s := 0; s < p; s++ {
			if y.at(0, o, s) != z.at(0, o, s) {
				t.Errorf("output at position %d changed after perturbing position %d", s, p)
			}
		}
		if y.at(0, o, p) == z.at(0, o, p) {
			t.Errorf("output at position %d did not respond to its own input", p)
		}
	}
}

func TestConv1dShape(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	conv := newConv1d(3, 5, 3, 1, rng)
	y := conv.forward(randomBatch(2, 3, 7, rng), false)
	if y.n != 2 || y.c != 5 || y.l != 7 {
		t.Errorf("expected a 2x5x7 output, got %dx%dx%d", y.n, y.c, y.l)
	}
}

func TestBatchNormTraining(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	bn := newBatchNorm(2)
	x := randomBatch(4, 2, 6, rng)
	for i := range x.data {
		x.data[i] = x.data[i]*3 + 10
	}
	y := bn.forward(x, true)
	count := float64(4 * 6)
	for ch := 0; ch < 2; ch++ {
		var mean float64
		for i := 0; i < 4; i++ {
			for s := 0; s < 6; s++ {
				mean += y.at(i, ch, s)
			}
		}
		mean /= count
		if math.Abs(mean) > 1e-9 {
			t.Errorf("channel %d mean %f after normalisation, expected 0", ch, mean)
		}
	}
}

func TestResidualBlockProjectsChannels(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	block := newResidualBlock(1, 8, 3, 1, 0, rng)
	if block.projection == nil {
		t.Fatal("expected a projection when input and filter widths differ")
	}
	y := block.forward(randomBatch(2, 1, 5, rng), true)
	if y.n != 2 || y.c != 8 || y.l != 5 {
		t.Errorf("expected a 2x8x5 output, got %dx%dx%d", y.n, y.c, y.l)
	}

	same := newResidualBlock(8, 8, 3, 2, 0, rng)
	if same.projection != nil {
		t.Error("expected no projection when widths already match")
	}
}

func TestSEGateBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	gate := newSEGate(8, 4, rng)
	x := randomBatch(2, 8, 5, rng)
	y := gate.forward(x, false)
	for i := range y.data {
		if math.Abs(y.data[i]) > math.Abs(x.data[i]) {
			t.Fatalf("gated value %f exceeds input %f", y.data[i], x.data[i])
		}
	}
}

func TestDropoutInferenceNoOp(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	drop := newDropoutSeq(0.5, rng)
	x := randomBatch(1, 2, 4, rng)
	y := drop.forward(x, false)
	for i := range x.data {
		if y.data[i] != x.data[i] {
			t.Fatal("expected dropout to pass inputs through at inference")
		}
	}
}

func TestAdamDescendsQuadratic(t *testing.T) {
	p := newParameter(1)
	p.value[0] = 5
	opt := newAdam(0.1, []*parameter{p})
	for i := 0; i < 200; i++ {
		p.zeroGrad()
		p.grad[0] = 2 * p.value[0]
		opt.step([]*parameter{p})
	}
	if math.Abs(p.value[0]) > 0.1 {
		t.Errorf("expected the parameter to approach 0, got %f", p.value[0])
	}
}
