package learning

import (
	"math"
	"math/rand"
)

// seqBatch is a batch of single- or multi-channel sequences laid out
// row-major as [batch][channel][position].
type seqBatch struct {
	data []float64
	n    int
	c    int
	l    int
}

func newSeqBatch(n, c, l int) *seqBatch {
	return &seqBatch{data: make([]float64, n*c*l), n: n, c: c, l: l}
}

func (b *seqBatch) at(i, c, t int) float64 {
	return b.data[(i*b.c+c)*b.l+t]
}

func (b *seqBatch) set(i, c, t int, v float64) {
	b.data[(i*b.c+c)*b.l+t] = v
}

func (b *seqBatch) add(i, c, t int, v float64) {
	b.data[(i*b.c+c)*b.l+t] += v
}

func (b *seqBatch) clone() *seqBatch {
	out := newSeqBatch(b.n, b.c, b.l)
	copy(out.data, b.data)
	return out
}

// parameter is one trainable tensor of the network together with its
// accumulated gradient.
type parameter struct {
	value []float64
	grad  []float64
}

func newParameter(size int) *parameter {
	return &parameter{value: make([]float64, size), grad: make([]float64, size)}
}

func (p *parameter) zeroGrad() {
	for i := range p.grad {
		p.grad[i] = 0
	}
}

// conv1d is a dilated convolution with causal padding: the output at
// position t depends only on input positions at or before t.
type conv1d struct {
	in       int
	out      int
	kernel   int
	dilation int
	w        *parameter // out x in x kernel
	b        *parameter

	input *seqBatch
}

func newConv1d(in, out, kernel, dilation int, rng *rand.Rand) *conv1d {
	c := &conv1d{in: in, out: out, kernel: kernel, dilation: dilation}
	c.w = newParameter(out * in * kernel)
	c.b = newParameter(out)
	// Glorot uniform over the receptive field.
	limit := math.Sqrt(6 / float64(in*kernel+out*kernel))
	for i := range c.w.value {
		c.w.value[i] = (rng.Float64()*2 - 1) * limit
	}
	return c
}

func (c *conv1d) weight(o, i, j int) float64 {
	return c.w.value[(o*c.in+i)*c.kernel+j]
}

func (c *conv1d) forward(x *seqBatch, training bool) *seqBatch {
	c.input = x
	y := newSeqBatch(x.n, c.out, x.l)
	for i := 0; i < x.n; i++ {
		for o := 0; o < c.out; o++ {
			bias := c.b.value[o]
			for t := 0; t < x.l; t++ {
				sum := bias
				for ch := 0; ch < c.in; ch++ {
					for j := 0; j < c.kernel; j++ {
						s := t - (c.kernel-1-j)*c.dilation
						if s < 0 {
							continue
						}
						sum += c.weight(o, ch, j) * x.at(i, ch, s)
					}
				}
				y.set(i, o, t, sum)
			}
		}
	}
	return y
}

func (c *conv1d) backward(grad *seqBatch) *seqBatch {
	x := c.input
	dx := newSeqBatch(x.n, c.in, x.l)
	for i := 0; i < x.n; i++ {
		for o := 0; o < c.out; o++ {
			for t := 0; t < x.l; t++ {
				g := grad.at(i, o, t)
				if g == 0 {
					continue
				}
				c.b.grad[o] += g
				for ch := 0; ch < c.in; ch++ {
					for j := 0; j < c.kernel; j++ {
						s := t - (c.kernel-1-j)*c.dilation
						if s < 0 {
							continue
						}
						c.w.grad[(o*c.in+ch)*c.kernel+j] += g * x.at(i, ch, s)
						dx.add(i, ch, s, g*c.weight(o, ch, j))
					}
				}
			}
		}
	}
	return dx
}

func (c *conv1d) parameters() []*parameter {
	return []*parameter{c.w, c.b}
}

// batchNorm normalises each channel over the batch and sequence axes,
// tracking running statistics for inference.
type batchNorm struct {
	c        int
	momentum float64
	eps      float64
	gamma    *parameter
	beta     *parameter

	runningMean []float64
	runningVar  []float64

	normalised *seqBatch
	invStd     []float64
}

func newBatchNorm(c int) *batchNorm {
	bn := &batchNorm{
		c:           c,
		momentum:    0.99,
		eps:         1e-3,
		gamma:       newParameter(c),
		beta:        newParameter(c),
		runningMean: make([]float64, c),
		runningVar:  make([]float64, c),
	}
	for i := 0; i < c; i++ {
		bn.gamma.value[i] = 1
		bn.runningVar[i] = 1
	}
	return bn
}

func (bn *batchNorm) forward(x *seqBatch, training bool) *seqBatch {
	y := newSeqBatch(x.n, x.c, x.l)
	count := float64(x.n * x.l)
	if training {
		bn.normalised = newSeqBatch(x.n, x.c, x.l)
		bn.invStd = make([]float64, x.c)
	}
	for ch := 0; ch < x.c; ch++ {
		var mean, variance float64
		if training {
			for i := 0; i < x.n; i++ {
				for t := 0; t < x.l; t++ {
					mean += x.at(i, ch, t)
				}
			}
			mean /= count
			for i := 0; i < x.n; i++ {
				for t := 0; t < x.l; t++ {
					d := x.at(i, ch, t) - mean
					variance += d * d
				}
			}
			variance /= count
			bn.runningMean[ch] = bn.momentum*bn.runningMean[ch] + (1-bn.momentum)*mean
			bn.runningVar[ch] = bn.momentum*bn.runningVar[ch] + (1-bn.momentum)*variance
		} else {
			mean = bn.runningMean[ch]
			variance = bn.runningVar[ch]
		}
		invStd := 1 / math.Sqrt(variance+bn.eps)
		if training {
			bn.invStd[ch] = invStd
		}
		for i := 0; i < x.n; i++ {
			for t := 0; t < x.l; t++ {
				norm := (x.at(i, ch, t) - mean) * invStd
				if training {
					bn.normalised.set(i, ch, t, norm)
				}
				y.set(i, ch, t, bn.gamma.value[ch]*norm+bn.beta.value[ch])
			}
		}
	}
	return y
}

func (bn *batchNorm) backward(grad *seqBatch) *seqBatch {
	x := bn.normalised
	dx := newSeqBatch(grad.n, grad.c, grad.l)
	count := float64(grad.n * grad.l)
	for ch := 0; ch < grad.c; ch++ {
		var sumGrad, sumGradNorm float64
		for i := 0; i < grad.n; i++ {
			for t := 0; t < grad.l; t++ {
				g := grad.at(i, ch, t)
				sumGrad += g
				sumGradNorm += g * x.at(i, ch, t)
			}
		}
		bn.beta.grad[ch] += sumGrad
		bn.gamma.grad[ch] += sumGradNorm
		scale := bn.gamma.value[ch] * bn.invStd[ch] / count
		for i := 0; i < grad.n; i++ {
			for t := 0; t < grad.l; t++ {
				g := grad.at(i, ch, t)
				dx.set(i, ch, t, scale*(count*g-sumGrad-x.at(i, ch, t)*sumGradNorm))
			}
		}
	}
	return dx
}

func (bn *batchNorm) parameters() []*parameter {
	return []*parameter{bn.gamma, bn.beta}
}

// reluSeq is a rectified-linear activation over a sequence batch.
type reluSeq struct {
	mask []bool
}

func (r *reluSeq) forward(x *seqBatch, training bool) *seqBatch {
	y := x.clone()
	r.mask = make([]bool, len(x.data))
	for i, v := range x.data {
		if v > 0 {
			r.mask[i] = true
		} else {
			y.data[i] = 0
		}
	}
	return y
}

func (r *reluSeq) backward(grad *seqBatch) *seqBatch {
	dx := grad.clone()
	for i := range dx.data {
		if !r.mask[i] {
			dx.data[i] = 0
		}
	}
	return dx
}

// dropoutSeq is inverted dropout over a sequence batch; inference is a no-op.
type dropoutSeq struct {
	rate float64
	rng  *rand.Rand
	mask []float64
}

func newDropoutSeq(rate float64, rng *rand.Rand) *dropoutSeq {
	return &dropoutSeq{rate: rate, rng: rng}
}

func (d *dropoutSeq) forward(x *seqBatch, training bool) *seqBatch {
	if !training || d.rate == 0 {
		d.mask = nil
		return x
	}
	keep := 1 - d.rate
	d.mask = make([]float64, len(x.data))
	y := x.clone()
	for i := range x.data {
		if d.rng.Float64() < keep {
			d.mask[i] = 1 / keep
		}
		y.data[i] = x.data[i] * d.mask[i]
	}
	return y
}

func (d *dropoutSeq) backward(grad *seqBatch) *seqBatch {
	if d.mask == nil {
		return grad
	}
	dx := grad.clone()
	for i := range dx.data {
		dx.data[i] *= d.mask[i]
	}
	return dx
}

// seGate is squeeze-and-excitation channel attention: a per-channel gate in
// [0,1] computed from the global average over the sequence axis, broadcast
// back over it.
type seGate struct {
	c      int
	hidden int
	w1     *parameter // hidden x c
	b1     *parameter
	w2     *parameter // c x hidden
	b2     *parameter

	input  *seqBatch
	pooled []float64 // n x c
	h      []float64 // n x hidden, post-relu
	gate   []float64 // n x c
}

func newSEGate(c, reduction int, rng *rand.Rand) *seGate {
	hidden := c / reduction
	if hidden < 1 {
		hidden = 1
	}
	g := &seGate{c: c, hidden: hidden}
	g.w1 = newParameter(hidden * c)
	g.b1 = newParameter(hidden)
	g.w2 = newParameter(c * hidden)
	g.b2 = newParameter(c)
	limit1 := math.Sqrt(6 / float64(c+hidden))
	for i := range g.w1.value {
		g.w1.value[i] = (rng.Float64()*2 - 1) * limit1
	}
	for i := range g.w2.value {
		g.w2.value[i] = (rng.Float64()*2 - 1) * limit1
	}
	return g
}

func (g *seGate) forward(x *seqBatch, training bool) *seqBatch {
	g.input = x
	g.pooled = make([]float64, x.n*x.c)
	g.h = make([]float64, x.n*g.hidden)
	g.gate = make([]float64, x.n*x.c)
	length := float64(x.l)
	for i := 0; i < x.n; i++ {
		for ch := 0; ch < x.c; ch++ {
			var sum float64
			for t := 0; t < x.l; t++ {
				sum += x.at(i, ch, t)
			}
			g.pooled[i*x.c+ch] = sum / length
		}
		for h := 0; h < g.hidden; h++ {
			sum := g.b1.value[h]
			for ch := 0; ch < x.c; ch++ {
				sum += g.w1.value[h*x.c+ch] * g.pooled[i*x.c+ch]
			}
			if sum < 0 {
				sum = 0
			}
			g.h[i*g.hidden+h] = sum
		}
		for ch := 0; ch < x.c; ch++ {
			sum := g.b2.value[ch]
			for h := 0; h < g.hidden; h++ {
				sum += g.w2.value[ch*g.hidden+h] * g.h[i*g.hidden+h]
			}
			g.gate[i*x.c+ch] = 1 / (1 + math.Exp(-sum))
		}
	}
	y := newSeqBatch(x.n, x.c, x.l)
	for i := 0; i < x.n; i++ {
		for ch := 0; ch < x.c; ch++ {
			scale := g.gate[i*x.c+ch]
			for t := 0; t < x.l; t++ {
				y.set(i, ch, t, x.at(i, ch, t)*scale)
			}
		}
	}
	return y
}

func (g *seGate) backward(grad *seqBatch) *seqBatch {
	x := g.input
	dx := newSeqBatch(x.n, x.c, x.l)
	length := float64(x.l)
	for i := 0; i < x.n; i++ {
		// Gradient into the gate and the pass-through path.
		dGate := make([]float64, x.c)
		for ch := 0; ch < x.c; ch++ {
			scale := g.gate[i*x.c+ch]
			for t := 0; t < x.l; t++ {
				gr := grad.at(i, ch, t)
				dx.add(i, ch, t, gr*scale)
				dGate[ch] += gr * x.at(i, ch, t)
			}
		}
		// Through the sigmoid into the second dense layer.
		dz2 := make([]float64, x.c)
		for ch := 0; ch < x.c; ch++ {
			s := g.gate[i*x.c+ch]
			dz2[ch] = dGate[ch] * s * (1 - s)
			g.b2.grad[ch] += dz2[ch]
			for h := 0; h < g.hidden; h++ {
				g.w2.grad[ch*g.hidden+h] += dz2[ch] * g.h[i*g.hidden+h]
			}
		}
		// Through the rectifier into the first dense layer.
		dPooled := make([]float64, x.c)
		for h := 0; h < g.hidden; h++ {
			if g.h[i*g.hidden+h] <= 0 {
				continue
			}
			var dh float64
			for ch := 0; ch < x.c; ch++ {
				dh += g.w2.value[ch*g.hidden+h] * dz2[ch]
			}
			g.b1.grad[h] += dh
			for ch := 0; ch < x.c; ch++ {
				g.w1.grad[h*x.c+ch] += dh * g.pooled[i*x.c+ch]
				dPooled[ch] += g.w1.value[h*x.c+ch] * dh
			}
		}
		// Through the global average pool.
		for ch := 0; ch < x.c; ch++ {
			d := dPooled[ch] / length
			for t := 0; t < x.l; t++ {
				dx.add(i, ch, t, d)
			}
		}
	}
	return dx
}

func (g *seGate) parameters() []*parameter {
	return []*parameter{g.w1, g.b1, g.w2, g.b2}
}

// residualBlock is two causal dilated convolutions with normalisation and a
// skip connection. When the input channel width differs from the filter
// count, a width-1 convolution projects the input onto the skip path.
type residualBlock struct {
	conv1      *conv1d
	relu1      *reluSeq
	norm1      *batchNorm
	drop       *dropoutSeq
	conv2      *conv1d
	relu2      *reluSeq
	norm2      *batchNorm
	projection *conv1d

	input *seqBatch
}

func newResidualBlock(in, filters, kernel, dilation int, dropout float64, rng *rand.Rand) *residualBlock {
	b := &residualBlock{
		conv1: newConv1d(in, filters, kernel, dilation, rng),
		relu1: &reluSeq{},
		norm1: newBatchNorm(filters),
		drop:  newDropoutSeq(dropout, rng),
		conv2: newConv1d(filters, filters, kernel, dilation, rng),
		relu2: &reluSeq{},
		norm2: newBatchNorm(filters),
	}
	if in != filters {
		b.projection = newConv1d(in, filters, 1, 1, rng)
	}
	return b
}

func (b *residualBlock) forward(x *seqBatch, training bool) *seqBatch {
	b.input = x
	y := b.conv1.forward(x, training)
	y = b.relu1.forward(y, training)
	y = b.norm1.forward(y, training)
	y = b.drop.forward(y, training)
	y = b.conv2.forward(y, training)
	y = b.relu2.forward(y, training)
	y = b.norm2.forward(y, training)
	skip := x
	if b.projection != nil {
		skip = b.projection.forward(x, training)
	}
	out := y.clone()
	for i := range out.data {
		out.data[i] += skip.data[i]
	}
	return out
}

func (b *residualBlock) backward(grad *seqBatch) *seqBatch {
	dy := b.norm2.backward(grad)
	dy = b.relu2.backward(dy)
	dy = b.conv2.backward(dy)
	dy = b.drop.backward(dy)
	dy = b.norm1.backward(dy)
	dy = b.relu1.backward(dy)
	dx := b.conv1.backward(dy)
	if b.projection != nil {
		dSkip := b.projection.backward(grad)
		for i := range dx.data {
			dx.data[i] += dSkip.data[i]
		}
	} else {
		for i := range dx.data {
			dx.data[i] += grad.data[i]
		}
	}
	return dx
}

func (b *residualBlock) parameters() []*parameter {
	params := append(b.conv1.parameters(), b.norm1.parameters()...)
	params = append(params, b.conv2.parameters()...)
	params = append(params, b.norm2.parameters()...)
	if b.projection != nil {
		params = append(params, b.projection.parameters()...)
	}
	return params
}

// dense is a fully connected layer over flattened activations.
type dense struct {
	in  int
	out int
	w   *parameter // in x out
	b   *parameter

	input []float64 // n x in
}

func newDense(in, out int, rng *rand.Rand) *dense {
	d := &dense{in: in, out: out, w: newParameter(in * out), b: newParameter(out)}
	limit := math.Sqrt(6 / float64(in+out))
	for i := range d.w.value {
		d.w.value[i] = (rng.Float64()*2 - 1) * limit
	}
	return d
}

func (d *dense) forward(x []float64, n int) []float64 {
	d.input = x
	y := make([]float64, n*d.out)
	for i := 0; i < n; i++ {
		for o := 0; o < d.out; o++ {
			sum := d.b.value[o]
			for j := 0; j < d.in; j++ {
				sum += x[i*d.in+j] * d.w.value[j*d.out+o]
			}
			y[i*d.out+o] = sum
		}
	}
	return y
}

func (d *dense) backward(grad []float64, n int) []float64 {
	dx := make([]float64, n*d.in)
	for i := 0; i < n; i++ {
		for o := 0; o < d.out; o++ {
			g := grad[i*d.out+o]
			if g == 0 {
				continue
			}
			d.b.grad[o] += g
			for j := 0; j < d.in; j++ {
				d.w.grad[j*d.out+o] += g * d.input[i*d.in+j]
				dx[i*d.in+j] += g * d.w.value[j*d.out+o]
			}
		}
	}
	return dx
}

func (d *dense) parameters() []*parameter {
	return []*parameter{d.w, d.b}
}

// adam is the Adam optimiser over the collected network parameters.
type adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	t     int
	m     [][]float64
	v     [][]float64
}

func newAdam(lr float64, params []*parameter) *adam {
	a := &adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-7}
	a.m = make([][]float64, len(params))
	a.v = make([][]float64, len(params))
	for i, p := range params {
		a.m[i] = make([]float64, len(p.value))
		a.v[i] = make([]float64, len(p.value))
	}
	return a
}

func (a *adam) step(params []*parameter) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))
	for i, p := range params {
		for j, g := range p.grad {
			a.m[i][j] = a.beta1*a.m[i][j] + (1-a.beta1)*g
			a.v[i][j] = a.beta2*a.v[i][j] + (1-a.beta2)*g*g
			mHat := a.m[i][j] / c1
			vHat := a.v[i][j] / c2
			p.value[j] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
		}
	}
}
