package ops

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// logSoftmaxRow writes log(softmax(row)) into dst using the log-sum-exp
// shift.
func logSoftmaxRow(dst, row []float32) {
	m := math32.Inf(-1)
	for _, v := range row {
		m = math32.Max(m, v)
	}
	var sum float32
	for _, v := range row {
		sum += math32.Exp(v - m)
	}
	lse := m + math32.Log(sum)
	for i, v := range row {
		dst[i] = v - lse
	}
}

func checkLogits(op string, logits, targets *tensor.RawTensor) (batch, classes int) {
	ls, ts := logits.Shape(), targets.Shape()
	if len(ls) != 2 {
		panic(fmt.Sprintf("%s: logits must be [batch, classes], got %v", op, ls))
	}
	if len(ts) != 1 || ts[0] != ls[0] {
		panic(fmt.Sprintf("%s: targets %v do not match logits %v", op, ts, ls))
	}
	if targets.DType() != tensor.Int32 {
		panic(fmt.Sprintf("%s: targets must be int32 class indices, got %s", op, targets.DType()))
	}
	return ls[0], ls[1]
}

// CrossEntropyForward returns mean(-log_softmax(logits)[target]) as a
// one-element tensor. Targets are int32 class indices.
func CrossEntropyForward(logits, targets *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	batch, classes := checkLogits("cross entropy", logits, targets)
	x := float32s("cross entropy", logits)
	labels := targets.AsInt32()

	logp := make([]float32, classes)
	var total float32
	for b := range batch {
		t := int(labels[b])
		if t < 0 || t >= classes {
			panic(fmt.Sprintf("cross entropy: target %d out of range [0, %d)", t, classes))
		}
		logSoftmaxRow(logp, x[b*classes:(b+1)*classes])
		total -= logp[t]
	}

	out := zeros("cross entropy", tensor.Shape{1}, device)
	out.AsFloat32()[0] = total / float32(batch)
	return out
}

// CrossEntropyOp differentiates the mean cross-entropy with respect to the
// logits. Targets get no gradient.
type CrossEntropyOp struct {
	node
	targets *tensor.RawTensor
}

// NewCrossEntropyOp records a cross-entropy loss.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{node: edges(output, logits), targets: targets}
}

// Backward returns (softmax(logits) - onehot(target)) * grad / batch.
func (op *CrossEntropyOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	logits := op.input(0)
	batch, classes := checkLogits("cross entropy backward", logits, op.targets)
	x := float32s("cross entropy backward", logits)
	labels := op.targets.AsInt32()
	scale := float32s("cross entropy backward", grad)[0] / float32(batch)

	out := zeros("cross entropy backward", logits.Shape(), grad.Device())
	dst := out.AsFloat32()
	for b := range batch {
		row := dst[b*classes : (b+1)*classes]
		logSoftmaxRow(row, x[b*classes:(b+1)*classes])
		for i, lp := range row {
			row[i] = math32.Exp(lp) * scale
		}
		row[labels[b]] -= scale
	}
	return []*tensor.RawTensor{out}
}

// BCEWithLogitsForward returns mean(max(x,0) - x*y + log(1+e^-|x|)), the
// binary cross-entropy of sigmoid(x) against y, as a one-element tensor.
func BCEWithLogitsForward(logits, targets *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	x := float32s("bce with logits", logits)
	y := float32s("bce with logits", targets)
	if !logits.Shape().Equal(targets.Shape()) {
		panic(fmt.Sprintf("bce with logits: targets %v do not match logits %v", targets.Shape(), logits.Shape()))
	}

	var total float32
	for i, v := range x {
		total += max(v, 0) - v*y[i] + math32.Log1p(math32.Exp(-math32.Abs(v)))
	}

	out := zeros("bce with logits", tensor.Shape{1}, device)
	out.AsFloat32()[0] = total / float32(len(x))
	return out
}

// BCEWithLogitsOp differentiates the binary cross-entropy with respect to
// the logits.
type BCEWithLogitsOp struct {
	node
	targets *tensor.RawTensor
}

// NewBCEWithLogitsOp records a binary cross-entropy loss.
func NewBCEWithLogitsOp(logits, targets, output *tensor.RawTensor) *BCEWithLogitsOp {
	return &BCEWithLogitsOp{node: edges(output, logits), targets: targets}
}

// Backward returns (σ(x) - y) * grad / n.
func (op *BCEWithLogitsOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	logits := op.input(0)
	y := float32s("bce with logits backward", op.targets)
	scale := float32s("bce with logits backward", grad)[0] / float32(len(y))

	i := 0
	out := apply("bce with logits backward", logits, grad.Device(), func(v float32) float32 {
		g := (sigmoid(v) - y[i]) * scale
		i++
		return g
	})
	return []*tensor.RawTensor{out}
}
