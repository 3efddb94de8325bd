package ops

import (
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// SumOp reduces every element to a scalar.
type SumOp struct{ node }

// NewSumOp records sum(x).
func NewSumOp(input, output *tensor.RawTensor) *SumOp {
	return &SumOp{edges(output, input)}
}

// Backward fills the input shape with the scalar gradient.
func (op *SumOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	g := float32s("sum backward", grad)[0]
	in := op.input(0)
	out := zeros("sum backward", in.Shape(), grad.Device())
	dst := out.AsFloat32()
	for i := range dst {
		dst[i] = g
	}
	return []*tensor.RawTensor{out}
}

// SumDimOp reduces along one dimension.
type SumDimOp struct {
	node
	dim   int
	scale float32
}

// NewSumDimOp records sum(x, dim). keepDim does not change the gradient
// layout, only its shape.
func NewSumDimOp(x, output *tensor.RawTensor, dim int, _ bool) *SumDimOp {
	return &SumDimOp{node: edges(output, x), dim: normDim("sum dim", dim, len(x.Shape())), scale: 1}
}

// NewMeanDimOp records mean(x, dim).
func NewMeanDimOp(x, output *tensor.RawTensor, dim int, _ bool) *SumDimOp {
	d := normDim("mean dim", dim, len(x.Shape()))
	return &SumDimOp{node: edges(output, x), dim: d, scale: 1 / float32(x.Shape()[d])}
}

// Backward repeats each gradient element along the reduced dimension.
func (op *SumDimOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	in := op.input(0)
	outer, size, inner := split(in.Shape(), op.dim)
	src := float32s("sum dim backward", grad)

	out := zeros("sum dim backward", in.Shape(), grad.Device())
	dst := out.AsFloat32()
	for o := range outer {
		for k := range size {
			row := dst[(o*size+k)*inner : (o*size+k+1)*inner]
			for i, g := range src[o*inner : (o+1)*inner] {
				row[i] = g * op.scale
			}
		}
	}
	return []*tensor.RawTensor{out}
}

// SoftmaxOp is output = softmax(x) along dim.
type SoftmaxOp struct {
	node
	dim int
}

// NewSoftmaxOp records softmax(x, dim).
func NewSoftmaxOp(input, output *tensor.RawTensor, dim int) *SoftmaxOp {
	return &SoftmaxOp{node: edges(output, input), dim: normDim("softmax", dim, len(input.Shape()))}
}

// Backward computes y * (g - Σ g·y) along each softmax lane.
func (op *SoftmaxOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	outer, size, inner := split(op.output.Shape(), op.dim)
	y := float32s("softmax backward", op.output)
	g := float32s("softmax backward", grad)

	out := zeros("softmax backward", op.output.Shape(), grad.Device())
	dst := out.AsFloat32()
	for o := range outer {
		for i := range inner {
			base := o*size*inner + i
			var dot float32
			for k := range size {
				at := base + k*inner
				dot += g[at] * y[at]
			}
			for k := range size {
				at := base + k*inner
				dst[at] = y[at] * (g[at] - dot)
			}
		}
	}
	return []*tensor.RawTensor{out}
}
