package ops

import (
	"fmt"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// ReshapeOp covers Reshape, Squeeze and Unsqueeze: the data is unchanged,
// only the shape differs.
type ReshapeOp struct{ node }

// NewReshapeOp records a reshape of input into output's shape.
func NewReshapeOp(input, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{edges(output, input)}
}

// Backward reshapes the gradient back to the input shape.
func (op *ReshapeOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(grad, op.input(0).Shape())}
}

// TransposeOp permutes axes.
type TransposeOp struct {
	node
	inverse []int
}

// NewTransposeOp records a permutation of input by axes.
func NewTransposeOp(input, output *tensor.RawTensor, axes []int) *TransposeOp {
	inverse := make([]int, len(axes))
	for i, ax := range axes {
		inverse[ax] = i
	}
	return &TransposeOp{node: edges(output, input), inverse: inverse}
}

// Backward applies the inverse permutation.
func (op *TransposeOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Transpose(grad, op.inverse...)}
}

// ExpandOp broadcasts input to a larger shape.
type ExpandOp struct{ node }

// NewExpandOp records an expand of input into output's shape.
func NewExpandOp(input, output *tensor.RawTensor) *ExpandOp {
	return &ExpandOp{edges(output, input)}
}

// Backward sums the gradient over the expanded axes.
func (op *ExpandOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{reduceBroadcast(grad, op.input(0).Shape())}
}

// CatOp concatenates inputs along dim.
type CatOp struct {
	node
	dim   int
	sizes []int
}

// NewCatOp records a concatenation. sizes holds each input's extent along
// dim.
func NewCatOp(inputs []*tensor.RawTensor, dim int, sizes []int, output *tensor.RawTensor) *CatOp {
	return &CatOp{node: edges(output, inputs...), dim: dim, sizes: sizes}
}

// Backward slices the gradient back into one piece per input.
func (op *CatOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	outer, total, inner := split(grad.Shape(), op.dim)
	src := float32s("cat backward", grad)

	grads := make([]*tensor.RawTensor, len(op.inputs))
	offset := 0
	for i, in := range op.inputs {
		size := op.sizes[i]
		g := zeros("cat backward", in.Shape(), grad.Device())
		dst := g.AsFloat32()
		block := size * inner
		for o := range outer {
			start := (o*total + offset) * inner
			copy(dst[o*block:(o+1)*block], src[start:start+block])
		}
		grads[i] = g
		offset += size
	}
	if offset != total {
		panic(fmt.Sprintf("cat backward: sizes sum to %d, gradient has %d along dim %d", offset, total, op.dim))
	}
	return grads
}

// ChunkOp splits input into n equal parts along dim.
type ChunkOp struct {
	node
	n       int
	dim     int
	outputs []*tensor.RawTensor
}

// NewChunkOp records a split of input into outputs.
func NewChunkOp(input *tensor.RawTensor, n, dim int, outputs []*tensor.RawTensor) *ChunkOp {
	return &ChunkOp{node: edges(outputs[0], input), n: n, dim: dim, outputs: outputs}
}

// Outputs returns every chunk.
func (op *ChunkOp) Outputs() []*tensor.RawTensor { return op.outputs }

// Backward is not used for chunks; the tape calls BackwardMulti.
func (op *ChunkOp) Backward(*tensor.RawTensor, tensor.Backend) []*tensor.RawTensor {
	panic("chunk backward: needs the gradients of all outputs")
}

// BackwardMulti concatenates the chunk gradients.
func (op *ChunkOp) BackwardMulti(grads []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	if len(grads) != op.n {
		panic(fmt.Sprintf("chunk backward: got %d gradients for %d outputs", len(grads), op.n))
	}
	return []*tensor.RawTensor{backend.Cat(grads, op.dim)}
}
