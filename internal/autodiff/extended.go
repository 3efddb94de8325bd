package autodiff

import (
	"github.com/AnshMittal1811/Pytorch/internal/autodiff/ops"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// recordUnary runs a single-input forward pass on the inner backend and
// records the op built by mk when the tape is recording.
func (b *AutodiffBackend[B]) recordUnary(
	x *tensor.RawTensor,
	forward func(*tensor.RawTensor) *tensor.RawTensor,
	mk func(in, out *tensor.RawTensor) ops.Operation,
) *tensor.RawTensor {
	result := forward(x)
	if b.tape.IsRecording() {
		b.tape.Record(mk(x, result))
	}
	return result
}

// Conv2DInputBackward delegates to the wrapped backend.
func (b *AutodiffBackend[B]) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DInputBackward(input, kernel, grad, stride, padding)
}

// Conv2DKernelBackward delegates to the wrapped backend.
func (b *AutodiffBackend[B]) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DKernelBackward(input, kernel, grad, stride, padding)
}

// MaxPool2DBackward delegates to the wrapped backend.
func (b *AutodiffBackend[B]) MaxPool2DBackward(input, grad *tensor.RawTensor, maxIndices []int, kernelSize, stride int) *tensor.RawTensor {
	return b.inner.MaxPool2DBackward(input, grad, maxIndices, kernelSize, stride)
}

// MulScalar multiplies by a constant and records the operation.
func (b *AutodiffBackend[B]) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.recordUnary(x,
		func(in *tensor.RawTensor) *tensor.RawTensor { return b.inner.MulScalar(in, scalar) },
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewMulScalarOp(in, out, scalar) })
}

// AddScalar adds a constant and records the operation.
func (b *AutodiffBackend[B]) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.recordUnary(x,
		func(in *tensor.RawTensor) *tensor.RawTensor { return b.inner.AddScalar(in, scalar) },
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewShiftScalarOp(in, out) })
}

// SubScalar subtracts a constant and records the operation.
func (b *AutodiffBackend[B]) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.recordUnary(x,
		func(in *tensor.RawTensor) *tensor.RawTensor { return b.inner.SubScalar(in, scalar) },
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewShiftScalarOp(in, out) })
}

// DivScalar divides by a constant and records the operation.
func (b *AutodiffBackend[B]) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.recordUnary(x,
		func(in *tensor.RawTensor) *tensor.RawTensor { return b.inner.DivScalar(in, scalar) },
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewDivScalarOp(in, out, scalar) })
}

// Exp computes e^x element-wise and records the operation.
func (b *AutodiffBackend[B]) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return b.recordUnary(x, b.inner.Exp,
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewExpOp(in, out) })
}

// Sqrt computes the square root element-wise and records the operation.
func (b *AutodiffBackend[B]) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return b.recordUnary(x, b.inner.Sqrt,
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewSqrtOp(in, out) })
}

// LeakyReLU applies x if x > 0 else slope*x and records the operation.
func (b *AutodiffBackend[B]) LeakyReLU(x *tensor.RawTensor, slope float64) *tensor.RawTensor {
	return b.recordUnary(x,
		func(in *tensor.RawTensor) *tensor.RawTensor { return ops.LeakyReLU(in, slope, b.Device()) },
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewLeakyReLUOp(in, out, slope) })
}

// BCEWithLogits computes the mean binary cross-entropy of logits against
// float targets of the same shape. Only the logits receive a gradient.
func (b *AutodiffBackend[B]) BCEWithLogits(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	result := ops.BCEWithLogitsForward(logits, targets, b.Device())
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewBCEWithLogitsOp(logits, targets, result))
	}
	return result
}

// Argmax returns indices of the maximum along dim. Not differentiable.
func (b *AutodiffBackend[B]) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Argmax(x, dim)
}

// Sum reduces x to a scalar and records the operation.
func (b *AutodiffBackend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	return b.recordUnary(x, b.inner.Sum,
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewSumOp(in, out) })
}

// SumDim sums along dim and records the operation.
func (b *AutodiffBackend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.recordUnary(x,
		func(in *tensor.RawTensor) *tensor.RawTensor { return b.inner.SumDim(in, dim, keepDim) },
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewSumDimOp(in, out, dim, keepDim) })
}

// MeanDim averages along dim and records the operation.
func (b *AutodiffBackend[B]) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.recordUnary(x,
		func(in *tensor.RawTensor) *tensor.RawTensor { return b.inner.MeanDim(in, dim, keepDim) },
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewMeanDimOp(in, out, dim, keepDim) })
}

// Cat concatenates tensors along dim and records the operation.
func (b *AutodiffBackend[B]) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	result := b.inner.Cat(tensors, dim)
	if b.tape.IsRecording() {
		d := dim
		if d < 0 {
			d += len(tensors[0].Shape())
		}
		sizes := make([]int, len(tensors))
		for i, t := range tensors {
			sizes[i] = t.Shape()[d]
		}
		b.tape.Record(ops.NewCatOp(tensors, d, sizes, result))
	}
	return result
}

// Chunk splits x into n equal parts along dim and records the operation.
func (b *AutodiffBackend[B]) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	results := b.inner.Chunk(x, n, dim)
	if b.tape.IsRecording() {
		d := dim
		if d < 0 {
			d += len(x.Shape())
		}
		b.tape.Record(ops.NewChunkOp(x, n, d, results))
	}
	return results
}

// Unsqueeze inserts a size-1 dimension. Recorded as a reshape.
func (b *AutodiffBackend[B]) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.recordUnary(x,
		func(in *tensor.RawTensor) *tensor.RawTensor { return b.inner.Unsqueeze(in, dim) },
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewReshapeOp(in, out) })
}

// Squeeze removes a size-1 dimension. Recorded as a reshape.
func (b *AutodiffBackend[B]) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.recordUnary(x,
		func(in *tensor.RawTensor) *tensor.RawTensor { return b.inner.Squeeze(in, dim) },
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewReshapeOp(in, out) })
}

// Expand broadcasts x to shape and records the operation.
func (b *AutodiffBackend[B]) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	return b.recordUnary(x,
		func(in *tensor.RawTensor) *tensor.RawTensor { return b.inner.Expand(in, shape) },
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewExpandOp(in, out) })
}
