// Package autodiff adds reverse-mode automatic differentiation to a
// tensor.Backend.
//
// AutodiffBackend decorates an inner backend: every kernel runs on the
// inner backend and, while the tape is recording, an ops.Operation is
// appended so the tape can later walk the graph backwards.
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	x := tensor.Full[float32](tensor.Shape{1}, 2, backend)
//	y := x.Mul(x)
//	grads := autodiff.Backward(y, backend)
//	// grads[x.Raw()] holds dy/dx = 4
package autodiff

import (
	"github.com/AnshMittal1811/Pytorch/internal/autodiff/ops"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// AutodiffBackend wraps a Backend and records differentiable operations
// on a GradientTape.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New wraps backend. The tape starts out not recording.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for starting, stopping and clearing
// recording.
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// recordBinary runs a two-input kernel and, while recording, appends the
// op built by mk.
func (b *AutodiffBackend[B]) recordBinary(
	x, y *tensor.RawTensor,
	forward func(x, y *tensor.RawTensor) *tensor.RawTensor,
	mk func(x, y, out *tensor.RawTensor) ops.Operation,
) *tensor.RawTensor {
	result := forward(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(mk(x, y, result))
	}
	return result
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.recordBinary(x, y, b.inner.Add,
		func(x, y, out *tensor.RawTensor) ops.Operation { return ops.NewAddOp(x, y, out) })
}

// Sub performs element-wise subtraction and records the operation.
func (b *AutodiffBackend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.recordBinary(x, y, b.inner.Sub,
		func(x, y, out *tensor.RawTensor) ops.Operation { return ops.NewSubOp(x, y, out) })
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.recordBinary(x, y, b.inner.Mul,
		func(x, y, out *tensor.RawTensor) ops.Operation { return ops.NewMulOp(x, y, out) })
}

// Div performs element-wise division and records the operation.
func (b *AutodiffBackend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.recordBinary(x, y, b.inner.Div,
		func(x, y, out *tensor.RawTensor) ops.Operation { return ops.NewDivOp(x, y, out) })
}

// MatMul performs matrix multiplication and records the operation.
func (b *AutodiffBackend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.recordBinary(x, y, b.inner.MatMul,
		func(x, y, out *tensor.RawTensor) ops.Operation { return ops.NewMatMulOp(x, y, out) })
}

// Conv2D performs 2D convolution and records the operation.
func (b *AutodiffBackend[B]) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.recordBinary(input, kernel,
		func(x, k *tensor.RawTensor) *tensor.RawTensor { return b.inner.Conv2D(x, k, stride, padding) },
		func(x, k, out *tensor.RawTensor) ops.Operation { return ops.NewConv2DOp(x, k, out, stride, padding) })
}

// Reshape records the reshape. The backend copies data, so without the op
// gradients would stop at the reshaped copy (a conv bias reshaped to
// [1, C, 1, 1] would never be updated).
func (b *AutodiffBackend[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	return b.recordUnary(t,
		func(in *tensor.RawTensor) *tensor.RawTensor { return b.inner.Reshape(in, newShape) },
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewReshapeOp(in, out) })
}

// Transpose permutes axes and records the operation. With no axes the
// dimensions are reversed.
func (b *AutodiffBackend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	ndim := len(t.Shape())
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	return b.recordUnary(t,
		func(in *tensor.RawTensor) *tensor.RawTensor { return b.inner.Transpose(in, axes...) },
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewTransposeOp(in, out, axes) })
}

// MaxPool2D performs 2D max pooling and records which input won each
// window.
func (b *AutodiffBackend[B]) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	return b.recordUnary(input,
		func(in *tensor.RawTensor) *tensor.RawTensor { return b.inner.MaxPool2D(in, kernelSize, stride) },
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewMaxPool2DOp(in, out, kernelSize, stride) })
}

// ReLU applies max(x, 0) and records the operation.
func (b *AutodiffBackend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return b.recordUnary(x,
		func(in *tensor.RawTensor) *tensor.RawTensor { return ops.ReLU(in, b.Device()) },
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewReLUOp(in, out) })
}

// Sigmoid applies 1 / (1 + e^-x) and records the operation.
func (b *AutodiffBackend[B]) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return b.recordUnary(x,
		func(in *tensor.RawTensor) *tensor.RawTensor { return ops.Sigmoid(in, b.Device()) },
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewSigmoidOp(in, out) })
}

// Tanh applies the hyperbolic tangent and records the operation.
func (b *AutodiffBackend[B]) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return b.recordUnary(x,
		func(in *tensor.RawTensor) *tensor.RawTensor { return ops.Tanh(in, b.Device()) },
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewTanhOp(in, out) })
}

// Log computes the natural logarithm and records the operation. Inputs
// must be positive.
func (b *AutodiffBackend[B]) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return b.recordUnary(x, b.inner.Log,
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewLogOp(in, out) })
}

// Softmax normalizes along dim and records the operation.
func (b *AutodiffBackend[B]) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.recordUnary(x,
		func(in *tensor.RawTensor) *tensor.RawTensor { return b.inner.Softmax(in, dim) },
		func(in, out *tensor.RawTensor) ops.Operation { return ops.NewSoftmaxOp(in, out, dim) })
}

// CrossEntropy computes mean(-log_softmax(logits)[targets]) for logits
// [batch, classes] and int32 targets [batch]. Only the logits receive a
// gradient.
func (b *AutodiffBackend[B]) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	result := ops.CrossEntropyForward(logits, targets, b.Device())
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewCrossEntropyOp(logits, targets, result))
	}
	return result
}
