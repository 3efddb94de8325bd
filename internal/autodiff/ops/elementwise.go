package ops

import (
	"github.com/chewxy/math32"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// apply runs f over every element of x.
func apply(op string, x *tensor.RawTensor, device tensor.Device, f func(float32) float32) *tensor.RawTensor {
	src := float32s(op, x)
	out := zeros(op, x.Shape(), device)
	dst := out.AsFloat32()
	for i, v := range src {
		dst[i] = f(v)
	}
	return out
}

// ReLU computes max(x, 0).
func ReLU(x *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	return apply("relu", x, device, func(v float32) float32 { return max(v, 0) })
}

// Sigmoid computes 1 / (1 + e^-x).
func Sigmoid(x *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	return apply("sigmoid", x, device, sigmoid)
}

// Tanh computes the hyperbolic tangent.
func Tanh(x *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	return apply("tanh", x, device, math32.Tanh)
}

// LeakyReLU computes x for x > 0 and slope*x otherwise.
func LeakyReLU(x *tensor.RawTensor, slope float64, device tensor.Device) *tensor.RawTensor {
	s := float32(slope)
	return apply("leaky relu", x, device, func(v float32) float32 {
		if v > 0 {
			return v
		}
		return s * v
	})
}

func sigmoid(v float32) float32 {
	return 1 / (1 + math32.Exp(-v))
}

// ReLUOp masks the gradient where the input was not positive.
type ReLUOp struct{ node }

// NewReLUOp records relu(x).
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{edges(output, input)}
}

// Backward returns grad where x > 0 and zero elsewhere.
func (op *ReLUOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{zip("relu backward", op.input(0), grad, func(x, g float32) float32 {
		if x > 0 {
			return g
		}
		return 0
	})}
}

// LeakyReLUOp scales the gradient by slope where the input was not
// positive.
type LeakyReLUOp struct {
	node
	slope float32
}

// NewLeakyReLUOp records leaky_relu(x, slope).
func NewLeakyReLUOp(input, output *tensor.RawTensor, slope float64) *LeakyReLUOp {
	return &LeakyReLUOp{node: edges(output, input), slope: float32(slope)}
}

// Backward returns grad where x > 0 and slope*grad elsewhere.
func (op *LeakyReLUOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{zip("leaky relu backward", op.input(0), grad, func(x, g float32) float32 {
		if x > 0 {
			return g
		}
		return op.slope * g
	})}
}

// SigmoidOp is output = σ(x); dσ/dx = σ(1-σ).
type SigmoidOp struct{ node }

// NewSigmoidOp records sigmoid(x).
func NewSigmoidOp(input, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{edges(output, input)}
}

// Backward uses the saved output.
func (op *SigmoidOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{zip("sigmoid backward", op.output, grad, func(y, g float32) float32 {
		return g * y * (1 - y)
	})}
}

// TanhOp is output = tanh(x); d/dx = 1 - tanh².
type TanhOp struct{ node }

// NewTanhOp records tanh(x).
func NewTanhOp(input, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{edges(output, input)}
}

// Backward uses the saved output.
func (op *TanhOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{zip("tanh backward", op.output, grad, func(y, g float32) float32 {
		return g * (1 - y*y)
	})}
}

// ExpOp is output = e^x.
type ExpOp struct{ node }

// NewExpOp records exp(x).
func NewExpOp(input, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{edges(output, input)}
}

// Backward returns grad * e^x.
func (op *ExpOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{zip("exp backward", op.output, grad, func(y, g float32) float32 {
		return g * y
	})}
}

// LogOp is output = ln(x).
type LogOp struct{ node }

// NewLogOp records log(x).
func NewLogOp(input, output *tensor.RawTensor) *LogOp {
	return &LogOp{edges(output, input)}
}

// Backward returns grad / x.
func (op *LogOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{zip("log backward", op.input(0), grad, func(x, g float32) float32 {
		return g / x
	})}
}

// SqrtOp is output = √x.
type SqrtOp struct{ node }

// NewSqrtOp records sqrt(x).
func NewSqrtOp(input, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{edges(output, input)}
}

// Backward returns grad / (2√x).
func (op *SqrtOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{zip("sqrt backward", op.output, grad, func(y, g float32) float32 {
		return g / (2 * y)
	})}
}
