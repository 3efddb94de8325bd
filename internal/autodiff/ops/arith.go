package ops

import "github.com/AnshMittal1811/Pytorch/internal/tensor"

// AddOp is output = a + b with broadcasting.
type AddOp struct{ node }

// NewAddOp records a + b.
func NewAddOp(a, b, output *tensor.RawTensor) *AddOp {
	return &AddOp{edges(output, a, b)}
}

// Backward passes the gradient through, summed over broadcast axes.
func (op *AddOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(grad, op.input(0).Shape()),
		reduceBroadcast(grad, op.input(1).Shape()),
	}
}

// SubOp is output = a - b with broadcasting.
type SubOp struct{ node }

// NewSubOp records a - b.
func NewSubOp(a, b, output *tensor.RawTensor) *SubOp {
	return &SubOp{edges(output, a, b)}
}

// Backward returns grad for a and -grad for b.
func (op *SubOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(grad, op.input(0).Shape()),
		reduceBroadcast(backend.MulScalar(grad, float32(-1)), op.input(1).Shape()),
	}
}

// MulOp is output = a * b with broadcasting.
type MulOp struct{ node }

// NewMulOp records a * b.
func NewMulOp(a, b, output *tensor.RawTensor) *MulOp {
	return &MulOp{edges(output, a, b)}
}

// Backward returns grad*b and grad*a.
func (op *MulOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.input(0), op.input(1)
	return []*tensor.RawTensor{
		reduceBroadcast(backend.Mul(grad, b), a.Shape()),
		reduceBroadcast(backend.Mul(grad, a), b.Shape()),
	}
}

// DivOp is output = a / b with broadcasting.
type DivOp struct{ node }

// NewDivOp records a / b.
func NewDivOp(a, b, output *tensor.RawTensor) *DivOp {
	return &DivOp{edges(output, a, b)}
}

// Backward returns grad/b and -grad*output/b.
func (op *DivOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.input(0), op.input(1)
	ga := backend.Div(grad, b)
	gb := backend.MulScalar(backend.Div(backend.Mul(grad, op.output), b), float32(-1))
	return []*tensor.RawTensor{
		reduceBroadcast(ga, a.Shape()),
		reduceBroadcast(gb, b.Shape()),
	}
}

// MatMulOp is output = a @ b for 2D operands.
type MatMulOp struct{ node }

// NewMatMulOp records a @ b.
func NewMatMulOp(a, b, output *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{edges(output, a, b)}
}

// Backward returns grad @ bᵀ and aᵀ @ grad.
func (op *MatMulOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.input(0), op.input(1)
	return []*tensor.RawTensor{
		backend.MatMul(grad, backend.Transpose(b, 1, 0)),
		backend.MatMul(backend.Transpose(a, 1, 0), grad),
	}
}

// MulScalarOp is output = x * s.
type MulScalarOp struct {
	node
	scalar any
}

// NewMulScalarOp records x * scalar.
func NewMulScalarOp(input, output *tensor.RawTensor, scalar any) *MulScalarOp {
	return &MulScalarOp{node: edges(output, input), scalar: scalar}
}

// Backward scales the gradient by the same constant.
func (op *MulScalarOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MulScalar(grad, op.scalar)}
}

// DivScalarOp is output = x / s.
type DivScalarOp struct {
	node
	scalar any
}

// NewDivScalarOp records x / scalar.
func NewDivScalarOp(input, output *tensor.RawTensor, scalar any) *DivScalarOp {
	return &DivScalarOp{node: edges(output, input), scalar: scalar}
}

// Backward divides the gradient by the same constant.
func (op *DivScalarOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.DivScalar(grad, op.scalar)}
}

// ShiftScalarOp is output = x ± s. The constant does not affect the
// gradient.
type ShiftScalarOp struct{ node }

// NewShiftScalarOp records x + scalar or x - scalar.
func NewShiftScalarOp(input, output *tensor.RawTensor) *ShiftScalarOp {
	return &ShiftScalarOp{edges(output, input)}
}

// Backward is the identity.
func (op *ShiftScalarOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{grad}
}
