package cpu

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b, func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("div", a, b, func(x, y float32) float32 { return x / y })
}

// binary applies f element-wise into a new tensor. Equal shapes skip the
// broadcast index arithmetic.
func (cpu *CPUBackend) binary(op string, a, b *tensor.RawTensor, f func(x, y float32) float32) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	x, y := float32s(op, a), float32s(op, b)
	result := cpu.alloc(op, outShape)
	dst := result.AsFloat32()

	if !needsBroadcast {
		for i := range dst {
			dst[i] = f(x[i], y[i])
		}
		return result
	}

	outStrides := outShape.ComputeStrides()
	xStrides := broadcastStrides(a.Shape(), outShape)
	yStrides := broadcastStrides(b.Shape(), outShape)
	for i := range dst {
		dst[i] = f(x[sourceIndex(i, outStrides, xStrides)], y[sourceIndex(i, outStrides, yStrides)])
	}
	return result
}

// broadcastStrides gives the strides of in viewed as out: dimensions that
// are missing or of size 1 get stride 0.
func broadcastStrides(in, out tensor.Shape) []int {
	strides := make([]int, len(out))
	own := in.ComputeStrides()
	offset := len(out) - len(in)
	for i := range out {
		j := i - offset
		if j >= 0 && in[j] != 1 {
			strides[i] = own[j]
		}
	}
	return strides
}

// sourceIndex maps flat output index i to the flat index in a tensor with
// the given broadcast strides.
func sourceIndex(i int, outStrides, inStrides []int) int {
	idx := 0
	for d, s := range outStrides {
		idx += (i / s) * inStrides[d]
		i %= s
	}
	return idx
}

// unary applies f to every element into a new tensor.
func (cpu *CPUBackend) unary(op string, x *tensor.RawTensor, f func(v float32) float32) *tensor.RawTensor {
	src := float32s(op, x)
	result := cpu.alloc(op, x.Shape())
	dst := result.AsFloat32()
	for i, v := range src {
		dst[i] = f(v)
	}
	return result
}

// scalarValue converts the scalar argument of the *Scalar kernels.
func scalarValue(op string, scalar any) float32 {
	switch s := scalar.(type) {
	case float32:
		return s
	case float64:
		return float32(s)
	case int:
		return float32(s)
	default:
		panic(fmt.Sprintf("%s: unsupported scalar type %T", op, scalar))
	}
}

// MulScalar multiplies every element by scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := scalarValue("mulScalar", scalar)
	return cpu.unary("mulScalar", x, func(v float32) float32 { return v * s })
}

// AddScalar adds scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := scalarValue("addScalar", scalar)
	return cpu.unary("addScalar", x, func(v float32) float32 { return v + s })
}

// SubScalar subtracts scalar from every element.
func (cpu *CPUBackend) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := scalarValue("subScalar", scalar)
	return cpu.unary("subScalar", x, func(v float32) float32 { return v - s })
}

// DivScalar divides every element by scalar.
func (cpu *CPUBackend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := scalarValue("divScalar", scalar)
	return cpu.unary("divScalar", x, func(v float32) float32 { return v / s })
}

// Exp computes e^x element-wise.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("exp", x, math32.Exp)
}

// Log computes the natural logarithm element-wise.
func (cpu *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("log", x, math32.Log)
}

// Sqrt computes the square root element-wise.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sqrt", x, math32.Sqrt)
}
