// Package cpu implements tensor.Backend with float32 kernels.
//
// Every floating point kernel works on float32 data; the only other dtype
// produced is the int32 index tensor returned by Argmax. Large loops are
// split across goroutines with the parallel package.
package cpu

import (
	"fmt"

	"github.com/AnshMittal1811/Pytorch/internal/parallel"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// CPUBackend runs tensor kernels on the host.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a CPU backend using every available core.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    parallel.DefaultConfig(),
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// alloc creates a zeroed float32 result, panicking with the op name on
// failure like every other kernel error.
func (cpu *CPUBackend) alloc(op string, shape tensor.Shape) *tensor.RawTensor {
	return cpu.allocType(op, shape, tensor.Float32)
}

func (cpu *CPUBackend) allocType(op string, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	return result
}

// float32s returns the float32 view of t or panics naming op.
func float32s(op string, t *tensor.RawTensor) []float32 {
	if t.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtype %s (cpu kernels are float32)", op, t.DType()))
	}
	return t.AsFloat32()
}

// normDim resolves a negative dimension against rank n.
func normDim(op string, dim, n int) int {
	if dim < 0 {
		dim += n
	}
	if dim < 0 || dim >= n {
		panic(fmt.Sprintf("%s: dimension %d out of range for %dD tensor", op, dim, n))
	}
	return dim
}

// split factors shape around dim into outer * size * inner, so element
// (o, k, i) lives at (o*size+k)*inner + i.
func split(shape tensor.Shape, dim int) (outer, size, inner int) {
	outer, inner = 1, 1
	for _, d := range shape[:dim] {
		outer *= d
	}
	for _, d := range shape[dim+1:] {
		inner *= d
	}
	return outer, shape[dim], inner
}
