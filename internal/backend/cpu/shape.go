package cpu

import (
	"fmt"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// Reshape copies t into a fresh buffer of a compatible shape, so the
// autodiff tape always sees distinct input and output tensors.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: invalid shape: %v", err))
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v into %v", t.Shape(), newShape))
	}

	result := cpu.allocType("reshape", newShape, t.DType())
	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes dimensions; with no axes it reverses them.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d != ndim %d", len(axes), ndim))
	}

	seen := make([]bool, ndim)
	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("transpose: invalid permutation %v for %dD tensor", axes, ndim))
		}
		seen[ax] = true
		newShape[i] = shape[ax]
	}

	src := float32s("transpose", t)
	result := cpu.alloc("transpose", newShape)
	dst := result.AsFloat32()

	// Stride of each destination axis inside the source buffer.
	srcStrides := shape.ComputeStrides()
	walk := make([]int, ndim)
	for i, ax := range axes {
		walk[i] = srcStrides[ax]
	}
	dstStrides := newShape.ComputeStrides()
	for i := range dst {
		dst[i] = src[sourceIndex(i, dstStrides, walk)]
	}
	return result
}

// Expand broadcasts x to shape, materializing the repeated values.
func (cpu *CPUBackend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	xShape := x.Shape()
	if len(shape) < len(xShape) {
		panic(fmt.Sprintf("expand: %v has fewer dimensions than %v", shape, xShape))
	}
	offset := len(shape) - len(xShape)
	for i, d := range xShape {
		if d != 1 && d != shape[offset+i] {
			panic(fmt.Sprintf("expand: cannot expand dimension %d from %d to %d", i, d, shape[offset+i]))
		}
	}

	src := float32s("expand", x)
	result := cpu.alloc("expand", shape)
	dst := result.AsFloat32()
	outStrides := shape.ComputeStrides()
	inStrides := broadcastStrides(xShape, shape)
	for i := range dst {
		dst[i] = src[sourceIndex(i, outStrides, inStrides)]
	}
	return result
}

// Cat concatenates tensors along dim. All other dimensions must match.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}
	first := tensors[0].Shape()
	dim = normDim("cat", dim, len(first))

	outShape := first.Clone()
	outShape[dim] = 0
	for i, t := range tensors {
		s := t.Shape()
		if len(s) != len(first) {
			panic(fmt.Sprintf("cat: tensor %d has %d dimensions, expected %d", i, len(s), len(first)))
		}
		for d := range s {
			if d != dim && s[d] != first[d] {
				panic(fmt.Sprintf("cat: tensor %d dimension %d is %d, expected %d", i, d, s[d], first[d]))
			}
		}
		outShape[dim] += s[dim]
	}

	result := cpu.alloc("cat", outShape)
	dst := result.AsFloat32()
	outer, total, inner := split(outShape, dim)

	at := 0
	for _, t := range tensors {
		src := float32s("cat", t)
		block := t.Shape()[dim] * inner
		for o := 0; o < outer; o++ {
			copy(dst[o*total*inner+at:], src[o*block:(o+1)*block])
		}
		at += block
	}
	return result
}

// Chunk splits x into n equal parts along dim.
func (cpu *CPUBackend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	if n <= 0 {
		panic(fmt.Sprintf("chunk: n must be positive, got %d", n))
	}
	shape := x.Shape()
	dim = normDim("chunk", dim, len(shape))
	if shape[dim]%n != 0 {
		panic(fmt.Sprintf("chunk: dimension %d size %d not divisible by %d", dim, shape[dim], n))
	}

	src := float32s("chunk", x)
	outer, size, inner := split(shape, dim)
	block := size / n * inner

	chunkShape := shape.Clone()
	chunkShape[dim] = size / n
	results := make([]*tensor.RawTensor, n)
	for c := range results {
		results[c] = cpu.alloc("chunk", chunkShape)
		dst := results[c].AsFloat32()
		for o := 0; o < outer; o++ {
			start := o*size*inner + c*block
			copy(dst[o*block:(o+1)*block], src[start:start+block])
		}
	}
	return results
}

// Unsqueeze inserts a dimension of size 1 at dim.
func (cpu *CPUBackend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape) + 1
	}
	if dim < 0 || dim > len(shape) {
		panic(fmt.Sprintf("unsqueeze: dimension %d out of range for %dD tensor", dim, len(shape)))
	}

	newShape := make(tensor.Shape, 0, len(shape)+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)
	return cpu.Reshape(x, newShape)
}

// Squeeze removes dimension dim, which must have size 1.
func (cpu *CPUBackend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = normDim("squeeze", dim, len(shape))
	if shape[dim] != 1 {
		panic(fmt.Sprintf("squeeze: dimension %d has size %d, must be 1", dim, shape[dim]))
	}

	newShape := make(tensor.Shape, 0, len(shape)-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)
	return cpu.Reshape(x, newShape)
}
