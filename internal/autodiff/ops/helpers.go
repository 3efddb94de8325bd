package ops

import (
	"fmt"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// zeros allocates a float32 tensor or panics with the op name.
func zeros(op string, shape tensor.Shape, device tensor.Device) *tensor.RawTensor {
	t, err := tensor.NewRaw(shape, tensor.Float32, device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	return t
}

func float32s(op string, t *tensor.RawTensor) []float32 {
	if t.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: expected float32, got %s", op, t.DType()))
	}
	return t.AsFloat32()
}

// zip builds a tensor shaped like x from f(x[i], grad[i]).
func zip(op string, x, grad *tensor.RawTensor, f func(x, g float32) float32) *tensor.RawTensor {
	xs, gs := float32s(op, x), float32s(op, grad)
	if len(xs) != len(gs) {
		panic(fmt.Sprintf("%s: gradient has %d elements, input has %d", op, len(gs), len(xs)))
	}
	out := zeros(op, x.Shape(), x.Device())
	dst := out.AsFloat32()
	for i, v := range xs {
		dst[i] = f(v, gs[i])
	}
	return out
}

func normDim(op string, dim, ndim int) int {
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("%s: dim %d out of range for %dD tensor", op, dim, ndim))
	}
	return dim
}

// split views shape as [outer, size, inner] around dim.
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

// reduceBroadcast sums grad over the axes along which target was
// broadcast, returning a gradient with target's shape. Target is aligned
// to the trailing dimensions of grad.
func reduceBroadcast(grad *tensor.RawTensor, target tensor.Shape) *tensor.RawTensor {
	shape := grad.Shape()
	if shape.Equal(target) {
		return grad
	}
	if len(target) > len(shape) {
		panic(fmt.Sprintf("reduce broadcast: cannot reduce %v to %v", shape, target))
	}

	// Broadcast axes get stride 0 so every element lands on the same slot.
	strides := make([]int, len(shape))
	offset := len(shape) - len(target)
	stride := 1
	for i := len(target) - 1; i >= 0; i-- {
		switch target[i] {
		case shape[i+offset]:
			strides[i+offset] = stride
		case 1:
		default:
			panic(fmt.Sprintf("reduce broadcast: cannot reduce %v to %v", shape, target))
		}
		stride *= target[i]
	}

	out := zeros("reduce broadcast", target, grad.Device())
	dst := out.AsFloat32()
	idx := make([]int, len(shape))
	pos := 0
	for _, g := range float32s("reduce broadcast", grad) {
		dst[pos] += g
		for d := len(shape) - 1; d >= 0; d-- {
			idx[d]++
			pos += strides[d]
			if idx[d] < shape[d] {
				break
			}
			pos -= idx[d] * strides[d]
			idx[d] = 0
		}
	}
	return out
}
