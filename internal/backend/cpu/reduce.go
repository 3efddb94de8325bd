package cpu

import (
	"github.com/chewxy/math32"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// Sum adds every element into a scalar tensor of shape [].
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	src := float32s("sum", x)
	result := cpu.alloc("sum", tensor.Shape{})
	var total float32
	for _, v := range src {
		total += v
	}
	result.AsFloat32()[0] = total
	return result
}

// reducedShape drops dim from shape, or sets it to 1 when keepDim.
func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	out = append(out, shape[:dim]...)
	return append(out, shape[dim+1:]...)
}

// SumDim sums along dim.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	dim = normDim("sumdim", dim, len(shape))
	src := float32s("sumdim", x)

	result := cpu.alloc("sumdim", reducedShape(shape, dim, keepDim))
	dst := result.AsFloat32()
	outer, size, inner := split(shape, dim)
	for o := 0; o < outer; o++ {
		for k := 0; k < size; k++ {
			row := src[(o*size+k)*inner : (o*size+k+1)*inner]
			out := dst[o*inner : (o+1)*inner]
			for i, v := range row {
				out[i] += v
			}
		}
	}
	return result
}

// MeanDim averages along dim.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	result := cpu.SumDim(x, dim, keepDim)
	n := float32(x.Shape()[normDim("meandim", dim, len(x.Shape()))])
	data := result.AsFloat32()
	for i := range data {
		data[i] /= n
	}
	return result
}

// Argmax returns int32 indices of the largest value along dim, with dim
// removed from the shape. Ties resolve to the first index.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = normDim("argmax", dim, len(shape))
	src := float32s("argmax", x)

	result := cpu.allocType("argmax", reducedShape(shape, dim, false), tensor.Int32)
	dst := result.AsInt32()
	outer, size, inner := split(shape, dim)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*size*inner + i
			best, bestIdx := src[base], int32(0)
			for k := 1; k < size; k++ {
				if v := src[base+k*inner]; v > best {
					best, bestIdx = v, int32(k)
				}
			}
			dst[o*inner+i] = bestIdx
		}
	}
	return result
}

// Softmax normalizes exp(x) along dim, subtracting the maximum first for
// numerical stability.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = normDim("softmax", dim, len(shape))
	src := float32s("softmax", x)

	result := cpu.alloc("softmax", shape)
	dst := result.AsFloat32()
	outer, size, inner := split(shape, dim)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*size*inner + i
			peak := src[base]
			for k := 1; k < size; k++ {
				peak = math32.Max(peak, src[base+k*inner])
			}
			var total float32
			for k := 0; k < size; k++ {
				e := math32.Exp(src[base+k*inner] - peak)
				dst[base+k*inner] = e
				total += e
			}
			for k := 0; k < size; k++ {
				dst[base+k*inner] /= total
			}
		}
	}
	return result
}
