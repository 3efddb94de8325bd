package cpu

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// MaxPool2D takes the maximum of each kernelSize x kernelSize window of
// [N, C, H, W], moving by stride. Partial windows at the border are
// dropped.
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	if kernelSize <= 0 || stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel %d / stride %d", kernelSize, stride))
	}
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	if kernelSize > h || kernelSize > w {
		panic(fmt.Sprintf("maxpool2d: kernel size %d too large for input %dx%d", kernelSize, h, w))
	}
	hOut, wOut := (h-kernelSize)/stride+1, (w-kernelSize)/stride+1

	src := float32s("maxpool2d", input)
	output := cpu.alloc("maxpool2d", tensor.Shape{n, c, hOut, wOut})
	dst := output.AsFloat32()

	for p := 0; p < n*c; p++ {
		plane := src[p*h*w : (p+1)*h*w]
		for oh := 0; oh < hOut; oh++ {
			for ow := 0; ow < wOut; ow++ {
				best := math32.Inf(-1)
				for kh := 0; kh < kernelSize; kh++ {
					row := plane[(oh*stride+kh)*w:]
					for kw := 0; kw < kernelSize; kw++ {
						best = math32.Max(best, row[ow*stride+kw])
					}
				}
				dst[(p*hOut+oh)*wOut+ow] = best
			}
		}
	}
	return output
}

// MaxPool2DBackward routes each output gradient to the input element that
// won its window. maxIndices holds one flat input index per output
// element, as recorded by the forward op.
func (cpu *CPUBackend) MaxPool2DBackward(input, grad *tensor.RawTensor, maxIndices []int, _, _ int) *tensor.RawTensor {
	upstream := float32s("maxpool2d backward", grad)
	if len(maxIndices) != len(upstream) {
		panic(fmt.Sprintf("maxpool2d backward: %d indices for %d gradients", len(maxIndices), len(upstream)))
	}

	inputGrad := cpu.alloc("maxpool2d backward", input.Shape())
	dst := inputGrad.AsFloat32()
	for i, g := range upstream {
		dst[maxIndices[i]] += g
	}
	return inputGrad
}
