package ops

import (
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// Conv2DOp is a 2D convolution of input [N, C, H, W] with kernel
// [Cout, C, kH, kW]. The kernel gradients live in the backend.
type Conv2DOp struct {
	node
	stride, padding int
}

// NewConv2DOp records conv2d(input, kernel).
func NewConv2DOp(input, kernel, output *tensor.RawTensor, stride, padding int) *Conv2DOp {
	return &Conv2DOp{node: edges(output, input, kernel), stride: stride, padding: padding}
}

// Backward returns the input and kernel gradients.
func (op *Conv2DOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	input, kernel := op.input(0), op.input(1)
	return []*tensor.RawTensor{
		backend.Conv2DInputBackward(input, kernel, grad, op.stride, op.padding),
		backend.Conv2DKernelBackward(input, kernel, grad, op.stride, op.padding),
	}
}

// MaxPool2DOp routes each output gradient to the input element that won
// its pooling window.
type MaxPool2DOp struct {
	node
	kernelSize, stride int
	argmax             []int // flat input index per output element
}

// NewMaxPool2DOp records maxpool2d(input) and remembers the winners.
func NewMaxPool2DOp(input, output *tensor.RawTensor, kernelSize, stride int) *MaxPool2DOp {
	return &MaxPool2DOp{
		node:       edges(output, input),
		kernelSize: kernelSize,
		stride:     stride,
		argmax:     poolWinners(input, output.Shape(), kernelSize, stride),
	}
}

// poolWinners returns, for every output element, the flat index of the
// largest input in its window. Ties go to the first element in row-major
// order.
func poolWinners(input *tensor.RawTensor, outShape tensor.Shape, kernelSize, stride int) []int {
	in := input.Shape()
	planes, h, w := in[0]*in[1], in[2], in[3]
	hOut, wOut := outShape[2], outShape[3]
	src := float32s("max pool", input)

	winners := make([]int, planes*hOut*wOut)
	i := 0
	for p := range planes {
		base := p * h * w
		for oy := range hOut {
			for ox := range wOut {
				best := base + oy*stride*w + ox*stride
				for ky := range kernelSize {
					row := base + (oy*stride+ky)*w + ox*stride
					for kx := range kernelSize {
						if src[row+kx] > src[best] {
							best = row + kx
						}
					}
				}
				winners[i] = best
				i++
			}
		}
	}
	return winners
}

// Backward scatters the gradient onto the recorded winners.
func (op *MaxPool2DOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MaxPool2DBackward(op.input(0), grad, op.argmax, op.kernelSize, op.stride)}
}
