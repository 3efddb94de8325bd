package nn

import (
	"fmt"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// Conv2D convolves [N, Cin, H, W] with a [Cout, Cin, kH, kW] kernel and
// adds a per-channel bias. Output spatial size is
// (H + 2*padding - kH)/stride + 1.
type Conv2D[B tensor.Backend] struct {
	inChannels, outChannels int
	kernelH, kernelW        int
	stride, padding         int

	weight *Parameter[B]
	bias   *Parameter[B] // nil without bias

	backend B
}

// NewConv2D creates a convolution. Weights and bias start from
// U(-1/√fan_in, 1/√fan_in) with fan_in = Cin*kH*kW.
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelH, kernelW, stride, padding int, useBias bool, backend B) *Conv2D[B] {
	switch {
	case inChannels <= 0 || outChannels <= 0:
		panic(fmt.Sprintf("conv2d: invalid channels in=%d, out=%d", inChannels, outChannels))
	case kernelH <= 0 || kernelW <= 0:
		panic(fmt.Sprintf("conv2d: invalid kernel size %dx%d", kernelH, kernelW))
	case stride <= 0:
		panic(fmt.Sprintf("conv2d: invalid stride %d", stride))
	case padding < 0:
		panic(fmt.Sprintf("conv2d: invalid padding %d", padding))
	}

	fanIn := inChannels * kernelH * kernelW
	c := &Conv2D[B]{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelH:     kernelH,
		kernelW:     kernelW,
		stride:      stride,
		padding:     padding,
		weight:      NewParameter("weight", FanIn(fanIn, tensor.Shape{outChannels, inChannels, kernelH, kernelW}, backend)),
		backend:     backend,
	}
	if useBias {
		c.bias = NewParameter("bias", FanIn(fanIn, tensor.Shape{outChannels}, backend))
	}
	return c
}

// Forward maps [N, Cin, H, W] to [N, Cout, H', W'].
func (c *Conv2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 || shape[1] != c.inChannels {
		panic(fmt.Sprintf("conv2d: expected input [N, %d, H, W], got %v", c.inChannels, shape))
	}

	out := tensor.New[float32, B](c.backend.Conv2D(input.Raw(), c.weight.Tensor().Raw(), c.stride, c.padding), c.backend)
	if c.bias == nil {
		return out
	}
	// The reshape is recorded, so the gradient reaches the [Cout] bias.
	return out.Add(c.bias.Tensor().Reshape(1, c.outChannels, 1, 1))
}

// Parameters returns the weight and, when present, the bias.
func (c *Conv2D[B]) Parameters() []*Parameter[B] {
	if c.bias == nil {
		return []*Parameter[B]{c.weight}
	}
	return []*Parameter[B]{c.weight, c.bias}
}

// StateDict returns weight and bias.
func (c *Conv2D[B]) StateDict() map[string]*tensor.RawTensor {
	sd := map[string]*tensor.RawTensor{"weight": c.weight.Tensor().Raw()}
	if c.bias != nil {
		sd["bias"] = c.bias.Tensor().Raw()
	}
	return sd
}

// LoadStateDict restores weight and bias.
func (c *Conv2D[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadParameter(c.weight, stateDict, "weight"); err != nil {
		return err
	}
	if c.bias == nil {
		return nil
	}
	return loadParameter(c.bias, stateDict, "bias")
}

// OutputSize returns the spatial size produced for an h×w input.
func (c *Conv2D[B]) OutputSize(h, w int) (int, int) {
	return (h+2*c.padding-c.kernelH)/c.stride + 1, (w+2*c.padding-c.kernelW)/c.stride + 1
}

func (c *Conv2D[B]) String() string {
	return fmt.Sprintf("Conv2d(%d, %d, kernel_size=(%d, %d), stride=(%d, %d), padding=(%d, %d))",
		c.inChannels, c.outChannels, c.kernelH, c.kernelW, c.stride, c.stride, c.padding, c.padding)
}

// MaxPool2D takes the maximum over square windows of [N, C, H, W].
type MaxPool2D[B tensor.Backend] struct {
	stateless[B]
	kernelSize, stride int
	backend            B
}

// NewMaxPool2D creates a pooling layer.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int, backend B) *MaxPool2D[B] {
	if kernelSize <= 0 || stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel size %d or stride %d", kernelSize, stride))
	}
	return &MaxPool2D[B]{kernelSize: kernelSize, stride: stride, backend: backend}
}

// Forward maps [N, C, H, W] to [N, C, H', W'].
func (m *MaxPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if len(input.Shape()) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4D input [N,C,H,W], got %v", input.Shape()))
	}
	return tensor.New[float32, B](m.backend.MaxPool2D(input.Raw(), m.kernelSize, m.stride), m.backend)
}

// OutputSize returns the spatial size produced for an h×w input.
func (m *MaxPool2D[B]) OutputSize(h, w int) (int, int) {
	return (h-m.kernelSize)/m.stride + 1, (w-m.kernelSize)/m.stride + 1
}

func (m *MaxPool2D[B]) String() string {
	return fmt.Sprintf("MaxPool2d(kernel_size=%d, stride=%d)", m.kernelSize, m.stride)
}
