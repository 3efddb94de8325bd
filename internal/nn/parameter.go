package nn

import (
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// Parameter is a named trainable tensor and its latest gradient.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
	grad   *tensor.Tensor[float32, B]
}

// NewParameter wraps t. The gradient is nil until the first backward pass.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the name used in state dicts.
func (p *Parameter[B]) Name() string { return p.name }

// Tensor returns the value. Optimizers update its data in place so the
// tape keeps referring to the same buffer.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] { return p.tensor }

// Grad returns the gradient, or nil if none was computed.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] { return p.grad }

// SetGrad stores a gradient.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) { p.grad = grad }

// ZeroGrad drops the gradient.
func (p *Parameter[B]) ZeroGrad() { p.grad = nil }
