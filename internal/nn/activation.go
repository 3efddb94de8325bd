package nn

import (
	"fmt"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// ActivationBackend is implemented by backends that provide the
// element-wise activations. autodiff.AutodiffBackend records them on its
// tape.
type ActivationBackend interface {
	ReLU(x *tensor.RawTensor) *tensor.RawTensor
	Sigmoid(x *tensor.RawTensor) *tensor.RawTensor
	Tanh(x *tensor.RawTensor) *tensor.RawTensor
	LeakyReLU(x *tensor.RawTensor, slope float64) *tensor.RawTensor
}

// stateless supplies the Module methods of layers without parameters.
type stateless[B tensor.Backend] struct{}

// Parameters returns nil.
func (stateless[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty map.
func (stateless[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict ignores its argument.
func (stateless[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

func activation[B tensor.Backend](
	name string,
	input *tensor.Tensor[float32, B],
	f func(ActivationBackend, *tensor.RawTensor) *tensor.RawTensor,
) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	ab, ok := any(backend).(ActivationBackend)
	if !ok {
		panic(fmt.Sprintf("%s: backend %s has no activation kernels (use autodiff.AutodiffBackend)", name, backend.Name()))
	}
	return tensor.New[float32, B](f(ab, input.Raw()), backend)
}

// ReLU applies max(x, 0).
type ReLU[B tensor.Backend] struct{ stateless[B] }

// NewReLU creates a ReLU module.
func NewReLU[B tensor.Backend]() *ReLU[B] { return &ReLU[B]{} }

// Forward applies the activation.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return activation("ReLU", input, func(ab ActivationBackend, x *tensor.RawTensor) *tensor.RawTensor {
		return ab.ReLU(x)
	})
}

func (r *ReLU[B]) String() string { return "ReLU()" }

// Sigmoid applies 1 / (1 + e^-x).
type Sigmoid[B tensor.Backend] struct{ stateless[B] }

// NewSigmoid creates a Sigmoid module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] { return &Sigmoid[B]{} }

// Forward applies the activation.
func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return activation("Sigmoid", input, func(ab ActivationBackend, x *tensor.RawTensor) *tensor.RawTensor {
		return ab.Sigmoid(x)
	})
}

func (s *Sigmoid[B]) String() string { return "Sigmoid()" }

// Tanh applies the hyperbolic tangent.
type Tanh[B tensor.Backend] struct{ stateless[B] }

// NewTanh creates a Tanh module.
func NewTanh[B tensor.Backend]() *Tanh[B] { return &Tanh[B]{} }

// Forward applies the activation.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return activation("Tanh", input, func(ab ActivationBackend, x *tensor.RawTensor) *tensor.RawTensor {
		return ab.Tanh(x)
	})
}

func (t *Tanh[B]) String() string { return "Tanh()" }

// LeakyReLU applies x for x > 0 and slope*x otherwise. The GAN uses a
// slope of 0.2.
type LeakyReLU[B tensor.Backend] struct {
	stateless[B]
	slope float64
}

// NewLeakyReLU creates a LeakyReLU with the given negative slope.
func NewLeakyReLU[B tensor.Backend](slope float64) *LeakyReLU[B] {
	return &LeakyReLU[B]{slope: slope}
}

// Forward applies the activation.
func (l *LeakyReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return activation("LeakyReLU", input, func(ab ActivationBackend, x *tensor.RawTensor) *tensor.RawTensor {
		return ab.LeakyReLU(x, l.slope)
	})
}

// Slope returns the negative slope.
func (l *LeakyReLU[B]) Slope() float64 { return l.slope }

func (l *LeakyReLU[B]) String() string {
	return fmt.Sprintf("LeakyReLU(negative_slope=%g)", l.slope)
}

// Flatten reshapes [N, d1, d2, ...] to [N, d1*d2*...].
type Flatten[B tensor.Backend] struct{ stateless[B] }

// NewFlatten creates a Flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] { return &Flatten[B]{} }

// Forward collapses every dimension after the first.
func (f *Flatten[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("Flatten: expected at least 2D input, got shape %v", shape))
	}
	if len(shape) == 2 {
		return input
	}
	return input.Reshape(shape[0], shape[1:].NumElements())
}

func (f *Flatten[B]) String() string { return "Flatten()" }
