package autodiff

import (
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// BackwardCapable is a backend that owns a gradient tape.
type BackwardCapable interface {
	tensor.Backend
	GetTape() *GradientTape
}

// GetTape returns the gradient tape.
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Backward seeds dL/dt with ones and walks the tape. t must be the output
// of the last recorded operation. The result maps every tensor reached by
// the backward pass to its gradient.
func Backward[B BackwardCapable](t *tensor.Tensor[float32, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.GetTape()
	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}
	if !tape.producedLast(t.Raw()) {
		panic("backward: tensor is not the output of the last recorded operation")
	}

	seed := tensor.Ones[float32](t.Shape(), backend)
	return tape.Backward(seed.Raw(), backend)
}
