// Package nn implements the layers the tutorials build their models from:
// Linear, Conv2D, MaxPool2D, Flatten, the recurrent RNN and LSTM, the
// activations, the losses, Sequential, and checkpoints in the .born format.
//
// Layers are generic over the backend. Under autodiff.AutodiffBackend every
// forward pass is recorded on the tape, so gradients reach the parameters.
package nn

import (
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// Module is a network component.
type Module[B tensor.Backend] interface {
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns the trainable parameters, nested modules
	// included, in a stable order.
	Parameters() []*Parameter[B]

	// StateDict returns the parameter tensors keyed by name.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies values from stateDict into the parameters.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}
