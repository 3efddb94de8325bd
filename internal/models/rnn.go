package models

import (
	"fmt"

	"github.com/AnshMittal1811/Pytorch/internal/nn"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// Recurrent cell kinds.
const (
	CellRNNTanh = "rnn_tanh"
	CellRNNReLU = "rnn_relu"
	CellLSTM    = "lstm"
)

type recurrent[B tensor.Backend] interface {
	nn.Module[B]
	ForwardLast(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
}

// RNNClassifier reads each image row by row as a sequence and classifies
// from the hidden state after the last step.
type RNNClassifier[B tensor.Backend] struct {
	cell      string
	seqLen    int
	inputSize int
	rnn       recurrent[B]
	fc        *nn.Linear[B]
}

// NewRNNClassifier creates a recurrent classifier over sequences of seqLen
// steps with inputSize features each.
func NewRNNClassifier[B tensor.Backend](cell string, seqLen, inputSize, hidden, layers, classes int, backend B) (*RNNClassifier[B], error) {
	var rnn recurrent[B]
	switch cell {
	case CellRNNTanh:
		rnn = nn.NewRNN(inputSize, hidden, layers, nn.NonlinearityTanh, backend)
	case CellRNNReLU:
		rnn = nn.NewRNN(inputSize, hidden, layers, nn.NonlinearityReLU, backend)
	case CellLSTM:
		rnn = nn.NewLSTM(inputSize, hidden, layers, backend)
	default:
		return nil, fmt.Errorf("rnn: unknown cell %q", cell)
	}
	return &RNNClassifier[B]{
		cell:      cell,
		seqLen:    seqLen,
		inputSize: inputSize,
		rnn:       rnn,
		fc:        nn.NewLinear(hidden, classes, backend),
	}, nil
}

// Forward accepts [N, seqLen, inputSize] or flattened [N, seqLen*inputSize]
// and returns [N, classes] logits.
func (r *RNNClassifier[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if len(input.Shape()) == 2 {
		input = input.Reshape(input.Shape()[0], r.seqLen, r.inputSize)
	}
	return r.fc.Forward(r.rnn.ForwardLast(input))
}

// Parameters returns the recurrent parameters followed by the readout.
func (r *RNNClassifier[B]) Parameters() []*nn.Parameter[B] {
	return append(r.rnn.Parameters(), r.fc.Parameters()...)
}

// StateDict keys recurrent weights under "rnn." and the readout under "fc.".
func (r *RNNClassifier[B]) StateDict() map[string]*tensor.RawTensor {
	out := nn.PrefixStateDict("rnn", r.rnn.StateDict())
	for k, v := range nn.PrefixStateDict("fc", r.fc.StateDict()) {
		out[k] = v
	}
	return out
}

// LoadStateDict restores both parts.
func (r *RNNClassifier[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := r.rnn.LoadStateDict(nn.SubStateDict(stateDict, "rnn")); err != nil {
		return fmt.Errorf("rnn: %w", err)
	}
	if err := r.fc.LoadStateDict(nn.SubStateDict(stateDict, "fc")); err != nil {
		return fmt.Errorf("fc: %w", err)
	}
	return nil
}

// Cell reports the recurrent cell kind.
func (r *RNNClassifier[B]) Cell() string { return r.cell }

func (r *RNNClassifier[B]) String() string {
	return fmt.Sprintf("RNNClassifier(\n  (rnn): %v\n  (fc): %v\n)", r.rnn, r.fc)
}
