// Package models defines the networks trained by the tutorials. Every model
// is composed from framework layers and implements nn.Module.
package models

import (
	"fmt"

	"github.com/AnshMittal1811/Pytorch/internal/nn"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// Activation names accepted by NewFeedforward.
const (
	ActivationReLU    = "relu"
	ActivationSigmoid = "sigmoid"
	ActivationTanh    = "tanh"
)

// NewActivation returns the activation module called name.
func NewActivation[B tensor.Backend](name string) (nn.Module[B], error) {
	switch name {
	case ActivationReLU:
		return nn.NewReLU[B](), nil
	case ActivationSigmoid:
		return nn.NewSigmoid[B](), nil
	case ActivationTanh:
		return nn.NewTanh[B](), nil
	default:
		return nil, fmt.Errorf("unknown activation %q", name)
	}
}

// CountParameters returns the total number of scalar parameters in model.
func CountParameters[B tensor.Backend](model nn.Module[B]) int {
	total := 0
	for _, p := range model.Parameters() {
		total += p.Tensor().Shape().NumElements()
	}
	return total
}

// named wraps a Sequential so String reports the model name.
type named[B tensor.Backend] struct {
	*nn.Sequential[B]
	name string
}

func (n named[B]) String() string {
	return n.name + n.Sequential.String()[len("Sequential"):]
}

// LinearRegression is a single affine layer y = xW^T + b.
type LinearRegression[B tensor.Backend] struct {
	named[B]
}

// NewLinearRegression creates a linear regression model.
func NewLinearRegression[B tensor.Backend](in, out int, backend B) *LinearRegression[B] {
	return &LinearRegression[B]{named[B]{nn.NewSequential[B](nn.NewLinear(in, out, backend)), "LinearRegression"}}
}

// LogisticRegression maps flattened images straight to class logits.
// The softmax lives in the cross-entropy loss.
type LogisticRegression[B tensor.Backend] struct {
	named[B]
}

// NewLogisticRegression creates a logistic regression classifier.
func NewLogisticRegression[B tensor.Backend](in, classes int, backend B) *LogisticRegression[B] {
	return &LogisticRegression[B]{named[B]{nn.NewSequential[B](nn.NewLinear(in, classes, backend)), "LogisticRegression"}}
}

// Feedforward is a multilayer perceptron with one to three hidden layers.
type Feedforward[B tensor.Backend] struct {
	named[B]
}

// NewFeedforward creates an MLP in -> hidden... -> out with the named
// activation after every hidden layer.
func NewFeedforward[B tensor.Backend](in int, hidden []int, out int, activation string, backend B) (*Feedforward[B], error) {
	if len(hidden) < 1 || len(hidden) > 3 {
		return nil, fmt.Errorf("feedforward: need 1 to 3 hidden layers, got %d", len(hidden))
	}
	seq := nn.NewSequential[B]()
	width := in
	for _, h := range hidden {
		act, err := NewActivation[B](activation)
		if err != nil {
			return nil, fmt.Errorf("feedforward: %w", err)
		}
		seq.Add(nn.NewLinear(width, h, backend))
		seq.Add(act)
		width = h
	}
	seq.Add(nn.NewLinear(width, out, backend))
	return &Feedforward[B]{named[B]{seq, "Feedforward"}}, nil
}
