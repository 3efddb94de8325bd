// Package ops holds the differentiable operations recorded on a gradient
// tape.
//
// An op is created after its forward kernel has run. It keeps whatever its
// backward pass needs and returns one gradient per input, in input order.
// A nil gradient means the input is not differentiated.
package ops

import "github.com/AnshMittal1811/Pytorch/internal/tensor"

// Operation is a node in the computation graph.
type Operation interface {
	// Backward maps dL/d(output) to dL/d(input) for every input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	Inputs() []*tensor.RawTensor
	Output() *tensor.RawTensor
}

// MultiOutputOperation is an op with more than one output, such as Chunk.
// The tape gathers the gradients of all outputs, filling missing ones with
// zeros, and calls BackwardMulti instead of Backward.
type MultiOutputOperation interface {
	Operation

	Outputs() []*tensor.RawTensor
	BackwardMulti(outputGrads []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor
}

// node stores the graph edges shared by every op.
type node struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

func edges(output *tensor.RawTensor, inputs ...*tensor.RawTensor) node {
	return node{inputs: inputs, output: output}
}

// Inputs returns the tensors the op consumed.
func (n node) Inputs() []*tensor.RawTensor { return n.inputs }

// Output returns the tensor the op produced.
func (n node) Output() *tensor.RawTensor { return n.output }

func (n node) input(i int) *tensor.RawTensor { return n.inputs[i] }
