package autodiff

import (
	"github.com/AnshMittal1811/Pytorch/internal/autodiff/ops"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// GradientTape is the ordered list of operations recorded during a forward
// pass. It is not safe for concurrent use; give each goroutine its own
// AutodiffBackend.
type GradientTape struct {
	operations []ops.Operation
	recording  bool
}

// NewGradientTape returns an empty tape that is not recording.
func NewGradientTape() *GradientTape {
	return &GradientTape{operations: make([]ops.Operation, 0, 64)}
}

// StartRecording makes subsequent operations append to the tape.
func (t *GradientTape) StartRecording() { t.recording = true }

// StopRecording pauses recording. Recorded operations are kept.
func (t *GradientTape) StopRecording() { t.recording = false }

// IsRecording reports whether operations are being recorded.
func (t *GradientTape) IsRecording() bool { return t.recording }

// Record appends op while recording.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear drops every recorded operation and keeps the recording state.
// Call it after each optimizer step so the graph does not grow across
// iterations.
func (t *GradientTape) Clear() {
	clear(t.operations)
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int { return len(t.operations) }

// producedLast reports whether raw is the tensor Backward would seed: the
// output of the last recorded operation.
func (t *GradientTape) producedLast(raw *tensor.RawTensor) bool {
	return len(t.operations) > 0 && t.operations[len(t.operations)-1].Output() == raw
}

// Backward seeds the output of the last recorded operation with
// outputGrad and applies the chain rule in reverse recording order. A
// tensor used by several operations receives the sum of their gradients.
// Recording is paused for the duration.
func (t *GradientTape) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	if len(t.operations) == 0 {
		return grads
	}

	wasRecording := t.recording
	t.recording = false
	defer func() { t.recording = wasRecording }()

	grads[t.operations[len(t.operations)-1].Output()] = outputGrad
	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]

		var inputGrads []*tensor.RawTensor
		if multi, ok := op.(ops.MultiOutputOperation); ok {
			outputGrads, found := outputGradients(multi.Outputs(), grads, backend)
			if !found {
				continue
			}
			inputGrads = multi.BackwardMulti(outputGrads, backend)
		} else {
			g, ok := grads[op.Output()]
			if !ok {
				continue
			}
			inputGrads = op.Backward(g, backend)
		}

		for j, input := range op.Inputs() {
			if j >= len(inputGrads) || inputGrads[j] == nil {
				continue
			}
			if existing, ok := grads[input]; ok {
				grads[input] = backend.Add(existing, inputGrads[j])
			} else {
				grads[input] = inputGrads[j]
			}
		}
	}
	return grads
}

// outputGradients gathers the gradients of a multi-output operation,
// substituting zeros for outputs nothing downstream used.
func outputGradients(outputs []*tensor.RawTensor, grads map[*tensor.RawTensor]*tensor.RawTensor, backend tensor.Backend) ([]*tensor.RawTensor, bool) {
	out := make([]*tensor.RawTensor, len(outputs))
	found := false
	for j, o := range outputs {
		if g, ok := grads[o]; ok {
			out[j] = g
			found = true
		}
	}
	if !found {
		return nil, false
	}
	for j, o := range outputs {
		if out[j] != nil {
			continue
		}
		zero, err := tensor.NewRaw(o.Shape(), o.DType(), backend.Device())
		if err != nil {
			panic(err)
		}
		out[j] = zero
	}
	return out, true
}
