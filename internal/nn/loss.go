package nn

import (
	"fmt"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// LossBackend is implemented by backends with fused loss kernels.
// autodiff.AutodiffBackend provides both and records them on its tape.
type LossBackend interface {
	CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor
	BCEWithLogits(logits, targets *tensor.RawTensor) *tensor.RawTensor
}

func lossBackend[B tensor.Backend](name string, backend B) LossBackend {
	lb, ok := any(backend).(LossBackend)
	if !ok {
		panic(fmt.Sprintf("%s: backend %s has no loss kernels (use autodiff.AutodiffBackend)", name, backend.Name()))
	}
	return lb
}

// MSELoss is mean((predictions - targets)²), built from recorded tensor
// ops.
type MSELoss[B tensor.Backend] struct {
	backend B
}

// NewMSELoss creates an MSE loss.
func NewMSELoss[B tensor.Backend](backend B) *MSELoss[B] {
	return &MSELoss[B]{backend: backend}
}

// Forward returns the mean squared error as a [1] tensor.
func (m *MSELoss[B]) Forward(predictions, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !predictions.Shape().Equal(targets.Shape()) {
		panic(fmt.Sprintf("MSELoss: predictions %v and targets %v differ in shape", predictions.Shape(), targets.Shape()))
	}
	diff := predictions.Sub(targets)
	n := float32(diff.NumElements())
	return diff.Mul(diff).Sum().DivScalar(n).Reshape(1)
}

// CrossEntropyLoss is the mean over the batch of -log_softmax(logits)[y]
// for logits [batch, classes] and int32 class indices [batch].
type CrossEntropyLoss[B tensor.Backend] struct {
	backend B
}

// NewCrossEntropyLoss creates a cross-entropy loss.
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{backend: backend}
}

// Forward returns the loss as a [1] tensor.
func (c *CrossEntropyLoss[B]) Forward(logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	lb := lossBackend("CrossEntropyLoss", c.backend)
	return tensor.New[float32, B](lb.CrossEntropy(logits.Raw(), targets.Raw()), c.backend)
}

// BCEWithLogitsLoss is mean(max(x,0) - x*y + log(1 + e^-|x|)), the binary
// cross-entropy of sigmoid(x) computed without overflow. Targets are float
// labels with the logits' shape. Both GAN players train on it.
type BCEWithLogitsLoss[B tensor.Backend] struct {
	backend B
}

// NewBCEWithLogitsLoss creates a binary cross-entropy loss.
func NewBCEWithLogitsLoss[B tensor.Backend](backend B) *BCEWithLogitsLoss[B] {
	return &BCEWithLogitsLoss[B]{backend: backend}
}

// Forward returns the loss as a [1] tensor.
func (l *BCEWithLogitsLoss[B]) Forward(logits, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	lb := lossBackend("BCEWithLogitsLoss", l.backend)
	return tensor.New[float32, B](lb.BCEWithLogits(logits.Raw(), targets.Raw()), l.backend)
}

// Correct counts the rows of logits whose argmax equals the target.
func Correct[B tensor.Backend](logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) int {
	predicted := logits.Argmax(1).Data()
	labels := targets.Data()
	if len(predicted) != len(labels) {
		panic(fmt.Sprintf("Correct: %d predictions for %d targets", len(predicted), len(labels)))
	}
	n := 0
	for i, p := range predicted {
		if p == labels[i] {
			n++
		}
	}
	return n
}

// Accuracy is Correct divided by the batch size.
func Accuracy[B tensor.Backend](logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) float32 {
	return float32(Correct(logits, targets)) / float32(targets.NumElements())
}
