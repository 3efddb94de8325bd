package train

import (
	"context"
	"fmt"
	"io"

	"github.com/AnshMittal1811/Pytorch/internal/autodiff"
	"github.com/AnshMittal1811/Pytorch/internal/nn"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// Regressor fits a model to (X, Y) with mean squared error, using the whole
// dataset as one batch every epoch.
type Regressor[B tensor.Backend] struct {
	Model     nn.Module[*autodiff.AutodiffBackend[B]]
	Optimizer Optimizer
	Backend   *autodiff.AutodiffBackend[B]

	X, Y *tensor.Tensor[float32, *autodiff.AutodiffBackend[B]]

	Epochs   int
	LogEvery int // print every LogEvery epochs; 0 disables printing
	Out      io.Writer
}

// Run trains and returns the loss after every epoch.
func (r *Regressor[B]) Run(ctx context.Context) ([]float32, error) {
	if r.Out == nil {
		r.Out = io.Discard
	}
	criterion := nn.NewMSELoss(r.Backend)
	tape := r.Backend.Tape()
	tape.StartRecording()
	defer tape.StopRecording()

	losses := make([]float32, 0, r.Epochs)
	for epoch := 1; epoch <= r.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			tape.Clear()
			return losses, err
		}

		r.Optimizer.ZeroGrad()
		outputs := r.Model.Forward(r.X)
		loss := criterion.Forward(outputs, r.Y)
		lossValue := loss.Raw().AsFloat32()[0]

		grads, err := backward(loss, r.Backend)
		if err != nil {
			return losses, err
		}
		r.Optimizer.Step(grads)
		tape.Clear()

		losses = append(losses, lossValue)
		if r.LogEvery > 0 && epoch%r.LogEvery == 0 {
			fmt.Fprintf(r.Out, "epoch %d, loss %.6f\n", epoch, lossValue)
		}
	}
	return losses, nil
}

// Predict runs the model without recording.
func (r *Regressor[B]) Predict(x *tensor.Tensor[float32, *autodiff.AutodiffBackend[B]]) *tensor.Tensor[float32, *autodiff.AutodiffBackend[B]] {
	defer pauseRecording(r.Backend.Tape())()
	return r.Model.Forward(x)
}
