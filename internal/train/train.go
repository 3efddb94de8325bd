// Package train implements the training recipe every tutorial follows:
// zero the gradients, run the forward pass, compute the loss, backpropagate
// through the tape, step the optimizer and clear the tape.
package train

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"strconv"

	"github.com/AnshMittal1811/Pytorch/internal/autodiff"
	"github.com/AnshMittal1811/Pytorch/internal/dataset"
	"github.com/AnshMittal1811/Pytorch/internal/nn"
	"github.com/AnshMittal1811/Pytorch/internal/optim"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// Optimizer is the optimizer contract the trainers step.
type Optimizer = optim.Optimizer

// EpochsFor converts an iteration budget into whole epochs:
// iterations / (examples / batchSize), never less than one.
func EpochsFor(iterations, examples, batchSize int) int {
	if batchSize <= 0 || examples <= 0 {
		return 1
	}
	perEpoch := examples / batchSize
	if perEpoch == 0 {
		perEpoch = 1
	}
	if epochs := iterations / perEpoch; epochs > 0 {
		return epochs
	}
	return 1
}

// CheckpointPath is the file a Classifier writes after the given epoch.
func CheckpointPath(dir string, epoch int) string {
	return filepath.Join(dir, fmt.Sprintf("checkpoint-epoch-%03d.born", epoch))
}

// backward runs autodiff.Backward from loss, reporting an empty tape as an
// error instead of a panic.
func backward[B tensor.Backend](loss *tensor.Tensor[float32, *autodiff.AutodiffBackend[B]], backend *autodiff.AutodiffBackend[B]) (map[*tensor.RawTensor]*tensor.RawTensor, error) {
	if backend.Tape().NumOps() == 0 {
		return nil, errors.New("backward: tape recorded no operations")
	}
	return autodiff.Backward(loss, backend), nil
}

// pauseRecording stops the tape and returns a func restoring its state.
func pauseRecording(tape *autodiff.GradientTape) func() {
	wasRecording := tape.IsRecording()
	tape.StopRecording()
	return func() {
		if wasRecording {
			tape.StartRecording()
		}
	}
}

// Evaluate runs model over every batch of loader with the tape stopped and
// returns the mean cross-entropy and the accuracy in [0, 1]. ctx is checked
// before each batch.
func Evaluate[B tensor.Backend](
	ctx context.Context,
	model nn.Module[*autodiff.AutodiffBackend[B]],
	backend *autodiff.AutodiffBackend[B],
	loader *dataset.Loader,
	dims []int,
) (avgLoss, accuracy float32, err error) {
	defer pauseRecording(backend.Tape())()

	criterion := nn.NewCrossEntropyLoss(backend)
	loader.Reset()
	totalLoss := float32(0.0)
	totalCorrect := 0
	totalSamples := 0
	batches := 0

	for batch, ok := loader.Next(); ok; batch, ok = loader.Next() {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}
		images, err := dataset.BatchImages(batch, backend, dims...)
		if err != nil {
			return 0, 0, err
		}
		labels, err := dataset.BatchLabels(batch, backend)
		if err != nil {
			return 0, 0, err
		}

		logits := model.Forward(images)
		totalLoss += criterion.Forward(logits, labels).Raw().AsFloat32()[0]
		totalCorrect += nn.Correct(logits, labels)
		totalSamples += batch.Size()
		batches++
	}

	if batches == 0 {
		return 0, 0, fmt.Errorf("evaluate: loader yielded no batches")
	}
	return totalLoss / float32(batches), float32(totalCorrect) / float32(totalSamples), nil
}

// Classifier trains a model with cross-entropy on image batches.
type Classifier[B tensor.Backend] struct {
	Model     nn.Module[*autodiff.AutodiffBackend[B]]
	Optimizer Optimizer
	Backend   *autodiff.AutodiffBackend[B]

	Train *dataset.Loader
	Test  *dataset.Loader // optional; enables periodic evaluation
	Dims  []int           // per-example input shape, e.g. {784} or {1, 28, 28}

	Epochs   int
	LogEvery int // evaluate every LogEvery iterations; 0 evaluates once per epoch

	CheckpointDir string            // when set, a checkpoint is written after every epoch
	Resume        string            // checkpoint to restore before training
	Metadata      map[string]string // copied into every checkpoint

	Out io.Writer
}

// Run trains for c.Epochs epochs and returns the collected history. On
// cancellation it returns the history so far together with ctx.Err().
func (c *Classifier[B]) Run(ctx context.Context) (*History, error) {
	if c.Out == nil {
		c.Out = io.Discard
	}
	history := &History{}
	tape := c.Backend.Tape()
	criterion := nn.NewCrossEntropyLoss(c.Backend)

	startEpoch, iteration := 1, 0
	if c.Resume != "" {
		ckpt, err := nn.LoadCheckpoint(c.Resume, c.Backend, c.Model, c.Optimizer)
		if err != nil {
			return nil, fmt.Errorf("resume from %s: %w", c.Resume, err)
		}
		startEpoch = ckpt.Epoch + 1
		iteration = int(ckpt.Step)
		fmt.Fprintf(c.Out, "Resumed from %s (epoch %d, iteration %d)\n", c.Resume, ckpt.Epoch, iteration)
		// Replay the shuffles of the finished epochs so the next epoch sees
		// the order an uninterrupted run would.
		for range ckpt.Epoch {
			c.Train.Reset()
		}
	}

	tape.StartRecording()
	defer tape.StopRecording()

	for epoch := startEpoch; epoch <= c.Epochs; epoch++ {
		c.Train.Reset()
		totalLoss := float32(0.0)
		totalCorrect := 0
		totalSamples := 0
		batches := 0

		for batch, ok := c.Train.Next(); ok; batch, ok = c.Train.Next() {
			if err := ctx.Err(); err != nil {
				tape.Clear()
				return history, err
			}

			images, err := dataset.BatchImages(batch, c.Backend, c.Dims...)
			if err != nil {
				return history, err
			}
			labels, err := dataset.BatchLabels(batch, c.Backend)
			if err != nil {
				return history, err
			}

			c.Optimizer.ZeroGrad()

			logits := c.Model.Forward(images)
			loss := criterion.Forward(logits, labels)
			lossValue := loss.Raw().AsFloat32()[0]

			grads, err := backward(loss, c.Backend)
			if err != nil {
				return history, err
			}
			c.Optimizer.Step(grads)
			tape.Clear()

			totalLoss += lossValue
			totalCorrect += nn.Correct(logits, labels)
			totalSamples += batch.Size()
			batches++
			iteration++

			if c.Test != nil && c.LogEvery > 0 && iteration%c.LogEvery == 0 {
				if err := c.evaluate(ctx, history, iteration, lossValue); err != nil {
					return history, err
				}
			}
		}

		if batches == 0 {
			return history, fmt.Errorf("epoch %d: training loader yielded no batches", epoch)
		}

		stats := EpochStats{
			Epoch:      epoch,
			Iterations: iteration,
			Loss:       totalLoss / float32(batches),
			Accuracy:   float32(totalCorrect) / float32(totalSamples),
		}
		if c.Test != nil && c.LogEvery == 0 {
			if err := c.evaluate(ctx, history, iteration, stats.Loss); err != nil {
				return history, err
			}
		}
		history.Epochs = append(history.Epochs, stats)

		if c.CheckpointDir != "" {
			meta := maps.Clone(c.Metadata)
			if meta == nil {
				meta = map[string]string{}
			}
			meta["accuracy"] = strconv.FormatFloat(float64(stats.Accuracy), 'f', 4, 32)
			ckpt := &nn.Checkpoint[*autodiff.AutodiffBackend[B]]{
				Model:     c.Model,
				Optimizer: c.Optimizer,
				Epoch:     epoch,
				Step:      int64(iteration),
				Loss:      float64(stats.Loss),
				Metadata:  meta,
			}
			path := CheckpointPath(c.CheckpointDir, epoch)
			if err := ckpt.Save(path); err != nil {
				return history, fmt.Errorf("save checkpoint: %w", err)
			}
		}
	}

	return history, nil
}

func (c *Classifier[B]) evaluate(ctx context.Context, history *History, iteration int, lossValue float32) error {
	testLoss, testAcc, err := Evaluate(ctx, c.Model, c.Backend, c.Test, c.Dims)
	if err != nil {
		return err
	}
	history.Evaluations = append(history.Evaluations, Evaluation{
		Iteration: iteration,
		TrainLoss: lossValue,
		TestLoss:  testLoss,
		Accuracy:  testAcc,
	})
	fmt.Fprintf(c.Out, "Iteration: %d. Loss: %.4f. Accuracy: %.2f\n", iteration, lossValue, 100*testAcc)
	return nil
}
