package nn

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/AnshMittal1811/Pytorch/internal/serialization"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

const optimizerPrefix = "optimizer."

// OptimizerState is the part of an optimizer a checkpoint stores.
// Implemented by the optimizers in package optim.
type OptimizerState interface {
	Name() string
	Hyperparameters() map[string]float64
	StateDict() map[string]*tensor.RawTensor
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// Checkpoint is a resumable training snapshot: model parameters, optimizer
// buffers and the position in the training run.
type Checkpoint[B tensor.Backend] struct {
	Model     Module[B]
	Optimizer OptimizerState
	Epoch     int
	Step      int64
	Loss      float64
	Metadata  map[string]string
	CreatedAt time.Time
}

// Save writes the checkpoint to path. Optimizer tensors are stored under
// "optimizer.".
func (c *Checkpoint[B]) Save(path string) error {
	stateDict := maps.Clone(c.Model.StateDict())
	for name, raw := range c.Optimizer.StateDict() {
		stateDict[optimizerPrefix+name] = raw
	}

	header := serialization.Header{
		ModelType: "checkpoint",
		CreatedAt: c.CreatedAt,
		Metadata:  c.Metadata,
		Checkpoint: &serialization.CheckpointMeta{
			Epoch:           c.Epoch,
			Step:            c.Step,
			Loss:            c.Loss,
			OptimizerType:   c.Optimizer.Name(),
			OptimizerConfig: c.Optimizer.Hyperparameters(),
		},
	}
	if err := serialization.WriteFile(path, stateDict, header); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", path, err)
	}
	return nil
}

// LoadCheckpoint restores model and optimizer from a checkpoint written by
// Save. Both must be built with the architecture and optimizer type used
// when saving.
func LoadCheckpoint[B tensor.Backend](path string, backend B, model Module[B], optimizer OptimizerState) (*Checkpoint[B], error) {
	snapshot, err := serialization.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint %s: %w", path, err)
	}
	defer func() { _ = snapshot.Close() }()

	header := snapshot.Header()
	meta := header.Checkpoint
	if meta == nil {
		return nil, fmt.Errorf("%s is a model snapshot, not a checkpoint", path)
	}
	if meta.OptimizerType != optimizer.Name() {
		return nil, fmt.Errorf("checkpoint %s was written by %s, cannot resume %s", path, meta.OptimizerType, optimizer.Name())
	}

	stateDict, err := snapshot.StateDict(backend.Device())
	if err != nil {
		return nil, fmt.Errorf("read checkpoint %s: %w", path, err)
	}
	modelState := make(map[string]*tensor.RawTensor)
	optimizerState := make(map[string]*tensor.RawTensor)
	for name, raw := range stateDict {
		if rest, ok := strings.CutPrefix(name, optimizerPrefix); ok {
			optimizerState[rest] = raw
		} else {
			modelState[name] = raw
		}
	}

	if err := model.LoadStateDict(modelState); err != nil {
		return nil, fmt.Errorf("load model state: %w", err)
	}
	if err := optimizer.LoadStateDict(optimizerState); err != nil {
		return nil, fmt.Errorf("load optimizer state: %w", err)
	}

	return &Checkpoint[B]{
		Model:     model,
		Optimizer: optimizer,
		Epoch:     meta.Epoch,
		Step:      meta.Step,
		Loss:      meta.Loss,
		Metadata:  header.Metadata,
		CreatedAt: header.CreatedAt,
	}, nil
}
