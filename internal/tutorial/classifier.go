package tutorial

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AnshMittal1811/Pytorch/internal/artifact"
	"github.com/AnshMittal1811/Pytorch/internal/backend/cpu"
	"github.com/AnshMittal1811/Pytorch/internal/config"
	"github.com/AnshMittal1811/Pytorch/internal/dataset"
	"github.com/AnshMittal1811/Pytorch/internal/dataset/mnist"
	"github.com/AnshMittal1811/Pytorch/internal/device"
	"github.com/AnshMittal1811/Pytorch/internal/models"
	"github.com/AnshMittal1811/Pytorch/internal/nn"
	"github.com/AnshMittal1811/Pytorch/internal/optim"
	"github.com/AnshMittal1811/Pytorch/internal/train"
)

// ModelFile is the name of the final snapshot inside a run directory.
const ModelFile = "model.born"

// classifier describes how a notebook builds its model and shapes its input.
type classifier struct {
	name  string
	dims  []int
	build func(cfg config.Config, backend *device.Backend) (nn.Module[*device.Backend], error)
}

var classifiers = map[string]classifier{
	"logistic-regression": {
		name: "logistic-regression",
		dims: []int{mnist.Pixels},
		build: func(_ config.Config, b *device.Backend) (nn.Module[*device.Backend], error) {
			return models.NewLogisticRegression(mnist.Pixels, mnist.Classes, b), nil
		},
	},
	"feedforward": {
		name: "feedforward",
		dims: []int{mnist.Pixels},
		build: func(cfg config.Config, b *device.Backend) (nn.Module[*device.Backend], error) {
			return models.NewFeedforward(mnist.Pixels, cfg.Hidden, mnist.Classes, cfg.Activation, b)
		},
	},
	"cnn": {
		name: "cnn",
		dims: []int{1, mnist.Rows, mnist.Cols},
		build: func(cfg config.Config, b *device.Backend) (nn.Module[*device.Backend], error) {
			return models.NewCNN(cfg.Variant, mnist.Rows, cfg.Padding, mnist.Classes, b)
		},
	},
	"rnn": {
		name: "rnn",
		dims: []int{mnist.Rows, mnist.Cols},
		build: func(cfg config.Config, b *device.Backend) (nn.Module[*device.Backend], error) {
			return models.NewRNNClassifier(cfg.Cell, mnist.Rows, mnist.Cols, cfg.HiddenDim, cfg.Layers, mnist.Classes, b)
		},
	},
	"lstm": {
		name: "lstm",
		dims: []int{mnist.Rows, mnist.Cols},
		build: func(cfg config.Config, b *device.Backend) (nn.Module[*device.Backend], error) {
			return models.NewRNNClassifier(models.CellLSTM, mnist.Rows, mnist.Cols, cfg.HiddenDim, cfg.Layers, mnist.Classes, b)
		},
	},
}

// RunLogisticRegression trains a linear softmax classifier.
func RunLogisticRegression(ctx context.Context, cfg config.Config, out io.Writer) error {
	return runClassifier(ctx, cfg, out, classifiers["logistic-regression"])
}

// RunFeedforward trains a multilayer perceptron.
func RunFeedforward(ctx context.Context, cfg config.Config, out io.Writer) error {
	return runClassifier(ctx, cfg, out, classifiers["feedforward"])
}

// RunCNN trains a convolutional network.
func RunCNN(ctx context.Context, cfg config.Config, out io.Writer) error {
	return runClassifier(ctx, cfg, out, classifiers["cnn"])
}

// RunRNN trains a vanilla recurrent network.
func RunRNN(ctx context.Context, cfg config.Config, out io.Writer) error {
	return runClassifier(ctx, cfg, out, classifiers["rnn"])
}

// RunLSTM trains an LSTM.
func RunLSTM(ctx context.Context, cfg config.Config, out io.Writer) error {
	return runClassifier(ctx, cfg, out, classifiers["lstm"])
}

func runClassifier(ctx context.Context, cfg config.Config, out io.Writer, spec classifier) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	backend, err := newBackend(cfg, out)
	if err != nil {
		return err
	}
	model, err := spec.build(cfg, backend)
	if err != nil {
		return err
	}

	trainSet, testSet, err := loadSplits(ctx, cfg, nil, out)
	if err != nil {
		return err
	}
	trainLoader, testLoader, err := loaders(cfg, trainSet, testSet, false)
	if err != nil {
		return err
	}

	epochs := cfg.Epochs
	if epochs == 0 {
		epochs = train.EpochsFor(cfg.Iterations, trainSet.Len(), cfg.BatchSize)
	}

	runDir, err := artifact.RunDir(cfg.OutDir, spec.name)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%v\n", model)
	fmt.Fprintf(out, "Parameters: %d\n", models.CountParameters(model))
	fmt.Fprintf(out, "Epochs: %d, batch size: %d, learning rate: %g\n", epochs, cfg.BatchSize, cfg.LR)
	fmt.Fprintf(out, "Run directory: %s\n", runDir)

	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: float32(cfg.LR)}, backend)

	trainer := &train.Classifier[*cpu.CPUBackend]{
		Model:     model,
		Optimizer: optimizer,
		Backend:   backend,
		Train:     trainLoader,
		Test:      testLoader,
		Dims:      spec.dims,
		Epochs:    epochs,
		LogEvery:  cfg.LogEvery,
		Resume:    cfg.Resume,
		Metadata:  architectureMeta(cfg),
		Out:       out,
	}
	if cfg.Checkpoint {
		trainer.CheckpointDir = runDir
	}

	history, err := trainer.Run(ctx)
	if err != nil {
		return err
	}

	if eval, ok := history.LastEvaluation(); ok {
		fmt.Fprintf(out, "Final test accuracy: %.2f%%\n", 100*eval.Accuracy)
	}

	path := filepath.Join(runDir, ModelFile)
	if err := artifact.SaveModel(path, spec.name, model, architectureMeta(cfg)); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %s\n", path)
	return nil
}

// architectureMeta records the flags needed to rebuild the model.
func architectureMeta(cfg config.Config) map[string]string {
	hidden := make([]string, len(cfg.Hidden))
	for i, h := range cfg.Hidden {
		hidden[i] = strconv.Itoa(h)
	}
	return map[string]string{
		"hidden":     strings.Join(hidden, ","),
		"activation": cfg.Activation,
		"variant":    cfg.Variant,
		"padding":    strconv.Itoa(cfg.Padding),
		"layers":     strconv.Itoa(cfg.Layers),
		"hidden_dim": strconv.Itoa(cfg.HiddenDim),
		"cell":       cfg.Cell,
	}
}

// applyArchitecture overrides the architecture fields of cfg with the values
// recorded by architectureMeta. Missing keys leave cfg unchanged.
func applyArchitecture(cfg *config.Config, meta map[string]string) error {
	if v, ok := meta["hidden"]; ok {
		var hidden []int
		for _, p := range strings.Split(v, ",") {
			if p == "" {
				continue
			}
			h, err := strconv.Atoi(p)
			if err != nil {
				return fmt.Errorf("saved hidden widths %q: %w", v, err)
			}
			hidden = append(hidden, h)
		}
		cfg.Hidden = hidden
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"padding", &cfg.Padding},
		{"layers", &cfg.Layers},
		{"hidden_dim", &cfg.HiddenDim},
	}
	for _, f := range ints {
		v, ok := meta[f.key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("saved %s %q: %w", f.key, v, err)
		}
		*f.dst = n
	}
	for key, dst := range map[string]*string{
		"activation": &cfg.Activation,
		"variant":    &cfg.Variant,
		"cell":       &cfg.Cell,
	} {
		if v, ok := meta[key]; ok {
			*dst = v
		}
	}
	return nil
}

// Evaluate rebuilds the named classifier, loads weights and reports its
// accuracy on the test split. Architecture settings saved with the weights
// take precedence over cfg.
func Evaluate(ctx context.Context, cfg config.Config, kind, weights string, out io.Writer) error {
	spec, ok := classifiers[kind]
	if !ok {
		return fmt.Errorf("%w: %q cannot be evaluated", ErrUnknown, kind)
	}
	_, meta, err := artifact.ReadMetadata(weights)
	if err != nil {
		return err
	}
	if err := applyArchitecture(&cfg, meta); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	backend, err := newBackend(cfg, out)
	if err != nil {
		return err
	}
	model, err := spec.build(cfg, backend)
	if err != nil {
		return err
	}
	saved, err := artifact.LoadModel[*device.Backend](weights, model, backend)
	if err != nil {
		return err
	}
	if saved != "" && saved != kind && saved != "checkpoint" {
		fmt.Fprintf(out, "Warning: %s was saved by %q\n", weights, saved)
	}

	testSet, err := loadSplit(ctx, cfg, false, nil, out)
	if err != nil {
		return err
	}
	testLoader, err := dataset.NewLoader(testSet, dataset.LoaderConfig{BatchSize: cfg.BatchSize})
	if err != nil {
		return err
	}

	loss, acc, err := train.Evaluate(ctx, model, backend, testLoader, spec.dims)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Test loss: %.4f. Accuracy: %.2f\n", loss, 100*acc)
	return nil
}
