package train_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshMittal1811/Pytorch/internal/autodiff"
	"github.com/AnshMittal1811/Pytorch/internal/backend/cpu"
	"github.com/AnshMittal1811/Pytorch/internal/dataset"
	"github.com/AnshMittal1811/Pytorch/internal/dataset/mnist"
	"github.com/AnshMittal1811/Pytorch/internal/models"
	"github.com/AnshMittal1811/Pytorch/internal/nn"
	"github.com/AnshMittal1811/Pytorch/internal/optim"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
	"github.com/AnshMittal1811/Pytorch/internal/train"
)

type backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func TestEpochsFor(t *testing.T) {
	tests := []struct {
		iterations, examples, batch, want int
	}{
		{3000, 60000, 100, 5},
		{6000, 60000, 100, 10},
		{10, 100, 1000, 10},
		{0, 100, 10, 1},
		{10, 0, 10, 1},
		{10, 100, 0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, train.EpochsFor(tt.iterations, tt.examples, tt.batch), "%+v", tt)
	}
}

func TestCheckpointPath(t *testing.T) {
	assert.Equal(t, filepath.Join("runs", "checkpoint-epoch-007.born"), train.CheckpointPath("runs", 7))
}

func TestRegressorFitsLine(t *testing.T) {
	b := autodiff.New(cpu.New())
	nn.SeedInit(3)

	xs := make([]float32, 11)
	ys := make([]float32, 11)
	for i := range xs {
		xs[i] = float32(i) / 10
		ys[i] = 2*xs[i] + 1
	}
	x, err := tensor.FromSlice(xs, tensor.Shape{11, 1}, b)
	require.NoError(t, err)
	y, err := tensor.FromSlice(ys, tensor.Shape{11, 1}, b)
	require.NoError(t, err)

	model := models.NewLinearRegression(1, 1, b)
	var out bytes.Buffer
	r := &train.Regressor[*cpu.CPUBackend]{
		Model:     model,
		Optimizer: optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.5}, b),
		Backend:   b,
		X:         x,
		Y:         y,
		Epochs:    500,
		LogEvery:  100,
		Out:       &out,
	}
	losses, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, losses, 500)
	assert.Less(t, losses[499], losses[0])
	assert.Less(t, losses[499], float32(1e-4))
	assert.Equal(t, 5, bytes.Count(out.Bytes(), []byte("\n")))
	assert.False(t, b.Tape().IsRecording())

	pred := r.Predict(x)
	assert.InDeltaSlice(t, ys, pred.Data(), 1e-2)
	assert.Zero(t, b.Tape().NumOps())
}

func TestRegressorCancelled(t *testing.T) {
	b := autodiff.New(cpu.New())
	model := models.NewLinearRegression(1, 1, b)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &train.Regressor[*cpu.CPUBackend]{
		Model:     model,
		Optimizer: optim.NewSGD(model.Parameters(), optim.SGDConfig{}, b),
		Backend:   b,
		X:         tensor.Ones[float32](tensor.Shape{2, 1}, b),
		Y:         tensor.Ones[float32](tensor.Shape{2, 1}, b),
		Epochs:    10,
	}
	losses, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, losses)
}

func loaders(t *testing.T, batch int) (trainLoader, testLoader *dataset.Loader) {
	t.Helper()
	data := mnist.Synthetic(300, 1, nil)
	trainSet, testSet, err := data.RandomSplit(0.8, 2)
	require.NoError(t, err)

	trainLoader, err = dataset.NewLoader(trainSet, dataset.LoaderConfig{BatchSize: batch, Shuffle: true, Seed: 3})
	require.NoError(t, err)
	testLoader, err = dataset.NewLoader(testSet, dataset.LoaderConfig{BatchSize: 100})
	require.NoError(t, err)
	return trainLoader, testLoader
}

func newClassifier(t *testing.T, b backend, epochs int) *train.Classifier[*cpu.CPUBackend] {
	t.Helper()
	nn.SeedInit(5)
	trainLoader, testLoader := loaders(t, 20)
	model := models.NewLogisticRegression(mnist.Pixels, mnist.Classes, b)
	return &train.Classifier[*cpu.CPUBackend]{
		Model:     model,
		Optimizer: optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.1}, b),
		Backend:   b,
		Train:     trainLoader,
		Test:      testLoader,
		Dims:      []int{mnist.Pixels},
		Epochs:    epochs,
	}
}

func TestClassifierLearnsSyntheticDigits(t *testing.T) {
	b := autodiff.New(cpu.New())
	c := newClassifier(t, b, 8)
	var out bytes.Buffer
	c.Out = &out

	history, err := c.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, history.Epochs, 8)
	assert.Equal(t, 8*12, history.Epochs[7].Iterations)
	losses := history.Losses()
	assert.Less(t, losses[7], losses[0])

	require.Len(t, history.Evaluations, 8, "one evaluation per epoch")
	last, ok := history.LastEvaluation()
	require.True(t, ok)
	assert.Greater(t, last.Accuracy, float32(0.8))
	assert.Contains(t, out.String(), "Iteration: 96. Loss: ")
	assert.False(t, b.Tape().IsRecording())
	assert.Zero(t, b.Tape().NumOps())

	loss, acc, err := train.Evaluate(context.Background(), c.Model, b, c.Test, c.Dims)
	require.NoError(t, err)
	assert.InDelta(t, last.Accuracy, acc, 1e-6)
	assert.InDelta(t, last.TestLoss, loss, 1e-5)
}

func TestClassifierLogEvery(t *testing.T) {
	b := autodiff.New(cpu.New())
	c := newClassifier(t, b, 2)
	c.LogEvery = 5

	history, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, history.Evaluations, 4)
	assert.Equal(t, []int{5, 10, 15, 20}, []int{
		history.Evaluations[0].Iteration, history.Evaluations[1].Iteration,
		history.Evaluations[2].Iteration, history.Evaluations[3].Iteration,
	})
}

func TestClassifierCheckpointAndResume(t *testing.T) {
	dir := t.TempDir()
	b := autodiff.New(cpu.New())
	c := newClassifier(t, b, 2)
	c.CheckpointDir = dir
	_, err := c.Run(context.Background())
	require.NoError(t, err)

	for epoch := 1; epoch <= 2; epoch++ {
		_, err := os.Stat(train.CheckpointPath(dir, epoch))
		assert.NoError(t, err, "epoch %d", epoch)
	}

	resumed := newClassifier(t, b, 3)
	resumed.Resume = train.CheckpointPath(dir, 2)
	var out bytes.Buffer
	resumed.Out = &out

	history, err := resumed.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, history.Epochs, 1)
	assert.Equal(t, 3, history.Epochs[0].Epoch)
	assert.Equal(t, 36, history.Epochs[0].Iterations)
	assert.Contains(t, out.String(), "(epoch 2, iteration 24)")

	resumed.Resume = filepath.Join(dir, "missing.born")
	_, err = resumed.Run(context.Background())
	assert.Error(t, err)
}

func TestResumeMatchesUninterruptedRun(t *testing.T) {
	dir := t.TempDir()
	b := autodiff.New(cpu.New())
	full := newClassifier(t, b, 3)
	full.CheckpointDir = dir
	fullHistory, err := full.Run(context.Background())
	require.NoError(t, err)

	resumed := newClassifier(t, b, 3)
	resumed.Resume = train.CheckpointPath(dir, 2)
	history, err := resumed.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, history.Epochs, 1)
	assert.InDelta(t, fullHistory.Epochs[2].Loss, history.Epochs[0].Loss, 1e-6)
	want := full.Model.Parameters()
	for i, p := range resumed.Model.Parameters() {
		assert.InDeltaSlice(t, want[i].Tensor().Data(), p.Tensor().Data(), 1e-6, "parameter %d", i)
	}
}

func TestEvaluateCancelled(t *testing.T) {
	b := autodiff.New(cpu.New())
	c := newClassifier(t, b, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := train.Evaluate(ctx, c.Model, b, c.Test, c.Dims)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifierEmptyLoader(t *testing.T) {
	b := autodiff.New(cpu.New())
	c := newClassifier(t, b, 1)
	empty, err := dataset.NewLoader(mnist.Synthetic(5, 1, nil), dataset.LoaderConfig{BatchSize: 10, DropLast: true})
	require.NoError(t, err)
	c.Train = empty

	_, err = c.Run(context.Background())
	assert.ErrorContains(t, err, "yielded no batches")

	_, _, err = train.Evaluate(context.Background(), c.Model, b, empty, c.Dims)
	assert.Error(t, err)
}

func TestGANShortRun(t *testing.T) {
	b := autodiff.New(cpu.New())
	nn.SeedInit(9)
	data := mnist.Synthetic(40, 4, mnist.Normalize(0.5, 0.5))
	loader, err := dataset.NewLoader(data, dataset.LoaderConfig{BatchSize: 20, Shuffle: true})
	require.NoError(t, err)

	g := models.NewGenerator(16, []int{32}, mnist.Pixels, b)
	d := models.NewDiscriminator(mnist.Pixels, []int{32}, b)
	adam := optim.AdamConfig{LR: 0.0002, Betas: [2]float32{0.5, 0.999}}

	var rendered []int
	gan := &train.GAN[*cpu.CPUBackend]{
		Generator:     g,
		Discriminator: d,
		GOptimizer:    optim.NewAdam(g.Parameters(), adam, b),
		DOptimizer:    optim.NewAdam(d.Parameters(), adam, b),
		Backend:       b,
		Data:          loader,
		LatentDim:     16,
		Epochs:        2,
		Seed:          1,
		SampleCount:   4,
		OnEpoch: func(epoch int, samples [][]float32) error {
			rendered = append(rendered, epoch)
			require.Len(t, samples, 4)
			for _, s := range samples {
				require.Len(t, s, mnist.Pixels)
				for _, v := range s {
					assert.True(t, v >= -1 && v <= 1)
				}
			}
			return nil
		},
	}

	before := append([]float32(nil), g.Parameters()[0].Tensor().Data()...)
	history, err := gan.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, []int{1, 2}, rendered)
	for _, e := range history {
		assert.Greater(t, e.DLoss, float32(0))
		assert.Greater(t, e.GLoss, float32(0))
		assert.True(t, e.DReal > 0 && e.DReal < 1)
		assert.True(t, e.DFake > 0 && e.DFake < 1)
	}
	assert.NotEqual(t, before, g.Parameters()[0].Tensor().Data(), "generator was updated")
	assert.Zero(t, b.Tape().NumOps())
}
