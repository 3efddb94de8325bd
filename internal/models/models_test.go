package models_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshMittal1811/Pytorch/internal/autodiff"
	"github.com/AnshMittal1811/Pytorch/internal/backend/cpu"
	"github.com/AnshMittal1811/Pytorch/internal/models"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

type backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func images(b backend, n int) *tensor.Tensor[float32, backend] {
	return tensor.Full[float32](tensor.Shape{n, 1, 28, 28}, 0.5, b)
}

func TestRegressionModels(t *testing.T) {
	b := autodiff.New(cpu.New())

	linear := models.NewLinearRegression(1, 1, b)
	assert.Equal(t, 2, models.CountParameters[backend](linear))
	assert.Equal(t, tensor.Shape{5, 1}, linear.Forward(tensor.Ones[float32](tensor.Shape{5, 1}, b)).Shape())
	assert.True(t, strings.HasPrefix(linear.String(), "LinearRegression(\n  (0): Linear(in_features=1"))

	logistic := models.NewLogisticRegression(784, 10, b)
	assert.Equal(t, 7850, models.CountParameters[backend](logistic))
	assert.Equal(t, tensor.Shape{3, 10}, logistic.Forward(tensor.Ones[float32](tensor.Shape{3, 784}, b)).Shape())
}

func TestFeedforward(t *testing.T) {
	b := autodiff.New(cpu.New())

	tests := []struct {
		hidden     []int
		activation string
		params     int
	}{
		{[]int{100}, models.ActivationSigmoid, 79510},
		{[]int{100}, models.ActivationTanh, 79510},
		{[]int{100, 100}, models.ActivationReLU, 89610},
		{[]int{100, 100, 100}, models.ActivationReLU, 99710},
	}
	for _, tt := range tests {
		model, err := models.NewFeedforward(784, tt.hidden, 10, tt.activation, b)
		require.NoError(t, err)
		assert.Equal(t, tt.params, models.CountParameters[backend](model))
		assert.Equal(t, 2*len(tt.hidden)+1, model.Len())
		assert.Equal(t, tensor.Shape{2, 10}, model.Forward(tensor.Ones[float32](tensor.Shape{2, 784}, b)).Shape())
	}

	_, err := models.NewFeedforward(784, nil, 10, models.ActivationReLU, b)
	assert.Error(t, err)
	_, err = models.NewFeedforward(784, []int{1, 2, 3, 4}, 10, models.ActivationReLU, b)
	assert.Error(t, err)
	_, err = models.NewFeedforward(784, []int{100}, 10, "gelu", b)
	assert.ErrorContains(t, err, `unknown activation "gelu"`)
}

func TestCNN(t *testing.T) {
	b := autodiff.New(cpu.New())

	tests := []struct {
		variant string
		padding int
		params  int
	}{
		{models.OneConv, 0, 416 + 23050},
		{models.OneConv, 2, 416 + 31370},
		{models.TwoConv, 0, 416 + 12832 + 5130},
		{models.TwoConv, 2, 416 + 12832 + 15690},
	}
	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			model, err := models.NewCNN(tt.variant, 28, tt.padding, 10, b)
			require.NoError(t, err)
			assert.Equal(t, tt.variant, model.Variant())
			assert.Equal(t, tt.params, models.CountParameters[backend](model))
			assert.Equal(t, tensor.Shape{2, 10}, model.Forward(images(b, 2)).Shape())
			assert.True(t, strings.HasPrefix(model.String(), "CNN(\n  (0): Conv2d(1, 16"))
		})
	}

	_, err := models.NewCNN("three-conv", 28, 0, 10, b)
	assert.ErrorContains(t, err, "unknown variant")
	_, err = models.NewCNN(models.TwoConv, 8, 0, 10, b)
	assert.ErrorContains(t, err, "too small")
}

func TestRNNClassifier(t *testing.T) {
	b := autodiff.New(cpu.New())

	tests := []struct {
		cell   string
		layers int
		params int
	}{
		{models.CellRNNTanh, 1, 13000 + 1010},
		{models.CellRNNReLU, 2, 13000 + 20200 + 1010},
		{models.CellLSTM, 1, 52000 + 1010},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			model, err := models.NewRNNClassifier(tt.cell, 28, 28, 100, tt.layers, 10, b)
			require.NoError(t, err)
			assert.Equal(t, tt.cell, model.Cell())
			assert.Equal(t, tt.params, models.CountParameters[backend](model))

			x := images(b, 2)
			assert.Equal(t, tensor.Shape{2, 10}, model.Forward(x.Reshape(2, 28, 28)).Shape())
			assert.Equal(t, tensor.Shape{2, 10}, model.Forward(x.Reshape(2, 784)).Shape())
		})
	}

	_, err := models.NewRNNClassifier("gru", 28, 28, 100, 1, 10, b)
	assert.ErrorContains(t, err, `unknown cell "gru"`)
}

func TestRNNClassifierStateDict(t *testing.T) {
	b := autodiff.New(cpu.New())
	src, err := models.NewRNNClassifier(models.CellLSTM, 4, 3, 5, 1, 2, b)
	require.NoError(t, err)
	dst, err := models.NewRNNClassifier(models.CellLSTM, 4, 3, 5, 1, 2, b)
	require.NoError(t, err)

	sd := src.StateDict()
	assert.Contains(t, sd, "rnn.weight_ih_l0")
	assert.Contains(t, sd, "fc.weight")
	require.NoError(t, dst.LoadStateDict(sd))

	x := tensor.Full[float32](tensor.Shape{1, 4, 3}, 0.1, b)
	assert.Equal(t, src.Forward(x).Data(), dst.Forward(x).Data())

	delete(sd, "fc.bias")
	assert.ErrorContains(t, dst.LoadStateDict(sd), "fc: missing bias")
	assert.Contains(t, src.String(), "(rnn): LSTM(3, 5, num_layers=1, batch_first=True)")
}

func TestGAN(t *testing.T) {
	b := autodiff.New(cpu.New())
	g := models.NewGenerator(100, []int{256, 512, 1024}, 784, b)
	d := models.NewDiscriminator(784, []int{1024, 512, 256}, b)
	assert.Equal(t, 100, g.LatentDim())

	z := tensor.Full[float32](tensor.Shape{2, 100}, 3, b)
	fake := g.Forward(z)
	assert.Equal(t, tensor.Shape{2, 784}, fake.Shape())
	for _, v := range fake.Data() {
		assert.LessOrEqual(t, v, float32(1))
		assert.GreaterOrEqual(t, v, float32(-1))
	}
	assert.Equal(t, tensor.Shape{2, 1}, d.Forward(fake).Shape())

	assert.Equal(t, 100*256+256+256*512+512+512*1024+1024+1024*784+784, models.CountParameters[backend](g))
	assert.Equal(t, 784*1024+1024+1024*512+512+512*256+256+256+1, models.CountParameters[backend](d))
	assert.Contains(t, g.String(), "LeakyReLU(negative_slope=0.2)")
	assert.True(t, strings.HasSuffix(g.String(), "Tanh()\n)"))
}
