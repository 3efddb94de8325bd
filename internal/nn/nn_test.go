package nn_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshMittal1811/Pytorch/internal/autodiff"
	"github.com/AnshMittal1811/Pytorch/internal/backend/cpu"
	"github.com/AnshMittal1811/Pytorch/internal/nn"
	"github.com/AnshMittal1811/Pytorch/internal/optim"
	"github.com/AnshMittal1811/Pytorch/internal/serialization"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

type backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newBackend() backend { return autodiff.New(cpu.New()) }

func fromSlice(t *testing.T, b backend, values []float32, shape ...int) *tensor.Tensor[float32, backend] {
	t.Helper()
	x, err := tensor.FromSlice(values, tensor.Shape(shape), b)
	require.NoError(t, err)
	return x
}

func TestLinearForward(t *testing.T) {
	b := newBackend()
	layer := nn.NewLinear(3, 2, b)
	require.NoError(t, layer.LoadStateDict(map[string]*tensor.RawTensor{
		"weight": fromSlice(t, b, []float32{1, 0, -1, 2, 1, 0}, 2, 3).Raw(),
		"bias":   fromSlice(t, b, []float32{0.5, -1}, 2).Raw(),
	}))

	out := layer.Forward(fromSlice(t, b, []float32{1, 2, 3, 0, 1, 0}, 2, 3))
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float32{-1.5, 3, 0.5, 0}, out.Data())
	assert.Equal(t, "Linear(in_features=3, out_features=2, bias=True)", layer.String())
	assert.Panics(t, func() { layer.Forward(fromSlice(t, b, []float32{1, 2}, 1, 2)) })
}

func TestLinearInitBound(t *testing.T) {
	b := newBackend()
	layer := nn.NewLinear(100, 10, b)
	bound := float32(1 / math.Sqrt(100))
	for _, p := range layer.Parameters() {
		for _, v := range p.Tensor().Data() {
			assert.LessOrEqual(t, v, bound)
			assert.GreaterOrEqual(t, v, -bound)
		}
	}
}

func TestSeedInitIsDeterministic(t *testing.T) {
	b := newBackend()
	nn.SeedInit(42)
	first := nn.NewLinear(4, 3, b)
	nn.SeedInit(42)
	second := nn.NewLinear(4, 3, b)
	third := nn.NewLinear(4, 3, b)

	assert.Equal(t, first.Weight().Tensor().Data(), second.Weight().Tensor().Data())
	assert.NotEqual(t, second.Weight().Tensor().Data(), third.Weight().Tensor().Data())
}

func TestActivations(t *testing.T) {
	b := newBackend()
	x := fromSlice(t, b, []float32{-1, 0, 2}, 1, 3)

	assert.Equal(t, []float32{0, 0, 2}, nn.NewReLU[backend]().Forward(x).Data())
	assert.InDeltaSlice(t, []float32{-0.2, 0, 2}, nn.NewLeakyReLU[backend](0.2).Forward(x).Data(), 1e-6)
	assert.InDeltaSlice(t, []float32{0.26894142, 0.5, 0.880797}, nn.NewSigmoid[backend]().Forward(x).Data(), 1e-5)
	assert.InDeltaSlice(t, []float32{-0.7615942, 0, 0.9640276}, nn.NewTanh[backend]().Forward(x).Data(), 1e-5)
	assert.Equal(t, "LeakyReLU(negative_slope=0.2)", nn.NewLeakyReLU[backend](0.2).String())
}

func TestActivationNeedsKernels(t *testing.T) {
	plain := cpu.New()
	x := tensor.Ones[float32](tensor.Shape{2}, plain)
	assert.Panics(t, func() { nn.NewReLU[*cpu.CPUBackend]().Forward(x) })
}

func TestFlatten(t *testing.T) {
	b := newBackend()
	flatten := nn.NewFlatten[backend]()
	x := tensor.Ones[float32](tensor.Shape{2, 3, 4, 5}, b)
	assert.Equal(t, tensor.Shape{2, 60}, flatten.Forward(x).Shape())

	flat := tensor.Ones[float32](tensor.Shape{2, 3}, b)
	assert.Same(t, flat, flatten.Forward(flat))
	assert.Panics(t, func() { flatten.Forward(tensor.Ones[float32](tensor.Shape{3}, b)) })
}

func TestConvAndPoolShapes(t *testing.T) {
	b := newBackend()
	conv := nn.NewConv2D(1, 16, 5, 5, 1, 2, true, b)
	pool := nn.NewMaxPool2D[backend](2, 2, b)

	x := tensor.Ones[float32](tensor.Shape{3, 1, 28, 28}, b)
	y := conv.Forward(x)
	assert.Equal(t, tensor.Shape{3, 16, 28, 28}, y.Shape())
	assert.Equal(t, tensor.Shape{3, 16, 14, 14}, pool.Forward(y).Shape())

	h, w := conv.OutputSize(28, 28)
	assert.Equal(t, [2]int{28, 28}, [2]int{h, w})
	h, w = pool.OutputSize(28, 28)
	assert.Equal(t, [2]int{14, 14}, [2]int{h, w})

	assert.Len(t, conv.Parameters(), 2)
	assert.Len(t, nn.NewConv2D(1, 4, 3, 3, 1, 0, false, b).Parameters(), 1)
	assert.Equal(t, "Conv2d(1, 16, kernel_size=(5, 5), stride=(1, 1), padding=(2, 2))", conv.String())
	assert.Equal(t, "MaxPool2d(kernel_size=2, stride=2)", pool.String())

	assert.Panics(t, func() { conv.Forward(tensor.Ones[float32](tensor.Shape{1, 3, 28, 28}, b)) })
	assert.Panics(t, func() { nn.NewConv2D(1, 1, 3, 3, 0, 0, true, b) })
	assert.Panics(t, func() { nn.NewMaxPool2D[backend](0, 2, b) })
}

func TestRecurrentShapes(t *testing.T) {
	b := newBackend()
	x := tensor.Ones[float32](tensor.Shape{2, 5, 3}, b)

	rnn := nn.NewRNN(3, 4, 2, nn.NonlinearityReLU, b)
	assert.Equal(t, tensor.Shape{2, 5, 4}, rnn.Forward(x).Shape())
	assert.Equal(t, tensor.Shape{2, 4}, rnn.ForwardLast(x).Shape())
	assert.Len(t, rnn.Parameters(), 8)
	assert.Equal(t, 2, rnn.NumLayers())
	assert.Equal(t, "RNN(3, 4, num_layers=2, nonlinearity=relu, batch_first=True)", rnn.String())

	lstm := nn.NewLSTM(3, 4, 1, b)
	assert.Equal(t, tensor.Shape{2, 5, 4}, lstm.Forward(x).Shape())
	last := lstm.ForwardLast(x)
	assert.Equal(t, tensor.Shape{2, 4}, last.Shape())
	for _, v := range last.Data() {
		assert.Less(t, math.Abs(float64(v)), 1.0, "lstm hidden state is bounded by tanh")
	}

	sd := lstm.StateDict()
	assert.Equal(t, tensor.Shape{16, 3}, sd["weight_ih_l0"].Shape())
	assert.Equal(t, tensor.Shape{16, 4}, sd["weight_hh_l0"].Shape())
	assert.Equal(t, tensor.Shape{16}, sd["bias_ih_l0"].Shape())
	assert.Contains(t, sd, "bias_hh_l0")

	assert.Panics(t, func() { lstm.Forward(tensor.Ones[float32](tensor.Shape{2, 5, 2}, b)) })
	assert.Panics(t, func() { lstm.Forward(tensor.Ones[float32](tensor.Shape{2, 3}, b)) })
	assert.Panics(t, func() { nn.NewRNN(3, 4, 1, nn.Nonlinearity("gelu"), b) })
}

func TestRecurrentSingleStep(t *testing.T) {
	b := newBackend()
	rnn := nn.NewRNN(2, 3, 1, nn.NonlinearityTanh, b)
	x := tensor.Ones[float32](tensor.Shape{4, 1, 2}, b)
	assert.Equal(t, tensor.Shape{4, 1, 3}, rnn.Forward(x).Shape())
}

func TestLosses(t *testing.T) {
	b := newBackend()

	mse := nn.NewMSELoss(b).Forward(fromSlice(t, b, []float32{1, 2, 3}, 3, 1), fromSlice(t, b, []float32{1, 0, 6}, 3, 1))
	assert.Equal(t, tensor.Shape{1}, mse.Shape())
	assert.InDelta(t, 13.0/3, mse.Item(), 1e-5)
	assert.Panics(t, func() {
		nn.NewMSELoss(b).Forward(tensor.Ones[float32](tensor.Shape{2}, b), tensor.Ones[float32](tensor.Shape{3}, b))
	})

	labels, err := tensor.FromSlice([]int32{0, 9}, tensor.Shape{2}, b)
	require.NoError(t, err)
	ce := nn.NewCrossEntropyLoss(b).Forward(tensor.Zeros[float32](tensor.Shape{2, 10}, b), labels)
	assert.InDelta(t, math.Log(10), ce.Item(), 1e-5)

	bce := nn.NewBCEWithLogitsLoss(b).Forward(tensor.Zeros[float32](tensor.Shape{4, 1}, b), tensor.Ones[float32](tensor.Shape{4, 1}, b))
	assert.InDelta(t, math.Ln2, bce.Item(), 1e-5)

	confident := nn.NewBCEWithLogitsLoss(b).Forward(fromSlice(t, b, []float32{100, -100}, 2, 1), fromSlice(t, b, []float32{1, 0}, 2, 1))
	assert.InDelta(t, 0, confident.Item(), 1e-6, "large logits do not overflow")
}

func TestAccuracy(t *testing.T) {
	b := newBackend()
	logits := fromSlice(t, b, []float32{0.1, 0.9, 0.8, 0.2, 0.3, 0.7}, 3, 2)
	labels, err := tensor.FromSlice([]int32{1, 0, 0}, tensor.Shape{3}, b)
	require.NoError(t, err)

	assert.Equal(t, 2, nn.Correct(logits, labels))
	assert.InDelta(t, 2.0/3, nn.Accuracy(logits, labels), 1e-6)
}

func TestSequential(t *testing.T) {
	b := newBackend()
	model := nn.NewSequential[backend](
		nn.NewLinear(4, 3, b),
		nn.NewReLU[backend](),
		nn.NewLinear(3, 2, b),
	)

	out := model.Forward(tensor.Ones[float32](tensor.Shape{5, 4}, b))
	assert.Equal(t, tensor.Shape{5, 2}, out.Shape())
	assert.Len(t, model.Parameters(), 4)
	assert.Equal(t, 3, model.Len())

	sd := model.StateDict()
	assert.ElementsMatch(t, []string{"0.weight", "0.bias", "2.weight", "2.bias"}, keys(sd))

	assert.Equal(t, "Sequential(\n"+
		"  (0): Linear(in_features=4, out_features=3, bias=True)\n"+
		"  (1): ReLU()\n"+
		"  (2): Linear(in_features=3, out_features=2, bias=True)\n"+
		")", model.String())
}

func TestSequentialLoadStateDict(t *testing.T) {
	b := newBackend()
	build := func() *nn.Sequential[backend] {
		return nn.NewSequential[backend](nn.NewLinear(2, 2, b), nn.NewTanh[backend](), nn.NewLinear(2, 1, b))
	}
	src, dst := build(), build()

	require.NoError(t, dst.LoadStateDict(src.StateDict()))
	x := fromSlice(t, b, []float32{0.3, -0.7}, 1, 2)
	assert.Equal(t, src.Forward(x).Data(), dst.Forward(x).Data())

	sd := src.StateDict()
	delete(sd, "2.bias")
	assert.ErrorContains(t, dst.LoadStateDict(sd), "missing bias")

	sd = src.StateDict()
	sd["0.weight"] = tensor.Ones[float32](tensor.Shape{3, 2}, b).Raw()
	assert.ErrorContains(t, dst.LoadStateDict(sd), "shape mismatch")

	sd = src.StateDict()
	sd["0.bias"] = tensor.Ones[int32](tensor.Shape{2}, b).Raw()
	assert.ErrorContains(t, dst.LoadStateDict(sd), "dtype mismatch")
}

func TestStateDictPrefixes(t *testing.T) {
	b := newBackend()
	w := tensor.Ones[float32](tensor.Shape{1}, b).Raw()
	sd := nn.PrefixStateDict("fc1", map[string]*tensor.RawTensor{"weight": w})
	assert.Equal(t, map[string]*tensor.RawTensor{"fc1.weight": w}, sd)

	sd["fc10.weight"] = w
	sd["fc1"] = w
	assert.Equal(t, map[string]*tensor.RawTensor{"weight": w}, nn.SubStateDict(sd, "fc1"))
}

func TestCheckpointRoundTrip(t *testing.T) {
	b := newBackend()
	nn.SeedInit(1)
	model := nn.NewSequential[backend](nn.NewLinear(3, 2, b))
	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.1, Momentum: 0.9}, b)

	b.Tape().StartRecording()
	loss := nn.NewMSELoss(b).Forward(model.Forward(tensor.Ones[float32](tensor.Shape{4, 3}, b)), tensor.Zeros[float32](tensor.Shape{4, 2}, b))
	optimizer.Step(autodiff.Backward(loss, b))
	b.Tape().Clear()
	b.Tape().StopRecording()

	path := filepath.Join(t.TempDir(), "checkpoint.born")
	ckpt := &nn.Checkpoint[backend]{
		Model:     model,
		Optimizer: optimizer,
		Epoch:     2,
		Step:      40,
		Loss:      float64(loss.Item()),
		Metadata:  map[string]string{"tutorial": "ffn"},
	}
	require.NoError(t, ckpt.Save(path))

	nn.SeedInit(2)
	restoredModel := nn.NewSequential[backend](nn.NewLinear(3, 2, b))
	restoredOpt := optim.NewSGD(restoredModel.Parameters(), optim.SGDConfig{LR: 0.1, Momentum: 0.9}, b)
	restored, err := nn.LoadCheckpoint(path, b, restoredModel, restoredOpt)
	require.NoError(t, err)

	assert.Equal(t, 2, restored.Epoch)
	assert.Equal(t, int64(40), restored.Step)
	assert.InDelta(t, ckpt.Loss, restored.Loss, 1e-9)
	assert.Equal(t, "ffn", restored.Metadata["tutorial"])
	for name, raw := range model.StateDict() {
		assert.Equal(t, raw.AsFloat32(), restoredModel.StateDict()[name].AsFloat32(), name)
	}
	for name, raw := range optimizer.StateDict() {
		assert.Equal(t, raw.AsFloat32(), restoredOpt.StateDict()[name].AsFloat32(), name)
	}

	adam := optim.NewAdam(restoredModel.Parameters(), optim.AdamConfig{}, b)
	_, err = nn.LoadCheckpoint(path, b, restoredModel, adam)
	assert.ErrorContains(t, err, "cannot resume Adam")
}

func TestLoadCheckpointRejectsModelSnapshot(t *testing.T) {
	b := newBackend()
	model := nn.NewLinear(2, 2, b)
	path := filepath.Join(t.TempDir(), "model.born")
	require.NoError(t, serialization.WriteFile(path, model.StateDict(), serialization.Header{ModelType: "Linear"}))

	_, err := nn.LoadCheckpoint(path, b, model, optim.NewSGD(model.Parameters(), optim.SGDConfig{}, b))
	assert.ErrorContains(t, err, "not a checkpoint")
}

func keys(m map[string]*tensor.RawTensor) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
