package nn

import (
	"fmt"
	"math"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// Nonlinearity selects the activation of a vanilla RNN cell.
type Nonlinearity string

// Supported RNN nonlinearities.
const (
	NonlinearityTanh Nonlinearity = "tanh"
	NonlinearityReLU Nonlinearity = "relu"
)

// recurrentLayer holds the weights of one stacked layer. For an RNN gates is
// 1, for an LSTM gates is 4 (input, forget, cell, output).
type recurrentLayer[B tensor.Backend] struct {
	weightIH *Parameter[B] // [gates*hidden, in]
	weightHH *Parameter[B] // [gates*hidden, hidden]
	biasIH   *Parameter[B] // [gates*hidden]
	biasHH   *Parameter[B] // [gates*hidden]
}

func newRecurrentLayer[B tensor.Backend](index, inputSize, hiddenSize, gates int, backend B) recurrentLayer[B] {
	bound := 1.0 / math.Sqrt(float64(hiddenSize))
	rows := gates * hiddenSize
	return recurrentLayer[B]{
		weightIH: NewParameter(fmt.Sprintf("weight_ih_l%d", index), Uniform(bound, tensor.Shape{rows, inputSize}, backend)),
		weightHH: NewParameter(fmt.Sprintf("weight_hh_l%d", index), Uniform(bound, tensor.Shape{rows, hiddenSize}, backend)),
		biasIH:   NewParameter(fmt.Sprintf("bias_ih_l%d", index), Uniform(bound, tensor.Shape{rows}, backend)),
		biasHH:   NewParameter(fmt.Sprintf("bias_hh_l%d", index), Uniform(bound, tensor.Shape{rows}, backend)),
	}
}

func (l recurrentLayer[B]) params() []*Parameter[B] {
	return []*Parameter[B]{l.weightIH, l.weightHH, l.biasIH, l.biasHH}
}

// preactivation computes x @ W_ih.T + b_ih + h @ W_hh.T + b_hh.
func (l recurrentLayer[B]) preactivation(x, h *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	rows := l.biasIH.Tensor().Shape()[0]
	ih := x.MatMul(l.weightIH.Tensor().Transpose()).Add(l.biasIH.Tensor().Reshape(1, rows))
	hh := h.MatMul(l.weightHH.Tensor().Transpose()).Add(l.biasHH.Tensor().Reshape(1, rows))
	return ih.Add(hh)
}

// splitSteps turns [N, T, F] into T tensors of shape [N, F].
func splitSteps[B tensor.Backend](input *tensor.Tensor[float32, B]) []*tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("recurrent: expected 3D input [batch, seq, features], got shape %v", shape))
	}
	n, steps, features := shape[0], shape[1], shape[2]
	if steps == 1 {
		return []*tensor.Tensor[float32, B]{input.Reshape(n, features)}
	}
	chunks := input.Chunk(steps, 1)
	out := make([]*tensor.Tensor[float32, B], steps)
	for t, c := range chunks {
		out[t] = c.Reshape(n, features)
	}
	return out
}

// stackSteps turns T tensors of shape [N, H] into [N, T, H].
func stackSteps[B tensor.Backend](steps []*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	expanded := make([]*tensor.Tensor[float32, B], len(steps))
	for i, s := range steps {
		expanded[i] = s.Unsqueeze(1)
	}
	if len(expanded) == 1 {
		return expanded[0]
	}
	return tensor.Cat(expanded, 1)
}

func activate[B tensor.Backend](kind string, x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	switch kind {
	case "tanh":
		return NewTanh[B]().Forward(x)
	case "relu":
		return NewReLU[B]().Forward(x)
	case "sigmoid":
		return NewSigmoid[B]().Forward(x)
	default:
		panic("recurrent: unknown activation " + kind)
	}
}

// RNN is a multi-layer Elman RNN over batch-first sequences.
//
// For each layer and time step:
//
//	h_t = act(x_t @ W_ih.T + b_ih + h_{t-1} @ W_hh.T + b_hh)
//
// The initial hidden state is zero. Parameter names follow the
// weight_ih_l{k} / weight_hh_l{k} / bias_ih_l{k} / bias_hh_l{k} scheme.
type RNN[B tensor.Backend] struct {
	inputSize    int
	hiddenSize   int
	nonlinearity Nonlinearity
	layers       []recurrentLayer[B]
	backend      B
}

// NewRNN creates a stacked RNN.
func NewRNN[B tensor.Backend](inputSize, hiddenSize, numLayers int, nonlinearity Nonlinearity, backend B) *RNN[B] {
	if inputSize <= 0 || hiddenSize <= 0 || numLayers <= 0 {
		panic(fmt.Sprintf("RNN: sizes must be positive, got input=%d hidden=%d layers=%d", inputSize, hiddenSize, numLayers))
	}
	if nonlinearity != NonlinearityTanh && nonlinearity != NonlinearityReLU {
		panic(fmt.Sprintf("RNN: unknown nonlinearity %q", nonlinearity))
	}

	layers := make([]recurrentLayer[B], numLayers)
	for i := range layers {
		in := inputSize
		if i > 0 {
			in = hiddenSize
		}
		layers[i] = newRecurrentLayer(i, in, hiddenSize, 1, backend)
	}

	return &RNN[B]{
		inputSize:    inputSize,
		hiddenSize:   hiddenSize,
		nonlinearity: nonlinearity,
		layers:       layers,
		backend:      backend,
	}
}

// Forward returns the top layer's hidden states for every step: [N, T, H].
func (r *RNN[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return stackSteps(r.run(input))
}

// ForwardLast returns only the top layer's final hidden state: [N, H].
func (r *RNN[B]) ForwardLast(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	steps := r.run(input)
	return steps[len(steps)-1]
}

func (r *RNN[B]) run(input *tensor.Tensor[float32, B]) []*tensor.Tensor[float32, B] {
	xs := splitSteps(input)
	if xs[0].Shape()[1] != r.inputSize {
		panic(fmt.Sprintf("RNN: expected %d input features, got %d", r.inputSize, xs[0].Shape()[1]))
	}
	n := xs[0].Shape()[0]

	for _, layer := range r.layers {
		h := tensor.Zeros[float32](tensor.Shape{n, r.hiddenSize}, r.backend)
		hs := make([]*tensor.Tensor[float32, B], len(xs))
		for t, x := range xs {
			h = activate(string(r.nonlinearity), layer.preactivation(x, h))
			hs[t] = h
		}
		xs = hs
	}
	return xs
}

// Parameters returns all layer weights in layer order.
func (r *RNN[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, l := range r.layers {
		params = append(params, l.params()...)
	}
	return params
}

// StateDict returns the weights keyed by their parameter names.
func (r *RNN[B]) StateDict() map[string]*tensor.RawTensor {
	return recurrentStateDict(r.Parameters())
}

// LoadStateDict restores the weights.
func (r *RNN[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return loadRecurrentStateDict(r.Parameters(), stateDict)
}

// HiddenSize returns the hidden dimension.
func (r *RNN[B]) HiddenSize() int { return r.hiddenSize }

// NumLayers returns the number of stacked layers.
func (r *RNN[B]) NumLayers() int { return len(r.layers) }

func (r *RNN[B]) String() string {
	return fmt.Sprintf("RNN(%d, %d, num_layers=%d, nonlinearity=%s, batch_first=True)",
		r.inputSize, r.hiddenSize, len(r.layers), r.nonlinearity)
}

// LSTM is a multi-layer long short-term memory network over batch-first
// sequences.
//
// For each layer and time step, with gates split in i, f, g, o order:
//
//	i = σ(...), f = σ(...), g = tanh(...), o = σ(...)
//	c_t = f * c_{t-1} + i * g
//	h_t = o * tanh(c_t)
//
// Hidden and cell states start at zero.
type LSTM[B tensor.Backend] struct {
	inputSize  int
	hiddenSize int
	layers     []recurrentLayer[B]
	backend    B
}

// NewLSTM creates a stacked LSTM.
func NewLSTM[B tensor.Backend](inputSize, hiddenSize, numLayers int, backend B) *LSTM[B] {
	if inputSize <= 0 || hiddenSize <= 0 || numLayers <= 0 {
		panic(fmt.Sprintf("LSTM: sizes must be positive, got input=%d hidden=%d layers=%d", inputSize, hiddenSize, numLayers))
	}

	layers := make([]recurrentLayer[B], numLayers)
	for i := range layers {
		in := inputSize
		if i > 0 {
			in = hiddenSize
		}
		layers[i] = newRecurrentLayer(i, in, hiddenSize, 4, backend)
	}

	return &LSTM[B]{
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
		layers:     layers,
		backend:    backend,
	}
}

// Forward returns the top layer's hidden states for every step: [N, T, H].
func (l *LSTM[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return stackSteps(l.run(input))
}

// ForwardLast returns only the top layer's final hidden state: [N, H].
func (l *LSTM[B]) ForwardLast(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	steps := l.run(input)
	return steps[len(steps)-1]
}

func (l *LSTM[B]) run(input *tensor.Tensor[float32, B]) []*tensor.Tensor[float32, B] {
	xs := splitSteps(input)
	if xs[0].Shape()[1] != l.inputSize {
		panic(fmt.Sprintf("LSTM: expected %d input features, got %d", l.inputSize, xs[0].Shape()[1]))
	}
	n := xs[0].Shape()[0]

	for _, layer := range l.layers {
		h := tensor.Zeros[float32](tensor.Shape{n, l.hiddenSize}, l.backend)
		c := tensor.Zeros[float32](tensor.Shape{n, l.hiddenSize}, l.backend)
		hs := make([]*tensor.Tensor[float32, B], len(xs))
		for t, x := range xs {
			gates := layer.preactivation(x, h).Chunk(4, 1)
			i := activate("sigmoid", gates[0])
			f := activate("sigmoid", gates[1])
			g := activate("tanh", gates[2])
			o := activate("sigmoid", gates[3])

			c = f.Mul(c).Add(i.Mul(g))
			h = o.Mul(activate("tanh", c))
			hs[t] = h
		}
		xs = hs
	}
	return xs
}

// Parameters returns all layer weights in layer order.
func (l *LSTM[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, layer := range l.layers {
		params = append(params, layer.params()...)
	}
	return params
}

// StateDict returns the weights keyed by their parameter names.
func (l *LSTM[B]) StateDict() map[string]*tensor.RawTensor {
	return recurrentStateDict(l.Parameters())
}

// LoadStateDict restores the weights.
func (l *LSTM[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return loadRecurrentStateDict(l.Parameters(), stateDict)
}

// HiddenSize returns the hidden dimension.
func (l *LSTM[B]) HiddenSize() int { return l.hiddenSize }

// NumLayers returns the number of stacked layers.
func (l *LSTM[B]) NumLayers() int { return len(l.layers) }

func (l *LSTM[B]) String() string {
	return fmt.Sprintf("LSTM(%d, %d, num_layers=%d, batch_first=True)", l.inputSize, l.hiddenSize, len(l.layers))
}

func recurrentStateDict[B tensor.Backend](params []*Parameter[B]) map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor, len(params))
	for _, p := range params {
		stateDict[p.Name()] = p.Tensor().Raw()
	}
	return stateDict
}

func loadRecurrentStateDict[B tensor.Backend](params []*Parameter[B], stateDict map[string]*tensor.RawTensor) error {
	for _, p := range params {
		if err := loadParameter(p, stateDict, p.Name()); err != nil {
			return err
		}
	}
	return nil
}
