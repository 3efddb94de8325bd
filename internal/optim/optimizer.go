// Package optim updates nn parameters from the gradient map returned by
// autodiff.Backward.
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.1}, backend)
//	for batch := range batches {
//		optimizer.ZeroGrad()
//		loss := criterion.Forward(model.Forward(batch.X), batch.Y)
//		optimizer.Step(autodiff.Backward(loss, backend))
//		backend.Tape().Clear()
//	}
package optim

import (
	"fmt"

	"github.com/AnshMittal1811/Pytorch/internal/nn"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// Optimizer applies one update per Step. Its buffers can be saved in a
// checkpoint through StateDict.
type Optimizer interface {
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)
	ZeroGrad()
	LR() float32
	SetLR(lr float32)

	nn.OptimizerState
}

// gradient records the gradient of param (nil when param took no part in
// the forward pass) and returns its float32 view.
func gradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) []float32 {
	raw := grads[param.Tensor().Raw()]
	if raw == nil {
		return nil
	}
	param.SetGrad(tensor.New[float32](raw, param.Tensor().Backend()))
	g := raw.AsFloat32()
	if n := param.Tensor().NumElements(); len(g) != n {
		panic(fmt.Sprintf("optim: gradient of %q has %d elements, parameter has %d", param.Name(), len(g), n))
	}
	return g
}

// buffer returns a zeroed float32 tensor shaped like param.
func buffer[B tensor.Backend](param *nn.Parameter[B]) *tensor.RawTensor {
	raw, err := tensor.NewRaw(param.Tensor().Shape(), tensor.Float32, param.Tensor().Raw().Device())
	if err != nil {
		panic(fmt.Sprintf("optim: %v", err))
	}
	return raw
}

// loadBuffers restores the per-parameter buffers stored under
// "<kind>.<index>".
func loadBuffers[B tensor.Backend](params []*nn.Parameter[B], stateDict map[string]*tensor.RawTensor, kind string) ([]*tensor.RawTensor, error) {
	out := make([]*tensor.RawTensor, len(params))
	for i, param := range params {
		raw, ok := stateDict[fmt.Sprintf("%s.%d", kind, i)]
		if !ok {
			continue
		}
		if raw.DType() != tensor.Float32 || !raw.Shape().Equal(param.Tensor().Shape()) {
			return nil, fmt.Errorf("%s.%d: got %s %v, want float32 %v", kind, i, raw.DType(), raw.Shape(), param.Tensor().Shape())
		}
		out[i] = raw
	}
	return out, nil
}

func saveBuffers(sd map[string]*tensor.RawTensor, kind string, buffers []*tensor.RawTensor) {
	for i, b := range buffers {
		if b != nil {
			sd[fmt.Sprintf("%s.%d", kind, i)] = b
		}
	}
}

func zeroGrads[B tensor.Backend](params []*nn.Parameter[B]) {
	for _, p := range params {
		p.ZeroGrad()
	}
}
