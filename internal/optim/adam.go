package optim

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/AnshMittal1811/Pytorch/internal/nn"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// Adam implements Kingma & Ba with bias correction:
//
//	m = β1*m + (1-β1)*g
//	v = β2*v + (1-β2)*g²
//	p = p - lr * (m/(1-β1^t)) / (√(v/(1-β2^t)) + eps)
type Adam[B tensor.Backend] struct {
	params       []*nn.Parameter[B]
	lr           float32
	beta1, beta2 float32
	eps          float32
	t            int
	m, v         []*tensor.RawTensor
}

// AdamConfig configures Adam. Zero fields take the defaults lr=0.001,
// betas=(0.9, 0.999) and eps=1e-8.
type AdamConfig struct {
	LR    float32
	Betas [2]float32
	Eps   float32
}

// NewAdam creates an Adam optimizer over params.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, _ B) *Adam[B] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam[B]{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make([]*tensor.RawTensor, len(params)),
		v:      make([]*tensor.RawTensor, len(params)),
	}
}

// Step advances the timestep and updates every parameter that has a
// gradient in grads.
func (a *Adam[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.t++
	correction1 := 1 - math32.Pow(a.beta1, float32(a.t))
	correction2 := 1 - math32.Pow(a.beta2, float32(a.t))

	for i, param := range a.params {
		g := gradient(param, grads)
		if g == nil {
			continue
		}
		if a.m[i] == nil {
			a.m[i], a.v[i] = buffer(param), buffer(param)
		}
		w := param.Tensor().Raw().AsFloat32()
		m, v := a.m[i].AsFloat32(), a.v[i].AsFloat32()
		for j := range w {
			m[j] = a.beta1*m[j] + (1-a.beta1)*g[j]
			v[j] = a.beta2*v[j] + (1-a.beta2)*g[j]*g[j]
			w[j] -= a.lr * (m[j] / correction1) / (math32.Sqrt(v[j]/correction2) + a.eps)
		}
	}
}

// ZeroGrad clears the stored parameter gradients.
func (a *Adam[B]) ZeroGrad() { zeroGrads(a.params) }

// LR returns the learning rate.
func (a *Adam[B]) LR() float32 { return a.lr }

// SetLR changes the learning rate.
func (a *Adam[B]) SetLR(lr float32) { a.lr = lr }

// Timestep returns the number of steps taken.
func (a *Adam[B]) Timestep() int { return a.t }

// Name returns "Adam".
func (a *Adam[B]) Name() string { return "Adam" }

// Hyperparameters returns lr, beta1, beta2 and eps.
func (a *Adam[B]) Hyperparameters() map[string]float64 {
	return map[string]float64{
		"lr":    float64(a.lr),
		"beta1": float64(a.beta1),
		"beta2": float64(a.beta2),
		"eps":   float64(a.eps),
	}
}

// StateDict returns "m.<i>", "v.<i>" and the timestep as an int64 "step".
func (a *Adam[B]) StateDict() map[string]*tensor.RawTensor {
	sd := make(map[string]*tensor.RawTensor)
	saveBuffers(sd, "m", a.m)
	saveBuffers(sd, "v", a.v)

	step, err := tensor.NewRaw(tensor.Shape{1}, tensor.Int64, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("optim: %v", err))
	}
	step.AsInt64()[0] = int64(a.t)
	sd["step"] = step
	return sd
}

// LoadStateDict restores the moments and the timestep.
func (a *Adam[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	m, err := loadBuffers(a.params, stateDict, "m")
	if err != nil {
		return err
	}
	v, err := loadBuffers(a.params, stateDict, "v")
	if err != nil {
		return err
	}
	for i := range m {
		if (m[i] == nil) != (v[i] == nil) {
			return fmt.Errorf("adam: parameter %d has only one of m and v", i)
		}
	}
	t := 0
	if step, ok := stateDict["step"]; ok {
		if step.DType() != tensor.Int64 || step.NumElements() != 1 {
			return fmt.Errorf("adam: step must be a single int64, got %s %v", step.DType(), step.Shape())
		}
		t = int(step.AsInt64()[0])
	}
	a.m, a.v, a.t = m, v, t
	return nil
}
