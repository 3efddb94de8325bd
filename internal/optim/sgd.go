package optim

import (
	"github.com/AnshMittal1811/Pytorch/internal/nn"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// SGD is stochastic gradient descent with optional momentum and L2
// weight decay, matching torch.optim.SGD:
//
//	d = g + weight_decay*p
//	v = momentum*v + d        (when momentum > 0)
//	p = p - lr*v
type SGD[B tensor.Backend] struct {
	params      []*nn.Parameter[B]
	lr          float32
	momentum    float32
	weightDecay float32
	velocity    []*tensor.RawTensor
}

// SGDConfig configures SGD. A zero LR means 0.01.
type SGDConfig struct {
	LR          float32
	Momentum    float32
	WeightDecay float32
}

// NewSGD creates an SGD optimizer over params.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, _ B) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD[B]{
		params:      params,
		lr:          config.LR,
		momentum:    config.Momentum,
		weightDecay: config.WeightDecay,
		velocity:    make([]*tensor.RawTensor, len(params)),
	}
}

// Step updates every parameter that has a gradient in grads.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for i, param := range s.params {
		g := gradient(param, grads)
		if g == nil {
			continue
		}
		w := param.Tensor().Raw().AsFloat32()

		if s.momentum == 0 {
			for j := range w {
				w[j] -= s.lr * (g[j] + s.weightDecay*w[j])
			}
			continue
		}

		if s.velocity[i] == nil {
			s.velocity[i] = buffer(param)
		}
		v := s.velocity[i].AsFloat32()
		for j := range w {
			v[j] = s.momentum*v[j] + g[j] + s.weightDecay*w[j]
			w[j] -= s.lr * v[j]
		}
	}
}

// ZeroGrad clears the stored parameter gradients.
func (s *SGD[B]) ZeroGrad() { zeroGrads(s.params) }

// LR returns the learning rate.
func (s *SGD[B]) LR() float32 { return s.lr }

// SetLR changes the learning rate.
func (s *SGD[B]) SetLR(lr float32) { s.lr = lr }

// Name returns "SGD".
func (s *SGD[B]) Name() string { return "SGD" }

// Hyperparameters returns lr, momentum and weight_decay.
func (s *SGD[B]) Hyperparameters() map[string]float64 {
	return map[string]float64{
		"lr":           float64(s.lr),
		"momentum":     float64(s.momentum),
		"weight_decay": float64(s.weightDecay),
	}
}

// StateDict returns the momentum buffers as "velocity.<param index>".
func (s *SGD[B]) StateDict() map[string]*tensor.RawTensor {
	sd := make(map[string]*tensor.RawTensor)
	saveBuffers(sd, "velocity", s.velocity)
	return sd
}

// LoadStateDict restores the momentum buffers.
func (s *SGD[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	velocity, err := loadBuffers(s.params, stateDict, "velocity")
	if err != nil {
		return err
	}
	s.velocity = velocity
	return nil
}
