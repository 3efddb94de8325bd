package nn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// Sequential feeds each module's output to the next.
//
//	model := nn.NewSequential[B](
//		nn.NewLinear(784, 100, backend),
//		nn.NewReLU[B](),
//		nn.NewLinear(100, 10, backend),
//	)
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential chains modules in order.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{modules: modules}
}

// Forward applies every module in turn.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := input
	for _, m := range s.modules {
		out = m.Forward(out)
	}
	return out
}

// Parameters returns the parameters of every module in order.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// Add appends a module.
func (s *Sequential[B]) Add(module Module[B]) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules.
func (s *Sequential[B]) Len() int { return len(s.modules) }

// Module returns the module at index.
func (s *Sequential[B]) Module(index int) Module[B] {
	return s.modules[index]
}

// StateDict prefixes each module's keys with its index, e.g. "0.weight".
func (s *Sequential[B]) StateDict() map[string]*tensor.RawTensor {
	sd := make(map[string]*tensor.RawTensor)
	for i, m := range s.modules {
		for k, v := range PrefixStateDict(strconv.Itoa(i), m.StateDict()) {
			sd[k] = v
		}
	}
	return sd
}

// LoadStateDict hands each module the entries under its index.
func (s *Sequential[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i, m := range s.modules {
		sub := SubStateDict(stateDict, strconv.Itoa(i))
		if len(sub) == 0 && len(m.Parameters()) == 0 {
			continue
		}
		if err := m.LoadStateDict(sub); err != nil {
			return fmt.Errorf("module %d: %w", i, err)
		}
	}
	return nil
}

// String lists the modules one per line, indexed like the state dict.
func (s *Sequential[B]) String() string {
	var sb strings.Builder
	sb.WriteString("Sequential(\n")
	for i, m := range s.modules {
		name := fmt.Sprintf("%T", m)
		if st, ok := m.(fmt.Stringer); ok {
			name = st.String()
		}
		fmt.Fprintf(&sb, "  (%d): %s\n", i, name)
	}
	sb.WriteString(")")
	return sb.String()
}
