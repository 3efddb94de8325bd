package nn

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

var (
	initMu  sync.Mutex
	initRNG = rand.New(rand.NewPCG(0, 0x9e3779b97f4a7c15))
)

// SeedInit reseeds the generator behind every weight initializer, so two
// runs with the same seed build identical models.
func SeedInit(seed int64) {
	initMu.Lock()
	defer initMu.Unlock()
	initRNG = rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))
}

// Uniform returns a tensor drawn from U(-bound, bound).
func Uniform[B tensor.Backend](bound float64, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()

	initMu.Lock()
	defer initMu.Unlock()
	for i := range data {
		data[i] = float32((initRNG.Float64()*2 - 1) * bound)
	}
	return t
}

// FanIn draws from U(-1/√fanIn, 1/√fanIn), the default for Linear and
// Conv2D weights and biases.
func FanIn[B tensor.Backend](fanIn int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return Uniform(1/math.Sqrt(float64(fanIn)), shape, backend)
}
