package dataset

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// ErrBatchSize is returned when a loader is configured with a non-positive
// batch size.
var ErrBatchSize = errors.New("dataset: batch size must be positive")

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	BatchSize int   // Examples per batch
	Shuffle   bool  // Reshuffle the order at every Reset
	DropLast  bool  // Skip a final batch smaller than BatchSize
	Seed      int64 // Seed for the shuffle generator
}

// Batch is a group of examples copied out of a Source.
type Batch struct {
	Images [][]float32
	Labels []int32
}

// Size returns the number of examples in the batch.
func (b *Batch) Size() int {
	return len(b.Labels)
}

// Loader iterates over a Source in batches.
//
// Usage:
//
//	loader, err := dataset.NewLoader(train, dataset.LoaderConfig{BatchSize: 100, Shuffle: true})
//	for epoch := 0; epoch < epochs; epoch++ {
//	    loader.Reset()
//	    for batch, ok := loader.Next(); ok; batch, ok = loader.Next() {
//	        ...
//	    }
//	}
type Loader struct {
	src   Source
	cfg   LoaderConfig
	order []int
	pos   int
	rng   *rand.Rand
}

// NewLoader creates a loader positioned at the start of the first epoch.
func NewLoader(src Source, cfg LoaderConfig) (*Loader, error) {
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrBatchSize, cfg.BatchSize)
	}

	order := make([]int, src.Len())
	for i := range order {
		order[i] = i
	}

	l := &Loader{
		src:   src,
		cfg:   cfg,
		order: order,
		//nolint:gosec // G404: shuffling needs reproducibility, not secrecy
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
	l.Reset()
	return l, nil
}

// Len returns the number of batches per epoch.
func (l *Loader) Len() int {
	n := len(l.order)
	if l.cfg.DropLast {
		return n / l.cfg.BatchSize
	}
	return (n + l.cfg.BatchSize - 1) / l.cfg.BatchSize
}

// BatchSize returns the configured batch size.
func (l *Loader) BatchSize() int {
	return l.cfg.BatchSize
}

// Reset rewinds to the start of a new epoch, reshuffling when enabled.
func (l *Loader) Reset() {
	l.pos = 0
	if l.cfg.Shuffle {
		l.rng.Shuffle(len(l.order), func(i, j int) {
			l.order[i], l.order[j] = l.order[j], l.order[i]
		})
	}
}

// Next returns the next batch, or false once the epoch is exhausted.
func (l *Loader) Next() (*Batch, bool) {
	remaining := len(l.order) - l.pos
	if remaining <= 0 || (l.cfg.DropLast && remaining < l.cfg.BatchSize) {
		return nil, false
	}

	n := min(l.cfg.BatchSize, remaining)
	batch := &Batch{
		Images: make([][]float32, n),
		Labels: make([]int32, n),
	}
	for i := 0; i < n; i++ {
		idx := l.order[l.pos+i]
		batch.Images[i] = l.src.Image(idx)
		batch.Labels[i] = l.src.Label(idx)
	}
	l.pos += n

	return batch, true
}

// BatchImages packs the batch into a float32 tensor of shape
// [batch, dims...]. The product of dims must equal the per-image pixel
// count, e.g. (784), (1, 28, 28) or (28, 28).
func BatchImages[B tensor.Backend](b *Batch, backend B, dims ...int) (*tensor.Tensor[float32, B], error) {
	if b.Size() == 0 {
		return nil, errors.New("dataset: empty batch")
	}

	per := len(b.Images[0])
	if tensor.Shape(dims).NumElements() != per {
		return nil, fmt.Errorf("dataset: dims %v do not hold %d pixels", dims, per)
	}

	data := make([]float32, 0, b.Size()*per)
	for i, img := range b.Images {
		if len(img) != per {
			return nil, fmt.Errorf("dataset: image %d has %d pixels, want %d", i, len(img), per)
		}
		data = append(data, img...)
	}

	shape := append(tensor.Shape{b.Size()}, dims...)
	return tensor.FromSlice(data, shape, backend)
}

// BatchLabels packs the labels into an int32 tensor of shape [batch].
func BatchLabels[B tensor.Backend](b *Batch, backend B) (*tensor.Tensor[int32, B], error) {
	return tensor.FromSlice(b.Labels, tensor.Shape{b.Size()}, backend)
}
