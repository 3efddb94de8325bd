// Package mnist loads the MNIST handwritten-digit dataset.
//
// The four canonical gzip IDX archives are cached under RawDir(root), fetched
// from DefaultMirrors on demand and verified by SHA-256. Pixels are decoded to
// float32 in [0, 1] (ToTensor) and then passed through an optional Transform
// such as Normalize(0.5, 0.5).
package mnist

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/AnshMittal1811/Pytorch/internal/parallel"
)

// Transform rewrites one image's pixels in place after ToTensor scaling.
type Transform func(pixels []float32)

// Normalize returns a transform computing (x - mean) / std.
func Normalize(mean, std float32) Transform {
	return func(pixels []float32) {
		for i, v := range pixels {
			pixels[i] = (v - mean) / std
		}
	}
}

// Options configures New.
type Options struct {
	Train      bool            // Load the training split instead of the test split
	Download   bool            // Fetch missing archives before loading
	Transform  Transform       // Applied to every image after scaling to [0, 1]
	MaxSamples int             // Keep only the first MaxSamples examples (0 = all)
	Fetch      DownloadOptions // Mirror and client overrides for Download
}

// Dataset is an in-memory MNIST split.
type Dataset struct {
	pixels []float32 // n * Pixels, row-major per image
	labels []int32
	split  Split
}

// New mirrors the torchvision constructor: download if asked, then load the
// selected split from RawDir(root).
func New(ctx context.Context, root string, opts Options) (*Dataset, error) {
	dir := RawDir(root)
	if opts.Download {
		if err := Download(ctx, dir, opts.Fetch); err != nil {
			return nil, err
		}
	}

	split := Test
	if opts.Train {
		split = Train
	}
	return Load(dir, split, opts)
}

// Load decodes a split from the archives (or extracted files) in dir.
func Load(dir string, split Split, opts Options) (*Dataset, error) {
	imgFile, lblFile := filesFor(split)

	r, closeImages, err := openIDX(dir, imgFile)
	if err != nil {
		return nil, err
	}
	raw, n, _, _, err := readImages(r)
	if cerr := closeImages(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("mnist: %s: %w", imgFile.name, err)
	}

	r, closeLabels, err := openIDX(dir, lblFile)
	if err != nil {
		return nil, err
	}
	labels, err := readLabels(r)
	if cerr := closeLabels(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("mnist: %s: %w", lblFile.name, err)
	}

	if n != len(labels) {
		return nil, fmt.Errorf("%w: image count (%d) != label count (%d)", ErrCorrupt, n, len(labels))
	}
	if opts.MaxSamples > 0 && n > opts.MaxSamples {
		n = opts.MaxSamples
	}

	return fromBytes(raw[:n*Pixels], labels[:n], split, opts.Transform), nil
}

// fromBytes scales pixels to [0, 1] and applies transform, one image per
// parallel work item.
func fromBytes(raw, labels []byte, split Split, transform Transform) *Dataset {
	n := len(labels)
	ds := &Dataset{
		pixels: make([]float32, n*Pixels),
		labels: make([]int32, n),
		split:  split,
	}

	parallel.For(n, func(i int) {
		img := ds.pixels[i*Pixels : (i+1)*Pixels]
		for j, p := range raw[i*Pixels : (i+1)*Pixels] {
			img[j] = float32(p) / 255.0
		}
		if transform != nil {
			transform(img)
		}
		ds.labels[i] = int32(labels[i])
	}, parallel.DefaultConfig())

	return ds
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	return len(d.labels)
}

// Image returns the pixels of example i as a view into the dataset.
func (d *Dataset) Image(i int) []float32 {
	return d.pixels[i*Pixels : (i+1)*Pixels : (i+1)*Pixels]
}

// Label returns the digit of example i.
func (d *Dataset) Label(i int) int32 {
	return d.labels[i]
}

// Split returns the partition the dataset was loaded from.
func (d *Dataset) Split() Split {
	return d.split
}

// Subset returns the first n examples (all of them when n <= 0 or n >= Len).
func (d *Dataset) Subset(n int) *Dataset {
	if n <= 0 || n >= d.Len() {
		return d
	}
	return &Dataset{
		pixels: d.pixels[:n*Pixels],
		labels: d.labels[:n],
		split:  d.split,
	}
}

// RandomSplit partitions the examples into two datasets holding ratio and
// 1-ratio of them, after a seeded shuffle.
func (d *Dataset) RandomSplit(ratio float64, seed int64) (*Dataset, *Dataset, error) {
	if ratio <= 0 || ratio >= 1 {
		return nil, nil, fmt.Errorf("mnist: split ratio %g must be in (0, 1)", ratio)
	}

	order := make([]int, d.Len())
	for i := range order {
		order[i] = i
	}
	//nolint:gosec // G404: reproducible split
	rand.New(rand.NewSource(seed)).Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	cut := int(float64(len(order)) * ratio)
	return d.gather(order[:cut]), d.gather(order[cut:]), nil
}

func (d *Dataset) gather(idx []int) *Dataset {
	out := &Dataset{
		pixels: make([]float32, 0, len(idx)*Pixels),
		labels: make([]int32, 0, len(idx)),
		split:  d.split,
	}
	for _, i := range idx {
		out.pixels = append(out.pixels, d.Image(i)...)
		out.labels = append(out.labels, d.labels[i])
	}
	return out
}
