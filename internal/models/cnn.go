package models

import (
	"fmt"

	"github.com/AnshMittal1811/Pytorch/internal/nn"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// CNN variants.
const (
	OneConv = "one-conv"
	TwoConv = "two-conv"
)

// CNN is a small convolutional classifier for [N, 1, 28, 28] images.
//
//	one-conv: conv5x5(16) -> relu -> maxpool2 -> flatten -> linear(10)
//	two-conv: conv5x5(16) -> relu -> maxpool2 -> conv5x5(32) -> relu -> maxpool2 -> flatten -> linear(10)
//
// Padding 0 gives valid convolutions; padding 2 keeps the spatial size.
type CNN[B tensor.Backend] struct {
	named[B]
	variant string
}

// NewCNN creates a CNN for square single-channel images of the given side.
func NewCNN[B tensor.Backend](variant string, side, padding, classes int, backend B) (*CNN[B], error) {
	var channels []int
	switch variant {
	case OneConv:
		channels = []int{16}
	case TwoConv:
		channels = []int{16, 32}
	default:
		return nil, fmt.Errorf("cnn: unknown variant %q", variant)
	}

	seq := nn.NewSequential[B]()
	in, size := 1, side
	for _, out := range channels {
		conv := nn.NewConv2D(in, out, 5, 5, 1, padding, true, backend)
		pool := nn.NewMaxPool2D(2, 2, backend)
		size, _ = conv.OutputSize(size, size)
		size, _ = pool.OutputSize(size, size)
		if size <= 0 {
			return nil, fmt.Errorf("cnn: input side %d too small for %s with padding %d", side, variant, padding)
		}
		seq.Add(conv)
		seq.Add(nn.NewReLU[B]())
		seq.Add(pool)
		in = out
	}
	seq.Add(nn.NewFlatten[B]())
	seq.Add(nn.NewLinear(in*size*size, classes, backend))

	return &CNN[B]{named: named[B]{seq, "CNN"}, variant: variant}, nil
}

// Variant reports one-conv or two-conv.
func (c *CNN[B]) Variant() string { return c.variant }
