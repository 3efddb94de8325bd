package models

import (
	"github.com/AnshMittal1811/Pytorch/internal/nn"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// LeakySlope is the negative slope used throughout the GAN.
const LeakySlope = 0.2

// Generator maps latent vectors to images in [-1, 1].
type Generator[B tensor.Backend] struct {
	named[B]
	latent int
}

// NewGenerator creates latent -> hidden... -> out with LeakyReLU between
// layers and a Tanh output.
func NewGenerator[B tensor.Backend](latent int, hidden []int, out int, backend B) *Generator[B] {
	seq := nn.NewSequential[B]()
	width := latent
	for _, h := range hidden {
		seq.Add(nn.NewLinear(width, h, backend))
		seq.Add(nn.NewLeakyReLU[B](LeakySlope))
		width = h
	}
	seq.Add(nn.NewLinear(width, out, backend))
	seq.Add(nn.NewTanh[B]())
	return &Generator[B]{named: named[B]{seq, "Generator"}, latent: latent}
}

// LatentDim is the size of the generator input.
func (g *Generator[B]) LatentDim() int { return g.latent }

// Discriminator maps images to a single real/fake logit.
type Discriminator[B tensor.Backend] struct {
	named[B]
}

// NewDiscriminator creates in -> hidden... -> 1 with LeakyReLU between
// layers. The output is a raw logit for BCEWithLogitsLoss.
func NewDiscriminator[B tensor.Backend](in int, hidden []int, backend B) *Discriminator[B] {
	seq := nn.NewSequential[B]()
	width := in
	for _, h := range hidden {
		seq.Add(nn.NewLinear(width, h, backend))
		seq.Add(nn.NewLeakyReLU[B](LeakySlope))
		width = h
	}
	seq.Add(nn.NewLinear(width, 1, backend))
	return &Discriminator[B]{named[B]{seq, "Discriminator"}}
}
