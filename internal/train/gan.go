package train

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/chewxy/math32"

	"github.com/AnshMittal1811/Pytorch/internal/autodiff"
	"github.com/AnshMittal1811/Pytorch/internal/dataset"
	"github.com/AnshMittal1811/Pytorch/internal/nn"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// GANEpoch summarizes one epoch of adversarial training.
type GANEpoch struct {
	Epoch int
	DLoss float32 // mean discriminator loss (real + fake)
	GLoss float32 // mean generator loss
	DReal float32 // mean D(x) on real images
	DFake float32 // mean D(G(z)) seen by the discriminator step
}

// GAN alternates discriminator and generator updates on flattened images
// scaled to [-1, 1].
type GAN[B tensor.Backend] struct {
	Generator     nn.Module[*autodiff.AutodiffBackend[B]]
	Discriminator nn.Module[*autodiff.AutodiffBackend[B]]
	GOptimizer    Optimizer
	DOptimizer    Optimizer
	Backend       *autodiff.AutodiffBackend[B]

	Data      *dataset.Loader
	LatentDim int
	Epochs    int
	Seed      int64

	// SampleCount is the size of the fixed latent batch rendered after
	// every epoch.
	SampleCount int

	// OnEpoch receives the generator output for the fixed latent batch,
	// one flattened image per entry.
	OnEpoch func(epoch int, samples [][]float32) error

	Out io.Writer

	rng   *rand.Rand
	fixed *tensor.Tensor[float32, *autodiff.AutodiffBackend[B]]
}

// Run trains both players and returns per-epoch statistics.
func (g *GAN[B]) Run(ctx context.Context) ([]GANEpoch, error) {
	if g.Out == nil {
		g.Out = io.Discard
	}
	if g.SampleCount <= 0 {
		g.SampleCount = 64
	}
	g.rng = rand.New(rand.NewPCG(uint64(g.Seed), 0x9e3779b97f4a7c15))

	fixed, err := g.latent(g.SampleCount)
	if err != nil {
		return nil, err
	}
	g.fixed = fixed

	criterion := nn.NewBCEWithLogitsLoss(g.Backend)
	tape := g.Backend.Tape()
	tape.StartRecording()
	defer tape.StopRecording()

	var history []GANEpoch
	for epoch := 1; epoch <= g.Epochs; epoch++ {
		g.Data.Reset()
		var stats GANEpoch
		stats.Epoch = epoch
		batches := 0

		for batch, ok := g.Data.Next(); ok; batch, ok = g.Data.Next() {
			if err := ctx.Err(); err != nil {
				tape.Clear()
				return history, err
			}

			images, err := dataset.BatchImages(batch, g.Backend, len(batch.Images[0]))
			if err != nil {
				return history, err
			}

			dLoss, dReal, dFake, err := g.discriminatorStep(criterion, images)
			if err != nil {
				return history, err
			}
			gLoss, err := g.generatorStep(criterion, batch.Size())
			if err != nil {
				return history, err
			}

			stats.DLoss += dLoss
			stats.GLoss += gLoss
			stats.DReal += dReal
			stats.DFake += dFake
			batches++
		}

		if batches == 0 {
			return history, fmt.Errorf("epoch %d: data loader yielded no batches", epoch)
		}
		n := float32(batches)
		stats.DLoss /= n
		stats.GLoss /= n
		stats.DReal /= n
		stats.DFake /= n
		history = append(history, stats)

		fmt.Fprintf(g.Out, "Epoch [%d/%d] Loss D: %.4f, Loss G: %.4f, D(x): %.2f, D(G(z)): %.2f\n",
			epoch, g.Epochs, stats.DLoss, stats.GLoss, stats.DReal, stats.DFake)

		if g.OnEpoch != nil {
			if err := g.OnEpoch(epoch, g.Samples()); err != nil {
				return history, err
			}
		}
	}
	return history, nil
}

// discriminatorStep pushes D(real) toward 1 and D(fake) toward 0. The fakes
// are generated with the tape stopped, so no gradient reaches the generator.
func (g *GAN[B]) discriminatorStep(
	criterion *nn.BCEWithLogitsLoss[*autodiff.AutodiffBackend[B]],
	images *tensor.Tensor[float32, *autodiff.AutodiffBackend[B]],
) (loss, dReal, dFake float32, err error) {
	n := images.Shape()[0]
	tape := g.Backend.Tape()

	z, err := g.latent(n)
	if err != nil {
		return 0, 0, 0, err
	}
	resume := pauseRecording(tape)
	fake := g.Generator.Forward(z)
	resume()

	g.DOptimizer.ZeroGrad()
	realLogits := g.Discriminator.Forward(images)
	lossReal := criterion.Forward(realLogits, tensor.Ones[float32](tensor.Shape{n, 1}, g.Backend))
	fakeLogits := g.Discriminator.Forward(fake)
	lossFake := criterion.Forward(fakeLogits, tensor.Zeros[float32](tensor.Shape{n, 1}, g.Backend))
	total := lossReal.Add(lossFake)

	grads, err := backward(total, g.Backend)
	if err != nil {
		return 0, 0, 0, err
	}
	g.DOptimizer.Step(grads)
	tape.Clear()

	return total.Raw().AsFloat32()[0], meanSigmoid(realLogits.Raw().AsFloat32()), meanSigmoid(fakeLogits.Raw().AsFloat32()), nil
}

// generatorStep uses the non-saturating loss: label fakes as real and
// backpropagate through the discriminator into the generator. Only the
// generator optimizer steps.
func (g *GAN[B]) generatorStep(criterion *nn.BCEWithLogitsLoss[*autodiff.AutodiffBackend[B]], n int) (float32, error) {
	z, err := g.latent(n)
	if err != nil {
		return 0, err
	}

	g.GOptimizer.ZeroGrad()
	fake := g.Generator.Forward(z)
	logits := g.Discriminator.Forward(fake)
	loss := criterion.Forward(logits, tensor.Ones[float32](tensor.Shape{n, 1}, g.Backend))

	grads, err := backward(loss, g.Backend)
	if err != nil {
		return 0, err
	}
	g.GOptimizer.Step(grads)
	g.Backend.Tape().Clear()

	return loss.Raw().AsFloat32()[0], nil
}

// Samples renders the fixed latent batch with the tape stopped.
func (g *GAN[B]) Samples() [][]float32 {
	defer pauseRecording(g.Backend.Tape())()
	out := g.Generator.Forward(g.fixed)
	shape := out.Shape()
	data := out.Raw().AsFloat32()
	samples := make([][]float32, shape[0])
	per := shape.NumElements() / shape[0]
	for i := range samples {
		samples[i] = append([]float32(nil), data[i*per:(i+1)*per]...)
	}
	return samples
}

// latent draws n standard normal vectors of size LatentDim.
func (g *GAN[B]) latent(n int) (*tensor.Tensor[float32, *autodiff.AutodiffBackend[B]], error) {
	data := make([]float32, n*g.LatentDim)
	for i := range data {
		data[i] = float32(g.rng.NormFloat64())
	}
	return tensor.FromSlice(data, tensor.Shape{n, g.LatentDim}, g.Backend)
}

func meanSigmoid(logits []float32) float32 {
	if len(logits) == 0 {
		return 0
	}
	var sum float32
	for _, x := range logits {
		sum += 1 / (1 + math32.Exp(-x))
	}
	return sum / float32(len(logits))
}
