// Package config holds the run configuration shared by every tutorial and
// binds it to command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full set of knobs a tutorial run reads.
type Config struct {
	DataDir    string // Dataset root; archives live under <DataDir>/MNIST/raw
	OutDir     string // Root directory for run artifacts
	Device     string // cpu, cuda or webgpu
	Download   bool   // Fetch missing dataset files
	Synthetic  bool   // Train on generated digits instead of MNIST
	MaxSamples int    // Cap on examples per split (0 = all)

	BatchSize  int     // Examples per optimizer step
	Iterations int     // Total optimizer steps; epochs are derived from it
	Epochs     int     // When > 0, overrides the derivation from Iterations
	LR         float64 // Learning rate
	Seed       int64   // Seed for shuffling, initialization noise and latent vectors
	LogEvery   int     // Evaluate and report every LogEvery iterations

	Hidden     []int  // Hidden layer widths (feedforward, GAN)
	Activation string // relu, sigmoid or tanh (feedforward)
	Variant    string // one-conv or two-conv (cnn)
	Padding    int    // Convolution padding (cnn)
	Layers     int    // Stacked recurrent layers (rnn, lstm)
	HiddenDim  int    // Recurrent hidden size (rnn, lstm)
	Cell       string // rnn_tanh or rnn_relu (rnn)
	LatentDim  int    // Generator input size (gan)

	Checkpoint bool   // Write a resumable checkpoint after every epoch
	Resume     string // Checkpoint to resume from
}

// Default returns the settings shared by the classification notebooks.
func Default() Config {
	return Config{
		DataDir:    "./data",
		OutDir:     "./runs",
		Device:     "cpu",
		Download:   true,
		BatchSize:  100,
		Iterations: 3000,
		LR:         0.001,
		Seed:       0,
		LogEvery:   500,
		Hidden:     []int{100},
		Activation: "relu",
		Variant:    "two-conv",
		Layers:     1,
		HiddenDim:  100,
		Cell:       "rnn_tanh",
		LatentDim:  100,
	}
}

// intList implements flag.Value for comma separated integers.
type intList struct{ dst *[]int }

func (l intList) String() string {
	if l.dst == nil {
		return ""
	}
	parts := make([]string, len(*l.dst))
	for i, v := range *l.dst {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (l intList) Set(s string) error {
	var out []int
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("bad list element %q: %w", p, err)
		}
		out = append(out, v)
	}
	*l.dst = out
	return nil
}

// RegisterFlags binds every field to fs, using the current values as
// defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.DataDir, "data", c.DataDir, "Dataset root directory")
	fs.StringVar(&c.OutDir, "out", c.OutDir, "Directory for run artifacts")
	fs.StringVar(&c.Device, "device", c.Device, "Compute device (cpu, cuda, webgpu)")
	fs.BoolVar(&c.Download, "download", c.Download, "Download MNIST if missing")
	fs.BoolVar(&c.Synthetic, "synthetic", c.Synthetic, "Use synthetic data (for testing without MNIST files)")
	fs.IntVar(&c.MaxSamples, "samples", c.MaxSamples, "Max samples to load per split (0 = all)")

	fs.IntVar(&c.BatchSize, "batch", c.BatchSize, "Batch size for training")
	fs.IntVar(&c.Iterations, "iters", c.Iterations, "Number of training iterations")
	fs.IntVar(&c.Epochs, "epochs", c.Epochs, "Number of epochs (overrides -iters when > 0)")
	fs.Float64Var(&c.LR, "lr", c.LR, "Learning rate")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "Random seed")
	fs.IntVar(&c.LogEvery, "log-every", c.LogEvery, "Evaluate every N iterations")

	fs.Var(intList{&c.Hidden}, "hidden", "Comma separated hidden layer widths")
	fs.StringVar(&c.Activation, "activation", c.Activation, "Hidden activation (relu, sigmoid, tanh)")
	fs.StringVar(&c.Variant, "variant", c.Variant, "CNN variant (one-conv, two-conv)")
	fs.IntVar(&c.Padding, "padding", c.Padding, "CNN convolution padding (0 = valid, 2 = same)")
	fs.IntVar(&c.Layers, "layers", c.Layers, "Number of stacked recurrent layers")
	fs.IntVar(&c.HiddenDim, "hidden-dim", c.HiddenDim, "Recurrent hidden size")
	fs.StringVar(&c.Cell, "cell", c.Cell, "RNN nonlinearity (rnn_tanh, rnn_relu)")
	fs.IntVar(&c.LatentDim, "latent", c.LatentDim, "GAN latent dimension")

	fs.BoolVar(&c.Checkpoint, "checkpoint", c.Checkpoint, "Write a checkpoint after every epoch")
	fs.StringVar(&c.Resume, "resume", c.Resume, "Resume training from a checkpoint file")
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.BatchSize > 0, "batch size must be positive, got %d", c.BatchSize)
	check(c.Iterations > 0 || c.Epochs > 0, "need -iters or -epochs > 0")
	check(c.Epochs >= 0, "epochs must not be negative, got %d", c.Epochs)
	check(c.LR > 0, "learning rate must be positive, got %g", c.LR)
	check(c.LogEvery >= 0, "log interval must not be negative, got %d", c.LogEvery)
	check(c.MaxSamples >= 0, "sample cap must not be negative, got %d", c.MaxSamples)
	check(len(c.Hidden) > 0, "need at least one hidden width")
	for _, h := range c.Hidden {
		check(h > 0, "hidden width must be positive, got %d", h)
	}
	check(oneOf(c.Activation, "relu", "sigmoid", "tanh"), "unknown activation %q", c.Activation)
	check(oneOf(c.Variant, "one-conv", "two-conv"), "unknown cnn variant %q", c.Variant)
	check(c.Padding >= 0, "padding must not be negative, got %d", c.Padding)
	check(c.Layers > 0, "layers must be positive, got %d", c.Layers)
	check(c.HiddenDim > 0, "hidden dim must be positive, got %d", c.HiddenDim)
	check(oneOf(c.Cell, "rnn_tanh", "rnn_relu"), "unknown rnn cell %q", c.Cell)
	check(c.LatentDim > 0, "latent dim must be positive, got %d", c.LatentDim)

	return errors.Join(errs...)
}

func oneOf(v string, options ...string) bool { return slices.Contains(options, v) }
