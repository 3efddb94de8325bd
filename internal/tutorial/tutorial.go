// Package tutorial contains one runner per notebook. Each runner loads its
// data, builds its model and drives the training recipe, printing progress
// to the supplied writer.
package tutorial

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/AnshMittal1811/Pytorch/internal/config"
)

// ErrUnknown is returned by Lookup for names that are not registered.
var ErrUnknown = errors.New("unknown tutorial")

// Runner executes a tutorial.
type Runner func(ctx context.Context, cfg config.Config, out io.Writer) error

// Tutorial is a registered notebook.
type Tutorial struct {
	Name        string
	Description string
	// Defaults adjusts the shared defaults to the notebook's hyperparameters
	// before flags are parsed.
	Defaults func(cfg *config.Config)
	Run      Runner
}

// Config returns the default configuration for this tutorial.
func (t Tutorial) Config() config.Config {
	cfg := config.Default()
	if t.Defaults != nil {
		t.Defaults(&cfg)
	}
	return cfg
}

// Registry lists the tutorials in teaching order.
func Registry() []Tutorial {
	return []Tutorial{
		{
			Name:        "tensors",
			Description: "Tensor creation, arithmetic, reshaping and gradients from the tape",
			Run:         RunTensors,
		},
		{
			Name:        "linear-regression",
			Description: "Fit y = 2x + 1 with one linear layer and MSE",
			Defaults: func(c *config.Config) {
				c.Epochs = 100
				c.LR = 0.01
				c.LogEvery = 10
			},
			Run: RunLinearRegression,
		},
		{
			Name:        "logistic-regression",
			Description: "MNIST with a single linear layer and cross-entropy",
			Defaults:    func(c *config.Config) { c.LR = 0.001 },
			Run:         RunLogisticRegression,
		},
		{
			Name:        "feedforward",
			Description: "MNIST with a multilayer perceptron",
			Defaults:    func(c *config.Config) { c.LR = 0.1 },
			Run:         RunFeedforward,
		},
		{
			Name:        "cnn",
			Description: "MNIST with a convolutional network",
			Defaults:    func(c *config.Config) { c.LR = 0.01 },
			Run:         RunCNN,
		},
		{
			Name:        "rnn",
			Description: "MNIST read row by row with a vanilla RNN",
			Defaults:    func(c *config.Config) { c.LR = 0.01 },
			Run:         RunRNN,
		},
		{
			Name:        "lstm",
			Description: "MNIST read row by row with an LSTM",
			Defaults:    func(c *config.Config) { c.LR = 0.1 },
			Run:         RunLSTM,
		},
		{
			Name:        "gan",
			Description: "Generative adversarial network producing MNIST digits",
			Defaults: func(c *config.Config) {
				c.Epochs = 20
				c.LR = 2e-4
				c.Hidden = []int{256, 512, 1024}
			},
			Run: RunGAN,
		},
	}
}

// Lookup finds a tutorial by name.
func Lookup(name string) (Tutorial, error) {
	for _, t := range Registry() {
		if t.Name == name {
			return t, nil
		}
	}
	return Tutorial{}, fmt.Errorf("%w: %q", ErrUnknown, name)
}

// Names returns the registered tutorial names in order.
func Names() []string {
	reg := Registry()
	names := make([]string, len(reg))
	for i, t := range reg {
		names[i] = t.Name
	}
	return names
}
