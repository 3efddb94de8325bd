package config

import (
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, cfg *Config, args ...string) error {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg.RegisterFlags(fs)
	return fs.Parse(args)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 3000, cfg.Iterations)
	assert.Equal(t, []int{100}, cfg.Hidden)
}

func TestFlagsOverrideDefaults(t *testing.T) {
	cfg := Default()
	err := parse(t, &cfg,
		"-batch", "32", "-lr", "0.5", "-hidden", "64, 32,16",
		"-variant", "one-conv", "-synthetic", "-epochs", "2", "-cell", "rnn_relu")
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.BatchSize)
	assert.InDelta(t, 0.5, cfg.LR, 1e-12)
	assert.Equal(t, []int{64, 32, 16}, cfg.Hidden)
	assert.Equal(t, "one-conv", cfg.Variant)
	assert.True(t, cfg.Synthetic)
	assert.Equal(t, 2, cfg.Epochs)
	assert.Equal(t, "rnn_relu", cfg.Cell)
	assert.Equal(t, "./data", cfg.DataDir)
}

func TestBadHiddenList(t *testing.T) {
	cfg := Default()
	assert.Error(t, parse(t, &cfg, "-hidden", "10,x"))
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.BatchSize = 0
	cfg.LR = -1
	cfg.Activation = "gelu"
	cfg.Hidden = []int{10, 0}

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	for _, want := range []string{"batch size", "learning rate", "gelu", "hidden width"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateNeedsIterationsOrEpochs(t *testing.T) {
	cfg := Default()
	cfg.Iterations = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)

	cfg.Epochs = 1
	assert.NoError(t, cfg.Validate())
}

func TestIntListString(t *testing.T) {
	v := []int{1, 2, 3}
	assert.Equal(t, "1,2,3", intList{&v}.String())
	assert.Equal(t, "", intList{}.String())
}
