package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

func TestParse(t *testing.T) {
	d, err := Parse(" CPU ")
	require.NoError(t, err)
	assert.Equal(t, tensor.CPU, d)

	for _, name := range []string{"cuda", "gpu", "webgpu"} {
		_, err := Parse(name)
		assert.ErrorIs(t, err, ErrDeviceUnavailable, name)
	}

	_, err = Parse("tpu")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDeviceUnavailable)
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend(tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, tensor.CPU, b.Device())
	assert.NotNil(t, b.Tape())

	_, err = NewBackend(tensor.Device(1))
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
}

func TestDescribe(t *testing.T) {
	info := Describe()
	assert.NotEmpty(t, info.Brand)
	assert.GreaterOrEqual(t, info.LogicalCore, 0)
	assert.Contains(t, info.String(), "SIMD:")
}
