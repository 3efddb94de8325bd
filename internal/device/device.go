// Package device selects the compute device tutorials run on.
//
// Only the CPU backend is built into this repository. Requests for an
// accelerator are recognized and rejected with ErrDeviceUnavailable so a
// run fails up front instead of deep inside a training loop.
package device

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"

	"github.com/AnshMittal1811/Pytorch/internal/autodiff"
	"github.com/AnshMittal1811/Pytorch/internal/backend/cpu"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// ErrDeviceUnavailable is returned for devices this build cannot drive.
var ErrDeviceUnavailable = errors.New("device unavailable")

// Backend is the autodiff-wrapped CPU backend every tutorial trains on.
type Backend = autodiff.AutodiffBackend[*cpu.CPUBackend]

// Parse maps a device name to a tensor.Device.
//
// Accepted names: cpu, cuda, gpu (alias of cuda), webgpu. Only cpu is
// available; the others return ErrDeviceUnavailable.
func Parse(name string) (tensor.Device, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "cpu":
		return tensor.CPU, nil
	case "cuda", "gpu":
		return tensor.CPU, fmt.Errorf("%w: cuda (this build has no CUDA backend)", ErrDeviceUnavailable)
	case "webgpu":
		return tensor.CPU, fmt.Errorf("%w: webgpu (this build has no WebGPU backend)", ErrDeviceUnavailable)
	default:
		return tensor.CPU, fmt.Errorf("unknown device %q (want cpu, cuda or webgpu)", name)
	}
}

// NewBackend creates a fresh autodiff backend for d.
func NewBackend(d tensor.Device) (*Backend, error) {
	if d != tensor.CPU {
		return nil, fmt.Errorf("%w: %s", ErrDeviceUnavailable, d)
	}
	return autodiff.New(cpu.New()), nil
}

// Info describes the host CPU.
type Info struct {
	Brand        string
	Vendor       string
	PhysicalCore int
	LogicalCore  int
	Features     []string // SIMD extensions relevant to the float32 kernels
}

// Describe reports the host CPU as seen by cpuid.
func Describe() Info {
	info := Info{
		Brand:        cpuid.CPU.BrandName,
		Vendor:       cpuid.CPU.VendorString,
		PhysicalCore: cpuid.CPU.PhysicalCores,
		LogicalCore:  cpuid.CPU.LogicalCores,
	}
	if info.Brand == "" {
		info.Brand = runtime.GOARCH
	}

	for _, f := range []cpuid.FeatureID{cpuid.SSE2, cpuid.SSE4, cpuid.AVX, cpuid.AVX2, cpuid.FMA3, cpuid.AVX512F, cpuid.ASIMD} {
		if cpuid.CPU.Supports(f) {
			info.Features = append(info.Features, f.String())
		}
	}
	return info
}

func (i Info) String() string {
	features := "none"
	if len(i.Features) > 0 {
		features = strings.Join(i.Features, " ")
	}
	return fmt.Sprintf("%s (%d cores / %d threads, SIMD: %s)", i.Brand, i.PhysicalCore, i.LogicalCore, features)
}
