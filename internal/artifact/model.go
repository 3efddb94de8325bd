package artifact

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AnshMittal1811/Pytorch/internal/nn"
	"github.com/AnshMittal1811/Pytorch/internal/serialization"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// Snapshot file extensions.
const (
	ExtBorn        = ".born"
	ExtSafeTensors = ".safetensors"
)

// NewRunID returns a fresh identifier for a run directory.
func NewRunID() string {
	return uuid.NewString()
}

// RunDir creates <root>/<tutorial>-<timestamp>-<first 8 run id chars>
// and returns its path.
func RunDir(root, tutorial string) (string, error) {
	name := fmt.Sprintf("%s-%s-%s", tutorial, time.Now().Format("20060102-150405"), NewRunID()[:8])
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create run directory: %w", err)
	}
	return dir, nil
}

// SaveModel writes module's parameters to path. The format follows the
// extension: .born (with a checksum) or .safetensors.
func SaveModel[B tensor.Backend](path, kind string, module nn.Module[B], meta map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	stateDict := module.StateDict()

	switch strings.ToLower(filepath.Ext(path)) {
	case ExtBorn:
		header := serialization.Header{Writer: "tutorials", ModelType: kind, Metadata: meta}
		if err := serialization.WriteFile(path, stateDict, header); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	case ExtSafeTensors:
		header := map[string]string{"model_type": kind}
		maps.Copy(header, meta)
		if err := serialization.WriteSafeTensors(path, stateDict, header); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported snapshot extension %q", filepath.Ext(path))
	}
}

// ReadMetadata returns the model type and string metadata recorded in a
// .born snapshot or checkpoint without loading its tensors.
func ReadMetadata(path string) (kind string, meta map[string]string, err error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ExtBorn {
		return "", nil, fmt.Errorf("cannot read %q snapshots, only %s", ext, ExtBorn)
	}
	snapshot, err := serialization.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if closeErr := snapshot.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	header := snapshot.Header()
	return header.ModelType, maps.Clone(header.Metadata), nil
}

// LoadModel memory-maps a .born snapshot and loads it into module. It
// returns the model type recorded in the file.
func LoadModel[B tensor.Backend](path string, module nn.Module[B], backend B) (kind string, err error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ExtBorn {
		return "", fmt.Errorf("cannot load %q snapshots, only %s", ext, ExtBorn)
	}
	snapshot, err := serialization.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if closeErr := snapshot.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	stateDict, err := snapshot.StateDict(backend.Device())
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if err := module.LoadStateDict(stateDict); err != nil {
		return "", fmt.Errorf("load %s: %w", path, err)
	}
	return snapshot.Header().ModelType, nil
}
