// Package artifact persists a fitted pipeline together with the version tag
// of the library it was fitted with.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/mimir-aip/bigmart-predictor/pkg/mlmodel/training"
)

// ErrArtifactNotFound is returned when no artifact exists at the given path
var ErrArtifactNotFound = errors.New("artifact not found")

// Artifact is the persisted (pipeline, version) pair
type Artifact struct {
	Pipeline *training.Pipeline `json:"pipeline"`
	Version  string             `json:"version"`
}

// Save writes the pipeline and version to path. The file is written to a
// temporary name in the same directory and renamed into place.
func Save(path string, pipeline *training.Pipeline, version string) error {
	if pipeline == nil {
		return errors.New("cannot save a nil pipeline")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create artifact file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, &Artifact{Pipeline: pipeline, Version: version}); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}

func encode(w io.Writer, a *Artifact) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to start compression: %w", err)
	}
	if err := json.NewEncoder(zw).Encode(a); err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode artifact: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish compression: %w", err)
	}
	return nil
}

// Load reads an artifact written by Save
func Load(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to start decompression: %w", err)
	}
	defer zr.Close()

	var a Artifact
	if err := json.NewDecoder(zr).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}
	if a.Pipeline == nil || a.Pipeline.Encoder == nil || a.Pipeline.Regressor == nil {
		return nil, fmt.Errorf("artifact %s holds no fitted pipeline", path)
	}
	return &a, nil
}
