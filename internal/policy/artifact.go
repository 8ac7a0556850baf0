package policy

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/verte-zerg/pacstudy/internal/game"
	"github.com/verte-zerg/pacstudy/internal/model"
)

const (
	artifactMagic   = "pacstudy-linear"
	artifactVersion = 1
)

// ErrInvalidArtifact reports a policy file that exists but cannot be used.
var ErrInvalidArtifact = errors.New("invalid policy artifact")

type artifact struct {
	Magic    string
	Version  int
	Actions  int
	Features int
	Weights  []byte
}

// Save writes the policy to path atomically.
func Save(path string, p *Linear) error {
	raw, err := p.weights.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}
	rows, cols := p.weights.Dims()
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(artifact{
		Magic:    artifactMagic,
		Version:  artifactVersion,
		Actions:  rows,
		Features: cols,
		Weights:  raw,
	}); err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create model dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "policy-*.gob")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

// Load reads a policy written by Save. A missing file wraps os.ErrNotExist;
// anything unreadable or mis-shaped wraps ErrInvalidArtifact.
func Load(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy %s: %w", path, err)
	}
	var a artifact
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArtifact, path, err)
	}
	if a.Magic != artifactMagic || a.Version != artifactVersion {
		return nil, fmt.Errorf("%w: %s: unsupported format %q v%d", ErrInvalidArtifact, path, a.Magic, a.Version)
	}
	if a.Actions != model.NumActions || a.Features != game.NumFeatures {
		return nil, fmt.Errorf("%w: %s: shape %dx%d, expected %dx%d", ErrInvalidArtifact, path,
			a.Actions, a.Features, model.NumActions, game.NumFeatures)
	}
	var w mat.Dense
	if err := w.UnmarshalBinary(a.Weights); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArtifact, path, err)
	}
	if r, c := w.Dims(); r != a.Actions || c != a.Features {
		return nil, fmt.Errorf("%w: %s: weight matrix is %dx%d", ErrInvalidArtifact, path, r, c)
	}
	return NewLinear(&w), nil
}
