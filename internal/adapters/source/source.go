// Package source loads the simulation catalog from its origin and
// normalizes it into the domain model.
package source

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/simcat/internal/domain/model"
	"github.com/okian/simcat/internal/domain/types"
	"github.com/okian/simcat/pkg/metrics"
	"gopkg.in/yaml.v3"
)

// Source loads a complete catalog.
type Source interface {
	Name() string
	Load(ctx context.Context) (model.Catalog, error)
}

//go:embed seed.yaml
var seedYAML []byte

// Seed returns the built-in demonstration catalog.
func Seed() (model.Catalog, error) {
	return decode(seedYAML, "seed")
}

// SeedSource serves the built-in catalog.
type SeedSource struct{}

// Name implements Source.
func (SeedSource) Name() string { return "seed" }

// Load implements Source.
func (SeedSource) Load(ctx context.Context) (model.Catalog, error) {
	if err := contextFailure(ctx); err != nil {
		return model.Catalog{}, err
	}
	start := time.Now()
	c, err := Seed()
	metrics.RecordFetchAttempt("seed", outcome(err), time.Since(start))
	return c, err
}

// FileSource reads a YAML or JSON payload from disk.
type FileSource struct {
	path string
}

// NewFileSource returns a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: filepath.Clean(path)}
}

// Name implements Source.
func (f *FileSource) Name() string { return "file" }

// Load implements Source.
func (f *FileSource) Load(ctx context.Context) (model.Catalog, error) {
	if err := contextFailure(ctx); err != nil {
		return model.Catalog{}, err
	}
	start := time.Now()
	raw, err := os.ReadFile(f.path)
	if err != nil {
		err = fmt.Errorf("%w: read %s: %v", ErrFetch, f.path, err)
		metrics.RecordFetchAttempt("file", metrics.OutcomeError, time.Since(start))
		return model.Catalog{}, err
	}
	c, err := decode(raw, f.path)
	metrics.RecordFetchAttempt("file", outcome(err), time.Since(start))
	return c, err
}

// decode parses a JSON or YAML payload. An empty document is an empty catalog.
func decode(raw []byte, origin string) (model.Catalog, error) {
	var p types.Payload
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
	case trimmed[0] == '{':
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return model.Catalog{}, fmt.Errorf("%w: decode %s: %v", ErrFetch, origin, err)
		}
	default:
		if err := yaml.NewDecoder(bytes.NewReader(trimmed)).Decode(&p); err != nil && !errors.Is(err, io.EOF) {
			return model.Catalog{}, fmt.Errorf("%w: decode %s: %v", ErrFetch, origin, err)
		}
	}
	c := Normalize(p)
	c.FetchedAt = time.Now()
	return c, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case IsCancelled(err):
		return metrics.OutcomeCancelled
	default:
		return metrics.OutcomeError
	}
}
