// Package registry discovers model files on disk and serves their metadata
// to the planner. It knows nothing about GGUF internals: file size comes
// from the filesystem and architecture dimensions, when available, come
// from per-model configuration hints.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pland/internal/common/fsutil"
	"pland/pkg/types"
)

// Registry is an immutable catalog of discoverable models.
type Registry struct {
	models []types.Model
	byID   map[string]types.Model
}

// New builds a Registry from explicit entries.
func New(models []types.Model) *Registry {
	byID := make(map[string]types.Model, len(models))
	out := make([]types.Model, len(models))
	copy(out, models)
	for _, m := range out {
		byID[m.ID] = m
	}
	return &Registry{models: out, byID: byID}
}

// LoadDir scans a directory for *.gguf files and builds a registry from
// filenames. The ID is the full filename including extension. Architecture
// hints, keyed by ID, are merged onto matching entries.
func LoadDir(dir string, hints map[string]types.ArchHints) (*Registry, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		m := types.Model{ID: name, Name: name, Path: filepath.Join(abs, name)}
		if h, ok := hints[name]; ok {
			m.Arch = h
		}
		models = append(models, m)
	}
	return New(models), nil
}

// List returns a shallow copy of the catalog.
func (r *Registry) List() []types.Model {
	out := make([]types.Model, len(r.models))
	copy(out, r.models)
	return out
}

// Len returns the number of models in the catalog.
func (r *Registry) Len() int { return len(r.models) }

// Metadata implements planner.MetadataProvider: file size from disk plus
// any configured architecture hints. Unknown refs and unreadable files are
// errors; the planner does not paper over a missing model.
func (r *Registry) Metadata(ref string) (types.ModelMetadata, error) {
	m, ok := r.byID[ref]
	if !ok {
		return types.ModelMetadata{}, ErrModelNotFound(ref)
	}
	fi, err := os.Stat(m.Path)
	if err != nil {
		return types.ModelMetadata{}, fmt.Errorf("stat model %s: %w", ref, err)
	}
	return types.ModelMetadata{
		FileBytes:       fi.Size(),
		TrainingContext: m.Arch.TrainingContext,
		LayerCount:      m.Arch.LayerCount,
		KVHeadCount:     m.Arch.KVHeadCount,
		KeyDim:          m.Arch.KeyDim,
		ValueDim:        m.Arch.ValueDim,
	}, nil
}
