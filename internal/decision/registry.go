package decision

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrNoModel is returned when no model has been loaded yet.
var ErrNoModel = errors.New("no model loaded")

// Registry holds the current Model. Readers get an immutable snapshot;
// a new model only appears through Reload or Set.
type Registry struct {
	path    string
	current atomic.Pointer[Model]
	mu      sync.Mutex // serializes reloads
}

// NewRegistry loads the artifact at path.
func NewRegistry(path string) (*Registry, error) {
	r := &Registry{path: path}
	if _, err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewStaticRegistry wraps an already built model. Reload is a no-op
// returning the same model.
func NewStaticRegistry(m *Model) *Registry {
	r := &Registry{}
	r.current.Store(m)
	return r
}

// Current returns the active model snapshot.
func (r *Registry) Current() (*Model, error) {
	m := r.current.Load()
	if m == nil {
		return nil, ErrNoModel
	}
	return m, nil
}

// Reload re-reads the artifact and swaps it in. On failure the previous
// model stays active.
func (r *Registry) Reload() (*Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.path == "" {
		return r.Current()
	}

	m, err := LoadModel(r.path)
	if err != nil {
		return nil, fmt.Errorf("Registry.Reload: %w", err)
	}
	r.current.Store(m)
	return m, nil
}

// Set replaces the active model.
func (r *Registry) Set(m *Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current.Store(m)
}
