// Package engine defines the OCR engine abstraction and the registry that
// constructs engines lazily. Engines produce raw detections only; all field
// semantics live downstream in the extraction packages.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/MeKo-Tech/idscan/internal/extraction"
)

// Capability describes what kind of text an engine can read.
type Capability string

const (
	CapabilityPrinted     Capability = "printed"
	CapabilityHandwritten Capability = "handwritten"
	CapabilityFallback    Capability = "fallback"
)

// Engine is the uniform interface over OCR backends. Detect must be safe for
// concurrent use; the pipeline fans out to all engines in parallel.
type Engine interface {
	ID() string
	Capability() Capability
	Detect(ctx context.Context, img image.Image, pageIndex int) ([]extraction.Detection, error)
	Close() error
}

// Factory constructs an engine on first use. Construction may be expensive
// (model loading, remote handshakes), which is why the registry defers it.
type Factory func() (Engine, error)

// ErrUnknownEngine is returned for ids never registered.
var ErrUnknownEngine = errors.New("unknown engine")

type registryEntry struct {
	id      string
	factory Factory
	once    sync.Once
	engine  Engine
	err     error
}

// Registry holds engine factories and constructs each engine at most once.
// It replaces process-wide engine singletons: callers pass a registry into
// the pipeline explicitly.
type Registry struct {
	mu      sync.RWMutex
	entries []*registryEntry
	byID    map[string]*registryEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*registryEntry)}
}

// Register adds a factory under an id. Registration order is preserved and
// determines merge tie-breaking downstream. Re-registering an id replaces
// the factory only if the engine was never constructed.
func (r *Registry) Register(id string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byID[id]; ok {
		existing.factory = factory
		return
	}
	entry := &registryEntry{id: id, factory: factory}
	r.entries = append(r.entries, entry)
	r.byID[id] = entry
}

// Get returns the engine for an id, constructing it on first call. A failed
// construction is sticky: subsequent calls return the same error.
func (r *Registry) Get(id string) (Engine, error) {
	r.mu.RLock()
	entry, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, id)
	}
	entry.once.Do(func() {
		entry.engine, entry.err = entry.factory()
	})
	return entry.engine, entry.err
}

// IDs returns registered engine ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.entries))
	for i, e := range r.entries {
		ids[i] = e.id
	}
	return ids
}

// Len reports the number of registered engines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Close closes every engine that was actually constructed.
func (r *Registry) Close() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var firstErr error
	for _, entry := range r.entries {
		if entry.engine == nil {
			continue
		}
		if err := entry.engine.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
