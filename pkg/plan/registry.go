package plan

import (
	"fmt"
	"sort"
	"sync"

	"github.com/wheerd/strawbuild-studio-sub000/pkg/geom"
)

// Registry owns the perimeters of an open project and resolves them by ID.
// It serializes access so UI callers on different goroutines cannot
// interleave edits to the same model.
type Registry struct {
	mu         sync.Mutex
	perimeters map[PerimeterID]*Perimeter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{perimeters: make(map[PerimeterID]*Perimeter)}
}

// Build creates a perimeter from a boundary and per-edge parameters and
// registers it.
func (r *Registry) Build(boundary []geom.Vec2, edges []EdgeParams) (*Perimeter, error) {
	p, err := BuildPerimeter(boundary, edges)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.perimeters[p.ID] = p
	return p, nil
}

// Get resolves a perimeter by ID.
func (r *Registry) Get(id PerimeterID) (*Perimeter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.perimeters[id]
	if !ok {
		return nil, fmt.Errorf("no perimeter %s", id)
	}
	return p, nil
}

// Remove deletes a perimeter and all geometry it owns.
func (r *Registry) Remove(id PerimeterID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.perimeters, id)
}

// List returns all perimeters in a stable order.
func (r *Registry) List() []*Perimeter {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Perimeter, 0, len(r.perimeters))
	for _, p := range r.perimeters {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of registered perimeters.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.perimeters)
}
