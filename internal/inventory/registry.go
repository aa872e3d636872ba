package inventory

import (
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/harbor/internal/domain"
)

// Registry holds the current inventory snapshot for concurrent readers.
// A snapshot is never mutated after Replace; reloads swap the pointer.
type Registry struct {
	mu         sync.RWMutex
	snap       *Snapshot
	byID       map[string]*domain.Application
	lastReload time.Time
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		snap: &Snapshot{
			Hosts:      map[string]*domain.Host{},
			Containers: map[string]*domain.Container{},
		},
		byID: map[string]*domain.Application{},
	}
}

// Replace installs snap and returns the one it replaced
func (r *Registry) Replace(snap *Snapshot) *Snapshot {
	byID := make(map[string]*domain.Application, len(snap.Applications))
	for _, a := range snap.Applications {
		byID[a.ID] = a
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.snap
	r.snap = snap
	r.byID = byID
	r.lastReload = time.Now()
	return prev
}

// Application returns the application with the given id
func (r *Registry) Application(id string) (*domain.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("application %q: %w", id, ErrNotFound)
	}
	return app, nil
}

// Applications returns every application in inventory order
func (r *Registry) Applications() []*domain.Application {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Application, len(r.snap.Applications))
	copy(out, r.snap.Applications)
	return out
}

// Container returns the container with the given id
func (r *Registry) Container(id string) (*domain.Container, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.snap.Containers[id]
	if !ok {
		return nil, fmt.Errorf("container %q: %w", domain.ShortID(id), ErrNotFound)
	}
	return c, nil
}

// Host returns the host with the given id
func (r *Registry) Host(id string) (*domain.Host, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.snap.Hosts[id]
	if !ok {
		return nil, fmt.Errorf("host %q: %w", id, ErrNotFound)
	}
	return h, nil
}

// HasDomain reports whether some application serves domainName
func (r *Registry) HasDomain(domainName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.snap.Applications {
		if a.Domain == domainName {
			return true
		}
	}
	return false
}

// Counts returns the number of hosts, applications and containers
func (r *Registry) Counts() (hosts, apps, containers int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.snap.Hosts), len(r.snap.Applications), len(r.snap.Containers)
}

// LastReload returns when the snapshot was last replaced
func (r *Registry) LastReload() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lastReload
}
