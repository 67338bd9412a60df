// Package repository holds the session catalog snapshot and keeps it fresh.
package repository

import (
	"context"

	"github.com/okian/simcat/internal/domain/model"
)

// Snapshot is an immutable, versioned catalog.
type Snapshot struct {
	Catalog model.Catalog
	Version uint64

	byID map[string]int
}

func newSnapshot(c model.Catalog, version uint64) *Snapshot {
	byID := make(map[string]int, len(c.Simulations))
	for i, s := range c.Simulations {
		// first record wins on duplicate ids
		if _, dup := byID[s.ID]; !dup {
			byID[s.ID] = i
		}
	}
	return &Snapshot{Catalog: c, Version: version, byID: byID}
}

// Lookup returns the simulation with the given id.
func (s Snapshot) Lookup(id string) (model.Simulation, bool) {
	i, ok := s.byID[id]
	if !ok {
		return model.Simulation{}, false
	}
	return s.Catalog.Simulations[i], true
}

// Store provides read access to the current catalog and a way to reload it.
type Store interface {
	// Snapshot returns the current catalog. Returns ErrNotLoaded before the
	// first successful load.
	Snapshot(ctx context.Context) (Snapshot, error)

	// Simulation returns one record of the current catalog.
	// Returns ErrNotFound if the id is unknown.
	Simulation(ctx context.Context, id string) (model.Simulation, error)

	// Refresh reloads the catalog from its source. On failure the previous
	// snapshot stays in place.
	Refresh(ctx context.Context) error
}
