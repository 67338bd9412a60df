package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/simcat/internal/adapters/source"
	"github.com/okian/simcat/internal/domain/model"
	"github.com/okian/simcat/pkg/logger"
	"github.com/okian/simcat/pkg/metrics"
)

// CatalogStore keeps the latest catalog behind an atomic pointer so readers
// never wait on a reload. Reloads are serialized and bump the version.
type CatalogStore struct {
	src             source.Source
	refreshInterval time.Duration
	onPublish       []func(Snapshot)
	log             logger.Logger

	snapshot  atomic.Pointer[Snapshot]
	version   atomic.Uint64
	refreshMu sync.Mutex

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

// NewCatalogStore constructs a store over src.
func NewCatalogStore(src source.Source, opts ...Option) *CatalogStore {
	s := &CatalogStore{
		src:      src,
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("store")
	}
	return s
}

// Start launches the periodic refresh loop when an interval is configured.
// It does not load the catalog; call Refresh for that.
func (s *CatalogStore) Start(ctx context.Context) {
	if s.refreshInterval <= 0 || !s.started.CompareAndSwap(false, true) {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				if err := s.Refresh(ctx); err != nil && !source.IsCancelled(err) {
					s.log.Warn(ctx, "periodic catalog refresh failed", logger.Error(err))
				}
			}
		}
	}()
}

// Close stops the refresh loop and waits for it to exit.
func (s *CatalogStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Refresh implements Store. A cancelled load is returned as is and leaves no
// trace beyond a metric; callers are expected to drop it silently.
func (s *CatalogStore) Refresh(ctx context.Context) error {
	if s.src == nil {
		return source.ErrNoSource
	}
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	c, err := s.src.Load(ctx)
	took := time.Since(start)
	switch {
	case err == nil:
	case source.IsCancelled(err):
		metrics.RecordCatalogRefresh(metrics.OutcomeCancelled, took)
		return err
	default:
		metrics.RecordCatalogRefresh(metrics.OutcomeError, took)
		metrics.RecordErrorByComponent("store", "refresh")
		return fmt.Errorf("refresh from %s: %w", s.src.Name(), err)
	}

	if c.FetchedAt.IsZero() {
		c.FetchedAt = time.Now()
	}
	snap := newSnapshot(c, s.version.Add(1))
	s.snapshot.Store(snap)
	metrics.RecordCatalogRefresh(metrics.OutcomeOK, took)
	metrics.UpdateCatalog(snap.Version, len(c.Simulations), c.FetchedAt)
	s.log.Info(ctx, "catalog published",
		logger.String("source", s.src.Name()),
		logger.Uint64("version", snap.Version),
		logger.Int("simulations", len(c.Simulations)),
		logger.Duration("took", took),
	)
	for _, fn := range s.onPublish {
		fn(*snap)
	}
	return nil
}

// Snapshot implements Store.
func (s *CatalogStore) Snapshot(ctx context.Context) (Snapshot, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return Snapshot{}, ErrNotLoaded
	}
	return *snap, nil
}

// Simulation implements Store.
func (s *CatalogStore) Simulation(ctx context.Context, id string) (model.Simulation, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return model.Simulation{}, err
	}
	sim, ok := snap.Lookup(id)
	if !ok {
		return model.Simulation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sim, nil
}

// Version returns the current snapshot version, 0 before the first load.
func (s *CatalogStore) Version() uint64 {
	if snap := s.snapshot.Load(); snap != nil {
		return snap.Version
	}
	return 0
}
