// Package service provides the catalog search service behind the HTTP API,
// the CLI and the terminal browser.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/simcat/internal/adapters/repository"
	"github.com/okian/simcat/internal/adapters/source"
	"github.com/okian/simcat/internal/domain/memo"
	"github.com/okian/simcat/internal/domain/model"
	"github.com/okian/simcat/internal/domain/ranking"
	"github.com/okian/simcat/internal/domain/scoring"
	"github.com/okian/simcat/pkg/logger"
	"github.com/okian/simcat/pkg/metrics"
)

// Service ranks the current catalog snapshot for a selection.
type Service struct {
	mu sync.RWMutex

	// Core components
	src    source.Source
	store  *repository.CatalogStore
	cache  memo.Cache
	ranker ranking.Ranker

	// Configuration
	policyName      string
	scoringOpts     []scoring.Option
	cacheSize       int
	refreshInterval time.Duration

	started bool
	logger  logger.Logger
}

// New constructs a Service. Without WithSource it serves the built-in catalog.
func New(opts ...Option) *Service {
	s := &Service{
		src:        source.SeedSource{},
		policyName: scoring.PolicyTiered,
		cacheSize:  1024,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start resolves the scoring policy, performs the initial catalog load and
// starts the refresh loop. A failed or cancelled load is returned and leaves
// the service stopped.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.mu.Unlock()

	policy, err := scoring.ByName(s.policyName, s.scoringOpts...)
	if err != nil {
		metrics.RecordUnknownPolicy()
		return err
	}

	cache := memo.NewInMemoryCache(memo.WithMaxSize(s.cacheSize))
	store := repository.NewCatalogStore(s.src,
		repository.WithRefreshInterval(s.refreshInterval),
		repository.WithOnPublish(func(repository.Snapshot) { cache.Purge() }),
		repository.WithLogger(s.logger.Named("store")),
	)

	s.logger.Info(ctx, "loading catalog", logger.String("source", s.src.Name()))
	if err := store.Refresh(ctx); err != nil {
		_ = store.Close()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		_ = store.Close()
		return nil
	}
	s.store = store
	s.cache = cache
	s.ranker = ranking.New(policy)
	store.Start(ctx)
	s.started = true

	s.logger.Info(ctx, "search service started",
		logger.String("policy", policy.Name()),
		logger.Int("cacheSize", s.cacheSize),
		logger.Duration("refreshInterval", s.refreshInterval),
		logger.Uint64("catalogVersion", store.Version()),
	)
	return nil
}

// Stop halts the refresh loop. It is safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.store != nil {
		_ = s.store.Close()
	}
	s.started = false
	s.logger.Info(context.Background(), "search service stopped")
}

func (s *Service) components() (*repository.CatalogStore, memo.Cache, ranking.Ranker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ranking.Ranker{}, ErrNotStarted
	}
	return s.store, s.cache, s.ranker, nil
}

// Search ranks the catalog for c with the default policy.
func (s *Service) Search(ctx context.Context, c model.Criteria) ([]model.Simulation, error) {
	return s.SearchWithPolicy(ctx, "", c)
}

// SearchWithPolicy ranks the catalog for c with the named policy. An empty
// name selects the service default.
func (s *Service) SearchWithPolicy(ctx context.Context, policyName string, c model.Criteria) ([]model.Simulation, error) {
	r, err := s.search(ctx, policyName, func(model.Criteria) model.Criteria { return c })
	if err != nil {
		return nil, err
	}
	return r.Results, nil
}

// SearchCatalog ranks a single snapshot for the selection refine derives from
// that snapshot's default criteria. A nil refine ranks the defaults. The
// result names the policy and catalog version that served it.
func (s *Service) SearchCatalog(ctx context.Context, policyName string, refine func(model.Criteria) model.Criteria) (model.Ranked, error) {
	if refine == nil {
		refine = func(c model.Criteria) model.Criteria { return c }
	}
	return s.search(ctx, policyName, refine)
}

func (s *Service) search(ctx context.Context, policyName string, criteria func(model.Criteria) model.Criteria) (model.Ranked, error) {
	store, cache, ranker, err := s.components()
	if err != nil {
		return model.Ranked{}, err
	}
	if policyName != "" {
		p, err := scoring.ByName(policyName, s.scoringOpts...)
		if err != nil {
			metrics.RecordUnknownPolicy()
			return model.Ranked{}, err
		}
		ranker = ranking.New(p)
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		return model.Ranked{}, err
	}
	c := criteria(model.DefaultCriteria(snap.Catalog))

	start := time.Now()
	name := ranker.Policy().Name()
	out := model.Ranked{Policy: name, CatalogVersion: snap.Version}
	key := memo.Key(snap.Version, name, c.Key())
	if hit, ok := cache.Get(key); ok {
		metrics.RecordSearch(name, true, time.Since(start), len(hit), len(snap.Catalog.Simulations)-len(hit))
		out.Results = clone(hit)
		return out, nil
	}

	result := ranker.Rank(snap.Catalog.Simulations, c)
	cache.Put(key, result)
	metrics.RecordSearch(name, false, time.Since(start), len(result), len(snap.Catalog.Simulations)-len(result))
	s.logger.Debug(ctx, "ranked catalog",
		logger.String("policy", name),
		logger.Uint64("catalogVersion", snap.Version),
		logger.Int("results", len(result)),
	)
	out.Results = clone(result)
	return out, nil
}

func clone(in []model.Simulation) []model.Simulation {
	out := make([]model.Simulation, len(in))
	copy(out, in)
	return out
}

// Catalog returns the current catalog snapshot.
func (s *Service) Catalog(ctx context.Context) (model.Catalog, error) {
	store, _, _, err := s.components()
	if err != nil {
		return model.Catalog{}, err
	}
	snap, err := store.Snapshot(ctx)
	if err != nil {
		return model.Catalog{}, err
	}
	return snap.Catalog, nil
}

// Simulation returns one record of the current catalog.
func (s *Service) Simulation(ctx context.Context, id string) (model.Simulation, error) {
	store, _, _, err := s.components()
	if err != nil {
		return model.Simulation{}, err
	}
	return store.Simulation(ctx, id)
}

// DefaultCriteria returns the initial selection for the current catalog.
func (s *Service) DefaultCriteria(ctx context.Context) (model.Criteria, error) {
	c, err := s.Catalog(ctx)
	if err != nil {
		return model.Criteria{}, err
	}
	return model.DefaultCriteria(c), nil
}

// Refresh reloads the catalog now.
func (s *Service) Refresh(ctx context.Context) error {
	store, _, _, err := s.components()
	if err != nil {
		return err
	}
	if err := store.Refresh(ctx); err != nil {
		if !source.IsCancelled(err) {
			s.logger.Warn(ctx, "catalog refresh failed", logger.Error(err))
		}
		return fmt.Errorf("refresh catalog: %w", err)
	}
	return nil
}

// CatalogVersion returns the version of the current snapshot, 0 when not loaded.
func (s *Service) CatalogVersion() uint64 {
	store, _, _, err := s.components()
	if err != nil {
		return 0
	}
	return store.Version()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":   s.started,
		"source":    s.src.Name(),
		"policy":    s.policyName,
		"cacheSize": s.cacheSize,
	}
	if !s.started {
		return stats
	}

	stats["policy"] = s.ranker.Policy().Name()
	stats["cacheEntries"] = s.cache.Len()
	if snap, err := s.store.Snapshot(context.Background()); err == nil {
		stats["catalogVersion"] = snap.Version
		stats["simulations"] = len(snap.Catalog.Simulations)
		stats["fetchedAt"] = snap.Catalog.FetchedAt.UTC().Format(time.RFC3339)
	}
	metrics.UpdateCacheEntries(s.cache.Len())
	return stats
}
