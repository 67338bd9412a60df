package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/simcat/internal/adapters/repository"
	"github.com/okian/simcat/internal/adapters/source"
	"github.com/okian/simcat/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// stubSource returns the queued results in order, repeating the last one.
type stubSource struct {
	mu      sync.Mutex
	results []stubResult
	calls   atomic.Int32
}

type stubResult struct {
	catalog model.Catalog
	err     error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Load(ctx context.Context) (model.Catalog, error) {
	n := int(s.calls.Add(1)) - 1
	s.mu.Lock()
	defer s.mu.Unlock()
	if n >= len(s.results) {
		n = len(s.results) - 1
	}
	r := s.results[n]
	return r.catalog, r.err
}

func catalogOf(ids ...string) model.Catalog {
	c := model.Catalog{}
	for _, id := range ids {
		c.Simulations = append(c.Simulations, model.Simulation{ID: id, Title: "sim " + id})
	}
	return c
}

func TestCatalogStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store that has never loaded", t, func() {
		s := repository.NewCatalogStore(&stubSource{results: []stubResult{{catalog: catalogOf("1")}}})
		defer s.Close()

		Convey("Then reads fail with ErrNotLoaded", func() {
			_, err := s.Snapshot(ctx)
			So(errors.Is(err, repository.ErrNotLoaded), ShouldBeTrue)
			_, err = s.Simulation(ctx, "1")
			So(errors.Is(err, repository.ErrNotLoaded), ShouldBeTrue)
			So(s.Version(), ShouldEqual, uint64(0))
		})
	})

	Convey("Given a successful refresh", t, func() {
		src := &stubSource{results: []stubResult{{catalog: catalogOf("1", "2")}}}
		var published []uint64
		s := repository.NewCatalogStore(src, repository.WithOnPublish(func(snap repository.Snapshot) {
			published = append(published, snap.Version)
		}))
		defer s.Close()
		So(s.Refresh(ctx), ShouldBeNil)

		Convey("Then the snapshot is available and versioned", func() {
			snap, err := s.Snapshot(ctx)
			So(err, ShouldBeNil)
			So(snap.Version, ShouldEqual, uint64(1))
			So(len(snap.Catalog.Simulations), ShouldEqual, 2)
			So(snap.Catalog.FetchedAt.IsZero(), ShouldBeFalse)
			So(published, ShouldResemble, []uint64{1})
		})

		Convey("Then records can be looked up by id", func() {
			sim, err := s.Simulation(ctx, "2")
			So(err, ShouldBeNil)
			So(sim.Title, ShouldEqual, "sim 2")

			_, err = s.Simulation(ctx, "missing")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When refreshed again", func() {
			So(s.Refresh(ctx), ShouldBeNil)

			Convey("Then the version increases", func() {
				So(s.Version(), ShouldEqual, uint64(2))
				So(published, ShouldResemble, []uint64{1, 2})
			})
		})
	})

	Convey("Given a load that fails after a good one", t, func() {
		boom := fmt.Errorf("%w: status 503", source.ErrFetch)
		src := &stubSource{results: []stubResult{
			{catalog: catalogOf("1")},
			{err: boom},
		}}
		s := repository.NewCatalogStore(src)
		defer s.Close()
		So(s.Refresh(ctx), ShouldBeNil)

		err := s.Refresh(ctx)

		Convey("Then the error is returned and the old snapshot kept", func() {
			So(errors.Is(err, source.ErrFetch), ShouldBeTrue)
			snap, serr := s.Snapshot(ctx)
			So(serr, ShouldBeNil)
			So(snap.Version, ShouldEqual, uint64(1))
			So(snap.Catalog.Simulations[0].ID, ShouldEqual, "1")
		})
	})

	Convey("Given a cancelled load", t, func() {
		src := &stubSource{results: []stubResult{{err: fmt.Errorf("%w: %v", source.ErrCancelled, context.Canceled)}}}
		s := repository.NewCatalogStore(src)
		defer s.Close()

		err := s.Refresh(ctx)

		Convey("Then it is reported as cancelled and nothing is published", func() {
			So(source.IsCancelled(err), ShouldBeTrue)
			So(s.Version(), ShouldEqual, uint64(0))
		})
	})

	Convey("Given duplicate ids", t, func() {
		c := catalogOf("1", "1")
		c.Simulations[1].Title = "second"
		s := repository.NewCatalogStore(&stubSource{results: []stubResult{{catalog: c}}})
		defer s.Close()
		So(s.Refresh(ctx), ShouldBeNil)

		Convey("Then lookup resolves to the first record", func() {
			sim, err := s.Simulation(ctx, "1")
			So(err, ShouldBeNil)
			So(sim.Title, ShouldEqual, "sim 1")
		})
	})

	Convey("Given no source", t, func() {
		s := repository.NewCatalogStore(nil)
		So(errors.Is(s.Refresh(ctx), source.ErrNoSource), ShouldBeTrue)
	})
}

func TestCatalogStorePeriodicRefresh(t *testing.T) {
	Convey("Given a store with a short refresh interval", t, func() {
		src := &stubSource{results: []stubResult{{catalog: catalogOf("1")}}}
		s := repository.NewCatalogStore(src, repository.WithRefreshInterval(10*time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		s.Start(ctx)
		s.Start(ctx)

		Convey("Then the catalog is reloaded until closed", func() {
			deadline := time.Now().Add(2 * time.Second)
			for s.Version() < 2 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			So(s.Version(), ShouldBeGreaterThanOrEqualTo, 2)

			So(s.Close(), ShouldBeNil)
			So(s.Close(), ShouldBeNil)
			calls := src.calls.Load()
			time.Sleep(40 * time.Millisecond)
			So(src.calls.Load(), ShouldEqual, calls)
		})
	})

	Convey("Given a store without an interval", t, func() {
		src := &stubSource{results: []stubResult{{catalog: catalogOf("1")}}}
		s := repository.NewCatalogStore(src)
		s.Start(context.Background())
		time.Sleep(20 * time.Millisecond)

		Convey("Then nothing is loaded in the background", func() {
			So(src.calls.Load(), ShouldEqual, int32(0))
			So(s.Close(), ShouldBeNil)
		})
	})
}
