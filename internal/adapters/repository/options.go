package repository

import (
	"time"

	"github.com/okian/simcat/pkg/logger"
)

// Option applies a configuration option to the CatalogStore.
type Option func(*CatalogStore)

// WithRefreshInterval enables periodic reloads. Zero disables them.
func WithRefreshInterval(interval time.Duration) Option {
	return func(s *CatalogStore) {
		if interval >= 0 {
			s.refreshInterval = interval
		}
	}
}

// WithOnPublish registers a callback run after each new snapshot is installed.
func WithOnPublish(fn func(Snapshot)) Option {
	return func(s *CatalogStore) {
		if fn != nil {
			s.onPublish = append(s.onPublish, fn)
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *CatalogStore) {
		if l != nil {
			s.log = l
		}
	}
}
