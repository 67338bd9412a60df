package service

import (
	"time"

	"github.com/okian/simcat/internal/adapters/source"
	"github.com/okian/simcat/internal/domain/scoring"
	"github.com/okian/simcat/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets where the catalog is loaded from.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.src = src
		}
	}
}

// WithPolicy sets the default scoring policy by name.
func WithPolicy(name string) Option {
	return func(s *Service) {
		s.policyName = name
	}
}

// WithScoringOptions tunes the weights and points of every policy the
// service resolves.
func WithScoringOptions(opts ...scoring.Option) Option {
	return func(s *Service) {
		s.scoringOpts = append(s.scoringOpts, opts...)
	}
}

// WithCacheSize bounds the result cache. Zero disables it.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.cacheSize = size
		}
	}
}

// WithRefreshInterval enables periodic catalog reloads.
func WithRefreshInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval >= 0 {
			s.refreshInterval = interval
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
