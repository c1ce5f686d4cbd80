// Package lookup orchestrates the read path: cached record fetches and
// document store queries.
package lookup

import (
	"context"
	"time"

	"go.uber.org/zap"

	"eventpipe/application/ports"
	"eventpipe/domain/event"
	"eventpipe/pkg/observability"
)

// Service serves point lookups and searches.
type Service struct {
	cache   ports.EventCache
	store   ports.DocumentStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewService creates a lookup service. metrics is optional.
func NewService(cache ports.EventCache, store ports.DocumentStore, metrics *observability.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cache:   cache,
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// GetEvent fetches a cached record by id and decodes it. The error carries
// the read-path taxonomy: not-found for a miss, unauthorized for an auth
// failure, unavailable for a degraded cache.
func (s *Service) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	start := time.Now()
	payload, err := s.cache.Fetch(ctx, id)
	s.observeLookup(ctx, start)
	if err != nil {
		return nil, err
	}
	return event.Decode(payload)
}

// GetKey fetches the raw payload cached under an arbitrary key
func (s *Service) GetKey(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	payload, err := s.cache.FetchKey(ctx, key)
	s.observeLookup(ctx, start)
	return payload, err
}

// Search queries the document store
func (s *Service) Search(ctx context.Context, query string, size int) (*ports.SearchResult, error) {
	start := time.Now()
	result, err := s.store.Search(ctx, query, size)
	if s.metrics != nil {
		s.metrics.Duration(ctx, observability.MetricSearchLatency, time.Since(start))
	}
	if err != nil {
		s.logger.Error("search failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	s.logger.Info("search completed",
		zap.String("query", query),
		zap.Int("total", result.Total),
	)
	return result, nil
}

// HealthStatus reports per-dependency health.
type HealthStatus struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// Health probes the cache and the document store
func (s *Service) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:   "healthy",
		Services: map[string]string{},
	}

	if s.cache.Ping(ctx) {
		status.Services["cache"] = "healthy"
	} else {
		status.Services["cache"] = "unhealthy"
		status.Status = "degraded"
	}

	if err := s.store.Health(ctx); err != nil {
		status.Services["search"] = "unhealthy: " + err.Error()
		status.Status = "degraded"
	} else {
		status.Services["search"] = "healthy"
	}

	return status
}

func (s *Service) observeLookup(ctx context.Context, start time.Time) {
	if s.metrics != nil {
		s.metrics.Duration(ctx, observability.MetricLookupLatency, time.Since(start))
	}
}
