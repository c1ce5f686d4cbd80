// Package ingest orchestrates the write path: durable document store writes
// with opportunistic cache population.
package ingest

import (
	"context"

	"go.uber.org/zap"

	"eventpipe/application/ports"
	"eventpipe/domain/event"
	"eventpipe/pkg/errors"
	"eventpipe/pkg/observability"
)

// Service processes ingest batches. A batch is durably ingested once the
// document store accepts it; the cache write runs after and can only ever
// degrade, never fail the batch.
type Service struct {
	store     ports.DocumentStore
	cache     ports.EventCache
	publisher ports.PipelinePublisher
	metrics   *observability.Metrics
	tracer    *observability.Tracer
	logger    *zap.Logger
}

// NewService creates an ingest service. publisher, metrics and tracer are
// optional.
func NewService(
	store ports.DocumentStore,
	cache ports.EventCache,
	publisher ports.PipelinePublisher,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		cache:     cache,
		publisher: publisher,
		metrics:   metrics,
		tracer:    tracer,
		logger:    logger,
	}
}

// ProcessBatch validates, indexes, and caches one batch of records.
// Invalid records are dropped with a warning; an indexing failure fails the
// batch; cache outcomes are tallied but never fatal.
func (s *Service) ProcessBatch(ctx context.Context, recs []*event.Event) (ports.BatchSummary, error) {
	summary := ports.BatchSummary{}

	valid := make([]*event.Event, 0, len(recs))
	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			s.logger.Warn("dropping invalid record", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		valid = append(valid, rec)
	}
	summary.Processed = len(valid)
	if len(valid) == 0 {
		return summary, nil
	}

	if err := s.stage(ctx, "ensure_index", func(ctx context.Context) error {
		return s.store.EnsureIndex(ctx)
	}); err != nil {
		return summary, errors.Wrap(err, "ensure search index")
	}

	if err := s.stage(ctx, "index_batch", func(ctx context.Context) error {
		indexed, err := s.store.IndexBatch(ctx, valid)
		summary.Indexed = indexed
		return err
	}); err != nil {
		return summary, errors.Wrap(err, "index batch")
	}

	// best-effort, one session for the whole batch
	_ = s.stage(ctx, "cache_batch", func(ctx context.Context) error {
		outcomes := s.cache.PutBatch(ctx, valid)
		for _, outcome := range outcomes {
			if outcome == ports.Cached {
				summary.Cached++
			} else {
				summary.Skipped++
			}
		}
		return nil
	})

	s.logger.Info("batch processed",
		zap.Int("processed", summary.Processed),
		zap.Int("indexed", summary.Indexed),
		zap.Int("cached", summary.Cached),
		zap.Int("cache_skipped", summary.Skipped),
	)

	s.publishMetrics(ctx, summary)
	s.publishSummary(ctx, summary)

	return summary, nil
}

// stage runs one pipeline stage, traced when tracing is enabled
func (s *Service) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if s.tracer == nil {
		return fn(ctx)
	}
	return s.tracer.TraceStage(ctx, name, fn)
}

func (s *Service) publishMetrics(ctx context.Context, summary ports.BatchSummary) {
	if s.metrics == nil {
		return
	}
	s.metrics.Count(ctx, observability.MetricRecordsProcessed, float64(summary.Processed))
	s.metrics.Count(ctx, observability.MetricRecordsIndexed, float64(summary.Indexed))
	s.metrics.Count(ctx, observability.MetricCacheWrites, float64(summary.Cached))
	s.metrics.Count(ctx, observability.MetricCacheSkips, float64(summary.Skipped))
}

func (s *Service) publishSummary(ctx context.Context, summary ports.BatchSummary) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBatchProcessed(ctx, summary); err != nil {
		s.logger.Warn("failed to publish batch summary", zap.Error(err))
	}
}
