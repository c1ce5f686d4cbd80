package ports

import (
	"context"
	"encoding/json"

	"eventpipe/domain/event"
)

// WriteOutcome is the result of one best-effort cache write.
type WriteOutcome int

const (
	// Cached means the record landed in the cache.
	Cached WriteOutcome = iota
	// SkippedNoCache means caching was skipped for this record; ingest
	// proceeds regardless.
	SkippedNoCache
)

// String implements fmt.Stringer
func (o WriteOutcome) String() string {
	switch o {
	case Cached:
		return "cached"
	case SkippedNoCache:
		return "skipped_no_cache"
	default:
		return "unknown"
	}
}

// EventCache is the port for the hot-record cache.
//
// The write side is strictly best-effort: Put and PutBatch report outcomes,
// never errors, and a transport or auth failure degrades to SkippedNoCache.
// The read side is the opposite: Fetch returns a typed error distinguishing
// a miss (not found), an auth failure, and an unavailable cache.
type EventCache interface {
	// Put writes one record under its event:<id> key, opening and closing
	// its own session.
	Put(ctx context.Context, rec *event.Event) WriteOutcome

	// PutBatch writes a batch over a single session, one record at a time.
	// One record's failure never aborts the rest of the batch.
	PutBatch(ctx context.Context, recs []*event.Event) []WriteOutcome

	// Fetch retrieves the payload cached for a record id.
	Fetch(ctx context.Context, id string) ([]byte, error)

	// FetchKey retrieves the payload cached under a raw key.
	FetchKey(ctx context.Context, key string) ([]byte, error)

	// Ping reports whether the cache answers a liveness probe.
	Ping(ctx context.Context) bool
}

// CredentialResolver resolves the cache AUTH token from the secret store.
// ok=false means no auth is configured and the AUTH step is skipped entirely.
type CredentialResolver interface {
	ResolveToken(ctx context.Context) (token string, ok bool, err error)
}

// SearchResult is a page of document store hits.
type SearchResult struct {
	Hits     []json.RawMessage `json:"hits"`
	Total    int               `json:"total"`
	MaxScore float64           `json:"max_score"`
}

// DocumentStore is the port for the full-text index. A record is durably
// ingested only once IndexBatch succeeds; the cache write is independent.
type DocumentStore interface {
	// EnsureIndex creates the event index with its mapping if missing.
	EnsureIndex(ctx context.Context) error

	// IndexBatch bulk-writes records keyed by id, returning how many were
	// accepted.
	IndexBatch(ctx context.Context, recs []*event.Event) (int, error)

	// Search runs a free-text query, size-clamped by the implementation.
	Search(ctx context.Context, query string, size int) (*SearchResult, error)

	// Health reports cluster reachability.
	Health(ctx context.Context) error
}

// BatchSummary describes one processed ingest batch.
type BatchSummary struct {
	Processed int `json:"processed"`
	Indexed   int `json:"indexed"`
	Cached    int `json:"cached"`
	Skipped   int `json:"skipped"`
}

// PipelinePublisher announces batch completions on the event bus.
type PipelinePublisher interface {
	PublishBatchProcessed(ctx context.Context, summary BatchSummary) error
}
