package redis

import (
	"context"

	"go.uber.org/zap"

	"eventpipe/application/ports"
	"eventpipe/domain/event"
	"eventpipe/pkg/errors"
)

// Dialer opens one session for one cache operation. Injected so tests can
// point the store at a scripted server or fail the connect outright.
type Dialer func(ctx context.Context) (*Session, error)

// Store implements ports.EventCache over per-operation sessions.
//
// The two sides carry deliberately asymmetric failure policies: writes are
// best-effort and only ever degrade to SkippedNoCache, while reads surface
// unavailability and auth failures as typed errors so callers can tell a
// degraded cache from a miss.
type Store struct {
	dial   Dialer
	creds  ports.CredentialResolver
	logger *zap.Logger
}

// NewStore creates a store dialing the given address. creds may be nil when
// no auth is configured.
func NewStore(addr string, opts Options, creds ports.CredentialResolver, logger *zap.Logger) *Store {
	return NewStoreWithDialer(func(ctx context.Context) (*Session, error) {
		return Dial(ctx, addr, opts)
	}, creds, logger)
}

// NewStoreWithDialer creates a store with a custom session dialer
func NewStoreWithDialer(dial Dialer, creds ports.CredentialResolver, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		dial:   dial,
		creds:  creds,
		logger: logger,
	}
}

// Put writes one record over its own session
func (s *Store) Put(ctx context.Context, rec *event.Event) ports.WriteOutcome {
	return s.PutBatch(ctx, []*event.Event{rec})[0]
}

// PutBatch writes a batch of records sequentially over a single session.
// Every failure mode short of success degrades to SkippedNoCache for the
// affected records; the batch itself never fails and the session is closed
// on every path.
func (s *Store) PutBatch(ctx context.Context, recs []*event.Event) []ports.WriteOutcome {
	outcomes := make([]ports.WriteOutcome, len(recs))
	for i := range outcomes {
		outcomes[i] = ports.SkippedNoCache
	}

	sess, err := s.dial(ctx)
	if err != nil {
		s.logger.Warn("cache unreachable, skipping batch", zap.Int("records", len(recs)), zap.Error(err))
		return outcomes
	}
	defer sess.Close()

	// Auth is tolerant here: a resolution failure or rejected token is
	// logged and the session continues unauthenticated, degrading each
	// SET individually if the server then refuses it.
	if token, ok := s.resolveWriteToken(ctx); ok {
		if sess.Authenticate(token) != Authenticated {
			s.logger.Warn("cache auth failed, continuing unauthenticated")
		}
	}

	if !sess.Ping() {
		s.logger.Warn("cache ping failed, skipping batch", zap.Int("records", len(recs)))
		return outcomes
	}

	for i, rec := range recs {
		outcomes[i] = s.setRecord(sess, rec)
	}
	return outcomes
}

// setRecord issues one SET; anything but +OK degrades to SkippedNoCache
func (s *Store) setRecord(sess *Session, rec *event.Event) ports.WriteOutcome {
	payload, err := rec.Payload()
	if err != nil {
		s.logger.Warn("cache write skipped, unencodable record", zap.String("id", rec.ID), zap.Error(err))
		return ports.SkippedNoCache
	}

	reply, err := sess.Do("SET", rec.CacheKey(), string(payload))
	if err != nil {
		s.logger.Warn("cache write failed", zap.String("id", rec.ID), zap.Error(err))
		return ports.SkippedNoCache
	}
	if !reply.IsStatus("OK") {
		s.logger.Warn("cache write rejected",
			zap.String("id", rec.ID),
			zap.String("reply", string(reply.Value)),
		)
		return ports.SkippedNoCache
	}
	return ports.Cached
}

// Fetch retrieves the payload cached for a record id
func (s *Store) Fetch(ctx context.Context, id string) ([]byte, error) {
	return s.FetchKey(ctx, event.CacheKey(id))
}

// FetchKey retrieves the payload cached under a raw key. Unlike the write
// path, auth failure is fatal to the request and surfaced distinctly from
// unavailability, so a credential problem never masquerades as a miss.
func (s *Store) FetchKey(ctx context.Context, key string) ([]byte, error) {
	sess, err := s.dial(ctx)
	if err != nil {
		return nil, errors.NewUnavailableError("cache").WithCause(err)
	}
	defer sess.Close()

	if s.creds != nil {
		token, ok, err := s.creds.ResolveToken(ctx)
		if err != nil {
			return nil, errors.NewUnauthorizedError("cache credential resolution failed").WithCause(err)
		}
		if ok && sess.Authenticate(token) != Authenticated {
			return nil, errors.NewUnauthorizedError("cache rejected auth token")
		}
	}

	reply, err := sess.Do("GET", key)
	if err != nil {
		// timeouts and transport failures carry the same read-path
		// policy: the cache is degraded, the caller may retry
		return nil, errors.NewUnavailableError("cache").WithCause(err)
	}

	switch reply.Kind {
	case ReplyNil:
		return nil, errors.NewNotFoundError(key)
	case ReplyBulk:
		return reply.Value, nil
	case ReplyError:
		return nil, errors.NewUnavailableError("cache").WithCause(
			errors.NewProtocolError("server error reply: " + string(reply.Value)))
	default:
		return nil, errors.NewUnavailableError("cache").WithCause(
			errors.NewProtocolError("unparseable reply"))
	}
}

// Ping opens a throwaway session and probes liveness
func (s *Store) Ping(ctx context.Context) bool {
	sess, err := s.dial(ctx)
	if err != nil {
		return false
	}
	defer sess.Close()

	if token, ok := s.resolveWriteToken(ctx); ok {
		sess.Authenticate(token)
	}
	return sess.Ping()
}

// resolveWriteToken resolves the AUTH token with write-path tolerance:
// absent credentials or a resolution failure both mean "skip AUTH".
func (s *Store) resolveWriteToken(ctx context.Context) (string, bool) {
	if s.creds == nil {
		return "", false
	}
	token, ok, err := s.creds.ResolveToken(ctx)
	if err != nil {
		s.logger.Warn("cache credential resolution failed, connecting without auth", zap.Error(err))
		return "", false
	}
	return token, ok
}
