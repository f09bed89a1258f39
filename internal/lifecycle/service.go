// Package lifecycle runs inventory and ledger operations against a storage
// Backend. Each write loads a fresh snapshot under a per-location lock,
// mutates it, checks the ledger invariant and saves the whole document, so an
// operation either lands completely or not at all.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/mesh-intelligence/ellie/internal/ledger"
	"github.com/mesh-intelligence/ellie/internal/telemetry"
	"github.com/mesh-intelligence/ellie/pkg/types"
)

// DefaultLockTimeout bounds how long a write waits for another writer on the
// same location.
const DefaultLockTimeout = 5 * time.Second

// locks maps a backend location to its writer semaphore. Services in one
// process that point at the same location share it.
var locks = struct {
	sync.Mutex
	m map[string]*semaphore.Weighted
}{m: make(map[string]*semaphore.Weighted)}

func lockFor(location string) *semaphore.Weighted {
	locks.Lock()
	defer locks.Unlock()
	sem, ok := locks.m[location]
	if !ok {
		sem = semaphore.NewWeighted(1)
		locks.m[location] = sem
	}
	return sem
}

// Service coordinates the entity store and the checkout ledger over one
// Backend.
type Service struct {
	backend     types.Backend
	lock        *semaphore.Weighted
	lockTimeout time.Duration
	clock       func() time.Time
	tracer      trace.Tracer
	metrics     *telemetry.Metrics
	logger      *log.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now as the source of checkout timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLockTimeout sets how long a write waits for the location lock. Zero
// waits until the caller's context ends.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Service) { s.lockTimeout = d }
}

// WithMetrics records operation counts and latencies into m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger replaces the default stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service over an attached backend.
func New(backend types.Backend, opts ...Option) *Service {
	s := &Service{
		backend:     backend,
		lock:        lockFor(backend.Location()),
		lockTimeout: DefaultLockTimeout,
		clock:       time.Now,
		tracer:      otel.Tracer("ellie/lifecycle"),
		logger:      log.New(os.Stderr, "lifecycle: ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = telemetry.NewMetrics(prometheus.NewRegistry())
	}
	return s
}

// Outcome labels for metrics and spans.
const (
	outcomeOK           = "ok"
	outcomeValidation   = "validation"
	outcomeNotFound     = "not_found"
	outcomeConflict     = "conflict"
	outcomeInconsistent = "inconsistent"
	outcomeBusy         = "busy"
	outcomeError        = "error"
)

func outcomeOf(err error) string {
	if err == nil {
		return outcomeOK
	}
	switch types.KindOf(err) {
	case types.ErrValidation:
		return outcomeValidation
	case types.ErrNotFound:
		return outcomeNotFound
	case types.ErrConflict:
		return outcomeConflict
	case types.ErrInconsistent:
		return outcomeInconsistent
	case types.ErrBusy:
		return outcomeBusy
	}
	return outcomeError
}

// instrument opens the span for op and returns a func that closes it and
// records metrics for the final error.
func (s *Service) instrument(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "lifecycle."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		outcome := outcomeOf(err)
		span.SetAttributes(attribute.String("outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics.Observe(op, outcome, time.Since(start))
	}
}

// acquire takes the location lock, waiting at most lockTimeout.
func (s *Service) acquire(ctx context.Context) error {
	wait := ctx
	if s.lockTimeout > 0 {
		var cancel context.CancelFunc
		wait, cancel = context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
	}
	if err := s.lock.Acquire(wait, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s", types.ErrBusy, s.backend.Location())
	}
	return nil
}

// mutate runs fn on a freshly loaded snapshot under the location lock and
// saves the result. Nothing is saved when fn fails or the ledger check fails.
func mutate[T any](ctx context.Context, s *Service, op string, attrs []attribute.KeyValue, fn func(*types.Snapshot, time.Time) (T, error)) (result T, err error) {
	ctx, done := s.instrument(ctx, op, attrs...)
	defer func() { done(err) }()

	var zero T
	if err := s.acquire(ctx); err != nil {
		return zero, err
	}
	defer s.lock.Release(1)

	snap, err := s.backend.Load(ctx)
	if err != nil {
		return zero, fmt.Errorf("load: %w", err)
	}

	result, err = fn(snap, types.Timestamp(s.clock()))
	if err != nil {
		if errors.Is(err, types.ErrInconsistent) {
			s.logger.Printf("INCONSISTENT %s: %v", op, err)
		}
		return zero, err
	}

	if err := ledger.Verify(snap); err != nil {
		s.logger.Printf("INCONSISTENT %s: refusing to save: %v", op, err)
		return zero, err
	}

	if err := s.backend.Save(ctx, snap); err != nil {
		return zero, fmt.Errorf("save: %w", err)
	}
	return result, nil
}

// query runs fn on a freshly loaded snapshot without taking the lock.
func query[T any](ctx context.Context, s *Service, op string, attrs []attribute.KeyValue, fn func(*types.Snapshot, time.Time) (T, error)) (result T, err error) {
	ctx, done := s.instrument(ctx, op, attrs...)
	defer func() { done(err) }()

	snap, err := s.backend.Load(ctx)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("load: %w", err)
	}
	return fn(snap, types.Timestamp(s.clock()))
}

// Now returns the service clock, normalized like stored timestamps.
func (s *Service) Now() time.Time {
	return types.Timestamp(s.clock())
}
