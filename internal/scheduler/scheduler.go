// Package scheduler fans inspection tasks out across a bounded worker pool
// and collects outcomes back into submission order.
package scheduler

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ppiankov/ssl-checker/internal/result"
)

// InspectFunc runs the full inspection pipeline for one target.
type InspectFunc func(ctx context.Context, t result.Target) result.Outcome

// Scheduler bounds how many inspections run at once. Each task owns its
// target and its outcome slot exclusively; no shared mutable state crosses
// task boundaries beyond the admission channel.
type Scheduler struct {
	inspectFn InspectFunc
	tracer    trace.Tracer
	limit     int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInspectFunc replaces the inspection pipeline, mainly for tests.
func WithInspectFunc(fn InspectFunc) Option {
	return func(s *Scheduler) { s.inspectFn = fn }
}

// WithTracer enables a span per target inspection.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Scheduler) { s.tracer = tracer }
}

// New creates a scheduler with the given concurrency limit. Limits below one
// are clamped to one. The default inspect function is a full
// connect-parse-validate pipeline with the default warning horizon; callers
// normally install a configured Inspector.
func New(limit int, opts ...Option) *Scheduler {
	if limit < 1 {
		limit = 1
	}
	s := &Scheduler{
		limit:     limit,
		inspectFn: NewInspector(0).Inspect,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run inspects every target and returns one outcome per target, in
// submission order regardless of completion order or the concurrency limit.
func (s *Scheduler) Run(ctx context.Context, targets []result.Target) []result.Outcome {
	outcomes := make([]result.Outcome, len(targets))
	sem := make(chan struct{}, s.limit)
	var wg sync.WaitGroup

	for i, t := range targets {
		wg.Add(1)
		go func(idx int, t result.Target) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				outcomes[idx] = result.Outcome{
					Category: result.CategoryTimeout,
					Cause:    "run canceled before inspection started",
				}
				return
			}

			outcomes[idx] = s.inspect(ctx, t)
		}(i, t)
	}

	wg.Wait()
	return outcomes
}

func (s *Scheduler) inspect(ctx context.Context, t result.Target) result.Outcome {
	if s.tracer == nil {
		return s.inspectFn(ctx, t)
	}

	ctx, span := s.tracer.Start(ctx, "inspect",
		trace.WithAttributes(attribute.String("target.addr", t.Addr())))
	defer span.End()

	o := s.inspectFn(ctx, t)
	span.SetAttributes(attribute.String("outcome.category", string(o.Category)))
	return o
}
