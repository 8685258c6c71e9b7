package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/ppiankov/ssl-checker/internal/chain"
	"github.com/ppiankov/ssl-checker/internal/probe"
	"github.com/ppiankov/ssl-checker/internal/result"
	"github.com/ppiankov/ssl-checker/internal/validate"
)

// Inspector runs connector, parser and validator for one target. Any failure
// at the connector or parser stage short-circuits to the matching outcome
// without invoking later stages.
type Inspector struct {
	horizon time.Duration
	dialFn  probe.DialContextFunc
	nowFn   func() time.Time
}

// InspectorOption configures an Inspector.
type InspectorOption func(*Inspector)

// WithDialer replaces the TCP dial function used by the connector stage.
func WithDialer(fn probe.DialContextFunc) InspectorOption {
	return func(i *Inspector) { i.dialFn = fn }
}

// WithNow fixes the clock used for expiry evaluation, for tests.
func WithNow(fn func() time.Time) InspectorOption {
	return func(i *Inspector) { i.nowFn = fn }
}

// NewInspector creates an inspector with the given expiry warning horizon.
// A non-positive horizon falls back to the validator default.
func NewInspector(horizon time.Duration, opts ...InspectorOption) *Inspector {
	i := &Inspector{
		horizon: horizon,
		nowFn:   time.Now,
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// Inspect produces exactly one outcome for the target.
func (i *Inspector) Inspect(ctx context.Context, t result.Target) result.Outcome {
	var raw chain.RawChain
	var err error
	if i.dialFn != nil {
		raw, err = probe.ConnectWithDialer(ctx, t, i.dialFn)
	} else {
		raw, err = probe.Connect(ctx, t)
	}
	if err != nil {
		return connectOutcome(err)
	}

	pc, err := chain.Parse(raw)
	if err != nil {
		return result.Outcome{Category: result.CategoryChainInvalid, Reason: err.Error()}
	}

	return validate.Validate(pc, t, i.nowFn(), i.horizon)
}

// connectOutcome maps a connector fault onto its outcome category.
func connectOutcome(err error) result.Outcome {
	var ce *probe.ConnectError
	if !errors.As(err, &ce) {
		return result.Outcome{Category: result.CategoryUnreachable, Cause: err.Error()}
	}
	switch ce.Kind {
	case probe.ErrTimeout:
		return result.Outcome{Category: result.CategoryTimeout, Cause: ce.Error()}
	case probe.ErrHandshakeFailed:
		return result.Outcome{Category: result.CategoryHandshakeFailed, Cause: ce.Error()}
	default:
		// refused, DNS failure, and other dial faults
		return result.Outcome{Category: result.CategoryUnreachable, Cause: ce.Error()}
	}
}
