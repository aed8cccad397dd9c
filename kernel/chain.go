package kernel

import (
	"context"
	"fmt"
)

// Chain is a Backend that tries tiers in order: privileged first, then any
// secondary, then a tier that never fails (the simulated backend). A tier
// signalling unavailability, or failing outright, moves the chain to the
// next tier. A tier returning a well-formed failed Result is final, because
// that is a genuine in-engine execution error, not a reason to degrade.
type Chain struct {
	tiers  []Backend
	logger Logger
}

// NewChain builds a tier chain. The last tier should always succeed; the
// simulated backend satisfies that.
func NewChain(tiers ...Backend) *Chain {
	return &Chain{tiers: tiers}
}

// WithLogger attaches an optional logger for fallback events.
func (c *Chain) WithLogger(logger Logger) *Chain {
	c.logger = logger
	return c
}

// Kind returns the backend kind identifier.
func (c *Chain) Kind() BackendKind {
	return BackendChain
}

// Tiers returns the configured tiers in order.
func (c *Chain) Tiers() []Backend {
	return c.tiers
}

// Execute walks the tiers until one produces a result.
func (c *Chain) Execute(ctx context.Context, req Request) (Result, error) {
	if len(c.tiers) == 0 {
		return Result{}, fmt.Errorf("%w: no tiers configured for %s", ErrBackendUnavailable, req.Language)
	}

	var lastErr error
	for i, tier := range c.tiers {
		res, err := tier.Execute(ctx, req)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if c.logger != nil && i < len(c.tiers)-1 {
			c.logger.Warn("backend tier degraded, falling back",
				"language", string(req.Language),
				"tier", string(tier.Kind()),
				"next", string(c.tiers[i+1].Kind()),
				"reason", err.Error())
		}
	}
	return Result{}, lastErr
}

var _ Backend = (*Chain)(nil)
