package testcase

import (
	"context"
	"strings"
	"time"

	"gitlab.com/mips-autograder.net/internal/core/ports/primary"
	"gitlab.com/mips-autograder.net/internal/core/ports/secondary"
	"gitlab.com/mips-autograder.net/internal/domain"
)

var _ secondary.TestCaseResolver = (*ChainResolver)(nil)

// ChainResolver tries its strategies in order and returns the first non-empty
// answer. A failing strategy is logged and skipped. With a cache attached,
// the cache is consulted first and later hits are written back to it.
type ChainResolver struct {
	strategies []secondary.TestCaseResolver
	cache      secondary.TestCaseCache
	cacheTTL   time.Duration
	logger     primary.Logger
}

func NewChainResolver(logger primary.Logger, strategies ...secondary.TestCaseResolver) *ChainResolver {
	return &ChainResolver{
		strategies: strategies,
		logger:     logger,
	}
}

// WithCache enables read-through caching.
func (c *ChainResolver) WithCache(cache secondary.TestCaseCache, ttl time.Duration) *ChainResolver {
	c.cache = cache
	c.cacheTTL = ttl
	return c
}

func (c *ChainResolver) Name() string {
	names := make([]string, 0, len(c.strategies)+1)
	if c.cache != nil {
		names = append(names, "cache")
	}
	for _, s := range c.strategies {
		names = append(names, s.Name())
	}
	return strings.Join(names, ">")
}

// Resolve returns nil, nil when no strategy knows the lab.
func (c *ChainResolver) Resolve(ctx context.Context, labID string) ([]*domain.TestCase, error) {
	if c.cache != nil {
		cases, err := c.cache.Get(ctx, labID)
		if err != nil {
			c.logger.Warn("Test case cache lookup failed", "lab_id", labID, "error", err)
		} else if len(cases) > 0 {
			c.logger.Debug("Test cases resolved", "lab_id", labID, "source", "cache", "count", len(cases))
			return cases, nil
		}
	}

	for _, strategy := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cases, err := strategy.Resolve(ctx, labID)
		if err != nil {
			c.logger.Warn("Test case source failed, trying next", "lab_id", labID, "source", strategy.Name(), "error", err)
			continue
		}
		if len(cases) == 0 {
			continue
		}

		c.logger.Debug("Test cases resolved", "lab_id", labID, "source", strategy.Name(), "count", len(cases))
		c.writeBack(ctx, labID, cases)
		return cases, nil
	}

	c.logger.Info("No test cases found", "lab_id", labID, "chain", c.Name())
	return nil, nil
}

// Invalidate drops the cached entry of a lab, e.g. after its test cases changed.
func (c *ChainResolver) Invalidate(ctx context.Context, labID string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx, labID); err != nil {
		c.logger.Warn("Failed to invalidate test case cache", "lab_id", labID, "error", err)
	}
}

func (c *ChainResolver) writeBack(ctx context.Context, labID string, cases []*domain.TestCase) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, labID, cases, c.cacheTTL); err != nil {
		c.logger.Warn("Failed to cache test cases", "lab_id", labID, "error", err)
	}
}
