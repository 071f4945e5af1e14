package testcasecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"gitlab.com/mips-autograder.net/internal/core/ports/primary"
	"gitlab.com/mips-autograder.net/internal/core/ports/secondary"
	"gitlab.com/mips-autograder.net/internal/domain"
)

const (
	testCaseKeyPrefix = "testcases:"
	// cacheFormat is bumped whenever the cached JSON layout changes.
	cacheFormat = 1
)

var _ secondary.TestCaseCache = (*TestCaseCache)(nil)

// TestCaseCache keeps resolved test cases of a lab in Redis
type TestCaseCache struct {
	redisClient *redis.Client
	logger      primary.Logger
}

// NewTestCaseCache creates a new Redis test case cache
func NewTestCaseCache(redisClient *redis.Client, logger primary.Logger) *TestCaseCache {
	return &TestCaseCache{
		redisClient: redisClient,
		logger:      logger,
	}
}

type cachedEntry struct {
	Format int          `json:"format"`
	Cases  []cachedCase `json:"cases"`
}

type cachedCase struct {
	ID   uuid.UUID           `json:"id"`
	Spec domain.TestCaseSpec `json:"spec"`
}

func cacheKey(labID string) string {
	return fmt.Sprintf("%s%s", testCaseKeyPrefix, labID)
}

// Get returns nil, nil on a cache miss
func (c *TestCaseCache) Get(ctx context.Context, labID string) ([]*domain.TestCase, error) {
	raw, err := c.redisClient.Get(ctx, cacheKey(labID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		c.logger.Error("Failed to get cached test cases", "lab_id", labID, "error", err)
		return nil, fmt.Errorf("failed to get cached test cases: %w", err)
	}

	cases, err := decodeEntry(labID, raw)
	if err != nil {
		// A stale layout is a miss, the chain will refill it.
		c.logger.Warn("Dropping unreadable cache entry", "lab_id", labID, "error", err)
		_ = c.redisClient.Del(ctx, cacheKey(labID)).Err()
		return nil, nil
	}
	return cases, nil
}

// Set stores the cases with the given expiration
func (c *TestCaseCache) Set(ctx context.Context, labID string, cases []*domain.TestCase, ttl time.Duration) error {
	raw, err := encodeEntry(cases)
	if err != nil {
		c.logger.Error("Failed to marshal test cases", "lab_id", labID, "error", err)
		return fmt.Errorf("failed to marshal test cases: %w", err)
	}

	if err := c.redisClient.Set(ctx, cacheKey(labID), raw, ttl).Err(); err != nil {
		c.logger.Error("Failed to cache test cases", "lab_id", labID, "error", err)
		return fmt.Errorf("failed to cache test cases: %w", err)
	}
	return nil
}

func (c *TestCaseCache) Invalidate(ctx context.Context, labID string) error {
	if err := c.redisClient.Del(ctx, cacheKey(labID)).Err(); err != nil {
		c.logger.Error("Failed to invalidate cached test cases", "lab_id", labID, "error", err)
		return fmt.Errorf("failed to invalidate cached test cases: %w", err)
	}
	return nil
}

func encodeEntry(cases []*domain.TestCase) ([]byte, error) {
	entry := cachedEntry{Format: cacheFormat, Cases: make([]cachedCase, 0, len(cases))}
	for _, tc := range cases {
		entry.Cases = append(entry.Cases, cachedCase{ID: tc.ID, Spec: tc.Spec()})
	}
	return json.Marshal(entry)
}

func decodeEntry(labID string, raw []byte) ([]*domain.TestCase, error) {
	var entry cachedEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, err
	}
	if entry.Format != cacheFormat {
		return nil, fmt.Errorf("cache format %d, want %d", entry.Format, cacheFormat)
	}

	cases := make([]*domain.TestCase, 0, len(entry.Cases))
	for _, cc := range entry.Cases {
		tc, err := cc.Spec.Build(labID)
		if err != nil {
			return nil, err
		}
		tc.ID = cc.ID
		cases = append(cases, tc)
	}
	return cases, nil
}
