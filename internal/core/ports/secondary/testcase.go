package secondary

import (
	"context"
	"time"

	"gitlab.com/mips-autograder.net/internal/domain"
)

// TestCaseResolver is one strategy of the test case lookup chain.
// An empty result means "not here", not an error.
type TestCaseResolver interface {
	Name() string
	Resolve(ctx context.Context, labID string) ([]*domain.TestCase, error)
}

type TestCaseRepository interface {
	TestCaseResolver

	// GetTestCases returns the stored test cases of a lab in display order
	GetTestCases(ctx context.Context, labID string) ([]*domain.TestCase, error)

	// ReplaceTestCases atomically swaps all test cases of a lab
	ReplaceTestCases(ctx context.Context, labID string, cases []*domain.TestCase) error
}

type TestCaseCache interface {
	Get(ctx context.Context, labID string) ([]*domain.TestCase, error)
	Set(ctx context.Context, labID string, cases []*domain.TestCase, ttl time.Duration) error
	Invalidate(ctx context.Context, labID string) error
}
