package secondary

import (
	"context"

	"gitlab.com/mips-autograder.net/internal/domain"
)

// SubmissionRepository stores graded submissions
type SubmissionRepository interface {
	SaveGradedSubmission(ctx context.Context, graded *domain.GradedSubmission) error

	// ListGradedSubmissions returns newest first; an empty labID lists every lab
	ListGradedSubmissions(ctx context.Context, userID, labID string) ([]*domain.GradedSubmission, error)
}
