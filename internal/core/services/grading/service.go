package grading

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gitlab.com/mips-autograder.net/internal/core/ports/primary"
	"gitlab.com/mips-autograder.net/internal/core/ports/secondary"
	"gitlab.com/mips-autograder.net/internal/domain"
	"gitlab.com/mips-autograder.net/internal/static/errs"
)

type IGradingService interface {
	// Submit grades source against every test case of the lab
	Submit(ctx context.Context, userID, labID, source string) (*domain.GradeReport, error)

	// TestCases lists a lab's test cases as the viewer may see them
	TestCases(ctx context.Context, labID string, viewer domain.Viewer) (*TestCaseListing, error)

	// Submissions lists a user's graded submissions, newest first
	Submissions(ctx context.Context, userID, labID string) ([]*domain.GradedSubmission, error)
}

// TestCaseListing is the per-lab test case view. Details is only filled for
// viewers who manage labs.
type TestCaseListing struct {
	LabID     string                   `json:"lab_id"`
	TestCases []domain.TestCaseSummary `json:"test_cases"`
	Details   []domain.TestCaseSpec    `json:"details,omitempty"`
}

var _ IGradingService = (*GradingService)(nil)

type GradingService struct {
	resolver    secondary.TestCaseResolver
	labRepo     secondary.LabRepository
	submissions secondary.SubmissionRepository
	engine      *Engine
	logger      primary.Logger
}

// NewGradingService wires the grading use cases. labRepo and submissions may be
// nil, in which case the engine default limit is used and nothing is persisted.
func NewGradingService(
	resolver secondary.TestCaseResolver,
	labRepo secondary.LabRepository,
	submissions secondary.SubmissionRepository,
	engine *Engine,
	logger primary.Logger,
) *GradingService {
	return &GradingService{
		resolver:    resolver,
		labRepo:     labRepo,
		submissions: submissions,
		engine:      engine,
		logger:      logger,
	}
}

func (s *GradingService) Submit(ctx context.Context, userID, labID, source string) (*domain.GradeReport, error) {
	labID = strings.TrimSpace(labID)
	if labID == "" {
		return nil, fmt.Errorf("%w: lab_id is required", errs.ErrValidation)
	}
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%w: source_code is required", errs.ErrValidation)
	}

	cases, err := s.resolve(ctx, labID)
	if err != nil {
		return nil, err
	}

	engine := s.engine
	if limit := s.labTimeLimit(ctx, labID); limit > 0 {
		engine = engine.WithTimeLimit(limit)
	}

	s.logger.Info("Grading submission", "user_id", userID, "lab_id", labID, "tests", len(cases), "time_limit", engine.TimeLimit())
	report := engine.Grade(ctx, cases, source)

	s.save(ctx, userID, labID, source, report)
	return report, nil
}

func (s *GradingService) TestCases(ctx context.Context, labID string, viewer domain.Viewer) (*TestCaseListing, error) {
	labID = strings.TrimSpace(labID)
	if labID == "" {
		return nil, fmt.Errorf("%w: lab_id is required", errs.ErrValidation)
	}

	cases, err := s.resolve(ctx, labID)
	if err != nil {
		return nil, err
	}

	listing := &TestCaseListing{
		LabID:     labID,
		TestCases: domain.Sanitize(cases),
	}
	if viewer.Role.CanManageLabs() {
		listing.Details = make([]domain.TestCaseSpec, 0, len(cases))
		for _, tc := range cases {
			listing.Details = append(listing.Details, tc.Spec())
		}
	}
	return listing, nil
}

func (s *GradingService) Submissions(ctx context.Context, userID, labID string) ([]*domain.GradedSubmission, error) {
	if s.submissions == nil {
		return []*domain.GradedSubmission{}, nil
	}
	out, err := s.submissions.ListGradedSubmissions(ctx, userID, strings.TrimSpace(labID))
	if err != nil {
		s.logger.Error("Failed to list submissions", "user_id", userID, "lab_id", labID, "error", err)
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	if out == nil {
		out = []*domain.GradedSubmission{}
	}
	return out, nil
}

func (s *GradingService) resolve(ctx context.Context, labID string) ([]*domain.TestCase, error) {
	cases, err := s.resolver.Resolve(ctx, labID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve test cases: %w", err)
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("%w: no test cases for lab %q", errs.ErrNotFound, labID)
	}
	return cases, nil
}

func (s *GradingService) labTimeLimit(ctx context.Context, labID string) time.Duration {
	if s.labRepo == nil {
		return 0
	}
	lab, err := s.labRepo.GetLab(ctx, labID)
	if err != nil {
		s.logger.Warn("Failed to load lab, using default time limit", "lab_id", labID, "error", err)
		return 0
	}
	return lab.TimeLimit()
}

// save persists the graded submission. Storage trouble never fails a grading
// request that already produced a report.
func (s *GradingService) save(ctx context.Context, userID, labID, source string, report *domain.GradeReport) {
	if s.submissions == nil || userID == "" {
		return
	}
	graded := &domain.GradedSubmission{
		Submission: *domain.NewSubmission(userID, labID, source),
		Report:     report,
	}
	if err := s.submissions.SaveGradedSubmission(ctx, graded); err != nil {
		s.logger.Error("Failed to save graded submission", "user_id", userID, "lab_id", labID, "error", err)
	}
}
