package lab

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gitlab.com/mips-autograder.net/internal/core/ports/primary"
	"gitlab.com/mips-autograder.net/internal/core/ports/secondary"
	"gitlab.com/mips-autograder.net/internal/domain"
	"gitlab.com/mips-autograder.net/internal/static/errs"
)

var labIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// CacheInvalidator drops whatever is cached for a lab's test cases.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, labID string)
}

var _ ILabService = (*LabService)(nil)

type LabService struct {
	labRepo   secondary.LabRepository
	testCases secondary.TestCaseRepository
	cache     CacheInvalidator
	logger    primary.Logger
	now       func() time.Time
}

// NewLabService creates the lab service. cache may be nil.
func NewLabService(
	labRepo secondary.LabRepository,
	testCases secondary.TestCaseRepository,
	cache CacheInvalidator,
	logger primary.Logger,
) *LabService {
	return &LabService{
		labRepo:   labRepo,
		testCases: testCases,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *LabService) ListLabs(ctx context.Context, viewer domain.Viewer) ([]*domain.Lab, error) {
	manager := viewer.Role.CanManageLabs()
	labs, err := s.labRepo.ListLabs(ctx, !manager)
	if err != nil {
		return nil, fmt.Errorf("failed to list labs: %w", err)
	}
	if labs == nil {
		labs = []*domain.Lab{}
	}
	if !manager {
		for _, l := range labs {
			l.SolutionCode = nil
		}
	}
	return labs, nil
}

func (s *LabService) GetLab(ctx context.Context, viewer domain.Viewer, labID string) (*domain.Lab, error) {
	lab, err := s.load(ctx, labID)
	if err != nil {
		return nil, err
	}
	if viewer.Role.CanManageLabs() {
		return lab, nil
	}
	if !lab.IsPublished {
		return nil, fmt.Errorf("%w: lab %s", errs.ErrNotFound, labID)
	}
	lab.SolutionCode = nil
	return lab, nil
}

func (s *LabService) CreateLab(ctx context.Context, viewer domain.Viewer, draft domain.LabDraft) (*domain.Lab, error) {
	if err := requireManager(viewer); err != nil {
		return nil, err
	}

	lab := draft.Lab()
	lab.LabID = strings.TrimSpace(lab.LabID)
	lab.Title = strings.TrimSpace(lab.Title)
	if !labIDPattern.MatchString(lab.LabID) {
		return nil, fmt.Errorf("%w: lab_id must be lowercase letters, digits, '-' or '_'", errs.ErrValidation)
	}
	if err := validateLab(lab); err != nil {
		return nil, err
	}

	now := s.now()
	lab.CreatedAt, lab.UpdatedAt = now, now
	if viewer.UserID != "" {
		createdBy := viewer.UserID
		lab.CreatedBy = &createdBy
	}

	if err := s.labRepo.CreateLab(ctx, lab); err != nil {
		return nil, err
	}
	s.logger.Info("Lab created", "lab_id", lab.LabID, "created_by", viewer.UserID)
	return lab, nil
}

func (s *LabService) UpdateLab(ctx context.Context, viewer domain.Viewer, labID string, patch domain.LabPatch) (*domain.Lab, error) {
	if err := requireManager(viewer); err != nil {
		return nil, err
	}
	lab, err := s.load(ctx, labID)
	if err != nil {
		return nil, err
	}

	patch.Apply(lab)
	lab.Title = strings.TrimSpace(lab.Title)
	if err := validateLab(lab); err != nil {
		return nil, err
	}
	lab.UpdatedAt = s.now()

	if err := s.labRepo.UpdateLab(ctx, lab); err != nil {
		return nil, err
	}
	s.logger.Info("Lab updated", "lab_id", lab.LabID)
	return lab, nil
}

func (s *LabService) DeleteLab(ctx context.Context, viewer domain.Viewer, labID string) error {
	if err := requireManager(viewer); err != nil {
		return err
	}
	deleted, err := s.labRepo.DeleteLab(ctx, strings.TrimSpace(labID))
	if err != nil {
		return fmt.Errorf("failed to delete lab: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: lab %s", errs.ErrNotFound, labID)
	}
	s.invalidate(ctx, labID)
	s.logger.Info("Lab deleted", "lab_id", labID)
	return nil
}

func (s *LabService) ReplaceTestCases(ctx context.Context, viewer domain.Viewer, labID string, specs []domain.TestCaseSpec) ([]*domain.TestCase, error) {
	if err := requireManager(viewer); err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: at least one test case is required", errs.ErrValidation)
	}
	lab, err := s.load(ctx, labID)
	if err != nil {
		return nil, err
	}

	cases, err := domain.BuildTestCases(lab.LabID, specs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrValidation, err)
	}
	if err := s.testCases.ReplaceTestCases(ctx, lab.LabID, cases); err != nil {
		return nil, fmt.Errorf("failed to replace test cases: %w", err)
	}
	s.invalidate(ctx, lab.LabID)
	s.logger.Info("Test cases replaced", "lab_id", lab.LabID, "count", len(cases))
	return cases, nil
}

func (s *LabService) load(ctx context.Context, labID string) (*domain.Lab, error) {
	labID = strings.TrimSpace(labID)
	if labID == "" {
		return nil, fmt.Errorf("%w: lab_id is required", errs.ErrValidation)
	}
	lab, err := s.labRepo.GetLab(ctx, labID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lab: %w", err)
	}
	if lab == nil {
		return nil, fmt.Errorf("%w: lab %s", errs.ErrNotFound, labID)
	}
	return lab, nil
}

func (s *LabService) invalidate(ctx context.Context, labID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, labID)
	}
}

func requireManager(viewer domain.Viewer) error {
	if !viewer.Role.CanManageLabs() {
		return fmt.Errorf("%w: role %q cannot manage labs", errs.ErrForbidden, viewer.Role)
	}
	return nil
}

func validateLab(lab *domain.Lab) error {
	switch {
	case lab.Title == "":
		return fmt.Errorf("%w: title is required", errs.ErrValidation)
	case !lab.Difficulty.Valid():
		return fmt.Errorf("%w: unknown difficulty %q", errs.ErrValidation, lab.Difficulty)
	case lab.Points < 0:
		return fmt.Errorf("%w: points must not be negative", errs.ErrValidation)
	case lab.MaxInstructions < 0:
		return fmt.Errorf("%w: max_instructions must not be negative", errs.ErrValidation)
	case lab.TimeLimitSeconds < 0:
		return fmt.Errorf("%w: time_limit_seconds must not be negative", errs.ErrValidation)
	}
	return nil
}
