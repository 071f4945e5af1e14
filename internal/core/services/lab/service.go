package lab

import (
	"context"

	"gitlab.com/mips-autograder.net/internal/domain"
)

type ILabService interface {
	ListLabs(ctx context.Context, viewer domain.Viewer) ([]*domain.Lab, error)
	GetLab(ctx context.Context, viewer domain.Viewer, labID string) (*domain.Lab, error)
	CreateLab(ctx context.Context, viewer domain.Viewer, draft domain.LabDraft) (*domain.Lab, error)
	UpdateLab(ctx context.Context, viewer domain.Viewer, labID string, patch domain.LabPatch) (*domain.Lab, error)
	DeleteLab(ctx context.Context, viewer domain.Viewer, labID string) error

	// ReplaceTestCases swaps every test case of a lab for the given specs
	ReplaceTestCases(ctx context.Context, viewer domain.Viewer, labID string, specs []domain.TestCaseSpec) ([]*domain.TestCase, error)
}
