package secondary

import (
	"context"

	"gitlab.com/mips-autograder.net/internal/domain"
)

type LabRepository interface {
	// GetLab returns nil, nil when the lab does not exist
	GetLab(ctx context.Context, labID string) (*domain.Lab, error)

	ListLabs(ctx context.Context, publishedOnly bool) ([]*domain.Lab, error)

	// CreateLab fails with errs.ErrConflict on a duplicate lab id
	CreateLab(ctx context.Context, lab *domain.Lab) error

	UpdateLab(ctx context.Context, lab *domain.Lab) error

	// DeleteLab reports whether a row was removed
	DeleteLab(ctx context.Context, labID string) (bool, error)
}
