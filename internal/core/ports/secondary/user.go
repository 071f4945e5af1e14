package secondary

import (
	"context"

	"gitlab.com/mips-autograder.net/internal/domain"
)

type UserPort interface {
	Create(ctx context.Context, user *domain.Users) error
	Get(ctx context.Context, id string) (*domain.Users, error)
	GetByEmail(ctx context.Context, email string) (*domain.Users, error)
	GetByUserName(ctx context.Context, userName string) (*domain.Users, error)
	TouchLastLogin(ctx context.Context, id string) error
}
