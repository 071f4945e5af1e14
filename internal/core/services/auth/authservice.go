package auth

import (
	"context"

	"gitlab.com/mips-autograder.net/internal/domain"
)

type IAuthService interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
	Signup(ctx context.Context, req domain.SignupRequest) (*domain.LoginResponse, error)
	// Me returns the account behind a verified token
	Me(ctx context.Context, userID string) (*domain.Users, error)
}
