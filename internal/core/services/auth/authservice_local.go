package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gitlab.com/mips-autograder.net/internal/config"
	"gitlab.com/mips-autograder.net/internal/core/ports/primary"
	"gitlab.com/mips-autograder.net/internal/core/ports/secondary"
	"gitlab.com/mips-autograder.net/internal/domain"
	"gitlab.com/mips-autograder.net/internal/static/errs"
)

const minPasswordLength = 4

var _ IAuthService = &localAuthService{}

type localAuthService struct {
	userPort    secondary.UserPort
	jwtProvider primary.JWTService
	cfg         *config.AuthConfig
	logger      primary.Logger
	now         func() time.Time
}

func NewLocalAuthService(
	userPort secondary.UserPort,
	jwtProvider primary.JWTService,
	cfg *config.AuthConfig,
	logger primary.Logger,
) IAuthService {
	if cfg == nil {
		cfg = &config.AuthConfig{}
	}
	return &localAuthService{
		userPort:    userPort,
		jwtProvider: jwtProvider,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

func (g localAuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	name := strings.TrimSpace(req.UserName)
	if name == "" || req.Password == "" {
		return nil, errs.InvalidCredentials
	}

	usr, err := g.userPort.GetByUserName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if usr == nil || usr.PasswordHash == nil {
		return nil, errs.InvalidCredentials
	}
	valid, err := g.jwtProvider.VerifyPassword(ctx, *usr.PasswordHash, req.Password)
	if err != nil || !valid {
		return nil, errs.InvalidCredentials
	}
	if !usr.IsActive {
		return nil, errs.AccountDisabled
	}

	if err := g.userPort.TouchLastLogin(ctx, usr.ID.String()); err != nil {
		g.logger.Warn("Failed to record last login", "user_id", usr.ID, "error", err)
	} else {
		now := g.now()
		usr.LastLogin = &now
	}

	return g.issue(ctx, usr)
}

func (g localAuthService) Signup(ctx context.Context, req domain.SignupRequest) (*domain.LoginResponse, error) {
	user, password, err := g.validateSignup(req)
	if err != nil {
		return nil, err
	}

	hash, err := g.jwtProvider.EncryptPassword(ctx, password)
	if err != nil {
		g.logger.Error("Failed to hash password", "error", err)
		return nil, errs.InternalError
	}
	user.PasswordHash = &hash

	if err := g.userPort.Create(ctx, user); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return nil, err
		}
		g.logger.Error("Failed to create user", "username", user.UserName, "error", err)
		return nil, errs.FailedToCreateUser
	}
	g.logger.Info("User registered", "user_id", user.ID, "role", user.Role)

	return g.issue(ctx, user)
}

func (g localAuthService) validateSignup(req domain.SignupRequest) (*domain.Users, string, error) {
	name := strings.TrimSpace(req.UserName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	fullName := strings.TrimSpace(req.FullName)

	if name == "" || fullName == "" || req.Password == "" {
		return nil, "", fmt.Errorf("%w: username, full_name and password are required", errs.ErrValidation)
	}
	if email == "" {
		return nil, "", fmt.Errorf("%w: %w", errs.ErrValidation, errs.EmailRequired)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", fmt.Errorf("%w: malformed email", errs.ErrValidation)
	}
	if g.cfg.EmailDomain != "" && !strings.HasSuffix(email, "@"+strings.ToLower(g.cfg.EmailDomain)) {
		return nil, "", fmt.Errorf("%w: %w", errs.ErrValidation, errs.EmailDomainDenied)
	}
	if len(req.Password) < minPasswordLength {
		return nil, "", fmt.Errorf("%w: %w", errs.ErrValidation, errs.PasswordTooShort)
	}

	role := req.Role
	if role == "" {
		role = domain.RoleStudent
	}
	if !role.Valid() {
		return nil, "", fmt.Errorf("%w: role %q", errs.ErrValidation, role)
	}

	return &domain.Users{
		ID:        uuid.New(),
		UserName:  name,
		Email:     email,
		FullName:  fullName,
		Role:      role,
		IsActive:  true,
		CreatedAt: g.now(),
	}, req.Password, nil
}

func (g localAuthService) Me(ctx context.Context, userID string) (*domain.Users, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, errs.ErrUnauthorized
	}
	usr, err := g.userPort.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if usr == nil {
		return nil, errs.ErrNotFound
	}
	return usr, nil
}

func (g localAuthService) issue(ctx context.Context, user *domain.Users) (*domain.LoginResponse, error) {
	claims := map[string]interface{}{
		"user_id":    user.ID.String(),
		"username":   user.UserName,
		"role":       string(user.Role),
		"permission": domain.PermissionsFor(user.Role),
	}
	token, err := g.jwtProvider.GenerateTokenHMAC(ctx, jwt.SigningMethodHS256.Name, claims)
	if err != nil {
		g.logger.Error("Failed to sign token", "user_id", user.ID, "error", err)
		return nil, errs.GeneratingToken
	}
	return &domain.LoginResponse{Token: token, User: user}, nil
}
