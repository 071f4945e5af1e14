package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/mips-autograder.net/internal/adapter/crypto"
	"gitlab.com/mips-autograder.net/internal/adapter/logging"
	"gitlab.com/mips-autograder.net/internal/config"
	"gitlab.com/mips-autograder.net/internal/domain"
	"gitlab.com/mips-autograder.net/internal/static/errs"
)

type memoryUsers struct {
	mu      sync.Mutex
	byID    map[string]*domain.Users
	touched []string
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[string]*domain.Users{}}
}

func (m *memoryUsers) Create(_ context.Context, user *domain.Users) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.UserName == user.UserName || u.Email == user.Email {
			return errs.ErrConflict
		}
	}
	cp := *user
	m.byID[user.ID.String()] = &cp
	return nil
}

func (m *memoryUsers) Get(_ context.Context, id string) (*domain.Users, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.Users, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memoryUsers) GetByUserName(_ context.Context, name string) (*domain.Users, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.UserName == name {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memoryUsers) TouchLastLogin(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched = append(m.touched, id)
	return nil
}

func newAuth(users *memoryUsers, domainSuffix string) (IAuthService, *crypto.JWTServiceImpl) {
	jwtSvc := crypto.NewJWTService(&config.JwtConfig{Secret: "test-secret", TTL: time.Hour})
	svc := NewLocalAuthService(users, jwtSvc, &config.AuthConfig{EmailDomain: domainSuffix}, logging.NewNopLogger())
	return svc, jwtSvc
}

func signup(name, role string) domain.SignupRequest {
	return domain.SignupRequest{
		UserName: name,
		Email:    name + "@school.edu",
		FullName: "Test " + name,
		Password: "pass1234",
		Role:     domain.Role(role),
	}
}

func TestSignupThenLogin(t *testing.T) {
	ctx := context.Background()
	users := newMemoryUsers()
	svc, jwtSvc := newAuth(users, "")

	created, err := svc.Signup(ctx, signup("alice", ""))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, created.User.Role)
	assert.True(t, created.User.IsActive)
	require.NotNil(t, created.User.PasswordHash)
	assert.NotEqual(t, "pass1234", *created.User.PasswordHash)

	resp, err := svc.Login(ctx, domain.LoginRequest{UserName: "alice", Password: "pass1234"})
	require.NoError(t, err)
	assert.NotNil(t, resp.User.LastLogin)
	assert.Equal(t, []string{created.User.ID.String()}, users.touched)

	payload, err := jwtSvc.ParseTokenHMAC(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, created.User.ID.String(), payload.UserID)
	assert.Equal(t, "alice", payload.Username)
	assert.Equal(t, domain.RoleStudent, payload.Role)
	assert.Equal(t, []string{domain.PermissionSubmit}, payload.Permission)

	me, err := svc.Me(ctx, payload.UserID)
	require.NoError(t, err)
	assert.Equal(t, "alice@school.edu", me.Email)
}

func TestSignupInstructorGetsManagePermission(t *testing.T) {
	ctx := context.Background()
	svc, jwtSvc := newAuth(newMemoryUsers(), "")

	resp, err := svc.Signup(ctx, signup("prof", "instructor"))
	require.NoError(t, err)

	payload, err := jwtSvc.ParseTokenHMAC(ctx, resp.Token)
	require.NoError(t, err)
	assert.Contains(t, payload.Permission, domain.PermissionManageLabs)
}

func TestSignupValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.SignupRequest)
		want   error
	}{
		{"missing username", func(r *domain.SignupRequest) { r.UserName = " " }, errs.ErrValidation},
		{"missing full name", func(r *domain.SignupRequest) { r.FullName = "" }, errs.ErrValidation},
		{"missing email", func(r *domain.SignupRequest) { r.Email = "" }, errs.EmailRequired},
		{"malformed email", func(r *domain.SignupRequest) { r.Email = "not-an-email" }, errs.ErrValidation},
		{"foreign domain", func(r *domain.SignupRequest) { r.Email = "bob@gmail.com" }, errs.EmailDomainDenied},
		{"short password", func(r *domain.SignupRequest) { r.Password = "abc" }, errs.PasswordTooShort},
		{"admin role", func(r *domain.SignupRequest) { r.Role = domain.RoleAdmin }, errs.ErrValidation},
		{"unknown role", func(r *domain.SignupRequest) { r.Role = "dean" }, errs.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newAuth(newMemoryUsers(), "school.edu")
			req := signup("bob", "")
			tt.mutate(&req)
			_, err := svc.Signup(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSignupDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuth(newMemoryUsers(), "")

	_, err := svc.Signup(ctx, signup("carol", ""))
	require.NoError(t, err)
	_, err = svc.Signup(ctx, signup("carol", ""))
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestLoginRejects(t *testing.T) {
	ctx := context.Background()
	users := newMemoryUsers()
	svc, _ := newAuth(users, "")

	created, err := svc.Signup(ctx, signup("dave", ""))
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.LoginRequest{UserName: "dave", Password: "wrong"})
	assert.True(t, errors.Is(err, errs.InvalidCredentials))

	_, err = svc.Login(ctx, domain.LoginRequest{UserName: "nobody", Password: "pass1234"})
	assert.ErrorIs(t, err, errs.InvalidCredentials)

	_, err = svc.Login(ctx, domain.LoginRequest{})
	assert.ErrorIs(t, err, errs.InvalidCredentials)

	users.byID[created.User.ID.String()].IsActive = false
	_, err = svc.Login(ctx, domain.LoginRequest{UserName: "dave", Password: "pass1234"})
	assert.ErrorIs(t, err, errs.AccountDisabled)
}

func TestMeRejects(t *testing.T) {
	svc, _ := newAuth(newMemoryUsers(), "")

	_, err := svc.Me(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = svc.Me(context.Background(), "6f1c0a9e-0000-4000-8000-000000000001")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
