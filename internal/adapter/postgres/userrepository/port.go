package userrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gitlab.com/mips-autograder.net/internal/adapter/postgres"
	"gitlab.com/mips-autograder.net/internal/core/ports/primary"
	"gitlab.com/mips-autograder.net/internal/core/ports/secondary"
	"gitlab.com/mips-autograder.net/internal/domain"
	"gitlab.com/mips-autograder.net/internal/static/errs"
	querybuilder "gitlab.com/mips-autograder.net/internal/utils"
)

var _ secondary.UserPort = &UserRepository{}

// UserRepository implements secondary.UserPort with PostgreSQL
type UserRepository struct {
	db     *sqlx.DB
	logger primary.Logger
	schema string
}

func New(db *sqlx.DB, logger primary.Logger, schema string) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
		schema: postgres.Schema(schema),
	}
}

func (u UserRepository) Create(ctx context.Context, user *domain.Users) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	userTbl := domain.GetUserTable()
	query, args := querybuilder.NewQueryBuilder(u.schema).
		Insert(userTbl.Columns()...).
		Into(userTbl.GetTableName()).
		Values(
			user.ID, user.UserName, user.Email, user.FullName, user.PasswordHash,
			user.Role, user.IsActive, user.CreatedAt, user.LastLogin,
		).
		Build()

	_, err := u.db.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("%w: username or email already registered", errs.ErrConflict)
		}
		u.logger.Error("Failed to create user", "username", user.UserName, "error", err)
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (u UserRepository) Get(ctx context.Context, id string) (*domain.Users, error) {
	return u.getBy(ctx, domain.GetUserTable().ID, id)
}

func (u UserRepository) GetByEmail(ctx context.Context, email string) (*domain.Users, error) {
	return u.getBy(ctx, domain.GetUserTable().Email, email)
}

func (u UserRepository) GetByUserName(ctx context.Context, userName string) (*domain.Users, error) {
	return u.getBy(ctx, domain.GetUserTable().UserName, userName)
}

func (u UserRepository) TouchLastLogin(ctx context.Context, id string) error {
	userTbl := domain.GetUserTable()
	query, args := querybuilder.NewQueryBuilder(u.schema).
		Update(userTbl.GetTableName(), querybuilder.UpdateData{userTbl.LastLogin: time.Now()}).
		Where(fmt.Sprintf("%s = ?", userTbl.ID), id).
		Build()

	if _, err := u.db.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		u.logger.Error("Failed to update last login", "user_id", id, "error", err)
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// getBy returns nil, nil when no row matches
func (u UserRepository) getBy(ctx context.Context, col string, value interface{}) (*domain.Users, error) {
	userTbl := domain.GetUserTable()
	query, args := querybuilder.NewQueryBuilder(u.schema).
		Select(userTbl.Columns()...).
		From(userTbl.GetTableName()).
		Where(fmt.Sprintf("%s = ?", col), value).
		Build()

	var user domain.Users
	err := u.db.GetContext(ctx, &user, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		u.logger.Error("Failed to get user", "by", col, "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// EnsureTableExists creates the users table
func (u UserRepository) EnsureTableExists(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.users (
			id UUID PRIMARY KEY,
			user_name VARCHAR(100) NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL UNIQUE,
			full_name VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255),
			role VARCHAR(20) NOT NULL DEFAULT 'student',
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			last_login TIMESTAMP WITH TIME ZONE
		)
	`, u.schema)

	if _, err := u.db.ExecContext(ctx, query); err != nil {
		u.logger.Error("Failed to create users table", "error", err)
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}
