package labrepository

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

var _ secondary.LabRepository = (*LabRepository)(nil)

// LabRepository implements the LabRepository interface with PostgreSQL
type LabRepository struct {
	db     *sqlx.DB
	logger primary.Logger
	schema string
}

// NewLabRepository creates a new PostgreSQL lab repository
func NewLabRepository(db *sqlx.DB, logger primary.Logger, schema string) *LabRepository {
	return &LabRepository{
		db:     db,
		logger: logger,
		schema: postgres.Schema(schema),
	}
}

// GetLab retrieves a lab by id
func (r *LabRepository) GetLab(ctx context.Context, labID string) (*domain.Lab, error) {
	labTbl := domain.GetLabTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Select(labTbl.Columns()...).
		From(labTbl.TableName()).
		Where(fmt.Sprintf("%s = ?", labTbl.LabID), labID).
		Build()

	var lab domain.Lab
	err := r.db.GetContext(ctx, &lab, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get lab", "lab_id", labID, "error", err)
		return nil, fmt.Errorf("failed to get lab: %w", err)
	}
	return &lab, nil
}

// ListLabs retrieves labs ordered by id
func (r *LabRepository) ListLabs(ctx context.Context, publishedOnly bool) ([]*domain.Lab, error) {
	labTbl := domain.GetLabTable()
	qb := querybuilder.NewQueryBuilder(r.schema).
		Select(labTbl.Columns()...).
		From(labTbl.TableName())
	if publishedOnly {
		qb = qb.Where(fmt.Sprintf("%s = ?", labTbl.IsPublished), true)
	}
	query, args := qb.OrderBy(labTbl.LabID, true).Build()

	labs := make([]*domain.Lab, 0)
	if err := r.db.SelectContext(ctx, &labs, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		r.logger.Error("Failed to list labs", "error", err)
		return nil, fmt.Errorf("failed to list labs: %w", err)
	}
	return labs, nil
}

// CreateLab inserts a new lab
func (r *LabRepository) CreateLab(ctx context.Context, lab *domain.Lab) error {
	now := time.Now()
	if lab.CreatedAt.IsZero() {
		lab.CreatedAt = now
	}
	lab.UpdatedAt = now

	labTbl := domain.GetLabTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Insert(labTbl.Columns()...).
		Into(labTbl.TableName()).
		Values(
			lab.LabID, lab.Title, lab.Description, lab.Instructions, lab.StarterCode, lab.SolutionCode,
			lab.Difficulty, lab.Points, lab.MaxInstructions, lab.TimeLimitSeconds, lab.DueDate,
			lab.IsPublished, lab.CreatedBy, lab.CreatedAt, lab.UpdatedAt,
		).
		Build()

	if _, err := r.db.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("%w: lab %q", errs.ErrConflict, lab.LabID)
		}
		r.logger.Error("Failed to create lab", "lab_id", lab.LabID, "error", err)
		return fmt.Errorf("failed to create lab: %w", err)
	}

	r.logger.Info("Created lab", "lab_id", lab.LabID)
	return nil
}

// UpdateLab overwrites the mutable columns of an existing lab
func (r *LabRepository) UpdateLab(ctx context.Context, lab *domain.Lab) error {
	lab.UpdatedAt = time.Now()

	labTbl := domain.GetLabTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Update(labTbl.TableName(), querybuilder.UpdateData{
			labTbl.Title:            lab.Title,
			labTbl.Description:      lab.Description,
			labTbl.Instructions:     lab.Instructions,
			labTbl.StarterCode:      lab.StarterCode,
			labTbl.SolutionCode:     lab.SolutionCode,
			labTbl.Difficulty:       lab.Difficulty,
			labTbl.Points:           lab.Points,
			labTbl.MaxInstructions:  lab.MaxInstructions,
			labTbl.TimeLimitSeconds: lab.TimeLimitSeconds,
			labTbl.DueDate:          lab.DueDate,
			labTbl.IsPublished:      lab.IsPublished,
			labTbl.UpdatedAt:        lab.UpdatedAt,
		}).
		Where(fmt.Sprintf("%s = ?", labTbl.LabID), lab.LabID).
		Build()

	result, err := r.db.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if err != nil {
		r.logger.Error("Failed to update lab", "lab_id", lab.LabID, "error", err)
		return fmt.Errorf("failed to update lab: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: lab %q", errs.ErrNotFound, lab.LabID)
	}
	return nil
}

// DeleteLab permanently deletes a lab; its test cases go with it
func (r *LabRepository) DeleteLab(ctx context.Context, labID string) (bool, error) {
	labTbl := domain.GetLabTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Delete(labTbl.TableName()).
		Where(fmt.Sprintf("%s = ?", labTbl.LabID), labID).
		Build()

	result, err := r.db.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if err != nil {
		r.logger.Error("Failed to delete lab", "lab_id", labID, "error", err)
		return false, fmt.Errorf("failed to delete lab: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("Lab not found for deletion", "lab_id", labID)
		return false, nil
	}

	r.logger.Info("Deleted lab", "lab_id", labID)
	return true, nil
}

// EnsureTableExists creates the labs table
func (r *LabRepository) EnsureTableExists(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.labs (
			lab_id VARCHAR(100) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			instructions TEXT NOT NULL DEFAULT '',
			starter_code TEXT,
			solution_code TEXT,
			difficulty VARCHAR(20) NOT NULL DEFAULT 'beginner',
			points INTEGER NOT NULL DEFAULT 100,
			max_instructions INTEGER NOT NULL DEFAULT 0,
			time_limit_seconds INTEGER NOT NULL DEFAULT 10,
			due_date TIMESTAMP WITH TIME ZONE,
			is_published BOOLEAN NOT NULL DEFAULT false,
			created_by VARCHAR(64),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		)
	`, r.schema)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		r.logger.Error("Failed to create labs table", "error", err)
		return fmt.Errorf("failed to create labs table: %w", err)
	}
	return nil
}
