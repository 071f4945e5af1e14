package testcaserepository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/mips-autograder.net/internal/adapter/postgres"
	"gitlab.com/mips-autograder.net/internal/core/ports/primary"
	"gitlab.com/mips-autograder.net/internal/core/ports/secondary"
	"gitlab.com/mips-autograder.net/internal/domain"
	querybuilder "gitlab.com/mips-autograder.net/internal/utils"
)

const tableName = "lab_test_cases"

var _ secondary.TestCaseRepository = (*TestCaseRepository)(nil)

// TestCaseRepository implements the TestCaseRepository interface with PostgreSQL
type TestCaseRepository struct {
	db     *sqlx.DB
	logger primary.Logger
	schema string
}

// NewTestCaseRepository creates a new PostgreSQL test case repository
func NewTestCaseRepository(db *sqlx.DB, logger primary.Logger, schema string) *TestCaseRepository {
	return &TestCaseRepository{
		db:     db,
		logger: logger,
		schema: postgres.Schema(schema),
	}
}

// testCaseRow mirrors one lab_test_cases row. Register maps live in the
// input_data/expected_output JSONB columns.
type testCaseRow struct {
	ID             uuid.UUID      `db:"id"`
	LabID          string         `db:"lab_id"`
	Name           string         `db:"test_name"`
	Description    sql.NullString `db:"description"`
	InputData      []byte         `db:"input_data"`
	ExpectedOutput []byte         `db:"expected_output"`
	InitialMemory  []byte         `db:"initial_memory"`
	ExpectedMemory []byte         `db:"expected_memory"`
	Points         int            `db:"points"`
	IsHidden       bool           `db:"is_hidden"`
}

var rowColumns = []string{
	"id", "lab_id", "test_name", "description", "input_data", "expected_output",
	"initial_memory", "expected_memory", "points", "is_hidden",
}

func (r *TestCaseRepository) Name() string {
	return "postgres"
}

// Resolve implements secondary.TestCaseResolver
func (r *TestCaseRepository) Resolve(ctx context.Context, labID string) ([]*domain.TestCase, error) {
	return r.GetTestCases(ctx, labID)
}

// GetTestCases retrieves the test cases of a lab in insertion order
func (r *TestCaseRepository) GetTestCases(ctx context.Context, labID string) ([]*domain.TestCase, error) {
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Select(rowColumns...).
		From(tableName).
		Where("lab_id = ?", labID).
		OrderBy("test_case_id", true).
		Build()

	var rows []testCaseRow
	if err := r.db.SelectContext(ctx, &rows, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		r.logger.Error("Failed to get test cases", "lab_id", labID, "error", err)
		return nil, fmt.Errorf("failed to get test cases: %w", err)
	}

	cases := make([]*domain.TestCase, 0, len(rows))
	for _, row := range rows {
		tc, err := fromRow(row)
		if err != nil {
			r.logger.Error("Invalid stored test case", "lab_id", labID, "test", row.Name, "error", err)
			return nil, fmt.Errorf("invalid stored test case %q: %w", row.Name, err)
		}
		cases = append(cases, tc)
	}
	return cases, nil
}

// ReplaceTestCases deletes the lab's test cases and inserts cases in one transaction
func (r *TestCaseRepository) ReplaceTestCases(ctx context.Context, labID string, cases []*domain.TestCase) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be ignored if the transaction is committed

	delQuery, delArgs := querybuilder.NewQueryBuilder(r.schema).
		Delete(tableName).
		Where("lab_id = ?", labID).
		Build()
	if _, err := tx.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, delQuery), delArgs...); err != nil {
		r.logger.Error("Failed to delete test cases", "lab_id", labID, "error", err)
		return fmt.Errorf("failed to delete test cases: %w", err)
	}

	if len(cases) > 0 {
		qb := querybuilder.NewQueryBuilder(r.schema).Insert(rowColumns...).Into(tableName)
		for _, tc := range cases {
			row, err := toRow(labID, tc)
			if err != nil {
				return err
			}
			qb = qb.Values(
				row.ID, row.LabID, row.Name, row.Description, row.InputData, row.ExpectedOutput,
				row.InitialMemory, row.ExpectedMemory, row.Points, row.IsHidden,
			)
		}
		insQuery, insArgs := qb.Build()
		if _, err := tx.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, insQuery), insArgs...); err != nil {
			r.logger.Error("Failed to insert test cases", "lab_id", labID, "error", err)
			return fmt.Errorf("failed to insert test cases: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit transaction", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Replaced test cases", "lab_id", labID, "count", len(cases))
	return nil
}

// EnsureTableExists creates lab_test_cases. The labs table must exist first.
func (r *TestCaseRepository) EnsureTableExists(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s.%[2]s (
			test_case_id SERIAL PRIMARY KEY,
			id UUID NOT NULL UNIQUE,
			lab_id VARCHAR(100) NOT NULL REFERENCES %[1]s.labs(lab_id) ON DELETE CASCADE,
			test_name VARCHAR(255) NOT NULL,
			description TEXT,
			input_data JSONB NOT NULL DEFAULT '{}',
			expected_output JSONB NOT NULL DEFAULT '{}',
			initial_memory JSONB NOT NULL DEFAULT '{}',
			expected_memory JSONB NOT NULL DEFAULT '{}',
			points INTEGER NOT NULL DEFAULT 10 CHECK (points >= 0),
			is_hidden BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_%[2]s_lab_id ON %[1]s.%[2]s (lab_id);
	`, r.schema, tableName)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		r.logger.Error("Failed to create lab_test_cases table", "error", err)
		return fmt.Errorf("failed to create lab_test_cases table: %w", err)
	}
	return nil
}

func toRow(labID string, tc *domain.TestCase) (testCaseRow, error) {
	spec := tc.Spec()
	row := testCaseRow{
		ID:       tc.ID,
		LabID:    labID,
		Name:     spec.Name,
		Points:   spec.Points,
		IsHidden: spec.IsHidden,
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if spec.Description != "" {
		row.Description = sql.NullString{String: spec.Description, Valid: true}
	}

	var err error
	for _, f := range []struct {
		dst *[]byte
		src map[string]int64
	}{
		{&row.InputData, spec.InitialRegisters},
		{&row.ExpectedOutput, spec.ExpectedRegisters},
		{&row.InitialMemory, spec.InitialMemory},
		{&row.ExpectedMemory, spec.ExpectedMemory},
	} {
		if *f.dst, err = marshalState(f.src); err != nil {
			return testCaseRow{}, fmt.Errorf("failed to marshal test case %q: %w", spec.Name, err)
		}
	}
	return row, nil
}

func fromRow(row testCaseRow) (*domain.TestCase, error) {
	spec := domain.TestCaseSpec{
		Name:        row.Name,
		Description: row.Description.String,
		Points:      row.Points,
		IsHidden:    row.IsHidden,
	}

	for _, f := range []struct {
		dst *map[string]int64
		src []byte
	}{
		{&spec.InitialRegisters, row.InputData},
		{&spec.ExpectedRegisters, row.ExpectedOutput},
		{&spec.InitialMemory, row.InitialMemory},
		{&spec.ExpectedMemory, row.ExpectedMemory},
	} {
		if len(f.src) == 0 {
			continue
		}
		if err := json.Unmarshal(f.src, f.dst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal test case state: %w", err)
		}
	}

	tc, err := spec.Build(row.LabID)
	if err != nil {
		return nil, err
	}
	tc.ID = row.ID
	return tc, nil
}

func marshalState(state map[string]int64) ([]byte, error) {
	if state == nil {
		state = map[string]int64{}
	}
	return json.Marshal(state)
}
