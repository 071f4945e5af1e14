package submissionrepository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	cyberphone "github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"github.com/jmoiron/sqlx"

	"gitlab.com/mips-autograder.net/internal/adapter/postgres"
	"gitlab.com/mips-autograder.net/internal/core/ports/primary"
	"gitlab.com/mips-autograder.net/internal/core/ports/secondary"
	"gitlab.com/mips-autograder.net/internal/domain"
	querybuilder "gitlab.com/mips-autograder.net/internal/utils"
)

const listLimit = 100

var _ secondary.SubmissionRepository = (*SubmissionRepository)(nil)

// SubmissionRepository stores graded submissions in PostgreSQL
type SubmissionRepository struct {
	db     *sqlx.DB
	logger primary.Logger
	schema string
}

func NewSubmissionRepository(db *sqlx.DB, logger primary.Logger, schema string) *SubmissionRepository {
	return &SubmissionRepository{
		db:     db,
		logger: logger,
		schema: postgres.Schema(schema),
	}
}

type submissionRow struct {
	domain.Submission
	Report []byte `db:"report"`
}

// SaveGradedSubmission inserts the submission with its report as canonical JSON
// plus a digest, so identical reports are byte-identical in storage.
func (r *SubmissionRepository) SaveGradedSubmission(ctx context.Context, graded *domain.GradedSubmission) error {
	report, digest, err := canonicalReport(graded.Report)
	if err != nil {
		r.logger.Error("Failed to encode grade report", "submission_id", graded.ID, "error", err)
		return err
	}

	subTbl := domain.GetSubmissionTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Insert(
			subTbl.ID, subTbl.UserID, subTbl.LabID, subTbl.Code,
			subTbl.EarnedPoints, subTbl.TotalPoints, subTbl.Percentage,
			subTbl.Report, subTbl.ReportDigest, subTbl.SubmittedAt,
		).
		Into(subTbl.TableName()).
		Values(
			graded.ID, graded.UserID, graded.LabID, graded.Code,
			graded.Report.EarnedPoints, graded.Report.TotalPoints, graded.Report.Percentage,
			report, digest, graded.SubmittedAt,
		).
		Build()

	if _, err := r.db.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		r.logger.Error("Failed to save submission", "submission_id", graded.ID, "error", err)
		return fmt.Errorf("failed to save submission: %w", err)
	}

	r.logger.Debug("Saved graded submission", "submission_id", graded.ID, "lab_id", graded.LabID, "digest", digest)
	return nil
}

// ListGradedSubmissions returns the most recent submissions of a user
func (r *SubmissionRepository) ListGradedSubmissions(ctx context.Context, userID, labID string) ([]*domain.GradedSubmission, error) {
	subTbl := domain.GetSubmissionTable()
	qb := querybuilder.NewQueryBuilder(r.schema).
		Select(subTbl.ID, subTbl.UserID, subTbl.LabID, subTbl.Code, subTbl.Report, subTbl.SubmittedAt).
		From(subTbl.TableName()).
		Where(fmt.Sprintf("%s = ?", subTbl.UserID), userID)
	if labID != "" {
		qb = qb.And(fmt.Sprintf("%s = ?", subTbl.LabID), labID)
	}
	query, args := qb.OrderBy(subTbl.SubmittedAt, false).Limit(listLimit).Build()

	var rows []submissionRow
	if err := r.db.SelectContext(ctx, &rows, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		r.logger.Error("Failed to list submissions", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	out := make([]*domain.GradedSubmission, 0, len(rows))
	for _, row := range rows {
		var report domain.GradeReport
		if err := json.Unmarshal(row.Report, &report); err != nil {
			r.logger.Error("Failed to unmarshal grade report", "submission_id", row.ID, "error", err)
			return nil, fmt.Errorf("failed to unmarshal grade report: %w", err)
		}
		out = append(out, &domain.GradedSubmission{Submission: row.Submission, Report: &report})
	}
	return out, nil
}

// EnsureTableExists creates the submissions table
func (r *SubmissionRepository) EnsureTableExists(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s.submissions (
			id UUID PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			lab_id VARCHAR(100) NOT NULL,
			source_code TEXT NOT NULL,
			earned_points INTEGER NOT NULL,
			total_points INTEGER NOT NULL,
			percentage REAL NOT NULL,
			report JSONB NOT NULL,
			report_digest CHAR(64) NOT NULL,
			submitted_at TIMESTAMP WITH TIME ZONE NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_submissions_user_lab ON %[1]s.submissions (user_id, lab_id, submitted_at DESC);
	`, r.schema)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		r.logger.Error("Failed to create submissions table", "error", err)
		return fmt.Errorf("failed to create submissions table: %w", err)
	}
	return nil
}

// canonicalReport returns the RFC 8785 form of report and its hex SHA-256.
func canonicalReport(report *domain.GradeReport) ([]byte, string, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal grade report: %w", err)
	}
	canonical, err := cyberphone.Transform(raw)
	if err != nil {
		return nil, "", fmt.Errorf("failed to canonicalize grade report: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return canonical, hex.EncodeToString(sum[:]), nil
}
