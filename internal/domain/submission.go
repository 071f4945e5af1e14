package domain

import (
	"time"

	"github.com/google/uuid"
)

// Submission represents assembly source handed in for a lab
type Submission struct {
	ID          uuid.UUID `db:"id" json:"submission_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	LabID       string    `db:"lab_id" json:"lab_id"`
	Code        string    `db:"source_code" json:"source_code"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
}

// NewSubmission creates a new submission
func NewSubmission(userID, labID, code string) *Submission {
	return &Submission{
		ID:          uuid.New(),
		UserID:      userID,
		LabID:       labID,
		Code:        code,
		SubmittedAt: time.Now(),
	}
}

// GradedSubmission is a submission together with the report it produced.
type GradedSubmission struct {
	Submission
	Report *GradeReport `json:"grade_report"`
}

type SubmissionTable struct {
	ID           string
	UserID       string
	LabID        string
	Code         string
	EarnedPoints string
	TotalPoints  string
	Percentage   string
	Report       string
	ReportDigest string
	SubmittedAt  string
}

func GetSubmissionTable() SubmissionTable {
	return SubmissionTable{
		ID:           "id",
		UserID:       "user_id",
		LabID:        "lab_id",
		Code:         "source_code",
		EarnedPoints: "earned_points",
		TotalPoints:  "total_points",
		Percentage:   "percentage",
		Report:       "report",
		ReportDigest: "report_digest",
		SubmittedAt:  "submitted_at",
	}
}

func (SubmissionTable) TableName() string {
	return "submissions"
}
