package domain

import "time"

// Difficulty of a lab as shown in the catalogue
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Lab represents an assignment students submit assembly for
type Lab struct {
	LabID            string     `db:"lab_id" json:"lab_id"`
	Title            string     `db:"title" json:"title"`
	Description      *string    `db:"description" json:"description"`
	Instructions     string     `db:"instructions" json:"html"`
	StarterCode      *string    `db:"starter_code" json:"starter_code"`
	SolutionCode     *string    `db:"solution_code" json:"solution_code,omitempty"`
	Difficulty       Difficulty `db:"difficulty" json:"difficulty"`
	Points           int        `db:"points" json:"points"`
	MaxInstructions  int        `db:"max_instructions" json:"max_instructions"`
	TimeLimitSeconds int        `db:"time_limit_seconds" json:"time_limit_seconds"`
	DueDate          *time.Time `db:"due_date" json:"due_date"`
	IsPublished      bool       `db:"is_published" json:"is_published"`
	CreatedBy        *string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// TimeLimit returns the lab specific engine limit, zero when unset.
func (l *Lab) TimeLimit() time.Duration {
	if l == nil || l.TimeLimitSeconds <= 0 {
		return 0
	}
	return time.Duration(l.TimeLimitSeconds) * time.Second
}

const (
	DefaultLabPoints           = 100
	DefaultMaxInstructions     = 10000
	DefaultLabTimeLimitSeconds = 30
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// LabDraft is the body of a lab creation request.
type LabDraft struct {
	LabID            string     `json:"lab_id"`
	Title            string     `json:"title"`
	Description      *string    `json:"description"`
	Instructions     string     `json:"instructions"`
	StarterCode      *string    `json:"starter_code"`
	SolutionCode     *string    `json:"solution_code"`
	Difficulty       Difficulty `json:"difficulty"`
	Points           *int       `json:"points"`
	MaxInstructions  *int       `json:"max_instructions"`
	TimeLimitSeconds *int       `json:"time_limit_seconds"`
	DueDate          *time.Time `json:"due_date"`
	IsPublished      bool       `json:"is_published"`
}

// Lab fills in defaults for every omitted field.
func (d LabDraft) Lab() *Lab {
	lab := &Lab{
		LabID:            d.LabID,
		Title:            d.Title,
		Description:      d.Description,
		Instructions:     d.Instructions,
		StarterCode:      d.StarterCode,
		SolutionCode:     d.SolutionCode,
		Difficulty:       d.Difficulty,
		Points:           DefaultLabPoints,
		MaxInstructions:  DefaultMaxInstructions,
		TimeLimitSeconds: DefaultLabTimeLimitSeconds,
		DueDate:          d.DueDate,
		IsPublished:      d.IsPublished,
	}
	if lab.Difficulty == "" {
		lab.Difficulty = DifficultyBeginner
	}
	if d.Points != nil {
		lab.Points = *d.Points
	}
	if d.MaxInstructions != nil {
		lab.MaxInstructions = *d.MaxInstructions
	}
	if d.TimeLimitSeconds != nil {
		lab.TimeLimitSeconds = *d.TimeLimitSeconds
	}
	return lab
}

// LabPatch carries the optional fields of a lab update. Nil means unchanged.
type LabPatch struct {
	Title            *string     `json:"title"`
	Description      *string     `json:"description"`
	Instructions     *string     `json:"instructions"`
	StarterCode      *string     `json:"starter_code"`
	SolutionCode     *string     `json:"solution_code"`
	Difficulty       *Difficulty `json:"difficulty"`
	Points           *int        `json:"points"`
	TimeLimitSeconds *int        `json:"time_limit_seconds"`
	DueDate          *time.Time  `json:"due_date"`
	IsPublished      *bool       `json:"is_published"`
}

// Apply copies the set fields of p onto l.
func (p LabPatch) Apply(l *Lab) {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Description != nil {
		l.Description = p.Description
	}
	if p.Instructions != nil {
		l.Instructions = *p.Instructions
	}
	if p.StarterCode != nil {
		l.StarterCode = p.StarterCode
	}
	if p.SolutionCode != nil {
		l.SolutionCode = p.SolutionCode
	}
	if p.Difficulty != nil {
		l.Difficulty = *p.Difficulty
	}
	if p.Points != nil {
		l.Points = *p.Points
	}
	if p.TimeLimitSeconds != nil {
		l.TimeLimitSeconds = *p.TimeLimitSeconds
	}
	if p.DueDate != nil {
		l.DueDate = p.DueDate
	}
	if p.IsPublished != nil {
		l.IsPublished = *p.IsPublished
	}
}

type LabTable struct {
	LabID            string
	Title            string
	Description      string
	Instructions     string
	StarterCode      string
	SolutionCode     string
	Difficulty       string
	Points           string
	MaxInstructions  string
	TimeLimitSeconds string
	DueDate          string
	IsPublished      string
	CreatedBy        string
	CreatedAt        string
	UpdatedAt        string
}

func GetLabTable() LabTable {
	return LabTable{
		LabID:            "lab_id",
		Title:            "title",
		Description:      "description",
		Instructions:     "instructions",
		StarterCode:      "starter_code",
		SolutionCode:     "solution_code",
		Difficulty:       "difficulty",
		Points:           "points",
		MaxInstructions:  "max_instructions",
		TimeLimitSeconds: "time_limit_seconds",
		DueDate:          "due_date",
		IsPublished:      "is_published",
		CreatedBy:        "created_by",
		CreatedAt:        "created_at",
		UpdatedAt:        "updated_at",
	}
}

func (LabTable) TableName() string {
	return "labs"
}

// Columns lists every column in struct order.
func (t LabTable) Columns() []string {
	return []string{
		t.LabID, t.Title, t.Description, t.Instructions, t.StarterCode, t.SolutionCode,
		t.Difficulty, t.Points, t.MaxInstructions, t.TimeLimitSeconds, t.DueDate,
		t.IsPublished, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	}
}
