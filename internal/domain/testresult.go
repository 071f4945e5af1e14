package domain

import "math"

// TestStatus is the lifecycle state of one test case inside a grading run
type TestStatus string

const (
	TestStatusPending TestStatus = "PENDING"
	TestStatusRunning TestStatus = "RUNNING"
	TestStatusPass    TestStatus = "PASS"
	TestStatusFail    TestStatus = "FAIL"
	TestStatusError   TestStatus = "ERROR"
)

// IsTerminal returns true once a test case has left RUNNING.
func (s TestStatus) IsTerminal() bool {
	switch s {
	case TestStatusPass, TestStatusFail, TestStatusError:
		return true
	}
	return false
}

// Mismatch is one field whose actual value disagrees with the expectation.
type Mismatch struct {
	Field    string `json:"register"`
	Expected int32  `json:"expected"`
	Actual   *int32 `json:"actual"`
}

// TestResult represents the outcome of a single test case
type TestResult struct {
	Name       string     `json:"name"`
	Status     TestStatus `json:"status"`
	Points     int        `json:"points"`
	Earned     int        `json:"earned"`
	Message    string     `json:"message"`
	Mismatches []Mismatch `json:"mismatches"`
	// Hidden marks results of hidden test cases. It is stored with the report so
	// redaction still applies when a submission is read back.
	Hidden bool `json:"hidden,omitempty"`
}

// hiddenMessage replaces the diagnostic of a hidden result shown to students.
const hiddenMessage = "Hidden test case"

// redacted drops everything that could reveal a hidden case's expectations.
func (r TestResult) redacted() TestResult {
	r.Mismatches = []Mismatch{}
	r.Message = hiddenMessage
	return r
}

func PassResult(tc *TestCase) TestResult {
	return TestResult{
		Name:       tc.Name,
		Status:     TestStatusPass,
		Points:     tc.Points,
		Earned:     tc.Points,
		Message:    "All checks passed",
		Mismatches: []Mismatch{},
		Hidden:     tc.IsHidden,
	}
}

func FailResult(tc *TestCase, mismatches []Mismatch) TestResult {
	return TestResult{
		Name:       tc.Name,
		Status:     TestStatusFail,
		Points:     tc.Points,
		Earned:     0,
		Message:    "Some values incorrect",
		Mismatches: mismatches,
		Hidden:     tc.IsHidden,
	}
}

func ErrorResult(tc *TestCase, failure *ExecutionFailure) TestResult {
	msg := "Runtime error"
	if failure != nil {
		msg = "Runtime error: " + failure.String()
	}
	return TestResult{
		Name:       tc.Name,
		Status:     TestStatusError,
		Points:     tc.Points,
		Earned:     0,
		Message:    msg,
		Mismatches: []Mismatch{},
		Hidden:     tc.IsHidden,
	}
}

// GradeReport aggregates the results of one grading run
type GradeReport struct {
	EarnedPoints int          `json:"earned_points"`
	TotalPoints  int          `json:"total_points"`
	Percentage   float64      `json:"percentage"`
	Passed       int          `json:"passed"`
	Failed       int          `json:"failed"`
	Results      []TestResult `json:"results"`
}

// NewGradeReport aggregates results in order. ERROR counts as failed.
func NewGradeReport(results []TestResult) *GradeReport {
	report := &GradeReport{Results: results}
	if report.Results == nil {
		report.Results = []TestResult{}
	}
	for _, r := range results {
		report.TotalPoints += r.Points
		report.EarnedPoints += r.Earned
		if r.Status == TestStatusPass {
			report.Passed++
		} else {
			report.Failed++
		}
	}
	report.Percentage = Percentage(report.EarnedPoints, report.TotalPoints)
	return report
}

// VisibleTo returns the report as role may see it. Roles that manage labs get
// the report itself; everyone else gets a copy whose hidden results keep their
// name, status and points but lose mismatches and diagnostics.
func (r *GradeReport) VisibleTo(role Role) *GradeReport {
	if r == nil || role.CanManageLabs() {
		return r
	}
	out := *r
	out.Results = make([]TestResult, len(r.Results))
	for i, res := range r.Results {
		if res.Hidden {
			res = res.redacted()
		}
		out.Results[i] = res
	}
	return &out
}

// Percentage returns earned/total*100 rounded to one decimal, or 0 when total is 0.
func Percentage(earned, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(earned)/float64(total)*1000) / 10
}
