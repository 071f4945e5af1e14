package grading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/mips-autograder.net/internal/adapter/logging"
	"gitlab.com/mips-autograder.net/internal/core/ports/secondary"
	"gitlab.com/mips-autograder.net/internal/domain"
	"gitlab.com/mips-autograder.net/internal/static/errs"
)

type stubResolver struct {
	cases map[string][]*domain.TestCase
	err   error
}

func (s *stubResolver) Name() string { return "stub" }

func (s *stubResolver) Resolve(_ context.Context, labID string) ([]*domain.TestCase, error) {
	return s.cases[labID], s.err
}

type stubLabRepo struct {
	labs map[string]*domain.Lab
	err  error
}

func (s *stubLabRepo) GetLab(_ context.Context, labID string) (*domain.Lab, error) {
	return s.labs[labID], s.err
}
func (s *stubLabRepo) ListLabs(context.Context, bool) ([]*domain.Lab, error) { return nil, nil }
func (s *stubLabRepo) CreateLab(context.Context, *domain.Lab) error          { return nil }
func (s *stubLabRepo) UpdateLab(context.Context, *domain.Lab) error          { return nil }
func (s *stubLabRepo) DeleteLab(context.Context, string) (bool, error)       { return false, nil }

type memorySubmissions struct {
	saved []*domain.GradedSubmission
	err   error
}

func (m *memorySubmissions) SaveGradedSubmission(_ context.Context, g *domain.GradedSubmission) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, g)
	return nil
}

func (m *memorySubmissions) ListGradedSubmissions(_ context.Context, userID, labID string) ([]*domain.GradedSubmission, error) {
	var out []*domain.GradedSubmission
	for _, g := range m.saved {
		if g.UserID == userID && (labID == "" || g.LabID == labID) {
			out = append(out, g)
		}
	}
	return out, m.err
}

func newService(exec *scriptedExecutor, labs *stubLabRepo, subs *memorySubmissions) *GradingService {
	resolver := &stubResolver{cases: map[string][]*domain.TestCase{
		"lab-12-2": {
			testCase("Example", 4, map[string]int64{"$s4": 7}),
			testCase("Hidden", 3, map[string]int64{"$s4": 18}),
		},
	}}
	engine := NewEngine(exec, logging.NewNopLogger(), 10*time.Second)

	// typed nil pointers must not leak into the interfaces
	var labRepo secondary.LabRepository
	if labs != nil {
		labRepo = labs
	}
	var subRepo secondary.SubmissionRepository
	if subs != nil {
		subRepo = subs
	}
	return NewGradingService(resolver, labRepo, subRepo, engine, logging.NewNopLogger())
}

func TestSubmit_GradesAndPersists(t *testing.T) {
	exec := &scriptedExecutor{results: []*domain.ExecutionResult{
		domain.NewExecutionSuccess(regs(map[string]int64{"$s4": 7}), nil),
		domain.NewExecutionSuccess(regs(map[string]int64{"$s4": 17}), nil),
	}}
	subs := &memorySubmissions{}
	svc := newService(exec, nil, subs)

	report, err := svc.Submit(context.Background(), "user-1", " lab-12-2 ", "add $s4, $s0, $s1")
	require.NoError(t, err)
	assert.Equal(t, 57.1, report.Percentage)

	require.Len(t, subs.saved, 1)
	assert.Equal(t, "user-1", subs.saved[0].UserID)
	assert.Equal(t, "lab-12-2", subs.saved[0].LabID)
	assert.Same(t, report, subs.saved[0].Report)

	listed, err := svc.Submissions(context.Background(), "user-1", "lab-12-2")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestSubmit_MarksHiddenResults(t *testing.T) {
	hidden := testCase("Hidden", 3, map[string]int64{"$s4": 18})
	hidden.IsHidden = true
	resolver := &stubResolver{cases: map[string][]*domain.TestCase{
		"lab-12-2": {testCase("Example", 4, map[string]int64{"$s4": 7}), hidden},
	}}
	exec := &scriptedExecutor{results: []*domain.ExecutionResult{
		domain.NewExecutionSuccess(regs(map[string]int64{"$s4": 99}), nil),
		domain.NewExecutionSuccess(regs(map[string]int64{"$s4": 99}), nil),
	}}
	subs := &memorySubmissions{}
	engine := NewEngine(exec, logging.NewNopLogger(), time.Second)
	svc := NewGradingService(resolver, nil, subs, engine, logging.NewNopLogger())

	report, err := svc.Submit(context.Background(), "user-1", "lab-12-2", "code")
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.False(t, report.Results[0].Hidden)
	assert.True(t, report.Results[1].Hidden)
	// stored in full; callers redact per viewer
	require.Len(t, subs.saved, 1)
	require.Len(t, subs.saved[0].Report.Results[1].Mismatches, 1)
	assert.Equal(t, int32(18), subs.saved[0].Report.Results[1].Mismatches[0].Expected)

	student := report.VisibleTo(domain.RoleStudent)
	assert.Empty(t, student.Results[1].Mismatches)
	assert.Equal(t, report.EarnedPoints, student.EarnedPoints)
}

func TestSubmit_Validation(t *testing.T) {
	exec := &scriptedExecutor{}
	svc := newService(exec, nil, nil)

	_, err := svc.Submit(context.Background(), "u", "", "code")
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = svc.Submit(context.Background(), "u", "lab-12-2", "   \n")
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Zero(t, exec.calls())
}

func TestSubmit_UnknownLab(t *testing.T) {
	exec := &scriptedExecutor{}
	svc := newService(exec, nil, nil)

	_, err := svc.Submit(context.Background(), "u", "lab-99", "code")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Zero(t, exec.calls())
}

func TestSubmit_UsesLabTimeLimit(t *testing.T) {
	exec := &scriptedExecutor{}
	labs := &stubLabRepo{labs: map[string]*domain.Lab{
		"lab-12-2": {LabID: "lab-12-2", TimeLimitSeconds: 3},
	}}
	svc := newService(exec, labs, nil)

	_, err := svc.Submit(context.Background(), "u", "lab-12-2", "code")
	require.NoError(t, err)
	require.Equal(t, 2, exec.calls())
	assert.Equal(t, 3*time.Second, exec.requests[0].TimeLimit)
}

func TestSubmit_LabLookupFailureFallsBackToDefault(t *testing.T) {
	exec := &scriptedExecutor{}
	svc := newService(exec, &stubLabRepo{err: errors.New("db down")}, nil)

	_, err := svc.Submit(context.Background(), "u", "lab-12-2", "code")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, exec.requests[0].TimeLimit)
}

func TestSubmit_PersistenceFailureIsNotFatal(t *testing.T) {
	exec := &scriptedExecutor{}
	svc := newService(exec, nil, &memorySubmissions{err: errors.New("disk full")})

	report, err := svc.Submit(context.Background(), "u", "lab-12-2", "code")
	require.NoError(t, err)
	assert.NotNil(t, report)
}

func TestTestCases_SanitizedForStudents(t *testing.T) {
	svc := newService(&scriptedExecutor{}, nil, nil)

	listing, err := svc.TestCases(context.Background(), "lab-12-2", domain.Viewer{UserID: "s", Role: domain.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, []domain.TestCaseSummary{
		{Name: "Example", Points: 4},
		{Name: "Hidden", Points: 3},
	}, listing.TestCases)
	assert.Nil(t, listing.Details)
}

func TestTestCases_DetailsForInstructors(t *testing.T) {
	svc := newService(&scriptedExecutor{}, nil, nil)

	listing, err := svc.TestCases(context.Background(), "lab-12-2", domain.Viewer{UserID: "i", Role: domain.RoleInstructor})
	require.NoError(t, err)
	require.Len(t, listing.Details, 2)
	assert.Equal(t, map[string]int64{"$s4": 18}, listing.Details[1].ExpectedRegisters)
}

func TestTestCases_ResolverError(t *testing.T) {
	engine := NewEngine(&scriptedExecutor{}, logging.NewNopLogger(), time.Second)
	svc := NewGradingService(&stubResolver{err: errors.New("boom")}, nil, nil, engine, logging.NewNopLogger())

	_, err := svc.TestCases(context.Background(), "lab-12-2", domain.Viewer{})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errs.ErrNotFound)
}

func TestSubmissions_NoRepository(t *testing.T) {
	svc := newService(&scriptedExecutor{}, nil, nil)
	out, err := svc.Submissions(context.Background(), "u", "")
	require.NoError(t, err)
	assert.Empty(t, out)
}
