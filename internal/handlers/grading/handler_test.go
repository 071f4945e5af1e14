package grading

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/mips-autograder.net/internal/adapter/crypto"
	"gitlab.com/mips-autograder.net/internal/adapter/logging"
	"gitlab.com/mips-autograder.net/internal/adapter/static"
	"gitlab.com/mips-autograder.net/internal/config"
	"gitlab.com/mips-autograder.net/internal/core/services/grading"
	"gitlab.com/mips-autograder.net/internal/domain"
	"gitlab.com/mips-autograder.net/internal/handlers"
)

// sumExecutor behaves like a correct lab-12-2 solution: $s4 = $s0 + $s1 + $s2 - $s3.
type sumExecutor struct{}

func (sumExecutor) Execute(_ context.Context, req *domain.ExecutionRequest) *domain.ExecutionResult {
	regs := domain.RegisterState{}
	for r, v := range req.InitialRegisters {
		regs[r] = v
	}
	regs[domain.RegS4] = regs[domain.RegS0] + regs[domain.RegS1] + regs[domain.RegS2] - regs[domain.RegS3]
	return domain.NewExecutionSuccess(regs, nil)
}

// memorySubmissions keeps graded submissions for the lifetime of a test.
type memorySubmissions struct {
	saved []*domain.GradedSubmission
}

func (m *memorySubmissions) SaveGradedSubmission(_ context.Context, g *domain.GradedSubmission) error {
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
	return out, nil
}

type server struct {
	router *mux.Router
	jwt    *crypto.JWTServiceImpl
	subs   *memorySubmissions
}

func newServer(t *testing.T) *server {
	t.Helper()
	table, err := static.Builtin()
	require.NoError(t, err)

	logger := logging.NewNopLogger()
	engine := grading.NewEngine(sumExecutor{}, logger, time.Second)
	subs := &memorySubmissions{}
	svc := grading.NewGradingService(static.NewResolver(table), nil, subs, engine, logger)
	jwtSvc := crypto.NewJWTService(&config.JwtConfig{Secret: "handler-secret", TTL: time.Hour})

	r := mux.NewRouter()
	NewGradingHandler(svc, logger).RegisterRoutes(r, handlers.New(jwtSvc, logger))
	return &server{router: r, jwt: jwtSvc, subs: subs}
}

func (s *server) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *server) token(t *testing.T, role domain.Role) string {
	t.Helper()
	tok, err := s.jwt.GenerateTokenHMAC(context.Background(), "HS256", map[string]interface{}{
		"user_id": "6f1c0a9e-0000-4000-8000-000000000001",
		"role":    string(role),
	})
	require.NoError(t, err)
	return tok
}

func TestSubmit(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/grade/submit", `{"lab_id":"lab-12-2","source_code":"add $s4, $s0, $s1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "lab-12-2", resp.LabID)
	require.NotNil(t, resp.GradeReport)
	assert.Equal(t, 25, resp.GradeReport.EarnedPoints)
	assert.Equal(t, 25, resp.GradeReport.TotalPoints)
	assert.Equal(t, 100.0, resp.GradeReport.Percentage)
	assert.Equal(t, 3, resp.GradeReport.Passed)
	assert.Len(t, resp.GradeReport.Results, 3)
}

func TestSubmit_WrongFormula(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/grade/submit", `{"lab_id":"lab-12-3","source_code":"nop"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Contains(t, raw, "grade_report")

	var resp SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	first := resp.GradeReport.Results[0]
	assert.Equal(t, domain.TestStatusFail, first.Status)
	require.Len(t, first.Mismatches, 1)
	assert.Equal(t, "$s4", first.Mismatches[0].Field)
	assert.Equal(t, int32(18), first.Mismatches[0].Expected)
}

func TestSubmit_Errors(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"lab_id":`, http.StatusBadRequest},
		{"missing lab", `{"source_code":"nop"}`, http.StatusBadRequest},
		{"blank source", `{"lab_id":"lab-12-2","source_code":"   "}`, http.StatusBadRequest},
		{"unknown lab", `{"lab_id":"lab-99","source_code":"nop"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/grade/submit", tt.body, "")
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"success":false`)
		})
	}

	rec := s.do(t, http.MethodPost, "/api/grade/submit", `{"lab_id":"lab-12-2","source_code":"nop"}`, "forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTestCases(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/api/grade/test-cases/lab-12-2", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		LabID     string                   `json:"lab_id"`
		TestCases []map[string]interface{} `json:"test_cases"`
		Details   []domain.TestCaseSpec    `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Equal(t, "lab-12-2", listing.LabID)
	require.Len(t, listing.TestCases, 3)
	for _, tc := range listing.TestCases {
		assert.Len(t, tc, 3)
		assert.NotContains(t, tc, "expected_registers")
	}
	assert.Empty(t, listing.Details)

	rec = s.do(t, http.MethodGet, "/api/grade/test-cases/lab-12-2", "", s.token(t, domain.RoleInstructor))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Details, 3)
	assert.Equal(t, int64(7), listing.Details[0].ExpectedRegisters["$s4"])

	rec = s.do(t, http.MethodGet, "/api/grade/test-cases/lab-99", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmissions(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/api/grade/submissions", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/grade/submissions?lab_id=lab-12-2", "", s.token(t, domain.RoleStudent))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"submissions":[]}`, rec.Body.String())
}

// lab-12-3 has two hidden cases; sumExecutor fails all three of them.
func TestSubmit_HiddenResultsRedactedForStudents(t *testing.T) {
	s := newServer(t)
	body := `{"lab_id":"lab-12-3","source_code":"nop"}`

	for _, token := range []string{"", s.token(t, domain.RoleStudent)} {
		rec := s.do(t, http.MethodPost, "/api/grade/submit", body, token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), `"expected":-6`)
		assert.NotContains(t, rec.Body.String(), `"expected":0`)

		var resp SubmitResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		report := resp.GradeReport
		assert.Equal(t, 25, report.TotalPoints)
		assert.Equal(t, 3, report.Failed)
		require.Len(t, report.Results, 3)

		assert.False(t, report.Results[0].Hidden)
		assert.Len(t, report.Results[0].Mismatches, 1)
		for _, r := range report.Results[1:] {
			assert.True(t, r.Hidden)
			assert.Equal(t, domain.TestStatusFail, r.Status)
			assert.Equal(t, "Hidden test case", r.Message)
			assert.Empty(t, r.Mismatches)
		}
		assert.Equal(t, "Negative difference", report.Results[1].Name)
		assert.Equal(t, 10, report.Results[1].Points)
	}
}

func TestSubmit_HiddenResultsVisibleToInstructors(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/grade/submit", `{"lab_id":"lab-12-3","source_code":"nop"}`, s.token(t, domain.RoleInstructor))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	hidden := resp.GradeReport.Results[1]
	assert.True(t, hidden.Hidden)
	require.Len(t, hidden.Mismatches, 1)
	assert.Equal(t, int32(-6), hidden.Mismatches[0].Expected)
}

func TestSubmissions_HiddenResultsRedactedForStudents(t *testing.T) {
	s := newServer(t)
	student := s.token(t, domain.RoleStudent)

	rec := s.do(t, http.MethodPost, "/api/grade/submit", `{"lab_id":"lab-12-3","source_code":"nop"}`, student)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, s.subs.saved, 1)
	// the stored report keeps the full detail
	require.Len(t, s.subs.saved[0].Report.Results[1].Mismatches, 1)

	type listing struct {
		Submissions []*domain.GradedSubmission `json:"submissions"`
	}

	rec = s.do(t, http.MethodGet, "/api/grade/submissions?lab_id=lab-12-3", "", student)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"expected":-6`)
	var got listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Submissions, 1)
	assert.Empty(t, got.Submissions[0].Report.Results[1].Mismatches)
	assert.Equal(t, 25, got.Submissions[0].Report.TotalPoints)

	// same user id with an instructor role sees the detail
	rec = s.do(t, http.MethodGet, "/api/grade/submissions?lab_id=lab-12-3", "", s.token(t, domain.RoleInstructor))
	require.Equal(t, http.StatusOK, rec.Code)
	var full listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &full))
	require.Len(t, full.Submissions, 1)
	require.Len(t, full.Submissions[0].Report.Results[1].Mismatches, 1)
	assert.Equal(t, int32(-6), full.Submissions[0].Report.Results[1].Mismatches[0].Expected)
}
