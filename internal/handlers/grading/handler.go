package grading

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"gitlab.com/mips-autograder.net/internal/core/ports/primary"
	"gitlab.com/mips-autograder.net/internal/core/services/grading"
	"gitlab.com/mips-autograder.net/internal/domain"
	"gitlab.com/mips-autograder.net/internal/handlers"
	"gitlab.com/mips-autograder.net/internal/handlers/response"
)

// maxSourceBytes bounds a submission body.
const maxSourceBytes = 1 << 20

// GradingHandler handles submission and test case requests
type GradingHandler struct {
	gradingService grading.IGradingService
	logger         primary.Logger
}

func NewGradingHandler(gradingService grading.IGradingService, logger primary.Logger) *GradingHandler {
	return &GradingHandler{
		gradingService: gradingService,
		logger:         logger,
	}
}

func (h *GradingHandler) RegisterRoutes(router *mux.Router, mw *handlers.MiddlewareProvider) {
	router.Handle("/api/grade/submit", mw.OptionalJWTMiddleware(http.HandlerFunc(h.Submit))).Methods("POST")
	router.Handle("/api/grade/test-cases/{labId}", mw.OptionalJWTMiddleware(http.HandlerFunc(h.TestCases))).Methods("GET")
	router.Handle("/api/grade/submissions", mw.JWTMiddleware(http.HandlerFunc(h.Submissions))).Methods("GET")
}

// SubmitRequest is the body of POST /api/grade/submit
type SubmitRequest struct {
	LabID      string `json:"lab_id"`
	SourceCode string `json:"source_code"`
}

// SubmitResponse wraps the grade report of an accepted submission
type SubmitResponse struct {
	Success     bool                `json:"success"`
	LabID       string              `json:"lab_id"`
	GradeReport *domain.GradeReport `json:"grade_report"`
}

func (h *GradingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSourceBytes)).Decode(&req); err != nil {
		response.Fail(w, http.StatusBadRequest, "Invalid request")
		return
	}

	viewer := handlers.ViewerFromContext(r.Context())
	report, err := h.gradingService.Submit(r.Context(), viewer.UserID, req.LabID, req.SourceCode)
	if err != nil {
		response.FromError(w, h.logger, "Failed to grade submission", err)
		return
	}

	response.WriteSuccess(w, SubmitResponse{
		Success:     true,
		LabID:       strings.TrimSpace(req.LabID),
		GradeReport: report.VisibleTo(viewer.Role),
	})
}

func (h *GradingHandler) TestCases(w http.ResponseWriter, r *http.Request) {
	labID := mux.Vars(r)["labId"]
	listing, err := h.gradingService.TestCases(r.Context(), labID, handlers.ViewerFromContext(r.Context()))
	if err != nil {
		response.FromError(w, h.logger, "Failed to list test cases", err)
		return
	}
	response.WriteSuccess(w, listing)
}

func (h *GradingHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	viewer := handlers.ViewerFromContext(r.Context())
	subs, err := h.gradingService.Submissions(r.Context(), viewer.UserID, r.URL.Query().Get("lab_id"))
	if err != nil {
		response.FromError(w, h.logger, "Failed to list submissions", err)
		return
	}
	visible := make([]*domain.GradedSubmission, 0, len(subs))
	for _, sub := range subs {
		v := *sub
		v.Report = sub.Report.VisibleTo(viewer.Role)
		visible = append(visible, &v)
	}
	response.WriteSuccess(w, map[string][]*domain.GradedSubmission{"submissions": visible})
}
