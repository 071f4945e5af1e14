package labs

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/mips-autograder.net/internal/core/ports/primary"
	"gitlab.com/mips-autograder.net/internal/core/services/lab"
	"gitlab.com/mips-autograder.net/internal/domain"
	"gitlab.com/mips-autograder.net/internal/handlers"
	"gitlab.com/mips-autograder.net/internal/handlers/response"
)

// LabHandler handles lab catalogue requests
type LabHandler struct {
	labService lab.ILabService
	logger     primary.Logger
}

func NewLabHandler(labService lab.ILabService, logger primary.Logger) *LabHandler {
	return &LabHandler{
		labService: labService,
		logger:     logger,
	}
}

func (h *LabHandler) RegisterRoutes(router *mux.Router, mw *handlers.MiddlewareProvider) {
	optional := func(f http.HandlerFunc) http.Handler { return mw.OptionalJWTMiddleware(f) }
	required := func(f http.HandlerFunc) http.Handler { return mw.JWTMiddleware(f) }

	router.Handle("/api/labs", optional(h.ListLabs)).Methods("GET")
	router.Handle("/api/labs", required(h.CreateLab)).Methods("POST")
	router.Handle("/api/labs/{labId}", optional(h.GetLab)).Methods("GET")
	router.Handle("/api/labs/{labId}", required(h.UpdateLab)).Methods("PUT")
	router.Handle("/api/labs/{labId}", required(h.DeleteLab)).Methods("DELETE")
	router.Handle("/api/labs/{labId}/test-cases", required(h.ReplaceTestCases)).Methods("PUT")
}

func (h *LabHandler) ListLabs(w http.ResponseWriter, r *http.Request) {
	labs, err := h.labService.ListLabs(r.Context(), handlers.ViewerFromContext(r.Context()))
	if err != nil {
		response.FromError(w, h.logger, "Failed to list labs", err)
		return
	}
	response.WriteSuccess(w, map[string][]*domain.Lab{"labs": labs})
}

func (h *LabHandler) GetLab(w http.ResponseWriter, r *http.Request) {
	l, err := h.labService.GetLab(r.Context(), handlers.ViewerFromContext(r.Context()), mux.Vars(r)["labId"])
	if err != nil {
		response.FromError(w, h.logger, "Failed to get lab", err)
		return
	}
	response.WriteSuccess(w, l)
}

func (h *LabHandler) CreateLab(w http.ResponseWriter, r *http.Request) {
	var draft domain.LabDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		response.Fail(w, http.StatusBadRequest, "Invalid request")
		return
	}

	l, err := h.labService.CreateLab(r.Context(), handlers.ViewerFromContext(r.Context()), draft)
	if err != nil {
		response.FromError(w, h.logger, "Failed to create lab", err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, l)
}

func (h *LabHandler) UpdateLab(w http.ResponseWriter, r *http.Request) {
	var patch domain.LabPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.Fail(w, http.StatusBadRequest, "Invalid request")
		return
	}

	l, err := h.labService.UpdateLab(r.Context(), handlers.ViewerFromContext(r.Context()), mux.Vars(r)["labId"], patch)
	if err != nil {
		response.FromError(w, h.logger, "Failed to update lab", err)
		return
	}
	response.WriteSuccess(w, l)
}

func (h *LabHandler) DeleteLab(w http.ResponseWriter, r *http.Request) {
	err := h.labService.DeleteLab(r.Context(), handlers.ViewerFromContext(r.Context()), mux.Vars(r)["labId"])
	if err != nil {
		response.FromError(w, h.logger, "Failed to delete lab", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceTestCasesRequest is the body of PUT /api/labs/{labId}/test-cases
type ReplaceTestCasesRequest struct {
	TestCases []domain.TestCaseSpec `json:"test_cases"`
}

func (h *LabHandler) ReplaceTestCases(w http.ResponseWriter, r *http.Request) {
	var req ReplaceTestCasesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, http.StatusBadRequest, "Invalid request")
		return
	}

	labID := mux.Vars(r)["labId"]
	cases, err := h.labService.ReplaceTestCases(r.Context(), handlers.ViewerFromContext(r.Context()), labID, req.TestCases)
	if err != nil {
		response.FromError(w, h.logger, "Failed to replace test cases", err)
		return
	}

	specs := make([]domain.TestCaseSpec, 0, len(cases))
	for _, tc := range cases {
		specs = append(specs, tc.Spec())
	}
	response.WriteSuccess(w, map[string]interface{}{
		"lab_id":     labID,
		"test_cases": specs,
	})
}
