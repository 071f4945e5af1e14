package auth

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/mips-autograder.net/internal/core/ports/primary"
	"gitlab.com/mips-autograder.net/internal/core/services/auth"
	"gitlab.com/mips-autograder.net/internal/domain"
	"gitlab.com/mips-autograder.net/internal/handlers"
	"gitlab.com/mips-autograder.net/internal/handlers/response"
)

type Handler struct {
	authService auth.IAuthService
	logger      primary.Logger
}

func NewHandler(authService auth.IAuthService, logger primary.Logger) *Handler {
	return &Handler{
		authService: authService,
		logger:      logger,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router, mw *handlers.MiddlewareProvider) {
	router.HandleFunc("/api/auth/signup", h.Signup).Methods("POST")
	router.HandleFunc("/api/auth/login", h.Login).Methods("POST")
	router.Handle("/api/auth/me", mw.JWTMiddleware(http.HandlerFunc(h.Me))).Methods("GET")
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, http.StatusBadRequest, "Invalid request")
		return
	}

	resp, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		response.FromError(w, h.logger, "Failed to sign up", err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, http.StatusBadRequest, "Invalid request")
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		response.FromError(w, h.logger, "Failed to log in", err)
		return
	}
	response.WriteSuccess(w, resp)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	payload, _ := handlers.PayloadFromContext(r.Context())
	user, err := h.authService.Me(r.Context(), payload.UserID)
	if err != nil {
		response.FromError(w, h.logger, "Failed to load user", err)
		return
	}
	response.WriteSuccess(w, map[string]*domain.Users{"user": user})
}
