package handlers

import (
	"context"
	"net/http"
	"strings"

	"gitlab.com/mips-autograder.net/internal/core/ports/primary"
	"gitlab.com/mips-autograder.net/internal/domain"
	"gitlab.com/mips-autograder.net/internal/handlers/response"
)

type ctxKey struct{}

type MiddlewareProvider struct {
	jwtService primary.JWTService
	logger     primary.Logger
}

func New(jwtService primary.JWTService, logger primary.Logger) *MiddlewareProvider {
	return &MiddlewareProvider{
		jwtService: jwtService,
		logger:     logger,
	}
}

func (m *MiddlewareProvider) JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Fail(w, http.StatusUnauthorized, "Authorization header missing")
			return
		}

		// Extract token from "Bearer <token>"
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		payload, err := m.jwtService.ParseTokenHMAC(r.Context(), tokenString)
		if err != nil {
			m.logger.Debug("Rejected token", "error", err)
			response.Fail(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPayload(r.Context(), payload)))
	})
}

// OptionalJWTMiddleware attaches the token payload when a valid bearer token is
// present and serves the request anonymously otherwise.
func (m *MiddlewareProvider) OptionalJWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		payload, err := m.jwtService.ParseTokenHMAC(r.Context(), tokenString)
		if err != nil {
			response.Fail(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPayload(r.Context(), payload)))
	})
}

func WithPayload(ctx context.Context, payload domain.AuthPayload) context.Context {
	return context.WithValue(ctx, ctxKey{}, payload)
}

// PayloadFromContext returns the verified token payload put there by JWTMiddleware.
func PayloadFromContext(ctx context.Context) (domain.AuthPayload, bool) {
	payload, ok := ctx.Value(ctxKey{}).(domain.AuthPayload)
	return payload, ok
}

// ViewerFromContext returns the caller's identity, or an anonymous student.
func ViewerFromContext(ctx context.Context) domain.Viewer {
	payload, ok := PayloadFromContext(ctx)
	if !ok {
		return domain.Viewer{Role: domain.RoleStudent}
	}
	return payload.Viewer()
}
