package http

// this is entry point of the http request handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"gitlab.com/mips-autograder.net/internal/core/ports/primary"
	"gitlab.com/mips-autograder.net/internal/core/services/auth"
	"gitlab.com/mips-autograder.net/internal/core/services/grading"
	"gitlab.com/mips-autograder.net/internal/core/services/lab"
	"gitlab.com/mips-autograder.net/internal/handlers"
	authhandler "gitlab.com/mips-autograder.net/internal/handlers/auth"
	gradinghandler "gitlab.com/mips-autograder.net/internal/handlers/grading"
	"gitlab.com/mips-autograder.net/internal/handlers/labs"
)

type ServiceProvider struct {
	gradingService grading.IGradingService
	labService     lab.ILabService
	authService    auth.IAuthService
	jwtService     primary.JWTService
}

func NewServiceProvider(
	gradingService grading.IGradingService,
	labService lab.ILabService,
	authService auth.IAuthService,
	jwtService primary.JWTService,
) *ServiceProvider {
	return &ServiceProvider{
		gradingService: gradingService,
		labService:     labService,
		authService:    authService,
		jwtService:     jwtService,
	}
}

type Server struct {
	router          *mux.Router
	srv             *http.Server
	Port            int
	ServiceName     string
	ServiceProvider ServiceProvider
	logger          primary.Logger
}

func NewServer(port int, serviceName string, serviceProvider ServiceProvider, logger primary.Logger) *Server {
	return &Server{
		Port:            port,
		ServiceName:     serviceName,
		ServiceProvider: serviceProvider,
		logger:          logger,
	}
}

func (s *Server) Init() error {
	if s.ServiceProvider.gradingService == nil || s.ServiceProvider.jwtService == nil {
		return errors.New("grading and jwt services are required")
	}

	r := mux.NewRouter()
	mw := handlers.New(s.ServiceProvider.jwtService, s.logger)

	handlers.NewHealthHandler(s.ServiceName).RegisterRoutes(r)
	gradinghandler.
		NewGradingHandler(s.ServiceProvider.gradingService, s.logger).
		RegisterRoutes(r, mw)
	if s.ServiceProvider.labService != nil {
		labs.NewLabHandler(s.ServiceProvider.labService, s.logger).RegisterRoutes(r, mw)
	}
	if s.ServiceProvider.authService != nil {
		authhandler.NewHandler(s.ServiceProvider.authService, s.logger).RegisterRoutes(r, mw)
	}
	r.Use(s.accessLog)

	s.router = r
	s.srv = &http.Server{
		Addr:        fmt.Sprintf(":%d", s.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// grading runs one engine process per test case
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return nil
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Stop is called. It returns nil after a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	if s.srv == nil {
		return errors.New("server not initialised")
	}
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }

	s.logger.Info("Server listening", "addr", s.srv.Addr, "service", s.ServiceName)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve http: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down http server...")
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
