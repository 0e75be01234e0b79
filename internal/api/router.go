package api

import (
	"net/http"
	"time"

	"classhub/internal/api/handler"
	"classhub/internal/app/service"
	"classhub/internal/common/security"
	"classhub/internal/platform/files"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	classroomService *service.ClassroomService,
	membershipService *service.MembershipService,
	assignmentService *service.AssignmentService,
	submissionService *service.SubmissionService,
	fileStore files.Store,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies a bearer token when present and puts claims in context; the
	// Authenticator middleware on protected subtrees enforces it.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(authService)
		v1.Route("/auth", authHandler.RegisterRoutes)

		classroomHandler := handler.NewClassroomHandler(classroomService, membershipService)
		v1.Route("/classrooms", classroomHandler.RegisterRoutes)

		assignmentHandler := handler.NewAssignmentHandler(assignmentService, submissionService)
		v1.Route("/classrooms/{classroomID}/assignments", assignmentHandler.RegisterRoutes)

		submissionHandler := handler.NewSubmissionHandler(submissionService)
		v1.Route("/assignments/{assignmentID}/submissions", submissionHandler.RegisterRoutes)

		fileHandler := handler.NewFileHandler(fileStore)
		v1.Route("/files", fileHandler.RegisterRoutes)
	})

	return r
}
