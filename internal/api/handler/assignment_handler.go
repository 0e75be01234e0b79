package handler

import (
	"encoding/json"
	"net/http"

	"classhub/internal/api/middleware"
	"classhub/internal/app/service"
	"classhub/internal/common"

	"github.com/go-chi/chi/v5"
)

type AssignmentHandler struct {
	assignmentService *service.AssignmentService
	submissionService *service.SubmissionService
}

func NewAssignmentHandler(as *service.AssignmentService, ss *service.SubmissionService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: as, submissionService: ss}
}

// Routes are nested under /classrooms/{classroomID}/assignments so every
// operation names the classroom it expects; the services verify the chain.
func (h *AssignmentHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)

	r.Get("/", h.list)
	r.Get("/{assignmentID}", h.get)

	r.Group(func(lecturer chi.Router) {
		lecturer.Use(middleware.LecturerOnly)
		lecturer.Post("/", h.create)
		lecturer.Get("/{assignmentID}/submissions", h.listSubmissions)
		lecturer.Post("/{assignmentID}/submissions/{submissionID}/grade", h.grade)
		lecturer.Post("/{assignmentID}/submissions/{submissionID}/return", h.returnSubmission)
	})
}

func (h *AssignmentHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if err := common.Validate.Struct(req); err != nil {
		common.RespondWithValidationError(w, err)
		return
	}

	assignment, err := h.assignmentService.Create(r.Context(), userID, chi.URLParam(r, "classroomID"), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, assignment)
}

func (h *AssignmentHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	role, _ := middleware.GetUserRoleFromContext(r.Context())

	assignments, err := h.assignmentService.ListByClassroom(r.Context(), chi.URLParam(r, "classroomID"), userID, role)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, assignments)
}

func (h *AssignmentHandler) get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	role, _ := middleware.GetUserRoleFromContext(r.Context())

	assignment, err := h.assignmentService.GetByID(
		r.Context(), chi.URLParam(r, "classroomID"), chi.URLParam(r, "assignmentID"), userID, role,
	)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, assignment)
}

func (h *AssignmentHandler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	submissions, err := h.submissionService.ListByAssignment(
		r.Context(), userID, chi.URLParam(r, "classroomID"), chi.URLParam(r, "assignmentID"),
	)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, submissions)
}

func (h *AssignmentHandler) grade(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	var req service.GradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if err := common.Validate.Struct(req); err != nil {
		common.RespondWithValidationError(w, err)
		return
	}

	submission, err := h.submissionService.Grade(
		r.Context(), userID,
		chi.URLParam(r, "classroomID"), chi.URLParam(r, "assignmentID"), chi.URLParam(r, "submissionID"),
		req,
	)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, submission)
}

func (h *AssignmentHandler) returnSubmission(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	submission, err := h.submissionService.Return(
		r.Context(), userID,
		chi.URLParam(r, "classroomID"), chi.URLParam(r, "assignmentID"), chi.URLParam(r, "submissionID"),
	)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, submission)
}
