package handler

import (
	"encoding/json"
	"net/http"

	"classhub/internal/api/middleware"
	"classhub/internal/app/service"
	"classhub/internal/common"

	"github.com/go-chi/chi/v5"
)

type ClassroomHandler struct {
	classroomService  *service.ClassroomService
	membershipService *service.MembershipService
}

func NewClassroomHandler(cs *service.ClassroomService, ms *service.MembershipService) *ClassroomHandler {
	return &ClassroomHandler{classroomService: cs, membershipService: ms}
}

func (h *ClassroomHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)

	r.Get("/", h.listMine)
	r.Get("/{classroomID}", h.getByID)
	r.Get("/code/{code}", h.getByCode)

	r.Group(func(lecturer chi.Router) {
		lecturer.Use(middleware.LecturerOnly)
		lecturer.Post("/", h.create)
		lecturer.Get("/{classroomID}/students", h.listStudents)
	})

	r.Group(func(student chi.Router) {
		student.Use(middleware.StudentOnly)
		student.Post("/join", h.join)
	})
}

func (h *ClassroomHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateClassroomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if err := common.Validate.Struct(req); err != nil {
		common.RespondWithValidationError(w, err)
		return
	}

	classroom, err := h.classroomService.CreateClassroom(r.Context(), userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, classroom)
}

func (h *ClassroomHandler) listMine(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	role, _ := middleware.GetUserRoleFromContext(r.Context())

	classrooms, err := h.classroomService.ListMine(r.Context(), userID, role)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, classrooms)
}

func (h *ClassroomHandler) getByID(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	role, _ := middleware.GetUserRoleFromContext(r.Context())

	classroom, err := h.classroomService.GetByID(r.Context(), chi.URLParam(r, "classroomID"), userID, role)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, classroom)
}

func (h *ClassroomHandler) getByCode(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	role, _ := middleware.GetUserRoleFromContext(r.Context())

	classroom, err := h.classroomService.GetByCode(r.Context(), chi.URLParam(r, "code"), userID, role)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, classroom)
}

func (h *ClassroomHandler) join(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req struct {
		Code string `json:"code" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if err := common.Validate.Struct(req); err != nil {
		common.RespondWithValidationError(w, err)
		return
	}

	result, err := h.membershipService.Join(r.Context(), userID, req.Code)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, result)
}

func (h *ClassroomHandler) listStudents(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	students, err := h.membershipService.ListStudents(r.Context(), userID, chi.URLParam(r, "classroomID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, students)
}
