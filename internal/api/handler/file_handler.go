package handler

import (
	"io"
	"net/http"
	"strings"

	"classhub/internal/api/middleware"
	"classhub/internal/common"
	"classhub/internal/platform/files"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 20 << 20 // homework PDFs; anything bigger is rejected

type FileHandler struct {
	store files.Store
}

func NewFileHandler(store files.Store) *FileHandler {
	return &FileHandler{store: store}
}

func (h *FileHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Use(middleware.StudentOnly)
	r.Post("/", h.upload)
}

// upload accepts a multipart "file" field and returns the opaque ref the
// student then passes to the submit endpoint.
func (h *FileHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart payload: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Missing file field: "+err.Error())
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		common.RespondWithError(w, http.StatusBadRequest, "Only PDF homework is accepted")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Failed to read file: "+err.Error())
		return
	}

	ref, err := h.store.Put(header.Filename, data)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]string{"file_ref": ref})
}
