package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/moodyshaheen/protfolio/errs"
	"github.com/moodyshaheen/protfolio/models"
	"github.com/moodyshaheen/protfolio/services"
	"github.com/moodyshaheen/protfolio/storage"
)

// generous headroom above the asset cap so oversized uploads reach the
// store and get the proper too-large rejection instead of a truncated read
const multipartOverhead = 10 << 20

type projectHandler struct {
	responder      Responder
	logger         zerolog.Logger
	projectService *services.ProjectService
	maxUploadBytes int64
}

func newProjectHandler(projectService *services.ProjectService, maxUploadBytes int64) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder:      NewResponder(logger),
		logger:         logger,
		projectService: projectService,
		maxUploadBytes: maxUploadBytes,
	}
}

// getAllProjects retrieves all projects, newest first
func (h projectHandler) getAllProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := h.projectService.List()
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if projects == nil {
			projects = []*models.Project{}
		}
		h.responder.WriteJSON(w, projects)
	}
}

// getProject retrieves a specific project by ID
func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := parseProjectID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projectService.Get(projectID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, project)
	}
}

// createProject creates a new project from a multipart form, image optional
func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.parseForm(w, r); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		upload, err := h.readUpload(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		input := services.NewProject{
			Title:        r.FormValue("title"),
			Description:  r.FormValue("description"),
			GithubLink:   r.FormValue("githubLink"),
			VideoLink:    r.FormValue("videoLink"),
			Technologies: parseTechnologies(r.FormValue("technologies")),
		}

		project, err := h.projectService.Create(input, upload)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		h.responder.WriteJSON(w, project)
	}
}

// updateProject applies a partial multipart update; only supplied fields change
func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := parseProjectID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.parseForm(w, r); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		upload, err := h.readUpload(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		update := services.ProjectUpdate{
			Title:       formValue(r, "title"),
			Description: formValue(r, "description"),
			GithubLink:  formValue(r, "githubLink"),
			VideoLink:   formValue(r, "videoLink"),
		}
		if raw := formValue(r, "technologies"); raw != nil && *raw != "" {
			techs := parseTechnologies(*raw)
			update.Technologies = &techs
		}

		project, err := h.projectService.Update(projectID, update, upload)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, project)
	}
}

// deleteProject deletes a project and its stored image
func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := parseProjectID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.projectService.Delete(projectID); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "project deleted successfully",
		})
	}
}

func parseProjectID(r *http.Request) (uuid.UUID, error) {
	projectIDStr := chi.URLParam(r, "projectID")
	if projectIDStr == "" {
		return uuid.Nil, errs.NewBadRequestError("missing projectID")
	}

	projectID, err := uuid.Parse(projectIDStr)
	if err != nil {
		return uuid.Nil, errs.NewBadRequestError("invalid projectID")
	}
	return projectID, nil
}

func (h projectHandler) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse multipart form")
		return errs.NewBadRequestError("expected multipart form data")
	}
	return nil
}

// readUpload pulls the optional image file out of the form. A missing file
// part means "no image", not an error.
func (h projectHandler) readUpload(r *http.Request) (*storage.Upload, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewBadRequestError("invalid image upload")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read uploaded file")
		return nil, errs.NewBadRequestError("failed to read uploaded file")
	}

	return &storage.Upload{
		Bytes:        data,
		ContentType:  header.Header.Get("Content-Type"),
		OriginalName: header.Filename,
	}, nil
}

// formValue reports whether a field was present in the form at all,
// distinguishing "absent" from "supplied as empty" for partial updates.
func formValue(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

// parseTechnologies decodes the JSON-encoded array carried inside a form
// field. Malformed JSON is treated as an empty list.
func parseTechnologies(value string) []string {
	if value == "" {
		return []string{}
	}
	var parsed []string
	if err := json.Unmarshal([]byte(value), &parsed); err != nil || parsed == nil {
		return []string{}
	}
	return parsed
}
