package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/moodyshaheen/protfolio/models"
	"github.com/moodyshaheen/protfolio/services"
	"github.com/moodyshaheen/protfolio/storage"
)

// memoryRepo is a minimal in-memory services.ProjectRepo for handler tests.
type memoryRepo struct {
	projects map[uuid.UUID]*models.Project
	clock    time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		projects: make(map[uuid.UUID]*models.Project),
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *memoryRepo) FindAll() ([]*models.Project, error) {
	all := make([]*models.Project, 0, len(r.projects))
	for _, p := range r.projects {
		copied := *p
		all = append(all, &copied)
	}
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if all[j].CreatedAt.After(all[i].CreatedAt) {
				all[i], all[j] = all[j], all[i]
			}
		}
	}
	return all, nil
}

func (r *memoryRepo) FindByID(id uuid.UUID) (*models.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (r *memoryRepo) Add(project *models.Project) error {
	r.clock = r.clock.Add(time.Second)
	project.CreatedAt = r.clock
	project.UpdatedAt = r.clock
	copied := *project
	r.projects[project.ID] = &copied
	return nil
}

func (r *memoryRepo) Update(project *models.Project) error {
	r.clock = r.clock.Add(time.Second)
	project.UpdatedAt = r.clock
	copied := *project
	r.projects[project.ID] = &copied
	return nil
}

func (r *memoryRepo) Delete(id uuid.UUID) error {
	delete(r.projects, id)
	return nil
}

func newTestRouter(t *testing.T) (*chi.Mux, *storage.DiskStore) {
	t.Helper()

	store, err := storage.NewDiskStore(t.TempDir(), 10<<20)
	if err != nil {
		t.Fatalf("failed to create disk store: %v", err)
	}

	projectService := services.NewProjectService(newMemoryRepo(), store)
	handlers := &routeHandlers{
		projectHandler:     newProjectHandler(projectService, 10<<20),
		maintenanceHandler: newMaintenanceHandler(projectService),
	}

	router := chi.NewRouter()
	router.Use(LogInternalServerErrors)
	setupRoutes(router, handlers, store)
	return router, store
}

// multipartBody builds a multipart form with plain fields and an optional file part.
func multipartBody(t *testing.T, fields map[string]string, fileName, fileType string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write field %s: %v", key, err)
		}
	}

	if fileName != "" {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, fileName))
		header.Set("Content-Type", fileType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		if _, err := part.Write(fileData); err != nil {
			t.Fatalf("failed to write file part: %v", err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func doRequest(router *chi.Mux, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createProject(t *testing.T, router *chi.Mux, fields map[string]string, fileName, fileType string, fileData []byte) models.Project {
	t.Helper()

	body, contentType := multipartBody(t, fields, fileName, fileType, fileData)
	rec := doRequest(router, http.MethodPost, "/projects", body, contentType)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}

	var project models.Project
	if err := json.Unmarshal(rec.Body.Bytes(), &project); err != nil {
		t.Fatalf("failed to decode created project: %v", err)
	}
	return project
}

func TestCreateProjectEndpoint(t *testing.T) {
	t.Run("with image returns 201 and a servable reference", func(t *testing.T) {
		router, _ := newTestRouter(t)
		content := []byte("png bytes")

		project := createProject(t, router, map[string]string{
			"title":        "Demo",
			"description":  "d",
			"githubLink":   "https://github.com/x/demo",
			"technologies": `["Go","React"]`,
		}, "shot.png", "image/png", content)

		if project.Title != "Demo" || project.GithubLink != "https://github.com/x/demo" {
			t.Errorf("unexpected project fields: %+v", project)
		}
		if got := project.TechnologyList(); len(got) != 2 || got[0] != "Go" {
			t.Errorf("technologies = %v, want [Go React]", got)
		}
		if project.Image == "" {
			t.Fatal("expected image reference")
		}

		// the stored asset must be served back byte-identical
		rec := doRequest(router, http.MethodGet, project.Image, nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("asset fetch returned %d", rec.Code)
		}
		if !bytes.Equal(rec.Body.Bytes(), content) {
			t.Error("served asset differs from upload")
		}
	})

	t.Run("missing title returns 400", func(t *testing.T) {
		router, _ := newTestRouter(t)

		body, contentType := multipartBody(t, map[string]string{"description": "d"}, "", "", nil)
		rec := doRequest(router, http.MethodPost, "/projects", body, contentType)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("text file as image returns 400 and creates nothing", func(t *testing.T) {
		router, store := newTestRouter(t)

		body, contentType := multipartBody(t, map[string]string{
			"title":       "Demo",
			"description": "d",
		}, "notes.txt", "text/plain", []byte("plain text"))
		rec := doRequest(router, http.MethodPost, "/projects", body, contentType)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}

		refs, err := store.List()
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(refs) != 0 {
			t.Errorf("no file should be left behind, found %v", refs)
		}

		list := doRequest(router, http.MethodGet, "/projects", nil, "")
		if list.Body.String() != "[]" {
			t.Errorf("expected empty listing, got %s", list.Body.String())
		}
	})

	t.Run("malformed technologies JSON is treated as empty", func(t *testing.T) {
		router, _ := newTestRouter(t)

		project := createProject(t, router, map[string]string{
			"title":        "Demo",
			"description":  "d",
			"technologies": `{broken`,
		}, "", "", nil)

		if got := project.TechnologyList(); len(got) != 0 {
			t.Errorf("technologies = %v, want empty", got)
		}
	})

	t.Run("non-multipart body returns 400", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := doRequest(router, http.MethodPost, "/projects", bytes.NewBufferString(`{"title":"Demo"}`), "application/json")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestGetProjectEndpoints(t *testing.T) {
	t.Run("listing is newest first", func(t *testing.T) {
		router, _ := newTestRouter(t)

		createProject(t, router, map[string]string{"title": "first", "description": "d"}, "", "", nil)
		createProject(t, router, map[string]string{"title": "second", "description": "d"}, "", "", nil)

		rec := doRequest(router, http.MethodGet, "/projects", nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("list returned %d", rec.Code)
		}

		var projects []models.Project
		if err := json.Unmarshal(rec.Body.Bytes(), &projects); err != nil {
			t.Fatalf("failed to decode listing: %v", err)
		}
		if len(projects) != 2 {
			t.Fatalf("expected 2 projects, got %d", len(projects))
		}
		if projects[0].Title != "second" || projects[1].Title != "first" {
			t.Errorf("listing not newest first: %s, %s", projects[0].Title, projects[1].Title)
		}
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := doRequest(router, http.MethodGet, "/projects/"+uuid.NewString(), nil, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("malformed id returns 400", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := doRequest(router, http.MethodGet, "/projects/not-a-uuid", nil, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestUpdateProjectEndpoint(t *testing.T) {
	t.Run("partial update touches only supplied fields", func(t *testing.T) {
		router, _ := newTestRouter(t)

		created := createProject(t, router, map[string]string{
			"title":        "Demo",
			"description":  "d",
			"technologies": `["Go","React"]`,
		}, "", "", nil)

		body, contentType := multipartBody(t, map[string]string{"videoLink": "https://x"}, "", "", nil)
		rec := doRequest(router, http.MethodPut, "/projects/"+created.ID.String(), body, contentType)
		if rec.Code != http.StatusOK {
			t.Fatalf("update returned %d: %s", rec.Code, rec.Body.String())
		}

		var updated models.Project
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("failed to decode updated project: %v", err)
		}
		if updated.VideoLink != "https://x" {
			t.Errorf("videoLink = %q, want https://x", updated.VideoLink)
		}
		if updated.Title != "Demo" || updated.Description != "d" {
			t.Error("title and description must be unchanged")
		}
		if got := updated.TechnologyList(); len(got) != 2 {
			t.Errorf("technologies = %v, want [Go React]", got)
		}
	})

	t.Run("replacing the image retires the old file", func(t *testing.T) {
		router, store := newTestRouter(t)

		created := createProject(t, router, map[string]string{
			"title":       "Demo",
			"description": "d",
		}, "old.png", "image/png", []byte("old"))

		body, contentType := multipartBody(t, nil, "new.png", "image/png", []byte("new"))
		rec := doRequest(router, http.MethodPut, "/projects/"+created.ID.String(), body, contentType)
		if rec.Code != http.StatusOK {
			t.Fatalf("update returned %d: %s", rec.Code, rec.Body.String())
		}

		var updated models.Project
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("failed to decode updated project: %v", err)
		}
		if updated.Image == created.Image {
			t.Fatal("image reference should have changed")
		}
		if _, ok := store.Resolve(created.Image); ok {
			t.Error("old asset should be gone")
		}

		rec = doRequest(router, http.MethodGet, updated.Image, nil, "")
		if rec.Code != http.StatusOK || !bytes.Equal(rec.Body.Bytes(), []byte("new")) {
			t.Errorf("new asset not served correctly: %d", rec.Code)
		}
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		router, _ := newTestRouter(t)

		body, contentType := multipartBody(t, map[string]string{"title": "x"}, "", "", nil)
		rec := doRequest(router, http.MethodPut, "/projects/"+uuid.NewString(), body, contentType)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestDeleteProjectEndpoint(t *testing.T) {
	t.Run("removes record and asset", func(t *testing.T) {
		router, store := newTestRouter(t)

		created := createProject(t, router, map[string]string{
			"title":       "Demo",
			"description": "d",
		}, "shot.png", "image/png", []byte("data"))

		rec := doRequest(router, http.MethodDelete, "/projects/"+created.ID.String(), nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("delete returned %d: %s", rec.Code, rec.Body.String())
		}

		rec = doRequest(router, http.MethodGet, "/projects/"+created.ID.String(), nil, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 after delete, got %d", rec.Code)
		}
		if _, ok := store.Resolve(created.Image); ok {
			t.Error("asset should no longer resolve")
		}
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := doRequest(router, http.MethodDelete, "/projects/"+uuid.NewString(), nil, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestSweepEndpoint(t *testing.T) {
	router, store := newTestRouter(t)

	created := createProject(t, router, map[string]string{
		"title":       "Demo",
		"description": "d",
	}, "live.png", "image/png", []byte("live"))

	orphan, err := store.Save(storage.Upload{
		Bytes:        []byte("stray"),
		ContentType:  "image/png",
		OriginalName: "stray.png",
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	rec := doRequest(router, http.MethodPost, "/maintenance/sweep", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("sweep returned %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		Removed int `json:"removed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode sweep response: %v", err)
	}
	if result.Removed != 1 {
		t.Errorf("removed = %d, want 1", result.Removed)
	}
	if _, ok := store.Resolve(orphan); ok {
		t.Error("orphan should be gone")
	}
	if _, ok := store.Resolve(created.Image); !ok {
		t.Error("live asset must survive")
	}
}
