package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/moodyshaheen/protfolio/services"
	"github.com/moodyshaheen/protfolio/storage"
)

// remoteStore stands in for a bucket-backed storage.Store whose assets live
// behind public URLs rather than on local disk.
type remoteStore struct {
	objects map[string]string
}

func (s *remoteStore) Save(upload storage.Upload) (string, error) {
	name := upload.OriginalName
	s.objects[name] = "https://assets.example.com/" + name
	return storage.RefPrefix + name, nil
}

func (s *remoteStore) Remove(ref string) error {
	delete(s.objects, strings.TrimPrefix(ref, storage.RefPrefix))
	return nil
}

func (s *remoteStore) Resolve(ref string) (string, bool) {
	location, ok := s.objects[strings.TrimPrefix(ref, storage.RefPrefix)]
	return location, ok
}

func (s *remoteStore) List() ([]string, error) {
	refs := make([]string, 0, len(s.objects))
	for name := range s.objects {
		refs = append(refs, storage.RefPrefix+name)
	}
	return refs, nil
}

func newRemoteRouter(t *testing.T) (*chi.Mux, *remoteStore) {
	t.Helper()

	store := &remoteStore{objects: make(map[string]string)}
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

func TestServeAssetRemoteStore(t *testing.T) {
	router, _ := newRemoteRouter(t)

	t.Run("image reference redirects to the resolved location", func(t *testing.T) {
		project := createProject(t, router, map[string]string{
			"title":       "Remote",
			"description": "Asset lives in a bucket",
		}, "shot.png", "image/png", []byte("png-bytes"))

		rec := doRequest(router, http.MethodGet, project.Image, nil, "")
		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("expected status 307, got %d", rec.Code)
		}
		want := "https://assets.example.com/" + strings.TrimPrefix(project.Image, storage.RefPrefix)
		if got := rec.Header().Get("Location"); got != want {
			t.Fatalf("expected redirect to %q, got %q", want, got)
		}
	})

	t.Run("unknown reference is a 404", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, storage.RefPrefix+"missing.png", nil, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestServeAssetDiskStore(t *testing.T) {
	router, store := newTestRouter(t)

	t.Run("directory request is a 404, not a listing", func(t *testing.T) {
		ref, err := store.Save(storage.Upload{
			Bytes:        []byte("png-bytes"),
			ContentType:  "image/png",
			OriginalName: "shot.png",
		})
		if err != nil {
			t.Fatalf("failed to store asset: %v", err)
		}

		rec := doRequest(router, http.MethodGet, storage.RefPrefix, nil, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404 for %s, got %d", storage.RefPrefix, rec.Code)
		}
		if body := rec.Body.String(); strings.Contains(body, strings.TrimPrefix(ref, storage.RefPrefix)) {
			t.Fatalf("directory response leaked stored filenames: %q", body)
		}
	})
}
