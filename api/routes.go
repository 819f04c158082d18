package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/moodyshaheen/protfolio/storage"
)

// setupRoutes wires every endpoint onto the router
func setupRoutes(r chi.Router, handlers *routeHandlers, store storage.Store) {
	r.Group(func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("API Working"))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})

		// Project endpoints
		r.Get("/projects", handlers.projectHandler.getAllProjects())
		r.Get("/projects/{projectID}", handlers.projectHandler.getProject())
		r.Post("/projects", handlers.projectHandler.createProject())
		r.Put("/projects/{projectID}", handlers.projectHandler.updateProject())
		r.Delete("/projects/{projectID}", handlers.projectHandler.deleteProject())

		// Maintenance endpoints
		r.Post("/maintenance/sweep", handlers.maintenanceHandler.sweepOrphans())
	})

	// Stored assets are served read-only under the same prefix the store
	// embeds in its references.
	r.Get(storage.RefPrefix+"*", serveAsset(store))
}

// serveAsset maps a stored reference to its bytes. The disk backend streams
// the file directly; remote backends redirect to the location the store
// resolves. Only flat filenames exist under the prefix, so anything shaped
// like a directory is a miss.
func serveAsset(store storage.Store) http.HandlerFunc {
	if disk, ok := store.(*storage.DiskStore); ok {
		fileServer := http.StripPrefix(storage.RefPrefix, http.FileServer(http.Dir(disk.Dir())))
		return func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}
			fileServer.ServeHTTP(w, r)
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		location, ok := store.Resolve(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, location, http.StatusTemporaryRedirect)
	}
}
