package api

import (
	"github.com/moodyshaheen/protfolio/database"
	"github.com/moodyshaheen/protfolio/services"
	"github.com/moodyshaheen/protfolio/storage"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(database database.Database, store storage.Store, maxUploadBytes int64) *routeHandlers {
	projectService := services.NewProjectService(database.ProjectRepo(), store)

	return &routeHandlers{
		projectHandler:     newProjectHandler(projectService, maxUploadBytes),
		maintenanceHandler: newMaintenanceHandler(projectService),
	}
}
