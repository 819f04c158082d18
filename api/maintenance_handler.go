package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/moodyshaheen/protfolio/services"
)

type maintenanceHandler struct {
	responder      Responder
	logger         zerolog.Logger
	projectService *services.ProjectService
}

func newMaintenanceHandler(projectService *services.ProjectService) maintenanceHandler {
	logger := log.With().Str("handlerName", "maintenanceHandler").Logger()

	return maintenanceHandler{
		responder:      NewResponder(logger),
		logger:         logger,
		projectService: projectService,
	}
}

// sweepOrphans removes stored assets that no project references. Triggered
// by an operator, never by a schedule.
func (h maintenanceHandler) sweepOrphans() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed, err := h.projectService.SweepOrphans()
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, map[string]interface{}{
			"status":  "success",
			"removed": removed,
		})
	}
}
