package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/MrSnakeDoc/harbor/internal/httpserver/deps"
	"github.com/MrSnakeDoc/harbor/internal/inventory"
	"github.com/MrSnakeDoc/harbor/internal/logger"
)

type consoleRequest struct {
	ContainerID string `json:"container_id"`
}

type consoleResponse struct {
	SessionID string `json:"session_id"`
}

// OpenConsole issues a console attach session for a known container.
func OpenConsole(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req consoleRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
		if req.ContainerID == "" {
			writeError(w, http.StatusBadRequest, errors.New("container_id is required"))
			return
		}

		c, err := d.Registry.Container(req.ContainerID)
		if errors.Is(err, inventory.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		id, err := d.Console.Issue(r.Context(), c)
		if err != nil {
			d.Logger.Error("console session failed",
				logger.String("container_id", req.ContainerID),
				logger.Error(err))
			writeError(w, http.StatusBadGateway, errors.New("session store unavailable"))
			return
		}
		writeJSON(w, http.StatusCreated, consoleResponse{SessionID: id})
	}
}
