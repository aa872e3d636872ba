package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/harbor/internal/frontend"
	"github.com/MrSnakeDoc/harbor/internal/httpserver/deps"
	"github.com/MrSnakeDoc/harbor/internal/inventory"
	"github.com/MrSnakeDoc/harbor/internal/logger"
)

type syncResponse struct {
	Synced bool `json:"synced"`
}

type removeResponse struct {
	Removed bool `json:"removed"`
}

// SyncFrontend republishes the routing entry of one application.
func SyncFrontend(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appID := chi.URLParam(r, "appID")

		app, err := d.Registry.Application(appID)
		if errors.Is(err, inventory.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		if d.Frontends == nil {
			writeJSON(w, http.StatusOK, syncResponse{Synced: false})
			return
		}

		err = d.Frontends.Sync(r.Context(), app)
		var resErr *frontend.ResolutionError
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, syncResponse{Synced: true})
		case errors.As(err, &resErr):
			writeError(w, http.StatusUnprocessableEntity, err)
		default:
			d.Logger.Error("frontend sync failed",
				logger.String("app_id", appID),
				logger.Error(err))
			writeError(w, http.StatusBadGateway, errors.New("frontend store unavailable"))
		}
	}
}

// RemoveFrontend deletes the routing entry of a domain.
func RemoveFrontend(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domainName := chi.URLParam(r, "domain")

		if d.Frontends == nil {
			writeJSON(w, http.StatusOK, removeResponse{Removed: false})
			return
		}

		if err := d.Frontends.Remove(r.Context(), domainName); err != nil {
			d.Logger.Error("frontend removal failed",
				logger.String("domain", domainName),
				logger.Error(err))
			writeError(w, http.StatusBadGateway, errors.New("frontend store unavailable"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
