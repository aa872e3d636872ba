package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/harbor/internal/httpserver/deps"
	"github.com/MrSnakeDoc/harbor/internal/httpserver/handlers"
)

func init() { Register(registerFrontends) }

func registerFrontends(r chi.Router, d deps.Deps) {
	g := guarded(r, d)
	g.Post("/api/frontends/{appID}/sync", handlers.SyncFrontend(d))
	g.Delete("/api/frontends/{domain}", handlers.RemoveFrontend(d))
}
