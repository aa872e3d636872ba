package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/harbor/internal/httpserver/deps"
	"github.com/MrSnakeDoc/harbor/internal/httpserver/handlers"
)

func init() { Register(registerConsole) }

func registerConsole(r chi.Router, d deps.Deps) {
	guarded(r, d).Post("/api/console/sessions", handlers.OpenConsole(d))
}
