package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/harbor/internal/httpserver/deps"
	"github.com/MrSnakeDoc/harbor/internal/httpserver/handlers"
)

func init() { Register(registerTasks) }

func registerTasks(r chi.Router, d deps.Deps) {
	g := guarded(r, d)
	g.Post("/api/tasks", handlers.PublishTask(d))
	g.Get("/api/tasks/{taskID}", handlers.GetTask(d))
}
