package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/harbor/internal/domain"
	"github.com/MrSnakeDoc/harbor/internal/httpserver/deps"
	"github.com/MrSnakeDoc/harbor/internal/logger"
	"github.com/MrSnakeDoc/harbor/internal/tasks"
)

type publishTaskRequest struct {
	HostID  string        `json:"host_id"`
	Command string        `json:"command"`
	Params  domain.Params `json:"params"`
}

type publishTaskResponse struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
}

// PublishTask queues a command for the agent of one host.
func PublishTask(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req publishTaskRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}

		task, err := d.Tasks.Publish(r.Context(), req.HostID, req.Command, req.Params)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrInvalidTask), errors.Is(err, domain.ErrUnsupportedParam):
			writeError(w, http.StatusBadRequest, err)
			return
		case errors.Is(err, tasks.ErrInvalidTTL):
			d.Logger.Error("host task publisher misconfigured", logger.Error(err))
			writeError(w, http.StatusInternalServerError, errors.New("task publisher misconfigured"))
			return
		default:
			d.Logger.Error("host task publication failed",
				logger.String("host_id", req.HostID),
				logger.String("command", req.Command),
				logger.Error(err))
			writeError(w, http.StatusBadGateway, errors.New("task store unavailable"))
			return
		}

		writeJSON(w, http.StatusCreated, publishTaskResponse{ID: task.ID, CreatedAt: task.CreatedAt})
	}
}

type taskResponse struct {
	ID        string        `json:"id"`
	CreatedAt int64         `json:"created_at"`
	HostID    string        `json:"host_id"`
	Command   string        `json:"command"`
	Params    domain.Params `json:"params"`
	Acked     bool          `json:"acked"`
}

// GetTask returns a queued task as the host agent would read it.
func GetTask(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "taskID")

		task, err := tasks.Lookup(r.Context(), d.Store, id)
		switch {
		case err == nil:
		case errors.Is(err, tasks.ErrTaskNotFound):
			writeError(w, http.StatusNotFound, err)
			return
		case errors.Is(err, domain.ErrMalformedTask):
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		default:
			d.Logger.Error("host task lookup failed",
				logger.String("task_id", id),
				logger.Error(err))
			writeError(w, http.StatusBadGateway, errors.New("task store unavailable"))
			return
		}

		writeJSON(w, http.StatusOK, taskResponse{
			ID:        task.ID,
			CreatedAt: task.CreatedAt,
			HostID:    task.HostID,
			Command:   task.Command,
			Params:    task.Params,
			Acked:     task.Ack != domain.AckPending,
		})
	}
}
