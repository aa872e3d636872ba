package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/harbor/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Mode       string `json:"mode,omitempty"`
	Hosts      *int   `json:"hosts,omitempty"`
	Apps       *int   `json:"applications,omitempty"`
	Containers *int   `json:"containers,omitempty"`
	LastReload string `json:"last_reload,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

// Infra summarizes the state of each component for operators.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"redis":     checkRedis(r.Context(), d),
			"inventory": inventoryStatus(d),
			"frontends": frontendStatus(d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Status:     overallStatus(components),
			Components: components,
		})
	}
}

func overallStatus(components map[string]componentStatus) string {
	if c, ok := components["redis"]; ok && !c.OK {
		return "critical"
	}
	if c, ok := components["inventory"]; ok && !c.OK {
		return "degraded"
	}
	return "ok"
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{OK: false, Error: "client not initialized"}
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}
	return componentStatus{OK: true}
}

func inventoryStatus(d deps.Deps) componentStatus {
	if d.Registry == nil {
		return componentStatus{OK: false, Error: "registry not initialized"}
	}

	hosts, apps, containers := d.Registry.Counts()
	last := d.Registry.LastReload()
	lastStr := "never"
	if !last.IsZero() {
		lastStr = last.UTC().Format(time.RFC3339)
	}

	return componentStatus{
		OK:         !last.IsZero(),
		Hosts:      &hosts,
		Apps:       &apps,
		Containers: &containers,
		LastReload: lastStr,
	}
}

func frontendStatus(d deps.Deps) componentStatus {
	if d.Frontends == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}
	return componentStatus{OK: true, Mode: "enabled"}
}
