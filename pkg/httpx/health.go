package httpx

import (
	"context"
	"net/http"
	"time"
)

// HealthResponse is the body of the /livez and /readyz probes.
type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Check is one readiness dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// LivezHandler returns 200 for as long as the process is serving.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler runs every check and answers 503 if any fails.
func ReadyzHandler(startTime time.Time, version string, checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  make(map[string]string, len(checks)),
		}
		code := http.StatusOK

		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				resp.Checks[name] = "error: " + err.Error()
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}

		WriteJSON(w, code, resp)
	}
}
