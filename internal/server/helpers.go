package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// sortJobs orders jobs by start time, oldest first
func sortJobs(jobs []Job) {
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].StartTime.Equal(jobs[j].StartTime) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].StartTime.Before(jobs[j].StartTime)
	})
}
