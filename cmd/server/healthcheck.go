// Package main is the entry point of the application
package main

import (
	"encoding/json"
	"net/http"
	"time"
)

// healthResponse is the GET /health body.
type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// handleHealth reports process liveness for load balancers and uptime probes.
func (app *application) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	_ = json.NewEncoder(w).Encode(healthResponse{
		Status: "ok",
		Uptime: time.Since(app.StartTime).Round(time.Second).String(),
	})
}
