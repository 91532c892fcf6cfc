// Package main is the entry point of the application
package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/JoshuaCandia/custom-chess/pkg/server"
)

// handleWebSocket handles WebSocket connections
func (app *application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Upgrade HTTP connection to WebSocket
	ws, err := app.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.Logger.Error("Failed to upgrade to WebSocket", zap.Error(err))
		return
	}

	// The player id enables reconnection; without one the player is a guest.
	identity := r.URL.Query().Get("player_id")
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "anonymous"
	}

	// Create and register connection
	conn := server.NewConnection(ws, app.Hub, app.Publisher, app.Logger, identity, name)
	app.Hub.Register(conn)

	app.Logger.Info("WebSocket connection established",
		zap.String("remote_addr", r.RemoteAddr),
		zap.Bool("guest", identity == ""))

	// Start connection read/write goroutines
	go conn.WritePump()
	go conn.ReadPump()
}
