package main

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgraderOriginCheck(t *testing.T) {
	tests := []struct {
		name          string
		allowedOrigin string
		origin        string
		want          bool
	}{
		{"no restriction accepts anything", "", "https://evil.example", true},
		{"matching origin accepted", "https://play.example", "https://play.example", true},
		{"foreign origin rejected", "https://play.example", "https://evil.example", false},
		{"missing origin header rejected when restricted", "https://play.example", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := newUpgrader(tt.allowedOrigin)

			r := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}

			assert.Equal(t, tt.want, up.CheckOrigin(r))
		})
	}
}

func TestHandleHealth(t *testing.T) {
	app := &application{StartTime: time.Now().Add(-90 * time.Second)}

	w := httptest.NewRecorder()
	app.handleHealth(w, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, 200, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "1m30s", body.Uptime)
}
