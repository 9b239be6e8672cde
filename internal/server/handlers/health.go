package handlers

import (
	"net/http"

	"github.com/localq/localq/api"
	"github.com/localq/localq/internal/server/database"
)

// Handles health check requests.
type Health struct {
	Store database.Store
}

// GetHandleFunc handles health check requests by verifying the database connection.
func (h *Health) GetHandleFunc(w http.ResponseWriter, r *http.Request) {
	status := api.Ok
	code := http.StatusOK

	// Check if DB is healthy
	if err := h.Store.Ping(); err != nil {
		status = api.Failed
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, api.Health{
		Status: status,
	})
}
