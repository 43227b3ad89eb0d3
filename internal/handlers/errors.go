package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Wassi1m/app-surveince/internal/database"
)

// handleDBError handles database errors and writes appropriate HTTP responses.
// Returns true if error was handled, false otherwise.
func handleDBError(w http.ResponseWriter, err error, resource string, resourceID int64) bool {
	if err == nil {
		return false
	}

	slog.Error("Database error", "error", err, "resource", resource, "resource_id", resourceID)

	switch {
	case errors.Is(err, database.ErrNotFound):
		http.Error(w, resource+" not found", http.StatusNotFound)
	case errors.Is(err, database.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, database.ErrCooldown):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "failed to access "+resource+": "+err.Error(), http.StatusInternalServerError)
	}
	return true
}
