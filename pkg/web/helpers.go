package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	// Handle nil payload
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondJSON(w, logger, status, map[string]string{"error": message})
}

// ParseNumber extracts and validates the product number from the request
// path. Returns the number and a boolean indicating success.
func ParseNumber(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int, bool) {
	pathValue := r.PathValue("number")
	number, err := strconv.Atoi(pathValue)
	if err != nil || number <= 0 {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid product number: %s", pathValue))
		return 0, false
	}
	return number, true
}

// ParseQueryInt parses a required positive integer query parameter.
// Returns the value and a boolean indicating success.
func ParseQueryInt(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("%s url parameter is required", key))
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, raw))
		return 0, false
	}
	return value, true
}

// ParseQueryFloat parses an optional float query parameter. The second
// return reports whether the parameter was present and parseable; a missing
// parameter is not an error and yields the provided default.
func ParseQueryFloat(r *http.Request, key string, def float64) (float64, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def, false
	}
	return value, true
}
