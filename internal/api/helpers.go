package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"userinfo-service/internal/models"
)

const contentTypeJSON = "application/json; charset=utf-8"

// writeJSON serialises v as JSON and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("JSON marshal error", "error", err)
		writeRaw(w, http.StatusInternalServerError, []byte(`{"Error":"Internal server error."}`))
		return
	}
	writeRaw(w, status, body)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}

// WriteError writes {"Error": msg}. detail is dropped unless debug is set.
func WriteError(w http.ResponseWriter, status int, msg, detail string, debug bool) {
	resp := models.ErrorResponse{Error: msg}
	if debug {
		resp.Detail = detail
	}
	writeJSON(w, status, resp)
}
