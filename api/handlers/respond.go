package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cybercell/complaint-portal-api/config"
	"github.com/cybercell/complaint-portal-api/services"
)

// writeJSON marshals body and writes it with status
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	b, err := json.Marshal(body)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

// writeServiceError maps a services error onto its HTTP status. notFound is the
// message shown for ErrNotFound.
func writeServiceError(w http.ResponseWriter, err error, notFound string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		config.ErrorStatus(verr.Message, http.StatusBadRequest, w, err)
	case errors.Is(err, services.ErrNotFound):
		config.ErrorStatus(notFound, http.StatusNotFound, w, err)
	case errors.Is(err, services.ErrUnauthorized):
		config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, err)
	case errors.Is(err, services.ErrConflict):
		config.ErrorStatus("already exists", http.StatusConflict, w, err)
	default:
		config.ErrorStatus("internal server error", http.StatusInternalServerError, w, err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return false
	}
	return true
}
