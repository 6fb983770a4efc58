package transport

import (
	"errors"
	"net/http"

	"feedreader/internal/greader/service"
)

// writeServiceError maps a service-layer sentinel error to the matching
// GReader text-response status code, grounded on stream_filter_builder.py's
// raising ValueError/PermissionDenied and the Django views translating
// those into 400/403/404 text responses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writePlainStatus(w, http.StatusNotFound, err)
	case errors.Is(err, service.ErrPermissionDenied):
		writePlainStatus(w, http.StatusForbidden, err)
	case errors.Is(err, service.ErrInvalidRequest):
		writePlainStatus(w, http.StatusBadRequest, err)
	default:
		writePlainStatus(w, http.StatusInternalServerError, err)
	}
}

func writePlainStatus(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	w.Write([]byte(err.Error()))
}
