package server

import (
	"net/http"

	apperrors "github.com/roamsim/roamsim/internal/errors"
)

// HandleError is the single exit point for handler errors; everything funnels
// through the errors package so responses, logs, and metrics stay consistent.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}
