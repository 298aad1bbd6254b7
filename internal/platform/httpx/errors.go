package httpx

import (
	"errors"
	"net/http"

	"github.com/fuelbook/fuelbook/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrReasonRequired):
		Problem(w, http.StatusUnprocessableEntity, "Reason Required", err.Error())
	case errors.Is(err, shared.ErrLocked):
		Problem(w, http.StatusLocked, "Day Locked", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
