package handler

import (
	"errors"
	"net/http"

	"github.com/goviral/goviral/internal/api/response"
	"github.com/goviral/goviral/internal/core"
)

// writeServiceError maps core error sentinels to HTTP statuses. Anything
// unrecognized is a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInvalidPlan):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrAlreadySubscribed):
		status = http.StatusConflict
	case errors.Is(err, core.ErrNoActiveSubscription):
		status = http.StatusConflict
	case errors.Is(err, core.ErrDowngradeNotAllowed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrQuotaExceeded):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrPaymentUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, core.ErrPaymentFailed):
		status = http.StatusPaymentRequired
	}
	response.WriteError(w, status, err.Error())
}
