// Package handler contains the HTTP controllers.  They parse and
// validate the wire input, call one service operation and translate
// the typed error that comes back; all business rules live below.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dormhub/dormitory-admin/internal/repository"
)

// writeError maps the core error taxonomy onto HTTP statuses.  The
// error's own message is returned so clients see which rule failed.
func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrInvalidState), errors.Is(err, repository.ErrInvalidTransition):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrCapacityExceeded),
		errors.Is(err, repository.ErrRoomUnavailable):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		// Do not leak storage internals to clients.
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}
