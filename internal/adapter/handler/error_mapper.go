package handler

import (
	"errors"
	"net/http"

	"user-hub/internal/domain"

	"github.com/labstack/echo/v4"
)

// errorBody is the JSON body of a failed resolution.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// mapDomainError converts a resolution error into an echo.HTTPError.
func mapDomainError(err error) *echo.HTTPError {
	body := errorBody{Error: "internal error"}
	var rerr *domain.ResolutionError
	if errors.As(err, &rerr) {
		body = errorBody{Error: rerr.Name(), Message: rerr.Message}
	}

	switch {
	case errors.Is(err, domain.ErrNotLoggedIn):
		return echo.NewHTTPError(http.StatusUnauthorized, body)
	case errors.Is(err, domain.ErrNetwork),
		errors.Is(err, domain.ErrDecoding):
		return echo.NewHTTPError(http.StatusBadGateway, body)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, body)
	}
}
