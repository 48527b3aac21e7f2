package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/monkedh/monkedh/pkg/clients"
)

// mapClientError maps remote analyzer errors to HTTP error responses.
func mapClientError(err error) *echo.HTTPError {
	var statusErr *clients.StatusError
	if errors.As(err, &statusErr) {
		return echo.NewHTTPError(statusErr.Code, statusErr.Body)
	}
	var decodeErr *clients.DecodeError
	if errors.As(err, &decodeErr) {
		return echo.NewHTTPError(http.StatusBadGateway, "invalid response from upstream service")
	}
	if errors.Is(err, clients.ErrTimeout) {
		return echo.NewHTTPError(http.StatusGatewayTimeout, "upstream service timed out")
	}
	if errors.Is(err, clients.ErrUnreachable) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "upstream service unreachable")
	}

	// Unexpected error
	slog.Error("Unexpected client error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
