package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/query"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/registry"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/service"
	"github.com/lsst-sqre/exposurelog/common/logger"
)

// Error codes in the "error" field of error responses
const (
	CodeNotFound        = "not_found"
	CodeBadRequest      = "bad_request"
	CodeValidation      = "validation_error"
	CodeMultipleMatches = "multiple_exposures"
	CodeRegistryFailure = "registry_error"
	CodeInternal        = "internal_error"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// respondError maps err to a status code and writes the error body.
// Server-side failures are logged; their details stay out of the response.
func respondError(c echo.Context, log *logger.Logger, err error) error {
	var verr *query.ValidationError
	var herr *echo.HTTPError

	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: CodeNotFound, Message: err.Error()})
	case errors.Is(err, service.ErrBadRequest):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: CodeBadRequest, Message: err.Error()})
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: CodeValidation, Message: verr.Error()})
	case errors.Is(err, registry.ErrMultipleMatches):
		log.WithContext(c.Request().Context()).Warn("registry holds duplicate exposures", "error", err)
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: CodeMultipleMatches, Message: err.Error()})
	case errors.Is(err, registry.ErrRegistry):
		log.WithContext(c.Request().Context()).Warn("registry lookup failed", "error", err)
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: CodeRegistryFailure, Message: "exposure registry unavailable"})
	case errors.As(err, &herr):
		return c.JSON(herr.Code, ErrorResponse{Error: CodeBadRequest, Message: http.StatusText(herr.Code)})
	}

	log.WithContext(c.Request().Context()).Error("request failed",
		"method", c.Request().Method,
		"path", c.Path(),
		"error", err,
	)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: CodeInternal, Message: "internal server error"})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: CodeBadRequest, Message: message})
}
