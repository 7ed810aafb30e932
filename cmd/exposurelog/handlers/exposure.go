package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/query"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/service"
	"github.com/lsst-sqre/exposurelog/common/logger"
)

// ExposureHandler handles registry requests
type ExposureHandler struct {
	exposures *service.ExposureService
	log       *logger.Logger
}

// NewExposureHandler creates a new exposure handler
func NewExposureHandler(exposures *service.ExposureService, log *logger.Logger) *ExposureHandler {
	return &ExposureHandler{
		exposures: exposures,
		log:       log,
	}
}

// FindExposures searches one registry
// GET /exposurelog/exposures?registry=1&instrument=LSSTCam&min_day_obs=20190322
func (h *ExposureHandler) FindExposures(c echo.Context) error {
	instrument := c.QueryParam("instrument")
	if instrument == "" {
		return badRequest(c, "instrument is required")
	}

	registryIndex := 1
	if s := c.QueryParam("registry"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return badRequest(c, "registry must be an integer")
		}
		registryIndex = n
	}

	params, err := parseFindParams(c.QueryParams(), query.ExposureTable)
	if err != nil {
		return badRequest(c, err.Error())
	}

	exposures, err := h.exposures.FindExposures(c.Request().Context(),
		registryIndex, instrument, params.args, params.orderBy, params.limit, params.offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, exposures)
}

// Instruments lists the instruments of each registry
// GET /exposurelog/instruments
func (h *ExposureHandler) Instruments(c echo.Context) error {
	instruments, err := h.exposures.Instruments(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, instruments)
}
